package statement

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"finrecon/pkg/models"
)

// pdfLinePattern anchors a transaction line: leading date, free-text
// narration, then the trailing numeric columns (amount, and usually a
// running balance).
var pdfLinePattern = regexp.MustCompile(`^(\d{1,2}[/-](?:\d{1,2}|[A-Za-z]{3})[/-]\d{2,4})\s+(.+?)\s+((?:[\d,]+\.\d{2}\s*(?:Cr|Dr|CR|DR)?\s*){1,2})$`)

var pdfAmountPattern = regexp.MustCompile(`([\d,]+\.\d{2})\s*(Cr|Dr|CR|DR)?`)

// pdfTransactions parses a text-layout bank statement PDF. Each page is
// reconstructed row by row, then transaction lines are recognized by their
// leading date. Lines that do not look like transactions (headers, carried
// balances, footers) are skipped.
func pdfTransactions(data []byte) ([]models.Transaction, error) {
	const op = "pdfTransactions"

	lines, err := pdfLines(data)
	if err != nil {
		return nil, wrapParseError("pdf", op, ErrParseFailed, err.Error())
	}

	var txs []models.Transaction
	var prevBalance float64
	var havePrevBalance bool

	for _, line := range lines {
		m := pdfLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		date, ok := parseStatementDate(m[1])
		if !ok {
			continue
		}
		description := strings.TrimSpace(m[2])

		amounts := pdfAmountPattern.FindAllStringSubmatch(m[3], -1)
		if len(amounts) == 0 {
			continue
		}

		// With two numeric columns the last one is the running balance.
		var balance float64
		var haveBalance bool
		if len(amounts) > 1 {
			if v, ok := parseStatementAmount(amounts[len(amounts)-1][1]); ok {
				balance = v
				haveBalance = true
			}
			amounts = amounts[:len(amounts)-1]
		}

		value, ok := parseStatementAmount(amounts[0][1])
		if !ok || value == 0 {
			continue
		}

		var credit, debit *float64
		switch strings.ToUpper(amounts[0][2]) {
		case "CR":
			credit = &value
		case "DR":
			debit = &value
		default:
			// No marker: infer direction from the balance movement.
			if !haveBalance || !havePrevBalance {
				break
			}
			if balance >= prevBalance {
				credit = &value
			} else {
				debit = &value
			}
		}
		if haveBalance {
			prevBalance = balance
			havePrevBalance = true
		}
		if (credit == nil) == (debit == nil) {
			continue
		}

		txs = append(txs, models.Transaction{
			Index:       len(txs),
			Date:        date,
			Description: description,
			Credit:      credit,
			Debit:       debit,
			PartyName:   ExtractPartyName(description),
			MatchType:   models.MatchTypeNone,
		})
	}

	return txs, nil
}

// pdfLines reconstructs the visual rows of every page.
func pdfLines(data []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrParseFailed
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}
