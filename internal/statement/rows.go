package statement

import (
	"strconv"
	"strings"
	"time"

	"finrecon/pkg/models"
)

// columnMap records where each statement column landed in the header row.
// -1 means the column is absent.
type columnMap struct {
	date        int
	description int
	debit       int
	credit      int
	amount      int // single signed/tagged amount column
}

var (
	dateHeaders = []string{"date", "txn date", "tran date", "transaction date", "value date", "posting date"}
	descHeaders = []string{"narration", "description", "particulars", "details", "transaction details", "remarks", "transaction remarks"}
	debitHeaders = []string{"debit", "withdrawal", "withdrawal amt", "withdrawal amount", "debit amount", "dr amount", "dr"}
	creditHeaders = []string{"credit", "deposit", "deposit amt", "deposit amount", "credit amount", "cr amount", "cr"}
	amountHeaders = []string{"amount", "transaction amount", "amount (inr)"}
)

// findHeader scans the leading rows for a recognizable column header.
// Returns the header's row index and column map, or ok=false.
func findHeader(rows [][]string) (int, columnMap, bool) {
	limit := len(rows)
	if limit > 15 {
		limit = 15
	}

	for i := 0; i < limit; i++ {
		cols := mapColumns(rows[i])
		if cols.date >= 0 && (cols.debit >= 0 || cols.credit >= 0 || cols.amount >= 0) {
			return i, cols, true
		}
	}
	return 0, columnMap{}, false
}

func mapColumns(row []string) columnMap {
	cols := columnMap{date: -1, description: -1, debit: -1, credit: -1, amount: -1}
	for idx, cell := range row {
		header := strings.ToLower(strings.TrimSpace(cell))
		if header == "" {
			continue
		}
		switch {
		case cols.date < 0 && matchHeader(header, dateHeaders):
			cols.date = idx
		case cols.description < 0 && matchHeader(header, descHeaders):
			cols.description = idx
		case cols.debit < 0 && matchHeader(header, debitHeaders):
			cols.debit = idx
		case cols.credit < 0 && matchHeader(header, creditHeaders):
			cols.credit = idx
		case cols.amount < 0 && matchHeader(header, amountHeaders):
			cols.amount = idx
		}
	}
	return cols
}

func matchHeader(header string, synonyms []string) bool {
	for _, s := range synonyms {
		if header == s || strings.HasPrefix(header, s+" ") || strings.HasPrefix(header, s+".") {
			return true
		}
	}
	return false
}

// assembleRows converts data rows below the header into transactions.
// Rows that fail the shape rules (no parseable date, or not exactly one of
// credit/debit) are dropped, not fatal.
func assembleRows(rows [][]string, cols columnMap) []models.Transaction {
	var txs []models.Transaction

	for _, row := range rows {
		date, ok := parseStatementDate(cell(row, cols.date))
		if !ok {
			continue
		}

		description := strings.TrimSpace(cell(row, cols.description))

		var credit, debit *float64
		if cols.amount >= 0 && cols.debit < 0 && cols.credit < 0 {
			credit, debit = splitTaggedAmount(cell(row, cols.amount))
		} else {
			if v, ok := parseStatementAmount(cell(row, cols.debit)); ok && v > 0 {
				debit = &v
			}
			if v, ok := parseStatementAmount(cell(row, cols.credit)); ok && v > 0 {
				credit = &v
			}
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

	return txs
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

var statementDateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"02-01-06",
	"2006-01-02",
	"02 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"2 Jan 2006",
	"02.01.2006",
}

func parseStatementDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range statementDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStatementAmount handles Indian statement formatting: comma grouping,
// currency markers, and trailing Cr/Dr tags.
func parseStatementAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	for _, suffix := range []string{"CR", "Cr", "cr", "DR", "Dr", "dr"} {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", "INR", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// splitTaggedAmount interprets a single amount column: a Cr/Dr suffix or the
// sign decides the direction. A cell carrying neither marker is ambiguous
// and is dropped like any other unparseable row.
func splitTaggedAmount(s string) (credit, debit *float64) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, nil
	}

	upper := strings.ToUpper(raw)
	isDebit := strings.HasSuffix(upper, "DR") || strings.HasPrefix(raw, "-")
	isCredit := strings.HasSuffix(upper, "CR")
	if !isDebit && !isCredit {
		return nil, nil
	}

	v, ok := parseStatementAmount(strings.TrimPrefix(raw, "-"))
	if !ok || v == 0 {
		return nil, nil
	}

	if isDebit {
		return nil, &v
	}
	return &v, nil
}
