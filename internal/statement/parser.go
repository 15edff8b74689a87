// Package statement parses uploaded bank statements (PDF, XLSX, XLS, CSV)
// into transaction rows. Parsing is tolerant: rows that do not hold up as
// transactions are dropped with a log line, and an empty statement is a
// valid result, not an error.
package statement

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"finrecon/internal/logger"
	"finrecon/pkg/models"
)

// SupportedExtensions lists the statement formats the parser accepts.
var SupportedExtensions = []string{".pdf", ".xlsx", ".xls", ".csv"}

// Parser converts statement files into transactions.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a statement parser.
func NewParser() *Parser {
	return &Parser{log: logger.WithComponent("statement")}
}

// Supported reports whether the filename has a parseable extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Parse dispatches on the file extension and returns the parsed
// transactions, indexed in file order.
func (p *Parser) Parse(data []byte, filename string) ([]models.Transaction, error) {
	const op = "Parse"

	ext := strings.ToLower(filepath.Ext(filename))
	var (
		txs []models.Transaction
		err error
	)

	switch ext {
	case ".pdf":
		txs, err = pdfTransactions(data)
	case ".xlsx":
		txs, err = p.tabularTransactions(data, ext, xlsxRows)
	case ".xls":
		txs, err = p.tabularTransactions(data, ext, xlsRows)
	case ".csv":
		txs, err = p.tabularTransactions(data, ext, csvRows)
	default:
		return nil, wrapParseError(strings.TrimPrefix(ext, "."), op, ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("filename", filename).
		Int("transactions", len(txs)).
		Msg("Statement parsed")

	return txs, nil
}

// tabularTransactions runs the shared header-detect/assemble pipeline over
// a row-oriented format.
func (p *Parser) tabularTransactions(data []byte, ext string, decode func([]byte) ([][]string, error)) ([]models.Transaction, error) {
	const op = "tabularTransactions"
	format := strings.TrimPrefix(ext, ".")

	rows, err := decode(data)
	if err != nil {
		return nil, err
	}

	headerIdx, cols, ok := findHeader(rows)
	if !ok {
		return nil, wrapParseError(format, op, ErrNoHeaderRow, "")
	}

	dataRows := rows[headerIdx+1:]
	txs := assembleRows(dataRows, cols)
	if dropped := len(dataRows) - len(txs); dropped > 0 {
		p.log.Debug().
			Str("format", format).
			Int("dropped_rows", dropped).
			Msg("Skipped rows that did not parse as transactions")
	}
	return txs, nil
}

// Totals sums the credit and debit sides of a transaction list.
func Totals(txs []models.Transaction) (credits, debits float64) {
	for i := range txs {
		if txs[i].Credit != nil {
			credits += *txs[i].Credit
		}
		if txs[i].Debit != nil {
			debits += *txs[i].Debit
		}
	}
	return credits, debits
}
