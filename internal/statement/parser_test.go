package statement

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseCSVStatement(t *testing.T) {
	csvData := strings.Join([]string{
		"Acme Bank Ltd",
		"Statement of Account",
		"Date,Narration,Debit,Credit,Balance",
		"01/04/2026,NEFT/SBIN0001234/ABC TRADERS/INV PAYMENT,,\"10,000.00\",\"50,000.00\"",
		"02/04/2026,UPI/XYZ ENTERPRISES/rent,\"5,500.00\",,\"44,500.00\"",
		"not a date,garbage row,,,",
		"03/04/2026,CHEQUE DEPOSIT,,2500.00,47000.00",
	}, "\n")

	txs, err := NewParser().Parse([]byte(csvData), "statement.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("parsed %d transactions, want 3", len(txs))
	}

	first := txs[0]
	if first.Index != 0 {
		t.Errorf("first index = %d, want 0", first.Index)
	}
	if !first.Date.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date = %v", first.Date)
	}
	if !first.IsCredit() || first.Amount() != 10000 {
		t.Errorf("first transaction: credit=%v amount=%v, want credit 10000", first.IsCredit(), first.Amount())
	}
	if first.PartyName != "ABC TRADERS" {
		t.Errorf("party name = %q, want ABC TRADERS", first.PartyName)
	}

	second := txs[1]
	if second.IsCredit() || second.Amount() != 5500 {
		t.Errorf("second transaction: credit=%v amount=%v, want debit 5500", second.IsCredit(), second.Amount())
	}

	if txs[2].Index != 2 {
		t.Errorf("indexes must be contiguous after dropping rows, got %d", txs[2].Index)
	}
}

func TestParseHeaderOnlyCSVYieldsEmptyStatement(t *testing.T) {
	csvData := "Date,Particulars,Withdrawal,Deposit,Balance\n"

	txs, err := NewParser().Parse([]byte(csvData), "empty.csv")
	if err != nil {
		t.Fatalf("a header-only statement must parse cleanly, got %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("parsed %d transactions, want 0", len(txs))
	}

	credits, debits := Totals(txs)
	if credits != 0 || debits != 0 {
		t.Errorf("totals = %v/%v, want 0/0", credits, debits)
	}
}

func TestParseRejectsRowsWithBothOrNeitherAmount(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,Description,Debit,Credit",
		"01/04/2026,both sides filled,100.00,200.00",
		"02/04/2026,no amounts,,",
		"03/04/2026,valid row,300.00,",
	}, "\n")

	txs, err := NewParser().Parse([]byte(csvData), "s.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("parsed %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "valid row" {
		t.Errorf("kept wrong row: %q", txs[0].Description)
	}
}

func TestParseSingleAmountColumnWithMarkers(t *testing.T) {
	csvData := strings.Join([]string{
		"Txn Date,Transaction Details,Amount",
		"05/04/2026,NEFT/ABC TRADERS,\"1,180.00 Cr\"",
		"06/04/2026,VENDOR PAYOUT,\"2,360.00 Dr\"",
		"07/04/2026,SIGNED DEBIT,\"-750.00\"",
	}, "\n")

	txs, err := NewParser().Parse([]byte(csvData), "s.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("parsed %d transactions, want 3", len(txs))
	}
	if !txs[0].IsCredit() || txs[0].Amount() != 1180 {
		t.Errorf("Cr row: credit=%v amount=%v", txs[0].IsCredit(), txs[0].Amount())
	}
	if txs[1].IsCredit() || txs[1].Amount() != 2360 {
		t.Errorf("Dr row: credit=%v amount=%v", txs[1].IsCredit(), txs[1].Amount())
	}
	if txs[2].IsCredit() || txs[2].Amount() != 750 {
		t.Errorf("signed row: credit=%v amount=%v", txs[2].IsCredit(), txs[2].Amount())
	}
}

// An unsigned, untagged value in a single amount column gives no direction
// to assert, so the row is dropped rather than guessed as a credit.
func TestParseSingleAmountColumnDropsUntaggedRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Txn Date,Transaction Details,Amount",
		"05/04/2026,AMBIGUOUS TRANSFER,\"9,999.00\"",
		"06/04/2026,CLEAR CREDIT,\"1,000.00 Cr\"",
	}, "\n")

	txs, err := NewParser().Parse([]byte(csvData), "s.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("parsed %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "CLEAR CREDIT" || !txs[0].IsCredit() {
		t.Errorf("kept wrong row: %q credit=%v", txs[0].Description, txs[0].IsCredit())
	}
}

func TestParseNoHeaderRow(t *testing.T) {
	_, err := NewParser().Parse([]byte("just,some,cells\nwithout,a,header\n"), "s.csv")
	if !errors.Is(err, ErrNoHeaderRow) {
		t.Errorf("error = %v, want ErrNoHeaderRow", err)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := NewParser().Parse([]byte("anything"), "statement.docx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.XLSX", "c.xls", "d.csv"} {
		if !Supported(name) {
			t.Errorf("Supported(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"a.docx", "b.txt", "c"} {
		if Supported(name) {
			t.Errorf("Supported(%q) = true, want false", name)
		}
	}
}

func TestParseStatementDateFormats(t *testing.T) {
	want := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"05/04/2026", "05-04-2026", "2026-04-05", "05 Apr 2026", "05-Apr-26"} {
		got, ok := parseStatementDate(s)
		if !ok || !got.Equal(want) {
			t.Errorf("parseStatementDate(%q) = %v, %v", s, got, ok)
		}
	}
	if _, ok := parseStatementDate("TOTAL"); ok {
		t.Error("non-date string parsed as date")
	}
}
