// Package ledger computes receivable and payable reports. Reports are never
// stored: every request rebuilds them from invoices, annotated statement
// transactions, and whatever mappings those transactions carry.
package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"finrecon/pkg/models"
)

// entry accumulates one counterparty's position with decimal arithmetic so
// repeated float sums cannot drift.
type entry struct {
	name     string
	gstNo    string
	invoiced decimal.Decimal
	settled  decimal.Decimal
	invoices []models.InvoiceRef
	payments []models.PaymentRef
}

// BuildReport aggregates one direction. Receivable reports cover sales
// invoices and credit transactions; payable reports cover purchase invoices
// and debits. Transactions without a mapping surface as unmatched payments
// and touch no counterparty totals.
func BuildReport(direction models.MappingDirection, invoices []*models.Invoice, statements []*models.BankStatement) *models.LedgerReport {
	invoiceType := models.InvoiceTypeSales
	if direction == models.MappingPayable {
		invoiceType = models.InvoiceTypePurchase
	}

	entries := make(map[string]*entry)
	var order []string

	lookup := func(name string) *entry {
		key := strings.ToLower(strings.TrimSpace(name))
		e, ok := entries[key]
		if !ok {
			e = &entry{name: strings.TrimSpace(name)}
			entries[key] = e
			order = append(order, key)
		}
		return e
	}

	for _, inv := range invoices {
		if inv.Type != invoiceType {
			continue
		}
		name := inv.Counterparty()
		if name == "" {
			continue
		}
		e := lookup(name)
		if e.gstNo == "" {
			e.gstNo = inv.CounterpartyGST()
		}
		e.invoiced = e.invoiced.Add(decimal.NewFromFloat(inv.ExtractedData.TotalAmount))
		e.invoices = append(e.invoices, models.InvoiceRef{
			ID:          inv.ID,
			InvoiceNo:   inv.ExtractedData.InvoiceNo,
			InvoiceDate: inv.ExtractedData.InvoiceDate,
			Amount:      inv.ExtractedData.TotalAmount,
			CreatedAt:   inv.CreatedAt,
		})
	}

	var unmatched []models.PaymentRef

	for _, st := range statements {
		for i := range st.Transactions {
			tx := &st.Transactions[i]
			if tx.IsCredit() != (direction == models.MappingReceivable) {
				continue
			}

			ref := models.PaymentRef{
				StatementID:      st.ID,
				TransactionIndex: tx.Index,
				Date:             tx.Date,
				Description:      tx.Description,
				Amount:           tx.Amount(),
				MatchType:        tx.MatchType,
				MatchScore:       tx.MatchScore,
			}

			party := tx.MappedParty()
			if party == "" {
				unmatched = append(unmatched, ref)
				continue
			}
			e := lookup(party)
			e.settled = e.settled.Add(decimal.NewFromFloat(tx.Amount()))
			e.payments = append(e.payments, ref)
		}
	}

	report := &models.LedgerReport{
		Direction:         direction,
		Entries:           make([]models.LedgerEntry, 0, len(order)),
		UnmatchedPayments: unmatched,
	}

	totalInvoiced := decimal.Zero
	totalSettled := decimal.Zero
	for _, key := range order {
		e := entries[key]
		outstanding := e.invoiced.Sub(e.settled)
		totalInvoiced = totalInvoiced.Add(e.invoiced)
		totalSettled = totalSettled.Add(e.settled)

		report.Entries = append(report.Entries, models.LedgerEntry{
			Name:          e.name,
			GSTNo:         e.gstNo,
			TotalInvoiced: e.invoiced.InexactFloat64(),
			TotalSettled:  e.settled.InexactFloat64(),
			Outstanding:   outstanding.InexactFloat64(),
			Invoices:      e.invoices,
			Payments:      e.payments,
		})
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		return report.Entries[i].Name < report.Entries[j].Name
	})

	report.Summary = models.LedgerSummary{
		TotalInvoiced:    totalInvoiced.InexactFloat64(),
		TotalSettled:     totalSettled.InexactFloat64(),
		TotalOutstanding: totalInvoiced.Sub(totalSettled).InexactFloat64(),
	}

	return report
}
