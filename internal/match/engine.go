package match

import (
	"math"

	"finrecon/pkg/models"
)

// Scoring weights: name similarity dominates, amount proximity breaks near
// ties. A candidate with no open invoice amounts is scored on name alone.
const (
	weightSimilarity = 0.7
	weightAmount     = 0.3
)

// Candidate is one potential counterparty: a party name drawn from the
// user's invoices, plus the totals of its invoices as amount hints.
type Candidate struct {
	Name        string
	OpenAmounts []float64
}

// Engine computes transaction-to-counterparty matches.
type Engine struct {
	sim             Similarity
	autoAcceptScore float64
	amountTolerance float64
}

// NewEngine creates a matching engine. autoAcceptScore is the 0-100 score at
// which a match is accepted without review; amountTolerance is the relative
// amount difference at which amount proximity reaches zero.
func NewEngine(sim Similarity, autoAcceptScore, amountTolerance float64) *Engine {
	if sim == nil {
		sim = LevenshteinSimilarity{}
	}
	return &Engine{
		sim:             sim,
		autoAcceptScore: autoAcceptScore,
		amountTolerance: amountTolerance,
	}
}

// Result is a scored match decision.
type Result struct {
	Name  string
	Score float64 // 0-100
}

// Best returns the highest-scoring candidate for a transaction, or ok=false
// when no candidate reaches the auto-accept threshold. Ties on score go to
// the candidate whose open amount sits closest to the transaction amount.
func (e *Engine) Best(tx *models.Transaction, candidates []Candidate) (Result, bool) {
	name := tx.PartyName
	if name == "" {
		name = tx.Description
	}
	amount := tx.Amount()

	var best Result
	bestAmountGap := math.MaxFloat64

	for _, c := range candidates {
		similarity := e.sim.Score(name, c.Name)

		score := similarity * 100
		gap := math.MaxFloat64
		if len(c.OpenAmounts) > 0 {
			proximity, g := e.amountProximity(amount, c.OpenAmounts)
			score = (weightSimilarity*similarity + weightAmount*proximity) * 100
			gap = g
		}

		if score > best.Score || (score == best.Score && gap < bestAmountGap) {
			best = Result{Name: c.Name, Score: score}
			bestAmountGap = gap
		}
	}

	if best.Name == "" || best.Score < e.autoAcceptScore {
		return Result{}, false
	}
	return best, true
}

// amountProximity scores the closest open amount: 1 at an exact match,
// falling linearly to 0 at the configured relative tolerance. It also
// returns the absolute gap for tie-breaking.
func (e *Engine) amountProximity(amount float64, openAmounts []float64) (float64, float64) {
	bestGap := math.MaxFloat64
	var bestRel float64
	for _, open := range openAmounts {
		if open <= 0 {
			continue
		}
		gap := math.Abs(amount - open)
		if gap < bestGap {
			bestGap = gap
			bestRel = gap / open
		}
	}
	if bestGap == math.MaxFloat64 {
		return 0, bestGap
	}

	proximity := 1 - bestRel/e.amountTolerance
	if proximity < 0 {
		proximity = 0
	}
	return proximity, bestGap
}

// Annotate fills the mapping fields of every transaction in the statement.
// Stored overrides win outright; otherwise the engine scores the direction's
// candidates and accepts only above the threshold. Overrides pointing at
// transaction indexes that no longer exist are ignored.
func (e *Engine) Annotate(st *models.BankStatement, overrides []*models.MappingOverride, invoices []*models.Invoice) {
	overrideByIndex := make(map[int]*models.MappingOverride)
	for _, ov := range overrides {
		if ov.StatementID == st.ID {
			overrideByIndex[ov.TransactionIndex] = ov
		}
	}

	buyers := candidatesFor(invoices, models.InvoiceTypeSales)
	suppliers := candidatesFor(invoices, models.InvoiceTypePurchase)

	for i := range st.Transactions {
		tx := &st.Transactions[i]
		tx.MappedBuyer = ""
		tx.MappedSupplier = ""
		tx.MatchType = models.MatchTypeNone
		tx.MatchScore = 0

		if ov, ok := overrideByIndex[tx.Index]; ok {
			if ov.MappingType == models.MappingReceivable {
				tx.MappedBuyer = ov.PartyName
			} else {
				tx.MappedSupplier = ov.PartyName
			}
			tx.MatchType = models.MatchTypeManual
			continue
		}

		candidates := suppliers
		if tx.IsCredit() {
			candidates = buyers
		}
		if result, ok := e.Best(tx, candidates); ok {
			if tx.IsCredit() {
				tx.MappedBuyer = result.Name
			} else {
				tx.MappedSupplier = result.Name
			}
			tx.MatchType = models.MatchTypeAuto
			tx.MatchScore = math.Round(result.Score*100) / 100
		}
	}
}

// candidatesFor collapses a direction's invoices into unique counterparty
// candidates carrying their invoice totals.
func candidatesFor(invoices []*models.Invoice, invoiceType models.InvoiceType) []Candidate {
	byName := make(map[string]*Candidate)
	var order []string

	for _, inv := range invoices {
		if inv.Type != invoiceType {
			continue
		}
		name := inv.Counterparty()
		if name == "" {
			continue
		}
		key := normalizeName(name)
		c, ok := byName[key]
		if !ok {
			c = &Candidate{Name: name}
			byName[key] = c
			order = append(order, key)
		}
		if inv.ExtractedData.TotalAmount > 0 {
			c.OpenAmounts = append(c.OpenAmounts, inv.ExtractedData.TotalAmount)
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *byName[key])
	}
	return out
}
