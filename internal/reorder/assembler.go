// internal/reorder/assembler.go
package reorder

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailops/replenish/internal/domain"
)

// Assembler batches per-product recommendations into supplier-level,
// PO-ready suggestion lists for the external purchase-order collaborator.
type Assembler struct {
	now func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

type batchKey struct {
	supplierID string
	storeID    string
}

// Assemble groups recommendations by (supplier, store), drops zero-quantity
// entries, aggregates cost and urgency-tier counts, and orders each batch by
// descending urgency with ties broken by product id. The result is stable for
// a fixed input set.
func (a *Assembler) Assemble(recommendations []domain.ReorderRecommendation) []domain.SupplierSuggestion {
	groups := make(map[batchKey][]domain.ReorderRecommendation)
	for _, rec := range recommendations {
		if rec.SuggestedQuantity <= 0 {
			continue
		}
		key := batchKey{supplierID: rec.SupplierID, storeID: rec.StoreID}
		groups[key] = append(groups[key], rec)
	}

	generatedAt := a.now().UTC()

	suggestions := make([]domain.SupplierSuggestion, 0, len(groups))
	for key, recs := range groups {
		sort.Slice(recs, func(i, j int) bool {
			if ri, rj := recs[i].Urgency.Rank(), recs[j].Urgency.Rank(); ri != rj {
				return ri < rj
			}

			return recs[i].ProductID < recs[j].ProductID
		})

		suggestion := domain.SupplierSuggestion{
			SupplierID:    key.supplierID,
			StoreID:       key.storeID,
			Lines:         make([]domain.SuggestionLine, 0, len(recs)),
			TotalCost:     decimal.Zero,
			UrgencyCounts: make(map[domain.Urgency]int),
			GeneratedAt:   generatedAt,
		}
		for _, rec := range recs {
			suggestion.Lines = append(suggestion.Lines, domain.SuggestionLine{
				ProductID:         rec.ProductID,
				SuggestedQuantity: rec.SuggestedQuantity,
				UnitCost:          rec.UnitCost,
				TotalCost:         rec.TotalCost,
				Urgency:           rec.Urgency,
				Rationale:         rec.Rationale,
			})
			suggestion.TotalCost = suggestion.TotalCost.Add(rec.TotalCost)
			suggestion.UrgencyCounts[rec.Urgency]++
		}

		suggestions = append(suggestions, suggestion)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].SupplierID != suggestions[j].SupplierID {
			return suggestions[i].SupplierID < suggestions[j].SupplierID
		}

		return suggestions[i].StoreID < suggestions[j].StoreID
	})

	return suggestions
}
