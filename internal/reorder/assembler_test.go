package reorder

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/domain"
)

func rec(supplierID, storeID, productID string, qty int64, cost string, urgency domain.Urgency) domain.ReorderRecommendation {
	unitCost := decimal.RequireFromString(cost)
	return domain.ReorderRecommendation{
		ProductID:         productID,
		StoreID:           storeID,
		SupplierID:        supplierID,
		SuggestedQuantity: qty,
		UnitCost:          unitCost,
		TotalCost:         unitCost.Mul(decimal.NewFromInt(qty)),
		Urgency:           urgency,
		Rationale:         "test",
	}
}

func TestAssembleGroupsBySupplierAndStore(t *testing.T) {
	assembler := NewAssemblerWithClock(fixedClock())

	suggestions := assembler.Assemble([]domain.ReorderRecommendation{
		rec("sup-b", "s1", "p1", 10, "2.50", domain.UrgencyLow),
		rec("sup-a", "s1", "p2", 5, "4.00", domain.UrgencyHigh),
		rec("sup-a", "s2", "p3", 2, "1.00", domain.UrgencyMedium),
		rec("sup-a", "s1", "p4", 1, "9.99", domain.UrgencyCritical),
	})

	require.Len(t, suggestions, 3)
	// Batches sort by supplier, then store.
	assert.Equal(t, "sup-a", suggestions[0].SupplierID)
	assert.Equal(t, "s1", suggestions[0].StoreID)
	assert.Equal(t, "sup-a", suggestions[1].SupplierID)
	assert.Equal(t, "s2", suggestions[1].StoreID)
	assert.Equal(t, "sup-b", suggestions[2].SupplierID)
}

func TestAssembleOrdersLinesByUrgency(t *testing.T) {
	assembler := NewAssemblerWithClock(fixedClock())

	suggestions := assembler.Assemble([]domain.ReorderRecommendation{
		rec("sup-a", "s1", "p-low", 1, "1.00", domain.UrgencyLow),
		rec("sup-a", "s1", "p-crit-b", 1, "1.00", domain.UrgencyCritical),
		rec("sup-a", "s1", "p-med", 1, "1.00", domain.UrgencyMedium),
		rec("sup-a", "s1", "p-crit-a", 1, "1.00", domain.UrgencyCritical),
		rec("sup-a", "s1", "p-high", 1, "1.00", domain.UrgencyHigh),
	})

	require.Len(t, suggestions, 1)
	got := make([]string, 0, len(suggestions[0].Lines))
	for _, line := range suggestions[0].Lines {
		got = append(got, line.ProductID)
	}

	// Descending urgency, product id breaking ties.
	assert.Equal(t, []string{"p-crit-a", "p-crit-b", "p-high", "p-med", "p-low"}, got)
}

func TestAssembleAggregates(t *testing.T) {
	assembler := NewAssemblerWithClock(fixedClock())

	suggestions := assembler.Assemble([]domain.ReorderRecommendation{
		rec("sup-a", "s1", "p1", 10, "2.50", domain.UrgencyHigh),
		rec("sup-a", "s1", "p2", 4, "0.99", domain.UrgencyHigh),
		rec("sup-a", "s1", "p3", 1, "100.00", domain.UrgencyCritical),
	})

	require.Len(t, suggestions, 1)
	batch := suggestions[0]

	assert.Equal(t, "128.96", batch.TotalCost.StringFixed(2))
	assert.Equal(t, 2, batch.UrgencyCounts[domain.UrgencyHigh])
	assert.Equal(t, 1, batch.UrgencyCounts[domain.UrgencyCritical])
	assert.Equal(t, fixedClock()().UTC(), batch.GeneratedAt)
}

func TestAssembleDropsZeroQuantities(t *testing.T) {
	assembler := NewAssemblerWithClock(fixedClock())

	suggestions := assembler.Assemble([]domain.ReorderRecommendation{
		rec("sup-a", "s1", "p1", 0, "2.50", domain.UrgencyLow),
		rec("sup-a", "s1", "p2", 3, "2.50", domain.UrgencyMedium),
	})

	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Lines, 1)
	assert.Equal(t, "p2", suggestions[0].Lines[0].ProductID)
}

func TestAssembleEmptyInput(t *testing.T) {
	assembler := NewAssembler()

	assert.Empty(t, assembler.Assemble(nil))
	assert.Empty(t, assembler.Assemble([]domain.ReorderRecommendation{
		rec("sup-a", "s1", "p1", 0, "1.00", domain.UrgencyLow),
	}))
}

func TestAssembleIsStable(t *testing.T) {
	assembler := NewAssemblerWithClock(fixedClock())

	input := []domain.ReorderRecommendation{
		rec("sup-b", "s1", "p1", 1, "1.00", domain.UrgencyLow),
		rec("sup-a", "s2", "p2", 2, "2.00", domain.UrgencyHigh),
		rec("sup-a", "s1", "p3", 3, "3.00", domain.UrgencyMedium),
	}

	first := assembler.Assemble(input)
	second := assembler.Assemble(input)

	assert.Equal(t, first, second)
}
