package service

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/domain"
)

func TestRenderSuggestionCSV(t *testing.T) {
	suggestion := domain.SupplierSuggestion{
		SupplierID: "sup-a",
		StoreID:    "s1",
		Lines: []domain.SuggestionLine{
			{
				ProductID:         "p1",
				SuggestedQuantity: 24,
				UnitCost:          decimal.RequireFromString("25.99"),
				TotalCost:         decimal.RequireFromString("623.76"),
				Urgency:           domain.UrgencyHigh,
				Rationale:         "Net position (12) below safety stock (20). Recommended order: 24 units at 25.99 each",
			},
			{
				ProductID:         "p2",
				SuggestedQuantity: 6,
				UnitCost:          decimal.RequireFromString("4.00"),
				TotalCost:         decimal.RequireFromString("24.00"),
				Urgency:           domain.UrgencyMedium,
				Rationale:         "No urgency",
			},
		},
		TotalCost:   decimal.RequireFromString("647.76"),
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := RenderSuggestionCSV(suggestion)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"supplier_id", "store_id", "product_id", "suggested_quantity", "unit_cost", "total_cost", "urgency", "rationale"}, records[0])
	assert.Equal(t, []string{"sup-a", "s1", "p1", "24", "25.99", "623.76", "HIGH", suggestion.Lines[0].Rationale}, records[1])
	assert.Equal(t, []string{"sup-a", "s1", "p2", "6", "4.00", "24.00", "MEDIUM", "No urgency"}, records[2])
}

func TestRenderSuggestionCSVEmptyBatch(t *testing.T) {
	payload, err := RenderSuggestionCSV(domain.SupplierSuggestion{SupplierID: "sup-a", StoreID: "s1"})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}
