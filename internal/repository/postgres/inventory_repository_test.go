package postgres

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/domain"
)

func testReorderDefaults() config.ReorderConfig {
	return config.ReorderConfig{
		DefaultServiceLevel:    0.95,
		DefaultLeadTimeDays:    7,
		DefaultLeadTimeStdDays: 1.5,
	}
}

func TestBuildSupplierProductAppliesDefaults(t *testing.T) {
	// A catalog row with no explicit ordering constraints: every NULL column
	// resolves against the store-wide defaults.
	row := supplierProductRow{
		StoreID:    "s1",
		SupplierID: "sup-a",
		ProductID:  "p1",
		UnitCost:   decimal.RequireFromString("2.50"),
	}

	product, err := buildSupplierProduct(row, testReorderDefaults())
	require.NoError(t, err)

	assert.Equal(t, 0.95, product.Config.ServiceLevel)
	assert.Equal(t, 7, product.Config.LeadTimeDays)
	assert.Equal(t, 1.5, product.Config.LeadTimeStdDays)
	assert.Zero(t, product.Config.MinOrderQuantity, "no MOQ unless the supplier sets one")
	assert.Equal(t, int64(1), product.Config.CasePackSize, "single units unless the supplier sets a case pack")
	assert.Nil(t, product.Config.BudgetCap)
}

func TestBuildSupplierProductKeepsExplicitValues(t *testing.T) {
	budget := decimal.RequireFromString("500.00")
	row := supplierProductRow{
		StoreID:         "s1",
		SupplierID:      "sup-a",
		ProductID:       "p1",
		UnitCost:        decimal.RequireFromString("2.50"),
		ServiceLevel:    sql.NullFloat64{Float64: 0.99, Valid: true},
		LeadTimeDays:    sql.NullInt64{Int64: 14, Valid: true},
		LeadTimeStdDays: sql.NullFloat64{Float64: 3, Valid: true},
		MinOrderQty:     sql.NullInt64{Int64: 24, Valid: true},
		CasePackSize:    sql.NullInt64{Int64: 6, Valid: true},
		BudgetCap:       decimal.NullDecimal{Decimal: budget, Valid: true},
	}

	product, err := buildSupplierProduct(row, testReorderDefaults())
	require.NoError(t, err)

	assert.Equal(t, 0.99, product.Config.ServiceLevel)
	assert.Equal(t, 14, product.Config.LeadTimeDays)
	assert.Equal(t, 3.0, product.Config.LeadTimeStdDays)
	assert.Equal(t, int64(24), product.Config.MinOrderQuantity)
	assert.Equal(t, int64(6), product.Config.CasePackSize)
	require.NotNil(t, product.Config.BudgetCap)
	assert.True(t, product.Config.BudgetCap.Equal(budget))
}

func TestBuildSupplierProductRejectsInvalidRow(t *testing.T) {
	row := supplierProductRow{
		StoreID:      "s1",
		SupplierID:   "sup-a",
		ProductID:    "p1",
		UnitCost:     decimal.RequireFromString("2.50"),
		ServiceLevel: sql.NullFloat64{Float64: 1.5, Valid: true},
	}

	_, err := buildSupplierProduct(row, testReorderDefaults())
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}
