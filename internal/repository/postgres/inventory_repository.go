// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/repository"
)

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Position(ctx context.Context, storeID, productID string) (domain.InventoryPosition, error) {
	query := `
		SELECT store_id, product_id, on_hand, on_order, allocated
		FROM inventory_positions
		WHERE store_id = $1 AND product_id = $2
	`

	var position domain.InventoryPosition
	err := r.db.GetContext(ctx, &position, query, storeID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		// No row means nothing tracked yet: a legitimate all-zero position.
		return domain.InventoryPosition{StoreID: storeID, ProductID: productID}, nil
	}
	if err != nil {
		return domain.InventoryPosition{}, fmt.Errorf("error loading inventory position for store=%s product=%s: %w", storeID, productID, err)
	}

	return position, nil
}

type supplierCatalogRepository struct {
	db       *sqlx.DB
	defaults config.ReorderConfig
}

// NewSupplierCatalogRepository builds the supplier catalog reader. Suppliers
// without explicit ordering constraints (NULL columns) fall back to the
// configured store-wide defaults.
func NewSupplierCatalogRepository(db *sqlx.DB, defaults config.ReorderConfig) repository.SupplierCatalogRepository {
	return &supplierCatalogRepository{db: db, defaults: defaults}
}

type supplierProductRow struct {
	StoreID         string              `db:"store_id"`
	SupplierID      string              `db:"supplier_id"`
	ProductID       string              `db:"product_id"`
	UnitCost        decimal.Decimal     `db:"unit_cost"`
	ServiceLevel    sql.NullFloat64     `db:"service_level"`
	LeadTimeDays    sql.NullInt64       `db:"lead_time_days"`
	LeadTimeStdDays sql.NullFloat64     `db:"lead_time_std_days"`
	MinOrderQty     sql.NullInt64       `db:"min_order_quantity"`
	CasePackSize    sql.NullInt64       `db:"case_pack_size"`
	BudgetCap       decimal.NullDecimal `db:"budget_cap"`
}

// buildSupplierProduct resolves one catalog row against the configured
// defaults: NULL service level, lead time and lead time spread take the
// store-wide values; NULL MOQ means none and NULL case pack means single
// units.
func buildSupplierProduct(row supplierProductRow, defaults config.ReorderConfig) (domain.SupplierProduct, error) {
	serviceLevel := defaults.DefaultServiceLevel
	if row.ServiceLevel.Valid {
		serviceLevel = row.ServiceLevel.Float64
	}

	leadTimeDays := defaults.DefaultLeadTimeDays
	if row.LeadTimeDays.Valid {
		leadTimeDays = int(row.LeadTimeDays.Int64)
	}

	leadTimeStdDays := defaults.DefaultLeadTimeStdDays
	if row.LeadTimeStdDays.Valid {
		leadTimeStdDays = row.LeadTimeStdDays.Float64
	}

	var minOrderQty int64
	if row.MinOrderQty.Valid {
		minOrderQty = row.MinOrderQty.Int64
	}

	casePackSize := int64(1)
	if row.CasePackSize.Valid {
		casePackSize = row.CasePackSize.Int64
	}

	var budgetCap *decimal.Decimal
	if row.BudgetCap.Valid {
		value := row.BudgetCap.Decimal
		budgetCap = &value
	}

	cfg, err := domain.NewReorderConfig(serviceLevel, leadTimeDays, leadTimeStdDays, minOrderQty, casePackSize, budgetCap)
	if err != nil {
		return domain.SupplierProduct{}, fmt.Errorf("invalid reorder config for store=%s supplier=%s product=%s: %w",
			row.StoreID, row.SupplierID, row.ProductID, err)
	}

	return domain.SupplierProduct{
		StoreID:    row.StoreID,
		SupplierID: row.SupplierID,
		ProductID:  row.ProductID,
		UnitCost:   row.UnitCost,
		Config:     cfg,
	}, nil
}

func (r *supplierCatalogRepository) ListSupplierProducts(ctx context.Context, storeID, supplierID string) ([]domain.SupplierProduct, error) {
	query := `
		SELECT
			sp.store_id,
			sp.supplier_id,
			sp.product_id,
			sp.unit_cost,
			sp.service_level,
			sp.lead_time_days,
			sp.lead_time_std_days,
			sp.min_order_quantity,
			sp.case_pack_size,
			sp.budget_cap
		FROM supplier_products sp
		WHERE sp.store_id = $1 AND sp.supplier_id = $2
		ORDER BY sp.product_id
	`

	var rows []supplierProductRow
	if err := r.db.SelectContext(ctx, &rows, query, storeID, supplierID); err != nil {
		return nil, fmt.Errorf("error listing supplier products for store=%s supplier=%s: %w", storeID, supplierID, err)
	}

	products := make([]domain.SupplierProduct, 0, len(rows))
	for _, row := range rows {
		product, err := buildSupplierProduct(row, r.defaults)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, nil
}
