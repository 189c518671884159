// internal/repository/postgres/store_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/repository"
)

type storeRepository struct {
	db *sqlx.DB
}

func NewStoreRepository(db *sqlx.DB) repository.StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) ListStores(ctx context.Context) ([]domain.Store, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM stores
		ORDER BY id
	`

	var stores []domain.Store
	if err := r.db.SelectContext(ctx, &stores, query); err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}

	return stores, nil
}

func (r *storeRepository) ListSuppliers(ctx context.Context, storeID string) ([]domain.Supplier, error) {
	query := `
		SELECT DISTINCT s.id, s.name, s.lead_time_days
		FROM suppliers s
		JOIN supplier_products sp ON sp.supplier_id = s.id
		WHERE sp.store_id = $1
		ORDER BY s.id
	`

	var suppliers []domain.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, storeID); err != nil {
		return nil, fmt.Errorf("error listing suppliers for store=%s: %w", storeID, err)
	}

	return suppliers, nil
}
