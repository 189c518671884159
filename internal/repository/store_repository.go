// internal/repository/store_repository.go
package repository

import (
	"context"

	"github.com/retailops/replenish/internal/domain"
)

// StoreRepository lists the stores under management and the suppliers each
// store orders from.
type StoreRepository interface {
	ListStores(ctx context.Context) ([]domain.Store, error)

	// ListSuppliers returns the suppliers with at least one catalog entry for
	// the store.
	ListSuppliers(ctx context.Context, storeID string) ([]domain.Supplier, error)
}
