// internal/repository/inventory_repository.go
package repository

import (
	"context"

	"github.com/retailops/replenish/internal/domain"
)

// InventoryRepository reads the current inventory snapshot. The core treats
// it as an external, read-only position provider.
type InventoryRepository interface {
	// Position returns the snapshot for one (store, product) pair.
	Position(ctx context.Context, storeID, productID string) (domain.InventoryPosition, error)
}

// SupplierCatalogRepository maps a (store, supplier) pair to the products
// ordered from that supplier, with their reorder constraints and unit costs.
type SupplierCatalogRepository interface {
	ListSupplierProducts(ctx context.Context, storeID, supplierID string) ([]domain.SupplierProduct, error)
}
