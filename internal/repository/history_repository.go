// internal/repository/history_repository.go
package repository

import (
	"context"
	"time"

	"github.com/retailops/replenish/internal/domain"
)

// HistoryRepository provides historical daily demand per (store, product).
// Implementations return observations ordered by date ascending. Calendar
// days inside the window with no sales row are zero-sales facts, not gaps;
// days the source explicitly marks unavailable come back flagged Missing.
type HistoryRepository interface {
	// DailyDemand returns the demand series for [from, to] inclusive.
	DailyDemand(ctx context.Context, storeID, productID string, from, to time.Time) ([]domain.DemandObservation, error)

	// ProductsWithHistory lists product ids for a store that have at least
	// minDays distinct sales dates, for bulk training runs.
	ProductsWithHistory(ctx context.Context, storeID string, minDays int) ([]string, error)
}
