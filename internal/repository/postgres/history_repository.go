// internal/repository/postgres/history_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/repository"
)

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

// DailyDemand returns one row per calendar day in [from, to]. Days without a
// sales row are filled as zero-sales via generate_series so the forecaster
// sees a contiguous daily series.
func (r *historyRepository) DailyDemand(ctx context.Context, storeID, productID string, from, to time.Time) ([]domain.DemandObservation, error) {
	query := `
		SELECT
			$1::text AS store_id,
			$2::text AS product_id,
			d.day::date AS date,
			COALESCE(s.quantity_sold, 0) AS quantity_sold
		FROM generate_series($3::date, $4::date, interval '1 day') AS d(day)
		LEFT JOIN sales_daily s
			ON s.store_id = $1
			AND s.product_id = $2
			AND s.sale_date = d.day::date
		ORDER BY d.day
	`

	var observations []domain.DemandObservation
	if err := r.db.SelectContext(ctx, &observations, query, storeID, productID, from, to); err != nil {
		return nil, fmt.Errorf("error loading demand history for store=%s product=%s: %w", storeID, productID, err)
	}

	return observations, nil
}

func (r *historyRepository) ProductsWithHistory(ctx context.Context, storeID string, minDays int) ([]string, error) {
	if minDays <= 0 {
		minDays = 1
	}

	query := `
		SELECT product_id
		FROM sales_daily
		WHERE store_id = $1
		GROUP BY product_id
		HAVING COUNT(DISTINCT sale_date) >= $2
		ORDER BY product_id
	`

	var productIDs []string
	if err := r.db.SelectContext(ctx, &productIDs, query, storeID, minDays); err != nil {
		return nil, fmt.Errorf("error listing products with history for store=%s: %w", storeID, err)
	}

	return productIDs, nil
}
