// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store represents a store location
type Store struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Supplier represents a supplier a store orders from
type Supplier struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	LeadTimeDays int    `json:"lead_time_days" db:"lead_time_days"`
}

// DemandObservation is a single day of historical demand for a (store, product)
// pair. Observations are immutable facts; Missing marks days where no data was
// recorded, as opposed to days with zero sales.
type DemandObservation struct {
	StoreID      string    `json:"store_id" db:"store_id"`
	ProductID    string    `json:"product_id" db:"product_id"`
	Date         time.Time `json:"date" db:"date"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
	Missing      bool      `json:"missing,omitempty" db:"-"`
}

// ForecastPoint is one day of a quantile forecast. P95 >= P90 >= P50 >= 0 holds
// at every date by construction.
type ForecastPoint struct {
	Date     time.Time `json:"date"`
	P50      float64   `json:"p50"`
	P90      float64   `json:"p90"`
	P95      float64   `json:"p95"`
	Trend    float64   `json:"trend,omitempty"`
	Seasonal float64   `json:"seasonal,omitempty"`
}

// ModelMetrics holds cross-validated forecast accuracy metrics.
type ModelMetrics struct {
	MAE      float64 `json:"mae"`
	MAPE     float64 `json:"mape"`
	RMSE     float64 `json:"rmse"`
	SMAPE    float64 `json:"smape"`
	Coverage float64 `json:"coverage"`
	Folds    int     `json:"folds"`
}

// TrainingWindow is the date span a model version was fitted on.
type TrainingWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ModelVersion is the immutable metadata of one published forecast model
// version for a (store, product) pair. Retraining appends a new version;
// published versions are never mutated.
type ModelVersion struct {
	ID          string         `json:"id"`
	StoreID     string         `json:"store_id"`
	ProductID   string         `json:"product_id"`
	Backend     string         `json:"backend"`
	TrainedAt   time.Time      `json:"trained_at"`
	Window      TrainingWindow `json:"training_window"`
	SampleCount int            `json:"sample_count"`
	Metrics     ModelMetrics   `json:"performance_metrics"`
}

// InventoryPosition is a read-only snapshot of inventory for a (store, product)
// pair at evaluation time.
type InventoryPosition struct {
	StoreID   string  `json:"store_id" db:"store_id"`
	ProductID string  `json:"product_id" db:"product_id"`
	OnHand    float64 `json:"on_hand" db:"on_hand"`
	OnOrder   float64 `json:"on_order" db:"on_order"`
	Allocated float64 `json:"allocated" db:"allocated"`
}

// Available returns stock on the shelf that is not already promised.
func (p InventoryPosition) Available() float64 {
	return p.OnHand - p.Allocated
}

// NetPosition includes inbound orders: on_hand + on_order - allocated.
func (p InventoryPosition) NetPosition() float64 {
	return p.OnHand + p.OnOrder - p.Allocated
}

// SupplierProduct links a product to a supplier for one store, carrying the
// ordering constraints and cost used when building a batch of recommendations.
type SupplierProduct struct {
	StoreID    string          `json:"store_id" db:"store_id"`
	SupplierID string          `json:"supplier_id" db:"supplier_id"`
	ProductID  string          `json:"product_id" db:"product_id"`
	UnitCost   decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	Config     ReorderConfig   `json:"config" db:"-"`
}

// ReorderRecommendation is the immutable result of one reorder evaluation.
// TotalCost is always SuggestedQuantity x UnitCost, and SuggestedQuantity is a
// multiple of the case pack size and at least the MOQ whenever it is positive.
type ReorderRecommendation struct {
	ProductID         string          `json:"product_id"`
	StoreID           string          `json:"store_id"`
	SupplierID        string          `json:"supplier_id,omitempty"`
	CurrentInventory  float64         `json:"current_inventory"`
	NetPosition       float64         `json:"net_position"`
	ReorderPoint      int64           `json:"reorder_point"`
	SafetyStock       int64           `json:"safety_stock"`
	LeadTimeDemandP50 float64         `json:"lead_time_demand_p50"`
	LeadTimeDemandP90 float64         `json:"lead_time_demand_p90"`
	SuggestedQuantity int64           `json:"suggested_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Urgency           Urgency         `json:"urgency"`
	Rationale         string          `json:"rationale"`
	EvaluatedAt       time.Time       `json:"evaluated_at"`
}

// SuggestionLine is one product line inside a supplier-level suggestion batch.
type SuggestionLine struct {
	ProductID         string          `json:"product_id"`
	SuggestedQuantity int64           `json:"suggested_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Urgency           Urgency         `json:"urgency"`
	Rationale         string          `json:"rationale"`
}

// SupplierSuggestion is a PO-ready batch of reorder lines for one
// (supplier, store) pair, ordered by descending urgency then product id.
type SupplierSuggestion struct {
	SupplierID    string           `json:"supplier_id"`
	StoreID       string           `json:"store_id"`
	Lines         []SuggestionLine `json:"lines"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	UrgencyCounts map[Urgency]int  `json:"urgency_counts"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
