package domain

import "github.com/shopspring/decimal"

// ReorderConfig carries the supplier/store ordering constraints used by the
// reorder engine. Construct it through NewReorderConfig so invalid values are
// rejected before any computation runs.
type ReorderConfig struct {
	ServiceLevel     float64          `json:"service_level"`
	LeadTimeDays     int              `json:"lead_time_days"`
	LeadTimeStdDays  float64          `json:"lead_time_std_days"`
	MinOrderQuantity int64            `json:"min_order_quantity"`
	CasePackSize     int64            `json:"case_pack_size"`
	BudgetCap        *decimal.Decimal `json:"budget_cap,omitempty"`
}

// NewReorderConfig validates and builds a ReorderConfig. It returns a
// *ValidationError naming the first failing constraint.
func NewReorderConfig(serviceLevel float64, leadTimeDays int, leadTimeStdDays float64, minOrderQty, casePackSize int64, budgetCap *decimal.Decimal) (ReorderConfig, error) {
	cfg := ReorderConfig{
		ServiceLevel:     serviceLevel,
		LeadTimeDays:     leadTimeDays,
		LeadTimeStdDays:  leadTimeStdDays,
		MinOrderQuantity: minOrderQty,
		CasePackSize:     casePackSize,
		BudgetCap:        budgetCap,
	}

	if err := cfg.Validate(); err != nil {
		return ReorderConfig{}, err
	}

	return cfg, nil
}

// Validate checks every field bound. It is called by NewReorderConfig and by
// the API boundary before an externally supplied config reaches the engine.
func (c ReorderConfig) Validate() error {
	if c.ServiceLevel <= 0 || c.ServiceLevel >= 1 {
		return NewValidationError("service_level", "must be strictly between 0 and 1")
	}
	if c.LeadTimeDays < 0 {
		return NewValidationError("lead_time_days", "must not be negative")
	}
	if c.LeadTimeStdDays < 0 {
		return NewValidationError("lead_time_std_days", "must not be negative")
	}
	if c.MinOrderQuantity < 0 {
		return NewValidationError("min_order_quantity", "must not be negative")
	}
	if c.CasePackSize < 1 {
		return NewValidationError("case_pack_size", "must be at least 1")
	}
	if c.BudgetCap != nil && c.BudgetCap.IsNegative() {
		return NewValidationError("budget_cap", "must not be negative")
	}

	return nil
}
