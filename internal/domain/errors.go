package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the forecasting and reorder core. Every error carries the
// (store, product) pair and the failing constraint so a batch caller can skip,
// relax, or escalate per product.

// InsufficientDataError is returned when training history has fewer distinct
// dates than the model requires.
type InsufficientDataError struct {
	StoreID   string
	ProductID string
	Got       int
	Required  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient history for store=%s product=%s: %d distinct dates, need at least %d",
		e.StoreID, e.ProductID, e.Got, e.Required)
}

// InsufficientHorizonError is returned when a reorder evaluation needs more
// forecast days than the horizon provides. The engine never extrapolates.
type InsufficientHorizonError struct {
	StoreID      string
	ProductID    string
	HorizonDays  int
	LeadTimeDays int
}

func (e *InsufficientHorizonError) Error() string {
	return fmt.Sprintf("forecast horizon too short for store=%s product=%s: have %d days, lead time needs %d",
		e.StoreID, e.ProductID, e.HorizonDays, e.LeadTimeDays)
}

// ValidationError is returned for malformed configuration or requests,
// rejected at the boundary before any computation runs.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BudgetInfeasibleError is returned when reducing a suggested quantity to fit
// the budget cap would push it below the supplier's minimum order quantity.
type BudgetInfeasibleError struct {
	StoreID   string
	ProductID string
	BudgetCap string
	MinCost   string
}

func (e *BudgetInfeasibleError) Error() string {
	return fmt.Sprintf("budget cap %s infeasible for store=%s product=%s: minimum order costs %s",
		e.BudgetCap, e.StoreID, e.ProductID, e.MinCost)
}

// ModelNotFoundError is returned when no published model version exists for a
// (store, product) pair.
type ModelNotFoundError struct {
	StoreID   string
	ProductID string
	VersionID string
}

func (e *ModelNotFoundError) Error() string {
	if e.VersionID != "" {
		return fmt.Sprintf("no model version %s for store=%s product=%s", e.VersionID, e.StoreID, e.ProductID)
	}

	return fmt.Sprintf("no trained model for store=%s product=%s", e.StoreID, e.ProductID)
}

// TrainTimeoutError is returned when a training run exceeds its deadline. The
// run aborts instead of stalling the rest of the batch.
type TrainTimeoutError struct {
	StoreID   string
	ProductID string
	Timeout   time.Duration
}

func (e *TrainTimeoutError) Error() string {
	return fmt.Sprintf("training timed out after %s for store=%s product=%s", e.Timeout, e.StoreID, e.ProductID)
}

// IsRetryable reports whether a training error is worth retrying. Timeouts
// are; data and validation problems are not.
func IsRetryable(err error) bool {
	var timeout *TrainTimeoutError

	return errors.As(err, &timeout)
}
