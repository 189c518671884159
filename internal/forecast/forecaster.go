// internal/forecast/forecaster.go
package forecast

import (
	"context"
	"time"

	"github.com/retailops/replenish/internal/domain"
)

// MinTrainObservations is the absolute floor of distinct history dates a model
// needs before training is attempted.
const MinTrainObservations = 14

// Seasonality modes supported by the seasonal backend.
const (
	SeasonalityAdditive       = "additive"
	SeasonalityMultiplicative = "multiplicative"
)

// Model is one immutable fitted forecast model. Reads never block each other;
// a published model is never mutated, so concurrent Series calls need no
// locking.
type Model interface {
	// Version returns the immutable metadata of this fitted model.
	Version() domain.ModelVersion

	// Series returns a lazy, finite, restartable sequence of forecast points
	// covering [asOf+1, asOf+horizonDays]. The output is deterministic for a
	// fixed (model, asOf, horizon) triple.
	Series(asOf time.Time, horizonDays int) (*Series, error)

	// Evaluate recomputes cross-validated error metrics on the model's
	// training history. It never mutates the model.
	Evaluate(ctx context.Context) (domain.ModelMetrics, error)

	// Update refits on the union of the training history and the new
	// observations and returns a new model. The receiver stays untouched.
	Update(ctx context.Context, observations []domain.DemandObservation) (Model, error)
}

// Forecaster is the pluggable training backend. Alternative backends (naive
// seasonal average, exponential smoothing) substitute behind this interface
// without touching the reorder engine.
type Forecaster interface {
	// Name identifies the backend in model version metadata.
	Name() string

	// Train fits a model on history for one (store, product) pair and returns
	// it unpublished. It fails with *domain.InsufficientDataError when history
	// has fewer distinct dates than the backend requires; there is no silent
	// fallback to a flat average.
	Train(ctx context.Context, storeID, productID string, history []domain.DemandObservation) (Model, error)
}

// CVConfig controls rolling-origin cross-validation windows.
type CVConfig struct {
	InitialDays int
	PeriodDays  int
	HorizonDays int
}

// DefaultCVConfig mirrors the evaluation windows used in production: fit on at
// least 90 days, step the origin by 30, score a 30-day horizon.
func DefaultCVConfig() CVConfig {
	return CVConfig{InitialDays: 90, PeriodDays: 30, HorizonDays: 30}
}

// Options configures a backend built by New.
type Options struct {
	// Backend selects the forecasting implementation: "seasonal" (default) or
	// "naive".
	Backend string

	// SeasonalityMode is additive or multiplicative (default).
	SeasonalityMode string

	// Holidays enables US retail holiday regressors.
	Holidays bool

	CV CVConfig
}

// New builds a Forecaster for the configured backend. Unknown backends fall
// back to the seasonal model, which is the production default.
func New(opts Options) Forecaster {
	if opts.CV.InitialDays <= 0 {
		opts.CV = DefaultCVConfig()
	}
	if opts.SeasonalityMode == "" {
		opts.SeasonalityMode = SeasonalityMultiplicative
	}

	switch opts.Backend {
	case "naive":
		return &NaiveSeasonal{cv: opts.CV}
	default:
		return &SeasonalForecaster{
			mode:     opts.SeasonalityMode,
			holidays: opts.Holidays,
			cv:       opts.CV,
		}
	}
}
