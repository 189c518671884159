// internal/forecast/catalog.go
package forecast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/retailops/replenish/internal/domain"
)

type modelKey struct {
	storeID   string
	productID string
}

// Catalog holds every published model version per (store, product) pair. The
// version log is append-only and versions are immutable once published;
// readers always see either the previous or the new current model, never a
// partially trained one, because training finishes before the pointer swap.
type Catalog struct {
	mu         sync.RWMutex
	forecaster Forecaster
	current    map[modelKey]Model
	versions   map[modelKey][]Model
}

func NewCatalog(forecaster Forecaster) *Catalog {
	return &Catalog{
		forecaster: forecaster,
		current:    make(map[modelKey]Model),
		versions:   make(map[modelKey][]Model),
	}
}

// Train fits a new model version on history and publishes it as current.
// Training runs outside the lock; only the pointer swap is guarded.
func (c *Catalog) Train(ctx context.Context, storeID, productID string, history []domain.DemandObservation) (domain.ModelVersion, error) {
	model, err := c.forecaster.Train(ctx, storeID, productID, history)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	c.publish(storeID, productID, model)

	version := model.Version()
	log.Info().
		Str("store_id", storeID).
		Str("product_id", productID).
		Str("version", version.ID).
		Float64("mae", version.Metrics.MAE).
		Int("samples", version.SampleCount).
		Msg("published model version")

	return version, nil
}

// Update incrementally refits the current model with new observations and
// publishes the result as a new version. The previous version stays in the
// log untouched.
func (c *Catalog) Update(ctx context.Context, storeID, productID string, observations []domain.DemandObservation) (domain.ModelVersion, error) {
	current, err := c.Model(storeID, productID)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	updated, err := current.Update(ctx, observations)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	c.publish(storeID, productID, updated)

	return updated.Version(), nil
}

func (c *Catalog) publish(storeID, productID string, model Model) {
	key := modelKey{storeID: storeID, productID: productID}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current[key] = model
	c.versions[key] = append(c.versions[key], model)
}

// Model returns the current published model for a pair.
func (c *Catalog) Model(storeID, productID string) (Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	model, ok := c.current[modelKey{storeID: storeID, productID: productID}]
	if !ok {
		return nil, &domain.ModelNotFoundError{StoreID: storeID, ProductID: productID}
	}

	return model, nil
}

// Forecast produces the quantile series from the current model snapshot. The
// snapshot is taken under the read lock; forecasting runs without it.
func (c *Catalog) Forecast(storeID, productID string, asOf time.Time, horizonDays int) (*Series, error) {
	model, err := c.Model(storeID, productID)
	if err != nil {
		return nil, err
	}

	return model.Series(asOf, horizonDays)
}

// Evaluate recomputes cross-validated metrics for the current model.
func (c *Catalog) Evaluate(ctx context.Context, storeID, productID string) (domain.ModelMetrics, error) {
	model, err := c.Model(storeID, productID)
	if err != nil {
		return domain.ModelMetrics{}, err
	}

	return model.Evaluate(ctx)
}

// Versions lists the append-only version log for a pair, oldest first.
func (c *Catalog) Versions(storeID, productID string) ([]domain.ModelVersion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models, ok := c.versions[modelKey{storeID: storeID, productID: productID}]
	if !ok || len(models) == 0 {
		return nil, &domain.ModelNotFoundError{StoreID: storeID, ProductID: productID}
	}

	out := make([]domain.ModelVersion, 0, len(models))
	for _, m := range models {
		out = append(out, m.Version())
	}

	return out, nil
}

// Version returns one specific version from the log, for audit or rollback.
func (c *Catalog) Version(storeID, productID, versionID string) (domain.ModelVersion, error) {
	versions, err := c.Versions(storeID, productID)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	for _, v := range versions {
		if v.ID == versionID {
			return v, nil
		}
	}

	return domain.ModelVersion{}, &domain.ModelNotFoundError{StoreID: storeID, ProductID: productID, VersionID: versionID}
}

// TrainJob is one (store, product) training request in a batch.
type TrainJob struct {
	StoreID   string
	ProductID string
	History   []domain.DemandObservation
}

// TrainResult pairs a job with its outcome. Err is nil on success.
type TrainResult struct {
	StoreID   string               `json:"store_id"`
	ProductID string               `json:"product_id"`
	Version   *domain.ModelVersion `json:"version,omitempty"`
	Err       error                `json:"-"`
	ErrMsg    string               `json:"error,omitempty"`
}

// TrainBatch trains jobs on a bounded worker pool. Fits share no mutable
// state, so the only coordination is the semaphore and the per-slot result
// write. One product's failure never aborts its siblings; each job gets its
// own timeout and surfaces *domain.TrainTimeoutError when it expires.
func (c *Catalog) TrainBatch(ctx context.Context, jobs []TrainJob, workers int, timeout time.Duration) []TrainResult {
	if workers < 1 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))
	results := make([]TrainResult, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Batch context cancelled: mark the remaining jobs and stop.
			for j := i; j < len(jobs); j++ {
				results[j] = TrainResult{StoreID: jobs[j].StoreID, ProductID: jobs[j].ProductID, Err: err, ErrMsg: err.Error()}
			}
			break
		}

		wg.Add(1)
		go func(slot int, job TrainJob) {
			defer wg.Done()
			defer sem.Release(1)

			results[slot] = c.trainOne(ctx, job, timeout)
		}(i, job)
	}

	wg.Wait()

	return results
}

func (c *Catalog) trainOne(ctx context.Context, job TrainJob, timeout time.Duration) TrainResult {
	jobCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	version, err := c.Train(jobCtx, job.StoreID, job.ProductID, job.History)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &domain.TrainTimeoutError{StoreID: job.StoreID, ProductID: job.ProductID, Timeout: timeout}
		}
		log.Error().Err(err).
			Str("store_id", job.StoreID).
			Str("product_id", job.ProductID).
			Msg("training failed")

		return TrainResult{StoreID: job.StoreID, ProductID: job.ProductID, Err: err, ErrMsg: err.Error()}
	}

	return TrainResult{StoreID: job.StoreID, ProductID: job.ProductID, Version: &version}
}
