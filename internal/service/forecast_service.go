package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retailops/replenish/internal/cache"
	"github.com/retailops/replenish/internal/config"
	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/forecast"
	"github.com/retailops/replenish/internal/repository"
)

// ForecastService drives the model catalog: it loads history from the
// repository, trains and publishes versions, and serves cached forecast
// series.
type ForecastService struct {
	catalog *forecast.Catalog
	history repository.HistoryRepository
	cache   cache.ForecastCache
	cfg     config.ForecastConfig
	now     func() time.Time
}

func NewForecastService(
	catalog *forecast.Catalog,
	history repository.HistoryRepository,
	forecastCache cache.ForecastCache,
	cfg config.ForecastConfig,
) *ForecastService {
	return &ForecastService{
		catalog: catalog,
		history: history,
		cache:   forecastCache,
		cfg:     cfg,
		now:     time.Now,
	}
}

// historyWindow returns the [from, to] span history is loaded over.
func (s *ForecastService) historyWindow() (time.Time, time.Time) {
	to := s.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -s.cfg.HistoryWindowDays)
	return from, to
}

// Train loads the configured history window, fits a new model version, and
// publishes it. Cached series for the pair are evicted so the next read hits
// the fresh version.
func (s *ForecastService) Train(ctx context.Context, storeID, productID string) (domain.ModelVersion, error) {
	from, to := s.historyWindow()

	history, err := s.history.DailyDemand(ctx, storeID, productID, from, to)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	version, err := s.catalog.Train(ctx, storeID, productID, history)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	if err := s.cache.InvalidatePair(ctx, storeID, productID); err != nil {
		log.Warn().Err(err).
			Str("store_id", storeID).
			Str("product_id", productID).
			Msg("failed to invalidate forecast cache after training")
	}

	return version, nil
}

// TrainStore trains every product in a store that has enough history, on the
// configured worker pool. Individual failures are reported per product and
// never abort the batch.
func (s *ForecastService) TrainStore(ctx context.Context, storeID string) ([]forecast.TrainResult, error) {
	productIDs, err := s.history.ProductsWithHistory(ctx, storeID, forecast.MinTrainObservations)
	if err != nil {
		return nil, err
	}

	return s.TrainProducts(ctx, storeID, productIDs)
}

// TrainProducts trains an explicit product list for one store.
func (s *ForecastService) TrainProducts(ctx context.Context, storeID string, productIDs []string) ([]forecast.TrainResult, error) {
	from, to := s.historyWindow()

	jobs := make([]forecast.TrainJob, 0, len(productIDs))
	for _, productID := range productIDs {
		history, err := s.history.DailyDemand(ctx, storeID, productID, from, to)
		if err != nil {
			// History load failures are per-product outcomes like training
			// failures: record and keep going.
			jobs = append(jobs, forecast.TrainJob{StoreID: storeID, ProductID: productID})
			log.Error().Err(err).
				Str("store_id", storeID).
				Str("product_id", productID).
				Msg("failed to load demand history")
			continue
		}
		jobs = append(jobs, forecast.TrainJob{StoreID: storeID, ProductID: productID, History: history})
	}

	timeout := time.Duration(s.cfg.TrainTimeoutSeconds) * time.Second
	results := s.catalog.TrainBatch(ctx, jobs, s.cfg.TrainWorkers, timeout)

	trained := 0
	for _, r := range results {
		if r.Err == nil {
			trained++
		}
	}
	log.Info().
		Str("store_id", storeID).
		Int("requested", len(productIDs)).
		Int("trained", trained).
		Msg("batch training finished")

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate forecast cache after batch training")
	}

	return results, nil
}

// Forecast returns the quantile series for the current model version,
// cache-aside: the version id is part of the cache key, so a stale entry can
// never be served for a newer model.
func (s *ForecastService) Forecast(ctx context.Context, storeID, productID string, asOf time.Time, horizonDays int) ([]domain.ForecastPoint, domain.ModelVersion, error) {
	if horizonDays <= 0 {
		horizonDays = s.cfg.HorizonDays
	}
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}

	model, err := s.catalog.Model(storeID, productID)
	if err != nil {
		return nil, domain.ModelVersion{}, err
	}
	version := model.Version()

	key := cache.ForecastKey{
		StoreID:     storeID,
		ProductID:   productID,
		VersionID:   version.ID,
		AsOf:        asOf,
		HorizonDays: horizonDays,
	}

	if points, ok, err := s.cache.GetSeries(ctx, key); err != nil {
		log.Warn().Err(err).Msg("forecast cache read failed")
	} else if ok {
		return points, version, nil
	}

	series, err := model.Series(asOf, horizonDays)
	if err != nil {
		return nil, domain.ModelVersion{}, err
	}
	points := series.Points()

	if err := s.cache.SetSeries(ctx, key, points); err != nil {
		log.Warn().Err(err).Msg("forecast cache write failed")
	}

	return points, version, nil
}

// Update incrementally refits the current model with observations recorded
// since its training window ended.
func (s *ForecastService) Update(ctx context.Context, storeID, productID string) (domain.ModelVersion, error) {
	current, err := s.catalog.Model(storeID, productID)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	from := current.Version().Window.End.AddDate(0, 0, 1)
	to := s.now().UTC().Truncate(24 * time.Hour)
	if !from.Before(to) {
		// Nothing new to fold in; the current version stands.
		return current.Version(), nil
	}

	observations, err := s.history.DailyDemand(ctx, storeID, productID, from, to)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	version, err := s.catalog.Update(ctx, storeID, productID, observations)
	if err != nil {
		return domain.ModelVersion{}, err
	}

	if err := s.cache.InvalidatePair(ctx, storeID, productID); err != nil {
		log.Warn().Err(err).
			Str("store_id", storeID).
			Str("product_id", productID).
			Msg("failed to invalidate forecast cache after update")
	}

	return version, nil
}

// Evaluate recomputes cross-validated metrics for the current model version.
func (s *ForecastService) Evaluate(ctx context.Context, storeID, productID string) (domain.ModelMetrics, error) {
	return s.catalog.Evaluate(ctx, storeID, productID)
}

// Versions lists the append-only model version log, oldest first.
func (s *ForecastService) Versions(storeID, productID string) ([]domain.ModelVersion, error) {
	return s.catalog.Versions(storeID, productID)
}

// Version returns one specific published version.
func (s *ForecastService) Version(storeID, productID, versionID string) (domain.ModelVersion, error) {
	return s.catalog.Version(storeID, productID, versionID)
}
