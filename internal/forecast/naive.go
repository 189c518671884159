// internal/forecast/naive.go
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/retailops/replenish/internal/domain"
)

// NaiveSeasonal is the fallback backend: day-of-week averages with a global
// residual spread. It exists to substitute for the seasonal model behind the
// same interface, not as a silent fallback — callers opt in via config.
type NaiveSeasonal struct {
	cv CVConfig
}

func (f *NaiveSeasonal) Name() string { return "naive" }

func (f *NaiveSeasonal) Train(ctx context.Context, storeID, productID string, history []domain.DemandObservation) (Model, error) {
	series, err := prepareSeries(storeID, productID, history, MinTrainObservations)
	if err != nil {
		return nil, err
	}

	point, err := f.fit(series)
	if err != nil {
		return nil, fmt.Errorf("fit naive model for store=%s product=%s: %w", storeID, productID, err)
	}

	metrics, err := crossValidate(ctx, f.fit, series, f.cv)
	if err != nil {
		return nil, err
	}

	return &fittedModel{
		version: domain.ModelVersion{
			ID:          uuid.NewString(),
			StoreID:     storeID,
			ProductID:   productID,
			Backend:     f.Name(),
			TrainedAt:   time.Now().UTC(),
			Window:      domain.TrainingWindow{Start: series.start, End: series.end()},
			SampleCount: series.len(),
			Metrics:     metrics,
		},
		point:      point,
		history:    history,
		forecaster: f,
		cv:         f.cv,
	}, nil
}

func (f *NaiveSeasonal) fit(series dailySeries) (pointFunc, error) {
	var (
		sums   [7]float64
		counts [7]int
		total  float64
		n      int
	)
	for i := 0; i < series.len(); i++ {
		if !series.observed[i] {
			continue
		}
		wd := series.date(i).Weekday()
		sums[wd] += series.values[i]
		counts[wd]++
		total += series.values[i]
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("no observed days in series")
	}

	overall := total / float64(n)
	var means [7]float64
	for wd := range means {
		if counts[wd] > 0 {
			means[wd] = sums[wd] / float64(counts[wd])
		} else {
			means[wd] = overall
		}
	}

	sse := 0.0
	for i := 0; i < series.len(); i++ {
		if !series.observed[i] {
			continue
		}
		resid := series.values[i] - means[series.date(i).Weekday()]
		sse += resid * resid
	}
	sigma := math.Sqrt(sse / float64(n))

	z90 := distuv.UnitNormal.Quantile(0.90)
	z95 := distuv.UnitNormal.Quantile(0.95)

	return func(date time.Time) domain.ForecastPoint {
		mu := means[date.Weekday()]

		return domain.ForecastPoint{
			Date:  date,
			P50:   math.Max(0, mu),
			P90:   math.Max(0, mu+z90*sigma),
			P95:   math.Max(0, mu+z95*sigma),
			Trend: math.Max(0, overall),
		}
	}, nil
}
