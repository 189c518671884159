// internal/forecast/crossval.go
package forecast

import (
	"context"
	"math"

	"github.com/retailops/replenish/internal/domain"
)

// split is one rolling-origin fold: fit on the first trainLen days, score the
// next testLen days.
type split struct {
	trainLen int
	testLen  int
}

// rollingOriginSplits yields the finite, ordered fold sequence for a series of
// n days. The origin starts at initial days and advances by period until the
// horizon no longer fits. Pure function of its inputs.
func rollingOriginSplits(n, initial, period, horizon int) []split {
	if initial <= 0 || period <= 0 || horizon <= 0 {
		return nil
	}

	var splits []split
	for trainLen := initial; trainLen+horizon <= n; trainLen += period {
		splits = append(splits, split{trainLen: trainLen, testLen: horizon})
	}

	return splits
}

// holdoutSplit covers short histories where no full rolling-origin fold fits:
// hold out a tail window of roughly 20% of the series, at least 3 days,
// capped at the CV horizon.
func holdoutSplit(n, horizon int) split {
	testLen := n / 5
	if testLen < 3 {
		testLen = 3
	}
	if horizon > 0 && testLen > horizon {
		testLen = horizon
	}

	return split{trainLen: n - testLen, testLen: testLen}
}

// crossValidate refits the backend per fold and scores P50 forecasts against
// held-out actuals. Coverage is the share of actuals at or below the P95
// band. Cancellation is checked between folds so long runs abort with the
// context error instead of stalling the pipeline.
func crossValidate(ctx context.Context, fit fitFunc, series dailySeries, cfg CVConfig) (domain.ModelMetrics, error) {
	n := series.len()
	splits := rollingOriginSplits(n, cfg.InitialDays, cfg.PeriodDays, cfg.HorizonDays)
	if len(splits) == 0 {
		splits = []split{holdoutSplit(n, cfg.HorizonDays)}
	}

	var acc metricsAccumulator
	for _, sp := range splits {
		if err := ctx.Err(); err != nil {
			return domain.ModelMetrics{}, err
		}

		point, err := fit(series.head(sp.trainLen))
		if err != nil {
			return domain.ModelMetrics{}, err
		}

		for i := sp.trainLen; i < sp.trainLen+sp.testLen && i < n; i++ {
			if !series.observed[i] {
				continue
			}
			acc.add(series.values[i], point(series.date(i)))
		}
		acc.folds++
	}

	return acc.metrics(), nil
}

type metricsAccumulator struct {
	count      int
	absErr     float64
	sqErr      float64
	apeSum     float64
	apeCount   int
	smapeSum   float64
	smapeCount int
	covered    int
	folds      int
}

func (a *metricsAccumulator) add(actual float64, p domain.ForecastPoint) {
	err := p.P50 - actual

	a.count++
	a.absErr += math.Abs(err)
	a.sqErr += err * err

	if actual != 0 {
		a.apeSum += math.Abs(err) / math.Abs(actual)
		a.apeCount++
	}
	if denom := math.Abs(p.P50) + math.Abs(actual); denom > 0 {
		a.smapeSum += 2 * math.Abs(err) / denom
		a.smapeCount++
	}
	if actual <= p.P95 {
		a.covered++
	}
}

func (a *metricsAccumulator) metrics() domain.ModelMetrics {
	m := domain.ModelMetrics{Folds: a.folds}
	if a.count == 0 {
		return m
	}

	m.MAE = a.absErr / float64(a.count)
	m.RMSE = math.Sqrt(a.sqErr / float64(a.count))
	m.Coverage = float64(a.covered) / float64(a.count)
	if a.apeCount > 0 {
		m.MAPE = a.apeSum / float64(a.apeCount)
	}
	if a.smapeCount > 0 {
		m.SMAPE = a.smapeSum / float64(a.smapeCount)
	}

	return m
}
