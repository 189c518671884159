package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/domain"
)

func TestRollingOriginSplits(t *testing.T) {
	splits := rollingOriginSplits(200, 90, 30, 30)

	require.Len(t, splits, 3)
	assert.Equal(t, split{trainLen: 90, testLen: 30}, splits[0])
	assert.Equal(t, split{trainLen: 120, testLen: 30}, splits[1])
	assert.Equal(t, split{trainLen: 150, testLen: 30}, splits[2])
}

func TestRollingOriginSplitsTooShort(t *testing.T) {
	assert.Empty(t, rollingOriginSplits(100, 90, 30, 30))
	assert.Empty(t, rollingOriginSplits(200, 0, 30, 30))
}

func TestHoldoutSplit(t *testing.T) {
	// 20% tail, floored at 3 days, capped at the horizon.
	assert.Equal(t, split{trainLen: 80, testLen: 20}, holdoutSplit(100, 30))
	assert.Equal(t, split{trainLen: 17, testLen: 3}, holdoutSplit(20, 30))
	assert.Equal(t, split{trainLen: 190, testLen: 10}, holdoutSplit(200, 10))
}

func TestCrossValidateFallsBackToHoldout(t *testing.T) {
	f := &NaiveSeasonal{cv: CVConfig{InitialDays: 90, PeriodDays: 30, HorizonDays: 30}}
	series, err := prepareSeries("s1", "p1", syntheticHistory(trainStart, 30), 14)
	require.NoError(t, err)

	metrics, err := crossValidate(context.Background(), f.fit, series, f.cv)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.Folds)
	assert.GreaterOrEqual(t, metrics.Coverage, 0.0)
	assert.LessOrEqual(t, metrics.Coverage, 1.0)
}

func TestCrossValidateHonorsCancellation(t *testing.T) {
	f := &NaiveSeasonal{cv: DefaultCVConfig()}
	series, err := prepareSeries("s1", "p1", syntheticHistory(trainStart, 200), 14)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = crossValidate(ctx, f.fit, series, f.cv)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMetricsAccumulator(t *testing.T) {
	var acc metricsAccumulator

	acc.add(10, domain.ForecastPoint{P50: 12, P95: 15})
	acc.add(0, domain.ForecastPoint{P50: 2, P95: 3})
	acc.add(8, domain.ForecastPoint{P50: 8, P95: 7})
	acc.folds = 1

	m := acc.metrics()

	assert.Equal(t, 1, m.Folds)
	assert.InDelta(t, (2.0+2.0+0.0)/3, m.MAE, 1e-9)
	// Zero actuals are excluded from MAPE, not mapped to infinity.
	assert.InDelta(t, 0.1, m.MAPE, 1e-9)
	// Two of three actuals fall at or below their P95.
	assert.InDelta(t, 2.0/3, m.Coverage, 1e-9)
}

func TestMetricsAccumulatorEmpty(t *testing.T) {
	var acc metricsAccumulator
	assert.Equal(t, domain.ModelMetrics{}, acc.metrics())
}

func TestHolidayCalendar(t *testing.T) {
	cases := map[string]time.Time{
		"new_years_day":    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"mlk_day":          time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		"presidents_day":   time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC),
		"memorial_day":     time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC),
		"independence_day": time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
		"labor_day":        time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		"thanksgiving":     time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC),
		"black_friday":     time.Date(2024, 11, 29, 0, 0, 0, 0, time.UTC),
		"christmas_eve":    time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		"christmas_day":    time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
	}

	for want, date := range cases {
		got, ok := holidayName(date)
		assert.True(t, ok, "expected %s on %s", want, date)
		assert.Equal(t, want, got)
	}

	_, ok := holidayName(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
