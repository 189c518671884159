package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/replenish/internal/domain"
)

// syntheticHistory builds a deterministic daily demand series with a weekly
// pattern: weekends sell roughly twice as much as weekdays.
func syntheticHistory(start time.Time, days int) []domain.DemandObservation {
	history := make([]domain.DemandObservation, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		qty := 10.0 + 4*math.Sin(2*math.Pi*float64(date.Weekday())/7)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			qty *= 2
		}
		history = append(history, domain.DemandObservation{
			StoreID:      "s1",
			ProductID:    "p1",
			Date:         date,
			QuantitySold: qty,
		})
	}
	return history
}

var trainStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSeasonalTrainProducesOrderedQuantiles(t *testing.T) {
	f := New(Options{Backend: "seasonal", SeasonalityMode: SeasonalityMultiplicative, Holidays: true})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 180))
	require.NoError(t, err)

	version := model.Version()
	assert.NotEmpty(t, version.ID)
	assert.Equal(t, "seasonal", version.Backend)
	assert.Equal(t, 180, version.SampleCount)
	assert.Equal(t, trainStart, version.Window.Start)
	assert.Positive(t, version.Metrics.Folds)

	series, err := model.Series(trainStart.AddDate(0, 0, 180), 30)
	require.NoError(t, err)
	require.Equal(t, 30, series.Len())

	prev := time.Time{}
	for {
		p, ok := series.Next()
		if !ok {
			break
		}
		assert.GreaterOrEqual(t, p.P50, 0.0)
		assert.GreaterOrEqual(t, p.P90, p.P50, "p90 must not fall below p50 at %s", p.Date)
		assert.GreaterOrEqual(t, p.P95, p.P90, "p95 must not fall below p90 at %s", p.Date)
		if !prev.IsZero() {
			assert.Equal(t, prev.AddDate(0, 0, 1), p.Date, "series dates must be consecutive")
		}
		prev = p.Date
	}
}

func TestSeriesIsDeterministicAndRestartable(t *testing.T) {
	f := New(Options{})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 120))
	require.NoError(t, err)

	asOf := trainStart.AddDate(0, 0, 120)
	first, err := model.Series(asOf, 14)
	require.NoError(t, err)
	second, err := model.Series(asOf, 14)
	require.NoError(t, err)

	assert.Equal(t, first.Points(), second.Points())

	// Drain and rewind: the replay must match the first pass.
	var drained []domain.ForecastPoint
	for {
		p, ok := first.Next()
		if !ok {
			break
		}
		drained = append(drained, p)
	}
	first.Reset()
	for i := 0; ; i++ {
		p, ok := first.Next()
		if !ok {
			require.Len(t, drained, i)
			break
		}
		assert.Equal(t, drained[i], p)
	}
}

func TestTrainIsDeterministicAcrossRuns(t *testing.T) {
	history := syntheticHistory(trainStart, 120)
	f := New(Options{Holidays: true})

	a, err := f.Train(context.Background(), "s1", "p1", history)
	require.NoError(t, err)
	b, err := f.Train(context.Background(), "s1", "p1", history)
	require.NoError(t, err)

	asOf := trainStart.AddDate(0, 0, 120)
	seriesA, err := a.Series(asOf, 7)
	require.NoError(t, err)
	seriesB, err := b.Series(asOf, 7)
	require.NoError(t, err)

	assert.Equal(t, seriesA.Points(), seriesB.Points())
	assert.NotEqual(t, a.Version().ID, b.Version().ID, "each training run publishes its own version id")
}

func TestTrainRejectsShortHistory(t *testing.T) {
	f := New(Options{})

	_, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 10))

	var dataErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 10, dataErr.Got)
	assert.Equal(t, MinTrainObservations, dataErr.Required)
}

func TestModelUpdateKeepsReceiverIntact(t *testing.T) {
	f := New(Options{Backend: "naive"})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)
	before := model.Version()

	extra := syntheticHistory(trainStart.AddDate(0, 0, 60), 14)
	updated, err := model.Update(context.Background(), extra)
	require.NoError(t, err)

	assert.Equal(t, before, model.Version(), "update must not mutate the existing model")
	assert.NotEqual(t, before.ID, updated.Version().ID)
	assert.Equal(t, 74, updated.Version().SampleCount)
}

func TestModelEvaluateIsRepeatable(t *testing.T) {
	f := New(Options{Backend: "naive"})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 150))
	require.NoError(t, err)

	first, err := model.Evaluate(context.Background())
	require.NoError(t, err)
	second, err := model.Evaluate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, model.Version().Metrics, first)
}

func TestPrepareSeriesNormalization(t *testing.T) {
	day := func(i int) time.Time { return trainStart.AddDate(0, 0, i) }

	history := make([]domain.DemandObservation, 0, 20)
	for i := 0; i < 20; i++ {
		if i == 5 || i == 6 {
			// Calendar gap: these days simply have no row.
			continue
		}
		obs := domain.DemandObservation{Date: day(i), QuantitySold: float64(i)}
		if i == 3 {
			obs.QuantitySold = -4 // bad upstream data
		}
		if i == 10 {
			obs.Missing = true
		}
		history = append(history, obs)
	}
	// Duplicate date: the later row wins.
	history = append(history, domain.DemandObservation{Date: day(1), QuantitySold: 99})

	series, err := prepareSeries("s1", "p1", history, 14)
	require.NoError(t, err)

	require.Equal(t, 20, series.len())
	assert.Equal(t, trainStart, series.start)
	assert.Equal(t, 99.0, series.values[1], "last write wins on duplicate dates")
	assert.Equal(t, 0.0, series.values[3], "negative quantities clamp to zero")
	assert.Equal(t, 0.0, series.values[5], "gaps fill as zero sales")
	assert.True(t, series.observed[5], "gap days count as observed zero-sales days")
	assert.False(t, series.observed[10], "explicitly missing days are excluded from fitting")
}

func TestPrepareSeriesMissingDaysDontCountTowardFloor(t *testing.T) {
	history := make([]domain.DemandObservation, 0, 20)
	for i := 0; i < 20; i++ {
		history = append(history, domain.DemandObservation{
			Date:         trainStart.AddDate(0, 0, i),
			QuantitySold: 5,
			Missing:      i >= 10,
		})
	}

	_, err := prepareSeries("s1", "p1", history, 14)

	var dataErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 10, dataErr.Got)
}

func TestNaiveBackendLearnsWeekdayPattern(t *testing.T) {
	f := New(Options{Backend: "naive"})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 140))
	require.NoError(t, err)
	assert.Equal(t, "naive", model.Version().Backend)

	series, err := model.Series(trainStart.AddDate(0, 0, 140), 7)
	require.NoError(t, err)

	var weekend, weekday float64
	var weekendN, weekdayN int
	for _, p := range series.Points() {
		if wd := p.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend += p.P50
			weekendN++
		} else {
			weekday += p.P50
			weekdayN++
		}
	}

	assert.Greater(t, weekend/float64(weekendN), weekday/float64(weekdayN),
		"weekend forecasts should exceed weekday forecasts on weekend-heavy history")
}

func TestSeriesRejectsNonPositiveHorizon(t *testing.T) {
	f := New(Options{Backend: "naive"})

	model, err := f.Train(context.Background(), "s1", "p1", syntheticHistory(trainStart, 60))
	require.NoError(t, err)

	_, err = model.Series(trainStart, 0)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}
