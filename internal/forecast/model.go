// internal/forecast/model.go
package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/retailops/replenish/internal/domain"
)

// pointFunc computes the forecast point for one date from a fitted model.
type pointFunc func(date time.Time) domain.ForecastPoint

// fitFunc fits a backend on a prepared daily series. Cross-validation refits
// through this so the backend choice stays opaque to the splitter.
type fitFunc func(series dailySeries) (pointFunc, error)

// dailySeries is a gap-filled daily view of demand history. Gaps are treated
// as zero-sales days; days explicitly flagged missing are kept in the index
// but excluded from fitting and scoring.
type dailySeries struct {
	storeID   string
	productID string
	start     time.Time
	values    []float64
	observed  []bool
}

func (s dailySeries) len() int { return len(s.values) }

func (s dailySeries) date(i int) time.Time { return s.start.AddDate(0, 0, i) }

func (s dailySeries) end() time.Time { return s.date(s.len() - 1) }

func (s dailySeries) head(n int) dailySeries {
	return dailySeries{
		storeID:   s.storeID,
		productID: s.productID,
		start:     s.start,
		values:    s.values[:n],
		observed:  s.observed[:n],
	}
}

// prepareSeries normalizes raw observations into a daily series: sorted,
// deduplicated by date (last write wins), negative quantities clamped to
// zero, calendar gaps filled as zero-sales. It fails with
// *domain.InsufficientDataError below minObservations distinct observed dates.
func prepareSeries(storeID, productID string, history []domain.DemandObservation, minObservations int) (dailySeries, error) {
	type dayValue struct {
		qty     float64
		missing bool
	}

	byDay := make(map[time.Time]dayValue, len(history))
	for _, obs := range history {
		day := obs.Date.UTC().Truncate(24 * time.Hour)
		byDay[day] = dayValue{qty: math.Max(0, obs.QuantitySold), missing: obs.Missing}
	}

	observedDates := 0
	for _, v := range byDay {
		if !v.missing {
			observedDates++
		}
	}
	if observedDates < minObservations {
		return dailySeries{}, &domain.InsufficientDataError{
			StoreID:   storeID,
			ProductID: productID,
			Got:       observedDates,
			Required:  minObservations,
		}
	}

	dates := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	start, end := dates[0], dates[len(dates)-1]
	n := int(end.Sub(start).Hours()/24) + 1

	series := dailySeries{
		storeID:   storeID,
		productID: productID,
		start:     start,
		values:    make([]float64, n),
		observed:  make([]bool, n),
	}
	for i := 0; i < n; i++ {
		day := series.date(i)
		if v, ok := byDay[day]; ok {
			series.values[i] = v.qty
			series.observed[i] = !v.missing
			continue
		}
		// Calendar gap: zero sales unless the caller flagged it missing.
		series.observed[i] = true
	}

	return series, nil
}

// seasonalComponent is one Fourier seasonality block. A component only enters
// the design matrix when the training span covers at least two full periods.
type seasonalComponent struct {
	name   string
	period float64
	order  int
}

var seasonalComponents = []seasonalComponent{
	{name: "weekly", period: 7, order: 3},
	{name: "monthly", period: 30.4375, order: 5},
	{name: "quarterly", period: 91.3125, order: 4},
	{name: "yearly", period: 365.25, order: 8},
}

// SeasonalForecaster fits a linear trend plus Fourier seasonalities and
// holiday indicator regressors by ordinary least squares. In multiplicative
// mode the fit runs on log1p(quantity) so seasonal effects scale with level.
type SeasonalForecaster struct {
	mode     string
	holidays bool
	cv       CVConfig
}

func (f *SeasonalForecaster) Name() string { return "seasonal" }

// Train fits the model and computes rolling-origin cross-validation metrics.
// The fitted model is returned unpublished; the catalog decides when readers
// see it.
func (f *SeasonalForecaster) Train(ctx context.Context, storeID, productID string, history []domain.DemandObservation) (Model, error) {
	series, err := prepareSeries(storeID, productID, history, MinTrainObservations)
	if err != nil {
		return nil, err
	}

	point, err := f.fit(series)
	if err != nil {
		return nil, fmt.Errorf("fit seasonal model for store=%s product=%s: %w", storeID, productID, err)
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

// fit solves the least-squares problem for one prepared series. Exposed as a
// fitFunc so cross-validation refits on train windows shorter than the
// public training floor.
func (f *SeasonalForecaster) fit(series dailySeries) (pointFunc, error) {
	spanDays := series.len()

	var enabled []seasonalComponent
	for _, c := range seasonalComponents {
		if float64(spanDays) >= 2*c.period {
			enabled = append(enabled, c)
		}
	}

	var holidays []string
	if f.holidays {
		seen := make(map[string]bool)
		for i := 0; i < series.len(); i++ {
			if name, ok := holidayName(series.date(i)); ok && !seen[name] {
				seen[name] = true
				holidays = append(holidays, name)
			}
		}
		sort.Strings(holidays)
	}

	transform, invert := identityScale, identityScale
	if f.mode == SeasonalityMultiplicative {
		transform, invert = math.Log1p, math.Expm1
	}

	features := newFeatureBuilder(series.start, enabled, holidays)

	rows := 0
	for i := 0; i < series.len(); i++ {
		if series.observed[i] {
			rows++
		}
	}
	cols := features.cols()
	if rows <= cols {
		// Not enough points for the full basis; shrink to trend + weekly.
		features = newFeatureBuilder(series.start, enabled[:min(1, len(enabled))], nil)
		cols = features.cols()
	}
	if rows <= cols {
		features = newFeatureBuilder(series.start, nil, nil)
		cols = features.cols()
	}

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	row := 0
	for i := 0; i < series.len(); i++ {
		if !series.observed[i] {
			continue
		}
		x.SetRow(row, features.row(series.date(i)))
		y.SetVec(row, transform(series.values[i]))
		row++
	}

	beta := mat.NewVecDense(cols, nil)
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}

	// Residual sigma on the model scale drives the quantile spread.
	sse := 0.0
	row = 0
	for i := 0; i < series.len(); i++ {
		if !series.observed[i] {
			continue
		}
		pred := mat.Dot(beta, mat.NewVecDense(cols, features.row(series.date(i))))
		resid := transform(series.values[i]) - pred
		sse += resid * resid
		row++
	}
	dof := rows - cols
	if dof < 1 {
		dof = 1
	}
	sigma := math.Sqrt(sse / float64(dof))

	z90 := distuv.UnitNormal.Quantile(0.90)
	z95 := distuv.UnitNormal.Quantile(0.95)

	return func(date time.Time) domain.ForecastPoint {
		feat := mat.NewVecDense(cols, features.row(date))
		mu := mat.Dot(beta, feat)

		trend := beta.AtVec(0)
		if cols > 1 {
			trend += beta.AtVec(1) * features.trendValue(date)
		}

		return domain.ForecastPoint{
			Date:     date,
			P50:      math.Max(0, invert(mu)),
			P90:      math.Max(0, invert(mu+z90*sigma)),
			P95:      math.Max(0, invert(mu+z95*sigma)),
			Trend:    math.Max(0, invert(trend)),
			Seasonal: mu - trend,
		}
	}, nil
}

func identityScale(v float64) float64 { return v }

// featureBuilder produces design-matrix rows for a date: intercept, linear
// trend, Fourier terms per enabled seasonality, then one indicator per
// holiday.
type featureBuilder struct {
	origin     time.Time
	components []seasonalComponent
	holidayIdx map[string]int
	n          int
}

func newFeatureBuilder(origin time.Time, components []seasonalComponent, holidays []string) *featureBuilder {
	fb := &featureBuilder{
		origin:     origin,
		components: components,
		holidayIdx: make(map[string]int, len(holidays)),
	}

	fb.n = 2 // intercept + trend
	for _, c := range components {
		fb.n += 2 * c.order
	}
	for _, name := range holidays {
		fb.holidayIdx[name] = fb.n
		fb.n++
	}

	return fb
}

func (fb *featureBuilder) cols() int { return fb.n }

func (fb *featureBuilder) trendValue(date time.Time) float64 {
	return date.Sub(fb.origin).Hours() / 24 / 365.25
}

func (fb *featureBuilder) row(date time.Time) []float64 {
	row := make([]float64, fb.n)
	row[0] = 1
	row[1] = fb.trendValue(date)

	t := date.Sub(fb.origin).Hours() / 24
	i := 2
	for _, c := range fb.components {
		for k := 1; k <= c.order; k++ {
			angle := 2 * math.Pi * float64(k) * t / c.period
			row[i] = math.Sin(angle)
			row[i+1] = math.Cos(angle)
			i += 2
		}
	}

	if name, ok := holidayName(date); ok {
		if idx, found := fb.holidayIdx[name]; found {
			row[idx] = 1
		}
	}

	return row
}

// fittedModel is the immutable published form shared by all backends: a point
// function plus version metadata and the training history snapshot needed for
// Evaluate and Update.
type fittedModel struct {
	version    domain.ModelVersion
	point      pointFunc
	history    []domain.DemandObservation
	forecaster Forecaster
	cv         CVConfig
}

func (m *fittedModel) Version() domain.ModelVersion { return m.version }

func (m *fittedModel) Series(asOf time.Time, horizonDays int) (*Series, error) {
	if horizonDays <= 0 {
		return nil, domain.NewValidationError("horizon_days", "must be positive")
	}

	return newSeries(asOf.UTC(), horizonDays, m.point), nil
}

func (m *fittedModel) Evaluate(ctx context.Context) (domain.ModelMetrics, error) {
	series, err := prepareSeries(m.version.StoreID, m.version.ProductID, m.history, MinTrainObservations)
	if err != nil {
		return domain.ModelMetrics{}, err
	}

	fit := backendFitFunc(m.forecaster)

	return crossValidate(ctx, fit, series, m.cv)
}

func (m *fittedModel) Update(ctx context.Context, observations []domain.DemandObservation) (Model, error) {
	merged := mergeObservations(m.history, observations)

	return m.forecaster.Train(ctx, m.version.StoreID, m.version.ProductID, merged)
}

func backendFitFunc(f Forecaster) fitFunc {
	switch b := f.(type) {
	case *SeasonalForecaster:
		return b.fit
	case *NaiveSeasonal:
		return b.fit
	default:
		return func(series dailySeries) (pointFunc, error) {
			return nil, fmt.Errorf("backend %s does not support refitting", f.Name())
		}
	}
}

// mergeObservations unions two observation sets by date, newer set winning.
func mergeObservations(old, new []domain.DemandObservation) []domain.DemandObservation {
	byDay := make(map[time.Time]domain.DemandObservation, len(old)+len(new))
	for _, obs := range old {
		byDay[obs.Date.UTC().Truncate(24*time.Hour)] = obs
	}
	for _, obs := range new {
		byDay[obs.Date.UTC().Truncate(24*time.Hour)] = obs
	}

	merged := make([]domain.DemandObservation, 0, len(byDay))
	for _, obs := range byDay {
		merged = append(merged, obs)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })

	return merged
}
