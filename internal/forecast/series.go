package forecast

import (
	"time"

	"github.com/retailops/replenish/internal/domain"
)

// Series is a lazy, finite, restartable sequence of forecast points. Points
// are computed on demand from the underlying immutable model, so iterating a
// Series twice (or from two goroutines via separate Series values) yields
// identical results.
type Series struct {
	asOf    time.Time
	horizon int
	idx     int
	at      func(date time.Time) domain.ForecastPoint
}

func newSeries(asOf time.Time, horizonDays int, at func(time.Time) domain.ForecastPoint) *Series {
	return &Series{asOf: asOf.Truncate(24 * time.Hour), horizon: horizonDays, at: at}
}

// Len returns the number of days in the series.
func (s *Series) Len() int { return s.horizon }

// Next returns the next forecast point, or ok=false once the horizon is
// exhausted.
func (s *Series) Next() (domain.ForecastPoint, bool) {
	if s.idx >= s.horizon {
		return domain.ForecastPoint{}, false
	}

	date := s.asOf.AddDate(0, 0, s.idx+1)
	s.idx++

	return s.at(date), true
}

// Reset rewinds the series to the first forecast day.
func (s *Series) Reset() { s.idx = 0 }

// Points materializes the whole series without disturbing the iterator state.
func (s *Series) Points() []domain.ForecastPoint {
	points := make([]domain.ForecastPoint, 0, s.horizon)
	for i := 0; i < s.horizon; i++ {
		points = append(points, s.at(s.asOf.AddDate(0, 0, i+1)))
	}

	return points
}
