// Package frame builds the regressor-complete yearly timeline a segment
// model is evaluated on.
package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
)

// Regressor names used in errors and artifacts.
const (
	RegressorNominal = dataset.ColNominal
	RegressorPrice   = dataset.ColPrice
)

// MaxPeriods is the largest forecast horizon Build accepts.
const MaxPeriods = 1000

var (
	ErrInvalidPeriods    = errors.New("invalid number of future periods")
	ErrUnknownSegment    = errors.New("segment has no historical data")
	ErrNegativeRegressor = errors.New("regressor values must be non-negative")
)

// UnresolvedRegressorGapError is returned when a regressor is missing at the
// start of a timeline, so there is no earlier value to carry forward.
type UnresolvedRegressorGapError struct {
	Year      int
	Regressor string
}

func (e *UnresolvedRegressorGapError) Error() string {
	return fmt.Sprintf("regressor %q has no value at or before %d", e.Regressor, e.Year)
}

// Regressors is a (nominal value, weighted price) pair.
type Regressors struct {
	Nominal float64 `json:"nominal_value"`
	Price   float64 `json:"weighted_price"`
}

// Entry is one year of a timeline. NaN marks a regressor gap.
type Entry struct {
	Year    int     `json:"year"`
	Nominal float64 `json:"nominal_value"`
	Price   float64 `json:"weighted_price"`
}

// Time returns the entry timestamp, 1 January of its year in UTC.
func (e Entry) Time() time.Time {
	return YearStart(e.Year)
}

// Complete reports whether both regressors are set.
func (e Entry) Complete() bool {
	return !math.IsNaN(e.Nominal) && !math.IsNaN(e.Price)
}

// YearStart returns 1 January of year in UTC.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Timeline is a chronologically ordered sequence of entries without
// duplicate years.
type Timeline []Entry

// Years returns the timeline years in order.
func (tl Timeline) Years() []int {
	years := make([]int, len(tl))
	for i, e := range tl {
		years[i] = e.Year
	}
	return years
}

// Build constructs the timeline for seg: every historical year of the segment
// followed by n consecutive years after the segment's own last year.
// Historical regressors are applied first, then future overrides them, then
// the remaining gaps are forward-filled.
func Build(seg dataset.Segment, table *dataset.Table, n int, future map[int]Regressors) (Timeline, error) {
	if n < 1 || n > MaxPeriods {
		return nil, fmt.Errorf("%d not in [1, %d]: %w", n, MaxPeriods, ErrInvalidPeriods)
	}
	for year, r := range future {
		if r.Nominal < 0 || r.Price < 0 {
			return nil, fmt.Errorf("year %d: %w", year, ErrNegativeRegressor)
		}
	}

	history := table.Yearly(seg)
	if len(history) == 0 {
		return nil, fmt.Errorf("%s: %w", seg, ErrUnknownSegment)
	}

	last := history[len(history)-1].Year
	tl := make(Timeline, 0, len(history)+n)
	for _, obs := range history {
		tl = append(tl, Entry{Year: obs.Year, Nominal: obs.Nominal, Price: obs.Price})
	}
	for year := last + 1; year <= last+n; year++ {
		tl = append(tl, Entry{Year: year, Nominal: math.NaN(), Price: math.NaN()})
	}

	for i := range tl {
		if r, ok := future[tl[i].Year]; ok {
			tl[i].Nominal = r.Nominal
			tl[i].Price = r.Price
		}
	}

	return PropagateForward(tl)
}

// PropagateForward returns a copy of tl, sorted by year, where each missing
// regressor takes the nearest earlier value. A complete timeline comes back
// unchanged. A gap with no earlier value fails with
// UnresolvedRegressorGapError.
func PropagateForward(tl Timeline) (Timeline, error) {
	out := make(Timeline, len(tl))
	copy(out, tl)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })

	lastNominal, lastPrice := math.NaN(), math.NaN()
	for i := range out {
		if math.IsNaN(out[i].Nominal) {
			if math.IsNaN(lastNominal) {
				return nil, &UnresolvedRegressorGapError{Year: out[i].Year, Regressor: RegressorNominal}
			}
			out[i].Nominal = lastNominal
		}
		if math.IsNaN(out[i].Price) {
			if math.IsNaN(lastPrice) {
				return nil, &UnresolvedRegressorGapError{Year: out[i].Year, Regressor: RegressorPrice}
			}
			out[i].Price = lastPrice
		}
		lastNominal, lastPrice = out[i].Nominal, out[i].Price
	}
	return out, nil
}
