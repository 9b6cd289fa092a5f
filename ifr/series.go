package ifr

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

const dateLayout = "2006-01-02"

// Series is a contiguous daily series of volumes in mcm/day, starting at
// Start. It is read-only after construction and safe for concurrent readers.
type Series struct {
	Name   string
	Start  time.Time
	values []float64
}

// NewSeries builds a daily series beginning at start. values[i] is the value
// for start + i days.
func NewSeries(name string, start time.Time, values []float64) *Series {
	v := make([]float64, len(values))
	copy(v, values)
	return &Series{Name: name, Start: Day(start), values: v}
}

// Len returns the number of days in the series.
func (s *Series) Len() int { return len(s.values) }

// End returns the last date in the series. It returns Start for an empty series.
func (s *Series) End() time.Time {
	if len(s.values) == 0 {
		return s.Start
	}
	return s.Start.AddDate(0, 0, len(s.values)-1)
}

func (s *Series) index(t time.Time) int {
	return int(Day(t).Sub(s.Start).Hours() / 24)
}

// At returns the value on date t.
func (s *Series) At(t time.Time) (float64, error) {
	i := s.index(t)
	if i < 0 || i >= len(s.values) {
		return 0, lookupErr(s.Name, Day(t).Format(dateLayout))
	}
	return s.values[i], nil
}

// Sum returns the total over the inclusive date range [from, to]. Days outside
// the series contribute nothing, the same as slicing a date-indexed frame.
func (s *Series) Sum(from, to time.Time) float64 {
	i, j := s.index(from), s.index(to)
	if i < 0 {
		i = 0
	}
	if j >= len(s.values) {
		j = len(s.values) - 1
	}
	if i > j {
		return 0
	}
	return floats.Sum(s.values[i : j+1])
}

// ForecastWindow is the forward-looking view of a Series granted to the
// flood-pulse tracker: it exposes at most Days values starting at Origin and
// nothing before or beyond.
type ForecastWindow struct {
	series *Series
	Origin time.Time
	Days   int
}

// Window grants forward access to days [origin, origin+days-1].
func (s *Series) Window(origin time.Time, days int) ForecastWindow {
	return ForecastWindow{series: s, Origin: Day(origin), Days: days}
}

// Sum returns the forecast total over the first n days of the window.
func (w ForecastWindow) Sum(n int) (float64, error) {
	if n < 1 || n > w.Days {
		return 0, fmt.Errorf("forecast of %d days exceeds window of %d days from %s",
			n, w.Days, w.Origin.Format(dateLayout))
	}
	return w.series.Sum(w.Origin, w.Origin.AddDate(0, 0, n-1)), nil
}

// AnnualSeries holds one annual volume per water year.
type AnnualSeries struct {
	Name   string
	values map[int]float64
	years  []int
}

// NewAnnualSeries builds an annual series from a water-year keyed map.
func NewAnnualSeries(name string, values map[int]float64) *AnnualSeries {
	a := &AnnualSeries{Name: name, values: make(map[int]float64, len(values))}
	for y, v := range values {
		a.values[y] = v
		a.years = append(a.years, y)
	}
	sort.Ints(a.years)
	return a
}

// At returns the value for water year wy.
func (a *AnnualSeries) At(wy int) (float64, error) {
	v, ok := a.values[wy]
	if !ok {
		return 0, lookupErr(a.Name, wy)
	}
	return v, nil
}

// Years returns the water years in ascending order.
func (a *AnnualSeries) Years() []int {
	out := make([]int, len(a.years))
	copy(out, a.years)
	return out
}

// Values returns the annual values ordered by water year.
func (a *AnnualSeries) Values() []float64 {
	out := make([]float64, len(a.years))
	for i, y := range a.years {
		out[i] = a.values[y]
	}
	return out
}

// FlowRecorder exposes the realized daily flow of a reach for one scenario.
type FlowRecorder interface {
	// Sum returns the realized volume (mcm) over the inclusive range [from, to].
	// Days without a record contribute nothing.
	Sum(from, to time.Time) float64
}

// FlowLog is an append-only FlowRecorder. Records must be appended in date
// order. A FlowLog belongs to a single scenario timeline.
type FlowLog struct {
	start  time.Time
	values []float64
}

// Append records the realized flow for date t. Gaps are filled with zero.
func (l *FlowLog) Append(t time.Time, mcm float64) error {
	t = Day(t)
	if len(l.values) == 0 {
		l.start = t
		l.values = append(l.values, mcm)
		return nil
	}
	i := int(t.Sub(l.start).Hours() / 24)
	if i < len(l.values) {
		return fmt.Errorf("%w: realized flow for %s already recorded", ErrOutOfOrder, t.Format(dateLayout))
	}
	for len(l.values) < i {
		l.values = append(l.values, 0)
	}
	l.values = append(l.values, mcm)
	return nil
}

// Sum implements FlowRecorder.
func (l *FlowLog) Sum(from, to time.Time) float64 {
	if len(l.values) == 0 {
		return 0
	}
	return (&Series{Start: l.start, values: l.values}).Sum(from, to)
}

// Last returns the most recent realized flow and whether one exists.
func (l *FlowLog) Last() (float64, bool) {
	if len(l.values) == 0 {
		return 0, false
	}
	return l.values[len(l.values)-1], true
}
