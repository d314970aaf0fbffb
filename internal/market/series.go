package market

import (
	"math"
	"sort"
	"time"
)

// Bar is one day's open/high/low/close/volume observation.
// Unknown numeric fields are NaN, never zero: a zero close is a price,
// a missing close is not.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewBar returns a bar with all numeric fields unknown.
func NewBar(date time.Time) Bar {
	nan := math.NaN()
	return Bar{Date: date, Open: nan, High: nan, Low: nan, Close: nan, Volume: nan}
}

// Series is an ordered-by-date sequence of daily bars for one symbol.
// After Normalize, dates are strictly increasing and duplicate-free;
// gaps (non-trading days) are expected.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Empty reports whether the series has no bars.
func (s Series) Empty() bool {
	return len(s.Bars) == 0
}

// Last returns the most recent bar. Callers must check Empty first.
func (s Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Normalize sorts bars ascending by date and drops duplicate dates,
// keeping the first occurrence.
func (s *Series) Normalize() {
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})

	deduped := s.Bars[:0]
	var prev time.Time
	for i, bar := range s.Bars {
		if i > 0 && bar.Date.Equal(prev) {
			continue
		}
		deduped = append(deduped, bar)
		prev = bar.Date
	}
	s.Bars = deduped
}

// Since returns the sub-series of bars dated at or after cutoff.
// The returned series shares the underlying bar storage.
func (s Series) Since(cutoff time.Time) Series {
	idx := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(cutoff)
	})
	return Series{Symbol: s.Symbol, Bars: s.Bars[idx:]}
}

// IsUnknown reports whether a bar field carries no observation.
func IsUnknown(v float64) bool {
	return math.IsNaN(v)
}

// Mean returns the NaN-skipping mean of vs, or NaN when no value is known.
func Mean(vs []float64) float64 {
	var sum float64
	var n int
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// StdDev returns the NaN-skipping standard deviation of vs.
// Convention, pinned for the whole pipeline: no known values yields NaN,
// a single known value v yields |v|, two or more use the sample standard
// deviation (n-1 denominator).
func StdDev(vs []float64) float64 {
	valid := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}

	switch len(valid) {
	case 0:
		return math.NaN()
	case 1:
		return math.Abs(valid[0])
	}

	mean := 0.0
	for _, v := range valid {
		mean += v
	}
	mean /= float64(len(valid))

	var ss float64
	for _, v := range valid {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(valid)-1))
}
