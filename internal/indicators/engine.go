package indicators

import (
	"math"

	"github.com/skarani/doubler/internal/market"
)

const (
	// Rolling windows
	atrWindow = 14
	volWindow = 21

	// Standard annualization constant for daily-sampled return series
	tradingDaysPerYear = 252
)

// Series is a price series augmented with derived per-bar fields. Derived
// values are NaN during the warm-up stretch at the start of the series and
// wherever an input observation is unknown. Immutable once computed.
type Series struct {
	market.Series

	// Per-bar, same length and order as Bars
	Returns   []float64 // close-to-close daily return
	TrueRange []float64 // |high - low|, no prev-close gap term
	ATR       []float64 // trailing 14-bar mean of true range
	AnnVol    []float64 // trailing 21-bar std dev of returns, annualized
}

// LastClose returns the most recent close, NaN when empty or unknown.
func (s Series) LastClose() float64 {
	if s.Empty() {
		return math.NaN()
	}
	return s.Last().Close
}

// LastATR returns the most recent average true range, NaN when empty or unknown.
func (s Series) LastATR() float64 {
	if len(s.ATR) == 0 {
		return math.NaN()
	}
	return s.ATR[len(s.ATR)-1]
}

// Compute derives indicator fields from a price series. Pure function: no
// I/O and never fails; insufficient history produces NaN values, not
// errors.
func Compute(s market.Series) Series {
	n := len(s.Bars)
	out := Series{
		Series:    s,
		Returns:   make([]float64, n),
		TrueRange: make([]float64, n),
		ATR:       make([]float64, n),
		AnnVol:    make([]float64, n),
	}

	for t := 0; t < n; t++ {
		bar := s.Bars[t]

		if t == 0 {
			out.Returns[t] = math.NaN()
		} else {
			out.Returns[t] = bar.Close/s.Bars[t-1].Close - 1
		}

		out.TrueRange[t] = math.Abs(bar.High - bar.Low)
	}

	for t := 0; t < n; t++ {
		out.ATR[t] = market.Mean(trailing(out.TrueRange, t, atrWindow))
		out.AnnVol[t] = market.StdDev(trailing(out.Returns, t, volWindow)) * math.Sqrt(tradingDaysPerYear)
	}

	return out
}

// trailing returns the window ending at index t, at most size elements,
// shrinking at the start of the series.
func trailing(vs []float64, t, size int) []float64 {
	lo := t - size + 1
	if lo < 0 {
		lo = 0
	}
	return vs[lo : t+1]
}
