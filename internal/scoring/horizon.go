package scoring

import (
	"math"
	"sort"

	"github.com/skarani/doubler/internal/indicators"
	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/internal/strategyconfig"
)

// HorizonScore is the windowed summary of one (symbol, horizon) pair that
// passed the sample-size and liquidity gates.
type HorizonScore struct {
	Symbol        string  `json:"symbol"`
	HorizonMonths int     `json:"horizon_months"`
	Return        float64 `json:"return"`
	Volatility    float64 `json:"volatility"`
	AvgVolume     float64 `json:"avg_volume"`
	Score         float64 `json:"score"`
}

// Scorer computes per-horizon composite scores.
type Scorer struct {
	cfg strategyconfig.Scoring
}

// NewScorer creates a scorer with the given gates and weights.
func NewScorer(cfg strategyconfig.Scoring) *Scorer {
	return &Scorer{cfg: cfg}
}

// daysPerMonth is a deliberate calendar approximation; the horizon window
// is not trading-calendar aware.
const daysPerMonth = 30

// Score summarizes the trailing months-long window of an indicator series.
// ok=false means the symbol does not qualify for this horizon: too few
// bars, unknown closes at the window edges, or average volume under the
// liquidity gate. That is a normal exclusion, never an error.
func (s *Scorer) Score(ind indicators.Series, months int) (HorizonScore, bool) {
	if ind.Empty() {
		return HorizonScore{}, false
	}

	end := ind.Last().Date
	cutoff := end.AddDate(0, 0, -months*daysPerMonth)

	idx := sort.Search(len(ind.Bars), func(i int) bool {
		return !ind.Bars[i].Date.Before(cutoff)
	})
	recent := ind.Bars[idx:]

	if len(recent) < s.cfg.MinBars {
		return HorizonScore{}, false
	}

	firstClose := recent[0].Close
	lastClose := recent[len(recent)-1].Close
	if market.IsUnknown(firstClose) || market.IsUnknown(lastClose) {
		return HorizonScore{}, false
	}
	windowReturn := lastClose/firstClose - 1

	vol := market.StdDev(ind.Returns[idx:]) * math.Sqrt(252)
	if math.IsNaN(vol) {
		vol = 0
	}

	volumes := make([]float64, len(recent))
	for i, bar := range recent {
		volumes[i] = bar.Volume
	}
	avgVolume := market.Mean(volumes)
	if math.IsNaN(avgVolume) || avgVolume < s.cfg.MinAvgVolume {
		// hard liquidity gate, not a scoring penalty
		return HorizonScore{}, false
	}

	score := s.cfg.ReturnWeight*windowReturn -
		s.cfg.VolatilityPenalty*vol +
		s.cfg.LogVolumeWeight*math.Log1p(avgVolume)

	return HorizonScore{
		Symbol:        ind.Symbol,
		HorizonMonths: months,
		Return:        windowReturn,
		Volatility:    vol,
		AvgVolume:     avgVolume,
		Score:         score,
	}, true
}
