package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

// fakeSource serves canned series and counts fetches per symbol.
type fakeSource struct {
	mu     sync.Mutex
	series map[string]market.Series
	errs   map[string]error
	calls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: make(map[string]market.Series),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string) (market.Series, error) {
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()

	if err, ok := f.errs[symbol]; ok {
		return market.Series{}, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return market.Series{}, errors.New("unknown symbol")
	}
	return s, nil
}

// growthSeries builds n daily bars ending today with close growing
// geometrically from first to last.
func growthSeries(symbol string, n int, first, last, volume float64) market.Series {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(n - 1))

	ratio := math.Pow(last/first, 1/float64(n-1))
	bars := make([]market.Bar, n)
	c := first
	for i := 0; i < n; i++ {
		b := market.NewBar(start.AddDate(0, 0, i))
		b.Close = c
		b.High = c * 1.01
		b.Low = c * 0.99
		b.Volume = volume
		bars[i] = b
		c *= ratio
	}
	return market.Series{Symbol: symbol, Bars: bars}
}

func rankerWith(src HistorySource, horizons []int, workers int) *Ranker {
	cfg := strategyconfig.Default()
	cfg.HorizonsMonths = horizons
	return NewRanker(src, &cfg, workers, testLogger())
}

func TestRankEndToEnd(t *testing.T) {
	// A: 300 bars of steady growth 100 -> 200, liquid.
	// B: only 5 bars, excluded on sample size.
	src := newFakeSource()
	src.series["A"] = growthSeries("A", 300, 100, 200, 50000)
	src.series["B"] = growthSeries("B", 5, 100, 110, 50000)

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), []string{"A", "B"})
	require.NoError(t, err)

	require.Len(t, report.Candidates[6], 1, "6-month sheet has exactly one row")
	assert.Equal(t, 1, report.Counts[6])

	a := report.Candidates[6][0]
	assert.Equal(t, "A", a.Symbol)
	// sole pool member: max == min, so probability is pinned to 0.5
	assert.Equal(t, 0.5, a.Probability)
	assert.NotNil(t, a.TargetPrice)
	assert.NotNil(t, a.StopLoss)
	assert.Contains(t, a.Rationale, "avgVol=50000")
}

func TestRankProbabilityNormalization(t *testing.T) {
	src := newFakeSource()
	// distinct windowed returns, identical volume and vol profile shape
	src.series["LOW"] = growthSeries("LOW", 300, 100, 105, 50000)
	src.series["MID"] = growthSeries("MID", 300, 100, 150, 50000)
	src.series["HIGH"] = growthSeries("HIGH", 300, 100, 260, 50000)

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), []string{"LOW", "MID", "HIGH"})
	require.NoError(t, err)

	pool := report.Candidates[6]
	require.Len(t, pool, 3)

	// sorted descending by probability
	assert.Equal(t, "HIGH", pool[0].Symbol)
	assert.Equal(t, "LOW", pool[2].Symbol)

	// max -> 1, min -> 0, everything in [0,1], monotone in score
	assert.Equal(t, 1.0, pool[0].Probability)
	assert.Equal(t, 0.0, pool[2].Probability)
	for i := range pool {
		assert.GreaterOrEqual(t, pool[i].Probability, 0.0)
		assert.LessOrEqual(t, pool[i].Probability, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, pool[i-1].Probability, pool[i].Probability)
			assert.GreaterOrEqual(t, pool[i-1].Score, pool[i].Score)
		}
	}
}

func TestRankEqualScoresAllHalf(t *testing.T) {
	src := newFakeSource()
	symbols := []string{"E1", "E2", "E3"}
	for _, sym := range symbols {
		s := growthSeries(sym, 300, 100, 150, 50000)
		s.Symbol = sym
		src.series[sym] = s
	}

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), symbols)
	require.NoError(t, err)

	pool := report.Candidates[6]
	require.Len(t, pool, 3)
	for _, c := range pool {
		assert.Equal(t, 0.5, c.Probability)
	}
}

func TestRankTopNTruncationStableTies(t *testing.T) {
	src := newFakeSource()
	symbols := make([]string, 15)
	for i := range symbols {
		sym := fmt.Sprintf("S%02d", i)
		symbols[i] = sym
		s := growthSeries(sym, 300, 100, 150, 50000)
		s.Symbol = sym
		src.series[sym] = s
	}

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), symbols)
	require.NoError(t, err)

	assert.Equal(t, 15, report.Counts[6], "count reflects the full qualifying pool")

	pool := report.Candidates[6]
	require.Len(t, pool, 10, "a 15 symbol pool truncates to 10 rows")

	// all scores tie: stable sort keeps original universe order
	for i, c := range pool {
		assert.Equal(t, symbols[i], c.Symbol)
	}
}

func TestRankSymbolFailureIsIsolated(t *testing.T) {
	src := newFakeSource()
	src.series["GOOD"] = growthSeries("GOOD", 300, 100, 200, 50000)
	src.errs["BAD"] = errors.New("provider exploded")

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), []string{"BAD", "GOOD"})
	require.NoError(t, err, "one bad symbol never aborts the batch")

	require.Len(t, report.Candidates[6], 1)
	assert.Equal(t, "GOOD", report.Candidates[6][0].Symbol)
}

func TestRankEmptyHorizonPool(t *testing.T) {
	src := newFakeSource()
	src.series["TINY"] = growthSeries("TINY", 5, 100, 110, 50000)

	report, err := rankerWith(src, []int{6, 12}, 1).Rank(context.Background(), []string{"TINY"})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Counts[6])
	assert.NotNil(t, report.Candidates[6])
	assert.Empty(t, report.Candidates[6])
}

func TestRankEnrichment(t *testing.T) {
	src := newFakeSource()
	s := growthSeries("A", 300, 100, 200, 50000)
	src.series["A"] = s

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), []string{"A"})
	require.NoError(t, err)

	c := report.Candidates[6][0]
	lastClose := s.Bars[len(s.Bars)-1].Close

	require.NotNil(t, c.TargetPrice)
	assert.InDelta(t, lastClose*3, *c.TargetPrice, 1e-9)

	require.NotNil(t, c.StopLoss)
	assert.Less(t, *c.StopLoss, lastClose, "stop sits below the latest close")
}

func TestRankEnrichmentUnavailableInputs(t *testing.T) {
	src := newFakeSource()
	s := growthSeries("A", 300, 100, 200, 50000)
	// unknown high/low on every recent bar starves the ATR
	for i := len(s.Bars) - 20; i < len(s.Bars); i++ {
		s.Bars[i].High = math.NaN()
		s.Bars[i].Low = math.NaN()
	}
	src.series["A"] = s

	report, err := rankerWith(src, []int{6}, 1).Rank(context.Background(), []string{"A"})
	require.NoError(t, err)

	c := report.Candidates[6][0]
	assert.NotNil(t, c.TargetPrice, "target only needs the close")
	assert.Nil(t, c.StopLoss, "stop is omitted without an ATR, not zeroed")
}

func TestRankFetchesEachSymbolOnce(t *testing.T) {
	src := newFakeSource()
	src.series["A"] = growthSeries("A", 300, 100, 200, 50000)

	_, err := rankerWith(src, []int{6, 12, 18}, 1).Rank(context.Background(), []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls["A"], "indicator series is memoized for the whole run")
}

func TestRankParallelMatchesSequential(t *testing.T) {
	src := newFakeSource()
	symbols := make([]string, 12)
	for i := range symbols {
		sym := fmt.Sprintf("P%02d", i)
		symbols[i] = sym
		s := growthSeries(sym, 300, 100, 110+float64(i)*7, 50000)
		s.Symbol = sym
		src.series[sym] = s
	}

	seq, err := rankerWith(src, []int{6, 12}, 1).Rank(context.Background(), symbols)
	require.NoError(t, err)

	par, err := rankerWith(src, []int{6, 12}, 6).Rank(context.Background(), symbols)
	require.NoError(t, err)

	assert.Equal(t, seq.Counts, par.Counts)
	for _, h := range []int{6, 12} {
		require.Len(t, par.Candidates[h], len(seq.Candidates[h]))
		for i := range seq.Candidates[h] {
			assert.Equal(t, seq.Candidates[h][i].Symbol, par.Candidates[h][i].Symbol)
			assert.Equal(t, seq.Candidates[h][i].Probability, par.Candidates[h][i].Probability)
		}
	}
}
