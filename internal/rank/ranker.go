package rank

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/skarani/doubler/internal/indicators"
	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/internal/scoring"
	"github.com/skarani/doubler/internal/strategyconfig"
	"github.com/skarani/doubler/pkg/logger"
)

// scoreSpreadEpsilon: below this spread a horizon pool is treated as having
// no ordering information and every member gets probability 0.5.
const scoreSpreadEpsilon = 1e-9

// HistorySource fetches the full daily history for one symbol.
type HistorySource interface {
	Fetch(ctx context.Context, symbol string) (market.Series, error)
}

// Candidate is a horizon score enriched for reporting. Probability is the
// min-max normalized composite score within the candidate's horizon pool,
// not a calibrated statistical probability. StopLoss and TargetPrice are
// nil when their inputs are unknown.
type Candidate struct {
	scoring.HorizonScore

	Probability float64  `json:"prob_est"`
	StopLoss    *float64 `json:"stop_loss_est"`
	TargetPrice *float64 `json:"target_price_est"`
	Rationale   string   `json:"reason"`
}

// Report maps each horizon to its ordered top candidates, plus the number
// of symbols that produced a valid score per horizon (for summary display).
type Report struct {
	Horizons   []int               `json:"horizons"`
	Candidates map[int][]Candidate `json:"candidates"`
	Counts     map[int]int         `json:"counts"`
}

// Ranker drives the whole scan: fetch, indicators, per-horizon scoring,
// normalization, ranking and enrichment.
type Ranker struct {
	source  HistorySource
	scorer  *scoring.Scorer
	cfg     *strategyconfig.Config
	workers int
	logger  *logger.Logger
}

// NewRanker creates a ranker. workers=1 scans symbols strictly sequentially;
// higher values fan the per-symbol work out over a pool. Symbols never share
// mutable state, so only the pool aggregation is synchronized.
func NewRanker(source HistorySource, cfg *strategyconfig.Config, workers int, log *logger.Logger) *Ranker {
	if workers < 1 {
		workers = 1
	}
	return &Ranker{
		source:  source,
		scorer:  scoring.NewScorer(cfg.Scoring),
		cfg:     cfg,
		workers: workers,
		logger:  log.WithField("module", "rank"),
	}
}

// symbolResult carries one symbol's indicator series and horizon scores out
// of the scan pass. The series doubles as the memoization cache for the
// enrichment pass, so each symbol is fetched exactly once per run.
type symbolResult struct {
	ind    indicators.Series
	scores map[int]scoring.HorizonScore
}

// Rank scans the universe and builds the horizon report. A failing symbol
// is logged and skipped; it never aborts the batch.
func (r *Ranker) Rank(ctx context.Context, symbols []string) (*Report, error) {
	r.logger.WithFields(map[string]interface{}{
		"symbols":  len(symbols),
		"horizons": r.cfg.HorizonsMonths,
		"workers":  r.workers,
	}).Info("Starting universe scan")

	results := r.scanUniverse(ctx, symbols)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	report := &Report{
		Horizons:   append([]int(nil), r.cfg.HorizonsMonths...),
		Candidates: make(map[int][]Candidate, len(r.cfg.HorizonsMonths)),
		Counts:     make(map[int]int, len(r.cfg.HorizonsMonths)),
	}

	for _, h := range r.cfg.HorizonsMonths {
		// pool order follows universe order, which keeps ties stable
		pool := make([]scoring.HorizonScore, 0, len(symbols))
		for _, sym := range symbols {
			res, ok := results[sym]
			if !ok {
				continue
			}
			if score, ok := res.scores[h]; ok {
				pool = append(pool, score)
			}
		}

		report.Counts[h] = len(pool)
		report.Candidates[h] = r.rankPool(pool, results)
	}

	r.logger.WithField("counts", report.Counts).Info("Universe scan completed")
	return report, nil
}

// scanUniverse runs the per-symbol fetch/compute/score stage, fanning out
// over the worker pool.
func (r *Ranker) scanUniverse(ctx context.Context, symbols []string) map[string]*symbolResult {
	results := make(map[string]*symbolResult, len(symbols))
	var mu sync.Mutex

	symbolCh := make(chan string, len(symbols))
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symbolCh {
				if ctx.Err() != nil {
					return
				}
				res := r.scanSymbol(ctx, sym)
				if res == nil {
					continue
				}
				mu.Lock()
				results[sym] = res
				mu.Unlock()
			}
		}()
	}

	for _, sym := range symbols {
		symbolCh <- sym
	}
	close(symbolCh)
	wg.Wait()

	return results
}

// scanSymbol fetches and scores one symbol. nil means the symbol is skipped.
func (r *Ranker) scanSymbol(ctx context.Context, symbol string) *symbolResult {
	series, err := r.source.Fetch(ctx, symbol)
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Skipping symbol, history unavailable")
		return nil
	}

	ind := indicators.Compute(series)

	res := &symbolResult{
		ind:    ind,
		scores: make(map[int]scoring.HorizonScore, len(r.cfg.HorizonsMonths)),
	}
	for _, h := range r.cfg.HorizonsMonths {
		if score, ok := r.scorer.Score(ind, h); ok {
			res.scores[h] = score
		}
	}
	return res
}

// rankPool normalizes one horizon's pool into probabilities, keeps the top
// candidates and enriches them with target/stop estimates.
func (r *Ranker) rankPool(pool []scoring.HorizonScore, results map[string]*symbolResult) []Candidate {
	candidates := make([]Candidate, 0, len(pool))
	if len(pool) == 0 {
		return candidates
	}

	minScore, maxScore := pool[0].Score, pool[0].Score
	for _, s := range pool[1:] {
		if s.Score < minScore {
			minScore = s.Score
		}
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}

	spread := maxScore - minScore
	for _, s := range pool {
		prob := 0.5
		if spread >= scoreSpreadEpsilon {
			prob = (s.Score - minScore) / spread
		}
		candidates = append(candidates, Candidate{HorizonScore: s, Probability: prob})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})

	if len(candidates) > r.cfg.Report.TopN {
		candidates = candidates[:r.cfg.Report.TopN]
	}

	for i := range candidates {
		r.enrich(&candidates[i], results)
	}
	return candidates
}

// enrich attaches target price, stop loss and the display rationale. Either
// estimate is omitted (left nil) when its latest input is unknown; a missing
// estimate never disqualifies the candidate.
func (r *Ranker) enrich(c *Candidate, results map[string]*symbolResult) {
	c.Rationale = fmt.Sprintf("ret=%.2f%%, vol=%.2f, avgVol=%d",
		c.Return*100, c.Volatility, int(c.AvgVolume))

	res, ok := results[c.Symbol]
	if !ok {
		return
	}

	lastClose := res.ind.LastClose()
	lastATR := res.ind.LastATR()

	if !market.IsUnknown(lastClose) {
		target := lastClose * r.cfg.Targets.TargetMultiple
		c.TargetPrice = &target

		if !market.IsUnknown(lastATR) {
			stop := lastClose - r.cfg.Targets.StopATRMultiple*lastATR
			c.StopLoss = &stop
		}
	}
}
