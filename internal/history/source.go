package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/pkg/logger"
)

// ErrNoData means a provider answered but had no rows for the symbol.
var ErrNoData = errors.New("provider returned no data")

// ErrNotAvailable means every configured provider failed or was empty.
var ErrNotAvailable = errors.New("history not available")

// Provider fetches a daily bar series for one symbol from one upstream.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, years int) (market.Series, error)
}

// Source is the two-stage history pipeline: primary first, fallback on any
// primary failure or empty result. Transient I/O failures and unparseable
// responses are deliberately not distinguished; both just mean "try the
// next provider".
type Source struct {
	primary  Provider // nil when no credentials are available
	fallback Provider
	years    int
	logger   *logger.Logger
}

// NewSource creates a history source. primary may be nil.
func NewSource(primary, fallback Provider, years int, log *logger.Logger) *Source {
	return &Source{
		primary:  primary,
		fallback: fallback,
		years:    years,
		logger:   log.WithField("module", "history"),
	}
}

// Years returns the configured lookback window.
func (s *Source) Years() int { return s.years }

// Fetch returns the first successful non-empty series, primary preferred.
// ErrNotAvailable (wrapped) is returned only when both stages fail.
func (s *Source) Fetch(ctx context.Context, symbol string) (market.Series, error) {
	if s.primary != nil {
		series, err := s.primary.Fetch(ctx, symbol, s.years)
		if err == nil && !series.Empty() {
			return series, nil
		}
		s.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"provider": s.primary.Name(),
			"error":    errString(err),
		}).Warn("Primary provider failed, trying fallback")
	}

	if s.fallback != nil {
		series, err := s.fallback.Fetch(ctx, symbol, s.years)
		if err == nil && !series.Empty() {
			return series, nil
		}
		s.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"provider": s.fallback.Name(),
			"error":    errString(err),
		}).Warn("Fallback provider failed")
	}

	return market.Series{}, fmt.Errorf("fetch %s: %w", symbol, ErrNotAvailable)
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
