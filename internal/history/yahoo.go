package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/httputil"
	"github.com/skarani/doubler/pkg/logger"
)

// YahooClient fetches daily history from the unauthenticated chart API,
// used as the fallback when the primary provider fails or returns nothing.
type YahooClient struct {
	httpClient    *httputil.Client
	logger        *logger.Logger
	baseURL       string
	defaultSuffix string
}

// NewYahooClient creates a new fallback provider client.
func NewYahooClient(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *YahooClient {
	return &YahooClient{
		httpClient:    httpClient,
		logger:        log.WithField("provider", "yahoo"),
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		defaultSuffix: cfg.DefaultSuffix,
	}
}

// Name identifies the provider in logs.
func (c *YahooClient) Name() string { return "yahoo" }

// chartResponse is the chart API response structure. Quote fields are
// pointers: the API pads non-trading days with JSON nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ticker maps a universe symbol to the provider's ticker convention:
// the default market suffix is appended when the symbol carries no
// exchange qualifier.
func (c *YahooClient) ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + c.defaultSuffix
}

// rangeToken buckets a year count into a supported chart range.
func rangeToken(years int) string {
	switch {
	case years <= 1:
		return "1y"
	case years <= 2:
		return "2y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	default:
		return "max"
	}
}

// Fetch retrieves a multi-year daily history for symbol.
func (c *YahooClient) Fetch(ctx context.Context, symbol string, years int) (market.Series, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(c.ticker(symbol)), rangeToken(years))

	headers := map[string]string{"User-Agent": "Mozilla/5.0"}

	body, err := c.httpClient.GetBody(ctx, reqURL, headers)
	if err != nil {
		return market.Series{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return market.Series{}, fmt.Errorf("yahoo chart %s: decode: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return market.Series{}, fmt.Errorf("yahoo chart %s: api error: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return market.Series{}, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return market.Series{}, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]

	bars := make([]market.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := deref(quote.Open, i)
		h := deref(quote.High, i)
		l := deref(quote.Low, i)
		cl := deref(quote.Close, i)
		v := deref(quote.Volume, i)

		// null-padded non-trading day
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(cl) && math.IsNaN(v) {
			continue
		}

		bar := market.NewBar(epochToTime(float64(ts)))
		bar.Open, bar.High, bar.Low, bar.Close, bar.Volume = o, h, l, cl, v
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return market.Series{}, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}

	series := market.Series{Symbol: symbol, Bars: bars}
	series.Normalize()

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(series.Bars),
	}).Debug("Fetched chart history")

	return series, nil
}

func deref(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return math.NaN()
	}
	return *vs[i]
}
