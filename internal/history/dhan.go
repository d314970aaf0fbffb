package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/skarani/doubler/internal/market"
	"github.com/skarani/doubler/pkg/config"
	"github.com/skarani/doubler/pkg/httputil"
	"github.com/skarani/doubler/pkg/logger"
)

// DhanClient fetches daily candles from the credentialed primary provider.
// The response shape varies between API versions, so parsing is tolerant:
// a small set of known envelope variants feeds a heuristic column mapper.
type DhanClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

// NewDhanClient creates a new primary provider client. The access token is
// resolved by the caller (secret store), never read from the environment here.
func NewDhanClient(cfg config.DhanConfig, token string, httpClient *httputil.Client, log *logger.Logger) *DhanClient {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &DhanClient{
		httpClient: httpClient,
		logger:     log.WithField("provider", "dhan"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Name identifies the provider in logs.
func (c *DhanClient) Name() string { return "dhan" }

// Fetch retrieves [now - years, now] of daily candles for symbol.
func (c *DhanClient) Fetch(ctx context.Context, symbol string, years int) (market.Series, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return market.Series{}, fmt.Errorf("rate limit wait: %w", err)
	}

	end := time.Now()
	start := end.AddDate(-years, 0, 0)

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))
	params.Set("interval", "1d")

	reqURL := fmt.Sprintf("%s/marketdata/candles?%s", c.baseURL, params.Encode())
	headers := map[string]string{
		"Authorization": "Bearer " + c.token,
	}

	body, err := c.httpClient.GetBody(ctx, reqURL, headers)
	if err != nil {
		return market.Series{}, fmt.Errorf("dhan candles %s: %w", symbol, err)
	}

	bars, err := parseCandles(body)
	if err != nil {
		return market.Series{}, fmt.Errorf("dhan candles %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return market.Series{}, fmt.Errorf("dhan candles %s: %w", symbol, ErrNoData)
	}

	series := market.Series{Symbol: symbol, Bars: bars}
	series.Normalize()

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(series.Bars),
	}).Debug("Fetched candles")

	return series, nil
}

// parseCandles decodes a candle payload of unknown shape into bars.
// A structurally valid payload with no rows yields (nil, nil).
func parseCandles(body []byte) ([]market.Bar, error) {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	rows := candleRows(payload)
	if len(rows) == 0 {
		return nil, nil
	}

	bars := make([]market.Bar, 0, len(rows))
	for _, row := range rows {
		switch r := row.(type) {
		case map[string]interface{}:
			if bar, ok := parseObjectRow(r); ok {
				bars = append(bars, bar)
			}
		case []interface{}:
			if bar, ok := parseArrayRow(r); ok {
				bars = append(bars, bar)
			}
		}
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// candleRows selects the envelope variant: a bare array, or an object
// wrapping the rows under "candles" or "data". Anything else is treated
// as an empty result, indistinguishable from a provider with no data.
func candleRows(payload interface{}) []interface{} {
	switch v := payload.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		if arr, ok := v["candles"].([]interface{}); ok {
			return arr
		}
		if arr, ok := v["data"].([]interface{}); ok {
			return arr
		}
	}
	return nil
}

// mapColumn maps a response column name onto a canonical bar field by
// case-insensitive substring match. Later matches win, so a column like
// "closeTime" ends up on the date axis, not the close.
func mapColumn(name string) string {
	lc := strings.ToLower(name)
	mapped := ""
	if strings.Contains(lc, "open") {
		mapped = "open"
	}
	if strings.Contains(lc, "high") {
		mapped = "high"
	}
	if strings.Contains(lc, "low") {
		mapped = "low"
	}
	if strings.Contains(lc, "close") || strings.Contains(lc, "last") {
		mapped = "close"
	}
	if strings.Contains(lc, "volume") {
		mapped = "volume"
	}
	if strings.Contains(lc, "date") || strings.Contains(lc, "time") || strings.Contains(lc, "timestamp") {
		mapped = "date"
	}
	return mapped
}

// parseObjectRow maps an object row onto a bar. When no column looks like a
// date, the lexicographically-first unmapped column is used as the date axis.
func parseObjectRow(row map[string]interface{}) (market.Bar, bool) {
	var dateVal interface{}
	var haveDate bool
	fields := map[string]float64{}

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch mapCol := mapColumn(k); mapCol {
		case "date":
			if !haveDate {
				dateVal = row[k]
				haveDate = true
			}
		case "":
			// candidate fallback date axis
		default:
			fields[mapCol] = toFloat(row[k])
		}
	}

	if !haveDate {
		for _, k := range keys {
			if mapColumn(k) == "" {
				dateVal = row[k]
				haveDate = true
				break
			}
		}
	}
	if !haveDate {
		return market.Bar{}, false
	}

	date, ok := parseDate(dateVal)
	if !ok {
		return market.Bar{}, false
	}

	bar := market.NewBar(date)
	if v, ok := fields["open"]; ok {
		bar.Open = v
	}
	if v, ok := fields["high"]; ok {
		bar.High = v
	}
	if v, ok := fields["low"]; ok {
		bar.Low = v
	}
	if v, ok := fields["close"]; ok {
		bar.Close = v
	}
	if v, ok := fields["volume"]; ok {
		bar.Volume = v
	}
	return bar, true
}

// parseArrayRow treats a positional row's first element as the date axis.
// Remaining positions carry no column names, so the bar fields stay unknown.
func parseArrayRow(row []interface{}) (market.Bar, bool) {
	if len(row) == 0 {
		return market.Bar{}, false
	}
	date, ok := parseDate(row[0])
	if !ok {
		return market.Bar{}, false
	}
	return market.NewBar(date), true
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e11

func parseDate(v interface{}) (time.Time, bool) {
	switch d := v.(type) {
	case float64:
		return epochToTime(d), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		layouts := []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"20060102",
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToTime(n), true
		}
	}
	return time.Time{}, false
}

func epochToTime(n float64) time.Time {
	if n > epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}
