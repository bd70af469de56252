// Package marketdata is the gateway to the Alpha Vantage market-data API.
// Upstream faults never escape it: every failure path is logged and collapsed
// to an empty result so callers degrade instead of erroring.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/models"
	"github.com/shopspring/decimal"
)

// Series functions understood by the upstream API.
const (
	FunctionIntraday        = "TIME_SERIES_INTRADAY"
	FunctionDaily           = "TIME_SERIES_DAILY"
	FunctionWeekly          = "TIME_SERIES_WEEKLY"
	FunctionMonthly         = "TIME_SERIES_MONTHLY"
	FunctionDailyAdjusted   = "TIME_SERIES_DAILY_ADJUSTED"
	FunctionWeeklyAdjusted  = "TIME_SERIES_WEEKLY_ADJUSTED"
	FunctionMonthlyAdjusted = "TIME_SERIES_MONTHLY_ADJUSTED"
)

// Client talks to the Alpha Vantage HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.AlphaVantageConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SeriesFunction maps an application interval token onto the upstream series
// function. Unknown tokens default to the daily series instead of failing.
func SeriesFunction(interval string) string {
	switch normalizeInterval(interval) {
	case "1min", "5min", "15min", "30min", "60min":
		return FunctionIntraday
	case "daily":
		return FunctionDaily
	case "weekly":
		return FunctionWeekly
	case "monthly":
		return FunctionMonthly
	case "daily_adjusted":
		return FunctionDailyAdjusted
	case "weekly_adjusted":
		return FunctionWeeklyAdjusted
	case "monthly_adjusted":
		return FunctionMonthlyAdjusted
	default:
		logger.Warn(context.Background(), "unknown interval, defaulting to daily series", "interval", interval)
		return FunctionDaily
	}
}

// TimeSeriesKey returns the JSON key under which the upstream nests the
// series for the given interval. Intraday keys embed the interval itself.
func TimeSeriesKey(interval string) string {
	switch SeriesFunction(interval) {
	case FunctionIntraday:
		return "Time Series (" + normalizeInterval(interval) + ")"
	case FunctionWeekly:
		return "Weekly Time Series"
	case FunctionMonthly:
		return "Monthly Time Series"
	case FunctionWeeklyAdjusted:
		return "Weekly Adjusted Time Series"
	case FunctionMonthlyAdjusted:
		return "Monthly Adjusted Time Series"
	default:
		// Daily and daily-adjusted share one key.
		return "Time Series (Daily)"
	}
}

// IsIntradayInterval reports whether the interval is a minute bucket.
func IsIntradayInterval(interval string) bool {
	switch normalizeInterval(interval) {
	case "1min", "5min", "15min", "30min", "60min":
		return true
	}
	return false
}

// IsVWAPCompatible reports whether the interval can back a VWAP request.
// The upstream computes VWAP for intraday series only.
func IsVWAPCompatible(interval string) bool {
	return IsIntradayInterval(interval)
}

// ValidateIntervalIndicator checks an (interval, indicator) combination.
func ValidateIntervalIndicator(interval string, kind models.IndicatorKind) bool {
	if kind == models.KindVWAP && !IsVWAPCompatible(interval) {
		logger.Warn(context.Background(), "VWAP is not compatible with interval", "interval", interval)
		return false
	}
	return true
}

// GetHistoricalData fetches the OHLCV series for a symbol, newest first.
// Returns an empty slice on any upstream or parse failure.
func (c *Client) GetHistoricalData(ctx context.Context, symbol, interval string) []models.MarketData {
	q := url.Values{}
	q.Set("function", SeriesFunction(interval))
	q.Set("symbol", symbol)
	if SeriesFunction(interval) == FunctionIntraday {
		q.Set("interval", normalizeInterval(interval))
	}
	q.Set("outputsize", "compact")
	q.Set("apikey", c.apiKey)

	response, err := c.getJSON(ctx, q)
	if err != nil {
		logger.Error(ctx, "failed to fetch historical data", "symbol", symbol, "interval", interval, "error", err)
		return nil
	}
	if !c.isValidResponse(ctx, response, symbol) {
		return nil
	}

	return c.parseTimeSeries(ctx, response, symbol, interval)
}

// GetLastTradingDayData fetches the daily series regardless of the caller's
// interval; the daily series always carries the last trading day, which still
// works on weekends and holidays when intraday data is stale or absent.
func (c *Client) GetLastTradingDayData(ctx context.Context, symbol string) []models.MarketData {
	return c.GetHistoricalData(ctx, symbol, "daily")
}

// GetLatestTradingDay returns the single most recent daily bar, or nil.
func (c *Client) GetLatestTradingDay(ctx context.Context, symbol string) *models.MarketData {
	data := c.GetLastTradingDayData(ctx, symbol)
	if len(data) == 0 {
		logger.Warn(ctx, "no latest trading day data", "symbol", symbol)
		return nil
	}
	latest := data[0]
	logger.Info(ctx, "latest trading day data",
		"symbol", symbol, "date", latest.Date, "close", latest.CloseFloat())
	return &latest
}

// GetQuote returns the current quote price, 0 when unavailable.
func (c *Client) GetQuote(ctx context.Context, symbol string) float64 {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)

	response, err := c.getJSON(ctx, q)
	if err != nil {
		logger.Error(ctx, "failed to fetch quote", "symbol", symbol, "error", err)
		return 0
	}
	if !c.isValidResponse(ctx, response, symbol) {
		return 0
	}

	quote, ok := response["Global Quote"].(map[string]any)
	if !ok || len(quote) == 0 {
		logger.Warn(ctx, "no quote data in response", "symbol", symbol)
		return 0
	}
	priceStr, _ := quote["05. price"].(string)
	if priceStr == "" || priceStr == "0.0000" {
		return 0
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		logger.Warn(ctx, "malformed quote price", "symbol", symbol, "price", priceStr)
		return 0
	}
	return price.InexactFloat64()
}

// GetCurrentPrice returns the best available price for a symbol: current
// quote first, last trading day close second, 0 when neither is available.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) float64 {
	if price := c.GetQuote(ctx, symbol); price != 0 {
		return price
	}
	if latest := c.GetLatestTradingDay(ctx, symbol); latest != nil {
		return latest.CloseFloat()
	}
	logger.Warn(ctx, "no current price available", "symbol", symbol)
	return 0
}

// IsSymbolValid reports whether a non-zero quote is obtainable for symbol.
func (c *Client) IsSymbolValid(ctx context.Context, symbol string) bool {
	return c.GetQuote(ctx, symbol) != 0
}

func (c *Client) getJSON(ctx context.Context, query url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return body, nil
}

// isValidResponse distinguishes the upstream's in-band failure markers.
// Each class is logged separately; all collapse to "no data" for callers.
func (c *Client) isValidResponse(ctx context.Context, response map[string]any, symbol string) bool {
	if response == nil {
		logger.Error(ctx, "empty response from upstream", "symbol", symbol)
		return false
	}
	if msg, ok := response["Error Message"]; ok {
		logger.Error(ctx, "upstream API error", "symbol", symbol, "message", msg)
		return false
	}
	if note, ok := response["Note"]; ok {
		logger.Warn(ctx, "upstream rate limit notice", "symbol", symbol, "note", note)
		return false
	}
	return true
}

func (c *Client) parseTimeSeries(ctx context.Context, response map[string]any, symbol, interval string) []models.MarketData {
	key := TimeSeriesKey(interval)
	series, ok := response[key].(map[string]any)
	if !ok {
		logger.Warn(ctx, "no time series data in response",
			"symbol", symbol, "interval", interval, "key", key)
		return nil
	}

	data := make([]models.MarketData, 0, len(series))
	for dateStr, raw := range series {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		md, err := c.parseEntry(ctx, symbol, dateStr, entry, interval)
		if err != nil {
			logger.Debug(ctx, "skipping unparseable series entry", "date", dateStr, "error", err)
			continue
		}
		data = append(data, md)
	}

	// Newest first.
	sort.Slice(data, func(i, j int) bool { return data[i].Date.After(data[j].Date) })

	logger.Info(ctx, "retrieved market data",
		"symbol", symbol, "interval", interval, "points", len(data))
	return data
}

func (c *Client) parseEntry(ctx context.Context, symbol, dateStr string, entry map[string]any, interval string) (models.MarketData, error) {
	md := models.MarketData{Symbol: symbol}

	if IsIntradayInterval(interval) {
		md.Date = c.parseDateTime(ctx, dateStr)
	} else {
		md.Date = c.parseDate(ctx, dateStr)
	}

	fields := map[string]*decimal.Decimal{
		"1. open":  &md.Open,
		"2. high":  &md.High,
		"3. low":   &md.Low,
		"4. close": &md.Close,
	}
	for key, dst := range fields {
		s, _ := entry[key].(string)
		v, err := decimal.NewFromString(s)
		if err != nil {
			return md, fmt.Errorf("malformed %q: %w", key, err)
		}
		*dst = v
	}

	volStr, _ := entry["5. volume"].(string)
	vol, err := decimal.NewFromString(volStr)
	if err != nil {
		return md, fmt.Errorf("malformed volume: %w", err)
	}
	md.Volume = vol.IntPart()
	return md, nil
}

const dateOnlyLayout = "2006-01-02"

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// parseDate parses a date-only timestamp, falling back to now as a logged
// last resort rather than silently propagating a zero time.
func (c *Client) parseDate(ctx context.Context, s string) time.Time {
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t
	}
	logger.Error(ctx, "failed to parse date, using current time", "value", s)
	return time.Now()
}

func (c *Client) parseDateTime(ctx context.Context, s string) time.Time {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if len(s) >= len(dateOnlyLayout) {
		if t, err := time.Parse(dateOnlyLayout, s[:len(dateOnlyLayout)]); err == nil {
			return t
		}
	}
	logger.Error(ctx, "failed to parse datetime, using current time", "value", s)
	return time.Now()
}

func normalizeInterval(interval string) string {
	return strings.ToLower(strings.TrimSpace(interval))
}
