// Package indicator computes technical-indicator readings through the
// Alpha Vantage technical-analysis endpoints. Failures degrade to the zero
// sentinel instead of erroring: a reading of 0 classifies as neutral
// downstream, which is the intended behavior when upstream data is missing.
package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/marketdata"
	"github.com/K1rm7n/TradeBack/internal/models"
)

// Calculator fetches indicator values from the upstream API.
type Calculator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCalculator creates a Calculator from configuration.
func NewCalculator(cfg config.AlphaVantageConfig) *Calculator {
	return &Calculator{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Compute returns the newest value of a simple indicator, 0 on any failure
// or on an incompatible (interval, kind) combination.
func (c *Calculator) Compute(ctx context.Context, ind *models.Indicator) float64 {
	if !marketdata.ValidateIntervalIndicator(ind.Interval, ind.Kind) {
		logger.Warn(ctx, "invalid indicator/interval combination",
			"kind", ind.Kind, "interval", ind.Interval)
		return 0
	}

	entry, err := c.fetchLatestEntry(ctx, ind)
	if err != nil {
		logger.Error(ctx, "failed to compute indicator",
			"kind", ind.Kind, "symbol", ind.Symbol, "error", err)
		return 0
	}

	valueStr, ok := entry[ind.Kind.ValueKey()]
	if !ok {
		logger.Error(ctx, "indicator value field missing",
			"kind", ind.Kind, "field", ind.Kind.ValueKey())
		return 0
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Error(ctx, "malformed indicator value",
			"kind", ind.Kind, "value", valueStr)
		return 0
	}

	ind.SetValue(value)
	ind.CalculatedAt = time.Now()
	logger.Debug(ctx, "computed indicator", "kind", ind.Kind, "value", value)
	return value
}

// ComputeComplex populates up to three values of a multi-value indicator.
// The indicator is returned unchanged on any failure.
func (c *Calculator) ComputeComplex(ctx context.Context, ind *models.Indicator) *models.Indicator {
	if !marketdata.ValidateIntervalIndicator(ind.Interval, ind.Kind) {
		return ind
	}

	entry, err := c.fetchLatestEntry(ctx, ind)
	if err != nil {
		logger.Error(ctx, "failed to compute complex indicator",
			"kind", ind.Kind, "symbol", ind.Symbol, "error", err)
		return ind
	}

	switch ind.Kind {
	case models.KindMACD:
		setIfPresent(entry, "MACD", ind.SetValue)
		setIfPresent(entry, "MACD_Signal", ind.SetSecondary)
		setIfPresent(entry, "MACD_Hist", ind.SetTertiary)
	case models.KindBBANDS:
		setIfPresent(entry, "Real Middle Band", ind.SetValue)
		setIfPresent(entry, "Real Upper Band", ind.SetSecondary)
		setIfPresent(entry, "Real Lower Band", ind.SetTertiary)
	case models.KindSTOCH, models.KindSTOCHF:
		// Slow fields win when both slow and fast variants are present.
		if !setIfPresent(entry, "SlowK", ind.SetValue) {
			setIfPresent(entry, "FastK", ind.SetValue)
		}
		if !setIfPresent(entry, "SlowD", ind.SetSecondary) {
			setIfPresent(entry, "FastD", ind.SetSecondary)
		}
	default:
		// Unrecognized complex kinds: take the first available field.
		for _, field := range sortedKeys(entry) {
			if setIfPresent(entry, field, ind.SetValue) {
				break
			}
		}
	}

	ind.CalculatedAt = time.Now()
	return ind
}

// fetchLatestEntry issues the indicator query and returns the newest dated
// entry of the technical-analysis series.
func (c *Calculator) fetchLatestEntry(ctx context.Context, ind *models.Indicator) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(ind), nil)
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

	if msg, ok := body["Error Message"]; ok {
		return nil, fmt.Errorf("upstream API error: %v", msg)
	}
	if note, ok := body["Note"]; ok {
		return nil, fmt.Errorf("upstream rate limit notice: %v", note)
	}

	series, err := c.findSeries(body, ind.Kind)
	if err != nil {
		return nil, err
	}

	latest := latestDate(series)
	if latest == "" {
		return nil, fmt.Errorf("empty technical analysis series for %s", ind.Kind)
	}
	raw, ok := series[latest].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("malformed series entry for %s", latest)
	}

	entry := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			entry[k] = s
		}
	}
	return entry, nil
}

// findSeries locates the technical-analysis object. The literal key is
// "Technical Analysis: <FN>"; some responses nest under a variant label, so
// a prefix match is tried before giving up.
func (c *Calculator) findSeries(body map[string]any, kind models.IndicatorKind) (map[string]any, error) {
	key := "Technical Analysis: " + string(kind)
	if series, ok := body[key].(map[string]any); ok {
		return series, nil
	}
	for k, v := range body {
		if strings.HasPrefix(k, "Technical Analysis") {
			if series, ok := v.(map[string]any); ok {
				return series, nil
			}
		}
	}
	return nil, fmt.Errorf("no technical analysis series found under %q", key)
}

// buildURL assembles the indicator query with kind-specific parameters.
func (c *Calculator) buildURL(ind *models.Indicator) string {
	q := url.Values{}
	q.Set("function", string(ind.Kind))
	q.Set("symbol", ind.Symbol)
	q.Set("interval", indicatorInterval(ind.Interval))

	switch ind.Kind {
	case models.KindMACD:
		q.Set("fastperiod", "12")
		q.Set("slowperiod", "26")
		q.Set("signalperiod", "9")
		q.Set("series_type", "close")
	case models.KindBBANDS:
		period := ind.Period
		if period <= 0 {
			period = 20
		}
		q.Set("time_period", strconv.Itoa(period))
		q.Set("series_type", "close")
		q.Set("nbdevup", "2")
		q.Set("nbdevdn", "2")
		q.Set("matype", "0")
	case models.KindSTOCH:
		q.Set("fastkperiod", "5")
		q.Set("slowkperiod", "3")
		q.Set("slowdperiod", "3")
		q.Set("slowkmatype", "0")
		q.Set("slowdmatype", "0")
	case models.KindSAR:
		q.Set("acceleration", "0.02")
		q.Set("maximum", "0.20")
	case models.KindVWAP:
		// interval compatibility already validated; no extra parameters
	default:
		if ind.Kind.NeedsPeriod() && ind.Period > 0 {
			q.Set("time_period", strconv.Itoa(ind.Period))
		}
		if ind.Kind.NeedsSeriesType() {
			q.Set("series_type", "close")
		}
	}

	q.Set("apikey", c.apiKey)
	return c.baseURL + "?" + q.Encode()
}

// indicatorInterval converts an application interval into the interval set
// the technical-analysis endpoints accept (no adjusted variants).
func indicatorInterval(interval string) string {
	switch strings.ToLower(interval) {
	case "1min", "5min", "15min", "30min", "60min":
		return strings.ToLower(interval)
	case "daily", "daily_adjusted":
		return "daily"
	case "weekly", "weekly_adjusted":
		return "weekly"
	case "monthly", "monthly_adjusted":
		return "monthly"
	default:
		logger.Warn(context.Background(), "unknown indicator interval, defaulting to daily", "interval", interval)
		return "daily"
	}
}

// latestDate picks the newest entry key. Upstream dates are ISO-formatted,
// so a descending lexicographic sort is a valid recency order. This is a
// documented upstream guarantee, not a general date comparison.
func latestDate(series map[string]any) string {
	latest := ""
	for date := range series {
		if date > latest {
			latest = date
		}
	}
	return latest
}

func setIfPresent(entry map[string]string, field string, set func(float64)) bool {
	s, ok := entry[field]
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	set(v)
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
