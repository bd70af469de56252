// Package advisor obtains a natural-language trading rationale from the Groq
// chat-completions API. The API is treated as unreliable; callers must fall
// back to locally generated advice when TradingAdvice returns an error.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/models"
)

// IndicatorInput is one indicator reading handed to the advice generator.
type IndicatorInput struct {
	Kind   models.IndicatorKind
	Value  float64
	Period int // 0 for kinds that take no period
}

// AdviceRequest carries everything the generator needs for one rationale.
type AdviceRequest struct {
	Symbol     string
	Price      float64
	Indicators [3]IndicatorInput
}

// Generator produces a trading rationale for a set of indicator readings.
type Generator interface {
	TradingAdvice(ctx context.Context, req AdviceRequest) (string, error)
}

// GroqClient implements Generator against the Groq chat API.
type GroqClient struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGroqClient creates a GroqClient from configuration.
func NewGroqClient(cfg config.GroqConfig) *GroqClient {
	return &GroqClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TradingAdvice asks the model for a BUY/SELL/HOLD rationale.
func (g *GroqClient) TradingAdvice(ctx context.Context, req AdviceRequest) (string, error) {
	ctx, span := logger.StartSpan(ctx, "groq-advice")
	defer span.End()

	if g.apiKey == "" {
		return "", errors.New("groq API key not configured")
	}

	body := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(req)},
		},
		"temperature": 0.3,
		"max_tokens":  300,
		"top_p":       0.9,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("groq http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("failed to decode groq response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("groq response has no choices")
	}

	advice := strings.TrimSpace(r.Choices[0].Message.Content)
	if advice == "" {
		return "", errors.New("groq returned empty advice")
	}
	logger.Debug(ctx, "received trading advice", "symbol", req.Symbol, "length", len(advice))
	return advice, nil
}

func buildPrompt(req AdviceRequest) string {
	var b strings.Builder
	b.WriteString("You are a senior quantitative analyst with 20+ years of experience in technical analysis and algorithmic trading. ")
	fmt.Fprintf(&b, "Analyze the following technical indicators for %s and provide a precise trading recommendation.\n\n", req.Symbol)

	b.WriteString("MARKET DATA:\n")
	fmt.Fprintf(&b, "- Symbol: %s\n", req.Symbol)
	fmt.Fprintf(&b, "- Current Price: $%.2f\n\n", req.Price)

	b.WriteString("TECHNICAL INDICATORS:\n")
	for _, in := range req.Indicators {
		fmt.Fprintf(&b, "- %s: %.4f\n", DescribeIndicator(in.Kind, in.Period), in.Value)
	}
	b.WriteString("\nANALYSIS FRAMEWORK:\n")
	for _, in := range req.Indicators {
		b.WriteString(analysisGuidance(in.Kind, in.Value))
	}

	b.WriteString("\nCONSIDER:\n")
	b.WriteString("- Indicator convergence/divergence signals\n")
	b.WriteString("- Multi-timeframe momentum alignment\n")
	b.WriteString("- Risk-reward ratio optimization\n")
	b.WriteString("- Market regime and volatility context\n")
	b.WriteString("- Position sizing and risk management\n\n")

	b.WriteString("REQUIRED OUTPUT FORMAT:\n")
	b.WriteString("BUY/SELL/HOLD: [2-3 sentences with specific reasoning based on the indicator values and their interaction]\n")
	b.WriteString("Be specific about entry levels, stop-loss, and profit targets when applicable.")
	return b.String()
}

// DescribeIndicator labels an indicator with its effective parameters, e.g.
// "RSI(14)", "MACD(12,26,9)" or "VWAP".
func DescribeIndicator(kind models.IndicatorKind, period int) string {
	switch kind {
	case models.KindMACD:
		return "MACD(12,26,9)"
	case models.KindSTOCH:
		return "Stochastic Oscillator (5,3,3)"
	case models.KindSTOCHF:
		return "Stochastic Fast"
	case models.KindSAR:
		return "Parabolic SAR(0.02,0.20)"
	case models.KindOBV:
		return "On Balance Volume"
	case models.KindVWAP:
		return "VWAP"
	case models.KindWILLR:
		if period > 0 {
			return fmt.Sprintf("Williams %%R(%d)", period)
		}
		return "Williams %R"
	case models.KindBBANDS:
		if period > 0 {
			return fmt.Sprintf("Bollinger Bands(%d)", period)
		}
		return "Bollinger Bands(20)"
	case models.KindAROON:
		if period > 0 {
			return fmt.Sprintf("Aroon(%d)", period)
		}
		return "Aroon"
	case models.KindBOP:
		return "Balance of Power"
	case models.KindTRANGE:
		return "True Range"
	case models.KindAD:
		return "Chaikin A/D Line"
	case models.KindADOSC:
		return "Chaikin A/D Oscillator"
	default:
		if period > 0 && kind.NeedsPeriod() {
			return fmt.Sprintf("%s(%d)", kind, period)
		}
		return string(kind)
	}
}

func analysisGuidance(kind models.IndicatorKind, value float64) string {
	switch kind {
	case models.KindRSI:
		return fmt.Sprintf("- RSI Analysis: %.2f (>70=overbought, <30=oversold, 50=neutral)\n", value)
	case models.KindSTOCH, models.KindSTOCHF:
		return fmt.Sprintf("- Stochastic Analysis: %.2f (>80=overbought, <20=oversold)\n", value)
	case models.KindWILLR:
		return fmt.Sprintf("- Williams %%R: %.2f (>-20=overbought, <-80=oversold)\n", value)
	case models.KindCCI:
		return fmt.Sprintf("- CCI Analysis: %.2f (>100=overbought, <-100=oversold)\n", value)
	case models.KindMFI:
		return fmt.Sprintf("- Money Flow Index: %.2f (>80=overbought, <20=oversold)\n", value)
	case models.KindMACD:
		return fmt.Sprintf("- MACD: %.4f (above signal=bullish, below signal=bearish)\n", value)
	case models.KindBBANDS:
		return fmt.Sprintf("- Bollinger Bands: Price vs Middle Band %.2f (price at upper band=overbought, lower band=oversold)\n", value)
	case models.KindATR:
		return fmt.Sprintf("- ATR: %.4f (measures volatility, higher=more volatile)\n", value)
	case models.KindADX:
		return fmt.Sprintf("- ADX: %.2f (>25=strong trend, <20=weak trend)\n", value)
	case models.KindAROON:
		return fmt.Sprintf("- Aroon: %.2f (Aroon Up > Aroon Down = uptrend)\n", value)
	case models.KindVWAP:
		return fmt.Sprintf("- VWAP: %.2f (price above VWAP=bullish, below=bearish)\n", value)
	case models.KindOBV:
		return fmt.Sprintf("- OBV: %.0f (rising OBV=accumulation, falling=distribution)\n", value)
	case models.KindSMA, models.KindEMA, models.KindWMA:
		return fmt.Sprintf("- Moving Average: %.2f (price above MA=bullish, below=bearish)\n", value)
	default:
		return fmt.Sprintf("- %s: %.4f\n", kind, value)
	}
}
