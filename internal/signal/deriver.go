package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/K1rm7n/TradeBack/internal/advisor"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/marketdata"
	"github.com/K1rm7n/TradeBack/internal/models"
)

// neutralPrice stands in for the reference price when neither a quote nor a
// usable indicator reading is available. It keeps moving-average comparisons
// defined; the resulting votes are as good as the data allows.
const neutralPrice = 100.0

// Computer produces indicator readings.
type Computer interface {
	Compute(ctx context.Context, ind *models.Indicator) float64
	ComputeComplex(ctx context.Context, ind *models.Indicator) *models.Indicator
}

// Pricer resolves the current price of a symbol, 0 when unavailable, and
// reports whether the symbol is quotable at all.
type Pricer interface {
	GetCurrentPrice(ctx context.Context, symbol string) float64
	IsSymbolValid(ctx context.Context, symbol string) bool
}

// Calendar answers whether the market session is currently open.
type Calendar interface {
	IsOpenNow() bool
}

// Store persists derived signals.
type Store interface {
	SaveSignal(ctx context.Context, sig *models.Signal) error
}

// Publisher emits signal lifecycle events. Optional; a nil Publisher is a no-op.
type Publisher interface {
	PublishSignalEvent(ctx context.Context, event *models.SignalEvent) error
}

// IndicatorRequest selects one indicator for a derivation.
type IndicatorRequest struct {
	Kind   models.IndicatorKind `json:"kind"`
	Period int                  `json:"period"`
}

// Request asks for a signal on one symbol from exactly three indicators.
type Request struct {
	Symbol     string              `json:"symbol"`
	Interval   string              `json:"interval"`
	Indicators [3]IndicatorRequest `json:"indicators"`
}

// Result is a derived signal plus the indicator readings it was built from.
// Interval is the interval actually used, which differs from the requested one
// when the market was closed.
type Result struct {
	Signal     *models.Signal       `json:"signal"`
	Indicators [3]*models.Indicator `json:"indicators"`
	Interval   string               `json:"interval"`
	Fallback   bool                 `json:"fallback"`
}

// Deriver runs the signal derivation pipeline.
type Deriver struct {
	computer  Computer
	pricer    Pricer
	generator advisor.Generator
	calendar  Calendar
	store     Store
	publisher Publisher
}

// NewDeriver wires the pipeline. Publisher may be nil.
func NewDeriver(computer Computer, pricer Pricer, generator advisor.Generator, calendar Calendar, store Store, publisher Publisher) *Deriver {
	return &Deriver{
		computer:  computer,
		pricer:    pricer,
		generator: generator,
		calendar:  calendar,
		store:     store,
		publisher: publisher,
	}
}

// Derive computes the requested indicators, obtains advice, extracts the
// signal, persists it and publishes a SIGNAL_CREATED event.
func (d *Deriver) Derive(ctx context.Context, req Request) (*Result, error) {
	ctx, span := logger.StartSpan(ctx, "derive-signal")
	defer span.End()

	interval := d.effectiveInterval(ctx, req.Interval)

	result := &Result{Interval: interval}
	var inputs [3]advisor.IndicatorInput
	for i, ir := range req.Indicators {
		ind := &models.Indicator{
			Symbol:   req.Symbol,
			Kind:     ir.Kind,
			Period:   EffectivePeriod(ir.Kind, ir.Period),
			Interval: interval,
		}
		var value float64
		if ir.Kind.IsComplex() {
			d.computer.ComputeComplex(ctx, ind)
			value = ind.ValueFloat()
		} else {
			value = d.computer.Compute(ctx, ind)
			ind.SetValue(value)
		}
		result.Indicators[i] = ind
		inputs[i] = advisor.IndicatorInput{Kind: ir.Kind, Value: value, Period: ind.Period}
	}

	price := d.referencePrice(ctx, req.Symbol, inputs)

	var advice string
	if allZero(inputs) {
		// No data at all. Advice generation would only dress up noise, so
		// decide HOLD locally and skip the generator. A quote check tells an
		// unknown symbol apart from an upstream outage.
		known := d.pricer.IsSymbolValid(ctx, req.Symbol)
		logger.Warn(ctx, "all indicator readings unavailable, holding",
			"symbol", req.Symbol, "symbol_known", known)
		advice = MissingDataAdvice(req.Symbol, known, inputs)
		result.Fallback = true
	} else {
		generated, err := d.generator.TradingAdvice(ctx, advisor.AdviceRequest{
			Symbol:     req.Symbol,
			Price:      price,
			Indicators: inputs,
		})
		if err != nil {
			logger.Warn(ctx, "advice generation failed, using fallback",
				"symbol", req.Symbol, "error", err)
			generated = FallbackAdvice(req.Symbol, price, inputs)
			result.Fallback = true
		}
		advice = generated
	}

	sig := &models.Signal{
		Symbol:      req.Symbol,
		Type:        ExtractSignalType(advice),
		Description: advice,
		Date:        time.Now(),
	}
	sig.SetPrice(price)

	if err := d.store.SaveSignal(ctx, sig); err != nil {
		return nil, fmt.Errorf("failed to save signal: %w", err)
	}
	result.Signal = sig

	d.publish(ctx, sig)

	logger.Info(ctx, "derived signal",
		"symbol", req.Symbol, "type", sig.Type, "price", price, "fallback", result.Fallback)
	return result, nil
}

// effectiveInterval substitutes the daily series for intraday requests while
// the market is closed; intraday bars go stale the moment the session ends.
func (d *Deriver) effectiveInterval(ctx context.Context, interval string) string {
	if marketdata.IsIntradayInterval(interval) && !d.calendar.IsOpenNow() {
		logger.Info(ctx, "market closed, substituting daily interval", "requested", interval)
		return "daily"
	}
	return interval
}

// referencePrice picks the price used for moving-average comparisons: the
// live quote first, then the first non-zero indicator reading, then the
// neutral constant.
func (d *Deriver) referencePrice(ctx context.Context, symbol string, inputs [3]advisor.IndicatorInput) float64 {
	if price := d.pricer.GetCurrentPrice(ctx, symbol); price != 0 {
		return price
	}
	for _, in := range inputs {
		if in.Value != 0 {
			logger.Warn(ctx, "no quote available, using indicator reading as reference price",
				"symbol", symbol, "kind", in.Kind, "value", in.Value)
			return in.Value
		}
	}
	logger.Warn(ctx, "no price reference available, using neutral constant", "symbol", symbol)
	return neutralPrice
}

func (d *Deriver) publish(ctx context.Context, sig *models.Signal) {
	if d.publisher == nil {
		return
	}
	event := &models.SignalEvent{
		EventType: "SIGNAL_CREATED",
		Signal:    sig,
		Symbol:    sig.Symbol,
		Timestamp: time.Now(),
	}
	if err := d.publisher.PublishSignalEvent(ctx, event); err != nil {
		// Event delivery is best effort; the signal is already persisted.
		logger.Error(ctx, "failed to publish signal event", "symbol", sig.Symbol, "error", err)
	}
}

func allZero(inputs [3]advisor.IndicatorInput) bool {
	for _, in := range inputs {
		if in.Value != 0 {
			return false
		}
	}
	return true
}
