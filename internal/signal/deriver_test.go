package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K1rm7n/TradeBack/internal/advisor"
	"github.com/K1rm7n/TradeBack/internal/models"
)

type fakeComputer struct {
	values map[models.IndicatorKind]float64
	calls  []string
}

func (f *fakeComputer) Compute(ctx context.Context, ind *models.Indicator) float64 {
	f.calls = append(f.calls, string(ind.Kind)+"@"+ind.Interval)
	v := f.values[ind.Kind]
	ind.SetValue(v)
	ind.CalculatedAt = time.Now()
	return v
}

func (f *fakeComputer) ComputeComplex(ctx context.Context, ind *models.Indicator) *models.Indicator {
	f.calls = append(f.calls, string(ind.Kind)+"@"+ind.Interval)
	ind.SetValue(f.values[ind.Kind])
	ind.CalculatedAt = time.Now()
	return ind
}

type fakePricer struct {
	price float64
	valid bool
}

func (f *fakePricer) GetCurrentPrice(ctx context.Context, symbol string) float64 { return f.price }

func (f *fakePricer) IsSymbolValid(ctx context.Context, symbol string) bool {
	return f.valid || f.price != 0
}

type fakeGenerator struct {
	advice string
	err    error
	called bool
}

func (f *fakeGenerator) TradingAdvice(ctx context.Context, req advisor.AdviceRequest) (string, error) {
	f.called = true
	return f.advice, f.err
}

type fakeCalendar struct{ open bool }

func (f *fakeCalendar) IsOpenNow() bool { return f.open }

type fakeStore struct {
	saved []*models.Signal
	err   error
}

func (f *fakeStore) SaveSignal(ctx context.Context, sig *models.Signal) error {
	if f.err != nil {
		return f.err
	}
	sig.ID = len(f.saved) + 1
	f.saved = append(f.saved, sig)
	return nil
}

type fakePublisher struct {
	events []*models.SignalEvent
	err    error
}

func (f *fakePublisher) PublishSignalEvent(ctx context.Context, event *models.SignalEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func threeIndicators() [3]IndicatorRequest {
	return [3]IndicatorRequest{
		{Kind: models.KindRSI, Period: 14},
		{Kind: models.KindSMA, Period: 20},
		{Kind: models.KindMACD, Period: 0},
	}
}

func TestDeriveBuySignal(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindRSI:  25,  // oversold, bullish
		models.KindSMA:  150, // below price, bullish
		models.KindMACD: 0.5, // positive, bullish
	}}
	generator := &fakeGenerator{advice: "BUY: oversold RSI, price above trend, positive momentum."}
	store := &fakeStore{}
	publisher := &fakePublisher{}

	d := NewDeriver(computer, &fakePricer{price: 160}, generator, &fakeCalendar{open: true}, store, publisher)
	result, err := d.Derive(context.Background(), Request{
		Symbol:     "AAPL",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)

	assert.True(t, generator.called)
	assert.False(t, result.Fallback)
	assert.Equal(t, models.SignalBuy, result.Signal.Type)
	assert.Equal(t, "AAPL", result.Signal.Symbol)
	assert.InDelta(t, 160.0, result.Signal.PriceFloat(), 0.001)

	require.Len(t, store.saved, 1)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "SIGNAL_CREATED", publisher.events[0].EventType)
	assert.Equal(t, "AAPL", publisher.events[0].Symbol)
}

func TestDeriveAllZeroHoldsWithoutGenerator(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{}}
	generator := &fakeGenerator{advice: "BUY: should never be used"}
	store := &fakeStore{}

	d := NewDeriver(computer, &fakePricer{price: 0}, generator, &fakeCalendar{open: true}, store, nil)
	result, err := d.Derive(context.Background(), Request{
		Symbol:     "AAPL",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)

	assert.False(t, generator.called, "generator must not run when every reading is missing")
	assert.True(t, result.Fallback)
	assert.Equal(t, models.SignalHold, result.Signal.Type)
	require.Len(t, store.saved, 1)
}

func TestDeriveGeneratorFailureUsesFallback(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindRSI:  25,
		models.KindSMA:  150,
		models.KindMACD: 0.5,
	}}
	generator := &fakeGenerator{err: errors.New("api unreachable")}
	store := &fakeStore{}

	d := NewDeriver(computer, &fakePricer{price: 160}, generator, &fakeCalendar{open: true}, store, nil)
	result, err := d.Derive(context.Background(), Request{
		Symbol:     "TSLA",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)

	assert.True(t, generator.called)
	assert.True(t, result.Fallback)
	// The fallback votes the same way the live readings lean.
	assert.Equal(t, models.SignalBuy, result.Signal.Type)
}

func TestDeriveSubstitutesDailyWhenMarketClosed(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindRSI:  50,
		models.KindSMA:  100,
		models.KindMACD: 0.1,
	}}
	d := NewDeriver(computer, &fakePricer{price: 100}, &fakeGenerator{advice: "HOLD: flat."},
		&fakeCalendar{open: false}, &fakeStore{}, nil)

	result, err := d.Derive(context.Background(), Request{
		Symbol:     "MSFT",
		Interval:   "5min",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)

	assert.Equal(t, "daily", result.Interval)
	for _, call := range computer.calls {
		assert.Contains(t, call, "@daily", "intraday request while closed must use the daily series")
	}
}

func TestDeriveKeepsIntradayWhileMarketOpen(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindRSI: 50, models.KindSMA: 100, models.KindMACD: 0.1,
	}}
	d := NewDeriver(computer, &fakePricer{price: 100}, &fakeGenerator{advice: "HOLD: flat."},
		&fakeCalendar{open: true}, &fakeStore{}, nil)

	_, err := d.Derive(context.Background(), Request{
		Symbol:     "MSFT",
		Interval:   "5min",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)

	for _, call := range computer.calls {
		assert.Contains(t, call, "@5min")
	}
}

func TestDeriveReferencePriceFallsBackToReading(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindSMA: 150, // the only reading, becomes the reference price
	}}
	store := &fakeStore{}
	d := NewDeriver(computer, &fakePricer{price: 0, valid: true}, &fakeGenerator{advice: "HOLD: thin data."},
		&fakeCalendar{open: true}, store, nil)

	result, err := d.Derive(context.Background(), Request{
		Symbol:     "NVDA",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 150.0, result.Signal.PriceFloat(), 0.001)
}

func TestDeriveReferencePriceUsesFirstNonzeroReading(t *testing.T) {
	// Oscillator readings count too; the chain takes the first non-zero value
	// regardless of kind.
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{
		models.KindRSI: 25,
	}}
	d := NewDeriver(computer, &fakePricer{price: 0, valid: true}, &fakeGenerator{advice: "HOLD: thin data."},
		&fakeCalendar{open: true}, &fakeStore{}, nil)

	result, err := d.Derive(context.Background(), Request{
		Symbol:     "NVDA",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 25.0, result.Signal.PriceFloat(), 0.001)
}

func TestDeriveMissingDataExplainsCause(t *testing.T) {
	t.Run("unknown symbol", func(t *testing.T) {
		computer := &fakeComputer{values: map[models.IndicatorKind]float64{}}
		store := &fakeStore{}
		d := NewDeriver(computer, &fakePricer{price: 0, valid: false}, &fakeGenerator{advice: "unused"},
			&fakeCalendar{open: true}, store, nil)

		result, err := d.Derive(context.Background(), Request{
			Symbol:     "ZZZZ",
			Interval:   "daily",
			Indicators: threeIndicators(),
		})
		require.NoError(t, err)
		assert.Equal(t, models.SignalHold, result.Signal.Type)
		assert.Contains(t, result.Signal.Description, "may be invalid")
	})

	t.Run("quotable symbol with feed outage", func(t *testing.T) {
		computer := &fakeComputer{values: map[models.IndicatorKind]float64{}}
		store := &fakeStore{}
		d := NewDeriver(computer, &fakePricer{price: 0, valid: true}, &fakeGenerator{advice: "unused"},
			&fakeCalendar{open: true}, store, nil)

		result, err := d.Derive(context.Background(), Request{
			Symbol:     "AAPL",
			Interval:   "daily",
			Indicators: threeIndicators(),
		})
		require.NoError(t, err)
		assert.Equal(t, models.SignalHold, result.Signal.Type)
		assert.Contains(t, result.Signal.Description, "currently unavailable")
		assert.NotContains(t, result.Signal.Description, "may be invalid")
	})
}

func TestDeriveStoreFailurePropagates(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{models.KindRSI: 25}}
	d := NewDeriver(computer, &fakePricer{price: 100}, &fakeGenerator{advice: "HOLD: ok"},
		&fakeCalendar{open: true}, &fakeStore{err: errors.New("db down")}, nil)

	_, err := d.Derive(context.Background(), Request{
		Symbol:     "AAPL",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	assert.Error(t, err)
}

func TestDerivePublisherFailureDoesNotFail(t *testing.T) {
	computer := &fakeComputer{values: map[models.IndicatorKind]float64{models.KindRSI: 25}}
	store := &fakeStore{}
	d := NewDeriver(computer, &fakePricer{price: 100}, &fakeGenerator{advice: "HOLD: ok"},
		&fakeCalendar{open: true}, store, &fakePublisher{err: errors.New("broker down")})

	result, err := d.Derive(context.Background(), Request{
		Symbol:     "AAPL",
		Interval:   "daily",
		Indicators: threeIndicators(),
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Signal)
	assert.Len(t, store.saved, 1)
}

func TestFallbackAdviceMatchesVote(t *testing.T) {
	inputs := [3]advisor.IndicatorInput{
		{Kind: models.KindRSI, Value: 25, Period: 14},
		{Kind: models.KindSMA, Value: 150, Period: 20},
		{Kind: models.KindMACD, Value: 0.5},
	}
	advice := FallbackAdvice("AAPL", 160, inputs)
	assert.Equal(t, models.SignalBuy, ExtractSignalType(advice))
	assert.Contains(t, advice, "0.5000")
	assert.Contains(t, advice, "AAPL")

	bearish := [3]advisor.IndicatorInput{
		{Kind: models.KindRSI, Value: 80, Period: 14},
		{Kind: models.KindSMA, Value: 170, Period: 20},
		{Kind: models.KindMACD, Value: -0.5},
	}
	advice = FallbackAdvice("AAPL", 160, bearish)
	assert.Equal(t, models.SignalSell, ExtractSignalType(advice))

	missing := [3]advisor.IndicatorInput{
		{Kind: models.KindRSI}, {Kind: models.KindSMA}, {Kind: models.KindMACD},
	}
	advice = FallbackAdvice("AAPL", 100, missing)
	assert.Equal(t, models.SignalHold, ExtractSignalType(advice))
	assert.Contains(t, advice, "unavailable")
}
