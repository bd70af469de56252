package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/K1rm7n/TradeBack/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		kind  models.IndicatorKind
		value float64
		price float64
		want  Stance
	}{
		{"RSI oversold", models.KindRSI, 25, 100, StanceBullish},
		{"RSI overbought", models.KindRSI, 75, 100, StanceBearish},
		{"RSI neutral", models.KindRSI, 50, 100, StanceNeutral},
		{"RSI at upper band", models.KindRSI, 70, 100, StanceNeutral},
		{"STOCH oversold", models.KindSTOCH, 15, 100, StanceBullish},
		{"STOCH overbought", models.KindSTOCH, 85, 100, StanceBearish},
		{"STOCHF overbought", models.KindSTOCHF, 90, 100, StanceBearish},
		{"WILLR oversold", models.KindWILLR, -85, 100, StanceBullish},
		{"WILLR overbought", models.KindWILLR, -10, 100, StanceBearish},
		{"WILLR neutral", models.KindWILLR, -50, 100, StanceNeutral},
		{"CCI oversold", models.KindCCI, -150, 100, StanceBullish},
		{"CCI overbought", models.KindCCI, 150, 100, StanceBearish},
		{"MFI oversold", models.KindMFI, 10, 100, StanceBullish},
		{"MFI overbought", models.KindMFI, 85, 100, StanceBearish},
		{"MACD positive", models.KindMACD, 0.5, 100, StanceBullish},
		{"MACD negative", models.KindMACD, -0.5, 100, StanceBearish},
		{"ADX strong trend", models.KindADX, 30, 100, StanceBullish},
		{"ADX weak trend", models.KindADX, 15, 100, StanceNeutral},
		{"SMA below price", models.KindSMA, 150, 160, StanceBullish},
		{"SMA above price", models.KindSMA, 170, 160, StanceBearish},
		{"EMA equals price", models.KindEMA, 160, 160, StanceNeutral},
		{"VWAP below price", models.KindVWAP, 98, 100, StanceBullish},
		{"SMA without price", models.KindSMA, 150, 0, StanceNeutral},
		{"zero reading is neutral", models.KindRSI, 0, 100, StanceNeutral},
		{"zero MACD is neutral", models.KindMACD, 0, 100, StanceNeutral},
		{"unclassified kind is neutral", models.KindOBV, 123456, 100, StanceNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.kind, tt.value, tt.price))
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		stances [3]Stance
		want    models.SignalType
	}{
		{"two bullish make a buy", [3]Stance{StanceBullish, StanceBullish, StanceBearish}, models.SignalBuy},
		{"three bullish make a buy", [3]Stance{StanceBullish, StanceBullish, StanceBullish}, models.SignalBuy},
		{"two bearish make a sell", [3]Stance{StanceBearish, StanceNeutral, StanceBearish}, models.SignalSell},
		{"split vote holds", [3]Stance{StanceBullish, StanceBearish, StanceNeutral}, models.SignalHold},
		{"all neutral holds", [3]Stance{StanceNeutral, StanceNeutral, StanceNeutral}, models.SignalHold},
		{"one bullish holds", [3]Stance{StanceBullish, StanceNeutral, StanceNeutral}, models.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.stances))
		})
	}
}

func TestEffectivePeriod(t *testing.T) {
	// Kinds without a time_period parameter ignore the requested period.
	assert.Equal(t, 0, EffectivePeriod(models.KindMACD, 14))
	assert.Equal(t, 0, EffectivePeriod(models.KindVWAP, 30))
	assert.Equal(t, 0, EffectivePeriod(models.KindOBV, 7))
	assert.Equal(t, 0, EffectivePeriod(models.KindSTOCH, 9))
	assert.Equal(t, 0, EffectivePeriod(models.KindSAR, 5))

	assert.Equal(t, 14, EffectivePeriod(models.KindRSI, 14))
	assert.Equal(t, 200, EffectivePeriod(models.KindSMA, 200))
}

func TestExtractSignalType(t *testing.T) {
	tests := []struct {
		name   string
		advice string
		want   models.SignalType
	}{
		{"buy label", "BUY: oversold RSI with trend support", models.SignalBuy},
		{"sell label", "SELL: overbought across oscillators", models.SignalSell},
		{"hold label", "HOLD: wait for confirmation", models.SignalHold},
		{"lowercase label", "buy: momentum turning up", models.SignalBuy},
		{"label mid-text", "Given the setup I would SELL: exit into strength.", models.SignalSell},
		{"strong buy without colon", "This is a STRONG BUY situation", models.SignalStrongBuy},
		{"strong sell without colon", "strong sell, momentum collapsing", models.SignalStrongSell},
		{"empty advice", "", models.SignalUnknown},
		{"whitespace only", "   \n", models.SignalUnknown},
		{"no label defaults to hold", "The indicators are mixed.", models.SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSignalType(tt.advice))
		})
	}
}
