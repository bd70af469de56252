package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorKind identifies one Alpha Vantage technical-analysis function.
type IndicatorKind string

// Kinds that take no time_period parameter; the requested period is ignored.
var noPeriodKinds = map[IndicatorKind]bool{
	KindMACD: true, KindSTOCH: true, KindSAR: true, KindVWAP: true, KindOBV: true,
}

// Kinds that take no series_type parameter.
var noSeriesTypeKinds = map[IndicatorKind]bool{
	KindOBV: true, KindVWAP: true, KindSTOCH: true, KindSAR: true,
}

// Kinds whose response carries more than one value per entry.
var complexKinds = map[IndicatorKind]bool{
	KindMACD: true, KindMACDEXT: true, KindBBANDS: true, KindSTOCH: true,
	KindSTOCHF: true, KindAROON: true, KindHTPhasor: true, KindHTSine: true,
}

const (
	// Moving averages
	KindSMA   IndicatorKind = "SMA"
	KindEMA   IndicatorKind = "EMA"
	KindWMA   IndicatorKind = "WMA"
	KindDEMA  IndicatorKind = "DEMA"
	KindTEMA  IndicatorKind = "TEMA"
	KindTRIMA IndicatorKind = "TRIMA"
	KindKAMA  IndicatorKind = "KAMA"
	KindMAMA  IndicatorKind = "MAMA"
	KindT3    IndicatorKind = "T3"

	// Oscillators
	KindRSI      IndicatorKind = "RSI"
	KindSTOCH    IndicatorKind = "STOCH"
	KindSTOCHF   IndicatorKind = "STOCHF"
	KindSTOCHRSI IndicatorKind = "STOCHRSI"
	KindWILLR    IndicatorKind = "WILLR"
	KindCCI      IndicatorKind = "CCI"
	KindCMO      IndicatorKind = "CMO"
	KindROC      IndicatorKind = "ROC"
	KindROCP     IndicatorKind = "ROCP"
	KindROCR     IndicatorKind = "ROCR"
	KindMFI      IndicatorKind = "MFI"
	KindBOP      IndicatorKind = "BOP"

	// MACD family
	KindMACD    IndicatorKind = "MACD"
	KindMACDEXT IndicatorKind = "MACDEXT"
	KindMACDFIX IndicatorKind = "MACDFIX"
	KindPPO     IndicatorKind = "PPO"
	KindAPO     IndicatorKind = "APO"

	// Bands and channels
	KindBBANDS   IndicatorKind = "BBANDS"
	KindKELTNER  IndicatorKind = "KELTNER"
	KindDONCHIAN IndicatorKind = "DONCHIAN"

	// Volume
	KindAD    IndicatorKind = "AD"
	KindADOSC IndicatorKind = "ADOSC"
	KindOBV   IndicatorKind = "OBV"
	KindVWAP  IndicatorKind = "VWAP"

	// Volatility
	KindATR    IndicatorKind = "ATR"
	KindNATR   IndicatorKind = "NATR"
	KindTRANGE IndicatorKind = "TRANGE"

	// Trend
	KindADX      IndicatorKind = "ADX"
	KindADXR     IndicatorKind = "ADXR"
	KindAROON    IndicatorKind = "AROON"
	KindAROONOSC IndicatorKind = "AROONOSC"
	KindDX       IndicatorKind = "DX"
	KindMinusDI  IndicatorKind = "MINUS_DI"
	KindPlusDI   IndicatorKind = "PLUS_DI"
	KindMinusDM  IndicatorKind = "MINUS_DM"
	KindPlusDM   IndicatorKind = "PLUS_DM"
	KindSAR      IndicatorKind = "SAR"
	KindTRIX     IndicatorKind = "TRIX"

	// Price transforms
	KindAVGPRICE IndicatorKind = "AVGPRICE"
	KindMEDPRICE IndicatorKind = "MEDPRICE"
	KindTYPPRICE IndicatorKind = "TYPPRICE"
	KindWCLPRICE IndicatorKind = "WCLPRICE"

	// Hilbert transform cycle indicators
	KindHTDCPeriod  IndicatorKind = "HT_DCPERIOD"
	KindHTDCPhase   IndicatorKind = "HT_DCPHASE"
	KindHTPhasor    IndicatorKind = "HT_PHASOR"
	KindHTSine      IndicatorKind = "HT_SINE"
	KindHTTrendMode IndicatorKind = "HT_TRENDMODE"
)

// KindInfo is the static metadata record for one indicator kind.
type KindInfo struct {
	Description string
	// ValueKey is the response field holding the primary value when it differs
	// from the kind name itself (e.g. AD reports under "Chaikin A/D").
	ValueKey string
}

var kindTable = map[IndicatorKind]KindInfo{
	KindSMA:   {Description: "Simple Moving Average"},
	KindEMA:   {Description: "Exponential Moving Average"},
	KindWMA:   {Description: "Weighted Moving Average"},
	KindDEMA:  {Description: "Double Exponential Moving Average"},
	KindTEMA:  {Description: "Triple Exponential Moving Average"},
	KindTRIMA: {Description: "Triangular Moving Average"},
	KindKAMA:  {Description: "Kaufman Adaptive Moving Average"},
	KindMAMA:  {Description: "MESA Adaptive Moving Average"},
	KindT3:    {Description: "T3 Moving Average"},

	KindRSI:      {Description: "Relative Strength Index"},
	KindSTOCH:    {Description: "Stochastic Oscillator"},
	KindSTOCHF:   {Description: "Stochastic Fast"},
	KindSTOCHRSI: {Description: "Stochastic RSI"},
	KindWILLR:    {Description: "Williams %R"},
	KindCCI:      {Description: "Commodity Channel Index"},
	KindCMO:      {Description: "Chande Momentum Oscillator"},
	KindROC:      {Description: "Rate of Change"},
	KindROCP:     {Description: "Rate of Change Percentage"},
	KindROCR:     {Description: "Rate of Change Ratio"},
	KindMFI:      {Description: "Money Flow Index"},
	KindBOP:      {Description: "Balance of Power"},

	KindMACD:    {Description: "Moving Average Convergence Divergence"},
	KindMACDEXT: {Description: "MACD with controllable MA type"},
	KindMACDFIX: {Description: "MACD Fix 12/26"},
	KindPPO:     {Description: "Percentage Price Oscillator"},
	KindAPO:     {Description: "Absolute Price Oscillator"},

	KindBBANDS:   {Description: "Bollinger Bands"},
	KindKELTNER:  {Description: "Keltner Channel"},
	KindDONCHIAN: {Description: "Donchian Channel"},

	KindAD:    {Description: "Chaikin A/D Line", ValueKey: "Chaikin A/D"},
	KindADOSC: {Description: "Chaikin A/D Oscillator"},
	KindOBV:   {Description: "On Balance Volume"},
	KindVWAP:  {Description: "Volume Weighted Average Price"},

	KindATR:    {Description: "Average True Range"},
	KindNATR:   {Description: "Normalized Average True Range"},
	KindTRANGE: {Description: "True Range"},

	KindADX:      {Description: "Average Directional Movement Index"},
	KindADXR:     {Description: "Average Directional Movement Index Rating"},
	KindAROON:    {Description: "Aroon"},
	KindAROONOSC: {Description: "Aroon Oscillator"},
	KindDX:       {Description: "Directional Movement Index"},
	KindMinusDI:  {Description: "Minus Directional Indicator"},
	KindPlusDI:   {Description: "Plus Directional Indicator"},
	KindMinusDM:  {Description: "Minus Directional Movement"},
	KindPlusDM:   {Description: "Plus Directional Movement"},
	KindSAR:      {Description: "Parabolic SAR"},
	KindTRIX:     {Description: "1-day Rate-Of-Change of a Triple Smooth EMA"},

	KindAVGPRICE: {Description: "Average Price"},
	KindMEDPRICE: {Description: "Median Price"},
	KindTYPPRICE: {Description: "Typical Price"},
	KindWCLPRICE: {Description: "Weighted Close Price"},

	KindHTDCPeriod:  {Description: "Hilbert Transform - Dominant Cycle Period"},
	KindHTDCPhase:   {Description: "Hilbert Transform - Dominant Cycle Phase"},
	KindHTPhasor:    {Description: "Hilbert Transform - Phasor Components"},
	KindHTSine:      {Description: "Hilbert Transform - SineWave"},
	KindHTTrendMode: {Description: "Hilbert Transform - Trend vs Cycle Mode"},
}

// Candlestick-pattern recognition functions. They share identical metadata
// shape (no period, no series_type, single integer value), so they are
// registered in bulk instead of spelled out one table row at a time.
var candlePatternKinds = map[IndicatorKind]string{
	"CDL2CROWS": "Two Crows", "CDL3BLACKCROWS": "Three Black Crows",
	"CDL3INSIDE": "Three Inside Up/Down", "CDL3LINESTRIKE": "Three-Line Strike",
	"CDL3OUTSIDE": "Three Outside Up/Down", "CDL3STARSINSOUTH": "Three Stars In The South",
	"CDL3WHITESOLDIERS": "Three Advancing White Soldiers", "CDLABANDONEDBABY": "Abandoned Baby",
	"CDLBELTHOLD": "Belt-hold", "CDLBREAKAWAY": "Breakaway",
	"CDLCLOSINGMARUBOZU": "Closing Marubozu", "CDLCONCEALBABYSWALL": "Concealing Baby Swallow",
	"CDLCOUNTERATTACK": "Counterattack", "CDLDARKCLOUDCOVER": "Dark Cloud Cover",
	"CDLDOJI": "Doji", "CDLDOJISTAR": "Doji Star", "CDLDRAGONFLYDOJI": "Dragonfly Doji",
	"CDLENGULFING": "Engulfing Pattern", "CDLEVENINGDOJISTAR": "Evening Doji Star",
	"CDLEVENINGSTAR": "Evening Star", "CDLGAPSIDESIDEWHITE": "Up/Down-gap side-by-side white lines",
	"CDLGRAVESTONEDOJI": "Gravestone Doji", "CDLHAMMER": "Hammer",
	"CDLHANGINGMAN": "Hanging Man", "CDLHARAMI": "Harami Pattern",
	"CDLHARAMICROSS": "Harami Cross Pattern", "CDLHIGHWAVE": "High-Wave Candle",
	"CDLHIKKAKE": "Hikkake Pattern", "CDLHIKKAKEMOD": "Modified Hikkake Pattern",
	"CDLHOMINGPIGEON": "Homing Pigeon", "CDLIDENTICAL3CROWS": "Identical Three Crows",
	"CDLINNECK": "In-Neck Pattern", "CDLINVERTEDHAMMER": "Inverted Hammer",
	"CDLKICKING": "Kicking", "CDLKICKINGBYLENGTH": "Kicking by length",
	"CDLLADDERBOTTOM": "Ladder Bottom", "CDLLONGLEGGEDDOJI": "Long Legged Doji",
	"CDLLONGLINE": "Long Line Candle", "CDLMARUBOZU": "Marubozu",
	"CDLMATCHINGLOW": "Matching Low", "CDLMATHOLD": "Mat Hold",
	"CDLMORNINGDOJISTAR": "Morning Doji Star", "CDLMORNINGSTAR": "Morning Star",
	"CDLONNECK": "On-Neck Pattern", "CDLPIERCING": "Piercing Pattern",
	"CDLRICKSHAWMAN": "Rickshaw Man", "CDLRISEFALL3METHODS": "Rising/Falling Three Methods",
	"CDLSEPARATINGLINES": "Separating Lines", "CDLSHOOTINGSTAR": "Shooting Star",
	"CDLSHORTLINE": "Short Line Candle", "CDLSPINNINGTOP": "Spinning Top",
	"CDLSTALLEDPATTERN": "Stalled Pattern", "CDLSTICKSANDWICH": "Stick Sandwich",
	"CDLTAKURI": "Takuri", "CDLTASUKIGAP": "Tasuki Gap",
	"CDLTHRUSTING": "Thrusting Pattern", "CDLTRISTAR": "Tristar Pattern",
	"CDLUNIQUE3RIVER": "Unique 3 River", "CDLUPSIDEGAP2CROWS": "Upside Gap Two Crows",
	"CDLXSIDEGAP3METHODS": "Upside/Downside Gap Three Methods",
}

// Math-transform functions applied to the close series.
var mathTransformKinds = map[IndicatorKind]string{
	"ACOS": "Vector Trigonometric ACos", "ASIN": "Vector Trigonometric ASin",
	"ATAN": "Vector Trigonometric ATan", "CEIL": "Vector Ceil",
	"COS": "Vector Trigonometric Cos", "COSH": "Vector Trigonometric Cosh",
	"EXP": "Vector Arithmetic Exp", "FLOOR": "Vector Floor",
	"LN": "Vector Log Natural", "LOG10": "Vector Log10",
	"SIN": "Vector Trigonometric Sin", "SINH": "Vector Trigonometric Sinh",
	"SQRT": "Vector Square Root", "TAN": "Vector Trigonometric Tan",
	"TANH": "Vector Trigonometric Tanh",
}

func init() {
	for k, desc := range candlePatternKinds {
		kindTable[k] = KindInfo{Description: desc}
		noPeriodKinds[k] = true
		noSeriesTypeKinds[k] = true
	}
	for k, desc := range mathTransformKinds {
		kindTable[k] = KindInfo{Description: desc}
	}
}

// ParseIndicatorKind maps a user-supplied string onto a supported kind.
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	k := IndicatorKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := kindTable[k]; !ok {
		return "", fmt.Errorf("unsupported indicator kind: %q", s)
	}
	return k, nil
}

// KindSupported reports whether s names a known indicator kind.
func KindSupported(s string) bool {
	_, err := ParseIndicatorKind(s)
	return err == nil
}

func (k IndicatorKind) String() string { return string(k) }

// Description returns the human-readable name of the kind.
func (k IndicatorKind) Description() string {
	if info, ok := kindTable[k]; ok {
		return info.Description
	}
	return string(k)
}

// NeedsPeriod reports whether the kind takes a time_period parameter.
func (k IndicatorKind) NeedsPeriod() bool { return !noPeriodKinds[k] }

// NeedsSeriesType reports whether the kind takes a series_type parameter.
func (k IndicatorKind) NeedsSeriesType() bool { return !noSeriesTypeKinds[k] }

// IsComplex reports whether the kind returns multiple values per entry.
func (k IndicatorKind) IsComplex() bool { return complexKinds[k] }

// ValueKey returns the response field name holding the primary value.
func (k IndicatorKind) ValueKey() string {
	if info, ok := kindTable[k]; ok && info.ValueKey != "" {
		return info.ValueKey
	}
	return string(k)
}

// Indicator is one computed reading of a technical indicator.
type Indicator struct {
	ID           int             `json:"id"`
	Symbol       string          `json:"symbol"`
	Kind         IndicatorKind   `json:"kind"`
	Period       int             `json:"period"`
	Interval     string          `json:"interval"`
	Value        decimal.Decimal `json:"value"`
	Secondary    decimal.Decimal `json:"secondary_value,omitempty"`
	Tertiary     decimal.Decimal `json:"tertiary_value,omitempty"`
	CalculatedAt time.Time       `json:"calculated_at"`
}

func (i *Indicator) ValueFloat() float64     { return i.Value.InexactFloat64() }
func (i *Indicator) SecondaryFloat() float64 { return i.Secondary.InexactFloat64() }
func (i *Indicator) TertiaryFloat() float64  { return i.Tertiary.InexactFloat64() }

func (i *Indicator) SetValue(v float64)     { i.Value = decimal.NewFromFloat(v) }
func (i *Indicator) SetSecondary(v float64) { i.Secondary = decimal.NewFromFloat(v) }
func (i *Indicator) SetTertiary(v float64)  { i.Tertiary = decimal.NewFromFloat(v) }

// ValueName labels the primary value for display purposes.
func (i *Indicator) ValueName() string {
	switch i.Kind {
	case KindMACD:
		return "MACD Line"
	case KindBBANDS:
		return "Middle Band (SMA)"
	case KindSTOCH, KindSTOCHF:
		return "%K"
	case KindRSI:
		return "RSI"
	default:
		return i.Kind.Description()
	}
}

// SecondaryValueName labels the secondary value for display purposes.
func (i *Indicator) SecondaryValueName() string {
	switch i.Kind {
	case KindMACD:
		return "Signal Line"
	case KindBBANDS:
		return "Upper Band"
	case KindSTOCH, KindSTOCHF:
		return "%D"
	default:
		return "Secondary Value"
	}
}

// TertiaryValueName labels the tertiary value for display purposes.
func (i *Indicator) TertiaryValueName() string {
	switch i.Kind {
	case KindMACD:
		return "Histogram"
	case KindBBANDS:
		return "Lower Band"
	default:
		return "Tertiary Value"
	}
}
