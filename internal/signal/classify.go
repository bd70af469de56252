// Package signal turns indicator readings into BUY/SELL/HOLD trading signals.
package signal

import (
	"strings"

	"github.com/K1rm7n/TradeBack/internal/models"
)

// Stance is the directional vote of a single indicator reading.
type Stance int

const (
	StanceNeutral Stance = iota
	StanceBullish
	StanceBearish
)

func (s Stance) String() string {
	switch s {
	case StanceBullish:
		return "bullish"
	case StanceBearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Classify votes one indicator reading against its overbought/oversold bands.
// Moving-average style kinds compare the reading against the current price.
// A zero reading is the missing-data sentinel and always votes neutral.
func Classify(kind models.IndicatorKind, value, price float64) Stance {
	if value == 0 {
		return StanceNeutral
	}

	switch kind {
	case models.KindRSI:
		return bandVote(value, 70, 30)
	case models.KindSTOCH, models.KindSTOCHF, models.KindSTOCHRSI:
		return bandVote(value, 80, 20)
	case models.KindWILLR:
		return bandVote(value, -20, -80)
	case models.KindCCI:
		return bandVote(value, 100, -100)
	case models.KindMFI:
		return bandVote(value, 80, 20)
	case models.KindMACD, models.KindMACDEXT, models.KindMACDFIX, models.KindPPO, models.KindAPO:
		if value > 0 {
			return StanceBullish
		}
		return StanceBearish
	case models.KindADX:
		// ADX measures trend strength, not direction; a strong trend with no
		// contrary evidence counts as confirmation.
		if value > 25 {
			return StanceBullish
		}
		return StanceNeutral
	case models.KindSMA, models.KindEMA, models.KindWMA, models.KindDEMA,
		models.KindTEMA, models.KindTRIMA, models.KindKAMA, models.KindT3,
		models.KindVWAP, models.KindBBANDS:
		if price == 0 {
			return StanceNeutral
		}
		if price > value {
			return StanceBullish
		}
		if price < value {
			return StanceBearish
		}
		return StanceNeutral
	default:
		return StanceNeutral
	}
}

// bandVote is bearish above hi and bullish below lo.
func bandVote(value, hi, lo float64) Stance {
	switch {
	case value > hi:
		return StanceBearish
	case value < lo:
		return StanceBullish
	default:
		return StanceNeutral
	}
}

// Aggregate combines three votes by majority: two or more bullish votes make
// a BUY, two or more bearish votes a SELL, anything else a HOLD.
func Aggregate(stances [3]Stance) models.SignalType {
	bullish, bearish := 0, 0
	for _, s := range stances {
		switch s {
		case StanceBullish:
			bullish++
		case StanceBearish:
			bearish++
		}
	}
	switch {
	case bullish >= 2:
		return models.SignalBuy
	case bearish >= 2:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// EffectivePeriod returns the period actually used for a kind. Kinds that
// take no time_period parameter always use 0 no matter what was requested.
func EffectivePeriod(kind models.IndicatorKind, period int) int {
	if !kind.NeedsPeriod() {
		return 0
	}
	return period
}

// ExtractSignalType pulls the directional keyword out of generated advice.
// Matching is case-insensitive and checks the labels in a fixed order; empty
// advice yields UNKNOWN and unlabeled advice defaults to HOLD.
func ExtractSignalType(advice string) models.SignalType {
	upper := strings.ToUpper(strings.TrimSpace(advice))
	if upper == "" {
		return models.SignalUnknown
	}
	switch {
	case strings.Contains(upper, "BUY:"):
		return models.SignalBuy
	case strings.Contains(upper, "SELL:"):
		return models.SignalSell
	case strings.Contains(upper, "HOLD:"):
		return models.SignalHold
	case strings.Contains(upper, "STRONG BUY"):
		return models.SignalStrongBuy
	case strings.Contains(upper, "STRONG SELL"):
		return models.SignalStrongSell
	default:
		return models.SignalHold
	}
}
