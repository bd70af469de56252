package signal

import (
	"fmt"
	"strings"

	"github.com/K1rm7n/TradeBack/internal/advisor"
	"github.com/K1rm7n/TradeBack/internal/models"
)

// FallbackAdvice builds deterministic advice from the same majority vote the
// classifier uses, so the extracted signal type matches the local decision.
// Used when the advice generator is unreachable or returns garbage.
func FallbackAdvice(symbol string, price float64, inputs [3]advisor.IndicatorInput) string {
	var stances [3]Stance
	for i, in := range inputs {
		stances[i] = Classify(in.Kind, in.Value, price)
	}
	decision := Aggregate(stances)

	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", decision)
	switch decision {
	case models.SignalBuy:
		fmt.Fprintf(&b, "Technical indicators for %s lean bullish. ", symbol)
	case models.SignalSell:
		fmt.Fprintf(&b, "Technical indicators for %s lean bearish. ", symbol)
	default:
		fmt.Fprintf(&b, "Technical indicators for %s are mixed or inconclusive. ", symbol)
	}

	for i, in := range inputs {
		b.WriteString(stanceReason(in, price, stances[i]))
	}

	fmt.Fprintf(&b, "Raw readings: %s=%.4f, %s=%.4f, %s=%.4f at price $%.2f.",
		inputs[0].Kind, inputs[0].Value,
		inputs[1].Kind, inputs[1].Value,
		inputs[2].Kind, inputs[2].Value,
		price)
	return b.String()
}

// MissingDataAdvice explains a HOLD decision when every reading came back
// empty. A reachable quote means the symbol exists and the indicator feed is
// the problem; no quote either makes the symbol itself suspect.
func MissingDataAdvice(symbol string, symbolKnown bool, inputs [3]advisor.IndicatorInput) string {
	labels := make([]string, 0, len(inputs))
	for _, in := range inputs {
		labels = append(labels, advisor.DescribeIndicator(in.Kind, in.Period))
	}
	joined := strings.Join(labels, ", ")

	if !symbolKnown {
		return fmt.Sprintf("HOLD: no quote or indicator data returned for %s; the symbol may be invalid or delisted. %s all came back empty.",
			symbol, joined)
	}
	return fmt.Sprintf("HOLD: market data for %s is currently unavailable; %s all came back empty. Try again once the upstream feed recovers.",
		symbol, joined)
}

func stanceReason(in advisor.IndicatorInput, price float64, stance Stance) string {
	label := advisor.DescribeIndicator(in.Kind, in.Period)
	if in.Value == 0 {
		return fmt.Sprintf("%s is unavailable. ", label)
	}

	switch in.Kind {
	case models.KindRSI, models.KindSTOCH, models.KindSTOCHF, models.KindSTOCHRSI,
		models.KindWILLR, models.KindCCI, models.KindMFI:
		switch stance {
		case StanceBullish:
			return fmt.Sprintf("%s at %.2f indicates oversold conditions. ", label, in.Value)
		case StanceBearish:
			return fmt.Sprintf("%s at %.2f indicates overbought conditions. ", label, in.Value)
		default:
			return fmt.Sprintf("%s at %.2f is in neutral territory. ", label, in.Value)
		}
	case models.KindMACD, models.KindMACDEXT, models.KindMACDFIX, models.KindPPO, models.KindAPO:
		if stance == StanceBullish {
			return fmt.Sprintf("%s at %.4f shows positive momentum. ", label, in.Value)
		}
		return fmt.Sprintf("%s at %.4f shows negative momentum. ", label, in.Value)
	case models.KindADX:
		if stance == StanceBullish {
			return fmt.Sprintf("%s at %.2f confirms a strong trend. ", label, in.Value)
		}
		return fmt.Sprintf("%s at %.2f shows a weak trend. ", label, in.Value)
	case models.KindSMA, models.KindEMA, models.KindWMA, models.KindDEMA,
		models.KindTEMA, models.KindTRIMA, models.KindKAMA, models.KindT3,
		models.KindVWAP, models.KindBBANDS:
		switch stance {
		case StanceBullish:
			return fmt.Sprintf("Price $%.2f trades above %s at %.2f. ", price, label, in.Value)
		case StanceBearish:
			return fmt.Sprintf("Price $%.2f trades below %s at %.2f. ", price, label, in.Value)
		default:
			return fmt.Sprintf("Price $%.2f sits at %s. ", price, label)
		}
	default:
		return fmt.Sprintf("%s reads %.4f. ", label, in.Value)
	}
}
