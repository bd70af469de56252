package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is the directional category of a trading signal.
type SignalType string

const (
	SignalBuy        SignalType = "BUY"
	SignalSell       SignalType = "SELL"
	SignalHold       SignalType = "HOLD"
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalStrongSell SignalType = "STRONG_SELL"
	SignalUnknown    SignalType = "UNKNOWN"
)

// ParseSignalType maps a stored string onto a signal type, UNKNOWN on mismatch.
func ParseSignalType(s string) SignalType {
	switch SignalType(strings.ToUpper(strings.TrimSpace(s))) {
	case SignalBuy:
		return SignalBuy
	case SignalSell:
		return SignalSell
	case SignalHold:
		return SignalHold
	case SignalStrongBuy:
		return SignalStrongBuy
	case SignalStrongSell:
		return SignalStrongSell
	default:
		return SignalUnknown
	}
}

// Signal is a persisted trading decision for a symbol.
type Signal struct {
	ID          int             `json:"id"`
	Symbol      string          `json:"symbol"`
	Type        SignalType      `json:"type"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Date        time.Time       `json:"date"`
}

func (s *Signal) PriceFloat() float64 { return s.Price.InexactFloat64() }
func (s *Signal) SetPrice(p float64)  { s.Price = decimal.NewFromFloat(p) }

// SignalEvent is the Kafka payload published when a signal is persisted.
type SignalEvent struct {
	EventType string    `json:"event_type"`
	Signal    *Signal   `json:"signal,omitempty"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}
