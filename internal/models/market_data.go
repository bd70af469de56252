package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is one OHLCV bar for a symbol, daily or intraday.
type MarketData struct {
	ID     int             `json:"id"`
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
	// CreatedAt is set by the persistence layer; zero for bars fetched upstream.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (m *MarketData) OpenFloat() float64  { return m.Open.InexactFloat64() }
func (m *MarketData) HighFloat() float64  { return m.High.InexactFloat64() }
func (m *MarketData) LowFloat() float64   { return m.Low.InexactFloat64() }
func (m *MarketData) CloseFloat() float64 { return m.Close.InexactFloat64() }
