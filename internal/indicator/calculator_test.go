package indicator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/models"
)

func newTestCalculator(t *testing.T, handler http.HandlerFunc) *Calculator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCalculator(config.AlphaVantageConfig{APIKey: "test", BaseURL: server.URL})
}

func TestCompute(t *testing.T) {
	t.Run("returns newest value", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "RSI", r.URL.Query().Get("function"))
			assert.Equal(t, "14", r.URL.Query().Get("time_period"))
			assert.Equal(t, "close", r.URL.Query().Get("series_type"))
			fmt.Fprint(w, `{
				"Technical Analysis: RSI": {
					"2025-03-10": {"RSI": "41.2000"},
					"2025-03-12": {"RSI": "28.5000"},
					"2025-03-11": {"RSI": "35.0000"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindRSI, Period: 14, Interval: "daily"}
		value := calc.Compute(context.Background(), ind)
		assert.InDelta(t, 28.5, value, 0.0001, "lexicographically greatest date wins")
		assert.InDelta(t, 28.5, ind.ValueFloat(), 0.0001)
		assert.False(t, ind.CalculatedAt.IsZero())
	})

	t.Run("AD reads the Chaikin field", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"Technical Analysis: Chaikin A/D": {
					"2025-03-12": {"Chaikin A/D": "123456.7890"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindAD, Period: 10, Interval: "daily"}
		assert.InDelta(t, 123456.789, calc.Compute(context.Background(), ind), 0.001)
	})

	t.Run("prefix match finds variant series label", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"Technical Analysis: SMA (custom)": {
					"2025-03-12": {"SMA": "182.4000"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindSMA, Period: 20, Interval: "daily"}
		assert.InDelta(t, 182.4, calc.Compute(context.Background(), ind), 0.0001)
	})

	t.Run("VWAP with daily interval degrades to zero without a request", func(t *testing.T) {
		called := false
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindVWAP, Interval: "daily"}
		assert.Zero(t, calc.Compute(context.Background(), ind))
		assert.False(t, called, "incompatible combination must not reach the upstream")
	})

	t.Run("upstream error degrades to zero", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"Error Message": "Invalid API call"}`)
		})
		ind := &models.Indicator{Symbol: "BAD", Kind: models.KindRSI, Period: 14, Interval: "daily"}
		assert.Zero(t, calc.Compute(context.Background(), ind))
	})

	t.Run("rate limit note degrades to zero", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"Note": "please slow down"}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindRSI, Period: 14, Interval: "daily"}
		assert.Zero(t, calc.Compute(context.Background(), ind))
	})

	t.Run("missing value field degrades to zero", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"Technical Analysis: RSI": {
					"2025-03-12": {"SomethingElse": "1.0"}
				}
			}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindRSI, Period: 14, Interval: "daily"}
		assert.Zero(t, calc.Compute(context.Background(), ind))
	})
}

func TestComputeComplex(t *testing.T) {
	t.Run("MACD extracts all three fields", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "MACD", q.Get("function"))
			assert.Equal(t, "12", q.Get("fastperiod"))
			assert.Equal(t, "26", q.Get("slowperiod"))
			assert.Equal(t, "9", q.Get("signalperiod"))
			assert.Equal(t, "close", q.Get("series_type"))
			assert.Empty(t, q.Get("time_period"))
			fmt.Fprint(w, `{
				"Technical Analysis: MACD": {
					"2025-03-12": {"MACD": "1.2345", "MACD_Signal": "1.1000", "MACD_Hist": "0.1345"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindMACD, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
		assert.InDelta(t, 1.2345, ind.ValueFloat(), 0.0001)
		assert.InDelta(t, 1.1, ind.SecondaryFloat(), 0.0001)
		assert.InDelta(t, 0.1345, ind.TertiaryFloat(), 0.0001)
	})

	t.Run("BBANDS extracts middle upper lower", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "20", q.Get("time_period"))
			assert.Equal(t, "2", q.Get("nbdevup"))
			assert.Equal(t, "2", q.Get("nbdevdn"))
			assert.Equal(t, "0", q.Get("matype"))
			fmt.Fprint(w, `{
				"Technical Analysis: BBANDS": {
					"2025-03-12": {"Real Middle Band": "185.00", "Real Upper Band": "192.00", "Real Lower Band": "178.00"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindBBANDS, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
		assert.InDelta(t, 185.0, ind.ValueFloat(), 0.001)
		assert.InDelta(t, 192.0, ind.SecondaryFloat(), 0.001)
		assert.InDelta(t, 178.0, ind.TertiaryFloat(), 0.001)
	})

	t.Run("BBANDS default period when unset", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "20", r.URL.Query().Get("time_period"))
			fmt.Fprint(w, `{"Technical Analysis: BBANDS": {"2025-03-12": {"Real Middle Band": "1"}}}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindBBANDS, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
	})

	t.Run("STOCH prefers slow fields", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "5", q.Get("fastkperiod"))
			assert.Equal(t, "3", q.Get("slowkperiod"))
			assert.Equal(t, "3", q.Get("slowdperiod"))
			fmt.Fprint(w, `{
				"Technical Analysis: STOCH": {
					"2025-03-12": {"SlowK": "22.50", "SlowD": "25.10", "FastK": "19.00", "FastD": "21.00"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindSTOCH, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
		assert.InDelta(t, 22.5, ind.ValueFloat(), 0.001)
		assert.InDelta(t, 25.1, ind.SecondaryFloat(), 0.001)
	})

	t.Run("STOCHF falls back to fast fields", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"Technical Analysis: STOCHF": {
					"2025-03-12": {"FastK": "19.00", "FastD": "21.00"}
				}
			}`)
		})

		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindSTOCHF, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
		assert.InDelta(t, 19.0, ind.ValueFloat(), 0.001)
		assert.InDelta(t, 21.0, ind.SecondaryFloat(), 0.001)
	})

	t.Run("failure leaves indicator untouched", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindMACD, Interval: "daily"}
		calc.ComputeComplex(context.Background(), ind)
		assert.Zero(t, ind.ValueFloat())
	})
}

func TestBuildURLParameters(t *testing.T) {
	t.Run("SAR sends acceleration bounds and no series type", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "0.02", q.Get("acceleration"))
			assert.Equal(t, "0.20", q.Get("maximum"))
			assert.Empty(t, q.Get("series_type"))
			assert.Empty(t, q.Get("time_period"))
			fmt.Fprint(w, `{"Technical Analysis: SAR": {"2025-03-12": {"SAR": "180.00"}}}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindSAR, Interval: "daily"}
		require.InDelta(t, 180.0, calc.Compute(context.Background(), ind), 0.001)
	})

	t.Run("adjusted intervals collapse for indicator queries", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "weekly", r.URL.Query().Get("interval"))
			fmt.Fprint(w, `{"Technical Analysis: RSI": {"2025-03-12": {"RSI": "55.0"}}}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindRSI, Period: 14, Interval: "weekly_adjusted"}
		calc.Compute(context.Background(), ind)
	})

	t.Run("OBV sends neither period nor series type", func(t *testing.T) {
		calc := newTestCalculator(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Empty(t, q.Get("time_period"))
			assert.Empty(t, q.Get("series_type"))
			fmt.Fprint(w, `{"Technical Analysis: OBV": {"2025-03-12": {"OBV": "123456"}}}`)
		})
		ind := &models.Indicator{Symbol: "AAPL", Kind: models.KindOBV, Interval: "daily"}
		calc.Compute(context.Background(), ind)
	})
}
