// Package api exposes the HTTP surface: auth, signal derivation, market
// status, quotes and the symbol catalog.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/K1rm7n/TradeBack/internal/auth"
	"github.com/K1rm7n/TradeBack/internal/listings"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/marketcal"
	"github.com/K1rm7n/TradeBack/internal/models"
	"github.com/K1rm7n/TradeBack/internal/signal"
)

const (
	minPeriod = 2
	maxPeriod = 200

	defaultSignalsLimit = 20
	defaultHistoryLimit = 50
	defaultBarsLimit    = 100
)

// SignalDeriver runs the signal derivation pipeline.
type SignalDeriver interface {
	Derive(ctx context.Context, req signal.Request) (*signal.Result, error)
}

// SignalReader reads persisted signals.
type SignalReader interface {
	GetSignalsBySymbol(ctx context.Context, symbol string, limit int) ([]*models.Signal, error)
	GetSignalsByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.Signal, error)
}

// HistoryStore persists and reads per-user request history.
type HistoryStore interface {
	SaveUserHistory(ctx context.Context, h *models.UserHistory) error
	GetUserHistory(ctx context.Context, userID, limit int) ([]*models.UserHistory, error)
}

// UserLookup resolves usernames to accounts.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// MarketDataStore persists and reads OHLCV bars.
type MarketDataStore interface {
	SaveMarketDataBatch(ctx context.Context, bars []models.MarketData) error
	GetMarketDataBySymbol(ctx context.Context, symbol string, limit int) ([]*models.MarketData, error)
	GetLatestMarketData(ctx context.Context, symbol string) (*models.MarketData, error)
}

// BarFetcher pulls OHLCV series from the upstream gateway.
type BarFetcher interface {
	GetHistoricalData(ctx context.Context, symbol, interval string) []models.MarketData
}

// Quoter resolves current quote prices, 0 when unavailable.
type Quoter interface {
	GetQuote(ctx context.Context, symbol string) float64
}

// QuoteCache is the optional read-through cache in front of Quoter.
type QuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (float64, bool)
	SetQuote(ctx context.Context, symbol string, price float64)
}

// Deps bundles handler dependencies. QuoteCache may be nil.
type Deps struct {
	Deriver    SignalDeriver
	Calculator signal.Computer
	Signals    SignalReader
	History    HistoryStore
	MarketData MarketDataStore
	Bars       BarFetcher
	Users      UserLookup
	Auth       *auth.Service
	Listings   *listings.Service
	Market     *marketcal.Service
	Quotes     Quoter
	QuoteCache QuoteCache
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	deriver    SignalDeriver
	calculator signal.Computer
	signals    SignalReader
	history    HistoryStore
	marketData MarketDataStore
	bars       BarFetcher
	users      UserLookup
	auth       *auth.Service
	listings   *listings.Service
	market     *marketcal.Service
	quotes     Quoter
	quoteCache QuoteCache
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		deriver:    deps.Deriver,
		calculator: deps.Calculator,
		signals:    deps.Signals,
		history:    deps.History,
		marketData: deps.MarketData,
		bars:       deps.Bars,
		users:      deps.Users,
		auth:       deps.Auth,
		listings:   deps.Listings,
		market:     deps.Market,
		quotes:     deps.Quotes,
		quoteCache: deps.QuoteCache,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// GenerateSignal handles POST /api/v1/signals.
func (h *Handler) GenerateSignal(w http.ResponseWriter, r *http.Request) {
	var req signal.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateSignalRequest(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deriver.Derive(r.Context(), req)
	if err != nil {
		logger.Error(r.Context(), "signal derivation failed", "symbol", req.Symbol, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to derive signal")
		return
	}

	h.recordHistory(r, req, result)
	respondJSON(w, http.StatusCreated, result)
}

// GetSignals handles GET /api/v1/signals/{symbol}. Without from/to query
// parameters it returns the newest signals up to limit.
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr != "" || toStr != "" {
		from, to, err := parseDateRange(fromStr, toStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		signals, err := h.signals.GetSignalsByDateRange(r.Context(), symbol, from, to)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to query signals")
			return
		}
		respondJSON(w, http.StatusOK, signals)
		return
	}

	limit := queryInt(r, "limit", defaultSignalsLimit)
	signals, err := h.signals.GetSignalsBySymbol(r.Context(), symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query signals")
		return
	}
	respondJSON(w, http.StatusOK, signals)
}

// MarketStatus handles GET /api/v1/market/status.
func (h *Handler) MarketStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.market.StatusNow())
}

// GetQuote handles GET /api/v1/market/quote/{symbol}.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	if h.quoteCache != nil {
		if price, ok := h.quoteCache.GetQuote(r.Context(), symbol); ok {
			respondJSON(w, http.StatusOK, quoteResponse(symbol, price, true))
			return
		}
	}

	price := h.quotes.GetQuote(r.Context(), symbol)
	if price == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no quote available for %s", symbol))
		return
	}
	if h.quoteCache != nil {
		h.quoteCache.SetQuote(r.Context(), symbol, price)
	}
	respondJSON(w, http.StatusOK, quoteResponse(symbol, price, false))
}

// SaveMarketData handles POST /api/v1/market/data/{symbol}/save. It fetches
// the current series from the upstream gateway and upserts the bars.
func (h *Handler) SaveMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "daily"
	}

	bars := h.bars.GetHistoricalData(r.Context(), symbol, interval)
	if len(bars) == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no market data available for %s", symbol))
		return
	}
	if err := h.marketData.SaveMarketDataBatch(r.Context(), bars); err != nil {
		logger.Error(r.Context(), "failed to save market data", "symbol", symbol, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save market data")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"symbol": symbol, "saved": len(bars)})
}

// GetMarketData handles GET /api/v1/market/data/{symbol}, newest bars first.
func (h *Handler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit := queryInt(r, "limit", defaultBarsLimit)

	bars, err := h.marketData.GetMarketDataBySymbol(r.Context(), symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query market data")
		return
	}
	respondJSON(w, http.StatusOK, bars)
}

// GetLatestMarketData handles GET /api/v1/market/data/{symbol}/latest.
func (h *Handler) GetLatestMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	bar, err := h.marketData.GetLatestMarketData(r.Context(), symbol)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query market data")
		return
	}
	if bar == nil {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no stored market data for %s", symbol))
		return
	}
	respondJSON(w, http.StatusOK, bar)
}

// CalculateIndicator handles POST /api/v1/indicators/calculate. It computes a
// single reading without deriving or persisting a signal.
func (h *Handler) CalculateIndicator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Kind     string `json:"kind"`
		Period   int    `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Interval == "" {
		req.Interval = "daily"
	}
	kind, err := models.ParseIndicatorKind(req.Kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported indicator %q", req.Kind))
		return
	}
	if kind.NeedsPeriod() && (req.Period < minPeriod || req.Period > maxPeriod) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("indicator %s period must be between %d and %d", kind, minPeriod, maxPeriod))
		return
	}

	ind := &models.Indicator{
		Symbol:   req.Symbol,
		Kind:     kind,
		Period:   signal.EffectivePeriod(kind, req.Period),
		Interval: req.Interval,
	}
	if kind.IsComplex() {
		h.calculator.ComputeComplex(r.Context(), ind)
	} else {
		ind.SetValue(h.calculator.Compute(r.Context(), ind))
	}
	respondJSON(w, http.StatusOK, ind)
}

// GetSymbols handles GET /api/v1/symbols.
func (h *Handler) GetSymbols(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.listings.All(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load symbol catalog")
		return
	}
	respondJSON(w, http.StatusOK, catalog)
}

// GetPopularSymbols handles GET /api/v1/symbols/popular.
func (h *Handler) GetPopularSymbols(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.listings.Popular(r.Context()))
}

// GetHistory handles GET /api/v1/history for the authenticated user.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), usernameFrom(r.Context()))
	if err != nil || user == nil {
		respondError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	limit := queryInt(r, "limit", defaultHistoryLimit)
	history, err := h.history.GetUserHistory(r.Context(), user.ID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// recordHistory writes the audit row for an authenticated signal request.
// History is best effort; a write failure never fails the request.
func (h *Handler) recordHistory(r *http.Request, req signal.Request, result *signal.Result) {
	username := usernameFrom(r.Context())
	if username == "" {
		return
	}
	user, err := h.users.GetUserByUsername(r.Context(), username)
	if err != nil || user == nil {
		return
	}

	entry := &models.UserHistory{
		UserID:              user.ID,
		Symbol:              req.Symbol,
		FirstIndicatorType:  string(req.Indicators[0].Kind),
		FirstPeriod:         result.Indicators[0].Period,
		SecondIndicatorType: string(req.Indicators[1].Kind),
		SecondPeriod:        result.Indicators[1].Period,
		ThirdIndicatorType:  string(req.Indicators[2].Kind),
		ThirdPeriod:         result.Indicators[2].Period,
		Interval:            req.Interval,
		RequestTime:         time.Now(),
		Advice:              result.Signal.Description,
	}
	if err := h.history.SaveUserHistory(r.Context(), entry); err != nil {
		logger.Error(r.Context(), "failed to record user history", "user", username, "error", err)
	}
}

func validateSignalRequest(req *signal.Request) error {
	if req.Symbol == "" {
		return errors.New("symbol is required")
	}
	if req.Interval == "" {
		req.Interval = "daily"
	}
	for i, ind := range req.Indicators {
		if ind.Kind == "" {
			return fmt.Errorf("indicator %d is required", i+1)
		}
		kind, err := models.ParseIndicatorKind(string(ind.Kind))
		if err != nil {
			return fmt.Errorf("unsupported indicator %q", ind.Kind)
		}
		req.Indicators[i].Kind = kind
		if kind.NeedsPeriod() && (ind.Period < minPeriod || ind.Period > maxPeriod) {
			return fmt.Errorf("indicator %s period must be between %d and %d", kind, minPeriod, maxPeriod)
		}
	}
	return nil
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	from, err := time.Parse(layout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", fromStr)
	}
	to, err := time.Parse(layout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", toStr)
	}
	// Make the range inclusive of the whole end day.
	to = to.Add(24*time.Hour - time.Nanosecond)
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to date precedes from date")
	}
	return from, to, nil
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func quoteResponse(symbol string, price float64, cached bool) map[string]any {
	return map[string]any{
		"symbol": symbol,
		"price":  price,
		"cached": cached,
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
