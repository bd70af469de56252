// Package listings maintains the tradable-symbol catalog. The catalog seeds
// once at startup from the upstream listing feed and falls back to a built-in
// set when the feed is unavailable, so symbol lookups always work.
package listings

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/models"
)

// Store is the persistence surface the service needs.
type Store interface {
	CountListings(ctx context.Context) (int, error)
	SaveListingsBatch(ctx context.Context, listings []models.Listing) error
	GetAllListings(ctx context.Context) ([]*models.Listing, error)
	GetListingBySymbol(ctx context.Context, symbol string) (*models.Listing, error)
}

// Cache is the optional read-through cache for the catalog.
type Cache interface {
	GetListings(ctx context.Context) ([]*models.Listing, bool)
	SetListings(ctx context.Context, listings []*models.Listing)
}

// Service serves and seeds the catalog.
type Service struct {
	store      Store
	cache      Cache
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewService creates a listings service. Cache may be nil.
func NewService(store Store, cache Cache, cfg config.AlphaVantageConfig) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Seed populates the catalog if it is empty. An already-populated catalog is
// left untouched; re-seeding is an operational action, not a startup one.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.store.CountListings(ctx)
	if err != nil {
		return fmt.Errorf("failed to check listings count: %w", err)
	}
	if count > 0 {
		logger.Info(ctx, "listings catalog already seeded", "count", count)
		return nil
	}

	catalog, err := s.fetchCatalog(ctx)
	if err != nil {
		logger.Warn(ctx, "listing feed unavailable, seeding built-in fallback", "error", err)
		catalog = fallbackListings()
	}

	if err := s.store.SaveListingsBatch(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed listings: %w", err)
	}
	logger.Info(ctx, "seeded listings catalog", "count", len(catalog))
	return nil
}

// All returns the full catalog, cache first.
func (s *Service) All(ctx context.Context) ([]*models.Listing, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetListings(ctx); ok {
			return cached, nil
		}
	}
	listings, err := s.store.GetAllListings(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetListings(ctx, listings)
	}
	return listings, nil
}

// BySymbol returns one listing, nil when the symbol is not in the catalog.
func (s *Service) BySymbol(ctx context.Context, symbol string) (*models.Listing, error) {
	return s.store.GetListingBySymbol(ctx, symbol)
}

// Popular returns the curated set of frequently requested symbols. Names come
// from the catalog when present, from the curated table otherwise.
func (s *Service) Popular(ctx context.Context) []*models.Listing {
	result := make([]*models.Listing, 0, len(popularSymbols))
	for _, p := range popularSymbols {
		if l, err := s.store.GetListingBySymbol(ctx, p.symbol); err == nil && l != nil {
			result = append(result, l)
			continue
		}
		result = append(result, &models.Listing{Symbol: p.symbol, Name: p.name})
	}
	return result
}

// fetchCatalog downloads and parses the upstream listing feed (CSV).
func (s *Service) fetchCatalog(ctx context.Context) ([]models.Listing, error) {
	q := url.Values{}
	q.Set("function", "LISTING_STATUS")
	q.Set("state", "active")
	q.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseCatalogCSV(resp.Body)
}

// parseCatalogCSV reads the feed's CSV: symbol, name, exchange, assetType,
// ipoDate, delistingDate, status. Rows with missing columns are skipped.
func parseCatalogCSV(r io.Reader) ([]models.Listing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing feed: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("listing feed is empty")
	}

	listings := make([]models.Listing, 0, len(records)-1)
	for _, rec := range records[1:] { // skip header
		if len(rec) < 7 || rec[0] == "" {
			continue
		}
		l := models.Listing{
			Symbol:    rec[0],
			Name:      rec[1],
			Exchange:  rec[2],
			AssetType: rec[3],
			Status:    rec[6],
		}
		if t, err := time.Parse("2006-01-02", rec[4]); err == nil {
			l.IPODate = &t
		}
		if t, err := time.Parse("2006-01-02", rec[5]); err == nil {
			l.DelistingDate = &t
		}
		listings = append(listings, l)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("listing feed produced no usable rows")
	}
	return listings, nil
}

var popularSymbols = []struct{ symbol, name string }{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"GOOGL", "Alphabet Inc."},
	{"AMZN", "Amazon.com Inc."},
	{"TSLA", "Tesla Inc."},
	{"META", "Meta Platforms Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"BRK.B", "Berkshire Hathaway Inc."},
	{"UNH", "UnitedHealth Group Inc."},
	{"JNJ", "Johnson & Johnson"},
	{"JPM", "JPMorgan Chase & Co."},
	{"V", "Visa Inc."},
	{"PG", "Procter & Gamble Co."},
	{"XOM", "Exxon Mobil Corporation"},
	{"HD", "Home Depot Inc."},
	{"CVX", "Chevron Corporation"},
	{"MA", "Mastercard Inc."},
	{"PFE", "Pfizer Inc."},
	{"ABBV", "AbbVie Inc."},
	{"AVGO", "Broadcom Inc."},
	{"KO", "Coca-Cola Co."},
	{"COST", "Costco Wholesale Corporation"},
	{"PEP", "PepsiCo Inc."},
	{"TMO", "Thermo Fisher Scientific Inc."},
	{"MRK", "Merck & Co. Inc."},
}

// fallbackListings is the built-in seed used when the feed cannot be fetched.
func fallbackListings() []models.Listing {
	extra := []struct{ symbol, name string }{
		{"INTC", "Intel Corporation"},
		{"AMD", "Advanced Micro Devices Inc."},
		{"NFLX", "Netflix Inc."},
		{"DIS", "Walt Disney Co."},
		{"BA", "Boeing Co."},
	}
	listings := make([]models.Listing, 0, len(popularSymbols)+len(extra))
	for _, p := range popularSymbols {
		listings = append(listings, models.Listing{
			Symbol: p.symbol, Name: p.name, Exchange: "NASDAQ/NYSE", AssetType: "Stock", Status: "Active",
		})
	}
	for _, p := range extra {
		listings = append(listings, models.Listing{
			Symbol: p.symbol, Name: p.name, Exchange: "NASDAQ/NYSE", AssetType: "Stock", Status: "Active",
		})
	}
	return listings
}
