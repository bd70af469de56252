package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/K1rm7n/TradeBack/internal/advisor"
	"github.com/K1rm7n/TradeBack/internal/api"
	"github.com/K1rm7n/TradeBack/internal/auth"
	"github.com/K1rm7n/TradeBack/internal/cache"
	"github.com/K1rm7n/TradeBack/internal/config"
	"github.com/K1rm7n/TradeBack/internal/database"
	"github.com/K1rm7n/TradeBack/internal/indicator"
	"github.com/K1rm7n/TradeBack/internal/kafka"
	"github.com/K1rm7n/TradeBack/internal/listings"
	"github.com/K1rm7n/TradeBack/internal/logger"
	"github.com/K1rm7n/TradeBack/internal/marketcal"
	"github.com/K1rm7n/TradeBack/internal/marketdata"
	"github.com/K1rm7n/TradeBack/internal/signal"
)

const migrationsPath = "db/migrations"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	if err := logger.Init(); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Shutdown(ctx)

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(migrationsPath); err != nil {
		logger.Error(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Redis is optional; the quote path works uncached without it.
	var quoteCache api.QuoteCache
	var listingsCache listings.Cache
	if c, err := cache.New(ctx, cfg.Redis); err != nil {
		logger.Warn(ctx, "redis unavailable, running without cache", "error", err)
	} else {
		defer c.Close()
		quoteCache = c
		listingsCache = c
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	listingSvc := listings.NewService(db, listingsCache, cfg.AlphaVantage)
	if err := listingSvc.Seed(ctx); err != nil {
		logger.Error(ctx, "failed to seed listings catalog", "error", err)
		os.Exit(1)
	}

	calendar := loadCalendar(ctx, cfg.Market.CalendarPath)
	marketSvc, err := marketcal.New(calendar)
	if err != nil {
		logger.Error(ctx, "failed to build market calendar", "error", err)
		os.Exit(1)
	}

	mdClient := marketdata.NewClient(cfg.AlphaVantage)
	calculator := indicator.NewCalculator(cfg.AlphaVantage)
	generator := advisor.NewGroqClient(cfg.Groq)
	deriver := signal.NewDeriver(calculator, mdClient, generator, marketSvc, db, producer)
	authSvc := auth.NewService(db, cfg.Auth)

	handler := api.NewHandler(api.Deps{
		Deriver:    deriver,
		Calculator: calculator,
		Signals:    db,
		History:    db,
		MarketData: db,
		Bars:       mdClient,
		Users:      db,
		Auth:       authSvc,
		Listings:   listingSvc,
		Market:     marketSvc,
		Quotes:     mdClient,
		QuoteCache: quoteCache,
	})
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	ossignal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "graceful shutdown failed", "error", err)
	}
}

// loadCalendar reads the configured calendar file, falling back to the
// built-in one when no path is set or the file cannot be read.
func loadCalendar(ctx context.Context, path string) *marketcal.Calendar {
	if path == "" {
		return marketcal.DefaultCalendar()
	}
	cal, err := marketcal.LoadCalendar(path)
	if err != nil {
		logger.Warn(ctx, "failed to load calendar file, using built-in calendar",
			"path", path, "error", err)
		return marketcal.DefaultCalendar()
	}
	return cal
}
