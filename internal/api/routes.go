package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Logging)

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Auth routes
	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	authRoutes.HandleFunc("/register", handler.Register).Methods("POST")
	authRoutes.HandleFunc("/login", handler.Login).Methods("POST")

	// Versioned API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/signals", handler.Authenticated(handler.GenerateSignal)).Methods("POST")
	api.HandleFunc("/signals/{symbol}", handler.GetSignals).Methods("GET")
	api.HandleFunc("/indicators/calculate", handler.CalculateIndicator).Methods("POST")
	api.HandleFunc("/market/status", handler.MarketStatus).Methods("GET")
	api.HandleFunc("/market/quote/{symbol}", handler.GetQuote).Methods("GET")
	api.HandleFunc("/market/data/{symbol}/save", handler.Authenticated(handler.SaveMarketData)).Methods("POST")
	api.HandleFunc("/market/data/{symbol}/latest", handler.GetLatestMarketData).Methods("GET")
	api.HandleFunc("/market/data/{symbol}", handler.GetMarketData).Methods("GET")
	api.HandleFunc("/symbols", handler.GetSymbols).Methods("GET")
	api.HandleFunc("/symbols/popular", handler.GetPopularSymbols).Methods("GET")
	api.HandleFunc("/history", handler.Authenticated(handler.GetHistory)).Methods("GET")

	return r
}
