package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/K1rm7n/TradeBack/internal/models"
)

// SaveMarketData upserts one OHLCV bar keyed by (symbol, date).
func (db *DB) SaveMarketData(ctx context.Context, md *models.MarketData) error {
	query := `
		INSERT INTO market_data (symbol, date, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		md.Symbol, md.Date, md.Open, md.High, md.Low, md.Close, md.Volume, time.Now(),
	).Scan(&md.ID)

	if err != nil {
		return fmt.Errorf("failed to save market data: %w", err)
	}
	return nil
}

// SaveMarketDataBatch upserts multiple bars in one transaction.
func (db *DB) SaveMarketDataBatch(ctx context.Context, bars []models.MarketData) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_data (symbol, date, open, high, low, close, volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, md := range bars {
		_, err := stmt.ExecContext(ctx, md.Symbol, md.Date, md.Open, md.High, md.Low, md.Close, md.Volume, now)
		if err != nil {
			return fmt.Errorf("failed to insert market data for %s: %w", md.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMarketDataBySymbol retrieves bars for a symbol, newest first.
func (db *DB) GetMarketDataBySymbol(ctx context.Context, symbol string, limit int) ([]*models.MarketData, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, created_at
		FROM market_data
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}
	defer rows.Close()

	var bars []*models.MarketData
	for rows.Next() {
		var md models.MarketData
		if err := rows.Scan(&md.ID, &md.Symbol, &md.Date, &md.Open, &md.High, &md.Low, &md.Close, &md.Volume, &md.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan market data: %w", err)
		}
		bars = append(bars, &md)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market data: %w", err)
	}
	return bars, nil
}

// GetLatestMarketData retrieves the most recent bar for a symbol.
func (db *DB) GetLatestMarketData(ctx context.Context, symbol string) (*models.MarketData, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, created_at
		FROM market_data
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	var md models.MarketData
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(
		&md.ID, &md.Symbol, &md.Date, &md.Open, &md.High, &md.Low, &md.Close, &md.Volume, &md.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest market data: %w", err)
	}
	return &md, nil
}
