package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/K1rm7n/TradeBack/internal/models"
)

// SaveSignal inserts a derived signal and fills in its generated ID.
func (db *DB) SaveSignal(ctx context.Context, sig *models.Signal) error {
	query := `
		INSERT INTO signals (symbol, type, description, price, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		sig.Symbol, sig.Type, sig.Description, sig.Price, sig.Date,
	).Scan(&sig.ID)

	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}
	return nil
}

// GetSignalsBySymbol retrieves signals for a symbol, newest first.
func (db *DB) GetSignalsBySymbol(ctx context.Context, symbol string, limit int) ([]*models.Signal, error) {
	query := `
		SELECT id, symbol, type, description, price, date
		FROM signals
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetSignalsByDateRange retrieves signals for a symbol within [start, end].
func (db *DB) GetSignalsByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.Signal, error) {
	query := `
		SELECT id, symbol, type, description, price, date
		FROM signals
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get signals by date range: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetLatestSignal retrieves the newest signal for a symbol, nil when none.
func (db *DB) GetLatestSignal(ctx context.Context, symbol string) (*models.Signal, error) {
	signals, err := db.GetSignalsBySymbol(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return nil, nil
	}
	return signals[0], nil
}

func scanSignals(rows *sql.Rows) ([]*models.Signal, error) {
	var signals []*models.Signal
	for rows.Next() {
		var s models.Signal
		var typ string
		if err := rows.Scan(&s.ID, &s.Symbol, &typ, &s.Description, &s.Price, &s.Date); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.Type = models.ParseSignalType(typ)
		signals = append(signals, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", err)
	}
	return signals, nil
}
