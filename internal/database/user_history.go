package database

import (
	"context"
	"fmt"

	"github.com/K1rm7n/TradeBack/internal/models"
)

// SaveUserHistory records one signal request made by a user.
func (db *DB) SaveUserHistory(ctx context.Context, h *models.UserHistory) error {
	query := `
		INSERT INTO user_history (
			user_id, symbol,
			first_indicator_type, first_period,
			second_indicator_type, second_period,
			third_indicator_type, third_period,
			interval, request_time, advice
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		h.UserID, h.Symbol,
		h.FirstIndicatorType, h.FirstPeriod,
		h.SecondIndicatorType, h.SecondPeriod,
		h.ThirdIndicatorType, h.ThirdPeriod,
		h.Interval, h.RequestTime, h.Advice,
	).Scan(&h.ID)

	if err != nil {
		return fmt.Errorf("failed to save user history: %w", err)
	}
	return nil
}

// GetUserHistory retrieves a user's request history, newest first.
func (db *DB) GetUserHistory(ctx context.Context, userID, limit int) ([]*models.UserHistory, error) {
	query := `
		SELECT id, user_id, symbol,
			first_indicator_type, first_period,
			second_indicator_type, second_period,
			third_indicator_type, third_period,
			interval, request_time, advice
		FROM user_history
		WHERE user_id = $1
		ORDER BY request_time DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user history: %w", err)
	}
	defer rows.Close()

	var history []*models.UserHistory
	for rows.Next() {
		var h models.UserHistory
		err := rows.Scan(
			&h.ID, &h.UserID, &h.Symbol,
			&h.FirstIndicatorType, &h.FirstPeriod,
			&h.SecondIndicatorType, &h.SecondPeriod,
			&h.ThirdIndicatorType, &h.ThirdPeriod,
			&h.Interval, &h.RequestTime, &h.Advice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user history: %w", err)
		}
		history = append(history, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user history: %w", err)
	}
	return history, nil
}
