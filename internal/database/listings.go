package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/K1rm7n/TradeBack/internal/models"
)

// CountListings returns the number of listings in the catalog.
func (db *DB) CountListings(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

// SaveListingsBatch upserts a batch of listings keyed by symbol.
func (db *DB) SaveListingsBatch(ctx context.Context, listings []models.Listing) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (symbol, name, exchange, asset_type, ipo_date, delisting_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			asset_type = EXCLUDED.asset_type,
			ipo_date = EXCLUDED.ipo_date,
			delisting_date = EXCLUDED.delisting_date,
			status = EXCLUDED.status
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range listings {
		_, err := stmt.ExecContext(ctx, l.Symbol, l.Name, l.Exchange, l.AssetType, l.IPODate, l.DelistingDate, l.Status)
		if err != nil {
			return fmt.Errorf("failed to insert listing %s: %w", l.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAllListings returns the full catalog ordered by symbol.
func (db *DB) GetAllListings(ctx context.Context) ([]*models.Listing, error) {
	query := `
		SELECT id, symbol, name, exchange, asset_type, ipo_date, delisting_date, status
		FROM listings
		ORDER BY symbol ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

// GetListingBySymbol returns one listing, nil when the symbol is unknown.
func (db *DB) GetListingBySymbol(ctx context.Context, symbol string) (*models.Listing, error) {
	query := `
		SELECT id, symbol, name, exchange, asset_type, ipo_date, delisting_date, status
		FROM listings
		WHERE symbol = $1
	`
	row := db.conn.QueryRowContext(ctx, query, symbol)

	var l models.Listing
	var exchange, assetType, status sql.NullString
	var ipoDate, delistingDate sql.NullTime
	err := row.Scan(&l.ID, &l.Symbol, &l.Name, &exchange, &assetType, &ipoDate, &delistingDate, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	applyNullables(&l, exchange, assetType, status, ipoDate, delistingDate)
	return &l, nil
}

func scanListing(rows *sql.Rows) (*models.Listing, error) {
	var l models.Listing
	var exchange, assetType, status sql.NullString
	var ipoDate, delistingDate sql.NullTime
	err := rows.Scan(&l.ID, &l.Symbol, &l.Name, &exchange, &assetType, &ipoDate, &delistingDate, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	applyNullables(&l, exchange, assetType, status, ipoDate, delistingDate)
	return &l, nil
}

func applyNullables(l *models.Listing, exchange, assetType, status sql.NullString, ipoDate, delistingDate sql.NullTime) {
	l.Exchange = exchange.String
	l.AssetType = assetType.String
	l.Status = status.String
	if ipoDate.Valid {
		t := ipoDate.Time
		l.IPODate = &t
	}
	if delistingDate.Valid {
		t := delistingDate.Time
		l.DelistingDate = &t
	}
}
