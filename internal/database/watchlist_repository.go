package database

import (
	"context"
	"fmt"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/google/uuid"
)

// WatchlistRepository handles persistence for user watchlists.
type WatchlistRepository struct {
	pool DatabasePool
}

// NewWatchlistRepository creates a new watchlist repository.
func NewWatchlistRepository(pool DatabasePool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// AddTicker adds a ticker to a user's watchlist. Adding a ticker that is
// already present returns the existing row.
func (r *WatchlistRepository) AddTicker(ctx context.Context, userID, ticker string) (*models.WatchlistItem, error) {
	query := `
		INSERT INTO watchlist_items (id, user_id, ticker)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, ticker) DO UPDATE SET ticker = EXCLUDED.ticker
		RETURNING id, user_id, ticker, created_at
	`

	var item models.WatchlistItem
	err := r.pool.QueryRow(ctx, query, uuid.New().String(), userID, ticker).Scan(
		&item.ID,
		&item.UserID,
		&item.Ticker,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add watchlist ticker: %w", err)
	}

	return &item, nil
}

// ListTickers returns a user's watchlist, most recently added first.
func (r *WatchlistRepository) ListTickers(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	query := `
		SELECT id, user_id, ticker, created_at
		FROM watchlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	defer rows.Close()

	var items []models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Ticker, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return items, nil
}

// RemoveTicker deletes a ticker from a user's watchlist.
func (r *WatchlistRepository) RemoveTicker(ctx context.Context, userID, ticker string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM watchlist_items WHERE user_id = $1 AND ticker = $2`, userID, ticker)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist ticker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
