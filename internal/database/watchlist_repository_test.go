package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlistRepositoryAddTicker(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWatchlistRepository(mock)

	mock.ExpectQuery(`INSERT INTO watchlist_items`).
		WithArgs(pgxmock.AnyArg(), "user-1", "AAPL").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "ticker", "created_at"}).
			AddRow("item-1", "user-1", "AAPL", time.Now()))

	item, err := repo.AddTicker(context.Background(), "user-1", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", item.Ticker)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchlistRepositoryListTickers(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWatchlistRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "user_id", "ticker", "created_at"}).
		AddRow("item-2", "user-1", "MSFT", time.Now()).
		AddRow("item-1", "user-1", "AAPL", time.Now().Add(-time.Hour))
	mock.ExpectQuery(`FROM watchlist_items`).
		WithArgs("user-1").
		WillReturnRows(rows)

	items, err := repo.ListTickers(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "MSFT", items[0].Ticker)
}

func TestWatchlistRepositoryRemoveTicker(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWatchlistRepository(mock)

	mock.ExpectExec(`DELETE FROM watchlist_items`).
		WithArgs("user-1", "AAPL").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.RemoveTicker(context.Background(), "user-1", "AAPL"))

	mock.ExpectExec(`DELETE FROM watchlist_items`).
		WithArgs("user-1", "TSLA").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.RemoveTicker(context.Background(), "user-1", "TSLA"), ErrNotFound)
}
