package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsight/finsight-go/internal/database"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatchlistStore struct {
	items map[string][]models.WatchlistItem
}

func (s *fakeWatchlistStore) AddTicker(ctx context.Context, userID, ticker string) (*models.WatchlistItem, error) {
	item := models.WatchlistItem{ID: "item-1", UserID: userID, Ticker: ticker}
	if s.items == nil {
		s.items = map[string][]models.WatchlistItem{}
	}
	s.items[userID] = append(s.items[userID], item)
	return &item, nil
}

func (s *fakeWatchlistStore) ListTickers(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return s.items[userID], nil
}

func (s *fakeWatchlistStore) RemoveTicker(ctx context.Context, userID, ticker string) error {
	for i, item := range s.items[userID] {
		if item.Ticker == ticker {
			s.items[userID] = append(s.items[userID][:i], s.items[userID][i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func newWatchlistRouter(store *fakeWatchlistStore) *gin.Engine {
	handler := NewWatchlistHandler(store, testLogger())
	router := gin.New()
	router.POST("/watchlist", handler.AddTicker)
	router.GET("/watchlist", handler.ListTickers)
	router.DELETE("/watchlist/:ticker", handler.RemoveTicker)
	return router
}

func TestWatchlistAddTicker(t *testing.T) {
	store := &fakeWatchlistStore{}
	router := newWatchlistRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"ticker":"aapl"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var item models.WatchlistItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "AAPL", item.Ticker)
	assert.Equal(t, "anonymous", item.UserID)
}

func TestWatchlistAddTickerValidation(t *testing.T) {
	router := newWatchlistRouter(&fakeWatchlistStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/watchlist", strings.NewReader(`{"ticker":""}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatchlistListTickers(t *testing.T) {
	store := &fakeWatchlistStore{items: map[string][]models.WatchlistItem{
		"anonymous": {
			{ID: "item-1", UserID: "anonymous", Ticker: "AAPL"},
			{ID: "item-2", UserID: "anonymous", Ticker: "MSFT"},
		},
	}}
	router := newWatchlistRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/watchlist", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Items []models.WatchlistItem `json:"items"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
}

func TestWatchlistRemoveTicker(t *testing.T) {
	store := &fakeWatchlistStore{items: map[string][]models.WatchlistItem{
		"anonymous": {{ID: "item-1", UserID: "anonymous", Ticker: "AAPL"}},
	}}
	router := newWatchlistRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/watchlist/aapl", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/watchlist/AAPL", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
