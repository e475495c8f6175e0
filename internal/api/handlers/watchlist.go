package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/finsight/finsight-go/internal/database"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WatchlistStore is the watchlist persistence surface.
type WatchlistStore interface {
	AddTicker(ctx context.Context, userID, ticker string) (*models.WatchlistItem, error)
	ListTickers(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	RemoveTicker(ctx context.Context, userID, ticker string) error
}

// WatchlistHandler serves the watchlist CRUD endpoints.
type WatchlistHandler struct {
	store  WatchlistStore
	logger *logrus.Logger
}

// NewWatchlistHandler creates a watchlist handler.
func NewWatchlistHandler(store WatchlistStore, logger *logrus.Logger) *WatchlistHandler {
	return &WatchlistHandler{store: store, logger: logger}
}

// AddTicker adds a ticker to the user's watchlist. Adding a ticker that is
// already watched returns the existing entry.
func (h *WatchlistHandler) AddTicker(c *gin.Context) {
	var req models.WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	item, err := h.store.AddTicker(c.Request.Context(), userID, ticker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to add watchlist ticker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add ticker"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListTickers returns the user's watchlist.
func (h *WatchlistHandler) ListTickers(c *gin.Context) {
	userID := c.DefaultQuery("user_id", defaultUserID)

	items, err := h.store.ListTickers(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list watchlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// RemoveTicker removes a ticker from the user's watchlist.
func (h *WatchlistHandler) RemoveTicker(c *gin.Context) {
	userID := c.DefaultQuery("user_id", defaultUserID)
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))

	if err := h.store.RemoveTicker(c.Request.Context(), userID, ticker); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticker not on watchlist"})
			return
		}
		h.logger.WithError(err).Error("Failed to remove watchlist ticker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove ticker"})
		return
	}
	c.Status(http.StatusNoContent)
}
