package handlers

import (
	"errors"
	"net/http"

	"github.com/finsight/finsight-go/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReportsHandler serves direct report lookups.
type ReportsHandler struct {
	reports ReportStore
	logger  *logrus.Logger
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(reports ReportStore, logger *logrus.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, logger: logger}
}

// GetReport returns a report by its id.
func (h *ReportsHandler) GetReport(c *gin.Context) {
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
