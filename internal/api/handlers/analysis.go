package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/finsight/finsight-go/internal/database"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultUserID   = "anonymous"
	defaultJobLimit = 50
)

// JobStore is the job persistence surface the analysis handler needs.
type JobStore interface {
	CreateJob(ctx context.Context, userID, ticker string) (*models.AnalysisJob, error)
	GetJob(ctx context.Context, jobID string) (*models.AnalysisJob, error)
	ListJobs(ctx context.Context, userID string, limit int) ([]models.AnalysisJob, error)
}

// ReportStore is the report read surface.
type ReportStore interface {
	GetReport(ctx context.Context, reportID string) (*models.Report, error)
	GetReportByJob(ctx context.Context, jobID string) (*models.Report, error)
}

// AnalysisRunner launches a pipeline run in the background.
type AnalysisRunner interface {
	RunAsync(job *models.AnalysisJob)
}

// AnalysisHandler serves the analysis job endpoints.
type AnalysisHandler struct {
	jobs    JobStore
	reports ReportStore
	runner  AnalysisRunner
	logger  *logrus.Logger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(jobs JobStore, reports ReportStore, runner AnalysisRunner, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		jobs:    jobs,
		reports: reports,
		runner:  runner,
		logger:  logger,
	}
}

// CreateAnalysis kicks off a new analysis job for a ticker. The job is
// persisted as pending and the pipeline runs in the background.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var req models.AnalysisRequest
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

	job, err := h.jobs.CreateJob(c.Request.Context(), userID, ticker)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create analysis job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create analysis job"})
		return
	}

	h.runner.RunAsync(job)

	c.JSON(http.StatusAccepted, job)
}

// GetJob returns a single job with its current status.
func (h *AnalysisHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to load analysis job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analysis job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs returns a user's jobs, newest first.
func (h *AnalysisHandler) ListJobs(c *gin.Context) {
	userID := c.DefaultQuery("user_id", defaultUserID)
	limit := defaultJobLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list analysis jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analysis jobs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetJobReport returns the report produced by a completed job.
func (h *AnalysisHandler) GetJobReport(c *gin.Context) {
	report, err := h.reports.GetReportByJob(c.Request.Context(), c.Param("id"))
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
