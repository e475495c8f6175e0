package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReportRepository handles persistence for finished reports.
type ReportRepository struct {
	pool DatabasePool
}

// NewReportRepository creates a new report repository.
func NewReportRepository(pool DatabasePool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// CreateReport stores the rendered markdown and the chart-data projection
// for a job. Reports are immutable; the unique job_id constraint makes a
// second write for the same job fail rather than overwrite.
func (r *ReportRepository) CreateReport(ctx context.Context, jobID, content string, chartData json.RawMessage) (*models.Report, error) {
	query := `
		INSERT INTO reports (id, job_id, content, chart_data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, job_id, content, chart_data, created_at
	`

	var report models.Report
	err := r.pool.QueryRow(ctx, query, uuid.New().String(), jobID, content, chartData).Scan(
		&report.ID,
		&report.JobID,
		&report.Content,
		&report.ChartData,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return &report, nil
}

// GetReport returns a report by its own id.
func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (*models.Report, error) {
	return r.getByColumn(ctx, "id", reportID)
}

// GetReportByJob returns the report linked to a job.
func (r *ReportRepository) GetReportByJob(ctx context.Context, jobID string) (*models.Report, error) {
	return r.getByColumn(ctx, "job_id", jobID)
}

func (r *ReportRepository) getByColumn(ctx context.Context, column, value string) (*models.Report, error) {
	query := fmt.Sprintf(
		`SELECT id, job_id, content, chart_data, created_at FROM reports WHERE %s = $1`, column,
	)

	var report models.Report
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&report.ID,
		&report.JobID,
		&report.Content,
		&report.ChartData,
		&report.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report, nil
}
