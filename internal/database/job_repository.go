package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsight/finsight-go/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// JobRepository handles persistence for analysis jobs. The pipeline is its
// only writer while a job is running.
type JobRepository struct {
	pool DatabasePool
}

// NewJobRepository creates a new job repository.
func NewJobRepository(pool DatabasePool) *JobRepository {
	return &JobRepository{pool: pool}
}

// CreateJob inserts a new job in the pending state and returns it.
func (r *JobRepository) CreateJob(ctx context.Context, userID, ticker string) (*models.AnalysisJob, error) {
	query := `
		INSERT INTO analysis_jobs (id, user_id, ticker, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, ticker, status, created_at
	`

	var job models.AnalysisJob
	err := r.pool.QueryRow(ctx, query, uuid.New().String(), userID, ticker, models.JobStatusPending).Scan(
		&job.ID,
		&job.UserID,
		&job.Ticker,
		&job.Status,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}

	return &job, nil
}

// GetJob returns a job by id, including its report id when one exists.
func (r *JobRepository) GetJob(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	query := `
		SELECT j.id, j.user_id, j.ticker, j.status, j.created_at, rep.id
		FROM analysis_jobs j
		LEFT JOIN reports rep ON rep.job_id = j.id
		WHERE j.id = $1
	`

	var job models.AnalysisJob
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID,
		&job.UserID,
		&job.Ticker,
		&job.Status,
		&job.CreatedAt,
		&job.ReportID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis job: %w", err)
	}

	return &job, nil
}

// ListJobs returns a user's jobs, most recent first.
func (r *JobRepository) ListJobs(ctx context.Context, userID string, limit int) ([]models.AnalysisJob, error) {
	query := `
		SELECT j.id, j.user_id, j.ticker, j.status, j.created_at, rep.id
		FROM analysis_jobs j
		LEFT JOIN reports rep ON rep.job_id = j.id
		WHERE j.user_id = $1
		ORDER BY j.created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.AnalysisJob
	for rows.Next() {
		var job models.AnalysisJob
		if err := rows.Scan(&job.ID, &job.UserID, &job.Ticker, &job.Status, &job.CreatedAt, &job.ReportID); err != nil {
			return nil, fmt.Errorf("failed to scan analysis job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis jobs: %w", err)
	}

	return jobs, nil
}

// UpdateStatus moves a job to a new state. Safe to call once per phase.
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE analysis_jobs SET status = $2 WHERE id = $1`, jobID, status)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
