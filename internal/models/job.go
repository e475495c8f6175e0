package models

import (
	"encoding/json"
	"time"
)

// Analysis job states. A job moves forward through the first five states;
// failed is reachable from any non-terminal state. complete and failed are
// terminal.
const (
	JobStatusPending          = "pending"
	JobStatusGatheringData    = "gathering_data"
	JobStatusAnalyzing        = "analyzing"
	JobStatusGeneratingReport = "generating_report"
	JobStatusComplete         = "complete"
	JobStatusFailed           = "failed"
)

// AnalysisJob tracks one analysis request through the pipeline. Status is
// mutated only by the pipeline for the duration of a single run.
type AnalysisJob struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Ticker    string    `json:"ticker" db:"ticker"`
	Status    string    `json:"status" db:"status"`
	ReportID  *string   `json:"report_id,omitempty" db:"report_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Report is the persisted pipeline output, immutable once created and linked
// 1:1 to its job.
type Report struct {
	ID        string          `json:"id" db:"id"`
	JobID     string          `json:"job_id" db:"job_id"`
	Content   string          `json:"content" db:"content"`
	ChartData json.RawMessage `json:"chart_data" db:"chart_data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// WatchlistItem is one ticker a user follows.
type WatchlistItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Ticker    string    `json:"ticker" db:"ticker"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AnalysisRequest is the body of POST /api/v1/analysis.
type AnalysisRequest struct {
	Ticker string `json:"ticker" binding:"required"`
	UserID string `json:"user_id"`
}

// WatchlistRequest is the body of POST /api/v1/watchlist.
type WatchlistRequest struct {
	Ticker string `json:"ticker" binding:"required"`
	UserID string `json:"user_id"`
}
