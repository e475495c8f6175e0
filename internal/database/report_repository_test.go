package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryCreateReport(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReportRepository(mock)

	chart := json.RawMessage(`{"ticker":"AAPL"}`)
	mock.ExpectQuery(`INSERT INTO reports`).
		WithArgs(pgxmock.AnyArg(), "job-1", "# Report", chart).
		WillReturnRows(pgxmock.NewRows([]string{"id", "job_id", "content", "chart_data", "created_at"}).
			AddRow("report-1", "job-1", "# Report", []byte(`{"ticker":"AAPL"}`), time.Now()))

	report, err := repo.CreateReport(context.Background(), "job-1", "# Report", chart)
	require.NoError(t, err)
	assert.Equal(t, "report-1", report.ID)
	assert.Equal(t, "job-1", report.JobID)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, string(report.ChartData))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetReport(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReportRepository(mock)

	mock.ExpectQuery(`FROM reports WHERE id = \$1`).
		WithArgs("report-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "job_id", "content", "chart_data", "created_at"}).
			AddRow("report-1", "job-1", "# Report", []byte(`{}`), time.Now()))

	report, err := repo.GetReport(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Equal(t, "# Report", report.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetReportByJob(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReportRepository(mock)

	mock.ExpectQuery(`FROM reports WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "job_id", "content", "chart_data", "created_at"}).
			AddRow("report-1", "job-1", "# Report", []byte(`{}`), time.Now()))

	report, err := repo.GetReportByJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "report-1", report.ID)
}

func TestReportRepositoryGetReportNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewReportRepository(mock)

	mock.ExpectQuery(`FROM reports WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	report, err := repo.GetReport(context.Background(), "missing")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrNotFound)
}
