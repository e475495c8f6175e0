package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/finsight/finsight-go/internal/config"
	"github.com/finsight/finsight-go/internal/models"
	"github.com/sirupsen/logrus"
)

// DatasetProvider assembles the raw dataset for a ticker. Implementations
// must return time series newest first and represent unknown statement
// values as nil, never zero.
type DatasetProvider interface {
	FetchDataset(ctx context.Context, ticker string) (*models.RawDataset, error)
}

// JobStatusSink persists job status transitions.
type JobStatusSink interface {
	UpdateStatus(ctx context.Context, jobID, status string) error
}

// ReportSink persists the finished report with its chart projection.
type ReportSink interface {
	CreateReport(ctx context.Context, jobID, content string, chartData json.RawMessage) (*models.Report, error)
}

// PhaseError marks which pipeline phase failed. The orchestrator records
// the job as failed and surfaces the phase to callers.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("pipeline phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// PipelineOrchestrator drives one analysis job through the state machine:
// fetch the dataset, run the five engines, synthesize, persist the report.
// A job id is owned by exactly one run; status writes happen at phase
// boundaries before the phase's work begins.
type PipelineOrchestrator struct {
	provider  DatasetProvider
	jobs      JobStatusSink
	reports   ReportSink
	ratio     *RatioEngine
	technical *TechnicalEngine
	risk      *RiskEngine
	valuation *ValuationEngine
	sentiment *SentimentEngine
	synthesis *SynthesisEngine

	chartPoints int
	logger      *logrus.Logger
}

// NewPipelineOrchestrator wires the orchestrator with its collaborators and
// a full engine set built from the analysis tunables.
func NewPipelineOrchestrator(
	provider DatasetProvider,
	jobs JobStatusSink,
	reports ReportSink,
	cfg config.AnalysisConfig,
	logger *logrus.Logger,
) *PipelineOrchestrator {
	return &PipelineOrchestrator{
		provider:    provider,
		jobs:        jobs,
		reports:     reports,
		ratio:       NewRatioEngine(cfg, logger),
		technical:   NewTechnicalEngine(DefaultTechnicalParams(), logger),
		risk:        NewRiskEngine(cfg, logger),
		valuation:   NewValuationEngine(cfg, logger),
		sentiment:   NewSentimentEngine(cfg, logger),
		synthesis:   NewSynthesisEngine(logger),
		chartPoints: cfg.ChartPricePoints,
		logger:      logger,
	}
}

// engineResults joins the five independent engine outputs before synthesis.
type engineResults struct {
	metrics   models.MetricGroups
	technical models.TechnicalResult
	risk      models.RiskResult
	valuation models.ValuationResult
	sentiment models.SentimentResult
}

// Run executes the full pipeline for one job. Any error or panic inside a
// phase marks the job failed; a failed job never gets a report.
func (o *PipelineOrchestrator) Run(ctx context.Context, job *models.AnalysisJob) (err error) {
	log := o.logger.WithFields(logrus.Fields{
		"job_id": job.ID,
		"ticker": job.Ticker,
	})
	log.Info("Starting analysis pipeline")

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Analysis pipeline panicked")
			o.markFailed(job.ID)
			err = &PhaseError{Phase: "pipeline", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if updateErr := o.jobs.UpdateStatus(ctx, job.ID, models.JobStatusGatheringData); updateErr != nil {
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusGatheringData, Err: updateErr}
	}
	dataset, fetchErr := o.provider.FetchDataset(ctx, job.Ticker)
	if fetchErr != nil {
		log.WithError(fetchErr).Error("Data gathering failed")
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusGatheringData, Err: fetchErr}
	}
	if dataset == nil || dataset.Profile == nil {
		log.Error("Essential data missing for ticker")
		o.markFailed(job.ID)
		return &PhaseError{
			Phase: models.JobStatusGatheringData,
			Err:   fmt.Errorf("could not retrieve essential data for ticker %q", job.Ticker),
		}
	}

	if updateErr := o.jobs.UpdateStatus(ctx, job.ID, models.JobStatusAnalyzing); updateErr != nil {
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusAnalyzing, Err: updateErr}
	}
	results, engineErr := o.runEngines(dataset)
	if engineErr != nil {
		log.WithError(engineErr).Error("Engine execution failed")
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusAnalyzing, Err: engineErr}
	}

	if updateErr := o.jobs.UpdateStatus(ctx, job.ID, models.JobStatusGeneratingReport); updateErr != nil {
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusGeneratingReport, Err: updateErr}
	}
	synthesis := o.synthesis.Compute(dataset, results.metrics, results.technical, results.risk, results.valuation, results.sentiment)

	chartData := BuildChartData(dataset, results.metrics, results.technical, results.risk, results.valuation, synthesis, o.chartPoints)
	chartJSON, marshalErr := json.Marshal(chartData)
	if marshalErr != nil {
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusGeneratingReport, Err: marshalErr}
	}

	report, persistErr := o.reports.CreateReport(ctx, job.ID, synthesis.Markdown, chartJSON)
	if persistErr != nil {
		log.WithError(persistErr).Error("Report persistence failed")
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusGeneratingReport, Err: persistErr}
	}
	if updateErr := o.jobs.UpdateStatus(ctx, job.ID, models.JobStatusComplete); updateErr != nil {
		o.markFailed(job.ID)
		return &PhaseError{Phase: models.JobStatusComplete, Err: updateErr}
	}

	log.WithFields(logrus.Fields{
		"report_id":      report.ID,
		"recommendation": synthesis.Recommendation,
	}).Info("Analysis pipeline complete")

	return nil
}

// RunAsync launches the pipeline as a fire-and-forget background task. The
// run detaches from the request context; a job runs to completion or
// failure once started.
func (o *PipelineOrchestrator) RunAsync(job *models.AnalysisJob) {
	go func() {
		if err := o.Run(context.Background(), job); err != nil {
			o.logger.WithError(err).WithField("job_id", job.ID).Error("Background analysis failed")
		}
	}()
}

// engineTask names one engine computation so a panic can be attributed.
type engineTask struct {
	name string
	run  func()
}

// runEngines executes the five independent engines in parallel. They share
// no mutable state; each goroutine writes a distinct result field.
func (o *PipelineOrchestrator) runEngines(dataset *models.RawDataset) (engineResults, error) {
	var results engineResults
	err := runEngineTasks([]engineTask{
		{"financial_metrics", func() { results.metrics = o.ratio.Compute(dataset) }},
		{"technical_analysis", func() { results.technical = o.technical.Compute(dataset) }},
		{"risk_assessment", func() { results.risk = o.risk.Compute(dataset) }},
		{"valuation", func() { results.valuation = o.valuation.Compute(dataset) }},
		{"sentiment", func() { results.sentiment = o.sentiment.Compute(dataset.News) }},
	})
	return results, err
}

// runEngineTasks runs the tasks concurrently and waits for all of them. A
// recover deferred on the caller's goroutine cannot see a panic raised in a
// spawned one, so each task carries its own recover and reports the panic as
// an error.
func runEngineTasks(tasks []engineTask) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []string
	wg.Add(len(tasks))

	for _, task := range tasks {
		go func(task engineTask) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					failures = append(failures, fmt.Sprintf("%s: %v", task.name, r))
					mu.Unlock()
				}
			}()
			task.run()
		}(task)
	}
	wg.Wait()

	if len(failures) == 0 {
		return nil
	}
	sort.Strings(failures)
	return fmt.Errorf("engine panic: %s", strings.Join(failures, "; "))
}

// markFailed records the terminal failed status with a context detached
// from the (possibly cancelled) run context.
func (o *PipelineOrchestrator) markFailed(jobID string) {
	if err := o.jobs.UpdateStatus(context.Background(), jobID, models.JobStatusFailed); err != nil {
		o.logger.WithError(err).WithField("job_id", jobID).Error("Failed to record job failure")
	}
}
