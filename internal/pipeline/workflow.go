package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	temporalworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"example.com/ecomdata/internal/dataset"
	"example.com/ecomdata/internal/exchange"
	"example.com/ecomdata/internal/generator"
	"example.com/ecomdata/internal/query"
	"example.com/ecomdata/internal/store"
)

const (
	workflowName         = "ecom.pipeline"
	generateActivityName = "ecom.pipeline.generate"
	ingestActivityName   = "ecom.pipeline.ingest"
	queriesActivityName  = "ecom.pipeline.run_queries"
	reportActivityName   = "ecom.pipeline.report"

	// errTypeInput marks failures that retrying cannot fix.
	errTypeInput = "PipelineInput"
)

// WorkflowInput selects which stages a pipeline run executes. Ingest and
// run-queries always run.
type WorkflowInput struct {
	Reason       string `json:"reason"`
	SkipGenerate bool   `json:"skip_generate"`
	SkipReport   bool   `json:"skip_report"`
}

type WorkflowResult struct {
	WorkflowID  string           `json:"workflow_id"`
	RunID       string           `json:"run_id"`
	Files       map[string]int   `json:"files,omitempty"`
	Tables      map[string]int64 `json:"tables"`
	Queries     []QueryOutcome   `json:"queries"`
	Report      *ReportSummary   `json:"report,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Activities exposes the runner stages as Temporal activities.
type Activities struct {
	runner *Runner
	logger *zap.Logger
}

func NewActivities(runner *Runner, logger *zap.Logger) *Activities {
	return &Activities{runner: runner, logger: logger}
}

func (a *Activities) Generate(ctx context.Context, input WorkflowInput) (map[string]int, error) {
	files, err := a.runner.Generate(ctx)
	if err != nil {
		return nil, classify(err)
	}
	a.logger.Info("activity generate", zap.Any("files", files), zap.String("reason", input.Reason))
	return files, nil
}

func (a *Activities) Ingest(ctx context.Context, input WorkflowInput) (map[string]int64, error) {
	tables, err := a.runner.Ingest(ctx)
	if err != nil {
		return nil, classify(err)
	}
	a.logger.Info("activity ingest", zap.Any("tables", tables), zap.String("reason", input.Reason))
	return tables, nil
}

func (a *Activities) RunQueries(ctx context.Context, input WorkflowInput) ([]QueryOutcome, error) {
	outcomes, err := a.runner.RunQueries(ctx)
	if err != nil {
		return nil, classify(err)
	}
	a.logger.Info("activity run queries", zap.Int("queries", len(outcomes)), zap.String("reason", input.Reason))
	return outcomes, nil
}

func (a *Activities) Report(ctx context.Context, input WorkflowInput) (ReportSummary, error) {
	summary, err := a.runner.Report(ctx)
	if err != nil {
		return ReportSummary{}, classify(err)
	}
	a.logger.Info("activity report", zap.String("workbook", summary.Workbook), zap.String("reason", input.Reason))
	return summary, nil
}

// classify turns missing-input and invariant failures into non-retryable
// application errors.
func classify(err error) error {
	switch {
	case errors.Is(err, exchange.ErrMissingFile),
		errors.Is(err, store.ErrStoreMissing),
		errors.Is(err, query.ErrQueryMissing),
		errors.Is(err, generator.ErrInvalidWeights),
		errors.Is(err, dataset.ErrInvariant):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeInput, err)
	}
	return err
}

// PipelineWorkflow runs generate, ingest, run-queries and report in order and
// stops at the first failing stage.
func PipelineWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			NonRetryableErrorTypes: []string{errTypeInput},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	result := WorkflowResult{StartedAt: workflow.Now(ctx)}
	logger.Info("pipeline workflow started", "reason", input.Reason, "skip_generate", input.SkipGenerate, "skip_report", input.SkipReport)

	if !input.SkipGenerate {
		if err := workflow.ExecuteActivity(ctx, generateActivityName, input).Get(ctx, &result.Files); err != nil {
			logger.Error("generate activity failed", "error", err)
			return result, err
		}
	}

	if err := workflow.ExecuteActivity(ctx, ingestActivityName, input).Get(ctx, &result.Tables); err != nil {
		logger.Error("ingest activity failed", "error", err)
		return result, err
	}

	if err := workflow.ExecuteActivity(ctx, queriesActivityName, input).Get(ctx, &result.Queries); err != nil {
		logger.Error("run queries activity failed", "error", err)
		return result, err
	}

	if !input.SkipReport {
		var summary ReportSummary
		if err := workflow.ExecuteActivity(ctx, reportActivityName, input).Get(ctx, &summary); err != nil {
			logger.Error("report activity failed", "error", err)
			return result, err
		}
		result.Report = &summary
	}

	result.CompletedAt = workflow.Now(ctx)
	logger.Info("pipeline workflow finished", "reason", input.Reason, "tables", len(result.Tables), "queries", len(result.Queries))
	return result, nil
}

// RegisterPipelineWorker wires a Temporal worker for the pipeline task queue.
func RegisterPipelineWorker(c client.Client, taskQueue string, runner *Runner, logger *zap.Logger) temporalworker.Worker {
	w := temporalworker.New(c, taskQueue, temporalworker.Options{})
	w.RegisterWorkflowWithOptions(PipelineWorkflow, workflow.RegisterOptions{Name: workflowName})
	registerActivities(w, NewActivities(runner, logger.With(zap.String("component", "pipeline.activities"))))
	return w
}

type activityRegistry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

func registerActivities(r activityRegistry, a *Activities) {
	r.RegisterActivityWithOptions(a.Generate, activity.RegisterOptions{Name: generateActivityName})
	r.RegisterActivityWithOptions(a.Ingest, activity.RegisterOptions{Name: ingestActivityName})
	r.RegisterActivityWithOptions(a.RunQueries, activity.RegisterOptions{Name: queriesActivityName})
	r.RegisterActivityWithOptions(a.Report, activity.RegisterOptions{Name: reportActivityName})
}

// TemporalOrchestrator starts pipeline workflows and waits for their result.
type TemporalOrchestrator struct {
	client    client.Client
	taskQueue string
	logger    *zap.Logger
}

func NewTemporalOrchestrator(c client.Client, taskQueue string, logger *zap.Logger) *TemporalOrchestrator {
	return &TemporalOrchestrator{client: c, taskQueue: taskQueue, logger: logger.With(zap.String("component", "pipeline.orchestrator"))}
}

func (o *TemporalOrchestrator) Run(ctx context.Context, input WorkflowInput) (WorkflowResult, error) {
	workflowID := fmt.Sprintf("ecom-pipeline-%d", time.Now().UnixNano())
	options := client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                o.taskQueue,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionTimeout: 30 * time.Minute,
	}
	we, err := o.client.ExecuteWorkflow(ctx, options, workflowName, input)
	if err != nil {
		o.logger.Error("start workflow failed", zap.Error(err))
		return WorkflowResult{}, err
	}
	var result WorkflowResult
	err = we.Get(ctx, &result)
	result.WorkflowID = we.GetID()
	result.RunID = we.GetRunID()
	if err != nil {
		o.logger.Error("wait workflow failed", zap.String("workflow_id", result.WorkflowID), zap.Error(err))
		return result, err
	}
	o.logger.Info("workflow completed", zap.String("workflow_id", result.WorkflowID), zap.String("run_id", result.RunID))
	return result, nil
}
