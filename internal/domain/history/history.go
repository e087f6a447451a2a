// Package history records the outcome of each workflow run.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
)

// DefaultRetention is how many runs are kept when the project does not
// set history_retention.
const DefaultRetention = 50

// Repository errors.
var (
	ErrHistoryCorrupt = errors.New("history file is corrupt")
	ErrSaveFailed     = errors.New("failed to save history")
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Record is one finished run.
type Record struct {
	ID           string
	Timestamp    time.Time
	Workflow     string
	Environment  string
	Duration     time.Duration
	Status       Status
	StepsRun     []string
	StepsSkipped []string
	Error        string
}

// Repository is the port for history persistence.
type Repository interface {
	// Append stores record, assigning an ID when it has none, and drops the
	// oldest records beyond the retention limit.
	Append(ctx context.Context, record Record) (Record, error)

	// List returns up to limit records, newest first. A limit of zero or
	// less returns everything.
	List(ctx context.Context, limit int) ([]Record, error)
}

// NewRecord summarises a run that started at started. result may be nil
// when the run failed before any step was attempted; runErr is the error
// Run returned, if any. A cancelled context marks the run interrupted.
func NewRecord(started time.Time, workflowName string, result *workflow.Result, runErr error) Record {
	rec := Record{
		Timestamp: started.UTC(),
		Workflow:  workflowName,
		Status:    StatusSuccess,
	}
	if result != nil {
		rec.Workflow = result.Workflow
		rec.Environment = result.Environment
		rec.Duration = result.Duration
		rec.StepsSkipped = append([]string(nil), result.Skipped...)
		for _, step := range result.Steps {
			if !step.Skipped() {
				rec.StepsRun = append(rec.StepsRun, step.Name())
			}
		}
		if !result.Success {
			rec.Status = StatusFailed
			rec.Error = firstFailure(result)
		}
	}
	if rec.Duration == 0 {
		rec.Duration = time.Since(started)
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		rec.Status = StatusInterrupted
		rec.Error = ""
	case runErr != nil:
		rec.Status = StatusFailed
		rec.Error = runErr.Error()
	}
	return rec
}

func firstFailure(result *workflow.Result) string {
	for _, step := range result.Steps {
		if step.Failed() && !step.AllowedFailure() {
			if err := step.Error(); err != nil {
				return err.Error()
			}
			return "step " + step.Name() + " failed"
		}
	}
	return ""
}
