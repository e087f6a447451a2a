package workflow

import "github.com/felixgeelhaar/bivvy/internal/domain/execution"

// EventKind identifies a progress event.
type EventKind int

const (
	// EventStepSkipped is sent for each step in the skip set before the run starts.
	EventStepSkipped EventKind = iota
	EventStepStarting
	EventStepFinished
)

// Event reports run progress. Result is set for EventStepFinished.
type Event struct {
	Kind   EventKind
	Step   string
	Index  int
	Total  int
	Result *execution.StepResult
}
