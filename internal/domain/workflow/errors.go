package workflow

import (
	"errors"

	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
)

// ErrCodeDeclined marks a required step the user refused to run.
const ErrCodeDeclined = "STEP_DECLINED"

// ErrSensitiveDeclined is wrapped when a non-skippable sensitive step is declined.
var ErrSensitiveDeclined = errors.New("sensitive step declined")

func newDeclinedError(step string) error {
	return execution.NewStepError(ErrCodeDeclined, "sensitive step was declined and cannot be skipped").
		WithStep(step).
		WithUnderlying(ErrSensitiveDeclined).
		WithSuggestion("Re-run and confirm the step, or mark it skippable")
}
