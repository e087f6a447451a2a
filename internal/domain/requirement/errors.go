package requirement

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRequirementsMissing is matched by MissingError.
var ErrRequirementsMissing = errors.New("requirements missing")

// MissingError lists every requirement that blocked a step once all gaps
// had been attempted.
type MissingError struct {
	Requirements []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing requirements: %s. Run 'bivvy requirements' for details.", strings.Join(e.Requirements, ", "))
}

func (e *MissingError) Unwrap() error { return ErrRequirementsMissing }
