package ports

import "context"

// Prompt is a yes/no question put to the user.
type Prompt struct {
	// Key identifies the prompt independently of its wording.
	Key      string
	Question string
	Default  bool
}

// UserInterface is the synchronous terminal surface used by the runner
// and the installer. Confirm blocks until answered.
type UserInterface interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
	Message(text string)
	Warning(text string)
	Error(text string)
	IsInteractive() bool
}
