package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// PathPrepender is satisfied by *probe.SearchPath.
type PathPrepender interface {
	Prepend(dir string) bool
}

// Effects is a recording ports.Effects double.
type Effects struct {
	mu       sync.Mutex
	network  bool
	outcomes map[string]bool
	onRun    map[string]func()
	path     PathPrepender
	commands []string
	prepends []string
}

// NewEffects creates an Effects with the network up. When path is non-nil
// PrependPath also forwards to it.
func NewEffects(path PathPrepender) *Effects {
	return &Effects{
		network:  true,
		outcomes: make(map[string]bool),
		onRun:    make(map[string]func()),
		path:     path,
	}
}

// SetNetwork sets what NetworkAvailable reports.
func (e *Effects) SetNetwork(up bool) *Effects {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.network = up
	return e
}

// SetOutcome scripts whether command succeeds. Unscripted commands fail.
func (e *Effects) SetOutcome(command string, ok bool) *Effects {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes[command] = ok
	return e
}

// OnRun registers a hook invoked when command runs, e.g. to create the
// binary an install would have produced.
func (e *Effects) OnRun(command string, fn func()) *Effects {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onRun[command] = fn
	return e
}

func (e *Effects) RunCommand(_ context.Context, command string, _ []string) bool {
	e.mu.Lock()
	e.commands = append(e.commands, command)
	ok := e.outcomes[command]
	hook := e.onRun[command]
	e.mu.Unlock()

	if hook != nil {
		hook()
	}
	return ok
}

func (e *Effects) NetworkAvailable(_ context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.network
}

func (e *Effects) PrependPath(dir string) {
	e.mu.Lock()
	e.prepends = append(e.prepends, dir)
	path := e.path
	e.mu.Unlock()

	if path != nil {
		path.Prepend(dir)
	}
}

// Commands returns every command run, in order.
func (e *Effects) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}

// Prepends returns every directory passed to PrependPath.
func (e *Effects) Prepends() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.prepends...)
}

var _ ports.Effects = (*Effects)(nil)
