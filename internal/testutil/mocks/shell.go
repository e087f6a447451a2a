// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Shell is a thread-safe, scripted ports.ShellRunner.
type Shell struct {
	mu       sync.Mutex
	results  map[string][]ports.ShellResult
	errors   map[string]error
	fallback *ports.ShellResult
	calls    []ports.ShellCall
}

// NewShell creates an empty Shell.
func NewShell() *Shell {
	return &Shell{
		results: make(map[string][]ports.ShellResult),
		errors:  make(map[string]error),
	}
}

// AddResult scripts the results of command. With several results each
// call consumes the next one and the last repeats.
func (m *Shell) AddResult(command string, results ...ports.ShellResult) *Shell {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[command] = append(m.results[command], results...)
	return m
}

// Succeed scripts command to exit 0 with stdout.
func (m *Shell) Succeed(command, stdout string) *Shell {
	return m.AddResult(command, ports.ShellResult{ExitCode: 0, Stdout: stdout})
}

// Fail scripts command to exit with code and stderr.
func (m *Shell) Fail(command string, code int, stderr string) *Shell {
	return m.AddResult(command, ports.ShellResult{ExitCode: code, Stderr: stderr})
}

// AddError makes command fail to start.
func (m *Shell) AddError(command string, err error) *Shell {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[command] = err
	return m
}

// SetDefault answers unscripted commands with result instead of an error.
func (m *Shell) SetDefault(result ports.ShellResult) *Shell {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &result
	return m
}

// Execute returns the scripted result for command.
func (m *Shell) Execute(_ context.Context, command string, opts ports.ShellOptions) (ports.ShellResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ports.ShellCall{Command: command, Options: opts})

	if err, ok := m.errors[command]; ok {
		return ports.ShellResult{}, err
	}
	if scripted := m.results[command]; len(scripted) > 0 {
		result := scripted[0]
		if len(scripted) > 1 {
			m.results[command] = scripted[1:]
		}
		return result, nil
	}
	if m.fallback != nil {
		return *m.fallback, nil
	}
	return ports.ShellResult{}, fmt.Errorf("no mock result for command: %s", command)
}

// ExecuteStreaming behaves like Execute and replays stdout then stderr
// line by line through onLine.
func (m *Shell) ExecuteStreaming(ctx context.Context, command string, opts ports.ShellOptions, onLine func(ports.OutputLine)) (ports.ShellResult, error) {
	result, err := m.Execute(ctx, command, opts)
	if err != nil || onLine == nil {
		return result, err
	}
	emit := func(stream ports.Stream, text string) {
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			if line != "" {
				onLine(ports.OutputLine{Stream: stream, Text: line})
			}
		}
	}
	emit(ports.Stdout, result.Stdout)
	emit(ports.Stderr, result.Stderr)
	return result, nil
}

// Calls returns a copy of every recorded call.
func (m *Shell) Calls() []ports.ShellCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ShellCall(nil), m.calls...)
}

// Commands returns the command strings of every call, in order.
func (m *Shell) Commands() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, call := range calls {
		out[i] = call.Command
	}
	return out
}

// CallCount returns how often command ran.
func (m *Shell) CallCount(command string) int {
	n := 0
	for _, call := range m.Calls() {
		if call.Command == command {
			n++
		}
	}
	return n
}

var _ ports.ShellRunner = (*Shell)(nil)
