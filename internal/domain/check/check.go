// Package check evaluates a step's "already done" predicate.
//
// Checks are advisory. They never change anything on disk; the workflow
// runner decides whether a complete step is skipped, re-run or prompted.
package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// maxCommandLabel bounds how much of a command appears in a description.
const maxCommandLabel = 50

// Result is the outcome of evaluating a check.
type Result struct {
	Complete    bool
	Description string
	Details     string
}

// Checker runs completion checks.
type Checker struct {
	shell      ports.ShellRunner
	searchPath func() []string
	env        map[string]string
}

// Option configures a Checker.
type Option func(*Checker)

// WithSearchPath supplies the effective search path for command checks.
// It is read on every command so activations made mid-run are honored.
func WithSearchPath(fn func() []string) Option {
	return func(c *Checker) { c.searchPath = fn }
}

// WithEnv sets environment variables for command checks.
func WithEnv(env map[string]string) Option {
	return func(c *Checker) { c.env = env }
}

// NewChecker creates a Checker that runs command checks through shell.
func NewChecker(shell ports.ShellRunner, opts ...Option) *Checker {
	c := &Checker{shell: shell}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run evaluates chk relative to the project root. Composite checks recurse.
func (c *Checker) Run(ctx context.Context, chk config.CompletedCheck, root string) Result {
	switch chk.Type {
	case config.CheckFileExists:
		return c.fileExists(chk.Path, root)
	case config.CheckCommandSucceeds:
		return c.commandSucceeds(ctx, chk.Command, root)
	case config.CheckMarker:
		return Result{Description: "Marker check", Details: "marker checks are never satisfied"}
	case config.CheckAll:
		return c.all(ctx, chk.Checks, root)
	case config.CheckAny:
		return c.any(ctx, chk.Checks, root)
	default:
		return Result{Description: "Unknown check type: " + chk.Type}
	}
}

func (c *Checker) fileExists(path, root string) Result {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}
	if _, err := os.Stat(full); err == nil {
		return Result{Complete: true, Description: "File exists: " + path}
	}
	return Result{Description: "File missing: " + path, Details: "Expected at: " + full}
}

func (c *Checker) commandSucceeds(ctx context.Context, command, root string) Result {
	label := truncate(command, maxCommandLabel)
	opts := ports.ShellOptions{Dir: root, Env: c.env}
	if c.searchPath != nil {
		opts.SearchPath = c.searchPath()
	}

	res, err := c.shell.Execute(ctx, command, opts)
	if err != nil {
		return Result{Description: "Command failed: " + label, Details: err.Error()}
	}
	if res.Success() {
		return Result{Complete: true, Description: "Command succeeded: " + label}
	}
	return Result{
		Description: "Command failed: " + label,
		Details:     fmt.Sprintf("exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)),
	}
}

func (c *Checker) all(ctx context.Context, checks []config.CompletedCheck, root string) Result {
	var failed []string
	for _, chk := range checks {
		if res := c.Run(ctx, chk, root); !res.Complete {
			failed = append(failed, res.Description)
		}
	}
	if len(failed) == 0 {
		return Result{Complete: true, Description: fmt.Sprintf("All %d checks passed", len(checks))}
	}
	return Result{
		Description: fmt.Sprintf("%d/%d checks failed", len(failed), len(checks)),
		Details:     strings.Join(failed, "; "),
	}
}

func (c *Checker) any(ctx context.Context, checks []config.CompletedCheck, root string) Result {
	for _, chk := range checks {
		if res := c.Run(ctx, chk, root); res.Complete {
			return Result{Complete: true, Description: "Check passed: " + res.Description}
		}
	}
	return Result{Description: fmt.Sprintf("None of %d checks passed", len(checks))}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
