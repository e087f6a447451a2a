// Package shell runs step, hook and check commands through the platform
// shell.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/bivvy/internal/domain/probe"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// maxLine bounds a single streamed line. Longer lines are delivered in
// maxLine chunks.
const maxLine = 1024 * 1024

// waitDelay bounds how long Wait blocks on output pipes held open by
// background children once the shell itself has exited or been killed.
const waitDelay = 5 * time.Second

// Runner executes command strings with `sh -c`, or `cmd /C` on Windows.
type Runner struct {
	program string
	flag    string
	environ func() []string
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell overrides the shell program and its command flag.
func WithShell(program, flag string) Option {
	return func(r *Runner) {
		r.program = program
		r.flag = flag
	}
}

// WithEnviron replaces the inherited process environment.
func WithEnviron(environ func() []string) Option {
	return func(r *Runner) { r.environ = environ }
}

// NewRunner creates a Runner for the current platform.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{program: "sh", flag: "-c", environ: os.Environ}
	if runtime.GOOS == "windows" {
		r.program, r.flag = "cmd", "/C"
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs command to completion and captures both output streams.
func (r *Runner) Execute(ctx context.Context, command string, opts ports.ShellOptions) (ports.ShellResult, error) {
	cmd := r.command(ctx, command, opts)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := ports.ShellResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	return finish(ctx, command, result, err)
}

// ExecuteStreaming runs command and hands every output line to onLine as
// it arrives. Lines from one stream keep their order; the two streams are
// interleaved in arrival order. onLine is never called concurrently.
func (r *Runner) ExecuteStreaming(ctx context.Context, command string, opts ports.ShellOptions, onLine func(ports.OutputLine)) (ports.ShellResult, error) {
	cmd := r.command(ctx, command, opts)

	// exec copies into these pipes itself, so WaitDelay also bounds a
	// child that keeps the output open after the shell is gone.
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ports.ShellResult{}, fmt.Errorf("starting %q: %w", command, err)
	}

	waitDone := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		stdoutW.Close()
		stderrW.Close()
		waitDone <- err
	}()

	lines := make(chan ports.OutputLine)
	var g errgroup.Group
	g.Go(func() error { return drain(stdoutR, ports.Stdout, lines) })
	g.Go(func() error { return drain(stderrR, ports.Stderr, lines) })

	readDone := make(chan error, 1)
	go func() {
		readDone <- g.Wait()
		close(lines)
	}()

	var stdout, stderr strings.Builder
	for line := range lines {
		if line.Stream == ports.Stderr {
			stderr.WriteString(line.Text + "\n")
		} else {
			stdout.WriteString(line.Text + "\n")
		}
		if onLine != nil {
			onLine(line)
		}
	}
	readErr := <-readDone
	waitErr := <-waitDone

	result := ports.ShellResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if readErr != nil && waitErr == nil {
		return result, fmt.Errorf("reading output of %q: %w", command, readErr)
	}
	return finish(ctx, command, result, waitErr)
}

func (r *Runner) command(ctx context.Context, command string, opts ports.ShellOptions) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.program, r.flag, command)
	cmd.Dir = opts.Dir
	cmd.Env = r.environment(opts)
	cmd.WaitDelay = waitDelay
	return cmd
}

// environment overlays opts.Env on the inherited environment. A non-empty
// search path replaces PATH.
func (r *Runner) environment(opts ports.ShellOptions) []string {
	merged := make(map[string]string)
	for _, kv := range r.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[key] = value
	}
	for key, value := range opts.Env {
		merged[key] = value
	}
	if len(opts.SearchPath) > 0 {
		merged[pathKey(merged)] = probe.FormatPath(opts.SearchPath)
	}

	env := make([]string, 0, len(merged))
	for key, value := range merged {
		env = append(env, key+"="+value)
	}
	sort.Strings(env)
	return env
}

// pathKey keeps the existing spelling of PATH, which is "Path" on most
// Windows machines.
func pathKey(env map[string]string) string {
	if runtime.GOOS == "windows" {
		for key := range env {
			if strings.EqualFold(key, "PATH") {
				return key
			}
		}
	}
	return "PATH"
}

// drain scans pr and, if scanning fails, unblocks the writer side so the
// process can still be waited on.
func drain(pr *io.PipeReader, stream ports.Stream, out chan<- ports.OutputLine) error {
	err := scan(pr, stream, out)
	if err != nil {
		pr.CloseWithError(err)
	}
	return err
}

// scan forwards r line by line until EOF. It keeps draining after an
// overlong line so the writer never blocks on a full pipe.
func scan(r io.Reader, stream ports.Stream, out chan<- ports.OutputLine) error {
	br := bufio.NewReaderSize(r, maxLine)
	split := false
	for {
		chunk, err := br.ReadSlice('\n')
		full := errors.Is(err, bufio.ErrBufferFull)
		// A newline right after a split chunk ends that line, not a new one.
		if len(chunk) > 0 && !(split && len(chunk) == 1 && chunk[0] == '\n') {
			text := strings.TrimSuffix(strings.TrimSuffix(string(chunk), "\n"), "\r")
			out <- ports.OutputLine{Stream: stream, Text: text}
		}
		split = full
		switch {
		case err == nil || full:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

// finish converts a process error into the result's exit code. Only
// failures to start or cancellation are returned as errors.
func finish(ctx context.Context, command string, result ports.ShellResult, err error) (ports.ShellResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("running %q: %w", command, ctxErr)
	}
	// The shell exited cleanly but a background child still held its output.
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = -1
	return result, fmt.Errorf("running %q: %w", command, err)
}

var _ ports.ShellRunner = (*Runner)(nil)
