// Package system provides the production side effects of requirement
// remediation: running install commands, probing the network and growing
// the run's search path.
package system

import (
	"context"
	"net"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/probe"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// DefaultProbeHosts are dialled by NetworkAvailable. Any one answering is
// enough.
var DefaultProbeHosts = []string{"1.1.1.1:443", "8.8.8.8:443", "9.9.9.9:443"}

const defaultDialTimeout = 2 * time.Second

// DialFunc opens a network connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Effects implements ports.Effects.
type Effects struct {
	shell   ports.ShellRunner
	root    string
	search  *probe.SearchPath
	output  func(ports.OutputLine)
	dial    DialFunc
	hosts   []string
	timeout time.Duration
	logger  ports.Logger
}

// Option configures Effects.
type Option func(*Effects)

// WithOutput receives the streamed output of install commands.
func WithOutput(fn func(ports.OutputLine)) Option {
	return func(e *Effects) { e.output = fn }
}

// WithDialer replaces the TCP dialer used for the network probe.
func WithDialer(dial DialFunc) Option {
	return func(e *Effects) { e.dial = dial }
}

// WithProbeHosts replaces DefaultProbeHosts.
func WithProbeHosts(hosts ...string) Option {
	return func(e *Effects) { e.hosts = hosts }
}

// WithDialTimeout bounds each probe dial.
func WithDialTimeout(d time.Duration) Option {
	return func(e *Effects) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(e *Effects) { e.logger = logger }
}

// NewEffects creates Effects that run commands in root and prepend to
// search, which must be the same search path the requirement checker
// reads.
func NewEffects(shell ports.ShellRunner, root string, search *probe.SearchPath, opts ...Option) *Effects {
	dialer := &net.Dialer{}
	e := &Effects{
		shell:   shell,
		root:    root,
		search:  search,
		dial:    dialer.DialContext,
		hosts:   DefaultProbeHosts,
		timeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCommand runs an install or start command with PATH set to searchPath.
func (e *Effects) RunCommand(ctx context.Context, command string, searchPath []string) bool {
	e.debug(ctx, "running remediation command", ports.F("command", command))

	result, err := e.shell.ExecuteStreaming(ctx, command, ports.ShellOptions{
		Dir:        e.root,
		SearchPath: searchPath,
	}, e.output)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn(ctx, "remediation command could not run", ports.F("command", command), ports.F("error", err))
		}
		return false
	}

	e.debug(ctx, "remediation command finished",
		ports.F("command", command),
		ports.F("exit_code", result.ExitCode),
		ports.F("duration", result.Duration),
	)
	return result.Success()
}

// NetworkAvailable dials each probe host in turn and reports whether any
// accepted a TCP connection.
func (e *Effects) NetworkAvailable(ctx context.Context) bool {
	for _, host := range e.hosts {
		dialCtx, cancel := context.WithTimeout(ctx, e.timeout)
		conn, err := e.dial(dialCtx, "tcp", host)
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
		e.debug(ctx, "network probe failed", ports.F("host", host), ports.F("error", err))
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// PrependPath puts dir at the front of the shared search path.
func (e *Effects) PrependPath(dir string) {
	if e.search.Prepend(dir) {
		e.debug(context.Background(), "search path extended", ports.F("dir", dir))
	}
}

func (e *Effects) debug(ctx context.Context, msg string, fields ...ports.Field) {
	if e.logger != nil {
		e.logger.Debug(ctx, msg, fields...)
	}
}

var _ ports.Effects = (*Effects)(nil)
