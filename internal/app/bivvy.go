// Package app wires the bivvy domain to its adapters. The CLI talks only
// to this package.
package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/adapters/historyfile"
	"github.com/felixgeelhaar/bivvy/internal/adapters/logging"
	"github.com/felixgeelhaar/bivvy/internal/adapters/terminal"
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/environment"
	"github.com/felixgeelhaar/bivvy/internal/domain/history"
	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
	"github.com/felixgeelhaar/bivvy/internal/domain/probe"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Display is the terminal surface a run needs: prompts and messages plus
// the progress and output callbacks handed to the runner.
type Display interface {
	ports.UserInterface
	Progress(event workflow.Event)
	StepOutput(step string, line ports.OutputLine)
}

// Bivvy is the application service for one project.
type Bivvy struct {
	root       string
	configPath string
	cfg        *config.Config

	display   Display
	shell     ports.ShellRunner
	logger    ports.Logger
	history   history.Repository
	prober    *probe.Prober
	platform  *platform.Platform
	lookupEnv func(string) (string, bool)
	effects   func(search *probe.SearchPath) ports.Effects
	out       io.Writer
	styles    terminal.Styles
	now       func() time.Time
}

// Option configures Bivvy.
type Option func(*Bivvy)

// WithConfigPath reads the configuration from path instead of searching
// the project's .bivvy directory.
func WithConfigPath(path string) Option {
	return func(b *Bivvy) { b.configPath = path }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger ports.Logger) Option {
	return func(b *Bivvy) { b.logger = logger }
}

// WithHistory replaces the YAML history file.
func WithHistory(repo history.Repository) Option {
	return func(b *Bivvy) { b.history = repo }
}

// WithProber replaces the environment prober.
func WithProber(p *probe.Prober) Option {
	return func(b *Bivvy) { b.prober = p }
}

// WithPlatform overrides host detection.
func WithPlatform(p *platform.Platform) Option {
	return func(b *Bivvy) { b.platform = p }
}

// WithLookupEnv replaces os.LookupEnv for environment detection.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(b *Bivvy) { b.lookupEnv = lookup }
}

// WithEffects replaces the production remediation side effects. fn
// receives the run's search path.
func WithEffects(fn func(search *probe.SearchPath) ports.Effects) Option {
	return func(b *Bivvy) { b.effects = fn }
}

// WithReportOutput sets where reports are written, and their styles.
func WithReportOutput(out io.Writer, styles terminal.Styles) Option {
	return func(b *Bivvy) {
		b.out = out
		b.styles = styles
	}
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bivvy) { b.now = now }
}

// New creates the service for the project at root.
func New(root string, display Display, shell ports.ShellRunner, opts ...Option) *Bivvy {
	b := &Bivvy{
		root:      root,
		display:   display,
		shell:     shell,
		logger:    logging.Discard(),
		lookupEnv: os.LookupEnv,
		out:       os.Stdout,
		styles:    terminal.PlainStyles(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.platform == nil {
		b.platform = platform.Detect()
	}
	if b.prober == nil {
		b.prober = probe.New(probe.WithPlatform(b.platform), probe.WithLookupEnv(b.lookupEnv), probe.WithLogger(b.logger))
	}
	return b
}

// Load reads and validates the project configuration. Every validation
// defect is reported in one error.
func (b *Bivvy) Load(ctx context.Context) error {
	cfg, path, err := config.NewLoader().LoadProject(b.root, b.configPath)
	if err != nil {
		return err
	}
	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return errs.AsError()
	}
	b.cfg = cfg
	b.configPath = path
	if b.history == nil {
		b.history = historyfile.NewYAMLRepository(
			filepath.Join(b.root, historyfile.DefaultPath),
			historyfile.WithRetention(cfg.Settings.HistoryRetention),
		)
	}
	b.logger.Debug(ctx, "configuration loaded",
		ports.F("path", path),
		ports.F("steps", len(cfg.Steps)),
		ports.F("workflows", len(cfg.Workflows)),
	)
	return nil
}

// Config returns the loaded configuration.
func (b *Bivvy) Config() *config.Config {
	return b.cfg
}

// ConfigPath returns the file the configuration was read from.
func (b *Bivvy) ConfigPath() string {
	return b.configPath
}

// Environment resolves the active environment from the --env flag value.
func (b *Bivvy) Environment(flag string) environment.Resolved {
	resolver := environment.NewResolver(b.cfg.Settings,
		environment.WithLookupEnv(b.lookupEnv),
		environment.WithPlatform(b.platform),
	)
	return resolver.Resolve(flag)
}
