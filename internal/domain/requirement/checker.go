package requirement

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
	"github.com/felixgeelhaar/bivvy/internal/domain/probe"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Prober recomputes the environment probe.
type Prober interface {
	Probe(ctx context.Context) *probe.Result
}

// Checker evaluates requirements against the probed environment. It owns
// the status cache and the run's effective search path. It is not safe for
// concurrent use; the runner drives it from a single goroutine.
type Checker struct {
	registry *Registry
	probe    *probe.Result
	prober   Prober
	search   *probe.SearchPath
	resolver *probe.Resolver
	cache    *Cache
	shell    ports.ShellRunner
	root     string
	platform *platform.Platform
	logger   ports.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithProber enables Refresh.
func WithProber(p Prober) CheckerOption {
	return func(c *Checker) { c.prober = p }
}

// WithSearchPath shares an existing effective search path.
func WithSearchPath(sp *probe.SearchPath) CheckerOption {
	return func(c *Checker) { c.search = sp }
}

// WithResolver shares a tool resolver.
func WithResolver(r *probe.Resolver) CheckerOption {
	return func(c *Checker) { c.resolver = r }
}

// WithPlatform sets the host passed to dynamic install dependencies.
func WithPlatform(p *platform.Platform) CheckerOption {
	return func(c *Checker) { c.platform = p }
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) CheckerOption {
	return func(c *Checker) { c.logger = l }
}

// NewChecker creates a Checker for the project at root.
func NewChecker(registry *Registry, result *probe.Result, shell ports.ShellRunner, root string, opts ...CheckerOption) *Checker {
	c := &Checker{
		registry: registry,
		probe:    result,
		shell:    shell,
		root:     root,
		cache:    NewCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.search == nil {
		c.search = probe.NewSearchPath()
	}
	if c.resolver == nil {
		c.resolver = probe.NewResolver(probe.DefaultResolverSize)
	}
	if c.probe == nil {
		c.probe = probe.NewResult(nil, nil, nil)
	}
	return c
}

// Registry returns the catalog being checked.
func (c *Checker) Registry() *Registry { return c.registry }

// Probe returns the current probe result.
func (c *Checker) Probe() *probe.Result { return c.probe }

// SearchPath returns the run's effective search path.
func (c *Checker) SearchPath() *probe.SearchPath { return c.search }

// Cache exposes the status cache.
func (c *Checker) Cache() *Cache { return c.cache }

// LookupPath is where tools are resolved: activated directories, then the
// augmented path, then the system PATH.
func (c *Checker) LookupPath() []string {
	return probe.JoinPaths(c.search.Entries(), c.probe.FullPath())
}

// ActivePath is what a shell in this run would see without the probe:
// activated directories followed by the system PATH.
func (c *Checker) ActivePath() []string {
	return probe.JoinPaths(c.search.Entries(), c.probe.SystemPath())
}

// Invalidate drops the cached status of name.
func (c *Checker) Invalidate(name string) {
	c.cache.Invalidate(name)
}

// Refresh recomputes the probe and forgets memoized tool lookups. Cached
// statuses are kept; callers invalidate what they changed.
func (c *Checker) Refresh(ctx context.Context) {
	if c.prober != nil {
		c.probe = c.prober.Probe(ctx)
	}
	c.resolver.Purge()
}

// CheckOne returns the status of name, evaluating it at most once until
// it is invalidated.
func (c *Checker) CheckOne(ctx context.Context, name string) Status {
	if cached, ok := c.cache.Get(name); ok {
		c.debug(ctx, "requirement cache hit", ports.F("requirement", name), ports.F("status", cached.Kind().String()))
		return cached
	}

	status := c.evaluate(ctx, name)
	c.cache.Put(name, status)
	c.debug(ctx, "requirement evaluated", ports.F("requirement", name), ports.F("status", status.Kind().String()))
	return status
}

// CheckStep returns the unsatisfied requirements of a step in declaration
// order. Requirements in provided are assumed present.
func (c *Checker) CheckStep(ctx context.Context, requires []string, provided map[string]bool) []Gap {
	var gaps []Gap
	seen := make(map[string]bool, len(requires))
	for _, name := range requires {
		if provided[name] || seen[name] {
			continue
		}
		seen[name] = true
		if status := c.CheckOne(ctx, name); !IsSatisfied(status) {
			gaps = append(gaps, Gap{Requirement: name, Status: status})
		}
	}
	return gaps
}

// ResolveInstallDeps returns the install chain for name, dependencies first
// and name last.
func (c *Checker) ResolveInstallDeps(name string) ([]string, error) {
	return resolveInstallChain(c.registry, name, c.installContext())
}

func (c *Checker) installContext() InstallContext {
	return InstallContext{
		Platform: c.platform,
		Detected: func(manager string) bool {
			if c.probe.HasManager(manager) || (manager == "mise" && c.probe.HasManager("mise-local")) {
				return true
			}
			_, ok := c.resolver.Resolve(manager, c.LookupPath())
			return ok
		},
	}
}

func (c *Checker) evaluate(ctx context.Context, name string) Status {
	req, ok := c.registry.Get(name)
	if !ok {
		return Unknown{}
	}

	for _, chk := range req.Checks {
		if status := c.evaluateCheck(ctx, req, chk); status != nil {
			return status
		}
	}

	hint := req.InstallHint
	for _, chk := range req.Checks {
		if v := c.pinnedVersion(chk); v != "" {
			hint = fmt.Sprintf("%s (project requests %s)", hint, VersionHint(v))
			break
		}
	}
	return Missing{
		InstallTemplate: req.InstallTemplate,
		InstallHint:     hint,
		InstallCommand:  req.InstallCommand,
	}
}

// evaluateCheck returns nil when the check is not definitive.
func (c *Checker) evaluateCheck(ctx context.Context, req Requirement, chk Check) Status {
	switch chk.Kind {
	case CheckCommandSucceeds:
		if c.run(ctx, chk.Command) {
			return Satisfied{}
		}
		return nil

	case CheckFileExists:
		if _, err := os.Stat(c.expand(chk.Path)); err == nil {
			return Satisfied{}
		}
		return nil

	case CheckServiceReachable:
		if c.run(ctx, chk.Command) {
			return Satisfied{}
		}
		hint := req.InstallHint
		if hint == "" {
			hint = fmt.Sprintf("Start the %s service", req.Name)
		}
		_, present := c.resolver.Resolve(firstWord(chk.Command), c.LookupPath())
		return ServiceDown{BinaryPresent: present, StartCommand: chk.StartCommand, StartHint: hint}

	case CheckManagedCommand:
		if chk.Managed == nil {
			return nil
		}
		return c.evaluateManaged(req, chk.Managed)

	case CheckAny:
		var first Status
		for _, sub := range chk.Any {
			status := c.evaluateCheck(ctx, req, sub)
			if status == nil {
				continue
			}
			if CanProceed(status) {
				return status
			}
			if first == nil {
				first = status
			}
		}
		return first
	}
	return nil
}

func (c *Checker) evaluateManaged(req Requirement, mc *ManagedCommand) Status {
	path, ok := c.resolver.Resolve(mc.Tool, c.LookupPath())
	if !ok {
		return nil
	}
	if containsAny(path, mc.ManagedPatterns) {
		return Satisfied{}
	}

	if _, pinned := projectVersion(c.root, mc); pinned {
		if _, onActive := c.resolver.Resolve(mc.Tool, c.ActivePath()); !onActive {
			if mgr, owned := c.probe.OwningManager(path); owned {
				return Inactive{Manager: mgr.Name, BinaryPath: path, ActivationHint: mgr.Activation}
			}
		}
	}

	if containsAny(path, mc.SystemPatterns) {
		return SystemOnly{
			Path:            path,
			InstallTemplate: req.InstallTemplate,
			Warning:         fmt.Sprintf("System %s detected at %s. Consider using a version manager.", mc.Tool, path),
		}
	}
	return Satisfied{}
}

func (c *Checker) pinnedVersion(chk Check) string {
	switch {
	case chk.Managed != nil:
		v, _ := projectVersion(c.root, chk.Managed)
		return v
	case chk.Kind == CheckAny:
		for _, sub := range chk.Any {
			if v := c.pinnedVersion(sub); v != "" {
				return v
			}
		}
	}
	return ""
}

func (c *Checker) run(ctx context.Context, command string) bool {
	res, err := c.shell.Execute(ctx, command, ports.ShellOptions{
		Dir:        c.root,
		SearchPath: c.LookupPath(),
	})
	return err == nil && res.Success()
}

func (c *Checker) expand(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

func (c *Checker) debug(ctx context.Context, msg string, fields ...ports.Field) {
	if c.logger != nil {
		c.logger.Debug(ctx, msg, fields...)
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func firstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
