// Package probe discovers version managers and package managers that are
// installed on disk but not activated in the current shell.
//
// A probe runs once per workflow invocation. Its Result lists the extra
// directories that make those tools resolvable (the augmented path) and a
// record per inactive manager describing how to activate it.
package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// ManagerDef describes where a manager lives and what it adds to PATH.
type ManagerDef struct {
	Name string
	// EnvVar overrides the install root when set, e.g. for relocated installs.
	EnvVar string
	// DefaultPaths are install roots relative to the home directory.
	DefaultPaths []string
	// Binary is the sub-path whose existence proves the install.
	Binary string
	// PathDirs are sub-directories of the install root to put on PATH.
	// "." means the root itself.
	PathDirs   []string
	Activation string
}

// DefaultManagers is the built-in manager catalog, in probe order.
var DefaultManagers = []ManagerDef{
	{
		Name:         "mise",
		EnvVar:       "MISE_DATA_DIR",
		DefaultPaths: []string{".local/share/mise"},
		Binary:       "bin/mise",
		PathDirs:     []string{"bin", "shims"},
		Activation:   `eval "$(mise activate bash)"`,
	},
	{
		Name:         "mise-local",
		DefaultPaths: []string{".local/bin"},
		Binary:       "mise",
		PathDirs:     []string{"."},
		Activation:   `eval "$(mise activate bash)"`,
	},
	{
		Name:         "nvm",
		EnvVar:       "NVM_DIR",
		DefaultPaths: []string{".nvm"},
		Binary:       "nvm.sh",
		Activation:   `source "$NVM_DIR/nvm.sh"`,
	},
	{
		Name:         "rbenv",
		EnvVar:       "RBENV_ROOT",
		DefaultPaths: []string{".rbenv"},
		Binary:       "bin/rbenv",
		PathDirs:     []string{"bin", "shims"},
		Activation:   `eval "$(rbenv init -)"`,
	},
	{
		Name:         "pyenv",
		EnvVar:       "PYENV_ROOT",
		DefaultPaths: []string{".pyenv"},
		Binary:       "bin/pyenv",
		PathDirs:     []string{"bin", "shims"},
		Activation:   `eval "$(pyenv init -)"`,
	},
	{
		Name:         "volta",
		EnvVar:       "VOLTA_HOME",
		DefaultPaths: []string{".volta"},
		Binary:       "bin/volta",
		PathDirs:     []string{"bin"},
		Activation:   `export PATH="$VOLTA_HOME/bin:$PATH"`,
	},
	{
		Name:       "homebrew",
		EnvVar:     "HOMEBREW_PREFIX",
		Binary:     "bin/brew",
		PathDirs:   []string{"bin", "sbin"},
		Activation: `eval "$(brew shellenv)"`,
	},
}

// InactiveManager is a manager found on disk whose PATH entries are not
// all present in the current PATH.
type InactiveManager struct {
	Name        string
	InstallPath string
	Activation  string
}

// Result is the outcome of one probe. It is read-only once returned.
type Result struct {
	augmented []string
	system    []string
	inactive  []InactiveManager
	found     []string
}

// AugmentedPath returns the directories discovered by the probe that are
// not already on the system PATH.
func (r *Result) AugmentedPath() []string { return append([]string(nil), r.augmented...) }

// SystemPath returns PATH as it was when the probe ran.
func (r *Result) SystemPath() []string { return append([]string(nil), r.system...) }

// InactiveManagers returns the managers that need activation.
func (r *Result) InactiveManagers() []InactiveManager {
	return append([]InactiveManager(nil), r.inactive...)
}

// FoundManagers returns the names of every manager found on disk, active or not.
func (r *Result) FoundManagers() []string { return append([]string(nil), r.found...) }

// FullPath is the augmented path followed by the system PATH.
func (r *Result) FullPath() []string {
	return JoinPaths(r.augmented, r.system)
}

// HasManager reports whether the named manager was found on disk.
func (r *Result) HasManager(name string) bool {
	for _, found := range r.found {
		if found == name {
			return true
		}
	}
	return false
}

// OwningManager returns the inactive manager a resolved binary belongs to,
// matched by a "<name>/" path segment or by the install root prefix.
func (r *Result) OwningManager(binaryPath string) (InactiveManager, bool) {
	for _, mgr := range r.inactive {
		if strings.Contains(binaryPath, mgr.Name+"/") || (mgr.InstallPath != "" && strings.HasPrefix(binaryPath, mgr.InstallPath)) {
			return mgr, true
		}
	}
	return InactiveManager{}, false
}

// NewResult builds a Result directly, for callers that already know the answer.
func NewResult(augmented, system []string, inactive []InactiveManager) *Result {
	found := make([]string, 0, len(inactive))
	for _, mgr := range inactive {
		found = append(found, mgr.Name)
	}
	return &Result{
		augmented: append([]string(nil), augmented...),
		system:    append([]string(nil), system...),
		inactive:  append([]InactiveManager(nil), inactive...),
		found:     found,
	}
}

// Prober inspects the filesystem and environment for managers.
type Prober struct {
	home     string
	lookup   func(string) (string, bool)
	platform *platform.Platform
	managers []ManagerDef
	logger   ports.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHome sets the home directory that default paths are relative to.
func WithHome(dir string) Option { return func(p *Prober) { p.home = dir } }

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(p *Prober) { p.lookup = lookup }
}

// WithPlatform sets the host used to pick package-manager prefixes.
func WithPlatform(plat *platform.Platform) Option {
	return func(p *Prober) { p.platform = plat }
}

// WithManagers replaces the manager catalog.
func WithManagers(managers []ManagerDef) Option {
	return func(p *Prober) { p.managers = managers }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// New returns a Prober for the current user and host.
func New(opts ...Option) *Prober {
	home, _ := os.UserHomeDir()
	p := &Prober{
		home:     home,
		lookup:   os.LookupEnv,
		managers: DefaultManagers,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.platform == nil {
		p.platform = platform.Detect()
	}
	return p
}

// Probe scans every manager definition and the package-manager prefixes.
func (p *Prober) Probe(ctx context.Context) *Result {
	pathValue, _ := p.lookup("PATH")
	result := &Result{system: SplitPath(pathValue)}
	onSystem := make(map[string]struct{}, len(result.system))
	for _, dir := range result.system {
		onSystem[filepath.Clean(dir)] = struct{}{}
	}

	var additions [][]string
	for _, mgr := range p.managers {
		root, ok := p.locate(mgr)
		if !ok {
			continue
		}
		dirs := existingDirs(root, mgr.PathDirs)
		result.found = append(result.found, mgr.Name)
		additions = append(additions, dirs)

		if !allPresent(dirs, onSystem) {
			result.inactive = append(result.inactive, InactiveManager{
				Name:        mgr.Name,
				InstallPath: root,
				Activation:  mgr.Activation,
			})
		}
		p.log(ctx, "found manager", ports.F("manager", mgr.Name), ports.F("root", root), ports.F("active", allPresent(dirs, onSystem)))
	}

	if !result.HasManager("homebrew") {
		if prefix, ok := p.packageManagerPrefix(); ok {
			dirs := existingDirs(prefix, []string{"bin", "sbin"})
			result.found = append(result.found, "homebrew")
			additions = append(additions, dirs)
			if !allPresent(dirs, onSystem) {
				result.inactive = append(result.inactive, InactiveManager{
					Name:        "homebrew",
					InstallPath: prefix,
					Activation:  `eval "$(` + filepath.Join(prefix, "bin", "brew") + ` shellenv)"`,
				})
			}
		}
	}

	var augmented []string
	for _, dirs := range additions {
		for _, dir := range dirs {
			if _, present := onSystem[dir]; !present {
				augmented = append(augmented, dir)
			}
		}
	}
	result.augmented = JoinPaths(augmented)

	p.log(ctx, "probe complete",
		ports.F("augmented", len(result.augmented)),
		ports.F("inactive", len(result.inactive)))
	return result
}

func (p *Prober) locate(mgr ManagerDef) (string, bool) {
	if mgr.EnvVar != "" {
		if value, ok := p.lookup(mgr.EnvVar); ok && value != "" {
			if pathExists(filepath.Join(value, mgr.Binary)) {
				return filepath.Clean(value), true
			}
		}
	}
	if p.home == "" {
		return "", false
	}
	for _, rel := range mgr.DefaultPaths {
		root := filepath.Join(p.home, rel)
		if pathExists(filepath.Join(root, mgr.Binary)) {
			return root, true
		}
	}
	return "", false
}

func (p *Prober) packageManagerPrefix() (string, bool) {
	for _, prefix := range p.platform.PackageManagerPrefixes() {
		if IsExecutable(filepath.Join(prefix, "bin", "brew")) {
			return prefix, true
		}
	}
	return "", false
}

func (p *Prober) log(ctx context.Context, msg string, fields ...ports.Field) {
	if p.logger != nil {
		p.logger.Debug(ctx, msg, fields...)
	}
}

func existingDirs(root string, subdirs []string) []string {
	var dirs []string
	for _, sub := range subdirs {
		dir := filepath.Clean(filepath.Join(root, sub))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func allPresent(dirs []string, set map[string]struct{}) bool {
	for _, dir := range dirs {
		if _, ok := set[dir]; !ok {
			return false
		}
	}
	return true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
