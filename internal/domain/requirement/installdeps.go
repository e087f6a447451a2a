package requirement

import (
	"errors"
	"fmt"
	"strings"
)

// maxInstallDepth bounds dependency chains.
const maxInstallDepth = 5

// Install dependency resolution errors.
var (
	ErrCircularInstallDeps  = errors.New("circular install dependency")
	ErrInstallDepthExceeded = errors.New("install dependency chain too deep")
)

// preferManager returns an InstallRequires that picks the first detected
// manager from preferred, falling back to mise.
func preferManager(preferred ...string) func(InstallContext) []string {
	return func(ctx InstallContext) []string {
		if ctx.Detected != nil {
			for _, mgr := range preferred {
				if ctx.Detected(mgr) {
					return []string{mgr}
				}
			}
		}
		return []string{"mise"}
	}
}

// resolveInstallChain orders everything name needs before it can be
// installed. Static dependencies come before dynamic ones and name itself
// is last. Unregistered names are kept in the chain so the caller can
// report them.
func resolveInstallChain(registry *Registry, name string, ictx InstallContext) ([]string, error) {
	var chain []string
	done := make(map[string]bool)
	var path []string

	var visit func(n string, depth int) error
	visit = func(n string, depth int) error {
		if depth > maxInstallDepth {
			return fmt.Errorf("%w: %s", ErrInstallDepthExceeded, strings.Join(append(path, n), " -> "))
		}
		for _, onPath := range path {
			if onPath == n {
				return fmt.Errorf("%w: %s", ErrCircularInstallDeps, strings.Join(append(path, n), " -> "))
			}
		}
		if done[n] {
			return nil
		}

		req, ok := registry.Get(n)
		if !ok {
			done[n] = true
			chain = append(chain, n)
			return nil
		}

		path = append(path, n)
		deps := append([]string(nil), req.DependsOn...)
		if req.InstallRequires != nil {
			deps = append(deps, req.InstallRequires(ictx)...)
		}
		for _, dep := range deps {
			if err := visit(dep, depth+1); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]

		done[n] = true
		chain = append(chain, n)
		return nil
	}

	if err := visit(name, 0); err != nil {
		return nil, err
	}
	return chain, nil
}
