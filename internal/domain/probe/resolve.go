package probe

import (
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResolveTool looks for an executable named tool in dirs, in order.
// It never shells out to which/where; those disagree across platforms
// about aliases, functions and shims.
func ResolveTool(tool string, dirs []string) (string, bool) {
	if tool == "" {
		return "", false
	}
	if strings.ContainsRune(tool, filepath.Separator) || strings.ContainsRune(tool, '/') {
		if IsExecutable(tool) {
			return tool, true
		}
		return "", false
	}

	for _, dir := range dirs {
		for _, name := range executableNames(tool) {
			candidate := filepath.Join(dir, name)
			if IsExecutable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// DefaultResolverSize bounds the number of memoized lookups.
const DefaultResolverSize = 256

type resolution struct {
	path  string
	found bool
}

// Resolver memoizes ResolveTool per (tool, search path) pair. Entries go
// stale when something is installed, so callers purge it after a probe
// refresh.
type Resolver struct {
	cache *lru.Cache[string, resolution]
}

// NewResolver returns a Resolver holding at most size lookups.
func NewResolver(size int) *Resolver {
	if size <= 0 {
		size = DefaultResolverSize
	}
	cache, err := lru.New[string, resolution](size)
	if err != nil {
		// Only returned for a non-positive size, excluded above.
		panic(err)
	}
	return &Resolver{cache: cache}
}

// Resolve behaves like ResolveTool but answers repeated queries from memory.
func (r *Resolver) Resolve(tool string, dirs []string) (string, bool) {
	key := tool + "\x00" + strings.Join(dirs, "\x00")
	if hit, ok := r.cache.Get(key); ok {
		return hit.path, hit.found
	}
	path, found := ResolveTool(tool, dirs)
	r.cache.Add(key, resolution{path: path, found: found})
	return path, found
}

// Purge forgets every memoized lookup.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Len returns the number of memoized lookups.
func (r *Resolver) Len() int {
	return r.cache.Len()
}
