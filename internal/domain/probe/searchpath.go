package probe

import (
	"path/filepath"
	"strings"
)

// SearchPath is the ordered list of directories activated during a run.
// It starts empty and only grows; the runner prepends it to the system
// PATH whenever it spawns a child process. The process environment itself
// is never modified.
type SearchPath struct {
	entries []string
}

// NewSearchPath returns a search path holding dirs in order.
func NewSearchPath(dirs ...string) *SearchPath {
	sp := &SearchPath{}
	for i := len(dirs) - 1; i >= 0; i-- {
		sp.Prepend(dirs[i])
	}
	return sp
}

// Prepend puts dir in front of the existing entries. It returns false when
// dir is empty or already present.
func (p *SearchPath) Prepend(dir string) bool {
	dir = filepath.Clean(dir)
	if dir == "." || p.Contains(dir) {
		return false
	}
	p.entries = append([]string{dir}, p.entries...)
	return true
}

// Contains reports whether dir is one of the entries.
func (p *SearchPath) Contains(dir string) bool {
	dir = filepath.Clean(dir)
	for _, entry := range p.entries {
		if entry == dir {
			return true
		}
	}
	return false
}

// Entries returns a copy of the directories, highest priority first.
func (p *SearchPath) Entries() []string {
	return append([]string(nil), p.entries...)
}

// Len returns the number of entries.
func (p *SearchPath) Len() int {
	return len(p.entries)
}

// JoinPaths concatenates directory lists, keeping the first occurrence of
// each directory.
func JoinPaths(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, dir := range list {
			if dir == "" {
				continue
			}
			if _, dup := seen[dir]; dup {
				continue
			}
			seen[dir] = struct{}{}
			out = append(out, dir)
		}
	}
	return out
}

// SplitPath splits a PATH-style value using the OS list separator.
func SplitPath(value string) []string {
	var out []string
	for _, dir := range filepath.SplitList(value) {
		if strings.TrimSpace(dir) != "" {
			out = append(out, dir)
		}
	}
	return out
}

// FormatPath joins directories into a PATH-style value.
func FormatPath(dirs []string) string {
	return strings.Join(dirs, string(filepath.ListSeparator))
}
