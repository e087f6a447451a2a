package graph

import (
	"fmt"
	"strings"
)

// SkipBehavior decides how an explicit skip list propagates.
type SkipBehavior int

const (
	// SkipWithDependents skips the named steps and everything that
	// transitively depends on them. It is the zero value.
	SkipWithDependents SkipBehavior = iota
	// SkipOnly skips exactly the named steps.
	SkipOnly
	// RunAnyway ignores the skip list.
	RunAnyway
)

func (b SkipBehavior) String() string {
	switch b {
	case SkipWithDependents:
		return "skip-with-dependents"
	case SkipOnly:
		return "skip-only"
	case RunAnyway:
		return "run-anyway"
	default:
		return fmt.Sprintf("SkipBehavior(%d)", int(b))
	}
}

// ParseSkipBehavior accepts the kebab-case or snake_case policy name.
// An empty string yields the default.
func ParseSkipBehavior(name string) (SkipBehavior, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "", "skip-with-dependents":
		return SkipWithDependents, nil
	case "skip-only":
		return SkipOnly, nil
	case "run-anyway":
		return RunAnyway, nil
	default:
		return SkipWithDependents, fmt.Errorf("unknown skip behavior %q (want skip-with-dependents, skip-only or run-anyway)", name)
	}
}

// ComputeSkips expands an explicit skip list according to behavior.
func (g *Graph) ComputeSkips(explicit []string, behavior SkipBehavior) Set {
	switch behavior {
	case RunAnyway:
		return Set{}
	case SkipOnly:
		return NewSet(explicit...)
	default:
		skips := NewSet(explicit...)
		for _, name := range explicit {
			for dependent := range g.TransitiveDependents(name) {
				skips.Add(dependent)
			}
		}
		return skips
	}
}
