// Package interpolate substitutes ${name} references in commands.
package interpolate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnresolved is wrapped by UnresolvedError.
var ErrUnresolved = errors.New("unresolved variable")

// UnresolvedError names the variable that had no value.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved variable ${%s}", e.Name)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// Lookup returns the value of a variable.
type Lookup func(name string) (string, bool)

// Context holds the variables visible to a step.
type Context struct {
	values map[string]string
}

// NewContext starts from builtins; Merge layers more values on top.
func NewContext(builtins map[string]string) *Context {
	c := &Context{values: make(map[string]string, len(builtins))}
	return c.Merge(builtins)
}

// Merge adds values, replacing existing names, and returns c.
func (c *Context) Merge(values map[string]string) *Context {
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Lookup implements Lookup.
func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Names returns the defined variables, sorted.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve replaces every ${name} in input. "$${" produces a literal "${".
// A reference without a closing brace is kept as written.
func Resolve(input string, lookup Lookup) (string, error) {
	var b strings.Builder
	b.Grow(len(input))

	for i := 0; i < len(input); {
		if strings.HasPrefix(input[i:], "$${") {
			b.WriteString("${")
			i += 3
			continue
		}
		if strings.HasPrefix(input[i:], "${") {
			end := strings.IndexByte(input[i+2:], '}')
			if end < 0 {
				b.WriteString(input[i:])
				break
			}
			name := strings.TrimSpace(input[i+2 : i+2+end])
			value, ok := lookup(name)
			if !ok {
				return "", &UnresolvedError{Name: name}
			}
			b.WriteString(value)
			i += 2 + end + 1
			continue
		}
		b.WriteByte(input[i])
		i++
	}
	return b.String(), nil
}

// ResolveMap resolves every value in m.
func ResolveMap(m map[string]string, lookup Lookup) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		resolved, err := Resolve(v, lookup)
		if err != nil {
			return nil, fmt.Errorf("env %s: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// References lists the variable names used by input, in order of first use.
func References(input string) []string {
	var names []string
	seen := map[string]bool{}
	for i := 0; i < len(input); {
		switch {
		case strings.HasPrefix(input[i:], "$${"):
			i += 3
		case strings.HasPrefix(input[i:], "${"):
			end := strings.IndexByte(input[i+2:], '}')
			if end < 0 {
				return names
			}
			name := strings.TrimSpace(input[i+2 : i+2+end])
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i += 2 + end + 1
		default:
			i++
		}
	}
	return names
}
