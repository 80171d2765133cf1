// Package filter implements the declarative inbox rules: per-field wildcard
// matching and the ordered, first-match-wins dispatch engine.
package filter

import (
	"fmt"

	"github.com/gobwas/glob"
)

// AddressFilter matches an address list against a set of wildcard patterns
// (`*` matches any run of characters, case-sensitive). Patterns are compiled
// once at construction so malformed globs are a load-time error.
type AddressFilter struct {
	patterns []string
	globs    []glob.Glob
}

// NewAddressFilter compiles the pattern set. An empty set is valid: the
// must-be-empty semantics layered on top by MessageFilter need it.
func NewAddressFilter(patterns []string) (*AddressFilter, error) {
	f := &AddressFilter{patterns: patterns}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Matches reports whether any pattern matches any address. An empty pattern
// set never matches; callers encode "field must be empty" themselves.
func (f *AddressFilter) Matches(addrs []string) bool {
	for _, g := range f.globs {
		for _, addr := range addrs {
			if g.Match(addr) {
				return true
			}
		}
	}
	return false
}

// Empty reports whether the pattern set is empty.
func (f *AddressFilter) Empty() bool {
	return len(f.patterns) == 0
}

// Patterns returns the configured pattern strings.
func (f *AddressFilter) Patterns() []string {
	return f.patterns
}
