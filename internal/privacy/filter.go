// Package privacy decides which windows must never be sent to a model.
package privacy

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Filter matches windows against glob patterns such as "*keepassxc*" or
// "firefox*private browsing*". Matching is case-insensitive and runs against
// "class | title".
type Filter struct {
	patterns []glob.Glob
	sources  []string
}

// NewFilter compiles the given patterns. Empty patterns are ignored.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid private window pattern '%s': %w", p, err)
		}
		f.patterns = append(f.patterns, g)
		f.sources = append(f.sources, p)
	}
	return f, nil
}

// IsPrivate reports whether the window matches any pattern.
func (f *Filter) IsPrivate(class, title string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	subject := strings.ToLower(WindowKey(class, title))
	for _, g := range f.patterns {
		if g.Match(subject) {
			return true
		}
	}
	return false
}

// Patterns returns the normalised pattern sources.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return f.sources
}

// WindowKey is the string window patterns are matched against.
func WindowKey(class, title string) string {
	return class + " | " + title
}
