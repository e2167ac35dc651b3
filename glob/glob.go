// Package glob matches entry names against shell-like patterns, e.g. "*.pdf"
// or "report-{2023,2024}*".
package glob

import (
	"strings"

	"github.com/gobwas/glob"
)

// Glob is a compiled pattern.
type Glob interface {
	// Match returns whether the name matches the pattern.
	Match(name string) bool

	// String returns the pattern.
	String() string
}

type globber struct {
	pattern string
	glob    glob.Glob
}

// Compile compiles the pattern. Wildcards don't match any of the optional separators.
func Compile(pattern string, separators ...rune) (Glob, error) {
	g, err := glob.Compile(pattern, separators...)
	if err != nil {
		return nil, err
	}

	return &globber{pattern: pattern, glob: g}, nil
}

func (g *globber) Match(name string) bool {
	return g.glob.Match(name)
}

func (g *globber) String() string {
	return g.pattern
}

// IsPattern returns whether the pattern contains any special characters.
func IsPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{\\")
}

// Match returns whether the name matches the glob pattern. An error is only
// returned if the pattern is invalid.
func Match(pattern, name string, separators ...rune) (bool, error) {
	g, err := Compile(pattern, separators...)
	if err != nil {
		return false, err
	}

	return g.Match(name), nil
}
