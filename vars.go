package pxl

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// maxVarDepth bounds recursive variable resolution. CSS custom property
// chains deeper than this are treated as runaway definitions.
const maxVarDepth = 100

// VarScope holds CSS custom properties and resolves var() references
// embedded in value strings. Names are stored with their "--" prefix;
// lookups normalize bare names, so var(accent) and var(--accent) refer
// to the same property.
type VarScope struct {
	vars map[string]string
}

// NewVarScope creates an empty scope.
func NewVarScope() *VarScope {
	return &VarScope{vars: make(map[string]string)}
}

// Set defines a custom property. The name may be given with or without
// the "--" prefix.
func (s *VarScope) Set(name, value string) {
	s.vars[normalizeVarName(name)] = value
}

// Get returns the raw (unresolved) value of a property.
func (s *VarScope) Get(name string) (string, bool) {
	v, ok := s.vars[normalizeVarName(name)]
	return v, ok
}

// Len returns the number of defined properties.
func (s *VarScope) Len() int { return len(s.vars) }

// Clone returns an independent copy of the scope.
func (s *VarScope) Clone() *VarScope {
	out := NewVarScope()
	for k, v := range s.vars {
		out.vars[k] = v
	}
	return out
}

// Resolve substitutes every var() reference in value, following nested
// definitions and fallbacks. A fallback is used only when the named
// property is absent; an undefined name with no fallback is an error.
// Circular chains and chains deeper than maxVarDepth fail with the
// offending names.
func (s *VarScope) Resolve(value string) (string, error) {
	return s.resolve(value, nil, 0)
}

func (s *VarScope) resolve(value string, chain []string, depth int) (string, error) {
	if depth > maxVarDepth {
		return "", fmt.Errorf("%w: variable chain exceeds depth %d resolving %q",
			ErrStructural, maxVarDepth, value)
	}

	for {
		start := strings.Index(value, "var(")
		if start < 0 {
			return value, nil
		}
		end, ok := matchParen(value, start+3)
		if !ok {
			return "", &ColorError{Literal: value, Reason: "unclosed var()"}
		}

		name, fallback, hasFallback := splitVarArgs(value[start+4 : end])
		name = normalizeVarName(name)

		var resolved string
		var err error
		switch {
		case slices.Contains(chain, name):
			return "", &CycleError{Path: append(append([]string{}, chain...), name)}
		case s.has(name):
			resolved, err = s.resolve(s.vars[name], append(chain, name), depth+1)
		case hasFallback:
			resolved, err = s.resolve(strings.TrimSpace(fallback), chain, depth+1)
		default:
			return "", fmt.Errorf("%w: variable %q", ErrUndefinedReference, name)
		}
		if err != nil {
			return "", err
		}

		value = value[:start] + resolved + value[end+1:]
	}
}

func (s *VarScope) has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// normalizeVarName ensures the "--" prefix on a property name.
func normalizeVarName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

// matchParen returns the index of the ')' matching the '(' at open,
// scanning with paren depth so nested fallbacks survive.
func matchParen(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// splitVarArgs splits the inside of a var() at the first top-level
// comma. Everything after it is the fallback, which may itself contain
// commas and nested var() calls.
func splitVarArgs(inner string) (name, fallback string, hasFallback bool) {
	depth := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(inner[:i]), inner[i+1:], true
			}
		}
	}
	return strings.TrimSpace(inner), "", false
}

// VarOr holds either a literal value or a deferred var() reference.
// It decodes from either JSON form: a raw value or a "var(--name)"
// string.
type VarOr[T any] struct {
	Value T
	Ref   string // var() expression; empty means Value is set
}

// IsVar reports whether the value defers to a var() reference.
func (v VarOr[T]) IsVar() bool { return v.Ref != "" }

// UnmarshalJSON accepts either a literal T or a string var() reference.
func (v *VarOr[T]) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Ref = s
		return nil
	}
	return json.Unmarshal(data, &v.Value)
}

// MarshalJSON writes the var() string when present, the value otherwise.
func (v VarOr[T]) MarshalJSON() ([]byte, error) {
	if v.Ref != "" {
		return json.Marshal(v.Ref)
	}
	return json.Marshal(v.Value)
}
