package pxl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the four issue classes. Typed errors below wrap
// one of these so callers can classify with errors.Is.
var (
	// ErrParseLiteral marks malformed color, path, or transform text.
	ErrParseLiteral = errors.New("pxl: malformed literal")
	// ErrUndefinedReference marks a missing token, sprite, palette,
	// or composition name.
	ErrUndefinedReference = errors.New("pxl: undefined reference")
	// ErrStructural marks dimension mismatches, non-divisible sizes,
	// and cyclic reference graphs.
	ErrStructural = errors.New("pxl: structural error")
	// ErrConstraint marks a failed within or adjacent-to constraint.
	ErrConstraint = errors.New("pxl: constraint violation")
)

// Warning is a non-fatal issue surfaced to the caller. The external
// strict-mode policy decides whether a given warning class should have
// been fatal; this package only reports.
type Warning struct {
	Message string
	Line    int // source line when known, 0 otherwise
}

// Warningf formats a warning message.
func Warningf(format string, args ...any) Warning {
	return Warning{Message: fmt.Sprintf(format, args...)}
}

// ColorError reports a color literal that failed to resolve. The
// literal text is carried verbatim so errors point at the source.
type ColorError struct {
	Literal string
	Reason  string
}

func (e *ColorError) Error() string {
	return fmt.Sprintf("pxl: invalid color %q: %s", e.Literal, e.Reason)
}

func (e *ColorError) Unwrap() error { return ErrParseLiteral }

// PathError reports a malformed SVG-lite path string.
type PathError struct {
	Input  string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("pxl: invalid path %q: %s", e.Input, e.Reason)
}

func (e *PathError) Unwrap() error { return ErrParseLiteral }

// CycleError reports a cyclic reference chain. Path holds the names
// forming the cycle, starting and ending with the repeated name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "pxl: cycle detected: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error { return ErrStructural }

// SizeNotDivisibleError reports a composition whose canvas size is not
// evenly divisible by its cell size.
type SizeNotDivisibleError struct {
	Composition string
	Size        [2]int
	CellSize    [2]int
}

func (e *SizeNotDivisibleError) Error() string {
	return fmt.Sprintf("pxl: size (%dx%d) is not divisible by cell_size (%dx%d) in composition %q",
		e.Size[0], e.Size[1], e.CellSize[0], e.CellSize[1], e.Composition)
}

func (e *SizeNotDivisibleError) Unwrap() error { return ErrStructural }

// MapDimensionMismatchError reports a layer map whose dimensions
// disagree with the composition's cell grid.
type MapDimensionMismatchError struct {
	Composition string
	Layer       string // empty for an unnamed layer
	Got         [2]int
	Want        [2]int
}

func (e *MapDimensionMismatchError) Error() string {
	layer := "unnamed layer"
	if e.Layer != "" {
		layer = fmt.Sprintf("layer %q", e.Layer)
	}
	return fmt.Sprintf("pxl: map dimensions (%dx%d) don't match expected grid size (%dx%d) for %s in composition %q",
		e.Got[0], e.Got[1], e.Want[0], e.Want[1], layer, e.Composition)
}

func (e *MapDimensionMismatchError) Unwrap() error { return ErrStructural }

// SizeMismatchError reports a sprite that exceeds its composition cell.
// Lenient rendering lets the sprite overflow into neighboring cells and
// reports this as a warning instead.
type SizeMismatchError struct {
	Composition string
	Sprite      string
	SpriteSize  [2]int
	CellSize    [2]int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("pxl: sprite %q (%dx%d) exceeds cell size (%dx%d) in composition %q",
		e.Sprite, e.SpriteSize[0], e.SpriteSize[1], e.CellSize[0], e.CellSize[1], e.Composition)
}

func (e *SizeMismatchError) Unwrap() error { return ErrStructural }

// ConstraintError reports a failed within or adjacent-to check on a
// compiled region. Pixels are never mutated by constraint checks.
type ConstraintError struct {
	Region     string
	Constraint string // "within" or "adjacent-to"
	Target     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("pxl: region %q violates %s %q", e.Region, e.Constraint, e.Target)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraint }

// refError builds an undefined-reference error with context.
func refError(kind, name, in string) error {
	return fmt.Errorf("%w: %s %q in %q", ErrUndefinedReference, kind, name, in)
}
