package pxl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pxlgen/pxl/internal/blend"
)

// RenderContext carries the mutable state of one top-level composition
// render: the result cache and the cycle-detection stack. It is scoped
// to a single render invocation and must never be shared across
// concurrent renders; independent renders each get their own context.
type RenderContext struct {
	cache map[string]*Pixmap
	stack []string
}

// NewRenderContext creates a context for one top-level render.
func NewRenderContext() *RenderContext {
	return &RenderContext{cache: make(map[string]*Pixmap)}
}

// push enters a composition. Re-entering a name already on the stack is
// a cycle; the error path runs from the first occurrence to the
// repeated name.
func (ctx *RenderContext) push(name string) error {
	for i, n := range ctx.stack {
		if n == name {
			path := append(append([]string{}, ctx.stack[i:]...), name)
			return &CycleError{Path: path}
		}
	}
	ctx.stack = append(ctx.stack, name)
	return nil
}

func (ctx *RenderContext) pop() {
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
}

// Render resolves a name to a sprite, variant, or composition and
// renders it with a fresh context. It is the top-level entry point for
// one-shot rendering.
func (r *Registry) Render(name string, strict bool) (*Pixmap, []Warning, error) {
	if comp, ok := r.compositions[name]; ok {
		return RenderComposition(comp, r, NewRenderContext(), strict)
	}
	resolved, err := r.Sprites.Resolve(name, r.Palettes, strict)
	if err != nil {
		return nil, nil, err
	}
	renderer := &SpriteRenderer{Transforms: r.Transforms}
	pm, warnings, err := renderer.Render(resolved, strict)
	return pm, append(resolved.Warnings, warnings...), err
}

// RenderComposition renders a composition onto a canvas. Canvas size is
// the explicit size, else the rendered base image size, else inferred
// from the layer maps and cell size. Layers composite bottom to top
// with their blend mode and opacity; nested composition references
// render through ctx, which detects cycles and memoizes results.
func RenderComposition(comp *Composition, reg *Registry, ctx *RenderContext, strict bool) (*Pixmap, []Warning, error) {
	if ctx == nil {
		ctx = NewRenderContext()
	}
	if err := ctx.push(comp.Name); err != nil {
		return nil, nil, err
	}
	defer ctx.pop()

	var warnings []Warning
	cell := comp.cellSize()

	var baseImg *Pixmap
	if comp.Base != "" {
		img, baseWarnings, err := renderRef(comp.Base, reg, ctx, strict)
		warnings = append(warnings, baseWarnings...)
		if err != nil {
			return nil, warnings, err
		}
		if img == nil {
			warnings = append(warnings, Warningf("Base %q of composition %q did not render, ignoring", comp.Base, comp.Name))
		}
		baseImg = img
	}

	var size [2]int
	switch {
	case comp.Size != nil:
		size = *comp.Size
		if cell[0] > 1 || cell[1] > 1 {
			if size[0]%cell[0] != 0 || size[1]%cell[1] != 0 {
				return nil, warnings, &SizeNotDivisibleError{Composition: comp.Name, Size: size, CellSize: cell}
			}
		}
	case baseImg != nil:
		size = [2]int{baseImg.Width(), baseImg.Height()}
	default:
		size = inferSizeFromLayers(comp.Layers, cell)
	}
	if size[0] <= 0 || size[1] <= 0 {
		if strict {
			return nil, warnings, fmt.Errorf("%w: composition %q has no determinable size", ErrStructural, comp.Name)
		}
		warnings = append(warnings, Warningf("Composition %q has no determinable size, rendering 1x1", comp.Name))
		size = [2]int{1, 1}
	}

	canvas := NewPixmap(size[0], size[1])
	if baseImg != nil {
		canvas.Blit(baseImg, 0, 0)
	}

	gridCols := size[0] / cell[0]
	gridRows := size[1] / cell[1]

	for _, layer := range comp.Layers {
		mode, modeWarnings := resolveBlendMode(layer.Blend, reg.Vars)
		warnings = append(warnings, modeWarnings...)
		opacity, opacityWarnings := resolveOpacity(layer.Opacity, reg.Vars)
		warnings = append(warnings, opacityWarnings...)

		content := NewPixmap(size[0], size[1])

		if layer.Fill != "" {
			c, err := ResolveColor(layer.Fill, reg.Vars)
			if err != nil {
				if strict {
					return nil, warnings, fmt.Errorf("composition %q, layer fill: %w", comp.Name, err)
				}
				warnings = append(warnings, Warningf("Invalid fill %q in composition %q: %v, skipping", layer.Fill, comp.Name, err))
			} else {
				content.Clear(c)
			}
		}

		if len(layer.Map) > 0 {
			rows := parseLayerMap(layer.Map)
			if err := checkMapDimensions(comp, &layer, rows, gridCols, gridRows); err != nil {
				return nil, warnings, err
			}
			mapWarnings, err := blitLayerMap(content, comp, rows, cell, reg, ctx, strict)
			warnings = append(warnings, mapWarnings...)
			if err != nil {
				return nil, warnings, err
			}
		}

		if len(layer.Transform) > 0 {
			if reg.Transforms == nil {
				warnings = append(warnings, Warningf("Layer in composition %q has transforms but no transform applier is installed, skipping", comp.Name))
			} else {
				for _, spec := range layer.Transform {
					transformed, err := reg.Transforms.Apply(content, spec)
					if err != nil {
						return nil, warnings, fmt.Errorf("composition %q, transform %q: %w", comp.Name, spec.Op, err)
					}
					content = transformed
				}
			}
		}

		canvas.BlitBlended(content, 0, 0, mode, opacity)
	}

	ctx.cache[comp.Name] = canvas
	Logger().Debug("rendered composition", "name", comp.Name, "width", size[0], "height", size[1])
	return canvas, warnings, nil
}

// blitLayerMap renders each referenced sprite or sub-composition once
// and places it at its cell origin. Content larger than a cell is not
// clipped: it overflows into neighboring cells.
func blitLayerMap(content *Pixmap, comp *Composition, rows [][]string, cell [2]int, reg *Registry, ctx *RenderContext, strict bool) ([]Warning, error) {
	var warnings []Warning
	for r, keys := range rows {
		for c, key := range keys {
			entry, ok := comp.Sprites[key]
			if !ok {
				warnings = append(warnings, Warningf("Unknown map key %q in composition %q", key, comp.Name))
				continue
			}
			if entry == nil {
				continue // empty cell
			}

			img, refWarnings, err := renderRef(*entry, reg, ctx, strict)
			warnings = append(warnings, refWarnings...)
			if err != nil {
				return warnings, err
			}
			if img == nil {
				continue
			}

			if img.Width() > cell[0] || img.Height() > cell[1] {
				if strict {
					return warnings, &SizeMismatchError{
						Composition: comp.Name,
						Sprite:      *entry,
						SpriteSize:  [2]int{img.Width(), img.Height()},
						CellSize:    cell,
					}
				}
				warnings = append(warnings, Warningf("Sprite %q (%dx%d) exceeds cell size (%dx%d) in composition %q, overflowing",
					*entry, img.Width(), img.Height(), cell[0], cell[1], comp.Name))
			}

			content.Blit(img, c*cell[0], r*cell[1])
		}
	}
	return warnings, nil
}

// renderRef renders a sprite, variant, or nested composition by name,
// memoized in the render context so repeated references rasterize once.
// A nil pixmap with no error means the reference could not render under
// lenient policy.
func renderRef(name string, reg *Registry, ctx *RenderContext, strict bool) (*Pixmap, []Warning, error) {
	if img, ok := ctx.cache[name]; ok {
		return img, nil, nil
	}

	if nested, ok := reg.Composition(name); ok {
		return RenderComposition(nested, reg, ctx, strict)
	}

	if !reg.Sprites.Contains(name) {
		if strict {
			return nil, nil, fmt.Errorf("%w: sprite or composition %q", ErrUndefinedReference, name)
		}
		return nil, []Warning{Warningf("Sprite or composition %q not found", name)}, nil
	}

	resolved, err := reg.Sprites.Resolve(name, reg.Palettes, strict)
	if err != nil {
		return nil, nil, err
	}
	renderer := &SpriteRenderer{Transforms: reg.Transforms}
	img, warnings, err := renderer.Render(resolved, strict)
	if err != nil {
		return nil, append(resolved.Warnings, warnings...), err
	}
	ctx.cache[name] = img
	return img, append(resolved.Warnings, warnings...), nil
}

// parseLayerMap splits map rows into cell keys. Rows containing spaces
// use space-separated multi-character keys; otherwise each character is
// a key.
func parseLayerMap(rows []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		if strings.ContainsRune(row, ' ') {
			out[i] = strings.Fields(row)
			continue
		}
		keys := make([]string, 0, len(row))
		for _, r := range row {
			keys = append(keys, string(r))
		}
		out[i] = keys
	}
	return out
}

func checkMapDimensions(comp *Composition, layer *CompositionLayer, rows [][]string, gridCols, gridRows int) error {
	got := [2]int{0, len(rows)}
	for _, keys := range rows {
		if len(keys) > got[0] {
			got[0] = len(keys)
		}
	}
	if got[0] != gridCols || got[1] != gridRows {
		return &MapDimensionMismatchError{
			Composition: comp.Name,
			Layer:       layer.Name,
			Got:         got,
			Want:        [2]int{gridCols, gridRows},
		}
	}
	return nil
}

// inferSizeFromLayers derives a canvas size from the largest layer map.
func inferSizeFromLayers(layers []CompositionLayer, cell [2]int) [2]int {
	maxCols, maxRows := 0, 0
	for _, layer := range layers {
		rows := parseLayerMap(layer.Map)
		if len(rows) > maxRows {
			maxRows = len(rows)
		}
		for _, keys := range rows {
			if len(keys) > maxCols {
				maxCols = len(keys)
			}
		}
	}
	return [2]int{maxCols * cell[0], maxRows * cell[1]}
}

// resolveBlendMode evaluates a layer blend string, resolving var()
// references. Unknown or unresolvable modes fall back to normal with a
// warning.
func resolveBlendMode(s string, scope *VarScope) (blend.Mode, []Warning) {
	if s == "" {
		return blend.Normal, nil
	}
	if strings.Contains(s, "var(") {
		if scope == nil {
			return blend.Normal, []Warning{Warningf("Blend mode %q contains var() but no variable scope is available, using normal", s)}
		}
		resolved, err := scope.Resolve(s)
		if err != nil {
			return blend.Normal, []Warning{Warningf("Failed to resolve blend mode variable %q: %v, using normal", s, err)}
		}
		s = resolved
	}
	mode, ok := blend.ParseMode(s)
	if !ok {
		return blend.Normal, []Warning{Warningf("Unknown blend mode %q, using normal", s)}
	}
	return mode, nil
}

// resolveOpacity evaluates a layer opacity, resolving var() references
// and clamping to [0, 1]. Failures fall back to 1.0 with a warning.
func resolveOpacity(opacity *VarOr[float64], scope *VarScope) (float64, []Warning) {
	if opacity == nil {
		return 1.0, nil
	}
	if !opacity.IsVar() {
		return clamp01(opacity.Value), nil
	}
	if scope == nil {
		return 1.0, []Warning{Warningf("Opacity %q contains var() but no variable scope is available, using 1.0", opacity.Ref)}
	}
	resolved, err := scope.Resolve(opacity.Ref)
	if err != nil {
		return 1.0, []Warning{Warningf("Failed to resolve opacity variable %q: %v, using 1.0", opacity.Ref, err)}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(resolved), 64)
	if err != nil {
		return 1.0, []Warning{Warningf("Opacity variable %q resolved to %q which is not a valid number, using 1.0", opacity.Ref, resolved)}
	}
	return clamp01(v), nil
}
