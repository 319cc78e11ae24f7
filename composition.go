package pxl

import "sort"

// DefaultCellSize is the composition tiling unit when none is given.
var DefaultCellSize = [2]int{1, 1}

// CompositionLayer is one layer of a composition, composited bottom to
// top. A fill floods the layer first; a map places sprites on the cell
// grid.
type CompositionLayer struct {
	Name      string          `json:"name,omitempty"`
	Fill      string          `json:"fill,omitempty"`
	Map       []string        `json:"map,omitempty"`
	Transform []TransformSpec `json:"transform,omitempty"`
	Blend     string          `json:"blend,omitempty"` // may be var()
	Opacity   *VarOr[float64] `json:"opacity,omitempty"`
}

// Composition assembles rendered sprites and nested compositions on a
// cell grid. Sprites maps single- or multi-character layer-map keys to
// sprite or composition names; a nil entry means an empty cell.
type Composition struct {
	Name     string             `json:"name"`
	Base     string             `json:"base,omitempty"`
	Size     *[2]int            `json:"size,omitempty"`
	CellSize *[2]int            `json:"cell_size,omitempty"`
	Sprites  map[string]*string `json:"sprites,omitempty"`
	Layers   []CompositionLayer `json:"layers,omitempty"`
}

// cellSize returns the effective cell size, defaulting to [1,1].
func (c *Composition) cellSize() [2]int {
	if c.CellSize == nil || c.CellSize[0] <= 0 || c.CellSize[1] <= 0 {
		return DefaultCellSize
	}
	return *c.CellSize
}

// Registry bundles the immutable object registries a render operates
// over. Cross-file import and alias resolution happen upstream; the
// registry is fully materialized before rendering starts.
type Registry struct {
	Palettes *PaletteRegistry
	Sprites  *SpriteRegistry
	// Vars holds document-level custom properties used by layer blend
	// and opacity var() references.
	Vars *VarScope
	// Transforms is the external applier for transform chains. May be
	// nil; chains then skip with a warning.
	Transforms TransformApplier

	compositions map[string]*Composition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Palettes:     NewPaletteRegistry(),
		Sprites:      NewSpriteRegistry(),
		Vars:         NewVarScope(),
		compositions: make(map[string]*Composition),
	}
}

// RegisterComposition adds a composition, replacing any previous one of
// the same name.
func (r *Registry) RegisterComposition(c *Composition) {
	r.compositions[c.Name] = c
}

// Composition returns a composition by name.
func (r *Registry) Composition(name string) (*Composition, bool) {
	c, ok := r.compositions[name]
	return c, ok
}

// CompositionNames returns all registered composition names, sorted.
func (r *Registry) CompositionNames() []string {
	out := make([]string, 0, len(r.compositions))
	for name := range r.compositions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
