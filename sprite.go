package pxl

import (
	"fmt"
	"slices"
	"sort"
)

// NineSlice defines the fixed border widths of a 9-patch sprite.
type NineSlice struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// CollisionBox is passthrough sprite metadata for external consumers.
type CollisionBox struct {
	Name string `json:"name,omitempty"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// SpriteMeta is opaque passthrough metadata: the core neither reads nor
// validates it beyond structural presence.
type SpriteMeta struct {
	Origin    *[2]int           `json:"origin,omitempty"`
	Boxes     []CollisionBox    `json:"boxes,omitempty"`
	AttachIn  map[string][2]int `json:"attach_in,omitempty"`
	AttachOut map[string][2]int `json:"attach_out,omitempty"`
}

// Sprite is a declarative sprite definition. Exactly one of Grid,
// Regions, or Source is present.
type Sprite struct {
	Name        string               `json:"name"`
	Size        *[2]int              `json:"size,omitempty"`
	Palette     PaletteRef           `json:"palette,omitempty"`
	Grid        []string             `json:"grid,omitempty"`
	Regions     map[string]RegionDef `json:"regions,omitempty"`
	RegionOrder []string             `json:"region-order,omitempty"`
	Source      string               `json:"source,omitempty"`
	Transform   []TransformSpec      `json:"transform,omitempty"`
	Meta        *SpriteMeta          `json:"meta,omitempty"`
	NineSlice   *NineSlice           `json:"nine-slice,omitempty"`
	Antialias   *bool                `json:"antialias,omitempty"`
}

// Validate checks that exactly one resolution path is present.
func (s *Sprite) Validate() error {
	n := 0
	if len(s.Grid) > 0 {
		n++
	}
	if len(s.Regions) > 0 {
		n++
	}
	if s.Source != "" {
		n++
	}
	if n != 1 {
		return fmt.Errorf("%w: sprite %q must have exactly one of grid, regions, or source", ErrStructural, s.Name)
	}
	return nil
}

// declaredTokens lists every token the sprite mentions, for the magenta
// fallback palette.
func (s *Sprite) declaredTokens() []string {
	seen := make(map[string]bool)
	for _, row := range s.Grid {
		tokens, _ := Tokenize(row)
		for _, t := range tokens {
			seen[t] = true
		}
	}
	for name := range s.Regions {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Variant re-colors a base sprite by overlaying palette entries.
type Variant struct {
	Name      string            `json:"name"`
	Base      string            `json:"base"`
	Palette   map[string]string `json:"palette,omitempty"`
	Transform []TransformSpec   `json:"transform,omitempty"`
}

// ResolvedSprite is a sprite ready for rendering: palette materialized,
// variants expanded, source chains followed.
type ResolvedSprite struct {
	Name        string
	Size        *[2]int
	Palette     map[string]string
	Roles       map[string]Role
	Grid        []string
	Regions     map[string]RegionDef
	RegionOrder []string
	NineSlice   *NineSlice
	Transform   []TransformSpec
	Warnings    []Warning
}

// SpriteRegistry resolves sprite and variant names to renderable form.
type SpriteRegistry struct {
	sprites  map[string]*Sprite
	variants map[string]*Variant
}

// NewSpriteRegistry creates an empty registry.
func NewSpriteRegistry() *SpriteRegistry {
	return &SpriteRegistry{
		sprites:  make(map[string]*Sprite),
		variants: make(map[string]*Variant),
	}
}

// RegisterSprite adds a sprite, replacing any previous one of the same
// name.
func (r *SpriteRegistry) RegisterSprite(s *Sprite) {
	r.sprites[s.Name] = s
}

// RegisterVariant adds a variant.
func (r *SpriteRegistry) RegisterVariant(v *Variant) {
	r.variants[v.Name] = v
}

// Sprite returns a sprite by name, without resolving.
func (r *SpriteRegistry) Sprite(name string) (*Sprite, bool) {
	s, ok := r.sprites[name]
	return s, ok
}

// Variant returns a variant by name.
func (r *SpriteRegistry) Variant(name string) (*Variant, bool) {
	v, ok := r.variants[name]
	return v, ok
}

// Contains reports whether a name refers to a sprite or variant.
func (r *SpriteRegistry) Contains(name string) bool {
	_, s := r.sprites[name]
	_, v := r.variants[name]
	return s || v
}

// Names returns all sprite and variant names, sorted.
func (r *SpriteRegistry) Names() []string {
	out := make([]string, 0, len(r.sprites)+len(r.variants))
	for name := range r.sprites {
		out = append(out, name)
	}
	for name := range r.variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve expands a sprite or variant name to renderable form. Under
// lenient policy every failure degrades to a warning and a defined
// fallback; strict policy returns the typed error instead.
func (r *SpriteRegistry) Resolve(name string, palettes *PaletteRegistry, strict bool) (*ResolvedSprite, error) {
	if sprite, ok := r.sprites[name]; ok {
		return r.resolveSprite(sprite, palettes, strict, nil)
	}
	if variant, ok := r.variants[name]; ok {
		return r.resolveVariant(variant, palettes, strict)
	}

	if strict {
		return nil, fmt.Errorf("%w: sprite or variant %q", ErrUndefinedReference, name)
	}
	return &ResolvedSprite{
		Name:     name,
		Palette:  map[string]string{},
		Warnings: []Warning{Warningf("Sprite or variant %q not found", name)},
	}, nil
}

// resolveSprite follows source chains with cycle detection, then
// materializes the palette.
func (r *SpriteRegistry) resolveSprite(sprite *Sprite, palettes *PaletteRegistry, strict bool, visited []string) (*ResolvedSprite, error) {
	if slices.Contains(visited, sprite.Name) {
		chain := append(append([]string{}, visited...), sprite.Name)
		if strict {
			return nil, &CycleError{Path: chain}
		}
		return &ResolvedSprite{
			Name:     sprite.Name,
			Palette:  map[string]string{},
			Warnings: []Warning{{Message: (&CycleError{Path: chain}).Error()}},
		}, nil
	}
	visited = append(visited, sprite.Name)

	var warnings []Warning
	out := &ResolvedSprite{
		Name:        sprite.Name,
		Size:        sprite.Size,
		Grid:        sprite.Grid,
		Regions:     sprite.Regions,
		RegionOrder: sprite.RegionOrder,
		NineSlice:   sprite.NineSlice,
		Transform:   sprite.Transform,
	}

	var base *ResolvedSprite
	if sprite.Source != "" {
		source, ok := r.sprites[sprite.Source]
		if !ok {
			if strict {
				return nil, refError("source sprite", sprite.Source, sprite.Name)
			}
			warnings = append(warnings, Warningf("Sprite %q references unknown source sprite %q", sprite.Name, sprite.Source))
		} else {
			var err error
			base, err = r.resolveSprite(source, palettes, strict, visited)
			if err != nil {
				return nil, err
			}
			warnings = append(warnings, base.Warnings...)
			out.Grid = base.Grid
			out.Regions = base.Regions
			out.RegionOrder = base.RegionOrder
			if out.Size == nil {
				out.Size = base.Size
			}
			// The source's own transform chain runs before this
			// sprite's.
			out.Transform = append(append([]TransformSpec{}, base.Transform...), sprite.Transform...)
		}
	}

	// A sprite that names no palette of its own inherits the resolved
	// palette of its source.
	if sprite.Palette.IsZero() && base != nil {
		out.Palette = base.Palette
		out.Roles = base.Roles
		out.Warnings = warnings
		return out, nil
	}

	resolved, paletteWarnings, err := palettes.Resolve(sprite, strict)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, paletteWarnings...)

	out.Palette = resolved.Colors
	out.Roles = resolved.Roles
	out.Warnings = warnings
	return out, nil
}

// resolveVariant expands a variant through its base sprite and overlays
// the palette overrides.
func (r *SpriteRegistry) resolveVariant(variant *Variant, palettes *PaletteRegistry, strict bool) (*ResolvedSprite, error) {
	base, ok := r.sprites[variant.Base]
	if !ok {
		if strict {
			return nil, refError("base sprite", variant.Base, variant.Name)
		}
		return &ResolvedSprite{
			Name:     variant.Name,
			Palette:  map[string]string{},
			Warnings: []Warning{Warningf("Variant %q references unknown base sprite %q", variant.Name, variant.Base)},
		}, nil
	}

	resolved, err := r.resolveSprite(base, palettes, strict, nil)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(resolved.Palette)+len(variant.Palette))
	for k, v := range resolved.Palette {
		merged[k] = v
	}
	for k, v := range variant.Palette {
		merged[k] = v
	}

	resolved.Name = variant.Name
	resolved.Palette = merged
	resolved.Transform = append(append([]TransformSpec{}, resolved.Transform...), variant.Transform...)
	return resolved, nil
}
