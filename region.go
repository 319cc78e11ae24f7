package pxl

import "strings"

// JitterSpec displaces region pixels by per-pixel random offsets drawn
// from the inclusive X and Y ranges. The region-level seed fully
// determines the result; the compiler never consults ambient entropy.
type JitterSpec struct {
	X [2]int `json:"x"`
	Y [2]int `json:"y"`
}

// RegionDef describes one named shape region of a sprite. Exactly one
// shape field or one compound form is set; the remaining fields are
// orthogonal modifiers.
type RegionDef struct {
	// Shape primitives, mutually exclusive.
	Points   [][2]int `json:"points,omitempty"`
	Line     [][2]int `json:"line,omitempty"`
	Rect     *[4]int  `json:"rect,omitempty"`    // x, y, w, h
	Stroke   *[4]int  `json:"stroke,omitempty"`  // x, y, w, h border
	Ellipse  *[4]int  `json:"ellipse,omitempty"` // cx, cy, rx, ry
	Circle   *[3]int  `json:"circle,omitempty"`  // cx, cy, r
	Polygon  [][2]int `json:"polygon,omitempty"`
	Path     string   `json:"path,omitempty"`
	Fill     string   `json:"fill,omitempty"`      // "inside(name)"
	FillSeed *[2]int  `json:"fill-seed,omitempty"` // explicit flood-fill start

	// Compound forms, mutually exclusive with the primitives.
	Union     []RegionDef `json:"union,omitempty"`
	Base      *RegionDef  `json:"base,omitempty"`
	Subtract  []RegionDef `json:"subtract,omitempty"`
	Intersect []RegionDef `json:"intersect,omitempty"`

	// Modifiers.
	Except          []string        `json:"except,omitempty"`
	AutoOutline     string          `json:"auto-outline,omitempty"`
	AutoShadow      string          `json:"auto-shadow,omitempty"`
	Offset          [2]int          `json:"offset,omitempty"` // auto-shadow displacement
	Within          string          `json:"within,omitempty"`
	AdjacentTo      string          `json:"adjacent-to,omitempty"`
	X               *[2]int         `json:"x,omitempty"` // inclusive column range crop
	Y               *[2]int         `json:"y,omitempty"` // inclusive row range crop
	Symmetric       string          `json:"symmetric,omitempty"` // "x", "y", "xy", or axis coordinate
	Z               *int            `json:"z,omitempty"`
	Round           int             `json:"round,omitempty"`
	Thickness       int             `json:"thickness,omitempty"`
	Repeat          *[2]int         `json:"repeat,omitempty"`
	Spacing         *[2]int         `json:"spacing,omitempty"` // per-axis tile gap
	OffsetAlternate bool            `json:"offset-alternate,omitempty"`
	Transform       []TransformSpec `json:"transform,omitempty"`
	Jitter          *JitterSpec     `json:"jitter,omitempty"`
	Seed            *int64          `json:"seed,omitempty"` // jitter seed
	Role            Role            `json:"role,omitempty"`
	Antialias       *bool           `json:"antialias,omitempty"`
}

// references lists the sibling region names this definition depends on:
// except targets, auto-outline/auto-shadow sources, and the region
// named by fill="inside(name)". These edges order compilation.
func (r *RegionDef) references() []string {
	var refs []string
	refs = append(refs, r.Except...)
	if r.AutoOutline != "" {
		refs = append(refs, r.AutoOutline)
	}
	if r.AutoShadow != "" {
		refs = append(refs, r.AutoShadow)
	}
	if name, ok := fillTarget(r.Fill); ok {
		refs = append(refs, name)
	}
	for _, child := range r.children() {
		refs = append(refs, child.references()...)
	}
	return refs
}

// children returns the nested definitions of a compound region.
func (r *RegionDef) children() []*RegionDef {
	var out []*RegionDef
	for i := range r.Union {
		out = append(out, &r.Union[i])
	}
	if r.Base != nil {
		out = append(out, r.Base)
	}
	for i := range r.Subtract {
		out = append(out, &r.Subtract[i])
	}
	for i := range r.Intersect {
		out = append(out, &r.Intersect[i])
	}
	return out
}

// fillTarget extracts the region name from a fill="inside(name)" value.
func fillTarget(fill string) (string, bool) {
	fill = strings.TrimSpace(fill)
	if !strings.HasPrefix(fill, "inside(") || !strings.HasSuffix(fill, ")") {
		return "", false
	}
	name := strings.TrimSpace(fill[len("inside(") : len(fill)-1])
	return name, name != ""
}
