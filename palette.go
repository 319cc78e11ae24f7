package pxl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// magentaLiteral stands in for colors that failed to resolve under
// lenient policy.
const magentaLiteral = "#FF00FF"

// DefaultRampSteps is the step count for ramps that omit one.
const DefaultRampSteps = 3

// Role classifies a token's semantic purpose inside a palette. Roles
// are mostly passthrough metadata, but they feed the default z-order of
// region tokens that carry no explicit z.
type Role string

const (
	RoleNone      Role = ""
	RoleBoundary  Role = "boundary"
	RoleAnchor    Role = "anchor"
	RoleFill      Role = "fill"
	RoleShadow    Role = "shadow"
	RoleHighlight Role = "highlight"
)

// DefaultZ returns the z-order a region token defaults to for this role
// when it declares no explicit z.
func (r Role) DefaultZ() int {
	switch r {
	case RoleAnchor:
		return 100
	case RoleBoundary:
		return 80
	case RoleShadow, RoleHighlight:
		return 60
	case RoleFill:
		return 40
	default:
		return 0
	}
}

// ColorShift is an HSL delta applied per ramp step. Lightness and
// Saturation are percentage points, Hue is degrees.
type ColorShift struct {
	Lightness  float64 `json:"lightness"`
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
}

// Default shifts per step for the two ramp directions.
var (
	DefaultShadowShift    = ColorShift{Lightness: -15, Hue: 10, Saturation: 5}
	DefaultHighlightShift = ColorShift{Lightness: 12, Hue: -5, Saturation: -10}
)

// ColorRamp derives a family of colors from one base: shadow steps
// below it, highlight steps above it.
type ColorRamp struct {
	Base      string      `json:"base"`
	Steps     int         `json:"steps,omitempty"`
	Shadow    *ColorShift `json:"shadow,omitempty"`
	Highlight *ColorShift `json:"highlight,omitempty"`
}

// Relationship is passthrough palette metadata describing how two
// tokens relate. The core does not interpret it.
type Relationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"type"`
}

// Palette maps tokens to color literals. Keys beginning with "--" are
// CSS custom properties available to the other entries.
type Palette struct {
	Name          string               `json:"name"`
	Colors        map[string]string    `json:"colors"`
	Ramps         map[string]ColorRamp `json:"ramps,omitempty"`
	Roles         map[string]Role      `json:"roles,omitempty"`
	Relationships []Relationship       `json:"relationships,omitempty"`
}

// PaletteRef points a sprite at its palette: a registered name, an
// "@name" builtin, or an inline token map. Decodes from a JSON string
// or object.
type PaletteRef struct {
	Name   string
	Inline map[string]string
}

// IsZero reports an absent reference.
func (r PaletteRef) IsZero() bool { return r.Name == "" && r.Inline == nil }

// UnmarshalJSON accepts either a palette name or an inline color map.
func (r *PaletteRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Name)
	}
	return json.Unmarshal(data, &r.Inline)
}

// MarshalJSON writes the name when present, the inline map otherwise.
func (r PaletteRef) MarshalJSON() ([]byte, error) {
	if r.Name != "" {
		return json.Marshal(r.Name)
	}
	return json.Marshal(r.Inline)
}

// PaletteSource records where a resolved palette came from.
type PaletteSource int

const (
	PaletteSourceNamed PaletteSource = iota
	PaletteSourceBuiltin
	PaletteSourceInline
	PaletteSourceFallback
)

func (s PaletteSource) String() string {
	switch s {
	case PaletteSourceNamed:
		return "named"
	case PaletteSourceBuiltin:
		return "builtin"
	case PaletteSourceInline:
		return "inline"
	case PaletteSourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ResolvedPalette is a palette with every custom property substituted
// and every ramp expanded. Values are still literal strings; rendering
// evaluates them to RGBA.
type ResolvedPalette struct {
	Colors map[string]string
	Roles  map[string]Role
	Source PaletteSource
}

// PaletteRegistry resolves sprite palette references.
type PaletteRegistry struct {
	palettes map[string]Palette
	external *VarScope
}

// NewPaletteRegistry creates an empty registry.
func NewPaletteRegistry() *PaletteRegistry {
	return &PaletteRegistry{palettes: make(map[string]Palette)}
}

// Register adds a palette, replacing any palette with the same name.
func (r *PaletteRegistry) Register(p Palette) {
	r.palettes[p.Name] = p
}

// Get returns a registered palette by name.
func (r *PaletteRegistry) Get(name string) (Palette, bool) {
	p, ok := r.palettes[name]
	return p, ok
}

// Len returns the number of registered palettes.
func (r *PaletteRegistry) Len() int { return len(r.palettes) }

// SetExternalVars installs document-level custom properties. Palette-
// local properties take precedence over these.
func (r *PaletteRegistry) SetExternalVars(scope *VarScope) {
	r.external = scope
}

// Resolve materializes a sprite's palette. Dangling references resolve,
// under lenient policy, to a fallback palette painting every token the
// sprite declares magenta; strict policy fails instead.
func (r *PaletteRegistry) Resolve(sprite *Sprite, strict bool) (ResolvedPalette, []Warning, error) {
	ref := sprite.Palette
	switch {
	case ref.Inline != nil:
		return r.materialize(Palette{Name: sprite.Name, Colors: ref.Inline}, PaletteSourceInline, strict)
	case ref.Name == "":
		// No palette at all behaves like a dangling reference.
		return r.fallback(sprite, "", strict)
	case strings.HasPrefix(ref.Name, "@"):
		p, ok := BuiltinPalette(strings.TrimPrefix(ref.Name, "@"))
		if !ok {
			return r.fallback(sprite, ref.Name, strict)
		}
		return r.materialize(p, PaletteSourceBuiltin, strict)
	default:
		p, ok := r.palettes[ref.Name]
		if !ok {
			return r.fallback(sprite, ref.Name, strict)
		}
		return r.materialize(p, PaletteSourceNamed, strict)
	}
}

func (r *PaletteRegistry) fallback(sprite *Sprite, name string, strict bool) (ResolvedPalette, []Warning, error) {
	if strict {
		return ResolvedPalette{}, nil, refError("palette", name, sprite.Name)
	}
	colors := make(map[string]string)
	for _, token := range sprite.declaredTokens() {
		colors[token] = magentaLiteral
	}
	w := Warningf("Palette %q not found for sprite %q, using magenta fallback", name, sprite.Name)
	return ResolvedPalette{Colors: colors, Source: PaletteSourceFallback}, []Warning{w}, nil
}

// materialize runs the two-pass resolution: custom properties collect
// into the scope first, then color entries resolve, so entries may
// reference properties declared after them.
func (r *PaletteRegistry) materialize(p Palette, source PaletteSource, strict bool) (ResolvedPalette, []Warning, error) {
	var warnings []Warning

	scope := NewVarScope()
	if r.external != nil {
		scope = r.external.Clone()
	}
	for k, v := range p.Colors {
		if strings.HasPrefix(k, "--") {
			scope.Set(k, v)
		}
	}

	colors := make(map[string]string, len(p.Colors))
	for k, v := range p.Colors {
		if strings.HasPrefix(k, "--") {
			continue
		}
		resolved, err := scope.Resolve(v)
		if err != nil {
			if strict {
				return ResolvedPalette{}, nil, fmt.Errorf("palette %q, token %s: %w", p.Name, k, err)
			}
			warnings = append(warnings, Warningf("Failed to resolve color %q for token %s: %v, using magenta", v, k, err))
			resolved = magentaLiteral
		}
		colors[k] = resolved
	}

	rampWarnings, err := expandRamps(p, scope, colors, strict)
	if err != nil {
		return ResolvedPalette{}, nil, err
	}
	warnings = append(warnings, rampWarnings...)

	return ResolvedPalette{Colors: colors, Roles: p.Roles, Source: source}, warnings, nil
}

// expandRamps adds the generated ramp entries to colors. A ramp named
// "skin" with 5 steps produces {skin_2} {skin_1} {skin} {skin+1}
// {skin+2}, darkest first. Explicit color entries win over generated
// ones.
func expandRamps(p Palette, scope *VarScope, colors map[string]string, strict bool) ([]Warning, error) {
	var warnings []Warning

	names := make([]string, 0, len(p.Ramps))
	for name := range p.Ramps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ramp := p.Ramps[name]
		literal, err := scope.Resolve(ramp.Base)
		if err == nil {
			var base RGBA
			base, err = ResolveColor(literal, scope)
			if err == nil {
				shadow := DefaultShadowShift
				if ramp.Shadow != nil {
					shadow = *ramp.Shadow
				}
				highlight := DefaultHighlightShift
				if ramp.Highlight != nil {
					highlight = *ramp.Highlight
				}
				steps := BuildRamp(base, ramp.Steps, shadow, highlight)
				shadowCount := (len(steps) - 1) / 2
				for i, c := range steps {
					var suffix string
					switch {
					case i < shadowCount:
						suffix = fmt.Sprintf("_%d", shadowCount-i)
					case i > shadowCount:
						suffix = fmt.Sprintf("+%d", i-shadowCount)
					}
					token := "{" + name + suffix + "}"
					if _, exists := colors[token]; !exists {
						colors[token] = c.Hex()
					}
				}
				continue
			}
		}
		if strict {
			return nil, fmt.Errorf("palette %q, ramp %q: %w", p.Name, name, err)
		}
		warnings = append(warnings, Warningf("Failed to resolve ramp %q base %q: %v, skipping", name, ramp.Base, err))
	}
	return warnings, nil
}

// BuildRamp generates steps colors centered on base: floor((steps-1)/2)
// shadow entries (darkest first, each accumulating the shadow shift
// further from base), then base, then the remaining highlight entries
// accumulating the highlight shift.
func BuildRamp(base RGBA, steps int, shadow, highlight ColorShift) []RGBA {
	if steps <= 0 {
		steps = DefaultRampSteps
	}
	shadowCount := (steps - 1) / 2
	highlightCount := steps - 1 - shadowCount

	out := make([]RGBA, 0, steps)
	for i := shadowCount; i >= 1; i-- {
		out = append(out, shiftHSL(base, shadow, float64(i)))
	}
	out = append(out, base)
	for i := 1; i <= highlightCount; i++ {
		out = append(out, shiftHSL(base, highlight, float64(i)))
	}
	return out
}

// shiftHSL applies n accumulated steps of an HSL shift to a color,
// preserving its alpha.
func shiftHSL(c RGBA, shift ColorShift, n float64) RGBA {
	h, s, l := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsl()
	h = normalizeHue(h + shift.Hue*n)
	s = clamp01(s + shift.Saturation*n/100)
	l = clamp01(l + shift.Lightness*n/100)
	out := colorful.Hsl(h, s, l).Clamped()
	return RGBA{R: out.R, G: out.G, B: out.B, A: c.A}
}
