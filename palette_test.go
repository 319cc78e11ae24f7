package pxl

import (
	"errors"
	"testing"
)

func TestPaletteRegistry_Materialize(t *testing.T) {
	reg := NewPaletteRegistry()
	reg.Register(Palette{
		Name: "hero",
		Colors: map[string]string{
			// Entries may reference properties declared after them.
			"{skin}":   "var(--skin)",
			"--skin":   "#fcb8b8",
			"{armor}":  "#7c7c7c",
			"{cloak}":  "var(--cloak, #306230)",
		},
	})

	sprite := &Sprite{Name: "knight", Palette: PaletteRef{Name: "hero"}, Grid: []string{"{skin}"}}
	resolved, warnings, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if resolved.Source != PaletteSourceNamed {
		t.Errorf("Source = %v, want named", resolved.Source)
	}
	if got := resolved.Colors["{skin}"]; got != "#fcb8b8" {
		t.Errorf("{skin} = %q", got)
	}
	if got := resolved.Colors["{cloak}"]; got != "#306230" {
		t.Errorf("{cloak} = %q", got)
	}
	if _, ok := resolved.Colors["--skin"]; ok {
		t.Error("custom properties must not appear as color entries")
	}
}

func TestPaletteRegistry_ExternalVars(t *testing.T) {
	external := NewVarScope()
	external.Set("--accent", "#ff0000")

	reg := NewPaletteRegistry()
	reg.SetExternalVars(external)
	reg.Register(Palette{
		Name: "themed",
		Colors: map[string]string{
			"{a}": "var(--accent)",
			"{b}": "var(--local)",
			// Palette-local properties shadow external ones.
			"--local": "#00ff00",
		},
	})

	sprite := &Sprite{Name: "s", Palette: PaletteRef{Name: "themed"}, Grid: []string{"{a}{b}"}}
	resolved, _, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Colors["{a}"] != "#ff0000" || resolved.Colors["{b}"] != "#00ff00" {
		t.Errorf("colors = %v", resolved.Colors)
	}
}

func TestPaletteRegistry_Fallback(t *testing.T) {
	reg := NewPaletteRegistry()
	sprite := &Sprite{
		Name:    "orphan",
		Palette: PaletteRef{Name: "nope"},
		Grid:    []string{"{x}{y}"},
	}

	resolved, warnings, err := reg.Resolve(sprite, false)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != PaletteSourceFallback {
		t.Errorf("Source = %v, want fallback", resolved.Source)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning for the dangling palette reference")
	}
	for _, token := range []string{"{x}", "{y}"} {
		if got := resolved.Colors[token]; got != magentaLiteral {
			t.Errorf("%s = %q, want magenta", token, got)
		}
	}

	if _, _, err := reg.Resolve(sprite, true); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("strict: got %v, want ErrUndefinedReference", err)
	}
}

func TestPaletteRegistry_UnresolvableEntry(t *testing.T) {
	reg := NewPaletteRegistry()
	reg.Register(Palette{
		Name:   "broken",
		Colors: map[string]string{"{a}": "var(--missing)"},
	})
	sprite := &Sprite{Name: "s", Palette: PaletteRef{Name: "broken"}, Grid: []string{"{a}"}}

	resolved, warnings, err := reg.Resolve(sprite, false)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Colors["{a}"] != magentaLiteral {
		t.Errorf("{a} = %q, want magenta", resolved.Colors["{a}"])
	}
	if len(warnings) == 0 {
		t.Error("expected a warning")
	}

	if _, _, err := reg.Resolve(sprite, true); err == nil {
		t.Error("strict resolution should fail")
	}
}

func TestPaletteRegistry_Inline(t *testing.T) {
	reg := NewPaletteRegistry()
	sprite := &Sprite{
		Name:    "inline",
		Palette: PaletteRef{Inline: map[string]string{"{x}": "#112233"}},
		Grid:    []string{"{x}"},
	}
	resolved, _, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != PaletteSourceInline {
		t.Errorf("Source = %v, want inline", resolved.Source)
	}
	if resolved.Colors["{x}"] != "#112233" {
		t.Errorf("{x} = %q", resolved.Colors["{x}"])
	}
}

func TestBuiltinPalettes(t *testing.T) {
	for _, name := range BuiltinNames() {
		p, ok := BuiltinPalette(name)
		if !ok {
			t.Fatalf("builtin %q missing", name)
		}
		if _, ok := p.Colors["{_}"]; !ok {
			t.Errorf("builtin %q lacks the transparent token", name)
		}
	}

	gb, _ := BuiltinPalette("gameboy")
	if gb.Colors["{darkest}"] != "#0F380F" {
		t.Errorf("gameboy darkest = %q", gb.Colors["{darkest}"])
	}
	if _, ok := BuiltinPalette("Gameboy"); ok {
		t.Error("builtin lookup should be case-sensitive")
	}
	if _, ok := BuiltinPalette(""); ok {
		t.Error("empty name should not match a builtin")
	}
}

func TestPaletteRegistry_Builtin(t *testing.T) {
	reg := NewPaletteRegistry()
	sprite := &Sprite{Name: "s", Palette: PaletteRef{Name: "@pico8"}, Grid: []string{"{red}"}}

	resolved, _, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Source != PaletteSourceBuiltin {
		t.Errorf("Source = %v, want builtin", resolved.Source)
	}
	if resolved.Colors["{red}"] != "#FF004D" {
		t.Errorf("{red} = %q", resolved.Colors["{red}"])
	}

	bad := &Sprite{Name: "s", Palette: PaletteRef{Name: "@nope"}, Grid: []string{"{x}"}}
	if _, _, err := reg.Resolve(bad, true); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("unknown builtin: got %v", err)
	}
}

func TestBuildRamp(t *testing.T) {
	base := RGBA{R: 0.5, G: 0.3, B: 0.2, A: 1}

	steps := BuildRamp(base, 5, DefaultShadowShift, DefaultHighlightShift)
	if len(steps) != 5 {
		t.Fatalf("len = %d, want 5", len(steps))
	}
	if !colorClose(steps[2], base) {
		t.Errorf("center step = %v, want base %v", steps[2], base)
	}

	// Shadows darken toward the front of the ramp, highlights lighten
	// toward the back.
	lum := func(c RGBA) float64 { return c.R + c.G + c.B }
	for i := 0; i+1 < len(steps); i++ {
		if lum(steps[i]) >= lum(steps[i+1]) {
			t.Errorf("ramp not monotonically lighter at step %d: %v -> %v", i, steps[i], steps[i+1])
		}
	}

	// Zero steps falls back to the default.
	if got := BuildRamp(base, 0, DefaultShadowShift, DefaultHighlightShift); len(got) != DefaultRampSteps {
		t.Errorf("default steps = %d, want %d", len(got), DefaultRampSteps)
	}

	// A single step is just the base.
	one := BuildRamp(base, 1, DefaultShadowShift, DefaultHighlightShift)
	if len(one) != 1 || !colorClose(one[0], base) {
		t.Errorf("single step ramp = %v", one)
	}
}

func TestPalette_RampExpansion(t *testing.T) {
	reg := NewPaletteRegistry()
	reg.Register(Palette{
		Name:   "ramped",
		Colors: map[string]string{"--base": "#885533"},
		Ramps: map[string]ColorRamp{
			"skin": {Base: "var(--base)", Steps: 5},
		},
	})
	sprite := &Sprite{Name: "s", Palette: PaletteRef{Name: "ramped"}, Grid: []string{"{skin}"}}

	resolved, _, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, token := range []string{"{skin_2}", "{skin_1}", "{skin}", "{skin+1}", "{skin+2}"} {
		if _, ok := resolved.Colors[token]; !ok {
			t.Errorf("missing ramp token %s", token)
		}
	}
	if got := resolved.Colors["{skin}"]; got != "#885533" {
		t.Errorf("{skin} = %q, want the ramp base", got)
	}
}

func TestPalette_RampExplicitEntryWins(t *testing.T) {
	reg := NewPaletteRegistry()
	reg.Register(Palette{
		Name: "mixed",
		Colors: map[string]string{
			"{skin+1}": "#ffffff",
		},
		Ramps: map[string]ColorRamp{
			"skin": {Base: "#885533"},
		},
	})
	sprite := &Sprite{Name: "s", Palette: PaletteRef{Name: "mixed"}, Grid: []string{"{skin}"}}

	resolved, _, err := reg.Resolve(sprite, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := resolved.Colors["{skin+1}"]; got != "#ffffff" {
		t.Errorf("{skin+1} = %q, explicit entry should win over the ramp", got)
	}
}

func TestRole_DefaultZ(t *testing.T) {
	order := []Role{RoleNone, RoleFill, RoleShadow, RoleBoundary, RoleAnchor}
	for i := 0; i+1 < len(order); i++ {
		if order[i].DefaultZ() >= order[i+1].DefaultZ() {
			t.Errorf("DefaultZ ordering broken between %q and %q", order[i], order[i+1])
		}
	}
	if RoleShadow.DefaultZ() != RoleHighlight.DefaultZ() {
		t.Error("shadow and highlight should share a default z")
	}
}
