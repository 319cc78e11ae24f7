package pxl

import (
	"errors"
	"testing"
)

func heroRegistry() (*SpriteRegistry, *PaletteRegistry) {
	palettes := NewPaletteRegistry()
	palettes.Register(Palette{
		Name: "hero",
		Colors: map[string]string{
			"{_}":    "transparent",
			"{skin}": "#fcb8b8",
			"{hair}": "#503000",
		},
	})

	sprites := NewSpriteRegistry()
	sprites.RegisterSprite(&Sprite{
		Name:    "knight",
		Palette: PaletteRef{Name: "hero"},
		Grid:    []string{"{hair}{hair}", "{skin}{skin}"},
	})
	return sprites, palettes
}

func TestSprite_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sprite  Sprite
		wantErr bool
	}{
		{"grid only", Sprite{Name: "a", Grid: []string{"{x}"}}, false},
		{"regions only", Sprite{Name: "a", Regions: map[string]RegionDef{"{x}": {}}}, false},
		{"source only", Sprite{Name: "a", Source: "b"}, false},
		{"none", Sprite{Name: "a"}, true},
		{"grid and source", Sprite{Name: "a", Grid: []string{"{x}"}, Source: "b"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sprite.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrStructural) {
				t.Errorf("error %v should wrap ErrStructural", err)
			}
		})
	}
}

func TestSpriteRegistry_Resolve(t *testing.T) {
	sprites, palettes := heroRegistry()

	resolved, err := sprites.Resolve("knight", palettes, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Name != "knight" {
		t.Errorf("Name = %q", resolved.Name)
	}
	if resolved.Palette["{skin}"] != "#fcb8b8" {
		t.Errorf("palette = %v", resolved.Palette)
	}
	if len(resolved.Grid) != 2 {
		t.Errorf("grid = %v", resolved.Grid)
	}
}

func TestSpriteRegistry_NotFound(t *testing.T) {
	sprites, palettes := heroRegistry()

	if _, err := sprites.Resolve("ghost", palettes, true); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("strict: got %v, want ErrUndefinedReference", err)
	}

	resolved, err := sprites.Resolve("ghost", palettes, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved.Warnings) == 0 {
		t.Error("lenient resolution should warn")
	}
}

func TestSpriteRegistry_SourceChain(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterSprite(&Sprite{
		Name:      "knight-flipped",
		Source:    "knight",
		Palette:   PaletteRef{Name: "hero"},
		Transform: []TransformSpec{{Op: "mirror-h"}},
	})

	resolved, err := sprites.Resolve("knight-flipped", palettes, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved.Grid) != 2 {
		t.Errorf("source grid not inherited: %v", resolved.Grid)
	}
	if len(resolved.Transform) != 1 || resolved.Transform[0].Op != "mirror-h" {
		t.Errorf("transforms = %v", resolved.Transform)
	}
}

func TestSpriteRegistry_SourceChainTransformOrder(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterSprite(&Sprite{
		Name:      "mid",
		Source:    "knight",
		Palette:   PaletteRef{Name: "hero"},
		Transform: []TransformSpec{{Op: "mirror-h"}},
	})
	sprites.RegisterSprite(&Sprite{
		Name:      "top",
		Source:    "mid",
		Palette:   PaletteRef{Name: "hero"},
		Transform: []TransformSpec{{Op: "rotate:90"}},
	})

	resolved, err := sprites.Resolve("top", palettes, true)
	if err != nil {
		t.Fatal(err)
	}
	// The source's transforms run before this sprite's own.
	if len(resolved.Transform) != 2 ||
		resolved.Transform[0].Op != "mirror-h" || resolved.Transform[1].Op != "rotate:90" {
		t.Errorf("transform chain = %v", resolved.Transform)
	}
}

func TestSpriteRegistry_SourceChainPaletteInherited(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterSprite(&Sprite{
		Name:   "squire",
		Source: "knight",
	})

	resolved, err := sprites.Resolve("squire", palettes, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Palette["{skin}"] != "#fcb8b8" {
		t.Errorf("source palette not inherited: %v", resolved.Palette)
	}
	if len(resolved.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", resolved.Warnings)
	}
}

func TestSpriteRegistry_SourceCycle(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterSprite(&Sprite{Name: "a", Source: "b", Palette: PaletteRef{Name: "hero"}})
	sprites.RegisterSprite(&Sprite{Name: "b", Source: "a", Palette: PaletteRef{Name: "hero"}})

	_, err := sprites.Resolve("a", palettes, true)
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want *CycleError", err)
	}

	// Lenient mode degrades to a warning.
	resolved, err := sprites.Resolve("a", palettes, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved.Warnings) == 0 {
		t.Error("lenient cycle should warn")
	}
}

func TestSpriteRegistry_Variant(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterVariant(&Variant{
		Name:    "dark-knight",
		Base:    "knight",
		Palette: map[string]string{"{hair}": "#000000"},
	})

	resolved, err := sprites.Resolve("dark-knight", palettes, true)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Name != "dark-knight" {
		t.Errorf("Name = %q", resolved.Name)
	}
	// Only the overridden token changes.
	if resolved.Palette["{hair}"] != "#000000" {
		t.Errorf("{hair} = %q, want the override", resolved.Palette["{hair}"])
	}
	if resolved.Palette["{skin}"] != "#fcb8b8" {
		t.Errorf("{skin} = %q, want the base value", resolved.Palette["{skin}"])
	}
	if len(resolved.Grid) != 2 {
		t.Errorf("variant should inherit the base grid: %v", resolved.Grid)
	}
}

func TestSpriteRegistry_VariantUnknownBase(t *testing.T) {
	sprites, palettes := heroRegistry()
	sprites.RegisterVariant(&Variant{Name: "v", Base: "ghost"})

	if _, err := sprites.Resolve("v", palettes, true); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("strict: got %v", err)
	}

	resolved, err := sprites.Resolve("v", palettes, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved.Warnings) == 0 {
		t.Error("lenient resolution should warn")
	}
}

func TestSpriteRegistry_Names(t *testing.T) {
	sprites, _ := heroRegistry()
	sprites.RegisterVariant(&Variant{Name: "alt", Base: "knight"})

	names := sprites.Names()
	if len(names) != 2 || names[0] != "alt" || names[1] != "knight" {
		t.Errorf("Names() = %v", names)
	}
	if !sprites.Contains("knight") || !sprites.Contains("alt") || sprites.Contains("ghost") {
		t.Error("Contains misreports")
	}
}
