package pxl

import (
	"errors"
	"testing"
)

func ref(name string) *string { return &name }

func sceneRegistry() *Registry {
	reg := NewRegistry()
	reg.Palettes.Register(Palette{
		Name: "basic",
		Colors: map[string]string{
			"{r}": "#ff0000",
			"{g}": "#00ff00",
			"{b}": "#0000ff",
		},
	})
	reg.Sprites.RegisterSprite(&Sprite{
		Name:    "red",
		Palette: PaletteRef{Name: "basic"},
		Grid:    []string{"{r}{r}", "{r}{r}"},
	})
	reg.Sprites.RegisterSprite(&Sprite{
		Name:    "green",
		Palette: PaletteRef{Name: "basic"},
		Grid:    []string{"{g}{g}", "{g}{g}"},
	})
	return reg
}

func TestRenderComposition_Map(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:     "scene",
		Size:     &[2]int{4, 4},
		CellSize: &[2]int{2, 2},
		Sprites:  map[string]*string{"R": ref("red"), "G": ref("green"), ".": nil},
		Layers: []CompositionLayer{
			{Map: []string{"RG", ".R"}},
		},
	}

	pm, warnings, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings: %v", warnings)
	}
	if pm.Width() != 4 || pm.Height() != 4 {
		t.Fatalf("size = %dx%d", pm.Width(), pm.Height())
	}
	pixelEquals(t, pm, 0, 0, RGBA{R: 1, A: 1})
	pixelEquals(t, pm, 2, 0, RGBA{G: 1, A: 1})
	// Empty cell stays transparent.
	pixelEquals(t, pm, 0, 2, Transparent)
	pixelEquals(t, pm, 2, 2, RGBA{R: 1, A: 1})
}

func TestRenderComposition_FillLayer(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name: "washed",
		Size: &[2]int{2, 2},
		Layers: []CompositionLayer{
			{Fill: "#0000ff"},
		},
	}

	pm, _, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	pixelEquals(t, pm, 0, 0, RGBA{B: 1, A: 1})
	pixelEquals(t, pm, 1, 1, RGBA{B: 1, A: 1})
}

func TestRenderComposition_BlendMultiply(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name: "tinted",
		Size: &[2]int{2, 2},
		Layers: []CompositionLayer{
			{Fill: "rgb(200, 200, 200)"},
			{Fill: "rgb(100, 100, 100)", Blend: "multiply"},
		},
	}

	pm, _, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	want := (200.0 / 255) * (100.0 / 255)
	got := pm.GetPixel(0, 0)
	if absDiff(got.R, want) > 0.01 {
		t.Errorf("multiply channel = %v, want about %v", got.R, want)
	}
}

func TestRenderComposition_Opacity(t *testing.T) {
	reg := sceneRegistry()
	half := &VarOr[float64]{Value: 0.5}
	comp := &Composition{
		Name: "faded",
		Size: &[2]int{1, 1},
		Layers: []CompositionLayer{
			{Fill: "#000000"},
			{Fill: "#ffffff", Opacity: half},
		},
	}

	pm, _, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	got := pm.GetPixel(0, 0)
	if absDiff(got.R, 0.5) > 0.01 || absDiff(got.A, 1) > 0.01 {
		t.Errorf("half opacity over black = %v", got)
	}
}

func TestRenderComposition_BlendAndOpacityVars(t *testing.T) {
	reg := sceneRegistry()
	reg.Vars.Set("--mode", "screen")
	reg.Vars.Set("--fade", "0.25")

	comp := &Composition{
		Name: "varred",
		Size: &[2]int{1, 1},
		Layers: []CompositionLayer{
			{Fill: "#808080", Blend: "var(--mode)", Opacity: &VarOr[float64]{Ref: "var(--fade)"}},
		},
	}

	if _, warnings, err := RenderComposition(comp, reg, nil, true); err != nil {
		t.Fatal(err)
	} else if len(warnings) != 0 {
		t.Errorf("warnings: %v", warnings)
	}

	// Unresolvable references degrade to defaults with warnings.
	bad := &Composition{
		Name: "badvars",
		Size: &[2]int{1, 1},
		Layers: []CompositionLayer{
			{Fill: "#808080", Blend: "var(--nope)", Opacity: &VarOr[float64]{Ref: "var(--gone)"}},
		},
	}
	_, warnings, err := RenderComposition(bad, reg, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want 2", warnings)
	}
}

func TestRenderComposition_SizeNotDivisible(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:     "odd",
		Size:     &[2]int{5, 5},
		CellSize: &[2]int{2, 2},
	}

	_, _, err := RenderComposition(comp, reg, nil, true)
	var sizeErr *SizeNotDivisibleError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("got %v, want *SizeNotDivisibleError", err)
	}
	if !errors.Is(err, ErrStructural) {
		t.Error("should wrap ErrStructural")
	}
}

func TestRenderComposition_MapDimensionMismatch(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:     "short",
		Size:     &[2]int{4, 4},
		CellSize: &[2]int{2, 2},
		Sprites:  map[string]*string{"R": ref("red")},
		Layers: []CompositionLayer{
			{Name: "fg", Map: []string{"R"}},
		},
	}

	_, _, err := RenderComposition(comp, reg, nil, true)
	var mismatch *MapDimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want *MapDimensionMismatchError", err)
	}
	if mismatch.Got != [2]int{1, 1} || mismatch.Want != [2]int{2, 2} {
		t.Errorf("got %v, want %v", mismatch.Got, mismatch.Want)
	}
}

func TestRenderComposition_SpriteExceedsCell(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:    "tight",
		Size:    &[2]int{2, 2},
		Sprites: map[string]*string{"R": ref("red")},
		Layers: []CompositionLayer{
			{Map: []string{"R.", ".."}},
		},
	}
	comp.Sprites["."] = nil

	// Strict: a 2x2 sprite in a 1x1 cell is fatal.
	_, _, err := RenderComposition(comp, reg, nil, true)
	var mismatch *SizeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want *SizeMismatchError", err)
	}

	// Lenient: the sprite overflows into neighboring cells, not clipped.
	pm, warnings, err := RenderComposition(comp, reg, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) == 0 {
		t.Error("expected an overflow warning")
	}
	pixelEquals(t, pm, 1, 1, RGBA{R: 1, A: 1})
}

func TestRenderComposition_Cycle(t *testing.T) {
	reg := sceneRegistry()
	reg.RegisterComposition(&Composition{
		Name: "A", Base: "B", Size: &[2]int{2, 2},
	})
	reg.RegisterComposition(&Composition{
		Name: "B", Base: "A", Size: &[2]int{2, 2},
	})

	comp, _ := reg.Composition("A")
	_, _, err := RenderComposition(comp, reg, nil, true)
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want *CycleError", err)
	}
	want := []string{"A", "B", "A"}
	if len(cycle.Path) != len(want) {
		t.Fatalf("cycle path = %v, want %v", cycle.Path, want)
	}
	for i := range want {
		if cycle.Path[i] != want[i] {
			t.Errorf("cycle path = %v, want %v", cycle.Path, want)
			break
		}
	}
}

func TestRenderComposition_Nested(t *testing.T) {
	reg := sceneRegistry()
	reg.RegisterComposition(&Composition{
		Name:    "inner",
		Size:    &[2]int{2, 2},
		Sprites: map[string]*string{"R": ref("red")},
		Layers:  []CompositionLayer{{Map: []string{"RR", "RR"}}},
	})
	outer := &Composition{
		Name:     "outer",
		Size:     &[2]int{4, 2},
		CellSize: &[2]int{2, 2},
		Sprites:  map[string]*string{"I": ref("inner"), "G": ref("green")},
		Layers:   []CompositionLayer{{Map: []string{"IG"}}},
	}
	reg.RegisterComposition(outer)

	pm, _, err := RenderComposition(outer, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	pixelEquals(t, pm, 0, 0, RGBA{R: 1, A: 1})
	pixelEquals(t, pm, 2, 0, RGBA{G: 1, A: 1})
}

func TestRenderComposition_Base(t *testing.T) {
	reg := sceneRegistry()
	reg.RegisterComposition(&Composition{
		Name:   "bg",
		Size:   &[2]int{2, 2},
		Layers: []CompositionLayer{{Fill: "#0000ff"}},
	})
	reg.Sprites.RegisterSprite(&Sprite{
		Name:    "dot",
		Palette: PaletteRef{Name: "basic"},
		Grid:    []string{"{r}"},
	})
	comp := &Composition{
		Name:    "stacked",
		Base:    "bg",
		Sprites: map[string]*string{"R": ref("dot"), ".": nil},
		Layers: []CompositionLayer{
			{Map: []string{"R.", ".."}, Name: "overlay"},
		},
		CellSize: &[2]int{1, 1},
	}

	// Size comes from the rendered base.
	pm, _, err := RenderComposition(comp, reg, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if pm.Width() != 2 || pm.Height() != 2 {
		t.Fatalf("size = %dx%d, want the base size", pm.Width(), pm.Height())
	}
	pixelEquals(t, pm, 1, 1, RGBA{B: 1, A: 1})
	pixelEquals(t, pm, 0, 0, RGBA{R: 1, A: 1})
}

func TestRenderComposition_InferredSize(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:     "auto",
		CellSize: &[2]int{2, 2},
		Sprites:  map[string]*string{"R": ref("red")},
		Layers:   []CompositionLayer{{Map: []string{"RR", "RR", "RR"}}},
	}

	pm, _, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if pm.Width() != 4 || pm.Height() != 6 {
		t.Errorf("inferred size = %dx%d, want 4x6", pm.Width(), pm.Height())
	}
}

func TestRenderComposition_UnknownMapKey(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:    "typo",
		Size:    &[2]int{1, 1},
		Sprites: map[string]*string{},
		Layers:  []CompositionLayer{{Map: []string{"Z"}}},
	}

	_, warnings, err := RenderComposition(comp, reg, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if !hasWarning(warnings, "Unknown map key") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestRenderComposition_MultiCharKeys(t *testing.T) {
	reg := sceneRegistry()
	comp := &Composition{
		Name:     "words",
		Size:     &[2]int{4, 2},
		CellSize: &[2]int{2, 2},
		Sprites:  map[string]*string{"hero": ref("red"), "foe": ref("green")},
		Layers:   []CompositionLayer{{Map: []string{"hero foe"}}},
	}

	pm, _, err := RenderComposition(comp, reg, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	pixelEquals(t, pm, 0, 0, RGBA{R: 1, A: 1})
	pixelEquals(t, pm, 2, 0, RGBA{G: 1, A: 1})
}

func TestRegistry_Render(t *testing.T) {
	reg := sceneRegistry()
	reg.RegisterComposition(&Composition{
		Name:   "full",
		Size:   &[2]int{1, 1},
		Layers: []CompositionLayer{{Fill: "#00ff00"}},
	})

	// Dispatches to a sprite.
	pm, _, err := reg.Render("red", true)
	if err != nil {
		t.Fatal(err)
	}
	pixelEquals(t, pm, 0, 0, RGBA{R: 1, A: 1})

	// Dispatches to a composition.
	pm, _, err = reg.Render("full", true)
	if err != nil {
		t.Fatal(err)
	}
	pixelEquals(t, pm, 0, 0, RGBA{G: 1, A: 1})

	if _, _, err := reg.Render("ghost", true); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("unknown name: got %v", err)
	}
}

func TestRenderComposition_Memoization(t *testing.T) {
	reg := sceneRegistry()
	counter := &renderCounter{}
	reg.Transforms = counter
	reg.Sprites.RegisterSprite(&Sprite{
		Name:      "counted",
		Palette:   PaletteRef{Name: "basic"},
		Grid:      []string{"{r}"},
		Transform: []TransformSpec{{Op: "noop"}},
	})
	comp := &Composition{
		Name:    "many",
		Size:    &[2]int{3, 1},
		Sprites: map[string]*string{"C": ref("counted")},
		Layers:  []CompositionLayer{{Map: []string{"CCC"}}},
	}

	if _, _, err := RenderComposition(comp, reg, nil, true); err != nil {
		t.Fatal(err)
	}
	// Three references, one rasterization.
	if counter.calls != 1 {
		t.Errorf("sprite rendered %d times, want 1", counter.calls)
	}
}

type renderCounter struct {
	calls int
}

func (c *renderCounter) Apply(img *Pixmap, spec TransformSpec) (*Pixmap, error) {
	c.calls++
	return img, nil
}
