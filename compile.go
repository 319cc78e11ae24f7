package pxl

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/pxlgen/pxl/internal/raster"
)

// TokenPixels is one compiled region: the token name, its pixel set,
// and its effective z-order.
type TokenPixels struct {
	Token  string
	Pixels raster.Set
	Z      int
}

// CompiledRegions is the region compiler output. Owners is in paint
// order: ascending z, declaration order breaking ties, so painting the
// list start to end leaves every contested pixel with its
// highest-priority owner. Issues holds the non-fatal typed problems
// (undefined sibling references, constraint violations) for the caller
// to classify under its strict-mode policy.
type CompiledRegions struct {
	Owners   []TokenPixels
	Issues   []error
	Warnings []Warning
}

// Get returns the compiled pixel set for a token.
func (c *CompiledRegions) Get(token string) (raster.Set, bool) {
	for _, o := range c.Owners {
		if o.Token == token {
			return o.Pixels, true
		}
	}
	return nil, false
}

// RegionCompiler rasterizes a sprite's named shape regions into pixel
// sets.
type RegionCompiler struct {
	// Transforms applies named geometric transforms. When nil, regions
	// carrying a transform chain compile without it and report a
	// warning.
	Transforms TransformApplier
	// RolesByToken supplies palette roles for tokens whose RegionDef
	// declares none. Roles feed the default z-order.
	RolesByToken map[string]Role
}

// Compile rasterizes every region of a size[0] x size[1] sprite.
// order gives the declaration order of the tokens; tokens missing from
// it (or a nil order) fall back to lexical order. A cyclic reference
// graph is the only fatal error.
func (c *RegionCompiler) Compile(size [2]int, regions map[string]RegionDef, order []string) (*CompiledRegions, error) {
	w, h := size[0], size[1]
	out := &CompiledRegions{}

	declared := declarationOrder(regions, order)
	sorted, err := topoSortRegions(regions, declared)
	if err != nil {
		return nil, err
	}

	compiled := make(map[string]raster.Set, len(regions))
	for _, name := range sorted {
		def := regions[name]
		set := c.compileDef(name, &def, compiled, w, h, out)
		compiled[name] = set
	}

	// Constraint checks run against the final sets and never mutate
	// pixels.
	for _, name := range declared {
		def := regions[name]
		c.checkConstraints(name, &def, compiled, out)
	}

	// Paint order: ascending z, then declaration order so the later
	// declaration wins a tie.
	owners := make([]TokenPixels, 0, len(declared))
	for _, name := range declared {
		def := regions[name]
		owners = append(owners, TokenPixels{
			Token:  name,
			Pixels: compiled[name],
			Z:      c.zOf(name, &def),
		})
	}
	sort.SliceStable(owners, func(i, j int) bool {
		return owners[i].Z < owners[j].Z
	})
	out.Owners = owners

	Logger().Debug("compiled regions", "count", len(owners), "width", w, "height", h)
	return out, nil
}

// zOf resolves a region's z-order: explicit z wins, then the role's
// default.
func (c *RegionCompiler) zOf(name string, def *RegionDef) int {
	if def.Z != nil {
		return *def.Z
	}
	role := def.Role
	if role == RoleNone {
		role = c.RolesByToken[name]
	}
	return role.DefaultZ()
}

// compileDef rasterizes one definition and applies its modifiers in
// the fixed order: range crop, except, symmetric, repeat, jitter,
// transform, auto-outline/auto-shadow. The result is clipped to the
// canvas.
func (c *RegionCompiler) compileDef(name string, def *RegionDef, compiled map[string]raster.Set, w, h int, out *CompiledRegions) raster.Set {
	set := c.rasterizeShape(name, def, compiled, w, h, out)

	// (a) x/y range crop.
	if def.X != nil || def.Y != nil {
		set = cropRange(set, def.X, def.Y)
	}

	// (b) except: remove pixels owned by the named siblings.
	for _, target := range def.Except {
		other, ok := compiled[target]
		if !ok {
			out.Issues = append(out.Issues, refError("region", target, name))
			continue
		}
		set = set.Subtract(other)
	}

	// (c) symmetric mirror.
	if def.Symmetric != "" {
		set = applySymmetric(set, def.Symmetric, w, h)
	}

	// (d) repeat/tile.
	if def.Repeat != nil {
		var spacing [2]int
		if def.Spacing != nil {
			spacing = *def.Spacing
		}
		set = applyRepeat(set, *def.Repeat, spacing, def.OffsetAlternate)
	}

	// (e) seeded jitter.
	if def.Jitter != nil {
		var seed int64
		if def.Seed != nil {
			seed = *def.Seed
		}
		set = applyJitter(set, def.Jitter, seed)
	}

	// (f) named transforms, delegated to the external applier.
	if len(def.Transform) > 0 {
		set = c.applyTransforms(name, set, def.Transform, w, h, out)
	}

	// (g) auto-outline / auto-shadow.
	if def.AutoOutline != "" {
		if target, ok := compiled[def.AutoOutline]; ok {
			set = set.Union(raster.Outline(target, w, h))
		} else {
			out.Issues = append(out.Issues, refError("region", def.AutoOutline, name))
		}
	}
	if def.AutoShadow != "" {
		if target, ok := compiled[def.AutoShadow]; ok {
			set = set.Union(target.Shift(def.Offset[0], def.Offset[1]))
		} else {
			out.Issues = append(out.Issues, refError("region", def.AutoShadow, name))
		}
	}

	return set.Clip(w, h)
}

// rasterizeShape evaluates the primitive or compound form of a
// definition, without its modifiers.
func (c *RegionCompiler) rasterizeShape(name string, def *RegionDef, compiled map[string]raster.Set, w, h int, out *CompiledRegions) raster.Set {
	switch {
	case len(def.Union) > 0:
		set := raster.NewSet()
		for i := range def.Union {
			set = set.Union(c.compileDef(name, &def.Union[i], compiled, w, h, out))
		}
		return set

	case def.Base != nil:
		set := c.compileDef(name, def.Base, compiled, w, h, out)
		removed := raster.NewSet()
		for i := range def.Subtract {
			removed = removed.Union(c.compileDef(name, &def.Subtract[i], compiled, w, h, out))
		}
		return set.Subtract(removed)

	case len(def.Intersect) > 0:
		set := c.compileDef(name, &def.Intersect[0], compiled, w, h, out)
		for i := 1; i < len(def.Intersect); i++ {
			set = set.Intersect(c.compileDef(name, &def.Intersect[i], compiled, w, h, out))
		}
		return set

	case len(def.Points) > 0:
		set := raster.NewSet()
		for _, p := range def.Points {
			set.Add(raster.Point{X: p[0], Y: p[1]})
		}
		return set

	case len(def.Line) > 0:
		set := raster.NewSet()
		for i := 0; i+1 < len(def.Line); i++ {
			seg := raster.Line(def.Line[i][0], def.Line[i][1], def.Line[i+1][0], def.Line[i+1][1])
			set = set.Union(seg)
		}
		if len(def.Line) == 1 {
			set.Add(raster.Point{X: def.Line[0][0], Y: def.Line[0][1]})
		}
		return raster.Dilate(set, def.Thickness)

	case def.Rect != nil:
		r := *def.Rect
		return raster.FillRect(r[0], r[1], r[2], r[3], def.Round)

	case def.Stroke != nil:
		r := *def.Stroke
		return raster.StrokeRect(r[0], r[1], r[2], r[3], def.Thickness, def.Round)

	case def.Ellipse != nil:
		e := *def.Ellipse
		return raster.FillEllipse(e[0], e[1], e[2], e[3])

	case def.Circle != nil:
		e := *def.Circle
		return raster.FillEllipse(e[0], e[1], e[2], e[2])

	case len(def.Polygon) > 0:
		return raster.FillPolygon(intVerts(def.Polygon))

	case def.Path != "":
		verts, closed, err := ParsePath(def.Path)
		if err != nil {
			out.Issues = append(out.Issues, fmt.Errorf("region %q: %w", name, err))
			return raster.NewSet()
		}
		if closed {
			return raster.FillPolygon(verts)
		}
		return raster.StrokePolyline(verts, def.Thickness)

	case def.Fill != "":
		return c.rasterizeFill(name, def, compiled, w, h, out)

	default:
		return raster.NewSet()
	}
}

// rasterizeFill flood-fills the inside of a named sibling region:
// 4-connected, seeded explicitly or at the bounding-box center, bounded
// by the sibling's pixels and the canvas.
func (c *RegionCompiler) rasterizeFill(name string, def *RegionDef, compiled map[string]raster.Set, w, h int, out *CompiledRegions) raster.Set {
	target, ok := fillTarget(def.Fill)
	if !ok {
		out.Issues = append(out.Issues, &ColorError{Literal: def.Fill, Reason: "fill must be inside(name)"})
		return raster.NewSet()
	}
	boundary, ok := compiled[target]
	if !ok {
		out.Issues = append(out.Issues, refError("region", target, name))
		return raster.NewSet()
	}

	var seed raster.Point
	if def.FillSeed != nil {
		seed = raster.Point{X: def.FillSeed[0], Y: def.FillSeed[1]}
	} else {
		min, max, ok := boundary.Bounds()
		if !ok {
			out.Warnings = append(out.Warnings, Warningf("Region %q fills inside empty region %q", name, target))
			return raster.NewSet()
		}
		cx := (min.X + max.X) / 2
		cy := (min.Y + max.Y) / 2
		var found bool
		seed, found = raster.FreeSeed(boundary, cx, cy, w, h)
		if !found {
			out.Warnings = append(out.Warnings, Warningf("Region %q found no interior seed inside %q", name, target))
			return raster.NewSet()
		}
	}

	return raster.FloodFill(boundary, seed, w, h)
}

// applyTransforms routes a pixel set through the external transform
// applier by way of a mask image.
func (c *RegionCompiler) applyTransforms(name string, set raster.Set, specs []TransformSpec, w, h int, out *CompiledRegions) raster.Set {
	if c.Transforms == nil {
		out.Warnings = append(out.Warnings, Warningf("Region %q has transforms but no transform applier is installed, skipping", name))
		return set
	}

	mask := NewPixmap(w, h)
	for p := range set {
		mask.SetPixel(p.X, p.Y, White)
	}
	for _, spec := range specs {
		applied, err := c.Transforms.Apply(mask, spec)
		if err != nil {
			out.Issues = append(out.Issues, fmt.Errorf("region %q, transform %q: %w", name, spec.Op, err))
			return set
		}
		mask = applied
	}

	result := raster.NewSet()
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.GetPixel(x, y).A > 0 {
				result.Add(raster.Point{X: x, Y: y})
			}
		}
	}
	return result
}

// checkConstraints evaluates within and adjacent-to after every region
// has compiled.
func (c *RegionCompiler) checkConstraints(name string, def *RegionDef, compiled map[string]raster.Set, out *CompiledRegions) {
	set := compiled[name]

	if def.Within != "" {
		container, ok := compiled[def.Within]
		if !ok {
			out.Issues = append(out.Issues, refError("region", def.Within, name))
		} else {
			for p := range set {
				if !container.Has(p) {
					out.Issues = append(out.Issues, &ConstraintError{Region: name, Constraint: "within", Target: def.Within})
					break
				}
			}
		}
	}

	if def.AdjacentTo != "" {
		target, ok := compiled[def.AdjacentTo]
		if !ok {
			out.Issues = append(out.Issues, refError("region", def.AdjacentTo, name))
			return
		}
		adjacent := false
		for p := range set {
			for _, n := range [4]raster.Point{
				{X: p.X + 1, Y: p.Y}, {X: p.X - 1, Y: p.Y},
				{X: p.X, Y: p.Y + 1}, {X: p.X, Y: p.Y - 1},
			} {
				if target.Has(n) {
					adjacent = true
					break
				}
			}
			if adjacent {
				break
			}
		}
		if !adjacent {
			out.Issues = append(out.Issues, &ConstraintError{Region: name, Constraint: "adjacent-to", Target: def.AdjacentTo})
		}
	}
}

// cropRange keeps pixels inside the inclusive column and row ranges.
func cropRange(set raster.Set, xr, yr *[2]int) raster.Set {
	out := raster.NewSet()
	for p := range set {
		if xr != nil && (p.X < xr[0] || p.X > xr[1]) {
			continue
		}
		if yr != nil && (p.Y < yr[0] || p.Y > yr[1]) {
			continue
		}
		out.Add(p)
	}
	return out
}

// applySymmetric unions a set with its mirror. "x" mirrors across the
// vertical axis at the width midpoint, "y" across the horizontal axis,
// "xy" both. A bare number like "4" mirrors across that column; "x:3"
// and "y:2" name the axis explicitly.
func applySymmetric(set raster.Set, spec string, w, h int) raster.Set {
	axis, coord, hasCoord := parseSymmetric(spec)

	mirrorX := func(s raster.Set) raster.Set {
		out := s.Clone()
		for p := range s {
			nx := w - 1 - p.X
			if hasCoord {
				nx = 2*coord - p.X
			}
			out.Add(raster.Point{X: nx, Y: p.Y})
		}
		return out
	}
	mirrorY := func(s raster.Set) raster.Set {
		out := s.Clone()
		for p := range s {
			ny := h - 1 - p.Y
			if hasCoord {
				ny = 2*coord - p.Y
			}
			out.Add(raster.Point{X: p.X, Y: ny})
		}
		return out
	}

	switch axis {
	case "x":
		return mirrorX(set)
	case "y":
		return mirrorY(set)
	case "xy":
		return mirrorY(mirrorX(set))
	default:
		return set
	}
}

func parseSymmetric(spec string) (axis string, coord int, hasCoord bool) {
	axis = strings.TrimSpace(strings.ToLower(spec))
	if v, err := strconv.Atoi(axis); err == nil {
		return "x", v, true
	}
	if i := strings.IndexByte(axis, ':'); i >= 0 {
		if v, err := strconv.Atoi(strings.TrimSpace(axis[i+1:])); err == nil {
			coord = v
			hasCoord = true
		}
		axis = strings.TrimSpace(axis[:i])
	}
	return axis, coord, hasCoord
}

// applyRepeat tiles a set count[0] x count[1] times. The tile step is
// the set's bounding-box extent plus the per-axis spacing; odd rows
// shift by half the horizontal step under offset-alternate.
func applyRepeat(set raster.Set, count, spacing [2]int, alternate bool) raster.Set {
	if count[0] <= 1 && count[1] <= 1 {
		return set
	}
	min, max, ok := set.Bounds()
	if !ok {
		return set
	}
	stepX := max.X - min.X + 1 + spacing[0]
	stepY := max.Y - min.Y + 1 + spacing[1]

	out := raster.NewSet()
	for cy := 0; cy < maxInt(count[1], 1); cy++ {
		for cx := 0; cx < maxInt(count[0], 1); cx++ {
			dx := cx * stepX
			if alternate && cy%2 == 1 {
				dx += stepX / 2
			}
			for p := range set {
				out.Add(raster.Point{X: p.X + dx, Y: p.Y + cy*stepY})
			}
		}
	}
	return out
}

// applyJitter displaces every pixel by a random offset drawn from the
// jitter ranges. Pixels are visited in row-major order and the
// generator is seeded explicitly, so identical inputs give identical
// output.
func applyJitter(set raster.Set, jitter *JitterSpec, seed int64) raster.Set {
	rng := rand.New(rand.NewSource(seed))
	out := raster.NewSet()
	for _, p := range set.Points() {
		dx := randRange(rng, jitter.X[0], jitter.X[1])
		dy := randRange(rng, jitter.Y[0], jitter.Y[1])
		out.Add(raster.Point{X: p.X + dx, Y: p.Y + dy})
	}
	return out
}

// randRange draws from the inclusive [lo, hi] range.
func randRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// declarationOrder reconciles the region map with the declared token
// order, appending any tokens the order misses in lexical order.
func declarationOrder(regions map[string]RegionDef, order []string) []string {
	seen := make(map[string]bool, len(order))
	var out []string
	for _, name := range order {
		if _, ok := regions[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range regions {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// topoSortRegions orders tokens so every region compiles after the
// siblings it references. A cycle is fatal and reports its full path.
func topoSortRegions(regions map[string]RegionDef, declared []string) ([]string, error) {
	deps := make(map[string][]string, len(regions))
	for _, name := range declared {
		def := regions[name]
		for _, ref := range def.references() {
			if _, ok := regions[ref]; ok && ref != name {
				deps[name] = append(deps[name], ref)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(regions))
	var sorted []string
	var stack []string

	var visit func(name string) *CycleError
	visit = func(name string) *CycleError {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// Report the cycle from its first occurrence on the stack.
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			path := append(append([]string{}, stack[start:]...), name)
			return &CycleError{Path: path}
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		sorted = append(sorted, name)
		return nil
	}

	for _, name := range declared {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// inferRegionSize derives a canvas size from the static geometry of the
// definitions, for sprites that declare regions but no size.
func inferRegionSize(regions map[string]RegionDef) [2]int {
	maxX, maxY := 0, 0
	grow := func(x, y int) {
		if x+1 > maxX {
			maxX = x + 1
		}
		if y+1 > maxY {
			maxY = y + 1
		}
	}

	var walk func(def *RegionDef)
	walk = func(def *RegionDef) {
		for _, p := range def.Points {
			grow(p[0], p[1])
		}
		for _, p := range def.Line {
			grow(p[0], p[1])
		}
		for _, p := range def.Polygon {
			grow(p[0], p[1])
		}
		if def.Rect != nil {
			grow(def.Rect[0]+def.Rect[2]-1, def.Rect[1]+def.Rect[3]-1)
		}
		if def.Stroke != nil {
			grow(def.Stroke[0]+def.Stroke[2]-1, def.Stroke[1]+def.Stroke[3]-1)
		}
		if def.Ellipse != nil {
			grow(def.Ellipse[0]+def.Ellipse[2], def.Ellipse[1]+def.Ellipse[3])
		}
		if def.Circle != nil {
			grow(def.Circle[0]+def.Circle[2], def.Circle[1]+def.Circle[2])
		}
		if def.Path != "" {
			if verts, _, err := ParsePath(def.Path); err == nil {
				for _, v := range verts {
					grow(int(v[0]), int(v[1]))
				}
			}
		}
		for _, child := range def.children() {
			walk(child)
		}
	}

	for name := range regions {
		def := regions[name]
		walk(&def)
	}
	return [2]int{maxX, maxY}
}

func intVerts(pts [][2]int) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{float64(p[0]), float64(p[1])}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
