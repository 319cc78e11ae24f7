// Package raster provides integer pixel-set rasterization kernels:
// lines, rectangles, ellipses, polygons, flood fill, and the set
// operations the region compiler builds on.
package raster

import (
	"math"
	"sort"
)

// Point is an integer pixel coordinate, top-left origin.
type Point struct {
	X, Y int
}

// Set is an unordered set of pixels.
type Set map[Point]struct{}

// NewSet creates an empty pixel set.
func NewSet() Set { return make(Set) }

// Add inserts a pixel.
func (s Set) Add(p Point) { s[p] = struct{}{} }

// Has reports membership.
func (s Set) Has(p Point) bool {
	_, ok := s[p]
	return ok
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Union returns s ∪ o.
func (s Set) Union(o Set) Set {
	out := s.Clone()
	for p := range o {
		out[p] = struct{}{}
	}
	return out
}

// Subtract returns s minus o.
func (s Set) Subtract(o Set) Set {
	out := make(Set)
	for p := range s {
		if !o.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Intersect returns s ∩ o.
func (s Set) Intersect(o Set) Set {
	out := make(Set)
	for p := range s {
		if o.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// Shift returns the set translated by (dx, dy).
func (s Set) Shift(dx, dy int) Set {
	out := make(Set, len(s))
	for p := range s {
		out[Point{p.X + dx, p.Y + dy}] = struct{}{}
	}
	return out
}

// Clip returns the subset inside [0,w) x [0,h).
func (s Set) Clip(w, h int) Set {
	out := make(Set)
	for p := range s {
		if p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h {
			out[p] = struct{}{}
		}
	}
	return out
}

// Bounds returns the inclusive bounding box, or ok=false for an empty
// set.
func (s Set) Bounds() (min, max Point, ok bool) {
	first := true
	for p := range s {
		if first {
			min, max = p, p
			first = false
			continue
		}
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max, !first
}

// Points returns the pixels in deterministic row-major order. Callers
// that feed pixels into seeded randomness rely on this ordering.
func (s Set) Points() []Point {
	out := make([]Point, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Line rasterizes a Bresenham line between two points, inclusive.
func Line(x0, y0, x1, y1 int) Set {
	out := NewSet()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		out.Add(Point{x, y})
		if x == x1 && y == y1 {
			return out
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Dilate thickens a set to the given stroke thickness: every pixel
// gains its neighborhood within Euclidean radius thickness/2.
// Thickness 1 or less is a no-op.
func Dilate(s Set, thickness int) Set {
	if thickness <= 1 {
		return s
	}
	radius := float64(thickness) / 2
	r := int(math.Ceil(radius))
	rsq := radius * radius

	out := make(Set, len(s))
	for p := range s {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if float64(dx*dx+dy*dy) <= rsq {
					out[Point{p.X + dx, p.Y + dy}] = struct{}{}
				}
			}
		}
	}
	return out
}

// FillRect rasterizes a filled rectangle. A positive round radius
// excludes corner pixels outside the quarter-circle at each corner.
func FillRect(x, y, w, h, round int) Set {
	out := NewSet()
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if round > 0 && outsideRoundCorner(px, py, x, y, w, h, round) {
				continue
			}
			out.Add(Point{px, py})
		}
	}
	return out
}

// StrokeRect rasterizes a rectangle border of the given thickness.
func StrokeRect(x, y, w, h, thickness, round int) Set {
	if thickness <= 0 {
		thickness = 1
	}
	outer := FillRect(x, y, w, h, round)
	if 2*thickness >= w || 2*thickness >= h {
		return outer
	}
	inner := FillRect(x+thickness, y+thickness, w-2*thickness, h-2*thickness, 0)
	return outer.Subtract(inner)
}

// outsideRoundCorner tests whether (px, py) sits in one of the corner
// squares of the rect but outside its quarter-circle of the given
// radius.
func outsideRoundCorner(px, py, x, y, w, h, round int) bool {
	// Corner circle centers, measured in pixel centers.
	cx := []float64{
		float64(x+round) - 0.5,
		float64(x+w-round) - 0.5,
	}
	cy := []float64{
		float64(y+round) - 0.5,
		float64(y+h-round) - 0.5,
	}
	fx := float64(px)
	fy := float64(py)
	rsq := float64(round) * float64(round)

	inCornerX := fx < cx[0] || fx > cx[1]
	inCornerY := fy < cy[0] || fy > cy[1]
	if !inCornerX || !inCornerY {
		return false
	}
	nearCX := cx[0]
	if fx > cx[1] {
		nearCX = cx[1]
	}
	nearCY := cy[0]
	if fy > cy[1] {
		nearCY = cy[1]
	}
	dx := fx - nearCX
	dy := fy - nearCY
	return dx*dx+dy*dy > rsq
}

// FillEllipse rasterizes a filled ellipse by implicit inside-test. A
// circle is the rx == ry case.
func FillEllipse(cx, cy, rx, ry int) Set {
	out := NewSet()
	if rx <= 0 || ry <= 0 {
		out.Add(Point{cx, cy})
		return out
	}
	frx := float64(rx)
	fry := float64(ry)
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			dx := float64(x-cx) / frx
			dy := float64(y-cy) / fry
			if dx*dx+dy*dy <= 1 {
				out.Add(Point{x, y})
			}
		}
	}
	return out
}

// FillPolygon rasterizes a polygon with the even-odd rule, sampling at
// pixel centers so shared vertices and horizontal edges are not double
// counted.
func FillPolygon(verts [][2]float64) Set {
	out := NewSet()
	if len(verts) < 3 {
		return out
	}

	minY, maxY := verts[0][1], verts[0][1]
	for _, v := range verts {
		minY = math.Min(minY, v[1])
		maxY = math.Max(maxY, v[1])
	}

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		yc := float64(y) + 0.5

		var xs []float64
		for i := range verts {
			x1, y1 := verts[i][0], verts[i][1]
			x2, y2 := verts[(i+1)%len(verts)][0], verts[(i+1)%len(verts)][1]
			if y1 == y2 {
				continue
			}
			// Half-open span in y so a vertex on a scanline counts once.
			if yc >= math.Min(y1, y2) && yc < math.Max(y1, y2) {
				xs = append(xs, x1+(yc-y1)*(x2-x1)/(y2-y1))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i] - 0.5)); float64(x)+0.5 < xs[i+1]; x++ {
				out.Add(Point{x, y})
			}
		}
	}
	return out
}

// StrokePolyline rasterizes line segments between successive vertices.
func StrokePolyline(verts [][2]float64, thickness int) Set {
	out := NewSet()
	if len(verts) == 0 {
		return out
	}
	if len(verts) == 1 {
		out.Add(Point{round(verts[0][0]), round(verts[0][1])})
		return Dilate(out, thickness)
	}
	for i := 0; i+1 < len(verts); i++ {
		seg := Line(round(verts[i][0]), round(verts[i][1]),
			round(verts[i+1][0]), round(verts[i+1][1]))
		for p := range seg {
			out[p] = struct{}{}
		}
	}
	return Dilate(out, thickness)
}

// FloodFill performs a 4-connected fill from seed, blocked by the
// boundary pixels and the canvas edges. A seed on the boundary or out
// of bounds yields an empty set.
func FloodFill(boundary Set, seed Point, w, h int) Set {
	out := NewSet()
	if seed.X < 0 || seed.X >= w || seed.Y < 0 || seed.Y >= h || boundary.Has(seed) {
		return out
	}

	queue := []Point{seed}
	out.Add(seed)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range [4]Point{
			{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1},
		} {
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			if boundary.Has(n) || out.Has(n) {
				continue
			}
			out.Add(n)
			queue = append(queue, n)
		}
	}
	return out
}

// FreeSeed finds a pixel not on the boundary, starting at (cx, cy) and
// spiraling outward in growing rings. Used to auto-seed flood fills
// when the bounding-box center lands on the boundary itself.
func FreeSeed(boundary Set, cx, cy, w, h int) (Point, bool) {
	inBounds := func(p Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h
	}
	center := Point{cx, cy}
	if inBounds(center) && !boundary.Has(center) {
		return center, true
	}
	maxR := w
	if h > maxR {
		maxR = h
	}
	for r := 1; r <= maxR; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx) != r && abs(dy) != r {
					continue // ring only
				}
				p := Point{cx + dx, cy + dy}
				if inBounds(p) && !boundary.Has(p) {
					return p, true
				}
			}
		}
	}
	return Point{}, false
}

// Outline returns the pixels 4-adjacent to s but outside it, clipped to
// the canvas.
func Outline(s Set, w, h int) Set {
	out := NewSet()
	for p := range s {
		for _, n := range [4]Point{
			{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1},
		} {
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h {
				continue
			}
			if !s.Has(n) {
				out.Add(n)
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round(v float64) int {
	return int(math.Round(v))
}
