package pxl

import (
	"unicode/utf8"

	"github.com/pxlgen/pxl/internal/raster"
)

// Tokenize extracts the {token} runs from one grid row. Characters
// outside tokens and unclosed tokens generate warnings and are dropped.
func Tokenize(row string) ([]string, []Warning) {
	var tokens []string
	var warnings []Warning

	for i := 0; i < len(row); {
		c, size := utf8.DecodeRuneInString(row[i:])
		if c != '{' {
			warnings = append(warnings, Warningf("Unexpected character %q in grid row", string(c)))
			i += size
			continue
		}
		end := -1
		for j := i + 1; j < len(row); j++ {
			if row[j] == '}' {
				end = j
				break
			}
		}
		if end < 0 {
			warnings = append(warnings, Warningf("Unclosed token %q in grid row", row[i:]))
			break
		}
		tokens = append(tokens, row[i:end+1])
		i = end + 1
	}

	return tokens, warnings
}

// TokenGrid is a resolved sprite as a grid of token names, supporting
// spatial queries. Empty cells hold "".
type TokenGrid struct {
	cells  [][]string
	width  int
	height int
}

// NewTokenGrid tokenizes grid rows into a TokenGrid. Grid width is the
// widest row; shorter rows pad with empty cells.
func NewTokenGrid(rows []string) (*TokenGrid, []Warning) {
	var warnings []Warning
	parsed := make([][]string, len(rows))
	width := 0
	for i, row := range rows {
		tokens, rowWarnings := Tokenize(row)
		warnings = append(warnings, rowWarnings...)
		parsed[i] = tokens
		if len(tokens) > width {
			width = len(tokens)
		}
	}

	cells := make([][]string, len(rows))
	for i, tokens := range parsed {
		cells[i] = make([]string, width)
		copy(cells[i], tokens)
	}

	return &TokenGrid{cells: cells, width: width, height: len(rows)}, warnings
}

// TokenGridFromRegions builds the pixel-owner grid of compiled regions.
// Owners paint in compiled order (ascending z, declaration order on
// ties), so the last writer of a contested pixel is its
// highest-priority owner.
func TokenGridFromRegions(compiled *CompiledRegions, width, height int) *TokenGrid {
	cells := make([][]string, height)
	for y := range cells {
		cells[y] = make([]string, width)
	}
	for _, owner := range compiled.Owners {
		for p := range owner.Pixels {
			if p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height {
				cells[p.Y][p.X] = owner.Token
			}
		}
	}
	return &TokenGrid{cells: cells, width: width, height: height}
}

// Width returns the grid width in cells.
func (g *TokenGrid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *TokenGrid) Height() int { return g.height }

// Sample returns the token at (x, y), or "" outside the grid or on an
// empty cell.
func (g *TokenGrid) Sample(x, y int) string {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return ""
	}
	return g.cells[y][x]
}

// Neighbors returns the 4-neighborhood tokens of (x, y) in the order
// up, down, left, right. Out-of-bounds neighbors are "".
func (g *TokenGrid) Neighbors(x, y int) [4]string {
	return [4]string{
		g.Sample(x, y-1),
		g.Sample(x, y+1),
		g.Sample(x-1, y),
		g.Sample(x+1, y),
	}
}

// Query returns every cell holding the token, in row-major order.
func (g *TokenGrid) Query(token string) []raster.Point {
	var out []raster.Point
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y][x] == token {
				out = append(out, raster.Point{X: x, Y: y})
			}
		}
	}
	return out
}

// Bounds returns the inclusive bounding box of a token's cells.
func (g *TokenGrid) Bounds(token string) (min, max raster.Point, ok bool) {
	first := true
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y][x] != token {
				continue
			}
			p := raster.Point{X: x, Y: y}
			if first {
				min, max = p, p
				first = false
				continue
			}
			if p.X < min.X {
				min.X = p.X
			}
			if p.X > max.X {
				max.X = p.X
			}
			if p.Y > max.Y {
				max.Y = p.Y
			}
		}
	}
	return min, max, !first
}

// Region returns the sub-grid of the given rectangle, clipped to the
// grid.
func (g *TokenGrid) Region(x, y, w, h int) *TokenGrid {
	x0 := maxInt(x, 0)
	y0 := maxInt(y, 0)
	x1 := minInt(x+w, g.width)
	y1 := minInt(y+h, g.height)
	if x1 <= x0 || y1 <= y0 {
		return &TokenGrid{}
	}

	cells := make([][]string, y1-y0)
	for i := range cells {
		cells[i] = make([]string, x1-x0)
		copy(cells[i], g.cells[y0+i][x0:x1])
	}
	return &TokenGrid{cells: cells, width: x1 - x0, height: y1 - y0}
}

// Count returns how many cells hold the token.
func (g *TokenGrid) Count(token string) int {
	n := 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y][x] == token {
				n++
			}
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
