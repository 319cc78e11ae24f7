package pxl

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// SpriteRenderer rasterizes resolved sprites.
type SpriteRenderer struct {
	// Transforms applies the sprite-level transform chains. When nil,
	// chains are skipped with a warning.
	Transforms TransformApplier
}

// Render rasterizes a resolved sprite to a pixmap. Grid sprites paint
// token rows through the palette; region sprites compile their shape
// definitions first. Under lenient policy unknown tokens and invalid
// colors paint magenta with a warning; an empty sprite yields a 1x1
// transparent pixmap.
func (r *SpriteRenderer) Render(rs *ResolvedSprite, strict bool) (*Pixmap, []Warning, error) {
	var pm *Pixmap
	var warnings []Warning
	var err error

	switch {
	case len(rs.Grid) > 0:
		pm, warnings, err = r.renderGrid(rs, strict)
	case len(rs.Regions) > 0:
		pm, warnings, err = r.renderRegions(rs, strict)
	default:
		warnings = append(warnings, Warningf("Empty grid in sprite %q", rs.Name))
		pm = NewPixmap(1, 1)
	}
	if err != nil {
		return nil, warnings, err
	}

	if len(rs.Transform) > 0 {
		if r.Transforms == nil {
			warnings = append(warnings, Warningf("Sprite %q has transforms but no transform applier is installed, skipping", rs.Name))
		} else {
			for _, spec := range rs.Transform {
				pm, err = r.Transforms.Apply(pm, spec)
				if err != nil {
					return nil, warnings, fmt.Errorf("sprite %q, transform %q: %w", rs.Name, spec.Op, err)
				}
			}
		}
	}

	return pm, warnings, nil
}

// renderGrid paints token rows through the resolved palette.
func (r *SpriteRenderer) renderGrid(rs *ResolvedSprite, strict bool) (*Pixmap, []Warning, error) {
	var warnings []Warning

	parsed := make([][]string, len(rs.Grid))
	for i, row := range rs.Grid {
		tokens, rowWarnings := Tokenize(row)
		warnings = append(warnings, rowWarnings...)
		parsed[i] = tokens
	}

	var width, height int
	if rs.Size != nil {
		width, height = rs.Size[0], rs.Size[1]
	} else {
		for _, tokens := range parsed {
			if len(tokens) > width {
				width = len(tokens)
			}
		}
		height = len(parsed)
	}
	if width <= 0 || height <= 0 {
		warnings = append(warnings, Warningf("Empty grid in sprite %q", rs.Name))
		return NewPixmap(1, 1), warnings, nil
	}

	cache, colorWarnings, err := r.paletteColors(rs, strict)
	if err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, colorWarnings...)

	pm := NewPixmap(width, height)
	for y, tokens := range parsed {
		if y >= height {
			warnings = append(warnings, Warningf("Grid has %d rows, expected %d, truncating", len(parsed), height))
			break
		}
		switch {
		case len(tokens) < width:
			warnings = append(warnings, Warningf("Row %d has %d tokens, expected %d", y+1, len(tokens), width))
		case len(tokens) > width:
			warnings = append(warnings, Warningf("Row %d has %d tokens, expected %d, truncating", y+1, len(tokens), width))
		}

		for x := 0; x < width && x < len(tokens); x++ {
			token := tokens[x]
			c, ok := cache[token]
			if !ok {
				if strict {
					return nil, warnings, refError("token", token, rs.Name)
				}
				warnings = append(warnings, Warningf("Unknown token %s in sprite %q", token, rs.Name))
				cache[token] = MagentaFallback
				c = MagentaFallback
			}
			pm.SetPixel(x, y, c)
		}
	}
	if len(parsed) < height {
		warnings = append(warnings, Warningf("Grid has %d rows, expected %d, padding with transparent", len(parsed), height))
	}

	return pm, warnings, nil
}

// renderRegions compiles the shape definitions and paints the owners
// back to front.
func (r *SpriteRenderer) renderRegions(rs *ResolvedSprite, strict bool) (*Pixmap, []Warning, error) {
	var warnings []Warning

	size := [2]int{}
	if rs.Size != nil {
		size = *rs.Size
	} else {
		size = inferRegionSize(rs.Regions)
	}
	if size[0] <= 0 || size[1] <= 0 {
		warnings = append(warnings, Warningf("Empty regions in sprite %q", rs.Name))
		return NewPixmap(1, 1), warnings, nil
	}

	compiler := &RegionCompiler{Transforms: r.Transforms, RolesByToken: rs.Roles}
	compiled, err := compiler.Compile(size, rs.Regions, rs.RegionOrder)
	if err != nil {
		return nil, warnings, fmt.Errorf("sprite %q: %w", rs.Name, err)
	}
	warnings = append(warnings, compiled.Warnings...)
	for _, issue := range compiled.Issues {
		if strict {
			return nil, warnings, fmt.Errorf("sprite %q: %w", rs.Name, issue)
		}
		warnings = append(warnings, Warning{Message: issue.Error()})
	}

	cache, colorWarnings, err := r.paletteColors(rs, strict)
	if err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, colorWarnings...)

	pm := NewPixmap(size[0], size[1])
	for _, owner := range compiled.Owners {
		c, ok := cache[owner.Token]
		if !ok {
			if strict {
				return nil, warnings, refError("token", owner.Token, rs.Name)
			}
			warnings = append(warnings, Warningf("Unknown token %s in sprite %q", owner.Token, rs.Name))
			cache[owner.Token] = MagentaFallback
			c = MagentaFallback
		}
		for p := range owner.Pixels {
			pm.SetPixel(p.X, p.Y, c)
		}
	}

	return pm, warnings, nil
}

// paletteColors evaluates the resolved palette literals to RGBA once.
func (r *SpriteRenderer) paletteColors(rs *ResolvedSprite, strict bool) (map[string]RGBA, []Warning, error) {
	var warnings []Warning
	cache := make(map[string]RGBA, len(rs.Palette))
	for token, literal := range rs.Palette {
		c, err := ResolveColor(literal, nil)
		if err != nil {
			if strict {
				return nil, warnings, fmt.Errorf("sprite %q, token %s: %w", rs.Name, token, err)
			}
			warnings = append(warnings, Warningf("Invalid color %q for token %s: %v, using magenta", literal, token, err))
			c = MagentaFallback
		}
		cache[token] = c
	}
	return cache, warnings, nil
}

// RenderNineSlice scales a source pixmap to a target size as a 9-patch:
// fixed corners, edges stretched along one axis, center stretched in
// both, all with nearest-neighbor sampling. Degenerate inputs return
// the source unchanged with a warning.
func RenderNineSlice(src *Pixmap, ns NineSlice, targetW, targetH int) (*Pixmap, []Warning) {
	var warnings []Warning

	sw, sh := src.Width(), src.Height()
	minW := ns.Left + ns.Right
	minH := ns.Top + ns.Bottom

	switch {
	case minW > sw:
		warnings = append(warnings, Warningf("Nine-slice borders (left=%d + right=%d) exceed source width (%d)", ns.Left, ns.Right, sw))
		return src.Clone(), warnings
	case minH > sh:
		warnings = append(warnings, Warningf("Nine-slice borders (top=%d + bottom=%d) exceed source height (%d)", ns.Top, ns.Bottom, sh))
		return src.Clone(), warnings
	case targetW < minW:
		warnings = append(warnings, Warningf("Target width (%d) is less than minimum nine-slice width (%d)", targetW, minW))
		return src.Clone(), warnings
	case targetH < minH:
		warnings = append(warnings, Warningf("Target height (%d) is less than minimum nine-slice height (%d)", targetH, minH))
		return src.Clone(), warnings
	}

	srcImg := src.ToImage()
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	srcXs := [4]int{0, ns.Left, sw - ns.Right, sw}
	srcYs := [4]int{0, ns.Top, sh - ns.Bottom, sh}
	dstXs := [4]int{0, ns.Left, targetW - ns.Right, targetW}
	dstYs := [4]int{0, ns.Top, targetH - ns.Bottom, targetH}

	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			sr := image.Rect(srcXs[col], srcYs[row], srcXs[col+1], srcYs[row+1])
			dr := image.Rect(dstXs[col], dstYs[row], dstXs[col+1], dstYs[row+1])
			if sr.Empty() || dr.Empty() {
				continue
			}
			xdraw.NearestNeighbor.Scale(dst, dr, srcImg, sr, xdraw.Src, nil)
		}
	}

	return FromImage(dst), warnings
}
