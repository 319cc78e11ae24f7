// Package blend implements the layer blend modes and Porter-Duff
// source-over compositing used by the composition renderer.
//
// Blend functions operate on unpremultiplied channels normalized to
// [0, 1], following the W3C Compositing and Blending Level 1 formulas.
package blend

import (
	"math"
	"strings"
)

// Mode selects a per-channel blend function.
type Mode uint8

const (
	Normal Mode = iota
	Multiply
	Screen
	Overlay
	Add
	Subtract
	Difference
	Darken
	Lighten
)

// ParseMode maps a mode name to its Mode. "add"/"additive" and
// "subtract"/"subtractive" are synonyms.
func ParseMode(s string) (Mode, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "normal":
		return Normal, name != ""
	case "multiply":
		return Multiply, true
	case "screen":
		return Screen, true
	case "overlay":
		return Overlay, true
	case "add", "additive":
		return Add, true
	case "subtract", "subtractive":
		return Subtract, true
	case "difference":
		return Difference, true
	case "darken":
		return Darken, true
	case "lighten":
		return Lighten, true
	default:
		return Normal, false
	}
}

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Multiply:
		return "multiply"
	case Screen:
		return "screen"
	case Overlay:
		return "overlay"
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Difference:
		return "difference"
	case Darken:
		return "darken"
	case Lighten:
		return "lighten"
	default:
		return "normal"
	}
}

// channel applies the blend function to one channel pair. base is the
// backdrop (destination), blend the source.
func (m Mode) channel(base, blend float64) float64 {
	switch m {
	case Multiply:
		return base * blend
	case Screen:
		return 1 - (1-base)*(1-blend)
	case Overlay:
		if base < 0.5 {
			return 2 * base * blend
		}
		return 1 - 2*(1-base)*(1-blend)
	case Add:
		return math.Min(1, base+blend)
	case Subtract:
		return math.Max(0, base-blend)
	case Difference:
		return math.Abs(base - blend)
	case Darken:
		return math.Min(base, blend)
	case Lighten:
		return math.Max(base, blend)
	default:
		return blend
	}
}

// Composite blends a source pixel over a destination pixel with
// Porter-Duff source-over around the blend function:
//
//	outA = srcA + dstA*(1-srcA)
//	outC = (blend(dst,src)*srcA + dstC*dstA*(1-srcA)) / outA
//
// All channels are unpremultiplied [0, 1]. A zero output alpha yields
// fully transparent black.
func Composite(m Mode, dr, dg, db, da, sr, sg, sb, sa float64) (r, g, b, a float64) {
	invSrcA := 1 - sa
	a = sa + da*invSrcA
	if a == 0 {
		return 0, 0, 0, 0
	}

	r = (m.channel(dr, sr)*sa + dr*da*invSrcA) / a
	g = (m.channel(dg, sg)*sa + dg*da*invSrcA) / a
	b = (m.channel(db, sb)*sa + db*da*invSrcA) / a
	return r, g, b, a
}
