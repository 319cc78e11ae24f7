package pxl

import (
	"fmt"
	"image/color"
	"math"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1]. Channels are not premultiplied.
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// RGBA implements color.Color with alpha-premultiplied 16-bit channels.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return c.Color().RGBA()
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	out := RGBA{A: float64(a) / 65535}
	if a == 0 {
		return out
	}
	// color.Color returns premultiplied channels.
	out.R = float64(r) / float64(a)
	out.G = float64(g) / float64(a)
	out.B = float64(b) / float64(a)
	return out
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Hex parses a hex color literal. Supported formats: "#RGB", "#RGBA",
// "#RRGGBB", "#RRGGBBAA"; short-form nibbles double ("#F80" means
// "#FF8800"). Unlike the lenient rendering paths, Hex reports malformed
// input as a *ColorError.
func Hex(hex string) (RGBA, error) {
	if hex == "" {
		return RGBA{}, &ColorError{Literal: hex, Reason: "empty color string"}
	}
	if hex[0] != '#' {
		return RGBA{}, &ColorError{Literal: hex, Reason: "missing # prefix"}
	}
	digits := hex[1:]

	var r, g, b uint32
	a := uint32(255)
	var err error

	switch len(digits) {
	case 3: // RGB
		if err = parseHex(digits[0:1], &r); err == nil {
			if err = parseHex(digits[1:2], &g); err == nil {
				err = parseHex(digits[2:3], &b)
			}
		}
		r, g, b = r*17, g*17, b*17
	case 4: // RGBA
		if err = parseHex(digits[0:1], &r); err == nil {
			if err = parseHex(digits[1:2], &g); err == nil {
				if err = parseHex(digits[2:3], &b); err == nil {
					err = parseHex(digits[3:4], &a)
				}
			}
		}
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6: // RRGGBB
		if err = parseHex(digits[0:2], &r); err == nil {
			if err = parseHex(digits[2:4], &g); err == nil {
				err = parseHex(digits[4:6], &b)
			}
		}
	case 8: // RRGGBBAA
		if err = parseHex(digits[0:2], &r); err == nil {
			if err = parseHex(digits[2:4], &g); err == nil {
				if err = parseHex(digits[4:6], &b); err == nil {
					err = parseHex(digits[6:8], &a)
				}
			}
		}
	default:
		return RGBA{}, &ColorError{Literal: hex, Reason: fmt.Sprintf("invalid length %d", len(digits))}
	}

	if err != nil {
		return RGBA{}, &ColorError{Literal: hex, Reason: err.Error()}
	}
	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

// parseHex is a helper for hex parsing.
func parseHex(s string, val *uint32) error {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return fmt.Errorf("invalid hex digit %q", string(c))
		}
	}
	return nil
}

// Hex returns the lowercase hex form of the color: "#rrggbb" when fully
// opaque, "#rrggbbaa" otherwise.
func (c RGBA) Hex() string {
	r := uint8(clamp255(c.R * 255))
	g := uint8(clamp255(c.G * 255))
	b := uint8(clamp255(c.B * 255))
	a := uint8(clamp255(c.A * 255))
	if a == 255 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
}

// Lerp performs linear interpolation between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// clamp255 restricts a value to [0, 255] range.
func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// clamp01 restricts a value to [0, 1] range.
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Common colors.
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Transparent = RGBA{}

	// MagentaFallback stands in for unknown tokens and unparseable
	// colors under lenient policy.
	MagentaFallback = RGB(1, 0, 1)
)

// HSL creates a color from HSL values.
// h is hue [0, 360), s is saturation [0, 1], l is lightness [0, 1].
func HSL(h, s, l float64) RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	h /= 360

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 1.0/6:
		r, g, b = c, x, 0
	case h < 2.0/6:
		r, g, b = x, c, 0
	case h < 3.0/6:
		r, g, b = 0, c, x
	case h < 4.0/6:
		r, g, b = 0, x, c
	case h < 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return RGB(r+m, g+m, b+m)
}
