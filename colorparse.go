package pxl

import (
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ResolveColor evaluates a color literal to a concrete RGBA value.
//
// Supported forms: hex (#RGB, #RGBA, #RRGGBB, #RRGGBBAA), rgb()/rgba()
// with 0-255 channels and 0-1 alpha, hsl()/hsla(), hwb(), oklch(), CSS
// named colors, "transparent", var() references resolved against scope,
// and color-mix(). Both comma- and space-separated function arguments
// are accepted.
//
// ResolveColor is a pure function: it fails with the offending literal
// and produces no partial result.
func ResolveColor(literal string, scope *VarScope) (RGBA, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return RGBA{}, &ColorError{Literal: literal, Reason: "empty color string"}
	}

	if strings.Contains(s, "var(") {
		if scope == nil {
			return RGBA{}, &ColorError{Literal: literal, Reason: "var() used without a variable scope"}
		}
		resolved, err := scope.Resolve(s)
		if err != nil {
			return RGBA{}, err
		}
		s = strings.TrimSpace(resolved)
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return Hex(s)
	case strings.HasPrefix(lower, "rgba(") || strings.HasPrefix(lower, "rgb("):
		return parseRGBFunc(s)
	case strings.HasPrefix(lower, "hsla(") || strings.HasPrefix(lower, "hsl("):
		return parseHSLFunc(s)
	case strings.HasPrefix(lower, "hwb("):
		return parseHWBFunc(s)
	case strings.HasPrefix(lower, "oklch("):
		return parseOKLCHFunc(s)
	case strings.HasPrefix(lower, "color-mix("):
		return parseColorMix(s, scope)
	case lower == "transparent":
		return Transparent, nil
	default:
		if c, ok := colornames.Map[lower]; ok {
			return FromColor(c), nil
		}
		return RGBA{}, &ColorError{Literal: literal, Reason: "unknown color"}
	}
}

// funcArgs strips "name(...)" syntax and splits the arguments on commas,
// spaces, and the modern "/" alpha separator.
func funcArgs(s string) ([]string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, &ColorError{Literal: s, Reason: "malformed function syntax"}
	}
	inner := s[open+1 : len(s)-1]
	inner = strings.ReplaceAll(inner, "/", " ")
	args := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(args) == 0 {
		return nil, &ColorError{Literal: s, Reason: "empty argument list"}
	}
	return args, nil
}

func parseRGBFunc(s string) (RGBA, error) {
	args, err := funcArgs(s)
	if err != nil {
		return RGBA{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, &ColorError{Literal: s, Reason: "rgb() takes 3 or 4 arguments"}
	}

	var ch [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return RGBA{}, &ColorError{Literal: s, Reason: "invalid channel " + args[i]}
		}
		if v < 0 || v > 255 {
			return RGBA{}, &ColorError{Literal: s, Reason: "channel out of range: " + args[i]}
		}
		ch[i] = v
	}

	a := 1.0
	if len(args) == 4 {
		a, err = parseAlpha(args[3])
		if err != nil {
			return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
		}
	}

	return RGBA{
		R: float64(ch[0]) / 255,
		G: float64(ch[1]) / 255,
		B: float64(ch[2]) / 255,
		A: a,
	}, nil
}

func parseHSLFunc(s string) (RGBA, error) {
	args, err := funcArgs(s)
	if err != nil {
		return RGBA{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, &ColorError{Literal: s, Reason: "hsl() takes 3 or 4 arguments"}
	}

	h, err := parseAngle(args[0])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}
	sat, err := parsePercent(args[1])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}
	light, err := parsePercent(args[2])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}

	a := 1.0
	if len(args) == 4 {
		a, err = parseAlpha(args[3])
		if err != nil {
			return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
		}
	}

	c := HSL(h, sat, light)
	c.A = a
	return c, nil
}

func parseHWBFunc(s string) (RGBA, error) {
	args, err := funcArgs(s)
	if err != nil {
		return RGBA{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, &ColorError{Literal: s, Reason: "hwb() takes 3 or 4 arguments"}
	}

	h, err := parseAngle(args[0])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}
	w, err := parsePercent(args[1])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}
	b, err := parsePercent(args[2])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}

	a := 1.0
	if len(args) == 4 {
		a, err = parseAlpha(args[3])
		if err != nil {
			return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
		}
	}

	// Whiteness plus blackness at or past 1 collapses to gray.
	if w+b >= 1 {
		gray := w / (w + b)
		return RGBA{R: gray, G: gray, B: gray, A: a}, nil
	}
	v := 1 - b
	sv := 1 - w/v
	cc := colorful.Hsv(normalizeHue(h), sv, v).Clamped()
	return RGBA{R: cc.R, G: cc.G, B: cc.B, A: a}, nil
}

func parseOKLCHFunc(s string) (RGBA, error) {
	args, err := funcArgs(s)
	if err != nil {
		return RGBA{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return RGBA{}, &ColorError{Literal: s, Reason: "oklch() takes 3 or 4 arguments"}
	}

	l, err := parseNumberOrPercent(args[0])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}
	chroma, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: "invalid chroma " + args[1]}
	}
	h, err := parseAngle(args[2])
	if err != nil {
		return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
	}

	a := 1.0
	if len(args) == 4 {
		a, err = parseAlpha(args[3])
		if err != nil {
			return RGBA{}, &ColorError{Literal: s, Reason: err.Error()}
		}
	}

	cc := colorful.OkLch(l, chroma, normalizeHue(h)).Clamped()
	return RGBA{R: cc.R, G: cc.G, B: cc.B, A: a}, nil
}

// parseColorMix evaluates color-mix(in <space>, c1 [p1%], c2 [p2%]):
// linear per-channel interpolation in the named color space. Omitted
// percentages default to an even split; percentages that do not sum to
// 100 normalize to weights.
func parseColorMix(s string, scope *VarScope) (RGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return RGBA{}, &ColorError{Literal: s, Reason: "malformed function syntax"}
	}
	parts := splitTopLevel(s[open+1:len(s)-1], ',')
	if len(parts) != 3 {
		return RGBA{}, &ColorError{Literal: s, Reason: "color-mix() takes an interpolation space and two colors"}
	}

	spaceArg := strings.TrimSpace(parts[0])
	if !strings.HasPrefix(strings.ToLower(spaceArg), "in ") {
		return RGBA{}, &ColorError{Literal: s, Reason: "missing interpolation space"}
	}
	space := strings.ToLower(strings.TrimSpace(spaceArg[3:]))

	c1, p1, err := parseMixComponent(parts[1], scope)
	if err != nil {
		return RGBA{}, err
	}
	c2, p2, err := parseMixComponent(parts[2], scope)
	if err != nil {
		return RGBA{}, err
	}

	// Fill in omitted percentages, then normalize to a weight for c2.
	switch {
	case p1 < 0 && p2 < 0:
		p1, p2 = 50, 50
	case p1 < 0:
		p1 = 100 - p2
	case p2 < 0:
		p2 = 100 - p1
	}
	if p1+p2 <= 0 {
		return RGBA{}, &ColorError{Literal: s, Reason: "zero total mix percentage"}
	}
	t := p2 / (p1 + p2)

	return mixInSpace(c1, c2, t, space, s)
}

// parseMixComponent parses "color [pct%]" from a color-mix argument.
// A missing percentage is reported as -1.
func parseMixComponent(arg string, scope *VarScope) (RGBA, float64, error) {
	arg = strings.TrimSpace(arg)
	pct := -1.0

	// A trailing percentage is separated from the color by a space at
	// paren depth zero.
	if i := lastTopLevelSpace(arg); i > 0 {
		tail := strings.TrimSpace(arg[i+1:])
		if strings.HasSuffix(tail, "%") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(tail, "%"), 64)
			if err != nil {
				return RGBA{}, 0, &ColorError{Literal: arg, Reason: "invalid percentage " + tail}
			}
			pct = v
			arg = strings.TrimSpace(arg[:i])
		}
	}

	c, err := ResolveColor(arg, scope)
	if err != nil {
		return RGBA{}, 0, err
	}
	return c, pct, nil
}

func mixInSpace(c1, c2 RGBA, t float64, space, literal string) (RGBA, error) {
	a := c1.A + (c2.A-c1.A)*t

	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	cc1 := colorful.Color{R: c1.R, G: c1.G, B: c1.B}
	cc2 := colorful.Color{R: c2.R, G: c2.G, B: c2.B}

	switch space {
	case "srgb":
		out := c1.Lerp(c2, t)
		out.A = a
		return out, nil
	case "srgb-linear":
		r1, g1, b1 := cc1.LinearRgb()
		r2, g2, b2 := cc2.LinearRgb()
		out := colorful.LinearRgb(lerp(r1, r2), lerp(g1, g2), lerp(b1, b2)).Clamped()
		return RGBA{R: out.R, G: out.G, B: out.B, A: a}, nil
	case "hsl":
		h1, s1, l1 := cc1.Hsl()
		h2, s2, l2 := cc2.Hsl()
		out := colorful.Hsl(lerp(h1, h2), lerp(s1, s2), lerp(l1, l2)).Clamped()
		return RGBA{R: out.R, G: out.G, B: out.B, A: a}, nil
	case "oklch":
		l1, ch1, h1 := cc1.OkLch()
		l2, ch2, h2 := cc2.OkLch()
		out := colorful.OkLch(lerp(l1, l2), lerp(ch1, ch2), lerp(h1, h2)).Clamped()
		return RGBA{R: out.R, G: out.G, B: out.B, A: a}, nil
	default:
		return RGBA{}, &ColorError{Literal: literal, Reason: "unknown interpolation space " + space}
	}
}

// splitTopLevel splits s on sep occurrences outside parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// lastTopLevelSpace returns the index of the last space outside
// parentheses, or -1.
func lastTopLevelSpace(s string) int {
	depth := 0
	last := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 {
				last = i
			}
		}
	}
	return last
}

func parseAlpha(s string) (float64, error) {
	if strings.HasSuffix(s, "%") {
		return parsePercent(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ColorError{Literal: s, Reason: "invalid alpha"}
	}
	if v < 0 || v > 1 {
		return 0, &ColorError{Literal: s, Reason: "alpha out of range"}
	}
	return v, nil
}

// parseAngle reads a hue in degrees, with an optional "deg" suffix.
func parseAngle(s string) (float64, error) {
	s = strings.TrimSuffix(strings.ToLower(s), "deg")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ColorError{Literal: s, Reason: "invalid angle"}
	}
	return v, nil
}

// parsePercent reads a 0-100 percentage (the "%" sign is optional) and
// maps it to 0-1.
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, &ColorError{Literal: s, Reason: "invalid percentage"}
	}
	if v < 0 || v > 100 {
		return 0, &ColorError{Literal: s, Reason: "percentage out of range"}
	}
	return v / 100, nil
}

// parseNumberOrPercent reads a 0-1 number or a 0-100 percentage.
func parseNumberOrPercent(s string) (float64, error) {
	if strings.HasSuffix(s, "%") {
		return parsePercent(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ColorError{Literal: s, Reason: "invalid number"}
	}
	return v, nil
}

func normalizeHue(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}
