package pxl

import (
	"strconv"
	"strings"
)

// ParsePath parses an SVG-lite path string supporting only the
// M/L/H/V/Z commands, absolute and relative, and returns the polyline
// vertices. closed reports whether the path ended with Z. A leading
// relative "m" is treated as absolute, matching SVG.
//
// Examples: "M 0 0 L 4 0 L 4 4 Z", "m0,0 h4 v4 h-4 z".
func ParsePath(s string) (verts [][2]float64, closed bool, err error) {
	tokens := tokenizePath(s)
	if len(tokens) == 0 {
		return nil, false, &PathError{Input: s, Reason: "empty path"}
	}

	var cur [2]float64
	started := false
	i := 0

	takeNumbers := func(n int) ([]float64, error) {
		if i+n > len(tokens) {
			return nil, &PathError{Input: s, Reason: "not enough coordinates"}
		}
		out := make([]float64, n)
		for j := 0; j < n; j++ {
			v, err := strconv.ParseFloat(tokens[i+j], 64)
			if err != nil {
				return nil, &PathError{Input: s, Reason: "invalid number " + tokens[i+j]}
			}
			out[j] = v
		}
		i += n
		return out, nil
	}

	for i < len(tokens) {
		cmd := tokens[i]
		i++
		relative := cmd >= "a" && cmd <= "z"

		switch strings.ToUpper(cmd) {
		case "M", "L":
			if strings.ToUpper(cmd) == "L" && !started {
				return nil, false, &PathError{Input: s, Reason: "path must start with a moveto"}
			}
			xy, err := takeNumbers(2)
			if err != nil {
				return nil, false, err
			}
			if relative && started {
				cur[0] += xy[0]
				cur[1] += xy[1]
			} else {
				cur = [2]float64{xy[0], xy[1]}
			}
			started = true
			verts = append(verts, cur)
		case "H":
			if !started {
				return nil, false, &PathError{Input: s, Reason: "path must start with a moveto"}
			}
			xs, err := takeNumbers(1)
			if err != nil {
				return nil, false, err
			}
			if relative {
				cur[0] += xs[0]
			} else {
				cur[0] = xs[0]
			}
			verts = append(verts, cur)
		case "V":
			if !started {
				return nil, false, &PathError{Input: s, Reason: "path must start with a moveto"}
			}
			ys, err := takeNumbers(1)
			if err != nil {
				return nil, false, err
			}
			if relative {
				cur[1] += ys[0]
			} else {
				cur[1] = ys[0]
			}
			verts = append(verts, cur)
		case "Z":
			if !started {
				return nil, false, &PathError{Input: s, Reason: "path must start with a moveto"}
			}
			closed = true
		default:
			return nil, false, &PathError{Input: s, Reason: "unknown command " + cmd}
		}
	}

	return verts, closed, nil
}

// tokenizePath splits a path string into command letters and number
// literals. Commas and whitespace separate; a minus sign also starts a
// new number so "4-2" reads as 4, -2.
func tokenizePath(s string) []string {
	var tokens []string
	var num strings.Builder

	flush := func() {
		if num.Len() > 0 {
			tokens = append(tokens, num.String())
			num.Reset()
		}
	}

	for _, c := range s {
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == ',':
			flush()
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			flush()
			tokens = append(tokens, string(c))
		case c == '-':
			flush()
			num.WriteRune(c)
		default:
			num.WriteRune(c)
		}
	}
	flush()
	return tokens
}
