package pxl

// Builtin palettes, referenced with the "@name" syntax. {_} is the
// conventional transparent token.

// BuiltinNames lists the available builtin palette names.
func BuiltinNames() []string {
	return []string{"gameboy", "nes", "pico8", "grayscale", "1bit"}
}

// BuiltinPalette returns a builtin palette by name. Lookup is
// case-sensitive.
func BuiltinPalette(name string) (Palette, bool) {
	switch name {
	case "gameboy":
		return gameboyPalette(), true
	case "nes":
		return nesPalette(), true
	case "pico8":
		return pico8Palette(), true
	case "grayscale":
		return grayscalePalette(), true
	case "1bit":
		return oneBitPalette(), true
	default:
		return Palette{}, false
	}
}

// Game Boy 4-shade green set.
// Reference: https://lospec.com/palette-list/nintendo-gameboy-bgb
func gameboyPalette() Palette {
	return Palette{
		Name: "gameboy",
		Colors: map[string]string{
			"{_}":        "#00000000",
			"{lightest}": "#9BBC0F",
			"{light}":    "#8BAC0F",
			"{dark}":     "#306230",
			"{darkest}":  "#0F380F",
		},
	}
}

// Representative colors of the NES system palette.
// Reference: https://lospec.com/palette-list/nintendo-entertainment-system
func nesPalette() Palette {
	return Palette{
		Name: "nes",
		Colors: map[string]string{
			"{_}":      "#00000000",
			"{black}":  "#000000",
			"{white}":  "#FCFCFC",
			"{red}":    "#A80020",
			"{green}":  "#00A800",
			"{blue}":   "#0058F8",
			"{cyan}":   "#00B8D8",
			"{yellow}": "#F8D800",
			"{orange}": "#F83800",
			"{pink}":   "#F878F8",
			"{brown}":  "#503000",
			"{gray}":   "#7C7C7C",
			"{skin}":   "#FCB8B8",
		},
	}
}

// PICO-8 16-color set.
// Reference: https://lospec.com/palette-list/pico-8
func pico8Palette() Palette {
	return Palette{
		Name: "pico8",
		Colors: map[string]string{
			"{_}":           "#00000000",
			"{black}":       "#000000",
			"{dark_blue}":   "#1D2B53",
			"{dark_purple}": "#7E2553",
			"{dark_green}":  "#008751",
			"{brown}":       "#AB5236",
			"{dark_gray}":   "#5F574F",
			"{light_gray}":  "#C2C3C7",
			"{white}":       "#FFF1E8",
			"{red}":         "#FF004D",
			"{orange}":      "#FFA300",
			"{yellow}":      "#FFEC27",
			"{green}":       "#00E436",
			"{blue}":        "#29ADFF",
			"{indigo}":      "#83769C",
			"{pink}":        "#FF77A8",
			"{peach}":       "#FFCCAA",
		},
	}
}

// 8-shade grayscale from white to black.
func grayscalePalette() Palette {
	return Palette{
		Name: "grayscale",
		Colors: map[string]string{
			"{_}":     "#00000000",
			"{white}": "#FFFFFF",
			"{gray1}": "#DFDFDF",
			"{gray2}": "#BFBFBF",
			"{gray3}": "#9F9F9F",
			"{gray4}": "#7F7F7F",
			"{gray5}": "#5F5F5F",
			"{gray6}": "#3F3F3F",
			"{black}": "#000000",
		},
	}
}

// 1-bit black and white.
func oneBitPalette() Palette {
	return Palette{
		Name: "1bit",
		Colors: map[string]string{
			"{_}":     "#00000000",
			"{black}": "#000000",
			"{white}": "#FFFFFF",
		},
	}
}
