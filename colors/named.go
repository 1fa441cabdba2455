package colors

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Base 16 ANSI colors, supported by every terminal
const (
	Black uint8 = iota
	Maroon
	Green
	Olive
	Navy
	Purple
	Teal
	Silver
	Gray
	Red
	Lime
	Yellow
	Blue
	Fuchsia
	Aqua
	White
)

// Selected xterm-256 indices, ordered dark-to-light within each hue group
const (
	DeepNavy  uint8 = 17  // (0,0,1)
	SteelBlue uint8 = 75  // (1,3,5)
	DeepTeal  uint8 = 23  // (0,1,1)
	Cyan      uint8 = 51  // (0,5,5)
	Indigo    uint8 = 63  // (1,1,5)
	Violet    uint8 = 134 // (3,1,4)
	Crimson   uint8 = 160 // (4,0,0)
	Orange    uint8 = 208 // (5,2,0)
	Gold      uint8 = 220 // (5,4,0)
	Charcoal  uint8 = 236 // gray ramp
	LightGray uint8 = 250 // gray ramp
	NearWhite uint8 = 255 // gray ramp
)

// Colors of a freshly allocated cell
const (
	DefaultBg = Black
	DefaultFg = White
)

// Lookup resolves a W3C/X11 color name or "#rrggbb" to a palette index.
// Names of the 16 base colors map to their own index rather than the nearest cube entry.
func Lookup(name string) (uint8, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	c := tcell.GetColor(name)
	switch {
	case c == tcell.ColorDefault || !c.Valid():
		return 0, false
	case c.IsRGB():
		r, g, b := c.RGB()
		return FromRGB(uint8(r), uint8(g), uint8(b)), true
	case c >= tcell.ColorBlack && c <= tcell.Color255:
		return uint8(c - tcell.ColorBlack), true
	default:
		return 0, false
	}
}
