// Package colors maps color descriptions onto xterm-256 palette indices.
//
// The grid only ever stores a palette index per cell and formats it as three
// decimal digits; everything that gives an index meaning (names, RGB, HSV)
// lives here.
package colors

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Quantize is the hook the grid calls before encoding a color byte.
// The palette is the full 256-entry xterm table, so indices pass through unchanged.
func Quantize(idx uint8) uint8 {
	return idx
}

// Color cube levels for indices 16-231: index = 16 + 36*r + 6*g + b
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

const (
	cubeStart = 16
	grayStart = 232 // 232-255, level = 8 + 10*(index-232)
	grayCount = 24
)

// cubeStep returns the nearest cube level index for a channel value
func cubeStep(v uint8) int {
	switch {
	case v < 48:
		return 0
	case v < 115:
		return 1
	default:
		return (int(v) - 35) / 40
	}
}

func sq(v int) int { return v * v }

// FromRGB returns the nearest xterm-256 index, choosing between the color
// cube and the grayscale ramp by squared distance
func FromRGB(r, g, b uint8) uint8 {
	cr, cg, cb := cubeStep(r), cubeStep(g), cubeStep(b)
	cubeDist := sq(int(r)-int(cubeLevels[cr])) +
		sq(int(g)-int(cubeLevels[cg])) +
		sq(int(b)-int(cubeLevels[cb]))
	cubeIdx := cubeStart + 36*cr + 6*cg + cb

	avg := (int(r) + int(g) + int(b)) / 3
	step := (avg - 3) / 10
	if step < 0 {
		step = 0
	}
	if step >= grayCount {
		step = grayCount - 1
	}
	level := 8 + 10*step
	grayDist := sq(int(r)-level) + sq(int(g)-level) + sq(int(b)-level)

	if grayDist < cubeDist {
		return uint8(grayStart + step)
	}
	return uint8(cubeIdx)
}

// FromHSV converts hue (degrees, any range), saturation and value (0-1) to
// the nearest palette index
func FromHSV(h, s, v float64) uint8 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, clamp01(s), clamp01(v)).Clamped().RGB255()
	return FromRGB(r, g, b)
}

// ToRGB returns the 24-bit value the xterm palette assigns to idx
func ToRGB(idx uint8) (r, g, b uint8) {
	pr, pg, pb := tcell.PaletteColor(int(idx)).RGB()
	if pr >= 0 && pg >= 0 && pb >= 0 {
		return uint8(pr), uint8(pg), uint8(pb)
	}
	// tcell knows every palette entry; the arithmetic covers builds where it does not
	switch {
	case idx >= grayStart:
		l := uint8(8 + 10*(int(idx)-grayStart))
		return l, l, l
	case idx >= cubeStart:
		n := int(idx) - cubeStart
		return cubeLevels[n/36], cubeLevels[n/6%6], cubeLevels[n%6]
	default:
		return 0, 0, 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
