package grid

import "github.com/mattn/go-runewidth"

// BoxStyle selects the border glyph set for DrawBox
type BoxStyle uint8

const (
	BoxThin   BoxStyle = iota // ┌─┐│└┘
	BoxDouble                 // ╔═╗║╚╝
	BoxASCII                  // +-+|++
)

// Border glyph sets indexed by BoxStyle
var boxGlyphs = [...][6]rune{
	BoxThin:   {'┌', '─', '┐', '│', '└', '┘'},
	BoxDouble: {'╔', '═', '╗', '║', '╚', '╝'},
	BoxASCII:  {'+', '-', '+', '|', '+', '+'},
}

const (
	boxTL = 0 // top-left
	boxH  = 1 // horizontal
	boxTR = 2 // top-right
	boxV  = 3 // vertical
	boxBL = 4 // bottom-left
	boxBR = 5 // bottom-right
)

// placeholderGlyph stands in for runes that do not occupy exactly one column
const placeholderGlyph = '?'

// All primitives below clip through SetCell's capacity check only, so they may
// pre-populate cells outside the logical viewport.

// FillRect sets every cell of a w*h rectangle
func (g *Grid) FillRect(x, y, w, h int, bg, fg uint8, glyph rune) {
	if w <= 0 || h <= 0 {
		return
	}
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			g.SetCell(col, row, bg, fg, glyph)
		}
	}
}

// DrawHorizontalLine sets length cells to the right of (x, y), inclusive
func (g *Grid) DrawHorizontalLine(x, y, length int, bg, fg uint8, glyph rune) {
	for i := 0; i < length; i++ {
		g.SetCell(x+i, y, bg, fg, glyph)
	}
}

// DrawVerticalLine sets length cells downward from (x, y), inclusive
func (g *Grid) DrawVerticalLine(x, y, length int, bg, fg uint8, glyph rune) {
	for i := 0; i < length; i++ {
		g.SetCell(x, y+i, bg, fg, glyph)
	}
}

// DrawText writes one rune per cell starting at (x, y). Runes that are not
// exactly one column wide (controls, combining marks, wide CJK) are written
// as '?' so screen columns stay aligned with cells.
func (g *Grid) DrawText(x, y int, text string, bg, fg uint8) {
	col := x
	for _, r := range text {
		if runewidth.RuneWidth(r) != 1 {
			r = placeholderGlyph
		}
		g.SetCell(col, y, bg, fg, r)
		col++
	}
}

// DrawBox draws a w*h border with its top-left corner at (x, y).
// Boxes narrower or shorter than 2 are not drawn; the interior is untouched.
func (g *Grid) DrawBox(x, y, w, h int, bg, fg uint8, style BoxStyle) {
	if w < 2 || h < 2 {
		return
	}
	if int(style) >= len(boxGlyphs) {
		style = BoxThin
	}
	glyphs := boxGlyphs[style]
	right, bottom := x+w-1, y+h-1

	g.SetCell(x, y, bg, fg, glyphs[boxTL])
	g.SetCell(right, y, bg, fg, glyphs[boxTR])
	g.SetCell(x, bottom, bg, fg, glyphs[boxBL])
	g.SetCell(right, bottom, bg, fg, glyphs[boxBR])

	g.DrawHorizontalLine(x+1, y, w-2, bg, fg, glyphs[boxH])
	g.DrawHorizontalLine(x+1, bottom, w-2, bg, fg, glyphs[boxH])
	g.DrawVerticalLine(x, y+1, h-2, bg, fg, glyphs[boxV])
	g.DrawVerticalLine(right, y+1, h-2, bg, fg, glyphs[boxV])
}
