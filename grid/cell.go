// @lixen: #focus{sys[grid,cell]}
package grid

import "github.com/lixenwraith/cellgrid/colors"

// Fixed escape fragments of an encoded cell
// Layout: ESC[48;5;BBB m ESC[38;5;FFF m G
const (
	bgPrefix = "\x1b[48;5;"
	fgPrefix = "m\x1b[38;5;"
	cellTerm = "m"
)

// Rune offsets inside an encoded cell
const (
	bgDigits  = len(bgPrefix)
	fgDigits  = bgDigits + 3 + len(fgPrefix)
	glyphSlot = fgDigits + 3 + len(cellTerm)

	// CellWidth is the encoded length of every cell, in runes
	CellWidth = glyphSlot + 1
)

// Cell is the decoded form of one grid position
type Cell struct {
	Bg    uint8
	Fg    uint8
	Glyph rune
}

// DefaultCell is the content of every newly allocated position
var DefaultCell = Cell{Bg: colors.DefaultBg, Fg: colors.DefaultFg, Glyph: ' '}

// blankCell is the pre-encoded DefaultCell copied into grown rows
var blankCell [CellWidth]rune

func init() {
	n := 0
	for _, r := range bgPrefix {
		blankCell[n] = r
		n++
	}
	n += 3
	for _, r := range fgPrefix {
		blankCell[n] = r
		n++
	}
	n += 3
	for _, r := range cellTerm {
		blankCell[n] = r
		n++
	}
	encodeCell(blankCell[:], DefaultCell.Bg, DefaultCell.Fg, DefaultCell.Glyph)
}

// putColor writes v as three zero-padded decimal digits without allocation
func putColor(dst []rune, v uint8) {
	dst[0] = '0' + rune(v/100)
	dst[1] = '0' + rune(v/10%10)
	dst[2] = '0' + rune(v%10)
}

// readColor is the inverse of putColor
func readColor(src []rune) uint8 {
	return uint8((src[0]-'0')*100 + (src[1]-'0')*10 + (src[2] - '0'))
}

// encodeCell rewrites the variable slots of one encoded cell, prefixes untouched
func encodeCell(cell []rune, bg, fg uint8, glyph rune) {
	putColor(cell[bgDigits:], colors.Quantize(bg))
	putColor(cell[fgDigits:], colors.Quantize(fg))
	cell[glyphSlot] = glyph
}

func decodeCell(cell []rune) Cell {
	return Cell{
		Bg:    readColor(cell[bgDigits:]),
		Fg:    readColor(cell[fgDigits:]),
		Glyph: cell[glyphSlot],
	}
}
