// @lixen: #focus{sys[grid,buffer]}
package grid

// Grid is a capacity-backed rectangle of pre-encoded cells.
//
// Logical size is the region Render draws and may shrink on any EnsureSize call.
// Capacity only grows. Every position inside capacity always holds a complete
// CellWidth encoding, so offsets are x*CellWidth.
//
// A Grid is not safe for concurrent use. Rows are reused across growth calls and
// must never be handed out; all access goes through the methods below.
type Grid struct {
	rows [][]rune

	width, height             int // logical viewport
	bufferWidth, bufferHeight int // allocated capacity
}

// New creates a grid with the given logical size, 0x0 for an empty grid
func New(width, height int) *Grid {
	g := &Grid{}
	g.EnsureSize(width, height)
	return g
}

// Size returns the logical viewport dimensions
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// Capacity returns the allocated dimensions
func (g *Grid) Capacity() (width, height int) {
	return g.bufferWidth, g.bufferHeight
}

// EnsureSize sets the logical size and grows capacity when either axis exceeds it.
// Existing cells keep their exact encoding; new cells get DefaultCell.
func (g *Grid) EnsureSize(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	g.width, g.height = width, height

	if width <= g.bufferWidth && height <= g.bufferHeight {
		return
	}

	newW := max(width, g.bufferWidth)
	newH := max(height, g.bufferHeight)
	widened := newW > g.bufferWidth

	rows := make([][]rune, newH)
	for y := range rows {
		// Unchanged rows keep their backing array
		if y < g.bufferHeight && !widened {
			rows[y] = g.rows[y]
			continue
		}

		row := make([]rune, newW*CellWidth)
		off := 0
		if y < g.bufferHeight {
			off = copy(row, g.rows[y])
		}
		for ; off < len(row); off += CellWidth {
			copy(row[off:off+CellWidth], blankCell[:])
		}
		rows[y] = row
	}

	g.rows = rows
	g.bufferWidth = newW
	g.bufferHeight = newH
}

// inCapacity reports whether (x, y) addresses an allocated cell
func (g *Grid) inCapacity(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.bufferWidth && y < g.bufferHeight
}

// cell returns the encoded run for (x, y); caller checks bounds
func (g *Grid) cell(x, y int) []rune {
	off := x * CellWidth
	return g.rows[y][off : off+CellWidth : off+CellWidth]
}

// SetCell overwrites color digits and glyph of one cell in place.
// Positions outside capacity are dropped silently.
func (g *Grid) SetCell(x, y int, bg, fg uint8, glyph rune) {
	if !g.inCapacity(x, y) {
		return
	}
	encodeCell(g.cell(x, y), bg, fg, glyph)
}

// GetCell returns the glyph at (x, y), space outside capacity
func (g *Grid) GetCell(x, y int) rune {
	if !g.inCapacity(x, y) {
		return ' '
	}
	return g.rows[y][x*CellWidth+glyphSlot]
}

// CellAt returns the decoded cell at (x, y), DefaultCell outside capacity
func (g *Grid) CellAt(x, y int) Cell {
	if !g.inCapacity(x, y) {
		return DefaultCell
	}
	return decodeCell(g.cell(x, y))
}

// Clear resets every cell of the logical viewport to a space in the given colors.
// Cells outside the viewport but inside capacity are left as they are.
func (g *Grid) Clear(bg, fg uint8) {
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.SetCell(x, y, bg, fg, ' ')
		}
	}
}
