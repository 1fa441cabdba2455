package scene

import (
	"github.com/lixenwraith/cellgrid/colors"
	"github.com/lixenwraith/cellgrid/grid"
)

var builtins = map[string]Factory{
	"boxes":   func() Scene { return Func{"boxes", drawBoxes} },
	"rainbow": func() Scene { return Func{"rainbow", drawRainbow} },
	"lines":   func() Scene { return Func{"lines", drawLines} },
	"text":    func() Scene { return Func{"text", drawText} },
	"palette": func() Scene { return Func{"palette", drawPalette} },
	"bounce":  func() Scene { return newBounce() },
}

var boxStyles = [...]grid.BoxStyle{grid.BoxThin, grid.BoxDouble, grid.BoxASCII}

// drawBoxes nests boxes of all three styles, shrinking toward the centre
func drawBoxes(g *grid.Grid, tick int) {
	w, h := g.Size()
	g.Clear(colors.DeepNavy, colors.White)

	hue := colors.FromHSV(float64(tick*6), 0.8, 1)
	for i := 0; ; i++ {
		x, y := i*2, i
		bw, bh := w-4*i, h-2*i
		if bw < 2 || bh < 2 {
			break
		}
		fg := colors.White
		if i%2 == 0 {
			fg = hue
		}
		g.DrawBox(x, y, bw, bh, colors.DeepNavy, fg, boxStyles[(i+tick/30)%len(boxStyles)])
	}
}

// drawRainbow sweeps a hue gradient diagonally across the viewport
func drawRainbow(g *grid.Grid, tick int) {
	w, h := g.Size()
	if w == 0 || h == 0 {
		return
	}
	for y := 0; y < h; y++ {
		v := 1 - 0.5*float64(y)/float64(h)
		for x := 0; x < w; x++ {
			hue := float64((x+y)*360/(w+h) + tick*4)
			g.SetCell(x, y, colors.FromHSV(hue, 1, v), colors.Black, ' ')
		}
	}
}

// drawLines moves a horizontal and a vertical line across the viewport
func drawLines(g *grid.Grid, tick int) {
	w, h := g.Size()
	g.Clear(colors.Black, colors.Silver)
	if w == 0 || h == 0 {
		return
	}

	row := tick % h
	col := (tick * 2) % w
	g.DrawHorizontalLine(0, row, w, colors.Black, colors.Aqua, '─')
	g.DrawVerticalLine(col, 0, h, colors.Black, colors.Fuchsia, '│')
	g.SetCell(col, row, colors.Black, colors.Yellow, '┼')

	// Trailing echoes one step behind
	if h > 1 {
		g.DrawHorizontalLine(0, (row+h-1)%h, w, colors.Black, colors.DeepTeal, '·')
	}
}

const banner = "cellgrid"

// drawText centres a banner in a double box above a 16-colour legend
func drawText(g *grid.Grid, tick int) {
	w, h := g.Size()
	g.Clear(colors.Charcoal, colors.LightGray)

	bw := len(banner) + 4
	bx, by := (w-bw)/2, h/2-2
	g.DrawBox(bx, by, bw, 3, colors.Charcoal, colors.Gold, grid.BoxDouble)

	// Typewriter reveal, then hold
	n := min(tick/3, len(banner))
	g.DrawText(bx+2, by+1, banner[:n], colors.Charcoal, colors.NearWhite)

	legendX := (w - 32) / 2
	for i := uint8(0); i < 16; i++ {
		x := legendX + int(i)*2
		g.SetCell(x, by+4, i, colors.White, ' ')
		g.SetCell(x+1, by+4, i, colors.White, ' ')
	}
	g.DrawText(legendX, by+5, "0 1 2 3 4 5 6 7 8 9 A B C D E F", colors.Charcoal, colors.Gray)
}

// drawPalette shows all 256 indices in a 32x8 chart, with readable contrast
func drawPalette(g *grid.Grid, tick int) {
	w, h := g.Size()
	g.Clear(colors.Black, colors.White)

	const cols, rows = 32, 8
	cellW := max(w/cols, 1)
	cellH := max(h/rows, 1)
	for i := 0; i < 256; i++ {
		idx := uint8(i)
		x, y := (i%cols)*cellW, (i/cols)*cellH
		g.FillRect(x, y, cellW, cellH, idx, contrast(idx), ' ')
		if cellW >= 3 && (tick/20)%2 == 0 {
			g.DrawText(x, y, hex2(idx), idx, contrast(idx))
		}
	}
}

// contrast picks black or white text for a background index
func contrast(idx uint8) uint8 {
	r, g, b := colors.ToRGB(idx)
	lum := 299*int(r) + 587*int(g) + 114*int(b)
	if lum > 128*1000 {
		return colors.Black
	}
	return colors.White
}

func hex2(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0f]})
}

// bounce moves a small box around the viewport, reflecting off its edges
type bounce struct {
	x, y   int
	dx, dy int
}

const bounceW, bounceH = 8, 4

func newBounce() *bounce {
	return &bounce{dx: 1, dy: 1}
}

func (b *bounce) Name() string { return "bounce" }

func (b *bounce) Frame(g *grid.Grid, tick int) error {
	w, h := g.Size()
	g.Clear(colors.Black, colors.White)

	if tick == 0 {
		b.x, b.y, b.dx, b.dy = 0, 0, 1, 1
	}

	maxX, maxY := max(w-bounceW, 0), max(h-bounceH, 0)
	b.x, b.dx = reflect(b.x, b.dx, maxX)
	b.y, b.dy = reflect(b.y, b.dy, maxY)

	fg := colors.FromHSV(float64(tick*10), 1, 1)
	g.FillRect(b.x+1, b.y+1, bounceW-2, bounceH-2, colors.Navy, fg, '░')
	g.DrawBox(b.x, b.y, bounceW, bounceH, colors.Black, fg, grid.BoxThin)
	return nil
}

// reflect advances pos by d inside [0, limit], flipping d at the edges
func reflect(pos, d, limit int) (int, int) {
	if limit == 0 {
		return 0, d
	}
	pos = min(max(pos, 0), limit)
	next := pos + d
	if next < 0 || next > limit {
		d = -d
		next = pos + d
	}
	return next, d
}
