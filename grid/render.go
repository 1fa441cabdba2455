// @lixen: #focus{sys[grid,render]}
// @lixen: #interact{trigger[output,ansi]}
package grid

import (
	"errors"
	"io"
	"unicode/utf8"
)

// Pre-allocated control sequences (avoid allocations during render)
var (
	seqFrameStart = []byte("\x1b[0m\x1b[?25l\x1b[?7l") // SGR reset, hide cursor, DECAWM off
	seqClearHome  = []byte("\x1b[2J\x1b[H")
	seqFrameEnd   = []byte("\x1b[0m")
)

const seqEraseLine = "\x1b[K"

// SizeFunc reports the current terminal dimensions in cells
type SizeFunc func() (width, height int, err error)

// RenderState carries resize tracking and scratch space between Render calls
// for one output target. The zero value is ready to use.
type RenderState struct {
	prevWidth  int
	prevHeight int
	known      bool

	buf []byte
}

// Previous returns the terminal size observed by the last successful query
func (s *RenderState) Previous() (width, height int, ok bool) {
	return s.prevWidth, s.prevHeight, s.known
}

// Reset forgets the previous size so the next Render does not clear the screen
func (s *RenderState) Reset() {
	s.prevWidth, s.prevHeight, s.known = 0, 0, false
}

// Render queries the terminal size, fits the logical viewport to it and paints
// every visible row. Each row is a single Write; control output adds at most
// three more. A failed size query counts as "no resize": the current logical
// viewport is drawn and the tracked size is left alone.
// The first write error aborts the frame and is returned.
func (g *Grid) Render(w io.Writer, size SizeFunc, st *RenderState) error {
	if st == nil {
		st = &RenderState{}
	}

	termW, termH, err := querySize(size)
	queried := err == nil
	if queried {
		g.EnsureSize(termW, termH)
	} else {
		termW, termH = g.width, g.height
	}

	resized := queried && st.known && (termW != st.prevWidth || termH != st.prevHeight)
	shrunk := resized && (termW < st.prevWidth || termH < st.prevHeight)

	if _, err := w.Write(seqFrameStart); err != nil {
		return err
	}
	if resized {
		if _, err := w.Write(seqClearHome); err != nil {
			return err
		}
	}

	span := min(g.width, termW) * CellWidth
	for y := 0; y < g.height; y++ {
		buf := appendCursorRow(st.buf[:0], y)
		for _, r := range g.rows[y][:span] {
			if r < utf8.RuneSelf {
				buf = append(buf, byte(r))
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
		if shrunk {
			buf = append(buf, seqEraseLine...)
		}
		st.buf = buf

		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	if _, err := w.Write(seqFrameEnd); err != nil {
		return err
	}

	if queried {
		st.prevWidth, st.prevHeight, st.known = termW, termH, true
	}
	return nil
}

var errNoSizeFunc = errors.New("grid: nil size func")

func querySize(size SizeFunc) (int, int, error) {
	if size == nil {
		return 0, 0, errNoSizeFunc
	}
	w, h, err := size()
	if err != nil {
		return 0, 0, err
	}
	return max(w, 0), max(h, 0), nil
}

// appendCursorRow appends CUP to column 1 of row y (0-indexed)
func appendCursorRow(buf []byte, y int) []byte {
	buf = append(buf, '\x1b', '[')
	buf = appendInt(buf, y+1)
	return append(buf, ';', '1', 'H')
}

// appendInt appends a non-negative decimal without allocation
func appendInt(buf []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		return append(buf, byte(n)+'0')
	}
	if n < 100 {
		return append(buf, byte(n/10)+'0', byte(n%10)+'0')
	}
	if n < 1000 {
		return append(buf, byte(n/100)+'0', byte(n/10%10)+'0', byte(n%10)+'0')
	}
	var tmp [20]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte(n%10) + '0'
		n /= 10
	}
	return append(buf, tmp[i:]...)
}
