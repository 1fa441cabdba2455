// @focus: #terminal { ansi }
package terminal

import "io"

// Pre-allocated ANSI sequence fragments (avoid allocations during render)
var (
	csiSGR0  = []byte("\x1b[0m")
	csiClear = []byte("\x1b[2J\x1b[H")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	// DECAWM: Auto-Wrap Mode
	// ?7l disables wrapping (cursor sticks at right edge), preventing scroll when writing to bottom-right corner
	csiAutoWrapOn  = []byte("\x1b[?7h")
	csiAutoWrapOff = []byte("\x1b[?7l")
)

// Enter switches w to the alternate screen with cursor hidden and wrap disabled
func Enter(w io.Writer) error {
	for _, seq := range [][]byte{csiAltScreenEnter, csiCursorHide, csiAutoWrapOff, csiSGR0, csiClear} {
		if _, err := w.Write(seq); err != nil {
			return err
		}
	}
	return nil
}

// Leave undoes Enter. Auto-wrap is re-enabled after leaving the alternate
// screen so the main buffer ends up wrapping.
func Leave(w io.Writer) error {
	for _, seq := range [][]byte{csiCursorShow, csiAltScreenExit, csiAutoWrapOn, csiSGR0} {
		if _, err := w.Write(seq); err != nil {
			return err
		}
	}
	return nil
}
