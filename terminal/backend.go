package terminal

import "errors"

// errNoWindow is returned when the tty reports a 0x0 window (serial lines, some CI ttys)
var errNoWindow = errors.New("terminal: window size unavailable")

// Backend abstracts platform-specific terminal operations
type Backend interface {
	// Lifecycle
	Init() error
	Fini()

	// Size returns the window size in cells
	Size() (width, height int, err error)

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Read blocks until input is available or stopCh is closed.
	// A nil slice with nil error means stopCh was closed; io.EOF ends input.
	Read(stopCh <-chan struct{}) ([]byte, error)
}
