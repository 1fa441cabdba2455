// @focus: #sys { term, io }
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// outputBufferSize holds a full 200-column frame row set before the bufio writer spills
const outputBufferSize = 256 * 1024

// Console owns the process terminal: raw mode, alternate screen, buffered output and key input.
// Size has the grid.SizeFunc signature and Console is an io.Writer, so a grid renders
// straight into it; call Flush once per frame.
type Console struct {
	backend Backend
	out     *bufio.Writer
	keys    chan Key
	resize  *resizeWatcher

	stopCh chan struct{}
	doneCh chan struct{}

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a Console on stdin/stdout
func New() *Console {
	return newConsole(newBackend())
}

func newConsole(b Backend) *Console {
	return &Console{
		backend: b,
		out:     bufio.NewWriterSize(backendWriter{b}, outputBufferSize),
		keys:    make(chan Key, 64),
		resize:  newResizeWatcher(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Init enters raw mode and the alternate screen, then starts the key reader
func (c *Console) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := c.backend.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}

	if err := Enter(c.out); err != nil {
		c.backend.Fini()
		return err
	}
	if err := c.out.Flush(); err != nil {
		c.backend.Fini()
		return err
	}

	c.resize.start()
	go c.readLoop()

	c.initialized = true
	return nil
}

// Fini restores the terminal. Safe to call multiple times
func (c *Console) Fini() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.finalized {
		return
	}

	close(c.stopCh)
	// Wait with timeout - don't block forever if read is stuck
	select {
	case <-c.doneCh:
	case <-time.After(200 * time.Millisecond):
	}
	c.resize.stop()

	Leave(c.out)
	c.out.Flush()

	c.backend.Fini()
	c.finalized = true
}

// Size returns the current window size in cells
func (c *Console) Size() (int, int, error) {
	return c.backend.Size()
}

// Write buffers p; nothing reaches the terminal until Flush
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Flush sends buffered output to the terminal
func (c *Console) Flush() error {
	return c.out.Flush()
}

// Keys delivers decoded keys; closed when input ends
func (c *Console) Keys() <-chan Key {
	return c.keys
}

// Resized fires after the window size changed. Nil where the platform has no resize signal
func (c *Console) Resized() <-chan struct{} {
	return c.resize.events()
}

func (c *Console) readLoop() {
	defer close(c.doneCh)
	defer close(c.keys)

	// Panic recovery for raw input reader
	defer func() {
		if r := recover(); r != nil {
			EmergencyReset(os.Stdout)
			// Use \r\n for clean output
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT READER CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	emit := func(k Key) {
		select {
		case c.keys <- k:
		default:
			// Channel full, drop
		}
	}

	for {
		data, err := c.backend.Read(c.stopCh)
		if err != nil || data == nil {
			return
		}
		ParseKeys(data, emit)
	}
}

// backendWriter adapts Backend.Write to io.Writer
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EmergencyReset restores the terminal after a crash without relying on Console state
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	// Flush if it's a file
	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
