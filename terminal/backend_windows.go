//go:build windows

package terminal

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

type windowsBackend struct {
	in      *os.File
	out     *os.File
	oldTerm *term.State

	oldOutMode uint32
}

const utf8CodePage = 65001

func newBackend() Backend {
	return &windowsBackend{in: os.Stdin, out: os.Stdout}
}

func (b *windowsBackend) Init() error {
	inFd := int(b.in.Fd())
	if !term.IsTerminal(inFd) {
		return fmt.Errorf("stdin is not a terminal")
	}

	// VT processing makes the console honour the same sequences as unix terminals
	outHandle := windows.Handle(b.out.Fd())
	if err := windows.GetConsoleMode(outHandle, &b.oldOutMode); err != nil {
		return fmt.Errorf("get console mode: %w", err)
	}
	mode := b.oldOutMode | windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING | windows.ENABLE_PROCESSED_OUTPUT
	if err := windows.SetConsoleMode(outHandle, mode); err != nil {
		return fmt.Errorf("enable VT processing: %w", err)
	}

	// UTF-8 output code page for box glyphs
	_ = windows.SetConsoleOutputCP(utf8CodePage)

	old, err := term.MakeRaw(inFd)
	if err != nil {
		windows.SetConsoleMode(outHandle, b.oldOutMode)
		return err
	}
	b.oldTerm = old
	return nil
}

func (b *windowsBackend) Fini() {
	if b.oldTerm != nil {
		term.Restore(int(b.in.Fd()), b.oldTerm)
		b.oldTerm = nil
	}
	windows.SetConsoleMode(windows.Handle(b.out.Fd()), b.oldOutMode)
}

func (b *windowsBackend) Size() (int, int, error) {
	w, h, err := term.GetSize(int(b.out.Fd()))
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errNoWindow
	}
	return w, h, nil
}

func (b *windowsBackend) Write(p []byte) error {
	_, err := b.out.Write(p)
	return err
}

// Read blocks on the console; stopCh is only observed between reads
func (b *windowsBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	select {
	case <-stopCh:
		return nil, nil
	default:
	}
	buf := make([]byte, 256)
	n, err := b.in.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// resetTerminalMode is a no-op; the console mode is restored by Fini
func resetTerminalMode() {}

// resizeWatcher is inert on windows; the renderer polls the size every frame
type resizeWatcher struct{}

func newResizeWatcher() *resizeWatcher { return &resizeWatcher{} }
func (r *resizeWatcher) start() {}
func (r *resizeWatcher) stop() {}
func (r *resizeWatcher) events() <-chan struct{} { return nil }
