// @focus: #sys { script }
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/cellgrid/grid"
	lua "github.com/yuin/gopher-lua"
)

// DefaultFrameTimeout bounds one frame(tick) call
const DefaultFrameTimeout = 50 * time.Millisecond

// Scene is a grid scene backed by its own Lua state.
// It implements scene.Scene.
type Scene struct {
	name    string
	L       *lua.LState
	timeout time.Duration

	mu     sync.Mutex
	target *grid.Grid // bound for the duration of Frame
	closed bool
}

// Option configures a Scene
type Option func(*Scene)

// WithFrameTimeout sets the per-frame deadline
func WithFrameTimeout(d time.Duration) Option {
	return func(s *Scene) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Load compiles a script file; the scene is named after the file without extension
func Load(path string, opts ...Option) (*Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return LoadString(sceneName(path), string(src), opts...)
}

// LoadString compiles and runs a script's top level, then checks it defines frame
func LoadString(name, src string, opts ...Option) (*Scene, error) {
	s := &Scene{name: name, timeout: DefaultFrameTimeout}
	for _, opt := range opts {
		opt(s)
	}

	s.L = newSandbox()
	s.installAPI()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.run(ctx, func() error { return s.L.DoString(src) }); err != nil {
		s.L.Close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}

	if fn := s.L.GetGlobal("frame"); fn.Type() != lua.LTFunction {
		s.L.Close()
		return nil, fmt.Errorf("script %s: %w", name, ErrNoFrameFunc)
	}
	return s, nil
}

func sceneName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Name returns the scene name
func (s *Scene) Name() string { return s.name }

// Frame calls frame(tick) with g bound as the drawing target.
// A failing frame leaves whatever it drew before the error in place.
func (s *Scene) Frame(g *grid.Grid, tick int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	s.target = g
	defer func() { s.target = nil }()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.run(ctx, func() error {
		return s.L.CallByParam(lua.P{
			Fn:      s.L.GetGlobal("frame"),
			NRet:    0,
			Protect: true,
		}, lua.LNumber(tick))
	})
	if err != nil {
		return fmt.Errorf("script %s: %w", s.name, err)
	}
	return nil
}

// run executes fn under ctx with panic recovery
func (s *Scene) run(ctx context.Context, fn func() error) (err error) {
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	err = fn()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrFrameTimeout, s.timeout)
	}
	return err
}

// Close releases the Lua state. Safe to call multiple times
func (s *Scene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// newSandbox opens only libraries without filesystem or process access
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base library loaders reach the filesystem
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
