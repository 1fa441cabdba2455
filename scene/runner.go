package scene

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/lixenwraith/cellgrid/colors"
	"github.com/lixenwraith/cellgrid/grid"
)

// Control is an out-of-band request to a running Runner
type Control int

const (
	ControlNext   Control = iota // switch to the next scene now
	ControlPrev                  // switch to the previous scene now
	ControlRedraw                // render immediately (e.g. after a resize)
)

// Runner paces one grid through a playlist and renders it to one output target
type Runner struct {
	grid  *grid.Grid
	out   io.Writer
	size  grid.SizeFunc
	state grid.RenderState

	// Flush runs after every rendered frame when set
	Flush func() error
	// OnSwitch runs after the current scene changed
	OnSwitch func(name string, wrapped bool)

	mu       sync.Mutex
	playlist *Playlist
	pending  *Playlist
	interval time.Duration

	// Owned by the rendering goroutine
	tick    int
	started bool
}

// NewRunner creates a runner with its own grid and render state
func NewRunner(out io.Writer, size grid.SizeFunc, playlist *Playlist, interval time.Duration) *Runner {
	return &Runner{
		grid:     grid.New(0, 0),
		out:      out,
		size:     size,
		playlist: playlist,
		interval: interval,
	}
}

// Grid exposes the runner's grid for inspection
func (r *Runner) Grid() *grid.Grid { return r.grid }

// SetInterval changes the frame period; picked up on the next frame
func (r *Runner) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.interval = d
	r.mu.Unlock()
}

// SetPlaylist swaps the playlist before the next frame, restarting at its first scene.
// The replaced playlist is closed by the runner.
func (r *Runner) SetPlaylist(p *Playlist) {
	r.mu.Lock()
	superseded := r.pending
	r.pending = p
	r.mu.Unlock()

	if superseded != nil {
		superseded.Close()
	}
}

// Close releases the current and any pending playlist. Call after Run returned
func (r *Runner) Close() error {
	r.mu.Lock()
	p, pending := r.playlist, r.pending
	r.playlist, r.pending = nil, nil
	r.mu.Unlock()

	var err error
	if pending != nil {
		err = pending.Close()
	}
	if p != nil {
		if cerr := p.Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}

func (r *Runner) currentInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Step advances the playlist if due, draws one frame and renders it.
// Scene errors are logged; only output errors are returned.
func (r *Runner) Step(now time.Time) error {
	if !r.started {
		// Fit the viewport before the first frame so it is not drawn at 0x0
		if r.size != nil {
			if w, h, err := r.size(); err == nil {
				r.grid.EnsureSize(w, h)
			}
		}
		r.started = true
	}

	r.mu.Lock()
	var old *Playlist
	swapped := r.pending != nil
	if swapped {
		old = r.playlist
		r.playlist, r.pending = r.pending, nil
	}
	p := r.playlist
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}

	if swapped {
		r.switched(false)
	} else if p != nil {
		if switched, wrapped := p.Advance(now); switched {
			r.switched(wrapped)
		}
	}

	if s := r.current(); s != nil {
		if err := s.Frame(r.grid, r.tick); err != nil {
			log.Printf("WARN: scene %s frame %d: %v", s.Name(), r.tick, err)
		}
	}
	r.tick++

	if err := r.grid.Render(r.out, r.size, &r.state); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if r.Flush != nil {
		if err := r.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

// Apply handles a control request
func (r *Runner) Apply(c Control, now time.Time) error {
	r.mu.Lock()
	p := r.playlist
	r.mu.Unlock()

	switch c {
	case ControlNext:
		if p != nil && p.Len() > 1 {
			r.switched(p.Next(now))
		}
	case ControlPrev:
		if p != nil && p.Len() > 1 {
			r.switched(p.Prev(now))
		}
	case ControlRedraw:
	}
	return r.Step(now)
}

func (r *Runner) current() Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playlist == nil {
		return nil
	}
	return r.playlist.Current()
}

// switched resets per-scene state: the frame counter and the grid contents
func (r *Runner) switched(wrapped bool) {
	r.tick = 0
	r.grid.Clear(colors.DefaultBg, colors.DefaultFg)

	s := r.current()
	if s == nil {
		return
	}
	log.Printf("INFO: scene %s", s.Name())
	if r.OnSwitch != nil {
		r.OnSwitch(s.Name(), wrapped)
	}
}

// Run renders frames until ctx is done or output fails
func (r *Runner) Run(ctx context.Context, ctrl <-chan Control) error {
	interval := r.currentInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := r.Step(time.Now()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-ctrl:
			if !ok {
				ctrl = nil
				continue
			}
			if err := r.Apply(c, time.Now()); err != nil {
				return err
			}

		case now := <-ticker.C:
			if err := r.Step(now); err != nil {
				return err
			}
			if d := r.currentInterval(); d != interval {
				interval = d
				ticker.Reset(d)
			}
		}
	}
}
