package scene

import (
	"io"
	"time"
)

// Playlist cycles through scenes, switching after a fixed dwell time.
// A zero dwell disables automatic switching.
type Playlist struct {
	scenes []Scene
	dwell  time.Duration
	index  int
	since  time.Time
}

// NewPlaylist starts at the first scene; now anchors the first dwell period
func NewPlaylist(scenes []Scene, dwell time.Duration, now time.Time) *Playlist {
	return &Playlist{scenes: scenes, dwell: dwell, since: now}
}

// Len returns the number of scenes
func (p *Playlist) Len() int { return len(p.scenes) }

// Index returns the position of the current scene
func (p *Playlist) Index() int { return p.index }

// Current returns the active scene, nil when empty
func (p *Playlist) Current() Scene {
	if len(p.scenes) == 0 {
		return nil
	}
	return p.scenes[p.index]
}

// Advance switches to the next scene once the dwell time has elapsed.
// Reports whether the scene changed and whether it wrapped to the first one.
func (p *Playlist) Advance(now time.Time) (switched, wrapped bool) {
	if p.dwell <= 0 || len(p.scenes) < 2 || now.Sub(p.since) < p.dwell {
		return false, false
	}
	return true, p.step(1, now)
}

// Next moves forward immediately, restarting the dwell period
func (p *Playlist) Next(now time.Time) (wrapped bool) {
	if len(p.scenes) == 0 {
		return false
	}
	return p.step(1, now)
}

// Prev moves backward immediately, restarting the dwell period
func (p *Playlist) Prev(now time.Time) (wrapped bool) {
	if len(p.scenes) == 0 {
		return false
	}
	return p.step(-1, now)
}

func (p *Playlist) step(d int, now time.Time) bool {
	n := len(p.scenes)
	next := ((p.index+d)%n + n) % n
	wrapped := (d > 0 && next < p.index) || (d < 0 && next > p.index)
	p.index = next
	p.since = now
	return wrapped
}

// Close releases scenes that hold resources, such as Lua states
func (p *Playlist) Close() error {
	var first error
	for _, s := range p.scenes {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
