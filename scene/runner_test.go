package scene

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lixenwraith/cellgrid/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSize(w, h int) grid.SizeFunc {
	return func() (int, int, error) { return w, h, nil }
}

// tickScene records the ticks it was drawn with and writes its initial at (0,0)
type tickScene struct {
	name  string
	ticks []int
	err   error
}

func (s *tickScene) Name() string { return s.name }

func (s *tickScene) Frame(g *grid.Grid, tick int) error {
	s.ticks = append(s.ticks, tick)
	g.SetCell(0, 0, 0, 15, rune(s.name[0]))
	return s.err
}

// closingScene counts Close calls
type closingScene struct {
	tickScene
	closed int
}

func (s *closingScene) Close() error {
	s.closed++
	return nil
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRunnerFirstFrameIsSized(t *testing.T) {
	a := &tickScene{name: "a"}
	var out bytes.Buffer
	r := NewRunner(&out, fixedSize(12, 4), NewPlaylist([]Scene{a}, 0, time.Now()), time.Second)

	require.NoError(t, r.Step(time.Now()))

	w, h := r.Grid().Size()
	assert.Equal(t, [2]int{12, 4}, [2]int{w, h})
	assert.Equal(t, []int{0}, a.ticks)
	assert.Contains(t, out.String(), "\x1b[4;1H")
	assert.Equal(t, 'a', r.Grid().GetCell(0, 0))
}

func TestRunnerSwitchesScenes(t *testing.T) {
	t0 := time.Unix(0, 0)
	a, b := &tickScene{name: "a"}, &tickScene{name: "b"}
	r := NewRunner(&bytes.Buffer{}, fixedSize(4, 2), NewPlaylist([]Scene{a, b}, time.Second, t0), time.Second)

	var events []string
	r.OnSwitch = func(name string, wrapped bool) {
		if wrapped {
			name += "*"
		}
		events = append(events, name)
	}

	require.NoError(t, r.Step(t0))
	require.NoError(t, r.Step(t0.Add(500*time.Millisecond)))
	require.NoError(t, r.Step(t0.Add(time.Second)))
	require.NoError(t, r.Step(t0.Add(1500*time.Millisecond)))
	require.NoError(t, r.Step(t0.Add(2*time.Second)))

	assert.Equal(t, []int{0, 1}, a.ticks[:2])
	assert.Equal(t, []int{0, 1}, b.ticks)
	assert.Equal(t, []int{0, 1, 0}, a.ticks)
	assert.Equal(t, []string{"b", "a*"}, events)
}

func TestRunnerControls(t *testing.T) {
	now := time.Unix(0, 0)
	a, b, c := &tickScene{name: "a"}, &tickScene{name: "b"}, &tickScene{name: "c"}
	r := NewRunner(&bytes.Buffer{}, fixedSize(4, 2), NewPlaylist([]Scene{a, b, c}, 0, now), time.Second)

	var events []string
	r.OnSwitch = func(name string, wrapped bool) { events = append(events, name) }

	require.NoError(t, r.Apply(ControlPrev, now))
	require.NoError(t, r.Apply(ControlNext, now))
	require.NoError(t, r.Apply(ControlRedraw, now))

	assert.Equal(t, []string{"c", "a"}, events)
	assert.Equal(t, []int{0}, c.ticks)
	assert.Equal(t, []int{0, 1}, a.ticks)
	assert.Equal(t, 'a', r.Grid().GetCell(0, 0))
}

func TestRunnerClearsOnSwitch(t *testing.T) {
	now := time.Unix(0, 0)
	a := &tickScene{name: "a"}
	b := Func{SceneName: "b", Draw: func(*grid.Grid, int) {}}
	r := NewRunner(&bytes.Buffer{}, fixedSize(4, 2), NewPlaylist([]Scene{a, b}, 0, now), time.Second)

	require.NoError(t, r.Step(now))
	require.Equal(t, 'a', r.Grid().GetCell(0, 0))

	require.NoError(t, r.Apply(ControlNext, now))
	assert.Equal(t, ' ', r.Grid().GetCell(0, 0))
}

func TestRunnerSceneErrorIsNotFatal(t *testing.T) {
	a := &tickScene{name: "a", err: errors.New("script exploded")}
	var out bytes.Buffer
	r := NewRunner(&out, fixedSize(3, 1), NewPlaylist([]Scene{a}, 0, time.Now()), time.Second)

	require.NoError(t, r.Step(time.Now()))
	assert.NotEmpty(t, out.String())
}

func TestRunnerOutputErrorIsReturned(t *testing.T) {
	r := NewRunner(failWriter{}, fixedSize(3, 1), NewPlaylist(nil, 0, time.Now()), time.Second)
	err := r.Step(time.Now())
	assert.ErrorContains(t, err, "broken pipe")

	flushErr := errors.New("flush failed")
	r = NewRunner(&bytes.Buffer{}, fixedSize(3, 1), nil, time.Second)
	r.Flush = func() error { return flushErr }
	assert.ErrorIs(t, r.Step(time.Now()), flushErr)
}

func TestRunnerSetPlaylist(t *testing.T) {
	now := time.Unix(0, 0)
	a, b := &tickScene{name: "a"}, &tickScene{name: "b"}
	r := NewRunner(&bytes.Buffer{}, fixedSize(4, 2), NewPlaylist([]Scene{a}, 0, now), time.Second)

	var events []string
	r.OnSwitch = func(name string, _ bool) { events = append(events, name) }

	require.NoError(t, r.Step(now))
	r.SetPlaylist(NewPlaylist([]Scene{b}, 0, now))
	assert.Empty(t, b.ticks, "swap waits for the next frame")

	require.NoError(t, r.Step(now))
	assert.Equal(t, []int{0}, b.ticks)
	assert.Equal(t, []string{"b"}, events)
}

func TestRunnerClosesReplacedPlaylists(t *testing.T) {
	now := time.Unix(0, 0)
	a := &closingScene{tickScene: tickScene{name: "a"}}
	b := &closingScene{tickScene: tickScene{name: "b"}}
	c := &closingScene{tickScene: tickScene{name: "c"}}
	r := NewRunner(&bytes.Buffer{}, fixedSize(2, 1), NewPlaylist([]Scene{a}, 0, now), time.Second)
	require.NoError(t, r.Step(now))

	// b is superseded before it ever plays
	r.SetPlaylist(NewPlaylist([]Scene{b}, 0, now))
	r.SetPlaylist(NewPlaylist([]Scene{c}, 0, now))
	assert.Equal(t, 1, b.closed)
	assert.Zero(t, a.closed)

	require.NoError(t, r.Step(now))
	assert.Equal(t, 1, a.closed)
	assert.Empty(t, b.ticks)
	assert.Equal(t, []int{0}, c.ticks)

	require.NoError(t, r.Close())
	assert.Equal(t, 1, c.closed)
	require.NoError(t, r.Close())
	assert.Equal(t, 1, c.closed)
}

func TestRunnerRun(t *testing.T) {
	a := &tickScene{name: "a"}
	var out bytes.Buffer
	r := NewRunner(&out, fixedSize(5, 2), NewPlaylist([]Scene{a}, 0, time.Now()), 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	ctrl := make(chan Control, 1)
	ctrl <- ControlRedraw
	close(ctrl)

	err := r.Run(ctx, ctrl)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, len(a.ticks), 3)
	assert.GreaterOrEqual(t, strings.Count(out.String(), "\x1b[1;1H"), 3)
}

func TestRunnerSetInterval(t *testing.T) {
	r := NewRunner(&bytes.Buffer{}, fixedSize(1, 1), nil, time.Second)
	r.SetInterval(0)
	assert.Equal(t, time.Second, r.currentInterval())
	r.SetInterval(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, r.currentInterval())
}
