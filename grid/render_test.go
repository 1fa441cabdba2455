package grid

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder keeps every Write call as a separate chunk
type recorder struct {
	chunks  []string
	failAt  int // 1-based write index that fails, 0 never
	written int
}

func (r *recorder) Write(p []byte) (int, error) {
	r.written++
	if r.failAt > 0 && r.written == r.failAt {
		return 0, errors.New("sink closed")
	}
	r.chunks = append(r.chunks, string(p))
	return len(p), nil
}

func (r *recorder) joined() string { return strings.Join(r.chunks, "") }

func fixedSize(w, h int) SizeFunc {
	return func() (int, int, error) { return w, h, nil }
}

func encoded(bg, fg uint8, glyph rune) string {
	return fmt.Sprintf("\x1b[48;5;%03dm\x1b[38;5;%03dm%c", bg, fg, glyph)
}

func TestRenderRows(t *testing.T) {
	g := New(3, 2)
	glyphs := []rune("abcdef")
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			i := y*3 + x
			g.SetCell(x, y, uint8(i), uint8(100+i), glyphs[i])
		}
	}

	var out recorder
	var st RenderState
	require.NoError(t, g.Render(&out, fixedSize(3, 2), &st))

	// frame start, one chunk per row, frame end
	require.Len(t, out.chunks, 4)
	assert.Equal(t, "\x1b[0m\x1b[?25l\x1b[?7l", out.chunks[0])
	assert.Equal(t, "\x1b[0m", out.chunks[3])

	for y := 0; y < 2; y++ {
		prefix := fmt.Sprintf("\x1b[%d;1H", y+1)
		row := out.chunks[1+y]
		require.True(t, strings.HasPrefix(row, prefix), "row %d: %q", y, row)
		payload := strings.TrimPrefix(row, prefix)
		assert.Equal(t, 3*CellWidth, utf8.RuneCountInString(payload))

		var want strings.Builder
		for x := 0; x < 3; x++ {
			i := y*3 + x
			want.WriteString(encoded(uint8(i), uint8(100+i), glyphs[i]))
		}
		assert.Equal(t, want.String(), payload)
	}

	w, h, ok := st.Previous()
	assert.True(t, ok)
	assert.Equal(t, [2]int{3, 2}, [2]int{w, h})
}

func TestRenderEncodesMultibyteGlyphs(t *testing.T) {
	g := New(2, 1)
	g.DrawBox(0, 0, 2, 2, 0, 15, BoxDouble)

	var out recorder
	require.NoError(t, g.Render(&out, fixedSize(2, 1), nil))
	require.Len(t, out.chunks, 3)
	assert.Equal(t, "\x1b[1;1H"+encoded(0, 15, '╔')+encoded(0, 15, '╗'), out.chunks[1])
}

func TestRenderTracksTerminalSize(t *testing.T) {
	g := New(0, 0)
	var out recorder
	require.NoError(t, g.Render(&out, fixedSize(7, 4), nil))

	w, h := g.Size()
	assert.Equal(t, [2]int{7, 4}, [2]int{w, h})
	assert.Len(t, out.chunks, 4+2)
}

func TestRenderDrawsViewportOnly(t *testing.T) {
	g := New(0, 0)
	g.EnsureSize(20, 20)
	g.EnsureSize(5, 5)

	var out recorder
	require.NoError(t, g.Render(&out, fixedSize(5, 5), nil))

	cw, ch := g.Capacity()
	assert.Equal(t, [2]int{20, 20}, [2]int{cw, ch})
	require.Len(t, out.chunks, 5+2)
	for y, row := range out.chunks[1:6] {
		payload := strings.TrimPrefix(row, fmt.Sprintf("\x1b[%d;1H", y+1))
		assert.Equal(t, 5*CellWidth, utf8.RuneCountInString(payload), "row %d", y)
	}
}

func TestRenderNoClearWithoutResize(t *testing.T) {
	g := New(0, 0)
	var st RenderState

	var first, second recorder
	require.NoError(t, g.Render(&first, fixedSize(10, 3), &st))
	require.NoError(t, g.Render(&second, fixedSize(10, 3), &st))

	assert.NotContains(t, first.joined(), "\x1b[2J", "first frame has no previous size")
	assert.NotContains(t, second.joined(), "\x1b[2J")
	assert.NotContains(t, second.joined(), "\x1b[K")
}

func TestRenderResize(t *testing.T) {
	tests := []struct {
		name      string
		from, to  [2]int
		wantClear bool
		wantErase bool
	}{
		{"grow both", [2]int{10, 3}, [2]int{12, 5}, true, false},
		{"narrower", [2]int{10, 3}, [2]int{6, 3}, true, true},
		{"shorter", [2]int{10, 3}, [2]int{10, 2}, true, true},
		{"wider but shorter", [2]int{10, 3}, [2]int{14, 2}, true, true},
		{"unchanged", [2]int{10, 3}, [2]int{10, 3}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(0, 0)
			var st RenderState
			require.NoError(t, g.Render(io.Discard, fixedSize(tt.from[0], tt.from[1]), &st))

			var out recorder
			require.NoError(t, g.Render(&out, fixedSize(tt.to[0], tt.to[1]), &st))

			if tt.wantClear {
				require.GreaterOrEqual(t, len(out.chunks), 2)
				assert.Equal(t, "\x1b[2J\x1b[H", out.chunks[1])
			} else {
				assert.NotContains(t, out.joined(), "\x1b[2J")
			}

			rows := out.chunks[len(out.chunks)-1-tt.to[1] : len(out.chunks)-1]
			require.Len(t, rows, tt.to[1])
			for _, row := range rows {
				assert.Equal(t, tt.wantErase, strings.HasSuffix(row, "\x1b[K"))
			}
		})
	}
}

func TestRenderSizeQueryFailure(t *testing.T) {
	g := New(4, 2)
	var st RenderState
	require.NoError(t, g.Render(io.Discard, fixedSize(4, 2), &st))

	failing := func() (int, int, error) { return 0, 0, errors.New("ioctl: bad file descriptor") }

	var out recorder
	require.NoError(t, g.Render(&out, failing, &st))
	assert.NotContains(t, out.joined(), "\x1b[2J")
	assert.Len(t, out.chunks, 2+2, "logical viewport still drawn")

	w, h := g.Size()
	assert.Equal(t, [2]int{4, 2}, [2]int{w, h})
	pw, ph, ok := st.Previous()
	assert.True(t, ok)
	assert.Equal(t, [2]int{4, 2}, [2]int{pw, ph})

	// A nil size func behaves the same way
	out = recorder{}
	require.NoError(t, g.Render(&out, nil, &st))
	assert.Len(t, out.chunks, 4)
}

func TestRenderFailedQueryBeforeFirstSize(t *testing.T) {
	g := New(3, 1)
	var st RenderState
	failing := func() (int, int, error) { return 0, 0, errors.New("no tty") }

	var out recorder
	require.NoError(t, g.Render(&out, failing, &st))
	assert.Len(t, out.chunks, 3)
	_, _, ok := st.Previous()
	assert.False(t, ok)
}

func TestRenderNegativeSizeClamps(t *testing.T) {
	g := New(3, 3)
	var out recorder
	require.NoError(t, g.Render(&out, fixedSize(-1, -1), nil))
	assert.Len(t, out.chunks, 2)
	w, h := g.Size()
	assert.Equal(t, [2]int{0, 0}, [2]int{w, h})
}

func TestRenderWriteError(t *testing.T) {
	g := New(0, 0)
	var st RenderState

	out := recorder{failAt: 2}
	err := g.Render(&out, fixedSize(5, 3), &st)
	require.Error(t, err)
	assert.Len(t, out.chunks, 1)

	_, _, ok := st.Previous()
	assert.False(t, ok, "aborted frame does not record size")
}

func TestRenderStateReset(t *testing.T) {
	g := New(0, 0)
	var st RenderState
	require.NoError(t, g.Render(io.Discard, fixedSize(5, 5), &st))
	st.Reset()

	var out recorder
	require.NoError(t, g.Render(&out, fixedSize(8, 8), &st))
	assert.NotContains(t, out.joined(), "\x1b[2J")
}

func TestIndependentRenderStates(t *testing.T) {
	a, b := New(0, 0), New(0, 0)
	var sa, sb RenderState

	require.NoError(t, a.Render(io.Discard, fixedSize(10, 10), &sa))
	require.NoError(t, b.Render(io.Discard, fixedSize(4, 4), &sb))

	var out recorder
	require.NoError(t, a.Render(&out, fixedSize(10, 10), &sa))
	assert.NotContains(t, out.joined(), "\x1b[2J", "other target's size does not leak in")
}

func TestAppendInt(t *testing.T) {
	for _, n := range []int{0, 7, 10, 99, 100, 999, 1000, 65535, -4} {
		want := fmt.Sprint(max(n, 0))
		assert.Equal(t, want, string(appendInt(nil, n)))
	}
}

func TestRenderSteadyStateDoesNotAllocate(t *testing.T) {
	g := New(0, 0)
	var st RenderState
	size := fixedSize(80, 24)
	require.NoError(t, g.Render(io.Discard, size, &st))

	allocs := testing.AllocsPerRun(20, func() {
		_ = g.Render(io.Discard, size, &st)
	})
	assert.Zero(t, allocs)
}

func BenchmarkRender(b *testing.B) {
	g := New(0, 0)
	var st RenderState
	size := fixedSize(200, 60)
	_ = g.Render(io.Discard, size, &st)
	for y := 0; y < 60; y++ {
		g.DrawText(0, y, strings.Repeat("░▒▓█", 50), uint8(y), uint8(255-y))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Render(io.Discard, size, &st)
	}
}
