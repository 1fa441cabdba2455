package sshserve

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"github.com/lixenwraith/cellgrid/grid"
	"github.com/lixenwraith/cellgrid/scene"
)

// syncBuffer is a bytes.Buffer safe for the ssh client's copy goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testRegistry() *scene.Registry {
	reg := scene.NewRegistry()
	reg.Register("solid", func() scene.Scene {
		return scene.Func{SceneName: "solid", Draw: func(g *grid.Grid, tick int) {
			w, h := g.Size()
			g.FillRect(0, 0, w, h, 4, 15, '#')
		}}
	})
	return reg
}

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	cfg.Interval = 10 * time.Millisecond
	srv, err := New(cfg, testRegistry())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, <-done)
	})
	return srv, l.Addr().String()
}

func dial(t *testing.T, addr string) *gossh.Client {
	t.Helper()
	client, err := gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            "viewer",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

type ptySession struct {
	sess  *gossh.Session
	stdin io.WriteCloser
	out   *syncBuffer
}

func openPty(t *testing.T, client *gossh.Client, w, h int) *ptySession {
	t.Helper()
	sess, err := client.NewSession()
	require.NoError(t, err)

	ps := &ptySession{sess: sess, out: &syncBuffer{}}
	sess.Stdout = ps.out
	ps.stdin, err = sess.StdinPipe()
	require.NoError(t, err)

	require.NoError(t, sess.RequestPty("xterm-256color", h, w, gossh.TerminalModes{}))
	require.NoError(t, sess.Shell())
	return ps
}

func (ps *ptySession) waitFor(t *testing.T, s string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(ps.out.String(), s)
	}, 5*time.Second, 10*time.Millisecond, "waiting for %q", s)
}

func TestSessionRendersAndQuits(t *testing.T) {
	srv, addr := startServer(t, Config{})
	ps := openPty(t, dial(t, addr), 40, 10)

	ps.waitFor(t, "\x1b[?1049h")
	ps.waitFor(t, "\x1b[10;1H")
	ps.waitFor(t, "\x1b[48;5;004m\x1b[38;5;015m#")
	assert.NotContains(t, ps.out.String(), "\x1b[11;1H")
	assert.Equal(t, 1, srv.Active())

	_, err := ps.stdin.Write([]byte("q"))
	require.NoError(t, err)
	require.NoError(t, ps.sess.Wait())

	assert.Contains(t, ps.out.String(), "\x1b[?1049l")
	assert.Eventually(t, func() bool { return srv.Active() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSessionFollowsWindowChanges(t *testing.T) {
	_, addr := startServer(t, Config{})
	ps := openPty(t, dial(t, addr), 40, 10)
	ps.waitFor(t, "\x1b[10;1H")

	require.NoError(t, ps.sess.WindowChange(14, 60))
	ps.waitFor(t, "\x1b[14;1H")

	ps.stdin.Write([]byte{0x03})
	require.NoError(t, ps.sess.Wait())
}

func TestSessionWithoutPtyRejected(t *testing.T) {
	_, addr := startServer(t, Config{})
	client := dial(t, addr)

	sess, err := client.NewSession()
	require.NoError(t, err)
	var out syncBuffer
	sess.Stdout = &out
	require.NoError(t, sess.Shell())

	err = sess.Wait()
	var exitErr *gossh.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Equal(t, 1, exitErr.ExitStatus())
	assert.Contains(t, out.String(), "needs a terminal")
}

func TestSessionLimit(t *testing.T) {
	srv, addr := startServer(t, Config{MaxSessions: 1})
	client := dial(t, addr)

	first := openPty(t, client, 20, 5)
	first.waitFor(t, "\x1b[5;1H")

	second := openPty(t, client, 20, 5)
	err := second.sess.Wait()
	var exitErr *gossh.ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	assert.Contains(t, second.out.String(), "Server busy")
	assert.Equal(t, 1, srv.Active())

	first.stdin.Write([]byte("q"))
	require.NoError(t, first.sess.Wait())
}

func TestNewRejectsUnknownScene(t *testing.T) {
	_, err := New(Config{Scenes: []string{"missing"}}, testRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestHostKeyFromFile(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := gossh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "host_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	signer, err := hostKey(path)
	require.NoError(t, err)
	want, err := gossh.NewSignerFromKey(priv)
	require.NoError(t, err)
	assert.Equal(t, want.PublicKey().Marshal(), signer.PublicKey().Marshal())
}

func TestHostKeyErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := hostKey(filepath.Join(dir, "absent"))
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, []byte("not a key"), 0o600))
	_, err = hostKey(junk)
	assert.Error(t, err)

	signer, err := hostKey("")
	require.NoError(t, err)
	assert.Equal(t, gossh.KeyAlgoED25519, signer.PublicKey().Type())
}

func TestWindowSize(t *testing.T) {
	var w window
	_, _, err := w.size()
	assert.ErrorIs(t, err, errNoWindow)

	w.set(80, 24)
	width, height, err := w.size()
	require.NoError(t, err)
	assert.Equal(t, [2]int{80, 24}, [2]int{width, height})
}
