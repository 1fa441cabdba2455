// @focus: #sys { ssh, session }
// Package sshserve streams scene playlists to SSH clients. Every session gets
// its own grid, render state and scene instances.
package sshserve

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	gossh "golang.org/x/crypto/ssh"

	"github.com/lixenwraith/cellgrid/scene"
	"github.com/lixenwraith/cellgrid/terminal"
)

// sessionBufferSize holds a full frame of a large terminal
const sessionBufferSize = 256 * 1024

// Config configures a Server
type Config struct {
	Addr        string
	HostKeyPath string // empty generates an ephemeral ed25519 key
	MaxSessions int    // 0 is unlimited
	Scenes      []string
	Dwell       time.Duration
	Interval    time.Duration
}

// Server accepts SSH sessions and runs one scene runner per session
type Server struct {
	cfg    Config
	reg    *scene.Registry
	srv    *ssh.Server
	active atomic.Int32

	closeOnce sync.Once
}

// New builds a server around reg. Scene names are validated up front
func New(cfg Config, reg *scene.Registry) (*Server, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second / 30
	}
	if _, err := reg.Resolve(cfg.Scenes); err != nil {
		return nil, err
	}

	signer, err := hostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, reg: reg}
	s.srv = &ssh.Server{
		Addr:    cfg.Addr,
		Handler: s.handle,
	}
	s.srv.AddHostKey(signer)
	return s, nil
}

// ListenAndServe listens on the configured address
func (s *Server) ListenAndServe() error {
	log.Printf("INFO: SSH server listening on %s", s.cfg.Addr)
	return ignoreClosed(s.srv.ListenAndServe())
}

// Serve accepts sessions on l until Close
func (s *Server) Serve(l net.Listener) error {
	log.Printf("INFO: SSH server listening on %s", l.Addr())
	return ignoreClosed(s.srv.Serve(l))
}

// Close stops accepting and drops every session
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.srv.Close() })
	return err
}

// Shutdown stops accepting and waits for sessions to end or ctx to expire
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Active reports the number of running sessions
func (s *Server) Active() int {
	return int(s.active.Load())
}

func ignoreClosed(err error) error {
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) acquire() bool {
	n := s.active.Add(1)
	if s.cfg.MaxSessions > 0 && int(n) > s.cfg.MaxSessions {
		s.active.Add(-1)
		return false
	}
	return true
}

func (s *Server) release() {
	s.active.Add(-1)
}

func (s *Server) handle(sess ssh.Session) {
	// Exit only after the terminal has been restored
	sess.Exit(s.serveSession(sess))
}

func (s *Server) serveSession(sess ssh.Session) int {
	id := uuid.NewString()
	remote := sess.RemoteAddr()

	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		log.Printf("INFO: [%s] Rejecting %s: no pty requested", id, remote)
		io.WriteString(sess, "cellgrid needs a terminal, connect with: ssh -t\r\n")
		return 1
	}

	if !s.acquire() {
		log.Printf("INFO: [%s] Rejecting %s: session limit %d reached", id, remote, s.cfg.MaxSessions)
		io.WriteString(sess, "\r\nServer busy, please try again later.\r\n")
		return 1
	}
	defer s.release()

	scenes, err := s.reg.Resolve(s.cfg.Scenes)
	if err != nil {
		log.Printf("ERROR: [%s] %v", id, err)
		return 1
	}
	playlist := scene.NewPlaylist(scenes, s.cfg.Dwell, time.Now())
	defer playlist.Close()

	log.Printf("INFO: [%s] Session from %s (%s, %dx%d)", id, remote, ptyReq.Term, ptyReq.Window.Width, ptyReq.Window.Height)
	start := time.Now()

	win := &window{}
	win.set(ptyReq.Window.Width, ptyReq.Window.Height)

	out := bufio.NewWriterSize(sess, sessionBufferSize)
	if err := terminal.Enter(out); err != nil {
		log.Printf("WARN: [%s] %v", id, err)
		return 1
	}
	defer func() {
		terminal.Leave(out)
		out.Flush()
	}()

	ctx, cancel := context.WithCancel(sess.Context())
	defer cancel()

	ctrl := make(chan scene.Control, 8)
	go watchWindow(ctx, winCh, win, ctrl)
	go readInput(ctx, sess, ctrl, cancel)

	runner := scene.NewRunner(out, win.size, playlist, s.cfg.Interval)
	runner.Flush = out.Flush

	err = runner.Run(ctx, ctrl)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("WARN: [%s] Session ended: %v", id, err)
	}
	log.Printf("INFO: [%s] Session closed after %s", id, time.Since(start).Round(time.Second))
	return 0
}

// window tracks the client's pty size, updated from window-change requests
type window struct {
	width  atomic.Int32
	height atomic.Int32
}

var errNoWindow = errors.New("sshserve: window size unknown")

func (w *window) set(width, height int) {
	w.width.Store(int32(width))
	w.height.Store(int32(height))
}

func (w *window) size() (int, int, error) {
	width, height := int(w.width.Load()), int(w.height.Load())
	if width <= 0 || height <= 0 {
		return 0, 0, errNoWindow
	}
	return width, height, nil
}

func watchWindow(ctx context.Context, winCh <-chan ssh.Window, win *window, ctrl chan<- scene.Control) {
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-winCh:
			if !ok {
				return
			}
			win.set(w.Width, w.Height)
			send(ctx, ctrl, scene.ControlRedraw)
		}
	}
}

func readInput(ctx context.Context, r io.Reader, ctrl chan<- scene.Control, quit context.CancelFunc) {
	defer quit()
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			stop := false
			terminal.ParseKeys(buf[:n], func(k terminal.Key) {
				switch k {
				case terminal.KeyQuit:
					stop = true
				case terminal.KeyNext:
					send(ctx, ctrl, scene.ControlNext)
				case terminal.KeyPrev:
					send(ctx, ctrl, scene.ControlPrev)
				}
			})
			if stop {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// send drops the request when the runner is backed up
func send(ctx context.Context, ctrl chan<- scene.Control, c scene.Control) {
	select {
	case ctrl <- c:
	case <-ctx.Done():
	default:
	}
}

func hostKey(path string) (gossh.Signer, error) {
	if path == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating host key: %w", err)
		}
		log.Printf("WARN: No host key configured, using an ephemeral ed25519 key")
		return gossh.NewSignerFromKey(priv)
	}

	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading host key %s: %w", path, err)
	}
	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing host key %s: %w", path, err)
	}
	log.Printf("INFO: Host key loaded from %s", path)
	return signer, nil
}
