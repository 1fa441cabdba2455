package audio

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// Player pipes pre-rendered chimes to a CLI audio backend.
// Without a backend it stays silent; Play never blocks the caller.
type Player struct {
	config Config
	clips  [soundCount][]byte

	backend *BackendConfig
	cmd     *exec.Cmd
	out     io.WriteCloser

	queue   chan Sound
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	silent  atomic.Bool
	played  atomic.Uint64
	dropped atomic.Uint64
}

// NewPlayer pre-renders every chime for cfg
func NewPlayer(cfg Config) *Player {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = sampleRate
	}
	cfg.Volume = max(0, min(cfg.Volume, 1))

	p := &Player{
		config: cfg,
		queue:  make(chan Sound, 8),
		stopCh: make(chan struct{}),
	}
	for s := Sound(0); s < soundCount; s++ {
		p.clips[s] = encodePCM(createChime(s, cfg))
	}
	p.silent.Store(!cfg.Enabled)
	return p
}

// Start launches the backend. A missing backend is not an error: the player goes silent
func (p *Player) Start() error {
	if !p.config.Enabled {
		return nil
	}
	if p.running.Load() {
		return fmt.Errorf("audio player already running")
	}

	backend, err := DetectBackend(p.config.SampleRate)
	if err != nil {
		log.Printf("WARN: audio disabled: %v", err)
		p.silent.Store(true)
		return nil
	}
	p.backend = backend

	out, err := p.openBackend(backend)
	if err != nil {
		log.Printf("WARN: audio backend %s: %v", backend.Name, err)
		p.silent.Store(true)
		return nil
	}
	log.Printf("INFO: audio backend %s", backend.Name)
	return p.startWriter(out)
}

func (p *Player) openBackend(b *BackendConfig) (io.WriteCloser, error) {
	if b.Type == BackendOSS {
		// Direct file write for OSS
		return os.OpenFile(b.Path, os.O_WRONLY, 0)
	}

	cmd := exec.Command(b.Path, b.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, err
	}
	p.cmd = cmd
	return stdin, nil
}

// startWriter runs the write loop over an already open sink
func (p *Player) startWriter(out io.WriteCloser) error {
	p.out = out
	p.running.Store(true)
	p.silent.Store(false)

	p.wg.Add(1)
	go p.loop()
	return nil
}

// Play queues a chime; dropped when the queue is full or the player is silent
func (p *Player) Play(s Sound) {
	if s < 0 || s >= soundCount || p.silent.Load() || !p.running.Load() {
		return
	}
	select {
	case p.queue <- s:
	default:
		p.dropped.Add(1)
	}
}

func (p *Player) loop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case s := <-p.queue:
			if _, err := p.out.Write(p.clips[s]); err != nil {
				select {
				case <-p.stopCh:
				default:
					log.Printf("WARN: %v: %v", ErrPipeClosed, err)
				}
				p.silent.Store(true)
				return
			}
			p.played.Add(1)
		}
	}
}

// Stats returns played and dropped counts
func (p *Player) Stats() (played, dropped uint64) {
	return p.played.Load(), p.dropped.Load()
}

// closeTimeout bounds each shutdown step against a stalled backend
const closeTimeout = 500 * time.Millisecond

// Close stops the writer and the backend process. Closing the pipe first
// unblocks a write stuck on a full pipe; a backend that does not exit is killed.
func (p *Player) Close() error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}
	close(p.stopCh)
	err := p.out.Close()

	if !waitTimeout(p.wg.Wait, closeTimeout) {
		log.Printf("WARN: audio writer did not stop within %v", closeTimeout)
	}

	if p.cmd != nil {
		// Backend drains its buffer and exits on EOF
		exited := make(chan error, 1)
		go func() { exited <- p.cmd.Wait() }()

		timer := time.NewTimer(closeTimeout)
		defer timer.Stop()
		select {
		case werr := <-exited:
			if werr != nil && err == nil {
				err = werr
			}
		case <-timer.C:
			p.cmd.Process.Kill()
			<-exited
			if err == nil {
				err = fmt.Errorf("audio backend killed after %v", closeTimeout)
			}
		}
	}
	return err
}

// waitTimeout reports whether wait returned within d
func waitTimeout(wait func(), d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
