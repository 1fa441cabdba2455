//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package terminal

import (
	"os"
	"os/signal"
	"syscall"
)

// resizeWatcher turns SIGWINCH into a coalesced wake-up signal.
// The size itself is always re-queried by the renderer.
type resizeWatcher struct {
	sigCh  chan os.Signal
	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

func newResizeWatcher() *resizeWatcher {
	return &resizeWatcher{
		sigCh:  make(chan os.Signal, 1),
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (r *resizeWatcher) start() {
	signal.Notify(r.sigCh, syscall.SIGWINCH)
	go r.watchLoop()
}

func (r *resizeWatcher) stop() {
	signal.Stop(r.sigCh)
	close(r.stopCh)
	<-r.doneCh
}

func (r *resizeWatcher) events() <-chan struct{} {
	return r.wakeCh
}

func (r *resizeWatcher) watchLoop() {
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.sigCh:
			// Non-blocking; one pending wake-up is enough
			select {
			case r.wakeCh <- struct{}{}:
			default:
			}
		}
	}
}
