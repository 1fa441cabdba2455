package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDuration coalesces the burst of events editors emit on save
const debounceDuration = 500 * time.Millisecond

// Watcher reloads a config file when it changes and hands the result to a callback.
// Invalid files are logged and skipped; the previous config stays in effect.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	done     chan struct{}
	path     string
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher starts watching path. The parent directory is watched so that
// editors replacing the file by rename are seen.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Printf("INFO: Watching %s for config changes", abs)

	cw := &Watcher{
		watcher:  w,
		done:     make(chan struct{}),
		path:     abs,
		onChange: onChange,
		debounce: debounceDuration,
	}
	go cw.watchLoop(w)
	return cw, nil
}

// Stop ends watching. Safe to call multiple times
func (cw *Watcher) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.watcher == nil {
		return
	}
	close(cw.done)
	cw.watcher.Close()
	cw.watcher = nil
}

func (cw *Watcher) watchLoop(w *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(cw.debounce, cw.reload)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Printf("ERROR: Config file watcher error: %v", err)

		case <-cw.done:
			return
		}
	}
}

func (cw *Watcher) reload() {
	select {
	case <-cw.done:
		return
	default:
	}

	cfg, err := Load(cw.path)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Printf("ERROR: Config reload failed, keeping previous settings: %v", err)
		return
	}

	log.Printf("INFO: Config reloaded from %s", cw.path)
	cw.onChange(cfg)
}
