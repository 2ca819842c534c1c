package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "toolshed/pkg/logx"
)

// Watcher reloads the catalog whenever index.json changes and fans the
// new snapshot out to subscribers. Presentation code receives snapshots
// over a channel; it never reaches into catalog internals (and a slow
// subscriber only ever loses intermediate snapshots, never the latest).
type Watcher struct {
	scriptsDir string
	log        logx.Logger

	mu      sync.RWMutex
	current *Catalog

	subsMu sync.Mutex
	subs   []chan *Catalog
}

func NewWatcher(scriptsDir string, initial *Catalog, log logx.Logger) *Watcher {
	return &Watcher{scriptsDir: scriptsDir, current: initial, log: log}
}

// Current returns the latest good snapshot.
func (w *Watcher) Current() *Catalog {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Subscribe returns a buffered channel of catalog snapshots and an
// unsubscribe func. Subscribers must drain promptly; delivery is
// latest-wins, never blocking.
func (w *Watcher) Subscribe(buffer int) (<-chan *Catalog, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *Catalog, buffer)
	w.subsMu.Lock()
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()

	unsubscribe := func() {
		w.subsMu.Lock()
		defer w.subsMu.Unlock()
		for i, s := range w.subs {
			if s == ch {
				last := len(w.subs) - 1
				w.subs[i] = w.subs[last]
				w.subs[last] = nil
				w.subs = w.subs[:last]
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (w *Watcher) publish(c *Catalog) {
	// Hold subsMu while sending to avoid send-on-closed panics.
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		if ch == nil {
			continue
		}
		select {
		case ch <- c:
		default:
			// drop oldest, push newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.scriptsDir, w.log)
	if err != nil {
		w.log.Warn("script index reload failed, keeping previous snapshot",
			logx.String("dir", w.scriptsDir), logx.Err(err))
		return
	}
	w.mu.Lock()
	w.current = c
	w.mu.Unlock()
	w.publish(c)
	w.log.Info("script index reloaded", logx.Int("scripts", c.Len()))
}

// Watch blocks until ctx is done, reloading on index changes. Events are
// debounced so editors that write in several steps trigger one reload.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.scriptsDir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, w.reload)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// Compare by basename: absolute vs relative event paths vary by OS.
			if strings.EqualFold(filepath.Base(ev.Name), IndexFileName) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					debounce()
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.log.Warn("script index watcher error", logx.Err(err))
			}
		}
	}
}
