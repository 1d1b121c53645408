package fs

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultDebounce = 200 * time.Millisecond

	subscriptionBuffer = 10
)

var ErrWatcherClosed = errors.New("watcher closed")

// Watcher turns fsnotify events into debounced "directory changed"
// notifications. Each watched directory is reference counted across its
// subscriptions and stops being watched when the last one closes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

// Subscription delivers the directory path each time it changes.
type Subscription struct {
	dir    string
	ch     chan string
	w      *Watcher
	closed bool // guarded by w.mu
}

func NewWatcher(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		fsw:      fsw,
		log:      log,
		debounce: debounce,
		subs:     make(map[string]map[*Subscription]struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Subscribe starts watching dir. The returned subscription must be closed.
func (w *Watcher) Subscribe(dir string) (*Subscription, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if !IsDirectory(abs) {
		return nil, ErrNotDirectory
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrWatcherClosed
	}

	set, ok := w.subs[abs]
	if !ok {
		if err := w.fsw.Add(abs); err != nil {
			return nil, err
		}
		set = make(map[*Subscription]struct{})
		w.subs[abs] = set
		w.log.Debug("watching directory", zap.String("path", abs))
	}
	s := &Subscription{dir: abs, ch: make(chan string, subscriptionBuffer), w: w}
	set[s] = struct{}{}
	return s, nil
}

// Dir is the absolute path being watched.
func (s *Subscription) Dir() string { return s.dir }

// Events is closed when the subscription or its watcher is closed.
func (s *Subscription) Events() <-chan string { return s.ch }

func (s *Subscription) Close() {
	w := s.w
	w.mu.Lock()
	defer w.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)

	set := w.subs[s.dir]
	delete(set, s)
	if len(set) == 0 && !w.closed {
		delete(w.subs, s.dir)
		if err := w.fsw.Remove(s.dir); err != nil {
			// The directory may already be gone.
			w.log.Debug("unwatch failed", zap.String("path", s.dir), zap.Error(err))
		}
		w.log.Debug("stopped watching directory", zap.String("path", s.dir))
	}
}

// Watching returns the number of directories currently watched.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Close stops the watcher and closes every open subscription.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()

		w.mu.Lock()
		w.closed = true
		for _, set := range w.subs {
			for s := range set {
				if !s.closed {
					s.closed = true
					close(s.ch)
				}
			}
		}
		w.subs = make(map[string]map[*Subscription]struct{})
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) run() {
	lastEvent := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if dir, ok := w.watchedDirOf(event.Name); ok {
				lastEvent[dir] = time.Now()
				w.log.Debug("fs event", zap.Stringer("op", event.Op), zap.String("path", event.Name))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for dir, last := range lastEvent {
				if now.Sub(last) >= w.debounce {
					w.dispatch(dir)
					delete(lastEvent, dir)
				}
			}
		}
	}
}

// watchedDirOf maps an event path to the watched directory it belongs to:
// its parent, or the path itself when the watched directory changed.
func (w *Watcher) watchedDirOf(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if parent := filepath.Dir(path); w.subs[parent] != nil {
		return parent, true
	}
	if w.subs[path] != nil {
		return path, true
	}
	return "", false
}

// dispatch notifies every subscriber of dir, dropping the notification for
// subscribers whose buffer is full.
func (w *Watcher) dispatch(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for s := range w.subs[dir] {
		select {
		case s.ch <- dir:
		default:
		}
	}
}
