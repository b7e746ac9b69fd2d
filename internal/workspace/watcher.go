package workspace

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 500 * time.Millisecond

// ChangeFunc is called with the descriptor path after it changed.
type ChangeFunc func(path string)

// Watcher monitors a workspace root for descriptor changes.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	callback  ChangeFunc
	debounce  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	cancel  chan struct{}
	once    sync.Once
}

// NewWatcher starts watching root. Bursts of events are coalesced into one
// callback.
func NewWatcher(root string, callback ChangeFunc, logger *slog.Logger) (*Watcher, error) {
	return newWatcher(root, callback, logger, debounceInterval)
}

func newWatcher(root string, callback ChangeFunc, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsW.Add(root); err != nil {
		fsW.Close()
		return nil, err
	}

	w := &Watcher{
		root:      root,
		fsWatcher: fsW,
		callback:  callback,
		debounce:  debounce,
		logger:    logger,
		cancel:    make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.cancel)
		w.fsWatcher.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.cancel:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !IsDescriptorName(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("descriptor watcher error", "root", w.root, "error", err)
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case <-w.cancel:
		return
	default:
	}
	w.mu.Lock()
	path := w.pending
	w.mu.Unlock()

	w.logger.Debug("descriptor changed", "path", path)
	if w.callback != nil {
		w.callback(path)
	}
}
