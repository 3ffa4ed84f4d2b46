package gen

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/logger"
)

// Watcher watches the config directory and triggers a callback after file
// changes settle. Rapid editor save bursts collapse into one trigger.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	callback func()

	mu             sync.Mutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration

	done chan struct{}
}

// NewWatcher creates a watcher over the config directory. callback runs on
// the watch goroutine after each debounced change.
func NewWatcher(dir string, debounce time.Duration, callback func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch config directory %s", dir)
	}

	return &Watcher{
		dir:            dir,
		watcher:        fsw,
		callback:       callback,
		debouncePeriod: debounce,
		done:           make(chan struct{}),
	}, nil
}

// Start begins watching for config file changes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop ends watching and releases the fsnotify handle.
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Rename == fsnotify.Rename {
				if !isConfigFile(event.Name) {
					continue
				}
				logger.Debugw("Config change detected",
					"file", event.Name,
					"op", event.Op.String())
				w.scheduleTrigger()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorw("Config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// scheduleTrigger resets the debounce timer so only the last change in a
// burst fires the callback.
func (w *Watcher) scheduleTrigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.callback)
}

// isConfigFile reports whether a changed path is one the pipeline reads.
// Editor backup and swap files are ignored.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".yaml" || ext == ".yml"
}
