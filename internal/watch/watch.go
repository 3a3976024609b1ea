// Package watch notifies when the spec file of an APB project changes.
package watch

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last write before a change
// is reported.
const DefaultDebounce = 200 * time.Millisecond

// minTick bounds how often pending changes are checked against the debounce.
const minTick = time.Millisecond

// Change reports that a watched file was written, created or removed.
type Change struct {
	File    string
	Removed bool
}

// Watcher monitors a project directory for changes to a set of files.
// Editors that save by rename are handled by watching the directory rather
// than the files themselves.
type Watcher struct {
	Dir     string
	Changes <-chan Change // Read-only external channel

	changes  chan Change
	done     chan struct{}
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher on dir reporting changes to the named files, given
// relative to dir. A non-positive debounce selects DefaultDebounce.
func New(dir string, files []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[filepath.Clean(filepath.Join(dir, f))] = true
	}

	ch := make(chan Change, 1)
	return &Watcher{
		Dir:      dir,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		files:    names,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(w.debounce/2, minTick))
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.String("dir", w.Dir), zap.Error(err))
		}
	}
}

// emit reports a change without blocking. Changes coalesce while the
// consumer is busy: one queued change already means "rebuild".
func (w *Watcher) emit(file string) {
	_, err := filepath.EvalSymlinks(file)
	change := Change{File: file, Removed: err != nil}
	select {
	case w.changes <- change:
	default:
		w.logger.Debug("change coalesced", zap.String("file", file))
	}
}
