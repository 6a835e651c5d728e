// Package watch sends notifications whenever a file is updated.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WatchError represents an error encountered by a file watcher.
type WatchError struct {
	Err   error
	Fatal bool
}

func (e WatchError) Error() string {
	return e.Err.Error()
}

// Watcher sends a notification whenever the file it watches is written.
// Bursts of events within the debounce period produce one notification.
//
// The directory containing the file is watched rather than the file itself,
// so that editors which replace the file on save are handled.
type Watcher struct {
	Errors  chan WatchError
	Updates chan struct{}

	file     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a new Watcher for the given file.
func NewWatcher(file string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.Wrap(err, "resolve path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "watch directory")
	}
	return &Watcher{
		Errors:   make(chan WatchError, 32),
		Updates:  make(chan struct{}, 1),
		file:     abs,
		debounce: debounce,
		watcher:  watcher,
	}, nil
}

// Watch sends notifications until the context is cancelled or the watcher
// fails. The watcher is closed when Watch returns.
func (w *Watcher) Watch(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.Errors <- WatchError{errors.New("watcher closed"), true}
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.Errors <- WatchError{errors.New("watcher closed"), true}
				return
			}
			w.Errors <- WatchError{err, false}
		case <-timer.C:
			select {
			case w.Updates <- struct{}{}:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}
