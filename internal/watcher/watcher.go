// Package watcher provides file change notification for the settings file.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher invokes a callback when the watched file is written, removed, or
// renamed. The parent directory is watched so the file may not exist yet.
type Watcher struct {
	path     string
	onChange func()

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a watcher for path. The callback runs on the watcher goroutine,
// so it must not block.
func New(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Returns an error if the parent directory cannot be
// watched.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debug().Str("path", w.path).Str("op", event.Op.String()).Msg("Watched file changed")
				w.onChange()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.path).Msg("File watcher error")
		}
	}
}

// Stop stops watching and waits for the event loop to exit. Safe to call more
// than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
