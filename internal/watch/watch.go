// Package watch monitors the configuration store for out-of-band edits
// during dev sessions. The store is a shared mutable file; a manual edit
// that breaks the identity fields would otherwise surface only at the
// next native build.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of store change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // Store rewritten in place
	ChangeRemoved                    // Store deleted
)

// StoreChange represents a detected change to the configuration store.
type StoreChange struct {
	Kind ChangeKind
	File string // Absolute path
}

// Watcher monitors the configuration store file using fsnotify. Events
// are debounced: editors often emit several writes per save.
type Watcher struct {
	Path    string
	Changes <-chan StoreChange // Read-only external channel

	changes chan StoreChange // Internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the configuration store at path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan StoreChange, 16)
	w := &Watcher{
		Path:    path,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the store's directory. The directory is watched
// rather than the file itself so atomic save-and-rename editors do not
// silently detach the watch.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				// Drain pending on close.
				for file := range pending {
					w.emitChange(file)
				}
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.Path) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}
			if event.Has(fsnotify.Remove) {
				pending[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.emitChange(file)
					delete(pending, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Ignore watch errors; they're non-fatal.
		}
	}
}

func (w *Watcher) emitChange(file string) {
	kind := ChangeModified
	if !exists(file) {
		kind = ChangeRemoved
	}
	w.changes <- StoreChange{Kind: kind, File: file}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
