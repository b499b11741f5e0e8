package monitor

import "github.com/fsnotify/fsnotify"

// newFileWatcher watches dir (non-recursively: fsnotify has no native
// recursive mode) for create/write events so pane-polling mode's idle
// detection can react to real file activity, not only the pane-tail hash.
// Grounded on blueman82-conductor's internal/behavioral/filewatcher.go,
// which wraps fsnotify.Watcher the same way; the debounce map there is
// dropped since Accumulator.recordFileEdit's own FIFO cap already absorbs
// a burst of saves from a single edit.
func newFileWatcher(dir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
