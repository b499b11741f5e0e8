package store

import (
	"os"
	"path/filepath"
)

// writeAtomic writes content to path via a sibling temp file, fsync, then
// rename, so a crash never observes a partially written file (spec.md §4.2,
// §9). Ported in spirit from the teacher's StatePersister.writeAtomic
// (pkg/orchestration/state.go), generalized from markdown to arbitrary bytes.
func writeAtomic(path string, content []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := f.Chmod(perm); err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return err
	}
	success = true
	return nil
}
