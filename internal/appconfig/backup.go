package appconfig

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoBaseline indicates a restore was requested but no backup exists.
var ErrNoBaseline = errors.New("no backup baseline exists")

// BackupStore captures the pre-transform snapshot of the configuration
// store. EnsureBaseline is first-call-wins: the baseline is written at
// most once per checkout and never overwritten, so the untouched document
// survives any number of transform runs. The backup persists until the
// operator deletes it (e.g. on git clean).
type BackupStore struct {
	// Path is the backup file location, conventionally <store>.bak next
	// to the store itself.
	Path string
}

// NewBackupStore returns a BackupStore siblinged to the given store path.
func NewBackupStore(storePath string) *BackupStore {
	return &BackupStore{Path: storePath + ".bak"}
}

// Exists reports whether a baseline has been captured.
func (b *BackupStore) Exists() bool {
	_, err := os.Stat(b.Path)
	return err == nil
}

// EnsureBaseline writes raw as the baseline if and only if no baseline
// exists yet. Subsequent calls are no-ops regardless of content.
func (b *BackupStore) EnsureBaseline(raw []byte) error {
	if b.Exists() {
		return nil
	}
	if err := os.WriteFile(b.Path, raw, 0o644); err != nil {
		return &StoreError{Kind: ErrConfigWrite, Path: b.Path, Err: err}
	}
	return nil
}

// Restore copies the baseline back over the store at storePath. This is
// an explicit operator action; the pipeline never restores automatically.
func (b *BackupStore) Restore(storePath string) error {
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w at %s", ErrNoBaseline, b.Path)
		}
		return &StoreError{Kind: ErrConfigRead, Path: b.Path, Err: err}
	}
	if err := os.WriteFile(storePath, raw, 0o644); err != nil {
		return &StoreError{Kind: ErrConfigWrite, Path: storePath, Err: err}
	}
	return nil
}
