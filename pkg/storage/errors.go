package storage

import (
	"errors"
	"fmt"
)

// ErrSnapshotExists is returned when a snapshot with the same key was already saved.
// Keys have one-second resolution, so two saves within the same second collide.
var ErrSnapshotExists = errors.New("snapshot already exists")

// ErrSnapshotNotFound is returned by Load for keys that were never saved.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// StorageCorruptError reports a snapshot record that exists but cannot be decoded.
type StorageCorruptError struct {
	Key string
	Err error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("snapshot %s is corrupt: %v", e.Key, e.Err)
}

func (e *StorageCorruptError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is, or wraps, a *StorageCorruptError.
func IsCorrupt(err error) bool {
	var ce *StorageCorruptError
	return errors.As(err, &ce)
}
