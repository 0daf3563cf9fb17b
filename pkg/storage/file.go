package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
)

const fileExt = ".json"

// FileStore keeps one indented JSON document per snapshot in a directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("empty snapshot directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	o := buildOptions(opts)
	return &FileStore{dir: dir, now: o.now}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Save(ctx context.Context, followers, following social.Relationships, account string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	snap := newSnapshot(followers, following, account, s.now())
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Handle{}, err
	}
	final := s.path(snap.Key)
	if err := publishFile(s.dir, final, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Handle{}, fmt.Errorf("%w: %s", ErrSnapshotExists, final)
		}
		return Handle{}, fmt.Errorf("write snapshot %s: %w", snap.Key, err)
	}
	return Handle{Key: snap.Key, Location: final}, nil
}

// publishFile writes data to a hidden temp file in dir and then makes it visible at
// final. A reader never sees a partially written file, and an existing final is kept.
func publishFile(dir, final string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*"+fileExt)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Link fails with EEXIST instead of replacing the target, unlike Rename.
	if err := os.Link(tmpPath, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		// Filesystems without hard links: check then rename.
		if _, serr := os.Stat(final); serr == nil {
			return fs.ErrExist
		}
		return os.Rename(tmpPath, final)
	}
	return nil
}

type fileEntry struct {
	key     string
	path    string
	modTime time.Time
}

// entries returns snapshot files ordered oldest first: by modification time,
// then by name for equal times.
func (s *FileStore) entries() ([]fileEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, KeyPrefix+"*"+fileExt))
	if err != nil {
		return nil, err
	}
	out := make([]fileEntry, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if fi.IsDir() {
			continue
		}
		name := filepath.Base(m)
		out = append(out, fileEntry{key: name[:len(name)-len(fileExt)], path: m, modTime: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].modTime.Equal(out[j].modTime) {
			return out[i].modTime.Before(out[j].modTime)
		}
		return out[i].key < out[j].key
	})
	return out, nil
}

func (s *FileStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ents, err := s.entries()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ents) == 0 {
		return nil, nil
	}
	latest := ents[len(ents)-1]
	return s.read(latest.key, latest.path)
}

func (s *FileStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid snapshot key %q", key)
	}
	return s.read(key, s.path(key))
}

func (s *FileStore) read(key, path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("snapshot %s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return decodeSnapshot(key, data)
}

func (s *FileStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	ents, err := s.entries()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	infos := make([]SnapshotInfo, 0, len(ents))
	for _, e := range ents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := s.read(e.key, e.path)
		if err != nil {
			if !IsCorrupt(err) {
				return nil, err
			}
			infos = append(infos, SnapshotInfo{Key: e.key, Location: e.path, Corrupt: true})
			continue
		}
		info := snap.Info()
		info.Location = e.path
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *FileStore) Close() error { return nil }
