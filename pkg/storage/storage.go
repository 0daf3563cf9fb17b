package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
)

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Store persists snapshots and finds the latest one.
type Store interface {
	// Save writes a new snapshot of followers/following taken now. It never overwrites.
	Save(ctx context.Context, followers, following social.Relationships, account string) (Handle, error)
	// LoadLatest returns the most recent snapshot, or nil when none exists.
	LoadLatest(ctx context.Context) (*Snapshot, error)
	// Load returns the snapshot stored under key.
	Load(ctx context.Context, key string) (*Snapshot, error)
	// List returns every stored snapshot, oldest first.
	List(ctx context.Context) ([]SnapshotInfo, error)
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the store of the given kind at location (a directory for file, a DB path for sqlite).
func Open(kind, location string, opts ...Option) (Store, error) {
	switch strings.ToLower(kind) {
	case "", KindFile:
		return NewFileStore(location, opts...)
	case KindSQLite:
		return OpenSQLite(location, opts...)
	default:
		return nil, fmt.Errorf("unknown storage kind %q (available: file, sqlite)", kind)
	}
}

// decodeSnapshot parses a snapshot document and checks it is usable as a diff base.
func decodeSnapshot(key string, data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &StorageCorruptError{Key: key, Err: err}
	}
	if err := validate(&s); err != nil {
		return nil, &StorageCorruptError{Key: key, Err: err}
	}
	s.Key = key
	return &s, nil
}

func validate(s *Snapshot) error {
	if s.Timestamp == "" {
		return errors.New("missing timestamp")
	}
	if _, err := time.ParseInLocation(CompactLayout, s.Timestamp, time.Local); err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}
	if len(s.Datetime) < 19 {
		return errors.New("missing datetime")
	}
	if s.Followers == nil || s.Following == nil {
		return errors.New("missing followers or following")
	}
	if s.FollowersCount != len(s.Followers) || s.FollowingCount != len(s.Following) {
		return fmt.Errorf("cached counts %d/%d do not match %d/%d entries",
			s.FollowersCount, s.FollowingCount, len(s.Followers), len(s.Following))
	}
	return nil
}

// ValidKey reports whether key looks like a snapshot key. Used to reject path tricks in Load.
func ValidKey(key string) bool {
	if !strings.HasPrefix(key, KeyPrefix) {
		return false
	}
	_, err := time.Parse(CompactLayout, strings.TrimPrefix(key, KeyPrefix))
	return err == nil
}
