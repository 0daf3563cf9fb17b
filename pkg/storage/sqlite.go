package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots as rows of a single SQLite table.
type SQLiteStore struct {
	sql  *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (and creates if needed) the snapshot database at path.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("empty database path")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
  key             TEXT PRIMARY KEY,
  username        TEXT NOT NULL,
  taken_at        INTEGER NOT NULL,
  datetime        TEXT NOT NULL,
  followers_count INTEGER NOT NULL,
  following_count INTEGER NOT NULL,
  document        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at, key);
    `); err != nil {
		db.Close()
		return nil, err
	}
	o := buildOptions(opts)
	return &SQLiteStore{sql: db, path: path, now: o.now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

func (s *SQLiteStore) location(key string) string {
	return "sqlite://" + s.path + "#" + key
}

func (s *SQLiteStore) Save(ctx context.Context, followers, following social.Relationships, account string) (Handle, error) {
	now := s.now()
	snap := newSnapshot(followers, following, account, now)
	doc, err := json.Marshal(snap)
	if err != nil {
		return Handle{}, err
	}
	res, err := s.sql.ExecContext(ctx, `INSERT INTO snapshots(key, username, taken_at, datetime, followers_count, following_count, document) VALUES(?,?,?,?,?,?,?) ON CONFLICT(key) DO NOTHING`,
		snap.Key, snap.Username, now.UnixNano(), snap.Datetime, snap.FollowersCount, snap.FollowingCount, string(doc))
	if err != nil {
		return Handle{}, fmt.Errorf("insert snapshot %s: %w", snap.Key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Handle{}, err
	}
	if n == 0 {
		return Handle{}, fmt.Errorf("%w: %s", ErrSnapshotExists, snap.Key)
	}
	return Handle{Key: snap.Key, Location: s.location(snap.Key)}, nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	var key, doc string
	err := s.sql.QueryRowContext(ctx, "SELECT key, document FROM snapshots ORDER BY taken_at DESC, key DESC LIMIT 1").Scan(&key, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	return decodeSnapshot(key, []byte(doc))
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	var doc string
	err := s.sql.QueryRowContext(ctx, "SELECT document FROM snapshots WHERE key = ?", key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", key, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", key, err)
	}
	return decodeSnapshot(key, []byte(doc))
}

// List reads the cached columns only; documents are not decoded.
func (s *SQLiteStore) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT key, username, datetime, followers_count, following_count FROM snapshots ORDER BY taken_at, key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []SnapshotInfo{}
	for rows.Next() {
		var i SnapshotInfo
		if err := rows.Scan(&i.Key, &i.Username, &i.Datetime, &i.FollowersCount, &i.FollowingCount); err != nil {
			return nil, err
		}
		if len(i.Key) > len(KeyPrefix) {
			i.Timestamp = i.Key[len(KeyPrefix):]
		}
		i.Location = s.location(i.Key)
		infos = append(infos, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}
