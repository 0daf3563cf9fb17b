package storage

import (
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
)

const (
	// KeyPrefix starts every snapshot key. Keys sort lexicographically in creation order.
	KeyPrefix = "followers_snapshot_"
	// CompactLayout is the filename-safe timestamp embedded in keys.
	CompactLayout = "20060102_150405"
	// DatetimeLayout is the full ISO instant stored alongside the compact form.
	DatetimeLayout = "2006-01-02T15:04:05.000000"
)

// StoredUser is what a snapshot keeps per account. Verification and follower
// counts are intentionally not persisted.
type StoredUser struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Snapshot is an immutable capture of followers/following at one instant.
type Snapshot struct {
	Key            string                `json:"-"`
	Timestamp      string                `json:"timestamp"`
	Datetime       string                `json:"datetime"`
	Username       string                `json:"username"`
	Followers      map[string]StoredUser `json:"followers"`
	Following      map[string]StoredUser `json:"following"`
	FollowersCount int                   `json:"followers_count"`
	FollowingCount int                   `json:"following_count"`
}

// CapturedAt returns Datetime truncated to the second, as shown to users.
func (s *Snapshot) CapturedAt() string {
	if len(s.Datetime) > 19 {
		return s.Datetime[:19]
	}
	return s.Datetime
}

// Info returns the metadata of s.
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		Key:            s.Key,
		Timestamp:      s.Timestamp,
		Datetime:       s.Datetime,
		Username:       s.Username,
		FollowersCount: s.FollowersCount,
		FollowingCount: s.FollowingCount,
	}
}

// SnapshotInfo is the listing view of a stored snapshot.
type SnapshotInfo struct {
	Key            string
	Timestamp      string
	Datetime       string
	Username       string
	FollowersCount int
	FollowingCount int
	Location       string
	// Corrupt is set by List when the record exists but cannot be decoded.
	Corrupt bool
}

// Handle identifies a persisted snapshot.
type Handle struct {
	Key      string
	Location string
}

func (h Handle) String() string { return h.Location }

func newSnapshot(followers, following social.Relationships, account string, now time.Time) *Snapshot {
	ts := now.Format(CompactLayout)
	return &Snapshot{
		Key:            KeyPrefix + ts,
		Timestamp:      ts,
		Datetime:       now.Format(DatetimeLayout),
		Username:       account,
		Followers:      storedUsers(followers),
		Following:      storedUsers(following),
		FollowersCount: len(followers),
		FollowingCount: len(following),
	}
}

func storedUsers(in social.Relationships) map[string]StoredUser {
	out := make(map[string]StoredUser, len(in))
	for id, u := range in {
		out[id] = StoredUser{Username: u.Username, FullName: u.FullName}
	}
	return out
}

// FollowerRelationships rebuilds the stored followers as provider records.
func (s *Snapshot) FollowerRelationships() social.Relationships {
	out := make(social.Relationships, len(s.Followers))
	for id, u := range s.Followers {
		out[id] = social.UserRecord{ID: id, Username: u.Username, FullName: u.FullName}
	}
	return out
}
