package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/storage"
)

// FollowedSinceLayout formats the detection time reported for new followers.
const FollowedSinceLayout = "2006-01-02 15:04"

// NotFollowingBack is an account the subject follows that does not follow back.
type NotFollowingBack struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	Username      string `json:"username" yaml:"username"`
	FullName      string `json:"full_name" yaml:"full_name"`
	IsVerified    bool   `json:"is_verified" yaml:"is_verified"`
	FollowerCount int    `json:"follower_count" yaml:"follower_count"`
}

// Unfollower is a baseline follower missing from the current followers.
type Unfollower struct {
	UserID          string `json:"user_id" yaml:"user_id"`
	Username        string `json:"username" yaml:"username"`
	FullName        string `json:"full_name" yaml:"full_name"`
	UnfollowedSince string `json:"unfollowed_since" yaml:"unfollowed_since"`
}

// NewFollower is a current follower missing from the baseline.
type NewFollower struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	Username      string `json:"username" yaml:"username"`
	FullName      string `json:"full_name" yaml:"full_name"`
	FollowedSince string `json:"followed_since" yaml:"followed_since"`
}

// FindNotFollowingBack returns the accounts in following whose ids are not in followers.
// Records are sourced from following.
func FindNotFollowingBack(followers, following social.Relationships) []NotFollowingBack {
	out := []NotFollowingBack{}
	for id, u := range following {
		if _, ok := followers[id]; ok {
			continue
		}
		out = append(out, NotFollowingBack{
			UserID:        id,
			Username:      u.Username,
			FullName:      u.DisplayName(),
			IsVerified:    u.IsVerified,
			FollowerCount: u.FollowerCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Username, out[i].UserID, out[j].Username, out[j].UserID) })
	return out
}

// SortByFollowers orders users by follower count, highest first.
func SortByFollowers(users []NotFollowingBack) {
	sort.SliceStable(users, func(i, j int) bool { return users[i].FollowerCount > users[j].FollowerCount })
}

// FindUnfollowers returns baseline followers that are no longer following.
// Records are sourced from the baseline, since current data knows nothing about them.
// A nil baseline yields an empty result.
func FindUnfollowers(current social.Relationships, previous *storage.Snapshot) []Unfollower {
	out := []Unfollower{}
	if previous == nil {
		return out
	}
	since := previous.CapturedAt()
	for id, u := range previous.Followers {
		if _, ok := current[id]; ok {
			continue
		}
		fullName := u.FullName
		if fullName == "" {
			fullName = social.DefaultFullName
		}
		out = append(out, Unfollower{
			UserID:          id,
			Username:        u.Username,
			FullName:        fullName,
			UnfollowedSince: since,
		})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Username, out[i].UserID, out[j].Username, out[j].UserID) })
	return out
}

// FindNewFollowers returns current followers absent from the baseline. Records are
// sourced from current data.
//
// FollowedSince is the detection time now, not the moment the follow happened: the
// platform does not expose follow times, so this is an approximation.
// A nil baseline yields an empty result.
func FindNewFollowers(current social.Relationships, previous *storage.Snapshot, now time.Time) []NewFollower {
	out := []NewFollower{}
	if previous == nil {
		return out
	}
	since := now.Format(FollowedSinceLayout)
	for id, u := range current {
		if _, ok := previous.Followers[id]; ok {
			continue
		}
		out = append(out, NewFollower{
			UserID:        id,
			Username:      u.Username,
			FullName:      u.DisplayName(),
			FollowedSince: since,
		})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].Username, out[i].UserID, out[j].Username, out[j].UserID) })
	return out
}

func less(u1, id1, u2, id2 string) bool {
	if u1 != u2 {
		return u1 < u2
	}
	return id1 < id2
}

// Changes is the follower delta between two stored snapshots.
type Changes struct {
	From         string        `json:"from" yaml:"from"`
	To           string        `json:"to" yaml:"to"`
	Unfollowers  []Unfollower  `json:"unfollowers" yaml:"unfollowers"`
	NewFollowers []NewFollower `json:"new_followers" yaml:"new_followers"`
}

// CompareSnapshots diffs two stored snapshots. New followers are dated with the
// capture time of newer, taken from its timestamp or else its datetime.
func CompareSnapshots(newer, older *storage.Snapshot) (Changes, error) {
	detected, err := time.ParseInLocation(storage.CompactLayout, newer.Timestamp, time.Local)
	if err != nil {
		var dtErr error
		if detected, dtErr = time.ParseInLocation(storage.DatetimeLayout, newer.Datetime, time.Local); dtErr != nil {
			return Changes{}, fmt.Errorf("snapshot %s has no usable capture time: %w", newer.Key, err)
		}
	}
	current := newer.FollowerRelationships()
	return Changes{
		From:         older.Key,
		To:           newer.Key,
		Unfollowers:  FindUnfollowers(current, older),
		NewFollowers: FindNewFollowers(current, older, detected),
	}, nil
}
