package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sw33tLie/followscope/internal/metrics"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// State is a step of a tracking run.
type State string

const (
	StateFetched        State = "fetched"
	StateSnapshotLoaded State = "snapshot_loaded"
	StateDiffed         State = "diffed"
	StateNoBaseline     State = "no_baseline"
	StatePersisted      State = "persisted"
	StateSkipped        State = "skipped"
	StateDone           State = "done"
)

// Config holds everything Run needs for a single check.
type Config struct {
	Store storage.Store
	// Account is the tracked handle recorded in new snapshots.
	Account   string
	Followers social.Relationships
	Following social.Relationships
	// SaveSnapshot persists this run's state as the new baseline even when one exists.
	// The first run always saves.
	SaveSnapshot bool
	// Confirm is asked before an opted-in save over an existing baseline. Nil means yes.
	Confirm func(*Result) bool
	// IncludeNotFollowingBack also computes NotFollowingBack.
	IncludeNotFollowingBack bool
	Now                     func() time.Time // defaults to time.Now
	Log                     Logger           // optional; nil = no logging
}

// Result holds the outcome of one run.
type Result struct {
	// Baseline is the snapshot the diff was computed against; nil on the first run.
	Baseline         *storage.SnapshotInfo
	Unfollowers      []Unfollower
	NewFollowers     []NewFollower
	NotFollowingBack []NotFollowingBack
	// Saved is set when this run persisted a new snapshot.
	Saved       *storage.Handle
	Transitions []State
}

// HasBaseline distinguishes "first run, nothing to diff" from "diff computed".
func (r *Result) HasBaseline() bool { return r.Baseline != nil }

// NetChange is new followers minus unfollowers.
func (r *Result) NetChange() int { return len(r.NewFollowers) - len(r.Unfollowers) }

// State returns the last state reached.
func (r *Result) State() State {
	if len(r.Transitions) == 0 {
		return ""
	}
	return r.Transitions[len(r.Transitions)-1]
}

func (r *Result) enter(s State) { r.Transitions = append(r.Transitions, s) }

// Run executes fetch -> load latest -> diff -> optional persist, strictly in that order.
// Followers and Following are the already fetched current state. A corrupt baseline
// aborts the run before diffing.
func Run(ctx context.Context, cfg Config) (res *Result, err error) {
	if cfg.Store == nil {
		return nil, errors.New("tracker: no snapshot store configured")
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	followers := cfg.Followers
	if followers == nil {
		followers = social.Relationships{}
	}
	following := cfg.Following
	if following == nil {
		following = social.Relationships{}
	}

	start := time.Now()
	defer func() {
		metrics.ObserveRun(start, err)
	}()

	res = &Result{}
	res.enter(StateFetched)
	log.Debugf("Tracking %d followers and %d following for %s", len(followers), len(following), cfg.Account)

	previous, err := cfg.Store.LoadLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker: load latest snapshot: %w", err)
	}
	res.enter(StateSnapshotLoaded)

	if cfg.IncludeNotFollowingBack {
		res.NotFollowingBack = FindNotFollowingBack(followers, following)
	}

	if previous != nil {
		info := previous.Info()
		res.Baseline = &info
		res.Unfollowers = FindUnfollowers(followers, previous)
		res.NewFollowers = FindNewFollowers(followers, previous, now())
		res.enter(StateDiffed)
		log.Infof("Compared against snapshot %s from %s", previous.Key, previous.CapturedAt())
		metrics.RecordDiff(len(res.Unfollowers), len(res.NewFollowers))
	} else {
		res.Unfollowers = []Unfollower{}
		res.NewFollowers = []NewFollower{}
		res.enter(StateNoBaseline)
		log.Infof("No previous snapshot found, this run becomes the baseline")
	}

	persist := previous == nil
	if !persist && cfg.SaveSnapshot {
		persist = cfg.Confirm == nil || cfg.Confirm(res)
	}
	if !persist {
		res.enter(StateSkipped)
		res.enter(StateDone)
		return res, nil
	}

	h, err := cfg.Store.Save(ctx, followers, following, cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("tracker: save snapshot: %w", err)
	}
	metrics.SnapshotsSaved.Inc()
	log.Infof("Snapshot saved: %s", h.Location)
	res.Saved = &h
	res.enter(StatePersisted)
	res.enter(StateDone)
	return res, nil
}
