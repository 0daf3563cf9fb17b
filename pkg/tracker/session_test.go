package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/storage"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newStore(t *testing.T, c *clock) *storage.FileStore {
	t.Helper()
	s, err := storage.NewFileStore(t.TempDir(), storage.WithClock(c.now))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestRunFirstRunCreatesBaseline(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	store := newStore(t, c)

	res, err := Run(context.Background(), Config{
		Store:     store,
		Account:   "alice",
		Followers: rel(user("u1", "one")),
		Following: rel(user("u2", "two")),
		Now:       c.now,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.HasBaseline() {
		t.Fatal("first run must report no baseline")
	}
	if res.Saved == nil {
		t.Fatal("first run must save a snapshot")
	}
	expect := []State{StateFetched, StateSnapshotLoaded, StateNoBaseline, StatePersisted, StateDone}
	if !reflect.DeepEqual(res.Transitions, expect) {
		t.Fatalf("transitions.\nwant: %v\ngot:  %v", expect, res.Transitions)
	}

	snap, err := store.LoadLatest(context.Background())
	if err != nil || snap == nil {
		t.Fatalf("baseline not stored: %v %v", snap, err)
	}
	if snap.Username != "alice" || snap.FollowersCount != 1 || snap.FollowingCount != 1 {
		t.Fatalf("unexpected baseline %+v", snap.Info())
	}
}

func TestRunDiffWithoutSavingIsReadOnly(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	store := newStore(t, c)
	ctx := context.Background()

	if _, err := Run(ctx, Config{Store: store, Account: "a", Followers: rel(user("u1", "one"), user("u2", "two")), Now: c.now}); err != nil {
		t.Fatalf("baseline run: %v", err)
	}

	c.advance(time.Hour)
	current := rel(user("u2", "two"), user("u3", "three"))
	for i := 0; i < 2; i++ {
		res, err := Run(ctx, Config{Store: store, Account: "a", Followers: current, Now: c.now})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if !res.HasBaseline() || res.Saved != nil || res.State() != StateDone {
			t.Fatalf("run %d: unexpected result %+v", i, res)
		}
		if len(res.Unfollowers) != 1 || res.Unfollowers[0].UserID != "u1" {
			t.Fatalf("run %d: unexpected unfollowers %v", i, res.Unfollowers)
		}
		if len(res.NewFollowers) != 1 || res.NewFollowers[0].UserID != "u3" {
			t.Fatalf("run %d: unexpected new followers %v", i, res.NewFollowers)
		}
		if res.NetChange() != 0 {
			t.Fatalf("run %d: net change %d", i, res.NetChange())
		}
	}

	infos, _ := store.List(ctx)
	if len(infos) != 1 {
		t.Fatalf("read-only checks must not persist, found %d snapshots", len(infos))
	}
}

func TestRunEmptyDiffStillHasBaseline(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	store := newStore(t, c)
	ctx := context.Background()
	followers := rel(user("u1", "one"))
	Run(ctx, Config{Store: store, Followers: followers, Now: c.now})

	res, err := Run(ctx, Config{Store: store, Followers: followers, Now: c.now})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.HasBaseline() || len(res.Unfollowers) != 0 || len(res.NewFollowers) != 0 {
		t.Fatalf("expected an empty diff against a baseline, got %+v", res)
	}
	if res.Transitions[2] != StateDiffed {
		t.Fatalf("expected diffed state, got %v", res.Transitions)
	}
}

func TestRunOptInSaveAndConfirm(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	store := newStore(t, c)
	ctx := context.Background()
	Run(ctx, Config{Store: store, Followers: rel(user("u1", "one")), Now: c.now})

	c.advance(time.Minute)
	asked := false
	res, err := Run(ctx, Config{
		Store:        store,
		Followers:    rel(),
		SaveSnapshot: true,
		Confirm:      func(r *Result) bool { asked = true; return false },
		Now:          c.now,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !asked || res.Saved != nil || res.Transitions[3] != StateSkipped {
		t.Fatalf("declined confirmation must skip saving: asked=%v res=%+v", asked, res)
	}

	res, err = Run(ctx, Config{Store: store, Followers: rel(), SaveSnapshot: true, Now: c.now})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Saved == nil {
		t.Fatal("opted-in run must save")
	}
	if res.Baseline.Key == res.Saved.Key {
		t.Fatal("the diff base must be the previous snapshot, not the one just saved")
	}

	latest, _ := store.LoadLatest(ctx)
	if latest.Key != res.Saved.Key {
		t.Fatalf("latest should be the new baseline, got %s", latest.Key)
	}
}

func TestRunCorruptBaselineAborts(t *testing.T) {
	c := &clock{t: time.Now()}
	store := newStore(t, c)
	bad := filepath.Join(store.Dir(), "followers_snapshot_20240101_000000.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), Config{Store: store, Followers: rel(user("u1", "one")), Now: c.now})
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	if !storage.IsCorrupt(err) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
	if !strings.Contains(err.Error(), "followers_snapshot_20240101_000000") {
		t.Fatalf("error should name the failing key: %v", err)
	}
	infos, _ := store.List(context.Background())
	if len(infos) != 1 {
		t.Fatalf("nothing must be saved after a corrupt load, found %d records", len(infos))
	}
}

// recordingStore wraps a store and records the order of calls.
type recordingStore struct {
	storage.Store
	calls   []string
	saveErr error
}

func (r *recordingStore) LoadLatest(ctx context.Context) (*storage.Snapshot, error) {
	r.calls = append(r.calls, "load")
	return r.Store.LoadLatest(ctx)
}

func (r *recordingStore) Save(ctx context.Context, f, g social.Relationships, account string) (storage.Handle, error) {
	r.calls = append(r.calls, "save")
	if r.saveErr != nil {
		return storage.Handle{}, r.saveErr
	}
	return r.Store.Save(ctx, f, g, account)
}

func TestRunLoadsBeforeSaving(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)}
	rs := &recordingStore{Store: newStore(t, c)}

	if _, err := Run(context.Background(), Config{Store: rs, Followers: rel(), Now: c.now}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(rs.calls, []string{"load", "save"}) {
		t.Fatalf("unexpected call order %v", rs.calls)
	}
}

func TestRunSaveErrorPropagates(t *testing.T) {
	c := &clock{t: time.Now()}
	rs := &recordingStore{Store: newStore(t, c), saveErr: storage.ErrSnapshotExists}

	_, err := Run(context.Background(), Config{Store: rs, Now: c.now})
	if !errors.Is(err, storage.ErrSnapshotExists) {
		t.Fatalf("expected ErrSnapshotExists, got %v", err)
	}
}

func TestRunIncludesNotFollowingBack(t *testing.T) {
	c := &clock{t: time.Now()}
	res, err := Run(context.Background(), Config{
		Store:                   newStore(t, c),
		Followers:               rel(user("u1", "one")),
		Following:               rel(user("u1", "one"), user("u2", "two")),
		IncludeNotFollowingBack: true,
		Now:                     c.now,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.NotFollowingBack) != 1 || res.NotFollowingBack[0].UserID != "u2" {
		t.Fatalf("unexpected not-following-back %v", res.NotFollowingBack)
	}
}

func TestRunRequiresStore(t *testing.T) {
	if _, err := Run(context.Background(), Config{}); err == nil {
		t.Fatal("expected an error without a store")
	}
}
