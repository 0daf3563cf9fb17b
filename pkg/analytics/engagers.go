package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sw33tLie/followscope/pkg/social"
	"golang.org/x/sync/errgroup"
)

// Engager is a follower with the number of likes and comments they left on recent posts.
type Engager struct {
	UserID      string `json:"user_id" yaml:"user_id"`
	Username    string `json:"username" yaml:"username"`
	FullName    string `json:"full_name" yaml:"full_name"`
	Engagements int    `json:"engagements" yaml:"engagements"`
}

// EngagementOptions controls LowEngagers.
type EngagementOptions struct {
	Top         int // 0 = all followers
	Concurrency int // defaults to 3 if <= 0
}

// LowEngagers counts likes and comments per follower across posts and returns the
// least engaged followers first. Failures on a single post are collected in warnings
// and do not abort the count.
func LowEngagers(ctx context.Context, p social.Provider, posts []social.Post, followers social.Relationships, opts EngagementOptions) ([]Engager, []error) {
	counts := make(map[string]int, len(followers))
	for id := range followers {
		counts[id] = 0
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	var (
		mu       sync.Mutex
		warnings []error
	)
	warn := func(err error) {
		mu.Lock()
		warnings = append(warnings, err)
		mu.Unlock()
	}
	bump := func(id string) {
		mu.Lock()
		if _, ok := counts[id]; ok {
			counts[id]++
		}
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, post := range posts {
		post := post
		g.Go(func() error {
			likers, err := p.Likers(gctx, post.ID)
			if err != nil {
				warn(fmt.Errorf("failed to fetch likers for post %s: %w", post.ID, err))
			}
			for _, u := range likers {
				bump(u.ID)
			}

			comments, err := p.Comments(gctx, post.ID)
			if err != nil {
				warn(fmt.Errorf("failed to fetch comments for post %s: %w", post.ID, err))
			}
			for _, c := range comments {
				if c.User == nil {
					warn(fmt.Errorf("skipping malformed comment %s on post %s", c.ID, post.ID))
					continue
				}
				bump(c.User.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Engager, 0, len(counts))
	for id, n := range counts {
		u := followers[id]
		out = append(out, Engager{UserID: id, Username: u.Username, FullName: u.DisplayName(), Engagements: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Engagements != out[j].Engagements {
			return out[i].Engagements < out[j].Engagements
		}
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].UserID < out[j].UserID
	})
	if opts.Top > 0 && len(out) > opts.Top {
		out = out[:opts.Top]
	}
	return out, warnings
}
