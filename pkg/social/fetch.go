package social

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// FetchRelationships retrieves followers and following concurrently.
// Both maps are always non-nil; on error they are empty and must not be diffed.
func FetchRelationships(ctx context.Context, p Provider) (followers, following Relationships, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := p.Followers(gctx)
		if err != nil {
			return fmt.Errorf("fetch followers: %w", err)
		}
		followers = f
		return nil
	})
	g.Go(func() error {
		f, err := p.Following(gctx)
		if err != nil {
			return fmt.Errorf("fetch following: %w", err)
		}
		following = f
		return nil
	})
	if err := g.Wait(); err != nil {
		return Relationships{}, Relationships{}, err
	}
	if followers == nil {
		followers = Relationships{}
	}
	if following == nil {
		following = Relationships{}
	}
	return followers, following, nil
}
