package dev

import (
	"context"
	"fmt"
	"time"

	"github.com/sw33tLie/followscope/pkg/social"
)

// This is used for testing the snapshot tracking logic without hitting a real platform.

// Provider serves fixed, deterministic data. Zero-value fields are served as empty results.
type Provider struct {
	Username       string
	FollowersData  social.Relationships
	FollowingData  social.Relationships
	PostsData      []social.Post
	ProfileData    *social.Profile
	LikersData     map[string][]social.UserRecord
	CommentsData   map[string][]social.Comment
	FollowersError error
	FollowingError error
}

// NewProvider returns a Provider populated with a small sample account.
func NewProvider() *Provider {
	followers := social.Relationships{
		"1001": {ID: "1001", Username: "alice", FullName: "Alice Liddell", FollowerCount: 320},
		"1002": {ID: "1002", Username: "bob", FollowerCount: 45},
		"1003": {ID: "1003", Username: "carol", FullName: "Carol Danvers", IsVerified: true, FollowerCount: 98000},
	}
	following := social.Relationships{
		"1001": followers["1001"],
		"1003": followers["1003"],
		"2001": {ID: "2001", Username: "dave", FullName: "Dave Bowman", FollowerCount: 1200},
		"2002": {ID: "2002", Username: "erin", FollowerCount: 12},
	}
	taken := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	return &Provider{
		Username:      "devaccount",
		FollowersData: followers,
		FollowingData: following,
		PostsData: []social.Post{
			{ID: "p1", Code: "C1", Caption: "first", LikeCount: 12, CommentCount: 3, TakenAt: taken},
			{ID: "p2", Code: "C2", Caption: "second", LikeCount: 7, CommentCount: 1, TakenAt: taken.Add(48 * time.Hour)},
		},
		ProfileData: &social.Profile{
			ID:             "42",
			Username:       "devaccount",
			FullName:       "Dev Account",
			Biography:      "Testing follower tracking",
			ExternalURL:    "https://blog.example.co.uk/about",
			FollowerCount:  3,
			FollowingCount: 4,
			MediaCount:     2,
		},
		LikersData: map[string][]social.UserRecord{
			"p1": {followers["1001"], followers["1003"]},
			"p2": {followers["1001"]},
		},
		CommentsData: map[string][]social.Comment{
			"p1": {{ID: "c1", Text: "nice", User: &social.UserRecord{ID: "1001", Username: "alice"}}, {ID: "c2", Text: "?"}},
		},
	}
}

func (p *Provider) Name() string { return "dev" }

// Authenticate is a no-op for the dev platform.
func (p *Provider) Authenticate(ctx context.Context, cfg social.AuthConfig) error {
	if cfg.Username != "" {
		p.Username = cfg.Username
	}
	return nil
}

func (p *Provider) Account() string { return p.Username }

func (p *Provider) Followers(ctx context.Context) (social.Relationships, error) {
	if p.FollowersError != nil {
		return nil, p.FollowersError
	}
	return copyRelationships(p.FollowersData), nil
}

func (p *Provider) Following(ctx context.Context) (social.Relationships, error) {
	if p.FollowingError != nil {
		return nil, p.FollowingError
	}
	return copyRelationships(p.FollowingData), nil
}

func (p *Provider) Posts(ctx context.Context, amount int) ([]social.Post, error) {
	posts := p.PostsData
	if amount >= 0 && amount < len(posts) {
		posts = posts[:amount]
	}
	return append([]social.Post(nil), posts...), nil
}

func (p *Provider) Profile(ctx context.Context, username string) (*social.Profile, error) {
	if p.ProfileData == nil {
		return nil, fmt.Errorf("profile: user %s not found", username)
	}
	pr := *p.ProfileData
	return &pr, nil
}

func (p *Provider) Likers(ctx context.Context, postID string) ([]social.UserRecord, error) {
	return append([]social.UserRecord(nil), p.LikersData[postID]...), nil
}

func (p *Provider) Comments(ctx context.Context, postID string) ([]social.Comment, error) {
	return append([]social.Comment(nil), p.CommentsData[postID]...), nil
}

func (p *Provider) Logout(ctx context.Context) error { return nil }

func copyRelationships(in social.Relationships) social.Relationships {
	out := make(social.Relationships, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
