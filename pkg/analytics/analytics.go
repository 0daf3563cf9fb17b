package analytics

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// FollowerAnalytics summarises the account's follower graph.
type FollowerAnalytics struct {
	FollowerCount          int     `json:"follower_count" yaml:"follower_count"`
	FollowingCount         int     `json:"following_count" yaml:"following_count"`
	PostsCount             int     `json:"posts_count" yaml:"posts_count"`
	FollowersListSize      int     `json:"followers_list_size" yaml:"followers_list_size"`
	FollowingListSize      int     `json:"following_list_size" yaml:"following_list_size"`
	FollowerFollowingRatio float64 `json:"follower_following_ratio" yaml:"follower_following_ratio"`
	MutualFollows          int     `json:"mutual_follows" yaml:"mutual_follows"`
}

// Followers computes FollowerAnalytics. Profile counters are zero when profile is nil.
func Followers(profile *social.Profile, followers, following social.Relationships) FollowerAnalytics {
	a := FollowerAnalytics{
		FollowersListSize: len(followers),
		FollowingListSize: len(following),
	}
	if profile != nil {
		a.FollowerCount = profile.FollowerCount
		a.FollowingCount = profile.FollowingCount
		a.PostsCount = profile.MediaCount
	}
	a.FollowerFollowingRatio = float64(len(followers)) / float64(max(len(following), 1))
	for id := range followers {
		if _, ok := following[id]; ok {
			a.MutualFollows++
		}
	}
	return a
}

// ContentInsights aggregates engagement over recent posts.
type ContentInsights struct {
	AvgLikes        float64 `json:"avg_likes" yaml:"avg_likes"`
	AvgComments     float64 `json:"avg_comments" yaml:"avg_comments"`
	TotalEngagement int     `json:"total_engagement" yaml:"total_engagement"`
	// EngagementRate is total engagement as a percentage of followers.
	EngagementRate float64 `json:"engagement_rate" yaml:"engagement_rate"`
}

// Insights computes ContentInsights. ok is false when there are no posts.
func Insights(posts []social.Post, followerCount int) (ContentInsights, bool) {
	if len(posts) == 0 {
		return ContentInsights{}, false
	}
	var likes, comments int
	for _, p := range posts {
		likes += p.LikeCount
		comments += p.CommentCount
	}
	total := likes + comments
	n := float64(len(posts))
	return ContentInsights{
		AvgLikes:        float64(likes) / n,
		AvgComments:     float64(comments) / n,
		TotalEngagement: total,
		EngagementRate:  float64(total) / float64(max(followerCount, 1)) * 100,
	}, true
}

// LinkDomains returns the registrable domains of the profile's external URL and bio links,
// deduplicated and sorted. Unparseable links are skipped.
func LinkDomains(profile *social.Profile) []string {
	if profile == nil {
		return nil
	}
	links := append([]string{profile.ExternalURL}, profile.BioLinks...)
	seen := make(map[string]struct{})
	var out []string
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if !strings.Contains(l, "://") {
			l = "https://" + l
		}
		u, err := url.Parse(l)
		if err != nil || u.Hostname() == "" {
			continue
		}
		domain, err := publicsuffix.Domain(strings.ToLower(u.Hostname()))
		if err != nil {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}
