package instagram

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/tidwall/gjson"
)

func parseUser(u gjson.Result) social.UserRecord {
	id := u.Get("pk").String()
	if id == "" {
		id = u.Get("id").String()
	}
	return social.UserRecord{
		ID:            id,
		Username:      u.Get("username").Str,
		FullName:      u.Get("full_name").Str,
		IsVerified:    u.Get("is_verified").Bool(),
		FollowerCount: int(u.Get("follower_count").Int()),
	}
}

// relationships walks every page of a friendships endpoint.
func (p *Provider) relationships(ctx context.Context, kind string) (social.Relationships, error) {
	out := social.Relationships{}
	if err := p.checkLogin(); err != nil {
		return out, err
	}

	maxID := ""
	seen := map[string]bool{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("count", strconv.Itoa(PAGE_SIZE))
		if maxID != "" {
			q.Set("max_id", maxID)
		}
		res, err := p.get(ctx, kind, fmt.Sprintf("%s/friendships/%s/%s/?%s", p.apiURL, p.userID, kind, q.Encode()))
		if err != nil {
			return social.Relationships{}, err
		}
		for _, u := range gjson.Get(res, "users").Array() {
			rec := parseUser(u)
			if rec.ID == "" {
				continue
			}
			out[rec.ID] = rec
		}
		utils.Log.Debugf("%s page %d: %d accounts so far", kind, page, len(out))

		maxID = gjson.Get(res, "next_max_id").String()
		if maxID == "" {
			return out, nil
		}
		if seen[maxID] {
			return social.Relationships{}, fmt.Errorf("%s pagination repeated cursor %q on page %d", kind, maxID, page)
		}
		seen[maxID] = true
	}
}

func (p *Provider) Followers(ctx context.Context) (social.Relationships, error) {
	return p.relationships(ctx, "followers")
}

func (p *Provider) Following(ctx context.Context) (social.Relationships, error) {
	return p.relationships(ctx, "following")
}

// Posts returns up to amount of the account's most recent posts.
func (p *Provider) Posts(ctx context.Context, amount int) ([]social.Post, error) {
	posts := []social.Post{}
	if err := p.checkLogin(); err != nil {
		return posts, err
	}

	maxID := ""
	for len(posts) < amount {
		q := url.Values{}
		if maxID != "" {
			q.Set("max_id", maxID)
		}
		res, err := p.get(ctx, "posts", fmt.Sprintf("%s/feed/user/%s/?%s", p.apiURL, p.userID, q.Encode()))
		if err != nil {
			return []social.Post{}, err
		}
		for _, item := range gjson.Get(res, "items").Array() {
			if len(posts) == amount {
				break
			}
			posts = append(posts, social.Post{
				ID:           item.Get("id").String(),
				Code:         item.Get("code").Str,
				Caption:      item.Get("caption.text").Str,
				LikeCount:    int(item.Get("like_count").Int()),
				CommentCount: int(item.Get("comment_count").Int()),
				TakenAt:      time.Unix(item.Get("taken_at").Int(), 0),
			})
		}
		if !gjson.Get(res, "more_available").Bool() {
			break
		}
		maxID = gjson.Get(res, "next_max_id").String()
		if maxID == "" {
			break
		}
	}
	return posts, nil
}

// Profile fetches public profile info. An empty username selects the logged-in account.
func (p *Provider) Profile(ctx context.Context, username string) (*social.Profile, error) {
	if err := p.checkLogin(); err != nil {
		return nil, err
	}
	if username == "" {
		username = p.username
	}
	res, err := p.get(ctx, "profile", p.apiURL+"/users/web_profile_info/?username="+url.QueryEscape(username))
	if err != nil {
		return nil, err
	}
	user := gjson.Get(res, "data.user")
	if !user.Exists() {
		return nil, fmt.Errorf("profile: user %s not found", username)
	}

	profile := &social.Profile{
		ID:             user.Get("id").String(),
		Username:       user.Get("username").Str,
		FullName:       user.Get("full_name").Str,
		Biography:      user.Get("biography").Str,
		ExternalURL:    user.Get("external_url").Str,
		FollowerCount:  int(user.Get("edge_followed_by.count").Int()),
		FollowingCount: int(user.Get("edge_follow.count").Int()),
		MediaCount:     int(user.Get("edge_owner_to_timeline_media.count").Int()),
		IsPrivate:      user.Get("is_private").Bool(),
		IsVerified:     user.Get("is_verified").Bool(),
	}
	for _, link := range user.Get("bio_links.#.url").Array() {
		profile.BioLinks = append(profile.BioLinks, link.Str)
	}
	return profile, nil
}

func (p *Provider) Likers(ctx context.Context, postID string) ([]social.UserRecord, error) {
	users := []social.UserRecord{}
	if err := p.checkLogin(); err != nil {
		return users, err
	}
	res, err := p.get(ctx, "likers", fmt.Sprintf("%s/media/%s/likers/", p.apiURL, url.PathEscape(postID)))
	if err != nil {
		return []social.UserRecord{}, err
	}
	for _, u := range gjson.Get(res, "users").Array() {
		users = append(users, parseUser(u))
	}
	return users, nil
}

func (p *Provider) Comments(ctx context.Context, postID string) ([]social.Comment, error) {
	comments := []social.Comment{}
	if err := p.checkLogin(); err != nil {
		return comments, err
	}

	minID := ""
	for {
		q := url.Values{}
		if minID != "" {
			q.Set("min_id", minID)
		}
		res, err := p.get(ctx, "comments", fmt.Sprintf("%s/media/%s/comments/?%s", p.apiURL, url.PathEscape(postID), q.Encode()))
		if err != nil {
			return []social.Comment{}, err
		}
		for _, c := range gjson.Get(res, "comments").Array() {
			comment := social.Comment{ID: c.Get("pk").String(), Text: c.Get("text").Str}
			if u := c.Get("user"); u.Exists() && u.Type != gjson.Null {
				rec := parseUser(u)
				comment.User = &rec
			}
			comments = append(comments, comment)
		}
		minID = gjson.Get(res, "next_min_id").String()
		if minID == "" {
			return comments, nil
		}
	}
}
