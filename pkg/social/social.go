package social

import (
	"context"
	"errors"
	"time"
)

// DefaultFullName is shown for accounts that have no full name set.
const DefaultFullName = "No name"

// ErrNotAuthenticated is returned by providers used before Authenticate succeeded.
var ErrNotAuthenticated = errors.New("not authenticated, please login first")

// UserRecord is the identity projection of an account, built once at the provider boundary.
type UserRecord struct {
	ID            string
	Username      string
	FullName      string
	IsVerified    bool
	FollowerCount int
}

// DisplayName returns the full name or DefaultFullName when the account has none.
func (u UserRecord) DisplayName() string {
	if u.FullName == "" {
		return DefaultFullName
	}
	return u.FullName
}

// Relationships maps user ids to accounts. Used for both followers and following.
type Relationships map[string]UserRecord

// IDs returns the keys of r.
func (r Relationships) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

// Post is a single piece of media published by the account.
type Post struct {
	ID           string    `json:"id" yaml:"id"`
	Code         string    `json:"code" yaml:"code"`
	Caption      string    `json:"caption" yaml:"caption"`
	LikeCount    int       `json:"like_count" yaml:"like_count"`
	CommentCount int       `json:"comment_count" yaml:"comment_count"`
	TakenAt      time.Time `json:"taken_at" yaml:"taken_at"`
}

// Engagement is likes plus comments.
func (p Post) Engagement() int {
	return p.LikeCount + p.CommentCount
}

// Comment is a comment left on a post. User is nil when the platform omitted the author.
type Comment struct {
	ID   string
	Text string
	User *UserRecord
}

// Profile holds public profile information and counters.
type Profile struct {
	ID             string   `json:"id" yaml:"id"`
	Username       string   `json:"username" yaml:"username"`
	FullName       string   `json:"full_name" yaml:"full_name"`
	Biography      string   `json:"biography" yaml:"biography"`
	ExternalURL    string   `json:"external_url" yaml:"external_url"`
	BioLinks       []string `json:"bio_links,omitempty" yaml:"bio_links,omitempty"`
	FollowerCount  int      `json:"follower_count" yaml:"follower_count"`
	FollowingCount int      `json:"following_count" yaml:"following_count"`
	MediaCount     int      `json:"media_count" yaml:"media_count"`
	IsPrivate      bool     `json:"is_private" yaml:"is_private"`
	IsVerified     bool     `json:"is_verified" yaml:"is_verified"`
}

// AuthConfig carries optional authentication inputs.
type AuthConfig struct {
	Username  string
	Password  string
	SessionID string
	// OTPSecret answers two-factor challenges with a TOTP code.
	OTPSecret string
	Proxy     string
}

// Provider abstracts the social platform: authentication and raw data retrieval.
// It is passed explicitly to the code that needs it; there is no package-level client.
type Provider interface {
	Name() string
	// Authenticate logs in with cfg. Providers that don't require auth should return nil.
	Authenticate(ctx context.Context, cfg AuthConfig) error
	// Account returns the handle of the authenticated account.
	Account() string
	Followers(ctx context.Context) (Relationships, error)
	Following(ctx context.Context) (Relationships, error)
	Posts(ctx context.Context, amount int) ([]Post, error)
	// Profile returns profile info for username, or for the authenticated account when empty.
	Profile(ctx context.Context, username string) (*Profile, error)
	Likers(ctx context.Context, postID string) ([]UserRecord, error)
	Comments(ctx context.Context, postID string) ([]Comment, error)
	Logout(ctx context.Context) error
}
