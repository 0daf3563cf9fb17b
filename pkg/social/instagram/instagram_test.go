package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sw33tLie/followscope/pkg/otp"
	"github.com/sw33tLie/followscope/pkg/social"
)

func newTestProvider(t *testing.T, mux *http.ServeMux) *Provider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := NewProvider(Options{
		WebURL:   srv.URL,
		APIURL:   srv.URL + "/api/v1",
		RPS:      1000,
		Burst:    100,
		RetryMax: 1,
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func currentUserHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-IG-App-ID") != APP_ID {
			t.Errorf("missing app id header")
		}
		c, err := r.Cookie("sessionid")
		if err != nil || c.Value != "s3ss10n" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"status":"ok","user":{"pk":42,"username":"me"}}`)
	}
}

func TestAuthenticateWithSessionID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/current_user/", currentUserHandler(t))
	p := newTestProvider(t, mux)

	if err := p.Authenticate(context.Background(), social.AuthConfig{SessionID: "s3ss10n"}); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Account() != "me" || p.userID != "42" {
		t.Fatalf("unexpected account %q (%q)", p.Account(), p.userID)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/current_user/", currentUserHandler(t))
	p := newTestProvider(t, mux)

	err := p.Authenticate(context.Background(), social.AuthConfig{SessionID: "expired"})
	if !errors.Is(err, social.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := p.Authenticate(context.Background(), social.AuthConfig{}); !errors.Is(err, social.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated without credentials, got %v", err)
	}
}

func TestAuthenticateWithPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><script type="text/javascript">window._sharedData = {"config":{"csrf_token":"tok123"}};</script></body></html>`)
	})
	mux.HandleFunc("/api/v1/web/accounts/login/ajax/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-CSRFToken") != "tok123" {
			t.Errorf("unexpected csrf header %q", r.Header.Get("X-CSRFToken"))
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("username") != "me" || !strings.HasPrefix(r.Form.Get("enc_password"), "#PWD_INSTAGRAM_BROWSER:0:") ||
			!strings.HasSuffix(r.Form.Get("enc_password"), ":hunter2") {
			fmt.Fprint(w, `{"authenticated":false,"status":"ok"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s3ss10n", Path: "/"})
		fmt.Fprint(w, `{"authenticated":true,"status":"ok"}`)
	})
	mux.HandleFunc("/api/v1/accounts/current_user/", currentUserHandler(t))
	p := newTestProvider(t, mux)

	if err := p.Authenticate(context.Background(), social.AuthConfig{Username: "me", Password: "wrong"}); !errors.Is(err, errLoginFailed) {
		t.Fatalf("expected login failure, got %v", err)
	}
	if err := p.Authenticate(context.Background(), social.AuthConfig{Username: "me", Password: "hunter2"}); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Account() != "me" {
		t.Fatalf("unexpected account %q", p.Account())
	}
}

func TestTwoFactorRequired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
		fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/api/v1/web/accounts/login/ajax/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"two_factor_required":true,"status":"ok"}`)
	})
	p := newTestProvider(t, mux)

	err := p.Authenticate(context.Background(), social.AuthConfig{Username: "me", Password: "pw"})
	if err == nil || !strings.Contains(err.Error(), "two factor") {
		t.Fatalf("expected two factor error, got %v", err)
	}
}

func TestTwoFactorWithOTPSecret(t *testing.T) {
	const secret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok", Path: "/"})
		fmt.Fprint(w, `<html></html>`)
	})
	mux.HandleFunc("/api/v1/web/accounts/login/ajax/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"two_factor_required":true,"two_factor_info":{"two_factor_identifier":"ident-1"},"status":"ok"}`)
	})
	mux.HandleFunc("/api/v1/web/accounts/login/ajax/two_factor/", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		now := time.Now()
		current, _ := otp.Code(secret, now)
		previous, _ := otp.Code(secret, now.Add(-30*time.Second))
		code := r.Form.Get("verificationCode")
		if r.Form.Get("identifier") != "ident-1" || (code != current && code != previous) {
			fmt.Fprint(w, `{"authenticated":false,"status":"ok"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s3ss10n", Path: "/"})
		fmt.Fprint(w, `{"authenticated":true,"status":"ok"}`)
	})
	mux.HandleFunc("/api/v1/accounts/current_user/", currentUserHandler(t))
	p := newTestProvider(t, mux)

	err := p.Authenticate(context.Background(), social.AuthConfig{Username: "me", Password: "pw", OTPSecret: secret})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Account() != "me" {
		t.Fatalf("unexpected account %q", p.Account())
	}
}

func authenticated(t *testing.T, mux *http.ServeMux) *Provider {
	t.Helper()
	mux.HandleFunc("/api/v1/accounts/current_user/", currentUserHandler(t))
	p := newTestProvider(t, mux)
	if err := p.Authenticate(context.Background(), social.AuthConfig{SessionID: "s3ss10n"}); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return p
}

func TestFollowersPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/friendships/42/followers/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("count") != "200" {
			t.Errorf("unexpected page size %q", r.URL.Query().Get("count"))
		}
		switch r.URL.Query().Get("max_id") {
		case "":
			fmt.Fprint(w, `{"status":"ok","next_max_id":"p2","users":[
				{"pk":1,"username":"alice","full_name":"Alice","is_verified":true},
				{"pk":2,"username":"bob","full_name":""}]}`)
		case "p2":
			fmt.Fprint(w, `{"status":"ok","users":[{"pk":3,"username":"carol","full_name":"Carol"}]}`)
		default:
			t.Errorf("unexpected max_id %q", r.URL.Query().Get("max_id"))
		}
	})
	p := authenticated(t, mux)

	got, err := p.Followers(context.Background())
	if err != nil {
		t.Fatalf("Followers: %v", err)
	}
	expect := social.Relationships{
		"1": {ID: "1", Username: "alice", FullName: "Alice", IsVerified: true},
		"2": {ID: "2", Username: "bob"},
		"3": {ID: "3", Username: "carol", FullName: "Carol"},
	}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("want %v, got %v", expect, got)
	}
}

func TestFollowingFailureIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/friendships/42/following/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"fail","message":"checkpoint_required"}`)
	})
	p := authenticated(t, mux)

	got, err := p.Following(context.Background())
	if err == nil || !strings.Contains(err.Error(), "checkpoint_required") {
		t.Fatalf("expected checkpoint error, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("failed fetch must return an empty map, got %v", got)
	}
}

func TestFollowersRepeatedCursor(t *testing.T) {
	mux := http.NewServeMux()
	calls := 0
	mux.HandleFunc("/api/v1/friendships/42/followers/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 5 {
			t.Errorf("pagination did not stop after %d pages", calls)
			fmt.Fprint(w, `{"status":"ok","users":[]}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok","next_max_id":"p2","users":[{"pk":1,"username":"alice"}]}`)
	})
	p := authenticated(t, mux)

	got, err := p.Followers(context.Background())
	if err == nil || !strings.Contains(err.Error(), "repeated cursor") {
		t.Fatalf("expected repeated cursor error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("failed fetch must return an empty map, got %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
}

func TestNotAuthenticated(t *testing.T) {
	p := newTestProvider(t, http.NewServeMux())
	if _, err := p.Followers(context.Background()); !errors.Is(err, social.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := p.Profile(context.Background(), "x"); !errors.Is(err, social.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("Logout without session: %v", err)
	}
}

func TestProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/web_profile_info/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "me" {
			t.Errorf("unexpected username %q", r.URL.Query().Get("username"))
		}
		fmt.Fprint(w, `{"status":"ok","data":{"user":{
			"id":"42","username":"me","full_name":"Me Myself","biography":"hello",
			"external_url":"https://example.com","bio_links":[{"url":"https://shop.example.com"}],
			"edge_followed_by":{"count":10},"edge_follow":{"count":20},
			"edge_owner_to_timeline_media":{"count":3},"is_private":true,"is_verified":false}}}`)
	})
	p := authenticated(t, mux)

	got, err := p.Profile(context.Background(), "")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	expect := &social.Profile{
		ID: "42", Username: "me", FullName: "Me Myself", Biography: "hello",
		ExternalURL: "https://example.com", BioLinks: []string{"https://shop.example.com"},
		FollowerCount: 10, FollowingCount: 20, MediaCount: 3, IsPrivate: true,
	}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("want %+v, got %+v", expect, got)
	}
}

func TestPostsLikersComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/feed/user/42/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","more_available":true,"next_max_id":"x","items":[
			{"id":"p1","code":"C1","caption":{"text":"first"},"like_count":5,"comment_count":1,"taken_at":1700000000},
			{"id":"p2","code":"C2","caption":null,"like_count":2,"comment_count":0,"taken_at":1700000100}]}`)
	})
	mux.HandleFunc("/api/v1/media/p1/likers/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","users":[{"pk":1,"username":"alice"}]}`)
	})
	mux.HandleFunc("/api/v1/media/p1/comments/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("min_id") == "" {
			fmt.Fprint(w, `{"status":"ok","next_min_id":"m2","comments":[{"pk":9,"text":"nice","user":{"pk":1,"username":"alice"}}]}`)
			return
		}
		fmt.Fprint(w, `{"status":"ok","comments":[{"pk":10,"text":"?","user":null}]}`)
	})
	p := authenticated(t, mux)

	posts, err := p.Posts(context.Background(), 1)
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "p1" || posts[0].Caption != "first" || posts[0].Engagement() != 6 {
		t.Fatalf("unexpected posts %+v", posts)
	}

	likers, err := p.Likers(context.Background(), "p1")
	if err != nil || len(likers) != 1 || likers[0].Username != "alice" {
		t.Fatalf("unexpected likers %v (%v)", likers, err)
	}

	comments, err := p.Comments(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if len(comments) != 2 || comments[0].User == nil || comments[0].User.ID != "1" || comments[1].User != nil {
		t.Fatalf("unexpected comments %+v", comments)
	}
}
