package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/otp"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/tidwall/gjson"
)

var csrfPattern = regexp.MustCompile(`"csrf_token"\s*:\s*"([^"]+)"`)

// Authenticate logs in with a session cookie when one is given, otherwise with username and password.
func (p *Provider) Authenticate(ctx context.Context, cfg social.AuthConfig) error {
	if cfg.Proxy != "" {
		if err := p.setProxy(cfg.Proxy); err != nil {
			return err
		}
	}

	switch {
	case cfg.SessionID != "":
		u, _ := url.Parse(p.webURL)
		p.client.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: cfg.SessionID, Path: "/"}})
		utils.Log.Debug("Using provided session id")
	case cfg.Username != "" && cfg.Password != "":
		if err := p.login(ctx, cfg.Username, cfg.Password, cfg.OTPSecret); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: username and password or a session id are required", social.ErrNotAuthenticated)
	}

	return p.loadCurrentUser(ctx)
}

func (p *Provider) login(ctx context.Context, username, password, otpSecret string) error {
	loginPage := p.webURL + "/accounts/login/"
	body, err := p.get(ctx, "login_page", loginPage)
	if err != nil {
		return fmt.Errorf("%w: %v", errLoginFailed, err)
	}

	token := p.cookie(p.webURL, "csrftoken")
	if token == "" {
		token = csrfFromHTML(body)
	}
	if token == "" {
		return fmt.Errorf("%w: csrf token not found", errLoginFailed)
	}
	u, _ := url.Parse(p.webURL)
	p.client.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: token, Path: "/"}})

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")

	res, err := p.postForm(ctx, "login", p.webURL+"/api/v1/web/accounts/login/ajax/", form, loginPage)
	if err != nil {
		return fmt.Errorf("%w: %v", errLoginFailed, err)
	}
	if gjson.Get(res, "two_factor_required").Bool() {
		if otpSecret == "" {
			return fmt.Errorf("%w: two factor authentication is required, set instagram.otpsecret or use a session id", errLoginFailed)
		}
		res, err = p.twoFactor(ctx, username, gjson.Get(res, "two_factor_info.two_factor_identifier").String(), otpSecret, loginPage)
		if err != nil {
			return fmt.Errorf("%w: %v", errLoginFailed, err)
		}
	}
	if !gjson.Get(res, "authenticated").Bool() {
		return fmt.Errorf("%w: wrong credentials for %s", errLoginFailed, username)
	}
	utils.Log.Info("Logged in as ", username)
	return nil
}

func (p *Provider) twoFactor(ctx context.Context, username, identifier, secret, referer string) (string, error) {
	code, err := otp.Code(secret, time.Now())
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("username", username)
	form.Set("identifier", identifier)
	form.Set("verificationCode", code)
	// 3 = authenticator app
	form.Set("verification_method", "3")
	form.Set("queryParams", "{}")
	utils.Log.Debug("Answering two factor challenge")
	return p.postForm(ctx, "login_two_factor", p.webURL+"/api/v1/web/accounts/login/ajax/two_factor/", form, referer)
}

// csrfFromHTML pulls the csrf token out of the inline config script of the login page.
func csrfFromHTML(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		utils.Log.Debugf("failed to parse login HTML: %v", err)
		return ""
	}
	token := ""
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if m := csrfPattern.FindStringSubmatch(s.Text()); m != nil {
			token = m[1]
			return false
		}
		return true
	})
	if token == "" {
		doc.Find("input[name=csrfmiddlewaretoken]").Each(func(i int, s *goquery.Selection) {
			if v, ok := s.Attr("value"); ok {
				token = v
			}
		})
	}
	return token
}

func (p *Provider) loadCurrentUser(ctx context.Context) error {
	res, err := p.get(ctx, "current_user", p.apiURL+"/accounts/current_user/?edit=true")
	if err != nil {
		return err
	}
	user := gjson.Get(res, "user")
	id := user.Get("pk").String()
	if id == "" {
		id = user.Get("pk_id").String()
	}
	if id == "" {
		return fmt.Errorf("%w: no user in current_user response", social.ErrNotAuthenticated)
	}
	p.userID = id
	p.username = user.Get("username").Str
	utils.Log.Debugf("Authenticated as %s (%s)", p.username, p.userID)
	return nil
}

// Logout ends the web session. Sessions that were never opened are a no-op.
func (p *Provider) Logout(ctx context.Context) error {
	if p.userID == "" {
		return nil
	}
	form := url.Values{}
	form.Set("one_tap_app_login", "0")
	form.Set("user_id", p.userID)
	_, err := p.postForm(ctx, "logout", p.webURL+"/api/v1/web/accounts/logout/ajax/", form, p.webURL+"/")
	p.userID = ""
	return err
}
