package instagram

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/followscope/internal/metrics"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// APP_ID is the internal id of the Instagram web app. It doesn't change often.
	APP_ID    = "936619743392459"
	WEB_URL   = "https://www.instagram.com"
	API_URL   = "https://i.instagram.com/api/v1"
	PAGE_SIZE = 200
)

// Options tunes the HTTP behaviour of the provider. Zero values select defaults.
type Options struct {
	WebURL   string
	APIURL   string
	DelayMin time.Duration
	DelayMax time.Duration
	RPS      float64
	Burst    int
	RetryMax int
	// RetryWaitMin/Max bound retryablehttp's backoff.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Provider talks to Instagram's web and private APIs with a logged-in session.
type Provider struct {
	webURL   string
	apiURL   string
	client   *retryablehttp.Client
	limiter  *rate.Limiter
	delayMin time.Duration
	delayMax time.Duration

	username string
	userID   string
}

// NewProvider builds an unauthenticated provider.
func NewProvider(opts Options) (*Provider, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = 5
	if opts.RetryMax > 0 {
		client.RetryMax = opts.RetryMax
	}
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.HTTPClient.Jar = jar
	client.HTTPClient.Timeout = 30 * time.Second

	p := &Provider{
		webURL:   strings.TrimSuffix(opts.WebURL, "/"),
		apiURL:   strings.TrimSuffix(opts.APIURL, "/"),
		client:   client,
		delayMin: opts.DelayMin,
		delayMax: opts.DelayMax,
	}
	if p.webURL == "" {
		p.webURL = WEB_URL
	}
	if p.apiURL == "" {
		p.apiURL = API_URL
	}
	if p.delayMax < p.delayMin {
		p.delayMax = p.delayMin
	}

	rps, burst := 0.5, 1
	if opts.RPS > 0 {
		rps = opts.RPS
	}
	if opts.Burst > 0 {
		burst = opts.Burst
	}
	p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return p, nil
}

func (p *Provider) Name() string { return "instagram" }

func (p *Provider) Account() string { return p.username }

func (p *Provider) setProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %v", err)
	}
	p.client.HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return nil
}

func (p *Provider) checkLogin() error {
	if p.userID == "" {
		return social.ErrNotAuthenticated
	}
	return nil
}

// pace waits for the rate limiter and then a random delay in [delayMin, delayMax].
func (p *Provider) pace(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	d := p.delayMin
	if span := p.delayMax - p.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Provider) cookie(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, c := range p.client.HTTPClient.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (p *Provider) setHeaders(req *retryablehttp.Request) {
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("X-IG-App-ID", APP_ID)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if token := p.cookie(p.webURL, "csrftoken"); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}
}

// do sends req and returns the body of a successful response.
func (p *Provider) do(ctx context.Context, endpoint string, req *retryablehttp.Request) (string, error) {
	if err := p.pace(ctx); err != nil {
		return "", err
	}
	p.setHeaders(req)
	metrics.IncProviderRequest(endpoint)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%s: %w (status %d)", endpoint, social.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg := gjson.Get(string(body), "message").Str
		return "", fmt.Errorf("%s: unexpected status %d %s", endpoint, resp.StatusCode, msg)
	}
	if gjson.Get(string(body), "status").Str == "fail" {
		return "", fmt.Errorf("%s: %s", endpoint, gjson.Get(string(body), "message").Str)
	}
	return string(body), nil
}

func (p *Provider) get(ctx context.Context, endpoint, rawURL string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	utils.Log.Debugf("GET %s", rawURL)
	return p.do(ctx, endpoint, req)
}

func (p *Provider) postForm(ctx context.Context, endpoint, rawURL string, form url.Values, referer string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	utils.Log.Debugf("POST %s", rawURL)
	return p.do(ctx, endpoint, req)
}

var errLoginFailed = errors.New("login failed")
