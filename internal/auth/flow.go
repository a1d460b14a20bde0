// Package auth acquires portal bearer tokens by driving the Keycloak
// authorization-code login with PKCE, caching the result in a Store.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
)

// UserAgent is sent on every portal request; the portal serves browsers only.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0"

const (
	defaultRealm    = "SpringBoot"
	defaultClientID = "ExonReactApp"
	defaultTimeout  = 30 * time.Second
)

var defaultScopes = []string{"email", "roles", "profile", "offline_access"}

// Config describes the portal login. Credentials are passed in explicitly
// rather than read from the environment.
type Config struct {
	// Transport overrides the HTTP transport; nil uses http.DefaultTransport.
	Transport   http.RoundTripper
	BaseURL     string
	Realm       string
	ClientID    string
	RedirectURI string
	Username    string
	Password    string
	Scopes      []string
	Timeout     time.Duration
}

// DefaultConfig returns the portal's fixed client settings for baseURL.
func DefaultConfig(baseURL string) Config {
	baseURL = strings.TrimRight(baseURL, "/")
	return Config{
		BaseURL:     baseURL,
		Realm:       defaultRealm,
		ClientID:    defaultClientID,
		RedirectURI: baseURL + "/callback",
		Scopes:      defaultScopes,
		Timeout:     defaultTimeout,
	}
}

func (c Config) endpoint() oauth2.Endpoint {
	base := c.BaseURL + "/auth/realms/" + c.Realm + "/protocol/openid-connect"
	return oauth2.Endpoint{
		AuthURL:   base + "/auth",
		TokenURL:  base + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// Flow acquires access tokens, reusing the stored one while it is valid.
type Flow struct {
	store  Store
	client *http.Client
	now    func() time.Time
	oauth  oauth2.Config
	cfg    Config
}

// NewFlow creates a flow. A nil store disables token persistence.
func NewFlow(cfg Config, store Store) (*Flow, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Flow{
		cfg:   cfg,
		store: store,
		now:   time.Now,
		client: &http.Client{
			Transport: cfg.Transport,
			Jar:       jar,
			Timeout:   cfg.Timeout,
		},
		oauth: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint:    cfg.endpoint(),
		},
	}, nil
}

// AcquireToken returns a bearer token for the portal API. A valid stored
// token is returned without any network call; otherwise a full login runs.
// Failures are not retried.
func (f *Flow) AcquireToken(ctx context.Context) (string, error) {
	if token, ok := f.cachedToken(); ok {
		logger.Debug("using stored access token")
		return token, nil
	}
	return f.login(ctx)
}

// cachedToken returns the stored token when it is valid and otherwise
// clears the store. Store problems never reach the caller.
func (f *Flow) cachedToken() (string, bool) {
	if f.store == nil {
		return "", false
	}

	rec, err := f.store.Load()
	switch {
	case err == nil && rec.IsValid(f.now()):
		return rec.AccessToken, true
	case err == nil:
		logger.Info("stored token expired or incomplete, logging in again", "expired_at", rec.ExpiresAt)
	case errors.Is(err, ErrNoToken):
		logger.Debug("no stored token")
	default:
		logger.Warn("discarding unreadable token store", "error", err)
	}

	if err := f.store.Delete(); err != nil {
		logger.Warn("failed to clear token store", "error", err)
	}
	return "", false
}

func (f *Flow) login(ctx context.Context) (string, error) {
	pkce, err := NewChallenge()
	if err != nil {
		return "", err
	}

	page, err := f.fetchLoginPage(ctx, pkce)
	if err != nil {
		return "", err
	}

	lc, err := ParseLoginContext(page)
	if err != nil {
		return "", err
	}

	location, err := f.submitLogin(ctx, lc)
	if err != nil {
		return "", err
	}

	code, sessionState, err := extractCode(location)
	if err != nil {
		return "", err
	}
	logger.Debug("received authorization code", "session_state", sessionState)

	rec, err := f.exchangeCode(ctx, code, pkce.Verifier)
	if err != nil {
		return "", err
	}

	if f.store != nil {
		if err := f.store.Save(rec); err != nil {
			logger.Warn("failed to persist tokens", "error", err)
		}
	}

	logger.Info("authenticated", "expires_at", rec.ExpiresAt.Format(time.RFC3339))
	return rec.AccessToken, nil
}

// fetchLoginPage requests the authorization endpoint and returns the login page HTML.
func (f *Flow) fetchLoginPage(ctx context.Context, pkce Challenge) (string, error) {
	authURL := f.oauth.AuthCodeURL(rand.Text(), oauth2.S256ChallengeOption(pkce.Verifier))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create authorization request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	status, body, err := f.do(req)
	if err != nil {
		return "", fmt.Errorf("authorization request failed: %w", err)
	}
	if status != http.StatusOK {
		logger.Warn("unexpected login page status", "status", status)
	}
	return string(body), nil
}

// submitLogin posts the credentials without following redirects and returns
// the redirect target.
func (f *Flow) submitLogin(ctx context.Context, lc LoginContext) (*url.URL, error) {
	form := url.Values{}
	form.Set("username", f.cfg.Username)
	form.Set("password", f.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lc.SubmitURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noRedirect := *f.client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noRedirect.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusFound {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthenticationError{Stage: "login", Status: resp.StatusCode, Body: string(body)}
	}

	location, err := resp.Location()
	if err != nil {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthenticationError{
			Stage:  "login",
			Status: resp.StatusCode,
			Reason: "redirect without Location header",
			Body:   string(body),
		}
	}
	return location, nil
}

// extractCode reads the authorization code and session state from the redirect target.
func extractCode(location *url.URL) (code, sessionState string, err error) {
	query := location.Query()
	code = query.Get("code")
	if code == "" {
		return "", "", &AuthenticationError{Stage: "login", Reason: "no authorization code in redirect " + location.Redacted()}
	}
	return code, query.Get("session_state"), nil
}

// exchangeCode trades the authorization code and PKCE verifier for tokens.
func (f *Flow) exchangeCode(ctx context.Context, code, verifier string) (models.TokenRecord, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", f.cfg.RedirectURI)
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("client_id", f.cfg.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := f.do(req)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("token request failed: %w", err)
	}

	rec, parseErr := parseTokenResponse(body, f.now())
	if status < 200 || status > 299 {
		if parseErr != nil {
			return models.TokenRecord{}, &AuthenticationError{Stage: "token", Status: status, Body: string(body)}
		}
		logger.Warn("token endpoint returned an error status with a usable token", "status", status)
	}
	if parseErr != nil {
		return models.TokenRecord{}, &AuthenticationError{Stage: "token", Status: status, Reason: parseErr.Error(), Body: string(body)}
	}
	return rec, nil
}

// parseTokenResponse requires access_token, refresh_token and expires_in and
// turns the relative lifetime into an absolute expiry.
func parseTokenResponse(body []byte, now time.Time) (models.TokenRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return models.TokenRecord{}, fmt.Errorf("invalid token response: %w", err)
	}

	access, _ := fields["access_token"].(string)
	if access == "" {
		return models.TokenRecord{}, errors.New("access_token missing from token response")
	}
	refresh, _ := fields["refresh_token"].(string)
	if refresh == "" {
		return models.TokenRecord{}, errors.New("refresh_token missing from token response")
	}

	expiresIn, err := seconds(fields["expires_in"])
	if err != nil {
		return models.TokenRecord{}, err
	}

	return models.TokenRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(expiresIn),
	}, nil
}

func seconds(v any) (time.Duration, error) {
	var raw string
	switch val := v.(type) {
	case nil:
		return 0, errors.New("expires_in missing from token response")
	case json.Number:
		raw = val.String()
	case string:
		raw = val
	default:
		return 0, fmt.Errorf("expires_in has unexpected type %T", v)
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expires_in %q: %w", raw, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// do sends req and returns the status and full body.
func (f *Flow) do(req *http.Request) (int, []byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Error("failed to close response body", "error", err)
	}
}
