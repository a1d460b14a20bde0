package auth

import (
	"errors"
	"net/url"
	"regexp"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

var (
	kcContextRe    = regexp.MustCompile(`window\.kcContext\s*=\s*\(\(\)\s*=>\s*\{([\s\S]*?)\}\s*\)\s*\(\)\s*;`)
	outObjectRe    = regexp.MustCompile(`const out\s*=\s*(\{[\s\S]*?\})\s*;`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

// LoginContext holds the values scraped from the login page that the form
// submission needs. It is only valid for the login attempt that produced it.
type LoginContext struct {
	ActionURL   *url.URL
	SessionCode string
	Execution   string
	ClientID    string
	TabID       string
}

// SubmitURL returns the action path with exactly the four session parameters as query.
func (lc LoginContext) SubmitURL() string {
	u := *lc.ActionURL
	q := url.Values{}
	q.Set("session_code", lc.SessionCode)
	q.Set("execution", lc.Execution)
	q.Set("client_id", lc.ClientID)
	q.Set("tab_id", lc.TabID)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// ParseLoginContext extracts the login form action from the kcContext object
// embedded in the login page.
func ParseLoginContext(html string) (LoginContext, error) {
	script := kcContextRe.FindStringSubmatch(html)
	if script == nil {
		return LoginContext{}, &ParseError{Reason: "kcContext script block not found"}
	}

	out := outObjectRe.FindStringSubmatch(script[1])
	if out == nil {
		return LoginContext{}, &ParseError{Reason: "kcContext object literal not found"}
	}

	var kcContext map[string]any
	if err := json5.Unmarshal([]byte(RelaxedObjectLiteralToJSON(out[1])), &kcContext); err != nil {
		return LoginContext{}, &ParseError{Reason: "invalid kcContext object", Err: err}
	}

	urls, _ := kcContext["url"].(map[string]any)
	loginAction, _ := urls["loginAction"].(string)
	if loginAction == "" {
		return LoginContext{}, &ParseError{Reason: "url.loginAction missing"}
	}

	action, err := url.Parse(loginAction)
	if err != nil {
		return LoginContext{}, &ParseError{Reason: "invalid url.loginAction", Err: err}
	}
	if action.Scheme == "" || action.Host == "" {
		return LoginContext{}, &ParseError{Reason: "url.loginAction is not absolute", Err: errors.New(loginAction)}
	}

	query := action.Query()
	base := &url.URL{Scheme: action.Scheme, Host: action.Host, Path: action.Path}

	return LoginContext{
		ActionURL:   base,
		SessionCode: query.Get("session_code"),
		Execution:   query.Get("execution"),
		ClientID:    query.Get("client_id"),
		TabID:       query.Get("tab_id"),
	}, nil
}

// RelaxedObjectLiteralToJSON strips block comments and trailing commas from a
// JavaScript object literal so a lenient JSON parser can read it.
func RelaxedObjectLiteralToJSON(text string) string {
	text = blockCommentRe.ReplaceAllString(text, "")
	return trailingComma.ReplaceAllString(text, "$1")
}
