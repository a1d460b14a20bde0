// Package portal fetches project records from the portal REST API.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/j-veylop/exon-report/internal/auth"
	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/table"
)

const defaultTimeout = 30 * time.Second

// Headers the portal's web client sends with every API call.
var browserHeaders = map[string]string{
	"User-Agent":      auth.UserAgent,
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Site":  "same-origin",
	"Pragma":          "no-cache",
	"Cache-Control":   "no-cache",
}

// Config holds client settings.
type Config struct {
	// Transport overrides the HTTP transport; nil uses http.DefaultTransport.
	Transport http.RoundTripper
	BaseURL   string
	Timeout   time.Duration
}

// Client calls the portal API with a bearer token.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client authorized with token.
func New(cfg Config, token string) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   cfg.Transport,
			},
		},
	}
}

// Fetch retrieves the records of the named catalog endpoint for projectID.
// An error status from the portal yields an empty row-set; transport and
// decoding failures are returned.
func (c *Client) Fetch(ctx context.Context, name, projectID string, extra url.Values) (table.Rows, error) {
	ep, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}

	status, body, err := c.do(ctx, http.MethodGet, ep.URL(c.baseURL, projectID, extra), nil, ep.referer(c.baseURL, projectID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	if !isSuccess(status) {
		logger.Warn("portal returned an error status, using empty result",
			"endpoint", name, "status", status, "body", snippet(body))
		return table.Rows{}, nil
	}

	rows, err := table.DecodeRows(body, ep.ItemsField)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	logger.Debug("fetched records", "endpoint", name, "rows", len(rows))
	return rows, nil
}

// do sends one request and returns the status and full body. A non-nil
// payload is sent as JSON.
func (c *Client) do(ctx context.Context, method, rawURL string, payload any, referer string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
