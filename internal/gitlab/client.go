// Package gitlab implements the authenticated, paginated client for the
// upstream GitLab REST API. It isolates network and protocol errors from the
// rest of the system.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultPageSize is the fixed per_page value for list requests.
	DefaultPageSize = 100
	// MaxPages caps pagination at 20 pages (~2000 records) per call.
	MaxPages = 20

	apiPrefix      = "/api/v4"
	requestTimeout = 30 * time.Second
)

// TransportError is any network or HTTP failure talking to GitLab. Status is
// the HTTP status code, or 0 when the request never got a response.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch e.Status {
	case http.StatusUnauthorized:
		return fmt.Sprintf("gitlab: %s: authentication failed, check your access token", e.Op)
	case http.StatusForbidden:
		return fmt.Sprintf("gitlab: %s: access forbidden, token lacks sufficient permissions", e.Op)
	case http.StatusNotFound:
		return fmt.Sprintf("gitlab: %s: resource not found", e.Op)
	case 0:
		return fmt.Sprintf("gitlab: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("gitlab: %s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthFailure reports whether the error was an authentication or
// authorization rejection.
func (e *TransportError) AuthFailure() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Client is an authenticated GitLab API client. A single static bearer token
// is attached to every request; there is no refresh and no retry beyond the
// pagination loop.
type Client struct {
	baseURL  string
	httpc    *http.Client
	pageSize int
	maxPages int
	logf     func(format string, args ...interface{})
}

// New returns a Client for the GitLab instance at baseURL.
func New(baseURL, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpc := oauth2.NewClient(context.Background(), src)
	httpc.Timeout = requestTimeout

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    httpc,
		pageSize: DefaultPageSize,
		maxPages: MaxPages,
		logf:     log.Printf,
	}
}

// BaseURL returns the configured GitLab instance URL.
func (c *Client) BaseURL() string { return c.baseURL }

// getJSON performs one GET against an API path and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			Op:     path,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// fetchPage fetches one page of a list endpoint as raw records.
func (c *Client) fetchPage(ctx context.Context, path string, params url.Values, page, perPage int) ([]json.RawMessage, error) {
	p := url.Values{}
	for k, vs := range params {
		p[k] = vs
	}
	p.Set("page", strconv.Itoa(page))
	p.Set("per_page", strconv.Itoa(perPage))

	var records []json.RawMessage
	if err := c.getJSON(ctx, path, p, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// fetchAll depaginates a list endpoint. Stop conditions, in order: an empty
// or short page, maxItems reached (result truncated to exactly maxItems, 0
// means unlimited), or the MaxPages ceiling. A transport failure after page 1
// succeeded terminates pagination and returns the partial accumulation with a
// warning rather than an error; a failure on page 1 is an error.
func (c *Client) fetchAll(ctx context.Context, path string, params url.Values, maxItems int) ([]json.RawMessage, error) {
	var all []json.RawMessage

	for page := 1; ; page++ {
		records, err := c.fetchPage(ctx, path, params, page, c.pageSize)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			c.logf("gitlab: %s: page %d failed, returning %d records fetched so far: %v", path, page, len(all), err)
			return all, nil
		}

		if len(records) == 0 {
			break
		}
		all = append(all, records...)

		if maxItems > 0 && len(all) >= maxItems {
			all = all[:maxItems]
			break
		}
		if len(records) < c.pageSize {
			break
		}
		if page >= c.maxPages {
			c.logf("gitlab: %s: reached page ceiling (%d pages), result truncated", path, c.maxPages)
			break
		}
	}

	return all, nil
}

// TestConnection verifies the credentials against the identity endpoint and
// returns the authenticated user's display name.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var user struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if err := c.getJSON(ctx, "/user", nil, &user); err != nil {
		return "", err
	}
	if user.Name != "" {
		return user.Name, nil
	}
	return user.Username, nil
}
