// Package fetch provides the HTTP client every feed adapter goes through.
//
// The client performs exactly one request per call. It never retries; retry
// cadence is the poller's concern. Every failure comes back as an *Error
// carrying one of the taxonomy kinds in errors.go.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultTimeout bounds a single request when the caller does not configure one.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

const userAgent = "skydeck/0.3 (https://github.com/abelbrown/skydeck)"

// Client performs GET requests against external data providers.
type Client struct {
	client *http.Client
}

// NewClient creates a Client with the given per-request timeout.
// A non-positive timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP wraps an existing http.Client (used by tests and by
// callers that need a custom transport).
func NewClientWithHTTP(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{client: hc}
}

// GetJSON fetches rawURL with query merged in and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	body, err := c.GetRaw(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindParse, URL: rawURL, Err: errors.Wrap(err, "decode json")}
	}
	return nil
}

// GetRaw fetches rawURL with query merged in and returns the body bytes.
// Non-2xx statuses are returned as KindHTTP errors.
func (c *Client) GetRaw(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, &Error{Kind: KindUnreachable, URL: rawURL, Err: ctx.Err()}
	}

	target, err := buildURL(rawURL, query)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: rawURL, Err: errors.Wrap(err, "create request")}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml;q=0.9, */*;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: rawURL, Err: errors.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, URL: rawURL, Err: errors.Wrap(err, "read body")}
	}
	return body, nil
}

// buildURL validates that rawURL is absolute and merges query into it.
// Keys already present in rawURL are overridden by query.
func buildURL(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "parse url %q", rawURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", errors.Newf("url %q is not absolute", rawURL)
	}
	if len(query) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, vs := range query {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
