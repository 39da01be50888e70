// Package remote is the TUI's client for the swiper service HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
)

// ErrMalformedResponse is returned when a response body cannot be decoded.
// Callers treat it like any other remote failure.
var ErrMalformedResponse = errors.New("remote: malformed response")

// StatusError is a non-2xx, non-429 response from the service.
type StatusError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("remote: %d %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Client implements model.ItemSource and model.ProfileSource over HTTP.
// Every call is refused locally while the shared limiter is active.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces time.Now, used to compute Retry-After windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the service at baseURL (for example
// "http://127.0.0.1:3000").
func New(baseURL string, limiter *ratelimit.Limiter, opts ...Option) *Client {
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage fetches the page after cursor. An empty cursor fetches the first page.
func (c *Client) FetchPage(ctx context.Context, cursor string) (model.Page, error) {
	endpoint := c.baseURL + "/items"
	if cursor != "" {
		endpoint += "?" + url.Values{"cursor": {cursor}}.Encode()
	}

	var body model.ItemsResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return model.Page{}, err
	}
	return model.Page{Items: body.Items, NextCursor: body.NextCursor}, nil
}

// DeleteItem asks the service to delete id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	var body model.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, c.baseURL+"/items", model.DeleteRequest{ID: id}, &body); err != nil {
		return err
	}
	if !body.Deleted {
		return fmt.Errorf("remote: provider did not delete %s", id)
	}
	return nil
}

// Profile fetches the authenticated account's profile.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, http.MethodGet, c.baseURL+"/profile", nil, &p)
	return p, err
}

// RecentDeletions reads the service's delete audit, newest first. It is
// served locally by the service, so an active rate-limit window does not
// block it.
func (c *Client) RecentDeletions(ctx context.Context, limit int) ([]model.Deletion, error) {
	endpoint := c.baseURL + "/deletions"
	if limit > 0 {
		endpoint += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var body model.DeletionsResponse
	if err := c.send(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return nil, err
	}
	return body.Deletions, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	if err := c.limiter.Err(); err != nil {
		return err
	}
	return c.send(ctx, method, endpoint, in, out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("remote: read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resetAt := c.resetFromResponse(resp.Header, data)
		c.limiter.Record(resetAt)
		return ratelimit.NewError(resetAt)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e model.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error, Details: e.Details}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// resetFromResponse prefers the body's resetAt, then Retry-After, then the
// provider's default window.
func (c *Client) resetFromResponse(h http.Header, body []byte) time.Time {
	var e model.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.ResetAt != "" {
		if t, err := time.Parse(time.RFC3339, e.ResetAt); err == nil {
			return t
		}
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After"))); err == nil && secs > 0 {
		return c.now().Add(time.Duration(secs) * time.Second)
	}
	return c.now().Add(model.DefaultRateLimitReset)
}
