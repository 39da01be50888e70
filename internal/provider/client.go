// Package provider talks to the X API v2 on behalf of the service.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.x.com"
	minPageSize    = 5
	maxPageSize    = 100
)

var (
	// ErrMissingCredentials is returned by New when any credential is empty.
	ErrMissingCredentials = errors.New("provider: api key, api secret, access token and access secret are required")
	// ErrNotDeleted is returned when the provider answers a delete with deleted=false.
	ErrNotDeleted = errors.New("provider: item was not deleted")
	// ErrMalformedResponse is returned when a provider body cannot be decoded.
	ErrMalformedResponse = errors.New("provider: malformed response")
)

// APIError is a non-2xx, non-429 provider response.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("provider: %d", e.StatusCode)
	if e.Title != "" {
		msg += " " + e.Title
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Credentials are the four OAuth 1.0a user-context secrets.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Validate reports whether every credential is set.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" ||
		strings.TrimSpace(c.AccessToken) == "" || strings.TrimSpace(c.AccessSecret) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Client implements model.ItemSource and model.ProfileSource against the
// X API. The authenticated user's id is looked up once and cached.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *ratelimit.Limiter
	pageSize int
	now      func() time.Time

	mu     sync.Mutex
	userID string
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL  string
	base     *http.Client
	pageSize int
	now      func() time.Time
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the transport used underneath OAuth signing.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.base = hc }
}

// WithPageSize sets max_results for timeline requests, clamped to 5..100.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a signed provider client.
func New(creds Credentials, limiter *ratelimit.Limiter, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	o := options{
		baseURL:  defaultBaseURL,
		base:     &http.Client{Timeout: 30 * time.Second},
		pageSize: model.DefaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize < minPageSize {
		o.pageSize = minPageSize
	}
	if o.pageSize > maxPageSize {
		o.pageSize = maxPageSize
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, o.base)

	return &Client{
		baseURL:  o.baseURL,
		http:     config.Client(ctx, token),
		limiter:  limiter,
		pageSize: o.pageSize,
		now:      o.now,
	}, nil
}

// Profile returns the authenticated account.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var body struct {
		Data userObject `json:"data"`
	}
	q := url.Values{"user.fields": {"profile_image_url,public_metrics"}}
	if err := c.do(ctx, http.MethodGet, "/2/users/me", q, &body); err != nil {
		return model.Profile{}, err
	}

	c.mu.Lock()
	if c.userID == "" {
		c.userID = body.Data.ID
	}
	c.mu.Unlock()

	return body.Data.toProfile(), nil
}

// FetchPage returns one page of the authenticated user's posts.
func (c *Client) FetchPage(ctx context.Context, cursor string) (model.Page, error) {
	userID, err := c.currentUserID(ctx)
	if err != nil {
		return model.Page{}, err
	}

	q := url.Values{
		"max_results":  {strconv.Itoa(c.pageSize)},
		"tweet.fields": {"created_at,public_metrics,entities,attachments,author_id"},
		"expansions":   {"attachments.media_keys"},
		"media.fields": {"url,preview_image_url,type"},
	}
	if cursor != "" {
		q.Set("pagination_token", cursor)
	}

	var body timelineResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/"+url.PathEscape(userID)+"/tweets", q, &body); err != nil {
		return model.Page{}, err
	}
	return body.toPage(c.now()), nil
}

// DeleteItem deletes one post by id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("provider: empty item id")
	}
	var body struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodDelete, "/2/tweets/"+url.PathEscape(id), nil, &body); err != nil {
		return err
	}
	if !body.Data.Deleted {
		return ErrNotDeleted
	}
	return nil
}

func (c *Client) currentUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.userID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	p, err := c.Profile(ctx)
	if err != nil {
		return "", fmt.Errorf("provider: resolve user id: %w", err)
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrMalformedResponse)
	}
	return p.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, out interface{}) error {
	if err := c.limiter.Err(); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("provider: read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resetAt := c.resetFromHeader(resp.Header)
		c.limiter.Record(resetAt)
		return ratelimit.NewError(resetAt)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// resetFromHeader reads x-rate-limit-reset (epoch seconds), defaulting to
// a 15 minute window.
func (c *Client) resetFromHeader(h http.Header) time.Time {
	if v := strings.TrimSpace(h.Get("x-rate-limit-reset")); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
			return time.Unix(secs, 0)
		}
	}
	return c.now().Add(model.DefaultRateLimitReset)
}

func decodeAPIError(status int, data []byte) error {
	var body struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	apiErr := &APIError{StatusCode: status, Title: http.StatusText(status)}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if body.Title != "" {
		apiErr.Title = body.Title
	}
	apiErr.Detail = body.Detail
	if apiErr.Detail == "" && len(body.Errors) > 0 {
		apiErr.Detail = body.Errors[0].Message
	}
	return apiErr
}
