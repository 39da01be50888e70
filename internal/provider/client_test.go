package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tinytelemetry/swiper/internal/ratelimit"
)

var testCreds = Credentials{
	APIKey:       "key",
	APISecret:    "secret",
	AccessToken:  "token",
	AccessSecret: "token-secret",
}

const meBody = `{"data":{"id":"77","name":"Ada","username":"ada","profile_image_url":"https://img/ada.png",
"public_metrics":{"followers_count":10,"following_count":3,"tweet_count":120,"listed_count":1}}}`

const timelineBody = `{
  "data": [
    {"id":"2","text":"second","created_at":"2026-01-02T10:00:00.000Z","author_id":"77",
     "public_metrics":{"retweet_count":1,"reply_count":2,"like_count":3,"quote_count":4},
     "attachments":{"media_keys":["m1","missing"]}},
    {"id":"1","text":"first"}
  ],
  "includes":{"media":[{"media_key":"m1","type":"photo","url":"https://img/1.jpg"}]},
  "meta":{"result_count":2,"next_token":"next-1"}
}`

type apiStub struct {
	meCalls       int32
	timelineCalls int32

	mu        sync.Mutex
	lastQuery string
}

func (s *apiStub) query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

func newTestClient(t *testing.T, mux *http.ServeMux, opts ...Option) (*Client, *ratelimit.Limiter) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	limiter := ratelimit.New()
	opts = append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	c, err := New(testCreds, limiter, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, limiter
}

func (s *apiStub) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.meCalls, 1)
		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(meBody))
	})
	mux.HandleFunc("/2/users/77/tweets", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.timelineCalls, 1)
		s.mu.Lock()
		s.lastQuery = r.URL.RawQuery
		s.mu.Unlock()
		w.Write([]byte(timelineBody))
	})
	return mux
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Credentials{APIKey: "k"}, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestFetchPage_MapsTimeline(t *testing.T) {
	stub := &apiStub{}
	c, _ := newTestClient(t, stub.mux())

	page, err := c.FetchPage(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.NextCursor != "next-1" {
		t.Errorf("NextCursor = %q, want next-1", page.NextCursor)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}

	first := page.Items[0]
	if first.ID != "2" || first.Payload.Text != "second" {
		t.Errorf("first item = %+v", first)
	}
	if want := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC); !first.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, want)
	}
	if first.Payload.Metrics.Likes != 3 || first.Payload.Metrics.Reposts != 1 {
		t.Errorf("metrics = %+v", first.Payload.Metrics)
	}
	if len(first.Payload.Media) != 1 || first.Payload.Media[0].Type != "photo" {
		t.Errorf("media = %+v", first.Payload.Media)
	}
	if page.Items[1].CreatedAt.IsZero() {
		t.Error("missing created_at not defaulted")
	}

	if !strings.Contains(stub.query(), "max_results=5") {
		t.Errorf("query %q lacks max_results=5", stub.query())
	}
	if strings.Contains(stub.query(), "pagination_token") {
		t.Errorf("first page sent pagination_token: %q", stub.query())
	}
}

func TestFetchPage_CachesUserID(t *testing.T) {
	stub := &apiStub{}
	c, _ := newTestClient(t, stub.mux())

	for _, cursor := range []string{"", "next-1", "next-2"} {
		if _, err := c.FetchPage(context.Background(), cursor); err != nil {
			t.Fatalf("FetchPage(%q): %v", cursor, err)
		}
	}
	if got := atomic.LoadInt32(&stub.meCalls); got != 1 {
		t.Errorf("users/me calls = %d, want 1", got)
	}
	if !strings.Contains(stub.query(), "pagination_token=next-2") {
		t.Errorf("query %q lacks pagination token", stub.query())
	}
}

func TestPageSizeClamped(t *testing.T) {
	stub := &apiStub{}
	c, _ := newTestClient(t, stub.mux(), WithPageSize(1000))
	if c.pageSize != maxPageSize {
		t.Errorf("pageSize = %d, want %d", c.pageSize, maxPageSize)
	}
}

func TestRateLimit_RecordsResetHeader(t *testing.T) {
	var calls int32
	reset := time.Now().Add(7 * time.Minute).Truncate(time.Second)
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset.Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c, limiter := newTestClient(t, mux)

	_, err := c.Profile(context.Background())
	var rlErr *ratelimit.Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("err = %v, want *ratelimit.Error", err)
	}
	if !rlErr.ResetAt.Equal(reset) {
		t.Errorf("ResetAt = %v, want %v", rlErr.ResetAt, reset)
	}
	if _, limited := limiter.Check(); !limited {
		t.Fatal("limiter not active after 429")
	}

	if _, err := c.FetchPage(context.Background(), ""); !errors.As(err, &rlErr) {
		t.Errorf("FetchPage err = %v, want *ratelimit.Error", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestRateLimit_DefaultWindow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets/5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	now := time.Now().Truncate(time.Second)
	c, _ := newTestClient(t, mux, WithClock(func() time.Time { return now }))

	err := c.DeleteItem(context.Background(), "5")
	var rlErr *ratelimit.Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("err = %v, want *ratelimit.Error", err)
	}
	if want := now.Add(15 * time.Minute); !rlErr.ResetAt.Equal(want) {
		t.Errorf("ResetAt = %v, want %v", rlErr.ResetAt, want)
	}
}

func TestDeleteItem(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		switch strings.TrimPrefix(r.URL.Path, "/2/tweets/") {
		case "1":
			w.Write([]byte(`{"data":{"deleted":true}}`))
		case "2":
			w.Write([]byte(`{"data":{"deleted":false}}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"title":"Forbidden","detail":"not your post"}`))
		}
	})
	c, _ := newTestClient(t, mux)

	if err := c.DeleteItem(context.Background(), "1"); err != nil {
		t.Errorf("DeleteItem(1): %v", err)
	}
	if err := c.DeleteItem(context.Background(), "2"); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("DeleteItem(2) = %v, want ErrNotDeleted", err)
	}

	err := c.DeleteItem(context.Background(), "3")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("DeleteItem(3) = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Detail != "not your post" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestMalformedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	c, _ := newTestClient(t, mux)

	if _, err := c.Profile(context.Background()); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestProfile(t *testing.T) {
	stub := &apiStub{}
	c, _ := newTestClient(t, stub.mux())

	p, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Username != "ada" || p.Metrics.Posts != 120 {
		t.Errorf("profile = %+v", p)
	}
}
