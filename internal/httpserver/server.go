package httpserver

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/provider"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
)

// AuditStore is the narrow store contract required by the HTTP API.
type AuditStore interface {
	model.DeletionRecorder
	model.DeletionReader
}

// Provider is what the HTTP API proxies to.
type Provider interface {
	model.ItemSource
	model.ProfileSource
}

// Server exposes the provider's items and profile behind a small JSON API.
type Server struct {
	addr      string
	provider  Provider
	audit     AuditStore
	limiter   *ratelimit.Limiter
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. audit may be nil.
func NewServer(addr string, p Provider, limiter *ratelimit.Limiter, audit AuditStore) *Server {
	if addr == "" {
		addr = model.DefaultServiceAddr
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		provider: p,
		audit:    audit,
		limiter:  limiter,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handler builds the gin router serving the API.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.GET("/items", s.handleItems)
	r.DELETE("/items", s.handleDelete)
	r.GET("/profile", s.handleProfile)
	r.GET("/deletions", s.handleDeletions)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	}
	resetAt, limited := s.limiter.Check()
	body["rateLimited"] = limited
	if limited {
		body["resetAt"] = resetAt.UTC().Format(time.RFC3339)
	}
	if s.audit != nil {
		n, err := s.audit.DeletionCount()
		if err != nil {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to read health metrics"})
			return
		}
		body["deletions"] = n
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleItems(c *gin.Context) {
	if s.abortIfLimited(c) {
		return
	}

	page, err := s.provider.FetchPage(c.Request.Context(), c.Query("cursor"))
	if err != nil {
		s.writeProviderError(c, "failed to fetch items", err)
		return
	}

	items := page.Items
	if items == nil {
		items = []model.Item{}
	}
	c.JSON(http.StatusOK, model.ItemsResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		Meta:       model.ItemsMeta{Count: len(items)},
	})
}

func (s *Server) handleDelete(c *gin.Context) {
	var req model.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "item id is required"})
		return
	}
	if s.abortIfLimited(c) {
		return
	}

	err := s.provider.DeleteItem(c.Request.Context(), req.ID)
	s.record(req.ID, err)

	switch {
	case err == nil:
		c.JSON(http.StatusOK, model.DeleteResponse{Deleted: true, ID: req.ID})
	case errors.Is(err, provider.ErrNotDeleted):
		c.JSON(http.StatusOK, model.DeleteResponse{Deleted: false, ID: req.ID})
	default:
		s.writeProviderError(c, "failed to delete item", err)
	}
}

func (s *Server) handleProfile(c *gin.Context) {
	if s.abortIfLimited(c) {
		return
	}

	p, err := s.provider.Profile(c.Request.Context())
	if err != nil {
		s.writeProviderError(c, "failed to fetch profile", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeletions(c *gin.Context) {
	if s.audit == nil {
		c.JSON(http.StatusOK, model.DeletionsResponse{Deletions: []model.Deletion{}})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.audit.RecentDeletions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "failed to read deletions", Details: err.Error()})
		return
	}
	if entries == nil {
		entries = []model.Deletion{}
	}
	c.JSON(http.StatusOK, model.DeletionsResponse{Deletions: entries})
}

// abortIfLimited answers 429 without touching the provider while the shared
// window is active.
func (s *Server) abortIfLimited(c *gin.Context) bool {
	resetAt, limited := s.limiter.Check()
	if !limited {
		return false
	}
	writeRateLimited(c, ratelimit.NewError(resetAt))
	return true
}

func (s *Server) writeProviderError(c *gin.Context, msg string, err error) {
	var rl *ratelimit.Error
	if errors.As(err, &rl) {
		writeRateLimited(c, rl)
		return
	}
	log.Printf("httpserver: %s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: msg, Details: err.Error()})
}

func writeRateLimited(c *gin.Context, rl *ratelimit.Error) {
	retryAfter := rl.RetryAfter()
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: retryAfter,
		ResetAt:    rl.ResetAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) record(itemID string, err error) {
	if s.audit == nil {
		return
	}
	d := model.Deletion{ItemID: itemID, Deleted: err == nil}
	if err != nil {
		d.Error = err.Error()
	}
	if rerr := s.audit.RecordDeletion(d); rerr != nil {
		log.Printf("httpserver: audit deletion %s: %v", itemID, rerr)
	}
}
