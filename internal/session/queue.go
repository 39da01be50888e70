package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/ratelimit"
)

var (
	// ErrEmptyQueue is returned by Advance when there is no front item.
	ErrEmptyQueue = errors.New("session: queue is empty")
	// ErrInvalidOutcome is returned by Advance for anything but Keep or Delete.
	ErrInvalidOutcome = errors.New("session: outcome must be keep or delete")
)

// DeleteResult is the logged result of a detached remote delete.
type DeleteResult struct {
	ItemID    string
	Deleted   bool
	Simulated bool
	Err       error
}

// Config tunes a Controller. Zero values fall back to defaults.
type Config struct {
	LowWaterMark int
	Limiter      *ratelimit.Limiter
	// Fallback replaces the built-in offline sample used when the first
	// fetch fails.
	Fallback []model.Item
	// OnDelete receives every delete result. Defaults to logging.
	OnDelete func(DeleteResult)
	// Spawn runs detached remote calls. Defaults to a new goroutine.
	Spawn func(func())
}

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	Front    model.Item
	HasFront bool
	Next     model.Item
	HasNext  bool
	Len      int
	Counters Counters
	HasMore  bool
	Loading  bool
	Started  bool
	Fallback bool
	Err      error
	// RateLimitedUntil is zero unless a rate-limit window is active.
	RateLimitedUntil time.Time
}

// Terminal reports the normal end of a session: nothing queued and
// nothing left upstream.
func (s Snapshot) Terminal() bool {
	return s.Started && !s.Loading && s.Len == 0 && !s.HasMore && s.Err == nil
}

// Failed reports an empty queue whose last fetch failed.
func (s Snapshot) Failed() bool {
	return s.Started && !s.Loading && s.Len == 0 && s.Err != nil
}

// Controller owns the review queue, its pagination cursor and the session
// counters. All state is guarded by one mutex; remote calls run detached
// and re-enter through applyPage.
type Controller struct {
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	source   model.ItemSource
	limiter  *ratelimit.Limiter
	lowWater int
	spawn    func(func())
	onDelete func(DeleteResult)
	sample   []model.Item

	items     []model.Item
	seen      map[string]struct{}
	cursor    string
	started   bool
	refilling bool
	fallback  bool
	lastErr   error
	counters  Counters

	changes chan struct{}
}

// NewController creates an idle controller. Call Start to fetch the first page.
func NewController(ctx context.Context, source model.ItemSource, cfg Config) *Controller {
	ctx, cancel := context.WithCancel(ctx)

	c := &Controller{
		ctx:      ctx,
		cancel:   cancel,
		source:   source,
		limiter:  cfg.Limiter,
		lowWater: cfg.LowWaterMark,
		spawn:    cfg.Spawn,
		onDelete: cfg.OnDelete,
		sample:   cfg.Fallback,
		seen:     make(map[string]struct{}),
		changes:  make(chan struct{}, 1),
	}
	if c.lowWater <= 0 {
		c.lowWater = model.DefaultLowWaterMark
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New()
	}
	if c.spawn == nil {
		c.spawn = func(f func()) { go f() }
	}
	if c.onDelete == nil {
		c.onDelete = logDeleteResult
	}
	if c.sample == nil {
		c.sample = SampleItems(time.Now())
	}
	return c
}

// Changes delivers a signal after every state change. Signals coalesce.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Close cancels detached remote calls that are still running.
func (c *Controller) Close() {
	c.cancel()
}

// Start issues the bootstrap fetch. Only the first call has an effect.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.refilling = true
	c.mu.Unlock()

	c.notify()
	c.spawn(func() { c.fetch("", true) })
}

// Current returns the front item without changing state.
func (c *Controller) Current() (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return model.Item{}, false
	}
	return c.items[0], true
}

// Advance removes the front item and commits outcome. A delete is sent to
// the source in the background and is never rolled back; counters are
// updated before Advance returns.
func (c *Controller) Advance(outcome Outcome) error {
	if outcome != OutcomeDelete && outcome != OutcomeKeep {
		return ErrInvalidOutcome
	}

	c.mu.Lock()
	if len(c.items) == 0 {
		c.mu.Unlock()
		return ErrEmptyQueue
	}
	item := c.items[0]
	c.items[0] = model.Item{}
	c.items = c.items[1:]
	c.counters.record(outcome)
	simulated := c.fallback
	cursor, refill := c.refillLocked()
	c.mu.Unlock()

	if outcome == OutcomeDelete {
		c.deleteDetached(item.ID, simulated)
	}
	if refill {
		c.spawn(func() { c.fetch(cursor, false) })
	}
	c.notify()
	return nil
}

// Retry requests a refill after a failed fetch or an expired rate-limit
// window. It reports whether a fetch was issued.
func (c *Controller) Retry() bool {
	c.mu.Lock()
	cursor, refill := c.refillLocked()
	c.mu.Unlock()

	if refill {
		c.spawn(func() { c.fetch(cursor, false) })
	}
	c.notify()
	return refill
}

// Counters returns the current tallies.
func (c *Controller) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Len returns the number of queued items including the front item.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot returns a copy of the state needed to render the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Len:      len(c.items),
		Counters: c.counters,
		HasMore:  c.cursor != "",
		Loading:  c.refilling,
		Started:  c.started,
		Fallback: c.fallback,
		Err:      c.lastErr,
	}
	if len(c.items) > 0 {
		s.Front, s.HasFront = c.items[0], true
	}
	if len(c.items) > 1 {
		s.Next, s.HasNext = c.items[1], true
	}
	if resetAt, limited := c.limiter.Check(); limited {
		s.RateLimitedUntil = resetAt
	}
	return s
}

// refillLocked decides whether a page fetch should start and marks it in
// flight. c.mu must be held.
func (c *Controller) refillLocked() (string, bool) {
	if !c.started || c.fallback || c.refilling || c.cursor == "" {
		return "", false
	}
	if len(c.items) > c.lowWater {
		return "", false
	}
	if err := c.limiter.Err(); err != nil {
		c.lastErr = err
		return "", false
	}
	c.refilling = true
	return c.cursor, true
}

func (c *Controller) fetch(cursor string, bootstrap bool) {
	page, err := c.source.FetchPage(c.ctx, cursor)
	c.applyPage(cursor, bootstrap, page, err)
}

func (c *Controller) applyPage(cursor string, bootstrap bool, page model.Page, err error) {
	c.mu.Lock()
	c.refilling = false

	if err != nil {
		c.lastErr = err
		if bootstrap {
			log.Printf("session: initial fetch failed, using offline sample: %v", err)
			c.fallback = true
			c.cursor = ""
			c.enqueueLocked(c.sample)
		} else {
			log.Printf("session: refill with cursor %q failed: %v", cursor, err)
		}
		c.mu.Unlock()
		c.notify()
		return
	}

	c.lastErr = nil
	added := c.enqueueLocked(page.Items)
	c.cursor = page.NextCursor
	if added < len(page.Items) {
		log.Printf("session: dropped %d already-seen items from page", len(page.Items)-added)
	}

	// Short or duplicate pages keep paging while the cursor moves.
	var next string
	var refill bool
	if len(c.items) <= c.lowWater && c.cursor != cursor {
		next, refill = c.refillLocked()
	}
	c.mu.Unlock()

	if refill {
		c.spawn(func() { c.fetch(next, false) })
	}
	c.notify()
}

// enqueueLocked appends items whose ids were never seen this session and
// returns how many were added. c.mu must be held.
func (c *Controller) enqueueLocked(items []model.Item) int {
	added := 0
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := c.seen[it.ID]; dup {
			continue
		}
		c.seen[it.ID] = struct{}{}
		c.items = append(c.items, it)
		added++
	}
	return added
}

func (c *Controller) deleteDetached(id string, simulated bool) {
	if simulated {
		c.onDelete(DeleteResult{ItemID: id, Deleted: true, Simulated: true})
		return
	}
	c.spawn(func() {
		err := c.source.DeleteItem(c.ctx, id)
		c.onDelete(DeleteResult{ItemID: id, Deleted: err == nil, Err: err})
	})
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func logDeleteResult(r DeleteResult) {
	switch {
	case r.Simulated:
		log.Printf("session: simulated delete of %s (offline sample)", r.ItemID)
	case r.Err != nil:
		log.Printf("session: delete of %s failed, local removal kept: %v", r.ItemID, r.Err)
	default:
		log.Printf("session: deleted %s", r.ItemID)
	}
}
