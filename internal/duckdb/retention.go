package duckdb

import (
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
)

const defaultRetentionInterval = time.Hour

// auditPruner is the part of Store the retention cleaner needs.
type auditPruner interface {
	DeleteBefore(cutoff time.Time) (int64, error)
}

// RetentionConfig controls audit pruning. RetentionDays of 0 disables it;
// a negative value selects model.DefaultAuditRetentionDays.
type RetentionConfig struct {
	RetentionDays int
	// Interval between prune passes. Defaults to one hour.
	Interval time.Duration
	// Now replaces time.Now when computing the cutoff.
	Now func() time.Time
}

// RetentionCleaner drops delete audit entries older than the retention window,
// once at startup and then on every interval.
type RetentionCleaner struct {
	store    auditPruner
	window   time.Duration
	interval time.Duration
	now      func() time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRetentionCleaner prunes once and starts the background loop. It
// returns nil when retention is disabled.
func NewRetentionCleaner(store *Store, conf RetentionConfig) *RetentionCleaner {
	return newRetentionCleaner(store, conf)
}

func newRetentionCleaner(store auditPruner, conf RetentionConfig) *RetentionCleaner {
	days := conf.RetentionDays
	if days < 0 {
		days = model.DefaultAuditRetentionDays
	}
	if days == 0 {
		return nil
	}
	if conf.Interval <= 0 {
		conf.Interval = defaultRetentionInterval
	}
	if conf.Now == nil {
		conf.Now = time.Now
	}

	rc := &RetentionCleaner{
		store:    store,
		window:   time.Duration(days) * 24 * time.Hour,
		interval: conf.Interval,
		now:      conf.Now,
		done:     make(chan struct{}),
	}

	// Catch up on anything that expired while the service was down.
	rc.prune()

	rc.wg.Add(1)
	go rc.loop()
	return rc
}

// Cutoff is the creation time before which entries are pruned.
func (rc *RetentionCleaner) Cutoff() time.Time {
	return rc.now().Add(-rc.window)
}

func (rc *RetentionCleaner) loop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(rc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.prune()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) prune() {
	cutoff := rc.Cutoff()
	n, err := rc.store.DeleteBefore(cutoff)
	if err != nil {
		log.Printf("duckdb: audit prune before %s failed: %v", cutoff.Format(time.RFC3339), err)
		return
	}
	if n > 0 {
		log.Printf("duckdb: pruned %d audit entries created before %s", n, cutoff.Format(time.RFC3339))
	}
}

// Stop ends the background loop. It is safe to call more than once.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
