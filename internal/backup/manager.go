package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultInterval = 24 * time.Hour
	defaultKeepLast = 14
	filePrefix      = "swiper-audit-"
)

// Manager snapshots the audit database on an interval, optionally uploads
// each snapshot, and prunes old local copies.
type Manager struct {
	store    Snapshotter
	cfg      Config
	uploader Uploader

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewManager validates cfg, takes a first snapshot and starts the loop.
// It returns nil when backups are disabled.
func NewManager(store Snapshotter, cfg Config) (*Manager, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if store == nil {
		return nil, fmt.Errorf("backup: nil snapshotter")
	}
	if strings.TrimSpace(store.DBPath()) == "" {
		return nil, fmt.Errorf("backup: audit store is in-memory")
	}
	if strings.TrimSpace(cfg.LocalDir) == "" {
		return nil, fmt.Errorf("backup: local-dir is required when backups are enabled")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.KeepLast <= 0 {
		cfg.KeepLast = defaultKeepLast
	}
	if err := os.MkdirAll(cfg.LocalDir, 0755); err != nil {
		return nil, fmt.Errorf("backup: create local-dir: %w", err)
	}

	var uploader Uploader
	if strings.TrimSpace(cfg.BucketURL) != "" {
		u, err := NewS3Uploader(S3Config{
			BucketURL:    cfg.BucketURL,
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			SessionToken: cfg.S3SessionToken,
			UseSSL:       cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		uploader = u
	}

	m := newManager(store, cfg, uploader)
	if err := m.RunOnce(m.ctx); err != nil {
		log.Printf("backup: startup snapshot failed: %v", err)
	}
	m.wg.Add(1)
	go m.loop()
	return m, nil
}

func newManager(store Snapshotter, cfg Config, uploader Uploader) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:    store,
		cfg:      cfg,
		uploader: uploader,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (m *Manager) loop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.RunOnce(m.ctx); err != nil {
				log.Printf("backup: periodic snapshot failed: %v", err)
			}
		case <-m.done:
			return
		}
	}
}

// RunOnce writes one snapshot, uploads it when an uploader is configured,
// then prunes local copies beyond KeepLast.
func (m *Manager) RunOnce(ctx context.Context) error {
	name := filePrefix + time.Now().UTC().Format("20060102-150405.000") + ".duckdb"
	localPath := filepath.Join(m.cfg.LocalDir, name)

	if err := m.store.SnapshotTo(localPath); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Printf("backup: wrote %s", localPath)

	if m.uploader != nil {
		if err := m.uploader.UploadFile(ctx, localPath); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		log.Printf("backup: uploaded %s", name)
	}

	return pruneLocal(m.cfg.LocalDir, m.cfg.KeepLast)
}

// Stop cancels an in-flight upload and waits for the loop to exit.
func (m *Manager) Stop() {
	m.once.Do(func() {
		m.cancel()
		close(m.done)
		m.wg.Wait()
	})
}

func pruneLocal(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.duckdb"))
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if len(matches) <= keep {
		return nil
	}

	// Names embed a UTC timestamp, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, old := range matches[keep:] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune: %w", err)
		}
	}
	return nil
}
