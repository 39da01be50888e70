package backup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeSnapshotter struct {
	dbPath string
	data   []byte
}

func (f *fakeSnapshotter) DBPath() string { return f.dbPath }

func (f *fakeSnapshotter) SnapshotTo(dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(dstPath, f.data, 0644)
}

func TestNewManager_Disabled(t *testing.T) {
	t.Parallel()

	m, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/swiper.duckdb"}, Config{})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil manager when disabled")
	}
}

func TestNewManager_RejectsInMemoryStore(t *testing.T) {
	t.Parallel()

	_, err := NewManager(&fakeSnapshotter{}, Config{Enabled: true, LocalDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for in-memory store")
	}
}

func TestNewManager_TakesStartupSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := NewManager(&fakeSnapshotter{dbPath: "/tmp/swiper.duckdb", data: []byte("x")}, Config{
		Enabled:  true,
		Interval: time.Hour,
		LocalDir: dir,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	m.Stop()
	m.Stop()

	files, _ := filepath.Glob(filepath.Join(dir, filePrefix+"*.duckdb"))
	if len(files) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(files))
	}
}

func TestRunOnce_PrunesOldSnapshots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"20250101-000000.000", "20250102-000000.000", "20250103-000000.000"} {
		if err := os.WriteFile(filepath.Join(dir, filePrefix+name+".duckdb"), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := newManager(&fakeSnapshotter{dbPath: "/tmp/swiper.duckdb", data: []byte("x")}, Config{
		LocalDir: dir,
		KeepLast: 2,
	}, nil)
	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, filePrefix+"*.duckdb"))
	if len(files) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(files))
	}
	if _, err := os.Stat(filepath.Join(dir, filePrefix+"20250103-000000.000.duckdb")); err != nil {
		t.Errorf("expected newest old snapshot to survive: %v", err)
	}
}

type blockingUploader struct {
	started chan struct{}
	once    sync.Once
}

func (u *blockingUploader) UploadFile(ctx context.Context, _ string) error {
	u.once.Do(func() { close(u.started) })
	<-ctx.Done()
	return ctx.Err()
}

func TestStop_CancelsInFlightUpload(t *testing.T) {
	t.Parallel()

	uploader := &blockingUploader{started: make(chan struct{})}
	m := newManager(&fakeSnapshotter{dbPath: "/tmp/swiper.duckdb", data: []byte("x")}, Config{
		Interval: 5 * time.Millisecond,
		LocalDir: t.TempDir(),
		KeepLast: 2,
	}, uploader)

	m.wg.Add(1)
	go m.loop()

	select {
	case <-uploader.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upload to start")
	}

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; upload likely not canceled")
	}
}
