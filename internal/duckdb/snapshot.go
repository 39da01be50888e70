package duckdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrInMemoryStore is returned when snapshotting a store that has no file.
var ErrInMemoryStore = errors.New("duckdb: in-memory store cannot be snapshotted")

// DBPath returns the database file path. Empty means in-memory.
func (s *Store) DBPath() string {
	return s.dbPath
}

// SnapshotTo checkpoints the WAL into the database file and copies it to
// dstPath. The copy is written to a temporary file and renamed into place.
func (s *Store) SnapshotTo(dstPath string) error {
	if s.dbPath == "" {
		return ErrInMemoryStore
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("duckdb: create snapshot dir: %w", err)
	}

	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()
	if _, err := s.db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("duckdb: checkpoint: %w", err)
	}
	if err := copyFile(s.dbPath, dstPath); err != nil {
		return fmt.Errorf("duckdb: copy database file: %w", err)
	}
	return nil
}

func copyFile(srcPath, dstPath string) (err error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := dstPath + ".tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dst.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return err
	}
	if err = dst.Sync(); err != nil {
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dstPath)
}
