package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	"github.com/tinytelemetry/swiper/internal/duckdb/migrate"
	"github.com/tinytelemetry/swiper/internal/model"
)

// Store is the DuckDB-backed audit log of delete attempts.
type Store struct {
	db           *sql.DB
	dbPath       string
	snapMu       sync.Mutex
	QueryTimeout time.Duration
}

// NewStore opens or creates a DuckDB database.
// If dbPath is empty, an in-memory database is used.
// An optional queryTimeout can be passed; it defaults to 30s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), qt)
	defer cancel()
	applied, err := migrate.NewRunner(db).Run(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, m := range applied {
		log.Printf("duckdb: applied migration %s", m.Name)
	}

	return &Store{
		db:           db,
		dbPath:       dbPath,
		QueryTimeout: qt,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// RecordDeletion appends one delete attempt. Missing ids and timestamps are filled in.
func (s *Store) RecordDeletion(d model.Deletion) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	var errText sql.NullString
	if d.Error != "" {
		errText = sql.NullString{String: d.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO deletions (id, item_id, deleted, error, created_at) VALUES (?, ?, ?, ?, ?)",
		d.ID, d.ItemID, d.Deleted, errText, d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("duckdb: record deletion: %w", err)
	}
	return nil
}

// RecentDeletions returns up to limit entries, newest first.
func (s *Store) RecentDeletions(limit int) ([]model.Deletion, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, item_id, deleted, error, created_at FROM deletions ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("duckdb: recent deletions: %w", err)
	}
	defer rows.Close()

	var out []model.Deletion
	for rows.Next() {
		var d model.Deletion
		var errText sql.NullString
		if err := rows.Scan(&d.ID, &d.ItemID, &d.Deleted, &errText, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("duckdb: scan deletion: %w", err)
		}
		d.Error = errText.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeletionCount returns the number of successful deletions recorded.
func (s *Store) DeletionCount() (int64, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deletions WHERE deleted").Scan(&n); err != nil {
		return 0, fmt.Errorf("duckdb: count deletions: %w", err)
	}
	return n, nil
}

// DeleteBefore removes audit entries older than cutoff and returns how many
// rows were removed.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM deletions WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete before: %w", err)
	}
	return res.RowsAffected()
}
