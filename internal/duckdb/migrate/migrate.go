// Package migrate applies the embedded audit schema to a DuckDB database.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var embedded embed.FS

const migrationsDir = "migrations"

var (
	// ErrDuplicateVersion is returned when two files share a version prefix.
	ErrDuplicateVersion = errors.New("migrate: duplicate migration version")
	// ErrBadFilename is returned for files not named NNN_description.sql.
	ErrBadFilename = errors.New("migrate: migration file must be named NNN_description.sql")
)

// Migration is one versioned schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status describes how far a database is behind the embedded schema.
type Status struct {
	Applied []int
	Pending []Migration
}

// Current is the highest applied version, 0 for a fresh database.
func (s Status) Current() int {
	if len(s.Applied) == 0 {
		return 0
	}
	return s.Applied[len(s.Applied)-1]
}

// Runner records applied versions in schema_migrations and applies the
// missing ones, each in its own transaction.
type Runner struct {
	db     *sql.DB
	source fs.FS
}

// NewRunner creates a runner for the embedded audit migrations.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db, source: embedded}
}

func newRunnerFS(db *sql.DB, source fs.FS) *Runner {
	return &Runner{db: db, source: source}
}

// Migrations lists the available migrations ordered by version.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.source, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migrate: read %s: %w", migrationsDir, err)
	}

	byVersion := make(map[int]string, len(entries))
	var migs []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBadFilename, e.Name())
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil || ver <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadFilename, e.Name())
		}
		if prev, dup := byVersion[ver]; dup {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateVersion, prev, e.Name())
		}
		byVersion[ver] = e.Name()

		data, err := fs.ReadFile(r.source, path.Join(migrationsDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", e.Name(), err)
		}
		migs = append(migs, Migration{Version: ver, Name: e.Name(), SQL: string(data)})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	return migs, nil
}

// Run applies every migration that is not recorded yet and returns them
// in the order they were applied.
func (r *Runner) Run(ctx context.Context) ([]Migration, error) {
	st, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]Migration, 0, len(st.Pending))
	for _, m := range st.Pending {
		if err := r.apply(ctx, m); err != nil {
			return applied, err
		}
		applied = append(applied, m)
	}
	return applied, nil
}

// Status reports applied versions and the migrations still pending.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return Status{}, err
	}
	migs, err := r.Migrations()
	if err != nil {
		return Status{}, err
	}
	done, err := r.appliedVersions(ctx)
	if err != nil {
		return Status{}, err
	}

	st := Status{Applied: make([]int, 0, len(done))}
	for v := range done {
		st.Applied = append(st.Applied, v)
	}
	sort.Ints(st.Applied)
	for _, m := range migs {
		if !done[m.Version] {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate: read applied versions: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("migrate: scan version: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: apply %s: %w", m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: record %s: %w", m.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", m.Name, err)
	}
	return nil
}
