package migrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "github.com/duckdb/duckdb-go/v2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAppliesEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	applied, err := NewRunner(db).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) != 2 || applied[0].Version != 1 || applied[1].Version != 2 {
		t.Fatalf("applied = %+v, want versions 1 and 2", applied)
	}

	for _, table := range []string{"deletions", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewRunner(db)

	if _, err := r.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	applied, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second Run applied %+v, want nothing", applied)
	}

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Current() != 2 || len(st.Pending) != 0 {
		t.Errorf("status = current %d pending %d, want 2 and 0", st.Current(), len(st.Pending))
	}
}

func TestStatusBeforeRun(t *testing.T) {
	st, err := NewRunner(openTestDB(t)).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Current() != 0 || len(st.Pending) != 2 {
		t.Errorf("status = current %d pending %d, want 0 and 2", st.Current(), len(st.Pending))
	}
}

func TestRunFillsGapInAppliedVersions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("CREATE TABLE a (x INTEGER);")},
		"migrations/002_b.sql": {Data: []byte("CREATE TABLE b (x INTEGER);")},
		"migrations/003_c.sql": {Data: []byte("CREATE TABLE c (x INTEGER);")},
	}
	r := newRunnerFS(db, src)
	if err := r.ensureTable(ctx); err != nil {
		t.Fatalf("ensureTable: %v", err)
	}
	for _, stmt := range []string{"CREATE TABLE a (x INTEGER)", "CREATE TABLE c (x INTEGER)"} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed tables: %v", err)
		}
	}
	if _, err := db.Exec("INSERT INTO schema_migrations (version, name) VALUES (1, '001_a.sql'), (3, '003_c.sql')"); err != nil {
		t.Fatalf("seed versions: %v", err)
	}

	applied, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(applied) != 1 || applied[0].Name != "002_b.sql" {
		t.Errorf("applied = %+v, want only 002_b.sql", applied)
	}
}

func TestFailedMigrationIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := newRunnerFS(db, fstest.MapFS{
		"migrations/001_ok.sql":     {Data: []byte("CREATE TABLE ok (x INTEGER);")},
		"migrations/002_broken.sql": {Data: []byte("CREATE TABLE broken (")},
	})

	applied, err := r.Run(ctx)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if len(applied) != 1 || applied[0].Version != 1 {
		t.Errorf("applied = %+v, want only version 1", applied)
	}

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Current() != 1 || len(st.Pending) != 1 || st.Pending[0].Version != 2 {
		t.Errorf("status = %+v, want version 2 pending", st)
	}
}

func TestMigrationsRejectsBadSources(t *testing.T) {
	tests := []struct {
		name string
		src  fstest.MapFS
		want error
	}{
		{
			name: "duplicate version",
			src: fstest.MapFS{
				"migrations/001_a.sql":  {Data: []byte("SELECT 1;")},
				"migrations/001_b.sql":  {Data: []byte("SELECT 1;")},
				"migrations/README.txt": {Data: []byte("ignored")},
			},
			want: ErrDuplicateVersion,
		},
		{
			name: "missing prefix",
			src:  fstest.MapFS{"migrations/deletions.sql": {Data: []byte("SELECT 1;")}},
			want: ErrBadFilename,
		},
		{
			name: "non numeric prefix",
			src:  fstest.MapFS{"migrations/init_deletions.sql": {Data: []byte("SELECT 1;")}},
			want: ErrBadFilename,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newRunnerFS(nil, tt.src).Migrations()
			if !errors.Is(err, tt.want) {
				t.Errorf("Migrations() error = %v, want %v", err, tt.want)
			}
		})
	}
}
