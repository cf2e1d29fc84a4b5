package repo

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/go-book-service/internal/domain"
)

func TestOpenSQLite_ErrorOnMissingDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "books.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenSQLite_File_PragmasOnEveryConnection(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if got := sqlDB.Stats().MaxOpenConnections; got != 10 {
		t.Fatalf("MaxOpenConnections = %d; want 10", got)
	}

	var journal string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journal); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journal) != "wal" {
		t.Fatalf("journal_mode = %q; want wal", journal)
	}

	// Hold two connections at once so the second is a distinct pooled one.
	ctx := context.Background()
	conns := make([]*sql.Conn, 2)
	for i := range conns {
		c, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatalf("conn %d: %v", i, err)
		}
		defer c.Close()
		conns[i] = c
	}
	for i, c := range conns {
		var busy, fk int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout;").Scan(&busy); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys;").Scan(&fk); err != nil {
			t.Fatalf("conn %d foreign_keys: %v", i, err)
		}
		if busy != 5000 || fk != 1 {
			t.Fatalf("conn %d: busy_timeout=%d foreign_keys=%d", i, busy, fk)
		}
	}
}

func TestOpenSQLite_MemoryIsSharedAcrossCalls(t *testing.T) {
	db, err := OpenSQLite(MemoryPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d; want 1", got)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// a second query must see the tables created by the first
	for _, tbl := range []any{&domain.Book{}, &domain.Idempotency{}} {
		if !db.Migrator().HasTable(tbl) {
			t.Fatalf("table for %T missing", tbl)
		}
	}
}

func Test_sqliteDSN(t *testing.T) {
	file := sqliteDSN("books.db", false)
	if !strings.HasPrefix(file, "books.db?_pragma=journal_mode%28WAL%29&") {
		t.Fatalf("file DSN = %q", file)
	}
	for _, p := range []string{"busy_timeout%285000%29", "foreign_keys%281%29", "synchronous%28NORMAL%29"} {
		if !strings.Contains(file, "_pragma="+p) {
			t.Fatalf("file DSN %q lacks %s", file, p)
		}
	}

	mem := sqliteDSN(MemoryPath, true)
	if strings.Contains(mem, "journal_mode") || !strings.HasPrefix(mem, ":memory:?_pragma=") {
		t.Fatalf("memory DSN = %q", mem)
	}

	if got := sqliteDSN("file:books.db?cache=shared", false); !strings.HasPrefix(got, "file:books.db?cache=shared&_pragma=") {
		t.Fatalf("existing query not extended: %q", got)
	}
}
