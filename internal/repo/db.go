// Package repo implements the data persistence layer for the book service,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-book-service/internal/domain"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// OpenSQLite opens (or creates) the SQLite database at path and installs the
// OpenTelemetry plugin so queries show up as child spans of the request that
// issued them. File databases run in WAL mode with a small pool; an
// in-memory database is pinned to one connection because each connection
// would otherwise see its own empty database.
func OpenSQLite(path string) (*gorm.DB, error) {
	memory := path == MemoryPath
	if !memory {
		// sqlite reports a missing parent directory as "out of memory (14)"; check first.
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path, memory)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// sqliteDSN appends the per-connection pragmas to path. journal_mode is
// persistent in the file, so it is only requested for file databases.
func sqliteDSN(path string, memory bool) string {
	pragmas := connPragmas
	if !memory {
		pragmas = append([]string{"journal_mode(WAL)"}, connPragmas...)
	}
	q := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		q = append(q, "_pragma="+url.QueryEscape(p))
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(q, "&")
}

// AutoMigrate creates or updates the book and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Book{},
		&domain.Idempotency{},
	)
}
