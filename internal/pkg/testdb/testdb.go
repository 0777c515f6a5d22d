// Package testdb opens throwaway in-memory databases for service tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/tidesail/core/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory SQLite database, one per test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	// Foreign keys are enforced so tests catch ordering bugs in
	// multi-table deletes, same as the production MySQL schema.
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// An in-memory database exists per connection; keep the pool at one.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
