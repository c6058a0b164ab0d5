// Package dbtest provides a migrated in-memory database for repository tests.
package dbtest

import (
	"testing"

	"site-content-store/internal/db"

	"gorm.io/gorm"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:", "test", nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })

	return conn
}
