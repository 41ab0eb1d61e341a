package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated audit database in t.TempDir() and returns
// the write/read pool pair the service uses in production. Repository and
// handler tests lean on this so every test run exercises the real schema.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 0)
	if err != nil {
		t.Fatalf("open audit sqlite pair: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate audit schema: %v", err)
	}
	return writeDB, readDB
}
