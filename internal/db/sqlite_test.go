package db

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditDSN_Writer(t *testing.T) {
	dsn := auditDSN("/tmp/audit.sqlite", true)

	assert.True(t, strings.HasPrefix(dsn, "/tmp/audit.sqlite?"))
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_txlock=immediate")
}

func TestAuditDSN_Reader(t *testing.T) {
	dsn := auditDSN("/tmp/audit.sqlite", false)

	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.NotContains(t, dsn, "_txlock")
}

func TestOpenSQLitePair_PoolShape(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "audit.sqlite"), 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		readDB.Close()
		writeDB.Close()
	})

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 8, readDB.Stats().MaxOpenConnections)
}

func TestOpenSQLitePair_DefaultReaders(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "audit.sqlite"), 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		readDB.Close()
		writeDB.Close()
	})

	assert.Equal(t, defaultReaders, readDB.Stats().MaxOpenConnections)
}

func TestOpenSQLitePair_Pragmas(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "audit.sqlite"), 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		readDB.Close()
		writeDB.Close()
	})

	var journalMode string
	require.NoError(t, writeDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var busyTimeout int
	require.NoError(t, writeDB.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var fk int
	require.NoError(t, readDB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenSQLitePair_InvalidPath(t *testing.T) {
	_, _, err := OpenSQLitePair("/nonexistent/dir/audit.sqlite", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open audit writer")
}

func TestRunMigrations_CreatesAuditSchema(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(
		`INSERT INTO audit_entries (id, session_id, action, outcome, detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"a1", "s1", "upload", "ok", "", 12, time.Now().UTC())
	require.NoError(t, err)

	var action string
	require.NoError(t, readDB.QueryRow(
		"SELECT action FROM audit_entries WHERE session_id = ?", "s1").Scan(&action))
	assert.Equal(t, "upload", action)
}

func TestRunMigrations_Rerunnable(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)

	// OpenTestSQLite already migrated; a second run must be a no-op.
	require.NoError(t, RunMigrations(writeDB))
}

// Trail reads must not collide with in-flight audit inserts: the write pool
// serializes inserts on one connection and busy_timeout covers the rest.
func TestOpenSQLitePair_TrailReadsDuringInserts(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)

	for i := range 20 {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec(
				`INSERT INTO audit_entries (id, session_id, action, outcome, created_at)
				 VALUES (?, ?, ?, ?, ?)`,
				fmt.Sprintf("a%d", idx), "s1", "execute", "ok", time.Now().UTC())
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = readDB.QueryRow(
				"SELECT count(*) FROM audit_entries WHERE session_id = ?", "s1").Scan(&n)
		}(i)
	}
	wg.Wait()

	for i := range 20 {
		assert.NoError(t, writeErrs[i], "insert %d", i)
		assert.NoError(t, readErrs[i], "trail read %d", i)
	}

	var total int
	require.NoError(t, readDB.QueryRow("SELECT count(*) FROM audit_entries").Scan(&total))
	assert.Equal(t, 20, total)
}
