// Package db opens and migrates the SQLite database backing the audit
// trail.
//
// The workload is append-mostly: every pipeline action (upload, generate,
// approve, execute, export, expire) inserts one row, and trail reads scan a
// single session's rows in order. Session tables themselves never touch
// disk, so this file is the only persistent state in the service.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

const (
	// busyTimeoutMS absorbs writer lock contention instead of surfacing
	// SQLITE_BUSY to the audit store.
	busyTimeoutMS = "5000"
	// defaultReaders bounds concurrent trail reads; audit queries are cheap
	// index scans, so a small pool suffices.
	defaultReaders = 4
)

// auditDSN builds the connection string for one side of the pair. WAL lets
// trail reads proceed while an insert is in flight; synchronous=NORMAL is
// safe under WAL and keeps per-entry insert latency off the request path.
// The writer takes its lock up front (_txlock=immediate) so audit inserts
// never upgrade a lock mid-transaction.
func auditDSN(path string, writer bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", busyTimeoutMS)
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	if writer {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}

// OpenSQLitePair opens the audit database twice: a single-connection write
// pool, which serializes inserts at the pool instead of colliding inside
// SQLite, and a wider read pool for trail queries. readMaxOpen <= 0 falls
// back to defaultReaders.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = openPool(auditDSN(path, true), 1)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit writer: %w", err)
	}

	if readMaxOpen <= 0 {
		readMaxOpen = defaultReaders
	}
	readDB, err = openPool(auditDSN(path, false), readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, fmt.Errorf("open audit reader: %w", err)
	}
	return writeDB, readDB, nil
}

func openPool(dsn string, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
