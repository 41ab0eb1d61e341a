// Package repository persists audit entries in SQLite. The audit trail is
// the only durable state the service keeps; session data never touches disk.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// AuditStore is the SQLite-backed implementation of domain.AuditStore.
type AuditStore struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewAuditStore wraps a write/read pool pair (see db.OpenSQLitePair).
func NewAuditStore(writeDB, readDB *sql.DB) *AuditStore {
	return &AuditStore{writeDB: writeDB, readDB: readDB}
}

// Insert writes one audit entry.
func (s *AuditStore) Insert(ctx context.Context, e *domain.AuditEntry) error {
	detail := sql.NullString{}
	if e.Detail != nil {
		detail = sql.NullString{String: *e.Detail, Valid: true}
	}
	durationMs := sql.NullInt64{}
	if e.DurationMs != nil {
		durationMs = sql.NullInt64{Int64: *e.DurationMs, Valid: true}
	}
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO audit_entries (id, session_id, action, outcome, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Action, e.Outcome, detail, durationMs, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListBySession returns a session's entries, newest first. The ids are
// time-ordered (UUIDv7), which breaks ties between entries sharing a
// timestamp. limit <= 0 means no limit.
func (s *AuditStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = -1 // sqlite: LIMIT -1 is unbounded
	}
	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, session_id, action, outcome, detail, duration_ms, created_at
		FROM audit_entries
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var detail sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Action, &e.Outcome, &detail, &durationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if detail.Valid {
			e.Detail = &detail.String
		}
		if durationMs.Valid {
			e.DurationMs = &durationMs.Int64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

var _ domain.AuditStore = (*AuditStore)(nil)
