package domain

import "time"

// Audit actions. One row is written per pipeline operation.
const (
	AuditIngest    = "ingest"
	AuditGenerate  = "generate"
	AuditApprove   = "approve"
	AuditExecute   = "execute"
	AuditTransform = "transform"
	AuditDelete    = "delete"
	AuditExpire    = "expire"
)

// AuditEntry represents a single audit log record. Entries outlive their
// session; the trail is the teardown-survivable record of what ran.
type AuditEntry struct {
	ID         string
	SessionID  string
	Action     string
	Outcome    string // "ok", an Outcome tag, or an error reason tag
	Detail     *string
	DurationMs *int64
	CreatedAt  time.Time
}
