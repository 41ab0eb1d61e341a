package domain

import "time"

// WorkflowState is the orchestrator's position in the transformation
// pipeline for one session.
type WorkflowState string

// Workflow states. Uploaded is transient: ingest moves a session to
// Previewed before the id is ever returned to a caller.
const (
	StateUploaded      WorkflowState = "uploaded"
	StatePreviewed     WorkflowState = "previewed"
	StateCodeGenerated WorkflowState = "code_generated"
	StateCodeApproved  WorkflowState = "code_approved"
	StateExecuted      WorkflowState = "executed"
)

// HistoryEntry records one successfully executed transformation.
type HistoryEntry struct {
	Code       string
	Provenance Provenance
	AppliedAt  time.Time
	Elapsed    time.Duration
}

// Session pairs an uploaded table with its derived schema, statistics, and
// transformation history, keyed by an opaque id. Knowledge of the id is the
// sole access control. Mutation happens only under the store's per-id
// lease; see service/session.
type Session struct {
	ID             string
	Table          *Table
	Schema         Schema
	Stats          Statistics
	State          WorkflowState
	GeneratedSum   string
	History        []HistoryEntry
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// NewSession allocates a session in the Uploaded state with a fresh id.
func NewSession(table *Table, schema Schema, stats Statistics) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:             NewSessionID(),
		Table:          table,
		Schema:         schema,
		Stats:          stats,
		State:          StateUploaded,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// Replace swaps the table, schema, and statistics and appends the applied
// code to history. It is the only mutation path for session data. The
// caller must hold the session lease, which makes the multi-field swap
// atomic to every other accessor.
func (s *Session) Replace(table *Table, schema Schema, stats Statistics, entry HistoryEntry) {
	s.Table = table
	s.Schema = schema
	s.Stats = stats
	s.History = append(s.History, entry)
}

// Preview is the caller-facing snapshot emitted after ingest and by the
// preview operation. SampleRows are copies; handing one out never aliases
// stored cells.
type Preview struct {
	SessionID  string
	State      WorkflowState
	Schema     Schema
	Stats      Statistics
	SampleRows [][]any
	History    []HistoryEntry
}

// Snapshot builds a preview with the first sampleN rows.
func (s *Session) Snapshot(sampleN int) *Preview {
	history := make([]HistoryEntry, len(s.History))
	copy(history, s.History)
	schema := make(Schema, len(s.Schema))
	copy(schema, s.Schema)
	return &Preview{
		SessionID:  s.ID,
		State:      s.State,
		Schema:     schema,
		Stats:      s.Stats,
		SampleRows: s.Table.SampleRows(sampleN),
		History:    history,
	}
}
