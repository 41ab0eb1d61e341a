// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// === Generator Mock ===

// MockGenerator implements domain.Generator for testing.
type MockGenerator struct {
	GenerateFn func(ctx context.Context, instruction string, schema domain.Schema) (string, error)
	Calls      []string // instructions received, for assertions
}

// Generate implements the interface method for testing.
func (m *MockGenerator) Generate(ctx context.Context, instruction string, schema domain.Schema) (string, error) {
	m.Calls = append(m.Calls, instruction)
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, instruction, schema)
	}
	return "table = table.drop_duplicates()", nil
}

// === Sandbox Mock ===

// MockSandbox implements domain.Sandbox for testing.
type MockSandbox struct {
	ValidateFn func(source string) error
	ExecuteFn  func(ctx context.Context, source string, table *domain.Table) *domain.ExecutionResult
}

// Validate implements the interface method for testing.
func (m *MockSandbox) Validate(source string) error {
	if m.ValidateFn != nil {
		return m.ValidateFn(source)
	}
	return nil
}

// Execute implements the interface method for testing.
func (m *MockSandbox) Execute(ctx context.Context, source string, table *domain.Table) *domain.ExecutionResult {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, source, table)
	}
	return &domain.ExecutionResult{
		Outcome:       domain.OutcomeSuccess,
		Table:         table.Clone(),
		RowCount:      table.NumRows(),
		ColumnCount:   table.NumColumns(),
		TotalRows:     table.NumRows(),
		ProcessedRows: table.NumRows(),
	}
}

// === Audit Store Mock ===

// MockAuditStore implements domain.AuditStore for testing.
type MockAuditStore struct {
	mu       sync.Mutex
	InsertFn func(ctx context.Context, e *domain.AuditEntry) error
	ListFn   func(ctx context.Context, sessionID string, limit int) ([]domain.AuditEntry, error)
	Entries  []*domain.AuditEntry // collected entries for assertions
}

// Insert implements the interface method for testing.
func (m *MockAuditStore) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Entries = append(m.Entries, e)
	m.mu.Unlock()
	return nil
}

// ListBySession implements the interface method for testing. Entries come
// back newest first, matching the real store.
func (m *MockAuditStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.AuditEntry, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, sessionID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].SessionID == sessionID {
			out = append(out, *m.Entries[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Actions returns the recorded actions in insertion order.
func (m *MockAuditStore) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}

// Compile-time interface checks.
var (
	_ domain.Generator  = (*MockGenerator)(nil)
	_ domain.Sandbox    = (*MockSandbox)(nil)
	_ domain.AuditStore = (*MockAuditStore)(nil)
)
