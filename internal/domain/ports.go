package domain

import "context"

// Generator produces transformation code from a natural-language
// instruction and the current schema. Implemented by generate.Client and
// generate.RuleBased. Output is untrusted regardless of source and always
// passes the validator before execution.
type Generator interface {
	Generate(ctx context.Context, instruction string, schema Schema) (string, error)
}

// Sandbox statically validates candidate code and executes it against a
// private copy of a table under resource limits.
// Implemented by sandbox.Runtime.
type Sandbox interface {
	// Validate returns nil or a *ForbiddenConstructError. It is fail-closed:
	// anything unparseable or outside the allowlisted surface is rejected.
	Validate(source string) error
	// Execute runs previously validated source. Every failure branch is
	// classified in the result; the input table is never mutated.
	Execute(ctx context.Context, source string, table *Table) *ExecutionResult
}

// AuditStore persists pipeline audit entries.
// Implemented by repository.AuditStore. Call sites treat writes as
// best-effort: an audit failure never fails the operation it records.
type AuditStore interface {
	Insert(ctx context.Context, e *AuditEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]AuditEntry, error)
}
