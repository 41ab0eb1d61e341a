package domain

import "time"

// Outcome classifies an execution attempt.
type Outcome string

// Outcome constants. Every failure branch yields one of these; nothing is
// silently swallowed.
const (
	OutcomeSuccess            Outcome = "success"
	OutcomeValidationRejected Outcome = "validation_rejected"
	OutcomeRuntimeError       Outcome = "runtime_error"
	OutcomeResourceExceeded   Outcome = "resource_exceeded"
)

// Failure kind tags. Kinds carrying an offending name append it after a
// colon, e.g. "missing-column:Age".
const (
	FailMissingColumn      = "missing-column"
	FailTypeError          = "type-error"
	FailValueError         = "value-error"
	FailInvalidResultShape = "invalid-result-shape"
	FailEvaluation         = "evaluation-failed"
	FailTimeout            = "timeout"
	FailStepBudget         = "step-budget-exhausted"
)

// ExecutionFailure is the normalized reason attached to a non-success
// outcome. Detail is a short normalized message; raw interpreter stack
// frames are never exposed.
type ExecutionFailure struct {
	Kind   string
	Detail string
}

// ExecutionResult is the outcome of running candidate code against a
// session's table. On success exactly one of Table or Summary is set:
// Table for table-shaped results, Summary for a single serializable value
// from analysis-style code. ProcessedRows may be less than TotalRows when
// the row ceiling truncated the working copy; the discrepancy is always
// reported, never silent.
type ExecutionResult struct {
	Outcome       Outcome
	Table         *Table
	Summary       any
	RowCount      int
	ColumnCount   int
	TotalRows     int
	ProcessedRows int
	Elapsed       time.Duration
	Failure       *ExecutionFailure
}

// Failed reports whether the outcome is anything but success.
func (r *ExecutionResult) Failed() bool { return r.Outcome != OutcomeSuccess }
