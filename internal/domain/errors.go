// Package domain defines core types, interfaces, and errors for the data
// cleaning service.
package domain

import "fmt"

// NotFoundError indicates a session (or other resource) was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ExpiredError indicates a session exists but has passed its idle TTL and is
// awaiting collection. Callers should treat it like NotFound; the tag differs
// so a stale id can be distinguished from a wrong one.
type ExpiredError struct {
	Message string
}

func (e *ExpiredError) Error() string { return e.Message }

// ValidationError indicates invalid caller input (bad request shape, blank
// instruction, unknown recipe name).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsupportedFormatError indicates an upload in a format the ingest layer
// does not handle. Format carries the attempted format name.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", e.Format)
}

// ParseError indicates an upload that claimed a supported format but could
// not be parsed into a table. Reason is a short machine-readable tag
// ("malformed-csv", "file-too-large", ...); Message elaborates.
type ParseError struct {
	Reason  string
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// ForbiddenConstructError is a validator rejection. Reason is a short
// machine-readable tag such as "forbidden-identifier:os" or
// "import-statement", never free-form text derived from the source.
type ForbiddenConstructError struct {
	Reason string
}

func (e *ForbiddenConstructError) Error() string {
	return "code rejected: " + e.Reason
}

// GenerationErrorKind classifies collaborator failures.
type GenerationErrorKind string

// GenerationErrorKind constants cover the ways the generation collaborator
// can fail. All of them leave the session state unchanged and permit retry.
const (
	GenerationUnavailable     GenerationErrorKind = "unavailable"
	GenerationTimeout         GenerationErrorKind = "timeout"
	GenerationMalformedOutput GenerationErrorKind = "malformed-output"
)

// GenerationError indicates the code generation collaborator failed.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Message)
}

// MissingColumnError reports a reference to a column the table does not
// have. Raised at execution time, never at validation time: the validator
// does not check column names against the schema.
type MissingColumnError struct {
	Name string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Name)
}

// InvalidTransitionError indicates a pipeline operation was attempted from a
// workflow state that does not permit it.
type InvalidTransitionError struct {
	State     WorkflowState
	Operation string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("operation %q not allowed in state %q", e.Operation, e.State)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrExpired creates an ExpiredError with a formatted message.
func ErrExpired(format string, args ...interface{}) *ExpiredError {
	return &ExpiredError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupportedFormat creates an UnsupportedFormatError for the given format.
func ErrUnsupportedFormat(format string) *UnsupportedFormatError {
	return &UnsupportedFormatError{Format: format}
}

// ErrParse creates a ParseError with a reason tag and formatted message.
func ErrParse(reason, format string, args ...interface{}) *ParseError {
	return &ParseError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ErrForbidden creates a ForbiddenConstructError with the given reason tag.
func ErrForbidden(reason string) *ForbiddenConstructError {
	return &ForbiddenConstructError{Reason: reason}
}

// ErrGeneration creates a GenerationError of the given kind.
func ErrGeneration(kind GenerationErrorKind, format string, args ...interface{}) *GenerationError {
	return &GenerationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrInvalidTransition creates an InvalidTransitionError.
func ErrInvalidTransition(state WorkflowState, operation string) *InvalidTransitionError {
	return &InvalidTransitionError{State: state, Operation: operation}
}
