// Package sandbox validates and executes untrusted transformation code
// against in-memory tables under strict resource limits. Code runs in a
// restricted Starlark dialect with a single pre-bound table value and a
// pure math module; there is no I/O, no clock, and no ambient state, so a
// given (source, table) pair always produces the same output.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"go.starlark.net/starlark"
)

const (
	defaultMaxSteps = uint64(500_000)
	defaultTimeout  = 2 * time.Second
	defaultMaxRows  = 100_000

	// sourceFilename names the compiled chunk in interpreter errors.
	sourceFilename = "transform.star"

	// inputGlobal carries the working table into the script. The prelude
	// rebinds it to the public name as a module global so scripts can
	// reassign `table` freely; the internal name itself never passes the
	// validator.
	inputGlobal = "__table__"
	prelude     = "table = " + inputGlobal + "\n"

	cancelTimeout = "wall clock budget exhausted"
	cancelContext = "request cancelled"
)

// Options bound a single execution. Zero values select the defaults.
type Options struct {
	MaxSteps uint64
	Timeout  time.Duration
	MaxRows  int
}

// Runtime is the sandboxed interpreter. It implements domain.Sandbox, is
// stateless, and is safe for concurrent use.
type Runtime struct {
	maxSteps uint64
	timeout  time.Duration
	maxRows  int
	logger   *slog.Logger
}

// New creates a Runtime with the given limits.
func New(opts Options, logger *slog.Logger) *Runtime {
	if opts.MaxSteps == 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultMaxRows
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		maxSteps: opts.MaxSteps,
		timeout:  opts.Timeout,
		maxRows:  opts.MaxRows,
		logger:   logger.With("component", "sandbox"),
	}
}

// Execute runs source against a private copy of table. The input table is
// never mutated. When the table exceeds the row ceiling the copy is
// truncated first and the shortfall is reported through TotalRows and
// ProcessedRows. Every failure branch comes back classified in the result.
func (r *Runtime) Execute(ctx context.Context, source string, table *domain.Table) *domain.ExecutionResult {
	start := time.Now()
	total := table.NumRows()
	work := table.Clone()
	processed := total
	if total > r.maxRows {
		work = work.Head(r.maxRows)
		processed = r.maxRows
	}

	thread := &starlark.Thread{Name: "transform"}
	thread.SetMaxExecutionSteps(r.maxSteps)
	thread.Print = func(*starlark.Thread, string) {} // the sandbox has no output channel

	var globals starlark.StringDict
	err := runWithTimeout(ctx, thread, r.timeout, func() error {
		g, execErr := starlark.ExecFileOptions(fileOptions(), thread, sourceFilename, prelude+source, execPredeclared(work))
		globals = g
		return execErr
	})
	elapsed := time.Since(start)
	if err != nil {
		result := failedResult(classifyError(err), total, processed, elapsed)
		r.logger.Debug("execution failed",
			"outcome", result.Outcome, "kind", result.Failure.Kind, "elapsed", elapsed)
		return result
	}

	out := globals["result"]
	if out == nil {
		out = globals["table"]
	}
	result := buildResult(out, total, processed, elapsed)
	r.logger.Debug("execution finished", "outcome", result.Outcome, "elapsed", elapsed)
	return result
}

// buildResult maps the script's final value onto the result protocol: a
// table value stays a table, serializable scalars and flat collections
// become the summary, and anything else is an invalid shape.
func buildResult(v starlark.Value, total, processed int, elapsed time.Duration) *domain.ExecutionResult {
	if tv, ok := v.(*tableValue); ok {
		return &domain.ExecutionResult{
			Outcome:       domain.OutcomeSuccess,
			Table:         tv.table,
			RowCount:      tv.table.NumRows(),
			ColumnCount:   tv.table.NumColumns(),
			TotalRows:     total,
			ProcessedRows: processed,
			Elapsed:       elapsed,
		}
	}
	summary, err := summaryValue(v)
	if err != nil {
		failure := &domain.ExecutionFailure{
			Kind:   domain.FailInvalidResultShape,
			Detail: err.Error(),
		}
		return failedResult(failure, total, processed, elapsed)
	}
	return &domain.ExecutionResult{
		Outcome:       domain.OutcomeSuccess,
		Summary:       summary,
		TotalRows:     total,
		ProcessedRows: processed,
		Elapsed:       elapsed,
	}
}

// summaryValue converts an analysis-style result into plain Go data:
// scalars, a list of scalars, or a string-keyed dict of scalars.
func summaryValue(v starlark.Value) (any, error) {
	switch c := v.(type) {
	case *starlark.Dict:
		m := make(map[string]any, c.Len())
		for _, item := range c.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("summary dict keys must be strings, got %s", item[0].Type())
			}
			cell, err := starlarkToCell(item[1])
			if err != nil {
				return nil, fmt.Errorf("summary value for %q: %v", key, err)
			}
			m[key] = cell
		}
		return m, nil
	case *starlark.List:
		out := make([]any, c.Len())
		for i := 0; i < c.Len(); i++ {
			cell, err := starlarkToCell(c.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = cell
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, len(c))
		for i, elem := range c {
			cell, err := starlarkToCell(elem)
			if err != nil {
				return nil, err
			}
			out[i] = cell
		}
		return out, nil
	case *columnValue:
		out := make([]any, len(c.column.Cells))
		copy(out, c.column.Cells)
		return out, nil
	}
	return starlarkToCell(v)
}

func failedResult(failure *domain.ExecutionFailure, total, processed int, elapsed time.Duration) *domain.ExecutionResult {
	outcome := domain.OutcomeRuntimeError
	if failure.Kind == domain.FailTimeout || failure.Kind == domain.FailStepBudget {
		outcome = domain.OutcomeResourceExceeded
	}
	return &domain.ExecutionResult{
		Outcome:       outcome,
		TotalRows:     total,
		ProcessedRows: processed,
		Elapsed:       elapsed,
		Failure:       failure,
	}
}

// runWithTimeout adapts the interpreter's cooperative cancellation to a
// wall-clock budget and the caller's context. The interpreter checks for
// cancellation at step boundaries, so the goroutine is always reaped.
func runWithTimeout(ctx context.Context, thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		thread.Cancel(cancelTimeout)
		if err := <-done; err != nil {
			return err
		}
		return errors.New(cancelTimeout)
	case <-ctx.Done():
		thread.Cancel(cancelContext)
		if err := <-done; err != nil {
			return err
		}
		return errors.New(cancelContext)
	}
}

// classifyError normalizes interpreter failures. Domain errors raised by
// table operations keep their identity; everything else is classified by
// message shape. Raw interpreter frames never leave this function.
func classifyError(err error) *domain.ExecutionFailure {
	var missing *domain.MissingColumnError
	if errors.As(err, &missing) {
		return &domain.ExecutionFailure{
			Kind:   domain.FailMissingColumn + ":" + missing.Name,
			Detail: missing.Error(),
		}
	}
	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		return &domain.ExecutionFailure{Kind: domain.FailValueError, Detail: invalid.Message}
	}

	msg := err.Error()
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		msg = evalErr.Msg
	}
	switch {
	case strings.Contains(msg, "too many steps"):
		return &domain.ExecutionFailure{Kind: domain.FailStepBudget, Detail: "execution step budget exhausted"}
	case strings.Contains(msg, cancelTimeout):
		return &domain.ExecutionFailure{Kind: domain.FailTimeout, Detail: "execution timed out"}
	case strings.Contains(msg, cancelContext):
		return &domain.ExecutionFailure{Kind: domain.FailTimeout, Detail: "execution cancelled"}
	case strings.HasPrefix(msg, "fail:"):
		return &domain.ExecutionFailure{Kind: domain.FailEvaluation, Detail: msg}
	case matchesAny(msg, typeErrorPatterns):
		return &domain.ExecutionFailure{Kind: domain.FailTypeError, Detail: msg}
	case matchesAny(msg, valueErrorPatterns):
		return &domain.ExecutionFailure{Kind: domain.FailValueError, Detail: msg}
	}
	return &domain.ExecutionFailure{Kind: domain.FailEvaluation, Detail: msg}
}

var typeErrorPatterns = []string{
	"binary op",
	"unary op",
	"has no .",
	"not iterable",
	"not callable",
	"call of non-function",
	"unhashable",
	", want ",
	", got ",
}

var valueErrorPatterns = []string{
	"out of range",
	"division by zero",
	"invalid literal",
	"cannot convert",
}

func matchesAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
