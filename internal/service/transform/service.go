// Package transform is the pipeline orchestrator: the state machine that
// turns (dataset, instruction) into (validated code, executed result). It
// owns every workflow transition; the session store, ingester, generator,
// and sandbox are its collaborators.
package transform

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"
	"github.com/karthik2365/data-cleaning/internal/ingest"
	"github.com/karthik2365/data-cleaning/internal/metrics"
	"github.com/karthik2365/data-cleaning/internal/service/session"
)

// DefaultSampleRows is the preview sample size.
const DefaultSampleRows = 10

// Service coordinates the transformation pipeline for all sessions.
type Service struct {
	store    *session.Store
	ingester *ingest.Ingester
	sandbox  domain.Sandbox
	gen      domain.Generator
	audit    domain.AuditStore
	metrics  *metrics.Metrics
	recipes  *Registry
	sampleN  int
	logger   *slog.Logger
}

// Options configures a Service. Audit and Metrics may be nil; Gen may be
// nil when no collaborator is available, in which case only the fixed
// transformation path can execute code.
type Options struct {
	Store      *session.Store
	Ingester   *ingest.Ingester
	Sandbox    domain.Sandbox
	Gen        domain.Generator
	Audit      domain.AuditStore
	Metrics    *metrics.Metrics
	Recipes    *Registry
	SampleRows int
	Logger     *slog.Logger
}

// NewService wires the orchestrator.
func NewService(opts Options) *Service {
	if opts.SampleRows <= 0 {
		opts.SampleRows = DefaultSampleRows
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:    opts.Store,
		ingester: opts.Ingester,
		sandbox:  opts.Sandbox,
		gen:      opts.Gen,
		audit:    opts.Audit,
		metrics:  opts.Metrics,
		recipes:  opts.Recipes,
		sampleN:  opts.SampleRows,
		logger:   opts.Logger.With("component", "transform"),
	}
}

// Recipes returns the fixed transformation registry.
func (s *Service) Recipes() *Registry { return s.recipes }

// Ingest parses an upload, allocates a session, and emits the first
// preview. The session lands in Previewed; Uploaded is never observable.
func (s *Service) Ingest(ctx context.Context, raw []byte, declaredFormat string) (*domain.Preview, error) {
	start := time.Now()
	table, schema, stats, err := s.ingester.Ingest(ctx, raw, declaredFormat)
	if err != nil {
		s.metrics.ObserveIngest(declaredFormat, "error")
		return nil, err
	}
	sess := domain.NewSession(table, schema, stats)
	sess.State = domain.StatePreviewed
	s.store.Add(sess)

	s.metrics.ObserveIngest(declaredFormat, "ok")
	s.writeAudit(ctx, sess.ID, domain.AuditIngest, "ok", nil, time.Since(start))
	s.logger.Info("session created",
		"session_id", sess.ID, "rows", stats.TotalRows, "columns", stats.TotalColumns)
	return sess.Snapshot(s.sampleN), nil
}

// Preview re-emits the session's schema, statistics, sample, and history.
// An Executed session loops back to Previewed so a further instruction can
// be issued against the updated table.
func (s *Service) Preview(ctx context.Context, id string) (*domain.Preview, error) {
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()
	if sess.State == domain.StateExecuted {
		sess.State = domain.StatePreviewed
	}
	return sess.Snapshot(s.sampleN), nil
}

// Generate forwards (instruction, schema) to the collaborator. Allowed
// from Previewed and Executed (loop-back). A collaborator failure leaves
// the state unchanged; the caller may resubmit with a new instruction.
func (s *Service) Generate(ctx context.Context, id, instruction string) (*domain.CodeCandidate, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, domain.ErrValidation("instruction must not be empty")
	}
	if s.gen == nil {
		return nil, domain.ErrGeneration(domain.GenerationUnavailable, "no generation collaborator configured")
	}

	start := time.Now()
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.State != domain.StatePreviewed && sess.State != domain.StateExecuted {
		return nil, domain.ErrInvalidTransition(sess.State, "generate")
	}

	code, err := s.gen.Generate(ctx, instruction, sess.Schema)
	if err != nil {
		s.writeAudit(ctx, id, domain.AuditGenerate, errorTag(err), nil, time.Since(start))
		return nil, err
	}

	sess.GeneratedSum = domain.CodeSum(code)
	sess.State = domain.StateCodeGenerated
	s.writeAudit(ctx, id, domain.AuditGenerate, "ok", nil, time.Since(start))
	return &domain.CodeCandidate{Source: code, Provenance: domain.ProvenanceGenerated}, nil
}

// Approve moves the session to CodeApproved. It is a purely local
// transition: the code is not validated here, so the caller can edit and
// re-approve freely before executing. Allowed from CodeGenerated (accept or
// edit generated code), Previewed (user-authored code), and CodeApproved
// (re-edit after a failed execute).
func (s *Service) Approve(ctx context.Context, id, source string) (domain.WorkflowState, error) {
	if strings.TrimSpace(source) == "" {
		return "", domain.ErrValidation("code must not be empty")
	}
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return "", err
	}
	defer release()

	switch sess.State {
	case domain.StateCodeGenerated, domain.StatePreviewed, domain.StateCodeApproved:
		sess.State = domain.StateCodeApproved
	default:
		return "", domain.ErrInvalidTransition(sess.State, "approve")
	}
	s.writeAudit(ctx, id, domain.AuditApprove, "ok", nil, 0)
	return sess.State, nil
}

// Execute validates and runs candidate code against the session's table
// under the held lease. A validator rejection or executor failure returns
// the state to CodeApproved so the caller can edit and retry; only a
// successful run replaces the table, appends history, and moves to
// Executed. The replace is all-or-nothing: every failure branch returns
// before any session field changes.
func (s *Service) Execute(ctx context.Context, id, source string) (*domain.ExecutionResult, error) {
	start := time.Now()
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.State != domain.StateCodeApproved {
		return nil, domain.ErrInvalidTransition(sess.State, "execute")
	}

	if err := s.sandbox.Validate(source); err != nil {
		reason := validationReason(err)
		result := &domain.ExecutionResult{
			Outcome: domain.OutcomeValidationRejected,
			Failure: &domain.ExecutionFailure{Kind: reason, Detail: "code rejected by validator"},
		}
		s.metrics.ObserveExecution(string(result.Outcome), 0)
		s.writeAudit(ctx, id, domain.AuditExecute, string(result.Outcome), &reason, time.Since(start))
		return result, nil
	}

	provenance := domain.ClassifyProvenance(source, sess.GeneratedSum)
	result := s.runAndCommit(ctx, sess, source, provenance, domain.AuditExecute, start)
	return result, nil
}

// ExecuteFixed runs a recipe from the embedded registry: the bypass path
// that skips generation and validation while still going through the
// executor's resource-limited context. Allowed from Previewed and Executed.
func (s *Service) ExecuteFixed(ctx context.Context, id, recipeName string) (*domain.ExecutionResult, error) {
	recipe, ok := s.recipes.Get(recipeName)
	if !ok {
		return nil, domain.ErrValidation("unknown recipe %q", recipeName)
	}

	start := time.Now()
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.State != domain.StatePreviewed && sess.State != domain.StateExecuted {
		return nil, domain.ErrInvalidTransition(sess.State, "transform")
	}

	result := s.runAndCommit(ctx, sess, recipe.Code, domain.ProvenanceUserAuthored, domain.AuditTransform, start)
	return result, nil
}

// Export returns a private copy of the session's current table with its
// statistics. The copy never aliases stored cells, so callers can serialize
// it outside the lease.
func (s *Service) Export(ctx context.Context, id string) (*domain.Table, domain.Statistics, error) {
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, domain.Statistics{}, err
	}
	defer release()
	return sess.Table.Clone(), sess.Stats, nil
}

// Delete tears the session down. Idempotent: deleting an absent id reports
// false without error.
func (s *Service) Delete(ctx context.Context, id string) bool {
	existed := s.store.Delete(id)
	if existed {
		s.writeAudit(ctx, id, domain.AuditDelete, "ok", nil, 0)
	}
	return existed
}

// runAndCommit executes source against the session's table and, only on
// success, swaps in the new table, recomputes schema and statistics, and
// appends history. Summary-only results keep the table and still append
// history. The caller holds the session lease.
func (s *Service) runAndCommit(ctx context.Context, sess *domain.Session, source string, provenance domain.Provenance, action string, start time.Time) *domain.ExecutionResult {
	result := s.sandbox.Execute(ctx, source, sess.Table)
	s.metrics.ObserveExecution(string(result.Outcome), result.Elapsed)

	if result.Failed() {
		var detail *string
		if result.Failure != nil {
			detail = &result.Failure.Kind
		}
		s.writeAudit(ctx, sess.ID, action, string(result.Outcome), detail, time.Since(start))
		return result
	}

	entry := domain.HistoryEntry{
		Code:       source,
		Provenance: provenance,
		AppliedAt:  time.Now().UTC(),
		Elapsed:    result.Elapsed,
	}
	if result.Table != nil {
		schema := domain.DeriveSchema(result.Table)
		stats := domain.ComputeStatistics(result.Table)
		sess.Replace(result.Table, schema, stats, entry)
	} else {
		sess.History = append(sess.History, entry)
	}
	sess.State = domain.StateExecuted

	s.writeAudit(ctx, sess.ID, action, string(result.Outcome), nil, time.Since(start))
	s.logger.Info("transformation applied",
		"session_id", sess.ID, "action", action, "rows", sess.Stats.TotalRows, "elapsed", result.Elapsed)
	return result
}

// writeAudit records a pipeline operation. Best-effort: a failed write is
// logged and never fails the operation it records.
func (s *Service) writeAudit(ctx context.Context, sessionID, action, outcome string, detail *string, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	ms := elapsed.Milliseconds()
	entry := &domain.AuditEntry{
		ID:         domain.NewAuditID(),
		SessionID:  sessionID,
		Action:     action,
		Outcome:    outcome,
		Detail:     detail,
		DurationMs: &ms,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Insert(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("audit write failed", "action", action, "error", err)
	}
}

// AuditTrail returns the audit entries for a live session, newest first.
func (s *Service) AuditTrail(ctx context.Context, id string, limit int) ([]domain.AuditEntry, error) {
	sess, release, err := s.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	sessionID := sess.ID
	release()
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.ListBySession(ctx, sessionID, limit)
}

// validationReason extracts the machine-readable tag from a validator
// rejection.
func validationReason(err error) string {
	if forbidden, ok := err.(*domain.ForbiddenConstructError); ok {
		return forbidden.Reason
	}
	return "rejected"
}

// errorTag maps a generation failure onto its audit outcome tag.
func errorTag(err error) string {
	if genErr, ok := err.(*domain.GenerationError); ok {
		return string(genErr.Kind)
	}
	return "error"
}
