package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// Sweeper runs the idle-expiry collection on a cron schedule and records an
// expire audit row per collected session.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. audit may be nil.
func NewSweeper(store *Store, audit domain.AuditStore, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cron:   cron.New(),
		store:  store,
		audit:  audit,
		logger: logger.With("component", "sweeper"),
	}
}

// Start schedules the sweep at the given interval and starts the cron
// runner.
func (s *Sweeper) Start(every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", every), s.Sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("session sweeper started", "every", every)
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("session sweeper stopped")
}

// Sweep collects expired sessions once. Exported so shutdown and tests can
// trigger a collection directly.
func (s *Sweeper) Sweep() {
	ids := s.store.SweepExpired()
	if s.audit == nil {
		return
	}
	for _, id := range ids {
		entry := &domain.AuditEntry{
			ID:        domain.NewAuditID(),
			SessionID: id,
			Action:    domain.AuditExpire,
			Outcome:   "ok",
			CreatedAt: time.Now().UTC(),
		}
		if err := s.audit.Insert(context.Background(), entry); err != nil {
			s.logger.Warn("audit write failed", "action", domain.AuditExpire, "error", err)
		}
	}
}
