package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik2365/data-cleaning/internal/db"
	"github.com/karthik2365/data-cleaning/internal/domain"
)

func newTestStore(t *testing.T) *AuditStore {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return NewAuditStore(writeDB, readDB)
}

func entry(sessionID, action string) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        domain.NewAuditID(),
		SessionID: sessionID,
		Action:    action,
		Outcome:   "ok",
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuditStore_InsertAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	detail := "missing-column:age"
	ms := int64(12)
	e := entry("sess-1", domain.AuditExecute)
	e.Outcome = "runtime_error"
	e.Detail = &detail
	e.DurationMs = &ms
	require.NoError(t, store.Insert(ctx, e))

	entries, err := store.ListBySession(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, domain.AuditExecute, got.Action)
	assert.Equal(t, "runtime_error", got.Outcome)
	require.NotNil(t, got.Detail)
	assert.Equal(t, detail, *got.Detail)
	require.NotNil(t, got.DurationMs)
	assert.Equal(t, ms, *got.DurationMs)
	assert.WithinDuration(t, e.CreatedAt, got.CreatedAt, time.Second)
}

func TestAuditStore_NullableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, entry("sess-1", domain.AuditIngest)))

	entries, err := store.ListBySession(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Detail)
	assert.Nil(t, entries[0].DurationMs)
}

func TestAuditStore_ListNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	actions := []string{domain.AuditIngest, domain.AuditGenerate, domain.AuditApprove, domain.AuditExecute}
	for _, a := range actions {
		require.NoError(t, store.Insert(ctx, entry("sess-1", a)))
	}
	require.NoError(t, store.Insert(ctx, entry("sess-2", domain.AuditIngest)))

	entries, err := store.ListBySession(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditExecute, entries[0].Action)
	assert.Equal(t, domain.AuditApprove, entries[1].Action)
}

func TestAuditStore_ListUnknownSession(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.ListBySession(context.Background(), "absent", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
