package session

import (
	"sync"
	"testing"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := NewStore(0, nil)
	t.Cleanup(func() { st.Clear() })
	return st
}

func newTestSession(t *testing.T) *domain.Session {
	t.Helper()
	tab, err := domain.NewTable(
		domain.Column{Name: "v", Cells: []any{int64(1), int64(2)}},
	)
	require.NoError(t, err)
	return domain.NewSession(tab, domain.DeriveSchema(tab), domain.ComputeStatistics(tab))
}

// backdate pushes a session's idle clock into the past.
func backdate(t *testing.T, st *Store, id string, d time.Duration) {
	t.Helper()
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	require.True(t, ok)
	e.lastUsed.Store(time.Now().Add(-d))
}

func TestStore_AcquireRoundTrip(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	got, release, err := st.Acquire(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	release()

	got, release, err = st.Acquire(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	release()
}

func TestStore_AcquireUnknown(t *testing.T) {
	st := newTestStore(t)

	_, _, err := st.Acquire("no-such-session")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStore_LeaseIsExclusive(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	_, release, err := st.Acquire(sess.ID)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, rel, err := st.Acquire(sess.ID)
		if err == nil {
			rel()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lease was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestStore_LeaseSerializesWrites(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	// A plain counter incremented under the lease stays consistent only if
	// the lease is truly exclusive.
	const goroutines = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, release, err := st.Acquire(sess.ID)
			if err != nil {
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestStore_ReplaceVisibleAfterRelease(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	got, release, err := st.Acquire(sess.ID)
	require.NoError(t, err)
	next := got.Table.Head(1)
	got.Replace(next, domain.DeriveSchema(next), domain.ComputeStatistics(next), domain.HistoryEntry{
		Code:       "table = table.head(1)",
		Provenance: domain.ProvenanceUserAuthored,
		AppliedAt:  time.Now(),
	})
	release()

	got, release, err = st.Acquire(sess.ID)
	require.NoError(t, err)
	defer release()
	assert.Equal(t, 1, got.Table.NumRows())
	assert.Len(t, got.History, 1)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	assert.True(t, st.Delete(sess.ID))
	assert.False(t, st.Delete(sess.ID))

	_, _, err := st.Acquire(sess.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStore_DeleteWhileLeased(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	_, release, err := st.Acquire(sess.ID)
	require.NoError(t, err)

	// Delete must not wait for the lease holder.
	done := make(chan bool, 1)
	go func() { done <- st.Delete(sess.ID) }()
	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("delete blocked on a held lease")
	}

	release()

	_, _, err = st.Acquire(sess.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStore_ExpiredThenSwept(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	backdate(t, st, sess.ID, 2*st.ttl)

	// Past the TTL but not yet collected: the id is distinguishable from a
	// wrong one.
	_, _, err := st.Acquire(sess.ID)
	require.Error(t, err)
	var expired *domain.ExpiredError
	assert.ErrorAs(t, err, &expired)

	assert.Equal(t, []string{sess.ID}, st.SweepExpired())

	_, _, err = st.Acquire(sess.ID)
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStore_SweepKeepsFresh(t *testing.T) {
	st := newTestStore(t)
	fresh := newTestSession(t)
	stale := newTestSession(t)
	st.Add(fresh)
	st.Add(stale)

	backdate(t, st, stale.ID, 2*st.ttl)

	assert.Equal(t, []string{stale.ID}, st.SweepExpired())
	assert.Equal(t, 1, st.Len())

	_, release, err := st.Acquire(fresh.ID)
	require.NoError(t, err)
	release()
}

func TestStore_AccessRefreshesIdleClock(t *testing.T) {
	st := newTestStore(t)
	sess := newTestSession(t)
	st.Add(sess)

	// Nearly expired, then touched: the sweep must leave it alone.
	backdate(t, st, sess.ID, st.ttl-time.Minute)

	_, release, err := st.Acquire(sess.ID)
	require.NoError(t, err)
	release()

	assert.Empty(t, st.SweepExpired())
	assert.Equal(t, 1, st.Len())
}

func TestStore_Clear(t *testing.T) {
	st := newTestStore(t)
	st.Add(newTestSession(t))
	st.Add(newTestSession(t))
	require.Equal(t, 2, st.Len())

	assert.Equal(t, 2, st.Clear())
	assert.Equal(t, 0, st.Len())
}
