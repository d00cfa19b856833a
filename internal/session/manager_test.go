package session

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/testutil"
)

func newManager(t *testing.T, reg *testutil.FakeRegistry, clock *testutil.Clock) *Manager {
	t.Helper()
	return NewManager(Config{
		EntryURL:       reg.EntryURL(),
		UserAgent:      "test-agent",
		AcceptLanguage: "pt-BR",
		TTL:            15 * time.Minute,
	}, reg.Server.Client(), WithClock(clock.Now), WithLogger(testutil.Logger()))
}

func TestEnsureValid_RefreshesOnceWithinTTL(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	clock := testutil.NewClock()
	m := newManager(t, reg, clock)

	assert.False(t, m.Snapshot().Active)

	cookie, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=session-1", cookie)

	clock.Advance(14 * time.Minute)
	cookie, err = m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=session-1", cookie)
	assert.Equal(t, 1, reg.EntryHits())

	snap := m.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, testutil.NewClock().Now(), snap.IssuedAt)
}

func TestEnsureValid_RefreshesAfterTTL(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	clock := testutil.NewClock()
	m := newManager(t, reg, clock)

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	clock.Advance(15*time.Minute + time.Second)
	assert.False(t, m.Snapshot().Active)

	cookie, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=session-2", cookie)
	assert.Equal(t, 2, reg.EntryHits())
	assert.Equal(t, clock.Now(), m.Snapshot().IssuedAt)
}

func TestInvalidate_ForcesRefresh(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	m := newManager(t, reg, testutil.NewClock())

	_, err := m.EnsureValid(context.Background())
	require.NoError(t, err)

	m.Invalidate()
	assert.False(t, m.Snapshot().Active)

	cookie, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=session-2", cookie)
}

func TestRefresh_NoCookie(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	reg.SetEntryResponse(http.StatusOK, false)
	m := newManager(t, reg, testutil.NewClock())

	_, err := m.EnsureValid(context.Background())
	assert.ErrorIs(t, err, apperr.ErrSession)
	assert.False(t, m.Snapshot().Active)
}

func TestRefresh_EntryPageError(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	reg.SetEntryResponse(http.StatusServiceUnavailable, true)
	m := newManager(t, reg, testutil.NewClock())

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, apperr.ErrSession)
}

func TestRefresh_Unreachable(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	m := newManager(t, reg, testutil.NewClock())
	reg.Server.Close()

	_, err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, apperr.ErrSession)
}

func TestEnsureValid_ConcurrentCallersGetACookie(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	m := newManager(t, reg, testutil.NewClock())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cookie, err := m.EnsureValid(context.Background())
			if err == nil && cookie == "" {
				t.Error("empty cookie")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, m.Snapshot().Active)
	assert.GreaterOrEqual(t, reg.EntryHits(), 1)
}

func TestRefresh_CallerDeadlineDoesNotFailOtherWaiters(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	reg.SetEntryDelay(300 * time.Millisecond)
	m := newManager(t, reg, testutil.NewClock())

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	shortErr := make(chan error, 1)
	go func() {
		_, err := m.EnsureValid(shortCtx)
		shortErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cookie, err := m.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JSESSIONID=session-1", cookie)

	err = <-shortErr
	assert.ErrorIs(t, err, apperr.ErrSession)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, reg.EntryHits(), "both callers share one refresh")
	assert.True(t, m.Snapshot().Active)
}

func TestRefresh_SharedFetchBoundedByTimeout(t *testing.T) {
	reg := testutil.NewFakeRegistry(t)
	reg.SetEntryDelay(2 * time.Second)
	m := NewManager(Config{
		EntryURL:  reg.EntryURL(),
		UserAgent: "test-agent",
		TTL:       15 * time.Minute,
		Timeout:   50 * time.Millisecond,
	}, reg.Server.Client(), WithLogger(testutil.Logger()))

	start := time.Now()
	_, err := m.EnsureValid(context.Background())
	assert.ErrorIs(t, err, apperr.ErrSession)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, m.Snapshot().Active)
}
