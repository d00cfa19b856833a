package analysis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/cache"
	"github.com/starford/marca/internal/models"
	"github.com/starford/marca/internal/scoring"
	"github.com/starford/marca/internal/session"
	"github.com/starford/marca/internal/testutil"
)

type fakeRegistry struct {
	calls      atomic.Int32
	candidates []models.CandidateMark
	err        error
}

func (f *fakeRegistry) Search(_ context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchResult{
		QueryName:  q.Name,
		Candidates: f.candidates,
		TotalCount: len(f.candidates),
		ClassCode:  q.ClassCode,
	}, nil
}

type fakeSessions struct {
	snap     session.Snapshot
	err      error
	attempts int
}

func (f *fakeSessions) EnsureValid(context.Context) (string, error) {
	f.attempts++
	return "JSESSIONID=x", f.err
}

func (f *fakeSessions) Snapshot() session.Snapshot { return f.snap }

type env struct {
	reg      *fakeRegistry
	sessions *fakeSessions
	clock    *testutil.Clock
	svc      *Service
}

func newEnv(candidates ...models.CandidateMark) *env {
	clock := testutil.NewClock()
	reg := &fakeRegistry{candidates: candidates}
	sessions := &fakeSessions{}
	svc := NewService(
		reg,
		cache.New(time.Hour, cache.WithClock(clock.Now)),
		scoring.NewEngine(scoring.DefaultPolicy()),
		sessions,
		testutil.Logger(),
	)
	return &env{reg: reg, sessions: sessions, clock: clock, svc: svc}
}

func TestAnalyze_BlankNameIsValidationError(t *testing.T) {
	e := newEnv()
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := e.svc.Analyze(context.Background(), name)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Equal(t, int32(0), e.reg.calls.Load())
}

func TestAnalyze_NoCandidates(t *testing.T) {
	e := newEnv()

	got, err := e.svc.Analyze(context.Background(), "  Zyxwv  ")
	require.NoError(t, err)

	assert.Equal(t, "Zyxwv", got.Name)
	assert.Equal(t, scoring.EmptyResultScore, got.ViabilityScore)
	assert.Empty(t, got.SimilarityResults)
	assert.Len(t, got.Timeline, 5)
	assert.NotEmpty(t, got.Recommendations)
}

func TestAnalyze_ScoresAgainstActiveCandidates(t *testing.T) {
	e := newEnv(
		models.CandidateMark{RegistryID: "1", Name: "ACME", Status: scoring.StatusRegistered, Owner: "A", MarkType: "Nominativa"},
		models.CandidateMark{RegistryID: "2", Name: "Other", Status: "Arquivado", Owner: "B", MarkType: "Mista"},
	)

	got, err := e.svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)

	assert.Equal(t, 0, got.ViabilityScore)
	require.Len(t, got.SimilarityResults, 2)
	assert.Equal(t, 100, got.SimilarityResults[0].SimilarityPercent)
	assert.Equal(t, "1", got.SimilarityResults[0].RegistrationNumber)
	assert.Equal(t, "Other", got.SimilarityResults[1].Name)
}

func TestAnalyze_CachedWithinTTL(t *testing.T) {
	e := newEnv()

	_, err := e.svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)
	e.clock.Advance(30 * time.Minute)
	_, err = e.svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, int32(1), e.reg.calls.Load())

	e.clock.Advance(31 * time.Minute)
	_, err = e.svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, int32(2), e.reg.calls.Load())
}

func TestAnalyze_WrapsRegistryFailure(t *testing.T) {
	e := newEnv()
	e.reg.err = apperr.New(apperr.ErrCaptcha, "registry.search", nil)

	got, err := e.svc.Analyze(context.Background(), "Acme")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAnalysis)
	assert.ErrorIs(t, err, apperr.ErrCaptcha)
	assert.Equal(t, 0, e.svc.Health().CacheSize)
}

func TestAnalyzeQuery_ClassCodeInRecommendations(t *testing.T) {
	e := newEnv()
	q, err := models.NewSearchQuery("Acme", "25", "", 1)
	require.NoError(t, err)

	got, err := e.svc.AnalyzeQuery(context.Background(), q)
	require.NoError(t, err)
	require.NotEmpty(t, got.Recommendations)
	assert.Contains(t, got.Recommendations[0], "25")
}

func TestSearch_PassesErrorsThrough(t *testing.T) {
	e := newEnv()
	e.reg.err = apperr.New(apperr.ErrTimeout, "registry.search", context.DeadlineExceeded)
	q, err := models.NewSearchQuery("Acme", "", "", 1)
	require.NoError(t, err)

	_, err = e.svc.Search(context.Background(), q)
	assert.ErrorIs(t, err, apperr.ErrTimeout)
	assert.NotErrorIs(t, err, apperr.ErrAnalysis)
}

func TestSearch_InvalidQuery(t *testing.T) {
	e := newEnv()
	_, err := e.svc.Search(context.Background(), models.SearchQuery{Name: "Acme", Page: -1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int32(0), e.reg.calls.Load())
}

func TestHealth(t *testing.T) {
	e := newEnv()
	h := e.svc.Health()
	assert.Equal(t, "ok", h.Status)
	assert.False(t, h.SessionActive)
	assert.Nil(t, h.LastSessionRefresh)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e.sessions.snap = session.Snapshot{Active: true, IssuedAt: issued}
	_, err := e.svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)

	h = e.svc.Health()
	assert.True(t, h.SessionActive)
	require.NotNil(t, h.LastSessionRefresh)
	assert.True(t, issued.Equal(*h.LastSessionRefresh))
	assert.Equal(t, 1, h.CacheSize)
}

func TestPrime_FailureIsNotFatal(t *testing.T) {
	e := newEnv()
	e.sessions.err = apperr.New(apperr.ErrSession, "session.refresh", nil)

	e.svc.Prime(context.Background())
	assert.Equal(t, 1, e.sessions.attempts)
}
