// Package analysis is the entry point callers use: it fetches registry
// candidates through the cache and scores them.
package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
	"github.com/starford/marca/internal/scoring"
	"github.com/starford/marca/internal/session"
)

// Searcher runs one registry search.
type Searcher interface {
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
}

// Cache returns a stored result or fills it with fetch.
type Cache interface {
	GetOrFetch(ctx context.Context, q models.SearchQuery, fetch func(context.Context, models.SearchQuery) (*models.SearchResult, error)) (*models.SearchResult, error)
	Size() int
}

// Sessions exposes the registry session state.
type Sessions interface {
	EnsureValid(ctx context.Context) (string, error)
	Snapshot() session.Snapshot
}

// Service coordinates the cache, the registry client, and the scoring engine.
type Service struct {
	registry Searcher
	cache    Cache
	engine   *scoring.Engine
	sessions Sessions
	logger   *slog.Logger
}

// NewService creates a new analysis service.
func NewService(registry Searcher, cache Cache, engine *scoring.Engine, sessions Sessions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		registry: registry,
		cache:    cache,
		engine:   engine,
		sessions: sessions,
		logger:   logger,
	}
}

// Analyze scores name against the registry with no class or type filter.
func (s *Service) Analyze(ctx context.Context, name string) (*models.TrademarkAnalysis, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("analysis.analyze", "marca: cannot be blank.")
	}
	q, err := models.NewSearchQuery(name, "", "", 1)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeQuery(ctx, q)
}

// AnalyzeQuery scores q.Name against the candidates returned for q.
func (s *Service) AnalyzeQuery(ctx context.Context, q models.SearchQuery) (*models.TrademarkAnalysis, error) {
	if err := q.Validate(); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "analysis.analyze", err)
	}

	res, err := s.cache.GetOrFetch(ctx, q, s.registry.Search)
	if err != nil {
		return nil, apperr.New(apperr.ErrAnalysis, "analysis.analyze", err)
	}

	scored := s.engine.Score(res.Candidates, q.Name, q.ClassCode)
	s.logger.Info("analysis: scored",
		slog.String("marca", q.Name),
		slog.Int("candidates", len(res.Candidates)),
		slog.Int("score", scored.ViabilityScore),
	)
	return &models.TrademarkAnalysis{
		Name:              q.Name,
		ViabilityScore:    scored.ViabilityScore,
		Timeline:          scored.Timeline,
		SimilarityResults: scored.SimilarityResults,
		Recommendations:   scored.Recommendations,
	}, nil
}

// Search returns the raw registry result for q, served from the cache when fresh.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, apperr.New(apperr.ErrValidation, "analysis.search", err)
	}
	res, err := s.cache.GetOrFetch(ctx, q, s.registry.Search)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Health reports session state and cache size.
func (s *Service) Health() models.HealthStatus {
	snap := s.sessions.Snapshot()
	h := models.HealthStatus{
		Status:        "ok",
		SessionActive: snap.Active,
		CacheSize:     s.cache.Size(),
	}
	if !snap.IssuedAt.IsZero() {
		t := snap.IssuedAt.UTC().Truncate(time.Second)
		h.LastSessionRefresh = &t
	}
	return h
}

// Prime acquires a registry session ahead of the first request. Failure is
// logged and otherwise ignored; the next search retries acquisition.
func (s *Service) Prime(ctx context.Context) {
	if _, err := s.sessions.EnsureValid(ctx); err != nil {
		s.logger.Warn("analysis: session priming failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("analysis: session primed")
}
