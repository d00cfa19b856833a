package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
)

// Backend is the analysis service as seen by the handlers.
type Backend interface {
	AnalyzeQuery(ctx context.Context, q models.SearchQuery) (*models.TrademarkAnalysis, error)
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
	Health() models.HealthStatus
}

// Handler holds API route handlers.
type Handler struct {
	svc    Backend
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Search handles POST /api/search.
//
//	@Summary		Search the trademark registry
//	@Tags			registry
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Search query"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/api/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := h.readQuery(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Analyze handles POST /api/analyze.
//
//	@Summary		Score a trademark name against the registry
//	@Tags			registry
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Mark to analyze"
//	@Success		200		{object}	AnalysisResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/api/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	q, ok := h.readQuery(w, r)
	if !ok {
		return
	}
	analysis, err := h.svc.AnalyzeQuery(r.Context(), q)
	if err != nil {
		h.fail(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Health handles GET /health.
//
//	@Summary		Registry session and cache state
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health())
}

func (h *Handler) readQuery(w http.ResponseWriter, r *http.Request) (models.SearchQuery, bool) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return models.SearchQuery{}, false
	}
	q, err := req.Query()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(apperr.Message(err)))
		return models.SearchQuery{}, false
	}
	return q, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, errorBody(apperr.Message(err)))
		return
	}
	h.logger.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody(apperr.Message(err)))
}
