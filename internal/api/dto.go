package api

import "github.com/starford/marca/internal/models"

// SearchRequest is the request body for POST /api/search and POST /api/analyze.
type SearchRequest struct {
	Marca  string `json:"marca" example:"Acme" validate:"required"`
	NCL    string `json:"ncl,omitempty" example:"25"`
	Tipo   string `json:"tipo,omitempty" example:"Nominativa"`
	Pagina int    `json:"pagina,omitempty" example:"1"`
}

// Query converts the request into a validated search query.
func (r SearchRequest) Query() (models.SearchQuery, error) {
	return models.NewSearchQuery(r.Marca, r.NCL, r.Tipo, r.Pagina)
}

// SearchResponse is the registry result (aliased from the domain layer).
type SearchResponse = models.SearchResult

// AnalysisResponse is the viability analysis (aliased from the domain layer).
type AnalysisResponse = models.TrademarkAnalysis

// HealthResponse reports registry session and cache state.
type HealthResponse = models.HealthStatus
