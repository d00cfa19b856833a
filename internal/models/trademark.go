// Package models defines the domain types exchanged between the registry
// client, the scoring engine, and the API.
package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/marca/internal/apperr"
)

// UnspecifiedMarkType is used when the registry row carries no mark type.
const UnspecifiedMarkType = "unspecified"

// SearchQuery identifies one registry search. Build it with NewSearchQuery
// and pass it by value.
type SearchQuery struct {
	Name      string `json:"marca"`
	ClassCode string `json:"ncl,omitempty"`
	MarkType  string `json:"tipo,omitempty"`
	Page      int    `json:"pagina"`
}

// NewSearchQuery trims the inputs, defaults page to 1, and validates the result.
func NewSearchQuery(name, classCode, markType string, page int) (SearchQuery, error) {
	if page == 0 {
		page = 1
	}
	q := SearchQuery{
		Name:      strings.TrimSpace(name),
		ClassCode: strings.TrimSpace(classCode),
		MarkType:  strings.TrimSpace(markType),
		Page:      page,
	}
	if err := q.Validate(); err != nil {
		return q, apperr.New(apperr.ErrValidation, "models.search_query", err)
	}
	return q, nil
}

// Validate checks the query invariants.
func (q SearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Name, validation.Required),
		validation.Field(&q.Page, validation.Min(1).Error("must be a positive integer")),
	)
}

// CandidateMark is one row of the registry result table.
type CandidateMark struct {
	RegistryID string `json:"numero"`
	Name       string `json:"marca"`
	Status     string `json:"situacao"`
	Owner      string `json:"titular"`
	MarkType   string `json:"tipo"`
}

// SearchResult is the parsed outcome of a single registry search.
type SearchResult struct {
	QueryName  string          `json:"marca"`
	Candidates []CandidateMark `json:"processos"`
	TotalCount int             `json:"processos_total"`
	ClassLabel string          `json:"classe,omitempty"`
	ClassCode  string          `json:"ncl,omitempty"`
}

// SimilarityResult pairs a candidate with its similarity to the queried name.
type SimilarityResult struct {
	Name               string `json:"name"`
	SimilarityPercent  int    `json:"similarity"`
	Status             string `json:"status"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
}

// StepStatus is the progress state of a TimelineStep.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
)

// TimelineStep is one projected phase of the registration process.
type TimelineStep struct {
	Phase                   string     `json:"phase"`
	EstimatedDurationMonths int        `json:"estimatedDuration"`
	Description             string     `json:"description"`
	Status                  StepStatus `json:"status"`
}

// TrademarkAnalysis is the terminal artifact returned to callers.
type TrademarkAnalysis struct {
	Name              string             `json:"name"`
	ViabilityScore    int                `json:"score"`
	Timeline          []TimelineStep     `json:"timeline"`
	SimilarityResults []SimilarityResult `json:"similarityResults"`
	Recommendations   []string           `json:"recommendations"`
}

// HealthStatus reports process-wide registry state.
type HealthStatus struct {
	Status             string     `json:"status"`
	SessionActive      bool       `json:"sessionActive"`
	LastSessionRefresh *time.Time `json:"lastSessionRefresh"`
	CacheSize          int        `json:"cacheSize"`
}
