// Package scoring turns registry candidates into a viability score,
// recommendations, and a projected registration timeline.
package scoring

import (
	"sync/atomic"

	"github.com/starford/marca/internal/models"
	"github.com/starford/marca/internal/similarity"
)

// Result is the scoring outcome for one query.
type Result struct {
	ViabilityScore    int
	SimilarityResults []models.SimilarityResult
	Recommendations   []string
	Timeline          []models.TimelineStep
}

// Engine scores candidates under a policy that can be swapped at runtime.
// Score is a pure function of its inputs and the policy snapshot it reads.
type Engine struct {
	policy atomic.Pointer[Policy]
}

// NewEngine creates an engine using p.
func NewEngine(p Policy) *Engine {
	e := &Engine{}
	e.SetPolicy(p)
	return e
}

// SetPolicy replaces the active policy for subsequent Score calls.
func (e *Engine) SetPolicy(p Policy) {
	c := p.clone()
	e.policy.Store(&c)
}

// Policy returns a copy of the active policy.
func (e *Engine) Policy() Policy {
	return e.policy.Load().clone()
}

// Score evaluates candidates against queryName. classCode, when set, is
// mentioned in the recommendations.
func (e *Engine) Score(candidates []models.CandidateMark, queryName, classCode string) Result {
	p := e.policy.Load()

	results := make([]models.SimilarityResult, len(candidates))
	for i, c := range candidates {
		results[i] = models.SimilarityResult{
			Name:               c.Name,
			SimilarityPercent:  similarity.Similarity(c.Name, queryName),
			Status:             c.Status,
			RegistrationNumber: c.RegistryID,
		}
	}

	score := viabilityScore(p, results)
	return Result{
		ViabilityScore:    score,
		SimilarityResults: results,
		Recommendations:   recommendations(p, score, results, classCode),
		Timeline:          timeline(p, score, candidates),
	}
}

func viabilityScore(p *Policy, results []models.SimilarityResult) int {
	if len(results) == 0 {
		return EmptyResultScore
	}

	highest, anyActive := 0, false
	for _, r := range results {
		if !p.isActive(r.Status) {
			continue
		}
		anyActive = true
		highest = max(highest, r.SimilarityPercent)
	}
	if !anyActive {
		return InactiveOnlyScore
	}
	return max(0, 100-highest)
}
