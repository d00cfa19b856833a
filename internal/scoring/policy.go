package scoring

import "slices"

// Registry status labels with scoring significance.
const (
	StatusRegistered         = "Registro vigente"
	StatusSubstantiveReview  = "Em exame de mérito"
	StatusAwaitingOpposition = "Aguardando análise de oposição"
)

// Score thresholds.
const (
	EmptyResultScore    = 90
	InactiveOnlyScore   = 85
	HighRiskBelow       = 40
	FavourableFrom      = 70
	HighSimilarityAbove = 60
)

// Policy holds the status sets the engine treats specially. Labels are
// compared exactly; anything unknown counts as inactive.
type Policy struct {
	ActiveStatuses     []string `yaml:"active_statuses" json:"active_statuses"`
	OppositionStatuses []string `yaml:"opposition_statuses" json:"opposition_statuses"`
}

// DefaultPolicy returns the two active labels and the single
// opposition label the registry is known to use.
func DefaultPolicy() Policy {
	return Policy{
		ActiveStatuses:     []string{StatusRegistered, StatusSubstantiveReview},
		OppositionStatuses: []string{StatusAwaitingOpposition},
	}
}

func (p Policy) isActive(status string) bool {
	return slices.Contains(p.ActiveStatuses, status)
}

func (p Policy) isOpposition(status string) bool {
	return slices.Contains(p.OppositionStatuses, status)
}

func (p Policy) clone() Policy {
	return Policy{
		ActiveStatuses:     slices.Clone(p.ActiveStatuses),
		OppositionStatuses: slices.Clone(p.OppositionStatuses),
	}
}
