package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/marca/internal/scoring"
)

// PolicyURI identifies the scoring policy resource.
const PolicyURI = "marca://scoring-policy"

// RenderPolicy describes how viability scores are computed under p.
func RenderPolicy(p scoring.Policy) string {
	var b strings.Builder
	b.WriteString("# Trademark Viability Scoring Policy\n\n")

	b.WriteString("## Status sets\n\n")
	b.WriteString("Active statuses (block a new filing):\n")
	writeList(&b, p.ActiveStatuses)
	b.WriteString("\nOpposition statuses (extend the publication phase):\n")
	writeList(&b, p.OppositionStatuses)
	b.WriteString("\nAny other status counts as inactive. Labels are matched exactly.\n")

	b.WriteString("\n## Score\n\n")
	fmt.Fprintf(&b, "- No candidates: %d\n", scoring.EmptyResultScore)
	fmt.Fprintf(&b, "- Only inactive candidates: %d\n", scoring.InactiveOnlyScore)
	b.WriteString("- Otherwise: 100 minus the highest similarity among active candidates, floored at 0\n")

	b.WriteString("\n## Recommendation tiers\n\n")
	fmt.Fprintf(&b, "- score < %d: high refusal risk\n", scoring.HighRiskBelow)
	fmt.Fprintf(&b, "- %d <= score < %d: opposition risk\n", scoring.HighRiskBelow, scoring.FavourableFrom)
	fmt.Fprintf(&b, "- score >= %d: favourable\n", scoring.FavourableFrom)
	fmt.Fprintf(&b, "- any active candidate above %d%% similarity adds a high-similarity alert\n", scoring.HighSimilarityAbove)

	b.WriteString("\n## Similarity\n\n")
	b.WriteString("Case-insensitive Levenshtein distance over Unicode code points, ")
	b.WriteString("normalised to 0-100 by the longer name and rounded to the nearest integer.\n")
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, s := range items {
		fmt.Fprintf(b, "- %s\n", s)
	}
}
