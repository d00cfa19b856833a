package scoring

import (
	"fmt"

	"github.com/starford/marca/internal/models"
)

// Recommendation texts, in the registry's language.
const (
	adviceClassFmt       = "Sua marca está sendo analisada para a classe NCL %s"
	adviceHighRefusal    = "Alta probabilidade de indeferimento devido a marcas similares existentes"
	adviceRename         = "Considere modificar significativamente o nome da marca"
	adviceConsultExpert  = "Recomendamos consulta com especialista em propriedade intelectual"
	adviceOppositionRisk = "Existem algumas marcas similares que podem gerar oposição"
	adviceEvidence       = "Prepare documentação comprobatória de distintividade"
	advicePriorSearch    = "Considere realizar busca prévia detalhada"
	adviceGoodChance     = "Boa chance de aprovação"
	adviceProceed        = "Recomendamos prosseguir com o pedido de registro"
	adviceHighSimilarity = "Atenção: Existem marcas registradas com alto grau de similaridade"
)

func recommendations(p *Policy, score int, results []models.SimilarityResult, classCode string) []string {
	var out []string
	if classCode != "" {
		out = append(out, fmt.Sprintf(adviceClassFmt, classCode))
	}

	switch {
	case score < HighRiskBelow:
		out = append(out, adviceHighRefusal, adviceRename, adviceConsultExpert)
	case score < FavourableFrom:
		out = append(out, adviceOppositionRisk, adviceEvidence, advicePriorSearch)
	default:
		out = append(out, adviceGoodChance, adviceProceed)
	}

	for _, r := range results {
		if p.isActive(r.Status) && r.SimilarityPercent > HighSimilarityAbove {
			out = append(out, adviceHighSimilarity)
			break
		}
	}
	return out
}

// Timeline phases in filing order.
var phases = [...]struct {
	label       string
	description string
}{
	{"Depósito do Pedido", "Submissão inicial do pedido de registro"},
	{"Exame Formal", "Verificação dos requisitos formais"},
	{"Publicação", "Publicação para oposição de terceiros"},
	{"Exame Substantivo", "Análise técnica do pedido"},
	{"Decisão", "Decisão final sobre o registro"},
}

func timeline(p *Policy, score int, candidates []models.CandidateMark) []models.TimelineStep {
	publication := 2
	for _, c := range candidates {
		if p.isOpposition(c.Status) {
			publication = 4
			break
		}
	}
	substantive := 12
	if score < FavourableFrom {
		substantive = 18
	}

	months := [len(phases)]int{1, 2, publication, substantive, 1}
	steps := make([]models.TimelineStep, len(phases))
	for i, ph := range phases {
		steps[i] = models.TimelineStep{
			Phase:                   ph.label,
			EstimatedDurationMonths: months[i],
			Description:             ph.description,
			Status:                  models.StepPending,
		}
	}
	return steps
}
