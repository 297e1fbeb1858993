package synth

import (
	"fmt"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
)

// AnswerInstructions frames the model as an assistant for Québec
// construction estimators and pins the JSON output contract.
const AnswerInstructions = `Tu es un assistant d'analyse de devis de construction au Québec.
Réponds en français, uniquement à partir des extraits fournis.
Retourne UNIQUEMENT un objet JSON avec ces champs:
- "answer": réponse concise à la question (string)
- "confidence": confiance entre 0.0 et 1.0 (nombre)
- "pages": numéros des pages citées en appui (liste d'entiers)
Si les extraits ne permettent pas de répondre, explique-le dans "answer" et mets "confidence" à 0.1.`

// BuildPrompt assembles the synthesis prompt for one project: instructions,
// question context, then one tagged block per passage.
func BuildPrompt(q document.Question, project document.Project, passages []document.Passage) string {
	var sb strings.Builder
	sb.WriteString(AnswerInstructions)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Projet: %s\n", project.Title)
	if q.Section != "" {
		fmt.Fprintf(&sb, "Section visée: %s\n", q.Section)
	}
	fmt.Fprintf(&sb, "Question: %s\n", q.Text)
	sb.WriteString("---\n")
	for _, p := range passages {
		fmt.Fprintf(&sb, "[Page %d | Score %.2f]\n%s\n\n", p.PageNumber, p.Score, p.Text)
	}
	return sb.String()
}
