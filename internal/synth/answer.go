package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/document"
)

// DefaultNoEvidenceFloor is the confidence a structured answer must exceed
// for its cited sources to be kept.
const DefaultNoEvidenceFloor = 0.25

// modelAnswer is the JSON contract the prompt instructions pin the model to.
type modelAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Pages      []int   `json:"pages"`
}

// Synthesizer turns selected passages into a cited answer for one project.
type Synthesizer struct {
	gen   Generator
	stats *Stats
	floor float64
}

// NewSynthesizer wires a generator with the no-evidence floor. A nil stats
// recorder disables latency tracking; a non-positive floor selects the
// default.
func NewSynthesizer(gen Generator, stats *Stats, floor float64) *Synthesizer {
	if floor <= 0 {
		floor = DefaultNoEvidenceFloor
	}
	return &Synthesizer{gen: gen, stats: stats, floor: floor}
}

// Synthesize prompts the generator and parses its output into an Answer.
// Unparsable output degrades to a zero-confidence answer; only transport
// errors propagate.
func (s *Synthesizer) Synthesize(ctx context.Context, q document.Question, project document.Project, passages []document.Passage) (document.Answer, error) {
	prompt := BuildPrompt(q, project, passages)

	start := time.Now()
	raw, err := s.gen.Generate(ctx, prompt)
	if s.stats != nil {
		s.stats.Record(time.Since(start))
	}
	if err != nil {
		return document.Answer{}, fmt.Errorf("generate for %s: %w", project.ID, err)
	}

	return s.parseAnswer(raw, project, passages), nil
}

// parseAnswer coerces raw model text into the Answer contract: code fences
// stripped, confidence clamped to [0,1], citations restricted to the pages
// actually supplied, sources cleared below the no-evidence floor.
func (s *Synthesizer) parseAnswer(raw string, project document.Project, passages []document.Passage) document.Answer {
	ans := document.Answer{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
	}

	var parsed modelAnswer
	text := stripCodeBlock(raw)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || strings.TrimSpace(parsed.Answer) == "" {
		ans.Text = strings.TrimSpace(raw)
		ans.Degraded = true
		return ans
	}

	ans.Text = strings.TrimSpace(parsed.Answer)
	ans.Confidence = clamp01(parsed.Confidence)

	allowed := make(map[int]bool, len(passages))
	for _, p := range passages {
		allowed[p.PageNumber] = true
	}
	seen := make(map[int]bool)
	var sources []int
	for _, page := range parsed.Pages {
		if allowed[page] && !seen[page] {
			seen[page] = true
			sources = append(sources, page)
		}
	}
	sort.Ints(sources)

	if ans.Confidence > s.floor {
		ans.Sources = sources
	}
	return ans
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}
