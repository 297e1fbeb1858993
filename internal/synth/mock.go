package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// contextTagRe matches the passage tags BuildPrompt emits.
var contextTagRe = regexp.MustCompile(`\[Page (\d+) \| Score ([0-9.]+)\]`)

// Mock is the offline generator. It derives a contract-shaped JSON answer
// purely from the prompt text, so identical input yields byte-identical
// output while the parse path stays fully exercised.
type Mock struct{}

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var pages []int
	best := 0.0
	for _, tag := range contextTagRe.FindAllStringSubmatch(prompt, -1) {
		n, err := strconv.Atoi(tag[1])
		if err != nil {
			continue
		}
		pages = append(pages, n)
		if s, err := strconv.ParseFloat(tag[2], 64); err == nil && s > best {
			best = s
		}
	}

	answer := "[Mode hors ligne] Aucun extrait fourni."
	if len(pages) > 0 {
		answer = fmt.Sprintf("[Mode hors ligne] Synthèse basée sur les extraits des pages %s.", joinInts(pages))
	}

	out, err := json.Marshal(modelAnswer{
		Answer:     answer,
		Confidence: scoreConfidence(best),
		Pages:      pages,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// scoreConfidence maps the best retrieval score through a logistic curve
// centered at 0.25, rounded to two decimals.
func scoreConfidence(score float64) float64 {
	return math.Round(100/(1+math.Exp(-6*(score-0.25)))) / 100
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
