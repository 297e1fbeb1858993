package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/oligame1/friendly-parakeet/internal/document"
)

// DefaultTopK bounds passages per project when the question does not say.
const DefaultTopK = 4

// DefaultSnippetMaxChars bounds the snippet length forwarded to synthesis.
const DefaultSnippetMaxChars = 300

// Selector ranks a project's pages against a question and emits bounded
// snippets. Scoring is pure text arithmetic, so identical input always
// produces identical passages.
type Selector struct {
	SnippetMaxChars int
}

func NewSelector(snippetMaxChars int) *Selector {
	if snippetMaxChars <= 0 {
		snippetMaxChars = DefaultSnippetMaxChars
	}
	return &Selector{SnippetMaxChars: snippetMaxChars}
}

// Select returns at most top-k passages for the project, best first, ties
// broken by ascending page number. Pages with no term overlap are never
// selected. The second return value counts the pages that survived the
// section filter; the caller uses it to distinguish "section absent
// everywhere" from "nothing relevant".
func (s *Selector) Select(q document.Question, project document.Project) ([]document.Passage, int) {
	pages := project.Pages
	if q.Section != "" {
		filtered := make([]document.Page, 0, len(pages))
		for _, p := range pages {
			if p.HasSection(q.Section) {
				filtered = append(filtered, p)
			}
		}
		pages = filtered
	}
	if len(pages) == 0 {
		return nil, 0
	}

	terms := queryTerms(q.Text)
	if len(terms) == 0 {
		return nil, len(pages)
	}

	pageTerms := make([]map[string]bool, len(pages))
	for i, p := range pages {
		pageTerms[i] = termSet(p.Text)
	}

	// Weight rare terms higher: idf = 1 + ln(N / (1 + df)) over the
	// project's pages. Scores are normalized by the full query weight, so a
	// page matching every term scores exactly 1.
	idf := make(map[string]float64, len(terms))
	var total float64
	for _, t := range terms {
		df := 0
		for _, set := range pageTerms {
			if set[t] {
				df++
			}
		}
		idf[t] = 1 + math.Log(float64(len(pages))/float64(1+df))
		total += idf[t]
	}

	type scored struct {
		page  document.Page
		score float64
	}
	var candidates []scored
	for i, p := range pages {
		var sum float64
		for _, t := range terms {
			if pageTerms[i][t] {
				sum += idf[t]
			}
		}
		if sum <= 0 {
			continue
		}
		candidates = append(candidates, scored{page: p, score: sum / total})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].page.Number < candidates[j].page.Number
	})

	k := q.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	passages := make([]document.Passage, 0, len(candidates))
	for _, c := range candidates {
		passages = append(passages, document.Passage{
			ProjectID:  project.ID,
			PageNumber: c.page.Number,
			Text:       Snippet(c.page.Text, terms, s.SnippetMaxChars),
			Score:      c.score,
		})
	}
	return passages, len(pages)
}

// queryTerms tokenizes the question into sorted unique terms with stopwords
// removed. The sorted order keeps float accumulation deterministic.
func queryTerms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, tok := range tokenize(text) {
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	sort.Strings(terms)
	return terms
}

// tokenize lowercases and splits on non-alphanumeric runes, keeping accented
// letters intact.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(text) {
		if !stopwords[tok] {
			set[tok] = true
		}
	}
	return set
}

// stopwords covers high-frequency French and English words, question words
// included, that carry no retrieval signal for bid documents.
var stopwords = map[string]bool{
	// French
	"à": true, "au": true, "aux": true, "avec": true, "ce": true, "ces": true,
	"cette": true, "d": true, "dans": true, "de": true, "des": true, "du": true,
	"elle": true, "en": true, "est": true, "et": true, "il": true, "ils": true,
	"j": true, "je": true, "l": true, "la": true, "le": true, "les": true,
	"leur": true, "lui": true, "mais": true, "n": true, "ne": true, "nous": true,
	"on": true, "ou": true, "où": true, "par": true, "pas": true, "pour": true,
	"qu": true, "que": true, "qui": true, "s": true, "sa": true, "se": true,
	"ses": true, "son": true, "sont": true, "sur": true, "tu": true, "un": true,
	"une": true, "vous": true, "y": true,
	"combien": true, "comment": true, "pourquoi": true, "quand": true,
	"quel": true, "quelle": true, "quelles": true, "quels": true,
	// English
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true,
	"or": true, "that": true, "the": true, "to": true, "was": true, "were": true,
	"what": true, "which": true, "with": true,
}
