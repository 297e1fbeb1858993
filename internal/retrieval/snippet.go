package retrieval

import (
	"strings"
	"unicode/utf8"
)

// Snippet returns the window of text covering the most distinct query terms
// within maxChars bytes, cut on word boundaries. Text already inside the
// budget is returned whole.
func Snippet(text string, terms []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultSnippetMaxChars
	}
	if len(text) <= maxChars {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	want := make(map[string]bool, len(terms))
	for _, t := range terms {
		want[t] = true
	}

	counts := make(map[string]int)
	cover := 0
	add := func(w string) {
		for _, tok := range tokenize(w) {
			if want[tok] {
				if counts[tok] == 0 {
					cover++
				}
				counts[tok]++
			}
		}
	}
	remove := func(w string) {
		for _, tok := range tokenize(w) {
			if want[tok] {
				counts[tok]--
				if counts[tok] == 0 {
					cover--
				}
			}
		}
	}

	// Sliding window over words: for every end position keep the widest
	// window within budget and remember the one covering the most terms.
	bestStart, bestEnd, bestCover := 0, 0, -1
	chars := 0
	start := 0
	for end := 0; end < len(words); end++ {
		cost := len(words[end])
		if end > start {
			cost++ // joining space
		}
		chars += cost
		add(words[end])

		for chars > maxChars && start < end {
			chars -= len(words[start]) + 1
			remove(words[start])
			start++
		}
		if chars <= maxChars && cover > bestCover {
			bestCover = cover
			bestStart, bestEnd = start, end+1
		}
	}

	if bestCover < 0 {
		return hardCut(text, maxChars)
	}
	return strings.Join(words[bestStart:bestEnd], " ")
}

// hardCut trims to the byte budget without splitting a rune, preferring the
// last full word.
func hardCut(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := s[:maxChars]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}
