package document

import (
	"regexp"
	"sort"
	"strings"
)

// sectionRe matches markers such as "Section 25", "SECTION 07.20" or
// "section03" in page text.
var sectionRe = regexp.MustCompile(`(?i)\bsection\s*[:#]?\s*(\d{1,3}(?:[.\s]\d{1,3})*)`)

// FindSections scans page text for section markers and returns their
// canonical identifiers, sorted and deduplicated.
func FindSections(text string) []string {
	matches := sectionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		id := CanonicalSection(m[1])
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalSection normalizes a section identifier for comparison. A leading
// "section" word, separators and dots are dropped, keeping only the digits,
// so "Section 07.20", "07 20" and "0720" all compare equal.
func CanonicalSection(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "section")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasSection reports whether the page carries the given section marker.
func (p Page) HasSection(filter string) bool {
	want := CanonicalSection(filter)
	if want == "" {
		return false
	}
	for _, s := range p.Sections {
		if s == want {
			return true
		}
	}
	return false
}
