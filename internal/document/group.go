package document

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultProjectTitle names the leading run of pages that precede any project
// header, and the single project of documents without headers.
const DefaultProjectTitle = "Général"

// projectHeaderRe matches explicit header lines such as
// "Projet : Tour Horizon" or "PROJECT - Riverside Plaza".
var projectHeaderRe = regexp.MustCompile(`(?im)^\s*(?:projet|project)\s*[:\-]\s*(\S.*)$`)

// GroupPages partitions pages, in order, into projects. A page carrying a
// project header line opens a new project titled by that header; when several
// header lines share a page, the last one wins. Pages before the first header
// form a leading project titled Général. A repeated header label still opens
// a fresh project: over-segmentation beats merging unrelated bids.
func GroupPages(pages []Page) ([]Project, error) {
	if len(pages) == 0 {
		return nil, ErrGrouping
	}

	var projects []Project
	current := -1

	for _, page := range pages {
		if title, ok := headerTitle(page.Text); ok {
			projects = append(projects, Project{Title: title})
			current = len(projects) - 1
		} else if current < 0 {
			projects = append(projects, Project{Title: DefaultProjectTitle})
			current = 0
		}
		projects[current].Pages = append(projects[current].Pages, page)
	}

	for i := range projects {
		projects[i].ID = fmt.Sprintf("project-%02d", i+1)
	}
	return projects, nil
}

// headerTitle returns the title from the last project header line on a page.
func headerTitle(text string) (string, bool) {
	matches := projectHeaderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}
