package document

import "errors"

// Pipeline failure taxonomy. The API maps these to HTTP status codes and the
// CLI maps them to exit codes. Parse failures during synthesis are not errors;
// they degrade to a low-confidence Answer instead (Answer.Degraded).
var (
	// ErrExtraction reports input that yielded no readable pages.
	ErrExtraction = errors.New("no extractable pages")

	// ErrGrouping reports an empty page sequence handed to the grouper.
	ErrGrouping = errors.New("no pages to group")

	// ErrNoCandidates reports a section filter that eliminated every page of
	// every project.
	ErrNoCandidates = errors.New("section filter matched no pages")

	// ErrSynthesis reports synthesis failing for every project after retries.
	ErrSynthesis = errors.New("synthesis failed for all projects")
)

// ErrorKind returns a machine-readable label for a pipeline error.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrGrouping):
		return "grouping"
	case errors.Is(err, ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, ErrSynthesis):
		return "synthesis"
	}
	return "internal"
}
