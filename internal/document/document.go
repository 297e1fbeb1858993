package document

// Page is one extracted page of a bid document.
type Page struct {
	Number   int      `json:"number"`   // 1-based physical page number
	Text     string   `json:"text"`     // Normalized page text
	Sections []string `json:"sections"` // Canonical section markers found on the page
}

// Project is a contiguous run of pages belonging to one bid project.
type Project struct {
	ID    string `json:"id"`    // Synthetic ordinal id, e.g. "project-01"
	Title string `json:"title"` // Detected header label, or DefaultProjectTitle
	Pages []Page `json:"pages"`
}

// Passage is a scored snippet of a page, selected as evidence for a question.
// Passages reference pages by number; they do not own page data.
type Passage struct {
	ProjectID  string  `json:"project_id"`
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"` // Snippet bounded to the configured max length
	Score      float64 `json:"score"`
}

// Question carries one analysis request.
type Question struct {
	Text    string `json:"text"`
	Section string `json:"section,omitempty"` // Optional section filter, e.g. "25"
	TopK    int    `json:"top_k"`             // Passages per project, must be > 0
	Model   string `json:"model"`             // Generator model name; "mock" runs offline
}

// Answer is the synthesized result for one project.
type Answer struct {
	ProjectID    string  `json:"project_id"`
	ProjectTitle string  `json:"project"`
	Text         string  `json:"answer"`
	Confidence   float64 `json:"confidence"` // Always in [0,1]
	Sources      []int   `json:"sources"`    // Cited page numbers, ascending, unique
	Degraded     bool    `json:"degraded,omitempty"`
}

// AnswerFailure reports a project whose synthesis failed after retries.
type AnswerFailure struct {
	ProjectID string `json:"project_id"`
	Err       string `json:"error"`
}

// AnalysisResult is the aggregated output of one analysis request.
type AnalysisResult struct {
	Question Question        `json:"question"`
	Answers  []Answer        `json:"answers"`
	Failures []AnswerFailure `json:"failures,omitempty"`
}
