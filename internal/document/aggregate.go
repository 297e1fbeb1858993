package document

import "sort"

// Aggregate assembles the final result: answers ordered by descending
// confidence with ties broken by ascending project id, failures by project
// id. Individual answer contents are not modified.
func Aggregate(q Question, answers []Answer, failures []AnswerFailure) *AnalysisResult {
	ordered := make([]Answer, len(answers))
	copy(ordered, answers)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].ProjectID < ordered[j].ProjectID
	})

	var failed []AnswerFailure
	if len(failures) > 0 {
		failed = make([]AnswerFailure, len(failures))
		copy(failed, failures)
		sort.Slice(failed, func(i, j int) bool { return failed[i].ProjectID < failed[j].ProjectID })
	}

	return &AnalysisResult{Question: q, Answers: ordered, Failures: failed}
}
