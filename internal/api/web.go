package api

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/yuin/goldmark"
)

const homePage = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Analyse de devis</title>
<style>
 body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 720px; padding: 0 1rem; color: #1a1a1a; }
 h1 { font-size: 1.4rem; }
 form { display: grid; gap: .75rem; padding: 1rem; border: 1px solid #ddd; border-radius: 8px; }
 label { display: grid; gap: .25rem; font-size: .9rem; }
 input[type=text], input[type=number] { padding: .4rem; border: 1px solid #bbb; border-radius: 4px; }
 button { padding: .5rem 1rem; border: 0; border-radius: 4px; background: #2455a4; color: #fff; cursor: pointer; justify-self: start; }
 .error { color: #a4242f; }
 .card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin-top: 1rem; }
 .card h2 { font-size: 1.1rem; margin: 0 0 .5rem; }
 .meta { font-size: .85rem; color: #555; }
 .degraded { color: #8a6d00; font-size: .85rem; }
</style>
</head>
<body>
<h1>Analyse de devis de construction</h1>
<form method="post" action="/analyze" enctype="multipart/form-data">
 <label>Document (PDF, DOCX, HTML, Markdown ou texte)
  <input type="file" name="file" required>
 </label>
 <label>Question
  <input type="text" name="question" value="{{.Question}}" required>
 </label>
 <label>Section (optionnel, ex. 25)
  <input type="text" name="section" value="{{.Section}}">
 </label>
 <label>Extraits par projet (optionnel)
  <input type="number" name="top_k" min="1">
 </label>
 <button type="submit">Analyser</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Analyzed}}
 {{if not .Answers}}<p>Aucune réponse : aucun extrait pertinent trouvé.</p>{{end}}
 {{range .Answers}}
 <div class="card">
  <h2>{{.ProjectTitle}} <span class="meta">({{.ProjectID}})</span></h2>
  <p class="meta">Confiance : {{.ConfidencePct}}%{{if .Sources}} · Pages {{.Sources}}{{end}}</p>
  {{if .Degraded}}<p class="degraded">Réponse brute du modèle (format inattendu)</p>{{end}}
  <div>{{.HTML}}</div>
 </div>
 {{end}}
 {{range .Failures}}
 <div class="card">
  <h2>{{.ProjectID}}</h2>
  <p class="error">Échec de la synthèse : {{.Err}}</p>
 </div>
 {{end}}
{{end}}
</body>
</html>
`

var homeTemplate = template.Must(template.New("home").Parse(homePage))

// markdown renders answer text for the result cards. The default goldmark
// renderer drops raw HTML, so model output cannot inject markup.
var markdown = goldmark.New()

type viewAnswer struct {
	ProjectID     string
	ProjectTitle  string
	HTML          template.HTML
	ConfidencePct int
	Sources       string
	Degraded      bool
}

type viewData struct {
	Question string
	Section  string
	Error    string
	Analyzed bool
	Answers  []viewAnswer
	Failures []document.AnswerFailure
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, http.StatusOK, viewData{})
}

func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.multipartAnalyzeRequest(w, r)
	if err != nil {
		s.renderHome(w, status, viewData{Error: err.Error()})
		return
	}
	data := viewData{Question: req.Question.Text, Section: req.Question.Section}

	analyzer, err := s.analyzerFor(req.Question.Model)
	if err != nil {
		data.Error = err.Error()
		s.renderHome(w, http.StatusBadRequest, data)
		return
	}

	result, err := analyzer.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		status, _ := statusForError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("analyze failed", "error", err)
		}
		data.Error = err.Error()
		s.renderHome(w, status, data)
		return
	}

	data.Analyzed = true
	for _, ans := range result.Answers {
		data.Answers = append(data.Answers, viewAnswer{
			ProjectID:     ans.ProjectID,
			ProjectTitle:  ans.ProjectTitle,
			HTML:          renderMarkdown(ans.Text),
			ConfidencePct: int(math.Round(ans.Confidence * 100)),
			Sources:       pageList(ans.Sources),
			Degraded:      ans.Degraded,
		})
	}
	data.Failures = result.Failures
	s.renderHome(w, http.StatusOK, data)
}

func (s *Server) renderHome(w http.ResponseWriter, status int, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := homeTemplate.Execute(w, data); err != nil {
		s.log.Error("render home", "error", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(text) + "</p>")
	}
	return template.HTML(buf.String())
}

func pageList(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
