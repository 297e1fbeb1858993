package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/oligame1/friendly-parakeet/internal/parser"
	"github.com/oligame1/friendly-parakeet/internal/pipeline"
)

// analyzeJSON is the JSON request body for POST /api/analyze. The document
// travels base64-encoded in "pdf"; the filename selects the parser and
// defaults to a PDF.
type analyzeJSON struct {
	Filename string `json:"filename"`
	PDF      string `json:"pdf"`
	Question string `json:"question"`
	Section  string `json:"section"`
	TopK     int    `json:"top_k"`
	Model    string `json:"model"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	var status int
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		req, status, err = s.jsonAnalyzeRequest(w, r)
	} else {
		req, status, err = s.multipartAnalyzeRequest(w, r)
	}
	if err != nil {
		jsonError(w, "bad_request", err.Error(), status)
		return
	}

	analyzer, err := s.analyzerFor(req.Question.Model)
	if err != nil {
		jsonError(w, "bad_request", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := analyzer.Analyze(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		status, kind := statusForError(err)
		if status == http.StatusInternalServerError {
			s.log.Error("analyze failed", "error", err)
		}
		jsonError(w, kind, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// jsonAnalyzeRequest decodes the JSON body variant. The byte limit allows for
// base64 expansion of a maximum-size document.
func (s *Server) jsonAnalyzeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, int, error) {
	var req pipeline.Request
	r.Body = http.MaxBytesReader(w, r.Body, (s.cfg.MaxUploadBytes*4)/3+1024*1024)

	var body analyzeJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("invalid json body: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(body.PDF)
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("pdf must be base64 document bytes: %v", err)
	}
	filename := body.Filename
	if filename == "" {
		filename = "document.pdf"
	}

	req = pipeline.Request{
		Filename: sanitizeFilename(filename),
		Data:     data,
		Question: document.Question{
			Text:    body.Question,
			Section: body.Section,
			TopK:    body.TopK,
			Model:   body.Model,
		},
	}
	return s.validateAnalyzeRequest(req)
}

// multipartAnalyzeRequest decodes the multipart form variant shared by the
// API and the HTML front end: file, question, section, top_k, model.
func (s *Server) multipartAnalyzeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, int, error) {
	var req pipeline.Request
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("file is required: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return req, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}

	topK := 0
	if v := r.FormValue("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, http.StatusBadRequest, fmt.Errorf("top_k must be an integer")
		}
		topK = n
	}

	req = pipeline.Request{
		Filename: sanitizeFilename(header.Filename),
		Data:     data,
		Question: document.Question{
			Text:    r.FormValue("question"),
			Section: r.FormValue("section"),
			TopK:    topK,
			Model:   r.FormValue("model"),
		},
	}
	return s.validateAnalyzeRequest(req)
}

func (s *Server) validateAnalyzeRequest(req pipeline.Request) (pipeline.Request, int, error) {
	if int64(len(req.Data)) > s.cfg.MaxUploadBytes {
		return req, http.StatusRequestEntityTooLarge, fmt.Errorf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	if len(req.Data) == 0 {
		return req, http.StatusBadRequest, fmt.Errorf("document is empty")
	}
	if !parser.IsSupportedExtension(req.Filename) {
		return req, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(req.Filename))
	}
	if strings.TrimSpace(req.Question.Text) == "" {
		return req, http.StatusBadRequest, fmt.Errorf("question is required")
	}
	if req.Question.TopK < 0 {
		return req, http.StatusBadRequest, fmt.Errorf("top_k must be positive")
	}
	if req.Question.TopK == 0 {
		req.Question.TopK = s.cfg.DefaultTopK
	}
	return req, 0, nil
}

// statusForError maps pipeline failures to HTTP status plus error kind.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, document.ErrExtraction), errors.Is(err, document.ErrGrouping):
		return http.StatusBadRequest, document.ErrorKind(err)
	case errors.Is(err, document.ErrNoCandidates):
		return http.StatusNotFound, document.ErrorKind(err)
	case errors.Is(err, document.ErrSynthesis):
		return http.StatusBadGateway, document.ErrorKind(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

func jsonError(w http.ResponseWriter, kind, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"kind": kind, "error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
