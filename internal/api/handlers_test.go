package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/config"
	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/oligame1/friendly-parakeet/internal/pipeline"
	"github.com/oligame1/friendly-parakeet/internal/retrieval"
	"github.com/oligame1/friendly-parakeet/internal/synth"
)

// sampleBid carries two projects with headers on pages 1 and 6 and a
// "Section 25" page in each.
const sampleBid = "Projet : Tour Belvédère\nPrésentation générale du projet immobilier.\f" +
	"Calendrier des travaux et jalons.\f" +
	"Section 25\nLa garantie couvre une période de vingt-quatre mois.\f" +
	"Annexes administratives.\f" +
	"Plans et devis techniques.\f" +
	"Projet : Centre Aquatique\nPrésentation du second projet.\f" +
	"Exigences de chantier et de sécurité.\f" +
	"Section 25\nLa garantie est de douze mois pour les équipements."

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		Model:              synth.ModelMock,
		DefaultTopK:        4,
		SnippetMaxChars:    300,
		MaxConcurrentSynth: 2,
		SynthTimeout:       time.Minute,
		NoEvidenceFloor:    0.25,
		MaxUploadBytes:     1 << 20,
	}
}

func newTestServer(cfg config.Config) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	stats := synth.NewStats(time.Hour)
	syn := synth.NewSynthesizer(&synth.Mock{}, stats, cfg.NoEvidenceFloor)
	analyzer := pipeline.NewAnalyzer(cfg, retrieval.NewSelector(cfg.SnippetMaxChars), syn, log)
	return NewServer(analyzer, nil, stats, log, cfg)
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAnalyzeAPI_Multipart(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
		"section":  "25",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result document.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(result.Answers))
	}
	if result.Answers[0].ProjectID != "project-01" || result.Answers[1].ProjectID != "project-02" {
		t.Errorf("unexpected answer order: %s, %s", result.Answers[0].ProjectID, result.Answers[1].ProjectID)
	}
	if len(result.Answers[0].Sources) != 1 || result.Answers[0].Sources[0] != 3 {
		t.Errorf("expected first project to cite page 3, got %v", result.Answers[0].Sources)
	}
	if len(result.Answers[1].Sources) != 1 || result.Answers[1].Sources[0] != 8 {
		t.Errorf("expected second project to cite page 8, got %v", result.Answers[1].Sources)
	}
}

func TestAnalyzeAPI_JSONBody(t *testing.T) {
	srv := newTestServer(testConfig())
	payload, err := json.Marshal(analyzeJSON{
		Filename: "devis.txt",
		PDF:      base64.StdEncoding.EncodeToString([]byte(sampleBid)),
		Question: "Quelle est la garantie offerte?",
		Section:  "25",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result document.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(result.Answers))
	}
}

func TestAnalyzeAPI_MissingQuestion(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if kind := decodeErrorBody(t, rec)["kind"]; kind != "bad_request" {
		t.Errorf("expected kind bad_request, got %q", kind)
	}
}

func TestAnalyzeAPI_UnknownSection(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
		"section":  "99",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if kind := decodeErrorBody(t, rec)["kind"]; kind != "no_candidates" {
		t.Errorf("expected kind no_candidates, got %q", kind)
	}
}

func TestAnalyzeAPI_UnsupportedFileType(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.xyz", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeAPI_NegativeTopK(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
		"top_k":    "-2",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeAPI_UnknownModelOverride(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
		"model":    "models/other",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeAPI_EmptyUpload(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", "", map[string]string{
		"question": "Quelle est la garantie offerte?",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuth_RequiredWhenKeyConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	srv := newTestServer(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/synth", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/synth", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/synth", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}

	// Health stays public.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected public health endpoint, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestSynthStats_ReportsRecordedCalls(t *testing.T) {
	srv := newTestServer(testConfig())

	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze failed: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/synth", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats struct {
		Model string              `json:"model"`
		Stats synth.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Model != synth.ModelMock {
		t.Errorf("expected model %q, got %q", synth.ModelMock, stats.Model)
	}
	if stats.Stats.Count < 2 {
		t.Errorf("expected at least 2 recorded calls, got %d", stats.Stats.Count)
	}
}

func TestHome_RendersForm(t *testing.T) {
	srv := newTestServer(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<form method="post" action="/analyze"`) {
		t.Errorf("expected upload form in page")
	}
}

func TestAnalyzeForm_RendersResultCards(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "devis.txt", sampleBid, map[string]string{
		"question": "Quelle est la garantie offerte?",
		"section":  "25",
	})

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	for _, want := range []string{"Tour Belvédère", "Centre Aquatique", "Pages 3", "Pages 8"} {
		if !strings.Contains(page, want) {
			t.Errorf("expected rendered page to contain %q", want)
		}
	}
}

func TestAnalyzeForm_ShowsValidationError(t *testing.T) {
	srv := newTestServer(testConfig())
	body, contentType := multipartBody(t, "", "", map[string]string{
		"question": "Quelle est la garantie offerte?",
	})

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="error"`) {
		t.Errorf("expected error message in page")
	}
}
