package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/config"
	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/oligame1/friendly-parakeet/internal/parser"
	"github.com/oligame1/friendly-parakeet/internal/retrieval"
	"github.com/oligame1/friendly-parakeet/internal/synth"
)

// DefaultSynthTimeout bounds a single generation call, retries excluded.
const DefaultSynthTimeout = 60 * time.Second

// Analyzer runs the full question pipeline for one document: extract pages,
// group them into projects, select evidence per project, and synthesize one
// answer per project with bounded concurrency.
type Analyzer struct {
	selector *retrieval.Selector
	synth    *synth.Synthesizer
	log      *slog.Logger

	parserOpts         parser.Options
	maxConcurrentSynth int
	synthTimeout       time.Duration
}

func NewAnalyzer(cfg config.Config, selector *retrieval.Selector, s *synth.Synthesizer, log *slog.Logger) *Analyzer {
	maxConcurrent := cfg.MaxConcurrentSynth
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	synthTimeout := cfg.SynthTimeout
	if synthTimeout <= 0 {
		synthTimeout = DefaultSynthTimeout
	}
	return &Analyzer{
		selector:           selector,
		synth:              s,
		log:                log,
		parserOpts:         parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		maxConcurrentSynth: maxConcurrent,
		synthTimeout:       synthTimeout,
	}
}

// Request is one analysis job: a document plus the question to answer.
type Request struct {
	Filename string
	Data     []byte
	Question document.Question
}

// Analyze answers the question against every project in the document. A
// cancelled context returns the context error and no partial result.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*document.AnalysisResult, error) {
	log := a.log.With("filename", req.Filename)

	// Phase 1: Extract pages.
	p, err := parser.ForFile(req.Filename, a.parserOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrExtraction, err)
	}
	pages, err := p.Parse(bytes.NewReader(req.Data), req.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrExtraction, err)
	}
	if len(pages) == 0 {
		return nil, document.ErrExtraction
	}
	log.Info("extracted pages", "pages", len(pages))

	// Phase 2: Group into projects.
	projects, err := document.GroupPages(pages)
	if err != nil {
		return nil, err
	}
	log.Info("grouped projects", "projects", len(projects))

	// Phase 3: Select evidence per project.
	type work struct {
		project  document.Project
		passages []document.Passage
	}
	var items []work
	totalEligible := 0
	for _, project := range projects {
		passages, eligible := a.selector.Select(req.Question, project)
		totalEligible += eligible
		if len(passages) == 0 {
			continue
		}
		items = append(items, work{project: project, passages: passages})
	}
	if req.Question.Section != "" && totalEligible == 0 {
		return nil, fmt.Errorf("%w: section %q", document.ErrNoCandidates, req.Question.Section)
	}
	log.Info("selected passages", "projects_with_evidence", len(items))

	// Phase 4: Synthesize per project with bounded concurrency.
	type synthResult struct {
		projectID string
		answer    document.Answer
		err       error
	}
	results := make(chan synthResult, len(items))
	sem := make(chan struct{}, a.maxConcurrentSynth)

	launched := 0
	for _, item := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		launched++
		go func(item work) {
			defer func() { <-sem }()
			var answer document.Answer
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				callCtx, cancel := context.WithTimeout(ctx, a.synthTimeout)
				answer, lastErr = a.synth.Synthesize(callCtx, req.Question, item.project, item.passages)
				cancel()
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable synthesis error", "project", item.project.ID, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- synthResult{projectID: item.project.ID, err: ctx.Err()}
					return
				}
			}
			results <- synthResult{projectID: item.project.ID, answer: answer, err: lastErr}
		}(item)
	}

	answers := make([]document.Answer, 0, launched)
	var failures []document.AnswerFailure
	for i := 0; i < launched; i++ {
		r := <-results
		if r.err != nil {
			if errors.Is(r.err, context.Canceled) {
				continue
			}
			log.Error("synthesis failed", "project", r.projectID, "error", r.err)
			failures = append(failures, document.AnswerFailure{ProjectID: r.projectID, Err: r.err.Error()})
			continue
		}
		answers = append(answers, r.answer)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) > 0 && len(answers) == 0 {
		return nil, fmt.Errorf("%w: %d project(s)", document.ErrSynthesis, len(failures))
	}

	result := document.Aggregate(req.Question, answers, failures)
	log.Info("analysis complete", "answers", len(result.Answers), "failures", len(result.Failures))
	return result, nil
}
