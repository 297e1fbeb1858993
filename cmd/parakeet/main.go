package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/config"
	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/oligame1/friendly-parakeet/internal/pipeline"
	"github.com/oligame1/friendly-parakeet/internal/retrieval"
	"github.com/oligame1/friendly-parakeet/internal/synth"
)

const usage = `usage: parakeet --pdf <file> --question <text> [options]

Answers a question against every project of a construction bid document.

  --pdf PATH            bid document (pdf, docx, html, md or txt)
  --question TEXT       question to answer
  --section N           restrict to pages mentioning this section number
  --top-k N             passages per project
  --model NAME          generation model; "mock" runs offline
  --json                print the full result as JSON
  --snippet-chars N     max snippet length in characters
  --timeout D           overall deadline (e.g. 2m)
  -v                    verbose logging on stderr
`

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	var (
		pdfPath      = flag.String("pdf", "", "path to the bid document")
		question     = flag.String("question", "", "question to answer")
		section      = flag.String("section", "", "section number filter")
		topK         = flag.Int("top-k", cfg.DefaultTopK, "passages per project")
		model        = flag.String("model", cfg.Model, "generation model")
		jsonOut      = flag.Bool("json", false, "print the result as JSON")
		snippetChars = flag.Int("snippet-chars", cfg.SnippetMaxChars, "max snippet length")
		timeout      = flag.Duration("timeout", 5*time.Minute, "overall deadline")
		verbose      = flag.Bool("v", false, "verbose logging")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *pdfPath == "" || strings.TrimSpace(*question) == "" {
		flag.Usage()
		return 2
	}
	if *topK < 0 {
		fmt.Fprintln(os.Stderr, "parakeet: --top-k must be positive")
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parakeet: read %s: %v\n", *pdfPath, err)
		return 2
	}

	gen, err := synth.ForModel(*model, cfg.GeminiAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parakeet: %v\n", err)
		return 2
	}
	synthesizer := synth.NewSynthesizer(gen, nil, cfg.NoEvidenceFloor)
	analyzer := pipeline.NewAnalyzer(cfg, retrieval.NewSelector(*snippetChars), synthesizer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	result, err := analyzer.Analyze(ctx, pipeline.Request{
		Filename: *pdfPath,
		Data:     data,
		Question: document.Question{
			Text:    strings.TrimSpace(*question),
			Section: *section,
			TopK:    *topK,
			Model:   *model,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "parakeet: analysis failed (%s): %v\n", document.ErrorKind(err), err)
		return 1
	}

	if *jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "parakeet: encode result: %v\n", err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}

	printResult(result)
	return 0
}

func printResult(result *document.AnalysisResult) {
	if len(result.Answers) == 0 && len(result.Failures) == 0 {
		fmt.Println("Aucun extrait pertinent trouvé.")
		return
	}

	for _, ans := range result.Answers {
		fmt.Printf("Projet : %s (%s)\n", ans.ProjectTitle, ans.ProjectID)
		fmt.Printf("Confiance : %.2f\n", ans.Confidence)
		if ans.Degraded {
			fmt.Println("Réponse brute (format inattendu) :")
		}
		fmt.Println(ans.Text)
		if len(ans.Sources) > 0 {
			fmt.Printf("Sources : pages %s\n", pageList(ans.Sources))
		}
		fmt.Println()
	}
	for _, f := range result.Failures {
		fmt.Printf("Échec : %s (%s)\n", f.ProjectID, f.Err)
	}
}

func pageList(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
