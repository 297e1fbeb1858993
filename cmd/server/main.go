package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/api"
	"github.com/oligame1/friendly-parakeet/internal/config"
	"github.com/oligame1/friendly-parakeet/internal/pipeline"
	"github.com/oligame1/friendly-parakeet/internal/retrieval"
	"github.com/oligame1/friendly-parakeet/internal/synth"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize generation.
	gen, err := synth.ForModel(cfg.Model, cfg.GeminiAPIKey)
	if err != nil {
		log.Error("invalid model configuration", "error", err)
		os.Exit(1)
	}
	stats := synth.NewStats(time.Hour)
	synthesizer := synth.NewSynthesizer(gen, stats, cfg.NoEvidenceFloor)

	// Initialize pipeline.
	selector := retrieval.NewSelector(cfg.SnippetMaxChars)
	analyzer := pipeline.NewAnalyzer(cfg, selector, synthesizer, log)

	// The offline analyzer serves "mock" model overrides without touching the
	// live stats.
	var offline *pipeline.Analyzer
	if cfg.Model != synth.ModelMock {
		offline = pipeline.NewAnalyzer(cfg, selector, synth.NewSynthesizer(&synth.Mock{}, nil, cfg.NoEvidenceFloor), log)
	}

	// Initialize HTTP server.
	srv := api.NewServer(analyzer, offline, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if client, ok := gen.(*synth.GeminiClient); ok {
			client.Close()
		}
	}()

	log.Info("starting server", "port", cfg.Port, "model", cfg.Model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
