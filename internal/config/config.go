package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/synth"
)

type Config struct {
	Port string

	// Gemini synthesis
	GeminiAPIKey string
	Model        string

	// Auth
	APIKey string

	// Retrieval
	DefaultTopK     int
	SnippetMaxChars int

	// Synthesis pool
	MaxConcurrentSynth int
	SynthTimeout       time.Duration
	NoEvidenceFloor    float64

	// Upload limits
	MaxUploadBytes int64

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        envOr("GEMINI_MODEL", synth.DefaultModel),

		APIKey: os.Getenv("PARAKEET_API_KEY"),

		DefaultTopK:     envInt("DEFAULT_TOP_K", 4),
		SnippetMaxChars: envInt("SNIPPET_MAX_CHARS", 300),

		MaxConcurrentSynth: envInt("MAX_CONCURRENT_SYNTH", 4),
		SynthTimeout:       envDuration("SYNTH_TIMEOUT", 60*time.Second),
		NoEvidenceFloor:    envFloat("NO_EVIDENCE_FLOOR", 0.25),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 4
	}
	if cfg.SnippetMaxChars <= 0 {
		cfg.SnippetMaxChars = 300
	}
	if cfg.MaxConcurrentSynth <= 0 {
		cfg.MaxConcurrentSynth = 4
	}
	if cfg.SynthTimeout <= 0 {
		cfg.SynthTimeout = 60 * time.Second
	}
	if cfg.NoEvidenceFloor <= 0 || cfg.NoEvidenceFloor >= 1 {
		cfg.NoEvidenceFloor = 0.25
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Model != synth.ModelMock && c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for model %q", c.Model)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
