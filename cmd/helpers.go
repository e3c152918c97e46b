package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/config"
	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/extract"
	"github.com/ziadkadry99/survey-scan/internal/llm"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
	"github.com/ziadkadry99/survey-scan/internal/qr"
	"github.com/ziadkadry99/survey-scan/internal/transcribe"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `survscan init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// cliLogger returns a logger for one-shot commands. Output stays quiet
// unless --verbose is set; everything goes to stderr so stdout is free
// for command output.
func cliLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// serverLogger returns the logger for the long-running server.
func serverLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildRunner assembles the survey pipeline from config: LLM provider,
// survey service client, QR decoder, answer extractor, and (when an
// OpenAI key is available) the Whisper transcriber.
func buildRunner(cfg *config.Config, log *zap.Logger) (*pipeline.Runner, *extract.Extractor, llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}

	extractor := extract.New(provider, cfg.Model, log)
	client := encuestas.NewClient(cfg.EncuestasAPIURL)

	var transcriber pipeline.Transcriber
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		transcriber = transcribe.New(key, cfg.MaxAudioMB)
	}

	runner := pipeline.NewRunner(qr.NewDecoder(), client, extractor, transcriber, log)
	return runner, extractor, provider, nil
}
