package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"textsummarizer/internal/summarizer"
)

const dotenvFile = ".env"

type Config struct {
	Mode             string        `env:"MODE"               envDefault:"production"`
	HuggingFaceToken string        `env:"HUGGING_FACE_TOKEN"`
	ModelID          string        `env:"MODEL_ID"           envDefault:"facebook/bart-large-cnn"`
	InferenceURL     string        `env:"INFERENCE_URL"      envDefault:"https://router.huggingface.co/hf-inference"`
	ProxyPrefix      string        `env:"PROXY_PREFIX"       envDefault:"huggingface"`
	ProxyAddr        string        `env:"PROXY_ADDR"         envDefault:"localhost:5173"`
	ProxyBaseURL     string        `env:"PROXY_BASE_URL"     envDefault:"http://localhost:5173"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"    envDefault:"60s"`
	MaxAttempts      int           `env:"MAX_ATTEMPTS"       envDefault:"1"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY"   envDefault:"2s"`
	RetryMaxDelay    time.Duration `env:"RETRY_MAX_DELAY"    envDefault:"30s"`
	TelegramToken    string        `env:"TELEGRAM_TOKEN"`
	AllowedUsers     []int64       `env:"ALLOWED_USERS"`
	DBPath           string        `env:"DB_PATH"            envDefault:"db.sqlite"`
	JournalRetention time.Duration `env:"JOURNAL_RETENTION"  envDefault:"720h"`
	LogLevel         string        `env:"LOG_LEVEL"          envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if _, err := summarizer.ParseMode(c.Mode); err != nil {
		errs = append(errs, fmt.Errorf("MODE: %w", err))
	}
	if strings.TrimSpace(c.ModelID) == "" {
		errs = append(errs, errors.New("MODEL_ID is empty"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("MAX_ATTEMPTS must be at least 1, got %d", c.MaxAttempts))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.JournalRetention <= 0 {
		errs = append(errs, fmt.Errorf("JOURNAL_RETENTION must be positive, got %s", c.JournalRetention))
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

// Level returns the slog level for LOG_LEVEL; call Validate first.
func (c Config) Level() slog.Level {
	level, _ := parseLogLevel(c.LogLevel)
	return level
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// SummarizerMode returns the parsed mode; call Validate first.
func (c Config) SummarizerMode() summarizer.Mode {
	mode, _ := summarizer.ParseMode(c.Mode)
	return mode
}

// SummarizerOptions maps the config onto client options.
func (c Config) SummarizerOptions() summarizer.Options {
	return summarizer.Options{
		Mode: c.SummarizerMode(),
		Endpoints: summarizer.Endpoints{
			InferenceURL: c.InferenceURL,
			ProxyBaseURL: c.ProxyBaseURL,
			ProxyPrefix:  c.ProxyPrefix,
			ModelID:      c.ModelID,
		},
		Credential: c.HuggingFaceToken,
		Timeout:    c.RequestTimeout,
		Retry: summarizer.RetryPolicy{
			MaxAttempts: c.MaxAttempts,
			BaseDelay:   c.RetryBaseDelay,
			MaxDelay:    c.RetryMaxDelay,
		},
	}
}
