package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8000"`
	TLSCert         string        `env:"TLS_CERT"`
	TLSKey          string        `env:"TLS_KEY"`
	StaticDir       string        `env:"STATIC_DIR" envDefault:"./static/main"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	RateLimit       float64       `env:"RATE_LIMIT" envDefault:"5"`
	RateBurst       int           `env:"RATE_BURST" envDefault:"10"`
	TokenKey        string        `env:"TOKEN_KEY"`
	AgentsFile      string        `env:"AGENTS_FILE"`
	ReportLang      string        `env:"REPORT_LANG" envDefault:"fr"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	BatchLimit      int           `env:"BATCH_LIMIT" envDefault:"200"`
}

// TLS reports whether both certificate and key are configured.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return Config{}, errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	if cfg.RateLimit <= 0 || cfg.RateBurst <= 0 {
		return Config{}, errors.New("RATE_LIMIT and RATE_BURST must be positive")
	}
	if cfg.MaxUploadBytes <= 0 || cfg.BatchLimit <= 0 {
		return Config{}, errors.New("MAX_UPLOAD_BYTES and BATCH_LIMIT must be positive")
	}
	return cfg, nil
}
