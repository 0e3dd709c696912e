// Package config handles loading and parsing application configuration.
// It supports two sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Values from the YAML file can be overridden by the environment
// variables named in the env:"..." tags below.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing. env-default supplies a value when neither YAML nor env sets one.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	HTTPServer `yaml:"http_server"`
	Upload     Upload `yaml:"upload"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Upload configures where student photos are written and what is accepted.
type Upload struct {
	// Dir is created on startup if it does not exist.
	Dir string `yaml:"dir" env:"UPLOAD_DIR" env-default:"pictures"`

	// MaxSize is the largest accepted photo, in bytes (2 MiB by default).
	MaxSize int64 `yaml:"max_size" env:"UPLOAD_MAX_SIZE" env-default:"2097152"`

	// AllowedExtensions are compared case-insensitively, without the dot.
	AllowedExtensions []string `yaml:"allowed_extensions" env:"UPLOAD_ALLOWED_EXTENSIONS" env-separator:"," env-default:"png,jpg,jpeg"`
}

// Load reads and validates the config file at path.
// Unlike MustLoad it reports problems as errors, which keeps it testable.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if cfg.Upload.MaxSize <= 0 {
		return nil, fmt.Errorf("upload.max_size must be positive, got %d", cfg.Upload.MaxSize)
	}

	// Normalise extensions so ".JPG" in YAML still matches "photo.jpg".
	exts := make([]string, 0, len(cfg.Upload.AllowedExtensions))
	for _, ext := range cfg.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("upload.allowed_extensions must not be empty")
	}
	cfg.Upload.AllowedExtensions = exts

	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to fatal on failure. If this function returns, the
// config is valid.
func MustLoad() *Config {
	// ── Source 1: environment variable ───────────────────────────────
	configPath := os.Getenv("CONFIG_PATH")

	// ── Source 2: command-line flag ───────────────────────────────────
	//   go run ./cmd/siswa-api --config=config/local.yaml
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	return cfg
}
