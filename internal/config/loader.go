package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s must not be negative", cfg.Server.ShutdownTimeout))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Scoring
	s := cfg.Scoring
	if math.IsNaN(s.FuzzyThreshold) || s.FuzzyThreshold < 0 || s.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("scoring.fuzzy_threshold %.2f is out of range [0, 1]", s.FuzzyThreshold))
	}
	if s.GreatAbove < 0 || s.GreatAbove > 100 {
		errs = append(errs, fmt.Errorf("scoring.great_above %d is out of range [0, 100]", s.GreatAbove))
	}
	if s.FairAbove < 0 || s.FairAbove > 100 {
		errs = append(errs, fmt.Errorf("scoring.fair_above %d is out of range [0, 100]", s.FairAbove))
	}
	if s.FairAbove > s.GreatAbove {
		errs = append(errs, fmt.Errorf("scoring.fair_above %d must not exceed scoring.great_above %d", s.FairAbove, s.GreatAbove))
	}

	// Phrases
	if cfg.Phrases.Persist && cfg.Phrases.File == "" {
		errs = append(errs, errors.New("phrases.persist requires phrases.file"))
	}

	// History
	h := cfg.History
	switch {
	case h.Backend == "":
		// Treated as none.
	case !h.Backend.IsValid():
		errs = append(errs, fmt.Errorf("history.backend %q is invalid; valid values: none, file, postgres", h.Backend))
	case h.Backend == HistoryFile && h.File == "":
		errs = append(errs, errors.New("history.file is required when history.backend is file"))
	case h.Backend == HistoryPostgres && h.PostgresDSN == "":
		errs = append(errs, errors.New("history.postgres_dsn is required when history.backend is postgres"))
	}
	if h.Backend != HistoryPostgres && h.PostgresDSN != "" {
		slog.Warn("history.postgres_dsn is set but history.backend is not postgres; the DSN is ignored",
			"backend", h.Backend,
		)
	}

	// Batch
	if cfg.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency %d must be at least 1", cfg.Batch.Concurrency))
	}
	if cfg.Batch.MaxItems < 1 {
		errs = append(errs, fmt.Errorf("batch.max_items %d must be at least 1", cfg.Batch.MaxItems))
	}

	// Telemetry
	if p := cfg.Telemetry.MetricsPath; p != "" && p != "-" && !strings.HasPrefix(p, "/") {
		errs = append(errs, fmt.Errorf("telemetry.metrics_path %q must start with /", p))
	}

	return errors.Join(errs...)
}
