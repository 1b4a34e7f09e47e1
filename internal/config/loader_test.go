package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/phrasecoach/internal/config"
)

func TestLoadFromReader_EmptyYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := config.Default()
	if cfg.Server != want.Server {
		t.Errorf("server: got %+v, want %+v", cfg.Server, want.Server)
	}
	if cfg.Scoring != want.Scoring {
		t.Errorf("scoring: got %+v, want %+v", cfg.Scoring, want.Scoring)
	}
	if cfg.Batch.Concurrency != 8 {
		t.Errorf("batch.concurrency: got %d, want 8", cfg.Batch.Concurrency)
	}
}

func TestLoadFromReader_OverridesKeepOtherDefaults(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":9090"
scoring:
  fuzzy_threshold: 0.9
history:
  backend: file
  file: /tmp/attempts.jsonl
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("shutdown_timeout: got %s, want 15s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Scoring.FuzzyThreshold != 0.9 {
		t.Errorf("fuzzy_threshold: got %v", cfg.Scoring.FuzzyThreshold)
	}
	if cfg.Scoring.GreatAbove != 80 || cfg.Scoring.FairAbove != 50 {
		t.Errorf("rating bands: got %d/%d, want 80/50", cfg.Scoring.GreatAbove, cfg.Scoring.FairAbove)
	}
	if cfg.History.Backend != config.HistoryFile {
		t.Errorf("history.backend: got %q", cfg.History.Backend)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("scoring:\n  fuzzy: 0.5\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"log level", "server:\n  log_level: bananas\n", "server.log_level"},
		{"negative shutdown", "server:\n  shutdown_timeout: -1s\n", "server.shutdown_timeout"},
		{"tls half", "server:\n  tls:\n    cert_file: a.pem\n", "server.tls"},
		{"threshold high", "scoring:\n  fuzzy_threshold: 1.5\n", "scoring.fuzzy_threshold"},
		{"threshold NaN", "scoring:\n  fuzzy_threshold: .nan\n", "scoring.fuzzy_threshold"},
		{"great range", "scoring:\n  great_above: 120\n", "scoring.great_above"},
		{"bands inverted", "scoring:\n  great_above: 40\n  fair_above: 60\n", "must not exceed"},
		{"persist without file", "phrases:\n  persist: true\n", "phrases.persist"},
		{"bad backend", "history:\n  backend: redis\n", "history.backend"},
		{"file backend without file", "history:\n  backend: file\n", "history.file"},
		{"postgres without dsn", "history:\n  backend: postgres\n", "history.postgres_dsn"},
		{"zero concurrency", "batch:\n  concurrency: 0\n", "batch.concurrency"},
		{"zero max items", "batch:\n  max_items: 0\n", "batch.max_items"},
		{"metrics path", "telemetry:\n  metrics_path: metrics\n", "telemetry.metrics_path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error should mention %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
batch:
  concurrency: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, want := range []string{"server.log_level", "batch.concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_MetricsPathDisabled(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Telemetry.MetricsPath = "-"
	if err := config.Validate(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  log_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level: got %q, want debug", cfg.Server.LogLevel)
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.in.Level(); got != tc.want {
			t.Errorf("LogLevel(%q).Level() = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "example.yaml"))
	if err != nil {
		t.Fatalf("Load(example.yaml): %v", err)
	}
	if d := config.Diff(config.Default(), cfg); d.HasChanges() {
		t.Errorf("example config differs from defaults: %+v", d)
	}
}
