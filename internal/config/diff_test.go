package config_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/phrasecoach/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	d := config.Diff(cfg, cfg)
	if d.HasChanges() {
		t.Errorf("expected no changes, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
	if len(d.RestartRequired) != 0 {
		t.Errorf("log level should not require restart, got %v", d.RestartRequired)
	}
}

func TestDiff_ScoringChanged(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Scoring.FuzzyThreshold = 0.7

	d := config.Diff(old, new)
	if !d.ScoringChanged {
		t.Fatal("expected ScoringChanged=true")
	}
	if d.NewScoring.FuzzyThreshold != 0.7 {
		t.Errorf("NewScoring.FuzzyThreshold: got %v, want 0.7", d.NewScoring.FuzzyThreshold)
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	new.Server.ListenAddr = ":9999"
	new.History.Backend = config.HistoryFile
	new.History.File = "attempts.jsonl"
	new.Server.TLS = &config.TLSConfig{CertFile: "c", KeyFile: "k"}

	d := config.Diff(old, new)
	for _, key := range []string{"server.listen_addr", "server.tls", "history"} {
		if !slices.Contains(d.RestartRequired, key) {
			t.Errorf("RestartRequired should contain %q, got %v", key, d.RestartRequired)
		}
	}
	if d.ScoringChanged {
		t.Error("expected ScoringChanged=false")
	}
}

func TestDiff_SameTLSValues(t *testing.T) {
	t.Parallel()
	old := config.Default()
	new := config.Default()
	old.Server.TLS = &config.TLSConfig{CertFile: "c", KeyFile: "k"}
	new.Server.TLS = &config.TLSConfig{CertFile: "c", KeyFile: "k"}

	if d := config.Diff(old, new); d.HasChanges() {
		t.Errorf("equal TLS values should not differ, got %+v", d)
	}
}
