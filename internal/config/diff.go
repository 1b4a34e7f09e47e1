package config

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ScoringChanged is true when any scoring field changed. Scoring is
	// applied to new comparisons without a restart.
	ScoringChanged bool
	NewScoring     ScoringConfig

	// RestartRequired lists the changed keys that only take effect after a
	// restart.
	RestartRequired []string
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Scoring != new.Scoring {
		d.ScoringChanged = true
		d.NewScoring = new.Scoring
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if !sameTLS(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = append(d.RestartRequired, "server.tls")
	}
	if old.Phrases != new.Phrases {
		d.RestartRequired = append(d.RestartRequired, "phrases")
	}
	if old.Cards != new.Cards {
		d.RestartRequired = append(d.RestartRequired, "cards")
	}
	if old.History != new.History {
		d.RestartRequired = append(d.RestartRequired, "history")
	}
	if old.Batch != new.Batch {
		d.RestartRequired = append(d.RestartRequired, "batch")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}

	return d
}

// HasChanges reports whether d records any change at all.
func (d ConfigDiff) HasChanges() bool {
	return d.LogLevelChanged || d.ScoringChanged || len(d.RestartRequired) > 0
}

func sameTLS(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
