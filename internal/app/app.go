// Package app wires the phrasecoach subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP API, and Shutdown tears everything down in
// order. ApplyConfig applies hot-reloadable config changes to a running App.
//
// For testing, inject test doubles via functional options (WithPhraseStore,
// WithRecorder, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MrWong99/phrasecoach/internal/api"
	"github.com/MrWong99/phrasecoach/internal/config"
	"github.com/MrWong99/phrasecoach/internal/flashcards"
	"github.com/MrWong99/phrasecoach/internal/health"
	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/internal/history/postgres"
	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/internal/phrases"
	"github.com/MrWong99/phrasecoach/internal/practice"
	"github.com/MrWong99/phrasecoach/internal/resilience"
	"github.com/MrWong99/phrasecoach/pkg/compare"
)

// App owns all subsystem lifetimes of the phrasecoach service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	levelVar *slog.LevelVar
	version  string

	// Subsystems, initialised in New and torn down in Shutdown.
	telemetry *observe.Provider
	metrics   *observe.Metrics
	phrases   phrases.Store
	cards     []flashcards.Card
	recorder  history.Recorder
	backend   string
	evaluator *practice.Evaluator
	checkers  []health.Checker
	server    *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithPhraseStore injects a phrase store instead of creating one from config.
func WithPhraseStore(s phrases.Store) Option {
	return func(a *App) { a.phrases = s }
}

// WithRecorder injects an attempt recorder instead of creating one from
// config. backend labels it in metrics and logs.
func WithRecorder(r history.Recorder, backend string) Option {
	return func(a *App) {
		a.recorder = r
		a.backend = backend
	}
}

// WithMetrics injects a metric set. The OpenTelemetry SDK is then not
// initialised and no metrics endpoint is served.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogger sets the logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithLevelVar lets ApplyConfig change the log level of the running logger.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.levelVar = v }
}

// WithVersion sets the version reported by telemetry and /readyz.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. On error, subsystems
// opened so far are closed.
//
// New performs all initialisation synchronously: telemetry setup, phrase
// loading, deck selection, history backend connection and migration, and
// HTTP handler assembly.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	steps := []struct {
		name string
		init func(context.Context) error
	}{
		{"telemetry", a.initTelemetry},
		{"phrases", a.initPhrases},
		{"cards", a.initCards},
		{"history", a.initHistory},
		{"server", a.initServer},
	}
	for _, s := range steps {
		if err := s.init(ctx); err != nil {
			a.runClosers()
			return nil, fmt.Errorf("app: init %s: %w", s.name, err)
		}
	}

	a.logger.Info("app initialised",
		"phrases_file", cfg.Phrases.File,
		"cards", len(a.cards),
		"history", a.backend,
		"fuzzy_threshold", cfg.Scoring.FuzzyThreshold,
	)
	return a, nil
}

func (a *App) initTelemetry(ctx context.Context) error {
	if a.metrics != nil {
		return nil
	}
	p, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    a.cfg.Telemetry.ServiceName,
		ServiceVersion: a.version,
	})
	if err != nil {
		return err
	}
	a.telemetry = p
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.Shutdown(ctx)
	})

	m, err := p.Metrics()
	if err != nil {
		return err
	}
	a.metrics = m
	return nil
}

func (a *App) initPhrases(context.Context) error {
	if a.phrases != nil {
		return nil
	}
	path := a.cfg.Phrases.File
	if a.cfg.Phrases.Persist && path != "" {
		s, err := phrases.OpenFileStore(path, a.logger)
		if err != nil {
			return err
		}
		a.phrases = s
		return nil
	}
	list := phrases.DefaultPhrases
	if path != "" {
		var err error
		if list, err = phrases.LoadOrDefault(path); err != nil {
			return err
		}
	}
	a.phrases = phrases.NewMemStore(list)
	return nil
}

func (a *App) initCards(ctx context.Context) error {
	list, err := a.phrases.List(ctx)
	if err != nil {
		return err
	}
	a.cards, err = flashcards.Load(a.cfg.Cards.File, list)
	return err
}

func (a *App) initHistory(ctx context.Context) error {
	if a.recorder != nil {
		return nil
	}
	a.backend = string(a.cfg.History.Backend)
	switch a.cfg.History.Backend {
	case config.HistoryFile:
		a.recorder = history.NewFileStore(a.cfg.History.File)
	case config.HistoryPostgres:
		s, err := postgres.NewStore(ctx, a.cfg.History.PostgresDSN)
		if err != nil {
			return err
		}
		a.recorder = resilience.GuardRecorder(s, resilience.CircuitBreakerConfig{
			Name:   "history.postgres",
			Logger: a.logger,
		})
		a.closers = append(a.closers, func() error {
			s.Close()
			return nil
		})
		a.checkers = append(a.checkers, health.Checker{Name: "history", Check: s.Ping})
	default:
		a.backend = string(config.HistoryNone)
		a.recorder = history.Nop{}
	}
	return nil
}

func (a *App) initServer(context.Context) error {
	a.evaluator = practice.NewEvaluator(a.engineFor(a.cfg.Scoring),
		practice.WithRecorder(a.recorder, a.backend),
		practice.WithMetrics(a.metrics),
		practice.WithLogger(a.logger),
	)
	a.checkers = append(a.checkers, health.Checker{
		Name: "phrases",
		Check: func(ctx context.Context) error {
			_, err := a.phrases.List(ctx)
			return err
		},
	})

	srvCfg := api.Config{
		Evaluator:        a.evaluator,
		Phrases:          a.phrases,
		Cards:            a.cards,
		BatchConcurrency: a.cfg.Batch.Concurrency,
		MaxBatchItems:    a.cfg.Batch.MaxItems,
		Metrics:          a.metrics,
		Health:           health.New(a.checkers, health.WithVersion(a.version)),
		Logger:           a.logger,
	}
	if a.telemetry != nil {
		srvCfg.MetricsHandler = a.telemetry.Handler()
		srvCfg.MetricsPath = a.cfg.Telemetry.MetricsPath
	}

	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           api.New(srvCfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}
	return nil
}

func (a *App) engineFor(s config.ScoringConfig) *compare.Engine {
	return compare.New(
		compare.WithFuzzyThreshold(s.FuzzyThreshold),
		compare.WithRatingBands(s.GreatAbove, s.FairAbove),
		compare.WithLogger(a.logger),
	)
}

// Handler returns the service's HTTP handler.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Evaluator returns the evaluator serving all comparisons.
func (a *App) Evaluator() *practice.Evaluator { return a.evaluator }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on the configured address and serves until ctx is cancelled or
// the server fails. It returns nil after a cancellation; call Shutdown to
// drain in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("http server listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)

	errCh := make(chan error, 1)
	go func() {
		if tls := a.cfg.Server.TLS; tls != nil {
			errCh <- a.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
			return
		}
		errCh <- a.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfig applies the hot-reloadable differences between old and new:
// the log level (when a LevelVar was supplied) and the scoring settings.
// Other changes are logged as requiring a restart.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.LogLevelChanged && a.levelVar != nil {
		a.levelVar.Set(d.NewLogLevel.Level())
		a.logger.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.ScoringChanged {
		a.evaluator.SetEngine(a.engineFor(d.NewScoring))
		a.logger.Info("scoring updated",
			"fuzzy_threshold", d.NewScoring.FuzzyThreshold,
			"great_above", d.NewScoring.GreatAbove,
			"fair_above", d.NewScoring.FairAbove,
		)
	}
	if len(d.RestartRequired) > 0 {
		a.logger.Warn("config changes require a restart", "keys", d.RestartRequired)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops the HTTP server, waiting for in-flight requests, then runs
// the closers in order. It respects the context deadline: if ctx expires
// before all closers finish, remaining closers are skipped and the context
// error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.logger.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("http server shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.logger.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.logger.Warn("closer error", "index", i, "err", err)
			}
		}

		a.logger.Info("shutdown complete")
	})
	return shutdownErr
}

// runClosers releases whatever New opened before failing.
func (a *App) runClosers() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Warn("closer error", "err", err)
		}
	}
	a.closers = nil
}
