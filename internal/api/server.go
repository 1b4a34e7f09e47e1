// Package api exposes phrase comparison, the phrase list, flashcards, attempt
// history, and live practice over HTTP and WebSocket.
//
// Every route is wrapped by [observe.Middleware]. Errors are returned as
// JSON objects of the form {"error": "..."}.
package api

import (
	"log/slog"
	"net/http"

	"github.com/MrWong99/phrasecoach/internal/flashcards"
	"github.com/MrWong99/phrasecoach/internal/health"
	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/internal/phrases"
	"github.com/MrWong99/phrasecoach/internal/practice"
)

// Config holds the dependencies of a [Server].
type Config struct {
	// Evaluator reviews utterances and records attempts. Required.
	Evaluator *practice.Evaluator

	// Phrases is the practice phrase list. Default: an in-memory store
	// holding [phrases.DefaultPhrases].
	Phrases phrases.Store

	// Cards is the flashcard deck. Default: [flashcards.DefaultCards].
	Cards []flashcards.Card

	// BatchConcurrency bounds parallel reviews in batch requests. Default: 8.
	BatchConcurrency int

	// MaxBatchItems caps the number of items per batch request. Default: 1000.
	MaxBatchItems int

	// Metrics records HTTP and session metrics. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler http.Handler
	MetricsPath    string

	// Health serves /healthz and /readyz. Default: a handler without checkers.
	Health *health.Handler

	// OriginPatterns lists extra host patterns allowed to open the practice
	// WebSocket from a browser. Same-origin requests are always allowed.
	OriginPatterns []string

	Logger *slog.Logger
}

// Server is the phrasecoach HTTP API.
type Server struct {
	ev             *practice.Evaluator
	phrases        phrases.Store
	cards          []flashcards.Card
	batchLimit     int
	maxBatch       int
	metrics        *observe.Metrics
	metricsHandler http.Handler
	metricsPath    string
	health         *health.Handler
	originPatterns []string
	logger         *slog.Logger
}

// New builds a server from cfg, filling defaults for unset fields.
func New(cfg Config) *Server {
	s := &Server{
		ev:             cfg.Evaluator,
		phrases:        cfg.Phrases,
		cards:          cfg.Cards,
		batchLimit:     cfg.BatchConcurrency,
		maxBatch:       cfg.MaxBatchItems,
		metrics:        cfg.Metrics,
		metricsHandler: cfg.MetricsHandler,
		metricsPath:    cfg.MetricsPath,
		health:         cfg.Health,
		originPatterns: cfg.OriginPatterns,
		logger:         cfg.Logger,
	}
	if s.ev == nil {
		s.ev = practice.NewEvaluator(nil)
	}
	if s.phrases == nil {
		s.phrases = phrases.NewMemStore(phrases.DefaultPhrases)
	}
	if s.cards == nil {
		s.cards = flashcards.DefaultCards
	}
	if s.batchLimit < 1 {
		s.batchLimit = 8
	}
	if s.maxBatch < 1 {
		s.maxBatch = 1000
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New(nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the routed, instrumented HTTP handler:
//
//	POST   /v1/compare                   review one utterance
//	POST   /v1/compare/batch             review many utterances in order
//	GET    /v1/phrases                   list phrases
//	POST   /v1/phrases                   add a phrase at the front
//	PUT    /v1/phrases                   replace the list with a JSON array
//	DELETE /v1/phrases/{index}           remove a phrase
//	GET    /v1/phrases/export            download phrases.json
//	POST   /v1/phrases/{index}/attempts  review and record an attempt
//	GET    /v1/history                   recent attempts
//	GET    /v1/cards                     the flashcard deck
//	GET    /v1/cards/lookup              find a card by term
//	GET    /v1/practice/ws               live practice over WebSocket
//	GET    /healthz, /readyz             health probes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/compare", s.handleCompare)
	mux.HandleFunc("POST /v1/compare/batch", s.handleBatch)
	mux.HandleFunc("GET /v1/phrases", s.handleListPhrases)
	mux.HandleFunc("POST /v1/phrases", s.handleAddPhrase)
	mux.HandleFunc("PUT /v1/phrases", s.handleImportPhrases)
	mux.HandleFunc("DELETE /v1/phrases/{index}", s.handleRemovePhrase)
	mux.HandleFunc("GET /v1/phrases/export", s.handleExportPhrases)
	mux.HandleFunc("POST /v1/phrases/{index}/attempts", s.handleAttempt)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/cards", s.handleCards)
	mux.HandleFunc("GET /v1/cards/lookup", s.handleLookup)
	mux.HandleFunc("GET /v1/practice/ws", s.handlePractice)
	s.health.Register(mux)
	if s.metricsHandler != nil && s.metricsPath != "" && s.metricsPath != "-" {
		mux.Handle("GET "+s.metricsPath, s.metricsHandler)
	}
	return observe.Middleware(s.metrics, s.logger)(mux)
}
