// Package compare scores a recognized spoken phrase against the phrase the
// speaker was asked to say, and explains the score word by word.
//
// The engine is built from four small pieces:
//
//  1. [Tokenize] turns a phrase into normalised word tokens.
//  2. [editdist] provides the unit-cost edit distance used both over
//     characters (scoring, fuzzy word matching) and over tokens (alignment).
//  3. [Align] recovers the word-level edit operations by backtracing the full
//     token distance table.
//  4. [Score] and [Classify] turn distances into a 0–100 accuracy and a
//     per-word [Verdict], accepting near-miss words whose similarity reaches
//     the fuzzy threshold (default [DefaultFuzzyThreshold]).
//
// An [Engine] composes them. Engines hold no mutable state: every call
// receives its inputs and returns a fresh result, so one Engine may be shared
// freely across goroutines.
package compare

import (
	"log/slog"
	"math"

	"github.com/MrWong99/phrasecoach/pkg/types"
)

// Result is the outcome of comparing one spoken phrase with its target.
type Result struct {
	// Score is the whole-phrase accuracy in [0, 100].
	Score int `json:"score"`

	// Ops has one step per target token in ascending target order.
	Ops []Op `json:"ops"`

	// ExtraWords are spoken tokens that have no counterpart in the target.
	ExtraWords []Token `json:"extra_words"`
}

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithFuzzyThreshold sets the minimum similarity in [0, 1] at which a
// substituted word is classified [FuzzyCorrect]. Values outside the range are
// clamped; NaN keeps [DefaultFuzzyThreshold]. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(e *Engine) {
		if math.IsNaN(threshold) {
			e.fuzzyThreshold = DefaultFuzzyThreshold
			return
		}
		e.fuzzyThreshold = min(max(threshold, 0), 1)
	}
}

// WithRatingBands sets the score boundaries used by [Engine.Rate]. A score
// strictly above great is [RatingGreat]; strictly above fair is [RatingFair].
// Defaults: 80 and 50.
func WithRatingBands(great, fair int) Option {
	return func(e *Engine) {
		e.bands = RatingBands{GreatAbove: great, FairAbove: fair}
	}
}

// WithLogger sets the logger used for debug output. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine compares spoken phrases with target phrases. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	fuzzyThreshold float64
	bands          RatingBands
	logger         *slog.Logger
}

// New returns an [Engine] configured with the supplied options.
func New(opts ...Option) *Engine {
	e := &Engine{
		fuzzyThreshold: DefaultFuzzyThreshold,
		bands:          DefaultRatingBands,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FuzzyThreshold returns the engine's fuzzy word threshold.
func (e *Engine) FuzzyThreshold() float64 {
	return e.fuzzyThreshold
}

// Bands returns the engine's rating bands.
func (e *Engine) Bands() RatingBands {
	return e.bands
}

// Compare scores spoken against target and aligns their words.
func (e *Engine) Compare(target, spoken string) Result {
	targetTokens := Tokenize(target)
	spokenTokens := Tokenize(spoken)
	return e.compareTokens(target, spoken, targetTokens, spokenTokens)
}

func (e *Engine) compareTokens(target, spoken string, targetTokens, spokenTokens []Token) Result {
	al := Align(targetTokens, spokenTokens)
	res := Result{
		Score:      Score(target, spoken),
		Ops:        al.Ops,
		ExtraWords: al.ExtraWords,
	}
	if res.ExtraWords == nil {
		res.ExtraWords = []Token{}
	}
	e.log().Debug("phrase compared",
		"score", res.Score,
		"target_tokens", len(targetTokens),
		"spoken_tokens", len(spokenTokens),
		"word_distance", al.Distance,
		"extra_words", len(res.ExtraWords),
	)
	return res
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// defaultEngine backs the package-level helpers.
var defaultEngine = New()

// Compare scores spoken against target using the default settings.
func Compare(target, spoken string) Result {
	return defaultEngine.Compare(target, spoken)
}

// ReviewUtterance reviews u against target using the default settings.
func ReviewUtterance(target string, u types.Utterance) Review {
	return defaultEngine.Review(target, u)
}
