// Package types defines the data shared between the comparison engine, the
// practice layer, and the transports that feed them.
//
// These types carry what the speech-recognition side hands over once an
// utterance is complete. The engine never captures audio itself; it receives
// plain text and optional confidence values and passes them through to its
// output untouched.
package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfidenceRange is returned by [Utterance.Validate] when a confidence
// value lies outside [0, 1] or is NaN.
var ErrConfidenceRange = errors.New("confidence must be within [0, 1]")

// Utterance is one completed speech-recognition result.
type Utterance struct {
	// Text is the recognized transcript. It may be empty, noisy, or contain
	// extra or missing words relative to the phrase being practised.
	Text string `json:"text"`

	// Confidence is the recognizer's overall confidence in [0, 1]. Nil when the
	// recognizer did not report one.
	Confidence *float64 `json:"confidence,omitempty"`

	// Words contains per-word detail when the recognizer supports it, one
	// entry per spoken word in order. May be nil.
	Words []WordDetail `json:"words,omitempty"`
}

// WordDetail holds per-word metadata from recognizers that support it.
type WordDetail struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
}

// Confidence returns a pointer to c, for building an [Utterance] literal.
func Confidence(c float64) *float64 {
	return &c
}

// Validate checks that every confidence value carried by u lies in [0, 1].
func (u Utterance) Validate() error {
	if u.Confidence != nil && !inUnitRange(*u.Confidence) {
		return fmt.Errorf("utterance: %w (got %v)", ErrConfidenceRange, *u.Confidence)
	}
	for i, w := range u.Words {
		if !inUnitRange(w.Confidence) {
			return fmt.Errorf("utterance: words[%d] %q: %w (got %v)", i, w.Word, ErrConfidenceRange, w.Confidence)
		}
	}
	return nil
}

// inUnitRange is false for NaN.
func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
