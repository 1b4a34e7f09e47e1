// Package phrases manages the list of target phrases a learner practises.
//
// A phrase list is an ordered slice of strings. Its on-disk and wire format is
// a top-level JSON array of strings, the same file the learner exports and
// imports.
package phrases

import (
	"context"
	"errors"
)

// ErrEmptyPhrase is returned by Add when the phrase is empty after trimming.
var ErrEmptyPhrase = errors.New("phrase is empty")

// ErrNotFound is returned when an index is outside the phrase list.
var ErrNotFound = errors.New("phrase not found")

// DefaultPhrases is used when no phrase file is available.
var DefaultPhrases = []string{
	"Hello, how are you today?",
	"I would like to learn English.",
	"The weather is nice.",
}

// Store holds an ordered phrase list.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// List returns a copy of all phrases in order.
	List(ctx context.Context) ([]string, error)

	// Add trims phrase and inserts it at the front of the list.
	// Returns [ErrEmptyPhrase] when nothing is left after trimming.
	Add(ctx context.Context, phrase string) (string, error)

	// Get returns the phrase at index.
	// Returns [ErrNotFound] when index is out of range.
	Get(ctx context.Context, index int) (string, error)

	// Remove deletes the phrase at index.
	// Returns [ErrNotFound] when index is out of range.
	Remove(ctx context.Context, index int) error

	// Replace swaps the whole list for phrases in one step.
	Replace(ctx context.Context, phrases []string) error
}
