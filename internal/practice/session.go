package practice

import (
	"context"
	"errors"
	"slices"

	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// ErrNoPhrase is returned when a session has no phrase at the requested index.
var ErrNoPhrase = errors.New("practice: no phrase at index")

// Session walks a learner through a fixed snapshot of phrases. Its state is
// the snapshot plus the current index; it is not safe for concurrent use and
// is meant to be owned by one connection.
type Session struct {
	ev      *Evaluator
	phrases []string
	idx     int
}

// NewSession starts a session over a copy of phrases, positioned at the first.
func NewSession(ev *Evaluator, phrases []string) *Session {
	return &Session{ev: ev, phrases: slices.Clone(phrases)}
}

// Len returns the number of phrases in the session.
func (s *Session) Len() int { return len(s.phrases) }

// Index returns the current position.
func (s *Session) Index() int { return s.idx }

// Current returns the phrase at the current position. ok is false when the
// session is empty.
func (s *Session) Current() (phrase string, ok bool) {
	if len(s.phrases) == 0 {
		return "", false
	}
	return s.phrases[s.idx], true
}

// Next advances to the following phrase, wrapping to the first.
func (s *Session) Next() {
	if len(s.phrases) > 0 {
		s.idx = (s.idx + 1) % len(s.phrases)
	}
}

// Prev moves to the preceding phrase, wrapping to the last.
func (s *Session) Prev() {
	if len(s.phrases) > 0 {
		s.idx = (s.idx - 1 + len(s.phrases)) % len(s.phrases)
	}
}

// Seek moves to index. It returns [ErrNoPhrase] when index is out of range.
func (s *Session) Seek(index int) error {
	if index < 0 || index >= len(s.phrases) {
		return ErrNoPhrase
	}
	s.idx = index
	return nil
}

// Attempt reviews u against the phrase at index and records it. The session
// moves to index. The review is returned even when recording fails.
func (s *Session) Attempt(ctx context.Context, index int, u types.Utterance) (compare.Review, error) {
	if err := s.Seek(index); err != nil {
		return compare.Review{}, err
	}
	return s.ev.Attempt(ctx, s.phrases[index], u)
}
