package phrases

import (
	"context"
	"slices"
	"strings"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory [Store].
// The zero value is an empty list ready to use.
type MemStore struct {
	mu      sync.RWMutex
	phrases []string
}

// NewMemStore returns a [MemStore] holding a copy of initial.
func NewMemStore(initial []string) *MemStore {
	return &MemStore{phrases: slices.Clone(initial)}
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.phrases))
	copy(out, s.phrases)
	return out, nil
}

// Add implements [Store.Add].
func (s *MemStore) Add(ctx context.Context, phrase string) (string, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", ErrEmptyPhrase
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phrases = slices.Insert(s.phrases, 0, phrase)
	return phrase, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.phrases) {
		return "", ErrNotFound
	}
	return s.phrases[index], nil
}

// Remove implements [Store.Remove].
func (s *MemStore) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.phrases) {
		return ErrNotFound
	}
	s.phrases = slices.Delete(s.phrases, index, index+1)
	return nil
}

// Replace implements [Store.Replace].
func (s *MemStore) Replace(ctx context.Context, phrases []string) error {
	next := slices.Clone(phrases)
	s.mu.Lock()
	s.phrases = next
	s.mu.Unlock()
	return nil
}
