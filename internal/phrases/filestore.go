package phrases

import (
	"context"
	"log/slog"
	"sync"
)

var _ Store = (*FileStore)(nil)

// FileStore is a [MemStore] that writes the whole list back to a file after
// every change. A change whose write fails is rolled back, so the list in
// memory always matches the last successful save.
type FileStore struct {
	mem    *MemStore
	path   string
	logger *slog.Logger

	// mu serialises changes together with their writes.
	mu sync.Mutex
}

// OpenFileStore loads path (or [DefaultPhrases] when it does not exist yet)
// and returns a store that persists to it.
func OpenFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	list, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{mem: NewMemStore(list), path: path, logger: logger}, nil
}

// List implements [Store.List].
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	return s.mem.List(ctx)
}

// Get implements [Store.Get].
func (s *FileStore) Get(ctx context.Context, index int) (string, error) {
	return s.mem.Get(ctx, index)
}

// Add implements [Store.Add].
func (s *FileStore) Add(ctx context.Context, phrase string) (string, error) {
	var added string
	err := s.change(ctx, func() error {
		var err error
		added, err = s.mem.Add(ctx, phrase)
		return err
	})
	if err != nil {
		return "", err
	}
	return added, nil
}

// Remove implements [Store.Remove].
func (s *FileStore) Remove(ctx context.Context, index int) error {
	return s.change(ctx, func() error { return s.mem.Remove(ctx, index) })
}

// Replace implements [Store.Replace].
func (s *FileStore) Replace(ctx context.Context, phrases []string) error {
	return s.change(ctx, func() error { return s.mem.Replace(ctx, phrases) })
}

// change applies fn to the in-memory list and persists the result, restoring
// the previous list when the write fails.
func (s *FileStore) change(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.mem.List(ctx)
	if err := fn(); err != nil {
		return err
	}
	list, _ := s.mem.List(ctx)
	if err := SaveFile(s.path, list); err != nil {
		_ = s.mem.Replace(ctx, prev)
		s.logger.Error("failed to persist phrases; change rolled back", "path", s.path, "err", err)
		return err
	}
	s.logger.Debug("phrases persisted", "path", s.path, "count", len(list))
	return nil
}
