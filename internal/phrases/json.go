package phrases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotArray is returned by [Decode] when the document is not a JSON array.
var ErrNotArray = errors.New("phrases: JSON must be an array of phrases")

// ErrNotString is returned by [Decode] when an array element is not a string.
var ErrNotString = errors.New("phrases: all items in the JSON array must be strings")

// Decode reads a JSON array of strings from r. Elements are kept as written,
// including empty strings.
func Decode(r io.Reader) ([]string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("phrases: decode: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("phrases: decode: %w", err)
	}

	out := make([]string, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '"' {
			return nil, fmt.Errorf("%w (index %d)", ErrNotString, i)
		}
		if err := json.Unmarshal(item, &out[i]); err != nil {
			return nil, fmt.Errorf("phrases: decode index %d: %w", i, err)
		}
	}
	return out, nil
}

// Encode writes phrases to w as a JSON array indented with two spaces.
// A nil slice is written as an empty array.
func Encode(w io.Writer, phrases []string) error {
	if phrases == nil {
		phrases = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(phrases); err != nil {
		return fmt.Errorf("phrases: encode: %w", err)
	}
	return nil
}

// LoadFile reads a phrase file written by [SaveFile] or exported by a learner.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phrases: open %q: %w", path, err)
	}
	defer f.Close()

	list, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("phrases: load %q: %w", path, err)
	}
	return list, nil
}

// SaveFile writes phrases to path. The file is written to a temporary
// sibling first and renamed into place.
func SaveFile(path string, phrases []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".phrases-*.json")
	if err != nil {
		return fmt.Errorf("phrases: save %q: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, phrases); err != nil {
		tmp.Close()
		return fmt.Errorf("phrases: save %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("phrases: save %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("phrases: save %q: %w", path, err)
	}
	return nil
}

// LoadOrDefault loads path, falling back to [DefaultPhrases] when path is
// empty or does not exist. Other errors are returned.
func LoadOrDefault(path string) ([]string, error) {
	if path == "" {
		return append([]string(nil), DefaultPhrases...), nil
	}
	list, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return append([]string(nil), DefaultPhrases...), nil
	}
	return list, err
}

// Import decodes a phrase array from r and replaces the contents of store.
// On a decode error the store is left unchanged.
func Import(ctx context.Context, store Store, r io.Reader) (int, error) {
	list, err := Decode(r)
	if err != nil {
		return 0, err
	}
	if err := store.Replace(ctx, list); err != nil {
		return 0, fmt.Errorf("phrases: import: %w", err)
	}
	return len(list), nil
}
