package flashcards_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/phrasecoach/internal/flashcards"
)

func TestDecodeCards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []flashcards.Card
	}{
		{
			name:  "term and translation",
			input: `[{"term": "wonder", "translation": "maravilla"}]`,
			want:  []flashcards.Card{{Term: "wonder", Translation: "maravilla"}},
		},
		{
			name:  "word and meaning aliases",
			input: `[{"word": "improve", "meaning": "mejorar"}]`,
			want:  []flashcards.Card{{Term: "improve", Translation: "mejorar"}},
		},
		{
			name:  "empty term falls back to word",
			input: `[{"term": "", "word": "give up", "translation": null, "meaning": "rendirse"}]`,
			want:  []flashcards.Card{{Term: "give up", Translation: "rendirse"}},
		},
		{
			name:  "numbers and booleans become text",
			input: `[{"term": 42, "translation": true}]`,
			want:  []flashcards.Card{{Term: "42", Translation: "true"}},
		},
		{
			name:  "structured values keep their JSON text",
			input: `[{"term":["to","be"],"translation":{"es":"ser"}}]`,
			want:  []flashcards.Card{{Term: `["to","be"]`, Translation: `{"es":"ser"}`}},
		},
		{
			name:  "missing keys are empty",
			input: `[{}]`,
			want:  []flashcards.Card{{}},
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  []flashcards.Card{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := flashcards.DecodeCards(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDecodeCards_Errors(t *testing.T) {
	t.Parallel()

	if _, err := flashcards.DecodeCards(strings.NewReader(`{"term": "a"}`)); !errors.Is(err, flashcards.ErrNotArray) {
		t.Errorf("object document: expected ErrNotArray, got %v", err)
	}
	if _, err := flashcards.DecodeCards(strings.NewReader(`["a"]`)); !errors.Is(err, flashcards.ErrNotObject) {
		t.Errorf("string element: expected ErrNotObject, got %v", err)
	}
}

func TestFromPhrases(t *testing.T) {
	t.Parallel()

	got := flashcards.FromPhrases([]string{
		"The weather is nice.",
		"the WEATHER, isn't it?",
	})
	var terms []string
	for _, c := range got {
		if c.Translation != "" {
			t.Errorf("card %q: expected empty translation, got %q", c.Term, c.Translation)
		}
		terms = append(terms, c.Term)
	}
	want := []string{"is", "isn't", "it", "nice", "the", "weather"}
	if !slices.Equal(terms, want) {
		t.Fatalf("terms: got %q, want %q", terms, want)
	}

	if cards := flashcards.FromPhrases(nil); len(cards) != 0 {
		t.Errorf("FromPhrases(nil): expected no cards, got %d", len(cards))
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cardsPath := filepath.Join(dir, "cards.json")
	if err := os.WriteFile(cardsPath, []byte(`[{"term": "hola", "translation": "hello"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	emptyPath := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(emptyPath, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("card file wins", func(t *testing.T) {
		t.Parallel()
		got, err := flashcards.Load(cardsPath, []string{"ignored phrase"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 1 || got[0].Term != "hola" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("empty file falls back to phrases", func(t *testing.T) {
		t.Parallel()
		got, err := flashcards.Load(emptyPath, []string{"Good morning"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(got) != 2 || got[0].Term != "good" || got[1].Term != "morning" {
			t.Fatalf("got %+v", got)
		}
	})

	t.Run("missing file and no phrases uses built-in deck", func(t *testing.T) {
		t.Parallel()
		got, err := flashcards.Load(filepath.Join(dir, "missing.json"), nil)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !slices.Equal(got, flashcards.DefaultCards) {
			t.Fatalf("expected built-in deck, got %d cards", len(got))
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		t.Parallel()
		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte(`{"term": "x"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := flashcards.Load(bad, nil); !errors.Is(err, flashcards.ErrNotArray) {
			t.Fatalf("expected ErrNotArray, got %v", err)
		}
	})
}

func TestDefaultCards(t *testing.T) {
	t.Parallel()
	if len(flashcards.DefaultCards) != 15 {
		t.Fatalf("expected 15 built-in cards, got %d", len(flashcards.DefaultCards))
	}
	for _, c := range flashcards.DefaultCards {
		if c.Term == "" || c.Translation == "" {
			t.Errorf("built-in card has an empty side: %+v", c)
		}
	}
}
