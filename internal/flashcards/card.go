// Package flashcards provides the vocabulary flashcard deck: loading cards
// from JSON, deriving them from the phrase list, and stepping through them.
package flashcards

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/MrWong99/phrasecoach/pkg/compare"
)

// ErrNotArray is returned by [DecodeCards] when the document is not a JSON array.
var ErrNotArray = errors.New("flashcards: JSON must be an array of cards")

// ErrNotObject is returned by [DecodeCards] when an array element is not an object.
var ErrNotObject = errors.New("flashcards: card must be a JSON object")

// Card is one flashcard: a term on the front and its translation on the back.
type Card struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

// DefaultCards is the built-in English/Spanish deck.
var DefaultCards = []Card{
	{Term: "wonder", Translation: "preguntarse / maravilla"},
	{Term: "wonderful", Translation: "maravilloso"},
	{Term: "integrated", Translation: "integrado"},
	{Term: "improve", Translation: "mejorar"},
	{Term: "practice", Translation: "practicar"},
	{Term: "take off", Translation: "despegar / quitar (ropa)"},
	{Term: "pick up", Translation: "recoger / aprender (informal)"},
	{Term: "turn on", Translation: "encender"},
	{Term: "turn off", Translation: "apagar"},
	{Term: "look after", Translation: "cuidar de"},
	{Term: "get along (with)", Translation: "llevarse bien (con)"},
	{Term: "give up", Translation: "rendirse / dejar de"},
	{Term: "pick out", Translation: "elegir / seleccionar"},
	{Term: "break down", Translation: "averiarse / descomponer"},
	{Term: "carry on", Translation: "continuar"},
}

// DecodeCards reads a JSON array of card objects from r. The front is taken
// from "term", or "word" when term is empty; the back from "translation", or
// "meaning". Numbers and booleans are converted to their JSON text.
func DecodeCards(r io.Reader) ([]Card, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("flashcards: decode: %w", err)
	}
	if raw = bytes.TrimSpace(raw); len(raw) == 0 || raw[0] != '[' {
		return nil, ErrNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("flashcards: decode: %w", err)
	}

	cards := make([]Card, 0, len(items))
	for i, item := range items {
		if item = bytes.TrimSpace(item); len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w (index %d)", ErrNotObject, i)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, fmt.Errorf("flashcards: decode index %d: %w", i, err)
		}
		cards = append(cards, Card{
			Term:        firstText(fields, "term", "word"),
			Translation: firstText(fields, "translation", "meaning"),
		})
	}
	return cards, nil
}

// firstText returns the text of the first key whose value is not empty,
// zero, false, or null.
func firstText(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := text(fields[k]); s != "" {
			return s
		}
	}
	return ""
}

func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if !v {
			return ""
		}
		return "true"
	case nil:
		return ""
	default:
		// Objects and arrays keep their JSON text.
		return string(raw)
	}
}

// FromPhrases builds a deck from every distinct token in phrases, sorted,
// with empty translations.
func FromPhrases(phrases []string) []Card {
	seen := make(map[compare.Token]struct{})
	var terms []string
	for _, p := range phrases {
		for _, tok := range compare.Tokenize(p) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			terms = append(terms, string(tok))
		}
	}
	slices.Sort(terms)

	cards := make([]Card, len(terms))
	for i, t := range terms {
		cards[i] = Card{Term: t}
	}
	return cards
}

// Load picks the cards for a deck. A non-empty card file wins; otherwise cards
// are derived from phrases; when that yields nothing the built-in deck is
// used. A missing or empty path is not an error.
func Load(path string, phrases []string) ([]Card, error) {
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			cards, err := DecodeCards(f)
			if err != nil {
				return nil, fmt.Errorf("flashcards: load %q: %w", path, err)
			}
			if len(cards) > 0 {
				return cards, nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("flashcards: open %q: %w", path, err)
		}
	}
	if cards := FromPhrases(phrases); len(cards) > 0 {
		return cards, nil
	}
	return slices.Clone(DefaultCards), nil
}
