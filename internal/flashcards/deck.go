package flashcards

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// lookupThreshold is the minimum Jaro-Winkler similarity for a fuzzy lookup.
const lookupThreshold = 0.85

// Deck is a position in a list of cards plus whether the current card shows
// its back. A Deck is a plain value and is not safe for concurrent use.
type Deck struct {
	cards   []Card
	idx     int
	flipped bool
}

// NewDeck returns a deck over a copy of cards, positioned at the first card.
func NewDeck(cards []Card) *Deck {
	return &Deck{cards: slices.Clone(cards)}
}

// Cards returns a copy of the deck in its current order.
func (d *Deck) Cards() []Card {
	return slices.Clone(d.cards)
}

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.cards) }

// Current returns the card at the current position. ok is false for an empty deck.
func (d *Deck) Current() (card Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[d.idx], true
}

// Flipped reports whether the current card shows its translation.
func (d *Deck) Flipped() bool { return d.flipped }

// Next moves to the following card, wrapping to the first, and shows its front.
func (d *Deck) Next() {
	if len(d.cards) == 0 {
		return
	}
	d.idx = (d.idx + 1) % len(d.cards)
	d.flipped = false
}

// Prev moves to the preceding card, wrapping to the last, and shows its front.
func (d *Deck) Prev() {
	if len(d.cards) == 0 {
		return
	}
	d.idx = (d.idx - 1 + len(d.cards)) % len(d.cards)
	d.flipped = false
}

// Flip turns the current card over.
func (d *Deck) Flip() {
	d.flipped = !d.flipped
}

// Shuffle reorders the cards with r and returns to the first card, front up.
// Decks of zero or one card are left untouched. A nil r uses the global
// source.
func (d *Deck) Shuffle(r *rand.Rand) {
	if len(d.cards) <= 1 {
		return
	}
	swap := func(i, j int) { d.cards[i], d.cards[j] = d.cards[j], d.cards[i] }
	if r != nil {
		r.Shuffle(len(d.cards), swap)
	} else {
		rand.Shuffle(len(d.cards), swap)
	}
	d.idx = 0
	d.flipped = false
}

// Progress returns the one-based position as "i / n", or "0 / 0" when empty.
func (d *Deck) Progress() string {
	if len(d.cards) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", d.idx+1, len(d.cards))
}

// Lookup finds the card for term. A case-insensitive exact match wins;
// otherwise the card whose term has the highest Jaro-Winkler similarity
// above 0.85 is returned along with that similarity. Exact matches report 1.
func (d *Deck) Lookup(term string) (Card, float64, bool) {
	want := strings.ToLower(strings.TrimSpace(term))
	if want == "" {
		return Card{}, 0, false
	}

	var (
		best      Card
		bestScore float64
	)
	for _, c := range d.cards {
		have := strings.ToLower(strings.TrimSpace(c.Term))
		if have == "" {
			continue
		}
		if have == want {
			return c, 1, true
		}
		if s := termSimilarity(want, have); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore > lookupThreshold {
		return best, bestScore, true
	}
	return Card{}, 0, false
}

// termSimilarity scores two lowercase terms on the full strings and, for
// multi-word terms, on the strings with spaces removed.
func termSimilarity(a, b string) float64 {
	score := matchr.JaroWinkler(a, b, false)
	if strings.Contains(a, " ") || strings.Contains(b, " ") {
		ja := strings.ReplaceAll(a, " ", "")
		jb := strings.ReplaceAll(b, " ", "")
		if s := matchr.JaroWinkler(ja, jb, false); s > score {
			score = s
		}
	}
	return score
}
