package compare

import (
	"fmt"
	"math"

	"github.com/MrWong99/phrasecoach/pkg/editdist"
)

// DefaultFuzzyThreshold is the minimum character-level similarity at which a
// substituted word still counts as correct.
const DefaultFuzzyThreshold = 0.85

// Score returns the whole-phrase accuracy of spoken against target as an
// integer percentage in [0, 100].
//
// Both phrases are reduced with [NormalizePhrase]. Two empty phrases score
// 100; an empty target with a non-empty spoken phrase scores 0. Otherwise the
// score is floor(max(0, (len(target) - d) / len(target) * 100)) where d is the
// character edit distance. Only the target length is used as the denominator.
func Score(target, spoken string) int {
	t := []rune(NormalizePhrase(target))
	s := []rune(NormalizePhrase(spoken))

	if len(t) == 0 && len(s) == 0 {
		return 100
	}
	if len(t) == 0 {
		return 0
	}

	d := editdist.Distance(t, s)
	accuracy := float64(len(t)-d) / float64(len(t))
	return int(math.Floor(max(0, accuracy*100)))
}

// Verdict is the classification of a single target word.
type Verdict int

const (
	// Correct: the word was spoken exactly.
	Correct Verdict = iota
	// FuzzyCorrect: a near miss close enough to count.
	FuzzyCorrect
	// Incorrect: a different word was spoken in its place.
	Incorrect
	// Missing: the word was not spoken at all.
	Missing
)

var verdictNames = [...]string{
	Correct:      "correct",
	FuzzyCorrect: "fuzzy_correct",
	Incorrect:    "incorrect",
	Missing:      "missing",
}

// String returns the snake_case name of v.
func (v Verdict) String() string {
	if v < 0 || int(v) >= len(verdictNames) {
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
	return verdictNames[v]
}

// Accepted reports whether v counts as the word having been said.
func (v Verdict) Accepted() bool {
	return v == Correct || v == FuzzyCorrect
}

// MarshalText implements [encoding.TextMarshaler].
func (v Verdict) MarshalText() ([]byte, error) {
	if v < 0 || int(v) >= len(verdictNames) {
		return nil, fmt.Errorf("compare: unknown verdict %d", int(v))
	}
	return []byte(verdictNames[v]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *Verdict) UnmarshalText(b []byte) error {
	for i, name := range verdictNames {
		if string(b) == name {
			*v = Verdict(i)
			return nil
		}
	}
	return fmt.Errorf("compare: unknown verdict %q", b)
}

// WordSimilarity is the character-level similarity of a spoken word to a
// target word: (len(target) - d) / len(target), or 0 for an empty target.
func WordSimilarity(target, spoken Token) float64 {
	return editdist.Similarity(string(target), string(spoken))
}

// Classify turns one alignment step into a verdict for targetToken.
//
// Equal is Correct and Delete is Missing. Replace compares targetToken with
// spoken[op.SpokenIndex] and yields FuzzyCorrect when [WordSimilarity] is at
// least threshold, Incorrect otherwise. Insert steps have no target word; for
// them, and for a Replace pointing outside spoken, ok is false.
func Classify(op Op, targetToken Token, spoken []Token, threshold float64) (v Verdict, ok bool) {
	switch op.Kind {
	case OpEqual:
		return Correct, true
	case OpDelete:
		return Missing, true
	case OpReplace:
		if op.SpokenIndex < 0 || op.SpokenIndex >= len(spoken) {
			return Incorrect, false
		}
		if WordSimilarity(targetToken, spoken[op.SpokenIndex]) >= threshold {
			return FuzzyCorrect, true
		}
		return Incorrect, true
	default:
		return Incorrect, false
	}
}
