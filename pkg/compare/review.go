package compare

import "github.com/MrWong99/phrasecoach/pkg/types"

// Rating is a coarse grade for a whole-phrase score.
type Rating string

const (
	RatingGreat Rating = "great"
	RatingFair  Rating = "fair"
	RatingPoor  Rating = "poor"
)

// Message returns the feedback line shown next to the score.
func (r Rating) Message() string {
	if r == RatingGreat {
		return "Great job!"
	}
	return "Keep trying!"
}

// RatingBands holds the exclusive lower bounds of the rating grades.
type RatingBands struct {
	GreatAbove int `json:"great_above"`
	FairAbove  int `json:"fair_above"`
}

// DefaultRatingBands grades scores above 80 as great and above 50 as fair.
var DefaultRatingBands = RatingBands{GreatAbove: 80, FairAbove: 50}

// Rate grades score.
func (b RatingBands) Rate(score int) Rating {
	switch {
	case score > b.GreatAbove:
		return RatingGreat
	case score > b.FairAbove:
		return RatingFair
	default:
		return RatingPoor
	}
}

// WordResult is the verdict for one target word.
type WordResult struct {
	// Index is the token position in the target phrase.
	Index int `json:"index"`

	// Text is the target word as written, punctuation and case included.
	Text string `json:"text"`

	// Token is the normalised form used for comparison.
	Token Token `json:"token"`

	Verdict Verdict `json:"verdict"`

	// Spoken is the word heard in this position. Empty for Missing words.
	Spoken Token `json:"spoken,omitempty"`

	// Similarity is the character similarity of Spoken to Token. 1 for
	// Correct, 0 for Missing.
	Similarity float64 `json:"similarity"`

	// Confidence is the recognizer confidence passed through for display. Only
	// set on Correct and FuzzyCorrect words, and only when the recognizer
	// reported one. A per-word value wins over the overall one.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Tally counts words per verdict.
type Tally struct {
	Correct      int `json:"correct"`
	FuzzyCorrect int `json:"fuzzy_correct"`
	Incorrect    int `json:"incorrect"`
	Missing      int `json:"missing"`
	Extra        int `json:"extra"`
}

// Review is a [Result] expanded into everything a presentation layer needs.
type Review struct {
	Target     string       `json:"target"`
	Spoken     string       `json:"spoken"`
	Score      int          `json:"score"`
	Rating     Rating       `json:"rating"`
	Message    string       `json:"message"`
	Words      []WordResult `json:"words"`
	ExtraWords []Token      `json:"extra_words"`
	Tally      Tally        `json:"tally"`

	// Confidence is the overall recognizer confidence, when reported.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Rate grades score with the engine's bands.
func (e *Engine) Rate(score int) Rating {
	return e.bands.Rate(score)
}

// Review compares the utterance with target and classifies every target word.
func (e *Engine) Review(target string, u types.Utterance) Review {
	targetTokens, targetWords := tokenizeWords(target)
	spokenTokens := Tokenize(u.Text)
	res := e.compareTokens(target, u.Text, targetTokens, spokenTokens)

	rating := e.Rate(res.Score)
	rv := Review{
		Target:     target,
		Spoken:     u.Text,
		Score:      res.Score,
		Rating:     rating,
		Message:    rating.Message(),
		Words:      make([]WordResult, 0, len(res.Ops)),
		ExtraWords: res.ExtraWords,
		Confidence: u.Confidence,
	}
	rv.Tally.Extra = len(res.ExtraWords)

	for _, op := range res.Ops {
		tok := targetTokens[op.TargetIndex]
		verdict, ok := Classify(op, tok, spokenTokens, e.fuzzyThreshold)
		if !ok {
			continue
		}
		wr := WordResult{
			Index:   op.TargetIndex,
			Text:    targetWords[op.TargetIndex],
			Token:   tok,
			Verdict: verdict,
		}
		switch op.Kind {
		case OpEqual:
			wr.Spoken = spokenTokens[op.SpokenIndex]
			wr.Similarity = 1
		case OpReplace:
			wr.Spoken = spokenTokens[op.SpokenIndex]
			wr.Similarity = WordSimilarity(tok, wr.Spoken)
		}
		if verdict.Accepted() {
			wr.Confidence = wordConfidence(u, len(spokenTokens), op.SpokenIndex)
		}

		switch verdict {
		case Correct:
			rv.Tally.Correct++
		case FuzzyCorrect:
			rv.Tally.FuzzyCorrect++
		case Incorrect:
			rv.Tally.Incorrect++
		case Missing:
			rv.Tally.Missing++
		}
		rv.Words = append(rv.Words, wr)
	}
	return rv
}

// wordConfidence picks the confidence shown for the spoken word at index i.
// Per-word details are used only when they line up one-to-one with the
// spoken tokens.
func wordConfidence(u types.Utterance, spokenTokens, i int) *float64 {
	if len(u.Words) == spokenTokens && i >= 0 && i < len(u.Words) {
		c := u.Words[i].Confidence
		return &c
	}
	if u.Confidence != nil {
		c := *u.Confidence
		return &c
	}
	return nil
}
