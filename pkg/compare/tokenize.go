package compare

import "strings"

// Token is one normalised word of a phrase: lowercase, containing only
// characters from [a-z0-9'], never empty.
type Token string

// Tokenize splits phrase into comparison tokens. The phrase is split on runs
// of whitespace; each piece is lowercased and stripped of every character
// outside [a-z0-9']; pieces that end up empty are dropped. Empty or
// whitespace-only input yields no tokens.
func Tokenize(phrase string) []Token {
	tokens, _ := tokenizeWords(phrase)
	return tokens
}

// tokenizeWords is [Tokenize] that also returns, for every token, the raw
// whitespace-separated word it was produced from.
func tokenizeWords(phrase string) ([]Token, []string) {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return nil, nil
	}
	tokens := make([]Token, 0, len(fields))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := normalizeWord(f)
		if tok == "" {
			continue
		}
		tokens = append(tokens, Token(tok))
		words = append(words, f)
	}
	return tokens, words
}

// normalizeWord lowercases w and keeps only [a-z0-9'].
func normalizeWord(w string) string {
	return keepOnly(strings.ToLower(w), isTokenByte)
}

// NormalizePhrase prepares a whole phrase for character-level scoring: it is
// lowercased and every character outside [a-z0-9 ] is removed. Spaces are kept
// as they are (runs are not collapsed), unlike [Tokenize] which drops them and
// keeps apostrophes.
func NormalizePhrase(s string) string {
	return keepOnly(strings.ToLower(s), isPhraseByte)
}

func keepOnly(s string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isTokenByte(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\''
}

func isPhraseByte(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' '
}
