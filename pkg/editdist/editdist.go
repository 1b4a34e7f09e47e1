// Package editdist implements unit-cost Levenshtein edit distance over
// arbitrary comparable symbols.
//
// The same dynamic program serves character-level comparison (runes of a
// normalised phrase or word) and token-level comparison (normalised words of a
// phrase). [Distance] keeps a single rolling row and only reports the final
// value; [Table] materialises the whole (len(a)+1)×(len(b)+1) matrix for
// callers that need to backtrace an alignment.
//
// All functions are pure and safe for concurrent use.
package editdist

// Distance returns the minimum number of single-symbol insertions, deletions
// and substitutions needed to turn a into b.
//
// Memory use is O(min(len(a), len(b))).
func Distance[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Keep the shorter sequence along the row. Distance is symmetric.
	if len(b) > len(a) {
		a, b = b, a
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diag := row[0] // table[i-1][j-1]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			up := row[j] // table[i-1][j]
			if a[i-1] == b[j-1] {
				row[j] = diag
			} else {
				row[j] = 1 + min(diag, up, row[j-1])
			}
			diag = up
		}
	}
	return row[len(b)]
}

// Table returns the full edit-distance matrix for a and b. Row 0 and column 0
// hold the index values 0..len; every other cell (i, j) is table[i-1][j-1]
// when a[i-1] == b[j-1] and 1 + min(table[i-1][j-1], table[i-1][j],
// table[i][j-1]) otherwise. The bottom-right cell equals [Distance](a, b).
func Table[T comparable](a, b []T) [][]int {
	m, n := len(a), len(b)

	// One backing array keeps the rows contiguous.
	cells := make([]int, (m+1)*(n+1))
	table := make([][]int, m+1)
	for i := range table {
		table[i] = cells[i*(n+1) : (i+1)*(n+1)]
		table[i][0] = i
	}
	for j := 0; j <= n; j++ {
		table[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				table[i][j] = table[i-1][j-1]
				continue
			}
			table[i][j] = 1 + min(table[i-1][j-1], table[i-1][j], table[i][j-1])
		}
	}
	return table
}

// Strings returns the character-level edit distance between a and b, counted
// in runes.
func Strings(a, b string) int {
	return Distance([]rune(a), []rune(b))
}

// Similarity returns how much of target survives in spoken, as
// (len(target) - Strings(target, spoken)) / len(target) with lengths counted in
// runes. It is 0 when target is empty and may be negative when spoken is much
// longer than target.
func Similarity(target, spoken string) float64 {
	t := []rune(target)
	if len(t) == 0 {
		return 0
	}
	d := Distance(t, []rune(spoken))
	return float64(len(t)-d) / float64(len(t))
}
