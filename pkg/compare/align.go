package compare

import (
	"fmt"
	"slices"

	"github.com/MrWong99/phrasecoach/pkg/editdist"
)

// OpKind is the kind of a single alignment step.
type OpKind int

const (
	// OpEqual: the target word was spoken exactly.
	OpEqual OpKind = iota
	// OpReplace: a different word was spoken in the target word's place.
	OpReplace
	// OpDelete: the target word was not spoken.
	OpDelete
	// OpInsert: a spoken word with no target counterpart. Insert steps are
	// reported through [Alignment.ExtraWords], never in [Alignment.Ops].
	OpInsert
)

var opKindNames = [...]string{
	OpEqual:   "equal",
	OpReplace: "replace",
	OpDelete:  "delete",
	OpInsert:  "insert",
}

// String returns the lowercase name of k.
func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opKindNames[k]
}

// MarshalText implements [encoding.TextMarshaler].
func (k OpKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(opKindNames) {
		return nil, fmt.Errorf("compare: unknown op kind %d", int(k))
	}
	return []byte(opKindNames[k]), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *OpKind) UnmarshalText(b []byte) error {
	for i, name := range opKindNames {
		if string(b) == name {
			*k = OpKind(i)
			return nil
		}
	}
	return fmt.Errorf("compare: unknown op kind %q", b)
}

// Op is one alignment step. TargetIndex is meaningful for Equal, Replace and
// Delete; SpokenIndex for Equal and Replace. Unused indexes are -1.
type Op struct {
	Kind        OpKind `json:"kind"`
	TargetIndex int    `json:"target"`
	SpokenIndex int    `json:"spoken"`
}

// Alignment is the word-level correspondence between a target and a spoken
// token sequence.
type Alignment struct {
	// Ops holds exactly one step per target token, in ascending target order.
	Ops []Op

	// ExtraWords are the spoken tokens with no target counterpart, in the order
	// they were spoken.
	ExtraWords []Token

	// Distance is the token-level edit distance between the two sequences.
	Distance int
}

// Align computes a minimum-cost word alignment of spoken against target.
//
// The backtrace walks the full edit-distance table from the bottom-right
// corner and, among equal-cost paths, always prefers an exact match, then a
// substitution, then a deletion, then an insertion. This order decides which
// words are reported as missing rather than incorrect when several
// alignments cost the same.
func Align(target, spoken []Token) Alignment {
	table := editdist.Table(target, spoken)
	m, n := len(target), len(spoken)

	ops := make([]Op, 0, m)
	var extra []Token

	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && target[i-1] == spoken[j-1]:
			ops = append(ops, Op{Kind: OpEqual, TargetIndex: i - 1, SpokenIndex: j - 1})
			i--
			j--
		case i > 0 && j > 0 && table[i][j] == table[i-1][j-1]+1:
			ops = append(ops, Op{Kind: OpReplace, TargetIndex: i - 1, SpokenIndex: j - 1})
			i--
			j--
		case i > 0 && table[i][j] == table[i-1][j]+1:
			ops = append(ops, Op{Kind: OpDelete, TargetIndex: i - 1, SpokenIndex: -1})
			i--
		default:
			extra = append(extra, spoken[j-1])
			j--
		}
	}

	// Both were collected end to start.
	slices.Reverse(ops)
	slices.Reverse(extra)

	return Alignment{
		Ops:        ops,
		ExtraWords: extra,
		Distance:   table[m][n],
	}
}

// Validate checks that a's ops cover target indexes 0..targetLen-1 exactly
// once in strictly increasing order and contain no insert steps.
func (a Alignment) Validate(targetLen int) error {
	if len(a.Ops) != targetLen {
		return fmt.Errorf("compare: alignment has %d ops, want %d", len(a.Ops), targetLen)
	}
	for i, op := range a.Ops {
		if op.Kind == OpInsert {
			return fmt.Errorf("compare: ops[%d] is an insert step", i)
		}
		if op.TargetIndex != i {
			return fmt.Errorf("compare: ops[%d] has target index %d, want %d", i, op.TargetIndex, i)
		}
	}
	return nil
}
