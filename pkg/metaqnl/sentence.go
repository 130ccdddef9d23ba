package metaqnl

import (
	"hash/fnv"
)

// Sentence is an immutable ordered sequence of tokens (§3). Once
// constructed, a Sentence's token sequence never changes; operations that
// transform a sentence (substitution application, slicing) return a new
// Sentence.
type Sentence struct {
	tokens []Token
}

// NewSentence builds a Sentence over a private copy of tokens, so the
// caller's backing array can be reused or mutated afterward without
// affecting the Sentence.
func NewSentence(tokens []Token) Sentence {
	cp := make([]Token, len(tokens))
	copy(cp, tokens)
	return Sentence{tokens: cp}
}

// EmptySentence is the zero-length sentence.
var EmptySentence = Sentence{}

// Len returns the number of tokens.
func (s Sentence) Len() int { return len(s.tokens) }

// At returns the token at position i.
func (s Sentence) At(i int) Token { return s.tokens[i] }

// Tokens returns a defensive copy of the token sequence. Internal hot paths
// that only read should prefer raw().
func (s Sentence) Tokens() []Token {
	cp := make([]Token, len(s.tokens))
	copy(cp, s.tokens)
	return cp
}

// raw exposes the backing slice without copying, for internal use only.
// Callers must treat the result as read-only.
func (s Sentence) raw() []Token { return s.tokens }

// Slice returns the sub-sentence covering token positions [i, j).
func (s Sentence) Slice(i, j int) Sentence {
	return NewSentence(s.tokens[i:j])
}

// View returns a non-owning SentenceView over token positions [i, j).
func (s Sentence) View(i, j int) SentenceView {
	return SentenceView{backing: s.tokens, start: i, end: j}
}

// IsConcrete reports whether s contains no variable token.
func (s Sentence) IsConcrete() bool {
	for _, t := range s.tokens {
		if t.Kind == VariableToken {
			return false
		}
	}
	return true
}

// HasSpecial reports whether s contains any special-symbol token.
func (s Sentence) HasSpecial() bool {
	for _, t := range s.tokens {
		if t.Kind == SpecialToken {
			return true
		}
	}
	return false
}

// Variables returns the distinct variable ids occurring in s, in order of
// first occurrence.
func (s Sentence) Variables() []int32 {
	var out []int32
	seen := make(map[int32]bool)
	for _, t := range s.tokens {
		if t.Kind == VariableToken && !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t.ID)
		}
	}
	return out
}

// CountOccurrences returns how many tokens of s are the variable varID.
func (s Sentence) CountOccurrences(varID int32) int {
	n := 0
	for _, t := range s.tokens {
		if t.Kind == VariableToken && t.ID == varID {
			n++
		}
	}
	return n
}

// Identical reports whether s and other have equal token sequences by
// (id, kind), position for position (§3).
func (s Sentence) Identical(other Sentence) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for i := range s.tokens {
		if s.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

// Equivalent reports whether there is a bijective renaming of variables
// that makes s and other identical (alpha-equivalence, §3). Words and
// special symbols must match literally; only variable identities may
// differ, and the renaming must be consistent and bijective in both
// directions.
func (s Sentence) Equivalent(other Sentence) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	forward := make(map[int32]int32)
	backward := make(map[int32]int32)
	for i := range s.tokens {
		a, b := s.tokens[i], other.tokens[i]
		if a.Kind != b.Kind {
			return false
		}
		if a.Kind != VariableToken {
			if a.ID != b.ID {
				return false
			}
			continue
		}
		if fa, ok := forward[a.ID]; ok {
			if fa != b.ID {
				return false
			}
		} else {
			forward[a.ID] = b.ID
		}
		if bb, ok := backward[b.ID]; ok {
			if bb != a.ID {
				return false
			}
		} else {
			backward[b.ID] = a.ID
		}
	}
	return true
}

// AlphaInvariantHash computes a hash that agrees for equivalent sentences:
// variables are hashed by the index of their first occurrence rather than
// by their vocabulary id, so consistently renamed sentences hash equal,
// while words and special symbols are hashed by their literal id (§3, §8).
func (s Sentence) AlphaInvariantHash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	firstSeen := make(map[int32]int32)
	var next int32
	writeU32 := func(v int32) {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		h.Write(buf[:4])
	}
	for _, t := range s.tokens {
		writeU32(int32(t.Kind))
		if t.Kind == VariableToken {
			idx, ok := firstSeen[t.ID]
			if !ok {
				idx = next
				firstSeen[t.ID] = idx
				next++
			}
			writeU32(idx)
		} else {
			writeU32(t.ID)
		}
	}
	return h.Sum64()
}

// SentenceView is a non-owning contiguous slice over another Sentence's
// backing tokens (§3). It exists to let matching and unification work over
// sub-ranges of a larger sentence without allocating a copy for every
// candidate span.
type SentenceView struct {
	backing    []Token
	start, end int
}

// Len returns the number of tokens the view covers.
func (v SentenceView) Len() int { return v.end - v.start }

// At returns the token at position i within the view.
func (v SentenceView) At(i int) Token { return v.backing[v.start+i] }

// Materialize copies the view's tokens into an owned Sentence.
func (v SentenceView) Materialize() Sentence {
	return NewSentence(v.backing[v.start:v.end])
}

// Sub returns a narrower view over positions [i, j) of v.
func (v SentenceView) Sub(i, j int) SentenceView {
	return SentenceView{backing: v.backing, start: v.start + i, end: v.start + j}
}
