package metaqnl

// Match enumerates every substitution sigma such that sigma(pattern) is
// identical to concrete (§4.1). Variables may bind to any contiguous
// non-empty token segment; the same variable occurring multiple times must
// bind to identical segments; specials and words must match literally.
// Matching never errors: an unmatchable pair simply yields an empty slice.
//
// Sentences are first split on special-symbol boundaries (Decompose),
// which must align (equal SentenceTemplate) for any match to exist; each
// aligned pair of word/variable segments is then matched independently by
// a two-phase positional search (anchor alignment, then splitting the
// remaining spans among the segment's variables), and per-segment results
// are recombined with Merge so that a variable repeated across segment
// boundaries is still forced to bind identically everywhere (§4.1, §8).
func Match(pattern, concrete Sentence) []Substitution {
	pt, pSegs := Decompose(pattern)
	ct, cSegs := Decompose(concrete)
	if !pt.Equal(ct) {
		return nil
	}

	acc := []Substitution{NewSubstitution()}
	for i := range pSegs {
		segResults := matchSegment(pSegs[i].raw(), cSegs[i].raw())
		if len(segResults) == 0 {
			return nil
		}
		var next []Substitution
		for _, a := range acc {
			for _, r := range segResults {
				merged, err := Merge(a, r)
				if err != nil {
					continue
				}
				next = append(next, merged)
			}
		}
		acc = next
		if len(acc) == 0 {
			return nil
		}
	}
	return acc
}

// matchSegment matches a special-free pattern segment against a
// special-free concrete segment, enumerating substitutions in a
// deterministic, left-to-right order.
//
// Phase 1 (anchor search) and phase 2 (variable-span resolution) are
// interleaved in a single backtracking walk: a non-variable pattern token
// is an anchor and must literally equal the concrete token at the current
// position; a variable token already bound earlier in this same walk must
// reproduce its bound span exactly; a fresh variable token tries every
// span length that still leaves enough concrete tokens for the rest of
// the pattern, shortest first.
func matchSegment(pattern, concrete []Token) []Substitution {
	var results []Substitution
	var rec func(pi, ci int, acc Substitution)
	rec = func(pi, ci int, acc Substitution) {
		if pi == len(pattern) {
			if ci == len(concrete) {
				results = append(results, acc)
			}
			return
		}
		tok := pattern[pi]
		if tok.Kind != VariableToken {
			if ci < len(concrete) && concrete[ci] == tok {
				rec(pi+1, ci+1, acc)
			}
			return
		}
		if bound, ok := acc.Get(tok.ID); ok {
			boundToks := bound.raw()
			L := len(boundToks)
			if ci+L <= len(concrete) && tokensEqual(concrete[ci:ci+L], boundToks) {
				rec(pi+1, ci+L, acc)
			}
			return
		}
		remaining := len(concrete) - ci
		minRest := len(pattern) - pi - 1 // every remaining pattern token needs >=1 concrete token
		maxLen := remaining - minRest
		for L := 1; L <= maxLen; L++ {
			val := NewSentence(concrete[ci : ci+L])
			next, err := acc.Bind(tok.ID, val)
			if err != nil {
				continue
			}
			rec(pi+1, ci+L, next)
		}
	}
	rec(0, 0, NewSubstitution())
	return results
}

func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ruleToSentence flattens premises (in the given order) and conclusion
// into one sentence, separating every adjacent pair with ctx.Delimiter, so
// that rule-level matching can delegate to sentence Match (§4.1).
func ruleToSentence(ctx *Context, premises []Sentence, conclusion Sentence) Sentence {
	var toks []Token
	for i, p := range premises {
		if i > 0 {
			toks = append(toks, ctx.Delimiter)
		}
		toks = append(toks, p.raw()...)
	}
	toks = append(toks, ctx.Delimiter)
	toks = append(toks, conclusion.raw()...)
	return NewSentence(toks)
}

func permutedSentences(sentences []Sentence, perm []int) []Sentence {
	out := make([]Sentence, len(perm))
	for i, p := range perm {
		out[i] = sentences[p]
	}
	return out
}

// MatchRule enumerates substitutions making pattern's conclusion-plus-
// premises identical to some permutation of concrete's conclusion-plus-
// premises (§4.1): pattern's premises keep their given order (permuting
// concrete's premises over every arrangement already explores every
// possible pairing), both are flattened with ruleToSentence, and results
// are deduplicated.
func MatchRule(ctx *Context, pattern, concrete Rule) []Substitution {
	if len(pattern.Premises) != len(concrete.Premises) {
		return nil
	}
	patternSent := ruleToSentence(ctx, pattern.Premises, pattern.Conclusion)

	perm := make([]int, len(concrete.Premises))
	for i := range perm {
		perm[i] = i
	}

	var all []Substitution
	permute(perm, 0, func(p []int) bool {
		permuted := permutedSentences(concrete.Premises, p)
		concreteSent := ruleToSentence(ctx, permuted, concrete.Conclusion)
		for _, s := range Match(patternSent, concreteSent) {
			all = appendDedupSubstitution(all, s)
		}
		return false // exhaust every permutation
	})
	return all
}

func appendDedupSubstitution(list []Substitution, s Substitution) []Substitution {
	for _, existing := range list {
		if substitutionEqual(existing, s) {
			return list
		}
	}
	return append(list, s)
}

func substitutionEqual(a, b Substitution) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, v := range a.order {
		bv, ok := b.vals[v]
		if !ok || !bv.Identical(a.vals[v]) {
			return false
		}
	}
	return true
}

// IsMoreGeneralSentence reports whether pattern is at least as general as
// concrete: match(pattern, concrete) is non-empty (§4.1).
func IsMoreGeneralSentence(pattern, concrete Sentence) bool {
	return len(Match(pattern, concrete)) > 0
}

// IsMoreGeneralRule reports whether pattern is at least as general as
// concrete at the rule level.
func IsMoreGeneralRule(ctx *Context, pattern, concrete Rule) bool {
	return len(MatchRule(ctx, pattern, concrete)) > 0
}
