package metaqnl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Rule has an ordered list of premise sentences and one conclusion
// sentence (§3). Two rules are identical when their premise lists and
// conclusion are identical in order; they are equivalent when there is a
// permutation of one rule's premises under which the two become equivalent
// sentence-tuples under a single, shared variable renaming.
type Rule struct {
	Premises   []Sentence
	Conclusion Sentence
}

// NewRule builds a Rule over a private copy of premises.
func NewRule(premises []Sentence, conclusion Sentence) Rule {
	cp := make([]Sentence, len(premises))
	copy(cp, premises)
	return Rule{Premises: cp, Conclusion: conclusion}
}

// Identical reports order-sensitive, renaming-sensitive equality.
func (r Rule) Identical(other Rule) bool {
	if len(r.Premises) != len(other.Premises) {
		return false
	}
	for i := range r.Premises {
		if !r.Premises[i].Identical(other.Premises[i]) {
			return false
		}
	}
	return r.Conclusion.Identical(other.Conclusion)
}

// Equivalent reports whether some permutation of other's premises, together
// with a single bijective variable renaming shared across every premise and
// the conclusion, makes r and other identical (§3).
func (r Rule) Equivalent(other Rule) bool {
	if len(r.Premises) != len(other.Premises) {
		return false
	}
	perm := make([]int, len(other.Premises))
	for i := range perm {
		perm[i] = i
	}
	found := false
	permute(perm, 0, func(p []int) bool {
		if r.equivalentUnderPermutation(other, p) {
			found = true
			return true
		}
		return false
	})
	return found
}

// equivalentUnderPermutation checks r against other's premises reordered by
// perm, building one bijective variable map shared across every sentence
// compared, exactly as Sentence.Equivalent does for a single sentence.
func (r Rule) equivalentUnderPermutation(other Rule, perm []int) bool {
	forward := make(map[int32]int32)
	backward := make(map[int32]int32)
	check := func(a, b Sentence) bool {
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ta, tb := a.At(i), b.At(i)
			if ta.Kind != tb.Kind {
				return false
			}
			if ta.Kind != VariableToken {
				if ta.ID != tb.ID {
					return false
				}
				continue
			}
			if fa, ok := forward[ta.ID]; ok {
				if fa != tb.ID {
					return false
				}
			} else {
				forward[ta.ID] = tb.ID
			}
			if bb, ok := backward[tb.ID]; ok {
				if bb != ta.ID {
					return false
				}
			} else {
				backward[tb.ID] = ta.ID
			}
		}
		return true
	}
	for i, p := range perm {
		if !check(r.Premises[i], other.Premises[p]) {
			return false
		}
	}
	return check(r.Conclusion, other.Conclusion)
}

// permute enumerates permutations of a in place via Heap-style swaps,
// calling found after each complete permutation; it stops as soon as found
// returns true.
func permute(a []int, k int, found func([]int) bool) bool {
	if k == len(a) {
		return found(a)
	}
	for i := k; i < len(a); i++ {
		a[k], a[i] = a[i], a[k]
		if permute(a, k+1, found) {
			a[k], a[i] = a[i], a[k]
			return true
		}
		a[k], a[i] = a[i], a[k]
	}
	return false
}

// Hash is invariant under premise reordering and alpha-renaming: a
// commutative (XOR) combination of each premise's alpha-invariant hash,
// combined with the conclusion's alpha-invariant hash (§3).
func (r Rule) Hash() uint64 {
	var premiseXOR uint64
	for _, p := range r.Premises {
		premiseXOR ^= p.AlphaInvariantHash()
	}
	return premiseXOR ^ r.Conclusion.AlphaInvariantHash()
}

// findRedundantPair looks for two distinct variables a, b such that every
// occurrence of a in the rule is immediately followed by b and every
// occurrence of b is immediately preceded by a - a pair that always moves
// together and so carries no information beyond a single variable (§3,
// invariant 3). It returns the first such pair found, in a deterministic
// (sorted) search order.
func findRedundantPair(r Rule) (int32, int32, bool) {
	sentences := allSentences(r)
	varSet := make(map[int32]bool)
	for _, s := range sentences {
		for _, v := range s.Variables() {
			varSet[v] = true
		}
	}
	vars := make([]int32, 0, len(varSet))
	for v := range varSet {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	for _, a := range vars {
		for _, b := range vars {
			if a == b {
				continue
			}
			if pairAlwaysAdjacent(sentences, a, b) {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}

func pairAlwaysAdjacent(sentences []Sentence, a, b int32) bool {
	foundAny := false
	for _, s := range sentences {
		toks := s.raw()
		for i, t := range toks {
			if t.Kind == VariableToken && t.ID == a {
				foundAny = true
				if i+1 >= len(toks) || toks[i+1].Kind != VariableToken || toks[i+1].ID != b {
					return false
				}
			}
			if t.Kind == VariableToken && t.ID == b {
				if i == 0 || toks[i-1].Kind != VariableToken || toks[i-1].ID != a {
					return false
				}
			}
		}
	}
	return foundAny
}

func allSentences(r Rule) []Sentence {
	out := make([]Sentence, 0, len(r.Premises)+1)
	out = append(out, r.Premises...)
	out = append(out, r.Conclusion)
	return out
}

// Normalize canonicalizes r by repeatedly collapsing redundant
// always-adjacent variable pairs into a single fresh variable, to a fixed
// point. It is the companion to invariant 3 of Validate: a normalized rule
// never contains such a pair.
func Normalize(ctx *Context, r Rule) Rule {
	for {
		a, b, found := findRedundantPair(r)
		if !found {
			return r
		}
		fresh := ctx.FreshVariable()
		r = collapsePair(r, a, b, fresh)
	}
}

func collapsePair(r Rule, a, b int32, fresh Token) Rule {
	replace := func(s Sentence) Sentence {
		toks := s.raw()
		out := make([]Token, 0, len(toks))
		for i := 0; i < len(toks); i++ {
			if toks[i].Kind == VariableToken && toks[i].ID == a &&
				i+1 < len(toks) && toks[i+1].Kind == VariableToken && toks[i+1].ID == b {
				out = append(out, fresh)
				i++
				continue
			}
			out = append(out, toks[i])
		}
		return NewSentence(out)
	}
	premises := make([]Sentence, len(r.Premises))
	for i, p := range r.Premises {
		premises[i] = replace(p)
	}
	return NewRule(premises, replace(r.Conclusion))
}

// Validate checks all four rule invariants of §3 and aggregates every
// violation found (rather than only the first) via go-multierror, so a
// caller authoring or proposing a rule sees the whole picture at once.
func (r Rule) Validate() error {
	var errs *multierror.Error

	concVars := make(map[int32]bool)
	for _, v := range r.Conclusion.Variables() {
		concVars[v] = true
	}
	premVars := make(map[int32]bool)
	for _, p := range r.Premises {
		for _, v := range p.Variables() {
			premVars[v] = true
		}
	}
	for v := range concVars {
		if !premVars[v] {
			errs = appendViolation(errs, ErrMalformedRule, fmt.Sprintf("var#%d", v),
				"conclusion variable does not appear in any premise")
		}
	}

	for i, p := range r.Premises {
		if p.Len() == 1 && p.At(0).Kind == VariableToken {
			n := 0
			for _, s := range allSentences(r) {
				n += s.CountOccurrences(p.At(0).ID)
			}
			if n == 1 {
				errs = appendViolation(errs, ErrMalformedRule, fmt.Sprintf("premise#%d", i),
					"premise is a single free variable")
			}
		}
	}

	if _, _, found := findRedundantPair(r); found {
		errs = appendViolation(errs, ErrMalformedRule, "",
			"rule contains a redundant always-adjacent variable pair; call Normalize first")
	}

	counts := make(map[int32]int)
	for _, s := range allSentences(r) {
		for _, t := range s.raw() {
			if t.Kind == VariableToken {
				counts[t.ID]++
			}
		}
	}
	free := 0
	for _, c := range counts {
		if c == 1 {
			free++
		}
	}
	if free > 1 {
		errs = appendViolation(errs, ErrMalformedRule, "",
			fmt.Sprintf("rule has %d free variables, at most one allowed", free))
	}

	return errs.ErrorOrNil()
}

// IsValid is the boolean form of Validate, matching the spec's `isvalid`
// naming (§3).
func (r Rule) IsValid() bool {
	return r.Validate() == nil
}

// String renders r using the rule string syntax of §6: premise lines, a
// "---" separator, and the conclusion line.
func (r Rule) String(ctx *Context) string {
	var b strings.Builder
	for _, p := range r.Premises {
		b.WriteString(SprintSentence(ctx, p))
		b.WriteByte('\n')
	}
	b.WriteString("---\n")
	b.WriteString(SprintSentence(ctx, r.Conclusion))
	return b.String()
}
