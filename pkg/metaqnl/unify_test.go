package metaqnl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnify_InfiniteFamilyBoundedByDepth is worked scenario 2 of §8:
// unifying "hello [X]" with "[X] hello" at depth_limit 10 produces exactly
// 10 substitutions, binding [X] to one "hello" through ten repetitions of
// "hello" - each extra repeat costing one more case-split step.
func TestUnify_InfiniteFamilyBoundedByDepth(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "hello [X]")
	s2 := mustParseSentence(t, ctx, "[X] hello")

	results := Unify(s1, s2, 10)
	require.Len(t, results, 10)

	x := ctx.Variables.MustIntern("X")
	seen := make(map[string]bool)
	for n := 1; n <= 10; n++ {
		want := mustParseSentence(t, ctx, strings.TrimSpace(strings.Repeat("hello ", n)))
		seen[SprintSentence(ctx, want)] = false
	}
	for _, sigma := range results {
		val, ok := sigma.Get(x)
		require.True(t, ok)
		key := SprintSentence(ctx, val)
		if _, expected := seen[key]; expected {
			seen[key] = true
		}
		// Every unifier must actually equate both sides (soundness, §8).
		assert.True(t, sigma.Apply(s1).Identical(sigma.Apply(s2)))
	}
	for want, found := range seen {
		assert.True(t, found, "missing [X] = %q among the 10 unifiers", want)
	}
}

// TestUnify_DepthLimitIsMonotone checks that raising depthLimit never loses
// a unifier already found at a smaller limit - each extra step can only
// admit longer derivations (§4.2), never invalidate shorter ones.
func TestUnify_DepthLimitIsMonotone(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "hello [X]")
	s2 := mustParseSentence(t, ctx, "[X] hello")

	prev := len(Unify(s1, s2, 1))
	for depth := 2; depth <= 10; depth++ {
		cur := len(Unify(s1, s2, depth))
		assert.GreaterOrEqual(t, cur, prev, "depth %d found fewer unifiers than depth %d", depth, depth-1)
		prev = cur
	}
}

func TestUnify_BothConcreteIdenticalYieldsEmptySubstitution(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "harry is rough")
	s2 := mustParseSentence(t, ctx, "harry is rough")

	results := Unify(s1, s2, 10)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Len())
}

func TestUnify_BothConcreteDistinctYieldsNoResults(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "harry is rough")
	s2 := mustParseSentence(t, ctx, "harry is nice")

	assert.Empty(t, Unify(s1, s2, 10))
}

func TestUnify_OneSideConcreteReducesToMatch(t *testing.T) {
	ctx := NewContext(nil)
	pattern := mustParseSentence(t, ctx, "[A] is [B]")
	concrete := mustParseSentence(t, ctx, "harry is rough")

	unified := Unify(pattern, concrete, 10)
	matched := Match(pattern, concrete)
	require.Len(t, unified, len(matched))
	for _, sigma := range unified {
		assert.True(t, sigma.Apply(pattern).Identical(concrete))
	}
}

// TestUnify_Soundness is the §8 universal property: every returned
// substitution must literally equate both sides once applied.
func TestUnify_Soundness(t *testing.T) {
	ctx := NewContext(nil)
	cases := []struct{ s1, s2 string }{
		{"hello [X]", "[X] hello"},
		{"[A] $MAPS_TO$ [B]", "dax $MAPS_TO$ RED"},
		{"[A] is [B]", "[C] is rough"},
	}
	for _, c := range cases {
		s1 := mustParseSentence(t, ctx, c.s1)
		s2 := mustParseSentence(t, ctx, c.s2)
		for _, sigma := range Unify(s1, s2, 6) {
			assert.True(t, sigma.Apply(s1).Identical(sigma.Apply(s2)))
		}
	}
}
