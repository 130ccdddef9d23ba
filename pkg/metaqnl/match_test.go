package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMatch_MultiplicityAcrossDBBoundary is worked scenario 1 of §8: matching
// a two-variable right-hand segment against a four-token concrete segment
// has exactly three splits of the remainder between [D] and [B], and the
// left segment, anchored by its single "kiki", contributes exactly one
// binding for [A] and [C], so
// the whole match has exactly 3 results.
func TestMatch_MultiplicityAcrossDBBoundary(t *testing.T) {
	ctx := NewContext(nil)
	pattern := mustParseSentence(t, ctx, "[A] kiki [C] $MAPS_TO$ [D] [B]")
	concrete := mustParseSentence(t, ctx, "wif kiki dax blicket lug $MAPS_TO$ RED BLUE RED GREEN")

	results := Match(pattern, concrete)
	require.Len(t, results, 3)

	a := ctx.Variables.MustIntern("A")
	c := ctx.Variables.MustIntern("C")
	d := ctx.Variables.MustIntern("D")
	b := ctx.Variables.MustIntern("B")

	wantDB := []struct{ d, b string }{
		{"RED", "BLUE RED GREEN"},
		{"RED BLUE", "RED GREEN"},
		{"RED BLUE RED", "GREEN"},
	}
	gotDB := make(map[string]bool)
	for _, sigma := range results {
		av, ok := sigma.Get(a)
		require.True(t, ok)
		assert.True(t, av.Identical(mustParseSentence(t, ctx, "wif")))

		cv, ok := sigma.Get(c)
		require.True(t, ok)
		assert.True(t, cv.Identical(mustParseSentence(t, ctx, "dax blicket lug")))

		dv, ok := sigma.Get(d)
		require.True(t, ok)
		bv, ok := sigma.Get(b)
		require.True(t, ok)
		gotDB[SprintSentence(ctx, dv)+"|"+SprintSentence(ctx, bv)] = true
	}
	for _, want := range wantDB {
		wantD := mustParseSentence(t, ctx, want.d)
		wantB := mustParseSentence(t, ctx, want.b)
		assert.True(t, gotDB[SprintSentence(ctx, wantD)+"|"+SprintSentence(ctx, wantB)],
			"missing split [D]=%q [B]=%q", want.d, want.b)
	}
}

func TestMatch_LiteralWordsMustAgreeExactly(t *testing.T) {
	ctx := NewContext(nil)
	pattern := mustParseSentence(t, ctx, "harry is [B]")
	concrete := mustParseSentence(t, ctx, "harry was rough")

	assert.Empty(t, Match(pattern, concrete))
}

func TestMatch_RepeatedVariableForcesIdenticalSpans(t *testing.T) {
	ctx := NewContext(nil)
	pattern := mustParseSentence(t, ctx, "[A] is [A]")

	ok := mustParseSentence(t, ctx, "rough is rough")
	results := Match(pattern, ok)
	require.Len(t, results, 1)
	v, found := results[0].Get(ctx.Variables.MustIntern("A"))
	require.True(t, found)
	assert.True(t, v.Identical(mustParseSentence(t, ctx, "rough")))

	mismatched := mustParseSentence(t, ctx, "rough is nice")
	assert.Empty(t, Match(pattern, mismatched))
}

func TestMatch_MisalignedSpecialTemplateYieldsNoResults(t *testing.T) {
	ctx := NewContext(nil)
	pattern := mustParseSentence(t, ctx, "[A] $MAPS_TO$ [B]")
	concrete := mustParseSentence(t, ctx, "harry is rough")

	assert.Empty(t, Match(pattern, concrete))
}

// TestMatch_Soundness is the §8 universal property: every substitution Match
// returns must, when applied to pattern, reproduce concrete exactly.
func TestMatch_Soundness(t *testing.T) {
	ctx := NewContext(nil)
	cases := []struct {
		pattern, concrete string
	}{
		{"[A] kiki [C] $MAPS_TO$ [D] [B]", "wif kiki dax blicket lug $MAPS_TO$ RED BLUE RED GREEN"},
		{"[A] is [B]", "harry is rough"},
		{"[A] fep $MAPS_TO$ [B] [B] [B]", "dax fep $MAPS_TO$ RED RED RED"},
	}
	for _, c := range cases {
		pattern := mustParseSentence(t, ctx, c.pattern)
		concrete := mustParseSentence(t, ctx, c.concrete)
		results := Match(pattern, concrete)
		require.NotEmpty(t, results)
		for _, sigma := range results {
			assert.True(t, sigma.Apply(pattern).Identical(concrete))
		}
	}
}

func TestIsMoreGeneralSentence(t *testing.T) {
	ctx := NewContext(nil)
	general := mustParseSentence(t, ctx, "[A] is rough")
	specific := mustParseSentence(t, ctx, "harry is rough")
	other := mustParseSentence(t, ctx, "harry is nice")

	assert.True(t, IsMoreGeneralSentence(general, specific))
	assert.False(t, IsMoreGeneralSentence(specific, general))
	assert.False(t, IsMoreGeneralSentence(general, other))
}
