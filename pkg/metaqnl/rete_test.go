package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseRuleRete(t *testing.T, ctx *Context, text string) Rule {
	t.Helper()
	r, err := ParseRule(ctx, text)
	require.NoError(t, err)
	return r
}

// collectConclusions runs prover and returns the set of distinct concrete
// sentences (including assumptions) it invokes onFact with, by identity key.
func collectConclusions(t *testing.T, run func(onFact func(Sentence, *Rule) bool)) map[string]Sentence {
	t.Helper()
	out := make(map[string]Sentence)
	run(func(s Sentence, _ *Rule) bool {
		out[sentenceIdentityKey(s)] = s
		return true
	})
	return out
}

func containsSentence(set map[string]Sentence, s Sentence) bool {
	_, ok := set[sentenceIdentityKey(s)]
	return ok
}

func TestReteNetwork_ForwardCorrectness_HarryIsRoughBeNice(t *testing.T) {
	ctx := NewContext(nil)
	rule1 := mustParseRuleRete(t, ctx, "[A] is [B]\n---\n[A] be [B]")
	rule2 := mustParseRuleRete(t, ctx, "---\nrough people be nice")
	rule3 := mustParseRuleRete(t, ctx, "[A] be rough\nrough people be nice\n---\n[A] be nice")

	rules := []WeightedRule{
		{Rule: rule1, Weight: 0.1},
		{Rule: rule2, Weight: 0.1},
		{Rule: rule3, Weight: 0.1},
	}
	net := NewReteNetwork(ctx, rules, nil)

	assumptions := []Sentence{mustParseSentence(t, ctx, "harry is rough")}
	got := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		net.Run(assumptions, onFact)
	})

	assert.True(t, containsSentence(got, mustParseSentence(t, ctx, "harry be nice")))
}

func TestReteNetwork_SeedsEmptyPremiseRules(t *testing.T) {
	ctx := NewContext(nil)
	fact := mustParseRuleRete(t, ctx, "---\nzup $MAPS_TO$ YELLOW")
	net := NewReteNetwork(ctx, []WeightedRule{{Rule: fact, Weight: 0}}, nil)

	got := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		net.Run(nil, onFact)
	})
	assert.True(t, containsSentence(got, mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")))
}

func TestReteNetwork_CancellationStopsRunImmediately(t *testing.T) {
	ctx := NewContext(nil)
	rule1 := mustParseRuleRete(t, ctx, "[A] is [B]\n---\n[A] be [B]")
	net := NewReteNetwork(ctx, []WeightedRule{{Rule: rule1, Weight: 0.1}}, nil)

	assumptions := []Sentence{mustParseSentence(t, ctx, "harry is rough")}
	calls := 0
	net.Run(assumptions, func(s Sentence, r *Rule) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestReteNaiveAgreement_FepChain(t *testing.T) {
	ctx := NewContext(nil)
	fepRule := mustParseRuleRete(t, ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")
	mapping := mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")

	rules := []WeightedRule{{Rule: fepRule, Weight: 0.1}}

	reteResults := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		NewReteNetwork(ctx, rules, nil).Run([]Sentence{mapping}, onFact)
	})
	naiveResults := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		NewNaiveForwardProver(rules, nil).Run([]Sentence{mapping}, onFact)
	})

	assert.Equal(t, len(naiveResults), len(reteResults))
	for key, s := range naiveResults {
		other, ok := reteResults[key]
		assert.True(t, ok, "rete missing conclusion %q", SprintSentence(ctx, s))
		if ok {
			assert.True(t, s.Identical(other))
		}
	}
	expected := mustParseSentence(t, ctx, "zup fep $MAPS_TO$ YELLOW YELLOW YELLOW")
	assert.True(t, containsSentence(reteResults, expected))
	assert.True(t, containsSentence(naiveResults, expected))
}

func TestReteNaiveAgreement_HarryIsRoughBeNice(t *testing.T) {
	ctx := NewContext(nil)
	rule1 := mustParseRuleRete(t, ctx, "[A] is [B]\n---\n[A] be [B]")
	rule2 := mustParseRuleRete(t, ctx, "---\nrough people be nice")
	rule3 := mustParseRuleRete(t, ctx, "[A] be rough\nrough people be nice\n---\n[A] be nice")
	rules := []WeightedRule{
		{Rule: rule1, Weight: 0.1},
		{Rule: rule2, Weight: 0.1},
		{Rule: rule3, Weight: 0.1},
	}
	assumptions := []Sentence{mustParseSentence(t, ctx, "harry is rough")}

	reteResults := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		NewReteNetwork(ctx, rules, nil).Run(assumptions, onFact)
	})
	naiveResults := collectConclusions(t, func(onFact func(Sentence, *Rule) bool) {
		NewNaiveForwardProver(rules, nil).Run(assumptions, onFact)
	})

	assert.Equal(t, len(naiveResults), len(reteResults))
	for key := range naiveResults {
		_, ok := reteResults[key]
		assert.True(t, ok)
	}
}
