package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseRule(t *testing.T, ctx *Context, text string) Rule {
	t.Helper()
	r, err := ParseRule(ctx, text)
	require.NoError(t, err)
	return r
}

func TestIndexedRuleSet_InsertDedupesEquivalentRules(t *testing.T) {
	ctx := NewContext(nil)
	rs, err := NewIndexedRuleSet(ctx, nil)
	require.NoError(t, err)

	r1 := mustParseRule(t, ctx, "dax\n---\nred")
	r2 := mustParseRule(t, ctx, "dax\n---\nred")

	require.NoError(t, rs.Insert(r1, nil))
	require.NoError(t, rs.Insert(r2, nil))

	assert.Equal(t, 1, rs.Len())
}

func TestIndexedRuleSet_GeneralityEdges(t *testing.T) {
	ctx := NewContext(nil)
	rs, err := NewIndexedRuleSet(ctx, nil)
	require.NoError(t, err)

	general := mustParseRule(t, ctx, "[X]\n---\n[X] maps_to [X]")
	specific := mustParseRule(t, ctx, "dax\n---\ndax maps_to dax")

	require.NoError(t, rs.Insert(general, nil))
	require.NoError(t, rs.Insert(specific, nil))

	require.Equal(t, 2, rs.Len())

	rules := rs.Rules()
	var generalID, specificID int
	for i, r := range rules {
		if r.Identical(general) {
			generalID = i
		}
		if r.Identical(specific) {
			specificID = i
		}
	}

	assert.True(t, rs.IsAncestor(generalID, specificID))
	assert.True(t, rs.IsDescendant(generalID, specificID))
	assert.False(t, rs.IsAncestor(specificID, generalID))
}

func TestIndexedRuleSet_AntiUnificationPropagatesNewRule(t *testing.T) {
	ctx := NewContext(nil)
	rs, err := NewIndexedRuleSet(ctx, nil)
	require.NoError(t, err)

	r1 := mustParseRule(t, ctx, "dax maps_to RED\n---\nblicket dax maps_to RED")
	r2 := mustParseRule(t, ctx, "lug maps_to BLUE\n---\nblicket lug maps_to BLUE")

	require.NoError(t, rs.Insert(r1, nil))
	require.NoError(t, rs.Insert(r2, nil))

	// The two concrete rules share a RuleTemplate (same special-symbol
	// shape), so inserting the second must anti-unify it against the
	// first and add at least one generalization to the set.
	assert.GreaterOrEqual(t, rs.Len(), 3)
}

func TestIndexedRuleSet_RejectsInvalidRule(t *testing.T) {
	ctx := NewContext(nil)
	rs, err := NewIndexedRuleSet(ctx, nil)
	require.NoError(t, err)

	// Conclusion mentions a variable absent from every premise: invariant
	// violation (§3, invariant 1).
	bad := mustParseRule(t, ctx, "dax\n---\n[X]")

	err = rs.Insert(bad, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, rs.Len())
}

func TestRuleTemplateOf_IgnoresPremiseOrderAndVariableNames(t *testing.T) {
	ctx := NewContext(nil)
	r1 := mustParseRule(t, ctx, "[X] dax\nlug [Y]\n---\n[X] [Y]")
	r2 := mustParseRule(t, ctx, "lug [B]\n[A] dax\n---\n[A] [B]")

	assert.Equal(t, ruleTemplateOf(r1).key, ruleTemplateOf(r2).key)
}
