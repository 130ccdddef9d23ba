package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroPremiseProposer_ProposesExampleAsZeroPremiseRule(t *testing.T) {
	ctx := NewContext(nil)
	s := mustParseSentence(t, ctx, "harry is rough")
	dataset := Dataset{s}

	p := NewZeroPremiseProposer()
	rules, err := p.Propose(dataset, 0)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Len(t, rules[0].Premises, 0)
	assert.True(t, rules[0].Conclusion.Identical(s))
}

func TestZeroPremiseProposer_OutOfRangeIndexIsFatal(t *testing.T) {
	ctx := NewContext(nil)
	dataset := Dataset{mustParseSentence(t, ctx, "harry is rough")}

	p := NewZeroPremiseProposer()
	_, err := p.Propose(dataset, 5)
	require.Error(t, err)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrMalformedRule, domainErr.Kind)
}

func TestZeroPremiseProposer_IsValidDelegatesToRule(t *testing.T) {
	ctx := NewContext(nil)
	valid := mustParseRuleRete(t, ctx, "[A] is [B]\n---\n[A] be [B]")

	p := NewZeroPremiseProposer()
	assert.Equal(t, valid.IsValid(), p.IsValid(valid))
}

func TestRuleProposer_InterfaceSatisfiedByZeroPremiseProposer(t *testing.T) {
	var _ RuleProposer = NewZeroPremiseProposer()
}
