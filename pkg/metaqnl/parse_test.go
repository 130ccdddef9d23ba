package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceRoundTrip_ParsePrintParse(t *testing.T) {
	cases := []string{
		"harry is rough",
		"[A] is [B]",
		"zup $MAPS_TO$ YELLOW",
		"",
	}
	for _, text := range cases {
		ctx := NewContext(nil)
		s, err := ParseSentence(ctx, text)
		require.NoError(t, err)

		printed := SprintSentence(ctx, s)
		reparsed, err := ParseSentence(ctx, printed)
		require.NoError(t, err)
		assert.True(t, s.Identical(reparsed))
	}
}

func TestRuleRoundTrip_ParsePrintParse(t *testing.T) {
	cases := []string{
		"[A] is [B]\n---\n[A] be [B]",
		"---\nrough people be nice",
		"[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]",
	}
	for _, text := range cases {
		ctx := NewContext(nil)
		r, err := ParseRule(ctx, text)
		require.NoError(t, err)

		printed := r.String(ctx)
		reparsed, err := ParseRule(ctx, printed)
		require.NoError(t, err)
		assert.True(t, r.Identical(reparsed))
	}
}

func TestParseSentence_RejectsMalformedVariable(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ParseSentence(ctx, "[lower]")
	require.Error(t, err)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrInvalidVariableName, domainErr.Kind)
}

func TestParseRule_RejectsMissingSeparator(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ParseRule(ctx, "just a sentence")
	require.Error(t, err)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrMalformedRule, domainErr.Kind)
}

func TestParseRule_RejectsMultipleConclusions(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ParseRule(ctx, "---\nfirst\nsecond")
	require.Error(t, err)
}
