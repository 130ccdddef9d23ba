package metaqnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAntiUnifyRule_MiniScanFep is worked scenario 3 of §8: anti-unifying
// the two dax/lug MiniSCAN mapping rules yields exactly one generalization,
// equivalent to "[A] $MAPS_TO$ [B]  |-  [A] fep $MAPS_TO$ [B] [B] [B]".
func TestAntiUnifyRule_MiniScanFep(t *testing.T) {
	ctx := NewContext(nil)
	r1 := mustParseRule(t, ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	r2 := mustParseRule(t, ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")
	want := mustParseRule(t, ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")

	results := AntiUnifyRule(ctx, r1, r2, nil)
	require.Len(t, results, 1)
	assert.True(t, results[0].General.Equivalent(want))
}

// TestAntiUnifyRule_Roundtrip is the §8 anti-unify-roundtrip property: the
// bi-substitution recovered from generalizing two rules, applied back to the
// General rule's premises/conclusion on each side, reproduces the original
// input exactly.
func TestAntiUnifyRule_Roundtrip(t *testing.T) {
	ctx := NewContext(nil)
	r1 := mustParseRule(t, ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	r2 := mustParseRule(t, ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")

	for _, au := range AntiUnifyRule(ctx, r1, r2, nil) {
		leftConc := au.Bi.LeftInstance(au.General.Conclusion)
		rightConc := au.Bi.RightInstance(au.General.Conclusion)
		assert.True(t, leftConc.Identical(r1.Conclusion))
		assert.True(t, rightConc.Identical(r2.Conclusion))

		require.Len(t, au.General.Premises, len(r1.Premises))
		for i, p := range au.General.Premises {
			assert.True(t, au.Bi.LeftInstance(p).Identical(r1.Premises[i]))
			assert.True(t, au.Bi.RightInstance(p).Identical(r2.Premises[i]))
		}
	}
}

func TestAntiUnify_RoundtripOnSentences(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "dax $MAPS_TO$ RED")
	s2 := mustParseSentence(t, ctx, "lug $MAPS_TO$ BLUE")

	results := AntiUnify(ctx, s1, s2)
	require.Len(t, results, 1)
	au := results[0]
	assert.True(t, au.Bi.LeftInstance(au.General).Identical(s1))
	assert.True(t, au.Bi.RightInstance(au.General).Identical(s2))
}

func TestAntiUnify_IdenticalSentencesGeneralizeToThemselves(t *testing.T) {
	ctx := NewContext(nil)
	s := mustParseSentence(t, ctx, "harry is rough")

	results := AntiUnify(ctx, s, s)
	require.Len(t, results, 1)
	assert.True(t, results[0].General.Identical(s))
	assert.Empty(t, results[0].Bi.Variables())
}

func TestAntiUnify_MismatchedTemplateYieldsNoResults(t *testing.T) {
	ctx := NewContext(nil)
	s1 := mustParseSentence(t, ctx, "dax $MAPS_TO$ RED")
	s2 := mustParseSentence(t, ctx, "harry is rough")

	assert.Empty(t, AntiUnify(ctx, s1, s2))
}

// TestAntiUnifyRule_GeneralizesBothInputs is the §8 soundness
// property at the rule level: the returned generalization must be at least
// as general as both of its two inputs.
func TestAntiUnifyRule_GeneralizesBothInputs(t *testing.T) {
	ctx := NewContext(nil)
	r1 := mustParseRule(t, ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	r2 := mustParseRule(t, ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")

	for _, au := range AntiUnifyRule(ctx, r1, r2, nil) {
		assert.True(t, IsMoreGeneralRule(ctx, au.General, r1))
		assert.True(t, IsMoreGeneralRule(ctx, au.General, r2))
	}
}

