package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princeton-vl/MetaQNL/pkg/metaqnl"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRules_ParsesWeightedBlocks(t *testing.T) {
	ctx := metaqnl.NewContext(nil)
	path := writeTemp(t, "rules.txt", "0.1\n[A] is [B]\n---\n[A] be [B]\n\n0.1\n---\nrough people be nice\n")

	rules, err := loadRules(ctx, path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 0.1, rules[0].Weight)
	assert.Len(t, rules[0].Rule.Premises, 1)
	assert.Len(t, rules[1].Rule.Premises, 0)
}

func TestLoadRules_EmptyPathLoadsNothing(t *testing.T) {
	ctx := metaqnl.NewContext(nil)
	rules, err := loadRules(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, rules)
}

func TestLoadRules_RejectsMalformedWeight(t *testing.T) {
	ctx := metaqnl.NewContext(nil)
	path := writeTemp(t, "rules.txt", "not-a-number\n---\nrough people be nice\n")
	_, err := loadRules(ctx, path)
	assert.Error(t, err)
}

func TestLoadAssumptions_SkipsBlankLines(t *testing.T) {
	ctx := metaqnl.NewContext(nil)
	path := writeTemp(t, "assumptions.txt", "harry is rough\n\nzup $MAPS_TO$ YELLOW\n")

	assumptions, err := loadAssumptions(ctx, path)
	require.NoError(t, err)
	require.Len(t, assumptions, 2)
}

func TestProveAndPrint_FindsDirectMatch(t *testing.T) {
	ctx := metaqnl.NewContext(nil)
	assumption, err := metaqnl.ParseSentence(ctx, "harry is rough")
	require.NoError(t, err)
	prover, err := metaqnl.NewBackwardProver(ctx, []metaqnl.Sentence{assumption}, nil, 50, nil)
	require.NoError(t, err)

	err = proveAndPrint(ctx, prover, "harry is rough", 1.0, false)
	assert.NoError(t, err)
}
