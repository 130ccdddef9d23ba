package metaqnl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEngineConfig_OverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
unify_depth_limit = 42
rete_trace = true
`), 0o644))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.UnifyDepthLimit)
	assert.True(t, cfg.ReteTrace)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultEngineConfig().WeightEpsilon, cfg.WeightEpsilon)
	assert.Equal(t, DefaultEngineConfig().DefaultWeightBudget, cfg.DefaultWeightBudget)
}

func TestLoadEngineConfig_MissingFileIsError(t *testing.T) {
	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEngineConfig_ValidateAggregatesAllViolations(t *testing.T) {
	cfg := EngineConfig{WeightEpsilon: -1, UnifyDepthLimit: -1, DefaultWeightBudget: -1}
	err := cfg.Validate()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok, "expected a multierror.Error")
	assert.Len(t, merr.WrappedErrors(), 3)
}

func TestEngineConfig_ValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, DefaultEngineConfig().Validate())
}

func TestEngineConfig_WeightImproved(t *testing.T) {
	cfg := EngineConfig{WeightEpsilon: 0.01}
	assert.False(t, cfg.WeightImproved(0.5, 0.505))
	assert.True(t, cfg.WeightImproved(0.5, 0.52))
	assert.False(t, cfg.WeightImproved(0.5, 0.5))
}
