package metaqnl

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// EngineConfig bundles the tunable values of §2.3 that would otherwise be
// hardcoded constants scattered across the reasoning core: the weight
// tolerance used when two floating-point rule weights are compared for
// "no real improvement", the default depth limit handed to Unify, the
// default weight budget handed to BackwardProver.Prove, a Rete tracing
// switch, and a Vocabulary checkpoint location. ReteTrace and
// CheckpointPath are decoded and carried, but nothing in this module reads
// them.
type EngineConfig struct {
	WeightEpsilon       float64 `toml:"weight_epsilon"`
	UnifyDepthLimit     int     `toml:"unify_depth_limit"`
	DefaultWeightBudget float64 `toml:"default_weight_budget"`
	ReteTrace           bool    `toml:"rete_trace"`
	CheckpointPath      string  `toml:"checkpoint_path"`
}

// DefaultEngineConfig returns the values this core used before a config file
// existed: a forgiving but non-zero epsilon, a depth limit of 100, a
// generous budget, tracing off, and no
// checkpoint path (meaning: don't load or persist one).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WeightEpsilon:       1e-9,
		UnifyDepthLimit:     100,
		DefaultWeightBudget: 1.0,
		ReteTrace:           false,
		CheckpointPath:      "",
	}
}

// LoadEngineConfig reads and decodes path as TOML into an EngineConfig,
// starting from DefaultEngineConfig so a partial file only overrides the
// fields it sets, the way dekarrin/tunaq decodes its resource files with
// BurntSushi/toml and then validates the result.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range field at once via go-multierror,
// mirroring §2.2's aggregation of independent violations detected in a
// single call.
func (c EngineConfig) Validate() error {
	var result *multierror.Error
	if c.WeightEpsilon < 0 {
		result = appendViolation(result, ErrInvalidConfig, "weight_epsilon", "must be non-negative")
	}
	if c.UnifyDepthLimit < 0 {
		result = appendViolation(result, ErrInvalidConfig, "unify_depth_limit", "must be non-negative")
	}
	if c.DefaultWeightBudget < 0 {
		result = appendViolation(result, ErrInvalidConfig, "default_weight_budget", "must be non-negative")
	}
	return result.ErrorOrNil()
}

// WeightImproved reports whether candidate is a real improvement over
// recorded under this config's tolerance - candidate must exceed recorded by
// more than WeightEpsilon, not merely differ from it by float rounding
// noise. ReteNetwork and NaiveForwardProver each track "best weight seen so
// far" maps keyed by instantiation/sentence, and call this instead of a bare
// >= on raw float64s (SetEngineConfig on either overrides the
// DefaultEngineConfig tolerance they start with).
func (c EngineConfig) WeightImproved(recorded, candidate float64) bool {
	return candidate > recorded+c.WeightEpsilon
}
