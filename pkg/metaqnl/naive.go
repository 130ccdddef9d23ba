package metaqnl

import (
	"math"

	"github.com/hashicorp/go-hclog"
)

// NaiveForwardProver is the reference, brute-force saturating forward
// chainer of §4.8, used to cross-check ReteNetwork: every pass tries every
// rule against the full set of currently-proved facts, with no
// discrimination-network bookkeeping at all.
type NaiveForwardProver struct {
	rules  []WeightedRule
	logger hclog.Logger
	cfg    EngineConfig
}

// NewNaiveForwardProver builds a naive prover over rules.
func NewNaiveForwardProver(rules []WeightedRule, logger hclog.Logger) *NaiveForwardProver {
	return &NaiveForwardProver{rules: rules, logger: namedLogger(logger, "naive"), cfg: DefaultEngineConfig()}
}

// SetEngineConfig overrides the EngineConfig used for this prover's
// weight-improvement comparisons (DefaultEngineConfig by default). It must
// be called before Run.
func (np *NaiveForwardProver) SetEngineConfig(cfg EngineConfig) {
	np.cfg = cfg
}

// Run saturates a proved-fact map seeded from assumptions (§4.8): each pass
// tries every rule, and for every substitution matching all of its premises
// simultaneously to proved facts, computes the concrete rule and records its
// conclusion if the new weight is a real improvement (np.cfg.WeightImproved)
// over any previously recorded weight for that exact sentence; it repeats
// until a pass makes no progress, invoking onFact for the assumptions and
// for every recorded improvement. onFact returning false aborts immediately.
func (np *NaiveForwardProver) Run(assumptions []Sentence, onFact func(fact Sentence, rule *Rule) bool) {
	proved := make(map[string]float64)
	bySentence := make(map[string]Sentence)
	var factOrder []string

	record := func(s Sentence, w float64) bool {
		key := sentenceIdentityKey(s)
		if old, ok := proved[key]; ok && !np.cfg.WeightImproved(old, w) {
			return false
		}
		if _, seen := bySentence[key]; !seen {
			factOrder = append(factOrder, key)
		}
		proved[key] = w
		bySentence[key] = s
		return true
	}

	for _, a := range assumptions {
		if !onFact(a, nil) {
			return
		}
		record(a, 1.0)
	}

	for {
		progressed := false
		for _, wr := range np.rules {
			for _, sigma := range matchAllPremises(wr.Rule.Premises, bySentence, factOrder) {
				concrete := sigma.ApplyRule(wr.Rule)
				joinWeight := minPremiseWeight(sigma, wr.Rule.Premises, proved)
				joinCap := joinWeight
				if joinCap > 1 {
					joinCap = 1
				}
				concWeight := joinCap - wr.Weight
				if concWeight <= 0 {
					continue
				}
				if record(concrete.Conclusion, concWeight) {
					progressed = true
					if !onFact(concrete.Conclusion, &concrete) {
						return
					}
				}
			}
		}
		if !progressed {
			break
		}
	}
	np.logger.Debug("naive run complete", "facts", len(proved))
}

// matchAllPremises enumerates every substitution that simultaneously
// matches every premise in order to some fact in facts, threading each
// premise's bindings into the next before it is matched (mirroring and()'s
// left-to-right threading in backward.go). order gives the insertion order
// of facts' keys so matches - and therefore the conclusions record() derives
// from them - are produced deterministically across runs.
func matchAllPremises(premises []Sentence, facts map[string]Sentence, order []string) []Substitution {
	if len(premises) == 0 {
		return []Substitution{NewSubstitution()}
	}
	return matchFrom(premises, 0, NewSubstitution(), facts, order)
}

func matchFrom(premises []Sentence, i int, acc Substitution, facts map[string]Sentence, order []string) []Substitution {
	if i == len(premises) {
		return []Substitution{acc}
	}
	pattern := acc.Apply(premises[i])
	var out []Substitution
	for _, key := range order {
		fact := facts[key]
		for _, sigma := range Match(pattern, fact) {
			combined, err := Compose(acc, sigma)
			if err != nil {
				continue
			}
			out = append(out, matchFrom(premises, i+1, combined, facts, order)...)
		}
	}
	return out
}

// minPremiseWeight computes the minimum proved weight among the concrete
// facts that satisfy rule's premises under sigma.
func minPremiseWeight(sigma Substitution, premises []Sentence, proved map[string]float64) float64 {
	w := math.Inf(1)
	for _, p := range premises {
		concrete := sigma.Apply(p)
		if pw, ok := proved[sentenceIdentityKey(concrete)]; ok && pw < w {
			w = pw
		}
	}
	return w
}
