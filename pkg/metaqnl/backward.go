package metaqnl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// WeightedRule pairs a rule with its weight in [0,1] (§4.6): the cost
// subtracted from the remaining budget each time the backward prover
// expands it.
type WeightedRule struct {
	Rule   Rule
	Weight float64
}

// ProofPath is a set of concrete rule applications that, together with the
// assumptions, derive a target sentence (GLOSSARY, §4.6). Membership is by
// Rule.Identical; iteration preserves insertion order, matching the
// determinism requirement of §5.
type ProofPath struct {
	rules []Rule
}

// NewProofPath returns the empty proof path - "derived directly from the
// assumptions, no rule needed" (§4.6's `{∅}`).
func NewProofPath() ProofPath { return ProofPath{} }

// Add returns a copy of p with rule added, unless an identical rule is
// already present.
func (p ProofPath) Add(rule Rule) ProofPath {
	for _, r := range p.rules {
		if r.Identical(rule) {
			return p
		}
	}
	cp := make([]Rule, len(p.rules), len(p.rules)+1)
	copy(cp, p.rules)
	return ProofPath{rules: append(cp, rule)}
}

// Union returns a copy of p with every rule of other added.
func (p ProofPath) Union(other ProofPath) ProofPath {
	out := p
	for _, r := range other.rules {
		out = out.Add(r)
	}
	return out
}

// Rules returns the concrete rules of this proof path, in insertion order.
func (p ProofPath) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Equal reports whether p and other contain exactly the same rules,
// order-insensitively (a proof path is a set).
func (p ProofPath) Equal(other ProofPath) bool {
	if len(p.rules) != len(other.rules) {
		return false
	}
	for _, r := range p.rules {
		found := false
		for _, o := range other.rules {
			if r.Identical(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GoalResult is one entry of the backward prover's output: for an answer
// substitution restricted to the goal's own variables, the minimum
// rule-expansion depth at which it was derived and every distinct proof
// path that derives it (§4.6).
type GoalResult struct {
	Substitution Substitution
	Depth        int
	ProofPaths   []ProofPath
}

// substitutionKey renders sigma into a canonical string key independent of
// binding insertion order, so semantically equal substitutions collapse to
// the same backward-prover result entry regardless of which derivation
// order produced them.
func substitutionKey(sigma Substitution) string {
	vars := append([]int32(nil), sigma.Variables()...)
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	var b strings.Builder
	for _, v := range vars {
		val, _ := sigma.Get(v)
		b.WriteString(strconv.FormatInt(int64(v), 10))
		b.WriteByte('=')
		b.WriteString(sentenceIdentityKey(val))
		b.WriteByte('|')
	}
	return b.String()
}

// goalResultAccumulator builds the ordered map (substitution -> (depth,
// proof paths)) of §4.6: results are kept in first-seen order (§5's
// determinism requirement), with later contributions to an already-seen
// substitution lowering its depth and adding any not-yet-seen proof path.
type goalResultAccumulator struct {
	order []string
	byKey map[string]*GoalResult
}

func newGoalResultAccumulator() *goalResultAccumulator {
	return &goalResultAccumulator{byKey: make(map[string]*GoalResult)}
}

func (acc *goalResultAccumulator) add(sigma Substitution, depth int, path ProofPath) {
	key := substitutionKey(sigma)
	if existing, ok := acc.byKey[key]; ok {
		if depth < existing.Depth {
			existing.Depth = depth
		}
		for _, p := range existing.ProofPaths {
			if p.Equal(path) {
				return
			}
		}
		existing.ProofPaths = append(existing.ProofPaths, path)
		return
	}
	acc.byKey[key] = &GoalResult{Substitution: sigma, Depth: depth, ProofPaths: []ProofPath{path}}
	acc.order = append(acc.order, key)
}

func (acc *goalResultAccumulator) results() []GoalResult {
	out := make([]GoalResult, len(acc.order))
	for i, key := range acc.order {
		out[i] = *acc.byKey[key]
	}
	return out
}

// BackwardProver implements the weight-budgeted, goal-directed OR/AND
// prover of §4.6 (a Russell-Norvig-style backward chainer over weighted
// rules).
type BackwardProver struct {
	ctx             *Context
	assumptions     []Sentence
	rules           []WeightedRule
	unifyDepthLimit int
	logger          hclog.Logger
}

// NewBackwardProver validates every rule's weight lies in [0,1] (§4.6) and
// builds a prover over assumptions and rules. unifyDepthLimit bounds every
// internal call to Unify (§4.2).
func NewBackwardProver(ctx *Context, assumptions []Sentence, rules []WeightedRule, unifyDepthLimit int, logger hclog.Logger) (*BackwardProver, error) {
	var errs *multierror.Error
	for i, wr := range rules {
		if wr.Weight < 0 || wr.Weight > 1 {
			errs = appendViolation(errs, ErrMalformedRule, fmt.Sprintf("rule#%d", i),
				fmt.Sprintf("weight %v is outside [0,1]", wr.Weight))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &BackwardProver{
		ctx:             ctx,
		assumptions:     assumptions,
		rules:           rules,
		unifyDepthLimit: unifyDepthLimit,
		logger:          namedLogger(logger, "backward"),
	}, nil
}

// Prove proves goal under weightLimit, returning one GoalResult per
// distinct answer substitution (restricted to goal's own variables), in
// first-derived order (§4.6, §5). When onTheFlyProposal is set, a concrete
// goal may additionally be proved by proposing it as its own zero-premise
// rule.
func (bp *BackwardProver) Prove(goal Sentence, weightLimit float64, onTheFlyProposal bool) []GoalResult {
	session := &proverSession{
		ctx:             bp.ctx,
		assumptions:     bp.assumptions,
		rules:           bp.rules,
		onTheFly:        onTheFlyProposal,
		unifyDepthLimit: bp.unifyDepthLimit,
		logger:          bp.logger,
	}
	results := session.or(goal, weightLimit)
	bp.logger.Debug("proved goal", "answers", len(results))
	return results
}

// proverSession carries the per-Prove-call settings (notably
// onTheFlyProposal, which §4.6 does not say is reconsidered per recursive
// sub-goal, so it is held fixed for the whole session) through the mutually
// recursive or/and/tryRuleExpansion calls.
type proverSession struct {
	ctx             *Context
	assumptions     []Sentence
	rules           []WeightedRule
	onTheFly        bool
	unifyDepthLimit int
	logger          hclog.Logger
}

// or satisfies goal under weightLimit by, in order: (a) optionally
// proposing goal itself as a zero-premise rule when concrete, (b) matching
// goal against every assumption - any match short-circuits rule expansion
// entirely, contributing the empty proof path at depth 0 - and otherwise
// (c) trying every weighted rule whose weight still fits the budget
// (§4.6).
func (ps *proverSession) or(goal Sentence, weightLimit float64) []GoalResult {
	acc := newGoalResultAccumulator()
	goalVars := goal.Variables()

	if ps.onTheFly && goal.IsConcrete() {
		proposal := WeightedRule{Rule: NewRule(nil, goal), Weight: 0}
		ps.tryRuleExpansion(proposal, goal, goalVars, weightLimit, acc)
	}

	matched := false
	for _, a := range ps.assumptions {
		for _, sigma := range Match(goal, a) {
			matched = true
			acc.add(sigma.Restrict(goalVars), 0, NewProofPath())
		}
	}
	if matched {
		return acc.results()
	}

	for _, wr := range ps.rules {
		if wr.Weight > weightLimit {
			continue
		}
		ps.tryRuleExpansion(wr, goal, goalVars, weightLimit, acc)
	}
	return acc.results()
}

// tryRuleExpansion renames goal's variables disjoint from wr.Rule, unifies
// the rule's conclusion with the renamed goal, and for every unifier,
// AND-proves the rule's premises (with that unifier applied) under the
// budget reduced by wr.Weight; every combined result contributes one
// GoalResult entry to acc, restricted back to goal's original variables
// through the renaming.
func (ps *proverSession) tryRuleExpansion(wr WeightedRule, goal Sentence, goalVars []int32, weightLimit float64, acc *goalResultAccumulator) {
	renamedGoal, ac := RenameDisjoint(ps.ctx, goal)
	for _, sigma := range Unify(wr.Rule.Conclusion, renamedGoal, ps.unifyDepthLimit) {
		premises := applySubstToList(sigma, wr.Rule.Premises)
		for _, ar := range ps.and(premises, weightLimit-wr.Weight) {
			// sigma may bind a renamed-goal variable to a value that still
			// mentions one of the rule's own variables (e.g. the rule
			// conclusion's [B] [B] [B] unifying against a single goal
			// variable binds that goal variable to a sentence containing
			// [B], not yet resolved); ar.Substitution is what resolves [B],
			// so the two must be chained with Compose, exactly as unify.go
			// chains its own elementary steps - a plain disjoint Merge would
			// leave the unresolved [B] in the final answer.
			full, err := Compose(sigma, ar.Substitution)
			if err != nil {
				continue
			}
			concreteRule := full.ApplyRule(wr.Rule)
			goalSubst := restrictThroughRenaming(ac, goalVars, full)
			for _, path := range ar.ProofPaths {
				acc.add(goalSubst, 1+ar.Depth, path.Add(concreteRule))
			}
		}
	}
}

// restrictThroughRenaming maps a substitution over renamed-goal (and rule)
// variables back onto goal's original variable ids, via the AlphaConversion
// that produced the renaming.
func restrictThroughRenaming(ac AlphaConversion, goalVars []int32, full Substitution) Substitution {
	out := NewSubstitution()
	for _, v := range goalVars {
		renamed, ok := ac.mapping[v]
		if !ok {
			continue
		}
		if val, ok := full.Get(renamed); ok {
			out, _ = out.Bind(v, val)
		}
	}
	return out
}

// andResult is one combined answer for an AND'd goal list: a substitution
// over the union of variables touched while proving it, the maximum
// rule-expansion depth among its constituent OR branches, and one of the
// proof paths formed by the Cartesian product of each goal's contributing
// paths.
type andResult struct {
	Substitution Substitution
	Depth        int
	ProofPaths   []ProofPath
}

// and proves goals left to right (§4.6): the first goal is solved by or,
// its answer substitution is applied to the remaining goals before they are
// solved recursively, and proof paths combine by Cartesian product (one
// path per pairing of a first-goal path with a rest-of-list path).
func (ps *proverSession) and(goals []Sentence, weightLimit float64) []andResult {
	if len(goals) == 0 {
		return []andResult{{Substitution: NewSubstitution(), Depth: 0, ProofPaths: []ProofPath{NewProofPath()}}}
	}
	first, rest := goals[0], goals[1:]

	var out []andResult
	for _, fr := range ps.or(first, weightLimit) {
		restApplied := applySubstToList(fr.Substitution, rest)
		for _, tr := range ps.and(restApplied, weightLimit) {
			merged, err := Merge(fr.Substitution, tr.Substitution)
			if err != nil {
				continue
			}
			depth := fr.Depth
			if tr.Depth > depth {
				depth = tr.Depth
			}
			for _, fp := range fr.ProofPaths {
				for _, tp := range tr.ProofPaths {
					out = append(out, andResult{Substitution: merged, Depth: depth, ProofPaths: []ProofPath{fp.Union(tp)}})
				}
			}
		}
	}
	return out
}
