package metaqnl

import "fmt"

// Literal is a signed reference to a MAX-SAT boolean variable (§6): the
// variable id asserted true, or negated.
type Literal struct {
	Var     int
	Negated bool
}

// Pos and Neg build the positive and negated literal for variable v.
func Pos(v int) Literal { return Literal{Var: v} }
func Neg(v int) Literal { return Literal{Var: v, Negated: true} }

// Clause is one hard or weighted soft clause (§6): Weight is nil for a hard
// clause (must be satisfied), non-nil for a soft clause (violating it costs
// Weight).
type Clause struct {
	Literals []Literal
	Weight   *float64
}

// VariableNaming allocates and remembers the cr_<int>/r_<int> boolean
// variable ids of §6: cr_<int> for a concrete-rule instantiation, r_<int>
// for an abstract-rule selection. The same rule (by identity, §6's "cr"/"r"
// distinction is about role, not content) always maps to the same variable
// across calls to either accessor.
type VariableNaming struct {
	crByKey map[string]int
	rByKey  map[string]int
	crRules []Rule
	rRules  []Rule
}

// NewVariableNaming returns an empty naming table.
func NewVariableNaming() *VariableNaming {
	return &VariableNaming{crByKey: make(map[string]int), rByKey: make(map[string]int)}
}

// ConcreteRuleVar returns rule's cr_<int> variable, minting a fresh one if
// this is the first time rule has been named.
func (vn *VariableNaming) ConcreteRuleVar(rule Rule) int {
	key := concreteRuleKey(rule)
	if v, ok := vn.crByKey[key]; ok {
		return v
	}
	v := len(vn.crRules) + 1
	vn.crByKey[key] = v
	vn.crRules = append(vn.crRules, rule)
	return v
}

// AbstractRuleVar returns rule's r_<int> variable, minting a fresh one if
// this is the first time rule has been named.
func (vn *VariableNaming) AbstractRuleVar(rule Rule) int {
	key := concreteRuleKey(rule)
	if v, ok := vn.rByKey[key]; ok {
		return v
	}
	v := len(vn.rRules) + 1
	vn.rByKey[key] = v
	vn.rRules = append(vn.rRules, rule)
	return v
}

// ConcreteRuleName and AbstractRuleName render a variable id into the §6
// naming convention.
func (vn *VariableNaming) ConcreteRuleName(v int) string { return fmt.Sprintf("cr_%d", v) }
func (vn *VariableNaming) AbstractRuleName(v int) string { return fmt.Sprintf("r_%d", v) }

// AbstractRuleOf maps a concrete rule instantiation back to the weighted
// abstract rule it instantiates. This correspondence is established
// upstream, while the instantiation is produced (e.g. by the backward
// prover or the Rete network's rule attachments), and is not recoverable
// from the concrete rule's content alone, so BuildClauses takes it as a
// caller-supplied lookup rather than trying to reconstruct it.
type AbstractRuleOf func(concrete Rule) (abstract WeightedRule, ok bool)

// BuildClauses assembles the hard and weighted soft MAX-SAT clauses of §6
// from a set of proof paths and an abstract-rule lookup:
//
//   - a hard unit clause [cr_j] for every distinct concrete rule occurring
//     in any path, requiring it be selected (the paths given are assumed
//     already chosen by the caller as the derivations to explain);
//   - a hard clause [¬cr_j, r_i] linking each concrete instantiation to the
//     abstract rule it instantiates;
//   - a soft clause [¬r_i] at weight rule_i.Weight for every abstract rule
//     referenced, penalizing the selection of costlier rules.
//
// It stops here, per §6: calling an external solver's get_model() to
// retrieve the assignment is the caller's responsibility.
func BuildClauses(paths []ProofPath, abstractOf AbstractRuleOf) ([]Clause, *VariableNaming) {
	naming := NewVariableNaming()
	var clauses []Clause
	seenCR := make(map[string]bool)
	seenR := make(map[string]bool)

	for _, path := range paths {
		for _, concrete := range path.Rules() {
			crKey := concreteRuleKey(concrete)
			crVar := naming.ConcreteRuleVar(concrete)
			if seenCR[crKey] {
				continue
			}
			seenCR[crKey] = true
			clauses = append(clauses, Clause{Literals: []Literal{Pos(crVar)}})

			abstract, ok := abstractOf(concrete)
			if !ok {
				continue
			}
			rVar := naming.AbstractRuleVar(abstract.Rule)
			clauses = append(clauses, Clause{Literals: []Literal{Neg(crVar), Pos(rVar)}})

			rKey := concreteRuleKey(abstract.Rule)
			if seenR[rKey] {
				continue
			}
			seenR[rKey] = true
			w := abstract.Weight
			clauses = append(clauses, Clause{Literals: []Literal{Neg(rVar)}, Weight: &w})
		}
	}
	return clauses, naming
}
