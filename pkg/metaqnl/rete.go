package metaqnl

import (
	"math"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// firstOccurrenceVariableIDs returns sent's distinct variable ids in order
// of first occurrence.
func firstOccurrenceVariableIDs(sent Sentence) []int32 {
	seen := make(map[int32]bool)
	var out []int32
	for _, t := range sent.raw() {
		if t.Kind == VariableToken && !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t.ID)
		}
	}
	return out
}

// canonicalizeDeBruijn renames sent's variables to De-Bruijn slots (§3:
// negative ids reserved for this purpose) numbered in order of first
// occurrence, so that two premises differing only in variable naming
// canonicalize identically and can share one α-node (§4.7). It also
// returns the slot -> original-variable-id table, which a β-node needs to
// relate this premise's local slots to the rule's own variable identity.
func canonicalizeDeBruijn(sent Sentence) (Sentence, []int32) {
	order := firstOccurrenceVariableIDs(sent)
	slot := make(map[int32]int32, len(order))
	for i, v := range order {
		slot[v] = int32(i)
	}
	toks := sent.raw()
	out := make([]Token, len(toks))
	for i, t := range toks {
		if t.Kind == VariableToken {
			out[i] = Token{ID: -(slot[t.ID] + 1), Kind: VariableToken}
		} else {
			out[i] = t
		}
	}
	return NewSentence(out), order
}

// flipVariables is the named step of §4.7 that prepares an α-node's
// canonicalized condition for matching against a concrete fact. Match
// (match.go) already treats any VariableToken uniformly regardless of the
// sign of its id, so a De-Bruijn-slotted condition is already directly
// matchable; this function is kept as a distinct, named no-op so the call
// site mirrors the design rather than silently skipping the step.
func flipVariables(cond Sentence) Sentence { return cond }

// alphaNode accumulates the instantiations matched for one canonicalized
// premise, shared by every rule whose premise canonicalizes identically.
type alphaNode struct {
	id            int
	condition     Sentence
	numSlots      int
	instByKey     map[string][]Sentence
	weightByKey   map[string]float64
	instOrder     []string
	rightChildren []*betaNode
}

// betaNode holds the accumulated joint bindings for one premise-list prefix
// (§4.7), shared across rules with identical prefixes via betaCache. The
// dummy node (leftParent == rightParent == nil) represents the empty
// prefix, with the identity binding at weight +Inf.
type betaNode struct {
	id          int
	leftParent  *betaNode
	rightParent *alphaNode

	// slotMap maps each of rightParent's local De-Bruijn slots to either an
	// index into leftParent.jointVars (already-bound shared variable) or -1
	// (a variable newly introduced by this premise, appended to jointVars
	// in slot order). This is the "De-Bruijn index vector" of §4.7.
	slotMap   []int
	jointVars []int32

	instByKey    map[string][]Sentence
	weightByKey  map[string]float64
	instOrder    []string
	leftChildren []*betaNode

	ruleAttachments []ruleAttachment
}

type ruleAttachment struct {
	rule   Rule
	weight float64
}

type betaCacheKey struct {
	left  *betaNode
	right *alphaNode
}

type queuedActivation struct {
	rule   Rule
	weight float64
}

// ReteNetwork is the weighted, data-driven forward prover of §4.7: a
// discrimination network of α-nodes (one per unique, De-Bruijn-canonicalized
// premise) and β-nodes (one per distinct premise-list prefix among the
// attached rules), built once from a fixed rule set and then driven by
// repeated calls to addFact as working memory grows.
type ReteNetwork struct {
	ctx       *Context
	alphas    map[string]*alphaNode
	alphaList []*alphaNode
	dummy     *betaNode
	betaCache map[betaCacheKey]*betaNode

	nextAlphaID int
	nextBetaID  int
	logger      hclog.Logger

	facts      map[string]float64
	queue      []queuedActivation

	cfg EngineConfig
}

// SetEngineConfig overrides the EngineConfig used for this network's
// weight-improvement comparisons (DefaultEngineConfig by default, set in
// NewReteNetwork). It must be called before Run, not while a run is in
// progress.
func (net *ReteNetwork) SetEngineConfig(cfg EngineConfig) {
	net.cfg = cfg
}

// NewReteNetwork builds the discrimination network for rules; the network
// structure itself never changes afterward, only the working-memory state
// touched by Run.
func NewReteNetwork(ctx *Context, rules []WeightedRule, logger hclog.Logger) *ReteNetwork {
	net := &ReteNetwork{
		ctx:       ctx,
		alphas:    make(map[string]*alphaNode),
		betaCache: make(map[betaCacheKey]*betaNode),
		logger:    namedLogger(logger, "rete"),
		cfg:       DefaultEngineConfig(),
	}
	net.dummy = &betaNode{
		id:          net.nextBetaID,
		instByKey:   map[string][]Sentence{"": {}},
		weightByKey: map[string]float64{"": math.Inf(1)},
		instOrder:   []string{""},
	}
	net.nextBetaID++
	for _, wr := range rules {
		net.attachRule(wr)
	}
	return net
}

func (net *ReteNetwork) internAlpha(premise Sentence) *alphaNode {
	cond, order := canonicalizeDeBruijn(premise)
	key := sentenceIdentityKey(cond)
	if an, ok := net.alphas[key]; ok {
		return an
	}
	an := &alphaNode{
		id:          net.nextAlphaID,
		condition:   cond,
		numSlots:    len(order),
		instByKey:   make(map[string][]Sentence),
		weightByKey: make(map[string]float64),
	}
	net.nextAlphaID++
	net.alphas[key] = an
	net.alphaList = append(net.alphaList, an)
	return an
}

func (net *ReteNetwork) internBeta(left *betaNode, right *alphaNode, slotMap []int, jointVars []int32) *betaNode {
	ck := betaCacheKey{left, right}
	if bn, ok := net.betaCache[ck]; ok {
		return bn
	}
	bn := &betaNode{
		id:          net.nextBetaID,
		leftParent:  left,
		rightParent: right,
		slotMap:     slotMap,
		jointVars:   jointVars,
		instByKey:   make(map[string][]Sentence),
		weightByKey: make(map[string]float64),
	}
	net.nextBetaID++
	left.leftChildren = append(left.leftChildren, bn)
	right.rightChildren = append(right.rightChildren, bn)
	net.betaCache[ck] = bn
	return bn
}

// attachRule walks rule's premises left to right, interning one α-node per
// premise and one β-node per prefix (reused across rules sharing a prefix),
// and attaches the rule to the β-node for its full premise list - the
// dummy node itself, for a rule with no premises.
func (net *ReteNetwork) attachRule(wr WeightedRule) {
	left := net.dummy
	for _, premise := range wr.Rule.Premises {
		an := net.internAlpha(premise)
		slotVarIDs := firstOccurrenceVariableIDs(premise)
		slotMap := make([]int, len(slotVarIDs))
		jointVars := append([]int32(nil), left.jointVars...)
		existing := make(map[int32]int, len(jointVars))
		for i, v := range jointVars {
			existing[v] = i
		}
		for s, vid := range slotVarIDs {
			if idx, ok := existing[vid]; ok {
				slotMap[s] = idx
			} else {
				slotMap[s] = -1
				existing[vid] = len(jointVars)
				jointVars = append(jointVars, vid)
			}
		}
		left = net.internBeta(left, an, slotMap, jointVars)
	}
	left.ruleAttachments = append(left.ruleAttachments, ruleAttachment{rule: wr.Rule, weight: wr.Weight})
}

func instantiationKey(inst []Sentence) string {
	var b strings.Builder
	for _, s := range inst {
		b.WriteString(sentenceIdentityKey(s))
		b.WriteByte('|')
	}
	return b.String()
}

// joinInstantiation joins a left joint instantiation with a right α
// instantiation via slotMap (§4.7): a shared slot must agree exactly
// (content identity) or the join is pruned; a new slot is appended.
func joinInstantiation(leftInst, rightInst []Sentence, slotMap []int) ([]Sentence, bool) {
	joint := append([]Sentence(nil), leftInst...)
	for s, idx := range slotMap {
		if idx >= 0 {
			if !joint[idx].Identical(rightInst[s]) {
				return nil, false
			}
			continue
		}
		joint = append(joint, rightInst[s])
	}
	return joint, true
}

func substitutionFromJoint(jointVars []int32, joint []Sentence) Substitution {
	sub := NewSubstitution()
	for i, vid := range jointVars {
		sub, _ = sub.Bind(vid, joint[i])
	}
	return sub
}

func concreteRuleKey(rule Rule) string {
	var b strings.Builder
	for _, p := range rule.Premises {
		b.WriteString(sentenceIdentityKey(p))
		b.WriteByte(';')
	}
	b.WriteString("->")
	b.WriteString(sentenceIdentityKey(rule.Conclusion))
	return b.String()
}

// storeJoint records a newly-joined (or weight-improved) instantiation at
// bn, firing any rule attached at exactly this prefix and propagating the
// join onward to every β-node that has bn as its left parent.
func (net *ReteNetwork) storeJoint(bn *betaNode, joint []Sentence, weight float64) {
	key := instantiationKey(joint)
	if old, ok := bn.weightByKey[key]; ok && !net.cfg.WeightImproved(old, weight) {
		return
	}
	if _, seen := bn.instByKey[key]; !seen {
		bn.instOrder = append(bn.instOrder, key)
	}
	bn.instByKey[key] = joint
	bn.weightByKey[key] = weight

	for _, ra := range bn.ruleAttachments {
		sigma := substitutionFromJoint(bn.jointVars, joint)
		concrete := sigma.ApplyRule(ra.rule)
		joinCap := weight
		if joinCap > 1 {
			joinCap = 1
		}
		concWeight := joinCap - ra.weight
		if concWeight > 0 {
			net.queue = append(net.queue, queuedActivation{rule: concrete, weight: concWeight})
		}
	}
	for _, child := range bn.leftChildren {
		net.leftActivate(child, joint, weight)
	}
}

// rightActivate and leftActivate walk their opposite parent's instantiations
// in insertion order (instOrder), not by ranging the instByKey map directly,
// so that the queuedActivations storeJoint appends - and therefore the order
// Run (rete.go) delivers conclusions to onFact - is reproducible across runs
// given identical inputs.
func (net *ReteNetwork) rightActivate(bn *betaNode, rightInst []Sentence, rightWeight float64) {
	for _, k := range bn.leftParent.instOrder {
		leftInst := bn.leftParent.instByKey[k]
		leftWeight := bn.leftParent.weightByKey[k]
		joint, ok := joinInstantiation(leftInst, rightInst, bn.slotMap)
		if !ok {
			continue
		}
		net.storeJoint(bn, joint, math.Min(leftWeight, rightWeight))
	}
}

func (net *ReteNetwork) leftActivate(bn *betaNode, leftInst []Sentence, leftWeight float64) {
	for _, k := range bn.rightParent.instOrder {
		rightInst := bn.rightParent.instByKey[k]
		rightWeight := bn.rightParent.weightByKey[k]
		joint, ok := joinInstantiation(leftInst, rightInst, bn.slotMap)
		if !ok {
			continue
		}
		net.storeJoint(bn, joint, math.Min(leftWeight, rightWeight))
	}
}

// addFact is add_wme (§4.7): match every α-node's condition against fact,
// and right-activate every β-node depending on an α-node whose match
// improved.
func (net *ReteNetwork) addFact(fact Sentence, weight float64) {
	factKey := sentenceIdentityKey(fact)
	if old, ok := net.facts[factKey]; ok && !net.cfg.WeightImproved(old, weight) {
		return
	}
	net.facts[factKey] = weight

	for _, an := range net.alphaList {
		cond := flipVariables(an.condition)
		for _, sigma := range Match(cond, fact) {
			inst := make([]Sentence, an.numSlots)
			for s := 0; s < an.numSlots; s++ {
				if val, ok := sigma.Get(-(int32(s) + 1)); ok {
					inst[s] = val
				}
			}
			ikey := instantiationKey(inst)
			if old, ok := an.weightByKey[ikey]; ok && !net.cfg.WeightImproved(old, weight) {
				continue
			}
			if _, seen := an.instByKey[ikey]; !seen {
				an.instOrder = append(an.instOrder, ikey)
			}
			an.instByKey[ikey] = inst
			an.weightByKey[ikey] = weight
			for _, bn := range an.rightChildren {
				net.rightActivate(bn, inst, weight)
			}
		}
	}
}

// Run drains the network to saturation (§4.7): it seeds activated rules
// from every empty-premise rule, feeds every assumption into working
// memory, then drains the queue of activated rules in first-in, first-out
// order (there is no priority), applying each concrete rule at most once and
// invoking onFact for every assumption and every newly derived
// conclusion. onFact returning false aborts immediately - used to
// short-circuit once a goal sentence has been derived.
func (net *ReteNetwork) Run(assumptions []Sentence, onFact func(fact Sentence, rule *Rule) bool) {
	net.reset()

	for _, ra := range net.dummy.ruleAttachments {
		concWeight := 1 - ra.weight // min(+Inf, 1) - weight
		if concWeight > 0 {
			net.queue = append(net.queue, queuedActivation{rule: ra.rule, weight: concWeight})
		}
	}

	for _, a := range assumptions {
		if !onFact(a, nil) {
			return
		}
		net.addFact(a, 1.0)
	}

	applied := make(map[string]bool)
	for len(net.queue) > 0 {
		batch := net.queue
		net.queue = nil
		progressed := false
		for _, item := range batch {
			key := concreteRuleKey(item.rule)
			if applied[key] {
				continue
			}
			applied[key] = true
			progressed = true
			rule := item.rule
			if !onFact(rule.Conclusion, &rule) {
				return
			}
			net.addFact(rule.Conclusion, item.weight)
		}
		if !progressed {
			break
		}
	}
	net.logger.Debug("rete run complete", "facts", len(net.facts), "rules_applied", len(applied))
}

// reset clears all per-run working memory: every α/β node's instantiations,
// and the fact/queue state, but keeps the network structure intact.
func (net *ReteNetwork) reset() {
	net.facts = make(map[string]float64)
	net.queue = nil
	for _, an := range net.alphaList {
		an.instByKey = make(map[string][]Sentence)
		an.weightByKey = make(map[string]float64)
		an.instOrder = nil
	}
	visited := make(map[*betaNode]bool)
	var visit func(bn *betaNode)
	visit = func(bn *betaNode) {
		if visited[bn] {
			return
		}
		visited[bn] = true
		if bn != net.dummy {
			bn.instByKey = make(map[string][]Sentence)
			bn.weightByKey = make(map[string]float64)
			bn.instOrder = nil
		}
		for _, c := range bn.leftChildren {
			visit(c)
		}
	}
	visit(net.dummy)
}
