package metaqnl

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// sentenceIdentityKey renders s's exact token sequence (not alpha-invariant)
// into a string suitable as a map key, so Proof can deduplicate sentence
// vertices by content identity rather than pointer identity.
func sentenceIdentityKey(s Sentence) string {
	toks := s.raw()
	var b strings.Builder
	for _, t := range toks {
		b.WriteByte(byte(t.Kind))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(int64(t.ID), 10))
		b.WriteByte(';')
	}
	return b.String()
}

// proofSentenceNode is one sentence vertex in a Proof's arena.
type proofSentenceNode struct {
	sentence  Sentence
	producers []int // incoming rule-vertex ids; a valid proof has at most one
	consumers []int // outgoing rule-vertex ids this sentence feeds as a premise
}

// proofRuleNode is one rule-application vertex: the concrete rule applied,
// and its premises/conclusion as sentence-vertex ids.
type proofRuleNode struct {
	rule       Rule
	premises   []int
	conclusion int
}

// Proof is the directed acyclic bipartite graph of sentence and rule-
// application vertices described in §3/§4.5: each rule vertex has its
// premises as in-neighbors and its conclusion as its sole out-neighbor, and
// each sentence has at most one incoming rule vertex in a valid proof.
// Following the design notes' guidance for cyclic/graph-shaped data (§9),
// it is represented as an arena-of-nodes with integer indices; lookups and
// deduplication are by sentence content, not identity, and rule vertices
// are never deduplicated (§4.5's merge note).
type Proof struct {
	sentences []proofSentenceNode
	rules     []proofRuleNode
	index     map[string]int // sentenceIdentityKey -> sentence vertex id

	logger hclog.Logger
}

// NewProof builds a proof seeded with one sentence vertex per assumption,
// none of them yet consumed or produced by any rule application.
func NewProof(assumptions []Sentence, logger hclog.Logger) *Proof {
	p := &Proof{
		index:  make(map[string]int),
		logger: namedLogger(logger, "proof"),
	}
	for _, a := range assumptions {
		p.internSentence(a)
	}
	return p
}

func (p *Proof) internSentence(s Sentence) int {
	key := sentenceIdentityKey(s)
	if id, ok := p.index[key]; ok {
		return id
	}
	id := len(p.sentences)
	p.sentences = append(p.sentences, proofSentenceNode{sentence: s})
	p.index[key] = id
	return id
}

func (p *Proof) sentenceID(s Sentence) (int, bool) {
	id, ok := p.index[sentenceIdentityKey(s)]
	return id, ok
}

// Sentences returns the sentence backing every vertex, in vertex-id order.
func (p *Proof) Sentences() []Sentence {
	out := make([]Sentence, len(p.sentences))
	for i, n := range p.sentences {
		out[i] = n.sentence
	}
	return out
}

// Len returns the number of sentence vertices in the proof.
func (p *Proof) Len() int { return len(p.sentences) }

// Apply adds a rule application to the proof (§4.5): every premise of rule
// must already be a vertex, or this is a *DomainError (ErrMissingPremise).
// A fresh rule vertex is created - rule applications are never
// deduplicated, only sentences are - wiring edges from each premise to it
// and from it to the (possibly new) conclusion vertex; it returns the
// conclusion's vertex id. If adding these edges would introduce a cycle,
// the proof is left unchanged and a *DomainError (ErrCycle) is returned
// instead.
func (p *Proof) Apply(rule Rule) (int, error) {
	premiseIDs := make([]int, len(rule.Premises))
	for i, prem := range rule.Premises {
		id, ok := p.sentenceID(prem)
		if !ok {
			return 0, newDomainError(ErrMissingPremise, SprintSentence(DefaultContext(), prem),
				"rule premise is not yet a vertex in this proof")
		}
		premiseIDs[i] = id
	}

	conclusionExisted := true
	conclusionID, ok := p.sentenceID(rule.Conclusion)
	if !ok {
		conclusionExisted = false
		conclusionID = len(p.sentences)
	}

	targets := make(map[int]bool, len(premiseIDs))
	for _, id := range premiseIDs {
		targets[id] = true
	}
	if conclusionExisted && p.forwardReachesAny(conclusionID, targets) {
		return 0, newDomainError(ErrCycle, "", "applying this rule would introduce a cycle into the proof")
	}

	if !conclusionExisted {
		p.sentences = append(p.sentences, proofSentenceNode{sentence: rule.Conclusion})
		p.index[sentenceIdentityKey(rule.Conclusion)] = conclusionID
	}

	ruleID := len(p.rules)
	p.rules = append(p.rules, proofRuleNode{rule: rule, premises: premiseIDs, conclusion: conclusionID})
	for _, pid := range premiseIDs {
		p.sentences[pid].consumers = append(p.sentences[pid].consumers, ruleID)
	}
	p.sentences[conclusionID].producers = append(p.sentences[conclusionID].producers, ruleID)

	p.logger.Debug("applied rule to proof", "conclusion_vertex", conclusionID, "rule_vertex", ruleID)
	return conclusionID, nil
}

// forwardReachesAny reports whether any vertex in targets is reachable from
// from by following consumer edges forward (sentence -> rule vertex that
// consumes it -> that rule's conclusion sentence -> ...).
func (p *Proof) forwardReachesAny(from int, targets map[int]bool) bool {
	if targets[from] {
		return true
	}
	visited := map[int]bool{from: true}
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, rv := range p.sentences[cur].consumers {
			next := p.rules[rv].conclusion
			if targets[next] {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Merge copies other's DAG into p (§4.5): sentence vertices are
// deduplicated by exact content; rule-application vertices are always
// copied fresh. If the combined graph would contain a cycle, p is left
// unchanged and a *DomainError (ErrCycle) is returned.
func (p *Proof) Merge(other *Proof) error {
	snapshot := p.clone()

	idMap := make(map[int]int, len(other.sentences))
	for i, n := range other.sentences {
		idMap[i] = p.internSentence(n.sentence)
	}

	for _, rn := range other.rules {
		premises := make([]int, len(rn.premises))
		for i, op := range rn.premises {
			premises[i] = idMap[op]
		}
		conclusion := idMap[rn.conclusion]
		ruleID := len(p.rules)
		p.rules = append(p.rules, proofRuleNode{rule: rn.rule, premises: premises, conclusion: conclusion})
		for _, pid := range premises {
			p.sentences[pid].consumers = append(p.sentences[pid].consumers, ruleID)
		}
		p.sentences[conclusion].producers = append(p.sentences[conclusion].producers, ruleID)
	}

	if p.hasCycle() {
		p.restore(snapshot)
		return newDomainError(ErrCycle, "", "merging these proofs would introduce a cycle")
	}
	p.logger.Debug("merged proofs", "size", len(p.sentences))
	return nil
}

func (p *Proof) clone() *Proof {
	cp := &Proof{
		sentences: make([]proofSentenceNode, len(p.sentences)),
		rules:     make([]proofRuleNode, len(p.rules)),
		index:     make(map[string]int, len(p.index)),
		logger:    p.logger,
	}
	for i, n := range p.sentences {
		cp.sentences[i] = proofSentenceNode{
			sentence:  n.sentence,
			producers: append([]int(nil), n.producers...),
			consumers: append([]int(nil), n.consumers...),
		}
	}
	copy(cp.rules, p.rules)
	for k, v := range p.index {
		cp.index[k] = v
	}
	return cp
}

func (p *Proof) restore(snapshot *Proof) {
	p.sentences = snapshot.sentences
	p.rules = snapshot.rules
	p.index = snapshot.index
}

// hasCycle detects a cycle in the condensed sentence-level graph (each rule
// vertex contracted to edges from its premises to its conclusion), via
// three-color DFS.
func (p *Proof) hasCycle() bool {
	const white, gray, black = 0, 1, 2
	state := make([]int, len(p.sentences))
	var visit func(n int) bool
	visit = func(n int) bool {
		state[n] = gray
		for _, rv := range p.sentences[n].consumers {
			next := p.rules[rv].conclusion
			if state[next] == gray {
				return true
			}
			if state[next] == white && visit(next) {
				return true
			}
		}
		state[n] = black
		return false
	}
	for i := range p.sentences {
		if state[i] == white && visit(i) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// IsValid reports whether the proof satisfies the invariants of §3/§8: a
// unique sink sentence (no outgoing consumer edge), at most one producing
// rule vertex per sentence, every rule vertex's edges correctly wired to
// its premises and conclusion, and overall acyclicity.
func (p *Proof) IsValid() bool {
	if len(p.sentences) == 0 {
		return false
	}
	sinks := 0
	for _, n := range p.sentences {
		if len(n.producers) > 1 {
			return false
		}
		if len(n.consumers) == 0 {
			sinks++
		}
	}
	if sinks != 1 {
		return false
	}
	for rv, rn := range p.rules {
		for _, pid := range rn.premises {
			if !containsInt(p.sentences[pid].consumers, rv) {
				return false
			}
		}
		if !containsInt(p.sentences[rn.conclusion].producers, rv) {
			return false
		}
	}
	return !p.hasCycle()
}

// Sink returns the proof's unique sink sentence (the goal), and whether
// exactly one such sentence currently exists.
func (p *Proof) Sink() (Sentence, bool) {
	var result Sentence
	count := 0
	for _, n := range p.sentences {
		if len(n.consumers) == 0 {
			result = n.sentence
			count++
		}
	}
	return result, count == 1
}

// Trim returns a fresh proof containing only the sub-DAG reachable backward
// from goal (§4.5): goal's producing rule vertex (if any), its premises,
// their producing rule vertices, and so on, recursively. If goal is not a
// vertex of proof, Trim returns an empty proof.
func Trim(proof *Proof, goal Sentence) *Proof {
	out := NewProof(nil, proof.logger)
	goalID, ok := proof.sentenceID(goal)
	if !ok {
		return out
	}

	keepSentences := make(map[int]bool)
	keepRules := make(map[int]bool)
	var visit func(sid int)
	visit = func(sid int) {
		if keepSentences[sid] {
			return
		}
		keepSentences[sid] = true
		for _, rv := range proof.sentences[sid].producers {
			if keepRules[rv] {
				continue
			}
			keepRules[rv] = true
			for _, pid := range proof.rules[rv].premises {
				visit(pid)
			}
		}
	}
	visit(goalID)

	for sid := range keepSentences {
		out.internSentence(proof.sentences[sid].sentence)
	}

	for _, rv := range topoOrderRules(proof, keepRules) {
		// Every premise of proof.rules[rv].rule was interned into out above
		// (it is reachable, since Trim visited it), and proof is already
		// acyclic, so replaying its rules in topological order can neither
		// hit a missing premise nor introduce a cycle.
		_, _ = out.Apply(proof.rules[rv].rule)
	}
	return out
}

// topoOrderRules returns the rule vertices in keepRules in an order where
// every rule's premise-producing rules (if kept) precede it, via
// deterministic DFS postorder starting from the sorted rule ids.
func topoOrderRules(proof *Proof, keepRules map[int]bool) []int {
	ids := make([]int, 0, len(keepRules))
	for rv := range keepRules {
		ids = append(ids, rv)
	}
	sort.Ints(ids)

	visited := make(map[int]bool, len(keepRules))
	var order []int
	var visit func(rv int)
	visit = func(rv int) {
		if visited[rv] {
			return
		}
		visited[rv] = true
		for _, pid := range proof.rules[rv].premises {
			for _, prv := range proof.sentences[pid].producers {
				if keepRules[prv] {
					visit(prv)
				}
			}
		}
		order = append(order, rv)
	}
	for _, rv := range ids {
		visit(rv)
	}
	return order
}
