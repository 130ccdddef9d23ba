package metaqnl

import "fmt"

// Dataset is a minimal, in-memory collection of concrete example
// sentences (§6). Loading a dataset from a real corpus, and tokenizing
// natural-language text into one, are explicitly out of scope for this
// core; a RuleProposer only ever sees sentences already in this form.
type Dataset []Sentence

// RuleProposer is the external-collaborator interface of §6: propose
// candidate rules from one dataset example, and judge whether a candidate
// rule is acceptable before it is considered further (e.g. inserted into
// an IndexedRuleSet or referenced by a MAX-SAT clause set). Real proposers
// are domain-specific; this package supplies the interface plus one
// trivial reference implementation.
type RuleProposer interface {
	Propose(dataset Dataset, exampleIndex int) ([]Rule, error)
	IsValid(rule Rule) bool
}

// ZeroPremiseProposer is the trivial default RuleProposer: for a dataset
// example, it proposes the single zero-premise rule asserting that exact
// sentence - the same on-the-fly proposal already used by BackwardProver
// (§4.6) and, via an empty-premise rule attachment, ReteNetwork (§4.7) -
// and accepts any structurally Valid rule.
type ZeroPremiseProposer struct{}

// NewZeroPremiseProposer returns a ZeroPremiseProposer.
func NewZeroPremiseProposer() *ZeroPremiseProposer { return &ZeroPremiseProposer{} }

// Propose returns the single zero-premise rule whose conclusion is
// dataset[exampleIndex]. exampleIndex out of range is an input-contract
// violation (§7): a fatal *DomainError, not an empty result.
func (p *ZeroPremiseProposer) Propose(dataset Dataset, exampleIndex int) ([]Rule, error) {
	if exampleIndex < 0 || exampleIndex >= len(dataset) {
		return nil, newDomainError(ErrMalformedRule, fmt.Sprintf("example#%d", exampleIndex),
			"example index is out of range for this dataset")
	}
	return []Rule{NewRule(nil, dataset[exampleIndex])}, nil
}

// IsValid accepts rule iff it satisfies Rule's own structural invariants.
func (p *ZeroPremiseProposer) IsValid(rule Rule) bool { return rule.IsValid() }

var _ RuleProposer = (*ZeroPremiseProposer)(nil)
