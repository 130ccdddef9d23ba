// Package metaqnl provides the meta-language reasoning core of a symbolic
// rule-learning system for quasi-natural-language inference.
//
// The core consumes a set of weighted inference rules and a bag of concrete
// assumption sentences, and computes proofs of goal sentences by pattern
// matching over a token-level symbolic language. It also supports rule
// generalization by anti-unifying concrete instances into more general
// rules.
//
// Four tightly coupled subsystems make up the package:
//
//   - the symbolic term algebra: Token, Sentence, Substitution, Rule, and
//     their equality/hashing/alpha-equivalence semantics (token.go,
//     sentence.go, substitution.go, rule.go, template.go, vocab.go);
//   - matching (match.go): searching for substitutions that make a
//     variable-bearing pattern identical to a concrete instance;
//   - unification and anti-unification (unify.go, antiunify.go) over
//     sentences and rules under this algebra;
//   - two inference engines (backward.go, rete.go, naive.go): a weighted
//     goal-directed (backward-chaining) prover and a weighted data-driven
//     (forward-chaining) prover built on a Rete-style discrimination
//     network, plus a naive reference prover for cross-checking.
//
// The entire package is single-threaded and cooperative: no goroutines are
// started by any exported operation. Cancellation is expressed through
// callback return values (the forward prover) or through depth/weight
// budgets (Unify, the backward prover), never through context cancellation
// or channels.
//
// Three supporting pieces round out the package: RuleProposer (proposer.go)
// abstracts how a zero-premise (or, eventually, richer) candidate rule is
// proposed from a training example; EngineConfig (config.go) collects the
// tunable constants of the reasoning core into one TOML-loadable struct;
// and VocabularyCheckpoint's binary codec (checkpoint.go) persists a
// Vocabulary's interned token tables to a file and reloads them later.
package metaqnl
