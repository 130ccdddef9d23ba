package metaqnl

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorKind classifies a DomainError per the error-handling policy of the
// design: input-contract violations are fatal and carry a human-readable
// message identifying the offending input. Depth/budget exhaustion and
// forward-prover cancellation are NOT represented as errors anywhere in this
// package; they surface as empty or partial results instead.
type ErrorKind int

const (
	// ErrMalformedSentence reports a sentence string that does not parse.
	ErrMalformedSentence ErrorKind = iota
	// ErrMalformedRule reports a rule string missing its "---" separator
	// or otherwise malformed.
	ErrMalformedRule
	// ErrInvalidVariableName reports a variable name outside [A-Z]+.
	ErrInvalidVariableName
	// ErrInvalidWord reports a word/special string containing whitespace,
	// '[', ']', or '$'.
	ErrInvalidWord
	// ErrSubstitutionValue reports an attempt to bind a variable to an
	// empty sentence or one containing a special symbol.
	ErrSubstitutionValue
	// ErrMergeConflict reports a disjoint-merge of two substitutions that
	// disagree on a shared variable.
	ErrMergeConflict
	// ErrMissingPremise reports apply() on a proof whose rule premises are
	// not all already present as vertices.
	ErrMissingPremise
	// ErrCycle reports that an operation would introduce a cycle into a
	// proof graph.
	ErrCycle
	// ErrCheckpointConflict reports a vocabulary checkpoint load whose
	// contents do not strictly extend the current in-memory prefix.
	ErrCheckpointConflict
	// ErrSolverInfeasible reports infeasibility from an external MAX-SAT
	// solver invoked on the clauses BuildClauses (maxsat.go) produces; the
	// core has no fallback. Reserved for a future solver integration -
	// BuildClauses stops at clause construction (§6) and never calls a
	// solver itself, so nothing in this package raises this kind today.
	ErrSolverInfeasible
	// ErrInvalidConfig reports an EngineConfig field outside its valid
	// range after decode.
	ErrInvalidConfig
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedSentence:
		return "malformed sentence"
	case ErrMalformedRule:
		return "malformed rule"
	case ErrInvalidVariableName:
		return "invalid variable name"
	case ErrInvalidWord:
		return "invalid word or special symbol"
	case ErrSubstitutionValue:
		return "invalid substitution value"
	case ErrMergeConflict:
		return "substitution merge conflict"
	case ErrMissingPremise:
		return "missing premise"
	case ErrCycle:
		return "cycle introduced"
	case ErrCheckpointConflict:
		return "checkpoint prefix conflict"
	case ErrSolverInfeasible:
		return "solver infeasible"
	case ErrInvalidConfig:
		return "invalid configuration"
	default:
		return "domain error"
	}
}

// DomainError reports an input-contract violation: a fatal domain error
// identifying the offending input. Nothing about a DomainError is retried by
// this package; callers decide how to respond.
type DomainError struct {
	Kind    ErrorKind
	Offender string
	Detail  string
}

func (e *DomainError) Error() string {
	if e.Offender == "" {
		return fmt.Sprintf("metaqnl: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("metaqnl: %s: %s: %q", e.Kind, e.Detail, e.Offender)
}

func newDomainError(kind ErrorKind, offender, detail string) *DomainError {
	return &DomainError{Kind: kind, Offender: offender, Detail: detail}
}

// appendViolation accumulates DomainErrors into a multierror.Error, creating
// one lazily. It mirrors the way independent validation failures (several
// rule invariants, several checkpoint prefix conflicts) are aggregated into
// a single reported error instead of surfacing only the first one found.
func appendViolation(errs *multierror.Error, kind ErrorKind, offender, detail string) *multierror.Error {
	return multierror.Append(errs, newDomainError(kind, offender, detail))
}
