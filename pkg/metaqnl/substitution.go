package metaqnl

import "fmt"

// Substitution is a partial map from variables to non-empty sentences that
// contain no special symbol (§3). Substitutions are built functionally:
// every operation that would change the mapping returns a new Substitution
// rather than mutating the receiver, so aliasing an existing Substitution
// is always safe. Variable order is insertion order, preserved across
// Bind/Compose/Merge, so that enumerations built from substitutions are
// deterministic (§5).
type Substitution struct {
	order []int32
	vals  map[int32]Sentence
}

// NewSubstitution returns the empty substitution.
func NewSubstitution() Substitution {
	return Substitution{vals: make(map[int32]Sentence)}
}

// Len returns the number of bindings.
func (s Substitution) Len() int { return len(s.order) }

// Get returns the sentence bound to v, and whether v is bound.
func (s Substitution) Get(v int32) (Sentence, bool) {
	val, ok := s.vals[v]
	return val, ok
}

// Variables returns the bound variables in insertion order.
func (s Substitution) Variables() []int32 {
	out := make([]int32, len(s.order))
	copy(out, s.order)
	return out
}

func (s Substitution) clone() Substitution {
	vals := make(map[int32]Sentence, len(s.vals))
	for k, v := range s.vals {
		vals[k] = v
	}
	order := make([]int32, len(s.order))
	copy(order, s.order)
	return Substitution{order: order, vals: vals}
}

// Bind returns a new Substitution extending s with v -> val. It is a
// *DomainError for val to be empty or to contain a special symbol (§3,
// §7). Rebinding v to a sentence Identical to its current value is a
// no-op; rebinding it to a different sentence is a *DomainError.
func (s Substitution) Bind(v int32, val Sentence) (Substitution, error) {
	if val.Len() == 0 {
		return Substitution{}, newDomainError(ErrSubstitutionValue, fmt.Sprintf("var#%d", v),
			"substitution value must be non-empty")
	}
	if val.HasSpecial() {
		return Substitution{}, newDomainError(ErrSubstitutionValue, fmt.Sprintf("var#%d", v),
			"substitution value must not contain a special symbol")
	}
	if existing, ok := s.vals[v]; ok {
		if existing.Identical(val) {
			return s.clone(), nil
		}
		return Substitution{}, newDomainError(ErrMergeConflict, fmt.Sprintf("var#%d", v),
			"variable already bound to a different sentence")
	}
	out := s.clone()
	out.order = append(out.order, v)
	out.vals[v] = val
	return out, nil
}

// Apply performs a single substitution pass over sent: every variable
// token bound in s is replaced by its bound sentence's tokens; unbound
// variables and non-variable tokens pass through unchanged. Apply does not
// chase through chains of substitutions - use Compose to sequence two
// substitutions first.
func (s Substitution) Apply(sent Sentence) Sentence {
	toks := sent.raw()
	out := make([]Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind == VariableToken {
			if val, ok := s.vals[t.ID]; ok {
				out = append(out, val.raw()...)
				continue
			}
		}
		out = append(out, t)
	}
	return NewSentence(out)
}

// ApplyRule applies s to every premise and the conclusion of r.
func (s Substitution) ApplyRule(r Rule) Rule {
	premises := make([]Sentence, len(r.Premises))
	for i, p := range r.Premises {
		premises[i] = s.Apply(p)
	}
	return NewRule(premises, s.Apply(r.Conclusion))
}

// Compose returns the substitution (s1 . s2) such that
// (s1 . s2)(t) = s2(s1(t)) for every sentence t (§3): every value of s1 is
// rewritten by s2, and s2's own bindings are added for variables s1 does
// not bind.
func Compose(s1, s2 Substitution) (Substitution, error) {
	result := NewSubstitution()
	var err error
	for _, v := range s1.order {
		result, err = result.Bind(v, s2.Apply(s1.vals[v]))
		if err != nil {
			return Substitution{}, err
		}
	}
	for _, v := range s2.order {
		if _, already := s1.vals[v]; already {
			continue
		}
		result, err = result.Bind(v, s2.vals[v])
		if err != nil {
			return Substitution{}, err
		}
	}
	return result, nil
}

// Merge returns the disjoint union s1 + s2: a *DomainError if a variable is
// bound in both to non-identical sentences (§3).
func Merge(s1, s2 Substitution) (Substitution, error) {
	result := s1.clone()
	for _, v := range s2.order {
		val := s2.vals[v]
		if existing, ok := result.vals[v]; ok {
			if !existing.Identical(val) {
				return Substitution{}, newDomainError(ErrMergeConflict, fmt.Sprintf("var#%d", v),
					"disjoint merge: shared variable bound to different sentences")
			}
			continue
		}
		result.order = append(result.order, v)
		result.vals[v] = val
	}
	return result, nil
}

// Restrict returns the sub-substitution of s containing only bindings for
// variables in keep, preserving s's relative order. It is used by the
// backward prover to restrict an internal answer substitution down to the
// original goal's variables (§4.6).
func (s Substitution) Restrict(keep []int32) Substitution {
	wanted := make(map[int32]bool, len(keep))
	for _, v := range keep {
		wanted[v] = true
	}
	out := NewSubstitution()
	for _, v := range s.order {
		if wanted[v] {
			out.order = append(out.order, v)
			out.vals[v] = s.vals[v]
		}
	}
	return out
}

// VariableBinding is a single-pair substitution, used to avoid allocating a
// map for the common single-binding case (§3).
type VariableBinding struct {
	Var   int32
	Value Sentence
}

// ToSubstitution promotes b to a full Substitution.
func (b VariableBinding) ToSubstitution() (Substitution, error) {
	s := NewSubstitution()
	return s.Bind(b.Var, b.Value)
}

// AlphaConversion is a bijection variable -> variable used to rename a
// sentence into fresh variables that cannot collide with another sentence
// (§3).
type AlphaConversion struct {
	mapping map[int32]int32
}

// NewAlphaConversionFresh builds an AlphaConversion mapping every variable
// in vars to a brand-new, globally fresh variable allocated from ctx. Since
// ctx.FreshVariable never repeats a name it has already handed out, the
// result cannot collide with the variables of any other sentence built
// against the same Context.
func NewAlphaConversionFresh(ctx *Context, vars []int32) AlphaConversion {
	m := make(map[int32]int32, len(vars))
	for _, v := range vars {
		m[v] = ctx.FreshVariable().ID
	}
	return AlphaConversion{mapping: m}
}

// Apply renames sent's variables per a.
func (a AlphaConversion) Apply(sent Sentence) Sentence {
	toks := sent.raw()
	out := make([]Token, len(toks))
	for i, t := range toks {
		if t.Kind == VariableToken {
			if nv, ok := a.mapping[t.ID]; ok {
				out[i] = Token{ID: nv, Kind: VariableToken}
				continue
			}
		}
		out[i] = t
	}
	return NewSentence(out)
}

// ApplyRule renames every premise and the conclusion of r per a.
func (a AlphaConversion) ApplyRule(r Rule) Rule {
	premises := make([]Sentence, len(r.Premises))
	for i, p := range r.Premises {
		premises[i] = a.Apply(p)
	}
	return NewRule(premises, a.Apply(r.Conclusion))
}

// RenameDisjoint renames every variable of sent to a fresh variable from
// ctx and returns the renamed sentence along with the renaming used. It is
// the "AlphaConversion" step of the backward prover (§4.6): renaming a
// goal's variables disjoint from the rule about to be tried.
func RenameDisjoint(ctx *Context, sent Sentence) (Sentence, AlphaConversion) {
	ac := NewAlphaConversionFresh(ctx, sent.Variables())
	return ac.Apply(sent), ac
}

// RenameRuleDisjoint renames every variable of r to a fresh variable from
// ctx.
func RenameRuleDisjoint(ctx *Context, r Rule) (Rule, AlphaConversion) {
	varSet := make(map[int32]bool)
	var vars []int32
	for _, s := range allSentences(r) {
		for _, v := range s.Variables() {
			if !varSet[v] {
				varSet[v] = true
				vars = append(vars, v)
			}
		}
	}
	ac := NewAlphaConversionFresh(ctx, vars)
	return ac.ApplyRule(r), ac
}
