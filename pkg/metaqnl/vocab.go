package metaqnl

import (
	"regexp"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// wordPattern matches admissible word and special-symbol strings: any
// non-empty sequence without whitespace, '[', ']', or '$'.
var wordPattern = regexp.MustCompile(`^[^\s\[\]$]+$`)

// variablePattern matches admissible variable strings: one or more
// uppercase letters.
var variablePattern = regexp.MustCompile(`^[A-Z]+$`)

// VocabularyDomain distinguishes the three process-wide vocabularies a
// Context holds: words, variables, and special symbols. Each enforces its
// own admissibility regex (§3).
type VocabularyDomain uint8

const (
	WordVocabulary VocabularyDomain = iota
	VariableVocabulary
	SpecialVocabulary
)

func (d VocabularyDomain) pattern() *regexp.Regexp {
	if d == VariableVocabulary {
		return variablePattern
	}
	return wordPattern
}

func (d VocabularyDomain) errorKind() ErrorKind {
	if d == VariableVocabulary {
		return ErrInvalidVariableName
	}
	return ErrInvalidWord
}

// Vocabulary is a bijection between strings and positive integers. Ids are
// assigned in interning order starting at 1; id 0 is never assigned and is
// reserved as "no id". Vocabularies are append-only during a run: Intern
// never changes the id of a previously-interned string, and LoadCheckpoint
// only ever extends the current contents.
type Vocabulary struct {
	domain   VocabularyDomain
	byString map[string]int32
	byID     []string // byID[0] is unused filler; real ids start at index 1
	logger   hclog.Logger
}

// NewVocabulary constructs an empty vocabulary for the given domain.
func NewVocabulary(domain VocabularyDomain, logger hclog.Logger) *Vocabulary {
	return &Vocabulary{
		domain:   domain,
		byString: make(map[string]int32),
		byID:     []string{""},
		logger:   namedLogger(logger, "vocab"),
	}
}

// Intern returns the id for s, allocating a new one if s has not been seen
// before. It returns a *DomainError if s does not match the domain's
// admissibility regex.
func (v *Vocabulary) Intern(s string) (int32, error) {
	if !v.domain.pattern().MatchString(s) {
		return 0, newDomainError(v.domain.errorKind(), s, "string does not match vocabulary pattern")
	}
	if id, ok := v.byString[s]; ok {
		return id, nil
	}
	id := int32(len(v.byID))
	v.byID = append(v.byID, s)
	v.byString[s] = id
	return id, nil
}

// MustIntern is like Intern but panics on a malformed string. It is meant
// for seeding well-known, compile-time-constant names (e.g. the A..Z
// variable seed, reserved delimiter symbols).
func (v *Vocabulary) MustIntern(s string) int32 {
	id, err := v.Intern(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the string for id, and whether id is currently assigned.
func (v *Vocabulary) Lookup(id int32) (string, bool) {
	if id <= 0 || int(id) >= len(v.byID) {
		return "", false
	}
	return v.byID[id], true
}

// ID returns the id currently assigned to s, if any, without interning it.
func (v *Vocabulary) ID(s string) (int32, bool) {
	id, ok := v.byString[s]
	return id, ok
}

// Len returns the number of strings currently interned.
func (v *Vocabulary) Len() int {
	return len(v.byID) - 1
}

// strings returns the interned strings in id order, starting at id 1.
func (v *Vocabulary) strings() []string {
	out := make([]string, len(v.byID)-1)
	copy(out, v.byID[1:])
	return out
}

// loadPrefix extends the vocabulary with strs, requiring that the currently
// interned strings be a prefix of strs (the checkpoint contract of §5/§7).
// New entries beyond the current length are interned in order; it is a
// *DomainError for the shared prefix to disagree.
func (v *Vocabulary) loadPrefix(strs []string) error {
	current := v.byID[1:]
	if len(strs) < len(current) {
		return newDomainError(ErrCheckpointConflict, v.domain.name(), "checkpoint is shorter than current vocabulary")
	}
	for i, s := range current {
		if strs[i] != s {
			return newDomainError(ErrCheckpointConflict, strs[i], "checkpoint prefix conflicts with in-memory vocabulary at position "+v.domain.name())
		}
	}
	for _, s := range strs[len(current):] {
		if _, err := v.Intern(s); err != nil {
			return err
		}
	}
	return nil
}

func (d VocabularyDomain) name() string {
	switch d {
	case WordVocabulary:
		return "word"
	case VariableVocabulary:
		return "variable"
	case SpecialVocabulary:
		return "special"
	default:
		return "unknown"
	}
}

// letterSeed lists the single-letter variable names pre-seeded into every
// variable vocabulary so single-letter variables have stable ids across
// runs and checkpoints (§3).
var letterSeed = func() []string {
	out := make([]string, 26)
	for i := 0; i < 26; i++ {
		out[i] = string(rune('A' + i))
	}
	return out
}()

// Context bundles the three process-wide vocabularies (words, variables,
// special symbols) plus the reserved delimiter special symbol used to join
// rule premises and conclusion into one sentence for rule-level matching
// and anti-unification (§4.1, §4.3). It is the explicit context object the
// design notes call for in place of implicit globals: every constructor in
// this package that needs to intern or look up a token takes a *Context.
type Context struct {
	Words     *Vocabulary
	Variables *Vocabulary
	Specials  *Vocabulary

	// Delimiter is a reserved special-symbol token never produced by
	// parsing user input; it separates rule components when a rule is
	// flattened into a single sentence for matching/anti-unification.
	Delimiter Token

	logger       hclog.Logger
	freshCounter int64
}

// NewContext constructs a fresh Context with empty word/special
// vocabularies, a variable vocabulary pre-seeded with A..Z, and a reserved
// delimiter special symbol.
func NewContext(logger hclog.Logger) *Context {
	logger = namedLogger(logger, "context")
	words := NewVocabulary(WordVocabulary, logger)
	variables := NewVocabulary(VariableVocabulary, logger)
	specials := NewVocabulary(SpecialVocabulary, logger)
	for _, name := range letterSeed {
		variables.MustIntern(name)
	}
	delimID := specials.MustIntern("RULE_SEP")
	return &Context{
		Words:     words,
		Variables: variables,
		Specials:  specials,
		Delimiter: Token{ID: delimID, Kind: SpecialToken},
		logger:    logger,
	}
}

// defaultContext is the optional process-wide convenience context: the
// design notes permit convenience factories that carry an injected default
// context, so long as it is never implicit in the exported API (every
// exported constructor still accepts a *Context explicitly).
var defaultContext = NewContext(nil)

// DefaultContext returns the package's shared convenience context. Use it
// only from tests and small examples; production callers should construct
// and own their own Context.
func DefaultContext() *Context {
	return defaultContext
}

// FreshVariable allocates a variable token whose name has not been returned
// before by this Context and is not among the A..Z seed (it is generated by
// a bijective base-26 counter, e.g. AA, AB, ..., so it always matches the
// variable vocabulary's [A-Z]+ pattern). Per §9's open question on
// `num_dummy_vars`/`d_`-prefixed names, fresh synthetic names are
// constructed purely from uppercase letters and can never collide with a
// user-supplied name beginning with a non-letter prefix; callers must still
// not hand-author variable names that collide with a fresh name already in
// use within the same sentence.
func (c *Context) FreshVariable() Token {
	for {
		c.freshCounter++
		name := bijectiveBase26(c.freshCounter + 26) // skip past the single-letter seed range
		if _, exists := c.Variables.ID(name); !exists {
			id := c.Variables.MustIntern(name)
			return Token{ID: id, Kind: VariableToken}
		}
	}
}

// bijectiveBase26 renders n (n >= 1) as a bijective base-26 numeral over
// 'A'..'Z', so 1 -> "A", 26 -> "Z", 27 -> "AA", 28 -> "AB", etc. It never
// produces the empty string and every digit is a letter, so the result
// always matches the variable vocabulary's admissibility pattern.
func bijectiveBase26(n int64) string {
	if n <= 0 {
		n = 1
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{byte('A' + n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}

// VocabularyCheckpoint is a persistent snapshot of a Context's three
// vocabularies, in id order starting from 1 (§6). It is the only thing this
// package persists.
type VocabularyCheckpoint struct {
	Words     []string
	Variables []string
	Specials  []string
}

// Checkpoint snapshots c's current vocabularies.
func (c *Context) Checkpoint() VocabularyCheckpoint {
	return VocabularyCheckpoint{
		Words:     c.Words.strings(),
		Variables: c.Variables.strings(),
		Specials:  c.Specials.strings(),
	}
}

// LoadCheckpoint extends c's vocabularies with cp, refusing to overwrite a
// prefix that conflicts with the in-memory vocabulary (§5, §7). On
// conflict, the returned error aggregates every vocabulary that disagreed
// via go-multierror, so a caller debugging a stale checkpoint sees every
// conflicting domain in one report rather than only the first.
func (c *Context) LoadCheckpoint(cp VocabularyCheckpoint) error {
	var errs *multierror.Error
	if err := c.Words.loadPrefix(cp.Words); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Variables.loadPrefix(cp.Variables); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := c.Specials.loadPrefix(cp.Specials); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		c.logger.Error("refusing conflicting vocabulary checkpoint", "error", err)
		return err
	}
	c.logger.Info("loaded vocabulary checkpoint",
		"words", len(cp.Words), "variables", len(cp.Variables), "specials", len(cp.Specials))
	return nil
}
