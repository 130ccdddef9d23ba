package metaqnl

import "strconv"

// templateEntryKind distinguishes the two kinds of slot in a
// SentenceTemplate: a literal special-symbol token, or a gap standing in
// for a maximal run of words/variables (§3, §4.1).
type templateEntryKind uint8

const (
	templateGap templateEntryKind = iota
	templateSpecial
)

type templateEntry struct {
	kind templateEntryKind
	tok  Token // meaningful only when kind == templateSpecial
}

// SentenceTemplate is the structural skeleton of a sentence: its
// special-symbol tokens in order, with every maximal run of words/
// variables between (or before/after) them collapsed to a gap marker.
// Equal templates are a necessary condition for matching or unifying two
// sentences, and are used as the cheap structural pre-filter both
// operations apply before doing any positional search (§4.1, §4.2).
type SentenceTemplate struct {
	entries []templateEntry
}

// Equal reports whether t and other have the same sequence of gap/special
// slots, with identical special tokens at every special slot.
func (t SentenceTemplate) Equal(other SentenceTemplate) bool {
	if len(t.entries) != len(other.entries) {
		return false
	}
	for i := range t.entries {
		a, b := t.entries[i], other.entries[i]
		if a.kind != b.kind {
			return false
		}
		if a.kind == templateSpecial && a.tok != b.tok {
			return false
		}
	}
	return true
}

// NumGaps reports how many gap slots (maximal word/variable runs) t has.
// Decompose's segment list always has exactly this many entries.
func (t SentenceTemplate) NumGaps() int {
	n := 0
	for _, e := range t.entries {
		if e.kind == templateGap {
			n++
		}
	}
	return n
}

// Key returns a stable string encoding of t suitable for use as a map key
// or index value (IndexedRuleSet buckets rules by a RuleTemplate built from
// these keys, §4.4).
func (t SentenceTemplate) Key() string {
	buf := make([]byte, 0, len(t.entries)*4)
	for _, e := range t.entries {
		if e.kind == templateGap {
			buf = append(buf, 'G', ';')
			continue
		}
		buf = append(buf, 'S')
		buf = strconv.AppendInt(buf, int64(e.tok.ID), 10)
		buf = append(buf, ';')
	}
	return string(buf)
}

// Decompose splits sent into its SentenceTemplate and the list of segments
// (as Sentences, each a maximal run of words/variables) that fill the
// template's gaps, in order. ComposeTemplate(Decompose(sent)) reconstructs
// a sentence identical to sent (§3).
func Decompose(sent Sentence) (SentenceTemplate, []Sentence) {
	toks := sent.raw()
	var entries []templateEntry
	var segments []Sentence
	runStart := -1
	flush := func(end int) {
		if runStart >= 0 {
			entries = append(entries, templateEntry{kind: templateGap})
			segments = append(segments, NewSentence(toks[runStart:end]))
			runStart = -1
		}
	}
	for i, tok := range toks {
		if tok.Kind == SpecialToken {
			flush(i)
			entries = append(entries, templateEntry{kind: templateSpecial, tok: tok})
		} else if runStart < 0 {
			runStart = i
		}
	}
	flush(len(toks))
	return SentenceTemplate{entries: entries}, segments
}

// ComposeTemplate reconstructs a Sentence from a template and its gap
// segments. It is a *DomainError for the number of segments to disagree
// with the template's gap count.
func ComposeTemplate(tmpl SentenceTemplate, segments []Sentence) (Sentence, error) {
	if tmpl.NumGaps() != len(segments) {
		return Sentence{}, newDomainError(ErrMalformedSentence, "",
			"compose: segment count does not match template gap count")
	}
	var toks []Token
	segIdx := 0
	for _, e := range tmpl.entries {
		if e.kind == templateSpecial {
			toks = append(toks, e.tok)
			continue
		}
		toks = append(toks, segments[segIdx].raw()...)
		segIdx++
	}
	return NewSentence(toks), nil
}
