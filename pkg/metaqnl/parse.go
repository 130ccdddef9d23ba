package metaqnl

import (
	"strings"
)

// ParseSentence parses the sentence string syntax of §6: whitespace-
// separated tokens, where a word is any non-empty run of characters not
// containing whitespace, '[', ']', or '$'; a variable is "[NAME]" with NAME
// matching [A-Z]+; and a special symbol is "$NAME$" with NAME a word-like
// identifier. An empty or all-whitespace string parses to the empty
// sentence.
func ParseSentence(ctx *Context, s string) (Sentence, error) {
	fields := strings.Fields(s)
	toks := make([]Token, 0, len(fields))
	for _, f := range fields {
		tok, err := parseToken(ctx, f)
		if err != nil {
			return Sentence{}, err
		}
		toks = append(toks, tok)
	}
	return NewSentence(toks), nil
}

func parseToken(ctx *Context, f string) (Token, error) {
	switch {
	case len(f) >= 2 && strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]"):
		name := f[1 : len(f)-1]
		id, err := ctx.Variables.Intern(name)
		if err != nil {
			return Token{}, newDomainError(ErrInvalidVariableName, f, "variable name must match [A-Z]+")
		}
		return Token{ID: id, Kind: VariableToken}, nil
	case len(f) >= 3 && strings.HasPrefix(f, "$") && strings.HasSuffix(f, "$"):
		name := f[1 : len(f)-1]
		id, err := ctx.Specials.Intern(name)
		if err != nil {
			return Token{}, newDomainError(ErrInvalidWord, f, "special symbol name is malformed")
		}
		if id == ctx.Delimiter.ID {
			return Token{}, newDomainError(ErrInvalidWord, f, "special symbol name is reserved")
		}
		return Token{ID: id, Kind: SpecialToken}, nil
	default:
		id, err := ctx.Words.Intern(f)
		if err != nil {
			return Token{}, newDomainError(ErrInvalidWord, f, "word contains '[', ']', or '$'")
		}
		return Token{ID: id, Kind: WordToken}, nil
	}
}

// SprintSentence renders sent back into the string syntax of §6.
func SprintSentence(ctx *Context, sent Sentence) string {
	toks := sent.raw()
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String(ctx)
	}
	return strings.Join(parts, " ")
}

// ruleSeparator is the literal line that separates a rule's premises from
// its conclusion in the rule string syntax (§6).
const ruleSeparator = "---"

// ParseRule parses the rule string syntax of §6: zero or more premise
// lines, a line containing exactly "---", and exactly one conclusion line.
// Blank lines among the premises are ignored; it is a *DomainError for the
// separator to be missing, or for there to be zero or more than one
// non-blank conclusion line.
func ParseRule(ctx *Context, text string) (Rule, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	sepIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == ruleSeparator {
			sepIdx = i
			break
		}
	}
	if sepIdx == -1 {
		return Rule{}, newDomainError(ErrMalformedRule, text, "rule is missing the '---' separator line")
	}

	var premises []Sentence
	for _, line := range lines[:sepIdx] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := ParseSentence(ctx, line)
		if err != nil {
			return Rule{}, err
		}
		premises = append(premises, s)
	}

	var conclusionLines []string
	for _, line := range lines[sepIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		conclusionLines = append(conclusionLines, line)
	}
	if len(conclusionLines) != 1 {
		return Rule{}, newDomainError(ErrMalformedRule, text,
			"rule must have exactly one non-blank conclusion line")
	}
	conclusion, err := ParseSentence(ctx, conclusionLines[0])
	if err != nil {
		return Rule{}, err
	}

	return NewRule(premises, conclusion), nil
}
