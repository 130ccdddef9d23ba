/*
Metaqnl-repl is a small interactive front-end over the backward prover of
pkg/metaqnl.

It loads a rule file and an assumption file (sentence-string syntax, §6 of
the reasoning core's design), then either proves a single goal given on the
command line or drops into an interactive loop reading goals from stdin
until "QUIT" is entered.

Usage:

	metaqnl-repl [flags]

The flags are:

	-r, --rules FILE
		Weighted rule file. Each rule is a paragraph: a weight on its own
		line, followed by the rule's premises (if any), a line containing
		"---", and its conclusion. Paragraphs are separated by a blank line.

	-a, --assumptions FILE
		One assumption sentence per line; blank lines are ignored.

	-g, --goal SENTENCE
		Prove this single goal and exit instead of starting the interactive
		loop.

	-b, --budget FLOAT
		Weight budget handed to the backward prover. Defaults to the
		configured EngineConfig.DefaultWeightBudget.

	-d, --depth INT
		Depth limit handed to every internal Unify call. Defaults to the
		configured EngineConfig.UnifyDepthLimit.

	-c, --config FILE
		Optional TOML EngineConfig file (see pkg/metaqnl.LoadEngineConfig).

	-o, --on-the-fly
		Allow the prover to propose a concrete goal as its own zero-premise
		rule; this proposal is tried first, before the goal's other proofs
		are searched.

Once started interactively, type a goal sentence and press enter to see its
proof paths. Type "QUIT" to exit.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/princeton-vl/MetaQNL/pkg/metaqnl"
)

const (
	exitLoadError = iota + 1
	exitProverError
)

var (
	rulesFile   = pflag.StringP("rules", "r", "", "weighted rule file")
	assumptFile = pflag.StringP("assumptions", "a", "", "assumption sentence file")
	goalText    = pflag.StringP("goal", "g", "", "prove this goal and exit")
	budget      = pflag.Float64P("budget", "b", -1, "weight budget (defaults to config)")
	depth       = pflag.IntP("depth", "d", -1, "unify depth limit (defaults to config)")
	configFile  = pflag.StringP("config", "c", "", "optional EngineConfig TOML file")
	onTheFly    = pflag.BoolP("on-the-fly", "o", false, "allow on-the-fly zero-premise proposals")
)

func main() {
	pflag.Parse()

	cfg := metaqnl.DefaultEngineConfig()
	if *configFile != "" {
		loaded, err := metaqnl.LoadEngineConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: loading config: %s\n", err)
			os.Exit(exitLoadError)
		}
		cfg = loaded
	}
	if *budget >= 0 {
		cfg.DefaultWeightBudget = *budget
	}
	if *depth >= 0 {
		cfg.UnifyDepthLimit = *depth
	}

	logger := hclog.New(&hclog.LoggerOptions{Name: "metaqnl-repl", Level: hclog.Warn})
	ctx := metaqnl.NewContext(logger)

	rules, err := loadRules(ctx, *rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: loading rules: %s\n", err)
		os.Exit(exitLoadError)
	}
	assumptions, err := loadAssumptions(ctx, *assumptFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: loading assumptions: %s\n", err)
		os.Exit(exitLoadError)
	}

	prover, err := metaqnl.NewBackwardProver(ctx, assumptions, rules, cfg.UnifyDepthLimit, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: building prover: %s\n", err)
		os.Exit(exitProverError)
	}

	if *goalText != "" {
		if err := proveAndPrint(ctx, prover, *goalText, cfg.DefaultWeightBudget, *onTheFly); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			os.Exit(exitProverError)
		}
		return
	}

	runInteractive(ctx, prover, cfg.DefaultWeightBudget, *onTheFly)
}

// loadRules reads path as a sequence of blank-line-separated paragraphs,
// each a weight line followed by §6 rule-string syntax. An empty path
// loads no rules.
func loadRules(ctx *metaqnl.Context, path string) ([]metaqnl.WeightedRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []metaqnl.WeightedRule
	for _, block := range strings.Split(string(data), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.SplitN(block, "\n", 2)
		if len(lines) != 2 {
			return nil, fmt.Errorf("malformed rule block (missing weight or body): %q", block)
		}
		var weight float64
		if _, err := fmt.Sscanf(strings.TrimSpace(lines[0]), "%g", &weight); err != nil {
			return nil, fmt.Errorf("malformed weight %q: %w", lines[0], err)
		}
		rule, err := metaqnl.ParseRule(ctx, lines[1])
		if err != nil {
			return nil, err
		}
		rules = append(rules, metaqnl.WeightedRule{Rule: rule, Weight: weight})
	}
	return rules, nil
}

// loadAssumptions reads path as one sentence per line, blank lines ignored.
// An empty path loads no assumptions.
func loadAssumptions(ctx *metaqnl.Context, path string) ([]metaqnl.Sentence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []metaqnl.Sentence
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s, err := metaqnl.ParseSentence(ctx, line)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// proveAndPrint parses goalStr, runs prover.Prove, and prints each answer
// substitution along with its proof paths.
func proveAndPrint(ctx *metaqnl.Context, prover *metaqnl.BackwardProver, goalStr string, weightLimit float64, onTheFlyProposal bool) error {
	goal, err := metaqnl.ParseSentence(ctx, goalStr)
	if err != nil {
		return err
	}
	results := prover.Prove(goal, weightLimit, onTheFlyProposal)
	if len(results) == 0 {
		fmt.Println("no proof found")
		return nil
	}
	for i, r := range results {
		fmt.Printf("answer %d (depth %d):\n", i+1, r.Depth)
		for _, v := range r.Substitution.Variables() {
			val, _ := r.Substitution.Get(v)
			name, _ := ctx.Variables.Lookup(v)
			fmt.Printf("  [%s] = %s\n", name, metaqnl.SprintSentence(ctx, val))
		}
		for j, path := range r.ProofPaths {
			fmt.Printf("  proof path %d:\n", j+1)
			for _, rule := range path.Rules() {
				fmt.Printf("    %s\n", strings.ReplaceAll(rule.String(ctx), "\n", "; "))
			}
		}
	}
	return nil
}

// runInteractive reads goal sentences from stdin via readline until "QUIT"
// is entered, printing each goal's proof paths as it goes.
func runInteractive(ctx *metaqnl.Context, prover *metaqnl.BackwardProver, weightLimit float64, onTheFlyProposal bool) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "metaqnl> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: starting readline: %s\n", err)
		os.Exit(exitLoadError)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return
		}
		if err := proveAndPrint(ctx, prover, line, weightLimit, onTheFlyProposal); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		}
	}
}
