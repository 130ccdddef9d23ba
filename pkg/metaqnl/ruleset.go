package metaqnl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-memdb"
)

// RuleTemplate is the bucketing key of a rule: a multiset of premise
// SentenceTemplate keys plus the conclusion's SentenceTemplate key (§3).
// Rules sharing a RuleTemplate are the only ones ever compared for
// generality or anti-unified against each other - structurally
// incompatible rules (different special-symbol shapes) can never be
// related by a single-variable-substitution notion of generality.
type RuleTemplate struct {
	key string
}

// ruleTemplateOf computes r's RuleTemplate: premise template keys sorted
// (since premises are compared up to permutation, §3) and joined, followed
// by the conclusion's template key.
func ruleTemplateOf(r Rule) RuleTemplate {
	keys := make([]string, len(r.Premises))
	for i, p := range r.Premises {
		t, _ := Decompose(p)
		keys[i] = t.Key()
	}
	sort.Strings(keys)
	concTmpl, _ := Decompose(r.Conclusion)
	return RuleTemplate{key: strings.Join(keys, "|") + "#" + concTmpl.Key()}
}

// ruleRecord is the memdb-stored row: an arena slot (ID), its bucket key,
// an alpha/permutation-invariant hash (stored and indexed; the duplicate
// check in containsEquivalent compares rules directly and does not consult
// it), and the rule itself.
type ruleRecord struct {
	ID          int
	TemplateKey string
	Hash        uint64
	Rule        Rule
}

var ruleSetSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"rules": {
			Name: "rules",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"template": {
					Name:    "template",
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "TemplateKey"},
				},
				"hash": {
					Name:    "hash",
					Unique:  false,
					Indexer: &memdb.UintFieldIndex{Field: "Hash"},
				},
			},
		},
	},
}

// IndexedRuleSet is a set of rules bucketed by RuleTemplate with a
// generality DAG over them, incrementally closed under anti-unification
// (§4.4). The bucket index is backed by hashicorp/go-memdb; the DAG itself
// is a plain arena of adjacency lists, since memdb indexes values, not
// edges between them.
type IndexedRuleSet struct {
	ctx    *Context
	db     *memdb.MemDB
	nextID int

	// generality DAG: moreGeneral[a] holds the ids b such that the rule at
	// a is more general than the rule at b (edge a -> b).
	moreGeneral map[int]map[int]bool
	lessGeneral map[int]map[int]bool

	logger hclog.Logger
}

// NewIndexedRuleSet builds an empty rule set over ctx.
func NewIndexedRuleSet(ctx *Context, logger hclog.Logger) (*IndexedRuleSet, error) {
	db, err := memdb.NewMemDB(ruleSetSchema)
	if err != nil {
		return nil, newDomainError(ErrMalformedRule, "", fmt.Sprintf("failed to initialize rule index: %v", err))
	}
	return &IndexedRuleSet{
		ctx:         ctx,
		db:          db,
		moreGeneral: make(map[int]map[int]bool),
		lessGeneral: make(map[int]map[int]bool),
		logger:      namedLogger(logger, "ruleset"),
	}, nil
}

// Len returns the number of rules currently in the set.
func (rs *IndexedRuleSet) Len() int {
	txn := rs.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("rules", "id")
	if err != nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}

// Rules returns every rule currently in the set, in insertion (id) order.
func (rs *IndexedRuleSet) Rules() []Rule {
	txn := rs.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("rules", "id")
	if err != nil {
		return nil
	}
	var recs []ruleRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		recs = append(recs, obj.(ruleRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	out := make([]Rule, len(recs))
	for i, r := range recs {
		out[i] = r.Rule
	}
	return out
}

func (rs *IndexedRuleSet) bucket(key string) []ruleRecord {
	txn := rs.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("rules", "template", key)
	if err != nil {
		return nil
	}
	var out []ruleRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(ruleRecord))
	}
	return out
}

func (rs *IndexedRuleSet) containsEquivalent(candidate Rule) (int, bool) {
	for _, rec := range rs.bucket(ruleTemplateOf(candidate).key) {
		if rec.Rule.Equivalent(candidate) {
			return rec.ID, true
		}
	}
	return 0, false
}

func (rs *IndexedRuleSet) insertRecord(r Rule) int {
	id := rs.nextID
	rs.nextID++
	rec := ruleRecord{ID: id, TemplateKey: ruleTemplateOf(r).key, Hash: r.Hash(), Rule: r}
	txn := rs.db.Txn(true)
	_ = txn.Insert("rules", rec)
	txn.Commit()
	rs.moreGeneral[id] = make(map[int]bool)
	rs.lessGeneral[id] = make(map[int]bool)
	return id
}

func (rs *IndexedRuleSet) addGeneralityEdge(generalID, specificID int) {
	rs.moreGeneral[generalID][specificID] = true
	rs.lessGeneral[specificID][generalID] = true
}

// Insert adds rule into the set and propagates anti-unification to a
// fixed point (§4.4): it buckets rule by RuleTemplate, records generality
// edges against every rule already in the bucket, then repeatedly
// anti-unifies bucket-mates against newly inserted rules, inserting and
// further propagating every anti-unifier accepted by isValidRule
// (nil means Rule.IsValid) that is not already present. isValidRule lets a
// caller restrict propagation beyond mere structural validity (e.g. domain
// acceptability).
func (rs *IndexedRuleSet) Insert(rule Rule, isValidRule func(Rule) bool) error {
	if isValidRule == nil {
		isValidRule = Rule.IsValid
	}
	if !rule.IsValid() {
		return newDomainError(ErrMalformedRule, "", "rule fails validity invariants")
	}
	if _, exists := rs.containsEquivalent(rule); exists {
		rs.logger.Debug("skipping insert of equivalent rule already present")
		return nil
	}

	type queued struct {
		id int
		r  Rule
	}
	firstID := rs.insertForPropagation(rule)
	worklist := []queued{{id: firstID, r: rule}}

	for len(worklist) > 0 {
		cur := worklist[0]
		worklist = worklist[1:]

		bucket := rs.bucket(ruleTemplateOf(cur.r).key)
		for _, existing := range bucket {
			if existing.ID == cur.id {
				continue
			}
			rs.linkGenerality(existing.ID, existing.Rule, cur.id, cur.r)

			for _, au := range AntiUnifyRule(rs.ctx, cur.r, existing.Rule, isValidRule) {
				if _, exists := rs.containsEquivalent(au.General); exists {
					continue
				}
				newID := rs.insertForPropagation(au.General)
				rs.addGeneralityEdge(newID, cur.id)
				rs.addGeneralityEdge(newID, existing.ID)
				worklist = append(worklist, queued{id: newID, r: au.General})
			}
		}
	}
	rs.logger.Debug("rule set propagation settled", "size", rs.Len())
	return nil
}

func (rs *IndexedRuleSet) insertForPropagation(r Rule) int {
	return rs.insertRecord(r)
}

func (rs *IndexedRuleSet) linkGenerality(aID int, a Rule, bID int, b Rule) {
	if IsMoreGeneralRule(rs.ctx, a, b) {
		rs.addGeneralityEdge(aID, bID)
	}
	if IsMoreGeneralRule(rs.ctx, b, a) {
		rs.addGeneralityEdge(bID, aID)
	}
}

// IsAncestor reports whether the rule at ancestorID is reachable from
// descendantID by following generality edges backward (i.e. ancestorID is
// a generalization of descendantID), via breadth-first search (§4.4).
func (rs *IndexedRuleSet) IsAncestor(ancestorID, descendantID int) bool {
	return rs.reaches(rs.lessGeneral, descendantID, ancestorID)
}

// IsDescendant reports whether the rule at descendantID is reachable from
// ancestorID by following generality edges forward.
func (rs *IndexedRuleSet) IsDescendant(ancestorID, descendantID int) bool {
	return rs.reaches(rs.moreGeneral, ancestorID, descendantID)
}

func (rs *IndexedRuleSet) reaches(adj map[int]map[int]bool, from, to int) bool {
	if from == to {
		return true
	}
	seen := map[int]bool{from: true}
	queue := []int{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adj[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
