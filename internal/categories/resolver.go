// Package categories maps debit memos to expense categories by keyword.
package categories

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/textutil"
)

// RulesFile is the rules path relative to a workspace root.
const RulesFile = "rules/categorization-rules.csv"

type compiledRule struct {
	keyword  string
	category string
	priority int
}

// Resolver picks the category for a memo. Rules are tried by descending
// priority, then file order; keywords match as case- and accent-insensitive
// substrings.
type Resolver struct {
	rules    []compiledRule
	fallback string
}

// NewResolver creates a Resolver. An empty fallback means DefaultCategory.
func NewResolver(rules []model.CategoryRule, fallback string) *Resolver {
	if fallback == "" {
		fallback = DefaultCategory
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		kw := textutil.Fold(r.Keyword)
		if kw == "" {
			continue
		}
		compiled = append(compiled, compiledRule{
			keyword:  kw,
			category: strings.TrimSpace(r.CategoryName),
			priority: r.Priority,
		})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].priority > compiled[j].priority
	})
	return &Resolver{rules: compiled, fallback: fallback}
}

// Resolve returns the category name for memo.
func (r *Resolver) Resolve(memo string) string {
	folded := textutil.Fold(memo)
	for _, rule := range r.rules {
		if strings.Contains(folded, rule.keyword) {
			return rule.category
		}
	}
	return r.fallback
}

// Fallback returns the category used when no rule matches.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Len returns the number of active rules.
func (r *Resolver) Len() int {
	return len(r.rules)
}

// Load reads the rules file under root.
func Load(root string) ([]model.CategoryRule, error) {
	f, err := os.Open(filepath.Join(root, RulesFile))
	if err != nil {
		return nil, fmt.Errorf("opening categorization rules: %w", err)
	}
	defer f.Close()

	rules, err := ReadRules(f)
	if err != nil {
		return nil, fmt.Errorf("reading categorization rules: %w", err)
	}
	return rules, nil
}

// Save writes rules to the rules file under root.
func Save(root string, rules []model.CategoryRule) error {
	path := filepath.Join(root, RulesFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating rules file: %w", err)
	}
	defer f.Close()

	if err := WriteRules(f, rules); err != nil {
		return fmt.Errorf("writing categorization rules: %w", err)
	}
	return nil
}
