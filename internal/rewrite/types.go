package rewrite

import (
	"fmt"
	"strings"
)

// Rule replaces every literal occurrence of Search with Replace.
type Rule struct {
	Search  string
	Replace string
}

// RuleSet is an ordered sequence of rules applied in a single pass.
// Each rule sees the output of the rules before it, so a replacement that
// equals a later search literal is substituted again.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds a RuleSet that applies rules in the given order.
func NewRuleSet(rules ...Rule) (RuleSet, error) {
	for i, rule := range rules {
		if rule.Search == "" {
			return RuleSet{}, fmt.Errorf("rule %d: %w", i, ErrEmptySearch)
		}
	}
	return RuleSet{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns a copy of the rules in application order.
func (s RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len returns the number of rules.
func (s RuleSet) Len() int {
	return len(s.rules)
}

// Apply runs every rule over content in order and returns the result.
func (s RuleSet) Apply(content string) string {
	for _, rule := range s.rules {
		content = strings.ReplaceAll(content, rule.Search, rule.Replace)
	}
	return content
}

// TargetSet is an ordered list of files, relative to the project root,
// that share one rule table.
type TargetSet struct {
	Name  string
	Files []string
}
