package bridge

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Conventional bridge suffixes, combined with the invoker's prefix
const (
	SuffixBase     = "Base"
	SuffixMenu     = "Menu"
	SuffixValidate = "Validate"
	SuffixPaging   = "Paging"
	SuffixError    = "Error"
)

// Identifier turns a slash separated path into a bridge identifier:
// "/admin/users/list" becomes "AdminUsersList".
func Identifier(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimRight(p, "/")

	var sb strings.Builder
	for _, segment := range strings.Split(p, "/") {
		sb.WriteString(upperFirst(segment))
	}
	return sb.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ConditionEvaluator evaluates boolean expressions for prefix rules
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error)
}

// PrefixRule maps invokers to a common bridge prefix. A rule matches when
// Match is a substring of the invoker or when Condition evaluates to true.
// An empty Prefix is derived from Match ("/admin/" gives "Admin").
type PrefixRule struct {
	Match     string `yaml:"match"`
	Prefix    string `yaml:"prefix"`
	Condition string `yaml:"condition"`
}

// DefaultPrefixRules gives scripts under /admin/ the "Admin" prefix
func DefaultPrefixRules() []PrefixRule {
	return []PrefixRule{{Match: "/admin/"}}
}

// ParsePrefixRule parses the "match[=Prefix]" form used in configuration
func ParsePrefixRule(s string) PrefixRule {
	match, prefix, _ := strings.Cut(strings.TrimSpace(s), "=")
	return PrefixRule{
		Match:  strings.TrimSpace(match),
		Prefix: strings.TrimSpace(prefix),
	}
}

// ParsePrefixRules parses several "match[=Prefix]" entries, skipping blanks
func ParsePrefixRules(entries []string) []PrefixRule {
	rules := make([]PrefixRule, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		rules = append(rules, ParsePrefixRule(entry))
	}
	return rules
}

// Name returns the prefix the rule assigns
func (r PrefixRule) Name() string {
	if r.Prefix != "" {
		return r.Prefix
	}
	return Identifier(r.Match)
}

func (r PrefixRule) validate(ev ConditionEvaluator) error {
	if r.Match == "" && r.Condition == "" {
		return fmt.Errorf("%w: prefix rule needs a match or a condition", ErrConfiguration)
	}
	if r.Condition != "" && ev == nil {
		return fmt.Errorf("%w: prefix rule condition %q needs an evaluator", ErrConfiguration, r.Condition)
	}
	return nil
}

func (r PrefixRule) matches(ctx context.Context, ev ConditionEvaluator, invoker, script string) (bool, error) {
	if r.Match != "" && strings.Contains(invoker, r.Match) {
		return true, nil
	}
	if r.Condition == "" {
		return false, nil
	}

	result, err := ev.Evaluate(ctx, r.Condition, map[string]interface{}{
		"invoker": invoker,
		"script":  script,
	})
	if err != nil {
		return false, fmt.Errorf("%w: prefix rule %q: %v", ErrConfiguration, r.Condition, err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: prefix rule %q returned %T, want bool", ErrConfiguration, r.Condition, result)
	}
	return matched, nil
}

// resolvePrefix returns the prefix of the first matching rule, or ""
func resolvePrefix(ctx context.Context, rules []PrefixRule, ev ConditionEvaluator, invoker, script string) (string, error) {
	for _, rule := range rules {
		if err := rule.validate(ev); err != nil {
			return "", err
		}
		matched, err := rule.matches(ctx, ev, invoker, script)
		if err != nil {
			return "", err
		}
		if matched {
			return rule.Name(), nil
		}
	}
	return "", nil
}
