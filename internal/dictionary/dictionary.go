// Package dictionary applies pronunciation/substitution rules to assignment
// text before TTS rendering (spec §4.1 step 10, rule syntax in §6).
package dictionary

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind distinguishes the three rule syntaxes a line may use.
type RuleKind int

const (
	KindRegex RuleKind = iota
	KindLiteral
	KindToken
)

// Rule is one parsed dictionary line.
type Rule struct {
	Kind        RuleKind
	Pattern     string
	Replacement string
	compiled    *regexp.Regexp
}

var (
	regexRuleRe   = regexp.MustCompile(`^regex"((?:[^"\\]|\\.)*)"="((?:[^"\\]|\\.)*)"$`)
	literalRuleRe = regexp.MustCompile(`^"((?:[^"\\]|\\.)*)"="((?:[^"\\]|\\.)*)"$`)
	tokenRuleRe   = regexp.MustCompile(`^(\S+)=(.*)$`)
)

// ParseRule parses one dictionary line into a Rule. Blank lines and lines
// starting with "#" are comments and return (nil, nil).
func ParseRule(line string, lexxRegister bool) (*Rule, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}

	if m := regexRuleRe.FindStringSubmatch(trimmed); m != nil {
		pattern := m[1]
		replacement := unescapeNewlines(m[2])
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("dictionary: invalid regex rule %q: %w", trimmed, err)
		}
		return &Rule{Kind: KindRegex, Pattern: pattern, Replacement: replacement, compiled: compiled}, nil
	}

	if m := literalRuleRe.FindStringSubmatch(trimmed); m != nil {
		pattern := m[1]
		replacement := m[2]
		flags := ""
		if !lexxRegister {
			flags = "(?i)"
		}
		compiled, err := regexp.Compile(flags + regexp.QuoteMeta(pattern))
		if err != nil {
			return nil, fmt.Errorf("dictionary: invalid literal rule %q: %w", trimmed, err)
		}
		return &Rule{Kind: KindLiteral, Pattern: pattern, Replacement: replacement, compiled: compiled}, nil
	}

	if m := tokenRuleRe.FindStringSubmatch(trimmed); m != nil {
		token := m[1]
		replacement := m[2]
		compiled, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("dictionary: invalid token rule %q: %w", trimmed, err)
		}
		return &Rule{Kind: KindToken, Pattern: token, Replacement: replacement, compiled: compiled}, nil
	}

	return nil, fmt.Errorf("dictionary: unrecognised rule syntax: %q", trimmed)
}

func unescapeNewlines(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\r`, "\r")
	return s
}

// Apply replaces every match of r in text with r's replacement.
func (r *Rule) Apply(text string) string {
	return r.compiled.ReplaceAllString(text, r.Replacement)
}

// Dictionary is an ordered set of parsed rules, applied in file order.
type Dictionary struct {
	rules []*Rule
}

// Parse builds a Dictionary from the rule lines in spec.md §6 syntax.
func Parse(lines []string, lexxRegister bool) (*Dictionary, error) {
	d := &Dictionary{}
	for i, line := range lines {
		rule, err := ParseRule(line, lexxRegister)
		if err != nil {
			return nil, fmt.Errorf("dictionary: line %d: %w", i+1, err)
		}
		if rule != nil {
			d.rules = append(d.rules, rule)
		}
	}
	return d, nil
}

// Apply runs every rule over text in order.
func (d *Dictionary) Apply(text string) string {
	for _, rule := range d.rules {
		text = rule.Apply(text)
	}
	return text
}
