// Package safety screens generated text before it reaches a child.
//
// The policy is deliberately blunt: any match voids the entire reply and a
// fixed per-locale substitute is returned instead. Partial redaction risks
// leaking fragments, so it is never attempted.
package safety

import (
	"log/slog"
	"regexp"

	"github.com/bluehawana/totoyai/internal/language"
)

// Whole-word patterns grouped by policy class: violence/weapons, insults,
// sexual content, substances.
var patternSources = []string{
	`\b(kill|murder|death|die|blood|weapon|gun|knife)\b`,
	`\b(hate|stupid|idiot|dumb)\b`,
	`\b(sex|porn|nude)\b`,
	`\b(drug|alcohol|beer|wine)\b`,
}

// Filter applies the banned-term policy. The compiled pattern list is
// immutable after construction; a single Filter is shared process-wide.
type Filter struct {
	patterns []*regexp.Regexp
}

// New compiles the policy patterns.
func New() *Filter {
	patterns := make([]*regexp.Regexp, 0, len(patternSources))
	for _, src := range patternSources {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+src))
	}
	return &Filter{patterns: patterns}
}

// Unsafe reports whether text matches any banned-term pattern. The matched
// pattern is logged; the text itself never is.
func (f *Filter) Unsafe(text string) bool {
	for _, p := range f.patterns {
		if p.MatchString(text) {
			slog.Warn("inappropriate content detected", "pattern", p.String())
			return true
		}
	}
	return false
}

// Apply returns text unchanged when it is safe, or the per-locale substitute
// sentence when it is not. Applying twice equals applying once.
func (f *Filter) Apply(text, lang string) string {
	if f.Unsafe(text) {
		return language.SafetyFallback(lang)
	}
	return text
}
