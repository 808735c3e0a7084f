package history

import (
	"regexp"
	"strings"
)

// DefaultLabel prefixes the formatted history when it is handed back to the model.
const DefaultLabel = "Historical Data"

// tokenPattern matches a multiplier such as "1.23x" or "10X", together with
// any dots directly in front of it. The token itself starts with a digit.
var tokenPattern = regexp.MustCompile(`(?i)(\.*)(\d[\d.]*)x`)

// ExtractTokens returns every multiplier token in text, left to right, with the
// trailing x removed. Duplicates are kept; Merge collapses them.
func ExtractTokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var tokens []string
	for _, m := range matches {
		// ".5x" has no integer part and is skipped; an ellipsis as in
		// "...2.00x" is not part of the token.
		if len(m[1]) == 1 {
			continue
		}
		tokens = append(tokens, m[2])
	}
	return tokens
}

// Merge appends the tokens found in text that are not already in prior.
// Existing entries keep their order and equality is exact string equality, so
// "2.0" and "2.00" are distinct. The returned slice never aliases prior.
func Merge(prior []string, text string) ([]string, bool) {
	merged := make([]string, len(prior), len(prior)+4)
	copy(merged, prior)

	seen := make(map[string]struct{}, len(prior))
	for _, v := range prior {
		seen[v] = struct{}{}
	}

	changed := false
	for _, tok := range ExtractTokens(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		merged = append(merged, tok)
		changed = true
	}
	return merged, changed
}

// Format renders values as "<label>: v1x, v2x, ..." for re-injection into a prompt.
func Format(label string, values []string) string {
	var b strings.Builder
	b.WriteString(label)
	b.WriteString(": ")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v)
		b.WriteByte('x')
	}
	return b.String()
}
