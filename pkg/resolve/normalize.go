package resolve

import (
	"regexp"
	"strings"
)

// Words that must never be singularized or used as merge evidence.
// Inherited from the extraction pipeline's exclusion list.
var singularizeExclusions = map[string]struct{}{
	"our": {}, "we": {}, "us": {}, "they": {}, "them": {},
	"data": {}, "address": {}, "as": {}, "are": {}, "is": {},
	"whether": {}, "another": {}, "have": {}, "has": {}, "the": {},
	"this": {}, "analytics": {}, "news": {}, "business": {},
}

var reDigitsOrSymbols = regexp.MustCompile(`\d|[&+]`)

// NormalizeSpace trims and collapses internal whitespace runs.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeKey produces the case-folded comparison key for a party mention:
// whitespace collapsed, lowercased, leading articles dropped, plural nouns
// singularized. Display names are never rewritten; only keys are.
func normalizeKey(s string) string {
	s = strings.ToLower(NormalizeSpace(s))

	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for i, w := range words {
		if i == 0 && (w == "the" || w == "a" || w == "an") && len(words) > 1 {
			continue
		}
		w = strings.TrimRight(w, ".,;:")
		if w == "" {
			continue
		}
		out = append(out, singularizeWord(w))
	}
	return strings.Join(out, " ")
}

// singularizeWord strips a simple plural suffix. Abbreviations and the
// exclusion list pass through untouched. This is deliberately conservative;
// irregular plurals are left alone.
func singularizeWord(w string) string {
	if _, excluded := singularizeExclusions[w]; excluded {
		return w
	}
	if IsAbbreviation(w) {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "shes") || strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is") && len(w) > 3:
		return w[:len(w)-1]
	}
	return w
}

// IsAbbreviation detects likely acronyms and abbreviations: fully uppercase
// tokens (GPS), tokens with digits or special characters (4G, R&D, C++),
// and possessives.
func IsAbbreviation(word string) bool {
	if word == "" {
		return false
	}
	if word == strings.ToUpper(word) && word != strings.ToLower(word) {
		return true
	}
	if reDigitsOrSymbols.MatchString(word) {
		return true
	}
	return strings.HasSuffix(word, "'s")
}

// tokenContainment reports whether one key's tokens form a contiguous prefix
// or suffix of the other's ("acme" vs "acme inc"). This is the fuzzy-merge
// rule; it trades precision for recall and can over-merge organizations that
// share a common token, which callers accept as a documented heuristic.
func tokenContainment(a, b string) bool {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	short, long := ta, tb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return false
	}

	// Single generic tokens ("company", "service") match too many
	// organizations to be safe merge evidence.
	if len(short) == 1 {
		if _, generic := genericTokens[short[0]]; generic {
			return false
		}
	}

	if equalTokens(long[:len(short)], short) {
		return true
	}
	return equalTokens(long[len(long)-len(short):], short)
}

var genericTokens = map[string]struct{}{
	"company": {}, "service": {}, "provider": {}, "partner": {},
	"website": {}, "platform": {}, "organization": {}, "organisation": {},
	"party": {}, "vendor": {}, "app": {}, "site": {},
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
