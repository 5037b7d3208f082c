package resolve

import (
	"regexp"
	"strings"
)

var reParenthetical = regexp.MustCompile(`\(([^)]+)\)`)

// ExtractAbbreviation detects an inline abbreviation definition in a party
// mention, e.g. "Global Positioning System (GPS)". It returns the mention
// with the parenthetical removed, the abbreviation, and the full form it
// stands for. ok is false when no convincing definition is present.
//
// A parenthetical counts as a definition only when its letters match the
// initials of the adjacent words, so "(see below)" style asides are ignored.
func ExtractAbbreviation(text string) (cleaned, abbr, full string, ok bool) {
	matches := reParenthetical.FindAllStringSubmatch(text, -1)
	if len(matches) != 1 {
		return text, "", "", false
	}

	inner := strings.TrimSpace(matches[0][1])
	if inner == "" || strings.Contains(inner, " ") {
		return text, "", "", false
	}

	open := strings.Index(text, "(")
	closing := strings.Index(text, ")")
	before := strings.Fields(text[:open])
	after := strings.Fields(text[closing+1:])

	n := len([]rune(inner))

	if len(before) >= n && initialsMatch(before[len(before)-n:], inner) {
		full = strings.Join(before[len(before)-n:], " ")
	} else if len(after) >= n && initialsMatch(after[:n], inner) {
		full = strings.Join(after[:n], " ")
	} else {
		return text, "", "", false
	}

	cleaned = NormalizeSpace(strings.Join(append(append([]string{}, before...), after...), " "))
	return cleaned, inner, full, true
}

func initialsMatch(words []string, abbr string) bool {
	runes := []rune(strings.ToLower(abbr))
	if len(words) != len(runes) {
		return false
	}
	for i, w := range words {
		if w == "" {
			return false
		}
		first := []rune(strings.ToLower(w))[0]
		if first != runes[i] {
			return false
		}
	}
	return true
}
