package record

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalFlexible attempts to unmarshal JSON into the target with multiple
// fallback strategies: standard unmarshaling first, then double-encoded JSON
// strings, then repair of malformed JSON.
//
// Extraction columns are LLM-generated and arrive wrapped in stray quotes,
// double-encoded, or with broken syntax, so the strict path alone rejects a
// large share of otherwise usable rows.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	input = stripOuterQuotes(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = stripOuterQuotes(strings.TrimSpace(asString))
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w", err)
	}

	return nil
}

// stripOuterQuotes removes a single pair of wrapping single quotes, which
// some extraction runs emit around entire JSON payloads.
func stripOuterQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
