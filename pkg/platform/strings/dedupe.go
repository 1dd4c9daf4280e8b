// Package strings holds small string-slice helpers shared by config parsing
// and wire decoding.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping
// first-seen order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SplitList splits a separated list such as "a, b,,a" into its distinct
// non-empty elements. An empty input yields nil.
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(s, sep))
}
