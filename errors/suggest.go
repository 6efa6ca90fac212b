package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion represents a suggested correction with its edit distance.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar finds candidates close to target, closest first.
// Short targets tolerate fewer edits.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	target = strings.ToLower(target)
	threshold := 3
	switch {
	case len(target) <= 3:
		threshold = 1
	case len(target) <= 5:
		threshold = 2
	}

	var suggestions []Suggestion
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if candidate == "" || lower == target {
			continue
		}
		if dist := editDistance(target, lower); dist <= threshold {
			suggestions = append(suggestions, Suggestion{Value: candidate, Distance: dist})
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		return suggestions[i].Value < suggestions[j].Value
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// FormatSuggestions formats suggestions as a user-friendly string.
// Returns empty string if no suggestions.
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean '" + suggestions[0].Value + "'?"
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = "'" + s.Value + "'"
	}
	return "did you mean one of: " + strings.Join(quoted, ", ") + "?"
}

// editDistance is the Levenshtein distance between two ASCII strings,
// computed with two rows.
func editDistance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}
