// Package util holds small string and shell helpers shared by the commands.
package util

import (
	"sort"
	"strings"
)

// JoinOrNone is JoinOrDefault with "(none)".
func JoinOrNone(items []string) string {
	return JoinOrDefault(items, "(none)")
}

// JoinOrDefault joins strings with ", " or returns the default value for empty slices.
func JoinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// maxSuggestDistance is the largest edit distance SuggestSimilar accepts.
const maxSuggestDistance = 2

// LevenshteinDistance returns the number of single-rune edits needed to turn
// a into b. Comparison is case-sensitive.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// SuggestSimilar returns up to limit candidates within a small edit distance
// of input, closest first. Case is ignored. Returns nil when nothing is close.
func SuggestSimilar(input string, candidates []string, limit int) []string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(candidates) == 0 || limit <= 0 {
		return nil
	}

	type match struct {
		name string
		dist int
	}
	var matches []match
	for _, c := range candidates {
		if d := LevenshteinDistance(input, strings.ToLower(c)); d <= maxSuggestDistance {
			matches = append(matches, match{c, d})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
