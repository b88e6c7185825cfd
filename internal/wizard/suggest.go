package wizard

// suggest.go ranks destination columns as candidates for an unmapped
// source column. This is a manual assist invoked explicitly from the UI;
// reconciliation never calls it, so an automatic mapping is always an
// exact name match or nothing.

import (
	"sort"
	"strings"
)

// Suggestion is one ranked candidate for a manual mapping.
type Suggestion struct {
	Column string  `json:"column"`
	Score  float64 `json:"score"`
}

// suggestionCutoff is the minimum similarity worth showing.
const suggestionCutoff = 0.5

// maxSuggestions bounds the returned list.
const maxSuggestions = 3

// SuggestDestination ranks dest columns by name similarity to name.
// Normalized-equal names score 1.0; otherwise the score is edit-distance
// similarity over the normalized names. Results below the cutoff are
// dropped and at most three are returned, best first.
func SuggestDestination(name string, dest []TableColumn) []Suggestion {
	src := normalizeName(name)
	if src == "" {
		return nil
	}

	var out []Suggestion
	for _, d := range dest {
		cand := normalizeName(d.Name)
		var score float64
		switch {
		case cand == src:
			score = 1.0
		case strings.Contains(cand, src) || strings.Contains(src, cand):
			score = 0.8
		default:
			score = similarity(src, cand)
		}
		if score >= suggestionCutoff {
			out = append(out, Suggestion{Column: d.Name, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// normalizeName lowercases and strips everything but letters and digits,
// so "Created At", "created_at" and "createdAt" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)).
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes the edit distance between two ASCII-normalized
// strings with two rows of the distance matrix.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
