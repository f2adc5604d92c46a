// Package fuzzy implements the search-filter string matching used by the
// docs search page: a subsequence match for quick filtering and a
// levenshtein-based similarity score for ranked fuzzy mode.
package fuzzy

import "strings"

// Match reports whether every character of pattern appears in text in
// order (not necessarily contiguous), case-insensitively. Empty inputs
// never match.
func Match(text, pattern string) bool {
	if text == "" || pattern == "" {
		return false
	}
	t := []rune(strings.ToLower(text))
	p := []rune(strings.ToLower(pattern))

	pi := 0
	for ti := 0; pi < len(p) && ti < len(t); ti++ {
		if p[pi] == t[ti] {
			pi++
		}
	}
	return pi == len(p)
}

// Similarity scores pattern against text in [0,1], case-insensitively.
// A substring match scores at least 0.8, boosted by the fraction of text
// the pattern covers. Otherwise the score is 1 minus the normalized edit
// distance. Empty inputs score 0; identical strings score 1.
func Similarity(text, pattern string) float64 {
	if text == "" || pattern == "" {
		return 0
	}
	t := strings.ToLower(text)
	p := strings.ToLower(pattern)

	if strings.Contains(t, p) {
		tl := len([]rune(t))
		pl := len([]rune(p))
		boost := 0.8 + float64(pl)/float64(max(tl, 1))*0.2
		return min(1, boost)
	}

	tr := []rune(t)
	pr := []rune(p)
	maxLen := max(len(tr), len(pr))
	if maxLen == 0 {
		return 1
	}
	score := 1 - float64(levenshtein(tr, pr))/float64(maxLen)
	return min(1, max(0, score))
}

// levenshtein computes the edit distance between two rune slices with
// unit insert/delete/substitute costs, full-matrix DP.
func levenshtein(a, b []rune) int {
	rows := len(a) + 1
	cols := len(b) + 1

	d := make([][]int, rows)
	for i := range d {
		d[i] = make([]int, cols)
		d[i][0] = i
	}
	for j := 1; j < cols; j++ {
		d[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[i][j] = min(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}
	return d[rows-1][cols-1]
}
