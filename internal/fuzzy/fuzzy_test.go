package fuzzy

import (
	"math"
	"testing"
)

func TestMatchSubsequence(t *testing.T) {
	tests := []struct {
		text    string
		pattern string
		want    bool
	}{
		{"Deploying to Production", "dtp", true},
		{"Deploying to Production", "deploy", true},
		{"abc", "acb", false},
		{"a_b_c", "abc", true},
		{"PYTHON", "python", true},
		{"short", "longerpattern", false},
		{"", "a", false},
		{"a", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Match(tt.text, tt.pattern); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.text, tt.pattern, got, tt.want)
		}
	}
}

func TestSimilaritySubstringFloor(t *testing.T) {
	got := Similarity("Python Deployment Guide", "deploy")
	if got < 0.8 {
		t.Errorf("substring match scored %f, want >= 0.8", got)
	}
	if got > 1 {
		t.Errorf("score %f out of range", got)
	}
}

func TestSimilarityExactMatch(t *testing.T) {
	if got := Similarity("intro", "intro"); got != 1.0 {
		t.Errorf("identical strings scored %f, want 1.0", got)
	}
	// Case-insensitive exact match covers the whole text: 0.8 + 1*0.2 = 1.
	if got := Similarity("Intro", "INTRO"); got != 1.0 {
		t.Errorf("case-insensitive identical strings scored %f, want 1.0", got)
	}
}

func TestSimilarityEditDistance(t *testing.T) {
	// levenshtein("kitten","sitting") = 3, maxLen = 7.
	got := Similarity("kitten", "sitting")
	want := 1.0 - 3.0/7.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity(kitten, sitting) = %f, want %f", got, want)
	}
}

func TestSimilarityEmptyInputs(t *testing.T) {
	if got := Similarity("", "abc"); got != 0 {
		t.Errorf("empty text scored %f, want 0", got)
	}
	if got := Similarity("abc", ""); got != 0 {
		t.Errorf("empty pattern scored %f, want 0", got)
	}
}

func TestSimilarityRange(t *testing.T) {
	pairs := [][2]string{
		{"completely", "different"},
		{"a", "zzzzzzzzzz"},
		{"文档搜索", "搜索"},
		{"short", "muchlongerpatternthantext"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"same", "same", 0},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
