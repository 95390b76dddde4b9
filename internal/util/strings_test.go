package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinOrNone(t *testing.T) {
	assert.Equal(t, "(none)", JoinOrNone(nil))
	assert.Equal(t, "(none)", JoinOrNone([]string{}))
	assert.Equal(t, "staging", JoinOrNone([]string{"staging"}))
	assert.Equal(t, "prod, staging", JoinOrNone([]string{"prod", "staging"}))
}

func TestJoinOrDefault(t *testing.T) {
	assert.Equal(t, "no hosts", JoinOrDefault(nil, "no hosts"))
	assert.Equal(t, "", JoinOrDefault([]string{}, ""))
	assert.Equal(t, "10.0.0.1, 10.0.0.2", JoinOrDefault([]string{"10.0.0.1", "10.0.0.2"}, "no hosts"))
}

func TestPluralize(t *testing.T) {
	for count, want := range map[int]string{-1: "issues", 0: "issues", 1: "issue", 2: "issues"} {
		assert.Equal(t, want, Pluralize(count, "issue", "issues"), "count %d", count)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "prod", 4},
		{"prod", "", 4},
		{"deploy", "deploy", 0},
		{"deploy", "deply", 1},
		{"staging", "stagign", 2},
		{"prod", "Prod", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"ünlock", "unlock", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestSuggestSimilar(t *testing.T) {
	candidates := []string{"deploy", "doctor", "unlock", "list", "version", "prod", "staging", "stage"}

	tests := []struct {
		input string
		want  []string
	}{
		{"deply", []string{"deploy"}},
		{"dpeloy", []string{"deploy"}},
		{"unlokc", []string{"unlock"}},
		{"stagin", []string{"staging", "stage"}},
		{"stag", []string{"stage"}},
		{"STAGING", []string{"staging"}},
		{"prd", []string{"prod"}},
		{"xyzzy", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestSimilar(tt.input, candidates, 3))
		})
	}
}

func TestSuggestSimilar_Limits(t *testing.T) {
	assert.Nil(t, SuggestSimilar("prod", nil, 3))
	assert.Nil(t, SuggestSimilar("prod", []string{"prod"}, 0))
	assert.Equal(t, []string{"staging"}, SuggestSimilar("stagin", []string{"stage", "staging"}, 1))
}
