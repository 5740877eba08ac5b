package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"a", "food", "utilities", "hello world", "日本語"} {
		assert.Equal(t, 1.0, Similarity(s, s), "similarity(%q, %q)", s, s)
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"food", "fuel"},
		{"groceries", "food"},
		{"abc", "xyz"},
		{"", "food"},
		{"utilities", "utility"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity(%q, %q) should be symmetric", p[0], p[1])
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"food", "fuel"},
		{"aaaa", "b"},
		{"grocceries", "food"},
	}
	for _, p := range pairs {
		score := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestSimilarityKnownScores(t *testing.T) {
	// food={f,o,d}, fuel={f,u,e,l}: intersection {f}=1, union=6
	assert.InDelta(t, 1.0/6.0, Similarity("food", "fuel"), 1e-9)

	// grocceries={g,r,o,c,e,i,s}, food={f,o,d}: intersection {o}=1, union=9
	assert.InDelta(t, 1.0/9.0, Similarity("grocceries", "food"), 1e-9)

	// fod={f,o,d} == food's set: full overlap despite the typo
	assert.Equal(t, 1.0, Similarity("fod", "food"))

	// Repeated characters collapse into the set
	assert.Equal(t, 1.0, Similarity("aaa", "a"))
}

func TestSimilarityEmptyInputs(t *testing.T) {
	// Both empty: identical by convention
	assert.Equal(t, 1.0, Similarity("", ""))

	// One empty: nothing in common
	assert.Equal(t, 0.0, Similarity("", "food"))
	assert.Equal(t, 0.0, Similarity("food", ""))
}
