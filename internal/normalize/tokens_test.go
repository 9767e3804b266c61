package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected TokenImportance
	}{
		{name: "known drug", token: "nicorandil", expected: ImportanceCritical},
		{name: "dosage", token: "5mg", expected: ImportanceHigh},
		{name: "pricing qualifier", token: "first", expected: ImportanceHigh},
		{name: "context word", token: "visit", expected: ImportanceMedium},
		{name: "packaging", token: "strip", expected: ImportanceLow},
		{name: "long unknown word defaults critical", token: "ceftriaxone", expected: ImportanceCritical},
		{name: "lot identifier", token: "LOT:A123", expected: ImportanceNoise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyToken(tt.token))
		})
	}
}

func TestTokenizeWeighted(t *testing.T) {
	tokens := TokenizeWeighted("CONSULTATION FIRST VISIT")

	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	assert.Equal(t, []string{"consultation", "first", "visit"}, texts)
	assert.Equal(t, ImportanceCritical, tokens[0].Importance)
	assert.Equal(t, ImportanceHigh, tokens[1].Importance)
	assert.Equal(t, ImportanceMedium, tokens[2].Importance)
}

func TestWithWeights(t *testing.T) {
	full, _ := WithWeights("CONSULTATION FIRST VISIT", ImportanceMedium)
	assert.Equal(t, "consultation first visit", full)

	minimal, kept := WithWeights("CONSULTATION FIRST VISIT", ImportanceHigh)
	assert.Equal(t, "consultation first", minimal)
	assert.Len(t, kept, 2)
}

func TestCoreTerms(t *testing.T) {
	terms := CoreTerms("the mri of the brain for 2")

	assert.Contains(t, terms, "mri")
	assert.Contains(t, terms, "brain")
	assert.NotContains(t, terms, "the")
	assert.NotContains(t, terms, "of")
	assert.NotContains(t, terms, "2")
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "mri brain", b: "mri brain", expected: 1.0},
		{name: "partial", a: "consultation first visit", b: "consultation", expected: 1.0 / 3.0},
		{name: "disjoint", a: "mri brain", b: "blood test", expected: 0.0},
		{name: "empty side", a: "", b: "mri brain", expected: 0.0},
		{name: "word order irrelevant", a: "x ray chest", b: "chest x ray", expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TokenOverlap(tt.a, tt.b), 0.001)
		})
	}
}

func TestContainment(t *testing.T) {
	assert.InDelta(t, 1.0, Containment("consultation first visit", "consultation"), 0.001)
	assert.InDelta(t, 0.5, Containment("mri brain", "mri chest"), 0.001)
	assert.InDelta(t, 0.0, Containment("mri brain", ""), 0.001)
}
