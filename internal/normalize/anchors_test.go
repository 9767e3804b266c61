package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tieup-bill-verifier/internal/domain"
)

func TestDosage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "attached unit", input: "NICORANDIL 5MG", expected: "5mg"},
		{name: "spaced unit", input: "PARACETAMOL 500 MG", expected: "500mg"},
		{name: "volume", input: "INSULIN 10ML", expected: "10ml"},
		{name: "micrograms", input: "LEVOTHYROXINE 50MCG", expected: "50mcg"},
		{name: "no dosage", input: "CONSULTATION", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Dosage(tt.input))
		})
	}
}

func TestModality(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "mri", input: "MRI BRAIN", expected: "mri"},
		{name: "ct wins over scan", input: "CT SCAN ABDOMEN", expected: "ct"},
		{name: "hyphenated xray", input: "X-RAY CHEST", expected: "x-ray"},
		{name: "none", input: "CONSULTATION", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Modality(tt.input))
		})
	}
}

func TestBodyPart(t *testing.T) {
	assert.Equal(t, "brain", BodyPart("MRI BRAIN"))
	assert.Equal(t, "abdomen", BodyPart("CT SCAN ABDOMEN"))
	assert.Equal(t, "cardiac", BodyPart("CARDIAC ECHO"))
	assert.Empty(t, BodyPart("CONSULTATION"))
}

func TestIsCriticalFormDrug(t *testing.T) {
	assert.True(t, IsCriticalFormDrug("insulin glargine 10ml"))
	assert.True(t, IsCriticalFormDrug("adrenaline 1mg"))
	assert.False(t, IsCriticalFormDrug("paracetamol 500mg"))
}

func TestAnchorScore(t *testing.T) {
	tests := []struct {
		name     string
		bill     string
		tieup    string
		expected float64
	}{
		{name: "all three anchors", bill: "mri brain 5mg", tieup: "mri brain 5mg", expected: 1.0},
		{name: "modality and body part", bill: "mri brain", tieup: "mri brain", expected: 0.6},
		{name: "dosage only", bill: "nicorandil 5mg", tieup: "nicorandil 5mg", expected: 0.4},
		{name: "no anchors", bill: "consultation", tieup: "consultation", expected: 0.0},
		{name: "dosage disagrees", bill: "nicorandil 5mg", tieup: "nicorandil 10mg", expected: 0.0},
		{name: "anchor absent on one side", bill: "nicorandil 5mg", tieup: "nicorandil", expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, breakdown := AnchorScore(Extract(tt.bill), Extract(tt.tieup))
			assert.InDelta(t, tt.expected, score, 0.001)
			assert.InDelta(t, tt.expected, breakdown.Score, 0.001)
		})
	}
}

func TestAnchorScoreBreakdownFlags(t *testing.T) {
	score, breakdown := AnchorScore(
		domain.CoreExtraction{Dosage: "5mg", Modality: "mri", BodyPart: "brain"},
		domain.CoreExtraction{Dosage: "5mg", Modality: "mri", BodyPart: "chest"},
	)

	assert.InDelta(t, 0.7, score, 0.001)
	assert.True(t, breakdown.DosageMatch)
	assert.True(t, breakdown.ModalityMatch)
	assert.False(t, breakdown.BodyPartMatch)
}
