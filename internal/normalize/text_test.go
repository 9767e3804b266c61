package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillItemText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "doctor attribution after pipe",
			input:    "MRI BRAIN | Dr. Vivek Jacob Philip",
			expected: "mri brain",
		},
		{
			name:     "numbering prefix",
			input:    "1. CONSULTATION - FIRST VISIT",
			expected: "consultation - first visit",
		},
		{
			name:     "credentials suffix",
			input:    "CONSULTATION Dr. A Sharma MBBS",
			expected: "consultation",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
		{
			name:     "collapses internal whitespace",
			input:    "CT   SCAN    ABDOMEN",
			expected: "ct scan abdomen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BillItemText(tt.input))
		})
	}
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "medicines", CategoryName("2) Medicines"))
	assert.Equal(t, "radiology", CategoryName("  RADIOLOGY  "))
	assert.Equal(t, "", CategoryName(""))
}

func TestShouldSkipCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "legacy hospital header", input: "Hospital", expected: true},
		{name: "hospital with separator", input: "hospital -", expected: true},
		{name: "blank", input: "", expected: true},
		{name: "single char", input: "x", expected: true},
		{name: "punctuation only", input: "---", expected: true},
		{name: "real category", input: "Medicines", expected: false},
		{name: "real category lowercase", input: "radiology", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldSkipCategory(tt.input))
		})
	}
}

func TestMedicalCore(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "imaging line unchanged",
			input:    "MRI BRAIN",
			expected: "mri brain",
		},
		{
			name:     "drug with strength",
			input:    "PARACETAMOL 500MG",
			expected: "paracetamol 500mg",
		},
		{
			name:     "dose form word dropped",
			input:    "NICORANDIL TABLET 5MG",
			expected: "nicorandil 5mg",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MedicalCore(tt.input))
		})
	}
}

func TestExtractFullPipeline(t *testing.T) {
	// Raw pharmacy inventory line with SKU, brand suffix, and vendor tag.
	got := Extract("(30049099) NICORANDIL-TABLET-5MG-KORANDIL- |GTF")

	assert.Equal(t, "nicorandil 5mg", got.CoreText)
	assert.Equal(t, "5mg", got.Dosage)
	assert.Equal(t, "tablet", got.Form)
	assert.Empty(t, got.Modality)
	assert.Empty(t, got.BodyPart)
}

func TestExtractImaging(t *testing.T) {
	got := Extract("MRI BRAIN | Dr. Vivek Jacob Philip")

	assert.Equal(t, "mri brain", got.CoreText)
	assert.Equal(t, "mri", got.Modality)
	assert.Equal(t, "brain", got.BodyPart)
	assert.Empty(t, got.Dosage)
}
