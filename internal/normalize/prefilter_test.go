package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefilter(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		skip       bool
		skipReason SkipReason
	}{
		{
			name:       "helpline footer",
			input:      "For queries call 1800-XXX-XXXX",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{
			name:       "package line",
			input:      "HEALTH CHECKUP PACKAGE",
			skip:       true,
			skipReason: SkipPackage,
		},
		{
			name:       "total row",
			input:      "GRAND TOTAL",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{
			name:       "tax row",
			input:      "CGST @ 9%",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{
			name:       "page footer",
			input:      "Page 2 of 3",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{
			name:       "registration fee",
			input:      "REGISTRATION FEE",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{
			name:       "numbers only",
			input:      "12345 67.50",
			skip:       true,
			skipReason: SkipArtifact,
		},
		{name: "imaging item", input: "MRI BRAIN", skip: false},
		{name: "drug item", input: "PARACETAMOL 500MG", skip: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := Prefilter(tt.input)
			assert.Equal(t, tt.skip, skip)
			if tt.skip {
				assert.Equal(t, tt.skipReason, reason)
			}
		})
	}
}

func TestIsArtifactBlank(t *testing.T) {
	assert.True(t, IsArtifact(""))
	assert.True(t, IsArtifact("   "))
}

func TestIsPackage(t *testing.T) {
	assert.True(t, IsPackage("cardiac care plan"))
	assert.True(t, IsPackage("SURGERY COMBO OFFER"))
	assert.False(t, IsPackage("MRI BRAIN"))
}
