package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateSheetValidate(t *testing.T) {
	tests := []struct {
		name    string
		sheet   RateSheet
		wantErr string
	}{
		{
			name: "valid sheet",
			sheet: RateSheet{
				HospitalName: "Apollo Chennai",
				Categories: []Category{{
					Name:  "Medicines",
					Items: []Item{{Name: "NICORANDIL 5MG", Rate: 12.50, Kind: PricingUnit}},
				}},
			},
		},
		{
			name:    "missing hospital name",
			sheet:   RateSheet{},
			wantErr: "hospital name",
		},
		{
			name: "unnamed category",
			sheet: RateSheet{
				HospitalName: "Apollo Chennai",
				Categories:   []Category{{}},
			},
			wantErr: "category name",
		},
		{
			name: "negative rate",
			sheet: RateSheet{
				HospitalName: "Apollo Chennai",
				Categories: []Category{{
					Name:  "Medicines",
					Items: []Item{{Name: "X", Rate: -1}},
				}},
			},
			wantErr: "rate must be non-negative",
		},
		{
			name: "invalid pricing kind",
			sheet: RateSheet{
				HospitalName: "Apollo Chennai",
				Categories: []Category{{
					Name:  "Medicines",
					Items: []Item{{Name: "X", Rate: 1, Kind: "hourly"}},
				}},
			},
			wantErr: "invalid pricing kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sheet.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestItemValidateDefaultsKind(t *testing.T) {
	item := Item{Name: "NICORANDIL 5MG", Rate: 12.50}
	require.NoError(t, item.Validate())
	assert.Equal(t, PricingUnit, item.Kind)
}

func TestCategoryByNameIsCaseInsensitive(t *testing.T) {
	sheet := RateSheet{
		HospitalName: "Apollo Chennai",
		Categories:   []Category{{Name: "Medicines"}, {Name: "Radiology"}},
	}

	require.NotNil(t, sheet.CategoryByName("radiology"))
	assert.Equal(t, "Radiology", sheet.CategoryByName("RADIOLOGY").Name)
	assert.Nil(t, sheet.CategoryByName("Implants"))
}

func TestBillLineValidate(t *testing.T) {
	assert.NoError(t, (&BillLine{RawText: "DOLO 650MG", Quantity: 5, Amount: 10}).Validate())
	assert.Error(t, (&BillLine{RawText: "", Amount: 10}).Validate())
	assert.Error(t, (&BillLine{RawText: "X", Quantity: -1}).Validate())
	assert.Error(t, (&BillLine{RawText: "X", Amount: -1}).Validate())
}

func TestStatusPriorityOrdering(t *testing.T) {
	assert.Greater(t, StatusRed.Priority(), StatusMismatch.Priority())
	assert.Greater(t, StatusMismatch.Priority(), StatusAllowedNotComparable.Priority())
	assert.Greater(t, StatusAllowedNotComparable.Priority(), StatusGreen.Priority())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, PricingBundle.IsValid())
	assert.False(t, PricingKind("hourly").IsValid())
	assert.True(t, StatusGreen.IsValid())
	assert.False(t, VerificationStatus("AMBER").IsValid())
	assert.True(t, AutoMatch.IsValid())
	assert.False(t, MatchOutcome("MAYBE").IsValid())
}
