package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tieup-bill-verifier/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadRateSheets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_fortis.json", `{
		"hospital_name": "Fortis Delhi",
		"categories": [{"category_name": "Medicines", "items": [
			{"item_name": "NICORANDIL 5MG", "rate": 12.5, "type": "unit"}
		]}]
	}`)
	writeFile(t, dir, "a_apollo.json", `{"hospital_name": "Apollo Chennai", "categories": []}`)
	writeFile(t, dir, "notes.txt", "ignored")

	sheets, err := LoadRateSheets(dir)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	// Files load in name order.
	assert.Equal(t, "Apollo Chennai", sheets[0].HospitalName)
	assert.Equal(t, "Fortis Delhi", sheets[1].HospitalName)
	assert.Equal(t, domain.PricingUnit, sheets[1].Categories[0].Items[0].Kind)
}

func TestLoadRateSheetsRejectsBadInput(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := LoadRateSheets(t.TempDir())
		assert.ErrorContains(t, err, "no rate sheets")
	})

	t.Run("malformed json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.json", "{not json")
		_, err := LoadRateSheets(dir)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("missing hospital name", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "anon.json", `{"categories": []}`)
		_, err := LoadRateSheets(dir)
		assert.ErrorContains(t, err, "missing hospital name")
	})
}

func TestLoadBill(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bill.json", `{
		"hospital_name": "Apollo Chennai",
		"categories": [{"category_name": "Pharmacy", "items": [
			{"item_name": "DOLO 650MG", "quantity": 5, "amount": 10}
		]}]
	}`)

	bill, err := LoadBill(filepath.Join(dir, "bill.json"))
	require.NoError(t, err)
	assert.Equal(t, "Apollo Chennai", bill.HospitalName)
	require.Len(t, bill.Categories, 1)
	assert.Equal(t, "DOLO 650MG", bill.Categories[0].Lines[0].RawText)
}

func TestLoadBillRejectsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bill.json", `{
		"hospital_name": "Apollo Chennai",
		"categories": [{"category_name": "Pharmacy", "items": [
			{"item_name": "DOLO 650MG", "quantity": -1, "amount": 10}
		]}]
	}`)

	_, err := LoadBill(filepath.Join(dir, "bill.json"))
	assert.ErrorContains(t, err, "quantity")
}
