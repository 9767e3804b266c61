package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tieup-bill-verifier/internal/domain"
)

// LoadRateSheets reads every *.json rate sheet under dir, in name order.
// Validation happens again at index build; loading only rejects files
// that do not parse or carry no hospital name.
func LoadRateSheets(dir string) ([]domain.RateSheet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate sheet directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	sheets := make([]domain.RateSheet, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rate sheet %s: %w", path, err)
		}

		var sheet domain.RateSheet
		if err := json.Unmarshal(data, &sheet); err != nil {
			return nil, fmt.Errorf("failed to parse rate sheet %s: %w", path, err)
		}
		if sheet.HospitalName == "" {
			return nil, fmt.Errorf("rate sheet %s: missing hospital name", path)
		}
		sheets = append(sheets, sheet)
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("no rate sheets found in %s", dir)
	}
	return sheets, nil
}

// LoadBill reads one parsed bill from a JSON file.
func LoadBill(path string) (*domain.Bill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bill: %w", err)
	}

	var bill domain.Bill
	if err := json.Unmarshal(data, &bill); err != nil {
		return nil, fmt.Errorf("failed to parse bill %s: %w", path, err)
	}
	if bill.HospitalName == "" {
		return nil, fmt.Errorf("bill %s: missing hospital name", path)
	}

	for _, category := range bill.Categories {
		for i := range category.Lines {
			if err := category.Lines[i].Validate(); err != nil {
				return nil, fmt.Errorf("bill %s: %w", path, err)
			}
		}
	}
	return &bill, nil
}
