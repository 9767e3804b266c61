// Package domain contains the core business entities and types for tie-up
// bill verification: the contracted rate-sheet tree, parsed bill lines, and
// the decision/status vocabulary shared by the matching pipeline.
package domain

import (
	"errors"
	"fmt"
)

// PricingKind describes how a tie-up item's rate applies to a bill line.
type PricingKind string

const (
	// PricingUnit multiplies the rate by the billed quantity.
	PricingUnit PricingKind = "unit"
	// PricingService is a flat rate for a service regardless of quantity.
	PricingService PricingKind = "service"
	// PricingBundle is a flat package/bundle rate.
	PricingBundle PricingKind = "bundle"
)

// IsValid validates the pricing kind.
func (k PricingKind) IsValid() bool {
	switch k {
	case PricingUnit, PricingService, PricingBundle:
		return true
	default:
		return false
	}
}

// String returns the string form of the pricing kind.
func (k PricingKind) String() string { return string(k) }

// VerificationStatus is the final status of a verified bill line or group.
type VerificationStatus string

const (
	// StatusGreen means the billed amount is within the allowed amount.
	StatusGreen VerificationStatus = "GREEN"
	// StatusRed means the billed amount exceeds the allowed amount.
	StatusRed VerificationStatus = "RED"
	// StatusMismatch means no acceptable tie-up item was found.
	StatusMismatch VerificationStatus = "MISMATCH"
	// StatusAllowedNotComparable means the item matched but its pricing
	// cannot be compared line-by-line (e.g. bundle components).
	StatusAllowedNotComparable VerificationStatus = "ALLOWED_NOT_COMPARABLE"
)

// IsValid validates the verification status.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusGreen, StatusRed, StatusMismatch, StatusAllowedNotComparable:
		return true
	default:
		return false
	}
}

// String returns the string form of the status.
func (s VerificationStatus) String() string { return string(s) }

// statusPriority orders statuses for group resolution. A single RED line in
// a duplicate group marks the whole group RED.
var statusPriority = map[VerificationStatus]int{
	StatusRed:                  3,
	StatusMismatch:             2,
	StatusAllowedNotComparable: 1,
	StatusGreen:                0,
}

// Priority returns the resolution priority of the status; higher wins when
// a group of duplicate lines carries mixed statuses.
func (s VerificationStatus) Priority() int { return statusPriority[s] }

// Item is a single priced entry in a tie-up rate sheet category.
// Immutable once its owning RateSheet has been indexed.
type Item struct {
	Name string      `json:"item_name"`
	Rate float64     `json:"rate"`
	Kind PricingKind `json:"type"`
}

// Validate checks item invariants.
func (i *Item) Validate() error {
	if i.Name == "" {
		return errors.New("item name must not be empty")
	}
	if i.Rate < 0 {
		return fmt.Errorf("item %q: rate must be non-negative, got %f", i.Name, i.Rate)
	}
	if i.Kind == "" {
		i.Kind = PricingUnit
	}
	if !i.Kind.IsValid() {
		return fmt.Errorf("item %q: invalid pricing kind %q", i.Name, i.Kind)
	}
	return nil
}

// Category is an ordered list of items under one rate sheet.
type Category struct {
	Name  string `json:"category_name"`
	Items []Item `json:"items"`
}

// Validate checks category invariants.
func (c *Category) Validate() error {
	if c.Name == "" {
		return errors.New("category name must not be empty")
	}
	for i := range c.Items {
		if err := c.Items[i].Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
	}
	return nil
}

// RateSheet is a hospital's contracted price list: the ground truth every
// bill line is verified against. Immutable once indexed; rebuilding the
// indices requires a full clear-and-reindex.
type RateSheet struct {
	HospitalName string     `json:"hospital_name"`
	Categories   []Category `json:"categories"`
}

// Validate checks rate sheet invariants.
func (r *RateSheet) Validate() error {
	if r.HospitalName == "" {
		return errors.New("rate sheet hospital name must not be empty")
	}
	for i := range r.Categories {
		if err := r.Categories[i].Validate(); err != nil {
			return fmt.Errorf("rate sheet %q: %w", r.HospitalName, err)
		}
	}
	return nil
}

// CategoryByName returns the category with the given name, or nil.
// Lookup is case-insensitive to match index keying.
func (r *RateSheet) CategoryByName(name string) *Category {
	for i := range r.Categories {
		if equalFold(r.Categories[i].Name, name) {
			return &r.Categories[i]
		}
	}
	return nil
}

// BillLine is a single parsed row of a hospital bill. It is an immutable
// input to matching; OCR and extraction happen upstream.
type BillLine struct {
	RawText  string  `json:"item_name"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

// Validate checks bill line invariants.
func (b *BillLine) Validate() error {
	if b.RawText == "" {
		return errors.New("bill line text must not be empty")
	}
	if b.Quantity < 0 {
		return fmt.Errorf("bill line %q: quantity must be >= 0", b.RawText)
	}
	if b.Amount < 0 {
		return fmt.Errorf("bill line %q: amount must be >= 0", b.RawText)
	}
	return nil
}

// BillCategory groups bill lines under the category declared on the bill.
type BillCategory struct {
	Name  string     `json:"category_name"`
	Lines []BillLine `json:"items"`
}

// Bill is the parsed hospital bill handed to the verifier.
type Bill struct {
	HospitalName string         `json:"hospital_name"`
	Categories   []BillCategory `json:"categories"`
}

// equalFold is a small ASCII-insensitive comparison; rate sheet names are
// Latin-script hospital data.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
