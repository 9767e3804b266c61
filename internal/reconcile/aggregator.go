package reconcile

import (
	"strings"

	"github.com/tieup-bill-verifier/internal/domain"
)

// reasonPriority orders failure reasons for group resolution. Artifacts
// dominate because they explain the whole group; missing-from-tieup is
// the weakest diagnosis.
var reasonPriority = map[domain.RejectionCode]int{
	domain.RejectAdminCharge:      5,
	domain.RejectPackageOnly:      4,
	domain.RejectCategoryConflict: 3,
	domain.RejectLowSimilarity:    2,
	domain.RejectNotInTieup:       1,
}

// Aggregate groups line results by resolved reference and category. Lines
// that matched group under the tie-up item name; unmatched lines group
// under their own normalized text. Group order follows first appearance.
func Aggregate(lines []domain.LineResult) []domain.AggregatedItem {
	var items []domain.AggregatedItem
	index := make(map[string]int)

	for _, line := range lines {
		key := groupKey(line)
		pos, seen := index[key]
		if !seen {
			pos = len(items)
			index[key] = pos
			items = append(items, domain.AggregatedItem{
				NormalizedName:   line.NormalizedText,
				MatchedReference: line.MatchedName,
				Category:         line.Category,
			})
		}
		items[pos].Lines = append(items[pos].Lines, line)
	}

	for i := range items {
		refresh(&items[i])
	}
	return items
}

// Summarize computes per-category and grand financial totals plus status
// counts over the aggregated items.
func Summarize(items []domain.AggregatedItem) domain.FinancialSummary {
	var summary domain.FinancialSummary
	index := make(map[string]int)

	for _, item := range items {
		key := strings.ToLower(item.Category)
		pos, seen := index[key]
		if !seen {
			pos = len(summary.PerCategory)
			index[key] = pos
			summary.PerCategory = append(summary.PerCategory, domain.CategoryTotals{Category: item.Category})
		}
		summary.PerCategory[pos].TotalBill += item.TotalBill
		summary.PerCategory[pos].TotalAllowed += item.TotalAllowed
		summary.PerCategory[pos].TotalExtra += item.TotalExtra

		summary.TotalBill += item.TotalBill
		summary.TotalAllowed += item.TotalAllowed
		summary.TotalExtra += item.TotalExtra

		switch item.Status {
		case domain.StatusGreen:
			summary.GreenCount++
		case domain.StatusRed:
			summary.RedCount++
		case domain.StatusMismatch:
			summary.MismatchCount++
		case domain.StatusAllowedNotComparable:
			summary.NotComparableCount++
		}
	}
	return summary
}

// refresh recomputes a group's totals, status, and failure reason from
// its lines. One RED line marks the whole group RED.
func refresh(item *domain.AggregatedItem) {
	item.TotalBill = 0
	item.TotalAllowed = 0
	item.TotalExtra = 0
	item.Status = domain.StatusGreen
	item.FailureReason = ""

	for _, line := range item.Lines {
		item.TotalBill += line.BillAmount
		item.TotalAllowed += line.AllowedAmount
		item.TotalExtra += line.ExtraAmount
		if line.Status.Priority() > item.Status.Priority() {
			item.Status = line.Status
		}
	}

	if item.Status == domain.StatusMismatch {
		item.FailureReason = resolveReason(item.Lines)
	}
}

// resolveReason picks the dominant failure reason among mismatched lines.
// Reasons outside the priority table (constraint codes, degradations)
// surface only when nothing ranked is present.
func resolveReason(lines []domain.LineResult) domain.RejectionCode {
	var best domain.RejectionCode
	bestRank := -1

	for _, line := range lines {
		if line.Status != domain.StatusMismatch || line.FailureReason == "" {
			continue
		}
		rank := reasonPriority[line.FailureReason]
		if rank > bestRank {
			best = line.FailureReason
			bestRank = rank
		}
	}
	return best
}

// groupKey builds the case-insensitive (reference, category) group key.
// A matched line keys on the tie-up item name so duplicate bill rows for
// the same contracted item collapse into one group.
func groupKey(line domain.LineResult) string {
	ref := line.MatchedName
	if ref == "" {
		ref = line.NormalizedText
	}
	return strings.ToLower(ref) + "\x1f" + strings.ToLower(line.Category)
}
