package analytics

import (
	"slices"
	"strings"

	"budgetly/internal/core"
)

// Sort orders accepted by Filter.
const (
	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortAmountDesc = "amount-desc"
	SortAmountAsc  = "amount-asc"

	// CategoryAll disables the category filter.
	CategoryAll = "all"

	RecentLimit = 5
)

// IsValidSort reports whether s is one of the supported sort orders.
func IsValidSort(s string) bool {
	switch s {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return true
	}
	return false
}

// Query selects and orders expenses for the list view. Empty fields do not
// filter; an empty or unknown Sort keeps ledger order.
type Query struct {
	Text     string
	Category string
	Sort     string
}

// Filter returns a new slice with the expenses matching q in q's order.
// Text matches case-insensitively against the description or the resolved
// category name, whitespace included; Category must equal the stored id.
func Filter(expenses []core.Expense, q Query) []core.Expense {
	text := strings.ToLower(q.Text)
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if text != "" && !matchesText(e, text) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && e.Category != q.Category {
			continue
		}
		out = append(out, e)
	}
	sortExpenses(out, q.Sort)
	return out
}

// FilteredTotal sums the expenses Filter returns for q.
func FilteredTotal(expenses []core.Expense, q Query) core.Money {
	return TotalSpending(Filter(expenses, q))
}

// Recent returns up to n expenses with the latest dates, newest first. Equal
// dates keep ledger order.
func Recent(expenses []core.Expense, n int) []core.Expense {
	out := slices.Clone(expenses)
	sortExpenses(out, SortDateDesc)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func matchesText(e core.Expense, lowered string) bool {
	if strings.Contains(strings.ToLower(e.Description), lowered) {
		return true
	}
	return strings.Contains(strings.ToLower(core.Lookup(e.Category).Name), lowered)
}

func sortExpenses(expenses []core.Expense, order string) {
	var cmp func(a, b core.Expense) int
	switch order {
	case SortDateDesc:
		cmp = func(a, b core.Expense) int { return b.Date.Compare(a.Date.Time) }
	case SortDateAsc:
		cmp = func(a, b core.Expense) int { return a.Date.Compare(b.Date.Time) }
	case SortAmountDesc:
		cmp = func(a, b core.Expense) int { return compareCents(b.Amount, a.Amount) }
	case SortAmountAsc:
		cmp = func(a, b core.Expense) int { return compareCents(a.Amount, b.Amount) }
	default:
		return
	}
	slices.SortStableFunc(expenses, cmp)
}
