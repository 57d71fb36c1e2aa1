// Package analytics derives totals, breakdowns, series and insights from a
// ledger snapshot. Every function takes the reference time explicitly and
// never reads the wall clock.
package analytics

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/core"
)

// MonthlyExpenses returns the expenses dated in now's calendar month and year,
// in ledger order.
func MonthlyExpenses(expenses []core.Expense, now time.Time) []core.Expense {
	year, month, _ := now.Date()
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.InMonth(year, month) {
			out = append(out, e)
		}
	}
	return out
}

// TotalSpending sums the amounts of expenses.
func TotalSpending(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func TransactionCount(expenses []core.Expense) int {
	return len(expenses)
}

// RemainingBudget is budget minus total. Negative means over budget.
func RemainingBudget(budget, total core.Money) core.Money {
	return budget.Sub(total)
}

// BudgetUsedPercent returns total as a whole percentage of budget, rounded
// half up. A zero budget reports 0 when nothing was spent and 100 otherwise.
func BudgetUsedPercent(budget, total core.Money) int64 {
	if budget.IsZero() {
		if total.IsZero() {
			return 0
		}
		return 100
	}
	return percentOf(total, budget)
}

// CategoryBreakdown sums amounts per stored category id. Categories without
// expenses are absent.
func CategoryBreakdown(expenses []core.Expense) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// CategoryAmount is one row of a category report.
type CategoryAmount struct {
	core.Category
	Amount  core.Money `json:"amount"`
	Percent int64      `json:"percent"`
}

// CategoryReport resolves a breakdown through the catalog, merging unknown ids
// into the fallback category, and orders it by amount descending. Ties keep
// catalog order.
func CategoryReport(breakdown map[string]core.Money, total core.Money) []CategoryAmount {
	merged := make(map[string]core.Money, len(breakdown))
	for id, amount := range breakdown {
		cat := core.Lookup(id)
		merged[cat.ID] = merged[cat.ID].Add(amount)
	}

	out := make([]CategoryAmount, 0, len(merged))
	for _, cat := range core.Categories() {
		amount, ok := merged[cat.ID]
		if !ok {
			continue
		}
		row := CategoryAmount{Category: cat, Amount: amount}
		if !total.IsZero() {
			row.Percent = percentOf(amount, total)
		}
		out = append(out, row)
	}
	slices.SortStableFunc(out, func(a, b CategoryAmount) int {
		return compareCents(b.Amount, a.Amount)
	})
	return out
}

func percentOf(part, whole core.Money) int64 {
	return part.Decimal().
		Mul(decimal.NewFromInt(100)).
		Div(whole.Decimal()).
		Round(0).
		IntPart()
}

func compareCents(a, b core.Money) int {
	switch {
	case a.Cents < b.Cents:
		return -1
	case a.Cents > b.Cents:
		return 1
	default:
		return 0
	}
}
