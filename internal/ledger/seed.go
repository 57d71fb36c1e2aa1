package ledger

import (
	"time"

	"budgetly/internal/core"
	"budgetly/internal/ids"
)

// DefaultBudget is the monthly budget of a freshly seeded ledger.
var DefaultBudget = core.Money{Cents: 350000}

type sampleExpense struct {
	cents       int64
	category    string
	description string
	daysAgo     int
}

var samples = []sampleExpense{
	{4550, "food", "Grocery shopping at Walmart", 0},
	{1200, "transport", "Uber ride to office", 0},
	{120000, "housing", "Monthly rent payment", 1},
	{1599, "entertainment", "Netflix subscription", 2},
	{8900, "shopping", "New running shoes", 3},
	{6500, "bills", "Electricity bill", 4},
	{3500, "health", "Pharmacy prescription", 5},
	{15000, "education", "Online course subscription", 6},
	{2850, "food", "Dinner at restaurant", 7},
	{850, "transport", "Bus pass top-up", 8},
	{4200, "shopping", "Amazon order - books", 9},
	{5500, "bills", "Internet bill", 10},
	{2200, "food", "Coffee & snacks", 12},
	{12000, "entertainment", "Concert tickets", 14},
	{1800, "transport", "Gas station fill-up", 16},
	{20000, "health", "Dental checkup", 18},
	{7500, "shopping", "Winter jacket", 20},
	{3200, "food", "Takeout sushi", 22},
	{9500, "bills", "Phone bill", 25},
	{4800, "entertainment", "Video game purchase", 28},
}

// Seed returns the starter ledger: the default budget and twenty sample
// expenses dated relative to now, newest first.
func Seed(now time.Time, gen ids.Generator) Snapshot {
	today := core.DateOf(now)
	expenses := make([]core.Expense, 0, len(samples))
	for _, s := range samples {
		expenses = append(expenses, core.Expense{
			ID:          gen.NewID(),
			Amount:      core.Money{Cents: s.cents},
			Category:    s.category,
			Description: s.description,
			Date:        today.AddDays(-s.daysAgo),
		})
	}
	return Snapshot{Expenses: expenses, Budget: DefaultBudget}
}
