package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetly/internal/core"
)

// BudgetAlertPercent is the share of the budget at which spending is flagged.
const BudgetAlertPercent = 80

const (
	InsightWarning = "warning"
	InsightInfo    = "info"
	InsightTip     = "tip"
	InsightSavings = "savings"
)

// Insight is a short narrative hint for the analytics page.
type Insight struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// InsightReport carries the computed signals alongside their messages.
type InsightReport struct {
	BudgetUsedPercent int64           `json:"budget_used_percent"`
	BudgetAlert       bool            `json:"budget_alert"`
	TopCategory       *CategoryAmount `json:"top_category,omitempty"`
	DaysLeft          int             `json:"days_left"`
	DailyAllowance    *core.Money     `json:"daily_allowance,omitempty"`
	ProjectedSavings  core.Money      `json:"projected_savings"`
	Items             []Insight       `json:"items"`
}

// DaysLeftInMonth counts the calendar days after now's day until month end.
func DaysLeftInMonth(now time.Time) int {
	year, month, day := now.Date()
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return last - day
}

// Insights derives the budget alert, top category, daily allowance and
// projected savings for the month. report is expected in CategoryReport order.
// Amounts in messages are rendered with symbol.
func Insights(budget, total core.Money, report []CategoryAmount, now time.Time, symbol string) InsightReport {
	r := InsightReport{
		BudgetUsedPercent: BudgetUsedPercent(budget, total),
		DaysLeft:          DaysLeftInMonth(now),
		Items:             []Insight{},
	}

	if budget.IsZero() {
		r.BudgetAlert = !total.IsZero()
	} else {
		r.BudgetAlert = total.Cents*100 >= budget.Cents*BudgetAlertPercent
	}
	if r.BudgetAlert {
		r.Items = append(r.Items, Insight{
			Type:    InsightWarning,
			Title:   "Budget Alert",
			Message: fmt.Sprintf("You've used %d%% of your monthly budget. Consider reducing non-essential spending.", r.BudgetUsedPercent),
		})
	}

	if len(report) > 0 {
		top := report[0]
		r.TopCategory = &top
		r.Items = append(r.Items, Insight{
			Type:  InsightInfo,
			Title: "Top Spending Category",
			Message: fmt.Sprintf("%s %s accounts for %d%% of your spending at %s.",
				top.Icon, top.Name, top.Percent, top.Amount.Format(symbol)),
		})
	}

	remaining := RemainingBudget(budget, total)
	if remaining.Cents > 0 && r.DaysLeft > 0 {
		allowance := core.FromDecimal(remaining.Decimal().Div(decimal.NewFromInt(int64(r.DaysLeft))))
		r.DailyAllowance = &allowance
		r.Items = append(r.Items, Insight{
			Type:  InsightTip,
			Title: "Daily Budget Tip",
			Message: fmt.Sprintf("You can spend %s/day for the next %d days to stay on budget.",
				allowance.Format(symbol), r.DaysLeft),
		})
	}

	if remaining.Cents > 0 {
		r.ProjectedSavings = remaining
	}
	verdict := "Consider adjusting your spending."
	if remaining.Cents > 0 {
		verdict = "Great job! Keep it up."
	}
	r.Items = append(r.Items, Insight{
		Type:    InsightSavings,
		Title:   "Savings Potential",
		Message: fmt.Sprintf("You're projected to save %s this month. %s", r.ProjectedSavings.Format(symbol), verdict),
	})
	return r
}
