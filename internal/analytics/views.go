package analytics

import (
	"time"

	"budgetly/internal/core"
	"budgetly/internal/ledger"
)

// StatCards are the headline figures for the current month.
type StatCards struct {
	Budget            core.Money `json:"budget"`
	MonthlySpending   core.Money `json:"monthly_spending"`
	RemainingBudget   core.Money `json:"remaining_budget"`
	BudgetUsedPercent int64      `json:"budget_used_percent"`
	BudgetLeftPercent int64      `json:"budget_left_percent"`
	TransactionCount  int        `json:"transaction_count"`
}

// DashboardView is everything the overview page shows.
type DashboardView struct {
	Month      string           `json:"month"`
	Stats      StatCards        `json:"stats"`
	Categories []CategoryAmount `json:"categories"`
	Daily      []Point          `json:"daily"`
	Recent     []core.Expense   `json:"recent"`
}

// AnalyticsView is everything the analytics page shows.
type AnalyticsView struct {
	Month      string           `json:"month"`
	Stats      StatCards        `json:"stats"`
	Categories []CategoryAmount `json:"categories"`
	Weekly     []Point          `json:"weekly"`
	Monthly    []Point          `json:"monthly"`
	Insights   InsightReport    `json:"insights"`
}

type monthSummary struct {
	monthly []core.Expense
	stats   StatCards
	report  []CategoryAmount
}

func summarize(snap ledger.Snapshot, now time.Time) monthSummary {
	monthly := MonthlyExpenses(snap.Expenses, now)
	total := TotalSpending(monthly)
	used := BudgetUsedPercent(snap.Budget, total)
	return monthSummary{
		monthly: monthly,
		stats: StatCards{
			Budget:            snap.Budget,
			MonthlySpending:   total,
			RemainingBudget:   RemainingBudget(snap.Budget, total),
			BudgetUsedPercent: used,
			BudgetLeftPercent: 100 - used,
			TransactionCount:  TransactionCount(monthly),
		},
		report: CategoryReport(CategoryBreakdown(monthly), total),
	}
}

// Dashboard builds the overview for now's month.
func Dashboard(snap ledger.Snapshot, now time.Time) DashboardView {
	s := summarize(snap, now)
	return DashboardView{
		Month:      now.Format(monthKeyLayout),
		Stats:      s.stats,
		Categories: s.report,
		Daily:      DailySeries(s.monthly, now),
		Recent:     Recent(snap.Expenses, RecentLimit),
	}
}

// Analytics builds the trend and insight page for now's month.
func Analytics(snap ledger.Snapshot, now time.Time, symbol string) AnalyticsView {
	s := summarize(snap, now)
	return AnalyticsView{
		Month:      now.Format(monthKeyLayout),
		Stats:      s.stats,
		Categories: s.report,
		Weekly:     WeeklySeries(s.monthly),
		Monthly:    MonthlyComparison(snap.Expenses, now),
		Insights:   Insights(snap.Budget, s.stats.MonthlySpending, s.report, now, symbol),
	}
}
