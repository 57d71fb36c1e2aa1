package analytics

import (
	"fmt"
	"time"

	"budgetly/internal/core"
)

const (
	DailyWindowDays  = 30
	WeeklyBuckets    = 4
	ComparisonMonths = 6

	dailyLabelLayout   = "Jan 2"
	monthlyLabelLayout = "Jan"
	monthKeyLayout     = "2006-01"
)

// Point is one entry of a chart series. Key identifies the period (a date,
// a month or a week number), Label is its display form.
type Point struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Amount core.Money `json:"amount"`
}

// DailySeries returns exactly 30 points, one per calendar day ending with
// now's day, oldest first. An expense counts when its date key equals a
// day in the window. Dashboards pass the month-filtered set, so earlier
// days of the window stay zero.
func DailySeries(expenses []core.Expense, now time.Time) []Point {
	today := core.DateOf(now)
	points := make([]Point, DailyWindowDays)
	index := make(map[string]int, DailyWindowDays)
	for i := 0; i < DailyWindowDays; i++ {
		day := today.AddDays(i - (DailyWindowDays - 1))
		points[i] = Point{Key: day.Key(), Label: day.Format(dailyLabelLayout)}
		index[day.Key()] = i
	}
	for _, e := range expenses {
		if i, ok := index[e.Date.Key()]; ok {
			points[i].Amount = points[i].Amount.Add(e.Amount)
		}
	}
	return points
}

// WeekBucket maps a day of month to one of four buckets: days 1-7 go to 0,
// 8-14 to 1, 15-21 to 2 and everything later to 3.
func WeekBucket(day int) int {
	return min((day-1)/7, WeeklyBuckets-1)
}

// WeeklySeries buckets the given (already month-filtered) expenses by
// day of month.
func WeeklySeries(monthly []core.Expense) []Point {
	points := make([]Point, WeeklyBuckets)
	for i := range points {
		points[i] = Point{Key: fmt.Sprint(i + 1), Label: fmt.Sprintf("Week %d", i+1)}
	}
	for _, e := range monthly {
		if e.Date.IsZero() {
			continue
		}
		b := WeekBucket(e.Date.Day())
		points[b].Amount = points[b].Amount.Add(e.Amount)
	}
	return points
}

// MonthlyComparison totals the whole ledger for each of the six calendar
// months ending with now's month, oldest first.
func MonthlyComparison(expenses []core.Expense, now time.Time) []Point {
	year, month, _ := now.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	points := make([]Point, ComparisonMonths)
	index := make(map[string]int, ComparisonMonths)
	for i := 0; i < ComparisonMonths; i++ {
		m := first.AddDate(0, i-(ComparisonMonths-1), 0)
		points[i] = Point{Key: m.Format(monthKeyLayout), Label: m.Format(monthlyLabelLayout)}
		index[points[i].Key] = i
	}
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		if i, ok := index[e.Date.Format(monthKeyLayout)]; ok {
			points[i].Amount = points[i].Amount.Add(e.Amount)
		}
	}
	return points
}
