package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget [amount]",
		Short: "Show or set the monthly budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				m, err := core.ParseAmount(args[0])
				if err != nil {
					return &core.ValidationError{Field: "budget", Err: err}
				}
				if err := a.store.SetBudget(cmd.Context(), m); err != nil {
					return err
				}
			}
			budget := a.store.Snapshot().Budget
			if a.asJSON {
				return a.printJSON(map[string]core.Money{"budget": budget})
			}
			fmt.Fprintf(a.out, "Monthly budget: %s\n", budget.Format(a.currency()))
			return nil
		},
	}
	return needsLedger(cmd)
}

// referenceFlag registers --date and returns a function resolving it against
// the app clock.
func referenceFlag(a *app, cmd *cobra.Command) func() (time.Time, error) {
	var date string
	cmd.Flags().StringVar(&date, "date", "", "reference day as YYYY-MM-DD (defaults to today)")
	return func() (time.Time, error) {
		if date == "" {
			return a.now(), nil
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return time.Time{}, err
		}
		return d.Time, nil
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show this month's totals, categories and recent expenses",
		Args:  cobra.NoArgs,
	}
	reference := referenceFlag(a, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		now, err := reference()
		if err != nil {
			return err
		}
		view := analytics.Dashboard(a.store.Snapshot(), now)
		if a.asJSON {
			return a.printJSON(view)
		}

		sym := a.currency()
		fmt.Fprintf(a.out, "Month %s\n\n", view.Month)
		writeStats(a.out, view.Stats, sym)
		fmt.Fprintln(a.out)
		if err := writeCategories(a.out, view.Categories, sym); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\nRecent")
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		for _, e := range view.Recent {
			c := core.Lookup(e.Category)
			fmt.Fprintf(tw, "  %s\t%s %s\t%s\t%s\n", e.Date, c.Icon, c.Name, e.Amount.Format(sym), e.Description)
		}
		return tw.Flush()
	}
	return needsLedger(cmd)
}

func newAnalyticsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show spending trends and insights",
		Args:  cobra.NoArgs,
	}
	reference := referenceFlag(a, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		now, err := reference()
		if err != nil {
			return err
		}
		sym := a.currency()
		view := analytics.Analytics(a.store.Snapshot(), now, sym)
		if a.asJSON {
			return a.printJSON(view)
		}

		fmt.Fprintf(a.out, "Month %s\n\n", view.Month)
		writeStats(a.out, view.Stats, sym)
		fmt.Fprintln(a.out)
		if err := writeCategories(a.out, view.Categories, sym); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\nWeekly")
		if err := writePoints(a.out, view.Weekly, sym); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\nLast months")
		if err := writePoints(a.out, view.Monthly, sym); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "\nInsights")
		for _, in := range view.Insights.Items {
			fmt.Fprintf(a.out, "  [%s] %s: %s\n", in.Type, in.Title, in.Message)
		}
		return nil
	}
	return needsLedger(cmd)
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the category catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := core.Categories()
			if a.asJSON {
				return a.printJSON(cats)
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s %s\n", c.ID, c.Icon, c.Name)
			}
			return tw.Flush()
		},
	}
}

func writeStats(w io.Writer, s analytics.StatCards, sym string) {
	fmt.Fprintf(w, "Budget      %s\n", s.Budget.Format(sym))
	fmt.Fprintf(w, "Spent       %s (%d%%, %d transactions)\n", s.MonthlySpending.Format(sym), s.BudgetUsedPercent, s.TransactionCount)
	fmt.Fprintf(w, "Remaining   %s (%d%% left)\n", s.RemainingBudget.Format(sym), s.BudgetLeftPercent)
}

func writeCategories(w io.Writer, report []analytics.CategoryAmount, sym string) error {
	if len(report) == 0 {
		_, err := fmt.Fprintln(w, "No expenses this month")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range report {
		fmt.Fprintf(tw, "  %s %s\t%s\t%d%%\n", c.Icon, c.Name, c.Amount.Format(sym), c.Percent)
	}
	return tw.Flush()
}

func writePoints(w io.Writer, points []analytics.Point, sym string) error {
	var peak core.Money
	for _, p := range points {
		if p.Amount.Cents > peak.Cents {
			peak = p.Amount
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range points {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Label, p.Amount.Format(sym), bar(p.Amount, peak))
	}
	return tw.Flush()
}

const barWidth = 20

func bar(v, peak core.Money) string {
	if peak.Cents <= 0 || v.Cents <= 0 {
		return ""
	}
	n := int(v.Cents * barWidth / peak.Cents)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
