package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetly/internal/analytics"
	"budgetly/internal/core"
)

var errNotFound = errors.New("expense not found")

type expenseFlags struct {
	amount      string
	category    string
	description string
	date        string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVarP(&f.category, "category", "k", "", "category id (see 'budgetctl categories')")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "free-text description")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (defaults to today)")
}

// apply overwrites the fields of e whose flags were set on cmd.
func (f *expenseFlags) apply(cmd *cobra.Command, e *core.Expense) error {
	if cmd.Flags().Changed("amount") {
		m, err := core.ParseAmount(f.amount)
		if err != nil {
			return &core.ValidationError{Field: "amount", Err: err}
		}
		e.Amount = m
	}
	if cmd.Flags().Changed("category") {
		e.Category = f.category
	}
	if cmd.Flags().Changed("description") {
		e.Description = f.description
	}
	if cmd.Flags().Changed("date") {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return &core.ValidationError{Field: "date", Err: err}
		}
		e.Date = d
	}
	return nil
}

func newAddCmd(a *app) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range []string{"amount", "category"} {
				if !cmd.Flags().Changed(name) {
					return fmt.Errorf("--%s is required", name)
				}
			}
			e := core.Expense{Date: core.DateOf(a.now())}
			if err := f.apply(cmd, &e); err != nil {
				return err
			}
			created, err := a.store.Add(cmd.Context(), e)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(created)
			}
			fmt.Fprintf(a.out, "Added %s: %s %s on %s\n",
				created.ID, created.Amount.Format(a.currency()), created.Category, created.Date)
			return nil
		},
	}
	f.register(cmd)
	return needsLedger(cmd)
}

func newEditCmd(a *app) *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing expense",
		Long:  "Only the flags given are changed; the rest of the expense is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok := a.store.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			if err := f.apply(cmd, &e); err != nil {
				return err
			}
			ok, err := a.store.Edit(cmd.Context(), e)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			e, _ = a.store.Get(args[0])
			if a.asJSON {
				return a.printJSON(e)
			}
			fmt.Fprintf(a.out, "Updated %s: %s %s on %s\n",
				e.ID, e.Amount.Format(a.currency()), e.Category, e.Date)
			return nil
		},
	}
	f.register(cmd)
	return needsLedger(cmd)
}

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.store.Remove(cmd.Context(), args[0]) {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		},
	}
	return needsLedger(cmd)
}

func newListCmd(a *app) *cobra.Command {
	var q analytics.Query
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List expenses",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !analytics.IsValidSort(q.Sort) {
				return fmt.Errorf("invalid sort %q", q.Sort)
			}
			items := analytics.Filter(a.store.Snapshot().Expenses, q)
			total := analytics.TotalSpending(items)
			if a.asJSON {
				return a.printJSON(map[string]any{"expenses": items, "count": len(items), "total": total})
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
			for _, e := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date, core.Lookup(e.Category).Name, e.Amount.Format(a.currency()), e.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d expenses, total %s\n", len(items), total.Format(a.currency()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Text, "query", "q", "", "match description or category name")
	cmd.Flags().StringVarP(&q.Category, "category", "k", analytics.CategoryAll, "category id or 'all'")
	cmd.Flags().StringVarP(&q.Sort, "sort", "s", analytics.SortDateDesc,
		"date-desc, date-asc, amount-desc or amount-asc")
	return needsLedger(cmd)
}
