package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetly/internal/clock"
	"budgetly/internal/config"
	"budgetly/internal/core"
	"budgetly/internal/ids"
	"budgetly/internal/ledger"
	"budgetly/internal/storage/memory"
)

var testNow = time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

type harness struct {
	out     *bytes.Buffer
	store   *ledger.Store
	opens   int
	cleaned int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}}

	raw, err := ledger.Encode(ledger.Snapshot{
		Budget: core.MustParseAmount("500"),
		Expenses: []core.Expense{
			{ID: "x1", Amount: core.MustParseAmount("45"), Category: "food", Description: "Pizza", Date: core.NewDate(2024, 3, 12)},
			{ID: "x2", Amount: core.MustParseAmount("15"), Category: "transport", Description: "Bus", Date: core.NewDate(2024, 3, 3)},
		},
	})
	require.NoError(t, err)

	n := 0
	h.store = ledger.Open(context.Background(), memory.NewWithValues(map[string]string{ledger.StorageKey: raw}),
		ledger.WithClock(clock.Fixed(testNow)),
		ledger.WithIDGenerator(ids.GeneratorFunc(func() string { n++; return fmt.Sprintf("new-%d", n) })),
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return h
}

func (h *harness) run(args ...string) error {
	a := newApp(h.out)
	a.now = func() time.Time { return testNow }
	a.open = func(context.Context, string) (*ledger.Store, *config.Config, func(), error) {
		h.opens++
		return h.store, config.Defaults(), func() { h.cleaned++ }, nil
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestAdd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("add", "--amount", "9,99", "--category", "health", "-d", "Vitamins"))
	assert.Contains(t, h.out.String(), "Added new-1: ₹9.99 health on 2024-03-15")

	snap := h.store.Snapshot()
	require.Len(t, snap.Expenses, 3)
	assert.Equal(t, "new-1", snap.Expenses[0].ID)
	assert.Equal(t, core.NewDate(2024, 3, 15), snap.Expenses[0].Date)
	assert.Equal(t, 1, h.opens)
	assert.Equal(t, 1, h.cleaned)
}

func TestAddRequiresAmountAndCategory(t *testing.T) {
	h := newHarness(t)

	err := h.run("add", "--category", "food")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--amount")

	err = h.run("add", "--amount", "-4", "--category", "food")
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)
	assert.Len(t, h.store.Snapshot().Expenses, 2)
}

func TestEditKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("edit", "x2", "--amount", "20"))

	e, ok := h.store.Get("x2")
	require.True(t, ok)
	assert.Equal(t, core.MustParseAmount("20"), e.Amount)
	assert.Equal(t, "transport", e.Category)
	assert.Equal(t, "Bus", e.Description)
	assert.Equal(t, core.NewDate(2024, 3, 3), e.Date)
}

func TestEditAndRemoveUnknownID(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.run("edit", "nope", "--amount", "1"), errNotFound)
	assert.ErrorIs(t, h.run("rm", "nope"), errNotFound)
	assert.Len(t, h.store.Snapshot().Expenses, 2)
}

func TestRemove(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("rm", "x1"))
	assert.Contains(t, h.out.String(), "Removed x1")
	_, ok := h.store.Get("x1")
	assert.False(t, ok)
}

func TestListJSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("ls", "--sort", "amount-asc", "--json"))

	var body struct {
		Expenses []core.Expense `json:"expenses"`
		Count    int            `json:"count"`
		Total    core.Money     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "x2", body.Expenses[0].ID)
	assert.Equal(t, core.MustParseAmount("60"), body.Total)
}

func TestListTable(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("ls", "-k", "food"))
	out := h.out.String()
	assert.Contains(t, out, "Pizza")
	assert.NotContains(t, out, "Bus")
	assert.Contains(t, out, "1 expenses, total ₹45.00")

	assert.Error(t, h.run("ls", "--sort", "sideways"))
}

func TestBudget(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("budget"))
	assert.Contains(t, h.out.String(), "Monthly budget: ₹500.00")

	h.out.Reset()
	require.NoError(t, h.run("budget", "750.5"))
	assert.Contains(t, h.out.String(), "Monthly budget: ₹750.50")
	assert.Equal(t, core.MustParseAmount("750.50"), h.store.Snapshot().Budget)

	assert.Error(t, h.run("budget", "--", "-1"))
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("dashboard"))
	out := h.out.String()
	assert.Contains(t, out, "Month 2024-03")
	assert.Contains(t, out, "Spent       ₹60.00 (12%, 2 transactions)")
	assert.Contains(t, out, "Food")

	h.out.Reset()
	require.NoError(t, h.run("dashboard", "--date", "2024-01-10"))
	assert.Contains(t, h.out.String(), "No expenses this month")

	assert.Error(t, h.run("dashboard", "--date", "yesterday"))
}

func TestAnalyticsJSON(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("analytics", "--json"))

	var view struct {
		Month    string `json:"month"`
		Insights struct {
			DaysLeft int `json:"days_left"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &view))
	assert.Equal(t, "2024-03", view.Month)
	assert.Equal(t, 16, view.Insights.DaysLeft)
}

func TestCategoriesDoesNotOpenLedger(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("categories"))
	assert.Contains(t, h.out.String(), "education")
	assert.Zero(t, h.opens)
}

func TestOpenFailure(t *testing.T) {
	a := newApp(io.Discard)
	a.open = func(context.Context, string) (*ledger.Store, *config.Config, func(), error) {
		return nil, nil, nil, errors.New("no backend")
	}
	cmd := newRootCmd(a)
	cmd.SetArgs([]string{"ls"})
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open ledger")
}
