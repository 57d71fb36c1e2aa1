package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetly/internal/analytics"
	"budgetly/internal/clock"
	"budgetly/internal/core"
	"budgetly/internal/ids"
	"budgetly/internal/ledger"
	"budgetly/internal/middleware/ratelimit"
	"budgetly/internal/storage/memory"
)

var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() ids.Generator {
	var mu sync.Mutex
	n := 0
	return ids.GeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

// newTestServer starts from the given ledger, or from the seed when snap is nil.
func newTestServer(t *testing.T, snap *ledger.Snapshot, opts ...Option) (*Server, *ledger.Store) {
	t.Helper()
	slot := memory.New()
	if snap != nil {
		raw, err := ledger.Encode(*snap)
		require.NoError(t, err)
		slot = memory.NewWithValues(map[string]string{ledger.StorageKey: raw})
	}

	store := ledger.Open(context.Background(), slot,
		ledger.WithClock(clock.Fixed(testNow)),
		ledger.WithIDGenerator(sequentialIDs()),
		ledger.WithLogger(discardLogger()),
	)

	opts = append([]Option{WithClock(clock.Fixed(testNow)), WithLogger(discardLogger())}, opts...)
	srv := NewServer(":0", store, opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func fixtureLedger() *ledger.Snapshot {
	return &ledger.Snapshot{
		Budget: core.MustParseAmount("1000"),
		Expenses: []core.Expense{
			{ID: "a", Amount: core.MustParseAmount("120.50"), Category: "food", Description: "Groceries", Date: core.NewDate(2024, 3, 14)},
			{ID: "b", Amount: core.MustParseAmount("40"), Category: "transport", Description: "Metro card", Date: core.NewDate(2024, 3, 2)},
			{ID: "c", Amount: core.MustParseAmount("300"), Category: "bills", Description: "Electricity", Date: core.NewDate(2024, 2, 20)},
		},
	}
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", rr.Body.String())
}

func TestResponsesCarryRequestIDAndSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/categories", "", "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[categoriesResponse](t, rr)
	assert.Equal(t, core.Categories(), body.Categories)
}

func TestListExpenses(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	tests := []struct {
		name    string
		query   string
		wantIDs []string
		total   string
	}{
		{"default sort is newest first", "", []string{"a", "b", "c"}, "460.5"},
		{"oldest first", "?sort=date-asc", []string{"c", "b", "a"}, "460.5"},
		{"largest first", "?sort=amount-desc", []string{"c", "a", "b"}, "460.5"},
		{"category filter", "?category=food", []string{"a"}, "120.5"},
		{"all categories", "?category=all&sort=amount-asc", []string{"b", "a", "c"}, "460.5"},
		{"text search is case insensitive", "?q=METRO", []string{"b"}, "40"},
		{"no match", "?q=holiday", []string{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/expenses"+tt.query, "", "")
			require.Equal(t, http.StatusOK, rr.Code)

			body := decode[expenseListResponse](t, rr)
			got := make([]string, 0, len(body.Expenses))
			for _, e := range body.Expenses {
				got = append(got, e.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
			assert.Equal(t, len(tt.wantIDs), body.Count)
			assert.Equal(t, core.MustParseAmount(tt.total), body.Total)
		})
	}
}

func TestListExpensesRejectsUnknownSort(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/expenses?sort=random", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid sort")
}

func TestCreateExpense(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json",
		`{"amount": 25.75, "category": "health", "description": "Pharmacy", "date": "2024-03-10"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/api/expenses/id-1", rr.Header().Get("Location"))

	created := decode[core.Expense](t, rr)
	assert.Equal(t, core.Expense{
		ID:          "id-1",
		Amount:      core.MustParseAmount("25.75"),
		Category:    "health",
		Description: "Pharmacy",
		Date:        core.NewDate(2024, 3, 10),
	}, created)

	snap := store.Snapshot()
	require.Len(t, snap.Expenses, 4)
	assert.Equal(t, "id-1", snap.Expenses[0].ID, "new expenses are prepended")
}

func TestCreateExpenseDefaultsAndNormalisation(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	form := url.Values{"amount": {"12,5"}, "category": {"crypto"}}
	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[core.Expense](t, rr)
	assert.Equal(t, core.MustParseAmount("12.50"), created.Amount)
	assert.Equal(t, core.CategoryOther, created.Category)
	assert.Equal(t, core.DateOf(testNow), created.Date, "missing date means today")
	assert.Empty(t, created.Description)
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing amount", `{"category": "food"}`, "amount"},
		{"negative amount", `{"amount": "-5", "category": "food"}`, "amount"},
		{"non numeric amount", `{"amount": "ten", "category": "food"}`, "amount"},
		{"missing category", `{"amount": 5}`, "category"},
		{"bad date", `{"amount": 5, "category": "food", "date": "15/03/2024"}`, "date"},
		{"long description", `{"amount": 5, "category": "food", "description": "` + strings.Repeat("x", core.MaxDescriptionLen+1) + `"}`, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

			body := decode[errorBody](t, rr)
			assert.Equal(t, tt.wantField, body.Field)
			assert.NotEmpty(t, body.RequestID)
		})
	}

	assert.Len(t, store.Snapshot().Expenses, 3, "rejected input never reaches the ledger")
}

func TestCreateExpenseMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", `{"amount": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetExpense(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/expenses/b", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Metro card", decode[core.Expense](t, rr).Description)

	rr = do(t, srv, http.MethodGet, "/api/expenses/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateExpense(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodPut, "/api/expenses/b", "application/json",
		`{"id": "ignored", "amount": "55", "category": "shopping", "description": "Shoes"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	updated := decode[core.Expense](t, rr)
	assert.Equal(t, core.Expense{
		ID:          "b",
		Amount:      core.MustParseAmount("55"),
		Category:    "shopping",
		Description: "Shoes",
		Date:        core.NewDate(2024, 3, 2),
	}, updated, "path id wins and a missing date keeps the stored one")

	snap := store.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap.Expenses[0].ID, snap.Expenses[1].ID, snap.Expenses[2].ID})
	_, ok := store.Get("ignored")
	assert.False(t, ok)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())
	before := store.Snapshot()

	rr := do(t, srv, http.MethodPut, "/api/expenses/missing", "application/json", `{"amount": 1, "category": "food"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, before, store.Snapshot())
}

func TestUpdateExpenseValidation(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodPut, "/api/expenses/a", "application/json", `{"amount": "-1", "category": "food"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	e, _ := store.Get("a")
	assert.Equal(t, core.MustParseAmount("120.50"), e.Amount)
}

func TestDeleteExpense(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodDelete, "/api/expenses/a", "", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Len(t, store.Snapshot().Expenses, 2)

	rr = do(t, srv, http.MethodDelete, "/api/expenses/a", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBudget(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/budget", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"budget": 1000}`, rr.Body.String())

	rr = do(t, srv, http.MethodPut, "/api/budget", "application/json", `{"budget": 2500.5}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"budget": 2500.5}`, rr.Body.String())
	assert.Equal(t, core.MustParseAmount("2500.50"), store.Snapshot().Budget)

	rr = do(t, srv, http.MethodPut, "/api/budget", "application/json", `{"budget": 0}`)
	assert.Equal(t, http.StatusOK, rr.Code, "a zero budget is allowed")
}

func TestBudgetValidation(t *testing.T) {
	srv, store := newTestServer(t, fixtureLedger())

	for _, body := range []string{`{"budget": -10}`, `{}`, `{"budget": "lots"}`} {
		rr := do(t, srv, http.MethodPut, "/api/budget", "application/json", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, body)
		assert.Equal(t, "budget", decode[errorBody](t, rr).Field)
	}
	assert.Equal(t, core.MustParseAmount("1000"), store.Snapshot().Budget)
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var view struct {
		Month  string              `json:"month"`
		Stats  analytics.StatCards `json:"stats"`
		Daily  []analytics.Point   `json:"daily"`
		Recent []core.Expense      `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))

	assert.Equal(t, "2024-03", view.Month)
	assert.Equal(t, core.MustParseAmount("160.50"), view.Stats.MonthlySpending)
	assert.Equal(t, core.MustParseAmount("839.50"), view.Stats.RemainingBudget)
	assert.Equal(t, int64(16), view.Stats.BudgetUsedPercent)
	assert.Equal(t, 2, view.Stats.TransactionCount)
	assert.Len(t, view.Daily, analytics.DailyWindowDays)
	assert.Len(t, view.Recent, 3)
}

func TestDashboardReferenceDate(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/dashboard?date=2024-02-10", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[analytics.DashboardView](t, rr)
	assert.Equal(t, "2024-02", view.Month)
	assert.Equal(t, core.MustParseAmount("300"), view.Stats.MonthlySpending)

	rr = do(t, srv, http.MethodGet, "/api/dashboard?date=February", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboardReflectsMutationsAfterCaching(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	first := decode[analytics.DashboardView](t, do(t, srv, http.MethodGet, "/api/dashboard", "", ""))
	again := decode[analytics.DashboardView](t, do(t, srv, http.MethodGet, "/api/dashboard", "", ""))
	assert.Equal(t, first, again)
	assert.Equal(t, 1, srv.dashboards.Size())

	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", `{"amount": 39.5, "category": "food"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	after := decode[analytics.DashboardView](t, do(t, srv, http.MethodGet, "/api/dashboard", "", ""))
	assert.Equal(t, core.MustParseAmount("200"), after.Stats.MonthlySpending)
	assert.Equal(t, 3, after.Stats.TransactionCount)
}

func TestAnalytics(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/analytics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	view := decode[analytics.AnalyticsView](t, rr)
	assert.Equal(t, "2024-03", view.Month)
	assert.Len(t, view.Weekly, analytics.WeeklyBuckets)
	assert.Len(t, view.Monthly, analytics.ComparisonMonths)
	assert.Equal(t, "2024-03", view.Monthly[len(view.Monthly)-1].Key)
	assert.False(t, view.Insights.BudgetAlert)
	require.NotNil(t, view.Insights.TopCategory)
	assert.Equal(t, "food", view.Insights.TopCategory.ID)
	assert.Equal(t, 16, view.Insights.DaysLeft)
	assert.NotEmpty(t, view.Insights.Items)
}

func TestAnalyticsUsesCurrencySymbol(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger(), WithCurrencySymbol("€"))

	rr := do(t, srv, http.MethodGet, "/api/analytics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "€")
	assert.NotContains(t, rr.Body.String(), "₹")
}

func TestSeededLedgerWhenSlotEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/expenses", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, decode[expenseListResponse](t, rr).Count)

	rr = do(t, srv, http.MethodGet, "/api/budget", "", "")
	assert.JSONEq(t, `{"budget": 3500}`, rr.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodPatch, "/api/budget", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger())

	rr := do(t, srv, http.MethodGet, "/api/expenses?q=../../etc/passwd", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	srv, _ := newTestServer(t, fixtureLedger(), WithRateLimit(ratelimit.Config{RequestsPerMinute: 2}))

	for i := 0; i < 2; i++ {
		rr := do(t, srv, http.MethodPut, "/api/budget", "application/json", `{"budget": 100}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, srv, http.MethodPut, "/api/budget", "application/json", `{"budget": 100}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	for i := 0; i < 5; i++ {
		rr = do(t, srv, http.MethodGet, "/api/budget", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
