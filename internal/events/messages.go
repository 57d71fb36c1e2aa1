package events

import (
	"encoding/json"
	"time"

	"budgetly/internal/core"
)

// Event types published after a ledger mutation.
const (
	TypeExpenseAdded   = "expense.added"
	TypeExpenseEdited  = "expense.edited"
	TypeExpenseRemoved = "expense.removed"
	TypeBudgetSet      = "budget.set"
)

// Event describes one applied ledger mutation. Expense is set for add/edit,
// ExpenseID for every expense event, Budget for budget.set.
type Event struct {
	Type      string        `json:"type"`
	ExpenseID string        `json:"expense_id,omitempty"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Budget    *core.Money   `json:"budget,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func ExpenseAdded(e core.Expense, at time.Time) Event {
	return Event{Type: TypeExpenseAdded, ExpenseID: e.ID, Expense: &e, Timestamp: at}
}

func ExpenseEdited(e core.Expense, at time.Time) Event {
	return Event{Type: TypeExpenseEdited, ExpenseID: e.ID, Expense: &e, Timestamp: at}
}

func ExpenseRemoved(id string, at time.Time) Event {
	return Event{Type: TypeExpenseRemoved, ExpenseID: id, Timestamp: at}
}

func BudgetSet(m core.Money, at time.Time) Event {
	return Event{Type: TypeBudgetSet, Budget: &m, Timestamp: at}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event published by this package.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
