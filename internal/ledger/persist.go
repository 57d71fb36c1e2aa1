package ledger

import (
	"encoding/json"
	"fmt"

	"budgetly/internal/core"
)

// StorageKey is the slot the ledger is persisted under.
const StorageKey = "smart-expense-tracker"

// SchemaVersion is written into every persisted snapshot. Values saved without
// a version field are read as version 1.
const SchemaVersion = 1

type persistedState struct {
	Version  int            `json:"version,omitempty"`
	Expenses []core.Expense `json:"expenses"`
	Budget   core.Money     `json:"budget"`
}

// Encode serialises a snapshot to the persisted JSON layout.
func Encode(s Snapshot) (string, error) {
	state := persistedState{
		Version:  SchemaVersion,
		Expenses: s.Expenses,
		Budget:   s.Budget,
	}
	if state.Expenses == nil {
		state.Expenses = []core.Expense{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal ledger: %w", err)
	}
	return string(data), nil
}

// Decode parses a persisted snapshot. Records that would fail a mutation's
// validation make the whole value unparseable.
func Decode(data string) (Snapshot, error) {
	var state persistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal ledger: %w", err)
	}
	if state.Version > SchemaVersion {
		return Snapshot{}, fmt.Errorf("unsupported ledger version %d (max %d)", state.Version, SchemaVersion)
	}
	if err := state.Budget.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("invalid stored budget: %w", err)
	}
	for i, e := range state.Expenses {
		if err := e.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("invalid stored expense %d: %w", i, err)
		}
	}
	if state.Expenses == nil {
		state.Expenses = []core.Expense{}
	}
	return Snapshot{Expenses: state.Expenses, Budget: state.Budget}, nil
}
