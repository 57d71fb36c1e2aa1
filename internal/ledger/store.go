// Package ledger owns the expense list and monthly budget, applies mutations
// to them and persists every change to a single storage slot.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"budgetly/internal/clock"
	"budgetly/internal/core"
	"budgetly/internal/events"
	"budgetly/internal/ids"
	"budgetly/internal/log"
	"budgetly/internal/storage"
)

// Snapshot is an immutable view of the ledger. Expenses are ordered newest
// insertion first.
type Snapshot struct {
	Expenses []core.Expense `json:"expenses"`
	Budget   core.Money     `json:"budget"`
}

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Budget: s.Budget, Expenses: make([]core.Expense, len(s.Expenses))}
	copy(out.Expenses, s.Expenses)
	return out
}

// Find returns the expense with the given id.
func (s Snapshot) Find(id string) (core.Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Notifier is told about every applied mutation.
type Notifier interface {
	Notify(ctx context.Context, e events.Event) error
}

// Option configures a Store.
type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithIDGenerator(g ids.Generator) Option {
	return func(s *Store) { s.ids = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithKey overrides the storage key. Only useful for tests sharing a slot.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store holds the current snapshot. Mutations are serialised and replace the
// expense slice instead of modifying it, so snapshots handed out earlier stay
// valid.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	rev  uint64

	slot     storage.Slot
	key      string
	clock    clock.Clock
	ids      ids.Generator
	logger   *slog.Logger
	notifier Notifier
}

// Open loads the ledger from slot. An absent value, a read error or an
// unparseable value yields the seeded ledger; errors are logged, not returned.
func Open(ctx context.Context, slot storage.Slot, opts ...Option) *Store {
	s := &Store{
		slot:  slot,
		key:   StorageKey,
		clock: clock.System{},
		ids:   ids.UUID{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With(log.FieldComponent, log.ComponentLedger)
	}

	s.snap = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) Snapshot {
	raw, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read ledger, using seed data",
			log.FieldOperation, log.OpLoad,
			log.FieldStorageKey, s.key,
			log.FieldError, err)
		return Seed(s.clock.Now(), s.ids)
	}
	if !ok {
		seeded := Seed(s.clock.Now(), s.ids)
		s.logger.InfoContext(ctx, "No stored ledger, seeding sample data",
			log.FieldStorageKey, s.key,
			"expenses", len(seeded.Expenses))
		s.persist(ctx, seeded)
		return seeded
	}

	snap, err := Decode(raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored ledger is unreadable, using seed data",
			log.FieldOperation, log.OpLoad,
			log.FieldStorageKey, s.key,
			log.FieldError, err)
		return Seed(s.clock.Now(), s.ids)
	}
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldStorageKey, s.key,
		"expenses", len(snap.Expenses),
		log.FieldBudgetCents, snap.Budget.Cents)
	return snap
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// SnapshotAt returns a copy of the current state and its revision. The
// revision starts at zero when the store opens and grows with every applied
// mutation.
func (s *Store) SnapshotAt() (Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), s.rev
}

// Get returns the expense with the given id.
func (s *Store) Get(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Find(id)
}

// Add assigns an id when e has none, validates e and prepends it.
func (s *Store) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = s.ids.NewID()
	}
	e.Category = core.NormalizeCategory(e.Category)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	next := Snapshot{Budget: s.snap.Budget, Expenses: make([]core.Expense, 0, len(s.snap.Expenses)+1)}
	next.Expenses = append(next.Expenses, e)
	next.Expenses = append(next.Expenses, s.snap.Expenses...)
	s.commit(ctx, next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldOperation, log.OpAdd,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldCategory, e.Category)
	s.notify(ctx, events.ExpenseAdded(e, s.clock.Now()))
	return e, nil
}

// Edit replaces every expense sharing e's id, keeping their positions. It
// reports false and changes nothing when no expense has that id.
func (s *Store) Edit(ctx context.Context, e core.Expense) (bool, error) {
	e.Category = core.NormalizeCategory(e.Category)
	if err := e.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.count(e.ID) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := s.snap.Clone()
	for i := range next.Expenses {
		if next.Expenses[i].ID == e.ID {
			next.Expenses[i] = e
		}
	}
	s.commit(ctx, next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense edited",
		log.FieldOperation, log.OpEdit,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldCategory, e.Category)
	s.notify(ctx, events.ExpenseEdited(e, s.clock.Now()))
	return true, nil
}

// Remove deletes every expense with the given id. It reports false when there
// was nothing to delete.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	n := s.count(id)
	if n == 0 {
		s.mu.Unlock()
		return false
	}
	next := Snapshot{Budget: s.snap.Budget, Expenses: make([]core.Expense, 0, len(s.snap.Expenses)-n)}
	for _, e := range s.snap.Expenses {
		if e.ID != id {
			next.Expenses = append(next.Expenses, e)
		}
	}
	s.commit(ctx, next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldOperation, log.OpRemove,
		log.FieldExpenseID, id,
		log.FieldCount, n)
	s.notify(ctx, events.ExpenseRemoved(id, s.clock.Now()))
	return true
}

// SetBudget replaces the monthly budget.
func (s *Store) SetBudget(ctx context.Context, budget core.Money) error {
	if err := budget.Validate(); err != nil {
		return &core.ValidationError{Field: "budget", Err: err}
	}

	s.mu.Lock()
	next := Snapshot{Budget: budget, Expenses: s.snap.Expenses}
	s.commit(ctx, next)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Budget set",
		log.FieldOperation, log.OpSetBudget,
		log.FieldBudgetCents, budget.Cents)
	s.notify(ctx, events.BudgetSet(budget, s.clock.Now()))
	return nil
}

// count must be called with mu held.
func (s *Store) count(id string) int {
	if id == "" {
		return 0
	}
	n := 0
	for _, e := range s.snap.Expenses {
		if e.ID == id {
			n++
		}
	}
	return n
}

// commit must be called with mu held for writing.
func (s *Store) commit(ctx context.Context, next Snapshot) {
	s.snap = next
	s.rev++
	s.persist(ctx, next)
}

func (s *Store) persist(ctx context.Context, snap Snapshot) {
	data, err := Encode(snap)
	if err == nil {
		err = s.slot.Set(ctx, s.key, data)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.FieldOperation, log.OpSave,
			log.FieldStorageKey, s.key,
			log.FieldError, err)
	}
}

func (s *Store) notify(ctx context.Context, e events.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, e.Type,
			log.FieldError, err)
	}
}

// IsValidation reports whether err was caused by rejected input.
func IsValidation(err error) bool {
	var ve *core.ValidationError
	return errors.As(err, &ve)
}
