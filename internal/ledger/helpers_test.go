package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"budgetly/internal/clock"
	"budgetly/internal/events"
	"budgetly/internal/ids"
	"budgetly/internal/storage"
)

var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterIDs() ids.Generator {
	var mu sync.Mutex
	n := 0
	return ids.GeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func testOptions(extra ...Option) []Option {
	opts := []Option{
		WithClock(clock.Fixed(testNow)),
		WithIDGenerator(counterIDs()),
		WithLogger(testLogger()),
	}
	return append(opts, extra...)
}

// brokenSlot fails every call.
type brokenSlot struct{}

var errSlotDown = errors.New("slot down")

func (brokenSlot) Get(context.Context, string) (string, bool, error) { return "", false, errSlotDown }
func (brokenSlot) Set(context.Context, string, string) error        { return errSlotDown }

// countingSlot wraps a slot and counts writes.
type countingSlot struct {
	storage.Slot
	mu     sync.Mutex
	writes int
}

func (c *countingSlot) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.Slot.Set(ctx, key, value)
}

func (c *countingSlot) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
