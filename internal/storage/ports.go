// Package storage defines the key-value slot the ledger persists into and
// holds its provider implementations in sub-packages.
package storage

import (
	"context"
	"errors"
)

// Slot is a string key-value store. A missing key is reported with ok=false
// and a nil error.
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// ErrEmptyKey is returned by providers for a blank key.
var ErrEmptyKey = errors.New("empty storage key")
