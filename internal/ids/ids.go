// Package ids generates collision-resistant expense identifiers.
package ids

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	SchemeUUID = "uuid"
	SchemeULID = "ulid"
)

// Generator supplies a new unique identifier per call.
type Generator interface {
	NewID() string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) NewID() string { return f() }

// UUID returns random v4 UUIDs.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// ULID returns lexicographically sortable ULIDs.
type ULID struct {
	mu   sync.Mutex
	mono io.Reader
}

// NewULID seeds a monotonic ULID source from crypto/rand.
func NewULID() *ULID {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ULID{mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.mono)
	if err != nil {
		// Only possible if the monotonic entropy overflows within one millisecond.
		return uuid.NewString()
	}
	return id.String()
}

// New returns the generator for the named scheme.
func New(scheme string) (Generator, error) {
	switch scheme {
	case "", SchemeUUID:
		return UUID{}, nil
	case SchemeULID:
		return NewULID(), nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
