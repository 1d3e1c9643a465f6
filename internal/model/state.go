package model

import "context"

// Well-known state names; one durable record per store.
const (
	AuthStateName = "auth-storage"
	CartStateName = "cart-storage"
)

// StateVersion tags persisted envelopes so a future shape change can be
// detected instead of silently misparsing old data.
const StateVersion = 1

// StateStore is the write-through persistence port both stores depend on.
// Implementations persist an opaque serialized blob per state name; the
// durable medium (file, database, object storage) is swappable.
type StateStore interface {
	// Load returns the last saved blob for name, or ErrNotFound when nothing
	// has been saved yet.
	Load(ctx context.Context, name string) ([]byte, error)
	// Save durably replaces the blob for name.
	Save(ctx context.Context, name string, data []byte) error
}

// AuthState is the persisted envelope of the auth store.
type AuthState struct {
	Version int     `json:"version"`
	Session Session `json:"session"`
}

// CartState is the persisted envelope of the cart store.
type CartState struct {
	Version int  `json:"version"`
	Cart    Cart `json:"cart"`
}
