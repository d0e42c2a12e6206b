// Package interaction assigns stable conversation keys to pairs of
// resolved users.
package interaction

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"smschat/internal/identity"
)

// ErrUnknownInteraction means Get was called for a pair that was never
// registered. The indexer registers every pair before reading keys
// back, so hitting this is a consistency bug.
var ErrUnknownInteraction = errors.New("no key for interaction")

type pair struct {
	a, b *identity.User
}

// Index maps unordered pairs of canonical users to opaque conversation
// keys, so both directions of a conversation share one key. Keys are
// unique for the lifetime of a run; they are not stable across runs.
type Index struct {
	keys map[pair]uuid.UUID
}

// NewIndex returns an empty interaction index.
func NewIndex() *Index {
	return &Index{keys: make(map[pair]uuid.UUID)}
}

// Update registers an interaction between a and b, minting a key on
// first sight. Calling it again for the same pair, in either order, is
// a no-op; an existing key is never regenerated.
func (ix *Index) Update(a, b *identity.User) {
	if _, ok := ix.keys[pair{a, b}]; ok {
		return
	}
	key := uuid.New()
	ix.keys[pair{a, b}] = key
	ix.keys[pair{b, a}] = key
}

// Get returns the conversation key for the pair, in either order.
func (ix *Index) Get(a, b *identity.User) (uuid.UUID, error) {
	key, ok := ix.keys[pair{a, b}]
	if !ok {
		return uuid.UUID{}, fmt.Errorf("%w: %v / %v", ErrUnknownInteraction, a, b)
	}
	return key, nil
}
