package interaction

import (
	"errors"
	"testing"

	"smschat/internal/identity"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	alice := &identity.User{Name: "Alice"}
	bob := &identity.User{Name: "Bob"}

	ix := NewIndex()
	ix.Update(alice, bob)

	ab, err := ix.Get(alice, bob)
	if err != nil {
		t.Fatalf("Get(alice, bob) failed: %v", err)
	}
	ba, err := ix.Get(bob, alice)
	if err != nil {
		t.Fatalf("Get(bob, alice) failed: %v", err)
	}
	if ab != ba {
		t.Errorf("keys differ by order: %s vs %s", ab, ba)
	}
}

func TestUpdateIsFirstWriteWins(t *testing.T) {
	alice := &identity.User{Name: "Alice"}
	bob := &identity.User{Name: "Bob"}

	ix := NewIndex()
	ix.Update(alice, bob)
	first, err := ix.Get(alice, bob)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	ix.Update(bob, alice)
	ix.Update(alice, bob)
	again, err := ix.Get(alice, bob)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if first != again {
		t.Errorf("key regenerated: %s vs %s", first, again)
	}
}

func TestDistinctPairsGetDistinctKeys(t *testing.T) {
	alice := &identity.User{Name: "Alice"}
	bob := &identity.User{Name: "Bob"}
	carl := &identity.User{Name: "Carl"}

	ix := NewIndex()
	ix.Update(alice, bob)
	ix.Update(alice, carl)

	ab, _ := ix.Get(alice, bob)
	ac, _ := ix.Get(alice, carl)
	if ab == ac {
		t.Errorf("distinct pairs share key %s", ab)
	}
}

func TestGetUnknownPair(t *testing.T) {
	alice := &identity.User{Name: "Alice"}
	bob := &identity.User{Name: "Bob"}

	ix := NewIndex()
	if _, err := ix.Get(alice, bob); !errors.Is(err, ErrUnknownInteraction) {
		t.Errorf("Get() = %v, want ErrUnknownInteraction", err)
	}
}
