package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"smschat/internal/identity"
	"smschat/internal/indexer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "smschat.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSaveIndexRoundTrip(t *testing.T) {
	alice := &identity.User{Phone: "+15551234567", Name: "Alice"}
	me := &identity.User{Email: "me@example.com"}
	key := uuid.New()

	sent := time.Date(2009, 2, 13, 23, 31, 30, 0, time.UTC)
	convos := indexer.Conversations{
		key: {
			7: []indexer.Attributed{
				{Sender: alice, Receiver: me, ID: 1, Date: sent, Body: "hello"},
				{Sender: me, Receiver: alice, ID: 2, Date: sent.Add(time.Minute), Body: "hi"},
			},
		},
	}

	st := openTestStore(t)
	if err := st.SaveIndex([]*identity.User{alice, me}, convos); err != nil {
		t.Fatalf("SaveIndex() failed: %v", err)
	}

	users, conversations, messages, err := st.Counts()
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if users != 2 || conversations != 1 || messages != 2 {
		t.Errorf("Counts() = %d/%d/%d, want 2/1/2", users, conversations, messages)
	}

	var gotBody string
	var gotSentAt int64
	err = st.db.QueryRow(
		`SELECT m.body, m.sent_at_ms
		   FROM messages m
		   JOIN conversations c ON c.id = m.conversation_id
		  WHERE c.key = ? AND m.sms_id = 1`, key.String(),
	).Scan(&gotBody, &gotSentAt)
	if err != nil {
		t.Fatalf("query message: %v", err)
	}
	if gotBody != "hello" {
		t.Errorf("body = %q, want %q", gotBody, "hello")
	}
	if gotSentAt != sent.UnixMilli() {
		t.Errorf("sent_at_ms = %d, want %d", gotSentAt, sent.UnixMilli())
	}
}

func TestSaveIndexRejectsUnknownUser(t *testing.T) {
	alice := &identity.User{Name: "Alice"}
	stranger := &identity.User{Name: "Stranger"}

	convos := indexer.Conversations{
		uuid.New(): {
			1: []indexer.Attributed{
				{Sender: alice, Receiver: stranger, ID: 1, Date: time.Now(), Body: "x"},
			},
		},
	}

	st := openTestStore(t)
	if err := st.SaveIndex([]*identity.User{alice}, convos); err == nil {
		t.Fatal("SaveIndex() with an unlisted user should fail")
	}

	// The failed save must not leave partial rows behind.
	users, conversations, messages, err := st.Counts()
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if users != 0 || conversations != 0 || messages != 0 {
		t.Errorf("Counts() after failed save = %d/%d/%d, want 0/0/0",
			users, conversations, messages)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smschat.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	st.Close()
}
