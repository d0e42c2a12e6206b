package indexer

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"smschat/internal/identity"
	"smschat/internal/sms"
)

var (
	phone = identity.Fragment{Phone: "+15551234567"}
	me    = identity.Fragment{Email: "me@example.com"}
)

func inbound(id, thread int64, body string) *sms.Message {
	return &sms.Message{
		Kind:    sms.KindInbound,
		ID:      id,
		Thread:  thread,
		Date:    time.Date(2009, 2, 13, 23, 31, 30, 0, time.UTC),
		Address: phone,
		From:    identity.Fragment{Name: "Bob"},
		To:      me,
		Body:    body,
	}
}

func outbound(id, thread int64, body string) *sms.Message {
	return &sms.Message{
		Kind:    sms.KindSent,
		ID:      id,
		Thread:  thread,
		Date:    time.Date(2009, 2, 13, 23, 32, 0, 0, time.UTC),
		Address: phone,
		From:    me,
		To:      phone,
		Body:    body,
	}
}

func TestIndexBucketsBothDirectionsTogether(t *testing.T) {
	msgs := []*sms.Message{
		inbound(1, 7, "hello"),
		outbound(2, 7, "hi yourself"),
	}

	idx := New(nil)
	convos, err := idx.Index(msgs)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}

	if len(convos) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convos))
	}
	if msgs[0].Conversation == (uuid.UUID{}) {
		t.Error("conversation key not attached to message")
	}
	if msgs[0].Conversation != msgs[1].Conversation {
		t.Errorf("directions split across keys: %s vs %s",
			msgs[0].Conversation, msgs[1].Conversation)
	}

	threads := convos[msgs[0].Conversation]
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	bucket := threads[7]
	if len(bucket) != 2 {
		t.Fatalf("got %d messages in thread 7, want 2", len(bucket))
	}

	// The inbound sender and the outbound receiver are the same person.
	if bucket[0].Sender != bucket[1].Receiver {
		t.Error("inbound sender and outbound receiver resolved to different users")
	}
	if bucket[0].Receiver != bucket[1].Sender {
		t.Error("inbound receiver and outbound sender resolved to different users")
	}
	if bucket[0].Sender.Name != "Bob" {
		t.Errorf("remote user name = %q, want %q", bucket[0].Sender.Name, "Bob")
	}
}

func TestIndexSplitsThreads(t *testing.T) {
	msgs := []*sms.Message{
		inbound(1, 7, "hello"),
		inbound(2, 8, "separate thread"),
	}

	idx := New(nil)
	convos, err := idx.Index(msgs)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}
	if len(convos) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convos))
	}
	threads := convos[msgs[0].Conversation]
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
}

func TestIndexPreservesInputOrder(t *testing.T) {
	// Buckets keep input order; sorting by message ID happens at
	// export time.
	msgs := []*sms.Message{
		inbound(5, 7, "later"),
		inbound(2, 7, "earlier"),
	}

	idx := New(nil)
	convos, err := idx.Index(msgs)
	if err != nil {
		t.Fatalf("Index() failed: %v", err)
	}
	bucket := convos[msgs[0].Conversation][7]
	if bucket[0].ID != 5 || bucket[1].ID != 2 {
		t.Errorf("bucket order = [%d, %d], want input order [5, 2]",
			bucket[0].ID, bucket[1].ID)
	}
}

func TestIndexAbortsOnAmbiguity(t *testing.T) {
	m := inbound(1, 7, "hello")
	m.Subject = identity.Fragment{Name: "Carl"} // disagrees with From

	idx := New(nil)
	_, err := idx.Index([]*sms.Message{m})
	var ambiguous *sms.AmbiguityError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("Index() = %v, want AmbiguityError", err)
	}
}

func TestIndexAbortsOnConflict(t *testing.T) {
	first := inbound(1, 7, "hello")
	second := inbound(2, 7, "hello again")
	second.From = identity.Fragment{Name: "Robert"} // same phone, new name

	idx := New(nil)
	_, err := idx.Index([]*sms.Message{first, second})
	var conflict *identity.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Index() = %v, want ConflictError", err)
	}
}

func TestIndexAbortsOnUnsupportedKind(t *testing.T) {
	m := inbound(1, 7, "hello")
	m.Kind = 0

	idx := New(nil)
	if _, err := idx.Index([]*sms.Message{m}); !errors.Is(err, sms.ErrUnsupportedKind) {
		t.Fatalf("Index() = %v, want ErrUnsupportedKind", err)
	}
}
