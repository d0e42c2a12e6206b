// Package indexer buckets archived messages into conversations between
// resolved identities.
package indexer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"smschat/internal/identity"
	"smschat/internal/interaction"
	"smschat/internal/sms"
)

// Attributed is one message with both parties resolved to canonical
// users, ready for export.
type Attributed struct {
	Sender   *identity.User
	Receiver *identity.User
	Date     time.Time
	ID       int64
	Body     string
}

// Conversations is the bucket table: conversation key -> thread id ->
// messages in input order. Threads are sorted by message ID at export
// time, not here.
type Conversations map[uuid.UUID]map[int64][]Attributed

// Indexer runs the two-pass conversation indexing over a loaded
// archive. One Indexer serves one run; it owns its registry and
// interaction index exclusively.
type Indexer struct {
	registry     *identity.Registry
	interactions *interaction.Index
	log          *slog.Logger
}

// New returns an Indexer ready for one run. A nil logger means
// slog.Default().
func New(log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		registry:     identity.NewRegistry(log),
		interactions: interaction.NewIndex(),
		log:          log,
	}
}

// Users returns the canonical users accumulated by Index.
func (x *Indexer) Users() []*identity.User {
	return x.registry.Users()
}

// Index buckets every message by conversation key and thread.
//
// Pass one feeds each message's sender and receiver fragments into the
// identity registry, then resolves the provisional entries once all
// evidence is in. Pass two maps each message's pair of canonical users
// to a conversation key and appends the message to its bucket. Any
// identity error aborts the whole run: there is no partial output mode,
// because misfiling a personal message under the wrong person is worse
// than failing.
func (x *Indexer) Index(msgs []*sms.Message) (Conversations, error) {
	x.log.Info("indexing user metadata", "messages", len(msgs))
	for _, m := range msgs {
		sender, err := m.Sender()
		if err != nil {
			return nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
		}
		receiver, err := m.Receiver()
		if err != nil {
			return nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
		}
		if err := x.registry.Update(sender); err != nil {
			return nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
		}
		if err := x.registry.Update(receiver); err != nil {
			return nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
		}
	}
	if err := x.registry.ResolvePartials(); err != nil {
		return nil, err
	}

	x.log.Info("indexing messages", "users", len(x.registry.Users()))
	convos := make(Conversations)
	for _, m := range msgs {
		sender, receiver, err := x.resolve(m)
		if err != nil {
			return nil, err
		}
		x.interactions.Update(sender, receiver)
		key, err := x.interactions.Get(sender, receiver)
		if err != nil {
			return nil, err
		}
		m.Conversation = key
		threads, ok := convos[key]
		if !ok {
			threads = make(map[int64][]Attributed)
			convos[key] = threads
		}
		threads[m.Thread] = append(threads[m.Thread], Attributed{
			Sender:   sender,
			Receiver: receiver,
			Date:     m.Date,
			ID:       m.ID,
			Body:     m.Body,
		})
	}
	return convos, nil
}

// resolve maps one message's attributed fragments to canonical users.
// Attribution already succeeded in pass one, so a fragment failing to
// resolve here indicates a registry bug.
func (x *Indexer) resolve(m *sms.Message) (sender, receiver *identity.User, err error) {
	senderFrag, err := m.Sender()
	if err != nil {
		return nil, nil, err
	}
	receiverFrag, err := m.Receiver()
	if err != nil {
		return nil, nil, err
	}
	if sender, err = x.registry.Find(senderFrag); err != nil {
		return nil, nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
	}
	if receiver, err = x.registry.Find(receiverFrag); err != nil {
		return nil, nil, fmt.Errorf("message %d in thread %d: %w", m.ID, m.Thread, err)
	}
	return sender, receiver, nil
}
