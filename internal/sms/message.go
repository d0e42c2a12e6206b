// Package sms models one archived text message and the attribution
// rules that decide which header fragments describe its sender and
// which its receiver.
package sms

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smschat/internal/identity"
)

// Kind is the message direction/status code from the X-smssync-type
// header, matching the Android SMS provider's type column.
type Kind int

const (
	KindInbound Kind = 1
	KindSent    Kind = 2
	KindDraft   Kind = 3
	KindOutbox  Kind = 4
	KindFailed  Kind = 5
	KindQueued  Kind = 6
)

// ErrUnsupportedKind means the direction code is outside the known
// range. Codes above KindInbound all count as sent; codes at or below
// zero are rejected.
var ErrUnsupportedKind = errors.New("unsupported message kind")

// Message is one normalized text message reconstructed from a backup
// email. Timestamps are always UTC; any configured display timezone is
// applied downstream at export time.
//
// Conversation is the one field mutated after construction: the indexer
// attaches it once identities are resolved.
type Message struct {
	To            identity.Fragment
	From          identity.Fragment
	Subject       identity.Fragment
	Address       identity.Fragment
	ServiceCenter identity.Fragment

	Kind     Kind
	ID       int64 // ordering key within a thread
	Thread   int64
	Date     time.Time // UTC
	Read     int
	Status   int
	Protocol int

	ContentType  string
	Body         string
	Conversation uuid.UUID
}

// AmbiguityError reports corroborating header fields that disagree
// about one identity field. More than one distinct candidate means the
// archive itself is inconsistent; surfacing every competing value beats
// picking one.
type AmbiguityError struct {
	Field  string
	Values []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous identity: field %s has competing values %q",
		e.Field, e.Values)
}
