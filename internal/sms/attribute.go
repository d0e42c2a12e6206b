package sms

import (
	"fmt"
	"slices"

	"smschat/internal/identity"
)

// Sender resolves the best available identity fragment for the message
// sender.
//
// For inbound messages the sender is the remote party: the sync address
// header is authoritative, with the From and Subject headers
// corroborating (backup emails usually repeat the contact across all
// three). For sent messages (and drafts, outbox, failed, queued, which
// are all treated as sent) the sender is the local account and the From
// header alone is trusted.
func (m *Message) Sender() (identity.Fragment, error) {
	switch {
	case m.Kind == KindInbound:
		return reconcile(m.Address, []identity.Fragment{m.Address, m.From, m.Subject})
	case m.Kind > KindInbound:
		return reconcile(m.From, nil)
	default:
		return identity.Fragment{}, fmt.Errorf("%w: %d", ErrUnsupportedKind, m.Kind)
	}
}

// Receiver resolves the best available identity fragment for the
// message receiver: the mirror image of Sender. Inbound messages trust
// the To header alone; sent messages treat the sync address as
// authoritative with To and Subject corroborating.
func (m *Message) Receiver() (identity.Fragment, error) {
	switch {
	case m.Kind == KindInbound:
		return reconcile(m.To, nil)
	case m.Kind > KindInbound:
		return reconcile(m.Address, []identity.Fragment{m.Address, m.To, m.Subject})
	default:
		return identity.Fragment{}, fmt.Errorf("%w: %d", ErrUnsupportedKind, m.Kind)
	}
}

// reconcile merges corroborating fragments into the authoritative one,
// field by field. The authoritative value always wins when present;
// a gap is filled only when the corroborating fields agree on exactly
// one candidate.
func reconcile(auth identity.Fragment, corroborating []identity.Fragment) (identity.Fragment, error) {
	var out identity.Fragment
	var err error
	if out.Phone, err = reconcileField("phone", auth.Phone,
		fieldValues(corroborating, func(f identity.Fragment) string { return f.Phone })); err != nil {
		return identity.Fragment{}, err
	}
	if out.Name, err = reconcileField("name", auth.Name,
		fieldValues(corroborating, func(f identity.Fragment) string { return f.Name })); err != nil {
		return identity.Fragment{}, err
	}
	if out.Email, err = reconcileField("email", auth.Email,
		fieldValues(corroborating, func(f identity.Fragment) string { return f.Email })); err != nil {
		return identity.Fragment{}, err
	}
	return out, nil
}

// reconcileField picks one value for a single identity field.
// Candidates equal to the authoritative value or empty are discarded
// and the rest deduplicated in first-seen order, so ambiguity detection
// is deterministic for identical input order.
func reconcileField(field, auth string, candidates []string) (string, error) {
	var distinct []string
	for _, v := range candidates {
		if v == "" || v == auth {
			continue
		}
		if !slices.Contains(distinct, v) {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) > 1 {
		return "", &AmbiguityError{Field: field, Values: distinct}
	}
	if auth != "" {
		return auth, nil
	}
	if len(distinct) == 1 {
		return distinct[0], nil
	}
	return "", nil
}

func fieldValues(frags []identity.Fragment, get func(identity.Fragment) string) []string {
	vals := make([]string, 0, len(frags))
	for _, f := range frags {
		vals = append(vals, get(f))
	}
	return vals
}
