package identity

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUserNotFound means a fragment resolved to no canonical user. For
// well-formed input this cannot happen after ResolvePartials; treat it
// as a consistency bug, not a data problem.
var ErrUserNotFound = errors.New("no canonical user for fragment")

// Registry accumulates identity fragments across all messages and
// deduplicates them into canonical users.
//
// Deduplication is two-phase. Fragments carrying a phone number anchor
// or extend a canonical user immediately; phone is the one field strong
// enough to merge on sight. Phone-less fragments are parked as
// provisional entries and matched in a second pass, run once after every
// phone-anchored user already exists, so weak evidence seen early never
// causes a premature merge.
type Registry struct {
	users    []*User
	partials []*User
	resolved bool
	log      *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger means
// slog.Default().
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{log: log}
}

// Users returns the canonical user list in insertion order.
func (r *Registry) Users() []*User {
	return r.users
}

// Update feeds one fragment into the registry. Fragments with a phone
// merge into (or create) a canonical user; fragments without one are
// deferred to ResolvePartials.
func (r *Registry) Update(f Fragment) error {
	if f.Phone == "" {
		for _, p := range r.partials {
			if p.Phone == f.Phone && p.Name == f.Name && p.Email == f.Email {
				return nil
			}
		}
		r.partials = append(r.partials, newUser(f))
		return nil
	}
	for _, u := range r.users {
		if u.Phone == f.Phone {
			if err := u.setName(f.Name); err != nil {
				return fmt.Errorf("merge %v into %v: %w", f, u, err)
			}
			if err := u.setEmail(f.Email); err != nil {
				return fmt.Errorf("merge %v into %v: %w", f, u, err)
			}
			return nil
		}
	}
	r.users = append(r.users, newUser(f))
	return nil
}

// ResolvePartials matches every provisional entry against the canonical
// list and must run exactly once, after all Update calls. Canonical
// users are scanned in insertion order and the first user matching on
// phone, then email, then name wins; an unmatched entry is promoted to
// a new canonical user. The provisional list is cleared when done.
//
// First-match-wins is deliberate: a best-of-three-fields scorer could
// pick a different user in rare archives, but the scan order here is
// deterministic for identical input order, which matters more for
// diagnosing merge failures.
func (r *Registry) ResolvePartials() error {
	for _, p := range r.partials {
		u := r.matchCanonical(Fragment{Phone: p.Phone, Name: p.Name, Email: p.Email})
		if u == nil {
			r.log.Debug("promoting partial user", "user", p)
			r.users = append(r.users, p)
			continue
		}
		r.log.Debug("merging partial user", "partial", p, "user", u)
		if err := u.setPhone(p.Phone); err != nil {
			return fmt.Errorf("merge partial %v into %v: %w", p, u, err)
		}
		if err := u.setName(p.Name); err != nil {
			return fmt.Errorf("merge partial %v into %v: %w", p, u, err)
		}
		if err := u.setEmail(p.Email); err != nil {
			return fmt.Errorf("merge partial %v into %v: %w", p, u, err)
		}
	}
	r.partials = nil
	r.resolved = true
	return nil
}

// Find resolves a fragment to its canonical user, using the same
// phone/email/name priority match as ResolvePartials. Valid only after
// ResolvePartials has run.
func (r *Registry) Find(f Fragment) (*User, error) {
	if !r.resolved {
		return nil, fmt.Errorf("find %v: registry not resolved", f)
	}
	if u := r.matchCanonical(f); u != nil {
		return u, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUserNotFound, f)
}

// matchCanonical scans canonical users in insertion order and returns
// the first one sharing a non-empty phone, email, or name with f.
func (r *Registry) matchCanonical(f Fragment) *User {
	for _, u := range r.users {
		switch {
		case u.Phone != "" && u.Phone == f.Phone:
			return u
		case u.Email != "" && u.Email == f.Email:
			return u
		case u.Name != "" && u.Name == f.Name:
			return u
		}
	}
	return nil
}

// newUser builds a User from a fragment. Constructed through the field
// setters so the "null" name sentinel is normalized on creation too;
// setters on a zero User cannot conflict.
func newUser(f Fragment) *User {
	u := &User{}
	u.setPhone(f.Phone)
	u.setName(f.Name)
	u.setEmail(f.Email)
	return u
}
