package identity

import (
	"fmt"
)

// User is the canonical, merged identity of one real participant.
// Fields fill in over time as messages contribute fragments; a populated
// field is never overwritten with a different value.
type User struct {
	Phone string
	Name  string
	Email string
}

// ConflictError reports an attempt to overwrite a populated identity
// field with a different value. This is a data-quality failure: merging
// two different people is worse than refusing to produce output.
type ConflictError struct {
	Field    string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting identity: field %s has %q, incoming %q",
		e.Field, e.Existing, e.Incoming)
}

func (u *User) String() string {
	return fmt.Sprintf("(%s, %s, %s)", u.Phone, u.Name, u.Email)
}

// DisplayName returns the best human-readable label for the user:
// name, then email, then phone.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.Phone
	}
}

// setField applies the conflict-checked field update rule: an empty slot
// takes the incoming value, an equal or empty incoming value is a no-op,
// and anything else is a conflict.
func setField(field string, existing *string, incoming string) error {
	if incoming == "" || incoming == *existing {
		return nil
	}
	if *existing == "" {
		*existing = incoming
		return nil
	}
	return &ConflictError{Field: field, Existing: *existing, Incoming: incoming}
}

// setName is setField for the name slot, normalizing the literal string
// "null" to empty first (an artifact from Google Calendar sourced
// contacts in some archives).
func (u *User) setName(name string) error {
	if name == "null" {
		name = ""
	}
	return setField("name", &u.Name, name)
}

func (u *User) setEmail(email string) error {
	return setField("email", &u.Email, email)
}

func (u *User) setPhone(phone string) error {
	return setField("phone", &u.Phone, phone)
}
