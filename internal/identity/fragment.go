// Package identity resolves the fragmentary participant hints carried by
// SMS backup emails into canonical per-person identities.
package identity

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// phoneRegion is the region hint for parsing bare national numbers.
// SMS backup archives carry numbers in whatever format the handset had.
const phoneRegion = "US"

// Fragment is the partial identity parsed from one free-text header
// field: at most a phone, a name, and an email, any of which may be
// empty. Phones are normalized to E.164 so equal numbers compare equal
// regardless of source formatting.
type Fragment struct {
	Phone string
	Name  string
	Email string
}

// IsZero reports whether no field of the fragment is populated.
func (f Fragment) IsZero() bool {
	return f.Phone == "" && f.Name == "" && f.Email == ""
}

func (f Fragment) String() string {
	return fmt.Sprintf("(%s, %s, %s)", f.Phone, f.Name, f.Email)
}

// ParseToken parses one header value into a Fragment.
//
// Handles the forms seen in SMS backup archives:
//   - phone numbers in any format
//   - bare email addresses
//   - "Real Name" <email>
//   - phone@unknown.person and email@domain@unknown.person
//   - "SMS with <contact>" subject lines
func ParseToken(raw string) Fragment {
	data := strings.TrimSpace(raw)
	if strings.Contains(raw, "@unknown.person") {
		// Synthetic address minted by the backup tool; everything
		// after the last @ is noise.
		if i := strings.LastIndex(data, "@"); i >= 0 {
			data = data[:i]
		}
	}
	if strings.Contains(raw, "SMS with ") {
		_, after, _ := strings.Cut(data, "SMS with ")
		data = strings.TrimSpace(after)
	}

	if num, err := phonenumbers.Parse(data, phoneRegion); err == nil {
		return Fragment{Phone: phonenumbers.Format(num, phonenumbers.E164)}
	}
	if strings.Contains(data, "@") {
		if strings.Contains(data, "<") && strings.Contains(data, ">") {
			name, addr, _ := strings.Cut(data, "<")
			return Fragment{
				Name:  strings.Trim(name, `" `),
				Email: strings.Trim(addr, "<> "),
			}
		}
		return Fragment{Email: data}
	}
	return Fragment{Name: data}
}
