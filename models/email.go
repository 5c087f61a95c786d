package models

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// Email is a mailbox address that has passed validation. Like Name, the only
// way to obtain a usable Email is ParseEmail.
type Email struct {
	address string
}

// ParseEmail validates a raw string against the mailbox-address grammar and
// wraps it in an Email. The address is lowercased, and an internationalized
// domain is normalized to its ASCII form.
func ParseEmail(raw string) (Email, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Email{}, fmt.Errorf("email must not be empty")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return Email{}, fmt.Errorf("%q is not a valid email address", raw)
	}
	// ParseAddress also accepts display-name and angle-bracket forms; we
	// only want a bare mailbox address.
	if addr.Address != raw {
		return Email{}, fmt.Errorf("%q is not a bare email address", raw)
	}
	at := strings.LastIndex(addr.Address, "@")
	local, domain := addr.Address[:at], addr.Address[at+1:]
	asciiDomain, err := idna.Lookup.ToASCII(strings.ToLower(domain))
	if err != nil {
		return Email{}, fmt.Errorf("%q does not contain a valid domain", raw)
	}
	return Email{address: strings.ToLower(local) + "@" + asciiDomain}, nil
}

func (e Email) String() string {
	return e.address
}
