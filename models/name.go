package models

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// MaxNameLength is the longest accepted display name, counted in
// user-perceived characters (grapheme clusters), not bytes.
const MaxNameLength = 256

// Characters that can break out of log lines, HTML contexts or shell-like
// contexts downstream, so we refuse them in display names outright.
const forbiddenNameChars = `/()"<>\{}`

// Name is a subscriber display name that has passed validation. The zero
// value is empty and useless; the only way to obtain a usable Name is
// ParseName, so holding one guarantees the validation invariants.
type Name struct {
	name string
}

// ParseName validates a raw display name and wraps it in a Name.
// It rejects names that are empty or whitespace-only, names longer than
// MaxNameLength graphemes, and names containing a forbidden character.
func ParseName(raw string) (Name, error) {
	if strings.TrimSpace(raw) == "" {
		return Name{}, fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return Name{}, fmt.Errorf("name must not contain any of %s", forbiddenNameChars)
	}
	if uniseg.GraphemeClusterCount(raw) > MaxNameLength {
		return Name{}, fmt.Errorf("name must be at most %d characters long", MaxNameLength)
	}
	return Name{name: raw}, nil
}

func (n Name) String() string {
	return n.name
}
