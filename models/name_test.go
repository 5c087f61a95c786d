package models

import (
	"strings"
	"testing"
)

func TestParseNameAcceptsOrdinaryNames(t *testing.T) {
	for _, raw := range []string{
		"BoatyMcBoatFace",
		"Ursula K. Le Guin",
		"Ada",
		"Łukasz Žižek",
	} {
		name, err := ParseName(raw)
		if err != nil {
			t.Errorf("ParseName(%q) failed: %v", raw, err)
		}
		if name.String() != raw {
			t.Errorf("ParseName(%q) mangled the name into %q", raw, name.String())
		}
	}
}

func TestParseNameRejectsEmptyAndWhitespace(t *testing.T) {
	for _, raw := range []string{"", " ", "\t", "  \n "} {
		if _, err := ParseName(raw); err == nil {
			t.Errorf("ParseName(%q) should have failed", raw)
		}
	}
}

func TestParseNameRejectsForbiddenCharacters(t *testing.T) {
	for _, c := range []string{`/`, `(`, `)`, `"`, `<`, `>`, `\`, `{`, `}`} {
		raw := "totally fine name " + c + " with one bad character"
		if _, err := ParseName(raw); err == nil {
			t.Errorf("ParseName should reject a name containing %q", c)
		}
	}
}

func TestParseNameLengthIsCountedInGraphemes(t *testing.T) {
	// "e" plus a combining acute accent: one user-perceived character made
	// of two runes. A byte or rune count would reject the 256-grapheme name.
	grapheme := "é"
	if _, err := ParseName(strings.Repeat(grapheme, MaxNameLength)); err != nil {
		t.Errorf("a name of exactly %d graphemes should be valid: %v", MaxNameLength, err)
	}
	if _, err := ParseName(strings.Repeat(grapheme, MaxNameLength+1)); err == nil {
		t.Errorf("a name of %d graphemes should be rejected", MaxNameLength+1)
	}
}
