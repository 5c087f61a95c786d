package models

import "testing"

func TestParseEmailAcceptsValidAddresses(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"a@b.co", "a@b.co"},
		{"test_user@gmail.com", "test_user@gmail.com"},
		{"Mixed.Case@Example.COM", "mixed.case@example.com"},
		{" padded@example.com ", "padded@example.com"},
	}
	for _, c := range cases {
		email, err := ParseEmail(c.raw)
		if err != nil {
			t.Errorf("ParseEmail(%q) failed: %v", c.raw, err)
			continue
		}
		if email.String() != c.want {
			t.Errorf("ParseEmail(%q) = %q, want %q", c.raw, email.String(), c.want)
		}
	}
}

func TestParseEmailRejectsInvalidAddresses(t *testing.T) {
	for _, raw := range []string{
		"",
		"not-an-email",
		"missing-domain@",
		"@missing-local.com",
		"spaces in@example.com",
		`"Display Name" <person@example.com>`,
	} {
		if _, err := ParseEmail(raw); err == nil {
			t.Errorf("ParseEmail(%q) should have failed", raw)
		}
	}
}
