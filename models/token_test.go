package models

import (
	"strings"
	"testing"
)

func TestGenerateTokenShape(t *testing.T) {
	token := GenerateToken()
	if len(token) != TokenLength {
		t.Fatalf("GenerateToken returned %d characters, want %d", len(token), TokenLength)
	}
	for _, c := range token {
		if !strings.ContainsRune(tokenAlphabet, c) {
			t.Errorf("token %q contains %q, which is outside the alphanumeric alphabet", token, c)
		}
	}
}

func TestGenerateTokenDoesNotRepeat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := GenerateToken()
		if seen[token] {
			t.Fatalf("token %q was generated twice", token)
		}
		seen[token] = true
	}
}
