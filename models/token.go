package models

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// TokenLength is the number of characters in a confirmation token. At 25
// characters over a 62-symbol alphabet collisions are not a practical
// concern, so tokens are treated as globally unique.
const TokenLength = 25

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Token correlates a confirmation link with the subscriber it activates.
// The token string is the lookup key; SubscriberID references the pending
// subscriber that a redeemed token confirms.
type Token struct {
	Token        string
	SubscriberID uuid.UUID
}

// GenerateToken returns a fresh confirmation token drawn from a
// cryptographically secure random source.
func GenerateToken() string {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, 2*TokenLength)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			// The platform CSPRNG is unavailable; nothing sane to do.
			panic(err)
		}
		for _, b := range buf {
			// Reject bytes above the largest multiple of 62 so every
			// alphabet symbol is equally likely.
			if int(b) >= 4*len(tokenAlphabet) {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out)
}
