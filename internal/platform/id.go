package platform

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const refAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const refLength = 10

// NewObjectKey returns a fresh key for a stored blob.
func NewObjectKey() string {
	return uuid.New().String()
}

// NewRef generates a short random reference with the given prefix, used for
// human-facing identifiers like document references.
func NewRef(prefix string) string {
	b := make([]byte, refLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = refAlphabet[b[i]%byte(len(refAlphabet))]
	}
	return prefix + string(b)
}
