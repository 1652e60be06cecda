package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// Fingerprint derives the cache key for a tool call from the operation
// name, the caller's access token, and the full parameter set, in order.
// The token is part of the key so entries are never shared across
// credentials. Identical calls always map to the same key.
//
// Fields are length-prefixed before hashing so no choice of parameter
// values can make two distinct calls collide.
func Fingerprint(op, token string, params ...string) string {
	var b strings.Builder
	writeField(&b, op)
	writeField(&b, token)
	for _, p := range params {
		writeField(&b, p)
	}

	// Hash for a fixed-length key that keeps the token out of the store
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
