// Package conversation derives the identifier shared by both sides of a
// one-to-one link exchange.
package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ID returns hex(SHA256(min || max)) over the lower-cased participant keys.
// The result does not depend on argument order or letter case.
func ID(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	sum := sha256.Sum256([]byte(a + b))
	return hex.EncodeToString(sum[:])
}
