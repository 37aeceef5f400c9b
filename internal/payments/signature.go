package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes the PayFast parameter signature: fields sorted by name,
// concatenated as "key=value&" pairs, with "passphrase=<secret>" appended,
// hashed with SHA-256 and hex encoded. Both sides must build the exact same
// string, so values go in as received, unescaped.
func Sign(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(fields[k])
		b.WriteString("&")
	}
	b.WriteString("passphrase=")
	b.WriteString(passphrase)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature over all non-signature fields and compares
// byte for byte.
func Verify(fields map[string]string, signature, passphrase string) bool {
	if signature == "" {
		return false
	}
	return Sign(fields, passphrase) == signature
}
