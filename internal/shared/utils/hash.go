package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest hashes program text after normalizing line endings and trailing
// whitespace, so cosmetic differences map to the same digest.
func Digest(source string) string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.Join(lines, "\n"))))
	return hex.EncodeToString(sum[:])
}

// ShortDigest returns the first 12 hex characters of Digest.
func ShortDigest(source string) string {
	return Digest(source)[:12]
}
