// Package privacy provides the one-way hashing and redaction used to keep
// personal identifiers out of stored logs and emitted log lines. Query logs
// only ever carry these hashes, never raw user IDs or IPs.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// hashLen is the number of hex characters kept from the SHA-256 digest.
// Enough to correlate records, short enough to be obviously non-reversible
// into the column it replaces.
const hashLen = 16

// HashUserID returns a deterministic, fixed-length hash of a platform user ID.
func HashUserID(userID string) string {
	return hashString(userID)
}

// HashIP returns a deterministic, fixed-length hash of a client IP address.
func HashIP(ip string) string {
	return hashString(ip)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLen]
}

var (
	cpfPattern   = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
	cnpjPattern  = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\(\d{2}\)\s?\d{4,5}-\d{4}`)
)

// Redact masks formatted CPF, CNPJ, email and phone values inside s. Used by
// the logging handler so free-text log messages cannot carry raw identifiers.
func Redact(s string) string {
	s = cpfPattern.ReplaceAllString(s, "XXX.XXX.XXX-XX")
	s = cnpjPattern.ReplaceAllString(s, "XX.XXX.XXX/XXXX-XX")
	s = emailPattern.ReplaceAllString(s, "user@example.com")
	s = phonePattern.ReplaceAllString(s, "(XX)XXXX-XXXX")
	return s
}
