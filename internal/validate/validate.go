// Package validate holds the pure input-format checks applied before any
// lookup leaves the process. These are shape checks only: document validators
// do not verify official check digits, and the plate validator does not
// distinguish legacy from Mercosul layouts beyond length.
package validate

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CNPJ strips formatting and validates a 14-digit company registry number.
// Returns the cleaned digits and whether the shape is acceptable.
func CNPJ(input string) (string, bool) {
	clean := digitsOnly(input)
	if len(clean) != 14 || allSameDigit(clean) {
		return "", false
	}
	return clean, true
}

// CPF strips formatting and validates an 11-digit personal registry number.
func CPF(input string) (string, bool) {
	clean := digitsOnly(input)
	if len(clean) != 11 || allSameDigit(clean) {
		return "", false
	}
	return clean, true
}

// CEP strips formatting and validates an 8-digit postal code.
func CEP(input string) (string, bool) {
	clean := digitsOnly(input)
	if len(clean) != 8 {
		return "", false
	}
	return clean, true
}

// Email validates a local@domain.tld shape with a TLD of at least two letters.
func Email(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if !emailPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// Plate strips separators, uppercases and validates a 7-character vehicle
// plate. Covers both ABC1234 and ABC1D34 formats.
func Plate(input string) (string, bool) {
	clean := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(input, "-", ""), " ", ""))
	if len(clean) != 7 {
		return "", false
	}
	return clean, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
