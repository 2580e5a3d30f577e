// utils/validation.go
package utils

import (
	"fmt"
	"strings"
)

const (
	CountryCode    = "55"
	MinPhoneLength = 10
)

// ValidationError reports a record that cannot be sent, detected before any
// network call.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone strips formatting and prefixes the Brazilian country code unless
// the number already carries it (12 or 13 digits starting with 55).
func NormalizePhone(phone string) string {
	digits := DigitsOnly(phone)
	if hasCountryCode(digits) {
		return digits
	}
	return CountryCode + digits
}

func hasCountryCode(digits string) bool {
	return (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, CountryCode)
}

// ValidatePhone normalizes phone and fails when fewer than MinPhoneLength digits
// remain after the country code is applied.
func ValidatePhone(phone string) (string, error) {
	normalized := NormalizePhone(phone)
	if len(normalized) < MinPhoneLength {
		return "", &ValidationError{Field: "phone", Value: phone, Reason: fmt.Sprintf("needs at least %d digits", MinPhoneLength)}
	}
	return normalized, nil
}
