// Package phone canonicalizes phone numbers into a single comparable form.
// Every store key, cache key, and event payload uses the canonical form, so
// normalization must be deterministic and idempotent.
package phone

import (
	"fmt"
	"strings"

	"calldex/pkg/platform/sentinel"
)

// Number is a canonical E.164-style phone number: a leading "+" followed by
// 7 to 15 digits. It is the primary key of the whole system.
type Number string

func (n Number) String() string { return string(n) }

// IsZero reports whether the number is empty.
func (n Number) IsZero() bool { return n == "" }

// defaultCountryCode is prepended to bare national numbers. The service
// currently targets the Indian numbering plan; subscriber numbers are 10
// digits.
const defaultCountryCode = "91"

const (
	minDigits = 7
	maxDigits = 15
)

// Normalize canonicalizes raw user input into a Number.
//
// Rules, applied in order:
//   - strip every character except digits and a leading "+"
//   - an international "00" prefix is treated as "+"
//   - a single leading trunk "0" on a national number is dropped
//   - a bare number of exactly 10 digits gets the default country code
//   - anything outside 7..15 digits is rejected
//
// Normalize(Normalize(x)) == Normalize(x) for every accepted input.
func Normalize(raw string) (Number, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty phone number: %w", sentinel.ErrInvalidInput)
	}

	hasPlus := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if !hasPlus && strings.HasPrefix(digits, "00") {
		hasPlus = true
		digits = digits[2:]
	}

	if !hasPlus {
		// Trunk prefix on a national number.
		if strings.HasPrefix(digits, "0") && len(digits) == 11 {
			digits = digits[1:]
		}
		if len(digits) == 10 {
			digits = defaultCountryCode + digits
		}
	}

	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", fmt.Errorf("phone number %q has %d digits: %w", raw, len(digits), sentinel.ErrInvalidInput)
	}

	return Number("+" + digits), nil
}

// MustNormalize is Normalize for inputs known to be valid, such as test
// fixtures and seed data. It panics on error.
func MustNormalize(raw string) Number {
	n, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return n
}
