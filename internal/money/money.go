// Package money converts between the integer-cent amounts stored in the
// database and the two-decimal strings used on the wire. Balances are kept as
// int64 cents so repeated recharge and deduct cycles stay exact.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors.
var (
	// ErrMalformedAmount indicates the input is not a decimal amount with at
	// most two fractional digits.
	ErrMalformedAmount = errors.New("malformed amount")
)

// Parse converts a decimal string such as "100", "100.5" or "100.50" into
// cents. It accepts an optional leading minus so callers can reject negative
// amounts with their own error kind.
func Parse(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrMalformedAmount
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" || len(frac) > 2 {
		return 0, ErrMalformedAmount
	}
	// ParseInt accepts its own sign prefix, so "1.-5" or "+3.50" would slip
	// through and mis-value the amount. Only bare digits are valid here.
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrMalformedAmount
	}

	units, errWhole := strconv.ParseInt(whole, 10, 64)
	if errWhole != nil {
		return 0, ErrMalformedAmount
	}

	cents := int64(0)
	if frac != "" {
		parsed, errFrac := strconv.ParseInt(frac, 10, 64)
		if errFrac != nil {
			return 0, ErrMalformedAmount
		}
		if len(frac) == 1 {
			parsed *= 10
		}
		cents = parsed
	}

	if units > (1<<62)/100 {
		return 0, ErrMalformedAmount
	}
	total := units*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// digitsOnly reports whether s contains nothing but ASCII digits. The empty
// string passes so an absent fractional part stays valid.
func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Format renders cents as a two-decimal string, e.g. 7050 -> "70.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
