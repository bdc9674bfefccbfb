package postalcode

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Address is what a lookup can tell about a postal code; every field may be empty.
type Address struct {
	Street       string
	Neighborhood string
	City         string
	State        string
}

// Lookup resolves a postal code into address parts.
type Lookup interface {
	// Lookup returns found=false when the service does not know the postal code.
	Lookup(c context.Context, postalCode string) (Address, bool, error)
}

// Normalize strips everything but digits and requires exactly 8 of them.
func Normalize(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) != 8 {
		return "", fmt.Errorf("postal code must have 8 digits, got %d", len(digits))
	}
	return digits, nil
}

// Format renders a postal code as 00000-000. Input that does not normalize is returned as is.
func Format(raw string) string {
	digits, err := Normalize(raw)
	if err != nil {
		return raw
	}
	return digits[:5] + "-" + digits[5:]
}
