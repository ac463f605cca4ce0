// Package amount parses and formats monetary amounts as exact decimals.
//
// Amounts cross every boundary of the application as decimal strings. They are
// never converted to binary floating point.
package amount

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits used on the wire.
const Scale = 6

// ErrInvalid is returned when a string is not a signed decimal number.
var ErrInvalid = errors.New("invalid amount format")

// An optional leading minus, digits, then an optional dot and digits.
var pattern = regexp.MustCompile(`^-?\d+\.?\d*$`)

// Parse converts s into an exact decimal.
func Parse(s string) (decimal.Decimal, error) {
	if !pattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return d, nil
}

// Format renders d with at least Scale fractional digits. Values carrying more
// precision keep all of their digits.
func Format(d decimal.Decimal) string {
	places := int32(Scale)
	if e := -d.Exponent(); e > places {
		places = e
	}
	return d.StringFixed(places)
}

// FormatNull renders a nullable amount, returning nil when it is not set.
func FormatNull(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := Format(d.Decimal)
	return &s
}

// Transition describes a balance change as "old -> new".
func Transition(from, to decimal.Decimal) string {
	return Format(from) + " -> " + Format(to)
}
