package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Odd is a fractional price (e.g. 5/2). Numerator and denominator are kept as
// received so they can be echoed back to the provider unchanged.
type Odd struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// NewOdd returns the fraction numerator/denominator.
func NewOdd(numerator, denominator int) Odd {
	return Odd{Numerator: numerator, Denominator: denominator}
}

// IsValid reports whether the fraction can be priced.
func (o Odd) IsValid() bool {
	return o.Numerator > 0 && o.Denominator > 0
}

// Decimal returns the decimal (European) price: 1 + numerator/denominator.
// An invalid fraction yields zero.
func (o Odd) Decimal() decimal.Decimal {
	if !o.IsValid() {
		return decimal.Zero
	}
	frac := decimal.NewFromInt(int64(o.Numerator)).Div(decimal.NewFromInt(int64(o.Denominator)))
	return decimal.NewFromInt(1).Add(frac)
}

// String renders the fraction as "n/d".
func (o Odd) String() string {
	return fmt.Sprintf("%d/%d", o.Numerator, o.Denominator)
}

// ParseOdd parses numerator and denominator strings from the feed.
// Missing, malformed or non-positive components fall back to the matching
// component of fallback, so a bad tick never wipes a known price.
func ParseOdd(numerator, denominator string, fallback Odd) Odd {
	return Odd{
		Numerator:   parseComponent(numerator, fallback.Numerator),
		Denominator: parseComponent(denominator, fallback.Denominator),
	}
}

func parseComponent(s string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
