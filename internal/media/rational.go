// Package media holds the small value types shared across the transcoding
// pipeline: exact rational frame rates and picture geometry.
package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rational is an exact ratio of two integers. Frame rates and aspect ratios
// are carried as rationals end to end so NTSC rates survive without drift.
type Rational struct {
	Num int64
	Den int64
}

// NewRational returns num/den reduced to lowest terms.
func NewRational(num, den int64) Rational {
	if den == 0 {
		return Rational{Num: num, Den: 0}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// IsZero reports whether the rational is unset.
func (r Rational) IsZero() bool {
	return r.Num == 0 && r.Den == 0
}

// Float returns the rational as a float64.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// MulInt returns the rational multiplied by n, reduced.
func (r Rational) MulInt(n int64) Rational {
	return NewRational(r.Num*n, r.Den)
}

// Div returns r divided by o, reduced.
func (r Rational) Div(o Rational) Rational {
	return NewRational(r.Num*o.Den, r.Den*o.Num)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ParseRatio parses "N/D", "N:D", or a bare integer into a rational.
func ParseRatio(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("empty ratio")
	}
	sep := "/"
	if strings.Contains(s, ":") {
		sep = ":"
	}
	parts := strings.SplitN(s, sep, 2)
	num, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("ratio numerator %q: %w", parts[0], err)
	}
	den := int64(1)
	if len(parts) == 2 {
		den, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return Rational{}, fmt.Errorf("ratio denominator %q: %w", parts[1], err)
		}
	}
	if den == 0 {
		return Rational{}, fmt.Errorf("ratio %q: zero denominator", s)
	}
	return NewRational(num, den), nil
}

// ntscTolerance is the relative tolerance for recognizing drop-frame rates.
const ntscTolerance = 1e-5

// ParseFrameRate converts a probed decimal frame rate to an exact rational.
// Values within tolerance of ceil(v)/1.001 snap to the NTSC rational
// ceil(v)*1000/1001; anything else becomes the exact rational of the decimal
// digits as reported (so "25.000" is 25/1, not a float approximation).
func ParseFrameRate(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return Rational{}, fmt.Errorf("frame rate %q not usable", s)
	}
	whole := math.Ceil(v)
	if math.Abs(whole/1.001-v)/v < ntscTolerance {
		return NewRational(int64(whole)*1000, 1001), nil
	}
	return rationalFromDecimal(s)
}

func rationalFromDecimal(s string) (Rational, error) {
	intPart, fracPart, _ := strings.Cut(s, ".")
	digits := intPart + fracPart
	num, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("frame rate %q not usable: %w", s, err)
	}
	den := int64(1)
	for range fracPart {
		den *= 10
	}
	return NewRational(num, den), nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
