package rawtag

import (
	"strconv"
)

// Fraction is a rational tag value such as an exposure time or GPS angle.
type Fraction struct {
	Numerator   int64
	Denominator int64
}

// NewFraction returns num/den. A zero denominator yields the zero fraction.
func NewFraction(num, den int64) Fraction {
	if den == 0 {
		return Fraction{Numerator: 0, Denominator: 1}
	}
	return Fraction{Numerator: num, Denominator: den}
}

// Float returns the decimal value. A zero denominator yields 0.
func (f Fraction) Float() float64 {
	if f.Denominator == 0 {
		return 0
	}
	return float64(f.Numerator) / float64(f.Denominator)
}

// IsZero reports whether the fraction evaluates to zero.
func (f Fraction) IsZero() bool { return f.Numerator == 0 || f.Denominator == 0 }

// Reduce divides numerator and denominator by their greatest common divisor.
func (f Fraction) Reduce() Fraction {
	if f.Denominator == 0 {
		return Fraction{Numerator: 0, Denominator: 1}
	}
	g := gcd(abs(f.Numerator), abs(f.Denominator))
	if g <= 1 {
		return f
	}
	return Fraction{Numerator: f.Numerator / g, Denominator: f.Denominator / g}
}

func (f Fraction) String() string {
	if f.Denominator == 0 {
		return "0"
	}
	if f.Denominator == 1 {
		return strconv.FormatInt(f.Numerator, 10)
	}
	return strconv.FormatInt(f.Numerator, 10) + "/" + strconv.FormatInt(f.Denominator, 10)
}

// ExposureString renders an exposure time the way cameras print it: "1/125"
// for sub-second values that reduce to a unit fraction, otherwise a decimal.
func (f Fraction) ExposureString() string {
	v := f.Float()
	if v <= 0 {
		return "0"
	}
	if v >= 1 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	r := f.Reduce()
	if r.Numerator == 1 {
		return r.String()
	}
	// 10/1250 style values that do not reduce to 1/x.
	return "1/" + strconv.FormatFloat(1/v, 'f', 0, 64)
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
