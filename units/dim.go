/*
Copyright © 2026 the eqosim authors.
This file is part of eqosim.

eqosim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

eqosim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with eqosim.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package units implements the dimensioned-quantity layer: a rational
// dimension signature over the seven SI bases, a unit registry with
// gauge-pressure aliases, and the Quantity type that pairs symbolic
// expression vectors with units under strict dimensional algebra.
package units

import (
	"fmt"
	"strings"
)

// Indices of the SI base dimensions in a dimension vector.
const (
	DimLength = iota // metre
	DimMass          // kilogram
	DimTime          // second
	DimCurrent       // ampere
	DimTemperature   // kelvin
	DimAmount        // mole
	DimLuminous      // candela
	numBases
)

var baseNames = [numBases]string{"m", "kg", "s", "A", "K", "mol", "cd"}

// frac is an exact rational exponent.
type frac struct {
	n, d int
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func newFrac(n, d int) frac {
	if d == 0 {
		panic(&DimensionMismatchError{Msg: "zero denominator in exponent"})
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(n, d)
	return frac{n / g, d / g}
}

// norm maps the zero value {0, 0} onto the canonical {0, 1}.
func (f frac) norm() frac {
	if f.d == 0 {
		return frac{f.n, 1}
	}
	return f
}

func (f frac) add(o frac) frac {
	f, o = f.norm(), o.norm()
	return newFrac(f.n*o.d+o.n*f.d, f.d*o.d)
}

func (f frac) sub(o frac) frac {
	f, o = f.norm(), o.norm()
	return newFrac(f.n*o.d-o.n*f.d, f.d*o.d)
}

func (f frac) mul(o frac) frac {
	f, o = f.norm(), o.norm()
	return newFrac(f.n*o.n, f.d*o.d)
}

func (f frac) isZero() bool   { return f.n == 0 }
func (f frac) float() float64 { f = f.norm(); return float64(f.n) / float64(f.d) }

func (f frac) String() string {
	if f.d == 1 {
		return fmt.Sprintf("%d", f.n)
	}
	return fmt.Sprintf("%d/%d", f.n, f.d)
}

// Dim is a dimension signature: one rational exponent per SI base.
type Dim [numBases]frac

// Dimensionless is the zero dimension signature.
var Dimensionless = Dim{}

func init() {
	for i := range Dimensionless {
		Dimensionless[i] = frac{0, 1}
	}
}

func dimOf(exps map[int]frac) Dim {
	d := Dimensionless
	for base, e := range exps {
		d[base] = e
	}
	return d
}

// Mul combines the dimensions of a product.
func (d Dim) Mul(o Dim) Dim {
	var r Dim
	for i := range d {
		r[i] = d[i].add(o[i])
	}
	return r
}

// Div combines the dimensions of a quotient.
func (d Dim) Div(o Dim) Dim {
	var r Dim
	for i := range d {
		r[i] = d[i].sub(o[i])
	}
	return r
}

// Pow raises the dimension to the rational power n/den.
func (d Dim) Pow(n, den int) Dim {
	p := newFrac(n, den)
	var r Dim
	for i := range d {
		r[i] = d[i].mul(p)
	}
	return r
}

// IsDimensionless reports whether all exponents vanish.
func (d Dim) IsDimensionless() bool {
	for i := range d {
		if !d[i].isZero() {
			return false
		}
	}
	return true
}

// Equal reports whether two signatures match exactly.
func (d Dim) Equal(o Dim) bool {
	for i := range d {
		a, b := d[i].norm(), o[i].norm()
		if a.n != b.n || a.d != b.d {
			return false
		}
	}
	return true
}

// String renders the canonical SI representation, e.g. "m**2*kg/(s**2*mol)".
func (d Dim) String() string {
	var num, den []string
	term := func(base int, e frac) string {
		if e.n == e.d { // exponent one
			return baseNames[base]
		}
		return baseNames[base] + "**" + e.String()
	}
	for i := range d {
		e := d[i].norm()
		switch {
		case e.n > 0:
			num = append(num, term(i, e))
		case e.n < 0:
			den = append(den, term(i, frac{-e.n, e.d}))
		}
	}
	if len(num) == 0 && len(den) == 0 {
		return "dimless"
	}
	s := strings.Join(num, "*")
	if s == "" {
		s = "1"
	}
	switch len(den) {
	case 0:
	case 1:
		s += "/" + den[0]
	default:
		s += "/(" + strings.Join(den, "*") + ")"
	}
	return s
}
