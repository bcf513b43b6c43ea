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

package units

import (
	"fmt"
	"sync"
)

// Unit couples a dimension signature with the scale (and, for display-only
// units such as degC or gauge pressures, the offset) that maps a magnitude
// in this unit onto the SI base value: si = scale*value + offset.
// All storage and internal arithmetic of quantities happens in base SI;
// offsets appear only at I/O boundaries.
type Unit struct {
	name   string
	dim    Dim
	scale  float64
	offset float64
}

// DimensionMismatchError reports a unit-algebra violation. It is raised at
// construction time of an expression, never during a solve.
type DimensionMismatchError struct {
	Msg string
}

func (e *DimensionMismatchError) Error() string { return "units: " + e.Msg }

// UnknownUnitError reports a unit name that the registry cannot resolve.
type UnknownUnitError struct {
	Name string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("units: unknown unit %q", e.Name)
}

// Dim returns the dimension signature of the unit.
func (u Unit) Dim() Dim { return u.dim }

// Scale returns the multiplier to SI base units.
func (u Unit) Scale() float64 { return u.scale }

// Offset returns the additive SI offset of the unit (zero for all units
// that are not display-only offset variants).
func (u Unit) Offset() float64 { return u.offset }

// String returns the registered spelling of the unit, or the canonical SI
// form of its dimension for derived units.
func (u Unit) String() string {
	if u.name != "" {
		return u.name
	}
	return u.dim.String()
}

// SI returns the base SI unit of the given dimension (scale one, no offset).
func SI(dim Dim) Unit { return Unit{dim: dim, scale: 1} }

// ToSI converts a magnitude expressed in this unit to the SI base value.
func (u Unit) ToSI(v float64) float64 { return u.scale*v + u.offset }

// FromSI converts an SI base value to a magnitude in this unit.
func (u Unit) FromSI(si float64) float64 { return (si - u.offset) / u.scale }

var (
	registryMu sync.RWMutex
	registry   = map[string]Unit{}
)

// Register adds a unit spelling to the global registry. The registry is
// append-only: redefining an existing spelling is an error.
func Register(name string, u Unit) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("units: unit %q already registered", name)
	}
	u.name = name
	registry[name] = u
	return nil
}

func mustRegister(name string, u Unit) {
	if err := Register(name, u); err != nil {
		panic(err)
	}
}

// RegisterAlias defines name as the given base unit shifted by an offset
// quantity string, e.g. RegisterAlias("bar_gauge", "bar", "1.01325 bar").
// This is the hook the unit-definition bootstrap file feeds.
func RegisterAlias(name, base, offset string) error {
	bu, err := ParseUnit(base)
	if err != nil {
		return err
	}
	off := 0.0
	if offset != "" {
		q, err := Parse(offset)
		if err != nil {
			return err
		}
		if !q.unit.dim.Equal(bu.dim) {
			return &DimensionMismatchError{Msg: fmt.Sprintf(
				"offset of alias %q has dimension %v, base has %v",
				name, q.unit.dim, bu.dim)}
		}
		off = q.Float()
	}
	return Register(name, Unit{dim: bu.dim, scale: bu.scale, offset: off})
}

func lookupName(name string) (Unit, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	u, ok := registry[name]
	return u, ok
}

var siPrefixes = []struct {
	sym   string
	scale float64
}{
	{"y", 1e-24}, {"z", 1e-21}, {"a", 1e-18}, {"f", 1e-15}, {"p", 1e-12},
	{"n", 1e-9}, {"u", 1e-6}, {"µ", 1e-6}, {"m", 1e-3}, {"c", 1e-2},
	{"d", 1e-1}, {"da", 1e1}, {"h", 1e2}, {"k", 1e3}, {"M", 1e6},
	{"G", 1e9}, {"T", 1e12}, {"P", 1e15}, {"E", 1e18},
}

// prefixable units accept SI prefixes (kJ, mmol, µPa, ...).
var prefixable = map[string]bool{
	"m": true, "g": true, "s": true, "A": true, "K": true, "mol": true,
	"cd": true, "N": true, "J": true, "W": true, "Pa": true, "bar": true,
	"L": true, "l": true, "t": true, "C": true, "V": true, "Hz": true,
}

// Lookup resolves a single unit name, trying SI prefixes on prefixable
// units if the plain name is not registered.
func Lookup(name string) (Unit, error) {
	if u, ok := lookupName(name); ok {
		return u, nil
	}
	for _, p := range siPrefixes {
		rest, found := cutPrefix(name, p.sym)
		if !found || !prefixable[rest] {
			continue
		}
		base, ok := lookupName(rest)
		if !ok || base.offset != 0 {
			continue
		}
		return Unit{
			name:  name,
			dim:   base.dim,
			scale: base.scale * p.scale,
		}, nil
	}
	return Unit{}, &UnknownUnitError{Name: name}
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return s, false
	}
	return s[len(prefix):], true
}

func init() {
	base := func(i int) Dim {
		d := Dimensionless
		d[i] = frac{1, 1}
		return d
	}
	metre := base(DimLength)
	kilogram := base(DimMass)
	second := base(DimTime)
	ampere := base(DimCurrent)
	kelvin := base(DimTemperature)
	mole := base(DimAmount)
	candela := base(DimLuminous)

	newton := kilogram.Mul(metre).Div(second.Pow(2, 1))
	joule := newton.Mul(metre)
	watt := joule.Div(second)
	pascal := newton.Div(metre.Pow(2, 1))
	coulomb := ampere.Mul(second)
	volt := watt.Div(ampere)
	hertz := Dimensionless.Div(second)

	u := func(name string, d Dim, scale, offset float64) {
		mustRegister(name, Unit{dim: d, scale: scale, offset: offset})
	}

	// SI bases and common derivations
	u("m", metre, 1, 0)
	u("kg", kilogram, 1, 0)
	u("g", kilogram, 1e-3, 0)
	u("t", kilogram, 1e3, 0)
	u("s", second, 1, 0)
	u("sec", second, 1, 0)
	u("min", second, 60, 0)
	u("h", second, 3600, 0)
	u("hr", second, 3600, 0)
	u("day", second, 86400, 0)
	u("A", ampere, 1, 0)
	u("K", kelvin, 1, 0)
	u("mol", mole, 1, 0)
	u("cd", candela, 1, 0)
	u("N", newton, 1, 0)
	u("J", joule, 1, 0)
	u("W", watt, 1, 0)
	u("Pa", pascal, 1, 0)
	u("bar", pascal, 1e5, 0)
	u("atm", pascal, 101325, 0)
	u("mmHg", pascal, 133.322387415, 0)
	u("C", coulomb, 1, 0)
	u("V", volt, 1, 0)
	u("Hz", hertz, 1, 0)
	u("L", metre.Pow(3, 1), 1e-3, 0)
	u("l", metre.Pow(3, 1), 1e-3, 0)

	// dimensionless spellings
	u("dimless", Dimensionless, 1, 0)
	u("dimensionless", Dimensionless, 1, 0)
	u("", Dimensionless, 1, 0)
	u("-", Dimensionless, 1, 0)
	u("%", Dimensionless, 0.01, 0)
	u("ppm", Dimensionless, 1e-6, 0)

	// display-only offset units
	u("degC", kelvin, 1, 273.15)
	u("°C", kelvin, 1, 273.15)
	u("degF", kelvin, 5.0/9.0, 255.372222222222222)

	// gauge pressures, per the standard unit-definition bootstrap
	u("bar_gauge", pascal, 1e5, 101325)
	u("barg", pascal, 1e5, 101325)
	u("atm_gauge", pascal, 101325, 101325)
	u("atmg", pascal, 101325, 101325)
	u("kilo_pascal_gauge", pascal, 1e3, 101325)
	u("kPa_gauge", pascal, 1e3, 101325)
	u("kPag", pascal, 1e3, 101325)
}
