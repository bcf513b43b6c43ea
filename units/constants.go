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

// RGasSI is the molar gas constant in J/(mol·K). The truncated value is
// deliberate: it reproduces the reference scenarios bit for bit.
const RGasSI = 8.31446

// RGas returns the molar gas constant as a quantity.
func RGas() Quantity { return New(RGasSI, "J/(mol*K)") }

// Avogadro returns the Avogadro constant.
func Avogadro() Quantity { return New(6.02214076e23, "1/mol") }

// Boltzmann returns the Boltzmann constant.
func Boltzmann() Quantity { return New(1.380649e-23, "J/K") }

// Faraday returns the Faraday constant.
func Faraday() Quantity { return New(96485.33212, "C/mol") }

// StandardGravity returns the standard acceleration of gravity.
func StandardGravity() Quantity { return New(9.80665, "m/s**2") }
