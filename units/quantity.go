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

	"github.com/eqosim/eqosim/graph"
)

// Quantity is an ordered pair of a magnitude — one or more nodes of the
// expression graph — and a unit. Magnitudes are always stored in SI base
// units; the unit records the dimension signature plus the preferred
// display spelling. Quantities are immutable: all arithmetic produces new
// values and checks dimensional compatibility, panicking with a
// *DimensionMismatchError on violation (the panic is converted into an
// error at the assembly boundaries).
type Quantity struct {
	nodes []*graph.Node
	unit  Unit
}

func newConst(si []float64, u Unit) Quantity {
	nodes := make([]*graph.Node, len(si))
	for i, v := range si {
		nodes[i] = graph.Const(v)
	}
	return Quantity{nodes: nodes, unit: u}
}

// New creates a scalar quantity with the given magnitude and unit
// spelling. Unknown units panic; use Parse for error-returning parsing
// of external input.
func New(value float64, unit string) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	return newConst([]float64{u.ToSI(value)}, u)
}

// NewVec creates a vector quantity with a shared unit.
func NewVec(values []float64, unit string) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	si := make([]float64, len(values))
	for i, v := range values {
		si[i] = u.ToSI(v)
	}
	return newConst(si, u)
}

// NewSymbol creates a scalar symbolic quantity with the given node name.
func NewSymbol(name, unit string) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	return Quantity{nodes: []*graph.Node{graph.Symbol(name)}, unit: offsetFree(u)}
}

// NewSymbolVec creates a vector symbolic quantity with elements named
// name.key for each sub-key.
func NewSymbolVec(name, unit string, subKeys []string) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	nodes := make([]*graph.Node, len(subKeys))
	for i, k := range subKeys {
		nodes[i] = graph.Symbol(name + "." + k)
	}
	return Quantity{nodes: nodes, unit: offsetFree(u)}
}

// NewSymbolVecN creates a vector symbolic quantity of n anonymous elements.
func NewSymbolVecN(name, unit string, n int) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	return Quantity{nodes: graph.SymbolVec(name, n), unit: offsetFree(u)}
}

// FromNodes wraps existing graph nodes (SI magnitudes) in a quantity.
func FromNodes(nodes []*graph.Node, u Unit) Quantity {
	return Quantity{nodes: nodes, unit: offsetFree(u)}
}

// offsetFree strips the display offset: symbolic magnitudes are always in
// the offset-free SI reference.
func offsetFree(u Unit) Unit {
	if u.offset == 0 {
		return u
	}
	return Unit{dim: u.dim, scale: 1, offset: 0}
}

// Unit returns the unit of the quantity.
func (q Quantity) Unit() Unit { return q.unit }

// Nodes returns the magnitude nodes (SI base values).
func (q Quantity) Nodes() []*graph.Node { return q.nodes }

// Len returns the number of elements of the magnitude vector.
func (q Quantity) Len() int { return len(q.nodes) }

// IsScalar reports whether the quantity has exactly one element.
func (q Quantity) IsScalar() bool { return len(q.nodes) == 1 }

// Index returns element i as a scalar quantity.
func (q Quantity) Index(i int) Quantity {
	return Quantity{nodes: []*graph.Node{q.nodes[i]}, unit: q.unit}
}

// IsConst reports whether all magnitude nodes are literals.
func (q Quantity) IsConst() bool {
	for _, n := range q.nodes {
		if !n.IsConst() {
			return false
		}
	}
	return len(q.nodes) > 0
}

// Float returns the SI base value of a constant scalar quantity.
func (q Quantity) Float() float64 {
	if len(q.nodes) != 1 || !q.nodes[0].IsConst() {
		panic(&DimensionMismatchError{Msg: "Float on non-constant or vector quantity"})
	}
	return q.nodes[0].Value()
}

// Floats returns the SI base values of a constant quantity.
func (q Quantity) Floats() []float64 {
	out := make([]float64, len(q.nodes))
	for i, n := range q.nodes {
		if !n.IsConst() {
			panic(&DimensionMismatchError{Msg: "Floats on symbolic quantity"})
		}
		out[i] = n.Value()
	}
	return out
}

// In converts a constant quantity into magnitudes in the named unit.
func (q Quantity) In(unit string) ([]float64, error) {
	u, err := ParseUnit(unit)
	if err != nil {
		return nil, err
	}
	if !u.dim.Equal(q.unit.dim) {
		return nil, &DimensionMismatchError{Msg: fmt.Sprintf(
			"cannot convert %s to %s", q.unit, u)}
	}
	si := q.Floats()
	out := make([]float64, len(si))
	for i, v := range si {
		out[i] = u.FromSI(v)
	}
	return out, nil
}

// Format renders a constant scalar quantity in the given unit, producing a
// string the quantity parser round-trips, e.g. "25 degC".
func (q Quantity) Format(unit string) (string, error) {
	vals, err := q.In(unit)
	if err != nil {
		return "", err
	}
	if len(vals) != 1 {
		return "", fmt.Errorf("units: Format requires a scalar quantity")
	}
	return fmt.Sprintf("%.12g %s", vals[0], unit), nil
}

// String renders the quantity in its display unit.
func (q Quantity) String() string {
	if !q.IsConst() {
		return fmt.Sprintf("<symbolic> %s", q.unit)
	}
	vals := make([]float64, len(q.nodes))
	for i, n := range q.nodes {
		vals[i] = q.unit.FromSI(n.Value())
	}
	if len(vals) == 1 {
		return fmt.Sprintf("%g %s", vals[0], q.unit)
	}
	return fmt.Sprintf("%v %s", vals, q.unit)
}

func (q Quantity) mustSameDim(o Quantity, op string) {
	if !q.unit.dim.Equal(o.unit.dim) {
		panic(&DimensionMismatchError{Msg: fmt.Sprintf(
			"%s of incompatible dimensions %s and %s", op, q.unit, o.unit)})
	}
}

// broadcast pairs the element nodes of two quantities, expanding scalars.
func broadcast(a, b Quantity, op string) (x, y []*graph.Node) {
	switch {
	case len(a.nodes) == len(b.nodes):
		return a.nodes, b.nodes
	case len(a.nodes) == 1:
		x = make([]*graph.Node, len(b.nodes))
		for i := range x {
			x[i] = a.nodes[0]
		}
		return x, b.nodes
	case len(b.nodes) == 1:
		y = make([]*graph.Node, len(a.nodes))
		for i := range y {
			y[i] = b.nodes[0]
		}
		return a.nodes, y
	}
	panic(&DimensionMismatchError{Msg: fmt.Sprintf(
		"%s of vectors with lengths %d and %d", op, len(a.nodes), len(b.nodes))})
}

func zip(a, b Quantity, op string,
	f func(x, y *graph.Node) *graph.Node) []*graph.Node {
	x, y := broadcast(a, b, op)
	out := make([]*graph.Node, len(x))
	for i := range x {
		out[i] = f(x[i], y[i])
	}
	return out
}

// Add returns q + o. Both operands must share the dimension signature.
func (q Quantity) Add(o Quantity) Quantity {
	q.mustSameDim(o, "addition")
	return Quantity{nodes: zip(q, o, "addition", graph.Add), unit: q.unit}
}

// Sub returns q - o.
func (q Quantity) Sub(o Quantity) Quantity {
	q.mustSameDim(o, "subtraction")
	return Quantity{nodes: zip(q, o, "subtraction", graph.Sub), unit: q.unit}
}

// Neg returns -q.
func (q Quantity) Neg() Quantity {
	nodes := make([]*graph.Node, len(q.nodes))
	for i, n := range q.nodes {
		nodes[i] = graph.Neg(n)
	}
	return Quantity{nodes: nodes, unit: q.unit}
}

// Mul returns the element-wise product, deriving the unit.
func (q Quantity) Mul(o Quantity) Quantity {
	u := Unit{dim: q.unit.dim.Mul(o.unit.dim), scale: 1}
	return Quantity{nodes: zip(q, o, "multiplication", graph.Mul), unit: u}
}

// Div returns the element-wise quotient, deriving the unit.
func (q Quantity) Div(o Quantity) Quantity {
	u := Unit{dim: q.unit.dim.Div(o.unit.dim), scale: 1}
	return Quantity{nodes: zip(q, o, "division", graph.Div), unit: u}
}

// Scale multiplies by a dimensionless literal.
func (q Quantity) Scale(f float64) Quantity {
	c := graph.Const(f)
	nodes := make([]*graph.Node, len(q.nodes))
	for i, n := range q.nodes {
		nodes[i] = graph.Mul(c, n)
	}
	return Quantity{nodes: nodes, unit: q.unit}
}

// Dot returns the inner product Σ q_i·o_i as a scalar quantity.
func (q Quantity) Dot(o Quantity) Quantity {
	x, y := broadcast(q, o, "dot product")
	u := Unit{dim: q.unit.dim.Mul(o.unit.dim), scale: 1}
	acc := graph.Const(0)
	for i := range x {
		acc = graph.Add(acc, graph.Mul(x[i], y[i]))
	}
	return Quantity{nodes: []*graph.Node{acc}, unit: u}
}

// Sum returns the sum over the elements as a scalar quantity.
func (q Quantity) Sum() Quantity {
	return Quantity{nodes: []*graph.Node{graph.Sum(q.nodes)}, unit: q.unit}
}

// PowInt raises the quantity to an integer power.
func (q Quantity) PowInt(n int) Quantity {
	u := Unit{dim: q.unit.dim.Pow(n, 1), scale: 1}
	nodes := make([]*graph.Node, len(q.nodes))
	for i, b := range q.nodes {
		nodes[i] = graph.Pow(b, graph.Const(float64(n)))
	}
	return Quantity{nodes: nodes, unit: u}
}

// LessThan compares two constant scalar quantities of equal dimension.
func (q Quantity) LessThan(o Quantity) bool {
	q.mustSameDim(o, "comparison")
	return q.Float() < o.Float()
}
