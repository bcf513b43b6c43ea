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

func mapNodes(q Quantity, u Unit, f func(*graph.Node) *graph.Node) Quantity {
	nodes := make([]*graph.Node, len(q.nodes))
	for i, n := range q.nodes {
		nodes[i] = f(n)
	}
	return Quantity{nodes: nodes, unit: u}
}

func mustDimensionless(q Quantity, op string) {
	if !q.unit.dim.IsDimensionless() {
		panic(&DimensionMismatchError{Msg: fmt.Sprintf(
			"%s of non-dimensionless quantity %s", op, q.unit)})
	}
}

var dimlessUnit = Unit{dim: Dimensionless, scale: 1}

// Log returns the natural logarithm of a dimensionless quantity.
func Log(q Quantity) Quantity {
	mustDimensionless(q, "logarithm")
	return mapNodes(q, dimlessUnit, graph.Log)
}

// Exp returns the exponential of a dimensionless quantity.
func Exp(q Quantity) Quantity {
	mustDimensionless(q, "exponential")
	return mapNodes(q, dimlessUnit, graph.Exp)
}

// Sqrt returns the square root, halving the dimension exponents.
func Sqrt(q Quantity) Quantity {
	u := Unit{dim: q.unit.dim.Pow(1, 2), scale: 1}
	return mapNodes(q, u, graph.Sqrt)
}

// Sq returns the square, doubling the dimension exponents.
func Sq(q Quantity) Quantity {
	u := Unit{dim: q.unit.dim.Pow(2, 1), scale: 1}
	return mapNodes(q, u, graph.Sq)
}

// Pow raises base to exponent element-wise. Both quantities must be
// dimensionless; for constant integer exponents use Quantity.PowInt, which
// derives the unit.
func Pow(base, exponent Quantity) Quantity {
	mustDimensionless(base, "power")
	mustDimensionless(exponent, "power exponent")
	return Quantity{
		nodes: zip(base, exponent, "power", graph.Pow),
		unit:  dimlessUnit,
	}
}

// Gt returns an element-wise indicator quantity, 1 where a > b.
// Both operands must share the dimension signature.
func Gt(a, b Quantity) Quantity {
	a.mustSameDim(b, "comparison")
	return Quantity{nodes: zip(a, b, "comparison", graph.Gt), unit: dimlessUnit}
}

// Conditional selects element-wise between the negative and positive
// branch depending on the indicator: where cond is nonzero the positive
// branch applies. Both branches must share the dimension signature.
func Conditional(cond, negative, positive Quantity) Quantity {
	positive.mustSameDim(negative, "conditional")
	x, y := broadcast(negative, positive, "conditional")
	c := cond.nodes
	if len(c) == 1 && len(x) > 1 {
		c = make([]*graph.Node, len(x))
		for i := range c {
			c[i] = cond.nodes[0]
		}
	}
	if len(c) != len(x) {
		panic(&DimensionMismatchError{Msg: fmt.Sprintf(
			"conditional with %d conditions over %d elements", len(c), len(x))})
	}
	nodes := make([]*graph.Node, len(x))
	for i := range x {
		nodes[i] = graph.Cond(c[i], y[i], x[i])
	}
	return Quantity{nodes: nodes, unit: positive.unit}
}

// Vertcat concatenates quantities of equal dimension into one vector.
func Vertcat(qs ...Quantity) Quantity {
	if len(qs) == 0 {
		panic(&DimensionMismatchError{Msg: "vertcat of no quantities"})
	}
	var nodes []*graph.Node
	for _, q := range qs {
		qs[0].mustSameDim(q, "concatenation")
		nodes = append(nodes, q.nodes...)
	}
	return Quantity{nodes: nodes, unit: qs[0].unit}
}
