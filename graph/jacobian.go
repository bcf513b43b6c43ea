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

package graph

import (
	"github.com/ctessum/sparse"
)

// Jacobian is a sparse matrix of derivative expressions in compressed
// sparse column layout. The structure is exact: an entry exists if and only
// if the output expression structurally depends on the variable.
type Jacobian struct {
	Rows, Cols int
	ColPtr     []int
	RowIdx     []int
	Expr       []*Node
}

// NumEntries returns the number of structural nonzeros.
func (j *Jacobian) NumEntries() int { return len(j.Expr) }

// topoOrder returns the nodes reachable from the roots in topological
// order (operands before their consumers).
func topoOrder(roots []*Node) []*Node {
	var order []*Node
	visited := map[*Node]bool{}
	type frame struct {
		n        *Node
		expanded bool
	}
	var stack []frame
	for _, r := range roots {
		stack = append(stack, frame{n: r})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.expanded {
			stack = stack[:len(stack)-1]
			if !visited[f.n] {
				visited[f.n] = true
				order = append(order, f.n)
			}
			continue
		}
		if visited[f.n] {
			stack = stack[:len(stack)-1]
			continue
		}
		stack[len(stack)-1].expanded = true
		for _, op := range f.n.operands() {
			if !visited[op] {
				stack = append(stack, frame{n: op})
			}
		}
	}
	return order
}

// gradient computes the symbolic partial derivatives of expr with respect
// to every reachable symbol node by a reverse sweep over the DAG.
func gradient(expr *Node) map[*Node]*Node {
	order := topoOrder([]*Node{expr})
	adjoint := map[*Node]*Node{expr: Const(1)}
	accumulate := func(n *Node, contribution *Node) {
		if prev, ok := adjoint[n]; ok {
			adjoint[n] = Add(prev, contribution)
		} else {
			adjoint[n] = contribution
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		w, ok := adjoint[n]
		if !ok || isConst(w, 0) {
			continue
		}
		switch n.op {
		case OpAdd:
			accumulate(n.a, w)
			accumulate(n.b, w)
		case OpSub:
			accumulate(n.a, w)
			accumulate(n.b, Neg(w))
		case OpMul:
			accumulate(n.a, Mul(w, n.b))
			accumulate(n.b, Mul(w, n.a))
		case OpDiv:
			accumulate(n.a, Div(w, n.b))
			accumulate(n.b, Neg(Div(Mul(w, n), n.b)))
		case OpPow:
			// d/da a^b = b a^(b-1); d/db a^b = a^b ln(a)
			accumulate(n.a, Mul(w, Mul(n.b, Pow(n.a, Sub(n.b, Const(1))))))
			accumulate(n.b, Mul(w, Mul(n, Log(n.a))))
		case OpLog:
			accumulate(n.a, Div(w, n.a))
		case OpExp:
			accumulate(n.a, Mul(w, n))
		case OpSqrt:
			accumulate(n.a, Div(w, Mul(Const(2), n)))
		case OpSq:
			accumulate(n.a, Mul(w, Mul(Const(2), n.a)))
		case OpNeg:
			accumulate(n.a, Neg(w))
		case OpCond:
			// The derivative follows the active branch; the condition
			// itself is treated as locally constant.
			accumulate(n.a, Cond(n.cond, w, Const(0)))
			accumulate(n.b, Cond(n.cond, Const(0), w))
		case OpGt:
			// piecewise constant
		}
	}
	grad := map[*Node]*Node{}
	for n, adj := range adjoint {
		if n.op == OpSym && !isConst(adj, 0) {
			grad[n] = adj
		}
	}
	return grad
}

// JacobianOf builds the sparse Jacobian of the expression vector with
// respect to the variable vector.
func JacobianOf(exprs, vars []*Node) *Jacobian {
	varCol := make(map[*Node]int, len(vars))
	for i, v := range vars {
		varCol[v] = i
	}

	type entry struct {
		row  int
		node *Node
	}
	colEntries := make([][]entry, len(vars))
	fill := sparse.ZerosSparse(len(vars))
	for row, expr := range exprs {
		for sym, d := range gradient(expr) {
			col, ok := varCol[sym]
			if !ok {
				continue // derivative with respect to a parameter symbol
			}
			colEntries[col] = append(colEntries[col], entry{row: row, node: d})
			fill.AddVal(1, col)
		}
	}

	jac := &Jacobian{
		Rows:   len(exprs),
		Cols:   len(vars),
		ColPtr: make([]int, len(vars)+1),
	}
	for col := range colEntries {
		jac.ColPtr[col+1] = jac.ColPtr[col] + int(fill.Get(col))
		// keep entries sorted by row within the column
		es := colEntries[col]
		for i := 1; i < len(es); i++ {
			for k := i; k > 0 && es[k].row < es[k-1].row; k-- {
				es[k], es[k-1] = es[k-1], es[k]
			}
		}
		for _, e := range es {
			jac.RowIdx = append(jac.RowIdx, e.row)
			jac.Expr = append(jac.Expr, e.node)
		}
	}
	return jac
}

// CSC is a numeric sparse matrix in compressed sparse column form, the
// canonical exchange format towards the linear-solver backends.
type CSC struct {
	Rows, Cols int
	ColPtr     []int
	RowIdx     []int
	Val        []float64
}

// Pattern returns a CSC matrix sharing the Jacobian's structure with an
// uninitialized value array.
func (j *Jacobian) Pattern() *CSC {
	return &CSC{
		Rows:   j.Rows,
		Cols:   j.Cols,
		ColPtr: j.ColPtr,
		RowIdx: j.RowIdx,
		Val:    make([]float64, len(j.Expr)),
	}
}

// MulVec computes y = A·x.
func (m *CSC) MulVec(x []float64) []float64 {
	y := make([]float64, m.Rows)
	for col := 0; col < m.Cols; col++ {
		for k := m.ColPtr[col]; k < m.ColPtr[col+1]; k++ {
			y[m.RowIdx[k]] += m.Val[k] * x[col]
		}
	}
	return y
}

// Dense expands the matrix into a row-major dense array.
func (m *CSC) Dense() *sparse.DenseArray {
	d := sparse.ZerosDense(m.Rows, m.Cols)
	for col := 0; col < m.Cols; col++ {
		for k := m.ColPtr[col]; k < m.ColPtr[col+1]; k++ {
			d.Set(m.Val[k], m.RowIdx[k], col)
		}
	}
	return d
}
