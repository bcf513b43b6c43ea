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
	"fmt"
	"math"
)

// Function is a compiled evaluation of output expression vectors from
// input symbol vectors. It owns a topological schedule over the shared DAG,
// so common subexpressions between outputs are evaluated once.
type Function struct {
	inputs  [][]*Node
	outputs [][]*Node
	order   []*Node
	slot    map[*Node]int
	buf     []float64
}

// Compile schedules the output expressions over the given input symbol
// vectors. Every symbol reachable from an output must appear in the inputs,
// otherwise a *MissingSymbolError is returned. Symbol names must be unique
// across the function.
func Compile(inputs [][]*Node, outputs [][]*Node) (*Function, error) {
	inSet := map[*Node]bool{}
	names := map[string]bool{}
	for _, vec := range inputs {
		for _, s := range vec {
			if s.op != OpSym {
				return nil, fmt.Errorf("graph: input node is not a symbol")
			}
			if names[s.name] {
				return nil, fmt.Errorf("graph: duplicate symbol name %q", s.name)
			}
			names[s.name] = true
			inSet[s] = true
		}
	}

	var roots []*Node
	for _, vec := range outputs {
		roots = append(roots, vec...)
	}
	order := topoOrder(roots)
	slot := make(map[*Node]int, len(order))
	for i, n := range order {
		if n.op == OpSym && !inSet[n] {
			return nil, &MissingSymbolError{Name: n.name}
		}
		slot[n] = i
	}
	return &Function{
		inputs:  inputs,
		outputs: outputs,
		order:   order,
		slot:    slot,
		buf:     make([]float64, len(order)),
	}, nil
}

// NumInputs returns the number of input vectors.
func (f *Function) NumInputs() int { return len(f.inputs) }

// NumOutputs returns the number of output vectors.
func (f *Function) NumOutputs() int { return len(f.outputs) }

// Eval evaluates all output vectors for the given input vector values.
// The input slice layout must match the compiled input vectors.
func (f *Function) Eval(in [][]float64) ([][]float64, error) {
	if len(in) != len(f.inputs) {
		return nil, fmt.Errorf("graph: expected %d input vectors, got %d",
			len(f.inputs), len(in))
	}
	for i, vec := range f.inputs {
		if len(in[i]) != len(vec) {
			return nil, fmt.Errorf(
				"graph: input vector %d has length %d, expected %d",
				i, len(in[i]), len(vec))
		}
		for k, s := range vec {
			if idx, ok := f.slot[s]; ok {
				f.buf[idx] = in[i][k]
			}
		}
	}
	get := func(n *Node) float64 { return f.buf[f.slot[n]] }
	for i, n := range f.order {
		if n.op == OpSym {
			continue // assigned above
		}
		f.buf[i] = n.eval(get)
	}
	out := make([][]float64, len(f.outputs))
	for i, vec := range f.outputs {
		out[i] = make([]float64, len(vec))
		for k, n := range vec {
			out[i][k] = f.buf[f.slot[n]]
		}
	}
	return out, nil
}

// EvalInto is like Eval for a single output vector index, filling dst.
func (f *Function) EvalInto(in [][]float64, outIdx int, dst []float64) error {
	res, err := f.Eval(in)
	if err != nil {
		return err
	}
	copy(dst, res[outIdx])
	return nil
}

// HasNonFinite reports whether any value of the vector is NaN or infinite.
func HasNonFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
