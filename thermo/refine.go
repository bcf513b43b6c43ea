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

package thermo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/eqosim/eqosim/graph"
	"github.com/eqosim/eqosim/units"
)

const (
	refineGamma   = 0.9
	refineMaxIter = 30
	refineRelTol  = 1e-9
)

// refineInitialState drives a raw-state estimate of a non-Gibbs frame onto
// the exact (T, p, n) specification with a small bound-aware Newton
// iteration. For a Helmholtz frame this reduces to finding the volume with
// p(T, V, n) = p_spec, but the implementation is kept general over the
// frame's own coordinates.
func (f *Frame) refineInitialState(init InitialState, params units.QStruct,
	estimate []float64) ([]float64, error) {
	state := units.NewSymbolVecN("x0", "dimless", f.StateLen())
	props, bounds, err := f.Define(state, params, false)
	if err != nil {
		return nil, err
	}

	// residuals as plain SI ratios, so flow and stagnant materials share
	// one code path
	targets := []float64{init.Temperature.Float(), init.Pressure.Float()}
	for _, s := range f.Species() {
		targets = append(targets, init.MolVector[s].Float())
	}
	propNodes := append([]*graph.Node{},
		props.Get("T").Nodes()[0], props.Get("p").Nodes()[0])
	propNodes = append(propNodes, props.Get("n").Nodes()...)
	var resNodes []*graph.Node
	for i, node := range propNodes {
		resNodes = append(resNodes, graph.Sub(
			graph.Div(node, graph.Const(targets[i])), graph.Const(1)))
	}
	var boundNodes []*graph.Node
	for _, b := range bounds {
		boundNodes = append(boundNodes, b.Q.Nodes()...)
	}

	vars := state.Nodes()
	jr := graph.JacobianOf(resNodes, vars)
	jb := graph.JacobianOf(boundNodes, vars)
	fn, err := graph.Compile(
		[][]*graph.Node{vars},
		[][]*graph.Node{resNodes, boundNodes, jr.Expr, jb.Expr})
	if err != nil {
		return nil, err
	}

	x := append([]float64{}, estimate...)
	n := len(x)
	for iter := 0; iter < refineMaxIter; iter++ {
		out, err := fn.Eval([][]float64{x})
		if err != nil {
			return nil, err
		}
		r, b := out[0], out[1]
		norm2 := 0.0
		for _, v := range r {
			norm2 += v * v
		}
		if norm2 < refineRelTol*refineRelTol {
			return x, nil
		}

		jrm := jr.Pattern()
		copy(jrm.Val, out[2])
		dense := mat.NewDense(len(r), n, nil)
		for col := 0; col < jrm.Cols; col++ {
			for k := jrm.ColPtr[col]; k < jrm.ColPtr[col+1]; k++ {
				dense.Set(jrm.RowIdx[k], col, jrm.Val[k])
			}
		}
		rhs := mat.NewVecDense(len(r), nil)
		for i, v := range r {
			rhs.SetVec(i, -v)
		}
		var dx mat.VecDense
		if err := dx.SolveVec(dense, rhs); err != nil {
			return nil, fmt.Errorf(
				"thermo: singular system refining initial state: %w", err)
		}

		jbm := jb.Pattern()
		copy(jbm.Val, out[3])
		step := make([]float64, n)
		for i := range step {
			step[i] = dx.AtVec(i)
		}
		db := jbm.MulVec(step)
		alpha := 1.0
		for i, v := range db {
			if v < 0 {
				if a := -b[i] / v * refineGamma; a < alpha {
					alpha = a
				}
			}
		}
		for i := range x {
			x[i] += alpha * step[i]
		}
		f.Relax(&RelaxContext{
			State: x,
			Prop:  f.numericPropEvaluator(params, x),
		})
	}
	return nil, fmt.Errorf(
		"thermo: initial state estimate did not converge within %d iterations",
		refineMaxIter)
}

// numericPropEvaluator returns a closure evaluating named frame properties
// at the current raw state.
func (f *Frame) numericPropEvaluator(params units.QStruct,
	x []float64) func(string) []float64 {
	return func(name string) []float64 {
		props, _, err := f.Call(x, params, false)
		if err != nil {
			return nil
		}
		q, ok := props[name]
		if !ok {
			return nil
		}
		return q.Floats()
	}
}
