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

package eqosim

import (
	"fmt"

	edpsparse "github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/eqosim/eqosim/graph"
)

// LinearSolver solves the sparse linear system A·x = b arising in each
// Newton iteration. A is handed over in compressed sparse column form,
// the canonical exchange format of the engine.
type LinearSolver interface {
	Solve(a *graph.CSC, b []float64) ([]float64, error)
}

// SparseLU is the reference backend: a direct sparse LU factorization
// (Sparse 1.3). It re-stamps and refactors the matrix on every call,
// which matches the Newton solver's usage pattern.
type SparseLU struct{}

// Solve implements LinearSolver.
func (SparseLU) Solve(a *graph.CSC, b []float64) ([]float64, error) {
	if a.Rows != a.Cols {
		return nil, &NonSquareSystemError{Residuals: a.Rows, Variables: a.Cols}
	}
	n := a.Rows
	config := &edpsparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  false,
		TiesMultiplier: 5,
	}
	m, err := edpsparse.Create(int64(n), config)
	if err != nil {
		return nil, fmt.Errorf("eqosim: creating sparse matrix: %w", err)
	}
	defer m.Destroy()
	m.Clear()
	for col := 0; col < a.Cols; col++ {
		for k := a.ColPtr[col]; k < a.ColPtr[col+1]; k++ {
			// Sparse 1.3 indexes from one
			m.GetElement(int64(a.RowIdx[k]+1), int64(col+1)).Real += a.Val[k]
		}
	}
	if err := m.Factor(); err != nil {
		return nil, err
	}
	rhs := make([]float64, n+1)
	copy(rhs[1:], b)
	sol, err := m.Solve(rhs)
	if err != nil {
		return nil, err
	}
	return sol[1 : n+1], nil
}

// DenseSolver is the single-threaded fallback backend, factoring the
// expanded matrix with a dense LU.
type DenseSolver struct{}

// Solve implements LinearSolver.
func (DenseSolver) Solve(a *graph.CSC, b []float64) ([]float64, error) {
	if a.Rows != a.Cols {
		return nil, &NonSquareSystemError{Residuals: a.Rows, Variables: a.Cols}
	}
	dense := cscToDense(a)
	var lu mat.LU
	lu.Factorize(dense)
	rhs := mat.NewVecDense(len(b), append([]float64{}, b...))
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, rhs); err != nil {
		return nil, err
	}
	out := make([]float64, len(b))
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

func cscToDense(a *graph.CSC) *mat.Dense {
	dense := mat.NewDense(a.Rows, a.Cols, nil)
	for col := 0; col < a.Cols; col++ {
		for k := a.ColPtr[col]; k < a.ColPtr[col+1]; k++ {
			dense.Set(a.RowIdx[k], col, a.Val[k])
		}
	}
	return dense
}

// nearNullVariables finds the right singular vector belonging to the
// smallest singular value and maps its dominant components onto variable
// names, as a hint which variables make the system singular.
func nearNullVariables(a *graph.CSC, names func(int) string) []string {
	var svd mat.SVD
	if !svd.Factorize(cscToDense(a), mat.SVDThin) {
		return nil
	}
	var v mat.Dense
	svd.VTo(&v)
	_, cols := v.Dims()
	last := cols - 1
	maxAbs := 0.0
	for i := 0; i < a.Cols; i++ {
		if abs := absFloat(v.At(i, last)); abs > maxAbs {
			maxAbs = abs
		}
	}
	var out []string
	for i := 0; i < a.Cols; i++ {
		if absFloat(v.At(i, last)) > 0.5*maxAbs {
			out = append(out, names(i))
		}
	}
	return out
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
