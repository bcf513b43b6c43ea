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
	"io"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/eqosim/eqosim/units"
)

// SolverState is the state machine position of a solver run.
type SolverState int

// The solver states.
const (
	Ready SolverState = iota
	Iterating
	Converged
	Failed
)

// IterationReport is the diagnostic record of one Newton iteration.
type IterationReport struct {
	Iter          int
	LMET          float64 // log10 of the largest scaled residual
	Alpha         float64 // applied step factor
	Wallclock     time.Duration
	LimitingBound string // bound that limited the step, if any
	MaxResidual   string // residual with the largest scaled magnitude
}

// Callback is invoked after every iteration with the report, the current
// state, and a property evaluator. Returning false aborts the solve.
type Callback func(report IterationReport, x []float64,
	props PropertyCallable) bool

// PropertyCallable evaluates the model's full result structure at the
// current state.
type PropertyCallable func() (units.QStruct, error)

// SimulationSolverReport summarizes a finished solve: the per-iteration
// diagnostics, the final state, and a property callable over it.
type SimulationSolverReport struct {
	State      SolverState
	Iterations []IterationReport
	X          []float64
	Props      PropertyCallable
}

// SimulationSolver is the bound-aware Newton solver. It consumes the
// numeric handler's residual and bound Jacobians, relaxes each step so
// every bound expression stays strictly positive, projects the state
// through the contributions' relax chain, and reports per-iteration
// diagnostics.
//
// Both thermodynamic and model parameters are held constant over a solve.
type SimulationSolver struct {
	// MaxIter is the iteration budget (default 30).
	MaxIter int
	// Gamma is the safety margin towards the bounds (default 0.9).
	Gamma float64
	// Linear is the sparse backend (default SparseLU).
	Linear LinearSolver
	// Output receives one diagnostic line per iteration; nil silences
	// the stream.
	Output io.Writer
	// Callback, if set, may abort the solve.
	Callback Callback

	handler *NumericHandler
	state   SolverState
}

// NewSimulationSolver creates a solver over a numeric handler with the
// default configuration.
func NewSimulationSolver(handler *NumericHandler) *SimulationSolver {
	return &SimulationSolver{
		MaxIter: 30,
		Gamma:   0.9,
		Linear:  SparseLU{},
		handler: handler,
		state:   Ready,
	}
}

// State returns the state machine position.
func (s *SimulationSolver) State() SolverState { return s.state }

// Solve runs the Newton iteration until every scaled residual has
// magnitude below one. On success the handler's state vector holds the
// solution; on failure it is left at the last accepted step, never at a
// rejected trial.
func (s *SimulationSolver) Solve() (*SimulationSolverReport, error) {
	h := s.handler
	if _, err := h.Arguments(); err != nil {
		return nil, err
	}
	if h.NumResiduals() != h.NumStates() {
		s.state = Failed
		return nil, &NonSquareSystemError{
			Residuals: h.NumResiduals(), Variables: h.NumStates()}
	}
	params, err := h.paramValues()
	if err != nil {
		return nil, err
	}

	report := &SimulationSolverReport{Props: s.propertyCallable()}
	start := time.Now()
	s.state = Iterating
	x := h.x

	log.WithFields(log.Fields{
		"variables": h.NumStates(),
		"residuals": h.NumResiduals(),
	}).Info("starting simulation solve")
	s.printHeader()

	for iter := 0; ; iter++ {
		if iter >= s.MaxIter {
			s.state = Failed
			report.State = Failed
			report.X = x
			return report, &IterativeProcessError{
				Cause: CauseIterationLimit, Iterations: iter}
		}

		r, b, jr, jb, err := h.evalSystem(x, params)
		if err != nil {
			s.state = Failed
			report.State = Failed
			report.X = x
			return report, err
		}
		if hasNonFinite(r) || hasNonFinite(jr.Val) {
			s.state = Failed
			report.State = Failed
			report.X = x
			return report, &NumericBreakError{Where: "residuals or Jacobian"}
		}

		maxErr := 0.0
		maxName := ""
		for i := range r {
			if math.Abs(r[i]) >= maxErr {
				maxErr = math.Abs(r[i])
				maxName = h.resNames[i]
			}
		}
		row := IterationReport{
			Iter:        iter,
			LMET:        math.Log10(maxErr),
			Alpha:       1,
			Wallclock:   time.Since(start),
			MaxResidual: maxName,
		}

		if maxErr < 1 {
			// converged; the final evaluation is reported as an
			// idempotent iteration of its own
			row.Alpha = 0
			report.Iterations = append(report.Iterations, row)
			s.printRow(row)
			s.state = Converged
			report.State = Converged
			report.X = x
			log.WithField("iterations", len(report.Iterations)).
				Info("solve converged")
			return report, nil
		}

		neg := make([]float64, len(r))
		floats.AddScaledTo(neg, neg, -1, r)
		dx, err := s.Linear.Solve(jr, neg)
		if err != nil {
			s.state = Failed
			report.State = Failed
			report.X = x
			if _, ok := err.(*NonSquareSystemError); ok {
				return report, err
			}
			vars := nearNullVariables(jr, h.qualifiedStateName)
			return report, &SingularJacobianError{Variables: vars}
		}
		if hasNonFinite(dx) {
			s.state = Failed
			report.State = Failed
			report.X = x
			vars := nearNullVariables(jr, h.qualifiedStateName)
			return report, &SingularJacobianError{Variables: vars}
		}

		// relax the step against the bounds: the set
		// A = {−b_i/Δb_i : Δb_i < 0} limits the step factor
		db := jb.MulVec(dx)
		alphaBound := math.Inf(1)
		limiting := ""
		for i := range db {
			if db[i] < 0 {
				if a := -b[i] / db[i]; a < alphaBound {
					alphaBound = a
					limiting = h.boundNames[i]
				}
			}
		}
		alpha := 1.0
		if s.Gamma*alphaBound < 1 {
			alpha = s.Gamma * alphaBound
		} else {
			limiting = ""
		}
		if alpha < 1e-14 {
			s.state = Failed
			report.State = Failed
			report.X = x
			return report, &IterativeProcessError{
				Cause: CauseStepUnderflow, Iterations: iter}
		}

		floats.AddScaled(x, alpha, dx)
		h.relax(x, params)
		h.invalidateArgs()

		row.Alpha = alpha
		row.LimitingBound = limiting
		row.Wallclock = time.Since(start)
		report.Iterations = append(report.Iterations, row)
		s.printRow(row)

		if s.Callback != nil && !s.Callback(row, x, report.Props) {
			s.state = Failed
			report.State = Failed
			report.X = x
			return report, &IterativeProcessInterruptedError{
				Iterations: iter + 1}
		}
	}
}

func (s *SimulationSolver) propertyCallable() PropertyCallable {
	h := s.handler
	return func() (units.QStruct, error) {
		args, err := h.Arguments()
		if err != nil {
			return nil, err
		}
		return h.fn.Call(args)
	}
}

func (s *SimulationSolver) printHeader() {
	if s.Output == nil {
		return
	}
	fmt.Fprintf(s.Output, "%-5s %8s %8s %10s  %-24s %s\n",
		"Iter", "LMET", "Alpha", "Time", "Limit on bound", "Max residual")
}

func (s *SimulationSolver) printRow(row IterationReport) {
	if s.Output == nil {
		return
	}
	fmt.Fprintf(s.Output, "%-5d %8.3f %8.4f %10s  %-24s %s\n",
		row.Iter, row.LMET, row.Alpha,
		row.Wallclock.Round(time.Millisecond),
		row.LimitingBound, row.MaxResidual)
}

func hasNonFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
