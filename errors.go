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

// Package eqosim is an equation-oriented steady-state process modelling
// engine: hierarchical models with declared interfaces compose materials
// built on symbolic thermodynamic frames into one flat numeric problem,
// which a bound-aware Newton solver drives to its solution.
package eqosim

import (
	"fmt"
	"strings"
)

// UndeclaredPropertyError reports a model writing a property it never
// declared in its interface.
type UndeclaredPropertyError struct {
	Model    string
	Property string
}

func (e *UndeclaredPropertyError) Error() string {
	return fmt.Sprintf("eqosim: model %q writes undeclared property %q",
		e.Model, e.Property)
}

// DataFlowError reports out-of-order access during the define pass, such
// as reading a child property before the child's define completed, or
// leaving a required parameter unresolved.
type DataFlowError struct {
	Model string
	Msg   string
}

func (e *DataFlowError) Error() string {
	return fmt.Sprintf("eqosim: model %q: %s", e.Model, e.Msg)
}

// NonSquareSystemError reports a model whose residual count does not
// match its variable count.
type NonSquareSystemError struct {
	Residuals, Variables int
}

func (e *NonSquareSystemError) Error() string {
	return fmt.Sprintf(
		"eqosim: system is not square: %d residuals over %d variables",
		e.Residuals, e.Variables)
}

// SingularJacobianError reports a (near-)singular residual Jacobian. The
// variable names with the largest components of the right singular vector
// belonging to the smallest singular value hint at the likely offending
// variable set.
type SingularJacobianError struct {
	Variables []string
}

func (e *SingularJacobianError) Error() string {
	return fmt.Sprintf(
		"eqosim: singular Jacobian; suspicious variables: %s",
		strings.Join(e.Variables, ", "))
}

// Causes of an IterativeProcessError.
const (
	CauseIterationLimit = "iteration limit exceeded"
	CauseStepUnderflow  = "step factor underflow"
)

// IterativeProcessError reports a solve that exhausted its budget.
type IterativeProcessError struct {
	Cause      string
	Iterations int
}

func (e *IterativeProcessError) Error() string {
	return fmt.Sprintf("eqosim: solve failed after %d iterations: %s",
		e.Iterations, e.Cause)
}

// IterativeProcessInterruptedError reports a user callback aborting the
// solve. The report preserves the partial state.
type IterativeProcessInterruptedError struct {
	Iterations int
}

func (e *IterativeProcessInterruptedError) Error() string {
	return fmt.Sprintf("eqosim: solve interrupted by callback at iteration %d",
		e.Iterations)
}

// NumericBreakError reports NaN or Inf values in the residuals or the
// Jacobian.
type NumericBreakError struct {
	Where string
}

func (e *NumericBreakError) Error() string {
	return fmt.Sprintf("eqosim: non-finite values in %s", e.Where)
}
