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

// Package cubic provides the cubic equation-of-state contributions:
// critical parameters, the Redlich-Kwong m/a/b functions with the
// Boston-Mathias alpha extrapolation, linear and non-symmetric mixing
// rules, volume shift, and the Redlich-Kwong EOS itself with analytic
// root selection for the gas and liquid branches.
package cubic

import (
	"github.com/eqosim/eqosim/graph"
	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

type contribBase struct {
	species []string
	defs    map[string]*thermo.SpeciesDefinition
	options thermo.Options
}

func register(name string, build func(base contribBase) thermo.Contribution) {
	thermo.RegisterContribution(name,
		func(species []string, defs map[string]*thermo.SpeciesDefinition,
			options thermo.Options) (thermo.Contribution, error) {
			return build(contribBase{
				species: species, defs: defs, options: options}), nil
		})
}

// CriticalParameters publishes the critical temperatures, pressures and
// acentric factors as intermediate results for the equation-of-state
// contributions.
type CriticalParameters struct{ contribBase }

// Define implements thermo.Contribution.
func (c *CriticalParameters) Define(ctx *thermo.Context) {
	ctx.Props.Set("_T_c", ctx.Params.Vector("T_c", c.species, "K"))
	ctx.Props.Set("_p_c", ctx.Params.Vector("p_c", c.species, "Pa"))
	ctx.Props.Set("_omega", ctx.Params.Vector("omega", c.species, "dimless"))
}

// RedlichKwongMFactor computes the m-factor of the Soave modification
// from the acentric factor:
//
//	m = 0.48508 − (0.15613 ω − 1.55171) ω
type RedlichKwongMFactor struct{ contribBase }

// Define implements thermo.Contribution.
func (c *RedlichKwongMFactor) Define(ctx *thermo.Context) {
	omega := ctx.Props.Get("_omega")
	one := units.NewVec(constVec(len(c.species), 0.48508), "dimless")
	m := one.Sub(omega.Scale(0.15613).
		Sub(units.NewVec(constVec(len(c.species), 1.55171), "dimless")).
		Mul(omega))
	ctx.Props.Set("_m_factor", m)
}

func constVec(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// BostonMathiasAlphaFunction is the Mathias alpha function with the
// Boston-Mathias extrapolation above the critical temperature. With
// τ = √(T/T_c):
//
//	sub-critical:   √α = 1 + m (1−τ) − η (1−τ)(0.7−τ²)
//	super-critical: √α = exp((c/d)(1−τ^d)), c = m + 0.3 η, d = 1 + 4η/c + c
//
// The two branches agree in value and first two derivatives at τ = 1.
type BostonMathiasAlphaFunction struct{ contribBase }

// Define implements thermo.Contribution.
func (c *BostonMathiasAlphaFunction) Define(ctx *thermo.Context) {
	eta := ctx.Params.Vector("eta", c.species, "dimless")
	T := ctx.Props.Get("T")
	tc := ctx.Props.Get("_T_c")
	mFac := ctx.Props.Get("_m_factor")

	tau := T.Div(tc)
	stau := units.Sqrt(tau)
	ones := units.NewVec(constVec(len(c.species), 1), "dimless")

	oneMinus := ones.Sub(stau)
	sub := ones.Add(mFac.Mul(oneMinus)).
		Sub(eta.Mul(oneMinus).
			Mul(units.NewVec(constVec(len(c.species), 0.7), "dimless").Sub(tau)))

	bmC := mFac.Add(eta.Scale(0.3))
	bmD := ones.Add(bmC).Add(eta.Scale(4).Div(bmC))
	sup := units.Exp(bmC.Div(bmD).Mul(ones.Sub(units.Pow(stau, bmD))))

	alpha := units.Conditional(units.Gt(tau, ones), sub, sup)
	ctx.Props.Set("_alpha", alpha.Mul(alpha))
}

// RedlichKwongAFunction scales the alpha function into the per-species
// a-contribution:
//
//	a_i = α_i Ω_a R² T_c_i² / p_c_i,   Ω_a = 1/(9 (2^⅓ − 1))
type RedlichKwongAFunction struct{ contribBase }

// OmegaA is the Redlich-Kwong a-scaling constant.
const OmegaA = 0.42748023354034140439 // 1/(9(2^(1/3)-1))

// Define implements thermo.Contribution.
func (c *RedlichKwongAFunction) Define(ctx *thermo.Context) {
	alpha := ctx.Props.Get("_alpha")
	tc := ctx.Props.Get("_T_c")
	pc := ctx.Props.Get("_p_c")
	r := units.RGas()
	scale := r.Mul(r).Scale(OmegaA)
	ctx.Props.Set("_ceos_a_i", alpha.Mul(scale).Mul(tc.Mul(tc)).Div(pc))
}

// RedlichKwongBFunction computes the per-species b-contribution:
//
//	b_i = Ω_b R T_c_i / p_c_i,   Ω_b = (2^⅓ − 1)/3
type RedlichKwongBFunction struct{ contribBase }

// OmegaB is the Redlich-Kwong b-scaling constant.
const OmegaB = 0.08664034996495772158 // (2^(1/3)-1)/3

// Define implements thermo.Contribution.
func (c *RedlichKwongBFunction) Define(ctx *thermo.Context) {
	tc := ctx.Props.Get("_T_c")
	pc := ctx.Props.Get("_p_c")
	ctx.Props.Set("_ceos_b_i", tc.Mul(units.RGas().Scale(OmegaB)).Div(pc))
}

// VolumeShift provides the Peneloux volume-shift parameters as the
// per-species source of the C mixing target.
type VolumeShift struct{ contribBase }

// Define implements thermo.Contribution.
func (c *VolumeShift) Define(ctx *thermo.Context) {
	ctx.Props.Set("_ceos_c_i", ctx.Params.Vector("c_i", c.species, "m**3/mol"))
}

// derivVector differentiates a scalar quantity with respect to a symbol
// vector quantity, returning the gradient as a vector quantity with
// structural zeros filled in.
func derivVector(q, wrt units.Quantity) units.Quantity {
	vars := wrt.Nodes()
	jac := graph.JacobianOf(q.Nodes(), vars)
	nodes := make([]*graph.Node, len(vars))
	for i := range nodes {
		nodes[i] = graph.Const(0)
	}
	for col := 0; col < jac.Cols; col++ {
		for k := jac.ColPtr[col]; k < jac.ColPtr[col+1]; k++ {
			nodes[col] = jac.Expr[k]
		}
	}
	u := q.Unit().Dim().Div(wrt.Unit().Dim())
	return units.FromNodes(nodes, units.SI(u))
}

func init() {
	register("CriticalParameters",
		func(b contribBase) thermo.Contribution { return &CriticalParameters{b} })
	register("RedlichKwongMFactor",
		func(b contribBase) thermo.Contribution { return &RedlichKwongMFactor{b} })
	register("BostonMathiasAlphaFunction",
		func(b contribBase) thermo.Contribution { return &BostonMathiasAlphaFunction{b} })
	register("RedlichKwongAFunction",
		func(b contribBase) thermo.Contribution { return &RedlichKwongAFunction{b} })
	register("RedlichKwongBFunction",
		func(b contribBase) thermo.Contribution { return &RedlichKwongBFunction{b} })
	register("VolumeShift",
		func(b contribBase) thermo.Contribution { return &VolumeShift{b} })
}
