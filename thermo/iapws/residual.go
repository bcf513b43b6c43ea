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

package iapws

import (
	"fmt"

	"github.com/eqosim/eqosim/graph"
	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// phiDefinition builds the residual φʳ vector (one entry per active
// species) of one term group from the registered term parameters.
type phiDefinition interface {
	// parameterNames returns the per-term parameter vector names.
	parameterNames() []string
	// defaultTerms returns the default number of terms of the group.
	defaultTerms() int
	// phi assembles φʳ from τ, δ and the parameter vectors, indexed
	// params[name][term].
	phi(tau, rho units.Quantity, params map[string][]units.Quantity) units.Quantity
}

// residualContribution is the shared machinery of the four residual term
// groups: it registers the term tables, assembles the residual Helmholtz
// function
//
//	A^res = R T Σ_i n_i φʳ_i(τ_i, δ_i)
//
// over the active species, and differentiates it through the expression
// graph into the property updates
//
//	S −= ∂A^res/∂T      p −= ∂A^res/∂V      mu_i += ∂A^res/∂n_i
//
// Options: "species" restricts the group to a sub-set of species;
// "number_of_terms" overrides the default term count.
type residualContribution struct {
	contribBase
	def phiDefinition
}

// Define implements thermo.Contribution.
func (c *residualContribution) Define(ctx *thermo.Context) {
	active := c.activeSpecies()
	terms := c.defaultOrOptionTerms()

	tau := subVector(ctx.Props.Get("_tau"), c.contribBase, active)
	rho := subVector(ctx.Props.Get("_rho"), c.contribBase, active)
	nSub := subVector(ctx.Props.Get("n"), c.contribBase, active)
	T := ctx.Props.Get("T")
	V := ctx.Props.Get("V")
	n := ctx.Props.Get("n")

	params := map[string][]units.Quantity{}
	for _, name := range c.def.parameterNames() {
		vecs := make([]units.Quantity, terms)
		for k := 0; k < terms; k++ {
			vecs[k] = ctx.Params.Vector(
				fmt.Sprintf("%s_%02d", name, k+1), active, "dimless")
		}
		params[name] = vecs
	}

	phi := c.def.phi(tau, rho, params)
	aRes := T.Mul(units.RGas()).Mul(nSub.Dot(phi))

	dT := deriv(aRes, T)
	dV := deriv(aRes, V)
	dN := derivVec(aRes, n)

	ctx.Props.Set("S", ctx.Props.Get("S").Sub(dT))
	ctx.Props.Set("p", ctx.Props.Get("p").Sub(dV))
	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(dN))
}

func (c *residualContribution) defaultOrOptionTerms() int {
	if v, ok := c.options["number_of_terms"].(int); ok {
		return v
	}
	return c.def.defaultTerms()
}

func deriv(q, wrt units.Quantity) units.Quantity {
	return derivVec(q, wrt)
}

func derivVec(q, wrt units.Quantity) units.Quantity {
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
	dim := q.Unit().Dim().Div(wrt.Unit().Dim())
	return units.FromNodes(nodes, units.SI(dim))
}

// Residual1 is the polynomial group: φ = Σ n_k δ^{d_k} τ^{t_k}.
type residual1 struct{}

func (residual1) parameterNames() []string { return []string{"d", "t", "n"} }
func (residual1) defaultTerms() int        { return 7 }
func (residual1) phi(tau, rho units.Quantity,
	p map[string][]units.Quantity) units.Quantity {
	var phi units.Quantity
	for k := range p["n"] {
		term := p["n"][k].
			Mul(units.Pow(rho, p["d"][k])).
			Mul(units.Pow(tau, p["t"][k]))
		if k == 0 {
			phi = term
		} else {
			phi = phi.Add(term)
		}
	}
	return phi
}

// Residual2 is the exponential-damped group:
// φ = Σ n_k δ^{d_k} τ^{t_k} exp(−δ^{c_k}).
type residual2 struct{}

func (residual2) parameterNames() []string { return []string{"c", "d", "t", "n"} }
func (residual2) defaultTerms() int        { return 44 }
func (residual2) phi(tau, rho units.Quantity,
	p map[string][]units.Quantity) units.Quantity {
	var phi units.Quantity
	for k := range p["n"] {
		term := p["n"][k].
			Mul(units.Pow(rho, p["d"][k])).
			Mul(units.Pow(tau, p["t"][k])).
			Mul(units.Exp(units.Pow(rho, p["c"][k]).Neg()))
		if k == 0 {
			phi = term
		} else {
			phi = phi.Add(term)
		}
	}
	return phi
}

// Residual3 is the Gaussian group:
// φ = Σ n_k δ^{d_k} τ^{t_k} exp(−a_k(δ−e_k)² − b_k(τ−g_k)²).
type residual3 struct{}

func (residual3) parameterNames() []string {
	return []string{"d", "t", "n", "a", "b", "g", "e"}
}
func (residual3) defaultTerms() int { return 3 }
func (residual3) phi(tau, rho units.Quantity,
	p map[string][]units.Quantity) units.Quantity {
	var phi units.Quantity
	for k := range p["n"] {
		dRho := rho.Sub(p["e"][k])
		dTau := tau.Sub(p["g"][k])
		arg := p["a"][k].Mul(dRho.Mul(dRho)).
			Add(p["b"][k].Mul(dTau.Mul(dTau))).Neg()
		term := p["n"][k].
			Mul(units.Pow(rho, p["d"][k])).
			Mul(units.Pow(tau, p["t"][k])).
			Mul(units.Exp(arg))
		if k == 0 {
			phi = term
		} else {
			phi = phi.Add(term)
		}
	}
	return phi
}

// Residual4 is the nonanalytic critical-region group:
// φ = Σ n_k Δ^{b_k} δ ψ with
//
//	ρ̂ = (δ−1)²     θ = 1 − τ + A_k ρ̂^{1/(2β_k)}
//	Δ = θ² + B_k ρ̂^{a_k}     ψ = exp(−C_k ρ̂ − D_k (τ−1)²)
type residual4 struct{}

func (residual4) parameterNames() []string {
	return []string{"a", "b", "B", "n", "C", "D", "A", "beta"}
}
func (residual4) defaultTerms() int { return 2 }
func (residual4) phi(tau, rho units.Quantity,
	p map[string][]units.Quantity) units.Quantity {
	size := rho.Len()
	one := units.NewVec(onesVec(size), "dimless")
	half := units.NewVec(constVector(size, 0.5), "dimless")
	rhoHat := rho.Sub(one).Mul(rho.Sub(one))
	tauM1 := tau.Sub(one)
	var phi units.Quantity
	for k := range p["n"] {
		psi := units.Exp(
			p["C"][k].Mul(rhoHat).Add(p["D"][k].Mul(tauM1.Mul(tauM1))).Neg())
		theta := one.Sub(tau).
			Add(p["A"][k].Mul(units.Pow(rhoHat, half.Div(p["beta"][k]))))
		delta := theta.Mul(theta).
			Add(p["B"][k].Mul(units.Pow(rhoHat, p["a"][k])))
		term := p["n"][k].Mul(units.Pow(delta, p["b"][k])).Mul(rho).Mul(psi)
		if k == 0 {
			phi = term
		} else {
			phi = phi.Add(term)
		}
	}
	return phi
}

func constVector(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func init() {
	register("Residual1IAPWS", func(b contribBase) thermo.Contribution {
		return &residualContribution{contribBase: b, def: residual1{}}
	})
	register("Residual2IAPWS", func(b contribBase) thermo.Contribution {
		return &residualContribution{contribBase: b, def: residual2{}}
	})
	register("Residual3IAPWS", func(b contribBase) thermo.Contribution {
		return &residualContribution{contribBase: b, def: residual3{}}
	})
	register("Residual4IAPWS", func(b contribBase) thermo.Contribution {
		return &residualContribution{contribBase: b, def: residual4{}}
	})
}
