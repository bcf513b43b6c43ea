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

// Package iapws implements the IAPWS formulation of water properties as
// frame contributions: the reduced state, the ideal-gas part, and the
// four groups of residual Helmholtz terms, parameterized by the published
// term tables.
package iapws

import (
	"fmt"

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

// activeSpecies resolves the optional "species" subset of a contribution.
func (c contribBase) activeSpecies() []string {
	raw, ok := c.options["species"].([]any)
	if !ok {
		return c.species
	}
	allowed := map[string]bool{}
	for _, v := range raw {
		allowed[fmt.Sprintf("%v", v)] = true
	}
	var out []string
	for _, s := range c.species {
		if allowed[s] {
			out = append(out, s)
		}
	}
	return out
}

func (c contribBase) speciesIndex(name string) int {
	for i, s := range c.species {
		if s == name {
			return i
		}
	}
	return -1
}

// subVector selects the entries of a frame vector property belonging to
// the active species.
func subVector(q units.Quantity, c contribBase, active []string) units.Quantity {
	if len(active) == len(c.species) {
		return q
	}
	parts := make([]units.Quantity, len(active))
	for i, s := range active {
		parts[i] = q.Index(c.speciesIndex(s))
	}
	return units.Vertcat(parts...)
}

// ReducedStateIAPWS expresses the state in the reduced coordinates of the
// IAPWS formulation for every species:
//
//	τ_i = T_c_i / T        δ_i = mw_i n_i / (V ρ_c_i)
//
// Note the reciprocal temperature convention. The parameters are the
// critical temperature T_c [K] and critical density rho_c [kg/m³] per
// species. Temperature and volume are bounded positive, as both divide.
type ReducedStateIAPWS struct{ contribBase }

// Define implements thermo.Contribution.
func (c *ReducedStateIAPWS) Define(ctx *thermo.Context) {
	T := ctx.Props.Get("T")
	V := ctx.Props.Get("V")
	n := ctx.Props.Get("n")
	mw := ctx.Props.Get("mw")
	rhoC := ctx.Params.Vector("rho_c", c.species, "kg/m**3")
	tC := ctx.Params.Vector("T_c", c.species, "K")

	ctx.Props.Set("_tau", tC.Div(T))
	ctx.Props.Set("_rho", mw.Mul(n).Div(V).Div(rhoC))

	ctx.Bounds.Add("T", T)
	ctx.Bounds.Add("V", V)
}

// StandardStateIAPWS builds the temperature-dependent part of the
// ideal-gas chemical potential from the IAPWS φ° coefficient tables
// (n_1 … n_8 and γ_4 … γ_8 per species):
//
//	φ°_i(τ) = n_1 + n_2 τ + n_3 ln τ + Σ_{k=4..8} n_k ln(1 − e^{−γ_k τ})
//	mu_i = R T φ°_i
//	S    = R Σ_i n_i (τ_i φ°'_i − φ°_i)
//
// The reference state is thereby the ideal-gas standard state at the
// critical pressure of each species.
type StandardStateIAPWS struct{ contribBase }

// Define implements thermo.Contribution.
func (c *StandardStateIAPWS) Define(ctx *thermo.Context) {
	T := ctx.Props.Get("T")
	tau := ctx.Props.Get("_tau")
	n := ctx.Props.Get("n")
	species := c.species

	pn := make([]units.Quantity, 9)
	for i := 1; i <= 8; i++ {
		pn[i] = ctx.Params.Vector(fmt.Sprintf("n_%d", i), species, "dimless")
	}
	pg := map[int]units.Quantity{}
	for i := 4; i <= 8; i++ {
		pg[i] = ctx.Params.Vector(fmt.Sprintf("g_%d", i), species, "dimless")
	}

	phi := pn[1].Add(pn[2].Mul(tau)).Add(pn[3].Mul(units.Log(tau)))
	// φ°' with respect to τ
	phiTau := pn[2].Add(pn[3].Div(tau))
	one := units.NewVec(onesVec(len(species)), "dimless")
	for i := 4; i <= 8; i++ {
		e := units.Exp(pg[i].Mul(tau).Neg())
		phi = phi.Add(pn[i].Mul(units.Log(one.Sub(e))))
		phiTau = phiTau.Add(pn[i].Mul(pg[i]).Mul(e).Div(one.Sub(e)))
	}

	rt := T.Mul(units.RGas())
	ctx.Props.Set("mu", rt.Mul(phi))
	ctx.Props.DeclareVector("mu", species)
	s := tau.Mul(phiTau).Sub(phi).Mul(units.RGas()).Dot(n)
	ctx.Props.Set("S", s)
}

func onesVec(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// IdealGasIAPWS adds the density-dependent ideal-gas part in Helmholtz
// coordinates, A° = R T Σ n_i ln δ_i:
//
//	p     = N R T / V
//	mu_i += R T (ln δ_i + 1)
//	S    -= R Σ n_i ln δ_i
type IdealGasIAPWS struct{ contribBase }

// Define implements thermo.Contribution.
func (c *IdealGasIAPWS) Define(ctx *thermo.Context) {
	T := ctx.Props.Get("T")
	V := ctx.Props.Get("V")
	n := ctx.Props.Get("n")
	rho := ctx.Props.Get("_rho")

	rt := T.Mul(units.RGas())
	logRho := units.Log(rho)
	one := units.NewVec(onesVec(len(c.species)), "dimless")

	ctx.Props.Set("p", n.Sum().Mul(units.RGas()).Mul(T).Div(V))
	ctx.Props.Set("mu",
		ctx.Props.Get("mu").Add(rt.Mul(logRho.Add(one))))
	ctx.Props.Set("S", ctx.Props.Get("S").Sub(units.RGas().Mul(n.Dot(logRho))))
}

func init() {
	register("ReducedStateIAPWS",
		func(b contribBase) thermo.Contribution { return &ReducedStateIAPWS{b} })
	register("StandardStateIAPWS",
		func(b contribBase) thermo.Contribution { return &StandardStateIAPWS{b} })
	register("IdealGasIAPWS",
		func(b contribBase) thermo.Contribution { return &IdealGasIAPWS{b} })
}
