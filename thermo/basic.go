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
	"github.com/eqosim/eqosim/units"
)

type contribBase struct {
	species []string
	defs    map[string]*SpeciesDefinition
	options Options
}

func simpleContribution(build func(base contribBase) Contribution) Constructor {
	return func(species []string, defs map[string]*SpeciesDefinition,
		options Options) (Contribution, error) {
		return build(contribBase{
			species: species, defs: defs, options: options}), nil
	}
}

// H0S0ReferenceState defines the reference state from enthalpies of
// formation and standard entropies at (T_ref, p_ref):
//
//	S      = Σ s_0_i n_i
//	mu_i   = dh_form_i − T s_0_i
//
// It publishes S, mu, T_ref and p_ref.
type H0S0ReferenceState struct{ contribBase }

// Define implements Contribution.
func (c *H0S0ReferenceState) Define(ctx *Context) {
	par := ctx.Params
	s0 := par.Vector("s_0", c.species, "J/(mol*K)")
	dhForm := par.Vector("dh_form", c.species, "J/mol")
	T := ctx.Props.Get("T")
	n := ctx.Props.Get("n")

	ctx.Props.Set("S", s0.Dot(n))
	ctx.Props.Set("mu", dhForm.Sub(T.Mul(s0)))
	ctx.Props.DeclareVector("mu", c.species)
	ctx.Props.Set("T_ref", par.Scalar("T_ref", "K"))
	ctx.Props.Set("p_ref", par.Scalar("p_ref", "Pa"))
}

// LinearHeatCapacity integrates a heat capacity that is linear in
// temperature, c_p(T) = cp_a + ΔT·cp_b with ΔT = T − T_ref:
//
//	dh_i = (cp_a_i + ΔT/2 cp_b_i) ΔT
//	ds_i = (cp_a_i − cp_b_i T_ref) ln(T/T_ref) + cp_b_i ΔT
//	S   += Σ ds_i n_i
//	mu_i += dh_i − T ds_i
//
// The logarithm limits the model domain to positive temperatures.
type LinearHeatCapacity struct{ contribBase }

// Define implements Contribution.
func (c *LinearHeatCapacity) Define(ctx *Context) {
	T := ctx.Props.Get("T")
	n := ctx.Props.Get("n")
	tRef := ctx.Props.Get("T_ref")
	cpA := ctx.Params.Vector("cp_a", c.species, "J/(mol*K)")
	cpB := ctx.Params.Vector("cp_b", c.species, "J/(mol*K**2)")

	dT := T.Sub(tRef)
	dh := cpA.Add(dT.Scale(0.5).Mul(cpB)).Mul(dT)
	ds := cpA.Sub(cpB.Mul(tRef)).Mul(units.Log(T.Div(tRef))).Add(cpB.Mul(dT))

	ctx.Props.Set("S", ctx.Props.Get("S").Add(ds.Dot(n)))
	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(dh.Sub(T.Mul(ds))))

	ctx.Bounds.Add("T", T)
}

// StandardState freezes the current entropy and chemical potential as the
// standard state, publishing S_std, mu_std and p_std.
type StandardState struct{ contribBase }

// Define implements Contribution.
func (c *StandardState) Define(ctx *Context) {
	ctx.Props.Set("S_std", ctx.Props.Get("S"))
	ctx.Props.Set("p_std", ctx.Props.Get("p_ref"))
	ctx.Props.Set("mu_std", ctx.Props.Get("mu"))
	ctx.Props.DeclareVector("mu_std", c.species)
}

// IdealMix adds the ideal mixing entropy, applicable for both liquid and
// gas phases. With ds_i = −R ln(n_i/N):
//
//	S   += Σ ds_i n_i
//	mu_i += −T ds_i
//
// The domain is limited to positive quantities.
type IdealMix struct{ contribBase }

// Define implements Contribution.
func (c *IdealMix) Define(ctx *Context) {
	T := ctx.Props.Get("T")
	n := ctx.Props.Get("n")
	x := n.Div(n.Sum())
	gtn := units.Log(x).Mul(units.RGas())

	ctx.Props.Set("S", ctx.Props.Get("S").Sub(n.Dot(gtn)))
	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(T.Mul(gtn)))

	ctx.Bounds.Add("n", n)
}

// GibbsIdealGas supplements the ideal gas entropy in Gibbs coordinates
// and defines the volume V = N R T / p. With ds = −R ln(p/p_ref):
//
//	S   += N ds
//	mu_i += −T ds
//
// The domain is limited to positive pressures.
type GibbsIdealGas struct{ contribBase }

// Define implements Contribution.
func (c *GibbsIdealGas) Define(ctx *Context) {
	T := ctx.Props.Get("T")
	p := ctx.Props.Get("p")
	n := ctx.Props.Get("n")
	pRef := ctx.Props.Get("p_ref")
	N := n.Sum()
	gtn := units.Log(p.Div(pRef)).Mul(units.RGas())

	ctx.Props.Set("S", ctx.Props.Get("S").Sub(N.Mul(gtn)))
	ctx.Props.Set("V", N.Mul(units.RGas()).Mul(T).Div(p))
	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(T.Mul(gtn)))

	ctx.Bounds.Add("p", p)
}

// HelmholtzIdealGas is the symmetric ideal gas form in Helmholtz
// coordinates; it defines the pressure p = N R T / V and is the common
// base of the equations of state. The domain is limited to positive
// volumes.
type HelmholtzIdealGas struct{ contribBase }

// Define implements Contribution.
func (c *HelmholtzIdealGas) Define(ctx *Context) {
	T := ctx.Props.Get("T")
	V := ctx.Props.Get("V")
	n := ctx.Props.Get("n")
	pRef := ctx.Props.Get("p_ref")
	N := n.Sum()
	p := N.Mul(units.RGas()).Mul(T).Div(V)
	gtn := units.Log(p.Div(pRef)).Mul(units.RGas())

	ctx.Props.Set("S", ctx.Props.Get("S").Sub(N.Mul(gtn)))
	ctx.Props.Set("p", p)
	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(T.Mul(gtn)))

	ctx.Bounds.Add("V", V)
}

// InitialState implements Initializer with the ideal gas volume
// V = N R T / p.
func (c *HelmholtzIdealGas) InitialState(init InitialState,
	props map[string][]float64) []float64 {
	out := []float64{init.Temperature.Float()}
	N := 0.0
	var mols []float64
	for _, s := range c.species {
		v := init.MolVector[s].Float()
		N += v
		mols = append(mols, v)
	}
	volume := N * units.RGasSI * init.Temperature.Float() /
		init.Pressure.Float()
	out = append(out, volume)
	return append(out, mols...)
}

// ConstantGibbsVolume describes an incompressible mixture with constant
// molar volumes:
//
//	V     = Σ v_n_i n_i
//	mu_i += v_n_i (p − p_ref)
type ConstantGibbsVolume struct{ contribBase }

// Define implements Contribution.
func (c *ConstantGibbsVolume) Define(ctx *Context) {
	n := ctx.Props.Get("n")
	p := ctx.Props.Get("p")
	pRef := ctx.Props.Get("p_ref")
	vn := ctx.Params.Vector("v_n", c.species, "m**3/mol")

	ctx.Props.Set("mu", ctx.Props.Get("mu").Add(vn.Mul(p.Sub(pRef))))
	ctx.Props.Set("V", vn.Dot(n))
}

func init() {
	RegisterContribution("H0S0ReferenceState", simpleContribution(
		func(b contribBase) Contribution { return &H0S0ReferenceState{b} }))
	RegisterContribution("LinearHeatCapacity", simpleContribution(
		func(b contribBase) Contribution { return &LinearHeatCapacity{b} }))
	RegisterContribution("StandardState", simpleContribution(
		func(b contribBase) Contribution { return &StandardState{b} }))
	RegisterContribution("IdealMix", simpleContribution(
		func(b contribBase) Contribution { return &IdealMix{b} }))
	RegisterContribution("GibbsIdealGas", simpleContribution(
		func(b contribBase) Contribution { return &GibbsIdealGas{b} }))
	RegisterContribution("HelmholtzIdealGas", simpleContribution(
		func(b contribBase) Contribution { return &HelmholtzIdealGas{b} }))
	RegisterContribution("ConstantGibbsVolume", simpleContribution(
		func(b contribBase) Contribution { return &ConstantGibbsVolume{b} }))
}
