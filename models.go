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
	"sort"

	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// MultiNode is the shared base of models with generic inlet and outlet
// ports, named in_01, in_02, … and out_01, out_02, …. Use it for models
// with indistinct ports such as mixers and splitters; models whose ports
// have individual roles deserve individual names.
type MultiNode struct {
	NumIn, NumOut int
}

// InNames yields the inlet port names.
func (m MultiNode) InNames() []string {
	names := make([]string, m.NumIn)
	for i := range names {
		names[i] = fmt.Sprintf("in_%02d", i+1)
	}
	return names
}

// OutNames yields the outlet port names.
func (m MultiNode) OutNames() []string {
	names := make([]string, m.NumOut)
	for i := range names {
		names[i] = fmt.Sprintf("out_%02d", i+1)
	}
	return names
}

// Interface implements Model, declaring the generic ports.
func (m MultiNode) Interface(ifc *Interface) {
	for _, name := range m.InNames() {
		ifc.Port(name, thermo.AnyMaterial())
	}
	for _, name := range m.OutNames() {
		ifc.Port(name, thermo.AnyMaterial())
	}
}

func (m MultiNode) inlets(def *Definition) []*thermo.Material {
	var out []*thermo.Material
	for _, name := range m.InNames() {
		out = append(out, def.Material(name))
	}
	return out
}

func (m MultiNode) outlets(def *Definition) []*thermo.Material {
	var out []*thermo.Material
	for _, name := range m.OutNames() {
		out = append(out, def.Material(name))
	}
	return out
}

// SpeciesBalance balances every species flow between its inlet and
// outlet streams. Streams may carry individual species sets, but each
// species must occur on both sides, as most thermodynamic models reject
// zero flows (the ideal-mix term diverges).
type SpeciesBalance struct {
	MultiNode
	// TolUnit is the tolerance unit of the balances, a typical order of
	// magnitude of the involved flows (default kmol/h).
	TolUnit string
	// Ignore lists species excluded from the balance.
	Ignore []string
}

// Define implements Model.
func (m SpeciesBalance) Define(def *Definition) {
	tol := m.TolUnit
	if tol == "" {
		tol = "kmol/h"
	}
	ignore := map[string]bool{}
	for _, s := range m.Ignore {
		ignore[s] = true
	}
	diff := units.QuantityDict{}
	for _, in := range m.inlets(def) {
		diff = diff.Add(in.Dict("n"))
	}
	for _, out := range m.outlets(def) {
		diff = diff.Sub(out.Dict("n"))
	}
	species := diff.SortedKeys()
	for _, s := range species {
		if !ignore[s] {
			def.AddResidual(s, diff[s], tol)
		}
	}
}

// ElementBalance balances the elemental flows between inlets and
// outlets, allowing chemical conversion between the streams. It relies
// on the Elemental augmenter being part of the materials' frames.
type ElementBalance struct {
	MultiNode
	TolUnit string
	Ignore  []string
}

// Define implements Model.
func (m ElementBalance) Define(def *Definition) {
	tol := m.TolUnit
	if tol == "" {
		tol = "kmol/h"
	}
	ignore := map[string]bool{}
	for _, s := range m.Ignore {
		ignore[s] = true
	}
	diff := units.QuantityDict{}
	for _, in := range m.inlets(def) {
		diff = diff.Add(in.Dict("n_e"))
	}
	for _, out := range m.outlets(def) {
		diff = diff.Sub(out.Dict("n_e"))
	}
	for _, el := range diff.SortedKeys() {
		if !ignore[el] {
			def.AddResidual(el, diff[el], tol)
		}
	}
}

// EnthalpyBalance balances the enthalpy over an adiabatic multi-node
// with an optional duty. It relies on the GenericProperties augmenter
// publishing H.
type EnthalpyBalance struct {
	MultiNode
	TolUnit string
}

// Interface implements Model.
func (m EnthalpyBalance) Interface(ifc *Interface) {
	m.MultiNode.Interface(ifc)
	ifc.Parameter("Duty", 0, "MW")
}

// Define implements Model.
func (m EnthalpyBalance) Define(def *Definition) {
	tol := m.TolUnit
	if tol == "" {
		tol = "MW"
	}
	var diff units.Quantity
	first := true
	for _, in := range m.inlets(def) {
		if first {
			diff = in.Prop("H")
			first = false
			continue
		}
		diff = diff.Add(in.Prop("H"))
	}
	for _, out := range m.outlets(def) {
		diff = diff.Sub(out.Prop("H"))
	}
	def.AddResidual("h_balance", diff.Add(def.Param("Duty")), tol)
}

// PhaseEquilibrium equalizes temperature, pressure and the chemical
// potentials of all common species between two streams. Connecting two
// materials of the same definition makes the equations linearly
// dependent, so do not do that.
type PhaseEquilibrium struct{}

// Interface implements Model.
func (PhaseEquilibrium) Interface(ifc *Interface) {
	ifc.Port("phase_1", thermo.AnyMaterial())
	ifc.Port("phase_2", thermo.AnyMaterial())
}

// Define implements Model.
func (PhaseEquilibrium) Define(def *Definition) {
	p1 := def.Material("phase_1")
	p2 := def.Material("phase_2")
	def.AddResidual("T_eq", p1.Prop("T").Sub(p2.Prop("T")), "K")
	def.AddResidual("p_eq", p1.Prop("p").Sub(p2.Prop("p")), "bar")

	mu1, mu2 := p1.Dict("mu"), p2.Dict("mu")
	var common []string
	for s := range mu1 {
		if _, ok := mu2[s]; ok {
			common = append(common, s)
		}
	}
	sort.Strings(common)
	for _, s := range common {
		def.AddResidual("mu_eq_"+s, mu1[s].Sub(mu2[s]), "kJ/mol")
	}
}
