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
	"math"
	"testing"

	"github.com/eqosim/eqosim/thermo"
)

// methaneWithAugmenters extends the methane ideal gas with the generic
// property augmenter, so the enthalpy balance can draw on H.
func methaneWithAugmenters(t *testing.T) *thermo.MaterialDefinition {
	t.Helper()
	base := methaneIdealGas(t)
	db := base.Frame.SpeciesDB()
	frame, err := thermo.NewFrame(db, thermo.Structure{
		State: "GibbsState",
		Contributions: []thermo.ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "IdealMix"},
			{Cls: "GibbsIdealGas"},
			{Cls: "GenericProperties"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	md, err := thermo.NewMaterialDefinition(
		frame, base.InitialState, base.Store)
	if err != nil {
		t.Fatal(err)
	}
	return md
}

// heaterModel feeds one methane stream through an adiabatic node: the
// outlet must reproduce the inlet.
type heaterModel struct {
	md *thermo.MaterialDefinition
}

func (m *heaterModel) Interface(ifc *Interface) {
	ifc.Parameter("T", 40, "degC")
	ifc.Parameter("p", 2, "bar")
	ifc.Parameter("N", 0.5, "mol/s")
}

func (m *heaterModel) Define(def *Definition) {
	feed := def.CreateFlow("feed", m.md)
	product := def.CreateFlow("product", m.md)

	def.AddResidual("T_feed", def.Param("T").Sub(feed.Prop("T")), "K")
	def.AddResidual("p_feed", def.Param("p").Sub(feed.Prop("p")), "bar")
	def.AddResidual("N_feed", def.Param("N").Sub(feed.Prop("N")), "mol/s")
	def.AddResidual("p_prod", feed.Prop("p").Sub(product.Prop("p")), "bar")

	def.Child("n-balance", SpeciesBalance{
		MultiNode: MultiNode{NumIn: 1, NumOut: 1},
		TolUnit:   "mol/s",
	}, func(b *ChildBuilder) {
		b.Connect("in_01", feed)
		b.Connect("out_01", product)
	})
	def.Child("h-balance", EnthalpyBalance{
		MultiNode: MultiNode{NumIn: 1, NumOut: 1},
		TolUnit:   "kW",
	}, func(b *ChildBuilder) {
		b.Connect("in_01", feed)
		b.Connect("out_01", product)
	})
}

func TestAdiabaticNode(t *testing.T) {
	root, err := Top(&heaterModel{md: methaneWithAugmenters(t)}, "heater")
	if err != nil {
		t.Fatal(err)
	}
	handler, err := NewNumericHandler(root)
	if err != nil {
		t.Fatal(err)
	}
	if handler.NumStates() != 6 || handler.NumResiduals() != 6 {
		t.Fatalf("problem is %d residuals over %d states",
			handler.NumResiduals(), handler.NumStates())
	}
	solver := NewSimulationSolver(handler)
	solver.Linear = DenseSolver{}
	report, err := solver.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if report.State != Converged {
		t.Fatal("did not converge")
	}

	// the adiabatic node at equal pressure reproduces the feed state
	x := handler.State()
	feed, product := x[0:3], x[3:6]
	for i := range feed {
		if math.Abs(feed[i]-product[i]) > 1e-6*math.Abs(feed[i]) {
			t.Errorf("state entry %d: feed %g, product %g",
				i, feed[i], product[i])
		}
	}
	if math.Abs(feed[0]-313.15) > 1e-6 {
		t.Errorf("feed temperature %g, want 313.15", feed[0])
	}
	if math.Abs(feed[2]-0.5) > 1e-9 {
		t.Errorf("feed flow %g, want 0.5", feed[2])
	}
}

func TestPhaseEquilibriumResidualCount(t *testing.T) {
	md := methaneIdealGas(t)
	model := modelFunc{
		ifc: func(ifc *Interface) {},
		def: func(def *Definition) {
			a := def.CreateFlow("a", md)
			b := def.CreateFlow("b", md)
			def.Child("vle", PhaseEquilibrium{}, func(cb *ChildBuilder) {
				cb.Connect("phase_1", a)
				cb.Connect("phase_2", b)
			})
		},
	}
	root, err := Top(model, "flash")
	if err != nil {
		t.Fatal(err)
	}
	handler, err := NewNumericHandler(root)
	if err != nil {
		t.Fatal(err)
	}
	// T, p, and one common species
	if handler.NumResiduals() != 3 {
		t.Errorf("%d residuals, want 3", handler.NumResiduals())
	}
	names := handler.ResidualNames()
	want := map[string]bool{
		"flash/vle/T_eq": true, "flash/vle/p_eq": true,
		"flash/vle/mu_eq_Methane": true,
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected residual %q", n)
		}
	}
}

// modelFunc adapts two closures into a Model.
type modelFunc struct {
	ifc func(*Interface)
	def func(*Definition)
}

func (m modelFunc) Interface(ifc *Interface) { m.ifc(ifc) }
func (m modelFunc) Define(def *Definition)   { m.def(def) }
