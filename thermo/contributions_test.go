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
	"math"
	"testing"

	"github.com/eqosim/eqosim/units"
)

// snapshot republishes S and mu under _im aliases, capturing the stack
// state between two contributions.
type snapshot struct{}

func (snapshot) Define(ctx *Context) {
	ctx.Props.Set("S_im", ctx.Props.Get("S"))
	ctx.Props.Set("mu_im", ctx.Props.Get("mu"))
}

func init() {
	RegisterContribution("SnapshotProbe",
		func([]string, map[string]*SpeciesDefinition,
			Options) (Contribution, error) {
			return snapshot{}, nil
		})
}

func twoSpeciesDB(t *testing.T) *SpeciesDB {
	t.Helper()
	db, err := NewSpeciesDB([]string{"A", "B"},
		map[string]string{"A": "N2", "B": "O2"})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func twoSpeciesParameters(t *testing.T, extra map[string]any) units.QStruct {
	t.Helper()
	raw := map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref":   "25 degC",
			"p_ref":   "1 bar",
			"dh_form": map[string]any{"A": "-10 kJ/mol", "B": "-20 kJ/mol"},
			"s_0":     map[string]any{"A": "191.6 J/K/mol", "B": "205.2 J/K/mol"},
		},
		"LinearHeatCapacity": map[string]any{
			"cp_a": map[string]any{"A": "29.1 J/K/mol", "B": "29.4 J/K/mol"},
			"cp_b": map[string]any{"A": "0 J/K**2/mol", "B": "0 J/K**2/mol"},
		},
	}
	for k, v := range extra {
		raw[k] = v
	}
	params, err := units.ParseQuantitiesInStruct(raw)
	if err != nil {
		t.Fatal(err)
	}
	return params
}

func TestConstantGibbsVolume(t *testing.T) {
	db := twoSpeciesDB(t)
	frame, err := NewFrame(db, Structure{
		State: "GibbsState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "StandardState"},
			{Cls: "ConstantGibbsVolume"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	const (
		vA = 1.8e-5 // m³/mol
		vB = 5.0e-5
	)
	params := twoSpeciesParameters(t, map[string]any{
		"ConstantGibbsVolume": map[string]any{
			"v_n": map[string]any{"A": "1.8e-5 m**3/mol", "B": "5e-5 m**3/mol"},
		},
	})

	state := []float64{298.15, 7e5, 1.5, 0.5} // p − p_ref = 6e5 Pa
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	wantV := vA*1.5 + vB*0.5
	if got := props["V"].Floats()[0]; math.Abs(got-wantV) > 1e-15 {
		t.Errorf("V = %g, want %g", got, wantV)
	}
	mu := props["mu"].Floats()
	muStd := props["mu_std"].Floats()
	dp := 7e5 - 1e5
	for i, vn := range []float64{vA, vB} {
		want := muStd[i] + vn*dp
		if math.Abs(mu[i]-want) > 1e-9*math.Abs(want) {
			t.Errorf("mu[%d] = %g, want mu_std + v_n (p − p_ref) = %g",
				i, mu[i], want)
		}
	}
}

func TestIdealGasResidualTwoComponents(t *testing.T) {
	db := twoSpeciesDB(t)
	frame, err := NewFrame(db, Structure{
		State: "GibbsState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "IdealMix"},
			{Cls: "SnapshotProbe"},
			{Cls: "GibbsIdealGas"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	params := twoSpeciesParameters(t, nil)

	const (
		T    = 350.0
		p    = 3e5
		pRef = 1e5
		n0   = 1.2
		n1   = 0.8
	)
	props, _, err := frame.Call([]float64{T, p, n0, n1}, params, false)
	if err != nil {
		t.Fatal(err)
	}
	logTerm := math.Log(p / pRef)
	mu := props["mu"].Floats()
	muIm := props["mu_im"].Floats()
	for i := range mu {
		want := muIm[i] + T*units.RGasSI*logTerm
		if math.Abs(mu[i]-want) > 1e-9*math.Abs(want) {
			t.Errorf("mu[%d] = %g, want %g", i, mu[i], want)
		}
	}
	s := props["S"].Floats()[0]
	sIm := props["S_im"].Floats()[0]
	wantS := sIm - (n0+n1)*units.RGasSI*logTerm
	if math.Abs(s-wantS) > 1e-9*math.Abs(wantS) {
		t.Errorf("S = %g, want %g", s, wantS)
	}
	v := props["V"].Floats()[0]
	wantV := (n0 + n1) * units.RGasSI * T / p
	if math.Abs(v-wantV) > 1e-12*wantV {
		t.Errorf("V = %g, want %g", v, wantV)
	}
}

func TestIdealMixEntropy(t *testing.T) {
	db := twoSpeciesDB(t)
	frame, err := NewFrame(db, Structure{
		State: "GibbsState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "SnapshotProbe"},
			{Cls: "IdealMix"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	params := twoSpeciesParameters(t, nil)
	delete(params, "LinearHeatCapacity")

	const (
		n0, n1 = 1.0, 3.0
		T      = 298.15
	)
	props, _, err := frame.Call([]float64{T, 1e5, n0, n1}, params, false)
	if err != nil {
		t.Fatal(err)
	}
	sBefore := props["S_im"].Floats()[0]
	sAfter := props["S"].Floats()[0]
	total := n0 + n1
	wantDelta := -units.RGasSI *
		(n0*math.Log(n0/total) + n1*math.Log(n1/total))
	if math.Abs((sAfter-sBefore)-wantDelta) > 1e-9*wantDelta {
		t.Errorf("ideal mix entropy %g, want %g", sAfter-sBefore, wantDelta)
	}
}

func TestMaterialSpecCompatibility(t *testing.T) {
	db := twoSpeciesDB(t)
	frame, err := NewFrame(db, Structure{
		State: "GibbsState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "IdealMix"},
			{Cls: "GibbsIdealGas"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := NewParameterStore("spec_test")
	md, err := NewMaterialDefinition(frame,
		StandardInitialState(frame.Species()), store)
	if err != nil {
		t.Fatal(err)
	}
	m, err := md.CreateInstance("spec_test_mat", FlowMaterial)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		spec MaterialSpec
		want bool
	}{
		{AnyMaterial(), true},
		{NewMaterialSpec("A", "B"), true},
		{NewMaterialSpec("A", "*"), true},
		{NewMaterialSpec("A"), false},          // locked, B not allowed
		{NewMaterialSpec("A", "B", "C"), false}, // C missing
	}
	for i, tt := range tests {
		if got := tt.spec.IsCompatible(m); got != tt.want {
			t.Errorf("case %d: compatibility %v, want %v", i, got, tt.want)
		}
	}
}
