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
	"errors"
	"math"
	"testing"

	"github.com/eqosim/eqosim/units"
)

func methaneDB(t *testing.T) *SpeciesDB {
	t.Helper()
	db, err := NewSpeciesDB([]string{"Methane"},
		map[string]string{"Methane": "CH4"})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func idealGasStructure() Structure {
	return Structure{
		State: "GibbsState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "IdealMix"},
			{Cls: "GibbsIdealGas"},
		},
	}
}

func methaneParameters(t *testing.T) units.QStruct {
	t.Helper()
	params, err := units.ParseQuantitiesInStruct(map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref":   "25 degC",
			"p_ref":   "1 bar",
			"dh_form": map[string]any{"Methane": "-74.87 kJ/mol"},
			"s_0":     map[string]any{"Methane": "188.66 J/K/mol"},
		},
		"LinearHeatCapacity": map[string]any{
			"cp_a": map[string]any{"Methane": "35.69 J/K/mol"},
			"cp_b": map[string]any{"Methane": "50 mJ/K**2/mol"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return params
}

func TestFrameParameterStructure(t *testing.T) {
	frame, err := NewFrame(methaneDB(t), idealGasStructure())
	if err != nil {
		t.Fatal(err)
	}
	ps := frame.ParameterStructure()
	h0s0, ok := ps["H0S0ReferenceState"].(map[string]any)
	if !ok {
		t.Fatal("H0S0ReferenceState parameters missing")
	}
	for _, key := range []string{"T_ref", "p_ref", "dh_form", "s_0"} {
		if _, ok := h0s0[key]; !ok {
			t.Errorf("parameter %q not enumerated", key)
		}
	}
	lhc, ok := ps["LinearHeatCapacity"].(map[string]any)
	if !ok {
		t.Fatal("LinearHeatCapacity parameters missing")
	}
	if len(lhc) != 2 {
		t.Errorf("LinearHeatCapacity has %d parameters, want 2", len(lhc))
	}
	// contributions without parameters do not appear
	if _, ok := ps["IdealMix"]; ok {
		t.Error("IdealMix should not require parameters")
	}
}

func TestFramePropertyStructure(t *testing.T) {
	frame, err := NewFrame(methaneDB(t), idealGasStructure())
	if err != nil {
		t.Fatal(err)
	}
	props := frame.PropertyStructure()
	for _, name := range []string{"_state", "T", "p", "n", "S", "mu", "V"} {
		if _, ok := props[name]; !ok {
			t.Errorf("standard property %q not published", name)
		}
	}
	keys := frame.VectorKeys()
	if got := keys["n"]; len(got) != 1 || got[0] != "Methane" {
		t.Errorf("vector keys for n: %v", got)
	}
}

func TestFrameCallIdealGas(t *testing.T) {
	frame, err := NewFrame(methaneDB(t), idealGasStructure())
	if err != nil {
		t.Fatal(err)
	}
	params := methaneParameters(t)

	// at the reference state, mu = dh_form − T s_0 and S = n s_0
	state := []float64{298.15, 1e5, 1.0}
	props, bounds, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	mu := props["mu"].Floats()[0]
	wantMu := -74870 - 298.15*188.66
	if math.Abs(mu-wantMu) > 1e-6*math.Abs(wantMu) {
		t.Errorf("mu = %g, want %g", mu, wantMu)
	}
	s := props["S"].Floats()[0]
	if math.Abs(s-188.66) > 1e-9 {
		t.Errorf("S = %g, want 188.66", s)
	}
	v := props["V"].Floats()[0]
	wantV := units.RGasSI * 298.15 / 1e5
	if math.Abs(v-wantV) > 1e-12 {
		t.Errorf("V = %g, want %g", v, wantV)
	}
	for name, b := range bounds {
		if b.Floats()[0] <= 0 {
			t.Errorf("bound %s not positive at reference state", name)
		}
	}
}

func TestFrameFlowUnits(t *testing.T) {
	frame, err := NewFrame(methaneDB(t), idealGasStructure())
	if err != nil {
		t.Fatal(err)
	}
	params := methaneParameters(t)
	state := []float64{298.15, 1e5, 2.0}
	props, _, err := frame.Call(state, params, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := props["n"].In("mol/s"); err != nil {
		t.Errorf("flow material n is not a flow: %v", err)
	}
	if _, err := props["V"].In("m**3/s"); err != nil {
		t.Errorf("flow material V is not a flow: %v", err)
	}
	if _, err := props["mu"].In("J/mol"); err != nil {
		t.Errorf("mu must stay intensive: %v", err)
	}
}

func TestFrameMissingRequirement(t *testing.T) {
	// LinearHeatCapacity requires the reference state upstream
	_, err := NewFrame(methaneDB(t), Structure{
		State:         "GibbsState",
		Contributions: []ContribSpec{{Cls: "LinearHeatCapacity"}},
	})
	var missing *MissingRequirementError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingRequirementError, got %v", err)
	}
	if missing.Contribution != "LinearHeatCapacity" {
		t.Errorf("wrong contribution reported: %q", missing.Contribution)
	}
}

func TestFrameUnknownNames(t *testing.T) {
	if _, err := NewFrame(methaneDB(t), Structure{
		State:         "NoSuchState",
		Contributions: nil,
	}); err == nil {
		t.Error("unknown state accepted")
	}
	if _, err := NewFrame(methaneDB(t), Structure{
		State:         "GibbsState",
		Contributions: []ContribSpec{{Cls: "NoSuchContribution"}},
	}); err == nil {
		t.Error("unknown contribution accepted")
	}
}

func TestGenericPropertiesAugmenter(t *testing.T) {
	structure := idealGasStructure()
	structure.Contributions = append(structure.Contributions,
		ContribSpec{Cls: "GenericProperties"}, ContribSpec{Cls: "Elemental"})
	frame, err := NewFrame(methaneDB(t), structure)
	if err != nil {
		t.Fatal(err)
	}
	params := methaneParameters(t)
	state := []float64{298.15, 1e5, 2.0}
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	g := props["G"].Floats()[0]
	h := props["H"].Floats()[0]
	s := props["S"].Floats()[0]
	if math.Abs(h-(g+298.15*s)) > 1e-6*math.Abs(h) {
		t.Errorf("H = %g does not equal G + T S = %g", h, g+298.15*s)
	}
	mw := props["Mw"].Floats()[0]
	if math.Abs(mw-0.016043) > 1e-5 {
		t.Errorf("average molecular weight %g, want about 0.016043 kg/mol", mw)
	}
	// elemental flows of 2 mol CH4: 2 C, 8 H
	ne := props["n_e"].Floats()
	if len(ne) != 2 {
		t.Fatalf("n_e has %d entries", len(ne))
	}
	// elements sorted: C, H
	if math.Abs(ne[0]-2) > 1e-12 || math.Abs(ne[1]-8) > 1e-12 {
		t.Errorf("elemental moles %v, want [2 8]", ne)
	}
}

func TestHelmholtzInitialState(t *testing.T) {
	structure := Structure{
		State: "HelmholtzState",
		Contributions: []ContribSpec{
			{Cls: "H0S0ReferenceState"},
			{Cls: "LinearHeatCapacity"},
			{Cls: "StandardState"},
			{Cls: "IdealMix"},
			{Cls: "HelmholtzIdealGas"},
		},
	}
	db, err := NewSpeciesDB([]string{"N2", "O2"},
		map[string]string{"N2": "N2", "O2": "O2"})
	if err != nil {
		t.Fatal(err)
	}
	frame, err := NewFrame(db, structure)
	if err != nil {
		t.Fatal(err)
	}
	params, err := units.ParseQuantitiesInStruct(map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref": "25 degC",
			"p_ref": "1 bar",
			"dh_form": map[string]any{
				"N2": "0 kJ/mol", "O2": "0 kJ/mol"},
			"s_0": map[string]any{
				"N2": "191.6 J/K/mol", "O2": "205.2 J/K/mol"},
		},
		"LinearHeatCapacity": map[string]any{
			"cp_a": map[string]any{
				"N2": "29.1 J/K/mol", "O2": "29.4 J/K/mol"},
			"cp_b": map[string]any{
				"N2": "0 J/K**2/mol", "O2": "0 J/K**2/mol"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	init := InitialState{
		Temperature: units.New(300, "K"),
		Pressure:    units.New(2, "bar"),
		MolVector: units.QuantityDict{
			"N2": units.New(1, "mol"), "O2": units.New(1, "mol")},
	}
	state, err := frame.InitialStateVector(init, params)
	if err != nil {
		t.Fatal(err)
	}
	if len(state) != 4 {
		t.Fatalf("state has length %d", len(state))
	}
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	p := props["p"].Floats()[0]
	if math.Abs(p-2e5) > 1e-3 {
		t.Errorf("initial state pressure %g, want 2e5", p)
	}
	if math.Abs(state[0]-300) > 1e-12 {
		t.Errorf("temperature entry %g", state[0])
	}
}
