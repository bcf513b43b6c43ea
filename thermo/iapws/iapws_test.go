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
	"math"
	"testing"

	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

func waterDB(t *testing.T) *thermo.SpeciesDB {
	t.Helper()
	db, err := thermo.NewSpeciesDB([]string{"H2O"},
		map[string]string{"H2O": "H2O"})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// idealParameters carries the IAPWS-95 ideal-gas coefficient table.
func idealParameters() map[string]any {
	return map[string]any{
		"ReducedStateIAPWS": map[string]any{
			"T_c":   map[string]any{"H2O": "647.096 K"},
			"rho_c": map[string]any{"H2O": "322 kg/m**3"},
		},
		"StandardStateIAPWS": map[string]any{
			"n_1": map[string]any{"H2O": -8.3204464837497},
			"n_2": map[string]any{"H2O": 6.6832105275932},
			"n_3": map[string]any{"H2O": 3.00632},
			"n_4": map[string]any{"H2O": 0.012436},
			"n_5": map[string]any{"H2O": 0.97315},
			"n_6": map[string]any{"H2O": 1.27950},
			"n_7": map[string]any{"H2O": 0.96956},
			"n_8": map[string]any{"H2O": 0.24873},
			"g_4": map[string]any{"H2O": 1.28728967},
			"g_5": map[string]any{"H2O": 3.53734222},
			"g_6": map[string]any{"H2O": 7.74073708},
			"g_7": map[string]any{"H2O": 9.24437796},
			"g_8": map[string]any{"H2O": 27.5075105},
		},
	}
}

func idealGasStructure() thermo.Structure {
	return thermo.Structure{
		State: "HelmholtzState",
		Contributions: []thermo.ContribSpec{
			{Cls: "ReducedStateIAPWS"},
			{Cls: "StandardStateIAPWS"},
			{Cls: "IdealGasIAPWS"},
		},
	}
}

func buildFrame(t *testing.T, s thermo.Structure,
	raw map[string]any) (*thermo.Frame, units.QStruct) {
	t.Helper()
	frame, err := thermo.NewFrame(waterDB(t), s)
	if err != nil {
		t.Fatal(err)
	}
	params, err := units.ParseQuantitiesInStruct(raw)
	if err != nil {
		t.Fatal(err)
	}
	return frame, params
}

func TestIdealGasPressure(t *testing.T) {
	frame, params := buildFrame(t, idealGasStructure(), idealParameters())
	state := []float64{500, 0.05, 1.5} // T [K], V [m³], n [mol]
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	want := 1.5 * units.RGasSI * 500 / 0.05
	if got := props["p"].Floats()[0]; math.Abs(got-want) > 1e-9*want {
		t.Errorf("p = %g, want N R T / V = %g", got, want)
	}
}

// helmholtzConsistency checks the identities p = −∂A/∂V and S = −∂A/∂T
// with A = Σ n_i mu_i − p V, by central differences over the frame.
func helmholtzConsistency(t *testing.T, frame *thermo.Frame,
	params units.QStruct, state []float64) {
	t.Helper()
	helmholtz := func(x []float64) (float64, float64, float64) {
		props, _, err := frame.Call(x, params, false)
		if err != nil {
			t.Fatal(err)
		}
		g := props["mu"].Floats()[0] * x[2]
		p := props["p"].Floats()[0]
		s := props["S"].Floats()[0]
		return g - p*x[1], p, s
	}
	_, p0, s0 := helmholtz(state)

	dV := 1e-7 * state[1]
	up := append([]float64{}, state...)
	down := append([]float64{}, state...)
	up[1] += dV
	down[1] -= dV
	aUp, _, _ := helmholtz(up)
	aDown, _, _ := helmholtz(down)
	dAdV := (aUp - aDown) / (2 * dV)
	if math.Abs(-dAdV-p0) > 1e-4*math.Abs(p0) {
		t.Errorf("−dA/dV = %g, pressure is %g", -dAdV, p0)
	}

	dT := 1e-5 * state[0]
	up = append([]float64{}, state...)
	down = append([]float64{}, state...)
	up[0] += dT
	down[0] -= dT
	aUp, _, _ = helmholtz(up)
	aDown, _, _ = helmholtz(down)
	dAdT := (aUp - aDown) / (2 * dT)
	if math.Abs(-dAdT-s0) > 1e-4*math.Abs(s0) {
		t.Errorf("−dA/dT = %g, entropy is %g", -dAdT, s0)
	}
}

func TestIdealGasHelmholtzConsistency(t *testing.T) {
	frame, params := buildFrame(t, idealGasStructure(), idealParameters())
	helmholtzConsistency(t, frame, params, []float64{500, 0.05, 1.5})
}

func TestResidualHelmholtzConsistency(t *testing.T) {
	// one polynomial residual term is enough to exercise the derivative
	// machinery: φ = n δ² τ
	s := idealGasStructure()
	s.Contributions = append(s.Contributions, thermo.ContribSpec{
		Cls:     "Residual1IAPWS",
		Options: thermo.Options{"number_of_terms": 1},
	})
	raw := idealParameters()
	raw["Residual1IAPWS"] = map[string]any{
		"n_01": map[string]any{"H2O": 0.25},
		"d_01": map[string]any{"H2O": 2},
		"t_01": map[string]any{"H2O": 1},
	}
	frame, params := buildFrame(t, s, raw)
	state := []float64{600, 0.001, 2.0}
	helmholtzConsistency(t, frame, params, state)

	// the residual must actually shift the pressure off the ideal value
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	ideal := 2.0 * units.RGasSI * 600 / 0.001
	if got := props["p"].Floats()[0]; math.Abs(got-ideal) < 1e-6*ideal {
		t.Error("residual contribution did not alter the pressure")
	}
}

func TestResidualGroupsEvaluate(t *testing.T) {
	s := idealGasStructure()
	s.Contributions = append(s.Contributions,
		thermo.ContribSpec{Cls: "Residual2IAPWS",
			Options: thermo.Options{"number_of_terms": 1}},
		thermo.ContribSpec{Cls: "Residual3IAPWS",
			Options: thermo.Options{"number_of_terms": 1}},
		thermo.ContribSpec{Cls: "Residual4IAPWS",
			Options: thermo.Options{"number_of_terms": 1}},
	)
	raw := idealParameters()
	raw["Residual2IAPWS"] = map[string]any{
		"n_01": map[string]any{"H2O": 0.1},
		"c_01": map[string]any{"H2O": 1},
		"d_01": map[string]any{"H2O": 1},
		"t_01": map[string]any{"H2O": 2},
	}
	raw["Residual3IAPWS"] = map[string]any{
		"n_01": map[string]any{"H2O": -0.05},
		"d_01": map[string]any{"H2O": 3},
		"t_01": map[string]any{"H2O": 4},
		"a_01": map[string]any{"H2O": 20},
		"b_01": map[string]any{"H2O": 150},
		"g_01": map[string]any{"H2O": 1.21},
		"e_01": map[string]any{"H2O": 1},
	}
	raw["Residual4IAPWS"] = map[string]any{
		"n_01":    map[string]any{"H2O": -0.15},
		"a_01":    map[string]any{"H2O": 3.5},
		"b_01":    map[string]any{"H2O": 0.85},
		"B_01":    map[string]any{"H2O": 0.2},
		"C_01":    map[string]any{"H2O": 28},
		"D_01":    map[string]any{"H2O": 700},
		"A_01":    map[string]any{"H2O": 0.32},
		"beta_01": map[string]any{"H2O": 0.3},
	}
	frame, params := buildFrame(t, s, raw)
	// near-critical conditions, where all four groups contribute
	mw := 0.018015
	rho := 400.0 // kg/m³
	n := 2.0
	V := n * mw / rho
	state := []float64{650, V, n}
	props, _, err := frame.Call(state, params, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"p", "S", "mu"} {
		for _, v := range props[name].Floats() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s is not finite: %g", name, v)
			}
		}
	}
}
