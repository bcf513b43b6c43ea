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

package eqosimutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSpeciesDB(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "species.yaml", `
- {name: Methane, formula: CH4}
- {name: Water, formula: H2O}
`)
	db, err := LoadSpeciesDB(path)
	if err != nil {
		t.Fatal(err)
	}
	names := db.Names()
	if len(names) != 2 || names[0] != "Methane" || names[1] != "Water" {
		t.Errorf("species order: %v", names)
	}
	def, ok := db.Get("Water")
	if !ok || def.Elements["H"] != 2 {
		t.Error("water definition broken")
	}
}

func TestLoadStructures(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "structures.yaml", `
simple_ideal_gas:
  state: GibbsState
  contributions:
    - H0S0ReferenceState
    - LinearHeatCapacity
    - IdealMix
    - GibbsIdealGas
rk_liquid:
  state: HelmholtzState
  contributions:
    - CriticalParameters
    - {cls: NonSymmetricMixingRule, name: MixingRule_A, options: {target: _ceos_a}}
`)
	structures, err := LoadStructures(path)
	if err != nil {
		t.Fatal(err)
	}
	ideal := structures["simple_ideal_gas"]
	if ideal.State != "GibbsState" || len(ideal.Contributions) != 4 {
		t.Errorf("ideal gas structure: %+v", ideal)
	}
	if ideal.Contributions[0].Cls != "H0S0ReferenceState" {
		t.Errorf("first contribution: %+v", ideal.Contributions[0])
	}
	rk := structures["rk_liquid"]
	mix := rk.Contributions[1]
	if mix.Cls != "NonSymmetricMixingRule" || mix.Name != "MixingRule_A" {
		t.Errorf("aliased contribution: %+v", mix)
	}
	if mix.Options.Text("target", "") != "_ceos_a" {
		t.Errorf("options: %+v", mix.Options)
	}
}

func TestLoadParameterSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "parameters.yaml", `
H0S0ReferenceState:
  T_ref: 25 degC
  dh_form:
    H2O: -241.826 kJ/mol
`)
	src, err := LoadParameterSource(path)
	if err != nil {
		t.Fatal(err)
	}
	q, ok := src.Get([]string{"H0S0ReferenceState", "dh_form", "H2O"})
	if !ok {
		t.Fatal("parameter not found")
	}
	if got, _ := q.In("kJ/mol"); got[0] != -241.826 {
		t.Errorf("dh_form = %g", got[0])
	}
	if _, ok := src.Get([]string{"H0S0ReferenceState", "nope"}); ok {
		t.Error("missing key reported as found")
	}
}

func TestLoadUnitDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "units.yaml", `
- {name: bar_gauge, aliases: [barg], base: bar, offset: "1.01325 bar"}
- {name: atm_gauge, aliases: [atmg], base: atm, offset: "1 atm"}
- {name: kilo_pascal_gauge, aliases: [kPag], base: kPa, offset: "101.325 kPa"}
- {name: dimless, base: m/m}
`)
	// the built-in registry already carries these; loading must be a
	// harmless no-op
	if err := LoadUnitDefinitions(path); err != nil {
		t.Fatal(err)
	}
}
