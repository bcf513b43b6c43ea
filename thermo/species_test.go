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
)

func TestFormulaParser(t *testing.T) {
	tests := []struct {
		formula  string
		elements map[string]int
		charge   int
	}{
		{"H2O", map[string]int{"H": 2, "O": 1}, 0},
		{"H3PO4", map[string]int{"H": 3, "P": 1, "O": 4}, 0},
		{"(NH4)2HPO4", map[string]int{"N": 2, "H": 9, "P": 1, "O": 4}, 0},
		{"CH3-(CH2)3-CH=O", map[string]int{"C": 5, "H": 10, "O": 1}, 0},
		{"SO4:2-", map[string]int{"S": 1, "O": 4}, -2},
		{"Al:3+", map[string]int{"Al": 1}, 3},
		{"CH3-(CH2)2-CH3", map[string]int{"C": 4, "H": 10}, 0},
	}
	for _, tt := range tests {
		def, err := NewSpecies(tt.formula)
		if err != nil {
			t.Errorf("%s: %v", tt.formula, err)
			continue
		}
		if def.Charge != tt.charge {
			t.Errorf("%s: charge %d, want %d", tt.formula, def.Charge, tt.charge)
		}
		if len(def.Elements) != len(tt.elements) {
			t.Errorf("%s: elements %v, want %v",
				tt.formula, def.Elements, tt.elements)
			continue
		}
		for el, n := range tt.elements {
			if def.Elements[el] != n {
				t.Errorf("%s: %s count %d, want %d",
					tt.formula, el, def.Elements[el], n)
			}
		}
	}
}

func TestMolecularWeight(t *testing.T) {
	tests := []struct {
		formula string
		mw      float64 // g/mol
	}{
		{"H2O", 18.015},
		{"H3PO4", 97.993},
		{"CH4", 16.043},
		{"CH3-(CH2)24-CH3", 366.7},
	}
	for _, tt := range tests {
		def, err := NewSpecies(tt.formula)
		if err != nil {
			t.Fatalf("%s: %v", tt.formula, err)
		}
		got, err := def.MolecularWeight.In("g/mol")
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got[0]-tt.mw) > 0.05*tt.mw/10 {
			t.Errorf("%s: mw %g g/mol, want about %g", tt.formula, got[0], tt.mw)
		}
	}
}

func TestInvalidFormulas(t *testing.T) {
	for _, formula := range []string{"", "h2O", "(H2O", "H2O)", "H2O:x-", "Xx"} {
		if _, err := NewSpecies(formula); err == nil {
			t.Errorf("formula %q accepted", formula)
		}
	}
}

func TestSpeciesDBOrder(t *testing.T) {
	db, err := NewSpeciesDB([]string{"B", "A"},
		map[string]string{"A": "N2", "B": "O2"})
	if err != nil {
		t.Fatal(err)
	}
	names := db.Names()
	if names[0] != "B" || names[1] != "A" {
		t.Errorf("species order not preserved: %v", names)
	}
	sub, err := db.Sub([]string{"A"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Len() != 1 {
		t.Errorf("sub-database has %d species", sub.Len())
	}
	if _, err := db.Sub([]string{"C"}); err == nil {
		t.Error("unknown species accepted in Sub")
	}
}
