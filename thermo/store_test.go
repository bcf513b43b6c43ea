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
	"testing"

	"github.com/eqosim/eqosim/units"
)

func testSkeleton() map[string]any {
	return map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref": "K",
			"dh_form": map[string]any{
				"H2O": "J/mol",
			},
		},
	}
}

func TestStoreMissingSymbols(t *testing.T) {
	store := NewParameterStore("default")
	if _, err := store.GetSymbols(testSkeleton()); err != nil {
		t.Fatal(err)
	}
	missing := store.GetMissingSymbols()
	if len(missing) != 2 {
		t.Fatalf("missing %v, want 2 entries", missing)
	}
	if _, err := store.GetAllValues(); err == nil {
		t.Fatal("GetAllValues succeeded despite missing parameters")
	} else {
		var mp *MissingParameterError
		if !errors.As(err, &mp) {
			t.Fatalf("unexpected error type: %v", err)
		}
	}

	src, err := NewStringSource(map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref":   "25 degC",
			"dh_form": map[string]any{"H2O": "-241.826 kJ/mol"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AddSource("main", src); err != nil {
		t.Fatal(err)
	}
	if missing := store.GetMissingSymbols(); len(missing) != 0 {
		t.Errorf("still missing: %v", missing)
	}
}

func TestStoreFirstMatchWins(t *testing.T) {
	store := NewParameterStore("default")
	if _, err := store.GetSymbols(testSkeleton()); err != nil {
		t.Fatal(err)
	}
	first, _ := NewStringSource(map[string]any{
		"H0S0ReferenceState": map[string]any{"T_ref": "300 K"},
	})
	second, _ := NewStringSource(map[string]any{
		"H0S0ReferenceState": map[string]any{
			"T_ref":   "400 K",
			"dh_form": map[string]any{"H2O": "-241.826 kJ/mol"},
		},
	})
	if err := store.AddSource("first", first); err != nil {
		t.Fatal(err)
	}
	if err := store.AddSource("second", second); err != nil {
		t.Fatal(err)
	}
	values, err := store.GetAllValues()
	if err != nil {
		t.Fatal(err)
	}
	tRef := values["H0S0ReferenceState"].(units.QStruct)["T_ref"].(units.Quantity)
	if got := tRef.Float(); got != 300 {
		t.Errorf("T_ref = %g, want 300 (first source wins)", got)
	}
	sources := store.GetSourceNames()
	if sources["H0S0ReferenceState/T_ref"] != "first" {
		t.Errorf("source attribution: %v", sources)
	}

	// adding another source never changes a resolved lookup
	third, _ := NewStringSource(map[string]any{
		"H0S0ReferenceState": map[string]any{"T_ref": "500 K"},
	})
	if err := store.AddSource("third", third); err != nil {
		t.Fatal(err)
	}
	values, err = store.GetAllValues()
	if err != nil {
		t.Fatal(err)
	}
	tRef = values["H0S0ReferenceState"].(units.QStruct)["T_ref"].(units.Quantity)
	if got := tRef.Float(); got != 300 {
		t.Errorf("T_ref changed to %g after adding a source", got)
	}
}

func TestStoreSymbolReuse(t *testing.T) {
	store := NewParameterStore("default")
	s1, err := store.GetSymbols(testSkeleton())
	if err != nil {
		t.Fatal(err)
	}
	s2, err := store.GetSymbols(testSkeleton())
	if err != nil {
		t.Fatal(err)
	}
	q1 := s1["H0S0ReferenceState"].(units.QStruct)["T_ref"].(units.Quantity)
	q2 := s2["H0S0ReferenceState"].(units.QStruct)["T_ref"].(units.Quantity)
	if q1.Nodes()[0] != q2.Nodes()[0] {
		t.Error("repeated GetSymbols created a fresh symbol")
	}

	// incompatible dimension on re-request
	bad := map[string]any{
		"H0S0ReferenceState": map[string]any{"T_ref": "Pa"},
	}
	if _, err := store.GetSymbols(bad); err == nil {
		t.Error("dimension conflict accepted")
	}
}

func TestStoreDuplicateSource(t *testing.T) {
	store := NewParameterStore("default")
	src, _ := NewStringSource(map[string]any{})
	if err := store.AddSource("a", src); err != nil {
		t.Fatal(err)
	}
	if err := store.AddSource("a", src); err == nil {
		t.Error("duplicate source name accepted")
	}
}
