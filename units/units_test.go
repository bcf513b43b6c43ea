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

package units

import (
	"math"
	"testing"
)

func TestParseUnitScales(t *testing.T) {
	tests := []struct {
		expr  string
		value float64 // 1 <expr> in SI
	}{
		{"m", 1},
		{"km", 1000},
		{"bar", 1e5},
		{"kJ/mol", 1000},
		{"J/(mol*K)", 1},
		{"m**3/hr", 1.0 / 3600},
		{"m^3/h", 1.0 / 3600},
		{"kmol/h", 1000.0 / 3600},
		{"%", 0.01},
		{"mJ/K**2/mol", 1e-3},
		{"1/m", 1},
		{"W/K", 1},
		{"MW", 1e6},
	}
	for _, tt := range tests {
		u, err := ParseUnit(tt.expr)
		if err != nil {
			t.Errorf("%s: %v", tt.expr, err)
			continue
		}
		if math.Abs(u.ToSI(1)-tt.value) > 1e-12*math.Abs(tt.value) {
			t.Errorf("%s: 1 unit = %g SI, want %g", tt.expr, u.ToSI(1), tt.value)
		}
	}
}

func TestOffsetUnits(t *testing.T) {
	tests := []struct {
		text string
		si   float64
	}{
		{"25 degC", 298.15},
		{"0 degC", 273.15},
		{"1 barg", 201325},
		{"0 bar_gauge", 101325},
		{"0 atmg", 101325},
		{"0 kPag", 101325},
		{"100 kPag", 201325},
	}
	for _, tt := range tests {
		q, err := Parse(tt.text)
		if err != nil {
			t.Errorf("%s: %v", tt.text, err)
			continue
		}
		if math.Abs(q.Float()-tt.si) > 1e-9 {
			t.Errorf("%s: got %g, want %g", tt.text, q.Float(), tt.si)
		}
	}
}

func TestOffsetUnitInExpressionRejected(t *testing.T) {
	if _, err := ParseUnit("degC/m"); err == nil {
		t.Error("offset unit accepted inside derived expression")
	}
}

func TestDimlessAlias(t *testing.T) {
	mm, err := ParseUnit("m/m")
	if err != nil {
		t.Fatal(err)
	}
	if !mm.Dim().IsDimensionless() {
		t.Error("m/m is not dimensionless")
	}
	dimless, err := ParseUnit("dimless")
	if err != nil {
		t.Fatal(err)
	}
	if !dimless.Dim().Equal(mm.Dim()) {
		t.Error("dimless and m/m dimensions differ")
	}
}

func TestQuantityArithmetic(t *testing.T) {
	a := New(1, "m")
	b := New(50, "cm")
	sum := a.Add(b)
	if got, err := sum.In("cm"); err != nil || math.Abs(got[0]-150) > 1e-12 {
		t.Errorf("1 m + 50 cm = %v cm (err %v), want 150", got, err)
	}
	area := a.Mul(b)
	if got, err := area.In("m**2"); err != nil || math.Abs(got[0]-0.5) > 1e-12 {
		t.Errorf("area: got %v (err %v), want 0.5 m**2", got, err)
	}
}

func TestDimensionMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("adding m and s did not fail")
		} else if _, ok := r.(*DimensionMismatchError); !ok {
			t.Fatalf("unexpected panic %v", r)
		}
	}()
	New(1, "m").Add(New(1, "s"))
}

func TestRecoverBuildError(t *testing.T) {
	run := func() (err error) {
		defer RecoverBuildError(&err)
		New(1, "m").Add(New(1, "s"))
		return nil
	}
	if err := run(); err == nil {
		t.Fatal("build error not recovered")
	}
}

func TestUnitDerivation(t *testing.T) {
	v := New(2, "m/s")
	tt := New(3, "s")
	d := v.Mul(tt)
	if d.Unit().String() != "m" {
		t.Errorf("velocity times time has unit %q, want m", d.Unit())
	}
	f := Sqrt(New(4, "m**2"))
	if got, err := f.In("m"); err != nil || got[0] != 2 {
		t.Errorf("sqrt(4 m**2) = %v (err %v)", got, err)
	}
}

func TestLogRequiresDimensionless(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("log of 1 m did not fail")
		}
	}()
	Log(New(1, "m"))
}

func TestQuantityDictUnion(t *testing.T) {
	a := QuantityDict{"A": New(1, "m"), "B": New(0.5, "m")}
	b := QuantityDict{"B": New(1, "m"), "C": New(0.5, "m")}
	y := a.Add(b)
	if len(y) != 3 {
		t.Fatalf("union has %d keys, want 3", len(y))
	}
	if got, _ := y["B"].In("m"); got[0] != 1.5 {
		t.Errorf("B: got %g, want 1.5", got[0])
	}
	if got, _ := y["C"].In("m"); got[0] != 0.5 {
		t.Errorf("C: got %g, want 0.5", got[0])
	}
	d := a.Sub(b)
	if got, _ := d["C"].In("m"); got[0] != -0.5 {
		t.Errorf("a-b C: got %g, want -0.5", got[0])
	}
}

func TestMCounter(t *testing.T) {
	a := MCounter{"a": 1}
	b := MCounter{"b": 1}
	y := a.Add(b.Scale(2))
	if y["a"] != 1 || y["b"] != 2 {
		t.Errorf("got %v", y)
	}
	q := y.Dot(QuantityDict{"a": New(1, "mol"), "b": New(2, "mol")})
	if got, _ := q.In("mol"); got[0] != 5 {
		t.Errorf("dot: got %g, want 5", got[0])
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	nested := map[string]any{
		"a": map[string]any{"b": "1 m", "c": "2 s"},
		"d": "3 K",
	}
	keys, vals := FlattenStruct(nested, Sep)
	want := []string{"a/b", "a/c", "d"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("key order %v, want %v", keys, want)
		}
	}
	back := UnflattenStruct(keys, vals, Sep)
	if back["a"].(map[string]any)["c"] != "2 s" {
		t.Error("unflatten lost a value")
	}
}

func TestParseQuantitiesInStruct(t *testing.T) {
	raw := map[string]any{
		"H0S0ReferenceState": map[string]any{
			"dh_form": map[string]any{"H2O": "-241.826 kJ/mol"},
			"T_ref":   "25 degC",
		},
		"omega": 0.2,
	}
	s, err := ParseQuantitiesInStruct(raw)
	if err != nil {
		t.Fatal(err)
	}
	dh := s["H0S0ReferenceState"].(map[string]any)["dh_form"].(map[string]any)["H2O"].(Quantity)
	if got, _ := dh.In("J/mol"); math.Abs(got[0]+241826) > 1e-9 {
		t.Errorf("dh_form = %g J/mol, want -241826", got[0])
	}
	if s["omega"].(Quantity).Float() != 0.2 {
		t.Error("numeric leaf not converted")
	}
}

func TestQFunctionRoundTrip(t *testing.T) {
	x := NewSymbol("x", "m")
	y := NewSymbol("y", "m")
	args := QStruct{"in": QStruct{"x": x, "y": y}}
	results := QStruct{"area": x.Mul(y), "ratio": x.Div(y)}
	f, err := NewQFunction("f", args, results)
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Call(QStruct{"in": QStruct{"x": New(200, "cm"), "y": New(3, "m")}})
	if err != nil {
		t.Fatal(err)
	}
	area := out["area"].(Quantity)
	if got, _ := area.In("m**2"); got[0] != 6 {
		t.Errorf("area = %g, want 6", got[0])
	}
	ratio := out["ratio"].(Quantity)
	if math.Abs(ratio.Float()-2.0/3.0) > 1e-15 {
		t.Errorf("ratio = %g", ratio.Float())
	}
	if f.ArgStructure()["in"].(map[string]any)["x"] != "m" {
		t.Error("argument structure lost unit")
	}
}

func TestQFunctionDimensionCheck(t *testing.T) {
	x := NewSymbol("x", "m")
	f, err := NewQFunction("f", QStruct{"x": x}, QStruct{"y": x.Mul(x)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Call(QStruct{"x": New(1, "s")}); err == nil {
		t.Fatal("wrong argument dimension accepted")
	}
}

func TestQuantityFormatRoundTrip(t *testing.T) {
	q := New(25, "degC")
	s, err := q.Format("degC")
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.Float()-q.Float()) > 1e-9 {
		t.Errorf("round trip %q: %g != %g", s, back.Float(), q.Float())
	}
}
