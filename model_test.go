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
	"errors"
	"math"
	"testing"

	"github.com/eqosim/eqosim/units"
)

// propertyModel squares a length into an area.
type propertyModel struct{}

func (propertyModel) Interface(ifc *Interface) {
	ifc.Parameter("length", 10, "m")
	ifc.Property("area", "m**2")
}

func (propertyModel) Define(def *Definition) {
	l := def.Param("length")
	def.SetProp("area", l.Mul(l))
}

// hierarchyModel computes a volume from a child's area.
type hierarchyModel struct{}

func (hierarchyModel) Interface(ifc *Interface) {
	ifc.Parameter("radius", 5, "cm")
	ifc.Parameter("depth", 10, "cm")
	ifc.Property("volume", "m**3")
}

func (hierarchyModel) Define(def *Definition) {
	length := def.Param("radius").Scale(2)
	child := def.Child("square", propertyModel{}, func(b *ChildBuilder) {
		b.SetParam("length", length)
	})
	def.SetProp("volume", child.Prop("area").Mul(def.Param("depth")))
}

// evalProp runs the numeric handler over a model without materials and
// returns one model property converted to the given unit.
func evalProp(t *testing.T, model Model, path []string, unit string) float64 {
	t.Helper()
	root, err := Top(model, "model")
	if err != nil {
		t.Fatal(err)
	}
	handler, err := NewNumericHandler(root)
	if err != nil {
		t.Fatal(err)
	}
	args, err := handler.Arguments()
	if err != nil {
		t.Fatal(err)
	}
	res, err := handler.Function().Call(args)
	if err != nil {
		t.Fatal(err)
	}
	var node any = res[KeyModelProps]
	for _, p := range path {
		node = node.(map[string]any)[p]
	}
	vals, err := node.(units.Quantity).In(unit)
	if err != nil {
		t.Fatal(err)
	}
	return vals[0]
}

func TestPropertyModel(t *testing.T) {
	if got := evalProp(t, propertyModel{}, []string{"area"}, "m**2"); got != 100 {
		t.Errorf("area = %g, want 100", got)
	}
}

func TestHierarchyModel(t *testing.T) {
	// (2·5 cm)² · 10 cm = 1e-3 m³
	got := evalProp(t, hierarchyModel{}, []string{"volume"}, "m**3")
	if math.Abs(got-1e-3) > 1e-15 {
		t.Errorf("volume = %g, want 1e-3", got)
	}
}

// undeclaredWriter writes a property it never declared.
type undeclaredWriter struct{}

func (undeclaredWriter) Interface(ifc *Interface) {}
func (undeclaredWriter) Define(def *Definition) {
	def.SetProp("oops", units.New(1, "m"))
}

func TestUndeclaredProperty(t *testing.T) {
	_, err := Top(undeclaredWriter{}, "model")
	var undeclared *UndeclaredPropertyError
	if !errors.As(err, &undeclared) {
		t.Fatalf("expected UndeclaredPropertyError, got %v", err)
	}
	if undeclared.Property != "oops" {
		t.Errorf("wrong property reported: %q", undeclared.Property)
	}
}

// requiredParamModel declares a parameter without a default.
type requiredParamModel struct{}

func (requiredParamModel) Interface(ifc *Interface) {
	ifc.RequiredParameter("width", "m")
}
func (requiredParamModel) Define(def *Definition) {}

func TestUnresolvedParameter(t *testing.T) {
	_, err := Top(requiredParamModel{}, "model")
	var dataflow *DataFlowError
	if !errors.As(err, &dataflow) {
		t.Fatalf("expected DataFlowError, got %v", err)
	}
}

// parentProvides resolves the child's required parameter.
type parentProvides struct{}

func (parentProvides) Interface(ifc *Interface) {
	ifc.Property("result", "m")
}
func (parentProvides) Define(def *Definition) {
	child := def.Child("child", requiredParamModel{}, func(b *ChildBuilder) {
		b.SetParam("width", units.New(2, "m"))
	})
	_ = child
	def.SetProp("result", units.New(2, "m"))
}

func TestProvidedParameter(t *testing.T) {
	if _, err := Top(parentProvides{}, "model"); err != nil {
		t.Fatal(err)
	}
}

// wrongUnitProvider connects a parameter with the wrong dimension.
type wrongUnitProvider struct{}

func (wrongUnitProvider) Interface(ifc *Interface) {}
func (wrongUnitProvider) Define(def *Definition) {
	def.Child("child", requiredParamModel{}, func(b *ChildBuilder) {
		b.SetParam("width", units.New(2, "s"))
	})
}

func TestParameterDimensionCheck(t *testing.T) {
	_, err := Top(wrongUnitProvider{}, "model")
	var mismatch *units.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
}

// residualUnitModel defines a residual with an incompatible tolerance.
type residualUnitModel struct{}

func (residualUnitModel) Interface(ifc *Interface) {
	ifc.Parameter("length", 10, "m")
}
func (residualUnitModel) Define(def *Definition) {
	def.AddResidual("r", def.Param("length"), "K")
}

func TestResidualToleranceUnit(t *testing.T) {
	_, err := Top(residualUnitModel{}, "model")
	var mismatch *units.DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
}

// earlyReader reads a child property inside the configure callback,
// before the child's define pass completed.
type earlyReader struct{}

func (earlyReader) Interface(ifc *Interface) {}
func (earlyReader) Define(def *Definition) {
	def.Child("child", propertyModel{}, func(b *ChildBuilder) {
		h := &ChildHandle{node: b.node}
		_ = h.Prop("area")
	})
}

func TestEarlyChildPropertyRead(t *testing.T) {
	_, err := Top(earlyReader{}, "model")
	var dataflow *DataFlowError
	if !errors.As(err, &dataflow) {
		t.Fatalf("expected DataFlowError, got %v", err)
	}
}
