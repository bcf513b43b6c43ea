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

	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// Model is a reusable process model. The engine runs two passes over the
// model tree: Interface declares parameters, properties and material
// ports (top-down); Define builds the symbolic expressions for the
// declared properties and the residuals (bottom-up, child models finish
// before their parent reads from them).
type Model interface {
	Interface(ifc *Interface)
	Define(def *Definition)
}

// Interface records the declarations of a model.
type Interface struct {
	node *Node
}

// Parameter declares a parameter with a default value.
func (ifc *Interface) Parameter(name string, value float64, unit string) {
	ifc.node.declareParameter(name, unit, &value)
}

// RequiredParameter declares a parameter the parent must provide.
func (ifc *Interface) RequiredParameter(name, unit string) {
	ifc.node.declareParameter(name, unit, nil)
}

// Property declares a property the model promises to calculate.
func (ifc *Interface) Property(name, unit string) {
	n := ifc.node
	if _, ok := n.propDecls[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("property %q declared twice", name)})
	}
	u, err := units.ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	n.propDecls[name] = u
	n.propOrder = append(n.propOrder, name)
}

// Port declares a material port with a compatibility specification.
func (ifc *Interface) Port(name string, spec thermo.MaterialSpec) {
	n := ifc.node
	if _, ok := n.ports[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material port %q declared twice", name)})
	}
	n.ports[name] = spec
}

// Residual is one equation of the flat numeric problem. Its scaled value,
// driven to magnitude below one by the solver, is the SI magnitude
// divided by the tolerance in SI units.
type Residual struct {
	Name    string
	Q       units.Quantity
	TolUnit string
	Tol     float64
}

// Node is one instantiated model in the tree, carrying the declaration
// records and the expressions built during the define pass. Models own
// their children strictly as a tree.
type Node struct {
	name  string
	path  string
	model Model

	paramOrder  []string
	paramSym    map[string]units.Quantity
	paramValue  map[string]units.Quantity
	provided    map[string]bool
	propDecls   map[string]units.Unit
	propOrder   []string
	props       map[string]units.Quantity
	ports       map[string]thermo.MaterialSpec
	portConn    map[string]*thermo.Material
	materials   []*thermo.Material
	materialMap map[string]*thermo.Material
	residuals   []Residual
	bounds      []thermo.Bound
	children    []*Node
	childMap    map[string]*Node
	defined     bool
}

func newNode(name, path string, model Model) *Node {
	n := &Node{
		name:        name,
		path:        path,
		model:       model,
		paramSym:    map[string]units.Quantity{},
		paramValue:  map[string]units.Quantity{},
		provided:    map[string]bool{},
		propDecls:   map[string]units.Unit{},
		props:       map[string]units.Quantity{},
		ports:       map[string]thermo.MaterialSpec{},
		portConn:    map[string]*thermo.Material{},
		materialMap: map[string]*thermo.Material{},
		childMap:    map[string]*Node{},
	}
	model.Interface(&Interface{node: n})
	return n
}

func (n *Node) declareParameter(name, unit string, value *float64) {
	if _, ok := n.paramSym[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("parameter %q declared twice", name)})
	}
	n.paramOrder = append(n.paramOrder, name)
	n.paramSym[name] = units.NewSymbol(n.path+"/"+name, unit)
	if value != nil {
		n.paramValue[name] = units.New(*value, unit)
	}
}

// finalize checks that all required parameters are resolved, runs the
// model's define pass, and verifies the declared properties were provided.
func (n *Node) finalize() {
	for _, name := range n.paramOrder {
		if !n.provided[name] {
			if _, ok := n.paramValue[name]; !ok {
				panic(&DataFlowError{Model: n.path,
					Msg: fmt.Sprintf("unresolved parameter %q", name)})
			}
		}
	}
	for port := range n.ports {
		if _, ok := n.portConn[port]; !ok {
			panic(&DataFlowError{Model: n.path,
				Msg: fmt.Sprintf("material port %q not connected", port)})
		}
	}
	n.model.Define(&Definition{node: n})
	for _, name := range n.propOrder {
		if _, ok := n.props[name]; !ok {
			panic(&DataFlowError{Model: n.path,
				Msg: fmt.Sprintf("declared property %q was not provided", name)})
		}
	}
	n.defined = true
}

// Name returns the instance name of the node.
func (n *Node) Name() string { return n.name }

// Path returns the qualified parent/child path of the node.
func (n *Node) Path() string { return n.path }

// Top instantiates a model as the root of a tree and runs both passes.
// All assembly errors surface here, carrying the qualified path.
func Top(model Model, name string) (n *Node, err error) {
	defer units.RecoverBuildError(&err)
	n = newNode(name, name, model)
	n.finalize()
	return n, nil
}

// Definition is the handle a model's define pass works with.
type Definition struct {
	node *Node
}

// Param returns the symbolic value of a declared parameter.
func (d *Definition) Param(name string) units.Quantity {
	q, ok := d.node.paramSym[name]
	if !ok {
		panic(&DataFlowError{Model: d.node.path,
			Msg: fmt.Sprintf("parameter %q is not declared", name)})
	}
	return q
}

// SetProp provides a declared property. Writing an undeclared property
// fails with an UndeclaredPropertyError; providing twice is a data-flow
// violation.
func (d *Definition) SetProp(name string, q units.Quantity) {
	n := d.node
	decl, ok := n.propDecls[name]
	if !ok {
		panic(&UndeclaredPropertyError{Model: n.path, Property: name})
	}
	if _, ok := n.props[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("property %q provided twice", name)})
	}
	if !q.Unit().Dim().Equal(decl.Dim()) {
		panic(&units.DimensionMismatchError{Msg: fmt.Sprintf(
			"property %q of model %q declared as %s, provided as %s",
			name, n.path, decl, q.Unit())})
	}
	n.props[name] = q
}

// Prop reads back a property this model provided earlier in its define.
func (d *Definition) Prop(name string) units.Quantity {
	q, ok := d.node.props[name]
	if !ok {
		panic(&DataFlowError{Model: d.node.path,
			Msg: fmt.Sprintf("property %q has not been provided yet", name)})
	}
	return q
}

// AddResidual adds an equation with the default tolerance of 1e-7 in the
// given tolerance unit. The residual must be dimensionally compatible
// with the tolerance unit.
func (d *Definition) AddResidual(name string, q units.Quantity, tolUnit string) {
	d.AddResidualTol(name, q, tolUnit, 1e-7)
}

// AddResidualTol adds an equation with an explicit tolerance.
func (d *Definition) AddResidualTol(name string, q units.Quantity,
	tolUnit string, tol float64) {
	n := d.node
	for _, r := range n.residuals {
		if r.Name == name {
			panic(&DataFlowError{Model: n.path,
				Msg: fmt.Sprintf("residual %q defined twice", name)})
		}
	}
	u, err := units.ParseUnit(tolUnit)
	if err != nil {
		panic(err)
	}
	if !u.Dim().Equal(q.Unit().Dim()) {
		panic(&units.DimensionMismatchError{Msg: fmt.Sprintf(
			"residual %q of model %q has dimension %s, tolerance unit is %s",
			name, n.path, q.Unit(), tolUnit)})
	}
	n.residuals = append(n.residuals,
		Residual{Name: name, Q: q, TolUnit: tolUnit, Tol: tol})
}

// AddBound registers a model property that must stay strictly positive
// for the model to remain inside its domain (e.g. the temperature
// difference under a logarithmic mean). Material state bounds need not be
// added; the thermodynamic contributions own those.
func (d *Definition) AddBound(name string, q units.Quantity) {
	n := d.node
	n.bounds = append(n.bounds, thermo.Bound{Name: name, Q: q})
}

// Material returns the material connected to a declared port.
func (d *Definition) Material(port string) *thermo.Material {
	n := d.node
	if _, ok := n.ports[port]; !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material port %q is not declared", port)})
	}
	m, ok := n.portConn[port]
	if !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material port %q is not connected", port)})
	}
	return m
}

// CreateFlow instantiates a flowing material owned by this model.
func (d *Definition) CreateFlow(name string,
	md *thermo.MaterialDefinition) *thermo.Material {
	return d.createMaterial(name, md, thermo.FlowMaterial)
}

// CreateState instantiates a stagnant material owned by this model.
func (d *Definition) CreateState(name string,
	md *thermo.MaterialDefinition) *thermo.Material {
	return d.createMaterial(name, md, thermo.StateMaterial)
}

func (d *Definition) createMaterial(name string,
	md *thermo.MaterialDefinition, kind thermo.MaterialKind) *thermo.Material {
	n := d.node
	if _, ok := n.materialMap[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material %q created twice", name)})
	}
	m, err := md.CreateInstance(n.path+"/"+name, kind)
	if err != nil {
		panic(err)
	}
	n.materials = append(n.materials, m)
	n.materialMap[name] = m
	return m
}

// ChildBuilder configures a child model between its interface and define
// passes: the parent provides parameters and connects material ports
// here. Child properties are not readable yet; they become available on
// the handle returned by Child, after the child's define completed.
type ChildBuilder struct {
	node *Node
}

// SetParam provides a parameter expression to the child.
func (b *ChildBuilder) SetParam(name string, q units.Quantity) {
	n := b.node
	decl, ok := n.paramSym[name]
	if !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("parameter %q is not declared", name)})
	}
	if n.provided[name] {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("parameter %q provided twice", name)})
	}
	if !q.Unit().Dim().Equal(decl.Unit().Dim()) {
		panic(&units.DimensionMismatchError{Msg: fmt.Sprintf(
			"parameter %q of model %q declared as %s, provided as %s",
			name, n.path, decl.Unit(), q.Unit())})
	}
	n.paramSym[name] = q
	n.provided[name] = true
	delete(n.paramValue, name)
}

// UpdateParam overrides the default value of a child parameter, keeping
// it a free argument of the numeric problem.
func (b *ChildBuilder) UpdateParam(name string, value float64, unit string) {
	n := b.node
	decl, ok := n.paramSym[name]
	if !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("parameter %q is not declared", name)})
	}
	q := units.New(value, unit)
	if !q.Unit().Dim().Equal(decl.Unit().Dim()) {
		panic(&units.DimensionMismatchError{Msg: fmt.Sprintf(
			"parameter %q of model %q declared as %s, updated as %s",
			name, n.path, decl.Unit(), unit)})
	}
	n.paramValue[name] = q
}

// Connect attaches a material to a declared port of the child, checking
// the port specification.
func (b *ChildBuilder) Connect(port string, m *thermo.Material) {
	n := b.node
	spec, ok := n.ports[port]
	if !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material port %q is not declared", port)})
	}
	if _, ok := n.portConn[port]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material port %q connected twice", port)})
	}
	if !spec.IsCompatible(m) {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("material %q is not compatible with port %q",
				m.Name(), port)})
	}
	n.portConn[port] = m
}

// ChildHandle exposes a finished child model to its parent.
type ChildHandle struct {
	node *Node
}

// Prop reads a property the child calculated. Reading before the child's
// define pass completed fails with a DataFlowError.
func (h *ChildHandle) Prop(name string) units.Quantity {
	n := h.node
	if !n.defined {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("property %q read before define completed", name)})
	}
	q, ok := n.props[name]
	if !ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("child has no property %q", name)})
	}
	return q
}

// Child instantiates a child model under the given name: the child's
// interface pass runs, configure provides parameters and connects ports,
// and the child's define pass completes before the handle is returned.
func (d *Definition) Child(name string, model Model,
	configure func(b *ChildBuilder)) *ChildHandle {
	n := d.node
	if _, ok := n.childMap[name]; ok {
		panic(&DataFlowError{Model: n.path,
			Msg: fmt.Sprintf("child model %q added twice", name)})
	}
	child := newNode(name, n.path+"/"+name, model)
	if configure != nil {
		configure(&ChildBuilder{node: child})
	}
	child.finalize()
	n.children = append(n.children, child)
	n.childMap[name] = child
	return &ChildHandle{node: child}
}

// ChildHandle returns the handle of a previously added child.
func (d *Definition) ChildHandle(name string) *ChildHandle {
	child, ok := d.node.childMap[name]
	if !ok {
		panic(&DataFlowError{Model: d.node.path,
			Msg: fmt.Sprintf("no child model %q", name)})
	}
	return &ChildHandle{node: child}
}
