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
	"fmt"

	"github.com/eqosim/eqosim/units"
)

// MaterialSpec constrains the materials acceptable on a model's material
// port: which species must be present, and whether further species are
// tolerated (wildcard "*").
type MaterialSpec struct {
	species map[string]bool
	locked  bool
}

// AnyMaterial accepts every material.
func AnyMaterial() MaterialSpec { return MaterialSpec{} }

// NewMaterialSpec requires the listed species. With a "*" entry the
// species set is open; otherwise it is locked to exactly the listed set.
func NewMaterialSpec(species ...string) MaterialSpec {
	spec := MaterialSpec{species: map[string]bool{}, locked: true}
	for _, s := range species {
		if s == "*" {
			spec.locked = false
			continue
		}
		spec.species[s] = true
	}
	return spec
}

// IsCompatible reports whether a material satisfies the specification.
func (spec MaterialSpec) IsCompatible(m *Material) bool {
	have := map[string]bool{}
	for _, s := range m.Species() {
		have[s] = true
	}
	for s := range spec.species {
		if !have[s] {
			return false
		}
	}
	if spec.locked && spec.species != nil {
		for s := range have {
			if !spec.species[s] {
				return false
			}
		}
	}
	return true
}

// MaterialKind distinguishes flowing streams from stagnant holdups; it
// selects the extensive units (mol/s versus mol) of a material.
type MaterialKind int

// The material kinds.
const (
	FlowMaterial MaterialKind = iota
	StateMaterial
)

// MaterialDefinition glues a frame, an initial state, and a parameter
// store into a reusable material type. Definitions share frames and
// stores; they are never copied.
type MaterialDefinition struct {
	Frame        *Frame
	InitialState InitialState
	Store        *ParameterStore
}

// NewMaterialDefinition validates that the initial state covers the
// frame's species.
func NewMaterialDefinition(frame *Frame, initial InitialState,
	store *ParameterStore) (*MaterialDefinition, error) {
	for _, s := range frame.Species() {
		if _, ok := initial.MolVector[s]; !ok {
			return nil, fmt.Errorf(
				"thermo: initial state misses species %q", s)
		}
	}
	return &MaterialDefinition{
		Frame:        frame,
		InitialState: initial,
		Store:        store,
	}, nil
}

// Spec returns the material specification this definition implements.
func (md *MaterialDefinition) Spec() MaterialSpec {
	return NewMaterialSpec(md.Frame.Species()...)
}

// CreateInstance instantiates a material of the given kind. The name must
// be unique within the owning model; it becomes the symbol prefix of the
// material's state slice.
func (md *MaterialDefinition) CreateInstance(name string,
	kind MaterialKind) (*Material, error) {
	flow := kind == FlowMaterial
	state := units.NewSymbolVecN(name+".x", "dimless", md.Frame.StateLen())
	paramSyms, err := md.Store.GetSymbols(md.Frame.ParameterStructure())
	if err != nil {
		return nil, err
	}
	props, bounds, err := md.Frame.Define(state, paramSyms, flow)
	if err != nil {
		return nil, fmt.Errorf("thermo: material %q: %w", name, err)
	}
	return &Material{
		name:       name,
		definition: md,
		kind:       kind,
		state:      state,
		props:      props,
		bounds:     bounds,
	}, nil
}

// Material is an instantiated phase: the frame's property expressions
// bound to this material's slice of the global state vector.
type Material struct {
	name       string
	definition *MaterialDefinition
	kind       MaterialKind
	state      units.Quantity
	props      *Props
	bounds     []Bound
	extra      map[string]units.Quantity
	initial    *InitialState
}

// InitialState returns the material's own initial state if one was set
// (e.g. by a state import), falling back to the definition's.
func (m *Material) InitialState() InitialState {
	if m.initial != nil {
		return *m.initial
	}
	return m.definition.InitialState
}

// SetInitialState overrides the initial state of this instance without
// touching the shared definition.
func (m *Material) SetInitialState(init InitialState) {
	m.initial = &init
}

// Name returns the material instance name.
func (m *Material) Name() string { return m.name }

// Definition returns the material definition.
func (m *Material) Definition() *MaterialDefinition { return m.definition }

// Kind returns whether the material is a flow or a state.
func (m *Material) Kind() MaterialKind { return m.kind }

// Species returns the ordered species names.
func (m *Material) Species() []string { return m.definition.Frame.Species() }

// StateSymbols returns the symbolic state slice of the material.
func (m *Material) StateSymbols() units.Quantity { return m.state }

// Bounds returns the frame's positivity bounds over this material's state.
func (m *Material) Bounds() []Bound { return m.bounds }

// TolUnit returns the natural tolerance unit for species balances over
// this material.
func (m *Material) TolUnit() string {
	if m.kind == FlowMaterial {
		return "mol/s"
	}
	return "mol"
}

// Prop returns a published property expression. Internal properties
// (underscore-prefixed) are not accessible.
func (m *Material) Prop(name string) units.Quantity {
	if q, ok := m.extra[name]; ok {
		return q
	}
	if len(name) > 0 && name[0] == '_' {
		panic(&MissingRequirementError{
			Contribution: "material " + m.name, Property: name})
	}
	m.props.current = "material " + m.name
	return m.props.Get(name)
}

// Dict returns a vector property as a dictionary keyed by its registered
// sub-keys (species for "n" and "mu").
func (m *Material) Dict(name string) units.QuantityDict {
	q := m.Prop(name)
	keys, ok := m.props.vectors[name]
	if !ok || len(keys) != q.Len() {
		panic(&MissingRequirementError{
			Contribution: "material " + m.name,
			Property:     name + " (no vector keys)"})
	}
	return units.FromVectorQuantity(q, keys)
}

// SetProp attaches a derived property to the material instance. Existing
// frame properties cannot be overwritten.
func (m *Material) SetProp(name string, q units.Quantity) {
	if m.props.Has(name) {
		panic(&MissingRequirementError{
			Contribution: "material " + m.name,
			Property:     name + " (already defined)"})
	}
	if m.extra == nil {
		m.extra = map[string]units.Quantity{}
	}
	if _, ok := m.extra[name]; ok {
		panic(&MissingRequirementError{
			Contribution: "material " + m.name,
			Property:     name + " (already defined)"})
	}
	m.extra[name] = q
}

// PropNames lists the public property names of the material.
func (m *Material) PropNames() []string {
	var names []string
	for _, n := range m.props.Names() {
		if len(n) > 0 && n[0] != '_' {
			names = append(names, n)
		}
	}
	for n := range m.extra {
		names = append(names, n)
	}
	return names
}

// InitialStateVector computes the raw initial state of the material from
// its definition, resolving parameter values through the store.
func (m *Material) InitialStateVector() ([]float64, error) {
	values, err := m.definition.Store.GetAllValues()
	if err != nil {
		return nil, err
	}
	return m.definition.Frame.InitialStateVector(m.InitialState(), values)
}
