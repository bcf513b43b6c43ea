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
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/eqosim/eqosim/units"
)

// ContribSpec names one contribution of a frame structure. Name defaults
// to the class; an alias allows the same class to appear twice (e.g. two
// mixing rules with different targets).
type ContribSpec struct {
	Cls     string  `yaml:"cls"`
	Name    string  `yaml:"name"`
	Options Options `yaml:"options"`
}

// Structure declares a frame: a state definition and the ordered list of
// contributions. This is the model-structure file contract.
type Structure struct {
	State         string        `yaml:"state"`
	Contributions []ContribSpec `yaml:"contributions"`
}

// Frame is a thermodynamic model: an ordered species set, a state
// definition, and an ordered stack of contributions compiled into a state
// function (state, parameters) → (properties, bounds).
type Frame struct {
	db         *SpeciesDB
	stateDef   StateDefinition
	contribs   []frameContribution
	fn         *units.QFunction // stagnant-state evaluation
	flowFn     *units.QFunction
	params     units.QStruct // registered parameter symbols per contribution
	propOrder  []string
	vectors    map[string][]string
	boundNames []string
}

type frameContribution struct {
	name    string
	options Options
	c       Contribution
}

// NewFrame assembles a frame for the given species database and structure.
// Contributions run in declared order; each one's inputs must have been
// produced by an earlier contribution or the state definition.
func NewFrame(db *SpeciesDB, structure Structure) (f *Frame, err error) {
	defer units.RecoverBuildError(&err)

	stateDef, ok := LookupState(structure.State)
	if !ok {
		return nil, fmt.Errorf("thermo: unknown state definition %q",
			structure.State)
	}
	f = &Frame{db: db, stateDef: stateDef}
	for _, spec := range structure.Contributions {
		ctor, ok := LookupContribution(spec.Cls)
		if !ok {
			return nil, fmt.Errorf("thermo: unknown contribution %q", spec.Cls)
		}
		name := spec.Name
		if name == "" {
			name = spec.Cls
		}
		for _, existing := range f.contribs {
			if existing.name == name {
				return nil, fmt.Errorf(
					"thermo: contribution name %q used twice in frame", name)
			}
		}
		instance, err := ctor(db.Names(), db.defs, spec.Options)
		if err != nil {
			return nil, fmt.Errorf("thermo: constructing %q: %w", name, err)
		}
		f.contribs = append(f.contribs,
			frameContribution{name: name, options: spec.Options, c: instance})
	}

	// run the recipe once per flow kind with fresh symbols to compile the
	// standalone state functions
	for _, flow := range []bool{false, true} {
		state := units.NewSymbolVecN("x", "dimless", db.Len()+2)
		props, bounds, params := f.run(state, nil, flow)
		args := units.QStruct{"state": state, "params": params}
		results := units.QStruct{
			"props":  propsToStruct(props),
			"bounds": boundsToStruct(bounds),
		}
		fn, err := units.NewQFunction("thermo_frame", args, results)
		if err != nil {
			return nil, err
		}
		if flow {
			f.flowFn = fn
		} else {
			f.fn = fn
			f.params = params
			f.propOrder = props.Names()
			f.vectors = props.VectorKeys()
			f.boundNames = nil
			for _, b := range bounds.List() {
				f.boundNames = append(f.boundNames, b.Name)
			}
		}
	}
	return f, nil
}

// run executes the state definition and all contributions over the given
// state quantity. When provider is non-nil, parameter registration
// resolves against it (shared store symbols) instead of creating fresh
// symbols.
func (f *Frame) run(state units.Quantity, provider units.QStruct,
	flow bool) (*Props, *Bounds, units.QStruct) {
	props := newProps()
	bounds := &Bounds{}
	params := units.QStruct{}

	props.Set("_state", state)
	mw := make([]units.Quantity, f.db.Len())
	for i, s := range f.db.Names() {
		mw[i] = f.db.defs[s].MolecularWeight
	}
	props.Set("mw", units.Vertcat(mw...))
	props.DeclareVector("mw", f.db.Names())

	ctx := &Context{
		Species: f.db.Names(),
		Defs:    f.db.defs,
		Props:   props,
		Bounds:  bounds,
		Flow:    flow,
	}
	f.stateDef.Prepare(ctx)

	for _, fc := range f.contribs {
		props.current = fc.name
		ctx.Options = fc.options
		var pd *ParameterDictionary
		if provider != nil {
			sub, _ := provider[fc.name].(units.QStruct)
			pd = (&ParameterDictionary{}).withProvider(fc.name, sub)
		} else {
			pd = NewParameterDictionary(fc.name)
		}
		ctx.Params = pd
		preBounds := len(bounds.list)
		log.WithField("contribution", fc.name).Debug("defining contribution")
		fc.c.Define(ctx)
		for i := preBounds; i < len(bounds.list); i++ {
			bounds.list[i].Name = fc.name + "/" + bounds.list[i].Name
		}
		if !pd.Empty() {
			params[fc.name] = pd.Struct()
		}
	}
	props.current = ""
	return props, bounds, params
}

// Define runs the frame recipe on a caller-supplied symbolic state and
// parameter structure, returning the property table and bounds. This is
// how materials embed the frame into the global model graph.
func (f *Frame) Define(state units.Quantity, params units.QStruct,
	flow bool) (props *Props, bounds []Bound, err error) {
	defer units.RecoverBuildError(&err)
	p, b, _ := f.run(state, params, flow)
	return p, b.List(), nil
}

// Species returns the ordered species names.
func (f *Frame) Species() []string { return f.db.Names() }

// SpeciesDB returns the underlying species database.
func (f *Frame) SpeciesDB() *SpeciesDB { return f.db }

// StateLen returns the length of the raw state vector.
func (f *Frame) StateLen() int { return f.db.Len() + 2 }

// StateDefinition returns the state definition of the frame.
func (f *Frame) StateDefinition() StateDefinition { return f.stateDef }

// ParameterStructure enumerates the union of parameter needs of all
// contributions as a nested structure with unit strings as leaves.
func (f *Frame) ParameterStructure() map[string]any {
	return units.UnitsOfStruct(f.params)
}

// PropertyNames returns the published property names in definition order.
func (f *Frame) PropertyNames() []string {
	return append([]string{}, f.propOrder...)
}

// PropertyStructure returns the property structure with unit strings.
func (f *Frame) PropertyStructure() map[string]any {
	s := f.fn.ResultStructure()
	props, _ := s["props"].(map[string]any)
	return props
}

// VectorKeys returns the index keys of the registered vector properties
// (at least "n", "mu" and "mw" for a standard model).
func (f *Frame) VectorKeys() map[string][]string { return f.vectors }

// BoundNames returns the qualified bound names in declaration order.
func (f *Frame) BoundNames() []string {
	return append([]string{}, f.boundNames...)
}

// Call evaluates the frame for a numeric state and parameter set. The
// state is the raw vector in SI scaling. Extensive properties are
// returned as flows when flow is true.
func (f *Frame) Call(state []float64, params units.QStruct,
	flow bool) (map[string]units.Quantity, map[string]units.Quantity, error) {
	fn := f.fn
	if flow {
		fn = f.flowFn
	}
	args := units.QStruct{
		"state":  units.NewVec(state, "dimless"),
		"params": params,
	}
	out, err := fn.Call(args)
	if err != nil {
		return nil, nil, err
	}
	props := quantityMap(out["props"])
	bounds := quantityMap(out["bounds"])
	return props, bounds, nil
}

// Relax invokes the contributions' relax hooks in frame order, letting
// them project the stepped state slice onto their physical branch.
func (f *Frame) Relax(ctx *RelaxContext) {
	for _, fc := range f.contribs {
		if r, ok := fc.c.(Relaxer); ok {
			r.Relax(ctx)
		}
	}
}

// InitialStateVector maps a (T, p, n) specification onto the raw state
// vector. Gibbs frames are trivial; otherwise the topmost contribution
// implementing Initializer completes the vector, and the estimate is
// refined by a bound-aware Newton iteration so the specification is met
// exactly.
func (f *Frame) InitialStateVector(init InitialState,
	params units.QStruct) ([]float64, error) {
	raw := f.stateDef.Reverse(init, f.db.Names())
	complete := true
	for _, v := range raw {
		if math.IsNaN(v) {
			complete = false
			break
		}
	}
	if complete {
		return raw, nil
	}

	// evaluate what is computable despite the NaN entries
	numProps := map[string][]float64{}
	if props, _, err := f.Call(raw, params, false); err == nil {
		for name, q := range props {
			if q.IsConst() {
				numProps[name] = q.Floats()
			}
		}
	}
	for i := len(f.contribs) - 1; i >= 0; i-- {
		ini, ok := f.contribs[i].c.(Initializer)
		if !ok {
			continue
		}
		estimate := ini.InitialState(init, numProps)
		if estimate == nil {
			continue
		}
		return f.refineInitialState(init, params, estimate)
	}
	return nil, fmt.Errorf(
		"thermo: no initialisation found for state definition %q",
		f.stateDef.Name())
}

func propsToStruct(p *Props) units.QStruct {
	out := units.QStruct{}
	for _, name := range p.order {
		out[name] = p.m[name]
	}
	return out
}

func boundsToStruct(b *Bounds) units.QStruct {
	out := units.QStruct{}
	for i, bound := range b.list {
		// the path separator may not appear in flattened keys
		name := strings.ReplaceAll(bound.Name, units.Sep, ":")
		out[fmt.Sprintf("%03d %s", i, name)] = bound.Q
	}
	return out
}

func quantityMap(v any) map[string]units.Quantity {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]units.Quantity, len(m))
	for k, entry := range m {
		if q, ok := entry.(units.Quantity); ok {
			out[k] = q
		}
	}
	return out
}
