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

	"github.com/eqosim/eqosim/graph"
	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// Well-known keys of the handler's argument and result structures.
const (
	KeyVectors      = "vectors"
	KeyStates       = "states"
	KeyResiduals    = "residuals"
	KeyBounds       = "bounds"
	KeyModelParams  = "model_params"
	KeyThermoParams = "thermo_params"
	KeyModelProps   = "model_props"
	KeyThermoProps  = "thermo_props"
)

// materialSlot ties one material to its contiguous slice of the global
// state vector.
type materialSlot struct {
	path     string
	material *thermo.Material
	offset   int
	length   int
}

// NumericHandler flattens a finished model tree into the global numeric
// problem: the state vector x (concatenated material state slices), the
// tolerance-scaled residual vector, the strictly positive bound vector,
// and the parameter structures. It owns the only mutable cursor into x.
type NumericHandler struct {
	root  *Node
	slots []materialSlot

	stateNodes []*graph.Node
	resNames   []string
	resExprs   []*graph.Node
	boundNames []string
	boundExprs []*graph.Node

	jacRes    *graph.Jacobian
	jacBound  *graph.Jacobian
	solverFn  *graph.Function
	paramSyms []*graph.Node

	fn     *units.QFunction
	stores []*thermo.ParameterStore

	x    []float64
	args units.QStruct
}

// NewNumericHandler assembles the numeric problem from a finished model
// tree.
func NewNumericHandler(root *Node) (h *NumericHandler, err error) {
	defer units.RecoverBuildError(&err)
	h = &NumericHandler{root: root}

	// deterministic depth-first traversal
	var walk func(n *Node, f func(n *Node))
	walk = func(n *Node, f func(n *Node)) {
		f(n)
		for _, c := range n.children {
			walk(c, f)
		}
	}

	// state vector and bounds from materials; residuals and model bounds
	// from nodes
	storeSet := map[*thermo.ParameterStore]bool{}
	walk(root, func(n *Node) {
		for _, m := range n.materials {
			slot := materialSlot{
				path:     m.Name(),
				material: m,
				offset:   len(h.stateNodes),
				length:   m.StateSymbols().Len(),
			}
			h.slots = append(h.slots, slot)
			h.stateNodes = append(h.stateNodes, m.StateSymbols().Nodes()...)
			for _, b := range m.Bounds() {
				h.boundNames = append(h.boundNames, m.Name()+"/"+b.Name)
				h.boundExprs = append(h.boundExprs, b.Q.Nodes()...)
			}
			if !storeSet[m.Definition().Store] {
				storeSet[m.Definition().Store] = true
				h.stores = append(h.stores, m.Definition().Store)
			}
		}
		for _, r := range n.residuals {
			u, err := units.ParseUnit(r.TolUnit)
			if err != nil {
				panic(err)
			}
			scale := graph.Const(1 / (r.Tol * u.Scale()))
			for i, node := range r.Q.Nodes() {
				name := n.path + "/" + r.Name
				if r.Q.Len() > 1 {
					name = fmt.Sprintf("%s[%d]", name, i)
				}
				h.resNames = append(h.resNames, name)
				h.resExprs = append(h.resExprs, graph.Mul(node, scale))
			}
		}
		for _, b := range n.bounds {
			h.boundNames = append(h.boundNames, n.path+"/"+b.Name)
			h.boundExprs = append(h.boundExprs, b.Q.Nodes()...)
		}
	})

	names := map[string]bool{}
	for _, s := range h.stores {
		if names[s.Name()] {
			return nil, fmt.Errorf(
				"eqosim: parameter stores used in one model must have "+
					"unique names, %q repeats", s.Name())
		}
		names[s.Name()] = true
	}

	// nested argument and result structures
	modelParams := collectNested(root, func(n *Node) units.QStruct {
		out := units.QStruct{}
		for _, p := range n.paramOrder {
			if _, free := n.paramValue[p]; free && !n.provided[p] {
				out[p] = n.paramSym[p]
			}
		}
		return out
	})
	modelProps := collectNested(root, func(n *Node) units.QStruct {
		out := units.QStruct{}
		for name, q := range n.props {
			out[name] = q
		}
		return out
	})
	thermoProps := units.QStruct{}
	for _, slot := range h.slots {
		props := units.QStruct{}
		for _, name := range slot.material.PropNames() {
			props[name] = slot.material.Prop(name)
		}
		thermoProps[slot.path] = props
	}
	thermoParams := units.QStruct{}
	for _, s := range h.stores {
		thermoParams[s.Name()] = s.GetAllSymbols()
	}

	stateQ := units.FromNodes(h.stateNodes, units.SI(units.Dimensionless))
	resQ := units.FromNodes(h.resExprs, units.SI(units.Dimensionless))
	boundQ := units.FromNodes(h.boundExprs, units.SI(units.Dimensionless))

	args := units.QStruct{
		KeyVectors:      units.QStruct{KeyStates: stateQ},
		KeyModelParams:  modelParams,
		KeyThermoParams: thermoParams,
	}
	results := units.QStruct{
		KeyModelProps:  modelProps,
		KeyThermoProps: thermoProps,
		KeyVectors: units.QStruct{
			KeyResiduals: resQ,
			KeyBounds:    boundQ,
		},
	}
	h.fn, err = units.NewQFunction("model", args, results)
	if err != nil {
		return nil, err
	}

	// solver function over the state with parameters as trailing inputs
	h.jacRes = graph.JacobianOf(h.resExprs, h.stateNodes)
	h.jacBound = graph.JacobianOf(h.boundExprs, h.stateNodes)
	paramStruct := units.QStruct{
		KeyModelParams:  modelParams,
		KeyThermoParams: thermoParams,
	}
	_, paramQs, err := units.FlattenQuantities(paramStruct)
	if err != nil {
		return nil, err
	}
	for _, q := range paramQs {
		h.paramSyms = append(h.paramSyms, q.Nodes()...)
	}
	h.solverFn, err = graph.Compile(
		[][]*graph.Node{h.stateNodes, h.paramSyms},
		[][]*graph.Node{h.resExprs, h.boundExprs,
			h.jacRes.Expr, h.jacBound.Expr})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func collectNested(root *Node, f func(n *Node) units.QStruct) units.QStruct {
	out := f(root)
	for _, c := range root.children {
		child := collectNested(c, f)
		if _, clash := out[c.name]; clash {
			panic(&DataFlowError{Model: root.path, Msg: fmt.Sprintf(
				"child model name %q clashes with a declaration", c.name)})
		}
		out[c.name] = child
	}
	return out
}

// Function returns the compiled model function over nested quantity
// structures.
func (h *NumericHandler) Function() *units.QFunction { return h.fn }

// NumStates returns the length of the state vector.
func (h *NumericHandler) NumStates() int { return len(h.stateNodes) }

// NumResiduals returns the length of the residual vector.
func (h *NumericHandler) NumResiduals() int { return len(h.resExprs) }

// ResidualNames returns the qualified residual names in vector order.
func (h *NumericHandler) ResidualNames() []string {
	return append([]string{}, h.resNames...)
}

// BoundNames returns the qualified bound names in vector order.
func (h *NumericHandler) BoundNames() []string {
	return append([]string{}, h.boundNames...)
}

// StateNames returns qualified names for the state vector entries.
func (h *NumericHandler) StateNames() []string {
	names := make([]string, 0, len(h.stateNodes))
	for _, slot := range h.slots {
		for i := 0; i < slot.length; i++ {
			names = append(names, fmt.Sprintf("%s/x[%d]", slot.path, i))
		}
	}
	return names
}

// Arguments returns the function arguments as numeric values, with
// material initial states and parameter defaults filled in. The returned
// structure is cached; callers edit it in place to change parameters.
func (h *NumericHandler) Arguments() (units.QStruct, error) {
	if h.args != nil {
		return h.args, nil
	}
	if err := h.resetStates(); err != nil {
		return nil, err
	}
	modelParams := collectNested(h.root, func(n *Node) units.QStruct {
		out := units.QStruct{}
		for _, p := range n.paramOrder {
			if v, free := n.paramValue[p]; free && !n.provided[p] {
				out[p] = v
			}
		}
		return out
	})
	thermoParams := units.QStruct{}
	for _, s := range h.stores {
		values, err := s.GetAllValues()
		if err != nil {
			return nil, err
		}
		thermoParams[s.Name()] = values
	}
	h.args = units.QStruct{
		KeyVectors: units.QStruct{
			KeyStates: units.NewVec(h.x, "dimless"),
		},
		KeyModelParams:  modelParams,
		KeyThermoParams: thermoParams,
	}
	return h.args, nil
}

// resetStates rebuilds x from the materials' initial states.
func (h *NumericHandler) resetStates() error {
	h.x = make([]float64, len(h.stateNodes))
	for _, slot := range h.slots {
		init, err := slot.material.InitialStateVector()
		if err != nil {
			return err
		}
		copy(h.x[slot.offset:slot.offset+slot.length], init)
	}
	return nil
}

// State returns the current state vector (the handler's own copy).
func (h *NumericHandler) State() []float64 { return h.x }

// SetState overwrites the state vector, e.g. for warm starts.
func (h *NumericHandler) SetState(x []float64) error {
	if len(x) != len(h.stateNodes) {
		return fmt.Errorf("eqosim: state length %d, expected %d",
			len(x), len(h.stateNodes))
	}
	if h.x == nil {
		h.x = make([]float64, len(h.stateNodes))
	}
	copy(h.x, x)
	h.invalidateArgs()
	return nil
}

func (h *NumericHandler) invalidateArgs() {
	if h.args != nil {
		vectors := h.args[KeyVectors].(units.QStruct)
		vectors[KeyStates] = units.NewVec(h.x, "dimless")
	}
}

// paramValues flattens the current numeric parameter values in the order
// of the solver function's parameter input.
func (h *NumericHandler) paramValues() ([]float64, error) {
	args, err := h.Arguments()
	if err != nil {
		return nil, err
	}
	paramStruct := units.QStruct{
		KeyModelParams:  args[KeyModelParams],
		KeyThermoParams: args[KeyThermoParams],
	}
	_, qs, err := units.FlattenQuantities(paramStruct)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, q := range qs {
		out = append(out, q.Floats()...)
	}
	if len(out) != len(h.paramSyms) {
		return nil, fmt.Errorf(
			"eqosim: %d parameter values for %d parameter symbols",
			len(out), len(h.paramSyms))
	}
	return out, nil
}

// evalSystem evaluates residuals, bounds and both Jacobians at x.
func (h *NumericHandler) evalSystem(x, params []float64) (
	r, b []float64, jr, jb *graph.CSC, err error) {
	out, err := h.solverFn.Eval([][]float64{x, params})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	r, b = out[0], out[1]
	jr = h.jacRes.Pattern()
	copy(jr.Val, out[2])
	jb = h.jacBound.Pattern()
	copy(jb.Val, out[3])
	return r, b, jr, jb, nil
}

// relax runs every material frame's relax chain over the freshly stepped
// state, in material order.
func (h *NumericHandler) relax(x, params []float64) {
	for i := range h.slots {
		slot := h.slots[i]
		frame := slot.material.Definition().Frame
		store := slot.material.Definition().Store
		values, err := store.ValuesFor(frame.ParameterStructure())
		if err != nil {
			continue
		}
		slice := x[slot.offset : slot.offset+slot.length]
		flow := slot.material.Kind() == thermo.FlowMaterial
		frame.Relax(&thermo.RelaxContext{
			State: slice,
			Prop: func(name string) []float64 {
				props, _, err := frame.Call(slice, values, flow)
				if err != nil {
					return nil
				}
				q, ok := props[name]
				if !ok {
					return nil
				}
				return q.Floats()
			},
		})
	}
}

// materialProps evaluates the numeric properties of one material at the
// current state.
func (h *NumericHandler) materialProps(slot materialSlot) (
	map[string]units.Quantity, error) {
	frame := slot.material.Definition().Frame
	store := slot.material.Definition().Store
	values, err := store.ValuesFor(frame.ParameterStructure())
	if err != nil {
		return nil, err
	}
	slice := h.x[slot.offset : slot.offset+slot.length]
	flow := slot.material.Kind() == thermo.FlowMaterial
	props, _, err := frame.Call(slice, values, flow)
	return props, err
}

// ExportState renders the current state as nested quantity strings, per
// material as {T, p, n{...}}.
func (h *NumericHandler) ExportState() (map[string]any, error) {
	if h.x == nil {
		if _, err := h.Arguments(); err != nil {
			return nil, err
		}
	}
	thermoPart := map[string]any{}
	for _, slot := range h.slots {
		props, err := h.materialProps(slot)
		if err != nil {
			return nil, err
		}
		molUnit := "mol"
		if slot.material.Kind() == thermo.FlowMaterial {
			molUnit = "mol/s"
		}
		tStr, err := props["T"].Format("K")
		if err != nil {
			return nil, err
		}
		pStr, err := props["p"].Format("bar")
		if err != nil {
			return nil, err
		}
		n := map[string]any{}
		species := slot.material.Species()
		for i, s := range species {
			str, err := props["n"].Index(i).Format(molUnit)
			if err != nil {
				return nil, err
			}
			n[s] = str
		}
		thermoPart[slot.path] = map[string]any{
			"T": tStr, "p": pStr, "n": n,
		}
	}
	return map[string]any{
		"thermo":        thermoPart,
		"non-canonical": map[string]any{},
	}, nil
}

// ImportState parses a previously exported state and rebuilds x from it.
// Round-tripping export and import reproduces the state up to unit
// conversion tolerance.
func (h *NumericHandler) ImportState(state map[string]any) error {
	thermoPart, ok := state["thermo"].(map[string]any)
	if !ok {
		return fmt.Errorf("eqosim: state has no thermo section")
	}
	for i := range h.slots {
		slot := &h.slots[i]
		raw, ok := thermoPart[slot.path].(map[string]any)
		if !ok {
			continue
		}
		parsed, err := units.ParseQuantitiesInStruct(raw)
		if err != nil {
			return fmt.Errorf("material %q: %w", slot.path, err)
		}
		temperature, ok := parsed["T"].(units.Quantity)
		if !ok {
			return fmt.Errorf("eqosim: material %q misses T", slot.path)
		}
		pressure, ok := parsed["p"].(units.Quantity)
		if !ok {
			return fmt.Errorf("eqosim: material %q misses p", slot.path)
		}
		nRaw, ok := parsed["n"].(map[string]any)
		if !ok {
			return fmt.Errorf("eqosim: material %q misses n", slot.path)
		}
		mol := units.QuantityDict{}
		for s, v := range nRaw {
			q, ok := v.(units.Quantity)
			if !ok {
				return fmt.Errorf("eqosim: material %q: species %q is not "+
					"a quantity", slot.path, s)
			}
			mol[s] = q
		}
		slot.material.SetInitialState(thermo.InitialState{
			Temperature: temperature,
			Pressure:    pressure,
			MolVector:   mol,
		})
	}
	h.args = nil
	_, err := h.Arguments()
	return err
}

// qualifiedStateName maps a state index onto the owning material.
func (h *NumericHandler) qualifiedStateName(idx int) string {
	for _, slot := range h.slots {
		if idx >= slot.offset && idx < slot.offset+slot.length {
			return fmt.Sprintf("%s/x[%d]", slot.path, idx-slot.offset)
		}
	}
	return fmt.Sprintf("x[%d]", idx)
}
