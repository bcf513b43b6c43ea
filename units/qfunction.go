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
	"fmt"

	"github.com/eqosim/eqosim/graph"
)

// QFunction compiles a callable whose inputs and outputs are nested
// dictionaries of quantities. The argument structure is fixed at
// construction; calls check dimensional compatibility of every leaf and
// return results in the declared units.
type QFunction struct {
	fn      *graph.Function
	name    string
	argKey  []string
	argQ    []Quantity
	resKey  []string
	resQ    []Quantity
	jacs    []*graph.Jacobian
	jacBase int // output index of the first Jacobian vector
}

// NewQFunction compiles the symbolic result structure as a function of the
// symbolic argument structure. Optional Jacobians (built with
// graph.JacobianOf over the same symbols) are evaluated alongside.
func NewQFunction(name string, args, results QStruct,
	jacs ...*graph.Jacobian) (*QFunction, error) {
	argKey, argQ, err := FlattenQuantities(args)
	if err != nil {
		return nil, fmt.Errorf("arguments of %s: %w", name, err)
	}
	resKey, resQ, err := FlattenQuantities(results)
	if err != nil {
		return nil, fmt.Errorf("results of %s: %w", name, err)
	}

	inputs := make([][]*graph.Node, len(argQ))
	for i, q := range argQ {
		inputs[i] = q.Nodes()
	}
	outputs := make([][]*graph.Node, len(resQ), len(resQ)+len(jacs))
	for i, q := range resQ {
		outputs[i] = q.Nodes()
	}
	for _, j := range jacs {
		outputs = append(outputs, j.Expr)
	}
	fn, err := graph.Compile(inputs, outputs)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, err)
	}
	return &QFunction{
		fn:      fn,
		name:    name,
		argKey:  argKey,
		argQ:    argQ,
		resKey:  resKey,
		resQ:    resQ,
		jacs:    jacs,
		jacBase: len(resQ),
	}, nil
}

// Call evaluates the function for numeric argument quantities. Every leaf
// of args must be present and dimensionally compatible with the declared
// argument structure.
func (f *QFunction) Call(args QStruct) (QStruct, error) {
	out, _, err := f.call(args)
	return out, err
}

// CallWithJacobians additionally returns the numeric Jacobians registered
// at construction, in registration order.
func (f *QFunction) CallWithJacobians(args QStruct) (QStruct, []*graph.CSC, error) {
	return f.call(args)
}

func (f *QFunction) call(args QStruct) (QStruct, []*graph.CSC, error) {
	keys, qs, err := FlattenQuantities(args)
	if err != nil {
		return nil, nil, fmt.Errorf("calling %s: %w", f.name, err)
	}
	if len(keys) != len(f.argKey) {
		return nil, nil, fmt.Errorf(
			"calling %s: got %d argument leaves, expected %d",
			f.name, len(keys), len(f.argKey))
	}
	in := make([][]float64, len(f.argQ))
	for i, key := range keys {
		if key != f.argKey[i] {
			return nil, nil, fmt.Errorf(
				"calling %s: argument %q does not match declared %q",
				f.name, key, f.argKey[i])
		}
		want := f.argQ[i]
		if !qs[i].Unit().Dim().Equal(want.Unit().Dim()) {
			return nil, nil, &DimensionMismatchError{Msg: fmt.Sprintf(
				"argument %q of %s has dimension %s, expected %s",
				key, f.name, qs[i].Unit(), want.Unit())}
		}
		if qs[i].Len() != want.Len() {
			return nil, nil, fmt.Errorf(
				"calling %s: argument %q has %d elements, expected %d",
				f.name, key, qs[i].Len(), want.Len())
		}
		in[i] = qs[i].Floats()
	}
	raw, err := f.fn.Eval(in)
	if err != nil {
		return nil, nil, err
	}
	resVals := make([]any, len(f.resQ))
	for i := range f.resQ {
		resVals[i] = newConst(raw[i], f.resQ[i].Unit())
	}
	result := UnflattenStruct(f.resKey, resVals, Sep)
	matrices := make([]*graph.CSC, len(f.jacs))
	for i, j := range f.jacs {
		m := j.Pattern()
		copy(m.Val, raw[f.jacBase+i])
		matrices[i] = m
	}
	return result, matrices, nil
}

// ArgStructure returns the nested argument structure with unit strings as
// leaf values.
func (f *QFunction) ArgStructure() map[string]any {
	vals := make([]any, len(f.argQ))
	for i, q := range f.argQ {
		vals[i] = q.Unit().String()
	}
	return UnflattenStruct(f.argKey, vals, Sep)
}

// ResultStructure returns the nested result structure with unit strings as
// leaf values.
func (f *QFunction) ResultStructure() map[string]any {
	vals := make([]any, len(f.resQ))
	for i, q := range f.resQ {
		vals[i] = q.Unit().String()
	}
	return UnflattenStruct(f.resKey, vals, Sep)
}
