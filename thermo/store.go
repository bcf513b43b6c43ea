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
	"sort"
	"strings"

	"github.com/eqosim/eqosim/units"
)

// Source provides thermodynamic parameter values by path.
type Source interface {
	// Get resolves a parameter path such as
	// ["H0S0ReferenceState", "dh_form", "H2O"].
	Get(path []string) (units.Quantity, bool)
}

// NestedSource serves parameters from a nested dictionary of quantities.
type NestedSource struct {
	data units.QStruct
}

// NewNestedSource wraps a nested quantity dictionary.
func NewNestedSource(data units.QStruct) *NestedSource {
	return &NestedSource{data: data}
}

// NewStringSource parses a nested dictionary whose leaves are quantity
// strings such as "-241.826 kJ/mol".
func NewStringSource(data map[string]any) (*NestedSource, error) {
	parsed, err := units.ParseQuantitiesInStruct(data)
	if err != nil {
		return nil, err
	}
	return &NestedSource{data: parsed}, nil
}

// Get implements Source.
func (s *NestedSource) Get(path []string) (units.Quantity, bool) {
	var node any = s.data
	for _, p := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return units.Quantity{}, false
		}
		node, ok = m[p]
		if !ok {
			return units.Quantity{}, false
		}
	}
	q, ok := node.(units.Quantity)
	return q, ok
}

// MissingParameterError reports parameters that no source of a store can
// resolve when a solve is requested.
type MissingParameterError struct {
	Store string
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("thermo: store %q is missing parameter values: %s",
		e.Store, strings.Join(e.Names, ", "))
}

// ParameterStore connects thermodynamic models with their parameter
// values. Materials register parameter symbols once, shared across all
// frames drawing on the store; values are looked up through an ordered
// source list where the first match wins. The store is append-only during
// assembly and read-only during solves; multiple material definitions may
// share one store.
type ParameterStore struct {
	name    string
	sources []struct {
		name string
		src  Source
	}
	symbols units.QStruct
	units   map[string]string // path → unit spelling used at registration
	paths   []string
}

// NewParameterStore creates an empty store with the given name. The name
// prefixes the parameter symbol names, so stores used in one model must
// have unique names.
func NewParameterStore(name string) *ParameterStore {
	return &ParameterStore{
		name:    name,
		symbols: units.QStruct{},
		units:   map[string]string{},
	}
}

// Name returns the store name.
func (ps *ParameterStore) Name() string { return ps.name }

// AddSource appends a parameter source. Later sources are lower-priority
// fallbacks: lookup walks the list in order and the first match wins, so
// adding a source never changes an already-resolved lookup.
func (ps *ParameterStore) AddSource(name string, src Source) error {
	for _, s := range ps.sources {
		if s.name == name {
			return fmt.Errorf("thermo: source %q already added to store %q",
				name, ps.name)
		}
	}
	ps.sources = append(ps.sources, struct {
		name string
		src  Source
	}{name, src})
	return nil
}

// GetSymbols resolves a parameter structure skeleton (nested unit-string
// leaves, as produced by Frame.ParameterStructure) into shared parameter
// symbols, creating them on first request. Dimensions of repeated
// requests must agree.
func (ps *ParameterStore) GetSymbols(skeleton map[string]any) (units.QStruct, error) {
	var build func(path []string, node any) (any, error)
	build = func(path []string, node any) (any, error) {
		switch leaf := node.(type) {
		case map[string]any:
			out := units.QStruct{}
			for k, v := range leaf {
				sub, err := build(append(path, k), v)
				if err != nil {
					return nil, err
				}
				out[k] = sub
			}
			return out, nil
		case string:
			key := strings.Join(path, ".")
			wanted, err := units.ParseUnit(leaf)
			if err != nil {
				return nil, err
			}
			if q, ok := ps.lookupSymbol(path); ok {
				if !q.Unit().Dim().Equal(wanted.Dim()) {
					return nil, &units.DimensionMismatchError{
						Msg: fmt.Sprintf(
							"parameter %q registered with dimension %s, "+
								"requested as %s", key, q.Unit(), wanted)}
				}
				return q, nil
			}
			q := units.NewSymbol(ps.name+"."+key, leaf)
			ps.storeSymbol(path, q, leaf)
			return q, nil
		default:
			return nil, fmt.Errorf(
				"thermo: parameter skeleton leaf %q has type %T", path, node)
		}
	}
	out, err := build(nil, skeleton)
	if err != nil {
		return nil, err
	}
	return out.(units.QStruct), nil
}

func (ps *ParameterStore) lookupSymbol(path []string) (units.Quantity, bool) {
	var node any = ps.symbols
	for _, p := range path {
		m, ok := node.(units.QStruct)
		if !ok {
			return units.Quantity{}, false
		}
		node, ok = m[p]
		if !ok {
			return units.Quantity{}, false
		}
	}
	q, ok := node.(units.Quantity)
	return q, ok
}

func (ps *ParameterStore) storeSymbol(path []string, q units.Quantity, unit string) {
	node := ps.symbols
	for _, p := range path[:len(path)-1] {
		child, ok := node[p].(units.QStruct)
		if !ok {
			child = units.QStruct{}
			node[p] = child
		}
		node = child
	}
	node[path[len(path)-1]] = q
	key := strings.Join(path, units.Sep)
	ps.units[key] = unit
	ps.paths = append(ps.paths, key)
	sort.Strings(ps.paths)
}

// GetAllSymbols returns all registered parameter symbols.
func (ps *ParameterStore) GetAllSymbols() units.QStruct { return ps.symbols }

// GetAllValues resolves every registered symbol against the source list.
// A *MissingParameterError reports symbols no source can serve.
func (ps *ParameterStore) GetAllValues() (units.QStruct, error) {
	missing := ps.GetMissingSymbols()
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for k := range missing {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, &MissingParameterError{Store: ps.name, Names: names}
	}
	keys := make([]string, len(ps.paths))
	vals := make([]any, len(ps.paths))
	for i, key := range ps.paths {
		q, _, _ := ps.resolve(strings.Split(key, units.Sep))
		keys[i] = key
		vals[i] = q
	}
	return units.UnflattenStruct(keys, vals, units.Sep), nil
}

// GetMissingSymbols returns the registered parameters not covered by any
// source, mapped onto their registration unit.
func (ps *ParameterStore) GetMissingSymbols() map[string]string {
	missing := map[string]string{}
	for _, key := range ps.paths {
		if _, _, ok := ps.resolve(strings.Split(key, units.Sep)); !ok {
			missing[key] = ps.units[key]
		}
	}
	return missing
}

// GetSourceNames reports, for every resolvable parameter, the name of the
// source serving it.
func (ps *ParameterStore) GetSourceNames() map[string]string {
	out := map[string]string{}
	for _, key := range ps.paths {
		if _, src, ok := ps.resolve(strings.Split(key, units.Sep)); ok {
			out[key] = src
		}
	}
	return out
}

// ValuesFor resolves the values for one frame's parameter structure
// skeleton, as a subset of the store content. Stores shared by several
// frames carry the union of their needs; a frame function only accepts
// its own shape.
func (ps *ParameterStore) ValuesFor(skeleton map[string]any) (units.QStruct, error) {
	var build func(path []string, node any) (any, error)
	build = func(path []string, node any) (any, error) {
		switch leaf := node.(type) {
		case map[string]any:
			out := units.QStruct{}
			for k, v := range leaf {
				sub, err := build(append(path, k), v)
				if err != nil {
					return nil, err
				}
				out[k] = sub
			}
			return out, nil
		case string:
			q, _, ok := ps.resolve(path)
			if !ok {
				return nil, &MissingParameterError{Store: ps.name,
					Names: []string{strings.Join(path, units.Sep)}}
			}
			return q, nil
		default:
			return nil, fmt.Errorf(
				"thermo: parameter skeleton leaf %q has type %T", path, node)
		}
	}
	out, err := build(nil, skeleton)
	if err != nil {
		return nil, err
	}
	return out.(units.QStruct), nil
}

// resolve walks the source list in order; the first match wins.
func (ps *ParameterStore) resolve(path []string) (units.Quantity, string, bool) {
	sym, _ := ps.lookupSymbol(path)
	for _, s := range ps.sources {
		q, ok := s.src.Get(path)
		if !ok {
			continue
		}
		if !q.Unit().Dim().Equal(sym.Unit().Dim()) {
			panic(&units.DimensionMismatchError{Msg: fmt.Sprintf(
				"source %q serves %q with dimension %s, registered as %s",
				s.name, strings.Join(path, "."), q.Unit(), sym.Unit())})
		}
		return q, s.name, true
	}
	return units.Quantity{}, "", false
}
