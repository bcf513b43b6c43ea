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
	"sort"
	"strings"
)

// Sep is the path separator used when flattening nested structures.
const Sep = "/"

// QStruct is a nested dictionary whose leaves are Quantity values (or,
// for structure skeletons, unit strings). It is the exchange type between
// the quantity layer and compiled functions.
type QStruct = map[string]any

// FlattenStruct flattens a nested dictionary into path-keyed entries with
// deterministic (sorted) key order.
func FlattenStruct(nested map[string]any, sep string) (keys []string, values []any) {
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		sub := make([]string, 0, len(node))
		for k := range node {
			sub = append(sub, k)
		}
		sort.Strings(sub)
		for _, k := range sub {
			path := k
			if prefix != "" {
				path = prefix + sep + k
			}
			if child, ok := node[k].(map[string]any); ok {
				walk(path, child)
				continue
			}
			keys = append(keys, path)
			values = append(values, node[k])
		}
	}
	walk("", nested)
	return keys, values
}

// UnflattenStruct is the inverse of FlattenStruct.
func UnflattenStruct(keys []string, values []any, sep string) map[string]any {
	root := map[string]any{}
	for i, key := range keys {
		parts := strings.Split(key, sep)
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = values[i]
	}
	return root
}

// FlattenQuantities flattens a QStruct into ordered quantity leaves.
// Non-quantity leaves are rejected.
func FlattenQuantities(nested QStruct) (keys []string, qs []Quantity, err error) {
	rawKeys, rawVals := FlattenStruct(nested, Sep)
	qs = make([]Quantity, len(rawVals))
	for i, v := range rawVals {
		q, ok := v.(Quantity)
		if !ok {
			return nil, nil, fmt.Errorf(
				"units: leaf %q is %T, not a Quantity", rawKeys[i], v)
		}
		qs[i] = q
	}
	return rawKeys, qs, nil
}

// ParseQuantitiesInStruct recursively converts string leaves such as
// "25 degC" into quantities. Numeric leaves become dimensionless
// quantities.
func ParseQuantitiesInStruct(nested map[string]any) (QStruct, error) {
	out := make(QStruct, len(nested))
	for k, v := range nested {
		switch leaf := v.(type) {
		case map[string]any:
			sub, err := ParseQuantitiesInStruct(leaf)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		case string:
			q, err := Parse(leaf)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", k, err)
			}
			out[k] = q
		case float64:
			out[k] = New(leaf, "dimless")
		case int:
			out[k] = New(float64(leaf), "dimless")
		case Quantity:
			out[k] = leaf
		default:
			return nil, fmt.Errorf("units: entry %q has unsupported type %T", k, v)
		}
	}
	return out, nil
}

// UnitsOfStruct maps a QStruct onto the same structure with unit strings
// as leaves.
func UnitsOfStruct(nested QStruct) map[string]any {
	out := make(map[string]any, len(nested))
	for k, v := range nested {
		switch leaf := v.(type) {
		case map[string]any:
			out[k] = UnitsOfStruct(leaf)
		case Quantity:
			out[k] = leaf.Unit().String()
		default:
			out[k] = fmt.Sprintf("%v", leaf)
		}
	}
	return out
}

// MCounter is a mergeable sparse counter. It supports addition, scalar
// multiplication and a dot product with a dictionary of quantities, which
// keeps symbolic residual assembly free of dense intermediates.
type MCounter map[string]int

// Add merges two counters.
func (c MCounter) Add(o MCounter) MCounter {
	out := make(MCounter, len(c)+len(o))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range o {
		out[k] += v
		if out[k] == 0 {
			delete(out, k)
		}
	}
	return out
}

// Scale multiplies all counts by an integer factor.
func (c MCounter) Scale(f int) MCounter {
	if f == 0 {
		return MCounter{}
	}
	out := make(MCounter, len(c))
	for k, v := range c {
		out[k] = f * v
	}
	return out
}

// Dot contracts the counter with a quantity dictionary:
// Σ count_k · q_k over the keys present in both.
func (c MCounter) Dot(d QuantityDict) Quantity {
	keys := make([]string, 0, len(c))
	for k := range c {
		if _, ok := d[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		panic(&DimensionMismatchError{Msg: "MCounter dot with disjoint keys"})
	}
	acc := d[keys[0]].Scale(float64(c[keys[0]]))
	for _, k := range keys[1:] {
		acc = acc.Add(d[k].Scale(float64(c[k])))
	}
	return acc
}
