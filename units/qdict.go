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
	"sort"

	"github.com/eqosim/eqosim/graph"
)

// QuantityDict maps species (or element) names to scalar quantities
// sharing one dimension. Element-wise addition and subtraction treat
// absent keys as zero; the result key set is the union.
type QuantityDict map[string]Quantity

// FromVectorQuantity splits a vector quantity into a dictionary keyed by
// the given names.
func FromVectorQuantity(q Quantity, keys []string) QuantityDict {
	d := make(QuantityDict, len(keys))
	for i, k := range keys {
		d[k] = q.Index(i)
	}
	return d
}

// SortedKeys returns the key set in lexicographic order.
func (d QuantityDict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Vector concatenates the entries for the given keys into one vector
// quantity. Missing keys are zero.
func (d QuantityDict) Vector(keys []string) Quantity {
	var zeroUnit Unit
	for _, q := range d {
		zeroUnit = q.unit
		break
	}
	nodes := make([]*graph.Node, len(keys))
	for i, k := range keys {
		if q, ok := d[k]; ok {
			nodes[i] = q.nodes[0]
		} else {
			nodes[i] = graph.Const(0)
		}
	}
	return Quantity{nodes: nodes, unit: zeroUnit}
}

// Add returns the element-wise sum over the union of keys.
func (d QuantityDict) Add(o QuantityDict) QuantityDict {
	out := make(QuantityDict, len(d)+len(o))
	for k, q := range d {
		out[k] = q
	}
	for k, q := range o {
		if prev, ok := out[k]; ok {
			out[k] = prev.Add(q)
		} else {
			out[k] = q
		}
	}
	return out
}

// Sub returns the element-wise difference over the union of keys.
func (d QuantityDict) Sub(o QuantityDict) QuantityDict {
	out := make(QuantityDict, len(d)+len(o))
	for k, q := range d {
		out[k] = q
	}
	for k, q := range o {
		if prev, ok := out[k]; ok {
			out[k] = prev.Sub(q)
		} else {
			out[k] = q.Neg()
		}
	}
	return out
}

// Sum adds all entries into one scalar quantity.
func (d QuantityDict) Sum() Quantity {
	keys := d.SortedKeys()
	if len(keys) == 0 {
		panic(&DimensionMismatchError{Msg: "sum of empty QuantityDict"})
	}
	acc := d[keys[0]]
	for _, k := range keys[1:] {
		acc = acc.Add(d[k])
	}
	return acc
}
