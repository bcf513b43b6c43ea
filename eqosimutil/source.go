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

package eqosimutil

import (
	"sort"

	"github.com/eqosim/eqosim"
	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// SourceModel pins selected properties of one material flow to specified
// values: one residual per specification, e.g. T, p, and a total flow or
// volume. This is the workhorse model of the CLI harness.
type SourceModel struct {
	// Definition is the material to instantiate.
	Definition *thermo.MaterialDefinition
	// Specs maps a material property name to its target quantity string,
	// e.g. {"T": "25 degC", "p": "1 bar", "V": "10 m^3/h"}.
	Specs map[string]string
	// TolUnits optionally overrides the tolerance unit per spec; the
	// default is the SI spelling of the target's dimension.
	TolUnits map[string]string
}

func (m *SourceModel) sortedSpecs() []string {
	keys := make([]string, 0, len(m.Specs))
	for k := range m.Specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface implements eqosim.Model.
func (m *SourceModel) Interface(ifc *eqosim.Interface) {
	for _, name := range m.sortedSpecs() {
		q, err := units.Parse(m.Specs[name])
		if err != nil {
			panic(err)
		}
		vals, _ := q.In(q.Unit().String())
		ifc.Parameter(name, vals[0], q.Unit().String())
	}
}

// Define implements eqosim.Model.
func (m *SourceModel) Define(def *eqosim.Definition) {
	flow := def.CreateFlow("source", m.Definition)
	for _, name := range m.sortedSpecs() {
		param := def.Param(name)
		tolUnit := param.Unit().Dim().String()
		if m.TolUnits != nil && m.TolUnits[name] != "" {
			tolUnit = m.TolUnits[name]
		}
		def.AddResidual(name, param.Sub(flow.Prop(name)), tolUnit)
	}
}
