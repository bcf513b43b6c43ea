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
	"sync"

	"github.com/eqosim/eqosim/units"
)

// InitialState specifies a material state in terms of temperature,
// pressure and molar quantities, regardless of the frame's internal
// coordinates.
type InitialState struct {
	Temperature units.Quantity
	Pressure    units.Quantity
	MolVector   units.QuantityDict
}

// StandardInitialState returns 25 degC, 1 atm, and one mole per species.
func StandardInitialState(species []string) InitialState {
	n := units.QuantityDict{}
	for _, s := range species {
		n[s] = units.New(1, "mol")
	}
	return InitialState{
		Temperature: units.New(25, "degC"),
		Pressure:    units.New(1, "atm"),
		MolVector:   n,
	}
}

// StateDefinition interprets the raw state vector as physical properties.
// It is the implicit first contribution of every frame: it publishes
// "_state", "T", the pressure-or-volume entry, and "n".
type StateDefinition interface {
	// Prepare reads "_state" from the property table and publishes the
	// physical interpretation of its entries.
	Prepare(ctx *Context)
	// Reverse maps an initial (T, p, n) specification onto the raw state
	// vector as far as possible; unknown entries are NaN.
	Reverse(init InitialState, species []string) []float64
	// Name returns the registered name of the definition.
	Name() string
}

var (
	stateMu       sync.RWMutex
	stateRegistry = map[string]StateDefinition{}
)

// RegisterState adds a state definition to the process-wide registry.
func RegisterState(def StateDefinition) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if _, ok := stateRegistry[def.Name()]; ok {
		panic(fmt.Sprintf("thermo: state %q registered twice", def.Name()))
	}
	stateRegistry[def.Name()] = def
}

// LookupState resolves a registered state definition.
func LookupState(name string) (StateDefinition, bool) {
	stateMu.RLock()
	defer stateMu.RUnlock()
	def, ok := stateRegistry[name]
	return def, ok
}

// GibbsState interprets the raw vector as [T, p, n_0 … n_{k-1}].
type GibbsState struct{}

// Name implements StateDefinition.
func (GibbsState) Name() string { return "GibbsState" }

// Prepare implements StateDefinition.
func (GibbsState) Prepare(ctx *Context) {
	state := ctx.Props.Get("_state")
	molUnit := "mol"
	if ctx.Flow {
		molUnit = "mol/s"
	}
	ctx.Props.Set("T", reinterpret(state.Index(0), "K"))
	ctx.Props.Set("p", reinterpret(state.Index(1), "Pa"))
	n := make([]units.Quantity, len(ctx.Species))
	for i := range ctx.Species {
		n[i] = reinterpret(state.Index(2+i), molUnit)
	}
	ctx.Props.Set("n", units.Vertcat(n...))
	ctx.Props.DeclareVector("n", ctx.Species)
}

// Reverse implements StateDefinition.
func (GibbsState) Reverse(init InitialState, species []string) []float64 {
	out := []float64{
		init.Temperature.Float(),
		init.Pressure.Float(),
	}
	for _, s := range species {
		out = append(out, init.MolVector[s].Float())
	}
	return out
}

// HelmholtzState interprets the raw vector as [T, V, n_0 … n_{k-1}].
type HelmholtzState struct{}

// Name implements StateDefinition.
func (HelmholtzState) Name() string { return "HelmholtzState" }

// Prepare implements StateDefinition.
func (HelmholtzState) Prepare(ctx *Context) {
	state := ctx.Props.Get("_state")
	molUnit, volUnit := "mol", "m**3"
	if ctx.Flow {
		molUnit, volUnit = "mol/s", "m**3/s"
	}
	ctx.Props.Set("T", reinterpret(state.Index(0), "K"))
	ctx.Props.Set("V", reinterpret(state.Index(1), volUnit))
	n := make([]units.Quantity, len(ctx.Species))
	for i := range ctx.Species {
		n[i] = reinterpret(state.Index(2+i), molUnit)
	}
	ctx.Props.Set("n", units.Vertcat(n...))
	ctx.Props.DeclareVector("n", ctx.Species)
}

// Reverse implements StateDefinition. The volume entry is left NaN; a
// contribution's Initializer implementation completes it.
func (HelmholtzState) Reverse(init InitialState, species []string) []float64 {
	out := []float64{init.Temperature.Float(), math.NaN()}
	for _, s := range species {
		out = append(out, init.MolVector[s].Float())
	}
	return out
}

// reinterpret attaches a unit to a raw dimensionless state entry.
func reinterpret(q units.Quantity, unit string) units.Quantity {
	u, err := units.ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	return units.FromNodes(q.Nodes(), u)
}

func init() {
	RegisterState(GibbsState{})
	RegisterState(HelmholtzState{})
}
