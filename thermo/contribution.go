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
	"sync"

	"github.com/eqosim/eqosim/units"
)

// Options carries the per-instance configuration of a contribution, as
// given in the model-structure file (e.g. the target of a mixing rule).
type Options map[string]any

// Text returns a string-valued option, or the fallback.
func (o Options) Text(key, fallback string) string {
	if v, ok := o[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return fallback
}

// Pairs returns an option holding species name pairs, as used for binary
// interaction parameters: a list of two-element lists.
func (o Options) Pairs(key string) [][2]string {
	raw, ok := o[key].([]any)
	if !ok {
		return nil
	}
	var out [][2]string
	for _, entry := range raw {
		pair, ok := entry.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		out = append(out, [2]string{
			fmt.Sprintf("%v", pair[0]), fmt.Sprintf("%v", pair[1])})
	}
	return out
}

// MissingRequirementError reports a contribution reading a property that no
// earlier contribution (nor the state definition) has published.
type MissingRequirementError struct {
	Contribution string
	Property     string
}

func (e *MissingRequirementError) Error() string {
	return fmt.Sprintf(
		"thermo: contribution %q requires property %q, which no earlier "+
			"contribution provides", e.Contribution, e.Property)
}

// Props is the shared property table a frame's contributions read from and
// write to, in declared order. Earlier outputs shadow later reads.
type Props struct {
	current string // name of the contribution being defined
	m       map[string]units.Quantity
	order   []string
	vectors map[string][]string
}

func newProps() *Props {
	return &Props{
		m:       map[string]units.Quantity{},
		vectors: map[string][]string{},
	}
}

// Get returns a published property; a missing name is an interface
// violation of the current contribution.
func (p *Props) Get(name string) units.Quantity {
	q, ok := p.m[name]
	if !ok {
		panic(&MissingRequirementError{Contribution: p.current, Property: name})
	}
	return q
}

// Has reports whether a property has been published.
func (p *Props) Has(name string) bool {
	_, ok := p.m[name]
	return ok
}

// Set publishes or updates a property.
func (p *Props) Set(name string, q units.Quantity) {
	if _, ok := p.m[name]; !ok {
		p.order = append(p.order, name)
	}
	p.m[name] = q
}

// DeclareVector registers the sub-keys of a vector property, so that it
// can be presented as a dictionary keyed by species (or element) names.
func (p *Props) DeclareVector(name string, keys []string) {
	p.vectors[name] = keys
}

// Names returns the property names in publication order.
func (p *Props) Names() []string { return append([]string{}, p.order...) }

// VectorKeys returns the registered sub-key sets.
func (p *Props) VectorKeys() map[string][]string { return p.vectors }

// Bound is a named expression that must stay strictly positive for the
// state to remain inside the model domain.
type Bound struct {
	Name string
	Q    units.Quantity
}

// Bounds collects the positivity bounds of a frame in declaration order.
type Bounds struct {
	list []Bound
}

// Add appends a bound. The name is qualified with the contribution name by
// the frame.
func (b *Bounds) Add(name string, q units.Quantity) {
	b.list = append(b.list, Bound{Name: name, Q: q})
}

// List returns the bounds in declaration order.
func (b *Bounds) List() []Bound { return append([]Bound{}, b.list...) }

// ParameterDictionary registers the parameters a contribution requires.
// During standalone frame compilation it creates fresh symbol quantities;
// when a provider structure is attached (material assembly), registration
// resolves against the provided symbols instead, checking dimensions.
type ParameterDictionary struct {
	prefix   string
	root     units.QStruct
	provider units.QStruct
}

// NewParameterDictionary creates an empty dictionary whose symbols are
// name-prefixed with the given path.
func NewParameterDictionary(prefix string) *ParameterDictionary {
	return &ParameterDictionary{prefix: prefix, root: units.QStruct{}}
}

func (pd *ParameterDictionary) withProvider(prefix string, provider units.QStruct) *ParameterDictionary {
	return &ParameterDictionary{
		prefix:   prefix,
		root:     units.QStruct{},
		provider: provider,
	}
}

// Struct returns the registered structure with quantity leaves.
func (pd *ParameterDictionary) Struct() units.QStruct { return pd.root }

// Empty reports whether nothing has been registered.
func (pd *ParameterDictionary) Empty() bool { return len(pd.root) == 0 }

func (pd *ParameterDictionary) provided(path ...string) (units.Quantity, bool) {
	if pd.provider == nil {
		return units.Quantity{}, false
	}
	var node any = pd.provider
	for _, p := range path {
		m, ok := node.(units.QStruct)
		if !ok {
			m2, ok2 := node.(map[string]any)
			if !ok2 {
				return units.Quantity{}, false
			}
			m = m2
		}
		node, ok = m[p]
		if !ok {
			return units.Quantity{}, false
		}
	}
	q, ok := node.(units.Quantity)
	return q, ok
}

// Scalar registers (or resolves) a scalar parameter of the given unit.
func (pd *ParameterDictionary) Scalar(key, unit string) units.Quantity {
	if q, ok := pd.provided(key); ok {
		pd.root[key] = q
		return q
	}
	q := units.NewSymbol(pd.prefix+"."+key, unit)
	pd.root[key] = q
	return q
}

// Vector registers a per-species parameter vector with the given unit and
// returns it concatenated in sub-key order.
func (pd *ParameterDictionary) Vector(key string, subKeys []string, unit string) units.Quantity {
	sub := units.QStruct{}
	elems := make([]units.Quantity, len(subKeys))
	for i, s := range subKeys {
		if q, ok := pd.provided(key, s); ok {
			sub[s] = q
			elems[i] = q
			continue
		}
		q := units.NewSymbol(pd.prefix+"."+key+"."+s, unit)
		sub[s] = q
		elems[i] = q
	}
	pd.root[key] = sub
	return units.Vertcat(elems...)
}

// SparseMatrix registers per-pair parameters and returns them with their
// key pairs for iteration.
type SparseMatrix struct {
	Pairs   [][2]string
	Entries []units.Quantity
}

// SparseMatrix registers a two-level sparse parameter matrix over the
// given species pairs.
func (pd *ParameterDictionary) SparseMatrix(key string, pairs [][2]string, unit string) *SparseMatrix {
	sm := &SparseMatrix{Pairs: pairs}
	outer := units.QStruct{}
	for _, pair := range pairs {
		first, second := pair[0], pair[1]
		var q units.Quantity
		if prov, ok := pd.provided(key, first, second); ok {
			q = prov
		} else {
			q = units.NewSymbol(
				pd.prefix+"."+key+"."+first+"."+second, unit)
		}
		inner, ok := outer[first].(units.QStruct)
		if !ok {
			inner = units.QStruct{}
			outer[first] = inner
		}
		inner[second] = q
		sm.Entries = append(sm.Entries, q)
	}
	pd.root[key] = outer
	return sm
}

// Context is handed to a contribution's Define call: the species set of
// the frame, the instance options, the shared property table, the bound
// collector, and the parameter registry.
type Context struct {
	Species []string
	Defs    map[string]*SpeciesDefinition
	Options Options
	Props   *Props
	Bounds  *Bounds
	Params  *ParameterDictionary
	Flow    bool
}

// SpeciesIndex returns the index of a species in the frame order.
func (c *Context) SpeciesIndex(name string) int {
	for i, s := range c.Species {
		if s == name {
			return i
		}
	}
	panic(&MissingRequirementError{
		Contribution: c.Props.current, Property: "species " + name})
}

// Contribution is one composable building block of a thermodynamic state
// function. Define reads named quantities published by earlier
// contributions (or the state definition), publishes its own, registers
// parameters, and may add positivity bounds.
type Contribution interface {
	Define(ctx *Context)
}

// RelaxContext carries the numeric data a relax hook may use to project a
// freshly stepped state slice back onto the physical branch of its model.
// The hook mutates State in place.
type RelaxContext struct {
	State []float64
	// Prop evaluates a named frame property at the current State,
	// returning its SI magnitudes.
	Prop func(name string) []float64
}

// Relaxer is implemented by contributions that project the state after a
// solver step, e.g. a cubic EOS keeping its volume on the selected root.
type Relaxer interface {
	Relax(ctx *RelaxContext)
}

// Initializer is implemented by contributions that can complete a raw
// state vector from a (T, p, n) specification; the topmost implementation
// in a frame wins. Gibbs frames need none.
type Initializer interface {
	InitialState(init InitialState, props map[string][]float64) []float64
}

// Constructor builds a contribution instance for a species set and an
// option map.
type Constructor func(species []string, defs map[string]*SpeciesDefinition, options Options) (Contribution, error)

var (
	contribMu       sync.RWMutex
	contribRegistry = map[string]Constructor{}
)

// RegisterContribution adds a contribution class to the process-wide
// registry. The registry is append-only and read-only during assembly.
func RegisterContribution(name string, c Constructor) {
	contribMu.Lock()
	defer contribMu.Unlock()
	if _, ok := contribRegistry[name]; ok {
		panic(fmt.Sprintf("thermo: contribution %q registered twice", name))
	}
	contribRegistry[name] = c
}

// LookupContribution resolves a registered contribution class.
func LookupContribution(name string) (Constructor, bool) {
	contribMu.RLock()
	defer contribMu.RUnlock()
	c, ok := contribRegistry[name]
	return c, ok
}

// ContributionNames lists the registered classes, sorted.
func ContributionNames() []string {
	contribMu.RLock()
	defer contribMu.RUnlock()
	names := make([]string, 0, len(contribRegistry))
	for n := range contribRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
