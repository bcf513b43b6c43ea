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

// Package thermo assembles thermodynamic models as ordered stacks of
// contributions over a state definition, yielding compiled state functions
// that expose standardized properties and positivity bounds.
package thermo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eqosim/eqosim/units"
)

// Atomic weights [g/mol], CIAAW 2021 abridged values.
var atomicWeights = map[string]float64{
	"H": 1.008, "He": 4.0026, "Li": 6.94, "Be": 9.0122, "B": 10.81,
	"C": 12.011, "N": 14.007, "O": 15.999, "F": 18.998, "Ne": 20.180,
	"Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.085, "P": 30.974,
	"S": 32.06, "Cl": 35.45, "Ar": 39.95, "K": 39.098, "Ca": 40.078,
	"Ti": 47.867, "Cr": 51.996, "Mn": 54.938, "Fe": 55.845, "Co": 58.933,
	"Ni": 58.693, "Cu": 63.546, "Zn": 65.38, "Br": 79.904, "Kr": 83.798,
	"Zr": 91.224, "Mo": 95.95, "Ag": 107.87, "Cd": 112.41, "Sn": 118.71,
	"Sb": 121.76, "I": 126.90, "Xe": 131.29, "Ba": 137.33, "W": 183.84,
	"Pt": 195.08, "Au": 196.97, "Hg": 200.59, "Pb": 207.2, "Bi": 208.98,
	"U": 238.03,
}

// AtomicWeight returns the atomic weight of an element symbol.
func AtomicWeight(element string) (units.Quantity, error) {
	w, ok := atomicWeights[element]
	if !ok {
		return units.Quantity{}, fmt.Errorf(
			"thermo: unknown element %q", element)
	}
	return units.New(w, "g/mol"), nil
}

// SpeciesDefinition derives element composition, molecular weight, and
// charge from a chemical sum formula. Accepted formulas use element
// tokens, integer multipliers, grouping parentheses, the structural
// separators "-", "=", "+" (ignored), and an optional charge suffix such
// as ":2-".
type SpeciesDefinition struct {
	Formula         string
	Elements        units.MCounter
	MolecularWeight units.Quantity
	Charge          int
}

// NewSpecies parses the formula into a species definition.
func NewSpecies(formula string) (*SpeciesDefinition, error) {
	body, charge, err := splitCharge(formula)
	if err != nil {
		return nil, err
	}
	p := &formulaParser{input: body, formula: formula}
	elements, err := p.parseGroup(0)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.input) || len(elements) == 0 {
		return nil, fmt.Errorf("thermo: invalid formula %q", formula)
	}
	mw := 0.0
	for el, n := range elements {
		w, ok := atomicWeights[el]
		if !ok {
			return nil, fmt.Errorf(
				"thermo: formula %q contains unknown element %q", formula, el)
		}
		mw += w * float64(n)
	}
	return &SpeciesDefinition{
		Formula:         formula,
		Elements:        elements,
		MolecularWeight: units.New(mw, "g/mol"),
		Charge:          charge,
	}, nil
}

func splitCharge(formula string) (body string, charge int, err error) {
	i := strings.LastIndexByte(formula, ':')
	if i < 0 {
		return formula, 0, nil
	}
	suffix := formula[i+1:]
	if len(suffix) < 2 {
		return "", 0, fmt.Errorf("thermo: invalid charge suffix in %q", formula)
	}
	sign := suffix[len(suffix)-1]
	n, err := strconv.Atoi(suffix[:len(suffix)-1])
	if err != nil || (sign != '+' && sign != '-') {
		return "", 0, fmt.Errorf("thermo: invalid charge suffix in %q", formula)
	}
	if sign == '-' {
		n = -n
	}
	return formula[:i], n, nil
}

type formulaParser struct {
	input   string
	formula string
	pos     int
}

// parseGroup parses until the closing parenthesis at the given depth.
func (p *formulaParser) parseGroup(depth int) (units.MCounter, error) {
	counts := units.MCounter{}
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '(':
			p.pos++
			sub, err := p.parseGroup(depth + 1)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.input) || p.input[p.pos] != ')' {
				return nil, fmt.Errorf("thermo: unbalanced '(' in %q", p.formula)
			}
			p.pos++
			counts = counts.Add(sub.Scale(p.multiplier()))
		case c == ')':
			if depth == 0 {
				return nil, fmt.Errorf("thermo: unbalanced ')' in %q", p.formula)
			}
			return counts, nil
		case c == '-' || c == '=' || c == '+' || c == '.':
			p.pos++ // structural separators carry no composition
		case c >= 'A' && c <= 'Z':
			start := p.pos
			p.pos++
			for p.pos < len(p.input) &&
				p.input[p.pos] >= 'a' && p.input[p.pos] <= 'z' {
				p.pos++
			}
			el := p.input[start:p.pos]
			counts = counts.Add(units.MCounter{el: 1}.Scale(p.multiplier()))
		default:
			return nil, fmt.Errorf("thermo: invalid formula %q", p.formula)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("thermo: unbalanced '(' in %q", p.formula)
	}
	return counts, nil
}

func (p *formulaParser) multiplier() int {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 1
	}
	n, _ := strconv.Atoi(p.input[start:p.pos])
	return n
}

// SpeciesDB is an ordered collection of species definitions, keyed by the
// user-facing species names.
type SpeciesDB struct {
	names []string
	defs  map[string]*SpeciesDefinition
}

// NewSpeciesDB builds a database from name → formula pairs. The insertion
// order of the names slice fixes the species order of all frames built on
// the database.
func NewSpeciesDB(names []string, formulae map[string]string) (*SpeciesDB, error) {
	db := &SpeciesDB{defs: map[string]*SpeciesDefinition{}}
	for _, name := range names {
		formula, ok := formulae[name]
		if !ok {
			return nil, fmt.Errorf("thermo: species %q has no formula", name)
		}
		def, err := NewSpecies(formula)
		if err != nil {
			return nil, err
		}
		db.names = append(db.names, name)
		db.defs[name] = def
	}
	return db, nil
}

// Names returns the ordered species names.
func (db *SpeciesDB) Names() []string { return append([]string{}, db.names...) }

// Get returns the definition of a named species.
func (db *SpeciesDB) Get(name string) (*SpeciesDefinition, bool) {
	def, ok := db.defs[name]
	return def, ok
}

// Len returns the number of species.
func (db *SpeciesDB) Len() int { return len(db.names) }

// Sub returns a database restricted to the given names, in that order.
func (db *SpeciesDB) Sub(names []string) (*SpeciesDB, error) {
	sub := &SpeciesDB{defs: map[string]*SpeciesDefinition{}}
	for _, n := range names {
		def, ok := db.defs[n]
		if !ok {
			return nil, fmt.Errorf("thermo: unknown species %q", n)
		}
		sub.names = append(sub.names, n)
		sub.defs[n] = def
	}
	return sub, nil
}
