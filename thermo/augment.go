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
	"sort"

	"github.com/ctessum/sparse"

	"github.com/eqosim/eqosim/units"
)

// GenericProperties augments a frame with the common derived properties:
//
//	G = Σ mu_i n_i     H = G + T S     A = G − p V     U = A + T S
//	N = Σ n_i          m_i = n_i mw_i  M = Σ m_i       Mw = M / N
//	x_i = n_i / N      w_i = m_i / M
type GenericProperties struct{ contribBase }

// Define implements Contribution.
func (c *GenericProperties) Define(ctx *Context) {
	props := ctx.Props
	n := props.Get("n")
	mu := props.Get("mu")
	mw := props.Get("mw")
	T := props.Get("T")
	S := props.Get("S")
	p := props.Get("p")
	V := props.Get("V")

	G := n.Dot(mu)
	ts := T.Mul(S)
	pv := p.Mul(V)
	props.Set("G", G)
	props.Set("H", G.Add(ts))
	props.Set("A", G.Sub(pv))
	props.Set("U", G.Sub(pv).Add(ts))

	N := n.Sum()
	m := n.Mul(mw)
	M := m.Sum()
	props.Set("N", N)
	props.Set("m", m)
	props.Set("M", M)
	props.Set("Mw", M.Div(N))
	props.Set("x", n.Div(N))
	props.Set("w", m.Div(M))

	for _, name := range []string{"m", "x", "w"} {
		props.DeclareVector(name, c.species)
	}
}

// Elemental augments a frame with quantities per chemical element, based
// on the parsed species formulas:
//
//	n_e_j = Σ_i nu_ij n_i    N_e = Σ n_e_j    x_e_j = n_e_j / N_e
//	m_e_j = M_j n_e_j        w_e_j = m_e_j / Σ m_e_k
type Elemental struct{ contribBase }

// Define implements Contribution.
func (c *Elemental) Define(ctx *Context) {
	props := ctx.Props
	n := props.Get("n")

	elementSet := map[string]bool{}
	for _, s := range c.species {
		for el := range c.defs[s].Elements {
			elementSet[el] = true
		}
	}
	elements := make([]string, 0, len(elementSet))
	for el := range elementSet {
		elements = append(elements, el)
	}
	sort.Strings(elements)
	elementIdx := map[string]int{}
	for j, el := range elements {
		elementIdx[el] = j
	}

	// stoichiometry: species × elements, sparse
	nu := sparse.ZerosSparse(len(c.species), len(elements))
	for i, s := range c.species {
		for el, count := range c.defs[s].Elements {
			nu.Set(float64(count), i, elementIdx[el])
		}
	}

	ne := make([]units.Quantity, len(elements))
	for j := range elements {
		col := n.Index(0).Scale(0)
		for i := range c.species {
			if coeff := nu.Get(i, j); coeff != 0 {
				col = col.Add(n.Index(i).Scale(coeff))
			}
		}
		ne[j] = col
	}
	nE := units.Vertcat(ne...)
	NE := nE.Sum()

	aw := make([]units.Quantity, len(elements))
	for j, el := range elements {
		w, err := AtomicWeight(el)
		if err != nil {
			panic(err)
		}
		aw[j] = w
	}
	mE := nE.Mul(units.Vertcat(aw...))

	props.Set("n_e", nE)
	props.Set("N_e", NE)
	props.Set("x_e", nE.Div(NE))
	props.Set("m_e", mE)
	props.Set("w_e", mE.Div(mE.Sum()))

	for _, name := range []string{"n_e", "x_e", "m_e", "w_e"} {
		props.DeclareVector(name, elements)
	}
}

func init() {
	RegisterContribution("GenericProperties", simpleContribution(
		func(b contribBase) Contribution { return &GenericProperties{b} }))
	RegisterContribution("Elemental", simpleContribution(
		func(b contribBase) Contribution { return &Elemental{b} }))
}
