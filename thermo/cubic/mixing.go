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

package cubic

import (
	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// LinearMixingRule lumps a per-species property into a mole-weighted sum:
//
//	target = Σ c_i n_i
//
// Options: "target" names the lumped property (e.g. "_ceos_b"); "source"
// names the per-species property and defaults to target + "_i".
type LinearMixingRule struct{ contribBase }

// Define implements thermo.Contribution.
func (c *LinearMixingRule) Define(ctx *thermo.Context) {
	target := ctx.Options.Text("target", "")
	source := ctx.Options.Text("source", target+"_i")
	ctx.Props.Set(target, ctx.Props.Get(source).Dot(ctx.Props.Get("n")))
}

// NonSymmetricMixingRule combines per-species a-contributions with
// symmetric and antisymmetric binary interactions:
//
//	target = (Σ √a_i n_i)²
//	       + Σ_{i<j} 2 n_i n_j √(a_i a_j) (k1_ij − k2_ij (T/T_ref − 1))
//	       − (2/N) Σ_{i<j} (n_j − n_i) n_i n_j √(a_i a_j) l1_ij
//
// The interaction parameters k1, k2 and l1 are sparse per-pair
// parameters; the pair lists are given as options of the same names.
// The complexity stays linear in the species count and in the number of
// nonzero interaction pairs.
type NonSymmetricMixingRule struct{ contribBase }

// Define implements thermo.Contribution.
func (c *NonSymmetricMixingRule) Define(ctx *thermo.Context) {
	target := ctx.Options.Text("target", "")
	source := ctx.Options.Text("source", target+"_i")

	temp := ctx.Props.Get("T")
	n := ctx.Props.Get("n")
	ai := ctx.Props.Get(source)
	tRef := ctx.Params.Scalar("T_ref", "K")
	tau := temp.Div(tRef).Sub(units.New(1, "dimless"))

	an := units.Sqrt(ai).Mul(n) // √a_i n_i
	result := an.Sum().Mul(an.Sum())

	pair := func(i, j int) units.Quantity { // n_i n_j √(a_i a_j)
		return an.Index(i).Mul(an.Index(j))
	}

	if pairs := ctx.Options.Pairs("k1"); len(pairs) > 0 {
		k1 := ctx.Params.SparseMatrix("k1", pairs, "dimless")
		for idx, p := range pairs {
			i, j := ctx.SpeciesIndex(p[0]), ctx.SpeciesIndex(p[1])
			result = result.Add(
				pair(i, j).Scale(2).Mul(k1.Entries[idx]))
		}
	}
	if pairs := ctx.Options.Pairs("k2"); len(pairs) > 0 {
		k2 := ctx.Params.SparseMatrix("k2", pairs, "dimless")
		for idx, p := range pairs {
			i, j := ctx.SpeciesIndex(p[0]), ctx.SpeciesIndex(p[1])
			result = result.Sub(
				pair(i, j).Scale(2).Mul(k2.Entries[idx]).Mul(tau))
		}
	}
	if pairs := ctx.Options.Pairs("l1"); len(pairs) > 0 {
		l1 := ctx.Params.SparseMatrix("l1", pairs, "dimless")
		N := n.Sum()
		for idx, p := range pairs {
			i, j := ctx.SpeciesIndex(p[0]), ctx.SpeciesIndex(p[1])
			term := n.Index(j).Sub(n.Index(i)).
				Mul(pair(i, j)).Mul(l1.Entries[idx]).
				Scale(2).Div(N)
			result = result.Sub(term)
		}
	}
	ctx.Props.Set(target, result)
}

func init() {
	register("LinearMixingRule",
		func(b contribBase) thermo.Contribution { return &LinearMixingRule{b} })
	// The historical double-m spelling is kept as an alias of the same
	// contribution.
	for _, name := range []string{
		"NonSymmetricMixingRule", "NonSymmmetricMixingRule"} {
		register(name, func(b contribBase) thermo.Contribution {
			return &NonSymmetricMixingRule{b}
		})
	}
}
