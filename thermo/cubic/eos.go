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
	"math"
	"sort"

	"github.com/eqosim/eqosim/thermo"
	"github.com/eqosim/eqosim/units"
)

// Phase selects the root of the cubic equation of state.
type Phase int

// The phases an EOS contribution can describe.
const (
	Gas Phase = iota
	Liquid
)

// RedlichKwongEOS is the general Redlich-Kwong equation of state with
// Peneloux volume translation, in Helmholtz coordinates:
//
//	p = N R T / (V − B + C) − A / ((V + C)(V + B + C))
//
// The lumped parameters A ("_ceos_a"), B ("_ceos_b") and optionally C
// ("_ceos_c") must be provided by upstream mixing rules. The residual
// Helmholtz function
//
//	A^res = N R T ln(V/(V + C − B)) + (A/B) ln((V + C)/(V + C + B))
//
// is differentiated analytically into the entropy, pressure and chemical
// potential updates; the temperature and composition derivatives of A, B
// and C are taken from the expression graph.
//
// The phase decides the root selection of the relax hook and the initial
// state estimate: Gas keeps the largest real root of the cubic, Liquid
// the smallest.
type RedlichKwongEOS struct {
	contribBase
	phase Phase
}

// Define implements thermo.Contribution.
func (c *RedlichKwongEOS) Define(ctx *thermo.Context) {
	props := ctx.Props
	T := props.Get("T")
	V := props.Get("V")
	n := props.Get("n")
	A := props.Get("_ceos_a")
	B := props.Get("_ceos_b")
	var C units.Quantity
	if props.Has("_ceos_c") {
		C = props.Get("_ceos_c")
	} else {
		C = B.Scale(0)
	}

	aT := derivVector(A, T)
	bT := derivVector(B, T)
	cT := derivVector(C, T)
	aN := derivVector(A, n)
	bN := derivVector(B, n)
	cN := derivVector(C, n)

	N := n.Sum()
	r := units.RGas()
	nr := N.Mul(r)
	rt := T.Mul(r)
	vc := V.Add(C)
	vmBC := vc.Sub(B)
	vpBC := vc.Add(B)
	ab := A.Div(B)
	logV := units.Log(V.Div(vmBC))
	logC := units.Log(vc.Div(vpBC))

	// entropy
	dS := nr.Mul(logV.Add(T.Mul(bT.Sub(cT)).Div(vmBC)))
	dS = dS.Add(aT.Sub(ab.Mul(bT)).Div(B).Mul(logC))
	dS = dS.Add(ab.Mul(cT.Div(vc).Sub(bT.Add(cT).Div(vpBC))))
	props.Set("S", props.Get("S").Sub(dS))

	// pressure
	one := units.New(1, "dimless")
	pRes := nr.Mul(T).Mul(one.Div(V).Sub(one.Div(vmBC))).
		Add(A.Div(vc.Mul(vpBC)))
	props.Set("p", props.Get("p").Sub(pRes))

	// chemical potential
	dMu := rt.Mul(logV.Add(N.Mul(bN.Sub(cN)).Div(vmBC)))
	dMu = dMu.Add(aN.Sub(ab.Mul(bN)).Div(B).Mul(logC))
	dMu = dMu.Add(ab.Mul(cN.Div(vc).Sub(bN.Add(cN).Div(vpBC))))
	props.Set("mu", props.Get("mu").Add(dMu))

	// the EOS domain requires V + C > B
	ctx.Bounds.Add("V_covolume", vmBC)
}

// Relax implements thermo.Relaxer: after a solver step, the volume entry
// of the state slice is projected onto the phase's root of the cubic at
// the currently computed pressure, so the iteration cannot drift onto a
// foreign branch.
func (c *RedlichKwongEOS) Relax(ctx *thermo.RelaxContext) {
	p := first(ctx.Prop("p"))
	a := first(ctx.Prop("_ceos_a"))
	b := first(ctx.Prop("_ceos_b"))
	cShift := 0.0
	if v := ctx.Prop("_ceos_c"); len(v) == 1 {
		cShift = v[0]
	}
	T := ctx.State[0]
	var N float64
	for _, ni := range ctx.State[2:] {
		N += ni
	}
	if p <= 0 || math.IsNaN(p) {
		// no valid pressure to project onto; keep the volume just outside
		// the covolume
		if min := b - cShift; ctx.State[1] <= min {
			ctx.State[1] = 1.05*b - cShift
		}
		return
	}
	root, ok := SelectRoot(p, T, N, a, b, cShift, c.phase)
	if !ok {
		return
	}
	ctx.State[1] = root
}

// InitialState implements thermo.Initializer for the liquid phase, where
// the ideal-gas estimate would land on the wrong root: the volume starts
// just above the covolume. Gas phases defer to the ideal-gas estimate of
// the contribution below.
func (c *RedlichKwongEOS) InitialState(init thermo.InitialState,
	props map[string][]float64) []float64 {
	if c.phase != Liquid {
		return nil
	}
	b := 0.0
	if v, ok := props["_ceos_b"]; ok && len(v) == 1 {
		b = v[0]
	}
	cShift := 0.0
	if v, ok := props["_ceos_c"]; ok && len(v) == 1 {
		cShift = v[0]
	}
	if b == 0 || math.IsNaN(b) {
		return nil
	}
	out := []float64{init.Temperature.Float(), 1.1*b - cShift}
	for _, s := range c.species {
		out = append(out, init.MolVector[s].Float())
	}
	return out
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}

// CubicRoots returns the real roots of w³ + a2 w² + a1 w + a0, computed
// from the discriminant of the depressed cubic.
func CubicRoots(a2, a1, a0 float64) []float64 {
	// depressed form t³ + pt + q with w = t − a2/3
	p := a1 - a2*a2/3
	q := 2*a2*a2*a2/27 - a2*a1/3 + a0
	shift := -a2 / 3
	disc := q*q/4 + p*p*p/27

	switch {
	case disc > 0: // one real root
		u := math.Cbrt(-q/2 + math.Sqrt(disc))
		v := math.Cbrt(-q/2 - math.Sqrt(disc))
		return []float64{u + v + shift}
	case disc == 0:
		if p == 0 {
			return []float64{shift}
		}
		double := -3 * q / (2 * p)
		single := 3 * q / p
		roots := []float64{single + shift, double + shift}
		sort.Float64s(roots)
		return roots
	default: // three real roots
		r := math.Sqrt(-p * p * p / 27)
		phi := math.Acos(-q / (2 * r))
		m := 2 * math.Sqrt(-p/3)
		roots := []float64{
			m*math.Cos(phi/3) + shift,
			m*math.Cos((phi+2*math.Pi)/3) + shift,
			m*math.Cos((phi+4*math.Pi)/3) + shift,
		}
		sort.Float64s(roots)
		return roots
	}
}

// SelectRoot solves the Redlich-Kwong cubic for the volume at pressure p
// and picks the root matching the phase: the largest real root for Gas,
// the smallest root above the covolume for Liquid. The returned volume
// includes the Peneloux shift.
func SelectRoot(p, T, N, a, b, cShift float64, phase Phase) (float64, bool) {
	// In the shifted volume w = V + C the EOS reads
	//   p = N R T/(w − B) − A/(w (w + B))
	// which expands to w³ − (NRT/p) w² − (B² + NRT B/p − A/p) w − A B/p = 0.
	nrt := N * units.RGasSI * T
	a2 := -nrt / p
	a1 := -(b*b + nrt*b/p - a/p)
	a0 := -a * b / p

	roots := CubicRoots(a2, a1, a0)
	var valid []float64
	for _, w := range roots {
		if w > b {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	if phase == Gas {
		return valid[len(valid)-1] - cShift, true
	}
	return valid[0] - cShift, true
}

func init() {
	register("RedlichKwongEOSGas", func(b contribBase) thermo.Contribution {
		return &RedlichKwongEOS{contribBase: b, phase: Gas}
	})
	register("RedlichKwongEOSLiquid", func(b contribBase) thermo.Contribution {
		return &RedlichKwongEOS{contribBase: b, phase: Liquid}
	})
}
