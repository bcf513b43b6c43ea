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

// Quantity arithmetic and symbolic construction signal violations by
// panicking with typed errors, mirroring exception flow during model
// definition code. RecoverBuildError converts such a panic back into an
// ordinary error at the assembly boundaries (frame construction, model
// finalization), where the qualified path context is attached.
//
// Usage:
//
//	func assemble() (err error) {
//		defer units.RecoverBuildError(&err)
//		...
//	}
func RecoverBuildError(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		panic(r)
	}
}
