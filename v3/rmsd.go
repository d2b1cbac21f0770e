/*
 * rmsd.go, part of pdbprep.
 *
 * Copyright 2026 The pdbprep Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package v3

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RMSD returns the root mean square deviation between the vectors of
// test and templa. No superposition is performed: the coordinates are
// compared in the frame they are given in.
func RMSD(test, templa *Matrix) (float64, error) {
	n := test.NVecs()
	if n != templa.NVecs() {
		return 0, Error{"Mismatched number of vectors", []string{"RMSD"}, true}
	}
	if n == 0 {
		return 0, nil
	}
	a := test.RawMatrix().Data
	b := templa.RawMatrix().Data
	if test.RawMatrix().Stride != cols || templa.RawMatrix().Stride != cols {
		//views have a wider stride, work on compact copies
		a = test.Clone().RawMatrix().Data
		b = templa.Clone().RawMatrix().Data
	}
	d := floats.Distance(a, b, 2)
	return math.Sqrt(d * d / float64(n)), nil
}

// Displacements returns, for each vector, the euclidean distance between
// its position in test and in templa.
func Displacements(test, templa *Matrix) ([]float64, error) {
	n := test.NVecs()
	if n != templa.NVecs() {
		return nil, Error{"Mismatched number of vectors", []string{"Displacements"}, true}
	}
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		a := test.Vec(i)
		b := templa.Vec(i)
		ret[i] = floats.Distance(a[:], b[:], 2)
	}
	return ret, nil
}
