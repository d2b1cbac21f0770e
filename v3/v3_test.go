/*
 * v3_test.go, part of pdbprep.
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
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Error("expected an error for a slice not divisible by 3")
	}
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 2 {
		Te.Errorf("expected 2 vectors, got %d", A.NVecs())
	}
	if Zeros(0).NVecs() != 0 {
		Te.Error("empty matrix should have no vectors")
	}
}

func TestViewsAndClones(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Errorf("view change not reflected: %v", A)
	}
	B := A.Clone()
	B.SetVec(0, [3]float64{-1, -1, -1})
	if A.Vec(0) != [3]float64{1, 2, 3} {
		Te.Errorf("clone shares memory with the original: %v", A)
	}
}

func TestSomeVecs(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18})
	B := Zeros(3)
	B.SomeVecs(A, []int{1, 3, 5})
	if B.Vec(2) != [3]float64{16, 17, 18} || B.Vec(0) != [3]float64{4, 5, 6} {
		Te.Errorf("wrong vectors selected: %v", B)
	}
	defer func() {
		if r := recover(); r != ErrShape {
			Te.Errorf("expected a shape panic, got %v", r)
		}
	}()
	Zeros(2).SomeVecs(A, []int{1, 3, 5})
}

func TestDecorate(Te *testing.T) {
	_, err := NewMatrix([]float64{1, 2})
	e, ok := err.(Error)
	if !ok {
		Te.Fatalf("unexpected error type %T", err)
	}
	e.Decorate("caller")
	deco := e.Decorate("")
	if len(deco) != 2 || deco[1] != "caller" {
		Te.Errorf("decoration lost: %v", deco)
	}
}

func TestRMSD(Te *testing.T) {
	A, _ := NewMatrix([]float64{0, 0, 0, 1, 1, 1})
	B, _ := NewMatrix([]float64{0, 0, 1, 1, 1, 2})
	r, err := RMSD(A, B)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(r-1) > 1e-9 {
		Te.Errorf("expected RMSD 1, got %f", r)
	}
	d, err := Displacements(A, B)
	if err != nil {
		Te.Fatal(err)
	}
	if len(d) != 2 || math.Abs(d[1]-1) > 1e-9 {
		Te.Errorf("wrong displacements %v", d)
	}
	if _, err := RMSD(A, Zeros(3)); err == nil {
		Te.Error("expected an error for mismatched sizes")
	}
}
