/*
 * merge.go, part of pdbprep.
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


package prep

import (
	"math"

	"gonum.org/v1/gonum/floats"

	v3 "github.com/rmera/pdbprep/v3"
)

//ClashDistance is the distance, in A, under which a modeled atom is
//considered to clash with a ligand.
const ClashDistance = 2.0

//MergeStats summarizes a merge.
type MergeStats struct {
	Chains          int     //chains of the cleaned structure found in the modeled one
	Updated         int     //atoms whose coordinates were taken from the modeled structure
	RMSD            float64 //between the old and new positions of the updated atoms
	MaxDisplacement float64 //largest move of a single updated atom
	Contact         float64 //shortest distance from an updated atom to a ligand atom, +Inf if none
}

//Merge returns a copy of cleaned where every atom that has a counterpart
//in modeled takes the coordinates of that counterpart. Counterparts share
//the chain id, the full residue id and the atom name. For each chain, the
//first model of modeled that has a chain with that id is used, and within
//a modeled residue only the first atom with a given name counts. Nothing
//is added or removed, and cleaned is not modified.
func Merge(cleaned, modeled *Structure) (*Structure, MergeStats) {
	stats := MergeStats{Contact: math.Inf(1)}
	out := cleaned.Copy()
	var before, after []float64
	for _, m := range out.Models {
		var moved []*Atom
		for _, c := range m.Chains {
			mc, mm := findChain(modeled, c.ID)
			if mc == nil {
				continue
			}
			stats.Chains++
			for _, mr := range mc.Residues {
				r := c.Residue(mr.ID)
				if r == nil {
					continue
				}
				seen := make(map[string]bool, len(mr.Atoms))
				for _, ma := range mr.Atoms {
					if seen[ma.Name] {
						continue
					}
					seen[ma.Name] = true
					a := r.Atom(ma.Name)
					if a == nil {
						continue
					}
					old := m.Coord(a)
					nw := mm.Coord(ma)
					before = append(before, old[:]...)
					after = append(after, nw[:]...)
					m.SetCoord(a, nw)
					moved = append(moved, a)
					stats.Updated++
				}
			}
		}
		if d := lowestLigandDist(m, moved); d < stats.Contact {
			stats.Contact = d
		}
	}
	if stats.Updated > 0 {
		b, _ := v3.NewMatrix(before)
		a, _ := v3.NewMatrix(after)
		stats.RMSD, _ = v3.RMSD(a, b)
		if d, err := v3.Displacements(a, b); err == nil {
			stats.MaxDisplacement = floats.Max(d)
		}
	}
	return out, stats
}

//findChain returns the first chain with the given id in any model of S,
//and the model it belongs to.
func findChain(S *Structure, id string) (*Chain, *Model) {
	for _, m := range S.Models {
		if c := m.Chain(id); c != nil {
			return c, m
		}
	}
	return nil, nil
}

//lowestLigandDist returns the shortest distance between the atoms in
//test and any non-polymer atom of M, or +Inf if one of the sets is empty.
func lowestLigandDist(M *Model, test []*Atom) float64 {
	dist := math.Inf(1)
	var ligs []int
	for _, c := range M.Chains {
		for _, r := range c.Residues {
			if r.Polymer() {
				continue
			}
			for _, l := range r.Atoms {
				ligs = append(ligs, l.Index())
			}
		}
	}
	if len(test) == 0 || len(ligs) == 0 {
		return dist
	}
	tidx := make([]int, len(test))
	for i, a := range test {
		tidx[i] = a.Index()
	}
	tc := v3.Zeros(len(tidx))
	tc.SomeVecs(M.Coords, tidx)
	lc := v3.Zeros(len(ligs))
	lc.SomeVecs(M.Coords, ligs)
	dvec := v3.Zeros(1)
	for i := 0; i < tc.NVecs(); i++ {
		for j := 0; j < lc.NVecs(); j++ {
			dvec.Sub(tc.VecView(i), lc.VecView(j))
			if d := dvec.Norm(2); d < dist {
				dist = d
			}
		}
	}
	return dist
}
