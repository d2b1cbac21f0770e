/*
 * renumber.go, part of pdbprep.
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

//Renumber returns a copy of S where the residues of every chain are
//numbered contiguously, in file order, starting from start. Insertion
//codes are cleared. Ligands keep their non-polymer flag.
func Renumber(S *Structure, start int) *Structure {
	out := S.Copy()
	for _, m := range out.Models {
		for _, c := range m.Chains {
			current := start
			for _, r := range c.Residues {
				r.ID = ResidueID{Het: r.ID.Het, Num: current, ICode: ' '}
				current++
			}
			c.reindex()
		}
	}
	return out
}
