/*
 * doc.go, part of pdbprep.
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

/*
Package prep is the main package of pdbprep. It reads PDB coordinate files
into a hierarchy of models, chains, residues and atoms, finds what is
missing from them, and writes them back, filtered, merged or renumbered.

	**pdbprep capabilities**

	Reads PDB files, plain or compressed with gzip or zstd, tolerating
	malformed coordinate records.

	Reads the chains and ligands of a file without building the whole
	structure, so the user can choose what to keep first.

	Finds breaks in the residue numbering of each chain, and the residues
	declared in SEQRES records that have no coordinates.

	Filters structures by chain and ligand, and writes them so an existing
	file is never left half-written.

	Gives a quick quality score for a structure.

	Merges modeled coordinates into a structure without adding or removing
	atoms.

Atoms don't carry their coordinates. Each Model keeps the
positions of its atoms in a v3.Matrix, where row i belongs to the atom
with index i.

The subpackages engine and gapfill drive an external modeling program to
fill the gaps, and pipeline puts everything together.
*/
package prep
