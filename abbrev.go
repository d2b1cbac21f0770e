/*
 * abbrev.go, part of pdbprep.
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

import "strings"

//A map between 3-letters name for aminoacidic residues to the corresponding 1-letter names.
var three2OneLetter = map[string]byte{
	"SER": 'S',
	"THR": 'T',
	"ASN": 'N',
	"GLN": 'Q',
	"SEC": 'U', //Selenocysteine!
	"PYL": 'O',
	"CYS": 'C',
	"GLY": 'G',
	"PRO": 'P',
	"ALA": 'A',
	"VAL": 'V',
	"ILE": 'I',
	"LEU": 'L',
	"MET": 'M',
	"MSE": 'M', //selenomethionine, usual in crystal structures
	"PHE": 'F',
	"TYR": 'Y',
	"TRP": 'W',
	"ARG": 'R',
	"HIS": 'H',
	"HID": 'H',
	"HIE": 'H',
	"HIP": 'H',
	"LYS": 'K',
	"ASP": 'D',
	"GLU": 'E',
}

//OneLetter returns the 1-letter code for the residue name res, or 'X'
//if res is not an amino acid.
func OneLetter(res string) byte {
	if c, ok := three2OneLetter[strings.ToUpper(res)]; ok {
		return c
	}
	return 'X'
}

//OneLetterSequence translates a sequence of residue names to 1-letter codes.
func OneLetterSequence(names []string) string {
	var b strings.Builder
	b.Grow(len(names))
	for _, n := range names {
		b.WriteByte(OneLetter(n))
	}
	return b.String()
}
