/*
 * pdbwrite.go, part of pdbprep.
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
	"bufio"
	"fmt"
	"io"
)

//Write writes S in PDB format to w. If f is not nil, only the chains and
//residues accepted by f are written. Atom serial numbers are reassigned
//sequentially. Each chain is closed by a TER record, and models are only
//delimited by MODEL/ENDMDL records if there is more than one.
func Write(w io.Writer, S *Structure, f Filter) error {
	out := bufio.NewWriter(w)
	for _, r := range S.Records {
		if _, err := fmt.Fprintln(out, r); err != nil {
			return NewError(nil, err.Error(), "", true)
		}
	}
	multi := len(S.Models) > 1
	for _, m := range S.Models {
		if multi {
			fmt.Fprintf(out, "MODEL     %4d\n", m.Serial)
		}
		if err := writeModel(out, m, f); err != nil {
			return err
		}
		if multi {
			fmt.Fprintln(out, "ENDMDL")
		}
	}
	fmt.Fprintln(out, "END")
	if err := out.Flush(); err != nil {
		return NewError(nil, err.Error(), "", true)
	}
	return nil
}

func writeModel(out io.Writer, m *Model, f Filter) error {
	serial := 1
	for _, c := range m.Chains {
		if f != nil && !f.AcceptChain(c) {
			continue
		}
		var last *Residue
		for _, r := range c.Residues {
			if f != nil && !f.AcceptResidue(r) {
				continue
			}
			for _, a := range r.Atoms {
				if err := writeAtom(out, serial, c, r, a, m.Coord(a)); err != nil {
					return err
				}
				serial++
			}
			last = r
		}
		if last != nil {
			_, err := fmt.Fprintf(out, "TER   %5d      %3s %c%4d%c\n", serial%100000, last.Name, chainByte(c.ID), last.ID.Num%10000, icodeOrBlank(last.ID.ICode))
			if err != nil {
				return NewError(nil, err.Error(), "", true)
			}
			serial++
		}
	}
	return nil
}

//writeAtom writes one ATOM/HETATM line. Atom names shorter than 4
//characters start at column 14 unless the element symbol has 2 letters.
func writeAtom(out io.Writer, serial int, c *Chain, r *Residue, a *Atom, xyz [3]float64) error {
	rec := "ATOM"
	if a.Het {
		rec = "HETATM"
	}
	name := a.Name
	if len(name) < 4 && len(a.Element) < 2 {
		name = " " + name
	}
	_, err := fmt.Fprintf(out, "%-6s%5d %-4s%c%3s %c%4d%c   %8.3f%8.3f%8.3f%6.2f%6.2f          %2s%-2s\n",
		rec, serial%100000, name, icodeOrBlank(a.AltLoc), r.Name, chainByte(c.ID), r.ID.Num%10000, icodeOrBlank(r.ID.ICode),
		xyz[0], xyz[1], xyz[2], a.Occupancy, a.BFactor, a.Element, a.Charge)
	if err != nil {
		return NewError(nil, err.Error(), "", true)
	}
	return nil
}

func chainByte(id string) byte {
	if id == "" {
		return ' '
	}
	return id[0]
}

//WriteFile writes S, filtered by f, to the file fname. The file is
//replaced atomically: if anything fails, a previous file with that
//name is left untouched.
func WriteFile(fname string, S *Structure, f Filter) error {
	err := AtomicWrite(fname, func(w io.Writer) error {
		return Write(w, S, f)
	})
	return errDecorate(err, "WriteFile")
}
