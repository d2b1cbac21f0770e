/*
 * pdb.go, part of pdbprep.
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
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

//Records that are consumed by the reader and regenerated by the writer,
//or dropped because filtering would make them wrong.
var regenerated = map[string]bool{
	"MODEL":  true,
	"ENDMDL": true,
	"TER":    true,
	"END":    true,
	"CONECT": true,
	"MASTER": true,
	"ANISOU": true, //per-atom records, tied to serials the writer reassigns
	"SIGATM": true,
	"SIGUIJ": true,
}

//recordName returns the trimmed record name of a PDB line (columns 1-6).
func recordName(line string) string {
	if len(line) < 6 {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(line[:6])
}

//cols returns the trimmed contents of the 0-based, half-open column range
//[from,to) of line, clipped to the length of the line.
func cols(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

//colByte returns the byte at column i of line, or ' ' if the line is shorter.
func colByte(line string, i int) byte {
	if i >= len(line) {
		return ' '
	}
	return line[i]
}

//pdbReader keeps the state of a reading pass over a PDB file.
type pdbReader struct {
	s       *Structure
	current *modelBuilder
}

func (p *pdbReader) finishModel() {
	if p.current == nil {
		return
	}
	if m := p.current.finish(); m != nil {
		p.s.Models = append(p.s.Models, m)
	}
	p.current = nil
}

func (p *pdbReader) model() *modelBuilder {
	if p.current == nil {
		p.current = newModelBuilder(len(p.s.Models) + 1)
	}
	return p.current
}

//Parse reads a PDB-formatted coordinate file from pdb and returns the
//corresponding Structure. Malformed coordinate records are skipped and
//counted in Structure.Skipped. If no atom at all can be read, an
//error of kind ErrParseFailure is returned.
func Parse(pdb io.Reader) (*Structure, error) {
	p := &pdbReader{s: &Structure{Declared: make(DeclaredSequences)}}
	bufpdb := bufio.NewReader(pdb)
	for {
		line, err := bufpdb.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, NewError(ErrParseFailure, err.Error(), "", true)
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			p.line(line)
		}
		if err == io.EOF {
			break
		}
	}
	p.finishModel()
	if len(p.s.Models) == 0 {
		return nil, NewError(ErrParseFailure, "no atom records could be read", "", true)
	}
	return p.s, nil
}

func (p *pdbReader) line(line string) {
	rec := recordName(line)
	switch rec {
	case "ATOM", "HETATM":
		if !p.atom(line, rec == "HETATM") {
			p.s.Skipped++
		}
	case "MODEL":
		p.finishModel()
		p.current = newModelBuilder(len(p.s.Models) + 1)
		if n, err := strconv.Atoi(cols(line, 10, 14)); err == nil {
			p.current.m.Serial = n
		}
	case "ENDMDL":
		p.finishModel()
	case "SEQRES":
		p.seqres(line)
		p.s.Records = append(p.s.Records, line)
	default:
		if !regenerated[rec] {
			p.s.Records = append(p.s.Records, line)
		}
	}
}

//seqres adds the residue names of a SEQRES record to the declared
//sequence of its chain. Residue names are in columns 20-22, 24-26, ... 68-70.
func (p *pdbReader) seqres(line string) {
	if len(line) < 12 {
		return
	}
	chain := strings.TrimSpace(string(line[11]))
	for c := 19; c < 70; c += 4 {
		res := cols(line, c, c+3)
		if res == "" {
			break
		}
		p.s.Declared[chain] = append(p.s.Declared[chain], res)
	}
}

//atom parses an ATOM or HETATM record. It returns false if the
//record is malformed, in which case nothing is added.
func (p *pdbReader) atom(line string, het bool) bool {
	if len(line) < 54 {
		return false
	}
	at := &Atom{Het: het, Occupancy: 1.0}
	at.Name = cols(line, 12, 16)
	if at.Name == "" {
		return false
	}
	resname := cols(line, 17, 20)
	chain := cols(line, 21, 22)
	num, err := strconv.Atoi(cols(line, 22, 26))
	if err != nil {
		return false
	}
	var c [3]float64
	for i := range c {
		c[i], err = strconv.ParseFloat(cols(line, 30+8*i, 38+8*i), 64)
		if err != nil {
			return false
		}
	}
	//Non-essential fields. If something is missing or broken we just
	//keep the default.
	at.Serial, _ = strconv.Atoi(cols(line, 6, 11))
	at.AltLoc = colByte(line, 16)
	if occ, err := strconv.ParseFloat(cols(line, 54, 60), 64); err == nil {
		at.Occupancy = occ
	}
	if b, err := strconv.ParseFloat(cols(line, 60, 66), 64); err == nil {
		at.BFactor = b
	}
	at.Element = cols(line, 76, 78)
	if at.Element == "" {
		at.Element = symbolFromName(at.Name)
	}
	at.Charge = cols(line, 78, 80)
	id := ResidueID{Het: het, Num: num, ICode: colByte(line, 26)}
	p.model().add(chain, id, resname, at, c)
	return true
}

//symbolFromName tries to guess a chemical element symbol from a PDB atom
//name. It only deals with some common bio-elements, and returns the empty
//string if it can't guess.
func symbolFromName(name string) string {
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return ""
	}
	switch name {
	case "CU", "ZN", "FE", "MG", "MN", "CO", "CL", "NA", "CA", "SE", "BR":
		//CA is far more likely to be an alpha carbon, but an atom
		//called only "CA" in a HETATM record is the ion. We can't know here.
		if name != "CA" {
			return name[:1] + strings.ToLower(name[1:])
		}
	}
	switch name[0] {
	case 'H', 'C', 'N', 'O', 'P', 'S':
		return name[:1]
	}
	return ""
}

//ParseFile reads the coordinate file fname, which can be compressed (see
//OpenCoordinateFile), and returns the corresponding Structure, named after
//the file.
func ParseFile(fname string) (*Structure, error) {
	f, err := OpenCoordinateFile(fname)
	if err != nil {
		return nil, errDecorate(err, "ParseFile")
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		var e Error
		if !errors.As(err, &e) {
			e = NewError(ErrParseFailure, err.Error(), "", true)
		}
		e.filename = fname
		e.Decorate("ParseFile")
		return nil, e
	}
	s.Name = StructureName(fname)
	return s, nil
}

//StructureName returns the name for a structure read from the file fname:
//the base name without the coordinate and compression extensions.
func StructureName(fname string) string {
	name := filepath.Base(fname)
	for _, ext := range []string{".gz", ".zst", ".pdb", ".ent"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

//Inventory is the set of entities in a coordinate file that can be
//selected: the chains with polymer atoms, and the distinct ligand
//(HETATM) residue names of each chain.
type Inventory struct {
	Chains  []string
	Ligands map[string][]string
}

//PreScan reads pdb and returns its Inventory, without building the
//structure. Chain identifiers and ligand names are sorted.
func PreScan(pdb io.Reader) (*Inventory, error) {
	chains := make(map[string]bool)
	hets := make(map[string]map[string]bool)
	scanner := bufio.NewScanner(pdb)
	for scanner.Scan() {
		line := scanner.Text()
		switch recordName(line) {
		case "ATOM":
			if len(line) > 21 {
				chains[cols(line, 21, 22)] = true
			}
		case "HETATM":
			if len(line) > 21 {
				c := cols(line, 21, 22)
				if hets[c] == nil {
					hets[c] = make(map[string]bool)
				}
				hets[c][cols(line, 17, 20)] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewError(ErrParseFailure, err.Error(), "", true)
	}
	inv := &Inventory{Chains: sortedKeys(chains), Ligands: make(map[string][]string, len(hets))}
	for c, names := range hets {
		inv.Ligands[c] = sortedKeys(names)
	}
	return inv, nil
}

//PreScanFile is PreScan on the file fname.
func PreScanFile(fname string) (*Inventory, error) {
	f, err := OpenCoordinateFile(fname)
	if err != nil {
		return nil, errDecorate(err, "PreScanFile")
	}
	defer f.Close()
	inv, err := PreScan(f)
	return inv, errDecorate(err, "PreScanFile")
}

func sortedKeys(m map[string]bool) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
