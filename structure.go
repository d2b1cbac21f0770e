/*
 * structure.go, part of pdbprep.
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
	"fmt"
	"sort"

	v3 "github.com/rmera/pdbprep/v3"
)

//Atom contains the data of an atom record, except for the coordinates,
//which are in the coordinate matrix of the model the atom belongs to.
type Atom struct {
	Serial    int
	Name      string
	AltLoc    byte
	Element   string
	Occupancy float64
	BFactor   float64
	Charge    string
	Het       bool // was it a HETATM record?
	index     int  //row in the coordinates of the model
}

//Index returns the row of the model coordinates that holds the
//position of the atom.
func (A *Atom) Index() int {
	return A.index
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	n := *A
	return &n
}

//ResidueID identifies a residue within a chain.
type ResidueID struct {
	Het   bool //non-polymer residue
	Num   int
	ICode byte //insertion code, ' ' if none
}

func (R ResidueID) String() string {
	flag := " "
	if R.Het {
		flag = "H"
	}
	return fmt.Sprintf("(%s,%d,%c)", flag, R.Num, icodeOrBlank(R.ICode))
}

//Residue is a set of atoms sharing a ResidueID within a chain.
type Residue struct {
	ID    ResidueID
	Name  string
	Atoms []*Atom
	chain *Chain
}

//Polymer returns true if the residue is part of the biological sequence
//(i.e., it comes from ATOM records).
func (R *Residue) Polymer() bool {
	return !R.ID.Het
}

//Chain returns the chain that owns the residue.
func (R *Residue) Chain() *Chain {
	return R.chain
}

//Atom returns the first atom in the residue with the given name, or nil.
func (R *Residue) Atom(name string) *Atom {
	for _, a := range R.Atoms {
		if a.Name == name {
			return a
		}
	}
	return nil
}

//Chain is an ordered (file order) set of residues.
type Chain struct {
	ID       string
	Residues []*Residue
	byID     map[ResidueID]*Residue
	model    *Model
}

func newChain(id string, m *Model) *Chain {
	return &Chain{ID: id, byID: make(map[ResidueID]*Residue), model: m}
}

//Residue returns the residue with the given id, or nil.
func (C *Chain) Residue(id ResidueID) *Residue {
	return C.byID[id]
}

//Model returns the model that owns the chain.
func (C *Chain) Model() *Model {
	return C.model
}

//PolymerResidues returns the polymer residues of the chain, in file order.
func (C *Chain) PolymerResidues() []*Residue {
	ret := make([]*Residue, 0, len(C.Residues))
	for _, r := range C.Residues {
		if r.Polymer() {
			ret = append(ret, r)
		}
	}
	return ret
}

//addResidue appends a new residue to the chain, or returns the existing one
//with the same id.
func (C *Chain) addResidue(id ResidueID, name string) *Residue {
	if r, ok := C.byID[id]; ok {
		return r
	}
	r := &Residue{ID: id, Name: name, chain: C}
	C.Residues = append(C.Residues, r)
	C.byID[id] = r
	return r
}

//reindex rebuilds the residue lookup table, needed after ids change.
func (C *Chain) reindex() {
	C.byID = make(map[ResidueID]*Residue, len(C.Residues))
	for _, r := range C.Residues {
		C.byID[r.ID] = r
	}
}

//Model is one set of coordinates for the chains of a structure. Files with
//several models (i.e. NMR ensembles) give a Structure with several Models.
type Model struct {
	Serial int
	Chains []*Chain
	Coords *v3.Matrix
}

//Chain returns the chain with the given id, or nil.
func (M *Model) Chain(id string) *Chain {
	for _, c := range M.Chains {
		if c.ID == id {
			return c
		}
	}
	return nil
}

//Coord returns the position of the atom a, which must belong to M.
func (M *Model) Coord(a *Atom) [3]float64 {
	return M.Coords.Vec(a.index)
}

//SetCoord sets the position of the atom a, which must belong to M.
func (M *Model) SetCoord(a *Atom, c [3]float64) {
	M.Coords.SetVec(a.index, c)
}

//Len returns the number of atoms in the model.
func (M *Model) Len() int {
	return M.Coords.NVecs()
}

//DeclaredSequences maps chain identifiers to the residue names declared
//for them in SEQRES records.
type DeclaredSequences map[string][]string

//Copy returns a deep copy of D.
func (D DeclaredSequences) Copy() DeclaredSequences {
	ret := make(DeclaredSequences, len(D))
	for k, v := range D {
		ret[k] = append([]string(nil), v...)
	}
	return ret
}

//Structure is the hierarchical representation of a coordinate file.
type Structure struct {
	Name     string
	Models   []*Model
	Declared DeclaredSequences
	Records  []string //records that are written back verbatim
	Skipped  int      //malformed coordinate records ignored when reading
}

//AtomCount returns the total number of atoms, over all models.
func (S *Structure) AtomCount() int {
	n := 0
	for _, m := range S.Models {
		n += m.Len()
	}
	return n
}

//ChainIDs returns the sorted, distinct chain identifiers present in any
//model of S.
func (S *Structure) ChainIDs() []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, 4)
	for _, m := range S.Models {
		for _, c := range m.Chains {
			if !seen[c.ID] {
				seen[c.ID] = true
				ret = append(ret, c.ID)
			}
		}
	}
	sort.Strings(ret)
	return ret
}

//Filter decides which chains and residues are kept when a structure is
//filtered or written.
type Filter interface {
	AcceptChain(c *Chain) bool
	AcceptResidue(r *Residue) bool
}

type polymerOnly struct{}

func (polymerOnly) AcceptChain(*Chain) bool       { return true }
func (polymerOnly) AcceptResidue(r *Residue) bool { return r.Polymer() }

//PolymerOnly is a Filter that keeps every chain but only polymer residues.
var PolymerOnly Filter = polymerOnly{}

//Filtered returns a new structure with the chains and residues of S
//accepted by f. A nil f accepts everything, so S.Filtered(nil) is a
//deep copy of S. Chains left without residues are not included, nor
//models left without atoms.
func (S *Structure) Filtered(f Filter) *Structure {
	ret := &Structure{
		Name:     S.Name,
		Declared: S.Declared.Copy(),
		Records:  append([]string(nil), S.Records...),
		Skipped:  S.Skipped,
	}
	for _, m := range S.Models {
		b := newModelBuilder(m.Serial)
		for _, c := range m.Chains {
			if f != nil && !f.AcceptChain(c) {
				continue
			}
			for _, r := range c.Residues {
				if f != nil && !f.AcceptResidue(r) {
					continue
				}
				for _, a := range r.Atoms {
					b.add(c.ID, r.ID, r.Name, a.Copy(), m.Coord(a))
				}
			}
		}
		if nm := b.finish(); nm != nil {
			ret.Models = append(ret.Models, nm)
		}
	}
	return ret
}

//Copy returns a deep copy of S.
func (S *Structure) Copy() *Structure {
	return S.Filtered(nil)
}

//modelBuilder accumulates atoms and their coordinates for a model.
type modelBuilder struct {
	m      *Model
	coords []float64
	natoms int
}

func newModelBuilder(serial int) *modelBuilder {
	return &modelBuilder{m: &Model{Serial: serial}, coords: make([]float64, 0, 300)}
}

func (b *modelBuilder) add(chain string, id ResidueID, resname string, a *Atom, c [3]float64) {
	ch := b.m.Chain(chain)
	if ch == nil {
		ch = newChain(chain, b.m)
		b.m.Chains = append(b.m.Chains, ch)
	}
	r := ch.addResidue(id, resname)
	a.index = b.natoms
	b.natoms++
	r.Atoms = append(r.Atoms, a)
	b.coords = append(b.coords, c[0], c[1], c[2])
}

//finish returns the model, or nil if no atom was added.
func (b *modelBuilder) finish() *Model {
	if b.natoms == 0 {
		return nil
	}
	//can't fail, we always add 3 numbers per atom.
	b.m.Coords, _ = v3.NewMatrix(b.coords)
	return b.m
}

func icodeOrBlank(c byte) byte {
	if c == 0 {
		return ' '
	}
	return c
}
