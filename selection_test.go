/*
 * selection_test.go, part of pdbprep.
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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChoice(Te *testing.T) {
	cases := []struct {
		answer   string
		n        int
		emptyAll bool
		want     []int
	}{
		{"all", 3, false, []int{0, 1, 2}},
		{" ALL ", 2, false, []int{0, 1}},
		{"", 2, true, []int{0, 1}},
		{"", 2, false, []int{}},
		{"1, 3", 3, false, []int{0, 2}},
		{"3 and 1, then 3 again", 3, false, []int{2, 0}},
		{"0 4 99", 3, false, []int{}},
		{"2-1", 3, false, []int{1, 0}},
		{"chain A please", 3, false, []int{}},
	}
	for _, c := range cases {
		got := ParseChoice(c.answer, c.n, c.emptyAll)
		if diff := cmp.Diff(c.want, got); diff != "" {
			Te.Errorf("ParseChoice(%q, %d, %v) (-want +got):\n%s", c.answer, c.n, c.emptyAll, diff)
		}
	}
}

func TestNewSelection(Te *testing.T) {
	inv, err := PreScanFile(miniPDB)
	if err != nil {
		Te.Fatal(err)
	}
	all := NewSelection(inv, "all", "all")
	want := &SelectionSet{
		Chains:  []string{"A", "B"},
		Ligands: []LigandRef{{"A", "HOH"}, {"A", "ZN"}, {"B", "HEM"}},
	}
	if diff := cmp.Diff(want, all); diff != "" {
		Te.Errorf("(-want +got):\n%s", diff)
	}
	//The same answers must give the same selection.
	if diff := cmp.Diff(all, NewSelection(inv, "all", "all")); diff != "" {
		Te.Errorf("selection is not deterministic:\n%s", diff)
	}
	//Ligands are only offered for the chosen chains.
	onlyB := NewSelection(inv, "2", "1")
	want = &SelectionSet{Chains: []string{"B"}, Ligands: []LigandRef{{"B", "HEM"}}}
	if diff := cmp.Diff(want, onlyB); diff != "" {
		Te.Errorf("(-want +got):\n%s", diff)
	}
	none := NewSelection(inv, "1", "none")
	if len(none.Ligands) != 0 || len(none.Chains) != 1 {
		Te.Errorf("expected chain A without ligands, got %+v", none)
	}
	mol := readMini(Te)
	if got := mol.Filtered(none).AtomCount(); got != 6 {
		Te.Errorf("expected the 6 polymer atoms of chain A, got %d", got)
	}
}

func TestSelectionPredicate(Te *testing.T) {
	mol := readMini(Te)
	sel := &SelectionSet{Chains: []string{"A"}, Ligands: []LigandRef{{"B", "HEM"}}}
	A := mol.Models[0].Chain("A")
	B := mol.Models[0].Chain("B")
	if !sel.AcceptChain(A) || sel.AcceptChain(B) {
		Te.Error("wrong chain predicate")
	}
	for _, r := range A.Residues {
		if got := sel.AcceptResidue(r); got != r.Polymer() {
			Te.Errorf("residue %s %v accepted: %v", r.Name, r.ID, got)
		}
	}
	hem := B.Residue(ResidueID{true, 201, ' '})
	if !sel.AcceptResidue(hem) {
		Te.Error("HEM of chain B should be accepted by the residue predicate")
	}
}
