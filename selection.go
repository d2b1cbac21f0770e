/*
 * selection.go, part of pdbprep.
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
	"regexp"
	"strconv"
	"strings"
)

//LigandRef is a ligand residue name in a given chain.
type LigandRef struct {
	Chain string
	Name  string
}

func (L LigandRef) String() string {
	return fmt.Sprintf("Chain %s - %s", L.Chain, L.Name)
}

//SelectionSet holds the chains and the ligands to be kept.
type SelectionSet struct {
	Chains  []string
	Ligands []LigandRef
}

//AcceptChain returns true if the chain c was chosen.
func (S *SelectionSet) AcceptChain(c *Chain) bool {
	return isInString(S.Chains, c.ID)
}

//AcceptResidue returns true for every polymer residue, and for the
//non-polymer residues whose (chain, name) pair was chosen.
func (S *SelectionSet) AcceptResidue(r *Residue) bool {
	if r.Polymer() {
		return true
	}
	chain := ""
	if r.Chain() != nil {
		chain = r.Chain().ID
	}
	for _, l := range S.Ligands {
		if l.Chain == chain && l.Name == r.Name {
			return true
		}
	}
	return false
}

var digits = regexp.MustCompile(`\d+`)

//ParseChoice interprets answer as a choice among n items and returns the
//0-based indexes of the chosen items. "all" (case insensitive) selects
//every item, as does an empty answer if emptyAll is true. Otherwise every
//run of digits in answer is taken as a 1-based index; indexes out of range
//and repeated ones are dropped without complaint.
func ParseChoice(answer string, n int, emptyAll bool) []int {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "all" || (a == "" && emptyAll) {
		ret := make([]int, n)
		for i := range ret {
			ret[i] = i
		}
		return ret
	}
	ret := make([]int, 0, n)
	seen := make(map[int]bool)
	for _, d := range digits.FindAllString(a, -1) {
		i, err := strconv.Atoi(d)
		if err != nil {
			continue //absurdly long digit runs
		}
		i--
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		ret = append(ret, i)
	}
	return ret
}

//SelectChains returns the chains of inv chosen by answer. An empty answer
//selects every chain.
func SelectChains(inv *Inventory, answer string) []string {
	idx := ParseChoice(answer, len(inv.Chains), true)
	ret := make([]string, 0, len(idx))
	for _, i := range idx {
		ret = append(ret, inv.Chains[i])
	}
	return ret
}

//LigandCandidates returns the ligands of inv that belong to chains, in the
//order of chains.
func LigandCandidates(inv *Inventory, chains []string) []LigandRef {
	var ret []LigandRef
	for _, c := range chains {
		for _, name := range inv.Ligands[c] {
			ret = append(ret, LigandRef{c, name})
		}
	}
	return ret
}

//SelectLigands returns the candidates chosen by answer. "none" or "n"
//selects nothing, "all" or an empty answer selects everything.
func SelectLigands(candidates []LigandRef, answer string) []LigandRef {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "none" || a == "n" {
		return nil
	}
	idx := ParseChoice(a, len(candidates), true)
	ret := make([]LigandRef, 0, len(idx))
	for _, i := range idx {
		ret = append(ret, candidates[i])
	}
	return ret
}

//NewSelection builds the SelectionSet for inv from the answers to the chain
//and ligand questions.
func NewSelection(inv *Inventory, chainAnswer, ligandAnswer string) *SelectionSet {
	chains := SelectChains(inv, chainAnswer)
	ligands := SelectLigands(LigandCandidates(inv, chains), ligandAnswer)
	return &SelectionSet{Chains: chains, Ligands: ligands}
}

//isInString returns true if test is in container, false otherwise.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
