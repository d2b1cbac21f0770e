/*
 * topology.go, part of pdbprep.
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

import "fmt"

//Discontinuity is a pair of consecutive residue numbers (in file order)
//whose difference is not 1.
type Discontinuity struct {
	Prev, Curr int
}

func (D Discontinuity) String() string {
	return fmt.Sprintf("(%d,%d)", D.Prev, D.Curr)
}

//MissingResidue is a position of the declared sequence of a chain that
//has no residue in the coordinates. Index is 1-based.
type MissingResidue struct {
	Index int
	Name  string
}

//ChainDiscontinuities holds the discontinuities of one chain of one model.
//Model is the index of the model in Structure.Models.
type ChainDiscontinuities struct {
	Model int
	Chain string
	Jumps []Discontinuity
}

//ChainMissing holds the missing residues of one chain of one model.
type ChainMissing struct {
	Model    int
	Chain    string
	Declared int //length of the declared sequence
	Missing  []MissingResidue
}

//SequenceDiscontinuities returns the discontinuities in the residue
//numbers nums, in order.
func SequenceDiscontinuities(nums []int) []Discontinuity {
	var ret []Discontinuity
	for i := 1; i < len(nums); i++ {
		if nums[i]-nums[i-1] != 1 {
			ret = append(ret, Discontinuity{nums[i-1], nums[i]})
		}
	}
	return ret
}

//Discontinuities returns, for each chain of each model of S with at least
//one break in the numbering of its polymer residues, the list of breaks.
func Discontinuities(S *Structure) []ChainDiscontinuities {
	var ret []ChainDiscontinuities
	for mi, m := range S.Models {
		for _, c := range m.Chains {
			if j := chainDiscontinuities(c); len(j) > 0 {
				ret = append(ret, ChainDiscontinuities{Model: mi, Chain: c.ID, Jumps: j})
			}
		}
	}
	return ret
}

func chainDiscontinuities(c *Chain) []Discontinuity {
	poly := c.PolymerResidues()
	nums := make([]int, len(poly))
	for i, r := range poly {
		nums[i] = r.ID.Num
	}
	return SequenceDiscontinuities(nums)
}

//MissingInSequence compares the declared sequence with the observed one
//and returns the declared positions that were not observed. The comparison
//is a greedy walk with one cursor on each sequence: equal names advance
//both, a mismatch marks the declared residue as missing and advances only
//on the declared sequence. The result is only correct if observed is a
//subsequence of declared (residues can be missing, but not substituted or
//inserted).
func MissingInSequence(declared, observed []string) []MissingResidue {
	var miss []MissingResidue
	i, j := 0, 0
	for i < len(declared) && j < len(observed) {
		if declared[i] == observed[j] {
			i++
			j++
			continue
		}
		miss = append(miss, MissingResidue{i + 1, declared[i]})
		i++
	}
	for ; i < len(declared); i++ {
		miss = append(miss, MissingResidue{i + 1, declared[i]})
	}
	return miss
}

//MissingResidues returns, for each chain of each model of S that has a
//declared sequence and misses at least one residue of it, the missing
//residues. Chains without a declared sequence are skipped.
func MissingResidues(S *Structure) []ChainMissing {
	var ret []ChainMissing
	for mi, m := range S.Models {
		for _, c := range m.Chains {
			declared := S.Declared[c.ID]
			if len(declared) == 0 {
				continue
			}
			if miss := MissingInSequence(declared, observedNames(c)); len(miss) > 0 {
				ret = append(ret, ChainMissing{Model: mi, Chain: c.ID, Declared: len(declared), Missing: miss})
			}
		}
	}
	return ret
}

func observedNames(c *Chain) []string {
	poly := c.PolymerResidues()
	names := make([]string, len(poly))
	for i, r := range poly {
		names[i] = r.Name
	}
	return names
}

//Span is a maximal run of consecutive missing positions of a chain,
//Start and End included.
type Span struct {
	Chain      string
	Start, End int
}

func (S Span) String() string {
	return fmt.Sprintf("%s:%d-%d", S.Chain, S.Start, S.End)
}

//Len returns the number of residues in the span.
func (S Span) Len() int {
	return S.End - S.Start + 1
}

//Spans merges the missing positions of each entry of missing into maximal
//runs of consecutive indexes. Identical spans coming from different models
//are reported once.
func Spans(missing []ChainMissing) []Span {
	var ret []Span
	seen := make(map[Span]bool)
	add := func(s Span) {
		if !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	for _, cm := range missing {
		if len(cm.Missing) == 0 {
			continue
		}
		cur := Span{cm.Chain, cm.Missing[0].Index, cm.Missing[0].Index}
		for _, m := range cm.Missing[1:] {
			if m.Index == cur.End+1 {
				cur.End = m.Index
				continue
			}
			add(cur)
			cur = Span{cm.Chain, m.Index, m.Index}
		}
		add(cur)
	}
	return ret
}

//CountMissing returns the total number of missing residues in missing.
func CountMissing(missing []ChainMissing) int {
	n := 0
	for _, cm := range missing {
		n += len(cm.Missing)
	}
	return n
}
