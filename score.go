/*
 * score.go, part of pdbprep.
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

const (
	missingPenalty       = 1
	discontinuityPenalty = 5
)

//Score returns the quality score for the given number of missing
//residues and numbering discontinuities: 100 minus 1 per missing residue
//minus 5 per discontinuity, clamped to [0,100]. It is a diagnostic, not a
//physical quantity.
func Score(missing, discontinuities int) int {
	s := 100 - missing*missingPenalty - discontinuities*discontinuityPenalty
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

//Quality is the outcome of the assessment of a structure.
type Quality struct {
	Expected        int //residues in the declared sequences considered
	Missing         int
	Discontinuities int
	Score           int
}

//Assess computes the Quality of S. Only chains with a declared sequence
//count, in every model. A structure without any such chain can't be
//assessed, and gets a score of 0.
func Assess(S *Structure) Quality {
	var q Quality
	for _, m := range S.Models {
		for _, c := range m.Chains {
			declared := S.Declared[c.ID]
			if len(declared) == 0 {
				continue
			}
			q.Expected += len(declared)
			q.Missing += len(MissingInSequence(declared, observedNames(c)))
			q.Discontinuities += len(chainDiscontinuities(c))
		}
	}
	if q.Expected == 0 {
		return q
	}
	q.Score = Score(q.Missing, q.Discontinuities)
	return q
}
