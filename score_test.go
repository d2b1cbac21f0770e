/*
 * score_test.go, part of pdbprep.
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
	"strings"
	"testing"
)

func TestScore(Te *testing.T) {
	cases := []struct{ missing, disc, want int }{
		{0, 0, 100},
		{10, 2, 80},
		{95, 1, 0},
		{200, 0, 0},
		{0, 30, 0},
		{-5, 0, 100},
	}
	for _, c := range cases {
		if got := Score(c.missing, c.disc); got != c.want {
			Te.Errorf("Score(%d,%d)=%d, expected %d", c.missing, c.disc, got, c.want)
		}
	}
}

func TestAssess(Te *testing.T) {
	mol := readMini(Te)
	q := Assess(mol)
	want := Quality{Expected: 6, Missing: 1, Discontinuities: 1, Score: 94}
	if q != want {
		Te.Errorf("expected %+v, got %+v", want, q)
	}
	noseq, err := Parse(strings.NewReader(atomLine(1, "CA", "ALA", "A", 1, 0, 0, 0)))
	if err != nil {
		Te.Fatal(err)
	}
	if q := Assess(noseq); q.Score != 0 {
		Te.Errorf("a structure without declared sequences should score 0, got %+v", q)
	}
}
