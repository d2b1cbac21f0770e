/*
 * prepplot_test.go, part of pdbprep.
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

package prepplot

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmera/pdbprep/gapfill"
)

func feed(T *Trace, composites ...float64) {
	for i, c := range composites {
		if math.IsNaN(c) {
			T.Observe(gapfill.Attempt{Number: i + 1, Err: errors.New("failed")})
			continue
		}
		T.Observe(gapfill.Attempt{Number: i + 1, Decoy: &gapfill.Decoy{Attempt: i + 1, Energy: c + 1, Composite: c}})
	}
}

func TestSummarize(Te *testing.T) {
	T := new(Trace)
	s := T.Summarize()
	assert.Equal(Te, 0, s.N)
	assert.Equal(Te, "no decoys, 0 failed attempts", s.String())

	feed(T, 4, math.NaN(), 2, 6, math.NaN())
	s = T.Summarize()
	assert.Equal(Te, 3, s.N)
	assert.Equal(Te, 2, s.Failed)
	assert.InDelta(Te, 4.0, s.Mean, 1e-9)
	assert.InDelta(Te, 2.0, s.StdDev, 1e-9)
	assert.Equal(Te, 2.0, s.Min)
	assert.Equal(Te, 6.0, s.Max)
	assert.Equal(Te, 3, s.Best)
	assert.Len(Te, T.Points(), 3)

	one := new(Trace)
	feed(one, -7)
	s = one.Summarize()
	assert.Equal(Te, -7.0, s.Mean)
	assert.True(Te, math.IsNaN(s.StdDev))
}

func TestSave(Te *testing.T) {
	T := new(Trace)
	name := filepath.Join(Te.TempDir(), "1abc_decoys.png")
	assert.Error(Te, T.Save("1ABC", name))

	feed(T, -10, math.NaN(), -12.5, -11)
	require.NoError(Te, T.Save("1ABC", name))
	info, err := os.Stat(name)
	require.NoError(Te, err)
	assert.Greater(Te, info.Size(), int64(0))
}
