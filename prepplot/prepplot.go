/*
 * prepplot.go, part of pdbprep.
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

//Package prepplot collects the scores of the decoys of a gap filling run
//and plots them.
package prepplot

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rmera/pdbprep/gapfill"
)

//Point is one successful attempt.
type Point struct {
	Attempt   int
	Energy    float64
	Composite float64
}

//Trace is a gapfill.Observer that keeps the scores of every successful
//attempt and counts the failed ones.
type Trace struct {
	mu     sync.Mutex
	points []Point
	failed int
}

//Observe implements gapfill.Observer.
func (T *Trace) Observe(a gapfill.Attempt) {
	T.mu.Lock()
	defer T.mu.Unlock()
	if a.Decoy == nil {
		T.failed++
		return
	}
	T.points = append(T.points, Point{Attempt: a.Number, Energy: a.Decoy.Energy, Composite: a.Decoy.Composite})
}

//Points returns a copy of the points collected so far.
func (T *Trace) Points() []Point {
	T.mu.Lock()
	defer T.mu.Unlock()
	return append([]Point(nil), T.points...)
}

//Failed returns the number of failed attempts seen.
func (T *Trace) Failed() int {
	T.mu.Lock()
	defer T.mu.Unlock()
	return T.failed
}

//Summary describes the composite scores of a run.
type Summary struct {
	N      int
	Failed int
	Mean   float64
	StdDev float64 //NaN with less than 2 points
	Min    float64
	Max    float64
	Best   int //attempt with the lowest composite score, 0 if none
}

func (S Summary) String() string {
	if S.N == 0 {
		return fmt.Sprintf("no decoys, %d failed attempts", S.Failed)
	}
	return fmt.Sprintf("%d decoys (%d failed attempts), composite %.2f +/- %.2f, best %.2f (attempt %d)",
		S.N, S.Failed, S.Mean, S.StdDev, S.Min, S.Best)
}

//Summarize returns the statistics of the points in T.
func (T *Trace) Summarize() Summary {
	points := T.Points()
	s := Summary{N: len(points), Failed: T.Failed(), StdDev: math.NaN()}
	if len(points) == 0 {
		return s
	}
	composites := make([]float64, len(points))
	for i, p := range points {
		composites[i] = p.Composite
	}
	if len(points) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(composites, nil)
	} else {
		s.Mean = composites[0]
	}
	best := floats.MinIdx(composites)
	s.Min = composites[best]
	s.Max = floats.Max(composites)
	s.Best = points[best].Attempt
	return s
}

//Save plots the composite score (line) and the engine energy (points) of
//every decoy against the attempt number, marking the best decoy, and
//writes it as a PNG to filename.
func (T *Trace) Save(title, filename string) error {
	points := T.Points()
	if len(points) == 0 {
		return fmt.Errorf("prepplot: no decoys to plot")
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Attempt"
	p.Y.Label.Text = "Score"
	p.Add(plotter.NewGrid())

	composite := make(plotter.XYs, len(points))
	energy := make(plotter.XYs, len(points))
	for i, v := range points {
		composite[i].X = float64(v.Attempt)
		composite[i].Y = v.Composite
		energy[i].X = float64(v.Attempt)
		energy[i].Y = v.Energy
	}
	line, dots, err := plotter.NewLinePoints(composite)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 20, G: 90, B: 200, A: 255}
	dots.Color = line.Color
	scatter, err := plotter.NewScatter(energy)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 200, G: 120, B: 20, A: 255}
	scatter.GlyphStyle.Shape = draw.CrossGlyph{}

	s := T.Summarize()
	bestXY := make(plotter.XYs, 1)
	bestXY[0].X = float64(s.Best)
	bestXY[0].Y = s.Min
	best, err := plotter.NewScatter(bestXY)
	if err != nil {
		return err
	}
	best.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
	best.GlyphStyle.Shape = draw.RingGlyph{}
	best.GlyphStyle.Radius = vg.Points(6)

	p.Add(line, dots, scatter, best)
	p.Legend.Add("composite", line, dots)
	p.Legend.Add("energy", scatter)
	p.Legend.Add("best", best)
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}
