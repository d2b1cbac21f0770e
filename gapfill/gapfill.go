/*
 * gapfill.go, part of pdbprep.
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

//Package gapfill fills the missing segments of a protein structure by
//sampling them, several times, with an external modeling engine, and
//keeping the best of the results.
package gapfill

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/engine"
)

const (
	DefaultDecoys       = 5
	DefaultBudgetFactor = 10
	DefaultStatWeight   = 0.1
)

//State is the stage a gap filling run is in.
type State int

const (
	Idle     State = iota
	Stripped       //polymer-only working copy written
	Sampling
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stripped:
		return "stripped"
	case Sampling:
		return "sampling"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

//Request describes one gap filling run.
type Request struct {
	Structure    string //coordinate file with the gaps
	Sequence     string //full-length one-letter sequence
	Decoys       int    //successful decoys wanted, DefaultDecoys if <= 0
	BudgetFactor int    //attempts allowed per decoy wanted, DefaultBudgetFactor if <= 0
	Output       string //where the best decoy is written
	Scratch      string //directory for temporary files, a new one is made (and removed) if empty
}

//Decoy is a successful attempt.
type Decoy struct {
	Attempt   int
	Energy    float64 //engine energy
	Stat      float64 //statistical potential, if HasStat
	HasStat   bool
	Composite float64
	pose      engine.Pose
}

//Attempt is reported to the observers after each sampling attempt. Decoy
//is nil if the attempt failed, in which case Err says why.
type Attempt struct {
	Number int
	Decoy  *Decoy
	Err    error
}

//Observer gets every attempt of a run, in order.
type Observer interface {
	Observe(a Attempt)
}

//ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(a Attempt)

func (f ObserverFunc) Observe(a Attempt) { f(a) }

//Outcome is the result of a run.
type Outcome struct {
	State     State
	Reason    string //why the run was aborted
	Spans     []prep.Span
	Requested int
	Budget    int
	Attempts  int
	Successes int
	Best      *Decoy
	Modeled   string //the file with the best decoy, if any
	Relaxed   bool   //decoys were relaxed before scoring
	//Err is of kind prep.ErrBudgetExhausted if the budget was used up
	//before getting the requested decoys. The run can still be Done.
	Err error
}

//Loop runs gap filling with an engine.
type Loop struct {
	Handle    *engine.Handle
	Stat      engine.StatScorer //nil if there is none
	Weight    float64           //of the statistical potential in the composite score
	Log       *zap.Logger
	Observers []Observer
}

//New returns a Loop with the default weight. stat and log can be nil.
func New(h *engine.Handle, stat engine.StatScorer, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{Handle: h, Stat: stat, Weight: DefaultStatWeight, Log: log}
}

func (L *Loop) logger() *zap.Logger {
	if L.Log == nil {
		return zap.NewNop()
	}
	return L.Log
}

func (L *Loop) notify(a Attempt) {
	for _, o := range L.Observers {
		o.Observe(a)
	}
}

//Run fills the gaps of req.Structure. Attempts are made one after the
//other until the requested number of decoys is obtained or the attempt
//budget runs out, and the decoy with the lowest composite score is
//written to req.Output. A run that can't start, or that gets no decoy at
//all, ends Aborted, which is not an error: the caller goes on without the
//modeled structure. Errors are returned only when the engine is
//unavailable (kind prep.ErrEngineUnavailable) or the input can't be read.
func (L *Loop) Run(ctx context.Context, req Request) (*Outcome, error) {
	log := L.logger().With(zap.String("pdb", req.Structure))
	out := &Outcome{State: Idle}
	abort := func(reason string) (*Outcome, error) {
		out.State = Aborted
		out.Reason = reason
		log.Warn("gap filling aborted", zap.String("reason", reason))
		return out, nil
	}
	if req.Sequence == "" {
		return abort("no sequence provided")
	}
	n := req.Decoys
	if n <= 0 {
		n = DefaultDecoys
	}
	factor := req.BudgetFactor
	if factor <= 0 {
		factor = DefaultBudgetFactor
	}
	out.Requested = n
	out.Budget = n * factor

	eng, release, err := L.Handle.Acquire(ctx)
	if err != nil {
		out.State = Aborted
		out.Reason = "engine unavailable"
		return out, err
	}
	defer release()
	var relax engine.Relaxer
	if L.Handle.CanRelax() {
		relax = eng.(engine.Relaxer)
	}
	out.Relaxed = relax != nil
	log.Info("engine capabilities", zap.Bool("relax", out.Relaxed), zap.Bool("stat", L.Stat != nil))

	scratch := req.Scratch
	if scratch == "" {
		scratch, err = os.MkdirTemp("", "pdbprep-gapfill-")
		if err != nil {
			return abort("can't create scratch directory: " + err.Error())
		}
		defer os.RemoveAll(scratch)
	}
	S, err := prep.ParseFile(req.Structure)
	if err != nil {
		out.State = Aborted
		out.Reason = "can't read the structure"
		return out, fmt.Errorf("gap filling: %w", err)
	}
	stripped := S.Filtered(prep.PolymerOnly)
	strippedPath := filepath.Join(scratch, S.Name+"_protein_only.pdb")
	if err := prep.WriteFile(strippedPath, stripped, nil); err != nil {
		return abort("can't write the polymer-only copy: " + err.Error())
	}
	out.State = Stripped
	log.Debug("gap filling", zap.Stringer("state", out.State), zap.String("path", strippedPath))

	out.Spans = prep.Spans(prep.MissingResidues(stripped))
	if len(out.Spans) == 0 {
		return abort("no missing segments to model")
	}
	template, err := eng.FromFile(ctx, strippedPath)
	if err != nil {
		return abort("engine can't load the structure: " + err.Error())
	}
	defer eng.Release(template)
	start, err := eng.FromSequence(ctx, req.Sequence)
	if err != nil {
		return abort("engine can't build the sequence: " + err.Error())
	}
	defer eng.Release(start)

	out.State = Sampling
	log.Info("sampling missing segments",
		zap.Int("spans", len(out.Spans)), zap.Int("decoys", n), zap.Int("budget", out.Budget))
	var best *Decoy
	for out.Successes < n && out.Attempts < out.Budget {
		if err := ctx.Err(); err != nil {
			if best != nil {
				eng.Release(best.pose)
			}
			out.State = Aborted
			out.Reason = "cancelled"
			return out, err
		}
		out.Attempts++
		d, err := L.attempt(ctx, eng, relax, template, start, out.Spans, out.Attempts, scratch)
		L.notify(Attempt{Number: out.Attempts, Decoy: d, Err: err})
		if err != nil {
			log.Warn("attempt failed", zap.Int("attempt", out.Attempts), zap.Error(err))
			continue
		}
		out.Successes++
		log.Info("decoy", zap.Int("attempt", d.Attempt), zap.Float64("energy", d.Energy),
			zap.Bool("stat", d.HasStat), zap.Float64("composite", d.Composite))
		if best == nil || d.Composite < best.Composite {
			if best != nil {
				eng.Release(best.pose)
			}
			best = d
		} else {
			eng.Release(d.pose)
		}
	}
	if out.Successes < n {
		out.Err = prep.NewError(prep.ErrBudgetExhausted,
			fmt.Sprintf("%d of %d decoys after %d attempts", out.Successes, n, out.Attempts), req.Structure, false)
		log.Warn("attempt budget exhausted", zap.Int("successes", out.Successes), zap.Int("attempts", out.Attempts))
	}
	if best == nil {
		return abort("no successful decoys")
	}
	defer eng.Release(best.pose)
	out.Best = best
	if err := eng.Dump(ctx, best.pose, req.Output); err != nil {
		return abort("can't save the best decoy: " + err.Error())
	}
	out.Modeled = req.Output
	out.State = Done
	log.Info("best decoy", zap.Int("attempt", best.Attempt), zap.Float64("composite", best.Composite),
		zap.String("path", req.Output))
	return out, nil
}

//attempt samples one decoy, relaxes it if relax is not nil, and scores
//it. Every failure is of kind prep.ErrAttemptFailure, and leaves no pose
//behind.
func (L *Loop) attempt(ctx context.Context, eng engine.Engine, relax engine.Relaxer, template, start engine.Pose, spans []prep.Span, n int, scratch string) (*Decoy, error) {
	fail := func(step string, err error) (*Decoy, error) {
		return nil, prep.NewError(prep.ErrAttemptFailure, step+": "+err.Error(), "", false)
	}
	p, err := eng.Sample(ctx, template, start, spans)
	if err != nil {
		return fail("sampling", err)
	}
	if relax != nil {
		relaxed, err := relax.Relax(ctx, p)
		eng.Release(p)
		if err != nil {
			return fail("relax", err)
		}
		p = relaxed
	}
	energy, err := eng.Score(ctx, p)
	if err != nil {
		eng.Release(p)
		return fail("scoring", err)
	}
	d := &Decoy{Attempt: n, Energy: energy, Composite: energy, pose: p}
	if L.Stat == nil {
		return d, nil
	}
	path := filepath.Join(scratch, fmt.Sprintf("decoy_%d.pdb", n))
	if err := eng.Dump(ctx, p, path); err != nil {
		eng.Release(p)
		return fail("writing decoy", err)
	}
	defer os.Remove(path)
	stat, err := L.Stat.Statistic(ctx, path)
	switch {
	case err == nil:
		d.Stat = stat
		d.HasStat = true
		d.Composite = energy + L.Weight*stat
	case errors.Is(err, engine.ErrStatUnavailable):
		L.logger().Debug("statistical potential unavailable", zap.Int("attempt", n))
	default:
		L.logger().Warn("statistical potential failed, using the energy alone", zap.Int("attempt", n), zap.Error(err))
	}
	return d, nil
}
