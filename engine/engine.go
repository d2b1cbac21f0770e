/*
 * engine.go, part of pdbprep.
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

package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	prep "github.com/rmera/pdbprep"
)

//Pose is a conformation held by an Engine. A Pose only makes sense to
//the engine that produced it.
type Pose interface {
	String() string
}

//Engine is an external modeling program.
type Engine interface {
	//Init prepares the engine. A Handle calls it exactly once, before
	//anything else.
	Init(ctx context.Context) error

	//FromFile builds a pose from a coordinate file.
	FromFile(ctx context.Context, path string) (Pose, error)

	//FromSequence builds an extended pose from a one-letter sequence.
	FromSequence(ctx context.Context, seq string) (Pose, error)

	//Sample returns a new conformation of start where the residues in
	//spans have been sampled, using template as the reference for the
	//rest. Each span gives a chain id and 1-based positions in the
	//declared sequence of that chain, not in the concatenated sequence
	//start was built from, so the engine has to map them to its own
	//numbering. Neither start nor template are modified.
	Sample(ctx context.Context, template, start Pose, spans []prep.Span) (Pose, error)

	//Score returns the energy of p, according to the engine's own
	//scoring function. Lower is better.
	Score(ctx context.Context, p Pose) (float64, error)

	//Dump writes p to the coordinate file path.
	Dump(ctx context.Context, p Pose, path string) error

	//Release frees whatever the engine keeps for p. p can't be used
	//afterwards.
	Release(p Pose)
}

//Relaxer is implemented by engines that can refine a whole conformation.
type Relaxer interface {
	Relax(ctx context.Context, p Pose) (Pose, error)
}

//ErrStatUnavailable means that a StatScorer can't work, usually because
//its data files can't be found.
var ErrStatUnavailable = errors.New("statistical scorer unavailable")

//StatScorer gives a statistical potential for the structure in a
//coordinate file. Lower is better.
type StatScorer interface {
	Statistic(ctx context.Context, path string) (float64, error)
}

//Handle gives access to an Engine. The engine is initialized the first
//time it is acquired, and only one user at a time can have it.
type Handle struct {
	eng     Engine
	log     *zap.Logger
	once    sync.Once
	initErr error
	sem     *semaphore.Weighted
}

//NewHandle returns a Handle for e. A nil e gives a Handle that is
//always unavailable. log can be nil.
func NewHandle(e Engine, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{eng: e, log: log, sem: semaphore.NewWeighted(1)}
}

//Acquire waits until the engine is free, initializes it if that hasn't
//been tried before, and returns it, together with the function that
//must be called to give it back. If the engine is missing or its
//initialization failed, the error is of kind prep.ErrEngineUnavailable.
//Initialization is not retried.
func (H *Handle) Acquire(ctx context.Context) (Engine, func(), error) {
	if H == nil || H.eng == nil {
		return nil, nil, prep.NewError(prep.ErrEngineUnavailable, "no modeling engine configured", "", false)
	}
	if err := H.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	H.once.Do(func() {
		H.initErr = H.eng.Init(ctx)
		if H.initErr != nil {
			H.log.Warn("engine initialization failed", zap.Error(H.initErr))
		} else {
			H.log.Debug("engine initialized")
		}
	})
	if H.initErr != nil {
		H.sem.Release(1)
		return nil, nil, prep.NewError(prep.ErrEngineUnavailable, H.initErr.Error(), "", false)
	}
	var released sync.Once
	release := func() {
		released.Do(func() { H.sem.Release(1) })
	}
	return H.eng, release, nil
}

//CanRelax returns true if the engine implements Relaxer.
func (H *Handle) CanRelax() bool {
	if H == nil {
		return false
	}
	_, ok := H.eng.(Relaxer)
	return ok
}

//Close releases the resources of the engine, if it keeps any.
func (H *Handle) Close() error {
	if H == nil {
		return nil
	}
	if c, ok := H.eng.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
