/*
 * build.go, part of pdbprep.
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

package main

import (
	"go.uber.org/zap"

	"github.com/rmera/pdbprep/config"
	"github.com/rmera/pdbprep/decide"
	"github.com/rmera/pdbprep/engine"
	"github.com/rmera/pdbprep/fetch"
	"github.com/rmera/pdbprep/pipeline"
	"github.com/rmera/pdbprep/viewer"
)

//collaborators are the external programs a configuration refers to.
//The engine handle lives as long as the process, so it is initialized
//at most once however many preparations are run.
type collaborators struct {
	handle *engine.Handle
	stat   engine.StatScorer
}

func newCollaborators(c *config.Config, log *zap.Logger) *collaborators {
	col := new(collaborators)
	if c.Engine.Command != "" {
		col.handle = engine.NewHandle(engine.NewExec(c.Engine.Command, c.Engine.Relax, log), log)
		log.Debug("modeling engine", zap.String("command", c.Engine.Command), zap.Bool("relax", col.handle.CanRelax()))
	}
	if c.Scorer.Command != "" {
		s, err := engine.NewExecScorer(c.Scorer.Command, c.Scorer.DataDir, log)
		if err != nil {
			log.Info("statistical potential unavailable, using the engine energy alone", zap.Error(err))
		} else {
			col.stat = s
		}
	}
	return col
}

func (C *collaborators) Close() error {
	return C.handle.Close()
}

//newPipeline builds a pipeline from c, with the decider d.
func newPipeline(c *config.Config, col *collaborators, d decide.Decider, log *zap.Logger) *pipeline.Pipeline {
	opts := pipeline.Options{
		OutputBase:   c.OutputBase,
		Fetcher:      fetch.New(c.Fetch.URLTemplate, c.FetchTimeout(), log),
		Handle:       col.handle,
		Stat:         col.stat,
		StatWeight:   c.Scorer.Weight,
		Decoys:       c.Gapfill.Decoys,
		BudgetFactor: c.Gapfill.BudgetFactor,
		Plot:         c.Plot.Enabled,
		Log:          log,
	}
	if c.Viewer.Enabled {
		opts.Viewer = viewer.New(c.Viewer.OpenCommand, log)
	}
	return pipeline.New(d, opts)
}
