/*
 * manifest.go, part of pdbprep.
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

package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/gapfill"
)

//Report describes a run of the pipeline. It is saved, as YAML, in the
//work directory.
type Report struct {
	RunID       string          `yaml:"run_id"`
	ID          string          `yaml:"id"`
	Source      string          `yaml:"source"`
	WorkDir     string          `yaml:"work_dir"`
	Started     time.Time       `yaml:"started"`
	Finished    time.Time       `yaml:"finished"`
	Chains      []string        `yaml:"chains,omitempty"`
	Ligands     []string        `yaml:"ligands,omitempty"`
	Topology    []ChainTopology `yaml:"topology,omitempty"`
	Artifacts   []Artifact      `yaml:"artifacts,omitempty"`
	Scores      []StageScore    `yaml:"scores,omitempty"`
	Gapfill     *GapfillReport  `yaml:"gapfill,omitempty"`
	Final       string          `yaml:"final,omitempty"`
	Diagnostics []string        `yaml:"diagnostics,omitempty"`
}

//ChainTopology is the state of one chain of one model of the input.
type ChainTopology struct {
	Model           int      `yaml:"model"`
	Chain           string   `yaml:"chain"`
	Declared        int      `yaml:"declared,omitempty"`
	Missing         int      `yaml:"missing,omitempty"`
	Discontinuities []string `yaml:"discontinuities,omitempty"`
}

//Artifact is a file written by the run.
type Artifact struct {
	Stage string `yaml:"stage"`
	Path  string `yaml:"path"`
}

//StageScore is the quality of the structure at some stage.
type StageScore struct {
	Stage           string `yaml:"stage"`
	Score           int    `yaml:"score"`
	Missing         int    `yaml:"missing"`
	Discontinuities int    `yaml:"discontinuities"`
}

//GapfillReport summarizes the gap filling step.
type GapfillReport struct {
	State     string   `yaml:"state"`
	Reason    string   `yaml:"reason,omitempty"`
	Spans     []string `yaml:"spans,omitempty"`
	Requested int      `yaml:"requested"`
	Attempts  int      `yaml:"attempts"`
	Successes int      `yaml:"successes"`
	Best      int      `yaml:"best_attempt,omitempty"`
	Energy    float64  `yaml:"best_energy,omitempty"`
	Composite float64  `yaml:"best_composite,omitempty"`
	Updated   int      `yaml:"merged_atoms,omitempty"`
	RMSD      float64  `yaml:"merge_rmsd,omitempty"`
	MaxMove   float64  `yaml:"merge_max_displacement,omitempty"`
	Contact   float64  `yaml:"ligand_contact,omitempty"`
}

func newGapfillReport(out *gapfill.Outcome) *GapfillReport {
	g := &GapfillReport{
		State:     out.State.String(),
		Reason:    out.Reason,
		Requested: out.Requested,
		Attempts:  out.Attempts,
		Successes: out.Successes,
	}
	for _, s := range out.Spans {
		g.Spans = append(g.Spans, s.String())
	}
	if out.Best != nil {
		g.Best = out.Best.Attempt
		g.Energy = out.Best.Energy
		g.Composite = out.Best.Composite
	}
	return g
}

func topology(S *prep.Structure) []ChainTopology {
	var ret []ChainTopology
	type key struct {
		model int
		chain string
	}
	idx := make(map[key]int)
	entry := func(model int, chain string) *ChainTopology {
		k := key{model, chain}
		i, ok := idx[k]
		if !ok {
			i = len(ret)
			idx[k] = i
			ret = append(ret, ChainTopology{Model: model, Chain: chain})
		}
		return &ret[i]
	}
	for _, d := range prep.Discontinuities(S) {
		e := entry(d.Model, d.Chain)
		for _, j := range d.Jumps {
			e.Discontinuities = append(e.Discontinuities, j.String())
		}
	}
	for _, m := range prep.MissingResidues(S) {
		e := entry(m.Model, m.Chain)
		e.Declared = m.Declared
		e.Missing = len(m.Missing)
	}
	return ret
}

func (R *Report) artifact(stage, path string) {
	R.Artifacts = append(R.Artifacts, Artifact{Stage: stage, Path: path})
}

func (R *Report) assess(stage string, S *prep.Structure) StageScore {
	q := prep.Assess(S)
	s := StageScore{Stage: stage, Score: q.Score, Missing: q.Missing, Discontinuities: q.Discontinuities}
	R.Scores = append(R.Scores, s)
	return s
}

//Score returns the score recorded for stage, and false if there is none.
func (R *Report) Score(stage string) (StageScore, bool) {
	for _, s := range R.Scores {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageScore{}, false
}

//WriteManifest saves R as YAML to path.
func (R *Report) WriteManifest(path string) error {
	return prep.AtomicWrite(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(R); err != nil {
			return err
		}
		return enc.Close()
	})
}

//ReadManifest loads a Report saved with WriteManifest.
func ReadManifest(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	R := new(Report)
	if err := yaml.Unmarshal(data, R); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return R, nil
}
