/*
 * pipeline_test.go, part of pdbprep.
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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/decide"
	"github.com/rmera/pdbprep/engine"
)

const (
	mini    = "../testdata/mini.pdb"
	modeled = "../testdata/mini_modeled.pdb"
)

type pose int

func (p pose) String() string { return fmt.Sprintf("pose %d", int(p)) }

//modeler is an engine whose every decoy is the modeled fixture.
type modeler struct {
	next    int
	seq     string
	initErr error
}

func (m *modeler) Init(ctx context.Context) error { return m.initErr }

func (m *modeler) newPose() engine.Pose {
	m.next++
	return pose(m.next)
}

func (m *modeler) FromFile(ctx context.Context, path string) (engine.Pose, error) {
	return m.newPose(), nil
}

func (m *modeler) FromSequence(ctx context.Context, seq string) (engine.Pose, error) {
	m.seq = seq
	return m.newPose(), nil
}

func (m *modeler) Sample(ctx context.Context, template, start engine.Pose, spans []prep.Span) (engine.Pose, error) {
	return m.newPose(), nil
}

func (m *modeler) Score(ctx context.Context, p engine.Pose) (float64, error) {
	return -float64(p.(pose)), nil
}

func (m *modeler) Dump(ctx context.Context, p engine.Pose, path string) error {
	return prep.CopyFile(modeled, path)
}

func (m *modeler) Release(p engine.Pose) {}

type copier struct{ calls int }

func (c *copier) Fetch(ctx context.Context, id, dest string) error {
	c.calls++
	if id != "1ABC" {
		return prep.NewError(prep.ErrInputNotFound, "404 Not Found", id, true)
	}
	return prep.CopyFile(mini, dest)
}

func script(Te *testing.T, yaml string) decide.Decider {
	s, err := decide.ParseScript([]byte(yaml))
	require.NoError(Te, err)
	return s
}

func artifacts(rep *Report) map[string]string {
	ret := make(map[string]string)
	for _, a := range rep.Artifacts {
		ret[a.Stage] = a.Path
	}
	return ret
}

func TestRunModel(Te *testing.T) {
	base := Te.TempDir()
	m := new(modeler)
	P := New(script(Te, "ligands: none\ndecoys: 2\n"), Options{
		OutputBase: base,
		Handle:     engine.NewHandle(m, nil),
		Plot:       true,
		Log:        zap.NewNop(),
	})
	rep, err := P.Run(context.Background(), Source{Path: mini})
	require.NoError(Te, err)
	dir := filepath.Join(base, "mini")
	assert.Equal(Te, "mini", rep.ID)
	assert.Equal(Te, dir, rep.WorkDir)
	assert.NotEmpty(Te, rep.RunID)
	assert.Equal(Te, []string{"A", "B"}, rep.Chains)
	assert.Empty(Te, rep.Ligands)
	assert.Equal(Te, "AGSLMK", m.seq, "the default sequence comes from the declared ones")

	files := artifacts(rep)
	assert.Equal(Te, filepath.Join(dir, "mini.pdb"), files[StageInput])
	assert.Equal(Te, filepath.Join(dir, "mini_cleaned.pdb"), files[StageCleaned])
	assert.Equal(Te, filepath.Join(dir, "mini_cleaned_modeled.pdb"), files[StageModeled])
	assert.Equal(Te, filepath.Join(dir, "mini_cleaned_merged.pdb"), files[StageMerged])
	assert.Equal(Te, filepath.Join(dir, "mini_cleaned_merged_renum.pdb"), files[StageRenumbered])
	assert.Equal(Te, filepath.Join(dir, "mini_decoys.png"), files[StagePlot])
	assert.Equal(Te, filepath.Join(dir, "mini_manifest.yaml"), files[StageManifest])
	assert.Equal(Te, files[StageRenumbered], rep.Final)
	for stage, f := range files {
		_, err := os.Stat(f)
		assert.NoError(Te, err, stage)
	}

	require.NotNil(Te, rep.Gapfill)
	assert.Equal(Te, "done", rep.Gapfill.State)
	assert.Equal(Te, []string{"A:2-2"}, rep.Gapfill.Spans)
	assert.Equal(Te, 2, rep.Gapfill.Attempts)
	//the second decoy is pose 4, and the lowest energy
	assert.Equal(Te, 2, rep.Gapfill.Best)
	assert.Equal(Te, 6, rep.Gapfill.Updated)
	assert.Greater(Te, rep.Gapfill.RMSD, 0.0)
	assert.GreaterOrEqual(Te, rep.Gapfill.MaxMove, rep.Gapfill.RMSD)

	s, ok := rep.Score(ScoreBefore)
	require.True(Te, ok)
	assert.Equal(Te, 94, s.Score)
	s, ok = rep.Score(ScoreMid)
	require.True(Te, ok)
	assert.Equal(Te, 94, s.Score, "merging moves atoms, it doesn't add residues")
	s, ok = rep.Score(ScoreFinal)
	require.True(Te, ok)
	assert.Equal(Te, 99, s.Score)
	assert.Equal(Te, 0, s.Discontinuities)

	merged, err := prep.ParseFile(files[StageMerged])
	require.NoError(Te, err)
	A := merged.Models[0].Chain("A")
	require.NotNil(Te, A)
	ala := A.Residue(prep.ResidueID{Num: 1, ICode: ' '})
	require.NotNil(Te, ala)
	xyz := merged.Models[0].Coord(ala.Atom("N"))
	assert.InDeltaSlice(Te, []float64{1.5, 2.5, 3.0}, xyz[:], 1e-3)
	assert.Nil(Te, merged.Models[0].Chain("A").Residue(prep.ResidueID{Num: 2, ICode: ' '}))

	man, err := ReadManifest(files[StageManifest])
	require.NoError(Te, err)
	assert.Equal(Te, rep.RunID, man.RunID)
	assert.Equal(Te, rep.Final, man.Final)
	require.Len(Te, man.Topology, 1)
	assert.Equal(Te, ChainTopology{Model: 0, Chain: "A", Declared: 4, Missing: 1, Discontinuities: []string{"(1,3)"}}, man.Topology[0])
	assert.Contains(Te, strings.Join(rep.Diagnostics, "\n"), "1 malformed coordinate records skipped")

	original, err := os.ReadFile(mini)
	require.NoError(Te, err)
	copied, err := os.ReadFile(files[StageInput])
	require.NoError(Te, err)
	assert.Equal(Te, original, copied)
}

func TestRunManual(Te *testing.T) {
	base := Te.TempDir()
	P := New(script(Te, "gap_strategy: manual\nchains: \"1\"\nligands: all\n"), Options{
		OutputBase: base,
		Handle:     engine.NewHandle(new(modeler), nil),
	})
	rep, err := P.Run(context.Background(), Source{Path: mini})
	require.NoError(Te, err)
	assert.Nil(Te, rep.Gapfill)
	assert.Equal(Te, []string{"A"}, rep.Chains)
	assert.Equal(Te, []string{"A:HOH", "A:ZN"}, rep.Ligands)
	assert.Equal(Te, filepath.Join(base, "mini", "mini_cleaned_renum.pdb"), rep.Final)
	final, err := prep.ParseFile(rep.Final)
	require.NoError(Te, err)
	assert.Equal(Te, []string{"A"}, final.ChainIDs())
	//renumbering keeps the ligands as such
	A := final.Models[0].Chain("A")
	assert.Len(Te, A.PolymerResidues(), 3)
	assert.Len(Te, A.Residues, 5)
	//the file was not edited, the score after handling is the same
	before, ok := rep.Score(ScoreBefore)
	require.True(Te, ok)
	mid, ok := rep.Score(ScoreMid)
	require.True(Te, ok)
	assert.Equal(Te, before.Score, mid.Score)
	assert.Equal(Te, before.Missing, mid.Missing)
}

func TestRunWithoutEngine(Te *testing.T) {
	broken := &modeler{initErr: errors.New("no license")}
	for name, h := range map[string]*engine.Handle{"none": nil, "broken": engine.NewHandle(broken, nil)} {
		Te.Run(name, func(Te *testing.T) {
			P := New(script(Te, "renumber: n\n"), Options{OutputBase: Te.TempDir(), Handle: h})
			rep, err := P.Run(context.Background(), Source{Path: mini})
			require.NoError(Te, err)
			assert.Equal(Te, artifacts(rep)[StageCleaned], rep.Final)
			assert.NotEmpty(Te, rep.Diagnostics)
			_, ok := rep.Score(ScoreMid)
			assert.False(Te, ok)
		})
	}
}

func TestRunNoSequence(Te *testing.T) {
	P := New(script(Te, "sequence: none\nrenumber: n\n"), Options{
		OutputBase: Te.TempDir(),
		Handle:     engine.NewHandle(new(modeler), nil),
	})
	rep, err := P.Run(context.Background(), Source{Path: mini})
	require.NoError(Te, err)
	require.NotNil(Te, rep.Gapfill)
	assert.Equal(Te, "aborted", rep.Gapfill.State)
	assert.Equal(Te, 0, rep.Gapfill.Attempts)
	assert.Equal(Te, artifacts(rep)[StageCleaned], rep.Final)
}

func TestRunOverwrite(Te *testing.T) {
	base := Te.TempDir()
	ctx := context.Background()
	_, err := New(nil, Options{OutputBase: base}).Run(ctx, Source{Path: mini})
	require.NoError(Te, err)
	cleaned := filepath.Join(base, "mini", "mini_cleaned.pdb")
	before, err := os.ReadFile(cleaned)
	require.NoError(Te, err)

	//every overwrite declined, no new names
	rep, err := New(script(Te, "overwrite: n\nchains: \"2\"\n"), Options{OutputBase: base}).Run(ctx, Source{Path: mini})
	require.NoError(Te, err)
	assert.Empty(Te, rep.Final)
	assert.Contains(Te, strings.Join(rep.Diagnostics, "\n"), "cleaned structure not saved")
	after, err := os.ReadFile(cleaned)
	require.NoError(Te, err)
	assert.Equal(Te, before, after)

	rep, err = New(script(Te, "overwrite: n\nnew_name: [chainB.pdb, '']\nchains: \"2\"\n"), Options{OutputBase: base}).Run(ctx, Source{Path: mini})
	require.NoError(Te, err)
	assert.Equal(Te, filepath.Join(base, "mini", "chainB.pdb"), artifacts(rep)[StageCleaned])
	S, err := prep.ParseFile(filepath.Join(base, "mini", "chainB.pdb"))
	require.NoError(Te, err)
	assert.Equal(Te, []string{"B"}, S.ChainIDs())
	//the renumbered file exists, and its save was declined too
	assert.Equal(Te, artifacts(rep)[StageCleaned], rep.Final)
}

func TestRunFetch(Te *testing.T) {
	base := Te.TempDir()
	c := new(copier)
	P := New(script(Te, "source: n\npdb_id: 1abc\n"), Options{OutputBase: base, Fetcher: c})
	rep, err := P.Run(context.Background(), Source{})
	require.NoError(Te, err)
	assert.Equal(Te, "1ABC", rep.ID)
	assert.Equal(Te, filepath.Join(base, "1ABC", "1ABC.pdb"), artifacts(rep)[StageInput])
	assert.Equal(Te, filepath.Join(base, "1ABC", "1ABC_cleaned_renum.pdb"), rep.Final)

	//an existing download is reused if it is not to be replaced
	P.Decider = script(Te, "overwrite: n\nnew_name: x.pdb\n")
	_, err = P.Run(context.Background(), Source{ID: "1abc"})
	require.NoError(Te, err)
	assert.Equal(Te, 1, c.calls)
}

func TestRunInputErrors(Te *testing.T) {
	ctx := context.Background()
	base := Te.TempDir()
	P := New(nil, Options{OutputBase: base, Fetcher: new(copier)})

	_, err := P.Run(ctx, Source{Path: filepath.Join(base, "nothere.pdb")})
	assert.True(Te, errors.Is(err, prep.ErrInputNotFound), "got %v", err)
	_, err = P.Run(ctx, Source{ID: "9ZZZ"})
	assert.True(Te, errors.Is(err, prep.ErrInputNotFound), "got %v", err)
	_, err = New(script(Te, "source: y\npath: ''\n"), Options{OutputBase: base}).Run(ctx, Source{})
	assert.True(Te, errors.Is(err, prep.ErrInputNotFound), "got %v", err)
	_, err = New(nil, Options{OutputBase: base}).Run(ctx, Source{ID: "1ABC"})
	assert.True(Te, errors.Is(err, prep.ErrInputNotFound), "no fetcher, got %v", err)

	garbage := filepath.Join(Te.TempDir(), "garbage.pdb")
	require.NoError(Te, os.WriteFile(garbage, []byte("REMARK nothing here\n"), 0o644))
	rep, err := P.Run(ctx, Source{Path: garbage})
	assert.True(Te, errors.Is(err, prep.ErrParseFailure), "got %v", err)
	_, err = os.Stat(filepath.Join(rep.WorkDir, "garbage_manifest.yaml"))
	assert.NoError(Te, err, "the manifest is written even if the run fails")
}

func TestSave(Te *testing.T) {
	ctx := context.Background()
	S, err := prep.ParseFile(mini)
	require.NoError(Te, err)
	dir := Te.TempDir()
	path := filepath.Join(dir, "out.pdb")

	p, err := Save(ctx, decide.Defaults{}, path, S, nil)
	require.NoError(Te, err)
	assert.Equal(Te, path, p)
	require.NoError(Te, os.WriteFile(path, []byte("REMARK keep\n"), 0o644))

	_, err = Save(ctx, decide.Defaults{}, path, S, nil)
	assert.True(Te, errors.Is(err, prep.ErrOverwriteDeclined), "got %v", err)
	content, err := os.ReadFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, "REMARK keep\n", string(content))

	p, err = Save(ctx, script(Te, "overwrite: n\nnew_name: ../other.pdb\n"), path, S, prep.PolymerOnly)
	require.NoError(Te, err)
	assert.Equal(Te, filepath.Join(dir, "other.pdb"), p, "new names stay in the same directory")

	p, err = Save(ctx, script(Te, "overwrite: y\n"), path, S, nil)
	require.NoError(Te, err)
	assert.Equal(Te, path, p)
	S2, err := prep.ParseFile(path)
	require.NoError(Te, err)
	assert.Equal(Te, S.AtomCount(), S2.AtomCount())
}
