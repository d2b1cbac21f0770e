/*
 * gapfill_test.go, part of pdbprep.
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

package gapfill

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
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/engine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const mini = "../testdata/mini.pdb"

type fakePose int

func (p fakePose) String() string { return fmt.Sprintf("pose %d", int(p)) }

//fakeEngine hands out numbered poses. Sample calls fail when failSample
//says so for the call number (1-based), and the n-th scored pose gets
//energies[n-1]. It keeps count of the poses alive.
type fakeEngine struct {
	inits      int
	next       int
	live       map[fakePose]bool
	maxLive    int
	samples    int
	scores     int
	energies   []float64
	failSample func(call int) bool
	spans      []prep.Span
	initErr    error
}

func newFake(energies ...float64) *fakeEngine {
	return &fakeEngine{live: make(map[fakePose]bool), energies: energies}
}

func (f *fakeEngine) newPose() engine.Pose {
	f.next++
	p := fakePose(f.next)
	f.live[p] = true
	if len(f.live) > f.maxLive {
		f.maxLive = len(f.live)
	}
	return p
}

func (f *fakeEngine) Init(ctx context.Context) error {
	f.inits++
	return f.initErr
}

func (f *fakeEngine) FromFile(ctx context.Context, path string) (engine.Pose, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return f.newPose(), nil
}

func (f *fakeEngine) FromSequence(ctx context.Context, seq string) (engine.Pose, error) {
	return f.newPose(), nil
}

func (f *fakeEngine) Sample(ctx context.Context, template, start engine.Pose, spans []prep.Span) (engine.Pose, error) {
	f.samples++
	f.spans = spans
	if f.failSample != nil && f.failSample(f.samples) {
		return nil, errors.New("kinematic closure failed")
	}
	return f.newPose(), nil
}

func (f *fakeEngine) Score(ctx context.Context, p engine.Pose) (float64, error) {
	f.scores++
	if f.scores > len(f.energies) {
		return 0, nil
	}
	return f.energies[f.scores-1], nil
}

func (f *fakeEngine) Dump(ctx context.Context, p engine.Pose, path string) error {
	if !f.live[p.(fakePose)] {
		return fmt.Errorf("%v was released", p)
	}
	return os.WriteFile(path, []byte("REMARK "+p.String()+"\n"), 0o644)
}

func (f *fakeEngine) Release(p engine.Pose) {
	delete(f.live, p.(fakePose))
}

//relaxingEngine fails every relax call listed in fail.
type relaxingEngine struct {
	*fakeEngine
	relaxes int
	fail    map[int]bool
}

func (r *relaxingEngine) Relax(ctx context.Context, p engine.Pose) (engine.Pose, error) {
	r.relaxes++
	if r.fail[r.relaxes] {
		return nil, errors.New("relax diverged")
	}
	return r.newPose(), nil
}

//fakeStat returns a value for each decoy file, by attempt number.
type fakeStat map[string]float64

func (s fakeStat) Statistic(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	v, ok := s[filepath.Base(path)]
	if !ok {
		return 0, engine.ErrStatUnavailable
	}
	return v, nil
}

func request(Te *testing.T, decoys int) Request {
	dir := Te.TempDir()
	return Request{
		Structure: mini,
		Sequence:  "AGSL",
		Decoys:    decoys,
		Output:    filepath.Join(dir, "mini_cleaned_modeled.pdb"),
		Scratch:   dir,
	}
}

func TestRunKeepsTheBest(Te *testing.T) {
	fe := newFake(5, 1, 3)
	var seen []Attempt
	loop := New(engine.NewHandle(fe, nil), nil, zap.NewNop())
	loop.Observers = append(loop.Observers, ObserverFunc(func(a Attempt) { seen = append(seen, a) }))
	req := request(Te, 3)
	out, err := loop.Run(context.Background(), req)
	require.NoError(Te, err)
	assert.Equal(Te, Done, out.State)
	assert.Equal(Te, 3, out.Attempts)
	assert.Equal(Te, 3, out.Successes)
	assert.Equal(Te, 30, out.Budget)
	assert.NoError(Te, out.Err)
	require.NotNil(Te, out.Best)
	assert.Equal(Te, 2, out.Best.Attempt)
	assert.Equal(Te, 1.0, out.Best.Composite)
	assert.False(Te, out.Best.HasStat)
	assert.Equal(Te, []prep.Span{{Chain: "A", Start: 2, End: 2}}, out.Spans)
	assert.Equal(Te, out.Spans, fe.spans)
	assert.Len(Te, seen, 3)

	content, err := os.ReadFile(out.Modeled)
	require.NoError(Te, err)
	//template is pose 1, the sequence pose 2, the second decoy pose 4
	assert.Equal(Te, "REMARK pose 4\n", string(content))
	assert.Empty(Te, fe.live, "poses left behind")
	//template, sequence, best and the current one.
	assert.LessOrEqual(Te, fe.maxLive, 4)
	_, err = os.Stat(filepath.Join(req.Scratch, "mini_protein_only.pdb"))
	assert.NoError(Te, err)
}

func TestRunBudget(Te *testing.T) {
	cases := []struct {
		name      string
		decoys    int
		fail      func(int) bool
		attempts  int
		successes int
		state     State
	}{
		{"all fail", 2, func(int) bool { return true }, 20, 0, Aborted},
		{"one works", 2, func(c int) bool { return c != 4 }, 20, 1, Done},
		{"odd fail", 3, func(c int) bool { return c%2 == 1 }, 6, 3, Done},
		{"none fail", 1, nil, 1, 1, Done},
	}
	for _, c := range cases {
		Te.Run(c.name, func(Te *testing.T) {
			fe := newFake()
			fe.failSample = c.fail
			out, err := New(engine.NewHandle(fe, nil), nil, nil).Run(context.Background(), request(Te, c.decoys))
			require.NoError(Te, err)
			assert.Equal(Te, c.state, out.State)
			assert.Equal(Te, c.attempts, out.Attempts)
			assert.Equal(Te, c.successes, out.Successes)
			assert.LessOrEqual(Te, out.Attempts, DefaultBudgetFactor*c.decoys)
			assert.True(Te, out.Successes == c.decoys || out.Attempts == out.Budget)
			if out.Successes < c.decoys {
				assert.True(Te, errors.Is(out.Err, prep.ErrBudgetExhausted), "got %v", out.Err)
			}
			assert.Empty(Te, fe.live)
		})
	}
}

func TestRunCompositeScore(Te *testing.T) {
	fe := newFake(10, 10, 10)
	//decoy 3 has no statistical potential, its composite is its energy.
	stat := fakeStat{"decoy_1.pdb": -50, "decoy_2.pdb": 20}
	loop := New(engine.NewHandle(fe, nil), stat, nil)
	var composites []float64
	loop.Observers = []Observer{ObserverFunc(func(a Attempt) { composites = append(composites, a.Decoy.Composite) })}
	req := request(Te, 3)
	out, err := loop.Run(context.Background(), req)
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, []float64{5, 12, 10}, composites, 1e-9)
	assert.Equal(Te, 1, out.Best.Attempt)
	assert.True(Te, out.Best.HasStat)
	assert.Equal(Te, -50.0, out.Best.Stat)
	entries, err := os.ReadDir(req.Scratch)
	require.NoError(Te, err)
	for _, e := range entries {
		assert.False(Te, strings.HasPrefix(e.Name(), "decoy_"), "decoy file %s left behind", e.Name())
	}
}

func TestRunRelaxFailures(Te *testing.T) {
	re := &relaxingEngine{fakeEngine: newFake(3, 2), fail: map[int]bool{1: true}}
	var failed int
	loop := New(engine.NewHandle(re, nil), nil, nil)
	loop.Observers = []Observer{ObserverFunc(func(a Attempt) {
		if a.Err != nil {
			failed++
			assert.True(Te, errors.Is(a.Err, prep.ErrAttemptFailure))
		}
	})}
	out, err := loop.Run(context.Background(), request(Te, 2))
	require.NoError(Te, err)
	assert.Equal(Te, 3, out.Attempts)
	assert.Equal(Te, 2, out.Successes)
	assert.Equal(Te, 1, failed)
	assert.Equal(Te, 3, re.relaxes)
	assert.True(Te, out.Relaxed)
	assert.Empty(Te, re.live)
}

func TestRunCapabilitiesOnce(Te *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	re := &relaxingEngine{fakeEngine: newFake(3, 2, 1)}
	loop := New(engine.NewHandle(re, nil), fakeStat{}, zap.New(core))
	out, err := loop.Run(context.Background(), request(Te, 3))
	require.NoError(Te, err)
	assert.True(Te, out.Relaxed)
	assert.Equal(Te, 3, re.relaxes)
	caps := logs.FilterMessage("engine capabilities").All()
	require.Len(Te, caps, 1)
	assert.Equal(Te, true, caps[0].ContextMap()["relax"])
	assert.Equal(Te, true, caps[0].ContextMap()["stat"])

	fe := newFake(1)
	out, err = New(engine.NewHandle(fe, nil), nil, nil).Run(context.Background(), request(Te, 1))
	require.NoError(Te, err)
	assert.False(Te, out.Relaxed)
	assert.Equal(Te, Done, out.State)
}

func TestRunAborts(Te *testing.T) {
	ctx := context.Background()
	fe := newFake()
	req := request(Te, 2)
	req.Sequence = ""
	out, err := New(engine.NewHandle(fe, nil), nil, nil).Run(ctx, req)
	require.NoError(Te, err)
	assert.Equal(Te, Aborted, out.State)
	assert.Equal(Te, 0, fe.inits, "the engine should not be started without a sequence")

	//A structure without gaps.
	dir := Te.TempDir()
	complete := filepath.Join(dir, "complete.pdb")
	S, err := prep.ParseFile(mini)
	require.NoError(Te, err)
	B := S.Filtered(&prep.SelectionSet{Chains: []string{"B"}})
	require.NoError(Te, prep.WriteFile(complete, B, nil))
	req = request(Te, 2)
	req.Structure = complete
	out, err = New(engine.NewHandle(fe, nil), nil, nil).Run(ctx, req)
	require.NoError(Te, err)
	assert.Equal(Te, Aborted, out.State)
	assert.Empty(Te, out.Spans)
	assert.Equal(Te, 0, fe.samples)

	broken := newFake()
	broken.initErr = errors.New("no license")
	out, err = New(engine.NewHandle(broken, nil), nil, nil).Run(ctx, request(Te, 2))
	assert.True(Te, errors.Is(err, prep.ErrEngineUnavailable), "got %v", err)
	assert.Equal(Te, Aborted, out.State)

	out, err = New(nil, nil, nil).Run(ctx, request(Te, 2))
	assert.True(Te, errors.Is(err, prep.ErrEngineUnavailable), "got %v", err)
	assert.Equal(Te, Aborted, out.State)
}

func TestRunCancelled(Te *testing.T) {
	fe := newFake()
	ctx, cancel := context.WithCancel(context.Background())
	loop := New(engine.NewHandle(fe, nil), nil, nil)
	loop.Observers = []Observer{ObserverFunc(func(a Attempt) {
		if a.Number == 2 {
			cancel()
		}
	})}
	out, err := loop.Run(ctx, request(Te, 5))
	assert.ErrorIs(Te, err, context.Canceled)
	assert.Equal(Te, 2, out.Attempts)
	assert.Equal(Te, Aborted, out.State)
	assert.Empty(Te, fe.live)
}

func TestStateString(Te *testing.T) {
	assert.Equal(Te, "sampling", Sampling.String())
	assert.Equal(Te, "State(42)", State(42).String())
}
