/*
 * exec.go, part of pdbprep.
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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
)

//ExecEngine drives a modeling program through a driver command. The
//command (which can include arguments, separated by spaces) is called
//with one of these operations, followed by its arguments:
//
//	check                                 exit status 0 if the engine works
//	load IN OUT                           IN is a coordinate file
//	from-sequence SEQ OUT                 SEQ is a one-letter sequence
//	sample --template TPL IN OUT SPAN...  SPAN is CHAIN:START-END
//	relax IN OUT
//	score IN                              the energy is the last field of the last output line
//
//IN, OUT and TPL are pose files in PDB format. A non-zero exit status
//means the operation failed.
type ExecEngine struct {
	command string
	workdir string
	log     *zap.Logger
	poses   atomic.Int64
}

//ExecRelaxEngine is an ExecEngine for a program that can also relax
//whole conformations.
type ExecRelaxEngine struct {
	*ExecEngine
}

//NewExec returns an engine that runs command. If relax is true, the
//engine returned implements Relaxer. log can be nil.
func NewExec(command string, relax bool, log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &ExecEngine{command: absCommand(command), log: log}
	if relax {
		return &ExecRelaxEngine{e}
	}
	return e
}

type filePose struct {
	path string
}

func (p *filePose) String() string { return p.path }

func (E *ExecEngine) pose(p Pose, op string) (*filePose, error) {
	fp, ok := p.(*filePose)
	if !ok || fp == nil {
		return nil, Error{ErrForeign, E.command, op, fmt.Sprintf("%v", p), []string{op}, true}
	}
	return fp, nil
}

//newPose returns a pose backed by a fresh file name in the work directory.
func (E *ExecEngine) newPose() *filePose {
	n := E.poses.Add(1)
	return &filePose{filepath.Join(E.workdir, fmt.Sprintf("pose_%d.pdb", n))}
}

//run runs the operation op of the driver, and returns its standard output.
func (E *ExecEngine) run(ctx context.Context, op string, args ...string) (string, error) {
	fields := strings.Fields(E.command)
	if len(fields) == 0 {
		return "", Error{ErrNotRunning, E.command, op, "empty command", []string{"run"}, true}
	}
	argv := append(append(fields[1:len(fields):len(fields)], op), args...)
	cmd := exec.CommandContext(ctx, fields[0], argv...)
	cmd.Dir = E.workdir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	E.log.Debug("running engine", zap.String("op", op), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if l := lastLine(stderr.String()); l != "" {
			msg += ": " + l
		}
		return "", Error{ErrNotRunning, E.command, op, msg, []string{"exec.Run", op}, true}
	}
	return stdout.String(), nil
}

//produce runs op, which must create the file of out.
func (E *ExecEngine) produce(ctx context.Context, out *filePose, op string, args ...string) (Pose, error) {
	if _, err := E.run(ctx, op, args...); err != nil {
		os.Remove(out.path)
		return nil, err
	}
	if _, err := os.Stat(out.path); err != nil {
		return nil, Error{ErrNoPose, E.command, op, out.path, []string{op}, true}
	}
	return out, nil
}

//Init creates the work directory for the pose files and checks that the
//driver works.
func (E *ExecEngine) Init(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "pdbprep-engine-")
	if err != nil {
		return err
	}
	E.workdir = dir
	if _, err := E.run(ctx, "check"); err != nil {
		os.RemoveAll(dir)
		return err
	}
	return nil
}

//Close removes the work directory and every pose in it.
func (E *ExecEngine) Close() error {
	if E.workdir == "" {
		return nil
	}
	err := os.RemoveAll(E.workdir)
	E.workdir = ""
	return err
}

func (E *ExecEngine) FromFile(ctx context.Context, path string) (Pose, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	out := E.newPose()
	return E.produce(ctx, out, "load", abs, out.path)
}

func (E *ExecEngine) FromSequence(ctx context.Context, seq string) (Pose, error) {
	out := E.newPose()
	return E.produce(ctx, out, "from-sequence", seq, out.path)
}

func (E *ExecEngine) Sample(ctx context.Context, template, start Pose, spans []prep.Span) (Pose, error) {
	tpl, err := E.pose(template, "sample")
	if err != nil {
		return nil, err
	}
	in, err := E.pose(start, "sample")
	if err != nil {
		return nil, err
	}
	out := E.newPose()
	args := []string{"--template", tpl.path, in.path, out.path}
	for _, s := range spans {
		args = append(args, s.String())
	}
	return E.produce(ctx, out, "sample", args...)
}

//Score returns the energy the driver prints as the last field of the last
//line of its output.
func (E *ExecEngine) Score(ctx context.Context, p Pose) (float64, error) {
	in, err := E.pose(p, "score")
	if err != nil {
		return 0, err
	}
	out, err := E.run(ctx, "score", in.path)
	if err != nil {
		return 0, err
	}
	return lastFloat(out, E.command, "score")
}

//Dump copies the pose to path.
func (E *ExecEngine) Dump(ctx context.Context, p Pose, path string) error {
	in, err := E.pose(p, "dump")
	if err != nil {
		return err
	}
	return prep.CopyFile(in.path, path)
}

func (E *ExecEngine) Release(p Pose) {
	if fp, ok := p.(*filePose); ok && fp != nil {
		if err := os.Remove(fp.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			E.log.Debug("could not remove pose", zap.String("path", fp.path), zap.Error(err))
		}
	}
}

func (E *ExecRelaxEngine) Relax(ctx context.Context, p Pose) (Pose, error) {
	in, err := E.pose(p, "relax")
	if err != nil {
		return nil, err
	}
	out := E.newPose()
	return E.produce(ctx, out, "relax", in.path, out.path)
}

//ExecScorer runs a program that prints a statistical potential for a
//coordinate file. The program gets the file as its only argument, and
//the data directory in the PDBPREP_SCORER_DATA environment variable.
//The statistic is the last field of the last line printed. A program
//that prints "unavailable" means it can't work.
type ExecScorer struct {
	command string
	dataDir string
	log     *zap.Logger
}

//NewExecScorer returns a scorer running command. If the command can't be
//found, or dataDir is not empty and doesn't exist, the scorer can't work,
//and an error of kind ErrStatUnavailable is returned instead.
func NewExecScorer(command, dataDir string, log *zap.Logger) (*ExecScorer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no scorer command: %w", ErrStatUnavailable)
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrStatUnavailable)
	}
	if dataDir != "" {
		if st, err := os.Stat(dataDir); err != nil || !st.IsDir() {
			return nil, fmt.Errorf("data directory %s not found: %w", dataDir, ErrStatUnavailable)
		}
	}
	return &ExecScorer{command: absCommand(command), dataDir: dataDir, log: log}, nil
}

func (S *ExecScorer) Statistic(ctx context.Context, path string) (float64, error) {
	fields := strings.Fields(S.command)
	argv := append(fields[1:len(fields):len(fields)], path)
	cmd := exec.CommandContext(ctx, fields[0], argv...)
	cmd.Env = append(os.Environ(), "PDBPREP_SCORER_DATA="+S.dataDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	S.log.Debug("running scorer", zap.String("path", path))
	if err := cmd.Run(); err != nil {
		msg := err.Error()
		if l := lastLine(stderr.String()); l != "" {
			msg += ": " + l
		}
		return 0, Error{ErrNotRunning, S.command, "statistic", msg, []string{"exec.Run", "Statistic"}, true}
	}
	if strings.EqualFold(lastLine(stdout.String()), "unavailable") {
		return 0, ErrStatUnavailable
	}
	return lastFloat(stdout.String(), S.command, "statistic")
}

//absCommand makes the program of command absolute if it is given as a
//relative path, as commands don't run in the current directory.
func absCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 || !strings.ContainsRune(fields[0], filepath.Separator) || filepath.IsAbs(fields[0]) {
		return command
	}
	abs, err := filepath.Abs(fields[0])
	if err != nil {
		return command
	}
	fields[0] = abs
	return strings.Join(fields, " ")
}

//lastLine returns the last non-empty line of s, trimmed.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

//lastFloat parses the last field of the last line of out.
func lastFloat(out, program, op string) (float64, error) {
	f := strings.Fields(lastLine(out))
	if len(f) == 0 {
		return 0, Error{ErrNoEnergy, program, op, "empty output", []string{"lastFloat"}, true}
	}
	v, err := strconv.ParseFloat(f[len(f)-1], 64)
	if err != nil {
		return 0, Error{ErrNoEnergy, program, op, err.Error(), []string{"strconv.ParseFloat", "lastFloat"}, true}
	}
	return v, nil
}
