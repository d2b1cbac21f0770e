/*
 * pipeline.go, part of pdbprep.
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

//Package pipeline prepares a structure from start to end: it gets the
//file, reports what is wrong with it, keeps the chains and ligands the
//user wants, fills the gaps with the modeling engine and renumbers the
//residues, saving each stage in the work directory of the structure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/decide"
	"github.com/rmera/pdbprep/engine"
	"github.com/rmera/pdbprep/gapfill"
	"github.com/rmera/pdbprep/prepplot"
)

//Stages of a run, as named in the Report.
const (
	StageInput      = "input"
	StageCleaned    = "cleaned"
	StageModeled    = "modeled"
	StageMerged     = "merged"
	StageRenumbered = "renumbered"
	StagePlot       = "decoy_plot"
	StageManifest   = "manifest"

	ScoreBefore = "before"
	ScoreMid    = "after_modeling"
	ScoreFinal  = "final"
)

//Fetcher downloads the coordinate file for an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, id, dest string) error
}

//Shower displays a coordinate file.
type Shower interface {
	Show(pdbfile string) (string, error)
}

//Options are the collaborators and settings of a Pipeline. Everything but
//OutputBase can be left zero: without a Fetcher nothing can be
//downloaded, without a Handle no gap is filled, and so on.
type Options struct {
	OutputBase   string
	Fetcher      Fetcher
	Handle       *engine.Handle
	Stat         engine.StatScorer
	StatWeight   float64 //gapfill.DefaultStatWeight if 0
	Decoys       int     //offered as the default number of decoys
	BudgetFactor int
	Viewer       Shower
	Plot         bool //save a plot of the decoy scores
	Log          *zap.Logger
}

//Pipeline runs preparations. The decisions are taken by Decider.
type Pipeline struct {
	Options
	Decider decide.Decider
}

//New returns a Pipeline. A nil d takes every default.
func New(d decide.Decider, opts Options) *Pipeline {
	if d == nil {
		d = decide.Defaults{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.OutputBase == "" {
		opts.OutputBase = "prepared_proteins"
	}
	return &Pipeline{Options: opts, Decider: d}
}

//Source says where the structure comes from: a local file, or an
//identifier to download. If both are empty the Decider is asked.
type Source struct {
	Path string
	ID   string
}

//run is the state of one invocation.
type run struct {
	*Pipeline
	ctx     context.Context
	log     *zap.Logger
	rep     *Report
	scratch string
}

//ask returns the answer of the Decider, or the default if it fails.
func (r *run) ask(q decide.Question) string {
	a, err := r.Decider.Decide(r.ctx, q)
	if err != nil {
		r.log.Warn("no answer, using the default", zap.String("question", string(q.Kind)),
			zap.String("default", q.Default), zap.Error(err))
		return q.Default
	}
	return a
}

//diag records a recoverable problem.
func (r *run) diag(msg string, fields ...zap.Field) {
	r.log.Warn(msg, fields...)
	r.rep.Diagnostics = append(r.rep.Diagnostics, msg)
}

func (r *run) path(suffix string) string {
	return filepath.Join(r.rep.WorkDir, r.rep.ID+suffix)
}

//Run prepares one structure. Only an input that can't be obtained (kind
//prep.ErrInputNotFound) or read (prep.ErrParseFailure) stops the run
//with an error, as does the cancellation of ctx. Everything else is
//recorded in the Report, which is returned, and saved in the work
//directory, whenever the run got that far.
func (P *Pipeline) Run(ctx context.Context, src Source) (*Report, error) {
	r := &run{
		Pipeline: P,
		ctx:      ctx,
		rep:      &Report{RunID: uuid.NewString(), Started: time.Now()},
	}
	r.log = P.Log.With(zap.String("run", r.rep.RunID))
	input, err := r.acquire(src)
	if err != nil {
		return r.rep, err
	}
	r.log = r.log.With(zap.String("pdb", r.rep.ID))
	r.log.Info("working directory", zap.String("path", r.rep.WorkDir))
	r.scratch, err = os.MkdirTemp("", "pdbprep-"+r.rep.ID+"-")
	if err != nil {
		r.diag("can't create a scratch directory, using the work directory", zap.Error(err))
		r.scratch = ""
	} else {
		defer os.RemoveAll(r.scratch)
	}
	err = r.prepare(input)
	r.rep.Finished = time.Now()
	if r.rep.WorkDir != "" {
		manifest := r.path("_manifest.yaml")
		if merr := r.rep.WriteManifest(manifest); merr != nil {
			r.log.Warn("can't write the manifest", zap.Error(merr))
		} else {
			r.rep.artifact(StageManifest, manifest)
		}
	}
	return r.rep, err
}

//acquire obtains the input file, in the work directory of the structure,
//and returns its path.
func (r *run) acquire(src Source) (string, error) {
	local := src.Path != ""
	if !local && src.ID == "" {
		local = decide.Yes(r.ask(decide.Question{Kind: decide.Source, Prompt: "Do you have a local PDB file? [y/N]", Default: "n"}))
	}
	if local {
		path := src.Path
		if path == "" {
			path = strings.TrimSpace(r.ask(decide.Question{Kind: decide.Path, Prompt: "Enter path to PDB file"}))
		}
		return r.copyLocal(path)
	}
	id := src.ID
	if id == "" {
		id = strings.TrimSpace(r.ask(decide.Question{Kind: decide.PDBID, Prompt: "Enter PDB ID to fetch"}))
	}
	return r.download(id)
}

//confirmReplace asks whether the existing file path should be replaced.
func (r *run) confirmReplace(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return true
	}
	return decide.Yes(r.ask(decide.Question{Kind: decide.Overwrite, Prompt: fmt.Sprintf("%s exists. Overwrite? [y/N]", path), Default: "n"}))
}

func (r *run) copyLocal(path string) (string, error) {
	if path == "" {
		return "", prep.NewError(prep.ErrInputNotFound, "no file given", "", true)
	}
	if _, err := os.Stat(path); err != nil {
		return "", prep.NewError(prep.ErrInputNotFound, "file not found", path, true)
	}
	r.rep.ID = prep.StructureName(path)
	r.rep.Source = path
	r.rep.WorkDir = filepath.Join(r.OutputBase, r.rep.ID)
	if err := os.MkdirAll(r.rep.WorkDir, 0o755); err != nil {
		return "", prep.NewError(prep.ErrInputNotFound, err.Error(), r.rep.WorkDir, true)
	}
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, ext)
	}
	dest := filepath.Join(r.rep.WorkDir, name)
	if same(path, dest) {
		r.rep.artifact(StageInput, dest)
		return dest, nil
	}
	if !r.confirmReplace(dest) {
		r.log.Info("using the existing copy", zap.String("path", dest))
		r.rep.artifact(StageInput, dest)
		return dest, nil
	}
	if err := prep.CopyFile(path, dest); err != nil {
		return "", prep.NewError(prep.ErrInputNotFound, "can't copy the file: "+err.Error(), path, true)
	}
	r.rep.artifact(StageInput, dest)
	return dest, nil
}

func (r *run) download(id string) (string, error) {
	if id == "" {
		return "", prep.NewError(prep.ErrInputNotFound, "no identifier given", "", true)
	}
	id = strings.ToUpper(id)
	r.rep.ID = id
	r.rep.Source = "fetch:" + id
	r.rep.WorkDir = filepath.Join(r.OutputBase, id)
	if err := os.MkdirAll(r.rep.WorkDir, 0o755); err != nil {
		return "", prep.NewError(prep.ErrInputNotFound, err.Error(), r.rep.WorkDir, true)
	}
	dest := r.path(".pdb")
	if !r.confirmReplace(dest) {
		r.log.Info("using the existing download", zap.String("path", dest))
		r.rep.artifact(StageInput, dest)
		return dest, nil
	}
	if r.Fetcher == nil {
		return "", prep.NewError(prep.ErrInputNotFound, "downloads are not available", id, true)
	}
	if err := r.Fetcher.Fetch(r.ctx, id, dest); err != nil {
		if errors.Is(err, prep.ErrInputNotFound) {
			return "", err
		}
		return "", prep.NewError(prep.ErrInputNotFound, err.Error(), id, true)
	}
	r.rep.artifact(StageInput, dest)
	return dest, nil
}

//same returns true if a and b are the same file.
func same(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

//prepare goes through the stages that follow the acquisition of the input.
func (r *run) prepare(input string) error {
	S, err := prep.ParseFile(input)
	if err != nil {
		return err
	}
	if S.Skipped > 0 {
		r.diag(fmt.Sprintf("%d malformed coordinate records skipped", S.Skipped), zap.Int("skipped", S.Skipped))
	}
	inv, err := prep.PreScanFile(input)
	if err != nil {
		return err
	}
	r.log.Info("entities", zap.Strings("chains", inv.Chains), zap.Int("ligand_chains", len(inv.Ligands)))
	r.rep.Topology = topology(S)
	for _, t := range r.rep.Topology {
		r.log.Info("chain topology", zap.Int("model", t.Model), zap.String("chain", t.Chain),
			zap.Strings("discontinuities", t.Discontinuities), zap.Int("missing", t.Missing))
	}

	sel := r.selection(inv)
	r.rep.Chains = sel.Chains
	for _, l := range sel.Ligands {
		r.rep.Ligands = append(r.rep.Ligands, l.Chain+":"+l.Name)
	}
	cleaned := S.Filtered(sel)
	cleanedPath, err := Save(r.ctx, r.Decider, r.path("_cleaned.pdb"), cleaned, nil)
	if err != nil {
		r.diag("cleaned structure not saved, stopping", zap.Error(err))
		return r.ctx.Err()
	}
	r.rep.artifact(StageCleaned, cleanedPath)
	r.show(cleanedPath)
	before := r.rep.assess(ScoreBefore, cleaned)
	r.log.Info("score before handling missing residues", zap.Int("score", before.Score))

	current, currentPath := cleaned, cleanedPath
	merged := false
	if missing := prep.MissingResidues(cleaned); len(missing) > 0 {
		current, currentPath, merged, err = r.missing(cleaned, cleanedPath, sel)
		if err != nil {
			return err
		}
		if merged {
			mid := r.rep.assess(ScoreMid, current)
			r.log.Info("score after modeling and merge", zap.Int("score", mid.Score))
		}
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	if decide.Yes(r.ask(decide.Question{Kind: decide.Renumber, Prompt: "Renumber residues contiguously starting at 1? [Y/n]", Default: "y"})) {
		name := "_cleaned_renum.pdb"
		if merged {
			name = "_cleaned_merged_renum.pdb"
		}
		renum := prep.Renumber(current, 1)
		p, err := Save(r.ctx, r.Decider, r.path(name), renum, nil)
		if err != nil {
			r.diag("renumbered structure not saved", zap.Error(err))
		} else {
			r.rep.artifact(StageRenumbered, p)
			current, currentPath = renum, p
		}
	}
	final := r.rep.assess(ScoreFinal, current)
	r.rep.Final = currentPath
	r.log.Info("final structure", zap.Int("score", final.Score), zap.String("path", currentPath))
	return nil
}

//selection asks which chains and ligands to keep.
func (r *run) selection(inv *prep.Inventory) *prep.SelectionSet {
	opts := make([]string, len(inv.Chains))
	for i, c := range inv.Chains {
		opts[i] = "Chain " + c
	}
	chainAnswer := r.ask(decide.Question{
		Kind:    decide.Chains,
		Prompt:  "Enter chain numbers to keep (comma-separated), or 'all'",
		Options: opts,
		Default: "all",
	})
	chains := prep.SelectChains(inv, chainAnswer)
	candidates := prep.LigandCandidates(inv, chains)
	var ligands []prep.LigandRef
	if len(candidates) > 0 {
		opts = make([]string, len(candidates))
		for i, l := range candidates {
			opts[i] = l.String()
		}
		ligands = prep.SelectLigands(candidates, r.ask(decide.Question{
			Kind:    decide.Ligands,
			Prompt:  "Enter HETATM numbers to keep (comma-separated), 'none', or 'all'",
			Options: opts,
			Default: "all",
		}))
	}
	r.log.Info("selection", zap.Strings("chains", chains), zap.Int("ligands", len(ligands)))
	return &prep.SelectionSet{Chains: chains, Ligands: ligands}
}

func (r *run) show(path string) {
	if r.Viewer == nil {
		return
	}
	if _, err := r.Viewer.Show(path); err != nil {
		r.log.Warn("can't display the structure", zap.String("path", path), zap.Error(err))
	}
}

//missing handles the missing residues of cleaned, either by modeling them
//or by letting the user edit the file. It returns the structure to go on
//with, its file, and whether it is the merge of a model.
func (r *run) missing(cleaned *prep.Structure, cleanedPath string, sel *prep.SelectionSet) (*prep.Structure, string, bool, error) {
	if r.Handle == nil {
		r.diag("missing residues found, but no modeling engine is configured")
		return cleaned, cleanedPath, false, nil
	}
	strategy := r.ask(decide.Question{
		Kind:   decide.GapStrategy,
		Prompt: "Missing residues detected. Select option",
		Options: []string{
			"Attempt loop modeling with the modeling engine",
			"Manual handling: edit externally and re-run",
		},
		Default: "model",
	})
	if s := strings.ToLower(strings.TrimSpace(strategy)); s != "1" && s != "model" {
		r.ask(decide.Question{Kind: decide.ManualEdit, Prompt: fmt.Sprintf("Manual editing: please edit %s. Press Enter when done", cleanedPath)})
		edited, err := prep.ParseFile(cleanedPath)
		if err != nil {
			return nil, "", false, err
		}
		mid := r.rep.assess(ScoreMid, edited)
		r.log.Info("score after manual editing", zap.Int("score", mid.Score))
		return edited, cleanedPath, false, nil
	}

	var declared []string
	for _, c := range sel.Chains {
		declared = append(declared, cleaned.Declared[c]...)
	}
	seq := strings.TrimSpace(r.ask(decide.Question{
		Kind:    decide.Sequence,
		Prompt:  "Enter full amino-acid sequence (one-letter) matching SEQRES without ligands",
		Default: prep.OneLetterSequence(declared),
	}))
	if strings.EqualFold(seq, "none") {
		seq = ""
	}
	def := r.Decoys
	if def <= 0 {
		def = gapfill.DefaultDecoys
	}
	decoys := decide.Int(r.ask(decide.Question{
		Kind:    decide.Decoys,
		Prompt:  "Enter number of successful decoys to generate",
		Default: strconv.Itoa(def),
	}), def)

	loop := gapfill.New(r.Handle, r.Stat, r.log)
	if r.StatWeight > 0 {
		loop.Weight = r.StatWeight
	}
	var trace *prepplot.Trace
	if r.Plot {
		trace = new(prepplot.Trace)
		loop.Observers = append(loop.Observers, trace)
	}
	out, err := loop.Run(r.ctx, gapfill.Request{
		Structure:    cleanedPath,
		Sequence:     seq,
		Decoys:       decoys,
		BudgetFactor: r.BudgetFactor,
		Output:       r.path("_cleaned_modeled.pdb"),
		Scratch:      r.scratch,
	})
	if out != nil {
		r.rep.Gapfill = newGapfillReport(out)
	}
	switch {
	case r.ctx.Err() != nil:
		return nil, "", false, r.ctx.Err()
	case errors.Is(err, prep.ErrEngineUnavailable):
		r.diag("modeling engine unavailable, keeping the structure as is", zap.Error(err))
		return cleaned, cleanedPath, false, nil
	case err != nil:
		r.diag("gap filling failed", zap.Error(err))
		return cleaned, cleanedPath, false, nil
	}
	if out.Err != nil {
		r.diag(out.Err.Error())
	}
	if trace != nil && len(trace.Points()) > 0 {
		r.log.Info("decoys", zap.Stringer("summary", trace.Summarize()))
		plot := r.path("_decoys.png")
		if err := trace.Save(r.rep.ID+" decoys", plot); err != nil {
			r.log.Warn("can't plot the decoys", zap.Error(err))
		} else {
			r.rep.artifact(StagePlot, plot)
		}
	}
	if out.State != gapfill.Done {
		r.diag("gap filling aborted: " + out.Reason)
		return cleaned, cleanedPath, false, nil
	}
	r.rep.artifact(StageModeled, out.Modeled)

	modeled, err := prep.ParseFile(out.Modeled)
	if err != nil {
		r.diag("can't read the modeled structure", zap.Error(err))
		return cleaned, cleanedPath, false, nil
	}
	mergedS, stats := prep.Merge(cleaned, modeled)
	r.rep.Gapfill.Updated = stats.Updated
	r.rep.Gapfill.RMSD = stats.RMSD
	r.rep.Gapfill.MaxMove = stats.MaxDisplacement
	r.log.Info("merged", zap.Int("chains", stats.Chains), zap.Int("atoms", stats.Updated), zap.Float64("rmsd", stats.RMSD), zap.Float64("max_displacement", stats.MaxDisplacement))
	if stats.Updated == 0 {
		r.diag("the model shares no atoms with the cleaned structure")
	}
	if !math.IsInf(stats.Contact, 1) {
		r.rep.Gapfill.Contact = stats.Contact
		if stats.Contact < prep.ClashDistance {
			r.diag(fmt.Sprintf("a modeled atom is %.2f A from a ligand", stats.Contact))
		}
	}
	mergedPath, err := Save(r.ctx, r.Decider, r.path("_cleaned_merged.pdb"), mergedS, nil)
	if err != nil {
		r.diag("merged structure not saved", zap.Error(err))
		return cleaned, cleanedPath, false, nil
	}
	r.rep.artifact(StageMerged, mergedPath)
	return mergedS, mergedPath, true, nil
}
