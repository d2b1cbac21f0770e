/*
 * prepare.go, part of pdbprep.
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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmera/pdbprep/decide"
	"github.com/rmera/pdbprep/pipeline"
)

var (
	prepFile    string
	prepID      string
	answersPath string
	interactive bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Prepare one protein without the shell",
	Long: `Runs the whole preparation for one structure. The questions are
answered from a YAML file (--answers), for instance:

  chains: all
  ligands: none
  overwrite: y
  decoys: 5
  renumber: y

Questions the file doesn't answer get their default. With --interactive
they are asked on the terminal instead.`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepFile, "file", "f", "", "Local PDB file")
	prepareCmd.Flags().StringVar(&prepID, "id", "", "PDB identifier to download")
	prepareCmd.Flags().StringVarP(&answersPath, "answers", "a", "", "YAML file with the answers")
	prepareCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask the questions on the terminal")
	prepareCmd.MarkFlagsMutuallyExclusive("file", "id")
	prepareCmd.MarkFlagsMutuallyExclusive("answers", "interactive")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger
	if log == nil {
		log = zap.NewNop()
	}
	var d decide.Decider = decide.Defaults{}
	switch {
	case answersPath != "":
		s, err := decide.LoadScript(answersPath)
		if err != nil {
			return err
		}
		d = s
	case interactive:
		d = decide.NewInteractive(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	col := newCollaborators(cfg, log)
	defer col.Close()
	rep, err := newPipeline(cfg, col, d, log).Run(ctx, pipeline.Source{Path: prepFile, ID: prepID})
	if rep != nil && rep.ID != "" {
		fmt.Fprint(cmd.OutOrStdout(), render(summaryMarkdown(rep)))
	}
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}
	return nil
}
