/*
 * repl.go, part of pdbprep.
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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/rmera/pdbprep/decide"
	"github.com/rmera/pdbprep/pipeline"
)

//runREPL reads commands from in until exit, quit or the end of the input.
func runREPL(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger
	if log == nil {
		log = zap.NewNop()
	}
	col := newCollaborators(cfg, log)
	defer col.Close()
	//The questions of the pipeline are answered from the same reader.
	reader := bufio.NewReader(in)
	d := decide.NewInteractive(reader, out)

	fmt.Fprintln(out, bannerStyle.Render("pdbprep"))
	fmt.Fprintln(out, "Enter 'pp' to prepare a protein, 'help' for the commands, or 'exit' to quit.")
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(out, promptStyle.Render("pdbprep>")+" ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(line))
		switch cmd {
		case "exit", "quit":
			fmt.Fprintln(out, "Exiting pdbprep.")
			return nil
		case "show", "info":
			fmt.Fprint(out, render(infoMarkdown(cfg)))
		case "clear":
			fmt.Fprint(out, "\033[H\033[2J")
		case "help", "?":
			fmt.Fprint(out, render(helpText))
		case "pp":
			rep, err := newPipeline(cfg, col, d, log).Run(ctx, pipeline.Source{})
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("Preparation failed:")+" "+err.Error())
				log.Warn("preparation failed", zap.Error(err))
			}
			if rep != nil && rep.ID != "" {
				fmt.Fprint(out, render(summaryMarkdown(rep)))
			}
		case "":
		default:
			fmt.Fprintf(out, "Unknown command: '%s'. Type 'help' for options.\n", cmd)
		}
	}
	fmt.Fprintln(out, "Exiting pdbprep.")
	return nil
}
