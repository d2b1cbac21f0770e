/*
 * render.go, part of pdbprep.
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
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmera/pdbprep/config"
	"github.com/rmera/pdbprep/pipeline"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1f6feb")).
			Padding(0, 2).
			Bold(true)
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1f6feb")).
			Bold(true)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d73a49")).
			Bold(true)
)

const helpText = `# Commands

| command | |
|---|---|
| ` + "`pp`" + ` | prepare a protein: get the file, clean it, fill its gaps |
| ` + "`show`, `info`" + ` | show the configuration and the external programs |
| ` + "`clear`" + ` | clear the screen |
| ` + "`help`, `?`" + ` | this help |
| ` + "`exit`, `quit`" + ` | leave |
`

//render turns markdown into something for the terminal, or returns it
//as is if it can't.
func render(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func available(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "not configured"
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return "not found"
	}
	return "available"
}

//infoMarkdown describes the configuration c.
func infoMarkdown(c *config.Config) string {
	var b strings.Builder
	b.WriteString("# Configuration\n\n| setting | value |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, v) }
	row("output directory", c.OutputBase)
	row("download URL", "`"+c.Fetch.URLTemplate+"`")
	row("modeling engine", fmt.Sprintf("`%s` (%s)", c.Engine.Command, available(c.Engine.Command)))
	row("relax", fmt.Sprint(c.Engine.Relax))
	row("statistical potential", fmt.Sprintf("`%s` (%s), weight %g", c.Scorer.Command, available(c.Scorer.Command), c.Scorer.Weight))
	row("decoys", fmt.Sprintf("%d, at most %d attempts each", c.Gapfill.Decoys, c.Gapfill.BudgetFactor))
	row("viewer", fmt.Sprint(c.Viewer.Enabled))
	row("decoy plot", fmt.Sprint(c.Plot.Enabled))
	return b.String()
}

//summaryMarkdown describes the run rep.
func summaryMarkdown(rep *pipeline.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nRun `%s`, work directory `%s`.\n\n", rep.ID, rep.RunID, rep.WorkDir)
	if len(rep.Scores) > 0 {
		b.WriteString("| stage | score | missing | discontinuities |\n|---|---|---|---|\n")
		for _, s := range rep.Scores {
			fmt.Fprintf(&b, "| %s | %d/100 | %d | %d |\n", s.Stage, s.Score, s.Missing, s.Discontinuities)
		}
		b.WriteString("\n")
	}
	if g := rep.Gapfill; g != nil {
		fmt.Fprintf(&b, "Gap filling %s: %d of %d decoys in %d attempts", g.State, g.Successes, g.Requested, g.Attempts)
		if g.Best > 0 {
			fmt.Fprintf(&b, ", best from attempt %d (composite %.2f)", g.Best, g.Composite)
		}
		b.WriteString(".\n\n")
	}
	if rep.Final != "" {
		fmt.Fprintf(&b, "**Final structure:** `%s`\n\n", rep.Final)
	} else {
		b.WriteString("**No final structure.**\n\n")
	}
	if len(rep.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range rep.Diagnostics {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	return b.String()
}
