/*
 * decide.go, part of pdbprep.
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

//Package decide provides the decisions the preparation pipeline needs
//from its user: which chains to keep, whether to overwrite a file, and so
//on. A Decider can ask a person, read the answers from a file, or just
//take the defaults.
package decide

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//Kind identifies a question.
type Kind string

const (
	Source      Kind = "source"       //local file ("y") or fetch
	Path        Kind = "path"         //path of the local file
	PDBID       Kind = "pdb_id"       //identifier to fetch
	Overwrite   Kind = "overwrite"    //y/n
	NewName     Kind = "new_name"     //alternate file name, empty to skip
	Chains      Kind = "chains"       //indexes or "all"
	Ligands     Kind = "ligands"      //indexes, "all" or "none"
	GapStrategy Kind = "gap_strategy" //"model" or "manual"
	ManualEdit  Kind = "manual_edit"  //acknowledgment
	Sequence    Kind = "sequence"     //one-letter sequence, empty to give up
	Decoys      Kind = "decoys"       //number of decoys
	Renumber    Kind = "renumber"     //y/n
)

//Question is something the pipeline needs to know. Options, if any,
//are shown numbered from 1.
type Question struct {
	Kind    Kind
	Prompt  string
	Options []string
	Default string
}

//Decider answers questions.
type Decider interface {
	Decide(ctx context.Context, q Question) (string, error)
}

//Yes returns true if answer means yes.
func Yes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

//Int returns answer as an integer, or def if it isn't a positive one.
func Int(answer string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

//Defaults answers every question with its default.
type Defaults struct{}

func (Defaults) Decide(ctx context.Context, q Question) (string, error) {
	return q.Default, nil
}

//Interactive asks the questions on a terminal, or anything that looks
//like one.
type Interactive struct {
	in  *bufio.Reader
	out io.Writer
}

//NewInteractive returns a Decider that writes the questions to out and
//reads the answers, one per line, from in.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{in: bufio.NewReader(in), out: out}
}

//Decide shows q and reads one line. An empty line means the default.
//If the input ends before a line is read, io.EOF is returned.
func (I *Interactive) Decide(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i, o := range q.Options {
		fmt.Fprintf(I.out, "  %d: %s\n", i+1, o)
	}
	if q.Default != "" {
		fmt.Fprintf(I.out, "%s [%s]: ", q.Prompt, q.Default)
	} else {
		fmt.Fprintf(I.out, "%s: ", q.Prompt)
	}
	line, err := I.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(I.out)
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return q.Default, nil
	}
	return line, nil
}

//answers is a list of answers given in YAML either as a single scalar or
//as a sequence.
type answers []string

func (a *answers) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = answers{value.Value}
		return nil
	case yaml.SequenceNode:
		var s []string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*a = s
		return nil
	}
	return fmt.Errorf("line %d: an answer must be a string or a list of strings", value.Line)
}

//Scripted answers from a script: for each kind of question, a list of
//answers used in order. The last answer of a list is repeated once the
//others are used. Questions the script doesn't mention get their
//default.
type Scripted struct {
	script map[Kind]answers
	used   map[Kind]int
}

//ParseScript reads a script in YAML, a mapping from question kinds to
//an answer or a list of answers, for instance:
//
//	chains: all
//	ligands: none
//	overwrite: [y, n]
//	decoys: 5
func ParseScript(data []byte) (*Scripted, error) {
	script := make(map[Kind]answers)
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing answers: %w", err)
	}
	return &Scripted{script: script, used: make(map[Kind]int)}, nil
}

//LoadScript reads a script from the file path.
func LoadScript(path string) (*Scripted, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	return ParseScript(data)
}

func (S *Scripted) Decide(ctx context.Context, q Question) (string, error) {
	list := S.script[q.Kind]
	if len(list) == 0 {
		return q.Default, nil
	}
	i := S.used[q.Kind]
	if i >= len(list) {
		i = len(list) - 1
	}
	S.used[q.Kind]++
	return list[i], nil
}
