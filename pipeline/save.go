/*
 * save.go, part of pdbprep.
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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	prep "github.com/rmera/pdbprep"
	"github.com/rmera/pdbprep/decide"
)

//Save writes S, filtered by f (nil keeps everything), to path. If path
//exists, d is asked whether to overwrite it. If it says no, it is asked
//for another name, in the same directory. With no other name the error
//is of kind prep.ErrOverwriteDeclined and nothing is written. Save
//returns the path actually written. A decider error counts as a no.
func Save(ctx context.Context, d decide.Decider, path string, S *prep.Structure, f prep.Filter) (string, error) {
	if _, err := os.Stat(path); err == nil {
		a, err := d.Decide(ctx, decide.Question{
			Kind:    decide.Overwrite,
			Prompt:  fmt.Sprintf("%s exists. Overwrite? [y/N]", path),
			Default: "n",
		})
		if err != nil || !decide.Yes(a) {
			name, err := d.Decide(ctx, decide.Question{
				Kind:   decide.NewName,
				Prompt: "Enter new filename (or leave blank to skip saving)",
			})
			name = strings.TrimSpace(name)
			if err != nil || name == "" {
				return "", prep.NewError(prep.ErrOverwriteDeclined, "not saved", path, false)
			}
			path = filepath.Join(filepath.Dir(path), filepath.Base(name))
		}
	}
	if err := prep.WriteFile(path, S, f); err != nil {
		return "", err
	}
	return path, nil
}
