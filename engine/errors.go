/*
 * errors.go, part of pdbprep.
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

import "fmt"

//Kinds of engine errors.
const (
	ErrNotRunning = "The program could not be run"
	ErrNoPose     = "The program produced no conformation"
	ErrNoEnergy   = "No energy could be read from the program output"
	ErrForeign    = "The pose was not produced by this engine"
)

//Error is the error type for the engine package.
type Error struct {
	kind     string //one of the Err* constants
	program  string
	op       string //the operation that was being performed
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.message == "" {
		return fmt.Sprintf("%s (%s %s)", err.kind, err.program, err.op)
	}
	return fmt.Sprintf("%s (%s %s): %s", err.kind, err.program, err.op, err.message)
}

//Kind returns the kind of the error, one of the Err* constants.
func (err Error) Kind() string { return err.kind }

//Decorate adds deco to the breadcrumbs of the error and returns them. An
//empty deco just returns the current ones.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns whether the error is critical.
func (err Error) Critical() bool { return err.critical }
