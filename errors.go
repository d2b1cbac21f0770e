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

package prep

import (
	"errors"
	"fmt"
)

// The kinds of failure the preparation pipeline distinguishes. An Error
// unwraps to one of these, so errors.Is can be used on any error returned
// by this package or its subpackages.
var (
	ErrInputNotFound     = errors.New("input not found")
	ErrParseFailure      = errors.New("parse failure")
	ErrEngineUnavailable = errors.New("modeling engine unavailable")
	ErrAttemptFailure    = errors.New("sampling attempt failed")
	ErrBudgetExhausted   = errors.New("attempt budget exhausted")
	ErrOverwriteDeclined = errors.New("overwrite declined")
)

// Error is the error type of pdbprep. The Decorate method allows to add
// the names of the functions the error went through, without changing its
// type or wrapping it around something else.
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
	kind     error
}

// NewError returns an Error of the given kind (one of the Err* variables
// of this package, or nil) about the file filename.
func NewError(kind error, message, filename string, critical bool) Error {
	return Error{message: message, filename: filename, critical: critical, kind: kind}
}

func (err Error) Error() string {
	var s string
	switch {
	case err.kind != nil && err.filename != "":
		s = fmt.Sprintf("%s: file %s: %s", err.kind, err.filename, err.message)
	case err.kind != nil:
		s = fmt.Sprintf("%s: %s", err.kind, err.message)
	case err.filename != "":
		s = fmt.Sprintf("file %s: %s", err.filename, err.message)
	default:
		s = err.message
	}
	return s
}

// Decorate adds new information to the error, and returns the resulting
// decoration slice. An empty string just returns the current slice.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file the error is associated to.
func (err Error) FileName() string { return err.filename }

// Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

// Unwrap returns the kind of the error.
func (err Error) Unwrap() error { return err.kind }

// errDecorate adds caller to the decoration of err if err is an Error,
// and returns it. Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
		return e
	}
	return err
}
