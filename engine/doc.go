/*
 * doc.go, part of pdbprep.
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

//Package engine implements communication with external conformational
//sampling programs and statistical scorers, in such a way that the
//gap-filling procedure is as separated as possible from the choice of
//program that performs it.
//
//An Engine is stateful and not reentrant. Programs get to it through a
//Handle, which initializes the engine exactly once, the first time
//someone asks for it, and lets only one user at a time work with it.
package engine
