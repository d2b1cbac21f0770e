/*
 * files.go, part of pdbprep.
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
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//decompressor pairs a decompressing reader with the file under it, so
//closing it closes both.
type decompressor struct {
	io.Reader
	closers []func() error
}

func (d *decompressor) Close() error {
	var err error
	for _, c := range d.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//OpenCoordinateFile opens fname for reading. Files ending in .gz are
//decompressed with gzip, files ending in .zst with zstd, anything else is
//read as is. A file that doesn't exist gives an error of kind
//ErrInputNotFound.
func OpenCoordinateFile(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError(ErrInputNotFound, "no such file", fname, true)
		}
		return nil, NewError(nil, err.Error(), fname, true)
	}
	reader := bufio.NewReader(f)
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".gz":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, NewError(ErrParseFailure, "corrupt gzip stream: "+err.Error(), fname, true)
		}
		return &decompressor{gz, []func() error{gz.Close, f.Close}}, nil
	case ".zst":
		zs, err := zstd.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, NewError(ErrParseFailure, "corrupt zstd stream: "+err.Error(), fname, true)
		}
		zsclose := func() error { zs.Close(); return nil }
		return &decompressor{zs, []func() error{zsclose, f.Close}}, nil
	}
	return &decompressor{reader, []func() error{f.Close}}, nil
}

//CopyFile copies the (possibly compressed) coordinate file src to the
//plain file dst, decompressing it if needed. dst is replaced atomically.
func CopyFile(src, dst string) error {
	in, err := OpenCoordinateFile(src)
	if err != nil {
		return errDecorate(err, "CopyFile")
	}
	defer in.Close()
	err = AtomicWrite(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
	return errDecorate(err, "CopyFile")
}

//AtomicWrite writes to a temporary file in the directory of dst, using
//write, and renames it to dst only if everything went fine. An existing
//dst is thus never left partially overwritten. The writer given to write
//is buffered.
func AtomicWrite(dst string, write func(io.Writer) error) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".pdbprep-*")
	if err != nil {
		return NewError(nil, err.Error(), dst, true)
	}
	tmpname := tmp.Name()
	bw := bufio.NewWriter(tmp)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpname, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpname, dst)
	}
	if err != nil {
		os.Remove(tmpname)
		return NewError(nil, err.Error(), dst, true)
	}
	return nil
}
