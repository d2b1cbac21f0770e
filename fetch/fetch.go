/*
 * fetch.go, part of pdbprep.
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

//Package fetch downloads coordinate files from a structure repository.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
)

const (
	DefaultURLTemplate = "https://files.rcsb.org/download/%s.pdb"
	DefaultTimeout     = 60 * time.Second
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

//Client downloads coordinate files by identifier.
type Client struct {
	//URLTemplate has a single %s verb, replaced by the upper-case
	//identifier. Files whose URL ends in .gz are decompressed.
	URLTemplate string
	HTTP        *http.Client
	Log         *zap.Logger
}

//New returns a Client for the URL template, DefaultURLTemplate if it is
//empty. A zero timeout means DefaultTimeout. log can be nil.
func New(template string, timeout time.Duration, log *zap.Logger) *Client {
	if template == "" {
		template = DefaultURLTemplate
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{URLTemplate: template, HTTP: &http.Client{Timeout: timeout}, Log: log}
}

//URL returns the address of the file for id.
func (C *Client) URL(id string) string {
	return fmt.Sprintf(C.URLTemplate, strings.ToUpper(id))
}

//Fetch downloads the file for id and writes it, decompressed, to dest.
//dest is only replaced if the whole file was received. Every failure is
//of kind prep.ErrInputNotFound.
func (C *Client) Fetch(ctx context.Context, id, dest string) error {
	if !validID.MatchString(id) {
		return prep.NewError(prep.ErrInputNotFound, fmt.Sprintf("invalid identifier %q", id), "", true)
	}
	url := C.URL(id)
	notFound := func(msg string) error {
		C.Log.Warn("fetch failed", zap.String("pdb", id), zap.String("url", url), zap.String("reason", msg))
		return prep.NewError(prep.ErrInputNotFound, msg, url, true)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return notFound(err.Error())
	}
	//Asking for it ourselves means the transport leaves the body alone.
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := C.HTTP.Do(req)
	if err != nil {
		return notFound(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return notFound(resp.Status)
	}
	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" || strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return notFound("corrupt gzip data: " + err.Error())
		}
		defer gz.Close()
		body = gz
	}
	var n int64
	err = prep.AtomicWrite(dest, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, body)
		if err == nil && n == 0 {
			err = errors.New("empty file")
		}
		return err
	})
	if err != nil {
		return notFound(err.Error())
	}
	C.Log.Info("downloaded", zap.String("pdb", id), zap.String("path", dest), zap.Int64("bytes", n))
	return nil
}
