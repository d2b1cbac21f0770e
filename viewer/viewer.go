/*
 * viewer.go, part of pdbprep.
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

//Package viewer shows coordinate files in a web browser, with 3Dmol.js.
package viewer

import (
	"html/template"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	prep "github.com/rmera/pdbprep"
)

var page = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://3Dmol.org/build/3Dmol-min.js"></script>
<style>body{margin:0} #view{width:100vw;height:100vh;position:relative}</style>
</head>
<body>
<div id="view"></div>
<script>
let viewer = $3Dmol.createViewer("view", {backgroundColor: "white"});
viewer.addModel({{.PDB}}, "pdb");
viewer.setStyle({}, {cartoon: {color: "spectrum"}});
viewer.setStyle({hetflag: true}, {stick: {}});
viewer.zoomTo();
viewer.render();
</script>
</body>
</html>
`))

//Viewer renders structures into HTML pages and opens them.
type Viewer struct {
	//OpenCommand is the program that opens the page, followed by its
	//arguments. If empty, the usual one for the system is used.
	OpenCommand []string
	Log         *zap.Logger
	//start runs the command without waiting for it.
	start func(name string, args ...string) error
}

//New returns a Viewer. openCommand is split on blanks. log can be nil.
func New(openCommand string, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Viewer{OpenCommand: strings.Fields(openCommand), Log: log, start: startDetached}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func defaultOpener() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"cmd", "/c", "start"}
	case "darwin":
		return []string{"open"}
	}
	return []string{"xdg-open"}
}

//Page writes to w an HTML page showing the coordinate file pdbfile.
func Page(w io.Writer, pdbfile string) error {
	in, err := prep.OpenCoordinateFile(pdbfile)
	if err != nil {
		return err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return prep.NewError(nil, err.Error(), pdbfile, false)
	}
	return page.Execute(w, struct{ Title, PDB string }{filepath.Base(pdbfile), string(data)})
}

//Show writes the page for pdbfile next to it (same name, .html
//extension) and opens it. It doesn't wait for the browser; the name of
//the page is returned. Failing to open the page is only logged.
func (V *Viewer) Show(pdbfile string) (string, error) {
	log := V.Log
	if log == nil {
		log = zap.NewNop()
	}
	html := strings.TrimSuffix(pdbfile, filepath.Ext(pdbfile)) + ".html"
	err := prep.AtomicWrite(html, func(w io.Writer) error { return Page(w, pdbfile) })
	if err != nil {
		return "", err
	}
	opener := V.OpenCommand
	if len(opener) == 0 {
		opener = defaultOpener()
	}
	start := V.start
	if start == nil {
		start = startDetached
	}
	args := append(append([]string{}, opener[1:]...), html)
	if err := start(opener[0], args...); err != nil {
		log.Warn("can't open the viewer", zap.String("path", html), zap.Error(err))
		return html, nil
	}
	log.Info("viewer opened", zap.String("path", html))
	return html, nil
}
