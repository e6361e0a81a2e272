/*
 * dx.go, part of watmap.
 *
 * Copyright 2023 Raul Mera A. (raulpuntomeraatusachpuntocl)
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

/*Package dx reads and writes volumetric maps in the OpenDX scalar field
format, the de-facto standard for visualizing grids over molecular structures
(PyMOL, VMD and Chimera all read it). Only regular, orthogonal grids with a
single scalar per point are supported, which is all watmap produces. Files
with a .gz extension are compressed/decompressed transparently.*/
package dx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/rmera/watmap/grid"
)

// Write writes g to w in OpenDX format. Each line of comment (if any) goes at
// the top of the file, prefixed with "# ".
func Write(w io.Writer, g *grid.Grid, comment string) error {
	bw := bufio.NewWriter(w)
	for _, line := range strings.Split(comment, "\n") {
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "# %s\n", line); err != nil {
			return Error{err.Error(), "", []string{"Write"}, true}
		}
	}
	nx, ny, nz := g.Dims()
	o := g.Origin()
	d := g.Delta()
	fmt.Fprintf(bw, "object 1 class gridpositions counts %d %d %d\n", nx, ny, nz)
	fmt.Fprintf(bw, "origin %.6f %.6f %.6f\n", o[0], o[1], o[2])
	fmt.Fprintf(bw, "delta %.6f 0.000000 0.000000\n", d)
	fmt.Fprintf(bw, "delta 0.000000 %.6f 0.000000\n", d)
	fmt.Fprintf(bw, "delta 0.000000 0.000000 %.6f\n", d)
	fmt.Fprintf(bw, "object 2 class gridconnections counts %d %d %d\n", nx, ny, nz)
	fmt.Fprintf(bw, "object 3 class array type double rank 0 items %d data follows\n", nx*ny*nz)
	//the data is already stored with z varying fastest, as DX wants it
	data := g.Data()
	for i, v := range data {
		fmt.Fprintf(bw, "%.6e", v)
		if (i+1)%3 == 0 || i == len(data)-1 {
			fmt.Fprint(bw, "\n")
		} else {
			fmt.Fprint(bw, " ")
		}
	}
	fmt.Fprint(bw, "attribute \"dep\" string \"positions\"\n")
	fmt.Fprint(bw, "object \"density\" class field\n")
	fmt.Fprint(bw, "component \"positions\" value 1\n")
	fmt.Fprint(bw, "component \"connections\" value 2\n")
	fmt.Fprint(bw, "component \"data\" value 3\n")
	if err := bw.Flush(); err != nil {
		return Error{err.Error(), "", []string{"Write"}, true}
	}
	return nil
}

// WriteFile writes g in OpenDX format to the file in path, gzip-compressing
// it if path ends in ".gz".
func WriteFile(path string, g *grid.Grid, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return Error{err.Error(), path, []string{"WriteFile"}, true}
	}
	defer f.Close()
	var w io.Writer = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gw := gzip.NewWriter(f)
		defer gw.Close()
		w = gw
	}
	err = Write(w, g, comment)
	if err != nil {
		return errDecorate(err, "WriteFile "+path)
	}
	return nil
}

// Read reads an OpenDX scalar field from r and returns it as a grid. The grid
// must be regular and orthogonal with the same spacing in the three
// dimensions, which is what Write produces.
func Read(r io.Reader) (*grid.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	var nx, ny, nz int
	var origin [3]float64
	var deltas [3]float64
	ndelta := 0
	var g *grid.Grid
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "object 1 class gridpositions"):
			if len(fields) < 8 {
				return nil, Error{"malformed gridpositions line: " + line, "", []string{"Read"}, true}
			}
			var err error
			nx, ny, nz, err = parseCounts(fields[len(fields)-3:])
			if err != nil {
				return nil, errDecorate(err, "Read")
			}
		case strings.HasPrefix(line, "origin"):
			if err := parseFloats(fields[1:], origin[:]); err != nil {
				return nil, errDecorate(err, "Read")
			}
		case strings.HasPrefix(line, "delta"):
			if ndelta > 2 {
				return nil, Error{"more than 3 delta lines", "", []string{"Read"}, true}
			}
			var row [3]float64
			if err := parseFloats(fields[1:], row[:]); err != nil {
				return nil, errDecorate(err, "Read")
			}
			for j, v := range row {
				if j != ndelta && v != 0 {
					return nil, Error{"non-orthogonal grid", "", []string{"Read"}, true}
				}
			}
			deltas[ndelta] = row[ndelta]
			ndelta++
		case strings.HasPrefix(line, "object 3 class array"):
			if nx == 0 || ndelta != 3 {
				return nil, Error{"data section before a complete header", "", []string{"Read"}, true}
			}
			if deltas[0] != deltas[1] || deltas[1] != deltas[2] {
				return nil, Error{fmt.Sprintf("anisotropic voxels not supported: %v", deltas), "", []string{"Read"}, true}
			}
			var err error
			g, err = grid.New(origin, deltas[0], nx, ny, nz)
			if err != nil {
				return nil, errDecorate(err, "Read")
			}
			err = readData(sc, g.Data())
			if err != nil {
				return nil, errDecorate(err, "Read")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, Error{err.Error(), "", []string{"Read"}, true}
	}
	if g == nil {
		return nil, Error{"no data section found", "", []string{"Read"}, true}
	}
	return g, nil
}

// ReadFile reads an OpenDX scalar field from the file in path, decompressing
// it first if path ends in ".gz".
func ReadFile(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{err.Error(), path, []string{"ReadFile"}, true}
	}
	defer f.Close()
	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, Error{err.Error(), path, []string{"ReadFile"}, true}
		}
		defer gr.Close()
		r = gr
	}
	g, err := Read(r)
	if err != nil {
		return nil, errDecorate(err, "ReadFile "+path)
	}
	return g, nil
}

// readData fills dst with the next len(dst) whitespace-separated numbers from
// the scanner, skipping nothing: the trailing attribute/field objects come
// after the data and are left unread.
func readData(sc *bufio.Scanner, dst []float64) error {
	n := 0
	for n < len(dst) && sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			if n >= len(dst) {
				return Error{"more data values than declared", "", []string{"readData"}, true}
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Error{"bad data value " + tok, "", []string{"readData"}, true}
			}
			dst[n] = v
			n++
		}
	}
	if n < len(dst) {
		return Error{fmt.Sprintf("data section ended early: %d of %d values", n, len(dst)), "", []string{"readData"}, true}
	}
	return nil
}

func parseCounts(fields []string) (int, int, int, error) {
	var n [3]int
	for j, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return 0, 0, 0, Error{"bad grid count " + f, "", []string{"parseCounts"}, true}
		}
		n[j] = v
	}
	return n[0], n[1], n[2], nil
}

func parseFloats(fields []string, dst []float64) error {
	if len(fields) < len(dst) {
		return Error{"short line in header", "", []string{"parseFloats"}, true}
	}
	for j := range dst {
		v, err := strconv.ParseFloat(fields[j], 64)
		if err != nil {
			return Error{"bad header value " + fields[j], "", []string{"parseFloats"}, true}
		}
		dst[j] = v
	}
	return nil
}

//Errors

// Error is the concrete error type of the dx package.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dx file %s error: %s", err.filename, err.message)
}

// Decorate adds dec to the decoration slice of the error, and returns the
// resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the file from which the error came, when known.
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file asociated to the error.
func (err Error) Format() string { return "dx" }

// Critical returns whether the error is critical.
func (err Error) Critical() bool { return err.critical }

// errDecorate decorates err with the caller and returns it.
func errDecorate(err error, caller string) error {
	err2, ok := err.(interface{ Decorate(string) []string })
	if !ok {
		return Error{err.Error(), "", []string{caller}, true}
	}
	err2.Decorate(caller)
	return err
}
