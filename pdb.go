/*
 * pdb.go, part of watmap.
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

package watmap

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	v3 "github.com/rmera/watmap/v3"
)

//PDB reading. Only ATOM/HETATM records are considered; this is a reference
//structure reader, not a general PDB parser.

// A map for assigning mass to elements.
// Note that just common "bio-elements" are present.
var symbolMass = map[string]float64{
	"H":  1.0,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"K":  39.1,
	"Ca": 40.08,
	"Mg": 24.30,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.55,
	"Zn": 65.38,
	"Co": 58.93,
	"Fe": 55.84,
	"Mn": 54.94,
}

// symbolFromName tries to guess a chemical element symbol from a PDB atom
// name. Mostly based on AMBER/CHARMM names, and only for common bio-elements.
func symbolFromName(name string) string {
	if name == "" {
		return ""
	}
	if len(name) == 4 || name[0] == 'H' { //only Hs have 4-character names in the force fields we care about
		return "H"
	}
	switch name[0] {
	case 'C':
		switch name {
		case "CU":
			return "Cu"
		case "CO":
			return "Co"
		case "CL", "CLA":
			return "Cl"
		}
		return "C"
	case 'N':
		if name == "NA" {
			return "Na"
		}
		return "N"
	case 'O':
		return "O"
	case 'P':
		if name == "POT" {
			return "K"
		}
		return "P"
	case 'S':
		if name == "SOD" {
			return "Na"
		}
		return "S"
	case 'Z':
		if strings.HasPrefix(name, "ZN") {
			return "Zn"
		}
	case 'M':
		if name == "MG" {
			return "Mg"
		}
	}
	return ""
}

// readPDBLine parses a valid ATOM or HETATM line, returning an Atom and its
// coordinates.
func readPDBLine(line string) (*Atom, [3]float64, error) {
	var coords [3]float64
	if len(line) < 54 {
		return nil, coords, errorf("readPDBLine", "line too short: %q", line)
	}
	at := new(Atom)
	at.Het = strings.HasPrefix(line, "HETATM")
	errs := make([]error, 5)
	at.ID, errs[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	at.Name = strings.TrimSpace(line[12:16])
	at.MolName = strings.TrimSpace(line[17:20])
	at.Chain = strings.TrimSpace(line[21:22])
	at.MolID, errs[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	coords[0], errs[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	coords[1], errs[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	coords[2], errs[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	//the element columns are often missing, so no error checking there.
	if len(line) >= 78 {
		at.Symbol = strings.TrimSpace(line[76:78])
	}
	if at.Symbol == "" {
		at.Symbol = symbolFromName(at.Name)
	}
	at.Mass = symbolMass[at.Symbol] //zero if unknown, callers needing masses get an error from Masses()
	for _, err := range errs {
		if err != nil {
			return nil, coords, errorf("readPDBLine", "malformed ATOM/HETATM line %q: %v", line, err)
		}
	}
	return at, coords, nil
}

// PDBRead reads a reference structure in PDB format from r, returning the
// topology and the coordinates. Only the first model of a multi-model file is
// read.
func PDBRead(r io.Reader) (*Topology, *v3.Matrix, error) {
	top := NewTopology(nil)
	data := make([]float64, 0, 3*1024)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ENDMDL") || strings.HasPrefix(line, "END ") || line == "END" {
			break
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		at, xyz, err := readPDBLine(line)
		if err != nil {
			return nil, nil, errDecorate(err, "PDBRead")
		}
		top.AppendAtom(at)
		data = append(data, xyz[0], xyz[1], xyz[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errorf("PDBRead", "%v", err)
	}
	if top.Len() == 0 {
		return nil, nil, new_error("PDBRead", "no ATOM/HETATM records found")
	}
	coords, err := v3.NewMatrix(data)
	if err != nil {
		return nil, nil, errDecorate(err, "PDBRead")
	}
	return top, coords, nil
}

// PDBFileRead reads the PDB file in path. Files ending in ".gz" are
// transparently decompressed.
func PDBFileRead(path string) (*Topology, *v3.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errorf("PDBFileRead", "%v", err)
	}
	defer f.Close()
	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, errorf("PDBFileRead", "can't decompress %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}
	top, coords, err := PDBRead(r)
	if err != nil {
		return nil, nil, errDecorate(err, "PDBFileRead "+path)
	}
	return top, coords, nil
}
