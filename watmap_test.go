/*
 * watmap_test.go, part of watmap.
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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzip "github.com/klauspost/compress/gzip"
	v3 "github.com/rmera/watmap/v3"
	"gonum.org/v1/gonum/mat"
)

//pdbLine formats one ATOM record with the fixed columns the reader expects.
func pdbLine(serial int, name, resname, chain string, resid int, x, y, z float64, element string) string {
	return fmt.Sprintf("ATOM  %5d %-4s %-3s %1s%4d    %8.3f%8.3f%8.3f  1.00  0.00          %2s",
		serial, name, resname, chain, resid, x, y, z, element)
}

func testPDB() string {
	lines := []string{
		pdbLine(1, "C1", "LIG", "A", 1, 0, 0, 0, "C"),
		pdbLine(2, "O1", "LIG", "A", 1, 1.5, 0, 0, "O"),
		pdbLine(3, "OH2", "SOL", "A", 2, 3, 3, 3, "O"),
		pdbLine(4, "H1", "SOL", "A", 2, 3.1, 3, 3, "H"),
		pdbLine(5, "H2", "SOL", "A", 2, 3, 3.1, 3, "H"),
		pdbLine(6, "OH2", "SOL", "A", 3, -3, -3, -3, "O"),
		pdbLine(7, "H1", "SOL", "A", 3, -3.1, -3, -3, "H"),
		pdbLine(8, "H2", "SOL", "A", 3, -3, -3.1, -3, "H"),
		"END",
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestPDBRead(Te *testing.T) {
	top, coords, err := PDBRead(strings.NewReader(testPDB()))
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 8 || coords.NVecs() != 8 {
		Te.Fatalf("read %d atoms, %d coordinates", top.Len(), coords.NVecs())
	}
	at := top.Atom(1)
	if at.Name != "O1" || at.MolName != "LIG" || at.Symbol != "O" || at.MolID != 1 {
		Te.Errorf("wrong atom read: %+v", at)
	}
	if at.Mass != 16.00 {
		Te.Errorf("no mass assigned: %v", at.Mass)
	}
	if coords.At(2, 0) != 3 || coords.At(5, 2) != -3 {
		Te.Error("wrong coordinates read")
	}
	ox := WaterOxygens(top, nil)
	if len(ox) != 2 || ox[0] != 2 || ox[1] != 5 {
		Te.Errorf("wrong water oxygens %v", ox)
	}
	sol := SoluteIndexes(top, nil)
	if len(sol) != 2 || sol[0] != 0 || sol[1] != 1 {
		Te.Errorf("wrong solute indexes %v", sol)
	}
	lig := ResidueIndexes(top, []string{"LIG"})
	if len(lig) != 2 {
		Te.Errorf("wrong LIG indexes %v", lig)
	}
}

func TestPDBSymbolGuess(Te *testing.T) {
	//a line with no element columns: the symbol comes from the atom name
	line := pdbLine(1, "OH2", "SOL", "A", 1, 0, 0, 0, "")
	line = line[:54] //chop occupancy onwards
	at, _, err := readPDBLine(line)
	if err != nil {
		Te.Fatal(err)
	}
	if at.Symbol != "O" {
		Te.Errorf("guessed symbol %q for OH2", at.Symbol)
	}
	at, _, err = readPDBLine(pdbLine(2, "CLA", "CLA", "A", 2, 0, 0, 0, "")[:54])
	if err != nil {
		Te.Fatal(err)
	}
	if at.Symbol != "Cl" {
		Te.Errorf("guessed symbol %q for CLA", at.Symbol)
	}
}

func TestPDBFileRead(Te *testing.T) {
	dir := Te.TempDir()
	plain := filepath.Join(dir, "sys.pdb")
	if err := os.WriteFile(plain, []byte(testPDB()), 0644); err != nil {
		Te.Fatal(err)
	}
	zipped := filepath.Join(dir, "sys.pdb.gz")
	zf, err := os.Create(zipped)
	if err != nil {
		Te.Fatal(err)
	}
	zw := gzip.NewWriter(zf)
	if _, err := zw.Write([]byte(testPDB())); err != nil {
		Te.Fatal(err)
	}
	zw.Close()
	zf.Close()
	for _, path := range []string{plain, zipped} {
		top, _, err := PDBFileRead(path)
		if err != nil {
			Te.Fatal(err)
		}
		if top.Len() != 8 {
			Te.Errorf("%s: read %d atoms", path, top.Len())
		}
	}
}

func TestCentroidAndCOM(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{0, 0, 0, 2, 0, 0})
	c, err := Centroid(coords)
	if err != nil {
		Te.Fatal(err)
	}
	if c.At(0, 0) != 1 || c.At(0, 1) != 0 {
		Te.Errorf("wrong centroid %v", c)
	}
	masses := mat.NewDense(2, 1, []float64{1, 3})
	com, err := CenterOfMass(coords, masses)
	if err != nil {
		Te.Fatal(err)
	}
	if com.At(0, 0) != 1.5 {
		Te.Errorf("wrong center of mass %v", com)
	}
	if _, err := Centroid(v3.Zeros(0)); err == nil {
		Te.Error("empty coordinates accepted")
	}
}

func TestBoundingBox(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{-1, 0, 2, 3, 5, -4})
	origin, lengths, err := BoundingBox(coords, 1)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("origin", origin, "lengths", lengths)
	if origin != [3]float64{-2, -1, -5} {
		Te.Errorf("wrong origin %v", origin)
	}
	if lengths != [3]float64{6, 7, 8} {
		Te.Errorf("wrong lengths %v", lengths)
	}
}

func TestWrapInto(Te *testing.T) {
	coords, _ := v3.NewMatrix([]float64{
		0, 0, 0, //already inside
		16, 0, 0, //one image away in +x
		-14, 0, 0, //one image away in -x (same image point)
		0, 35, 0, //several images away in +y, lands on the box edge
	})
	center := v3.Zeros(1) //the box is centered on the origin
	WrapInto(coords, center, [3]float64{10, 10, 10})
	want := [][3]float64{{0, 0, 0}, {-4, 0, 0}, {-4, 0, 0}, {0, -5, 0}}
	for i, w := range want {
		for j := 0; j < 3; j++ {
			if math.Abs(coords.At(i, j)-w[j]) > 1e-12 {
				Te.Errorf("atom %d: got %v %v %v, want %v", i,
					coords.At(i, 0), coords.At(i, 1), coords.At(i, 2), w)
				break
			}
		}
	}
	//a zero box is a no-op
	before := coords.Clone()
	WrapInto(coords, center, [3]float64{})
	if !mat.Equal(before.Dense, coords.Dense) {
		Te.Error("zero box changed the coordinates")
	}
}
