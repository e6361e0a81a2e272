/*
 * plot_test.go, part of watmap.
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

package mapplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/watmap/grid"
)

func testGrid(Te *testing.T) *grid.Grid {
	g, err := grid.New([3]float64{0, 0, 0}, 0.5, 10, 12, 14)
	if err != nil {
		Te.Fatal(err)
	}
	nx, ny, nz := g.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				g.Set(i, j, k, math.Sin(float64(i))+float64(j)*0.1-float64(k)*0.05)
			}
		}
	}
	return g
}

func TestProfile(Te *testing.T) {
	g := testGrid(Te)
	dir := Te.TempDir()
	for axis := 0; axis < 3; axis++ {
		fname := filepath.Join(dir, "profile.png")
		if err := Profile(g, axis, "test profile", fname); err != nil {
			Te.Fatal(err)
		}
		st, err := os.Stat(fname)
		if err != nil || st.Size() == 0 {
			Te.Errorf("axis %d: no plot written", axis)
		}
	}
	if err := Profile(g, 3, "bad", filepath.Join(dir, "bad.png")); err == nil {
		Te.Error("invalid axis was accepted")
	}
}

func TestSlice(Te *testing.T) {
	g := testGrid(Te)
	dir := Te.TempDir()
	fname := filepath.Join(dir, "slice.png")
	if err := Slice(g, 2, 7, "test slice", fname); err != nil {
		Te.Fatal(err)
	}
	st, err := os.Stat(fname)
	if err != nil || st.Size() == 0 {
		Te.Error("no plot written")
	}
	if err := Slice(g, 2, 100, "bad", fname); err == nil {
		Te.Error("out of range slice index was accepted")
	}
}
