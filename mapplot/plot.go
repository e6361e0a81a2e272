/*
 * plot.go, part of watmap.
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

/*Package mapplot makes quick 2D looks into a volumetric map: a profile of
the map values averaged along one axis, and a heat map of one slice. These
are for eyeballing a calculation, not for production figures; use a
molecular viewer on the exported map for those.*/
package mapplot

import (
	"fmt"

	"github.com/rmera/watmap/grid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var axisNames = [3]string{"x", "y", "z"}

//Profile plots the mean map value as a function of the position along the
//given axis (0, 1 or 2 for x, y or z), averaging over the other two, and
//saves it to filename. The format is taken from the extension (.png, .svg,
//.pdf and friends).
func Profile(g *grid.Grid, axis int, title, filename string) error {
	if axis < 0 || axis > 2 {
		return fmt.Errorf("mapplot: invalid axis %d", axis)
	}
	dims := [3]int{}
	dims[0], dims[1], dims[2] = g.Dims()
	n := dims[axis]
	pts := make(plotter.XYs, n)
	var idx [3]int
	for i := 0; i < n; i++ {
		sum := 0.0
		count := 0
		for a := 0; a < dims[(axis+1)%3]; a++ {
			for b := 0; b < dims[(axis+2)%3]; b++ {
				idx[axis] = i
				idx[(axis+1)%3] = a
				idx[(axis+2)%3] = b
				sum += g.At(idx[0], idx[1], idx[2])
				count++
			}
		}
		pts[i].X = g.Origin()[axis] + (float64(i)+0.5)*g.Delta()
		pts[i].Y = sum / float64(count)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisNames[axis] + " (A)"
	p.Y.Label.Text = "mean value"
	p.Add(plotter.NewGrid())
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("mapplot: %w", err)
	}
	p.Add(line)
	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("mapplot: %w", err)
	}
	return nil
}

//Slice plots a heat map of the plane of the grid perpendicular to the given
//axis at the given voxel index, and saves it to filename.
func Slice(g *grid.Grid, axis, index int, title, filename string) error {
	if axis < 0 || axis > 2 {
		return fmt.Errorf("mapplot: invalid axis %d", axis)
	}
	dims := [3]int{}
	dims[0], dims[1], dims[2] = g.Dims()
	if index < 0 || index >= dims[axis] {
		return fmt.Errorf("mapplot: slice index %d out of range for axis %s", index, axisNames[axis])
	}
	data := &sliceGrid{g: g, axis: axis, index: index}
	pal := moreland.SmoothBlueRed().Palette(255)
	h := plotter.NewHeatMap(data, pal)
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisNames[(axis+1)%3] + " (A)"
	p.Y.Label.Text = axisNames[(axis+2)%3] + " (A)"
	p.Add(h)
	if err := p.Save(15*vg.Centimeter, 15*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("mapplot: %w", err)
	}
	return nil
}

//sliceGrid adapts one plane of a grid to the plotter.GridXYZ interface.
//The two in-plane axes are the ones following the sliced axis, in cyclic
//order.
type sliceGrid struct {
	g     *grid.Grid
	axis  int
	index int
}

func (s *sliceGrid) Dims() (c, r int) {
	var dims [3]int
	dims[0], dims[1], dims[2] = s.g.Dims()
	return dims[(s.axis+1)%3], dims[(s.axis+2)%3]
}

func (s *sliceGrid) Z(c, r int) float64 {
	var idx [3]int
	idx[s.axis] = s.index
	idx[(s.axis+1)%3] = c
	idx[(s.axis+2)%3] = r
	return s.g.At(idx[0], idx[1], idx[2])
}

func (s *sliceGrid) X(c int) float64 {
	return s.g.Origin()[(s.axis+1)%3] + (float64(c)+0.5)*s.g.Delta()
}

func (s *sliceGrid) Y(r int) float64 {
	return s.g.Origin()[(s.axis+2)%3] + (float64(r)+0.5)*s.g.Delta()
}
