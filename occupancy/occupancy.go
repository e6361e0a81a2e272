/*
 * occupancy.go, part of watmap.
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

/*Package occupancy accumulates water positions from MD trajectories into a
3D grid around the solute, and turns the result into a time-averaged
occupancy and, from it, a volumetric water chemical potential map. Each
frame is centered so the solute stays fixed in the grid, waters get wrapped
back into the box around it, and the position of each water oxygen adds a
count to the voxel containing it.*/
package occupancy

import (
	"fmt"
	"runtime"

	chem "github.com/rmera/watmap"
	"github.com/rmera/watmap/grid"
	v3 "github.com/rmera/watmap/v3"
)

//Options contains the settings for an occupancy map calculation.
type Options struct {
	delta    float64
	sigma    float64
	padding  float64
	kt       float64
	eps      float64
	skip     int
	cpus     int
	residues []string
	box      [3]float64
}

//DefaultOptions returns an Options with the default settings: 0.5 A voxels,
//1 A smoothing, 8 A of padding around the solute, kT for 298.15 K in
//kcal/mol, and all the usual water residue names.
func DefaultOptions() *Options {
	ret := new(Options)
	ret.delta = 0.5
	ret.sigma = 1.0
	ret.padding = 8.0
	ret.kt = 0.593
	ret.eps = 1e-6
	ret.skip = 1
	ret.cpus = runtime.NumCPU()
	ret.residues = chem.WaterNames
	return ret
}

//Delta returns the voxel edge length, in A, and sets it,
//if a valid value is given.
func (r *Options) Delta(delta ...float64) float64 {
	ret := r.delta
	if len(delta) > 0 && delta[0] > 0 {
		r.delta = delta[0]
	}
	return ret
}

//Sigma returns the standard deviation for the Gaussian smoothing, in A,
//and sets it, if a value is given. Zero disables smoothing.
func (r *Options) Sigma(sigma ...float64) float64 {
	ret := r.sigma
	if len(sigma) > 0 && sigma[0] >= 0 {
		r.sigma = sigma[0]
	}
	return ret
}

//Padding returns the extra room left around the solute bounding box when
//building the grid, in A, and sets it, if a valid value is given.
func (r *Options) Padding(padding ...float64) float64 {
	ret := r.padding
	if len(padding) > 0 && padding[0] >= 0 {
		r.padding = padding[0]
	}
	return ret
}

//KT returns the thermal energy used in the chemical potential transform,
//and sets it, if a valid value is given. The returned map comes in
//whatever unit kT is given in (kcal/mol by default).
func (r *Options) KT(kt ...float64) float64 {
	ret := r.kt
	if len(kt) > 0 && kt[0] > 0 {
		r.kt = kt[0]
	}
	return ret
}

//Eps returns the regularization added to the occupancy before taking its
//logarithm, and sets it, if a valid value is given.
func (r *Options) Eps(eps ...float64) float64 {
	ret := r.eps
	if len(eps) > 0 && eps[0] > 0 {
		r.eps = eps[0]
	}
	return ret
}

//Skip returns the frame read periodicity (1 means "every frame") and sets
//it, if a valid value is given.
func (r *Options) Skip(skip ...int) int {
	ret := r.skip
	if len(skip) > 0 && skip[0] > 0 {
		r.skip = skip[0]
	}
	return ret
}

//Cpus returns the number of goroutines used in the concurrent calculation,
//and sets it, if a valid value is given.
func (r *Options) Cpus(cpus ...int) int {
	ret := r.cpus
	if len(cpus) > 0 && cpus[0] > 0 {
		r.cpus = cpus[0]
	}
	return ret
}

//Residues returns the residue names recognized as water, and sets them, if
//given.
func (r *Options) Residues(residues ...[]string) []string {
	ret := r.residues
	if len(residues) > 0 && len(residues[0]) > 0 {
		r.residues = residues[0]
	}
	return ret
}

//Box returns the fixed box dimensions used for wrapping when the trajectory
//does not carry a unit cell (or when reading concurrently, where per-frame
//cells are not available), and sets them, if given. All zeros, the default,
//disables wrapping.
func (r *Options) Box(box ...[3]float64) [3]float64 {
	ret := r.box
	if len(box) > 0 {
		r.box = box[0]
	}
	return ret
}

//BoundsFromRef builds the grid for the calculation from the solute atoms
//(given by their indexes) of the reference coordinates: their bounding box,
//padded on every side, cut into voxels.
func BoundsFromRef(ref *v3.Matrix, solute []int, options ...*Options) (*grid.Grid, error) {
	o := opts(options)
	if len(solute) == 0 {
		return nil, fmt.Errorf("occupancy: no solute atoms given")
	}
	refsol := v3.Zeros(len(solute))
	refsol.SomeVecs(ref, solute)
	origin, lengths, err := chem.BoundingBox(refsol, o.padding)
	if err != nil {
		return nil, errDecorate(err, "BoundsFromRef")
	}
	return grid.FromBounds(origin, lengths, o.delta)
}

//center returns the point the solute gets moved to on every frame: the
//center of the grid.
func center(g *grid.Grid) *v3.Matrix {
	nx, ny, nz := g.Dims()
	o := g.Origin()
	c := v3.Zeros(1)
	c.Set(0, 0, o[0]+float64(nx)*g.Delta()/2)
	c.Set(0, 1, o[1]+float64(ny)*g.Delta()/2)
	c.Set(0, 2, o[2]+float64(nz)*g.Delta()/2)
	return c
}

//placeFrame translates coords so the centroid of the solute atoms falls on
//target, then wraps everything back into box around it. A box of all zeros
//leaves the coordinates unwrapped.
func placeFrame(coords *v3.Matrix, solute []int, target, scratch *v3.Matrix, box [3]float64) error {
	scratch.SomeVecs(coords, solute)
	cent, err := chem.Centroid(scratch)
	if err != nil {
		return errDecorate(err, "placeFrame")
	}
	d := v3.Zeros(1)
	d.Sub(target.Dense, cent.Dense)
	chem.Translate(coords, d)
	chem.WrapInto(coords, target, box)
	return nil
}

//binFrame adds, for the frame in coords, one count per water oxygen to the
//voxel containing it.
func binFrame(g *grid.Grid, coords *v3.Matrix, oxygens []int) {
	for _, i := range oxygens {
		g.Bin(coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
	}
}

//frameIndexes is the concurrent counterpart of binFrame: it returns the
//flat voxel index of each water oxygen, -1 for those outside the grid, so
//the caller can accumulate them without sharing the grid between
//goroutines.
func frameIndexes(g *grid.Grid, coords *v3.Matrix, oxygens []int, ret []int) []int {
	ret = ret[:0]
	for _, i := range oxygens {
		n, ok := g.Index(coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
		if !ok {
			n = -1
		}
		ret = append(ret, n)
	}
	return ret
}

//Map accumulates the water oxygen positions of every frame of traj into g,
//reading the frames sequentially. The solute atoms, given by their indexes,
//are used to keep the system centered in the grid. The water oxygens are
//found from the topology in mol and the residue names in the options. It
//returns the number of frames actually binned. The grid is left with raw
//counts; call Finish to turn them into a chemical potential map.
func Map(traj chem.Traj, mol chem.Atomer, g *grid.Grid, solute []int, options ...*Options) (int, error) {
	o := opts(options)
	oxygens := chem.WaterOxygens(mol, o.residues)
	if len(oxygens) == 0 {
		return 0, fmt.Errorf("occupancy: no water oxygens found for residues %v", o.residues)
	}
	if len(solute) == 0 {
		return 0, fmt.Errorf("occupancy: no solute atoms given")
	}
	target := center(g)
	scratch := v3.Zeros(len(solute))
	coords := v3.Zeros(traj.Len())
	filebox := make([]float64, 3)
	framesread := 0
	var err error
reading:
	for i := 0; ; i++ {
		if i > 0 && i%o.skip != 0 && err == nil {
			err = traj.Next(nil) //if this err is not nil, the next traj.Next() will not be executed. Instead, we'll go directly to error processing.
			continue
		} else if err == nil {
			for j := range filebox {
				filebox[j] = 0
			}
			err = traj.Next(coords, filebox)
		}
		if err != nil {
			switch err := err.(type) {
			case chem.LastFrameError:
				break reading
			case chem.Error:
				err.Decorate(fmt.Sprintf("Map: Failed while reading the %d th frame", i))
				return framesread, err
			default:
				return framesread, err
			}
		}
		box := o.box
		if filebox[0] > 0 && filebox[1] > 0 && filebox[2] > 0 {
			box = [3]float64{filebox[0], filebox[1], filebox[2]}
		}
		if err2 := placeFrame(coords, solute, target, scratch, box); err2 != nil {
			return framesread, errDecorate(err2, fmt.Sprintf("Map: in the %d th frame", i))
		}
		binFrame(g, coords, oxygens)
		framesread++
	}
	return framesread, nil
}

//ConcMap is the concurrent version of Map. It processes several frames of
//the trajectory at a time, depending on the cpus option. Since concurrent
//reading does not give access to the per-frame unit cell, wrapping uses the
//fixed box from the options, which is exact only for constant-volume
//trajectories. It returns the number of frames binned.
func ConcMap(traj chem.ConcTraj, mol chem.Atomer, g *grid.Grid, solute []int, options ...*Options) (int, error) {
	o := opts(options)
	oxygens := chem.WaterOxygens(mol, o.residues)
	if len(oxygens) == 0 {
		return 0, fmt.Errorf("occupancy: no water oxygens found for residues %v", o.residues)
	}
	if len(solute) == 0 {
		return 0, fmt.Errorf("occupancy: no solute atoms given")
	}
	target := center(g)
	frames := make([]*v3.Matrix, o.cpus)
	for i := range frames {
		frames[i] = v3.Zeros(traj.Len())
	}
	results := make([]chan []int, len(frames))
	for i := range results {
		results[i] = make(chan []int)
	}
	framesread := 0
	var err error
	for i := 0; ; i++ {
		if err != nil { //we got a LastFrameError in the previous round
			break
		}
		var coordchans []chan *v3.Matrix
		coordchans, err = traj.NextConc(frames)
		if err != nil {
			if _, ok := err.(chem.LastFrameError); ok {
				if coordchans == nil {
					break
				}
			} else {
				if err, ok := err.(chem.Error); ok {
					err.Decorate(fmt.Sprintf("ConcMap: failed when reading the %d th batch of frames", i))
					return framesread, err
				}
				return framesread, err
			}
		}
		for key, channel := range coordchans {
			go unitMap(channel, results[key], g, solute, oxygens, target, o)
		}
		//The result channels are sorted by frame, and the grid is only
		//touched here, so the accumulation is deterministic.
		for _, k := range results {
			if k == nil {
				break //shouldn't happen
			}
			indexes := <-k
			if indexes == nil {
				break //we ran out of frames
			}
			g.AddIndexes(indexes)
			framesread++
		}
	}
	return framesread, nil
}

//unitMap is the worker function for ConcMap. It centers and wraps its
//frame, and sends back the voxel indexes of its water oxygens.
func unitMap(channelin chan *v3.Matrix, channelout chan []int, g *grid.Grid, solute, oxygens []int, target *v3.Matrix, o *Options) {
	if channelin == nil {
		channelout <- nil
		return
	}
	coords := <-channelin
	scratch := v3.Zeros(len(solute))
	if err := placeFrame(coords, solute, target, scratch, o.box); err != nil {
		channelout <- nil
		return
	}
	channelout <- frameIndexes(g, coords, oxygens, make([]int, 0, len(oxygens)))
}

//Finish turns the raw counts accumulated in g over framesread frames into
//the final map: it smooths them, normalizes them into a time-averaged
//occupancy, and applies the chemical potential transform -kT*ln(w+eps).
func Finish(g *grid.Grid, framesread int, options ...*Options) error {
	o := opts(options)
	if o.sigma > 0 {
		g.Smooth(o.sigma / o.delta)
	}
	if err := g.Occupancy(framesread); err != nil {
		return errDecorate(err, "Finish")
	}
	g.Mu(o.kt, o.eps)
	return nil
}

func opts(options []*Options) *Options {
	if len(options) > 0 && options[0] != nil {
		return options[0]
	}
	return DefaultOptions()
}

//errDecorate decorates err with the caller's name if it implements
//chem.Error, and returns it.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(chem.Error); ok {
		err2.Decorate(caller)
		return err2
	}
	return fmt.Errorf("%s: %w", caller, err)
}
