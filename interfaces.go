/*
 * interfaces.go, part of watmap.
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

import v3 "github.com/rmera/watmap/v3"

// Traj is the interface for any sequential trajectory source. The occupancy
// analyses only require these three methods, so maps can be accumulated from
// DCD files, in-memory coordinate sets, or anything else that can produce one
// frame at a time.
type Traj interface {

	//Readable returns whether the trajectory is ready to be read.
	Readable() bool

	//Next reads the next frame into output, or discards it if output is nil.
	//If a box slice is given and the frame carries unit-cell information,
	//the box lengths (and angles, if there is room) are written into it.
	Next(output *v3.Matrix, box ...[]float64) error

	//Len returns the number of atoms per frame.
	Len() int
}

// ConcTraj is the interface for a trajectory that can be read concurrently.
type ConcTraj interface {

	//Readable returns whether the trajectory is ready to be read.
	Readable() bool

	/*NextConc reads len(frames) frames from the trajectory, skipping (but
	still consuming) those whose corresponding element in frames is nil. It
	returns a slice of channels, in frame order, through each of which the
	corresponding filled matrix will be sent.*/
	NextConc(frames []*v3.Matrix) ([]chan *v3.Matrix, error)

	//Len returns the number of atoms per frame.
	Len() int
}

// Atomer is the basic interface for a topology: anything that can hand out
// atoms by index.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i.
	//Should panic if out of range.
	Atom(i int) *Atom

	Len() int
}

// Masser can return a slice with the masses of each atom in the reference.
type Masser interface {
	Masses() ([]float64, error)
}

//Errors

// Error is the interface for errors that all packages in this library
// implement. The Decorate method adds information to the error as it is
// passed up the call stack, without changing its type or wrapping it.
// Each call returns the current decoration slice; passing an empty string
// just queries it.
type Error interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

// TrajError is the interface for errors in trajectories.
type TrajError interface {
	Error
	FileName() string
	Format() string
}

// LastFrameError is a TrajError that signals the normal end of a trajectory,
// so it can be filtered in a type switch and not treated as a failure.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination() //does nothing, just separates this interface from other TrajErrors
}
