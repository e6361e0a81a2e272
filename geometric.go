/*
 * geometric.go, part of watmap.
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
	"math"

	v3 "github.com/rmera/watmap/v3"
	"gonum.org/v1/gonum/mat"
)

// Centroid returns the geometric center of the coordinates in coords.
func Centroid(coords *v3.Matrix) (*v3.Matrix, error) {
	return CenterOfMass(coords, nil)
}

// CenterOfMass returns the center of mass of the coordinates in coords, with
// the masses given in the column vector masses. If masses is nil, all masses
// are taken as one and the geometric center is returned.
func CenterOfMass(coords *v3.Matrix, masses *mat.Dense) (*v3.Matrix, error) {
	if coords == nil {
		return nil, new_error("CenterOfMass", "nil coordinates")
	}
	n := coords.NVecs()
	if n == 0 {
		return nil, new_error("CenterOfMass", "empty coordinates")
	}
	var total float64
	ret := v3.Zeros(1)
	for i := 0; i < n; i++ {
		m := 1.0
		if masses != nil {
			m = masses.At(i, 0)
		}
		total += m
		for j := 0; j < 3; j++ {
			ret.Set(0, j, ret.At(0, j)+coords.At(i, j)*m)
		}
	}
	if total == 0 {
		return nil, new_error("CenterOfMass", "zero total mass")
	}
	ret.Scale(1/total, ret.Dense)
	return ret, nil
}

// BoundingBox returns the origin (minimum corner) and edge lengths of the
// axis-aligned box that contains all coordinates in coords, expanded by pad
// on every side.
func BoundingBox(coords *v3.Matrix, pad float64) (origin, lengths [3]float64, err error) {
	if coords == nil || coords.NVecs() == 0 {
		return origin, lengths, new_error("BoundingBox", "nil or empty coordinates")
	}
	var mins, maxs [3]float64
	for j := 0; j < 3; j++ {
		mins[j] = math.Inf(1)
		maxs[j] = math.Inf(-1)
	}
	n := coords.NVecs()
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			v := coords.At(i, j)
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}
	for j := 0; j < 3; j++ {
		origin[j] = mins[j] - pad
		lengths[j] = maxs[j] - mins[j] + 2*pad
	}
	return origin, lengths, nil
}

// WrapInto wraps, in place, every coordinate in coords into the orthorhombic
// box of edge lengths box centered on center. Coordinates already inside are
// untouched. It does nothing for a box dimension that is not positive.
func WrapInto(coords, center *v3.Matrix, box [3]float64) {
	n := coords.NVecs()
	for j := 0; j < 3; j++ {
		if box[j] <= 0 {
			continue
		}
		low := center.At(0, j) - box[j]/2
		for i := 0; i < n; i++ {
			v := coords.At(i, j)
			wrapped := v - box[j]*math.Floor((v-low)/box[j])
			if wrapped != v {
				coords.Set(i, j, wrapped)
			}
		}
	}
}

// Translate adds, in place, the 1x3 vector d to every coordinate in coords.
func Translate(coords, d *v3.Matrix) {
	coords.AddVec(coords, d)
}
