/*
 * v3.go, part of watmap.
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

package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space, one row per point.
type Matrix struct {
	*mat.Dense
}

// Matrix2Dense returns the underlying mat.Dense of A.
func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

// Dense2Matrix wraps a mat.Dense into a Matrix. Panics if A does not have
// exactly 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	return &Matrix{mat.NewDense(vecs, cols, make([]float64, cols*vecs))}
}

// NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// VecView returns a view of the ith vector of F. Changes in the view are
// reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

// View returns a view of F starting from vector i and spanning r vectors.
func (F *Matrix) View(i, r int) *Matrix {
	ret := F.Dense.Slice(i, i+r, 0, 3).(*mat.Dense)
	return &Matrix{ret}
}

// SomeVecs puts in F the vectors of A with the indexes in list, in the order
// of the list. Panics if dimensions are mismatched.
func (F *Matrix) SomeVecs(A *Matrix, list []int) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if fr != len(list) || ar < len(list) {
		panic(ErrShape)
	}
	for key, val := range list {
		for j := 0; j < 3; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

// SetVecs sets the vectors of F with the indexes in list to the successive
// vectors of A. It is the inverse operation of SomeVecs.
func (F *Matrix) SetVecs(A *Matrix, list []int) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if ar < len(list) || fr < len(list) {
		panic(ErrShape)
	}
	for key, val := range list {
		for j := 0; j < 3; j++ {
			F.Set(val, j, A.At(key, j))
		}
	}
}

// AddVec adds the 1x3 vector vec to each vector of A, putting the result in
// the receiver. Panics if matrices are mismatched.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	vr, _ := vec.Dims()
	fr, _ := F.Dims()
	if vr != 1 || ar != fr {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < 3; j++ {
			F.Set(i, j, A.At(i, j)+vec.At(0, j))
		}
	}
}

// SubVec subtracts the 1x3 vector vec from each vector of A, putting the
// result in the receiver. Panics if matrices are mismatched.
func (F *Matrix) SubVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	vr, _ := vec.Dims()
	fr, _ := F.Dims()
	if vr != 1 || ar != fr {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < 3; j++ {
			F.Set(i, j, A.At(i, j)-vec.At(0, j))
		}
	}
}

// Norm returns the Euclidean norm of F, which normally only makes sense when
// F is a single vector.
func (F *Matrix) Norm() float64 {
	return mat.Norm(F.Dense, 2)
}

// Clone returns a newly allocated copy of F.
func (F *Matrix) Clone() *Matrix {
	r := F.NVecs()
	ret := Zeros(r)
	ret.Copy(F.Dense)
	return ret
}

// String returns a neat string representation of F.
func (F *Matrix) String() string {
	r := F.NVecs()
	v := make([]string, 0, r+2)
	v = append(v, "[")
	for i := 0; i < r; i++ {
		v = append(v, fmt.Sprintf(" %6.2f %6.2f %6.2f", F.At(i, 0), F.At(i, 1), F.At(i, 2)))
	}
	v = append(v, " ]")
	return strings.Join(v, "\n")
}

//Errors

// Error is the concrete error type of the package. It implements the
// watmap Error interface.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string { return err.message }

// Decorate adds dec to the decoration slice of the error and returns the
// resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical or can be ignored.
func (err Error) Critical() bool { return err.critical }

// PanicMsg is the type used for the messages of panics raised in this
// package. It satisfies the error interface; for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("watmap/v3: a Matrix must have 3 columns")
	ErrShape        = PanicMsg("watmap/v3: dimension mismatch")
)
