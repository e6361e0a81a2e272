/*
 * dcd_write.go, part of watmap.
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

package dcd

import (
	"encoding/binary"
	"io"
	"os"
	"runtime"

	v3 "github.com/rmera/watmap/v3"
)

//Container for a Charmm/NAMD binary trajectory file opened for writing.
//Writing is always plain, never compressed: DCD requires the number of
//frames at the beginning of the file, so the writer has to seek back on
//every frame, which a compressor can't do.
type DCDWObj struct {
	natoms   int32
	writable bool
	filename string
	withCell bool
	frames   int32
	dcd      *os.File
	fields   [][]float32
	endian   binary.ByteOrder
}

//NewWriter initializes a DCD trajectory for writing, for frames of natoms
//atoms. If withCell is true, every frame written will carry a unit cell
//block, and WNext will expect box dimensions.
func NewWriter(filename string, natoms int, withCell bool) (*DCDWObj, error) {
	traj := new(DCDWObj)
	traj.natoms = int32(natoms)
	traj.withCell = withCell
	if err := traj.initWrite(filename); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	return traj, nil
}

//Close flushes and closes the file behind the trajectory.
func (D *DCDWObj) Close() {
	if !D.writable {
		return
	}
	D.dcd.Close()
	D.writable = false
}

func (D *DCDWObj) initWrite(name string) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Write", "initWrite"}, true}
	}
	D.endian = binary.LittleEndian
	D.filename = name
	var err error
	D.dcd, err = os.Create(name)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"os.Create", "initWrite"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//For some reason, we have to write this magic number.
	magic := []byte("CORD")
	if err := binary.Write(D.dcd, D.endian, magic); err != nil {
		return wrapbinerr(err)
	}
	//The frames in the file go here. No frames written yet, but this part
	//gets updated after every write.
	if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//initial time
	if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//step interval (nsavc)
	if err := binary.Write(D.dcd, D.endian, int32(1)); err != nil {
		return wrapbinerr(err)
	}
	//5 zeros plus natom-nfreat
	for i := 0; i < 6; i++ {
		if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//delta time
	if err := binary.Write(D.dcd, D.endian, float32(1)); err != nil {
		return wrapbinerr(err)
	}
	//the unit cell flag
	var cellflag int32
	if D.withCell {
		cellflag = 1
	}
	if err := binary.Write(D.dcd, D.endian, cellflag); err != nil {
		return wrapbinerr(err)
	}
	//8 zeros for charmm
	for i := 0; i < 8; i++ {
		if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//charmm version, let's say, 24
	if err := binary.Write(D.dcd, D.endian, int32(24)); err != nil {
		return wrapbinerr(err)
	}
	//don't ask me why
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//the title block
	if err := binary.Write(D.dcd, D.endian, int32(244)); err != nil {
		return wrapbinerr(err)
	}
	var ntitle int32 = 2 //just a dummy title
	if err := binary.Write(D.dcd, D.endian, ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, 2*mAXTITLE)
	for j := range title {
		title[j] = byte(' ')
	}
	copy(title, []byte("Created by watmap"))
	title[len(title)-1] = byte('\000') //null-ended
	if err := binary.Write(D.dcd, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(244)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	//the number of atoms in each snapshot
	if D.natoms == 0 {
		return Error{"Trajectory not initialized correctly, the number of atoms is set to zero!", D.filename, []string{"initWrite"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	runtime.SetFinalizer(D, func(D *DCDWObj) {
		D.dcd.Close()
	})
	D.writable = true
	return nil
}

//WNext writes the next frame to the trajectory. If the writer was created
//with a unit cell, box must contain at least the 3 box lengths; the alpha,
//beta and gamma angles, in degrees, can follow, and default to 90.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return Error{TrajUnIniW, D.filename, []string{"WNext"}, true}
	}
	if towrite == nil {
		return Error{NilCoordinates, D.filename, []string{"WNext"}, true}
	}
	if int32(towrite.NVecs()) != D.natoms {
		return Error{"Coordinates don't match the trajectory size", D.filename, []string{"WNext"}, true}
	}
	if D.withCell {
		if len(box) == 0 || len(box[0]) < 3 {
			return Error{"Unit cell expected but no box given", D.filename, []string{"WNext"}, true}
		}
		if err := D.writeCellBlock(box[0]); err != nil {
			return errDecorate(err, "WNext")
		}
	}
	if D.fields == nil {
		D.fields = make([][]float32, 3)
		for i := range D.fields {
			D.fields[i] = make([]float32, int(D.natoms))
		}
	}
	for i := 0; i < int(D.natoms); i++ {
		D.fields[0][i] = float32(towrite.At(i, 0))
		D.fields[1][i] = float32(towrite.At(i, 1))
		D.fields[2][i] = float32(towrite.At(i, 2))
	}
	if err := D.wnextRaw(D.fields); err != nil {
		return errDecorate(err, "WNext")
	}
	D.frames++
	return D.updateFrames()
}

//writeCellBlock writes the unit cell block, 6 float64 in X-plor order
//(a, gamma, b, beta, alpha, c), the angles in degrees.
func (D *DCDWObj) writeCellBlock(box []float64) error {
	angles := [3]float64{90, 90, 90} //alpha, beta, gamma
	if len(box) >= 6 {
		angles[0], angles[1], angles[2] = box[3], box[4], box[5]
	}
	cell := [6]float64{box[0], angles[2], box[1], angles[1], angles[0], box[2]}
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeCellBlock"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, int32(48)); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, cell[:]); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(48)); err != nil {
		return wrapbinerr(err)
	}
	return nil
}

func (D *DCDWObj) wnextRaw(blocks [][]float32) error {
	for _, b := range blocks {
		if err := D.writeFloat32Block(b); err != nil {
			return errDecorate(err, "wnextRaw")
		}
	}
	return nil
}

//writeFloat32Block writes a block of float32 to the file, with its size
//before and after it.
func (D *DCDWObj) writeFloat32Block(block []float32) error {
	blocksize := int32(len(block)) * 4
	if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	return nil
}

//DCD is silly enough to require the number of frames at the beginning,
//so after each frame we seek back and update it.
func (D *DCDWObj) updateFrames() error {
	wraperr := func(err error, f string) error {
		return Error{err.Error(), D.filename, []string{f, "updateFrames"}, true}
	}
	currentoffset, err := D.dcd.Seek(0, io.SeekCurrent) //we'll need it to go back
	if err != nil {
		return wraperr(err, "dcd.Seek")
	}
	//the frame count sits right after the leading 84 and the magic number
	if _, err = D.dcd.Seek(8, io.SeekStart); err != nil {
		return wraperr(err, "dcd.Seek")
	}
	if err := binary.Write(D.dcd, D.endian, D.frames); err != nil {
		return wraperr(err, "binary.Write")
	}
	if _, err = D.dcd.Seek(currentoffset, io.SeekStart); err != nil {
		return wraperr(err, "dcd.Seek")
	}
	return nil
}

const (
	TrajUnIniW     = "Traj object uninitialized to write"
	NilCoordinates = "Given nil coordinates"
)
