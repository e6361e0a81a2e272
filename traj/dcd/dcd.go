/*
 * dcd.go, part of watmap.
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

/*Package dcd reads Charmm/NAMD binary trajectories, plain or compressed
(gzip and zstd, by file extension). Big and little endian files are
supported, as are unit cell (extra) blocks, which get parsed into the box
dimensions. Fixed atoms and X-plor flavored files are not supported.*/
package dcd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	chem "github.com/rmera/watmap"
	v3 "github.com/rmera/watmap/v3"
)

const mAXTITLE int32 = 80

//Container for a Charmm/NAMD binary trajectory file.
type DCDObj struct {
	natoms     int32
	buffSize   int
	readLast   bool //Have we read the last frame?
	readable   bool //Is it ready to be read?
	filename   string
	charmm     bool //Charmm traj?
	extrablock bool
	fourdim    bool
	fixed      int32 //Fixed atoms (not supported)
	fhandle    *os.File
	dcd        io.Reader //possibly a decompressor on top of fhandle
	dcdFields  [][]float32
	concBuffer [][][]float32
	endian     binary.ByteOrder
	cell       [6]float64 //a, gamma, b, beta, alpha, c, as in the file
	hasCell    bool
}

//New builds a new DCDObj from a DCD trajectory file, ready to be read from.
//Files ending in .gz or .zst are decompressed on the fly.
func New(filename string) (*DCDObj, error) {
	traj := new(DCDObj)
	source, err := traj.prepSource(filename, "")
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	traj.dcd = source
	if err := traj.initRead(); err != nil {
		return nil, errDecorate(err, "New")
	}
	traj.dcdFields = make([][]float32, 3)
	for i := range traj.dcdFields {
		traj.dcdFields[i] = make([]float32, int(traj.natoms))
	}
	traj.concBuffer = append(traj.concBuffer, traj.dcdFields)
	traj.buffSize = 1
	return traj, nil
}

//Readable returns true if the object is ready to be read from,
//false otherwise. It doesn't guarantee that there is something to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

//Len returns the number of atoms per frame in the trajectory.
//0 means an uninitialized object.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

//Close closes the file behind the trajectory. After Close the
//object is no longer readable.
func (D *DCDObj) Close() {
	if D.fhandle != nil {
		D.fhandle.Close()
	}
	D.readable = false
}

//initRead parses the DCD header. It supports big and little endianness,
//charmm or namd>=2.1, and no fixed atoms.
func (D *DCDObj) initRead() error {
	NB := bytes.NewBuffer //shortness sake
	D.endian = binary.LittleEndian
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//The first thing in the file should be an 84. If we don't see it,
	//the file must be big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	//Then the magic number "CORD".
	magic := make([]byte, 4)
	if err := binary.Read(D.dcd, D.endian, magic); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if string(magic) != "CORD" {
		return Error{WrongFormat + ": no CORD magic number", D.filename, []string{"initRead"}, true}
	}
	//We read the whole fixed-size part of the header at once, for random access.
	buf := make([]byte, 80)
	if err := binary.Read(D.dcd, D.endian, buf); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//X-plor sets the last int to zero, charmm sets it to its version number.
	//If we have a charmm file we get some additional flags.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 0 {
		return Error{"X-plor DCD not supported", D.filename, []string{"initRead"}, true}
	}
	D.charmm = true
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 0 {
		D.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 1 {
		D.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 84 {
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	var blockend int32
	if err := binary.Read(D.dcd, D.endian, &blockend); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//how many units of mAXTITLE does the title have?
	var ntitle int32
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.dcd, D.endian, title); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &blockend); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //one must read a 4 before the natoms
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &D.natoms); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //and one more 4
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if D.fixed != 0 {
		return Error{"Fixed atoms not supported", D.filename, []string{"initRead"}, true}
	}
	D.readable = true
	return nil
}

//Next reads the next frame of the trajectory into output, which must have
//at least as many vectors as atoms has the trajectory. If output is nil the
//frame is read and discarded. If a box slice is given, the unit cell
//dimensions of the frame, when present in the file, are put there: the 3
//box lengths, and, if there is room for them, the alpha, beta and gamma
//angles in degrees.
func (D *DCDObj) Next(output *v3.Matrix, box ...[]float64) error {
	if !D.readable {
		return Error{TrajUnIni, D.filename, []string{"Next"}, true}
	}
	if err := D.nextRaw(D.dcdFields); err != nil {
		return errDecorate(err, "Next")
	}
	if len(box) > 0 && box[0] != nil && D.hasCell {
		D.cell2Box(box[0])
	}
	if output == nil {
		return nil
	}
	if int32(output.NVecs()) < D.natoms {
		return Error{NotEnoughSpace, D.filename, []string{"Next"}, true}
	}
	for i := 0; i < int(D.natoms); i++ {
		output.Set(i, 0, float64(D.dcdFields[0][i]))
		output.Set(i, 1, float64(D.dcdFields[1][i]))
		output.Set(i, 2, float64(D.dcdFields[2][i]))
	}
	return nil
}

//cell2Box translates the unit cell block of the last frame read, which
//comes in X-plor order (a, gamma, b, beta, alpha, c) with the angles
//either in degrees or as their cosines, into box lengths plus angles.
func (D *DCDObj) cell2Box(box []float64) {
	if len(box) < 3 {
		return
	}
	box[0], box[1], box[2] = D.cell[0], D.cell[2], D.cell[5]
	if len(box) < 6 {
		return
	}
	angles := [3]float64{D.cell[4], D.cell[3], D.cell[1]} //alpha, beta, gamma
	for i, v := range angles {
		if math.Abs(v) <= 1 {
			v = math.Acos(v) * 180 / math.Pi
		}
		box[3+i] = v
	}
}

//nextRaw reads the next frame into blocks, which must contain 3 slices of
//natoms elements each. An EOF at the start of a frame is the normal
//end-of-trajectory signal, anywhere else it means a truncated file.
func (D *DCDObj) nextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return Error{NotEnoughSpace, D.filename, []string{"nextRaw"}, true}
	}
	if D.readLast {
		D.readable = false
		return newlastFrameError(D.filename, "nextRaw")
	}
	//If there is an extra block, it holds the unit cell. Sadly, even when
	//the header announces it, the block is not present in all snapshots of
	//some trajectories, so we use the block size to tell whether we got the
	//extra block or the X coordinates.
	var blocksize int32
	if D.extrablock {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return D.eof2LastFrame(err, "nextRaw")
		}
		if blocksize != D.natoms*4 {
			if err := D.readCellBlock(blocksize); err != nil {
				return errDecorate(err, "nextRaw")
			}
			blocksize = 0
		}
	}
	//Now the coords, each dimension as a block of float32.
	//The X block size may have been read already, while probing for the
	//extra block.
	if blocksize == 0 {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return D.eof2LastFrame(err, "nextRaw")
		}
	}
	if err := D.readFloat32Block(blocksize, blocks[0]); err != nil {
		return errDecorate(err, "nextRaw")
	}
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
	}
	if err := D.readFloat32Block(blocksize, blocks[1]); err != nil {
		return errDecorate(err, "nextRaw")
	}
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
	}
	if err := D.readFloat32Block(blocksize, blocks[2]); err != nil {
		return errDecorate(err, "nextRaw")
	}
	//The 4-D values, if they exist, are skipped. They are not present in the
	//last snapshot of some files, so an EOF here also signals the last frame,
	//but only for the _next_ call.
	if D.charmm && D.fourdim {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			if err == io.EOF {
				D.readLast = true
			} else {
				return Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
			}
		}
		if !D.readLast {
			if err := D.skipByteBlock(blocksize); err != nil {
				return errDecorate(err, "nextRaw")
			}
		}
	}
	return nil
}

//eof2LastFrame turns an EOF found at a frame boundary into the normal
//last-frame termination signal. Any other error is critical.
func (D *DCDObj) eof2LastFrame(err error, caller string) error {
	if err == io.EOF {
		D.readable = false
		return newlastFrameError(D.filename, caller)
	}
	return Error{err.Error(), D.filename, []string{"binary.Read", caller}, true}
}

//readFloat32Block reads a block of float32 into block and checks the
//trailing size mark against blocksize.
func (D *DCDObj) readFloat32Block(blocksize int32, block []float32) error {
	if blocksize != int32(len(block))*4 {
		return Error{fmt.Sprintf("%s: unexpected block size %d", WrongFormat, blocksize), D.filename, []string{"readFloat32Block"}, true}
	}
	var check int32
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readFloat32Block"}, true}
	}
	return nil
}

//readCellBlock reads an extra block of the given size and its trailing size
//mark. A 48-byte block is the unit cell, 6 float64, and gets stored;
//anything else is skipped.
func (D *DCDObj) readCellBlock(blocksize int32) error {
	var check int32
	if blocksize == 48 {
		if err := binary.Read(D.dcd, D.endian, D.cell[:]); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Read", "readCellBlock"}, true}
		}
		D.hasCell = true
	} else {
		if err := D.skipBytes(blocksize); err != nil {
			return errDecorate(err, "readCellBlock")
		}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readCellBlock"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readCellBlock"}, true}
	}
	return nil
}

//skipByteBlock skips a block of the given size plus its trailing size mark.
func (D *DCDObj) skipByteBlock(blocksize int32) error {
	var check int32
	if err := D.skipBytes(blocksize); err != nil {
		return errDecorate(err, "skipByteBlock")
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "skipByteBlock"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"skipByteBlock"}, true}
	}
	return nil
}

func (D *DCDObj) skipBytes(n int32) error {
	if _, err := io.CopyN(io.Discard, D.dcd, int64(n)); err != nil {
		return Error{err.Error(), D.filename, []string{"io.CopyN", "skipBytes"}, true}
	}
	return nil
}

func (D *DCDObj) setConcBuffer(batchsize int) {
	if D.buffSize >= batchsize {
		return
	}
	for i := D.buffSize; i < batchsize; i++ {
		tmp := [][]float32{
			make([]float32, D.Len()),
			make([]float32, D.Len()),
			make([]float32, D.Len()),
		}
		D.concBuffer = append(D.concBuffer, tmp)
	}
	D.buffSize = batchsize
}

//NextConc reads as many frames as elements frames has, and converts each
//to a v3.Matrix concurrently. Each conversion sends its result through the
//corresponding returned channel. A nil element in frames skips (reads and
//discards) that frame, and gets a nil channel. Reading itself stays
//sequential, so frames keep their order.
func (D *DCDObj) NextConc(frames []*v3.Matrix) ([]chan *v3.Matrix, error) {
	if !D.Readable() {
		return nil, Error{TrajUnIni, D.filename, []string{"NextConc"}, true}
	}
	framechans := make([]chan *v3.Matrix, len(frames))
	if D.buffSize < len(frames) {
		D.setConcBuffer(len(frames))
	}
	for key := range frames {
		DFields := D.concBuffer[key]
		if err := D.nextRaw(DFields); err != nil {
			return nil, errDecorate(err, "NextConc")
		}
		if frames[key] == nil {
			framechans[key] = nil //ignored frame
			continue
		}
		framechans[key] = make(chan *v3.Matrix)
		go func(natoms int, DFields [][]float32, keep *v3.Matrix, pipe chan *v3.Matrix) {
			for i := 0; i < natoms; i++ {
				keep.Set(i, 0, float64(DFields[0][i]))
				keep.Set(i, 1, float64(DFields[1][i]))
				keep.Set(i, 2, float64(DFields[2][i]))
			}
			pipe <- keep
		}(int(D.natoms), DFields, frames[key], framechans[key])
	}
	return framechans, nil
}

//Errors

//errDecorate asserts that the error implements chem.Error and decorates it
//with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2, ok := err.(chem.Error)
	if !ok {
		return Error{err.Error(), "", []string{caller}, true}
	}
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for DCD trajectory errors. It fulfills
//chem.Error and chem.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error.
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries
	//to alter the receiver, it should work, since E.deco is a slice, and
	//hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing trajectory was associated.
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "dcd") associated to the error.
func (err Error) Format() string { return "dcd" }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIni           = "Traj object uninitialized to read"
	ReadError           = "Error reading frame"
	UnableToOpen        = "Unable to open file"
	SecurityCheckFailed = "Failed security check"
	WrongFormat         = "Wrong format in the DCD file or frame"
	NotEnoughSpace      = "Not enough space in passed blocks"
)

//lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing, it's just a signal.
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "dcd" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
