/*
 * occupancy_test.go, part of watmap.
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

package occupancy

import (
	"fmt"
	"math"
	"testing"

	chem "github.com/rmera/watmap"
	v3 "github.com/rmera/watmap/v3"
)

//memTraj is an in-memory trajectory for testing. It implements both the
//sequential and the concurrent reading interfaces.
type memTraj struct {
	frames  []*v3.Matrix
	current int
	natoms  int
}

func (M *memTraj) Readable() bool { return M.current < len(M.frames) }

func (M *memTraj) Len() int { return M.natoms }

func (M *memTraj) Next(output *v3.Matrix, box ...[]float64) error {
	if M.current >= len(M.frames) {
		return memEOF{}
	}
	if output != nil {
		output.Copy(M.frames[M.current].Dense)
	}
	M.current++
	return nil
}

func (M *memTraj) NextConc(frames []*v3.Matrix) ([]chan *v3.Matrix, error) {
	if M.current >= len(M.frames) {
		return nil, memEOF{}
	}
	chans := make([]chan *v3.Matrix, len(frames))
	for key := range frames {
		if M.current >= len(M.frames) {
			//the batch ran past the trajectory: deliver empty results
			chans[key] = nil
			continue
		}
		frames[key].Copy(M.frames[M.current].Dense)
		M.current++
		chans[key] = make(chan *v3.Matrix, 1)
		chans[key] <- frames[key]
	}
	return chans, nil
}

//memEOF signals the normal end of a memTraj.
type memEOF struct{}

func (e memEOF) Error() string                { return "EOF" }
func (e memEOF) Critical() bool               { return false }
func (e memEOF) FileName() string             { return "in memory" }
func (e memEOF) Format() string               { return "mem" }
func (e memEOF) NormalLastFrameTermination()  {}
func (e memEOF) Decorate(dec string) []string { return nil }

//testSystem builds a topology with a 2-atom solute and 3 waters, and frames
//where the waters sit at fixed positions relative to the solute while the
//whole system drifts along x. One water sits far away from the solute, so
//it always falls outside the grid.
func testSystem(nframes int) (*chem.Topology, []*v3.Matrix, []int) {
	top := chem.NewTopology(nil)
	add := func(name, molname, symbol string, molid int) {
		top.AppendAtom(&chem.Atom{Name: name, MolName: molname, MolID: molid, Chain: "A", Symbol: symbol})
	}
	add("C1", "LIG", "C", 1)
	add("C2", "LIG", "C", 1)
	for i := 0; i < 3; i++ {
		add("OW", "SOL", "O", 2+i)
		add("HW1", "SOL", "H", 2+i)
		add("HW2", "SOL", "H", 2+i)
	}
	//solute-relative positions: solute centroid at the origin
	base := []float64{
		-1, 0, 0,
		1, 0, 0,
		2, 2, 2, 2.1, 2, 2, 2, 2.1, 2, //water 1, near
		-2, -2, -2, -1.9, -2, -2, -2, -1.9, -2, //water 2, near
		500, 500, 500, 500.1, 500, 500, 500, 500.1, 500, //water 3, far
	}
	frames := make([]*v3.Matrix, nframes)
	for f := range frames {
		data := make([]float64, len(base))
		copy(data, base)
		for i := 0; i < len(data); i += 3 {
			data[i] += 10 * float64(f) //global drift
		}
		frames[f], _ = v3.NewMatrix(data)
	}
	return top, frames, []int{0, 1}
}

func options() *Options {
	o := DefaultOptions()
	o.Delta(0.5)
	o.Padding(5.0)
	o.Sigma(0)
	o.Cpus(2)
	return o
}

func TestMap(Te *testing.T) {
	const nframes = 4
	top, frames, solute := testSystem(nframes)
	o := options()
	g, err := BoundsFromRef(frames[0], solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	traj := &memTraj{frames: frames, natoms: top.Len()}
	read, err := Map(traj, top, g, solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	if read != nframes {
		Te.Errorf("binned %d frames, expected %d", read, nframes)
	}
	//2 near waters binned on every frame, the far one discarded
	if g.Sum() != 2*nframes {
		Te.Errorf("total counts %v, expected %d", g.Sum(), 2*nframes)
	}
	if g.Discarded() != nframes {
		Te.Errorf("discarded %d, expected %d", g.Discarded(), nframes)
	}
	//the drift was removed, so each near water always hits the same voxel
	if g.Max() != nframes {
		Te.Errorf("max count %v, expected %d", g.Max(), nframes)
	}
}

func TestConcMapMatchesMap(Te *testing.T) {
	const nframes = 6
	top, frames, solute := testSystem(nframes)
	o := options()
	g, err := BoundsFromRef(frames[0], solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	gc := g.Clone()
	seq := &memTraj{frames: frames, natoms: top.Len()}
	readseq, err := Map(seq, top, g, solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	conc := &memTraj{frames: frames, natoms: top.Len()}
	readconc, err := ConcMap(conc, top, gc, solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("frames read sequentially:", readseq, "concurrently:", readconc)
	if readseq != readconc {
		Te.Errorf("sequential and concurrent read different frame counts: %d vs %d", readseq, readconc)
	}
	for n, v := range g.Data() {
		if gc.Data()[n] != v {
			Te.Fatalf("sequential and concurrent grids differ at voxel %d: %v vs %v", n, v, gc.Data()[n])
		}
	}
	if g.Discarded() != gc.Discarded() {
		Te.Errorf("discarded counts differ: %d vs %d", g.Discarded(), gc.Discarded())
	}
}

func TestSkip(Te *testing.T) {
	const nframes = 6
	top, frames, solute := testSystem(nframes)
	o := options()
	o.Skip(2)
	g, err := BoundsFromRef(frames[0], solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	traj := &memTraj{frames: frames, natoms: top.Len()}
	read, err := Map(traj, top, g, solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	//frames 0, 2 and 4
	if read != 3 {
		Te.Errorf("binned %d frames with skip 2, expected 3", read)
	}
}

func TestFinish(Te *testing.T) {
	const nframes = 5
	top, frames, solute := testSystem(nframes)
	o := options()
	g, err := BoundsFromRef(frames[0], solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	traj := &memTraj{frames: frames, natoms: top.Len()}
	read, err := Map(traj, top, g, solute, o)
	if err != nil {
		Te.Fatal(err)
	}
	if err := Finish(g, read, o); err != nil {
		Te.Fatal(err)
	}
	ceiling := -o.KT() * math.Log(o.Eps())
	//always-occupied voxels end up near zero, empty voxels at the ceiling
	if math.Abs(g.Max()-ceiling) > 1e-10 {
		Te.Errorf("empty voxels should sit at the ceiling %v, got %v", ceiling, g.Max())
	}
	want := -o.KT() * math.Log(1+o.Eps())
	if math.Abs(g.Min()-want) > 1e-10 {
		Te.Errorf("always-occupied voxels should sit at %v, got %v", want, g.Min())
	}
	fmt.Println("mu range:", g.Min(), g.Max())
}

func TestWrapping(Te *testing.T) {
	//a water sitting one box length away from its image near the solute
	//must wrap back and get binned
	top := chem.NewTopology(nil)
	top.AppendAtom(&chem.Atom{Name: "C1", MolName: "LIG", MolID: 1, Chain: "A", Symbol: "C"})
	top.AppendAtom(&chem.Atom{Name: "OW", MolName: "SOL", MolID: 2, Chain: "A", Symbol: "O"})
	coords, _ := v3.NewMatrix([]float64{
		0, 0, 0,
		1 + 30, 1, 1, //one box length (30) away in x
	})
	o := options()
	o.Box([3]float64{30, 30, 30})
	g, err := BoundsFromRef(coords, []int{0}, o)
	if err != nil {
		Te.Fatal(err)
	}
	traj := &memTraj{frames: []*v3.Matrix{coords}, natoms: top.Len()}
	read, err := Map(traj, top, g, []int{0}, o)
	if err != nil {
		Te.Fatal(err)
	}
	if read != 1 || g.Sum() != 1 || g.Discarded() != 0 {
		Te.Errorf("wrapped water was not binned: counts %v, discarded %d", g.Sum(), g.Discarded())
	}
}
