package grid

import (
	"fmt"
	"math"
	"testing"
)

func TestBinAndDiscard(Te *testing.T) {
	g, err := New([3]float64{0, 0, 0}, 1.0, 4, 4, 4)
	if err != nil {
		Te.Fatal(err)
	}
	if !g.Bin(0.5, 0.5, 0.5) {
		Te.Error("point inside the grid was discarded")
	}
	if !g.Bin(3.9, 3.9, 3.9) {
		Te.Error("point inside the grid was discarded")
	}
	if g.Bin(4.1, 0.5, 0.5) {
		Te.Error("point outside the grid was binned")
	}
	if g.Bin(-0.1, 0.5, 0.5) {
		Te.Error("point outside the grid was binned")
	}
	if g.At(0, 0, 0) != 1 || g.At(3, 3, 3) != 1 {
		Te.Error("counts landed in the wrong voxels")
	}
	if g.Discarded() != 2 {
		Te.Errorf("expected 2 discarded points, got %d", g.Discarded())
	}
	if g.Sum() != 2 {
		Te.Errorf("expected total count 2, got %v", g.Sum())
	}
}

func TestFromBounds(Te *testing.T) {
	g, err := FromBounds([3]float64{-5, -5, -5}, [3]float64{10, 10.2, 9.9}, 0.5)
	if err != nil {
		Te.Fatal(err)
	}
	nx, ny, nz := g.Dims()
	fmt.Println("grid dims", nx, ny, nz)
	if nx != 20 || ny != 21 || nz != 20 {
		Te.Errorf("wrong dimensions %d %d %d", nx, ny, nz)
	}
	//the covered region must contain the requested box
	if float64(nx)*g.Delta() < 10 || float64(ny)*g.Delta() < 10.2 || float64(nz)*g.Delta() < 9.9 {
		Te.Error("grid does not cover the requested bounds")
	}
}

func TestSmoothConservesCounts(Te *testing.T) {
	g, err := New([3]float64{0, 0, 0}, 1.0, 11, 11, 11)
	if err != nil {
		Te.Fatal(err)
	}
	g.Set(5, 5, 5, 1.0)
	g.Smooth(1.2)
	if math.Abs(g.Sum()-1.0) > 1e-10 {
		Te.Errorf("smoothing changed the total count: %v", g.Sum())
	}
	center := g.At(5, 5, 5)
	fmt.Println("center after smoothing", center)
	if center <= g.At(4, 5, 5) {
		Te.Error("smoothed impulse is not peaked at the center")
	}
	//isotropy: the six face neighbors must match
	n := []float64{g.At(4, 5, 5), g.At(6, 5, 5), g.At(5, 4, 5), g.At(5, 6, 5), g.At(5, 5, 4), g.At(5, 5, 6)}
	for _, v := range n[1:] {
		if math.Abs(v-n[0]) > 1e-12 {
			Te.Errorf("anisotropic smoothing: %v", n)
		}
	}
}

func TestSmoothEdgeReflection(Te *testing.T) {
	//mass placed on a corner must still be conserved thanks to reflection
	g, err := New([3]float64{0, 0, 0}, 1.0, 8, 8, 8)
	if err != nil {
		Te.Fatal(err)
	}
	g.Set(0, 0, 0, 3.0)
	g.Smooth(1.0)
	if math.Abs(g.Sum()-3.0) > 1e-10 {
		Te.Errorf("reflection lost mass at the edge: %v", g.Sum())
	}
}

func TestOccupancyAndMu(Te *testing.T) {
	g, err := New([3]float64{0, 0, 0}, 1.0, 2, 2, 2)
	if err != nil {
		Te.Fatal(err)
	}
	//voxel (0,0,0) occupied in 50 of 100 frames, (1,1,1) in 100
	g.Set(0, 0, 0, 50)
	g.Set(1, 1, 1, 100)
	if err := g.Occupancy(100); err != nil {
		Te.Fatal(err)
	}
	if g.At(0, 0, 0) != 0.5 || g.At(1, 1, 1) != 1.0 {
		Te.Error("wrong occupancies")
	}
	kT := 0.593
	eps := 1e-6
	g.Mu(kT, eps)
	ceiling := -kT * math.Log(eps)
	fmt.Println("mu ceiling", ceiling, "half-occupied", g.At(0, 0, 0))
	if math.Abs(g.At(0, 1, 0)-ceiling) > 1e-12 {
		Te.Error("empty voxel is not at the mu ceiling")
	}
	if g.At(1, 1, 1) >= g.At(0, 0, 0) {
		Te.Error("more occupied voxel should have lower mu")
	}
	if g.Occupancy(0) == nil {
		Te.Error("occupancy over zero frames should fail")
	}
}

func TestAddIndexesMatchesBin(Te *testing.T) {
	a, _ := New([3]float64{0, 0, 0}, 0.5, 6, 6, 6)
	b := a.Clone()
	points := [][3]float64{{0.1, 0.1, 0.1}, {1.4, 2.0, 0.6}, {2.9, 2.9, 2.9}, {5.0, 0.0, 0.0}}
	idx := make([]int, 0, len(points))
	for _, p := range points {
		a.Bin(p[0], p[1], p[2])
		n, ok := b.Index(p[0], p[1], p[2])
		if !ok {
			n = -1
		}
		idx = append(idx, n)
	}
	b.AddIndexes(idx)
	for n, v := range a.Data() {
		if b.Data()[n] != v {
			Te.Fatalf("AddIndexes and Bin disagree at voxel %d", n)
		}
	}
	if a.Discarded() != b.Discarded() {
		Te.Error("discarded counts disagree")
	}
}

func TestAddMerge(Te *testing.T) {
	a, _ := New([3]float64{0, 0, 0}, 1.0, 3, 3, 3)
	b := a.Clone()
	a.Bin(0.5, 0.5, 0.5)
	b.Bin(0.5, 0.5, 0.5)
	b.Bin(2.5, 2.5, 2.5)
	if err := a.Add(b); err != nil {
		Te.Fatal(err)
	}
	if a.At(0, 0, 0) != 2 || a.At(2, 2, 2) != 1 {
		Te.Error("merge produced wrong counts")
	}
	c, _ := New([3]float64{0, 0, 0}, 1.0, 4, 3, 3)
	if a.Add(c) == nil {
		Te.Error("merging mismatched grids should fail")
	}
}
