/*Package grid implements the voxel lattice at the heart of watmap: a regular
3D histogram of positions that can be Gaussian-smoothed, normalized into a
time-averaged occupancy, and transformed into a chemical-potential map.*/
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// A Grid is a regular 3D lattice of float64 voxels laid over a region of
// space. The voxel containing a point is found from the grid origin (the
// minimum corner) and the voxel edge length delta, which is the same in the
// three dimensions. Data is stored flat, with the z index varying fastest
// (the OpenDX convention, so maps can be written out without reordering).
type Grid struct {
	origin     [3]float64
	delta      float64
	nx, ny, nz int
	data       []float64
	discarded  int
}

// New returns a grid with the given origin, voxel edge length and dimensions.
func New(origin [3]float64, delta float64, nx, ny, nz int) (*Grid, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("watmap/grid: non-positive voxel size %v", delta)
	}
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("watmap/grid: non-positive dimensions %d %d %d", nx, ny, nz)
	}
	g := new(Grid)
	g.origin = origin
	g.delta = delta
	g.nx, g.ny, g.nz = nx, ny, nz
	g.data = make([]float64, nx*ny*nz)
	return g, nil
}

// FromBounds returns a grid of voxel size delta covering at least the box
// given by origin and lengths. The dimensions are rounded up, so the covered
// region can exceed the box by less than one voxel per dimension.
func FromBounds(origin, lengths [3]float64, delta float64) (*Grid, error) {
	var n [3]int
	for j := 0; j < 3; j++ {
		if lengths[j] <= 0 {
			return nil, fmt.Errorf("watmap/grid: non-positive box length %v", lengths[j])
		}
		n[j] = int(math.Ceil(lengths[j] / delta))
	}
	return New(origin, delta, n[0], n[1], n[2])
}

// Dims returns the number of voxels in each dimension.
func (g *Grid) Dims() (nx, ny, nz int) {
	return g.nx, g.ny, g.nz
}

// Origin returns the minimum corner of the grid.
func (g *Grid) Origin() [3]float64 {
	return g.origin
}

// Delta returns the voxel edge length.
func (g *Grid) Delta() float64 {
	return g.delta
}

// Data returns a view (not a copy) of the flat voxel data, z varying fastest.
func (g *Grid) Data() []float64 {
	return g.data
}

// At returns the value of the voxel with indexes i, j, k.
// Panics if out of range.
func (g *Grid) At(i, j, k int) float64 {
	return g.data[g.flat(i, j, k)]
}

// Set sets the value of the voxel with indexes i, j, k.
// Panics if out of range.
func (g *Grid) Set(i, j, k int, v float64) {
	g.data[g.flat(i, j, k)] = v
}

func (g *Grid) flat(i, j, k int) int {
	if i < 0 || i >= g.nx || j < 0 || j >= g.ny || k < 0 || k >= g.nz {
		panic(fmt.Sprintf("watmap/grid: voxel index out of range: %d %d %d", i, j, k))
	}
	return (i*g.ny+j)*g.nz + k
}

// Index returns the flat index of the voxel containing the point x, y, z and
// true, or -1 and false if the point falls outside the grid.
func (g *Grid) Index(x, y, z float64) (int, bool) {
	i := int(math.Floor((x - g.origin[0]) / g.delta))
	j := int(math.Floor((y - g.origin[1]) / g.delta))
	k := int(math.Floor((z - g.origin[2]) / g.delta))
	if i < 0 || i >= g.nx || j < 0 || j >= g.ny || k < 0 || k >= g.nz {
		return -1, false
	}
	return (i*g.ny+j)*g.nz + k, true
}

// Bin adds one count to the voxel containing the point x, y, z. Points
// outside the grid are discarded and counted, not an error: the grid covers
// the neighborhood of the solute, not the whole simulation box. It returns
// whether the point was binned.
func (g *Grid) Bin(x, y, z float64) bool {
	n, ok := g.Index(x, y, z)
	if !ok {
		g.discarded++
		return false
	}
	g.data[n]++
	return true
}

// AddIndexes adds one count to each voxel whose flat index appears in
// indexes. A negative index counts as a discarded point. It is the
// accumulation path for concurrent binning, where workers turn coordinates
// into indexes and a single owner mutates the grid.
func (g *Grid) AddIndexes(indexes []int) {
	for _, n := range indexes {
		if n < 0 {
			g.discarded++
			continue
		}
		g.data[n]++
	}
}

// Discarded returns the number of points so far rejected for falling outside
// the grid.
func (g *Grid) Discarded() int {
	return g.discarded
}

// Add accumulates the voxel values (and discarded count) of b into g.
// The grids must have the same geometry.
func (g *Grid) Add(b *Grid) error {
	if g.nx != b.nx || g.ny != b.ny || g.nz != b.nz {
		return fmt.Errorf("watmap/grid: mismatched dimensions %dx%dx%d vs %dx%dx%d", g.nx, g.ny, g.nz, b.nx, b.ny, b.nz)
	}
	if g.delta != b.delta || g.origin != b.origin {
		return fmt.Errorf("watmap/grid: mismatched geometry")
	}
	floats.Add(g.data, b.data)
	g.discarded += b.discarded
	return nil
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	ng := new(Grid)
	*ng = *g
	ng.data = make([]float64, len(g.data))
	copy(ng.data, g.data)
	return ng
}

// Scale multiplies every voxel by f.
func (g *Grid) Scale(f float64) {
	floats.Scale(f, g.data)
}

// Sum returns the sum of all voxel values.
func (g *Grid) Sum() float64 {
	return floats.Sum(g.data)
}

// Max returns the largest voxel value.
func (g *Grid) Max() float64 {
	return floats.Max(g.data)
}

// Min returns the smallest voxel value.
func (g *Grid) Min() float64 {
	return floats.Min(g.data)
}

// Occupancy converts accumulated counts into a time-averaged occupancy by
// dividing every voxel by the number of frames binned.
func (g *Grid) Occupancy(frames int) error {
	if frames <= 0 {
		return fmt.Errorf("watmap/grid: occupancy requested over %d frames", frames)
	}
	g.Scale(1 / float64(frames))
	return nil
}

// Mu replaces, in place, each voxel value w by -kT*ln(w+eps), the
// chemical-potential (free energy) transform. eps avoids the logarithm of
// zero in voxels never visited by water; those end up at the ceiling value
// -kT*ln(eps).
func (g *Grid) Mu(kT, eps float64) {
	for n, w := range g.data {
		g.data[n] = -kT * math.Log(w+eps)
	}
}

// Smooth applies, in place, a Gaussian filter of standard deviation sigma,
// given in voxel units. The filter is separable, so it runs as three 1D
// convolutions. The kernel is truncated at 4 sigma and boundaries are
// handled by reflection, which keeps the total count of an interior
// distribution unchanged. Sigma of zero or less is a no-op.
func (g *Grid) Smooth(sigma float64) {
	if sigma <= 0 {
		return
	}
	kernel := gaussKernel(sigma)
	buf := make([]float64, len(g.data))
	strides := [3]int{g.ny * g.nz, g.nz, 1}
	dims := [3]int{g.nx, g.ny, g.nz}
	for axis := 0; axis < 3; axis++ {
		g.convolveAxis(buf, kernel, dims[axis], strides[axis])
		copy(g.data, buf)
	}
}

// convolveAxis convolves data with kernel along the axis with the given
// dimension and stride, writing into dst.
func (g *Grid) convolveAxis(dst, kernel []float64, n, stride int) {
	r := (len(kernel) - 1) / 2
	total := len(g.data)
	for base := 0; base < total; base++ {
		//position of this voxel along the convolution axis
		pos := (base / stride) % n
		start := base - pos*stride
		var acc float64
		for o := -r; o <= r; o++ {
			q := reflectIndex(pos+o, n)
			acc += kernel[o+r] * g.data[start+q*stride]
		}
		dst[base] = acc
	}
}

// gaussKernel returns a normalized 1D Gaussian kernel of standard deviation
// sigma (in voxels), truncated at 4 sigma.
func gaussKernel(sigma float64) []float64 {
	r := int(4*sigma + 0.5)
	if r < 1 {
		r = 1
	}
	k := make([]float64, 2*r+1)
	s2 := 2 * sigma * sigma
	for i := -r; i <= r; i++ {
		k[i+r] = math.Exp(-float64(i*i) / s2)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

// reflectIndex maps an out-of-range index into [0, n) by mirror reflection
// (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
