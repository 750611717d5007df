/*package sample implements coordinate-based resampling of 3D scalar
volumes at several interpolation orders.

A sampler takes an input volume, a sequence of points in the input's
index space, and an output shape, and returns a fresh volume whose
i-th flat element is the input looked up (or interpolated) at the
i-th point. Points outside the input are not errors: they are
absorbed by the sampler's out-of-sample Mode, which either substitutes
a fill value or reads the nearest edge voxel. A consequence is that
sampling is total over arbitrary coordinates, so a broken upstream
transform shows up as fill values in the output rather than as a
failure.*/
package sample

import (
	"fmt"
	"runtime"

	"github.com/liob/reslice/volume"
)

// Mode is an out-of-sample strategy, applied when a point falls
// outside the input volume.
type Mode int

const (
	// Constant substitutes the sampler's fill value for any point
	// outside the input volume.
	Constant Mode = iota
	// Nearest clamps each axis index into the input volume, so points
	// outside it read the nearest edge voxel.
	Nearest
)

func (m Mode) String() string {
	switch m {
	case Constant:
		return "constant"
	case Nearest:
		return "nearest"
	}
	panic("Impossible")
}

// Point is a position in a volume's index space. Fractional
// components are resolved by the sampler's interpolation order.
type Point[T volume.Coord] [3]T

// Sampler resamples a volume at a sequence of points. The i-th point
// produces the i-th flat element of the output, which has shape
// (nx, ny, nz) in the same row-major layout as volume.Grid. Sample
// returns an error wrapping volume.ErrShapeMismatch if the dimensions
// are not all positive or if len(coords) != nx*ny*nz, and succeeds
// otherwise. The input volume is
// never written to and samplers keep no state across calls, so a
// single sampler may be used from many goroutines at once.
type Sampler[T volume.Coord, U volume.Value] interface {
	Sample(
		in *volume.Grid[U], coords []Point[T], nx, ny, nz int,
	) (*volume.Grid[U], error)
}

var (
	_ Sampler[float64, float32] = &NearestNeighbor[float64, float32]{}
	_ Sampler[float64, float32] = &Trilinear[float64, float32]{}
	_ Sampler[float64, float32] = &Tricubic[float64, float32]{}
	_ Sampler[int, int16]       = &NearestNeighbor[int, int16]{}
)

// sampleGrid runs the per-point function at over every coordinate and
// collects the results into a fresh grid. The coordinate range is
// strided across NumCPU workers. Each worker writes a disjoint set of
// output elements and only reads the input, so no synchronization is
// needed beyond the final join.
func sampleGrid[T volume.Coord, U volume.Value](
	in *volume.Grid[U], coords []Point[T], nx, ny, nz int,
	at func(*volume.Grid[U], Point[T]) U,
) (*volume.Grid[U], error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf(
			"%w: the output shape (%d, %d, %d) has a non-positive dimension",
			volume.ErrShapeMismatch, nx, ny, nz,
		)
	}
	if len(coords) != nx*ny*nz {
		return nil, fmt.Errorf(
			"%w: %d coordinates cannot fill an output of shape (%d, %d, %d)",
			volume.ErrShapeMismatch, len(coords), nx, ny, nz,
		)
	}

	out := volume.NewGrid[U](nx, ny, nz)

	workers := runtime.NumCPU()
	if workers > len(coords) {
		workers = len(coords)
	}

	done := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go chanSample(in, coords, out, at, id, workers, done)
	}
	chanSample(in, coords, out, at, workers-1, workers, done)
	for i := 0; i < workers; i++ {
		<-done
	}

	return out, nil
}

func chanSample[T volume.Coord, U volume.Value](
	in *volume.Grid[U], coords []Point[T], out *volume.Grid[U],
	at func(*volume.Grid[U], Point[T]) U,
	id, workers int, done chan<- int,
) {
	for i := id; i < len(coords); i += workers {
		out.Vals[i] = at(in, coords[i])
	}
	done <- id
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// clampFloat maps x into [lo, hi]. NaN fails every comparison, so the
// negated form lands it on lo.
func clampFloat(x, lo, hi float64) float64 {
	if !(x > lo) {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
