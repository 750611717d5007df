package sample

import (
	"fmt"

	"github.com/liob/reslice/volume"
)

// NearestNeighbor is an order 0 sampler: each point reads the single
// voxel found by truncating its coordinates. Truncation is toward
// zero, so for non-negative coordinates the voxel containing the
// point is selected; callers feeding in negative fractional
// coordinates should note that, e.g., -0.5 truncates to index 0.
type NearestNeighbor[T volume.Coord, U volume.Value] struct {
	mode Mode
	cval U
}

// NewNearestNeighbor creates a nearest neighbor sampler with the
// default configuration: Constant mode with a zero fill value.
func NewNearestNeighbor[T volume.Coord, U volume.Value]() *NearestNeighbor[T, U] {
	return &NearestNeighbor[T, U]{mode: Constant}
}

// NewNearestNeighborMode creates a nearest neighbor sampler with the
// given out-of-sample mode and fill value. The fill value is only
// read in Constant mode.
func NewNearestNeighborMode[T volume.Coord, U volume.Value](
	mode Mode, cval U,
) *NearestNeighbor[T, U] {
	return &NearestNeighbor[T, U]{mode: mode, cval: cval}
}

// Sample implements the Sampler interface.
func (nn *NearestNeighbor[T, U]) Sample(
	in *volume.Grid[U], coords []Point[T], nx, ny, nz int,
) (*volume.Grid[U], error) {
	return sampleGrid(in, coords, nx, ny, nz, nn.at)
}

func (nn *NearestNeighbor[T, U]) at(in *volume.Grid[U], p Point[T]) U {
	x, y, z := int(p[0]), int(p[1]), int(p[2])

	switch nn.mode {
	case Constant:
		// indices are used as is
	case Nearest:
		x = clamp(x, 0, in.Nx-1)
		y = clamp(y, 0, in.Ny-1)
		z = clamp(z, 0, in.Nz-1)
	default:
		panic(fmt.Sprintf("The mode %d is not implemented.", nn.mode))
	}

	if !in.In(x, y, z) {
		return nn.cval
	}
	return in.At(x, y, z)
}
