/*package volume implements dense 3D scalar grids of the element types
found in medical images.*/
package volume

import (
	"errors"
	"fmt"
)

// Value is the set of scalar types a Grid may hold.
type Value interface {
	~uint8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Coord is the set of types sample coordinates may be given in.
// Integer coordinates address voxels exactly, floating point
// coordinates are resolved by the sampler's interpolation order.
type Coord interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// ErrShapeMismatch is returned when the length of a value sequence
// does not equal the product of the requested grid dimensions.
var ErrShapeMismatch = errors.New("shape mismatch")

// Grid is a dense 3D array with shape (Nx, Ny, Nz). Values are stored
// flat in row-major order with the z axis varying fastest:
// Vals[(x*Ny + y)*Nz + z].
type Grid[U Value] struct {
	Vals       []U
	Nx, Ny, Nz int
}

// NewGrid allocates a zeroed grid with the given dimensions.
func NewGrid[U Value](nx, ny, nz int) *Grid[U] {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("Grid dimensions (%d, %d, %d) must all be "+
			"positive.", nx, ny, nz))
	}
	return &Grid[U]{
		Vals: make([]U, nx*ny*nz),
		Nx:   nx, Ny: ny, Nz: nz,
	}
}

// FromVals wraps a flat value sequence in a grid of the given
// dimensions without copying. The values must already be in row-major
// order. Returns an error wrapping ErrShapeMismatch if len(vals) does
// not equal nx*ny*nz.
func FromVals[U Value](vals []U, nx, ny, nz int) (*Grid[U], error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("Grid dimensions (%d, %d, %d) must all be "+
			"positive.", nx, ny, nz))
	}
	if len(vals) != nx*ny*nz {
		return nil, fmt.Errorf(
			"%w: %d values cannot be reshaped to (%d, %d, %d)",
			ErrShapeMismatch, len(vals), nx, ny, nz,
		)
	}
	return &Grid[U]{Vals: vals, Nx: nx, Ny: ny, Nz: nz}, nil
}

// Idx returns the flat index of the voxel (x, y, z). No bounds checks
// are done beyond those of the underlying slice.
func (g *Grid[U]) Idx(x, y, z int) int {
	return (x*g.Ny+y)*g.Nz + z
}

// At returns the value of the voxel (x, y, z).
func (g *Grid[U]) At(x, y, z int) U { return g.Vals[g.Idx(x, y, z)] }

// Set sets the value of the voxel (x, y, z).
func (g *Grid[U]) Set(x, y, z int, v U) { g.Vals[g.Idx(x, y, z)] = v }

// In returns true if (x, y, z) addresses a voxel inside the grid.
func (g *Grid[U]) In(x, y, z int) bool {
	return x >= 0 && x < g.Nx &&
		y >= 0 && y < g.Ny &&
		z >= 0 && z < g.Nz
}

// Shape returns the grid's dimensions.
func (g *Grid[U]) Shape() (nx, ny, nz int) { return g.Nx, g.Ny, g.Nz }

// Len returns the number of voxels in the grid.
func (g *Grid[U]) Len() int { return len(g.Vals) }
