package sample

import (
	"fmt"

	"github.com/liob/reslice/volume"
)

// Trilinear is an order 1 sampler: each point blends the eight voxels
// surrounding it with the standard trilinear weights, so it is exact
// at integer coordinates. When the element type is an integer type
// the blended value is truncated toward zero.
type Trilinear[T volume.Coord, U volume.Value] struct {
	mode Mode
	cval U
}

// NewTrilinear creates a trilinear sampler with the default
// configuration: Constant mode with a zero fill value.
func NewTrilinear[T volume.Coord, U volume.Value]() *Trilinear[T, U] {
	return &Trilinear[T, U]{mode: Constant}
}

// NewTrilinearMode creates a trilinear sampler with the given
// out-of-sample mode and fill value.
func NewTrilinearMode[T volume.Coord, U volume.Value](
	mode Mode, cval U,
) *Trilinear[T, U] {
	return &Trilinear[T, U]{mode: mode, cval: cval}
}

// Sample implements the Sampler interface.
func (tri *Trilinear[T, U]) Sample(
	in *volume.Grid[U], coords []Point[T], nx, ny, nz int,
) (*volume.Grid[U], error) {
	return sampleGrid(in, coords, nx, ny, nz, tri.at)
}

func (tri *Trilinear[T, U]) at(in *volume.Grid[U], p Point[T]) U {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	capX, capY, capZ := float64(in.Nx-1), float64(in.Ny-1), float64(in.Nz-1)

	switch tri.mode {
	case Constant:
		// The negated form counts NaN coordinates as out of sample.
		if !(x >= 0 && y >= 0 && z >= 0 &&
			x <= capX && y <= capY && z <= capZ) {

			return tri.cval
		}
	case Nearest:
		x = clampFloat(x, 0, capX)
		y = clampFloat(y, 0, capY)
		z = clampFloat(z, 0, capZ)
	default:
		panic(fmt.Sprintf("The mode %d is not implemented.", tri.mode))
	}

	// In range and non-negative, so truncation is a floor.
	x0, y0, z0 := int(x), int(y), int(z)
	x1, y1, z1 := x0+1, y0+1, z0+1
	if x1 > in.Nx-1 {
		x1 = in.Nx - 1
	}
	if y1 > in.Ny-1 {
		y1 = in.Ny - 1
	}
	if z1 > in.Nz-1 {
		z1 = in.Nz - 1
	}
	xd, yd, zd := x-float64(x0), y-float64(y0), z-float64(z0)

	v000 := float64(in.At(x0, y0, z0))
	v001 := float64(in.At(x0, y0, z1))
	v010 := float64(in.At(x0, y1, z0))
	v011 := float64(in.At(x0, y1, z1))
	v100 := float64(in.At(x1, y0, z0))
	v101 := float64(in.At(x1, y0, z1))
	v110 := float64(in.At(x1, y1, z0))
	v111 := float64(in.At(x1, y1, z1))

	c00 := v000*(1-xd) + v100*xd
	c01 := v001*(1-xd) + v101*xd
	c10 := v010*(1-xd) + v110*xd
	c11 := v011*(1-xd) + v111*xd

	c0 := c00*(1-yd) + c10*yd
	c1 := c01*(1-yd) + c11*yd

	return U(c0*(1-zd) + c1*zd)
}
