package sample

import (
	"fmt"

	"github.com/liob/reslice/volume"
)

// Tricubic is an order 3 sampler using Catmull-Rom weights applied
// separably along each axis. Each point reads the 4x4x4 neighborhood
// around it, with neighbor indices clamped at the volume edge. It is
// exact at integer coordinates and reproduces linear ramps away from
// the edges, at the cost of mild over- and undershoot near sharp
// steps, as with any interpolating cubic.
type Tricubic[T volume.Coord, U volume.Value] struct {
	mode Mode
	cval U
}

// NewTricubic creates a tricubic sampler with the default
// configuration: Constant mode with a zero fill value.
func NewTricubic[T volume.Coord, U volume.Value]() *Tricubic[T, U] {
	return &Tricubic[T, U]{mode: Constant}
}

// NewTricubicMode creates a tricubic sampler with the given
// out-of-sample mode and fill value.
func NewTricubicMode[T volume.Coord, U volume.Value](
	mode Mode, cval U,
) *Tricubic[T, U] {
	return &Tricubic[T, U]{mode: mode, cval: cval}
}

// Sample implements the Sampler interface.
func (tri *Tricubic[T, U]) Sample(
	in *volume.Grid[U], coords []Point[T], nx, ny, nz int,
) (*volume.Grid[U], error) {
	return sampleGrid(in, coords, nx, ny, nz, tri.at)
}

// catmullRom evaluates the Catmull-Rom cubic through four uniformly
// spaced values at parameter t in [0, 1] between v1 and v2.
func catmullRom(v0, v1, v2, v3, t float64) float64 {
	return v1 + 0.5*t*(v2-v0+
		t*(2*v0-5*v1+4*v2-v3+
			t*(3*(v1-v2)+v3-v0)))
}

func (tri *Tricubic[T, U]) at(in *volume.Grid[U], p Point[T]) U {
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

	x0, y0, z0 := int(x), int(y), int(z)
	tx, ty, tz := x-float64(x0), y-float64(y0), z-float64(z0)

	var vx [4]float64
	for i := 0; i < 4; i++ {
		xi := clamp(x0+i-1, 0, in.Nx-1)
		var vy [4]float64
		for j := 0; j < 4; j++ {
			yj := clamp(y0+j-1, 0, in.Ny-1)
			var vz [4]float64
			for k := 0; k < 4; k++ {
				zk := clamp(z0+k-1, 0, in.Nz-1)
				vz[k] = float64(in.At(xi, yj, zk))
			}
			vy[j] = catmullRom(vz[0], vz[1], vz[2], vz[3], tz)
		}
		vx[i] = catmullRom(vy[0], vy[1], vy[2], vy[3], ty)
	}

	return U(catmullRom(vx[0], vx[1], vx[2], vx[3], tx))
}
