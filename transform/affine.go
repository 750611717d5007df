/*package transform implements the homogeneous transforms that connect
voxel index space to world space and generates sample coordinates from
them.*/
package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/liob/reslice/sample"
)

// Affine is a 4x4 homogeneous transform. For image headers it maps
// voxel indices (x, y, z, 1) to world coordinates in mm.
type Affine struct {
	m *mat.Dense
}

// NewAffine creates an affine from 16 row-major values.
func NewAffine(vals []float64) (*Affine, error) {
	if len(vals) != 16 {
		return nil, fmt.Errorf(
			"An affine needs 16 values, but %d were given.", len(vals),
		)
	}
	tmp := make([]float64, 16)
	copy(tmp, vals)
	return &Affine{mat.NewDense(4, 4, tmp)}, nil
}

// Identity returns the identity transform.
func Identity() *Affine {
	a := &Affine{mat.NewDense(4, 4, nil)}
	for i := 0; i < 4; i++ {
		a.m.Set(i, i, 1)
	}
	return a
}

// Scale returns the transform scaling the three axes by (dx, dy, dz).
// This is the voxel-to-world transform of an axis-aligned image with
// those voxel spacings.
func Scale(dx, dy, dz float64) *Affine {
	a := Identity()
	a.m.Set(0, 0, dx)
	a.m.Set(1, 1, dy)
	a.m.Set(2, 2, dz)
	return a
}

// At returns the matrix element (i, j).
func (a *Affine) At(i, j int) float64 { return a.m.At(i, j) }

// Vals returns the 16 matrix values in row-major order.
func (a *Affine) Vals() []float64 {
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out = append(out, a.m.At(i, j))
		}
	}
	return out
}

// Mul returns the composition a*b, the transform applying b first and
// a second.
func (a *Affine) Mul(b *Affine) *Affine {
	out := mat.NewDense(4, 4, nil)
	out.Mul(a.m, b.m)
	return &Affine{out}
}

// Inverse returns the inverse transform. An error is returned if the
// affine is singular.
func (a *Affine) Inverse() (*Affine, error) {
	inv := mat.NewDense(4, 4, nil)
	if err := inv.Inverse(a.m); err != nil {
		return nil, fmt.Errorf(
			"The affine cannot be inverted: %s", err.Error(),
		)
	}
	return &Affine{inv}, nil
}

// Apply maps the point (x, y, z) through the transform.
func (a *Affine) Apply(x, y, z float64) (float64, float64, float64) {
	m := a.m
	return m.At(0, 0)*x + m.At(0, 1)*y + m.At(0, 2)*z + m.At(0, 3),
		m.At(1, 0)*x + m.At(1, 1)*y + m.At(1, 2)*z + m.At(1, 3),
		m.At(2, 0)*x + m.At(2, 1)*y + m.At(2, 2)*z + m.At(2, 3)
}

// Coordinates maps every voxel index of an output grid with shape
// (nx, ny, nz) and voxel-to-world transform out into the index space
// of an input image with voxel-to-world transform in. The points are
// returned in the row-major order of volume.Grid, z varying fastest,
// ready to be passed to a Sampler. An error is returned if in is
// singular.
func Coordinates(
	out, in *Affine, nx, ny, nz int,
) ([]sample.Point[float64], error) {
	inv, err := in.Inverse()
	if err != nil {
		return nil, err
	}
	m := inv.Mul(out)

	pts := make([]sample.Point[float64], 0, nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				px, py, pz := m.Apply(float64(x), float64(y), float64(z))
				pts = append(pts, sample.Point[float64]{px, py, pz})
			}
		}
	}
	return pts, nil
}
