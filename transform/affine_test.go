package transform

import (
	"math"
	"testing"
)

func almostEq(x, y float64) bool { return math.Abs(x-y) < 1e-10 }

func TestIdentityApply(t *testing.T) {
	id := Identity()
	x, y, z := id.Apply(1.5, -2, 7)
	if !almostEq(x, 1.5) || !almostEq(y, -2) || !almostEq(z, 7) {
		t.Errorf("Identity moved (1.5, -2, 7) to (%g, %g, %g).", x, y, z)
	}
}

func TestNewAffine(t *testing.T) {
	if _, err := NewAffine(make([]float64, 12)); err == nil {
		t.Errorf("NewAffine accepted 12 values.")
	}

	vals := []float64{
		2, 0, 0, 10,
		0, 3, 0, 20,
		0, 0, 4, 30,
		0, 0, 0, 1,
	}
	a, err := NewAffine(vals)
	if err != nil {
		t.Fatalf("NewAffine failed on valid input: %s", err.Error())
	}
	x, y, z := a.Apply(1, 1, 1)
	if !almostEq(x, 12) || !almostEq(y, 23) || !almostEq(z, 34) {
		t.Errorf("Affine moved (1, 1, 1) to (%g, %g, %g).", x, y, z)
	}

	got := a.Vals()
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("Vals()[%d] = %g, not %g.", i, got[i], vals[i])
		}
	}
}

func TestInverseRoundTrip(t *testing.T) {
	a, err := NewAffine([]float64{
		1, 0, 0.5, 4,
		0, 2, 0, -3,
		0.25, 0, 3, 8,
		0, 0, 0, 1,
	})
	if err != nil {
		t.Fatalf("NewAffine failed: %s", err.Error())
	}

	inv, err := a.Inverse()
	if err != nil {
		t.Fatalf("Inverse failed: %s", err.Error())
	}

	x0, y0, z0 := 1.25, -7.0, 2.5
	x, y, z := a.Apply(x0, y0, z0)
	x, y, z = inv.Apply(x, y, z)
	if !almostEq(x, x0) || !almostEq(y, y0) || !almostEq(z, z0) {
		t.Errorf("Inverse round trip moved (%g, %g, %g) to (%g, %g, %g).",
			x0, y0, z0, x, y, z)
	}
}

func TestInverseSingular(t *testing.T) {
	singular, err := NewAffine(make([]float64, 16))
	if err != nil {
		t.Fatalf("NewAffine failed: %s", err.Error())
	}
	if _, err := singular.Inverse(); err == nil {
		t.Errorf("Inverse succeeded on a singular affine.")
	}
}

func TestMulOrder(t *testing.T) {
	scale := Scale(2, 2, 2)
	shift, err := NewAffine([]float64{
		1, 0, 0, 1,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	if err != nil {
		t.Fatalf("NewAffine failed: %s", err.Error())
	}

	// scale.Mul(shift) applies the shift first.
	x, _, _ := scale.Mul(shift).Apply(1, 0, 0)
	if !almostEq(x, 4) {
		t.Errorf("scale*shift moved x = 1 to %g, not 4.", x)
	}
	x, _, _ = shift.Mul(scale).Apply(1, 0, 0)
	if !almostEq(x, 3) {
		t.Errorf("shift*scale moved x = 1 to %g, not 3.", x)
	}
}

func TestCoordinatesIdentity(t *testing.T) {
	pts, err := Coordinates(Identity(), Identity(), 2, 3, 4)
	if err != nil {
		t.Fatalf("Coordinates failed: %s", err.Error())
	}
	if len(pts) != 2*3*4 {
		t.Fatalf("Coordinates returned %d points, not %d.", len(pts), 2*3*4)
	}

	i := 0
	for x := 0; x < 2; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 4; z++ {
				p := pts[i]
				if !almostEq(p[0], float64(x)) ||
					!almostEq(p[1], float64(y)) ||
					!almostEq(p[2], float64(z)) {
					t.Errorf("point %d is %v, not (%d, %d, %d).",
						i, p, x, y, z)
				}
				i++
			}
		}
	}
}

func TestCoordinatesSpacing(t *testing.T) {
	// An output grid with twice the voxel spacing of the input lands
	// on every other input voxel.
	pts, err := Coordinates(Scale(2, 2, 2), Scale(1, 1, 1), 2, 2, 2)
	if err != nil {
		t.Fatalf("Coordinates failed: %s", err.Error())
	}

	want := [][3]float64{
		{0, 0, 0}, {0, 0, 2}, {0, 2, 0}, {0, 2, 2},
		{2, 0, 0}, {2, 0, 2}, {2, 2, 0}, {2, 2, 2},
	}
	for i := range want {
		for ax := 0; ax < 3; ax++ {
			if !almostEq(pts[i][ax], want[i][ax]) {
				t.Errorf("point %d is %v, not %v.", i, pts[i], want[i])
			}
		}
	}
}

func TestCoordinatesSingular(t *testing.T) {
	if _, err := Coordinates(Identity(), Scale(0, 1, 1), 1, 1, 1); err == nil {
		t.Errorf("Coordinates succeeded with a singular input affine.")
	}
}
