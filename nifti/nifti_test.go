package nifti

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/liob/reslice/transform"
	"github.com/liob/reslice/volume"
)

func testGrid() *volume.Grid[float32] {
	g := volume.NewGrid[float32](3, 4, 5)
	for i := range g.Vals {
		g.Vals[i] = float32(i) / 2
	}
	return g
}

func testHeader() *Header {
	affine, _ := transform.NewAffine([]float64{
		-2, 0, 0, 16,
		0, 2, 0, -32,
		0, 0, 2.5, 8,
		0, 0, 0, 1,
	})
	return &Header{
		Nx: 3, Ny: 4, Nz: 5,
		Datatype: TypeFloat32,
		Pixdim:   [3]float64{2, 2, 2.5},
		Affine:   affine,
		Descrip:  "roundtrip",
	}
}

func roundTrip(t *testing.T, fname string) {
	hd, g := testHeader(), testGrid()
	if err := Write(fname, hd, g); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}

	hd2, g2, err := Read(fname)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}

	if hd2.Nx != hd.Nx || hd2.Ny != hd.Ny || hd2.Nz != hd.Nz {
		t.Errorf("Read shape (%d, %d, %d), wrote shape (%d, %d, %d).",
			hd2.Nx, hd2.Ny, hd2.Nz, hd.Nx, hd.Ny, hd.Nz)
	}
	if hd2.Datatype != TypeFloat32 {
		t.Errorf("Read datatype %d.", hd2.Datatype)
	}
	if hd2.Descrip != "roundtrip" {
		t.Errorf("Read descrip '%s'.", hd2.Descrip)
	}

	a, b := hd.Affine.Vals(), hd2.Affine.Vals()
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-6 {
			t.Errorf("affine value %d: wrote %g, read %g.", i, a[i], b[i])
		}
	}

	if len(g2.Vals) != len(g.Vals) {
		t.Fatalf("Read %d voxels, wrote %d.", len(g2.Vals), len(g.Vals))
	}
	for i := range g.Vals {
		if g.Vals[i] != g2.Vals[i] {
			t.Fatalf("voxel %d: wrote %g, read %g.", i, g.Vals[i], g2.Vals[i])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	roundTrip(t, filepath.Join(t.TempDir(), "vol.nii"))
}

func TestRoundTripGzip(t *testing.T) {
	roundTrip(t, filepath.Join(t.TempDir(), "vol.nii.gz"))
}

func TestReadHeaderOnly(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "vol.nii.gz")
	if err := Write(fname, testHeader(), testGrid()); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}

	hd, err := ReadHeader(fname)
	if err != nil {
		t.Fatalf("ReadHeader failed: %s", err.Error())
	}
	if hd.Nx != 3 || hd.Ny != 4 || hd.Nz != 5 {
		t.Errorf("ReadHeader returned shape (%d, %d, %d).",
			hd.Nx, hd.Ny, hd.Nz)
	}
}

func TestWriteShapeMismatch(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "vol.nii")
	hd := testHeader()
	hd.Nx = 7
	if err := Write(fname, hd, testGrid()); err == nil {
		t.Errorf("Write accepted a header whose shape does not match " +
			"the grid.")
	}
}

func TestDiskOrder(t *testing.T) {
	// The first voxel run on disk walks the x axis.
	fname := filepath.Join(t.TempDir(), "vol.nii")
	g := volume.NewGrid[float32](2, 2, 2)
	g.Set(0, 0, 0, 1)
	g.Set(1, 0, 0, 2)
	g.Set(0, 1, 0, 3)
	hd := testHeader()
	hd.Nx, hd.Ny, hd.Nz = 2, 2, 2
	if err := Write(fname, hd, g); err != nil {
		t.Fatalf("Write failed: %s", err.Error())
	}

	bs, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("ReadFile failed: %s", err.Error())
	}
	data := bs[voxOffset:]
	first := math.Float32frombits(binary.LittleEndian.Uint32(data[0:4]))
	second := math.Float32frombits(binary.LittleEndian.Uint32(data[4:8]))
	third := math.Float32frombits(binary.LittleEndian.Uint32(data[8:12]))
	if first != 1 || second != 2 || third != 3 {
		t.Errorf("First disk values are (%g, %g, %g), not (1, 2, 3).",
			first, second, third)
	}
}

// writeRaw writes a minimal NIfTI file directly so reads of foreign
// datatypes and byte orders can be tested.
func writeRaw(
	t *testing.T, fname string, order binary.ByteOrder,
	raw *rawHeader, data interface{},
) {
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("Create failed: %s", err.Error())
	}
	defer f.Close()

	if err := binary.Write(f, order, raw); err != nil {
		t.Fatalf("header write failed: %s", err.Error())
	}
	if _, err := f.Write([]byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("pad write failed: %s", err.Error())
	}
	if err := binary.Write(f, order, data); err != nil {
		t.Fatalf("data write failed: %s", err.Error())
	}
}

func minimalRaw(datatype, bitpix int16) *rawHeader {
	raw := &rawHeader{
		SizeofHdr: headerSize,
		Datatype:  datatype,
		Bitpix:    bitpix,
		VoxOffset: voxOffset,
		Magic:     [4]byte{'n', '+', '1', 0},
	}
	raw.Dim[0] = 3
	raw.Dim[1], raw.Dim[2], raw.Dim[3] = 2, 1, 1
	return raw
}

func TestReadInt16Scaled(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "int16.nii")
	raw := minimalRaw(TypeInt16, 16)
	raw.SclSlope, raw.SclInter = 0.5, 10

	writeRaw(t, fname, binary.LittleEndian, raw, []int16{4, -2})

	_, g, err := Read(fname)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}
	if g.Vals[0] != 12 || g.Vals[1] != 9 {
		t.Errorf("Scaled values are (%g, %g), not (12, 9).",
			g.Vals[0], g.Vals[1])
	}
}

func TestReadBigEndian(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "big.nii")
	writeRaw(
		t, fname, binary.BigEndian, minimalRaw(TypeFloat32, 32),
		[]float32{1.5, -8},
	)

	_, g, err := Read(fname)
	if err != nil {
		t.Fatalf("Read failed: %s", err.Error())
	}
	if g.Vals[0] != 1.5 || g.Vals[1] != -8 {
		t.Errorf("Values are (%g, %g), not (1.5, -8).", g.Vals[0], g.Vals[1])
	}
}

func TestReadRejects(t *testing.T) {
	dir := t.TempDir()

	// Not a NIfTI file at all.
	junk := filepath.Join(dir, "junk.nii")
	if err := os.WriteFile(junk, make([]byte, 1000), 0666); err != nil {
		t.Fatalf("WriteFile failed: %s", err.Error())
	}
	if _, _, err := Read(junk); err == nil {
		t.Errorf("Read accepted a zeroed file.")
	}

	// Wrong rank.
	rank4 := filepath.Join(dir, "rank4.nii")
	raw := minimalRaw(TypeFloat32, 32)
	raw.Dim[0] = 4
	writeRaw(t, rank4, binary.LittleEndian, raw, []float32{0, 0})
	if _, _, err := Read(rank4); err == nil {
		t.Errorf("Read accepted a 4D image.")
	}

	// Two-file magic.
	pair := filepath.Join(dir, "pair.nii")
	raw = minimalRaw(TypeFloat32, 32)
	raw.Magic = [4]byte{'n', 'i', '1', 0}
	writeRaw(t, pair, binary.LittleEndian, raw, []float32{0, 0})
	if _, _, err := Read(pair); err == nil {
		t.Errorf("Read accepted a two-file image.")
	}

	// Unsupported datatype.
	complexT := filepath.Join(dir, "complex.nii")
	writeRaw(
		t, complexT, binary.LittleEndian, minimalRaw(32, 64),
		[]float32{0, 0, 0, 0},
	)
	if _, _, err := Read(complexT); err == nil {
		t.Errorf("Read accepted the complex64 datatype.")
	}
}

func TestFallbackAffine(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "noform.nii")
	raw := minimalRaw(TypeFloat32, 32)
	raw.Pixdim[1], raw.Pixdim[2], raw.Pixdim[3] = 2, 3, 4
	writeRaw(t, fname, binary.LittleEndian, raw, []float32{0, 0})

	hd, err := ReadHeader(fname)
	if err != nil {
		t.Fatalf("ReadHeader failed: %s", err.Error())
	}
	x, y, z := hd.Affine.Apply(1, 1, 1)
	if x != 2 || y != 3 || z != 4 {
		t.Errorf("Fallback affine moved (1, 1, 1) to (%g, %g, %g).", x, y, z)
	}
}

func TestQformAffine(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "qform.nii")
	raw := minimalRaw(TypeFloat32, 32)
	raw.QformCode = 1
	// 180 degree rotation about z: (a, b, c, d) = (0, 0, 0, 1).
	raw.QuaternD = 1
	raw.Pixdim[0] = 1
	raw.Pixdim[1], raw.Pixdim[2], raw.Pixdim[3] = 1, 1, 1
	raw.QoffsetX, raw.QoffsetY, raw.QoffsetZ = 10, 0, 0
	writeRaw(t, fname, binary.LittleEndian, raw, []float32{0, 0})

	hd, err := ReadHeader(fname)
	if err != nil {
		t.Fatalf("ReadHeader failed: %s", err.Error())
	}
	x, y, z := hd.Affine.Apply(1, 2, 3)
	if math.Abs(x-9) > 1e-6 || math.Abs(y+2) > 1e-6 || math.Abs(z-3) > 1e-6 {
		t.Errorf("Qform affine moved (1, 2, 3) to (%g, %g, %g), not "+
			"(9, -2, 3).", x, y, z)
	}
}
