/*package nifti reads and writes single-file NIfTI-1 images (.nii and
.nii.gz).

Only 3D images are accepted. Voxel data of the common scalar types is
decoded, scaled by the header's scl_slope/scl_inter pair, and returned
as a float32 grid; the writer always emits float32 data with an sform
affine. Images are stored on disk with the x axis varying fastest, so
reading and writing transposes between disk order and the z-fastest
layout of volume.Grid.*/
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/liob/reslice/transform"
	"github.com/liob/reslice/volume"
)

// Datatype codes from the NIfTI-1 standard.
const (
	TypeUint8   int16 = 2
	TypeInt16   int16 = 4
	TypeInt32   int16 = 8
	TypeFloat32 int16 = 16
	TypeFloat64 int16 = 64
)

const (
	headerSize = 348
	voxOffset  = 352
)

// rawHeader is the 348 byte NIfTI-1 header, field for field.
type rawHeader struct {
	SizeofHdr    int32
	DataTypeName [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte

	Dim                          [8]int16
	IntentP1, IntentP2, IntentP3 float32
	IntentCode                   int16
	Datatype                     int16
	Bitpix                       int16
	SliceStart                   int16
	Pixdim                       [8]float32
	VoxOffset                    float32
	SclSlope                     float32
	SclInter                     float32
	SliceEnd                     int16
	SliceCode                    byte
	XyztUnits                    byte
	CalMax, CalMin               float32
	SliceDuration                float32
	Toffset                      float32
	Glmax, Glmin                 int32

	Descrip [80]byte
	AuxFile [24]byte

	QformCode                    int16
	SformCode                    int16
	QuaternB, QuaternC, QuaternD float32
	QoffsetX, QoffsetY, QoffsetZ float32
	SrowX                        [4]float32
	SrowY                        [4]float32
	SrowZ                        [4]float32

	IntentName [16]byte
	Magic      [4]byte
}

// Header is the geometry of an image: its shape, voxel spacing,
// element type, and voxel-to-world affine.
type Header struct {
	Nx, Ny, Nz int
	Datatype   int16
	Pixdim     [3]float64
	Affine     *transform.Affine
	Descrip    string
}

// Read reads the image stored at fname and returns its geometry and
// voxel data. Files ending in .gz are decompressed on the fly.
func Read(fname string) (*Header, *volume.Grid[float32], error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r, err := maybeGzip(fname, f)
	if err != nil {
		return nil, nil, err
	}

	raw, order, err := readRawHeader(fname, r)
	if err != nil {
		return nil, nil, err
	}
	hd, err := parseHeader(fname, raw)
	if err != nil {
		return nil, nil, err
	}

	// The data starts at vox_offset. Can't seek through gzip, so skip.
	skip := int64(raw.VoxOffset) - headerSize
	if skip < 0 {
		return nil, nil, fmt.Errorf(
			"The file %s places its data inside its header.", fname,
		)
	}
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, nil, err
	}

	disk, err := readVoxels(r, order, raw, hd.Nx*hd.Ny*hd.Nz)
	if err != nil {
		return nil, nil, fmt.Errorf(
			"Error reading the voxel data of %s: %s", fname, err.Error(),
		)
	}

	g := volume.NewGrid[float32](hd.Nx, hd.Ny, hd.Nz)
	i := 0
	for z := 0; z < hd.Nz; z++ {
		for y := 0; y < hd.Ny; y++ {
			for x := 0; x < hd.Nx; x++ {
				g.Vals[g.Idx(x, y, z)] = disk[i]
				i++
			}
		}
	}

	return hd, g, nil
}

// ReadHeader reads only the geometry of the image stored at fname.
func ReadHeader(fname string) (*Header, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := maybeGzip(fname, f)
	if err != nil {
		return nil, err
	}

	raw, _, err := readRawHeader(fname, r)
	if err != nil {
		return nil, err
	}
	return parseHeader(fname, raw)
}

func maybeGzip(fname string, f *os.File) (io.Reader, error) {
	if !strings.HasSuffix(fname, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf(
			"The file %s has a .gz suffix, but is not valid gzip: %s",
			fname, err.Error(),
		)
	}
	return gz, nil
}

// readRawHeader reads the raw header, detecting the byte order from
// the value of sizeof_hdr.
func readRawHeader(fname string, r io.Reader) (
	*rawHeader, binary.ByteOrder, error,
) {
	bs := make([]byte, headerSize)
	if _, err := io.ReadFull(r, bs); err != nil {
		return nil, nil, fmt.Errorf(
			"The file %s is too short to hold a NIfTI-1 header.", fname,
		)
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(bs[0:4]) == headerSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(bs[0:4]) == headerSize:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf(
			"The file %s is not a NIfTI-1 file: sizeof_hdr is not %d "+
				"in either byte order.", fname, headerSize,
		)
	}

	raw := &rawHeader{}
	if err := readBytes(bs, order, raw); err != nil {
		return nil, nil, err
	}
	return raw, order, nil
}

func readBytes(bs []byte, order binary.ByteOrder, raw *rawHeader) error {
	return binary.Read(bytes.NewReader(bs), order, raw)
}

func parseHeader(fname string, raw *rawHeader) (*Header, error) {
	magic := string(raw.Magic[:3])
	switch magic {
	case "n+1":
	case "ni1":
		return nil, fmt.Errorf(
			"The file %s is a two-file NIfTI image. Only single-file "+
				"(.nii) images are supported.", fname,
		)
	default:
		return nil, fmt.Errorf(
			"The file %s does not carry a NIfTI-1 magic string.", fname,
		)
	}

	if raw.Dim[0] != 3 {
		return nil, fmt.Errorf(
			"The image in %s has %d dimensions, but I can only resample "+
				"3D images.", fname, raw.Dim[0],
		)
	}
	nx, ny, nz := int(raw.Dim[1]), int(raw.Dim[2]), int(raw.Dim[3])
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf(
			"The image in %s has the invalid shape (%d, %d, %d).",
			fname, nx, ny, nz,
		)
	}

	switch raw.Datatype {
	case TypeUint8, TypeInt16, TypeInt32, TypeFloat32, TypeFloat64:
	default:
		return nil, fmt.Errorf(
			"The image in %s uses the datatype code %d, which is not "+
				"supported.", fname, raw.Datatype,
		)
	}

	hd := &Header{
		Nx: nx, Ny: ny, Nz: nz,
		Datatype: raw.Datatype,
		Pixdim: [3]float64{
			float64(raw.Pixdim[1]),
			float64(raw.Pixdim[2]),
			float64(raw.Pixdim[3]),
		},
		Affine:  rawAffine(raw),
		Descrip: cString(raw.Descrip[:]),
	}
	return hd, nil
}

// rawAffine selects the image's voxel-to-world transform the way
// nibabel does: the sform if set, the qform if set, and a pixdim
// scaling as the fallback.
func rawAffine(raw *rawHeader) *transform.Affine {
	if raw.SformCode > 0 {
		vals := make([]float64, 0, 16)
		for _, row := range [][4]float32{raw.SrowX, raw.SrowY, raw.SrowZ} {
			for _, v := range row {
				vals = append(vals, float64(v))
			}
		}
		vals = append(vals, 0, 0, 0, 1)
		a, _ := transform.NewAffine(vals)
		return a
	}
	if raw.QformCode > 0 {
		return qformAffine(raw)
	}

	dx, dy, dz := pixdimOrUnit(raw)
	return transform.Scale(dx, dy, dz)
}

// qformAffine builds the affine from the header's quaternion fields.
func qformAffine(raw *rawHeader) *transform.Affine {
	b := float64(raw.QuaternB)
	c := float64(raw.QuaternC)
	d := float64(raw.QuaternD)
	aa := 1 - b*b - c*c - d*d
	if aa < 0 {
		aa = 0
	}
	a := math.Sqrt(aa)

	dx, dy, dz := pixdimOrUnit(raw)
	// qfac stores the handedness of the grid in pixdim[0].
	if raw.Pixdim[0] < 0 {
		dz = -dz
	}

	vals := []float64{
		(a*a + b*b - c*c - d*d) * dx, 2 * (b*c - a*d) * dy,
		2 * (b*d + a*c) * dz, float64(raw.QoffsetX),

		2 * (b*c + a*d) * dx, (a*a + c*c - b*b - d*d) * dy,
		2 * (c*d - a*b) * dz, float64(raw.QoffsetY),

		2 * (b*d - a*c) * dx, 2 * (c*d + a*b) * dy,
		(a*a + d*d - b*b - c*c) * dz, float64(raw.QoffsetZ),

		0, 0, 0, 1,
	}
	m, _ := transform.NewAffine(vals)
	return m
}

func pixdimOrUnit(raw *rawHeader) (dx, dy, dz float64) {
	dx = float64(raw.Pixdim[1])
	dy = float64(raw.Pixdim[2])
	dz = float64(raw.Pixdim[3])
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = 1
	}
	if dz == 0 {
		dz = 1
	}
	return dx, dy, dz
}

func cString(bs []byte) string {
	for i := range bs {
		if bs[i] == 0 {
			return string(bs[:i])
		}
	}
	return string(bs)
}

// readVoxels reads n elements of the header's datatype and returns
// them scaled to float32. A scl_slope of zero means no scaling.
func readVoxels(
	r io.Reader, order binary.ByteOrder, raw *rawHeader, n int,
) ([]float32, error) {
	slope, inter := raw.SclSlope, raw.SclInter
	if slope == 0 {
		slope, inter = 1, 0
	}

	out := make([]float32, n)
	switch raw.Datatype {
	case TypeUint8:
		buf := make([]uint8, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)*slope + inter
		}
	case TypeInt16:
		buf := make([]int16, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)*slope + inter
		}
	case TypeInt32:
		buf := make([]int32, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)*slope + inter
		}
	case TypeFloat32:
		if err := binary.Read(r, order, out); err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = out[i]*slope + inter
		}
	case TypeFloat64:
		buf := make([]float64, n)
		if err := binary.Read(r, order, buf); err != nil {
			return nil, err
		}
		for i, v := range buf {
			out[i] = float32(v)*slope + inter
		}
	default:
		panic("Impossible")
	}

	return out, nil
}
