package nifti

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/liob/reslice/volume"
)

// Write stores the grid g at fname as a single-file little endian
// NIfTI-1 image with float32 data. The header's affine, pixdim, and
// description are taken from hd; its shape must match the grid. Files
// ending in .gz are compressed.
func Write(fname string, hd *Header, g *volume.Grid[float32]) error {
	if hd.Nx != g.Nx || hd.Ny != g.Ny || hd.Nz != g.Nz {
		return fmt.Errorf(
			"The header shape (%d, %d, %d) does not match the grid "+
				"shape (%d, %d, %d).",
			hd.Nx, hd.Ny, hd.Nz, g.Nx, g.Ny, g.Nz,
		)
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(fname, ".gz") {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	raw := buildRawHeader(hd)
	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		return err
	}
	// Four zero bytes: no header extensions.
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	// Disk order is x fastest.
	disk := make([]float32, g.Len())
	i := 0
	for z := 0; z < g.Nz; z++ {
		for y := 0; y < g.Ny; y++ {
			for x := 0; x < g.Nx; x++ {
				disk[i] = g.At(x, y, z)
				i++
			}
		}
	}
	if err := binary.Write(w, binary.LittleEndian, disk); err != nil {
		return err
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

func buildRawHeader(hd *Header) *rawHeader {
	raw := &rawHeader{
		SizeofHdr: headerSize,
		Regular:   'r',
		Datatype:  TypeFloat32,
		Bitpix:    32,
		VoxOffset: voxOffset,
		SclSlope:  1,
		SformCode: 1,
		Magic:     [4]byte{'n', '+', '1', 0},
	}

	raw.Dim[0] = 3
	raw.Dim[1], raw.Dim[2], raw.Dim[3] = int16(hd.Nx), int16(hd.Ny), int16(hd.Nz)
	for i := 4; i < 8; i++ {
		raw.Dim[i] = 1
	}

	raw.Pixdim[0] = 1
	raw.Pixdim[1] = float32(hd.Pixdim[0])
	raw.Pixdim[2] = float32(hd.Pixdim[1])
	raw.Pixdim[3] = float32(hd.Pixdim[2])

	copy(raw.Descrip[:len(raw.Descrip)-1], hd.Descrip)

	a := hd.Affine
	for j := 0; j < 4; j++ {
		raw.SrowX[j] = float32(a.At(0, j))
		raw.SrowY[j] = float32(a.At(1, j))
		raw.SrowZ[j] = float32(a.At(2, j))
	}

	return raw
}
