package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/liob/reslice/logging"
	"github.com/liob/reslice/nifti"
	"github.com/liob/reslice/parse"
	"github.com/liob/reslice/sample"
	"github.com/liob/reslice/transform"
	"github.com/liob/reslice/version"
)

// ResampleConfig is the config for the resample mode, which reads an
// image, looks its voxels up on a new grid, and writes the result.
type ResampleConfig struct {
	input, reference, output string
	sampler, mode            string
	cval                     float64
	outputShape              []int64
}

var _ Mode = &ResampleConfig{}

// ReadConfig reads a resample config file into config.
func (config *ResampleConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("resample.config")
	vars.String(&config.input, "Input", "")
	vars.String(&config.reference, "Reference", "")
	vars.String(&config.output, "Output", "")
	vars.String(&config.sampler, "Sampler", "nearest")
	vars.String(&config.mode, "Mode", "constant")
	vars.Float(&config.cval, "CVal", 0)
	vars.Ints(&config.outputShape, "OutputShape", []int64{})

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *ResampleConfig) validate() error {
	if config.input == "" {
		return fmt.Errorf("The 'Input' variable isn't set.")
	}
	if config.output == "" {
		return fmt.Errorf("The 'Output' variable isn't set.")
	}
	if config.reference == "" && len(config.outputShape) == 0 {
		return fmt.Errorf(
			"Neither the 'Reference' nor the 'OutputShape' variable is " +
				"set, so I don't know what grid to resample onto.",
		)
	}

	switch config.sampler {
	case "nearest", "trilinear", "tricubic":
	default:
		return fmt.Errorf(
			"The 'Sampler' variable is set to '%s', which I don't "+
				"recognize. It must be one of 'nearest', 'trilinear', or "+
				"'tricubic'.", config.sampler,
		)
	}

	if _, err := parseMode(config.mode); err != nil {
		return err
	}

	if len(config.outputShape) != 0 && len(config.outputShape) != 3 {
		return fmt.Errorf(
			"The 'OutputShape' variable has %d values, but a shape needs "+
				"exactly 3.", len(config.outputShape),
		)
	}
	for _, dim := range config.outputShape {
		if dim <= 0 {
			return fmt.Errorf(
				"The 'OutputShape' variable contains the dimension %d, "+
					"but dimensions must be positive.", dim,
			)
		}
	}

	return nil
}

func parseMode(s string) (sample.Mode, error) {
	switch s {
	case "constant":
		return sample.Constant, nil
	case "nearest":
		return sample.Nearest, nil
	}
	return 0, fmt.Errorf(
		"The 'Mode' variable is set to '%s', which I don't recognize. "+
			"It must be either 'constant' or 'nearest'.", s,
	)
}

// ExampleConfig returns the text of an example resample config file.
func (config *ResampleConfig) ExampleConfig() string {
	return `[resample.config]
#####################
## Required Fields ##
#####################

# Input is the image that will be resampled.
Input = moving.nii.gz

# Output is where the resampled image is written. The suffix selects
# whether it is gzipped.
Output = resliced.nii.gz

# One of Reference and OutputShape must be set. Reference is an image
# whose grid (shape and affine) the output will use. OutputShape keeps
# the input's field of view and resamples it onto a grid with the
# given dimensions.
Reference = fixed.nii.gz
# OutputShape = 128, 128, 64

#####################
## Optional Fields ##
#####################

# Sampler can be set to 'nearest', 'trilinear', or 'tricubic'.
# Defaults to nearest.
# Sampler = nearest

# Mode selects what happens to points that fall outside the input
# image: 'constant' fills them with CVal, 'nearest' reads the closest
# edge voxel. Defaults to constant.
# Mode = constant

# CVal is the fill value used in constant mode. Defaults to zero.
# CVal = 0`
}

// Run executes the resample mode.
func (config *ResampleConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	if logging.Mode != logging.Nil {
		log.Printf("Running the resample mode on %s.", config.input)
	}
	t0 := time.Now()

	hd, in, err := nifti.Read(config.input)
	if err != nil {
		return nil, err
	}

	outHd, err := config.outputGeometry(hd)
	if err != nil {
		return nil, err
	}

	coords, err := transform.Coordinates(
		outHd.Affine, hd.Affine, outHd.Nx, outHd.Ny, outHd.Nz,
	)
	if err != nil {
		return nil, err
	}

	mode, err := parseMode(config.mode)
	if err != nil {
		return nil, err
	}
	cval := float32(config.cval)

	var s sample.Sampler[float64, float32]
	switch config.sampler {
	case "nearest":
		s = sample.NewNearestNeighborMode[float64, float32](mode, cval)
	case "trilinear":
		s = sample.NewTrilinearMode[float64, float32](mode, cval)
	case "tricubic":
		s = sample.NewTricubicMode[float64, float32](mode, cval)
	default:
		panic("Impossible")
	}

	out, err := s.Sample(in, coords, outHd.Nx, outHd.Ny, outHd.Nz)
	if err != nil {
		return nil, err
	}

	if err := nifti.Write(config.output, outHd, out); err != nil {
		return nil, err
	}

	if logging.Mode == logging.Performance {
		log.Printf("Time: %s", time.Since(t0))
		log.Printf("Memory:\n%s", logging.MemString())
	}

	return []string{}, nil
}

// outputGeometry builds the header of the output image. With a
// reference image the output copies its grid outright. With only an
// output shape the input's field of view is kept and its spacing
// rescaled, so output index x maps to input index x*inNx/outNx.
func (config *ResampleConfig) outputGeometry(
	in *nifti.Header,
) (*nifti.Header, error) {
	if config.reference != "" {
		ref, err := nifti.ReadHeader(config.reference)
		if err != nil {
			return nil, err
		}
		ref.Datatype = nifti.TypeFloat32
		ref.Descrip = "reslice " + version.SourceVersion
		return ref, nil
	}

	nx := int(config.outputShape[0])
	ny := int(config.outputShape[1])
	nz := int(config.outputShape[2])
	rx := float64(in.Nx) / float64(nx)
	ry := float64(in.Ny) / float64(ny)
	rz := float64(in.Nz) / float64(nz)

	return &nifti.Header{
		Nx: nx, Ny: ny, Nz: nz,
		Datatype: nifti.TypeFloat32,
		Pixdim: [3]float64{
			in.Pixdim[0] * rx, in.Pixdim[1] * ry, in.Pixdim[2] * rz,
		},
		Affine:  in.Affine.Mul(transform.Scale(rx, ry, rz)),
		Descrip: "reslice " + version.SourceVersion,
	}, nil
}
