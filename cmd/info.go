package cmd

import (
	"fmt"

	"github.com/liob/reslice/nifti"
	"github.com/liob/reslice/parse"
)

// InfoConfig is the config for the info mode, which prints the
// geometry of one or more images.
type InfoConfig struct {
	inputs []string
}

var _ Mode = &InfoConfig{}

// ReadConfig reads an info config file into config.
func (config *InfoConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("info.config")
	vars.Strings(&config.inputs, "Inputs", []string{})

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}
	return config.validate()
}

func (config *InfoConfig) validate() error {
	if len(config.inputs) == 0 {
		return fmt.Errorf("The 'Inputs' variable isn't set.")
	}
	return nil
}

// ExampleConfig returns the text of an example info config file.
func (config *InfoConfig) ExampleConfig() string {
	return `[info.config]

# Inputs is the list of images whose headers will be printed.
Inputs = fixed.nii.gz, moving.nii.gz`
}

// Run executes the info mode.
func (config *InfoConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	lines := []string{}
	for _, fname := range config.inputs {
		hd, err := nifti.ReadHeader(fname)
		if err != nil {
			return nil, err
		}
		lines = append(lines, formatHeader(fname, hd)...)
	}
	return lines, nil
}

func formatHeader(fname string, hd *nifti.Header) []string {
	lines := []string{
		fmt.Sprintf("%s:", fname),
		fmt.Sprintf("  shape:    (%d, %d, %d)", hd.Nx, hd.Ny, hd.Nz),
		fmt.Sprintf("  datatype: %d", hd.Datatype),
		fmt.Sprintf("  pixdim:   (%g, %g, %g)",
			hd.Pixdim[0], hd.Pixdim[1], hd.Pixdim[2]),
		"  affine:",
	}
	for i := 0; i < 4; i++ {
		lines = append(lines, fmt.Sprintf(
			"    %10.4f %10.4f %10.4f %10.4f",
			hd.Affine.At(i, 0), hd.Affine.At(i, 1),
			hd.Affine.At(i, 2), hd.Affine.At(i, 3),
		))
	}
	if hd.Descrip != "" {
		lines = append(lines, fmt.Sprintf("  descrip:  %s", hd.Descrip))
	}
	return lines
}
