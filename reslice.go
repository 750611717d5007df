/*package main contains code for resampling NIfTI images onto new
voxel grids.*/
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/liob/reslice/cmd"
	"github.com/liob/reslice/version"
)

var helpStrings = map[string]string{
	"resample": `The resample mode reads the image named by 'Input',
looks its voxels up on the grid of the 'Reference' image (or on a grid
with the dimensions given by 'OutputShape'), and writes the result to
'Output'. The interpolation order and the treatment of points that
fall outside the input are selected by the 'Sampler' and 'Mode'
variables. Type './reslice help resample.config' for a commented
example config file.`,
	"info": `The info mode prints the grid geometry of each image
named by the 'Inputs' variable: shape, datatype, voxel spacing, and
the voxel-to-world affine.`,

	"config":          new(cmd.GlobalConfig).ExampleConfig(),
	"resample.config": cmd.ModeNames["resample"].ExampleConfig(),
	"info.config":     cmd.ModeNames["info"].ExampleConfig(),
}

var modeDescriptions = `My help modes are:
reslice help
reslice help [ resample | info ]
reslice help [ config | resample.config | info.config ]

My processing modes are:
reslice resample [flags] ____.config [____.resample.config]
reslice info     [flags] ____.config [____.info.config]`

func main() {
	args := os.Args
	if len(args) <= 1 {
		fmt.Fprintf(
			os.Stderr, "I was not supplied with a mode.\nFor help, type "+
				"'./reslice help'.\n",
		)
		os.Exit(1)
	}

	switch args[1] {
	case "help":
		switch len(args) - 2 {
		case 0:
			fmt.Println(modeDescriptions)
		case 1:
			text, ok := helpStrings[args[2]]
			if !ok {
				fmt.Printf("I don't recognize the help target '%s'\n",
					args[2])
			} else {
				fmt.Println(text)
			}
		default:
			fmt.Println("The help mode can only take a single argument.")
		}
		os.Exit(0)
	case "version":
		fmt.Printf("reslice version %s\n", version.SourceVersion)
		os.Exit(0)
	}

	mode, ok := cmd.ModeNames[args[1]]
	if !ok {
		fmt.Fprintf(
			os.Stderr, "You passed me the mode '%s', which I don't "+
				"recognize.\nFor help, type './reslice help'\n", args[1],
		)
		os.Exit(1)
	}

	flags := getFlags(args)
	config, ok := getConfig(args)
	_, gConfig, err := getGlobalConfig(args)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	if ok {
		err = mode.ReadConfig(config)
	} else {
		err = mode.ReadConfig("")
	}
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	out, err := mode.Run(flags, gConfig)
	if err != nil {
		log.Fatalf("Error running mode %s:\n%s\n", args[1], err.Error())
	}

	for i := range out {
		fmt.Println(out[i])
	}
}

// getFlags returns the flag tokens from the command line arguments.
func getFlags(args []string) []string {
	return args[2 : len(args)-configNum(args)]
}

// getGlobalConfig returns the name of the base config file from the
// command line arguments along with its contents.
func getGlobalConfig(args []string) (string, *cmd.GlobalConfig, error) {
	name := os.Getenv("RESLICE_GLOBAL_CONFIG")
	if name != "" {
		if configNum(args) > 1 {
			return "", nil, fmt.Errorf("$RESLICE_GLOBAL_CONFIG has been " +
				"set, so you may only pass a single config file as a " +
				"parameter.")
		}

		config := &cmd.GlobalConfig{}
		if err := config.ReadConfig(name); err != nil {
			return "", nil, err
		}
		return name, config, nil
	}

	switch configNum(args) {
	case 0:
		return "", nil, fmt.Errorf("No config files provided in command " +
			"line arguments.")
	case 1:
		name = args[len(args)-1]
	case 2:
		name = args[len(args)-2]
	default:
		return "", nil, fmt.Errorf(
			"Passed too many config files as arguments.",
		)
	}

	config := &cmd.GlobalConfig{}
	if err := config.ReadConfig(name); err != nil {
		return "", nil, err
	}
	return name, config, nil
}

// getConfig returns the name of the mode-specific config file from
// the command line arguments.
func getConfig(args []string) (string, bool) {
	if os.Getenv("RESLICE_GLOBAL_CONFIG") != "" && configNum(args) == 1 {
		return args[len(args)-1], true
	} else if os.Getenv("RESLICE_GLOBAL_CONFIG") == "" &&
		configNum(args) == 2 {

		return args[len(args)-1], true
	}
	return "", false
}

// configNum returns the number of configuration files at the end of
// the argument list (up to 2).
func configNum(args []string) int {
	num := 0
	for i := len(args) - 1; i >= 0; i-- {
		if isConfig(args[i]) {
			num++
		} else {
			break
		}
	}
	return num
}

// isConfig returns true if the given string is a config file name.
func isConfig(s string) bool {
	return len(s) >= 7 && s[len(s)-7:] == ".config"
}
