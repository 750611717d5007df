/*package cmd contains code for running reslice in its various command
line modes */
package cmd

import (
	"fmt"
	"runtime"

	"github.com/liob/reslice/logging"
	"github.com/liob/reslice/parse"
	"github.com/liob/reslice/version"
)

var ModeNames map[string]Mode = map[string]Mode{
	"resample": &ResampleConfig{},
	"info":     &InfoConfig{},
}

// Mode represents the interface used by the main binary when
// interacting with a given command line mode.
type Mode interface {
	// ReadConfig reads a mode-specific config file and stores its
	// contents within the Mode. An empty file name loads the defaults.
	ReadConfig(fname string) error
	// ExampleConfig returns the text of an example config file of this
	// mode.
	ExampleConfig() string
	// Run executes the mode. It takes a list of tokenized command line
	// flags and an initialized GlobalConfig struct and returns a slice
	// of lines that should be written to stdout along with an error if
	// one occurs.
	Run(flags []string, gConfig *GlobalConfig) ([]string, error)
}

// GlobalConfig is a config file used by every mode.
type GlobalConfig struct {
	version string
	logging string

	Threads int64
}

var _ Mode = &GlobalConfig{}

// ReadConfig reads a config file and returns an error, if applicable.
func (config *GlobalConfig) ReadConfig(fname string) error {
	vars := parse.NewConfigVars("config")
	vars.String(&config.version, "Version", version.SourceVersion)
	vars.String(&config.logging, "Logging", "nil")
	vars.Int(&config.Threads, "Threads", 0)

	if fname == "" {
		return config.validate()
	}
	if err := parse.ReadConfig(fname, vars); err != nil {
		return err
	}

	return config.validate()
}

// validate checks that all the user-generated fields of GlobalConfig
// are properly set.
func (config *GlobalConfig) validate() error {
	major, minor, _, err := version.Parse(config.version)
	if err != nil {
		return fmt.Errorf("I couldn't parse the 'Version' variable: %s",
			err.Error())
	}
	sMajor, sMinor, _, _ := version.Parse(version.SourceVersion)
	if major != sMajor || minor != sMinor {
		return fmt.Errorf(
			"The 'Version' variable is set to %s, but the source is "+
				"version %s.", config.version, version.SourceVersion,
		)
	}

	switch config.logging {
	case "nil":
		logging.Mode = logging.Nil
	case "performance":
		logging.Mode = logging.Performance
	case "debug":
		logging.Mode = logging.Debug
	default:
		return fmt.Errorf(
			"The 'Logging' variable is set to '%s', which I don't "+
				"recognize. It must be one of 'nil', 'performance', or "+
				"'debug'.", config.logging,
		)
	}

	if config.Threads < 0 {
		return fmt.Errorf(
			"The 'Threads' variable is set to %d, but it must be "+
				"non-negative. Zero means one thread per CPU.",
			config.Threads,
		)
	}
	if config.Threads > 0 {
		runtime.GOMAXPROCS(int(config.Threads))
	}

	return nil
}

// ExampleConfig returns the text of an example config file.
func (config *GlobalConfig) ExampleConfig() string {
	return fmt.Sprintf(`[config]
# All fields are optional.

# Version = %s

# Threads is the number of OS threads used when resampling. Zero means
# one thread per CPU.
# Threads = 0

# Logging can be set to 'nil', 'performance', or 'debug'.
# Logging = nil`, version.SourceVersion)
}

// Run should never be called on GlobalConfig. It exists so the main
// binary can treat every config uniformly.
func (config *GlobalConfig) Run(
	flags []string, gConfig *GlobalConfig,
) ([]string, error) {
	panic("GlobalConfig.Run() should never be executed.")
}
