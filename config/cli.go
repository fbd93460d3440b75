package config

import (
	"os"
	"time"

	"github.com/joshnies/survol/constants"
)

// Runtime options set from the command line.
type Options struct {
	// Directory the artifacts are written to. Must already exist.
	OutputDir string
	// Whether or not to print verbose output.
	Verbose bool
	// Per-request timeout.
	Timeout time.Duration
	// Skip uploading to remote storage even if it is configured.
	NoMirror bool
}

// Returns options with defaults applied.
func DefaultOptions() Options {
	return Options{
		Verbose: os.Getenv(constants.VerboseEnvVar) == "1",
		Timeout: constants.DefaultTimeout,
	}
}
