package cmd

import (
	"github.com/joshnies/survol/constants"
	"github.com/urfave/cli/v2"
)

// Version of the survol CLI.
const Version = "1.0.0"

func init() {
	// `-v` belongs to --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "Print the version",
	}
}

// Build the CLI app.
func NewApp() *cli.App {
	return &cli.App{
		Name:      "survol",
		Usage:     "Export a Bitwarden account's profile and encrypted vault to local JSON files",
		Version:   Version,
		ArgsUsage: "<DIR>  (flags must come before <DIR>)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				Usage:     "Path to the YAML configuration `FILE`",
				TakesFile: true,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print verbose output",
				EnvVars: []string{constants.VerboseEnvVar},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout (0 disables it)",
				Value: constants.DefaultTimeout,
			},
			&cli.BoolFlag{
				Name:  "no-mirror",
				Usage: "Skip uploading to remote storage, even if it is configured",
			},
		},
		Action: Export,
		Commands: []*cli.Command{
			{
				Name:   "device-id",
				Usage:  "Print a new random device identifier for the config file",
				Action: PrintDeviceID,
			},
		},
	}
}
