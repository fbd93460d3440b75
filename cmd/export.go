package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/TwiN/go-color"
	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/lib/export"
	"github.com/joshnies/survol/lib/util"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// Export the configured account to the output directory.
func Export(c *cli.Context) error {
	// Flags after <DIR> are left unparsed
	if flag, ok := lo.Find(c.Args().Tail(), isFlag); ok {
		return console.Error("Flag %s must come before <DIR>", flag)
	}

	configPath := c.String("config")
	if configPath == "" {
		return console.Error("Required flag \"config\" not set")
	}
	if c.NArg() != 1 {
		return console.Error("Expected exactly one output directory, got %d arguments", c.NArg())
	}

	opts := config.DefaultOptions()
	opts.OutputDir = c.Args().First()
	opts.Verbose = opts.Verbose || c.Bool("verbose")
	opts.Timeout = c.Duration("timeout")
	opts.NoMirror = c.Bool("no-mirror")
	console.SetVerbose(opts.Verbose)

	// Load config before any network call
	cfg, err := config.Load(configPath)
	if err != nil {
		return errs.WithStage("config", err)
	}
	console.Verbose("Loaded config for %s from %s", cfg.Email, configPath)

	e := export.New(cfg, opts)

	var progress *util.StageProgress
	if !opts.Verbose && isTerminal(console.Err) {
		progress = util.NewStageProgress(console.Err, "Exporting", len(e.Stages()))
		e.OnStage = func(string) { progress.Done() }
	}

	res, err := e.Run(c.Context)
	if progress != nil {
		if err != nil {
			progress.Abort()
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}

	printSummary(res)
	return nil
}

// Print written artifacts.
func printSummary(res export.Result) {
	for _, a := range res.Artifacts {
		line := color.Ize(color.Cyan, filepath.Base(a.Path)) +
			color.Ize(color.Gray, " "+util.FormatBytesSize(a.Size)+" xxh64:"+a.Digest)
		if a.RemoteKey != "" {
			line += color.Ize(color.Gray, " -> "+a.RemoteKey)
		}
		console.Info("%s", line)
	}

	console.Success("Exported %d artifacts (run %s)", len(res.Artifacts), res.RunID)
}

func isFlag(arg string) bool {
	return strings.HasPrefix(arg, "-") && arg != "-"
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
