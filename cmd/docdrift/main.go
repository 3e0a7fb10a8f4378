package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/docdrift/docdrift/internal/output"
	"github.com/docdrift/docdrift/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	app := &cli.App{
		Name:    "docdrift",
		Usage:   "Detect documentation that drifted from the code it describes",
		Version: version,
		Description: `Docdrift fingerprints the semantics of every Python function, compares
scans against a stored baseline, and flags documentation files whose
mapped code changed enough that the docs probably need review.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"DOCDRIFT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
		},
		Commands: []*cli.Command{
			scanCmd(),
			baselineCmd(),
			fingerprintCmd(),
			initCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			if msg := exitErr.Error(); msg != "" {
				color.Red("Error: %v", err)
			}
			os.Exit(exitErr.ExitCode())
		}
		color.Red("Error: %v", err)
		os.Exit(2)
	}
}

// getRoot returns the repository root from positional args, defaulting
// to the current directory.
func getRoot(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// loadConfig resolves the config from the --config flag or the standard
// search locations, printing any loader warnings to stderr.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}

	cfg, warnings := config.LoadOrDefault()
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, color.YellowString("Warning: %s", w))
	}
	return cfg, nil
}

// newFormatter builds the output formatter from flags, falling back to
// config defaults.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), cfg.Output.Color)
}

func verbose(c *cli.Context, cfg *config.Config) bool {
	return c.Bool("verbose") || cfg.Output.Verbose
}
