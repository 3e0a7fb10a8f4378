package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/docdrift/docdrift/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a docdrift configuration file with defaults",
		Description: `Creates a new docdrift.toml configuration file in the current directory
with sensible defaults and an example doc mapping.

Examples:
  docdrift init                          # Creates docdrift.toml
  docdrift init --write-format yaml      # Creates docdrift.yaml
  docdrift init -o .docdrift/docdrift.toml
  docdrift init --force                  # Overwrite existing config`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default derived from --write-format)",
			},
			&cli.StringFlag{
				Name:  "write-format",
				Value: "toml",
				Usage: "Config format to write: toml or yaml",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	writeFormat := strings.ToLower(c.String("write-format"))
	if writeFormat != "toml" && writeFormat != "yaml" {
		return cli.Exit(fmt.Sprintf("unsupported config format %q (use toml or yaml)", writeFormat), 2)
	}

	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = "docdrift." + writeFormat
	}

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return cli.Exit(fmt.Sprintf("config file %q already exists (use --force to overwrite)", outputPath), 2)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cli.Exit(fmt.Sprintf("failed to create directory %q: %v", dir, err), 2)
		}
	}

	content, err := generateDefaultConfig(writeFormat)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write config file: %v", err), 2)
	}

	color.Green("Created %s", outputPath)
	fmt.Println("Add your doc mappings under [docs], then run: docdrift scan")
	return nil
}

func generateDefaultConfig(format string) (string, error) {
	cfg := config.DefaultConfig()
	cfg.Docs = map[string][]string{
		"docs/api.md": {"src/**/*.py"},
	}

	var content []byte
	var err error
	switch format {
	case "yaml":
		content, err = yaml.Marshal(cfg)
	default:
		content, err = toml.Marshal(cfg)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# docdrift configuration\n")
	buf.WriteString("# Map each documentation file to the code globs it describes.\n\n")
	buf.Write(content)

	return buf.String(), nil
}
