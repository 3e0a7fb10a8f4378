package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/docdrift/docdrift/internal/output"
	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/parser"
)

func fingerprintCmd() *cli.Command {
	return &cli.Command{
		Name:      "fingerprint",
		Aliases:   []string{"fp"},
		Usage:     "Show the semantic fingerprints of one Python file",
		ArgsUsage: "<file>",
		Description: `Parses a single file and prints each function's identity, visibility,
and digests. Mostly useful for debugging why a scan classified a change
the way it did; use --format json to see the full feature views.`,
		Action: runFingerprintCmd,
	}
}

func runFingerprintCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one file argument", 2)
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	psr := parser.New()
	defer psr.Close()

	parsed, err := psr.ParseFile(path)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	result, err := fingerprint.ExtractFile(parsed)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer formatter.Close()

	for _, w := range result.Warnings {
		formatter.Warning("%s", w)
	}

	var rows [][]string
	for _, key := range sortedKeys(result.Functions) {
		fp := result.Functions[key]
		visibility := "private"
		if fp.Public {
			visibility = "public"
		}
		rows = append(rows, []string{
			key,
			visibility,
			fp.Digests.Aggregate[:12],
		})
	}

	table := output.NewTable(
		fmt.Sprintf("Fingerprints for %s (source %s)", result.Path, result.SourceHash),
		[]string{"Function", "Visibility", "Digest"},
		rows,
		[]string{fmt.Sprintf("Functions: %d", len(result.Functions)), "", ""},
		result,
	)

	if err := formatter.Output(table); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return nil
}

func sortedKeys(m map[string]fingerprint.Fingerprint) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
