package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/docdrift/docdrift/internal/output"
	"github.com/docdrift/docdrift/internal/pipeline"
	"github.com/docdrift/docdrift/internal/progress"
)

func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:      "baseline",
		Usage:     "Refingerprint the tree and replace the stored baseline",
		ArgsUsage: "[path]",
		Description: `Rebuilds the baseline unconditionally, accepting the current state of
the code as the new reference point. Use this after updating the docs
that a scan flagged.`,
		Action: runBaselineCmd,
	}
}

func runBaselineCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	runner := pipeline.New(getRoot(c), cfg)

	spinner := progress.NewSpinner("Rebuilding baseline...")
	stats, skipped, err := runner.RebuildBaseline(c.Context, spinner.Tick)
	if err != nil {
		spinner.FinishError(err)
		return cli.Exit(err.Error(), 2)
	}
	spinner.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer formatter.Close()

	for _, sf := range skipped {
		formatter.Warning("skipped %s: %s", sf.Path, sf.Reason)
	}

	table := output.NewTable(
		fmt.Sprintf("Baseline written to %s", runner.BaselinePath()),
		[]string{"", "Files", "Functions"},
		[][]string{
			{"Added", fmt.Sprintf("%d", stats.FilesAdded), fmt.Sprintf("%d", stats.FunctionsAdded)},
			{"Removed", fmt.Sprintf("%d", stats.FilesRemoved), fmt.Sprintf("%d", stats.FunctionsRemoved)},
			{"Changed", fmt.Sprintf("%d", stats.FilesChanged), fmt.Sprintf("%d", stats.FunctionsChanged)},
			{"Unchanged", fmt.Sprintf("%d", stats.FilesUnchanged), fmt.Sprintf("%d", stats.FunctionsUnchanged)},
		},
		[]string{"Total", fmt.Sprintf("%d", stats.TotalFiles), fmt.Sprintf("%d", stats.TotalFunctions)},
		stats,
	)

	if err := formatter.Output(table); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return nil
}
