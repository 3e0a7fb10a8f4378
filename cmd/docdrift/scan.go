package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/docdrift/docdrift/internal/output"
	"github.com/docdrift/docdrift/internal/pipeline"
	"github.com/docdrift/docdrift/internal/progress"
	"github.com/docdrift/docdrift/pkg/models"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan for semantic changes since the baseline and flag stale docs",
		ArgsUsage: "[path]",
		Description: `Fingerprints every Python function under the given path, compares the
result against the stored baseline, evaluates the doc mappings from the
config, and refreshes the baseline.

Exit codes:
  0  no documentation alerts (or first run, baseline created)
  1  at least one documentation file was flagged
  2  the scan itself failed`,
		Action: runScanCmd,
	}
}

func runScanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	runner := pipeline.New(getRoot(c), cfg)

	spinner := progress.NewSpinner("Fingerprinting...")
	result, err := runner.Scan(c.Context, spinner.Tick)
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

	for _, w := range result.Warnings {
		formatter.Warning("%s", w)
	}

	if result.FirstRun {
		if formatter.Format() == output.FormatText {
			formatter.Success("Baseline created at %s", runner.BaselinePath())
		}
		if err := formatter.Output(firstRunReport(runner.BaselinePath(), result)); err != nil {
			return cli.Exit(err.Error(), 2)
		}
		return nil
	}

	if err := formatter.Output(scanReport(result, verbose(c, cfg))); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if len(result.Alerts) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func firstRunReport(baselinePath string, result *pipeline.Result) *output.Report {
	return &output.Report{
		Title: "Baseline Created",
		Sections: []output.Renderable{
			&output.Section{
				Content: fmt.Sprintf("Stored %d functions across %d files in %s.\nRun scan again after changing code to detect drift.",
					result.Stats.TotalFunctions, result.Stats.TotalFiles, baselinePath),
			},
		},
		Data: result,
	}
}

func scanReport(result *pipeline.Result, showUnchanged bool) *output.Report {
	report := &output.Report{
		Title: "Documentation Drift",
		Data:  result,
	}

	if table := eventsTable(result.Events, showUnchanged); table != nil {
		report.Sections = append(report.Sections, table)
	}
	for _, alert := range result.Alerts {
		report.Sections = append(report.Sections, alertSection(alert))
	}
	if len(result.Alerts) == 0 {
		report.Sections = append(report.Sections, &output.Section{
			Content: "No documentation alerts.",
		})
	}
	report.Sections = append(report.Sections, summarySection(result.Summary))

	return report
}

func eventsTable(events []models.ChangeEvent, showUnchanged bool) *output.Table {
	var rows [][]string
	for _, ev := range events {
		if ev.Kind == models.EventUnchanged && !showUnchanged {
			continue
		}
		rows = append(rows, []string{
			ev.Function,
			ev.File,
			string(ev.Kind),
			fmt.Sprintf("%d", ev.Score),
			output.SeverityColor(string(ev.Severity), string(ev.Severity)),
			strings.Join(ev.Reasons, "; "),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return output.NewTable(
		"Changes",
		[]string{"Function", "File", "Kind", "Score", "Severity", "Reasons"},
		rows,
		nil,
		nil,
	)
}

func alertSection(alert models.DocAlert) *output.Section {
	var sb strings.Builder
	sb.WriteString(alert.Message)
	for _, contrib := range alert.Contributing {
		sb.WriteString(fmt.Sprintf("\n  - %s: %s", contrib.Function, contrib.Reason))
	}

	title := alert.DocPath
	if alert.CriticalFound {
		title = color.RedString(title)
	}
	return &output.Section{Title: title, Content: sb.String()}
}

func summarySection(summary models.ScanSummary) *output.Section {
	return &output.Section{
		Title: "Summary",
		Content: fmt.Sprintf(
			"Files: %d scanned, %d skipped\nFunctions: %d (%d added, %d removed, %d modified, %d unchanged)\nCritical: %d  Total score: %d  P50: %.1f  P95: %.1f\nElapsed: %.2fs",
			summary.FilesScanned, summary.FilesSkipped,
			summary.TotalFunctions, summary.Added, summary.Removed, summary.Modified, summary.Unchanged,
			summary.CriticalCount, summary.TotalScore, summary.P50Score, summary.P95Score,
			summary.ElapsedSeconds),
	}
}
