// Package pipeline wires scanning, fingerprint extraction, diffing, and
// alert evaluation into the scan and baseline operations the CLI exposes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/docdrift/docdrift/internal/baseline"
	"github.com/docdrift/docdrift/internal/fileproc"
	"github.com/docdrift/docdrift/internal/scanner"
	"github.com/docdrift/docdrift/pkg/analyzer/alerts"
	"github.com/docdrift/docdrift/pkg/analyzer/drift"
	"github.com/docdrift/docdrift/pkg/config"
	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/models"
	"github.com/docdrift/docdrift/pkg/parser"
)

// Result is the outcome of one scan.
type Result struct {
	// FirstRun is set when no baseline existed yet. The scan stored one
	// and produced no events.
	FirstRun bool                 `json:"first_run"`
	Events   []models.ChangeEvent `json:"events,omitempty"`
	Alerts   []models.DocAlert    `json:"alerts,omitempty"`
	Summary  models.ScanSummary   `json:"summary"`
	Skipped  []models.SkippedFile `json:"skipped,omitempty"`
	Stats    models.BaselineStats `json:"baseline_stats"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Runner executes the drift pipeline against one repository root.
type Runner struct {
	root  string
	cfg   *config.Config
	store *baseline.Store
	scan  *scanner.Scanner
}

// Option configures a Runner.
type Option func(*Runner)

// WithBaselineDir overrides the configured baseline directory.
func WithBaselineDir(dir string) Option {
	return func(r *Runner) {
		r.store = baseline.NewStore(dir)
	}
}

// New creates a runner for the given repository root.
func New(root string, cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Runner{
		root:  root,
		cfg:   cfg,
		store: baseline.NewStore(filepath.Join(root, cfg.Baseline.Dir)),
		scan:  scanner.New(cfg),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaselinePath returns where the runner stores its baseline.
func (r *Runner) BaselinePath() string {
	return r.store.Path()
}

// Scan fingerprints the tree, compares it against the stored baseline,
// evaluates doc alerts, and refreshes the baseline. On the first run there
// is nothing to compare against, so it only stores the baseline.
func (r *Runner) Scan(ctx context.Context, onProgress fileproc.ProgressFunc) (*Result, error) {
	start := time.Now()

	old, exists, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	files, err := r.scan.ScanDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.root, err)
	}

	results, skipped, warnings, err := r.extract(ctx, files, old, onProgress)
	if err != nil {
		return nil, err
	}

	result := &Result{Skipped: skipped, Warnings: warnings}

	if !exists {
		_, stats, err := r.store.Replace(nil, results)
		if err != nil {
			return nil, err
		}
		result.FirstRun = true
		result.Stats = stats
		result.Summary = summarize(nil, results, skipped, time.Since(start))
		return result, nil
	}

	events := drift.Classify(old.Functions(), flatten(results))
	drift.ApplySeverity(events, r.cfg.Thresholds.Substantial)
	result.Events = events
	result.Alerts = alerts.Evaluate(events, r.docMappings(), r.cfg.Thresholds.DocAlert)
	result.Summary = summarize(events, results, skipped, time.Since(start))

	_, stats, err := r.store.Replace(old, results)
	if err != nil {
		return nil, err
	}
	result.Stats = stats

	return result, nil
}

// RebuildBaseline refingerprints the tree and replaces the stored
// baseline unconditionally.
func (r *Runner) RebuildBaseline(ctx context.Context, onProgress fileproc.ProgressFunc) (models.BaselineStats, []models.SkippedFile, error) {
	old, _, err := r.store.Load()
	if err != nil {
		return models.BaselineStats{}, nil, err
	}

	files, err := r.scan.ScanDir(r.root)
	if err != nil {
		return models.BaselineStats{}, nil, fmt.Errorf("scan %s: %w", r.root, err)
	}

	results, skipped, _, err := r.extract(ctx, files, nil, onProgress)
	if err != nil {
		return models.BaselineStats{}, nil, err
	}

	_, stats, err := r.store.Replace(old, results)
	return stats, skipped, err
}

// extract fingerprints files in parallel. Files whose source hash matches
// the baseline entry are not reparsed; their stored fingerprints are
// reused as-is.
func (r *Runner) extract(ctx context.Context, files []string, old *baseline.Snapshot, onProgress fileproc.ProgressFunc) ([]*fingerprint.FileResult, []models.SkippedFile, []string, error) {
	results, procErrs := fileproc.MapFilesWithContextAndProgress(ctx, files,
		func(psr *parser.Parser, rel string) (*fingerprint.FileResult, error) {
			source, err := os.ReadFile(filepath.Join(r.root, rel))
			if err != nil {
				return nil, err
			}

			key := fingerprint.NormalizePath(rel)
			if old != nil {
				if entry, ok := old.Files[key]; ok && entry.SourceHash == fingerprint.SourceHash(source) {
					return &fingerprint.FileResult{
						Path:       key,
						SourceHash: entry.SourceHash,
						Functions:  entry.Functions,
					}, nil
				}
			}

			parsed, err := psr.Parse(source, parser.LangPython, rel)
			if err != nil {
				return nil, err
			}
			return fingerprint.ExtractFile(parsed)
		}, onProgress)

	var skipped []models.SkippedFile
	if procErrs != nil {
		for _, pe := range procErrs.Errors {
			if errors.Is(pe.Err, context.Canceled) {
				return nil, nil, nil, pe.Err
			}
			reason := pe.Err.Error()
			var parseErr *fingerprint.ParseError
			if errors.As(pe.Err, &parseErr) {
				reason = "syntax errors"
			}
			skipped = append(skipped, models.SkippedFile{
				Path:   fingerprint.NormalizePath(pe.Path),
				Reason: reason,
			})
		}
		sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })
	}

	var warnings []string
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	for _, fr := range results {
		warnings = append(warnings, fr.Warnings...)
	}

	return results, skipped, warnings, nil
}

func (r *Runner) docMappings() []alerts.Mapping {
	docs := r.cfg.SortedDocs()
	mappings := make([]alerts.Mapping, 0, len(docs))
	for _, doc := range docs {
		mappings = append(mappings, alerts.Mapping{DocPath: doc, Patterns: r.cfg.Docs[doc]})
	}
	return mappings
}

func flatten(results []*fingerprint.FileResult) map[string]fingerprint.Fingerprint {
	all := map[string]fingerprint.Fingerprint{}
	for _, fr := range results {
		for key, fp := range fr.Functions {
			all[key] = fp
		}
	}
	return all
}

func summarize(events []models.ChangeEvent, results []*fingerprint.FileResult, skipped []models.SkippedFile, elapsed time.Duration) models.ScanSummary {
	summary := models.ScanSummary{
		FilesScanned:   len(results),
		FilesSkipped:   len(skipped),
		ElapsedSeconds: elapsed.Seconds(),
	}
	for _, fr := range results {
		summary.TotalFunctions += len(fr.Functions)
	}

	var modifiedScores []float64
	for _, ev := range events {
		switch ev.Kind {
		case models.EventAdded:
			summary.Added++
		case models.EventRemoved:
			summary.Removed++
		case models.EventModified:
			summary.Modified++
			modifiedScores = append(modifiedScores, float64(ev.Score))
		case models.EventUnchanged:
			summary.Unchanged++
		}
		if ev.Critical {
			summary.CriticalCount++
		}
		summary.TotalScore += ev.Score
	}

	if len(modifiedScores) > 0 {
		sort.Float64s(modifiedScores)
		summary.P50Score = stat.Quantile(0.5, stat.Empirical, modifiedScores, nil)
		summary.P95Score = stat.Quantile(0.95, stat.Empirical, modifiedScores, nil)
	}

	return summary
}
