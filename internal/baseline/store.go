// Package baseline persists the fingerprint snapshot that future scans
// are compared against.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/models"
)

const (
	snapshotVersion = 1
	snapshotName    = "baseline.json"
)

// FileEntry is the stored state of one source file.
type FileEntry struct {
	SourceHash string                             `json:"source_hash"`
	Functions  map[string]fingerprint.Fingerprint `json:"functions"`
}

// Snapshot is the on-disk baseline: every fingerprinted file at the time
// the baseline was taken.
type Snapshot struct {
	Version     int                  `json:"version"`
	GeneratedAt time.Time            `json:"generated_at"`
	Files       map[string]FileEntry `json:"files"`
}

// NewSnapshot builds a snapshot from per-file extraction results.
func NewSnapshot(results []*fingerprint.FileResult) *Snapshot {
	snap := &Snapshot{
		Version:     snapshotVersion,
		GeneratedAt: time.Now().UTC(),
		Files:       make(map[string]FileEntry, len(results)),
	}
	for _, r := range results {
		snap.Files[r.Path] = FileEntry{
			SourceHash: r.SourceHash,
			Functions:  r.Functions,
		}
	}
	return snap
}

// Functions flattens the snapshot into a single key-to-fingerprint map.
func (s *Snapshot) Functions() map[string]fingerprint.Fingerprint {
	all := map[string]fingerprint.Fingerprint{}
	for _, entry := range s.Files {
		for key, fp := range entry.Functions {
			all[key] = fp
		}
	}
	return all
}

// Store reads and writes snapshots under a baseline directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, snapshotName)
}

// Load reads the stored snapshot. The second return value is false when
// no baseline exists yet; that is the first-run case, not an error.
func (s *Store) Load() (*Snapshot, bool, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read baseline: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("decode baseline %s: %w", s.Path(), err)
	}
	if snap.Version != snapshotVersion {
		return nil, false, fmt.Errorf("unsupported baseline version %d in %s", snap.Version, s.Path())
	}
	return &snap, true, nil
}

// Save writes the snapshot atomically: a temp file in the same directory
// renamed over the target, so a crash never leaves a half-written baseline.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, snapshotName+".tmp*")
	if err != nil {
		return fmt.Errorf("create baseline temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close baseline temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace baseline: %w", err)
	}
	return nil
}

// Replace saves the new snapshot and reports how it differs from the old
// one. A nil old snapshot means everything counts as added.
func (s *Store) Replace(old *Snapshot, results []*fingerprint.FileResult) (*Snapshot, models.BaselineStats, error) {
	snap := NewSnapshot(results)
	stats := diffStats(old, snap)
	if err := s.Save(snap); err != nil {
		return nil, models.BaselineStats{}, err
	}
	return snap, stats, nil
}

func diffStats(old, new *Snapshot) models.BaselineStats {
	var stats models.BaselineStats
	stats.TotalFiles = len(new.Files)

	oldFiles := map[string]FileEntry{}
	if old != nil {
		oldFiles = old.Files
	}

	for path, newEntry := range new.Files {
		stats.TotalFunctions += len(newEntry.Functions)

		oldEntry, existed := oldFiles[path]
		if !existed {
			stats.FilesAdded++
			stats.FunctionsAdded += len(newEntry.Functions)
			continue
		}
		if oldEntry.SourceHash == newEntry.SourceHash {
			stats.FilesUnchanged++
			stats.FunctionsUnchanged += len(newEntry.Functions)
			continue
		}
		stats.FilesChanged++
		countFunctionChanges(&stats, oldEntry.Functions, newEntry.Functions)
	}

	for path, oldEntry := range oldFiles {
		if _, kept := new.Files[path]; !kept {
			stats.FilesRemoved++
			stats.FunctionsRemoved += len(oldEntry.Functions)
		}
	}

	return stats
}

func countFunctionChanges(stats *models.BaselineStats, old, new map[string]fingerprint.Fingerprint) {
	for key, newFP := range new {
		oldFP, existed := old[key]
		switch {
		case !existed:
			stats.FunctionsAdded++
		case oldFP.Digests.Aggregate != newFP.Digests.Aggregate:
			stats.FunctionsChanged++
		default:
			stats.FunctionsUnchanged++
		}
	}
	for key := range old {
		if _, kept := new[key]; !kept {
			stats.FunctionsRemoved++
		}
	}
}
