// Package models defines the value types shared across the drift pipeline.
package models

// EventKind classifies what happened to a function between two versions.
type EventKind string

const (
	EventAdded     EventKind = "added"
	EventRemoved   EventKind = "removed"
	EventModified  EventKind = "modified"
	EventUnchanged EventKind = "unchanged"
)

// Severity is the three-level human-facing classification of a change.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ChangeEvent is the unit passed from the change classifier to reporting
// and alert evaluation. Immutable once created.
type ChangeEvent struct {
	Function string    `json:"function" toon:"function"`
	File     string    `json:"file" toon:"file"`
	Kind     EventKind `json:"kind" toon:"kind"`
	Score    int       `json:"score" toon:"score"`
	Critical bool      `json:"critical" toon:"critical"`
	Severity Severity  `json:"severity" toon:"severity"`
	Reasons  []string  `json:"reasons,omitempty" toon:"reasons,omitempty"`
}

// Contribution records one (function, reason) pair that fed a doc alert.
type Contribution struct {
	Function string `json:"function" toon:"function"`
	Reason   string `json:"reason" toon:"reason"`
}

// DocAlert flags one documentation file whose mapped code changed enough
// to warrant review. Built fresh each run, never persisted.
type DocAlert struct {
	DocPath         string         `json:"doc_path" toon:"doc_path"`
	Message         string         `json:"message" toon:"message"`
	CumulativeScore int            `json:"cumulative_score" toon:"cumulative_score"`
	CriticalFound   bool           `json:"critical_found" toon:"critical_found"`
	Reasons         []string       `json:"reasons" toon:"reasons"`
	Functions       []string       `json:"functions,omitempty" toon:"functions,omitempty"`
	Contributing    []Contribution `json:"contributing,omitempty" toon:"contributing,omitempty"`
}

// ScanSummary aggregates one run's events for reporting.
type ScanSummary struct {
	FilesScanned   int     `json:"files_scanned" toon:"files_scanned"`
	FilesSkipped   int     `json:"files_skipped" toon:"files_skipped"`
	TotalFunctions int     `json:"total_functions" toon:"total_functions"`
	Added          int     `json:"added" toon:"added"`
	Removed        int     `json:"removed" toon:"removed"`
	Modified       int     `json:"modified" toon:"modified"`
	Unchanged      int     `json:"unchanged" toon:"unchanged"`
	CriticalCount  int     `json:"critical_count" toon:"critical_count"`
	TotalScore     int     `json:"total_score" toon:"total_score"`
	P50Score       float64 `json:"p50_score" toon:"p50_score"`
	P95Score       float64 `json:"p95_score" toon:"p95_score"`
	ElapsedSeconds float64 `json:"elapsed_seconds" toon:"elapsed_seconds"`
}

// BaselineStats reports what changed when the stored baseline was replaced.
type BaselineStats struct {
	FilesAdded         int `json:"files_added" toon:"files_added"`
	FilesRemoved       int `json:"files_removed" toon:"files_removed"`
	FilesChanged       int `json:"files_changed" toon:"files_changed"`
	FilesUnchanged     int `json:"files_unchanged" toon:"files_unchanged"`
	FunctionsAdded     int `json:"functions_added" toon:"functions_added"`
	FunctionsRemoved   int `json:"functions_removed" toon:"functions_removed"`
	FunctionsChanged   int `json:"functions_changed" toon:"functions_changed"`
	FunctionsUnchanged int `json:"functions_unchanged" toon:"functions_unchanged"`
	TotalFiles         int `json:"total_files" toon:"total_files"`
	TotalFunctions     int `json:"total_functions" toon:"total_functions"`
}

// SkippedFile records a file dropped from analysis and why.
type SkippedFile struct {
	Path   string `json:"path" toon:"path"`
	Reason string `json:"reason" toon:"reason"`
}
