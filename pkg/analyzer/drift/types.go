// Package drift compares semantic fingerprints of two versions of a
// codebase, weighs the differences, and turns them into change events.
package drift

import (
	"fmt"

	"github.com/docdrift/docdrift/pkg/fingerprint"
)

// ComparisonMismatchError reports an attempt to diff fingerprints of two
// different functions. This is a programming error in the caller, so the
// differ panics with it rather than returning it.
type ComparisonMismatchError struct {
	Old string
	New string
}

func (e *ComparisonMismatchError) Error() string {
	return fmt.Sprintf("cannot compare fingerprints of different functions: %s vs %s", e.Old, e.New)
}

// FeatureDiff records which feature views differ between two fingerprints
// of the same function, plus the refinements derived from the auxiliary
// digests.
type FeatureDiff struct {
	Key     string                           `json:"key"`
	Changed map[fingerprint.FeatureKind]bool `json:"changed"`

	// DefaultsOnly is set when the signature changed but its core shape
	// (names, kinds, annotations, return type, decorators) did not.
	DefaultsOnly bool `json:"defaults_only,omitempty"`
	// LiteralOnly is set when conditions changed but their structure with
	// literals reduced to kind markers did not.
	LiteralOnly bool `json:"literal_only,omitempty"`
	// TopologyChanged is set when the set of top-level control construct
	// kinds differs.
	TopologyChanged bool `json:"topology_changed,omitempty"`

	OldPublic bool `json:"old_public"`
	NewPublic bool `json:"new_public"`
}

// Any reports whether any feature view differs.
func (d FeatureDiff) Any() bool {
	for _, changed := range d.Changed {
		if changed {
			return true
		}
	}
	return false
}

// ScoreResult is the weighted outcome of one function diff.
type ScoreResult struct {
	Score    int      `json:"score"`
	Critical bool     `json:"critical"`
	Reasons  []string `json:"reasons,omitempty"`
}
