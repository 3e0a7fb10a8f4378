package drift

import "github.com/docdrift/docdrift/pkg/fingerprint"

// Diff compares two fingerprints of the same function, view by view.
// Comparison is purely digest based; the views themselves are never
// re-inspected. Panics with ComparisonMismatchError if the fingerprints
// belong to different functions.
func Diff(old, new fingerprint.Fingerprint) FeatureDiff {
	oldKey := old.Identity.Key()
	newKey := new.Identity.Key()
	if oldKey != newKey {
		panic(&ComparisonMismatchError{Old: oldKey, New: newKey})
	}

	diff := FeatureDiff{
		Key:       oldKey,
		Changed:   make(map[fingerprint.FeatureKind]bool, 7),
		OldPublic: old.Public,
		NewPublic: new.Public,
	}

	for _, kind := range fingerprint.FeatureKinds() {
		diff.Changed[kind] = old.Digests.View(kind) != new.Digests.View(kind)
	}

	if diff.Changed[fingerprint.FeatureSignature] {
		diff.DefaultsOnly = old.Digests.SignatureCore == new.Digests.SignatureCore
	}
	if diff.Changed[fingerprint.FeatureConditions] {
		diff.LiteralOnly = old.Digests.ConditionCore == new.Digests.ConditionCore
	}
	diff.TopologyChanged = old.Digests.BranchKinds != new.Digests.BranchKinds

	return diff
}
