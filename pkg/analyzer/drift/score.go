package drift

import "github.com/docdrift/docdrift/pkg/fingerprint"

// Weight groups. Each group contributes its weight at most once per
// function, no matter how many of its member changes fired.
const (
	weightMinor       = 1
	weightLogic       = 3
	weightSignature   = 5
	weightSideEffects = 6
	weightExceptions  = 8
)

// Score weighs a feature diff into a single score, a critical flag, and
// the human-readable reasons behind them. A diff with no changed views
// scores zero.
func Score(diff FeatureDiff) ScoreResult {
	var result ScoreResult

	sideEffectsChanged := diff.Changed[fingerprint.FeatureSideEffects]

	// Minor group: cosmetic-adjacent changes that rarely invalidate docs.
	var minor []string
	if diff.Changed[fingerprint.FeatureSignature] && diff.DefaultsOnly {
		minor = append(minor, "default values changed")
	}
	if diff.Changed[fingerprint.FeatureConditions] && diff.LiteralOnly {
		minor = append(minor, "condition literals changed")
	}
	if diff.Changed[fingerprint.FeatureCalls] && !sideEffectsChanged {
		minor = append(minor, "calls changed")
	}
	if len(minor) > 0 {
		result.Score += weightMinor
		result.Reasons = append(result.Reasons, minor...)
	}

	// Logic group: behavior changed but the contract may still hold.
	var logic []string
	if diff.Changed[fingerprint.FeatureControlFlow] {
		logic = append(logic, "control flow changed")
	}
	if diff.Changed[fingerprint.FeatureConditions] && !diff.LiteralOnly {
		logic = append(logic, "conditions changed")
	}
	if diff.Changed[fingerprint.FeatureReturns] {
		logic = append(logic, "return shapes changed")
	}
	if len(logic) > 0 {
		result.Score += weightLogic
		result.Reasons = append(result.Reasons, logic...)
	}

	// Signature group: the documented contract itself moved. Only public
	// functions carry weight here; a visibility flip counts as public.
	if diff.Changed[fingerprint.FeatureSignature] && !diff.DefaultsOnly &&
		(diff.OldPublic || diff.NewPublic) {
		result.Score += weightSignature
		result.Critical = true
		result.Reasons = append(result.Reasons, "signature changed (public API)")
	}

	// Side-effect group: what the function touches in the outside world.
	if sideEffectsChanged {
		result.Score += weightSideEffects
		result.Critical = true
		result.Reasons = append(result.Reasons, "side effects changed")
	}

	// Exception/topology group: failure modes or the branch structure
	// itself changed shape.
	var severe []string
	if diff.Changed[fingerprint.FeatureExceptions] {
		severe = append(severe, "exceptions changed")
	}
	if diff.TopologyChanged {
		severe = append(severe, "branch structure changed")
	}
	if len(severe) > 0 {
		result.Score += weightExceptions
		result.Critical = true
		result.Reasons = append(result.Reasons, severe...)
	}

	return result
}
