package fingerprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Digests holds one content digest per feature view, three auxiliary
// digests used to refine change weights, and one aggregate digest over
// all views.
type Digests struct {
	Signature   string `json:"signature"`
	ControlFlow string `json:"control_flow"`
	Conditions  string `json:"conditions"`
	Calls       string `json:"calls"`
	SideEffects string `json:"side_effects"`
	Exceptions  string `json:"exceptions"`
	Returns     string `json:"returns"`

	// SignatureCore is the signature digest with default values stripped,
	// so a defaults-only edit is distinguishable from a shape change.
	SignatureCore string `json:"signature_core"`
	// ConditionCore is the conditions digest with literals reduced to kind
	// markers, so a literal-only tweak is distinguishable from a
	// structural condition change.
	ConditionCore string `json:"condition_core"`
	// BranchKinds digests the set of top-level control construct kinds.
	BranchKinds string `json:"branch_kinds"`

	Aggregate string `json:"aggregate"`
}

// Fingerprint is the complete semantic fingerprint of one function.
type Fingerprint struct {
	Identity Identity `json:"identity"`
	Public   bool     `json:"public"`
	Views    Views    `json:"views"`
	Digests  Digests  `json:"digests"`
}

// View returns the digest for the given feature kind.
func (d Digests) View(kind FeatureKind) string {
	switch kind {
	case FeatureSignature:
		return d.Signature
	case FeatureControlFlow:
		return d.ControlFlow
	case FeatureConditions:
		return d.Conditions
	case FeatureCalls:
		return d.Calls
	case FeatureSideEffects:
		return d.SideEffects
	case FeatureExceptions:
		return d.Exceptions
	case FeatureReturns:
		return d.Returns
	}
	return ""
}

// digestValue hashes the canonical JSON encoding of a view. Struct field
// order is fixed by the type definitions, so the encoding is deterministic.
func digestValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Views are plain structs of strings, ints, and bools; encoding
		// cannot fail for them.
		panic(fmt.Sprintf("fingerprint: encode view: %v", err))
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// BuildDigests computes all per-view, auxiliary, and aggregate digests.
// The auxiliary views are passed in separately because they are derived
// from the syntax tree, not from the primary views.
func BuildDigests(views Views, conditionCore ConditionsView, branchKinds []string) Digests {
	sigCore := views.Signature
	sigCore.Defaults = nil

	d := Digests{
		Signature:     digestValue(views.Signature),
		ControlFlow:   digestValue(views.ControlFlow),
		Conditions:    digestValue(views.Conditions),
		Calls:         digestValue(views.Calls),
		SideEffects:   digestValue(views.SideEffects),
		Exceptions:    digestValue(views.Exceptions),
		Returns:       digestValue(views.Returns),
		SignatureCore: digestValue(sigCore),
		ConditionCore: digestValue(conditionCore),
		BranchKinds:   digestValue(branchKinds),
	}

	var sb strings.Builder
	for _, kind := range FeatureKinds() {
		sb.WriteString(d.View(kind))
	}
	sum := blake3.Sum256([]byte(sb.String()))
	d.Aggregate = hex.EncodeToString(sum[:])

	return d
}
