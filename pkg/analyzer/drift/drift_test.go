package drift

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/models"
)

// fp builds a fingerprint with every digest derived from a single seed so
// two fingerprints differ exactly in the views the test mutates.
func fp(name string, mutate func(*fingerprint.Digests)) fingerprint.Fingerprint {
	d := fingerprint.Digests{
		Signature:     "sig",
		ControlFlow:   "flow",
		Conditions:    "cond",
		Calls:         "calls",
		SideEffects:   "fx",
		Exceptions:    "exc",
		Returns:       "ret",
		SignatureCore: "sigcore",
		ConditionCore: "condcore",
		BranchKinds:   "branches",
		Aggregate:     "agg",
	}
	if mutate != nil {
		mutate(&d)
		d.Aggregate = "agg2"
	}
	id := fingerprint.NewIdentity("svc/api.py", nil, name)
	return fingerprint.Fingerprint{
		Identity: id,
		Public:   id.Public(),
		Digests:  d,
	}
}

func TestDiffMismatchedIdentitiesPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if _, ok := r.(*ComparisonMismatchError); !ok {
			t.Fatalf("unexpected panic value %v", r)
		}
	}()
	Diff(fp("first", nil), fp("second", nil))
}

func TestScoreGroups(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fingerprint.Digests)
		private  bool
		score    int
		critical bool
	}{
		{
			name:   "no change",
			mutate: nil,
			score:  0,
		},
		{
			name: "defaults only",
			mutate: func(d *fingerprint.Digests) {
				d.Signature = "sig2"
			},
			score: 1,
		},
		{
			name: "condition literal only",
			mutate: func(d *fingerprint.Digests) {
				d.Conditions = "cond2"
			},
			score: 1,
		},
		{
			name: "calls without side effects",
			mutate: func(d *fingerprint.Digests) {
				d.Calls = "calls2"
			},
			score: 1,
		},
		{
			name: "conditions and returns share the logic weight",
			mutate: func(d *fingerprint.Digests) {
				d.Conditions = "cond2"
				d.ConditionCore = "condcore2"
				d.Returns = "ret2"
			},
			score: 3,
		},
		{
			name: "control flow",
			mutate: func(d *fingerprint.Digests) {
				d.ControlFlow = "flow2"
			},
			score: 3,
		},
		{
			name: "public signature shape",
			mutate: func(d *fingerprint.Digests) {
				d.Signature = "sig2"
				d.SignatureCore = "sigcore2"
			},
			score:    5,
			critical: true,
		},
		{
			name: "private signature shape carries no weight",
			mutate: func(d *fingerprint.Digests) {
				d.Signature = "sig2"
				d.SignatureCore = "sigcore2"
			},
			private: true,
			score:   0,
		},
		{
			name: "side effects absorb the calls change",
			mutate: func(d *fingerprint.Digests) {
				d.Calls = "calls2"
				d.SideEffects = "fx2"
			},
			score:    6,
			critical: true,
		},
		{
			name: "conditions plus side effects",
			mutate: func(d *fingerprint.Digests) {
				d.Conditions = "cond2"
				d.ConditionCore = "condcore2"
				d.SideEffects = "fx2"
			},
			score:    9,
			critical: true,
		},
		{
			name: "exceptions and topology share one weight",
			mutate: func(d *fingerprint.Digests) {
				d.Exceptions = "exc2"
				d.BranchKinds = "branches2"
			},
			score:    8,
			critical: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := "handle"
			if tt.private {
				name = "_handle"
			}
			result := Score(Diff(fp(name, nil), fp(name, tt.mutate)))
			if result.Score != tt.score {
				t.Errorf("score = %d, want %d (reasons %v)", result.Score, tt.score, result.Reasons)
			}
			if result.Critical != tt.critical {
				t.Errorf("critical = %v, want %v", result.Critical, tt.critical)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	old := map[string]fingerprint.Fingerprint{}
	new := map[string]fingerprint.Fingerprint{}

	keep := fp("stable", nil)
	old[keep.Identity.Key()] = keep
	new[keep.Identity.Key()] = keep

	changed := fp("changed", nil)
	changedNew := fp("changed", func(d *fingerprint.Digests) { d.ControlFlow = "flow2" })
	old[changed.Identity.Key()] = changed
	new[changedNew.Identity.Key()] = changedNew

	addedPub := fp("fresh", nil)
	new[addedPub.Identity.Key()] = addedPub

	addedPriv := fp("_internal", nil)
	new[addedPriv.Identity.Key()] = addedPriv

	removed := fp("legacy", nil)
	old[removed.Identity.Key()] = removed

	events := Classify(old, new)
	byName := map[string]models.ChangeEvent{}
	for _, ev := range events {
		byName[ev.Function] = ev
	}
	require.Len(t, events, 5)

	require.Equal(t, models.EventUnchanged, byName["stable"].Kind)
	require.Equal(t, 0, byName["stable"].Score)

	require.Equal(t, models.EventModified, byName["changed"].Kind)
	require.Equal(t, 3, byName["changed"].Score)

	require.Equal(t, models.EventAdded, byName["fresh"].Kind)
	require.Equal(t, 5, byName["fresh"].Score)
	require.True(t, byName["fresh"].Critical)

	require.Equal(t, models.EventAdded, byName["_internal"].Kind)
	require.Equal(t, 0, byName["_internal"].Score)
	require.False(t, byName["_internal"].Critical)

	require.Equal(t, models.EventRemoved, byName["legacy"].Kind)
	require.Equal(t, 5, byName["legacy"].Score)
	require.True(t, byName["legacy"].Critical)
}

func TestClassifySortsByKey(t *testing.T) {
	old := map[string]fingerprint.Fingerprint{}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		f := fp(name, nil)
		old[f.Identity.Key()] = f
	}

	events := Classify(old, map[string]fingerprint.Fingerprint{})
	require.Equal(t, []string{"alpha", "mid", "zeta"},
		[]string{events[0].Function, events[1].Function, events[2].Function})
}

func TestApplySeverity(t *testing.T) {
	events := []models.ChangeEvent{
		{Score: 0, Critical: false},
		{Score: 3, Critical: false},
		{Score: 4, Critical: false},
		{Score: 1, Critical: true},
	}
	ApplySeverity(events, 4)

	want := []models.Severity{
		models.SeverityLow,
		models.SeverityLow,
		models.SeverityMedium,
		models.SeverityHigh,
	}
	for i, ev := range events {
		if ev.Severity != want[i] {
			t.Errorf("event %d severity = %s, want %s", i, ev.Severity, want[i])
		}
	}
}

func TestSubstantial(t *testing.T) {
	if Substantial(models.ChangeEvent{Score: 3}, 4) {
		t.Error("score 3 should not be substantial at threshold 4")
	}
	if !Substantial(models.ChangeEvent{Score: 4}, 4) {
		t.Error("score 4 should be substantial at threshold 4")
	}
	if !Substantial(models.ChangeEvent{Score: 1, Critical: true}, 4) {
		t.Error("critical events are always substantial")
	}
}
