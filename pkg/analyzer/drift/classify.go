package drift

import (
	"sort"

	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/models"
)

// Classify turns two fingerprint sets for the same scope into change
// events, one per function in the union of keys. Events come back sorted
// by function key so output is stable across runs.
//
// Unchanged functions produce events too, with a zero score; downstream
// consumers that only care about drift skip them.
func Classify(old, new map[string]fingerprint.Fingerprint) []models.ChangeEvent {
	keys := make([]string, 0, len(old)+len(new))
	seen := make(map[string]bool, len(old)+len(new))
	for k := range old {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range new {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	events := make([]models.ChangeEvent, 0, len(keys))
	for _, key := range keys {
		oldFP, inOld := old[key]
		newFP, inNew := new[key]

		switch {
		case inOld && inNew:
			events = append(events, classifyPair(oldFP, newFP))
		case inNew:
			events = append(events, presenceEvent(newFP, models.EventAdded, "function added"))
		default:
			events = append(events, presenceEvent(oldFP, models.EventRemoved, "function removed"))
		}
	}
	return events
}

func classifyPair(old, new fingerprint.Fingerprint) models.ChangeEvent {
	event := models.ChangeEvent{
		Function: functionLabel(new.Identity),
		File:     new.Identity.File,
	}

	// Aggregate digest equality short-circuits the per-view diff.
	if old.Digests.Aggregate == new.Digests.Aggregate {
		event.Kind = models.EventUnchanged
		return event
	}

	result := Score(Diff(old, new))
	event.Kind = models.EventModified
	event.Score = result.Score
	event.Critical = result.Critical
	event.Reasons = result.Reasons
	return event
}

// presenceEvent builds the event for a function that exists on only one
// side. Appearing or disappearing public API is weighted like a public
// signature change; private functions come and go for free.
func presenceEvent(fp fingerprint.Fingerprint, kind models.EventKind, verb string) models.ChangeEvent {
	event := models.ChangeEvent{
		Function: functionLabel(fp.Identity),
		File:     fp.Identity.File,
		Kind:     kind,
	}
	if fp.Public {
		event.Score = weightSignature
		event.Critical = true
		event.Reasons = []string{verb + " (public API)"}
	} else {
		event.Reasons = []string{verb}
	}
	return event
}

func functionLabel(id fingerprint.Identity) string {
	if id.Qualifier != "" {
		return id.Qualifier + "." + id.Name
	}
	return id.Name
}

// ApplySeverity fills in the severity of each event from its score and
// critical flag. Critical is always high; at or above the substantial
// threshold is medium; everything else, unchanged included, is low.
func ApplySeverity(events []models.ChangeEvent, substantialThreshold int) {
	for i := range events {
		events[i].Severity = severityFor(events[i].Score, events[i].Critical, substantialThreshold)
	}
}

func severityFor(score int, critical bool, threshold int) models.Severity {
	switch {
	case critical:
		return models.SeverityHigh
	case score >= threshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Substantial reports whether an event is worth surfacing on its own:
// critical, or scored at or above the threshold.
func Substantial(event models.ChangeEvent, threshold int) bool {
	return event.Critical || event.Score >= threshold
}
