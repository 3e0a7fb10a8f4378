// Package alerts maps change events onto documentation files and decides
// which docs need review.
package alerts

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/models"
)

// Mapping associates a documentation file with the code path globs it
// documents.
type Mapping struct {
	DocPath  string
	Patterns []string
}

// Evaluate walks every doc mapping, accumulates the events whose file
// matches any of the doc's patterns, and flags the doc when the total
// score reaches the threshold or any matched event is critical.
//
// An event is counted at most once per doc even when several patterns
// match it. Unchanged events never contribute. Alerts come back sorted by
// doc path.
func Evaluate(events []models.ChangeEvent, mappings []Mapping, threshold int) []models.DocAlert {
	var alerts []models.DocAlert

	for _, mapping := range mappings {
		matched := matchEvents(events, mapping.Patterns)
		if len(matched) == 0 {
			continue
		}

		total := 0
		critical := false
		for _, ev := range matched {
			total += ev.Score
			critical = critical || ev.Critical
		}
		if total < threshold && !critical {
			continue
		}

		alerts = append(alerts, buildAlert(mapping.DocPath, matched, total, critical))
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].DocPath < alerts[j].DocPath
	})
	return alerts
}

func matchEvents(events []models.ChangeEvent, patterns []string) []models.ChangeEvent {
	var matched []models.ChangeEvent
	for _, ev := range events {
		if ev.Kind == models.EventUnchanged {
			continue
		}
		if matchesAny(ev.File, patterns) {
			matched = append(matched, ev)
		}
	}
	return matched
}

func matchesAny(file string, patterns []string) bool {
	path := fingerprint.NormalizePath(file)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(fingerprint.NormalizePath(pattern), path)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func buildAlert(docPath string, matched []models.ChangeEvent, total int, critical bool) models.DocAlert {
	alert := models.DocAlert{
		DocPath:         docPath,
		CumulativeScore: total,
		CriticalFound:   critical,
		Reasons:         []string{},
	}

	seenReason := map[string]bool{}
	seenFunc := map[string]bool{}
	for _, ev := range matched {
		if !seenFunc[ev.Function] {
			seenFunc[ev.Function] = true
			alert.Functions = append(alert.Functions, ev.Function)
		}
		for _, reason := range ev.Reasons {
			if !seenReason[reason] {
				seenReason[reason] = true
				alert.Reasons = append(alert.Reasons, reason)
			}
			alert.Contributing = append(alert.Contributing, models.Contribution{
				Function: ev.Function,
				Reason:   reason,
			})
		}
	}

	noun := "changes"
	if len(matched) == 1 {
		noun = "change"
	}
	alert.Message = fmt.Sprintf("%d %s (score %d) may affect %s", len(matched), noun, total, docPath)
	if critical {
		alert.Message += " [critical]"
	}
	return alert
}
