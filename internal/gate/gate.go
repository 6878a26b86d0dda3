// Package gate combines findings into per-document reports with a pass/fail
// decision, and reports into a run summary.
package gate

import (
	"sort"

	"github.com/boshu2/taskguard/internal/finding"
)

// DefaultThreshold is the severity at which a document fails when no
// threshold is configured.
const DefaultThreshold = finding.SeverityCritical

// Report is the result for one document. It is built once by Aggregate and
// not modified afterwards.
type Report struct {
	DocumentID string            `json:"document_id" yaml:"document_id"`
	Findings   []finding.Finding `json:"findings" yaml:"findings"`
	Passed     bool              `json:"passed" yaml:"passed"`
}

// Counts tallies findings by severity.
type Counts struct {
	Critical int `json:"critical" yaml:"critical"`
	Warning  int `json:"warning" yaml:"warning"`
	Info     int `json:"info" yaml:"info"`
}

// Add records one finding of severity s.
func (c *Counts) Add(s finding.Severity) {
	switch s {
	case finding.SeverityCritical:
		c.Critical++
	case finding.SeverityWarning:
		c.Warning++
	default:
		c.Info++
	}
}

// Total is the number of findings counted.
func (c Counts) Total() int { return c.Critical + c.Warning + c.Info }

// Aggregate builds the report for one document. The findings are copied and
// put in their canonical order; the caller's slice is left untouched. The
// document fails when any finding is at or above threshold.
func Aggregate(documentID string, findings []finding.Finding, threshold finding.Severity) Report {
	sorted := Sort(findings)
	passed := true
	for _, f := range sorted {
		if f.Severity.AtLeast(threshold) {
			passed = false
			break
		}
	}
	return Report{DocumentID: documentID, Findings: sorted, Passed: passed}
}

// Counts tallies the report's findings by severity.
func (r Report) Counts() Counts {
	var c Counts
	for _, f := range r.Findings {
		c.Add(f.Severity)
	}
	return c
}

// Sort returns a copy of findings in canonical order: document-level
// findings first by section name, then task document lines before sibling
// files (by name), then by line, kind order, rule and excerpt.
func Sort(findings []finding.Finding) []finding.Finding {
	out := make([]finding.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Less reports whether a sorts before b in canonical order.
func Less(a, b finding.Finding) bool {
	la, lb := a.Location, b.Location
	if da, db := documentLevel(la), documentLevel(lb); da != db {
		return da
	}
	if la.File != lb.File {
		return la.File < lb.File
	}
	if la.Line != lb.Line {
		return la.Line < lb.Line
	}
	if la.Section != lb.Section {
		return la.Section < lb.Section
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	if a.Excerpt != b.Excerpt {
		return a.Excerpt < b.Excerpt
	}
	return a.Message < b.Message
}

func documentLevel(l finding.Location) bool {
	return l.File == "" && l.Line == 0
}
