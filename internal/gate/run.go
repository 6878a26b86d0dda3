package gate

import (
	"sort"

	"github.com/boshu2/taskguard/internal/finding"
)

// Summary describes a whole run.
type Summary struct {
	Scanned        int              `json:"scanned" yaml:"scanned"`
	Passed         int              `json:"passed" yaml:"passed"`
	Failed         int              `json:"failed" yaml:"failed"`
	Failing        []string         `json:"failing" yaml:"failing"`
	Skipped        []string         `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Threshold      finding.Severity `json:"threshold" yaml:"threshold"`
	RulesetVersion string           `json:"ruleset_version" yaml:"ruleset_version"`
	Counts         Counts           `json:"counts" yaml:"counts"`
}

// Run is the report for a whole run: every document report ordered by id,
// plus the summary used for the exit status.
type Run struct {
	Root    string   `json:"root" yaml:"root"`
	Reports []Report `json:"reports" yaml:"reports"`
	Summary Summary  `json:"summary" yaml:"summary"`
}

// OK reports whether every scanned document passed and none was skipped.
func (r Run) OK() bool {
	return r.Summary.Failed == 0 && len(r.Summary.Skipped) == 0
}

// Failing returns the reports of failed documents in run order.
func (r Run) Failing() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if !rep.Passed {
			out = append(out, rep)
		}
	}
	return out
}

// Summarize orders reports by document id and summarizes them. skipped lists
// documents that were discovered but not scanned.
func Summarize(root string, reports []Report, skipped []string, threshold finding.Severity, rulesetVersion string) Run {
	ordered := make([]Report, len(reports))
	copy(ordered, reports)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].DocumentID < ordered[j].DocumentID })

	s := Summary{
		Scanned:        len(ordered),
		Failing:        []string{},
		Threshold:      threshold,
		RulesetVersion: rulesetVersion,
	}
	for _, rep := range ordered {
		if rep.Passed {
			s.Passed++
		} else {
			s.Failed++
			s.Failing = append(s.Failing, rep.DocumentID)
		}
		for _, f := range rep.Findings {
			s.Counts.Add(f.Severity)
		}
	}
	if len(skipped) > 0 {
		s.Skipped = append([]string(nil), skipped...)
		sort.Strings(s.Skipped)
	}
	return Run{Root: root, Reports: ordered, Summary: s}
}
