package formatter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/boshu2/taskguard/internal/gate"
)

const (
	maxMessageWidth = 60
	maxExcerptWidth = 48
)

// Text writes a per-document status table, the findings of every document
// that has any, and a one-line summary.
func Text(w io.Writer, run gate.Run) error {
	docs := NewTable(w, "DOCUMENT", "STATUS", "CRITICAL", "WARNING", "INFO")
	for _, rep := range run.Reports {
		c := rep.Counts()
		docs.AddRow(rep.DocumentID, status(rep.Passed),
			strconv.Itoa(c.Critical), strconv.Itoa(c.Warning), strconv.Itoa(c.Info))
	}
	for _, id := range run.Summary.Skipped {
		docs.AddRow(id, "SKIPPED")
	}
	if err := docs.Render(); err != nil {
		return err
	}

	for _, rep := range run.Reports {
		if len(rep.Findings) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", rep.DocumentID); err != nil {
			return err
		}
		tbl := NewTable(w, "SEVERITY", "LOCATION", "KIND", "RULE", "MESSAGE", "EXCERPT")
		tbl.SetMaxWidth(4, maxMessageWidth).SetMaxWidth(5, maxExcerptWidth)
		for _, f := range rep.Findings {
			tbl.AddRow(f.Severity.String(), f.Location.String(), f.Kind.String(), f.Rule, f.Message, f.Excerpt)
		}
		if err := tbl.Render(); err != nil {
			return err
		}
	}

	s := run.Summary
	_, err := fmt.Fprintf(w, "\n%d scanned, %d passed, %d failed", s.Scanned, s.Passed, s.Failed)
	if err != nil {
		return err
	}
	if len(s.Skipped) > 0 {
		if _, err := fmt.Fprintf(w, ", %d skipped", len(s.Skipped)); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, " (threshold %s, ruleset %s)\n", s.Threshold, s.RulesetVersion)
	return err
}
