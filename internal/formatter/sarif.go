package formatter

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
)

const (
	toolName = "taskguard"
	toolURI  = "https://github.com/boshu2/taskguard"
)

// SARIF writes run as a SARIF 2.1.0 log with one rule per rule id.
func SARIF(w io.Writer, run gate.Run) error {
	report, err := NewSARIF(run)
	if err != nil {
		return err
	}
	return report.PrettyWrite(w)
}

// NewSARIF builds the SARIF log for run.
func NewSARIF(run gate.Run) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("create SARIF report: %w", err)
	}

	sr := sarif.NewRunWithInformationURI(toolName, toolURI)
	if v := run.Summary.RulesetVersion; v != "" {
		sr.Tool.Driver.Version = &v
	}
	// A rule's default level is the level it was first reported at.
	rules := make(map[string]bool)
	for _, rep := range run.Reports {
		for _, f := range rep.Findings {
			level := sarifLevel(f.Severity)
			id := ruleID(f)
			rule := sr.AddRule(id)
			if !rules[id] {
				rules[id] = true
				rule.WithDescription(f.Kind.String()).
					WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
			}

			physical := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(ArtifactPath(run.Root, rep.DocumentID, f.Location)))
			if f.Location.Line > 0 {
				physical.WithRegion(sarif.NewRegion().WithStartLine(f.Location.Line))
			}

			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(resultMessage(f))).
				WithLevel(level).
				WithLocations([]*sarif.Location{sarif.NewLocation().WithPhysicalLocation(physical)})
			sr.AddResult(result)
		}
	}
	report.AddRun(sr)
	return report, nil
}

func ruleID(f finding.Finding) string {
	if f.Rule != "" {
		return f.Rule
	}
	return f.Kind.String()
}

func resultMessage(f finding.Finding) string {
	if f.Location.Section != "" && f.Location.Line == 0 {
		return f.Message + " (" + f.Location.Section + ")"
	}
	return f.Message
}

func sarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityCritical:
		return "error"
	case finding.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
