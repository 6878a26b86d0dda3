package formatter

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
)

// JSON writes run as indented JSON. Excerpts keep < > & unescaped.
func JSON(w io.Writer, run gate.Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(normalize(run))
}

// YAML writes run as a YAML document.
func YAML(w io.Writer, run gate.Run) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(normalize(run)); err != nil {
		return err
	}
	return encoder.Close()
}

// normalize replaces nil slices so an empty run renders as [] rather than
// null.
func normalize(run gate.Run) gate.Run {
	if run.Reports == nil {
		run.Reports = []gate.Report{}
	}
	reports := make([]gate.Report, len(run.Reports))
	for i, rep := range run.Reports {
		if rep.Findings == nil {
			rep.Findings = []finding.Finding{}
		}
		reports[i] = rep
	}
	run.Reports = reports
	if run.Summary.Failing == nil {
		run.Summary.Failing = []string{}
	}
	return run
}
