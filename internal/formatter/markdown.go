package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
)

// markdownData holds everything the markdown template reads.
type markdownData struct {
	Root    string
	Summary gate.Summary
	Reports []gate.Report
	Failing []gate.Report
	OK      bool
}

// Markdown writes run as a markdown report suitable for a pull request
// comment: severity counts, overall status, a document table and the
// findings of every failing document.
func Markdown(w io.Writer, run gate.Run) error {
	tmpl, err := template.New("report").Funcs(markdownFuncs()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return tmpl.Execute(w, markdownData{
		Root:    run.Root,
		Summary: run.Summary,
		Reports: run.Reports,
		Failing: run.Failing(),
		OK:      run.OK(),
	})
}

func markdownFuncs() template.FuncMap {
	return template.FuncMap{
		"status": status,
		"code":   inlineCode,
		"cell":   tableCell,
		"counts": func(rep gate.Report) gate.Counts { return rep.Counts() },
		"where":  func(l finding.Location) string { return l.String() },
	}
}

// inlineCode wraps s in a code span long enough to hold any backticks in s.
func inlineCode(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// tableCell escapes pipes so s stays inside one markdown table cell.
func tableCell(s string) string {
	return strings.ReplaceAll(flatten(s), "|", `\|`)
}

const markdownTemplate = `# Task Guard Scan Report

## Summary

| Severity | Count |
|----------|-------|
| Critical | {{ .Summary.Counts.Critical }} |
| Warning | {{ .Summary.Counts.Warning }} |
| Info | {{ .Summary.Counts.Info }} |
| **Total** | **{{ .Summary.Counts.Total }}** |

{{ if .OK -}}
> **PASSED**: {{ .Summary.Passed }} of {{ .Summary.Scanned }} documents passed at threshold {{ .Summary.Threshold }}
{{- else -}}
> **FAILED**: {{ .Summary.Failed }} of {{ .Summary.Scanned }} documents failed at threshold {{ .Summary.Threshold }}
{{- if .Summary.Skipped }}, {{ len .Summary.Skipped }} skipped{{ end }}
{{- end }}

Ruleset {{ code .Summary.RulesetVersion }}{{ if .Root }}, task root {{ code .Root }}{{ end }}.
{{- if .Reports }}

## Documents

| Document | Status | Critical | Warning | Info |
|----------|--------|----------|---------|------|
{{- range .Reports }}
{{- $c := counts . }}
| {{ cell .DocumentID }} | {{ status .Passed }} | {{ $c.Critical }} | {{ $c.Warning }} | {{ $c.Info }} |
{{- end }}
{{- end }}
{{- if .Summary.Skipped }}

## Skipped
{{ range .Summary.Skipped }}
- {{ code . }}
{{- end }}
{{- end }}
{{- range .Failing }}

## {{ .DocumentID }}
{{ range .Findings }}
### {{ .Severity }} {{ .Kind }}: {{ .Rule }}
- **Location:** {{ where .Location }}
- **Description:** {{ .Message }}
{{- if .Excerpt }}
- **Match:** {{ code .Excerpt }}
{{- end }}
{{ end }}
{{- end }}
`
