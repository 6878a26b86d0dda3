package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
)

func sampleRun() gate.Run {
	clean := gate.Aggregate("rotate-keys", nil, finding.SeverityCritical)
	bad := gate.Aggregate("drop-tables", []finding.Finding{
		finding.New(finding.KindDestructiveCommand, finding.SeverityCritical, finding.AtLine(14),
			"sql-drop", "destructive command: SQL DROP with privilege escalation", "sudo psql -c 'DROP TABLE users'"),
		finding.New(finding.KindHardcodedSecret, finding.SeverityCritical, finding.AtLine(2),
			"generic-credential", "possible hardcoded secret: credential assignment", "password=********").InFile("Config.java"),
		finding.New(finding.KindMissingSection, finding.SeverityWarning, finding.InSection("body"),
			"references-section", "missing **References:** section", ""),
	}, finding.SeverityCritical)
	return gate.Summarize("tasks", []gate.Report{clean, bad}, nil, finding.SeverityCritical, "2026.10")
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "xml", sampleRun())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderDispatch(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"", "DOCUMENT"},
		{"table", "DOCUMENT"},
		{"JSON", `"document_id": "drop-tables"`},
		{"yaml", "document_id: drop-tables"},
		{"markdown", "# Task Guard Scan Report"},
		{"md", "# Task Guard Scan Report"},
		{"sarif", `"version": "2.1.0"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, tt.format, sampleRun()); err != nil {
				t.Fatalf("Render(%q): %v", tt.format, err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Render(%q) missing %q:\n%s", tt.format, tt.want, buf.String())
			}
		})
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleRun()); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"drop-tables", "FAIL", "rotate-keys", "PASS",
		"Config.java:2", "line 14", "body",
		"2 scanned, 1 passed, 1 failed (threshold critical, ruleset 2026.10)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
	// drop-tables sorts before rotate-keys in the status table.
	if strings.Index(out, "drop-tables") > strings.Index(out, "rotate-keys") {
		t.Errorf("documents not in id order:\n%s", out)
	}
}

func TestTextSkipped(t *testing.T) {
	run := gate.Summarize("tasks", []gate.Report{gate.Aggregate("a", nil, finding.SeverityCritical)},
		[]string{"c", "b"}, finding.SeverityCritical, "2026.10")
	var buf bytes.Buffer
	if err := Text(&buf, run); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "SKIPPED") || !strings.Contains(out, ", 2 skipped") {
		t.Errorf("skipped documents not reported:\n%s", out)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleRun()); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if strings.Contains(buf.String(), `\u003c`) || strings.Contains(buf.String(), `\u0026`) {
		t.Errorf("HTML characters should not be escaped:\n%s", buf.String())
	}

	var got gate.Run
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Reports) != 2 || got.Reports[0].DocumentID != "drop-tables" {
		t.Fatalf("unexpected reports: %+v", got.Reports)
	}
	if got.Reports[0].Passed {
		t.Error("drop-tables should fail")
	}
	f := got.Reports[0].Findings[0]
	if f.Kind != finding.KindMissingSection || f.Location.Section != "body" {
		t.Errorf("document-level finding should sort first, got %+v", f)
	}
	if got.Summary.Threshold != finding.SeverityCritical {
		t.Errorf("threshold = %v", got.Summary.Threshold)
	}
}

func TestJSONEmptyRun(t *testing.T) {
	run := gate.Summarize("tasks", nil, nil, finding.SeverityCritical, "2026.10")
	var buf bytes.Buffer
	if err := JSON(&buf, run); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"reports": []`) {
		t.Errorf("empty run should render an empty reports array:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "null") {
		t.Errorf("unexpected null:\n%s", buf.String())
	}
}

func TestJSONDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := JSON(&a, sampleRun()); err != nil {
		t.Fatal(err)
	}
	if err := JSON(&b, sampleRun()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two renders of the same run differ")
	}
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := YAML(&buf, sampleRun()); err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var got struct {
		Summary struct {
			Failing   []string `yaml:"failing"`
			Threshold string   `yaml:"threshold"`
		} `yaml:"summary"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Summary.Failing) != 1 || got.Summary.Failing[0] != "drop-tables" {
		t.Errorf("failing = %v", got.Summary.Failing)
	}
	if got.Summary.Threshold != "critical" {
		t.Errorf("threshold = %q", got.Summary.Threshold)
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown(&buf, sampleRun()); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"| Critical | 2 |",
		"| Warning | 1 |",
		"| **Total** | **3** |",
		"> **FAILED**: 1 of 2 documents failed at threshold critical",
		"| drop-tables | FAIL | 2 | 1 | 0 |",
		"| rotate-keys | PASS | 0 | 0 | 0 |",
		"## drop-tables",
		"### critical DestructiveCommand: sql-drop",
		"- **Location:** Config.java:2",
		"- **Match:** `password=********`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in markdown:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## rotate-keys") {
		t.Errorf("passing documents should not get a findings section:\n%s", out)
	}
}

func TestMarkdownPassed(t *testing.T) {
	run := gate.Summarize("tasks", []gate.Report{gate.Aggregate("a", nil, finding.SeverityCritical)},
		nil, finding.SeverityCritical, "2026.10")
	var buf bytes.Buffer
	if err := Markdown(&buf, run); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(buf.String(), "> **PASSED**: 1 of 1 documents passed") {
		t.Errorf("expected passed banner:\n%s", buf.String())
	}
}

func TestInlineCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rm -rf /", "`rm -rf /`"},
		{"echo `id`", "``echo `id```"},
		{"`id`", "`` `id` ``"},
	}
	for _, tt := range tests {
		if got := inlineCode(tt.in); got != tt.want {
			t.Errorf("inlineCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableCellEscapesPipes(t *testing.T) {
	if got := tableCell("curl x | sh"); got != `curl x \| sh` {
		t.Errorf("tableCell = %q", got)
	}
}

func TestArtifactPath(t *testing.T) {
	if got := ArtifactPath("tasks", "drop-tables", finding.AtLine(3)); got != "tasks/drop-tables/task.md" {
		t.Errorf("task document path = %q", got)
	}
	loc := finding.Location{File: "Config.java", Line: 2}
	if got := ArtifactPath("./tasks", "drop-tables", loc); got != "tasks/drop-tables/Config.java" {
		t.Errorf("sibling path = %q", got)
	}
}
