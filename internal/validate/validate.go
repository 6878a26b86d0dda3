// Package validate checks task documents against the required-shape
// contract: frontmatter fields, folder naming, body sections and local
// references. Every check is independent and returns all of its findings.
package validate

import (
	"regexp"
	"strings"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/task"
)

// Rule identifiers reported by this package.
const (
	RuleFrontmatter   = "frontmatter-syntax"
	RuleRequiredField = "required-field"
	RuleTaskType      = "task-type"
	RuleIDFormat      = "id-format"
	RuleIDFolder      = "id-folder-match"
	RulePrompt        = "prompt-section"
	RuleReferences    = "references-section"
	RuleDangling      = "dangling-reference"
)

// SectionFrontmatter is the location used for header-level findings.
const SectionFrontmatter = "frontmatter"

var idRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Document runs every structural check on doc.
func Document(doc *task.Document) []finding.Finding {
	var findings []finding.Finding
	findings = append(findings, RequiredFields(doc.Header)...)
	findings = append(findings, FolderMatch(doc.Header, doc.Folder)...)
	findings = append(findings, Sections(doc.Body)...)
	findings = append(findings, References(doc.References, doc.Siblings)...)
	return findings
}

// Frontmatter converts an extraction failure into its finding.
func Frontmatter(err *task.FrontmatterError) finding.Finding {
	return finding.New(finding.KindMalformedFrontmatter, finding.SeverityCritical,
		finding.AtLine(err.Line), RuleFrontmatter,
		"frontmatter could not be parsed: "+err.Reason, "")
}

// RequiredFields checks that id, name and type are present and that type is
// the recognized task type.
func RequiredFields(h task.Header) []finding.Finding {
	var findings []finding.Finding
	fields := []struct {
		key   string
		value string
	}{
		{"id", h.ID},
		{"name", h.Name},
		{"type", h.Type},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			continue
		}
		msg := "frontmatter field " + f.key + " is missing"
		if h.Has(f.key) {
			msg = "frontmatter field " + f.key + " is empty"
		}
		findings = append(findings, finding.New(finding.KindMalformedFrontmatter, finding.SeverityCritical,
			finding.InSection(SectionFrontmatter), RuleRequiredField, msg, f.key+":"))
	}

	if t := strings.TrimSpace(h.Type); t != "" && t != task.TypeTask {
		findings = append(findings, finding.New(finding.KindMalformedFrontmatter, finding.SeverityCritical,
			finding.InSection(SectionFrontmatter), RuleTaskType,
			"frontmatter type must be "+task.TypeTask, "type: "+t))
	}
	return findings
}

// FolderMatch checks that the id equals the owning folder's name exactly and
// is lowercase-hyphenated.
func FolderMatch(h task.Header, folder string) []finding.Finding {
	id := strings.TrimSpace(h.ID)
	if id == "" {
		return nil
	}

	var findings []finding.Finding
	if !idRe.MatchString(id) {
		findings = append(findings, finding.New(finding.KindMalformedFrontmatter, finding.SeverityWarning,
			finding.InSection(SectionFrontmatter), RuleIDFormat,
			"id should be lowercase letters, digits and single hyphens", "id: "+id))
	}
	if id != folder {
		findings = append(findings, finding.New(finding.KindMalformedFrontmatter, finding.SeverityWarning,
			finding.InSection(SectionFrontmatter), RuleIDFolder,
			"id does not match folder name "+folder, "id: "+id))
	}
	return findings
}

// Sections checks for the required Prompt marker and the recommended
// References marker.
func Sections(body string) []finding.Finding {
	var findings []finding.Finding
	if !strings.Contains(body, task.PromptMarker) {
		findings = append(findings, finding.New(finding.KindMissingSection, finding.SeverityCritical,
			finding.InSection("prompt"), RulePrompt, "required "+task.PromptMarker+" section is missing", ""))
	}
	if !strings.Contains(body, task.ReferencesMarker) {
		findings = append(findings, finding.New(finding.KindMissingSection, finding.SeverityInfo,
			finding.InSection("references"), RuleReferences, "recommended "+task.ReferencesMarker+" section is missing", ""))
	}
	return findings
}

// References checks that every file and git+file reference names a file
// next to the document. Remote references are not resolved.
func References(refs []task.Reference, siblings []string) []finding.Finding {
	present := make(map[string]bool, len(siblings))
	for _, s := range siblings {
		present[s] = true
	}

	var findings []finding.Finding
	for _, r := range refs {
		if !r.Local() || present[r.Target] {
			continue
		}
		findings = append(findings, finding.New(finding.KindDanglingReference, finding.SeverityWarning,
			finding.AtLine(r.Line), RuleDangling,
			"referenced file "+r.Target+" does not exist in the task folder", r.Scheme+":///"+r.Target))
	}
	return findings
}
