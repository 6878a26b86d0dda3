package task

import (
	"regexp"
	"strings"
)

// Reference schemes recognized in the References section.
const (
	SchemeFile    = "file"
	SchemeGitFile = "git+file"
	SchemeHTTP    = "http"
	SchemeHTTPS   = "https"
)

// Section markers in the document body.
const (
	PromptMarker     = "**Prompt:**"
	ReferencesMarker = "**References:**"
)

// Reference is one entry of the References section.
type Reference struct {
	Scheme string `json:"scheme" yaml:"scheme"`
	Target string `json:"target" yaml:"target"`
	// Line is the file line the reference appears on.
	Line int `json:"line" yaml:"line"`
}

// Local reports whether the reference points at a file in the task folder.
func (r Reference) Local() bool {
	return r.Scheme == SchemeFile || r.Scheme == SchemeGitFile
}

var (
	referenceRe    = regexp.MustCompile("(git\\+file|file|https?)://([^\\s)<>\\]\"'`]+)")
	sectionLabelRe = regexp.MustCompile(`^\s*\*\*[^*]+:\*\*`)
	headingRe      = regexp.MustCompile(`^\s{0,3}#{1,6}\s`)
)

// ParseReferences collects the references listed in the References section
// of body. firstLine is the file line of the first body line.
func ParseReferences(body string, firstLine int) []Reference {
	var refs []Reference
	inSection := false

	for i, line := range strings.Split(body, "\n") {
		switch {
		case strings.Contains(line, ReferencesMarker):
			inSection = true
			line = line[strings.Index(line, ReferencesMarker)+len(ReferencesMarker):]
		case inSection && (sectionLabelRe.MatchString(line) || headingRe.MatchString(line)):
			inSection = false
		}
		if !inSection {
			continue
		}

		for _, m := range referenceRe.FindAllStringSubmatch(line, -1) {
			ref := Reference{Scheme: m[1], Target: m[2], Line: firstLine + i}
			if ref.Local() {
				ref.Target = strings.TrimLeft(ref.Target, "/")
			} else {
				ref.Target = m[0]
			}
			refs = append(refs, ref)
		}
	}
	return refs
}
