package detect

import "github.com/boshu2/taskguard/internal/finding"

// InjectionDetector reports lines that try to redirect the agent reading
// the document.
type InjectionDetector struct {
	rules  []InjectionRule
	redact func(string) string
}

// NewInjectionDetector builds a detector over rules. redact, when set, is
// applied to excerpts.
func NewInjectionDetector(rules []InjectionRule, redact func(string) string) *InjectionDetector {
	return &InjectionDetector{rules: rules, redact: redact}
}

// Name implements Detector.
func (d *InjectionDetector) Name() string { return DetectorInjection }

// Detect implements Detector. Matching is per line; the first matching rule
// names the finding.
func (d *InjectionDetector) Detect(text string) []finding.Finding {
	lines := splitLines(text)
	fenced := fencedLines(lines)

	var out []finding.Finding
	for i, line := range lines {
		prose := ""
		for _, r := range d.rules {
			target := line
			if r.OutsideCode {
				if fenced[i] {
					continue
				}
				if prose == "" {
					prose = stripInlineCode(line)
				}
				target = prose
			}
			if !r.Pattern.MatchString(target) {
				continue
			}
			excerpt := line
			if d.redact != nil {
				excerpt = d.redact(line)
			}
			out = append(out, finding.New(
				finding.KindPromptInjection,
				finding.SeverityCritical,
				finding.AtLine(i+1),
				r.ID,
				"prompt injection: "+r.Description,
				excerpt,
			))
			break
		}
	}
	return out
}
