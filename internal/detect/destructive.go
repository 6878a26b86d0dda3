package detect

import (
	"sort"

	"github.com/boshu2/taskguard/internal/finding"
)

// DestructiveDetector reports irreversible commands inside code.
type DestructiveDetector struct {
	rules      []DestructiveRule
	escalation []EscalationRule
	redact     func(string) string
}

// NewDestructiveDetector builds a detector over rules. A block containing an
// escalation phrase raises its findings to Critical.
func NewDestructiveDetector(rules []DestructiveRule, escalation []EscalationRule, redact func(string) string) *DestructiveDetector {
	return &DestructiveDetector{rules: rules, escalation: escalation, redact: redact}
}

// Name implements Detector.
func (d *DestructiveDetector) Name() string { return DetectorDestructive }

type destructiveHit struct {
	rule      DestructiveRule
	source    string
	escalated bool
}

// Detect implements Detector. Only fenced blocks and inline code spans are
// examined. A line holding several matches yields one finding.
func (d *DestructiveDetector) Detect(text string) []finding.Finding {
	hits := make(map[int]*destructiveHit)
	for _, block := range codeBlocks(splitLines(text)) {
		escalated := d.escalated(block)
		for _, cl := range block {
			r, ok := d.match(cl.code)
			if !ok {
				continue
			}
			h, seen := hits[cl.index]
			if !seen {
				hits[cl.index] = &destructiveHit{rule: r, source: cl.source, escalated: escalated}
				continue
			}
			h.escalated = h.escalated || escalated
		}
	}

	lines := make([]int, 0, len(hits))
	for i := range hits {
		lines = append(lines, i)
	}
	sort.Ints(lines)

	out := make([]finding.Finding, 0, len(lines))
	for _, i := range lines {
		h := hits[i]
		sev := finding.SeverityWarning
		msg := "destructive command: " + h.rule.Description
		if h.escalated {
			sev = finding.SeverityCritical
			msg += " with privilege escalation"
		}
		excerpt := h.source
		if d.redact != nil {
			excerpt = d.redact(excerpt)
		}
		out = append(out, finding.New(finding.KindDestructiveCommand, sev, finding.AtLine(i+1), h.rule.ID, msg, excerpt))
	}
	return out
}

func (d *DestructiveDetector) match(code string) (DestructiveRule, bool) {
	for _, r := range d.rules {
		if !r.Pattern.MatchString(code) {
			continue
		}
		if r.Unless != nil && r.Unless.MatchString(code) {
			continue
		}
		return r, true
	}
	return DestructiveRule{}, false
}

func (d *DestructiveDetector) escalated(block codeBlock) bool {
	for _, cl := range block {
		for _, r := range d.escalation {
			if r.Pattern.MatchString(cl.code) {
				return true
			}
		}
	}
	return false
}
