package detect

import (
	regexp "github.com/wasilibs/go-re2"

	"github.com/boshu2/taskguard/internal/finding"
)

// placeholderRe matches a value that is entirely a bracketed interpolation.
var placeholderRe = regexp.MustCompile(`^(?:\$\{[^}]+\}|\{\{[^}]+\}\}|<[^<>]+>|%[A-Za-z0-9_]+%)$`)

// IsPlaceholder reports whether value is a template placeholder rather than
// a literal credential. A bare $NAME is not a placeholder.
func IsPlaceholder(value string) bool {
	return placeholderRe.MatchString(value)
}

// Span is a secret located by a SpanSource.
type Span struct {
	Line  int // 0-based line index within the scanned text
	Start int // byte offsets within the line
	End   int
	Rule  string
}

// SpanSource locates secrets with an engine other than the rule table.
// Its spans are folded into the secret detector's per-line findings.
type SpanSource interface {
	Name() string
	Spans(text string) []Span
}

// SecretDetector reports lines holding hardcoded credentials.
type SecretDetector struct {
	rules   []SecretRule
	sources []SpanSource
}

// NewSecretDetector builds a detector over rules and optional span sources.
func NewSecretDetector(rules []SecretRule, sources ...SpanSource) *SecretDetector {
	return &SecretDetector{rules: rules, sources: sources}
}

// Name implements Detector.
func (d *SecretDetector) Name() string { return DetectorSecrets }

// lineHit is what the rules found on one line.
type lineHit struct {
	rule  string
	desc  string
	spans []span
}

// matchLine applies the rule table to one line.
func (d *SecretDetector) matchLine(line string) (lineHit, bool) {
	var hit lineHit
	found := false
	for _, r := range d.rules {
		for _, m := range r.Pattern.FindAllStringSubmatchIndex(line, -1) {
			s, ok := secretSpan(r, line, m)
			if !ok {
				continue
			}
			if !found {
				hit.rule, hit.desc = r.ID, r.Description
				found = true
			}
			if s.end > s.start {
				hit.spans = append(hit.spans, s)
			}
		}
	}
	return hit, found
}

// secretSpan resolves the span to mask for one match. It returns false when
// the match is exempt.
func secretSpan(r SecretRule, line string, m []int) (span, bool) {
	if r.ValueGroup < 0 {
		return span{}, true
	}
	g := r.ValueGroup
	if 2*g+1 >= len(m) || m[2*g] < 0 {
		g = 0
	}
	s := span{start: m[2*g], end: m[2*g+1]}
	if r.Placeholder && IsPlaceholder(line[s.start:s.end]) {
		return span{}, false
	}
	return s, true
}

// Detect implements Detector. Each offending line yields exactly one
// Critical finding whose excerpt has every secret span masked.
func (d *SecretDetector) Detect(text string) []finding.Finding {
	lines := splitLines(text)
	extra := d.sourceSpans(text)

	var out []finding.Finding
	for i, line := range lines {
		hit, found := d.matchLine(line)
		for _, s := range extra[i] {
			if !found {
				hit.rule, hit.desc = s.Rule, s.Rule
				found = true
			}
			hit.spans = append(hit.spans, span{s.Start, s.End})
		}
		if !found {
			continue
		}
		out = append(out, finding.New(
			finding.KindHardcodedSecret,
			finding.SeverityCritical,
			finding.AtLine(i+1),
			hit.rule,
			"possible hardcoded secret: "+hit.desc,
			maskSpans(line, hit.spans),
		))
	}
	return out
}

// Redact masks every secret the detector can find on a single line. Other
// detectors pass their excerpts through it.
func (d *SecretDetector) Redact(line string) string {
	hit, _ := d.matchLine(line)
	for _, s := range d.sourceSpans(line)[0] {
		hit.spans = append(hit.spans, span{s.Start, s.End})
	}
	return maskSpans(line, hit.spans)
}

func (d *SecretDetector) sourceSpans(text string) map[int][]Span {
	byLine := make(map[int][]Span)
	for _, src := range d.sources {
		for _, s := range src.Spans(text) {
			byLine[s.Line] = append(byLine[s.Line], s)
		}
	}
	return byLine
}
