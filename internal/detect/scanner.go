package detect

import (
	"unicode/utf8"

	"github.com/boshu2/taskguard/internal/finding"
)

// Detector names.
const (
	DetectorSecrets     = "secrets"
	DetectorInjection   = "injection"
	DetectorDestructive = "destructive"
)

// Detector is one independent check over document text. Line numbers in the
// returned findings are 1-based and relative to text.
type Detector interface {
	Name() string
	Detect(text string) []finding.Finding
}

type options struct {
	sources   []SpanSource
	detectors []Detector
}

// Option configures a Scanner.
type Option func(*options)

// WithSpanSource folds an extra secret engine into the secret detector.
func WithSpanSource(src SpanSource) Option {
	return func(o *options) { o.sources = append(o.sources, src) }
}

// WithDetector appends a detector after the built-in ones.
func WithDetector(d Detector) Option {
	return func(o *options) { o.detectors = append(o.detectors, d) }
}

// Scanner runs every detector over a text and concatenates their findings.
type Scanner struct {
	version   string
	secrets   *SecretDetector
	detectors []Detector
}

// NewScanner builds a scanner for rs. A nil ruleset selects DefaultRuleset.
func NewScanner(rs *Ruleset, opts ...Option) *Scanner {
	if rs == nil {
		rs = DefaultRuleset()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	version := rs.Version
	for _, src := range o.sources {
		version += "+" + src.Name()
	}

	secrets := NewSecretDetector(rs.Secrets, o.sources...)
	detectors := []Detector{
		secrets,
		NewInjectionDetector(rs.Injections, secrets.Redact),
		NewDestructiveDetector(rs.Destructive, rs.Escalation, secrets.Redact),
	}
	detectors = append(detectors, o.detectors...)

	return &Scanner{version: version, secrets: secrets, detectors: detectors}
}

// Version identifies the rules the scanner applies.
func (s *Scanner) Version() string { return s.version }

// Detectors lists detector names in run order.
func (s *Scanner) Detectors() []string {
	names := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		names[i] = d.Name()
	}
	return names
}

// Scan runs every detector over a document body whose first line sits at
// file line firstLine.
func (s *Scanner) Scan(text string, firstLine int) []finding.Finding {
	if firstLine < 1 {
		firstLine = 1
	}
	var out []finding.Finding
	for _, d := range s.detectors {
		for _, f := range d.Detect(text) {
			out = append(out, f.ShiftLines(firstLine-1))
		}
	}
	return out
}

// ScanSibling runs the secret detector over a file stored next to the
// document. Findings are located in that file.
func (s *Scanner) ScanSibling(name, text string) []finding.Finding {
	found := s.secrets.Detect(text)
	out := make([]finding.Finding, len(found))
	for i, f := range found {
		out[i] = f.InFile(name)
	}
	return out
}

// Redact masks every secret the scanner recognizes on line.
func (s *Scanner) Redact(line string) string {
	return s.secrets.Redact(line)
}

// IsText reports whether data looks like text worth scanning.
func IsText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(data)
}
