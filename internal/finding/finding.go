// Package finding defines the issue model shared by the validator, the
// pattern scanner and the gate.
package finding

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxExcerptLength bounds the excerpt carried by a finding, in runes.
const MaxExcerptLength = 120

// Severity ranks how serious a finding is. Higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

var severityNames = [...]string{
	SeverityInfo:     "info",
	SeverityWarning:  "warning",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if s < SeverityInfo || s > SeverityCritical {
		return "severity(" + strconv.Itoa(int(s)) + ")"
	}
	return severityNames[s]
}

// AtLeast reports whether s is as severe as threshold or more.
func (s Severity) AtLeast(threshold Severity) bool {
	return s >= threshold
}

// ParseSeverity parses a severity name, ignoring case and surrounding space.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range severityNames {
		if s == n {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("%w: %q (want info, warning or critical)", ErrUnknownSeverity, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Kind identifies which check produced a finding. The declaration order is
// the tie-breaker used when ordering findings on the same location.
type Kind int

const (
	KindHardcodedSecret Kind = iota
	KindPromptInjection
	KindDestructiveCommand
	KindMissingSection
	KindMalformedFrontmatter
	KindDanglingReference
)

var kindNames = [...]string{
	KindHardcodedSecret:      "HardcodedSecret",
	KindPromptInjection:      "PromptInjection",
	KindDestructiveCommand:   "DestructiveCommand",
	KindMissingSection:       "MissingSection",
	KindMalformedFrontmatter: "MalformedFrontmatter",
	KindDanglingReference:    "DanglingReference",
}

func (k Kind) String() string {
	if k < KindHardcodedSecret || k > KindDanglingReference {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if strings.EqualFold(name, string(text)) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, string(text))
}

// Location points at where a finding was raised. File is empty for the task
// document itself and holds a sibling file name otherwise. Section names a
// document-level area (such as "frontmatter") when no single line applies.
type Location struct {
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// AtLine returns a location for a line of the task document.
func AtLine(line int) Location { return Location{Line: line} }

// InSection returns a document-level location.
func InSection(section string) Location { return Location{Section: section} }

func (l Location) String() string {
	var b strings.Builder
	if l.File != "" {
		b.WriteString(l.File)
	}
	if l.Section != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.Section)
	}
	if l.Line > 0 {
		if l.File != "" {
			b.WriteByte(':')
		} else {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("line ")
		}
		b.WriteString(strconv.Itoa(l.Line))
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

// Finding is a single flagged issue. Values are never modified after
// creation; helpers return copies.
type Finding struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Location Location `json:"location" yaml:"location"`
	Rule     string   `json:"rule" yaml:"rule"`
	Message  string   `json:"message" yaml:"message"`
	Excerpt  string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// New builds a finding and bounds its excerpt.
func New(kind Kind, sev Severity, loc Location, rule, message, excerpt string) Finding {
	return Finding{
		Kind:     kind,
		Severity: sev,
		Location: loc,
		Rule:     rule,
		Message:  message,
		Excerpt:  Truncate(strings.TrimSpace(excerpt), MaxExcerptLength),
	}
}

// ShiftLines returns a copy of f with its line moved down by offset lines.
// Document-level findings are returned unchanged.
func (f Finding) ShiftLines(offset int) Finding {
	if f.Location.Line > 0 {
		f.Location.Line += offset
	}
	return f
}

// InFile returns a copy of f located in the named sibling file.
func (f Finding) InFile(name string) Finding {
	f.Location.File = name
	return f
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}
