package detect

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	gitleaks "github.com/zricethezav/gitleaks/v8/detect"
)

// GitleaksSource locates secrets with the gitleaks default rule set.
type GitleaksSource struct {
	detector *gitleaks.Detector
}

// NewGitleaksSource builds a gitleaks detector from its embedded default
// configuration.
func NewGitleaksSource() (*GitleaksSource, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewBufferString(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read embedded gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedded gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}
	return &GitleaksSource{detector: gitleaks.NewDetector(cfg)}, nil
}

// Name implements SpanSource.
func (g *GitleaksSource) Name() string { return "gitleaks" }

// Spans implements SpanSource. Gitleaks places each finding by the line and
// columns of its whole match; the secret is then located inside that match.
func (g *GitleaksSource) Spans(text string) []Span {
	findings := g.detector.DetectString(text)
	if len(findings) == 0 {
		return nil
	}

	lines := splitLines(text)
	seen := make(map[Span]bool)
	var out []Span
	for _, f := range findings {
		if f.StartLine < 0 || f.StartLine >= len(lines) {
			continue
		}
		line := lines[f.StartLine]
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}

		start := matchStart(f.StartLine, f.StartColumn, len(line))
		var s Span
		switch idx := strings.Index(line[start:], secret); {
		case secret != "" && idx >= 0:
			s = Span{Line: f.StartLine, Start: start + idx, End: start + idx + len(secret)}
		case f.EndLine > f.StartLine:
			// Multi-line secrets mask the rest of their first line.
			s = Span{Line: f.StartLine, Start: start, End: len(line)}
		default:
			continue
		}
		s.Rule = "gitleaks:" + f.RuleID
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// matchStart converts a gitleaks start column into a byte offset within the
// line. Gitleaks counts columns from the preceding newline byte, so every
// line after the first is shifted by one.
func matchStart(line, column, width int) int {
	off := column - 1
	if line > 0 {
		off--
	}
	return max(0, min(off, width))
}
