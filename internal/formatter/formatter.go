// Package formatter renders scan runs for terminals, pull requests and code
// scanning tools.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/boshu2/taskguard/internal/finding"
	"github.com/boshu2/taskguard/internal/gate"
	"github.com/boshu2/taskguard/internal/task"
)

// Output formats accepted by Render.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatSARIF    = "sarif"
)

// ErrUnknownFormat is returned for an output format Render does not know.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML, FormatMarkdown, FormatSARIF}
}

// Render writes run to w in the named format.
func Render(w io.Writer, format string, run gate.Run) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return Text(w, run)
	case FormatJSON:
		return JSON(w, run)
	case FormatYAML:
		return YAML(w, run)
	case FormatMarkdown, "md":
		return Markdown(w, run)
	case FormatSARIF:
		return SARIF(w, run)
	default:
		return fmt.Errorf("%w: %q (want %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// ArtifactPath is the slash-separated path of the file a finding points at:
// the task document, or the sibling file named in its location.
func ArtifactPath(root, documentID string, loc finding.Location) string {
	name := task.FileName
	if loc.File != "" {
		name = loc.File
	}
	return path.Join(filepath.ToSlash(root), documentID, name)
}

func status(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
