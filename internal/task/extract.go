package task

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the frontmatter block.
const Delimiter = "---"

// FrontmatterLine is the file line of the first frontmatter line.
const FrontmatterLine = 2

var headerLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)[ \t]*:(.*)$`)

// Extract splits raw document text into header and body. On failure it still
// returns a Document whose Body is the best text available for scanning: the
// text after the closing delimiter when one exists, the whole input otherwise.
// The error is a *FrontmatterError.
func Extract(raw string) (*Document, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	whole := &Document{Body: text, BodyLine: 1}

	if strings.TrimSpace(lines[0]) != Delimiter {
		return whole, &FrontmatterError{Line: 1, Reason: "document must start with a " + Delimiter + " line"}
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == Delimiter {
			closing = i
			break
		}
	}
	if closing < 0 {
		return whole, &FrontmatterError{Line: len(lines), Reason: "closing " + Delimiter + " line not found"}
	}

	doc := &Document{
		Body:        strings.Join(lines[closing+1:], "\n"),
		BodyLine:    closing + 2,
		Frontmatter: strings.Join(lines[1:closing], "\n"),
	}

	header, err := parseHeader(lines[1:closing])
	if err != nil {
		return doc, err
	}
	doc.Header = header
	doc.References = ParseReferences(doc.Body, doc.BodyLine)
	return doc, nil
}

// parseHeader reads flat key: value lines. Line numbers in errors are file
// lines, so the first header line is line 2.
func parseHeader(lines []string) (Header, error) {
	h := Header{present: make(map[string]bool)}
	seen := make(map[string]bool)

	for i, line := range lines {
		lineNum := i + FrontmatterLine
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		m := headerLineRe.FindStringSubmatch(line)
		if m == nil {
			return Header{}, &FrontmatterError{Line: lineNum, Reason: "line is not a key: value pair"}
		}
		key := m[1]
		if seen[key] {
			return Header{}, &FrontmatterError{Line: lineNum, Reason: "duplicate key " + key}
		}
		seen[key] = true

		value := decodeScalar(strings.TrimSpace(m[2]))

		switch key {
		case "id":
			h.ID = value
		case "name":
			h.Name = value
		case "type":
			h.Type = value
		default:
			if h.Extra == nil {
				h.Extra = make(map[string]string)
			}
			h.Extra[key] = value
		}
		h.present[key] = true
	}
	return h, nil
}

// decodeScalar unquotes a YAML scalar value. Anything that does not decode
// to a single scalar (flow lists, text containing ": ") is kept verbatim.
func decodeScalar(value string) string {
	if value == "" {
		return ""
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(value), &node); err != nil {
		return value
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 && node.Content[0].Kind == yaml.ScalarNode {
		return node.Content[0].Value
	}
	return value
}
