// Package task reads task folders and extracts the frontmatter header, body
// and reference list of their task.md documents.
package task

// FileName is the task document every task folder must contain.
const FileName = "task.md"

// TypeTask is the only recognized value of the type header field.
const TypeTask = "task"

// Header is the typed frontmatter of a task document. Keys other than id,
// name and type are kept in Extra so newer fields survive a round trip.
type Header struct {
	ID    string            `json:"id" yaml:"id"`
	Name  string            `json:"name" yaml:"name"`
	Type  string            `json:"type" yaml:"type"`
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`

	// present records which known keys appeared, empty or not.
	present map[string]bool
}

// Has reports whether key appeared in the frontmatter.
func (h Header) Has(key string) bool {
	return h.present[key]
}

// Document is one task document split into header and body.
type Document struct {
	Header Header

	// Body is the text after the closing frontmatter delimiter. When the
	// frontmatter cannot be delimited it holds the whole raw text.
	Body string

	// BodyLine is the 1-based file line of the first body line.
	BodyLine int

	// Frontmatter is the raw text between the delimiters, starting at file
	// line 2. It is empty when the frontmatter cannot be delimited.
	Frontmatter string

	// Folder is the name of the folder holding the document.
	Folder string

	// Path is the document's file path.
	Path string

	References []Reference
	Siblings   []string
}
