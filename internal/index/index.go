// Package index generates the task index: one entry per well-formed task
// document, validated against the embedded JSON schema.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/boshu2/taskguard/embedded"
	"github.com/boshu2/taskguard/internal/task"
	"github.com/boshu2/taskguard/internal/validate"
)

// ErrSchema is returned when an index does not satisfy the schema.
var ErrSchema = errors.New("task index does not match schema")

// Entry is one indexed task.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Index is the generated index document.
type Index struct {
	Tasks []Entry `json:"tasks"`
}

// Skipped records a task folder left out of the index.
type Skipped struct {
	Folder string `json:"folder"`
	Reason string `json:"reason"`
}

// Build indexes every task folder under root, in folder order. Documents
// whose frontmatter does not extract or lacks required fields are skipped,
// as is any document repeating an id already indexed.
func Build(root string) (*Index, []Skipped, error) {
	dirs, err := task.Discover(root, nil)
	if err != nil {
		return nil, nil, err
	}

	ix := &Index{Tasks: []Entry{}}
	var skipped []Skipped
	seen := make(map[string]string)
	for _, dir := range dirs {
		src, err := task.ReadSource(dir)
		if err != nil {
			return nil, nil, err
		}
		doc, err := src.Document()
		if err != nil {
			skipped = append(skipped, Skipped{Folder: src.Folder, Reason: err.Error()})
			continue
		}
		if problems := validate.RequiredFields(doc.Header); len(problems) > 0 {
			skipped = append(skipped, Skipped{Folder: src.Folder, Reason: problems[0].Message})
			continue
		}
		if prev, dup := seen[doc.Header.ID]; dup {
			skipped = append(skipped, Skipped{Folder: src.Folder, Reason: fmt.Sprintf("duplicate id %q (already in %s)", doc.Header.ID, prev)})
			continue
		}
		seen[doc.Header.ID] = src.Folder
		ix.Tasks = append(ix.Tasks, Entry{
			ID:   doc.Header.ID,
			Name: doc.Header.Name,
			Path: filepath.ToSlash(filepath.Join(root, src.Folder, task.FileName)),
		})
	}
	return ix, skipped, nil
}

// Render encodes the index with two-space indentation and a trailing
// newline, after checking it against the schema.
func (ix *Index) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ix); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	if err := Validate(buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks an encoded index against the embedded schema.
func Validate(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := schema.Validate(obj); err != nil {
		return schemaError(err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(embedded.TaskIndexSchemaName, bytes.NewReader(embedded.TaskIndexSchema)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile(embedded.TaskIndexSchemaName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// schemaError reduces a validation error to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Errorf("%w: %s: %s", ErrSchema, loc, ve.Message)
}

// Write renders the index to path unless dryRun is set.
func Write(path string, ix *Index, dryRun bool) ([]byte, error) {
	data, err := ix.Render()
	if err != nil {
		return nil, err
	}
	if dryRun {
		return data, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	return data, nil
}

// Check reports whether the index at path matches ix byte for byte. A
// missing file is stale, not an error. The message explains staleness.
func Check(path string, ix *Index) (bool, string, error) {
	want, err := ix.Render()
	if err != nil {
		return false, "", err
	}
	got, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Sprintf("STALE %s: missing", path), nil
		}
		return false, "", fmt.Errorf("read index: %w", err)
	}
	if bytes.Equal(got, want) {
		return true, "", nil
	}

	var onDisk Index
	if err := json.Unmarshal(got, &onDisk); err != nil {
		return false, fmt.Sprintf("STALE %s: not valid JSON", path), nil
	}
	return false, fmt.Sprintf("STALE %s: %s", path, diff(onDisk.Tasks, ix.Tasks)), nil
}

func diff(have, want []Entry) string {
	haveIDs := make(map[string]bool, len(have))
	for _, e := range have {
		haveIDs[e.ID] = true
	}
	wantIDs := make(map[string]bool, len(want))
	var added []string
	for _, e := range want {
		wantIDs[e.ID] = true
		if !haveIDs[e.ID] {
			added = append(added, e.ID)
		}
	}
	var removed []string
	for _, e := range have {
		if !wantIDs[e.ID] {
			removed = append(removed, e.ID)
		}
	}
	var parts []string
	if len(added) > 0 {
		parts = append(parts, "missing "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "extra "+strings.Join(removed, ", "))
	}
	if len(parts) == 0 {
		return "entries changed"
	}
	return strings.Join(parts, "; ")
}
