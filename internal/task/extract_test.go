package task

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validDoc = `---
id: mysql-to-postgresql
name: "MySQL to PostgreSQL"
type: task
owner: data-platform
---

# Migrate MySQL to PostgreSQL

**Prompt:**
Rewrite the DAO layer to use the PostgreSQL driver.

**References:**
- file:///before-mysql.java
- git+file:///after-postgresql.java
- https://jdbc.postgresql.org/documentation/
`

func TestExtractValid(t *testing.T) {
	doc, err := Extract(validDoc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Header.ID != "mysql-to-postgresql" {
		t.Errorf("ID = %q", doc.Header.ID)
	}
	if doc.Header.Name != "MySQL to PostgreSQL" {
		t.Errorf("Name = %q, want unquoted value", doc.Header.Name)
	}
	if doc.Header.Type != TypeTask {
		t.Errorf("Type = %q", doc.Header.Type)
	}
	if doc.Header.Extra["owner"] != "data-platform" {
		t.Errorf("Extra[owner] = %q, unknown keys must be kept", doc.Header.Extra["owner"])
	}
	if doc.BodyLine != 7 {
		t.Errorf("BodyLine = %d, want 7", doc.BodyLine)
	}
	wantHeader := "id: mysql-to-postgresql\nname: \"MySQL to PostgreSQL\"\ntype: task\nowner: data-platform"
	if doc.Frontmatter != wantHeader {
		t.Errorf("Frontmatter = %q, want %q", doc.Frontmatter, wantHeader)
	}
	if !strings.HasPrefix(doc.Body, "\n# Migrate") {
		t.Errorf("Body starts with %q", doc.Body[:20])
	}
}

func TestExtractReferences(t *testing.T) {
	doc, err := Extract(validDoc)
	if err != nil {
		t.Fatal(err)
	}
	want := []Reference{
		{Scheme: SchemeFile, Target: "before-mysql.java", Line: 14},
		{Scheme: SchemeGitFile, Target: "after-postgresql.java", Line: 15},
		{Scheme: SchemeHTTPS, Target: "https://jdbc.postgresql.org/documentation/", Line: 16},
	}
	if len(doc.References) != len(want) {
		t.Fatalf("got %d references, want %d: %+v", len(doc.References), len(want), doc.References)
	}
	for i, r := range want {
		if doc.References[i] != r {
			t.Errorf("reference[%d] = %+v, want %+v", i, doc.References[i], r)
		}
	}
}

func TestExtractMalformed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantLine int
		wantBody string
	}{
		{
			name:     "no opening delimiter",
			raw:      "id: x\n---\nbody",
			wantLine: 1,
			wantBody: "id: x\n---\nbody",
		},
		{
			name:     "no closing delimiter",
			raw:      "---\nid: x\nbody text",
			wantLine: 3,
			wantBody: "---\nid: x\nbody text",
		},
		{
			name:     "bad header line",
			raw:      "---\nid: x\nthis is not a pair\n---\nbody text",
			wantLine: 3,
			wantBody: "body text",
		},
		{
			name:     "duplicate key",
			raw:      "---\nid: x\nid: y\n---\nbody text",
			wantLine: 3,
			wantBody: "body text",
		},
		{
			name:     "nested value",
			raw:      "---\nid: x\n  nested: y\n---\nbody text",
			wantLine: 3,
			wantBody: "body text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Extract(tt.raw)
			var fmErr *FrontmatterError
			if !errors.As(err, &fmErr) {
				t.Fatalf("Extract() error = %v, want *FrontmatterError", err)
			}
			if fmErr.Line != tt.wantLine {
				t.Errorf("error line = %d, want %d", fmErr.Line, tt.wantLine)
			}
			if doc == nil {
				t.Fatal("Extract() must return a document on failure")
			}
			if doc.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", doc.Body, tt.wantBody)
			}
		})
	}
}

func TestExtractMalformedLineOmitsContent(t *testing.T) {
	_, err := Extract("---\nid: x\npassword hunter2secret\n---\nbody")
	var fmErr *FrontmatterError
	if !errors.As(err, &fmErr) {
		t.Fatalf("Extract() error = %v, want *FrontmatterError", err)
	}
	if fmErr.Line != 3 {
		t.Errorf("error line = %d, want 3", fmErr.Line)
	}
	if strings.Contains(err.Error(), "hunter2secret") {
		t.Errorf("error %q repeats the header line", err)
	}
}

func TestExtractCommentsAndCRLF(t *testing.T) {
	raw := "---\r\n# comment\r\nid: a\r\n\r\nname: A\r\ntype: task\r\n---\r\nbody\r\n"
	doc, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Header.ID != "a" || doc.Header.Name != "A" {
		t.Errorf("header = %+v", doc.Header)
	}
	if strings.Contains(doc.Body, "\r") {
		t.Error("body should be normalized to LF")
	}
	if !doc.Header.Has("type") || doc.Header.Has("owner") {
		t.Error("Has() should report present keys only")
	}
}

func TestParseReferencesStopsAtNextSection(t *testing.T) {
	body := strings.Join([]string{
		"**References:** file:///inline.java",
		"- file:///a.java",
		"**Notes:**",
		"- file:///not-a-reference.java",
	}, "\n")
	refs := ParseReferences(body, 10)
	if len(refs) != 2 {
		t.Fatalf("got %d references, want 2: %+v", len(refs), refs)
	}
	if refs[0].Target != "inline.java" || refs[0].Line != 10 {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Target != "a.java" || refs[1].Line != 11 {
		t.Errorf("refs[1] = %+v", refs[1])
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b-task", "a-task"} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, FileName), []byte(validDoc), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "no-task"), 0755); err != nil {
		t.Fatal(err)
	}

	dirs, err := Discover(root, nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(dirs) != 2 || filepath.Base(dirs[0]) != "a-task" || filepath.Base(dirs[1]) != "b-task" {
		t.Errorf("Discover() = %v", dirs)
	}

	dirs, err = Discover(root, []string{"b-task"})
	if err != nil || len(dirs) != 1 {
		t.Errorf("Discover(only) = %v, %v", dirs, err)
	}

	if _, err := Discover(root, []string{"no-task"}); !errors.Is(err, ErrNoTaskFile) {
		t.Errorf("Discover(no-task) error = %v, want ErrNoTaskFile", err)
	}
	if _, err := Discover(filepath.Join(root, "missing"), nil); !errors.Is(err, ErrRootNotFound) {
		t.Errorf("Discover(missing) error = %v, want ErrRootNotFound", err)
	}
}

func TestReadSource(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mysql-to-postgresql")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		FileName:           validDoc,
		"before-mysql.java": "class A {}",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	src, err := ReadSource(dir)
	if err != nil {
		t.Fatalf("ReadSource() error = %v", err)
	}
	if src.Folder != "mysql-to-postgresql" {
		t.Errorf("Folder = %q", src.Folder)
	}
	if len(src.Siblings) != 1 || src.Siblings[0] != "before-mysql.java" {
		t.Errorf("Siblings = %v, want only regular files other than task.md", src.Siblings)
	}

	doc, err := src.Document()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Siblings) != 1 || doc.Siblings[0] != "before-mysql.java" {
		t.Errorf("doc.Siblings = %v, want the source siblings", doc.Siblings)
	}
}
