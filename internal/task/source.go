package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Source is a task folder read from disk.
type Source struct {
	Dir      string
	Folder   string
	Path     string
	Raw      string
	Siblings []string
}

// Discover returns the task folders under root that contain a task.md,
// sorted by folder name. When only is non-empty just those folder names are
// returned, and a named folder without a task.md is an error.
func Discover(root string, only []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("stat task root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	if len(only) > 0 {
		dirs := make([]string, 0, len(only))
		for _, name := range only {
			dir := filepath.Join(root, filepath.Base(name))
			if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil, fmt.Errorf("%w: %s", ErrNoTaskFile, dir)
				}
				return nil, fmt.Errorf("stat %s: %w", dir, err)
			}
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		return dirs, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read task root: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			dirs = append(dirs, dir)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", dir, err)
		}
	}
	// os.ReadDir already sorts by name; keep the contract explicit.
	sort.Strings(dirs)
	return dirs, nil
}

// ReadSource loads task.md and the list of sibling files from dir.
func ReadSource(dir string) (*Source, error) {
	path := filepath.Join(dir, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var siblings []string
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != FileName {
			siblings = append(siblings, e.Name())
		}
	}

	return &Source{
		Dir:      dir,
		Folder:   filepath.Base(dir),
		Path:     path,
		Raw:      string(raw),
		Siblings: siblings,
	}, nil
}

// Document extracts the task document. The returned Document is never nil;
// see Extract for the error contract.
func (s *Source) Document() (*Document, error) {
	doc, err := Extract(s.Raw)
	doc.Folder = s.Folder
	doc.Path = s.Path
	doc.Siblings = s.Siblings
	return doc, err
}
