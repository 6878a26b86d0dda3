package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for the task package.
var (
	// ErrRootNotFound is returned when the task root does not exist.
	ErrRootNotFound = errors.New("task root not found")

	// ErrNotDirectory is returned when a task root or folder is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNoTaskFile is returned when a requested folder has no task.md.
	ErrNoTaskFile = errors.New("folder has no " + FileName)
)

// FrontmatterError describes why a frontmatter block could not be parsed.
type FrontmatterError struct {
	Line   int
	Reason string
}

func (e *FrontmatterError) Error() string {
	return fmt.Sprintf("frontmatter line %d: %s", e.Line, e.Reason)
}
