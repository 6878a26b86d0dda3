package scan

import "fmt"

// InfraError is a fatal run error: the task root or a task folder could not
// be read. Problems inside a document are findings, never InfraErrors.
type InfraError struct {
	Op   string
	Path string
	Err  error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *InfraError) Unwrap() error { return e.Err }
