// Package embedded provides files compiled into the taskguard binary.
package embedded

import _ "embed"

// TaskIndexSchemaName is the resource name the task index schema is
// registered under.
const TaskIndexSchemaName = "task-index.schema.json"

// TaskIndexSchema is the JSON schema of the generated task index.
//
//go:embed schemas/task-index.schema.json
var TaskIndexSchema []byte
