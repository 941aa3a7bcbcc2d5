// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*TaskRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TaskRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse task registry: %w", err)
	}
	return &reg, nil
}

// Task looks up a registry entry by its task type.
func (r *TaskRegistry) Task(taskType string) (*Task, bool) {
	for i := range r.Tasks {
		if r.Tasks[i].TaskType == taskType {
			return &r.Tasks[i], true
		}
	}
	return nil, false
}

// ValidateInput checks raw job variables against the task's input schema.
// A task without a schema accepts anything.
func (t *Task) ValidateInput(variables []byte) error {
	if len(t.InputSchema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(t.InputSchema),
		gojsonschema.NewBytesLoader(variables),
	)
	if err != nil {
		return fmt.Errorf("validate input for %s: %w", t.TaskType, err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return fmt.Errorf("input for %s does not match schema: %s", t.TaskType, strings.Join(details, "; "))
}
