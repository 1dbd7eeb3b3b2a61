// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"support-router/internal/common/validation"
)

const DefaultPath = "configs/activity-registry.json"

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks that task types are unique and every declared input schema compiles.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.TaskType == "" {
			return fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true

		if a.InputSchema != nil {
			if _, err := a.inputSchema(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find returns the activity for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Missing lists the task types that have no registry entry.
func (r *ActivityRegistry) Missing(taskTypes ...string) []string {
	var missing []string
	for _, tt := range taskTypes {
		if _, ok := r.Find(tt); !ok {
			missing = append(missing, tt)
		}
	}
	return missing
}

func (a Activity) inputSchema() (*validation.Schema, error) {
	raw, err := json.Marshal(a.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("encode %s input schema: %w", a.TaskType, err)
	}
	return validation.Compile(a.TaskType+" input", string(raw))
}

// ValidateInput checks job variables against the activity's input schema, if it has one.
func (a Activity) ValidateInput(variables []byte) error {
	if a.InputSchema == nil {
		return nil
	}
	schema, err := a.inputSchema()
	if err != nil {
		return err
	}
	return schema.ValidateBytes(variables)
}
