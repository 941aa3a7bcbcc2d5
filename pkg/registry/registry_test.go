// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry_BundledFile(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "task-registry.json"))
	require.NoError(t, err)

	assert.Len(t, reg.Tasks, 7)

	for _, taskType := range []string{
		"predict-rank",
		"match-colleges",
		"seat-matrix",
		"price-subscription",
		"settle-referral",
		"upgrade-subscription",
		"send-notification",
	} {
		task, ok := reg.Task(taskType)
		require.True(t, ok, "registry is missing %s", taskType)
		assert.Equal(t, taskType, task.TaskType)
		assert.NotEmpty(t, task.Category)
		assert.NotEmpty(t, task.Timeout)
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRegistry_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestTask_UnknownTaskType(t *testing.T) {
	reg := &TaskRegistry{Tasks: []Task{{TaskType: "predict-rank"}}}

	_, ok := reg.Task("mint-block")
	assert.False(t, ok)
}

func TestTask_ValidateInput(t *testing.T) {
	task := &Task{
		TaskType: "price-subscription",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"accountId": map[string]interface{}{"type": "string", "minLength": 1},
				"plan": map[string]interface{}{
					"type": "string",
					"enum": []interface{}{"basic", "standard", "premium"},
				},
			},
			"required": []interface{}{"accountId", "plan"},
		},
	}

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{
			name:      "valid input",
			variables: `{"accountId":"acct-1","plan":"standard"}`,
			wantErr:   false,
		},
		{
			name:      "extra fields are tolerated",
			variables: `{"accountId":"acct-1","plan":"basic","referralCode":"ABC"}`,
			wantErr:   false,
		},
		{
			name:      "missing required field",
			variables: `{"plan":"standard"}`,
			wantErr:   true,
		},
		{
			name:      "plan outside enum",
			variables: `{"accountId":"acct-1","plan":"platinum"}`,
			wantErr:   true,
		},
		{
			name:      "wrong type",
			variables: `{"accountId":42,"plan":"basic"}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := task.ValidateInput([]byte(tt.variables))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTask_ValidateInput_NoSchemaAcceptsAnything(t *testing.T) {
	task := &Task{TaskType: "seat-matrix"}
	assert.NoError(t, task.ValidateInput([]byte(`{"anything":true}`)))
}
