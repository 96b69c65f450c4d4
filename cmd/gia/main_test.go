package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/gia/internal/printer"
)

func TestRunWorkflowCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), []string{"gia", "workflow", "--format", "json"}, strings.NewReader(""), &stdout, &stderr)
	require.NoError(t, err)

	var wf printer.WorkflowOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &wf))
	require.Len(t, wf.Nodes, 5)
	assert.Equal(t, "understand_task", wf.Nodes[0].ID)
	assert.Equal(t, "self_correct", wf.Nodes[4].ID)
	assert.False(t, wf.Processing)
}

func TestRunRunCommand(t *testing.T) {
	tests := map[string]struct {
		format    string
		expStdout func(t *testing.T, out string)
	}{
		"JSON format should print only the completed task.": {
			format: "json",
			expStdout: func(t *testing.T, out string) {
				var task printer.TaskOutput
				require.NoError(t, json.Unmarshal([]byte(out), &task))
				assert.Equal(t, "sum two numbers", task.Description)
				assert.Equal(t, "completed", task.Status)
				require.Len(t, task.Steps, 5)
				for _, s := range task.Steps {
					assert.Equal(t, "completed", s.Status)
				}
			},
		},

		"Table format should print the strip on every transition and the completed task.": {
			format: "table",
			expStdout: func(t *testing.T, out string) {
				assert.Equal(t, 6, strings.Count(out, "] sum two numbers\n"))
				assert.Contains(t, out, "[completed] sum two numbers")
				assert.Contains(t, out, "Status:      completed")
				assert.Contains(t, out, "completed after 5ms of simulated work.")
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())

			var stdout, stderr bytes.Buffer
			args := []string{"gia", "--no-color", "run", "--stage-delay", "1ms", "--final-delay", "1ms", "--format", test.format, "sum two numbers"}
			err := Run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
			require.NoError(t, err)

			test.expStdout(t, stdout.String())
		})
	}
}

func TestRunInvalidCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), []string{"gia", "unknown"}, strings.NewReader(""), &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid command configuration")
}
