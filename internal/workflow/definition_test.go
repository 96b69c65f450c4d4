package workflow_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/gia/internal/model"
	"github.com/slok/gia/internal/workflow"
)

func TestDefinitionYAMLRepositoryGetDefinition(t *testing.T) {
	tests := map[string]struct {
		fs       fstest.MapFS
		path     string
		expNodes []model.WorkflowNode
		expErr   bool
	}{
		"A valid workflow should load with all the nodes idle": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`
nodes:
  - name: understand_task
    title: Understand
    description: Analyze
    output: done
  - name: execute_code
    title: Execute
    depends_on: [understand_task]
`)},
			},
			path: "wf.yaml",
			expNodes: []model.WorkflowNode{
				{ID: model.StepTypeUnderstandTask, Name: "Understand", Description: "Analyze", Status: model.NodeStatusIdle, Dependencies: []string{}, Output: "done"},
				{ID: model.StepTypeExecuteCode, Name: "Execute", Status: model.NodeStatusIdle, Dependencies: []string{"understand_task"}},
			},
		},

		"A missing file should fail": {
			fs:     fstest.MapFS{},
			path:   "wf.yaml",
			expErr: true,
		},

		"Invalid YAML should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`nodes: [`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},

		"A workflow without nodes should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`desc: empty`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},

		"An unknown stage type should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`
nodes:
  - name: deploy
    title: Deploy
`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},

		"A stage without title should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`
nodes:
  - name: understand_task
`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},

		"A duplicated stage should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`
nodes:
  - name: understand_task
    title: A
  - name: understand_task
    title: B
`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},

		"A dependency on a later stage should fail": {
			fs: fstest.MapFS{
				"wf.yaml": &fstest.MapFile{Data: []byte(`
nodes:
  - name: understand_task
    title: A
    depends_on: [generate_code]
  - name: generate_code
    title: B
`)},
			},
			path:   "wf.yaml",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			repo := workflow.NewDefinitionYAMLRepository(test.fs)
			nodes, err := repo.GetDefinition(context.Background(), test.path)

			if test.expErr {
				assert.Error(err)
			} else {
				require.NoError(err)
				assert.Equal(test.expNodes, nodes)
			}
		})
	}
}

func TestDefaultNodes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	nodes, err := workflow.DefaultNodes(context.Background())
	require.NoError(err)
	require.Len(nodes, 5)

	expIDs := []model.StepType{
		model.StepTypeUnderstandTask,
		model.StepTypeGatherInformation,
		model.StepTypeGenerateCode,
		model.StepTypeExecuteCode,
		model.StepTypeSelfCorrect,
	}
	expNames := []string{"Understand Task", "Gather Info", "Generate Code", "Execute", "Optimize"}
	for i, n := range nodes {
		assert.Equal(expIDs[i], n.ID)
		assert.Equal(expNames[i], n.Name)
		assert.Equal(model.NodeStatusIdle, n.Status)
		assert.NotEmpty(n.Output)
		if i == 0 {
			assert.Empty(n.Dependencies)
		} else {
			assert.Equal([]string{string(expIDs[i-1])}, n.Dependencies)
		}
	}
}
