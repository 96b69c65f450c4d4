package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/gia/internal/model"
)

func TestTaskValidate(t *testing.T) {
	tests := map[string]struct {
		task   model.Task
		expErr bool
	}{
		"A valid task should not fail": {
			task: model.Task{
				ID:          "01HZ",
				Description: "scrape the weather",
				Status:      model.TaskStatusProcessing,
				Steps: []model.TaskStep{
					{ID: "s1", Name: "Understand Task", Type: model.StepTypeUnderstandTask, Status: model.TaskStatusPending},
				},
			},
		},

		"Missing ID should fail": {
			task: model.Task{
				Description: "scrape the weather",
				Status:      model.TaskStatusProcessing,
			},
			expErr: true,
		},

		"Blank description should fail": {
			task: model.Task{
				ID:          "01HZ",
				Description: "  \t ",
				Status:      model.TaskStatusProcessing,
			},
			expErr: true,
		},

		"Unknown status should fail": {
			task: model.Task{
				ID:          "01HZ",
				Description: "scrape the weather",
				Status:      "running",
			},
			expErr: true,
		},

		"Unknown step type should fail": {
			task: model.Task{
				ID:          "01HZ",
				Description: "scrape the weather",
				Status:      model.TaskStatusPending,
				Steps: []model.TaskStep{
					{ID: "s1", Type: "deploy", Status: model.TaskStatusPending},
				},
			},
			expErr: true,
		},

		"Unknown step status should fail": {
			task: model.Task{
				ID:          "01HZ",
				Description: "scrape the weather",
				Status:      model.TaskStatusPending,
				Steps: []model.TaskStep{
					{ID: "s1", Type: model.StepTypeExecuteCode, Status: "done"},
				},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.task.Validate()

			if test.expErr {
				assert.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestTaskCopy(t *testing.T) {
	assert := assert.New(t)

	orig := model.Task{
		ID:    "01HZ",
		Steps: []model.TaskStep{{ID: "s1", Status: model.TaskStatusPending}},
	}
	c := orig.Copy()
	c.Steps[0].Status = model.TaskStatusCompleted

	assert.Equal(model.TaskStatusPending, orig.Steps[0].Status)
	assert.Equal(model.TaskStatusCompleted, c.Steps[0].Status)
}
