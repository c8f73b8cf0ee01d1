package taskflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamtaskhq/teamtask-api/internal/models"
)

func newTask(status models.TaskStatus) *models.Task {
	task := &models.Task{ID: 1, Title: "Write report", Status: status}
	if status == models.TaskStatusCompleted {
		done := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		task.CompletedAt = &done
	}
	return task
}

func eventTypes(events []Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		switch e.(type) {
		case TaskCompleted:
			names = append(names, "completed")
		case TaskReopened:
			names = append(names, "reopened")
		case TaskStatusChanged:
			names = append(names, "status_changed")
		case ProjectAutoCompleted:
			names = append(names, "project_auto_completed")
		}
	}
	return names
}

func TestApply_Complete(t *testing.T) {
	task := newTask(models.TaskStatusInProgress)
	now := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)

	events := Apply(task, models.TaskStatusCompleted, now)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)
	assert.Equal(t, []string{"completed", "status_changed"}, eventTypes(events))
}

func TestApply_Reopen(t *testing.T) {
	task := newTask(models.TaskStatusCompleted)

	events := Apply(task, models.TaskStatusTodo, time.Now())

	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, []string{"reopened", "status_changed"}, eventTypes(events))
}

func TestApply_NoOpTransitionOnlyEmitsStatusChanged(t *testing.T) {
	task := newTask(models.TaskStatusInProgress)

	events := Apply(task, models.TaskStatusInProgress, time.Now())

	require.Len(t, events, 1)
	changed, ok := events[0].(TaskStatusChanged)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusInProgress, changed.OldStatus)
	assert.Equal(t, models.TaskStatusInProgress, changed.NewStatus)
	assert.Nil(t, task.CompletedAt)
}

func TestApply_RecompleteKeepsOriginalCompletedAt(t *testing.T) {
	task := newTask(models.TaskStatusCompleted)
	original := *task.CompletedAt

	events := Apply(task, models.TaskStatusCompleted, time.Now())

	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, original, *task.CompletedAt)
	assert.Equal(t, []string{"status_changed"}, eventTypes(events))
}

func TestApply_CompletedAtInvariantHoldsAcrossTransitions(t *testing.T) {
	statuses := []models.TaskStatus{
		models.TaskStatusTodo,
		models.TaskStatusCompleted,
		models.TaskStatusInProgress,
		models.TaskStatusCompleted,
		models.TaskStatusCompleted,
		models.TaskStatusTodo,
	}

	task := newTask(models.TaskStatusTodo)
	for _, next := range statuses {
		Apply(task, next, time.Now())
		if task.Status == models.TaskStatusCompleted {
			assert.NotNil(t, task.CompletedAt)
		} else {
			assert.Nil(t, task.CompletedAt)
		}
	}
}

func TestRecomputeProjectCompletion_AllTasksDone(t *testing.T) {
	project := &models.Project{ID: 7, Status: models.ProjectStatusInProgress}
	tasks := []models.Task{
		{Status: models.TaskStatusCompleted},
		{Status: models.TaskStatusCompleted},
		{Status: models.TaskStatusCompleted},
	}

	changed, event := RecomputeProjectCompletion(project, tasks)

	assert.True(t, changed)
	assert.Equal(t, models.ProjectStatusCompleted, project.Status)
	assert.True(t, project.IsCompleted)
	auto, ok := event.(ProjectAutoCompleted)
	require.True(t, ok)
	assert.Equal(t, project, auto.Project)
}

func TestRecomputeProjectCompletion_IncompleteTaskBlocks(t *testing.T) {
	project := &models.Project{Status: models.ProjectStatusInProgress}
	tasks := []models.Task{
		{Status: models.TaskStatusCompleted},
		{Status: models.TaskStatusInProgress},
	}

	changed, event := RecomputeProjectCompletion(project, tasks)

	assert.False(t, changed)
	assert.Nil(t, event)
	assert.Equal(t, models.ProjectStatusInProgress, project.Status)
	assert.False(t, project.IsCompleted)
}

func TestRecomputeProjectCompletion_EmptyProjectNeverAutoCompletes(t *testing.T) {
	project := &models.Project{Status: models.ProjectStatusTodo}

	changed, event := RecomputeProjectCompletion(project, nil)

	assert.False(t, changed)
	assert.Nil(t, event)
	assert.Equal(t, models.ProjectStatusTodo, project.Status)
}

func TestRecomputeProjectCompletion_Ratchet(t *testing.T) {
	project := &models.Project{Status: models.ProjectStatusInProgress}
	tasks := []models.Task{
		{ID: 1, Status: models.TaskStatusCompleted},
		{ID: 2, Status: models.TaskStatusCompleted},
		{ID: 3, Status: models.TaskStatusTodo},
	}

	// Complete the last task: cascade fires.
	Apply(&tasks[2], models.TaskStatusCompleted, time.Now())
	changed, _ := RecomputeProjectCompletion(project, tasks)
	require.True(t, changed)
	require.Equal(t, models.ProjectStatusCompleted, project.Status)

	// Reopen one task: the project stays completed.
	Apply(&tasks[0], models.TaskStatusTodo, time.Now())
	changed, event := RecomputeProjectCompletion(project, tasks)
	assert.False(t, changed)
	assert.Nil(t, event)
	assert.Equal(t, models.ProjectStatusCompleted, project.Status)
	assert.True(t, project.IsCompleted)
}
