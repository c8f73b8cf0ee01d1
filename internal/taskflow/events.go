package taskflow

import "github.com/teamtaskhq/teamtask-api/internal/models"

// Event is a closed set of state-machine outcomes. Consumers switch on the
// concrete type; adding a variant is a compile-visible change at every
// dispatch site that lists the set exhaustively.
type Event interface {
	event()
}

// TaskStatusChanged is emitted on every Apply call, including no-op
// transitions where OldStatus equals NewStatus.
type TaskStatusChanged struct {
	Task      *models.Task
	OldStatus models.TaskStatus
	NewStatus models.TaskStatus
}

// TaskCompleted is emitted when a task reaches COMPLETED.
type TaskCompleted struct {
	Task *models.Task
}

// TaskReopened is emitted when a task leaves COMPLETED for any other status.
type TaskReopened struct {
	Task *models.Task
}

// ProjectAutoCompleted is emitted when the completion cascade closes a
// project.
type ProjectAutoCompleted struct {
	Project *models.Project
}

func (TaskStatusChanged) event()    {}
func (TaskCompleted) event()        {}
func (TaskReopened) event()         {}
func (ProjectAutoCompleted) event() {}
