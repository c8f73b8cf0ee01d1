// Package taskflow holds the task/project status state machine: pure
// transition functions over model values, no I/O. Persistence of the results
// is the orchestrator's job.
package taskflow

import (
	"time"

	"github.com/teamtaskhq/teamtask-api/internal/models"
)

// Apply transitions a task to newStatus in place and returns the resulting
// events. Any status is reachable from any other; a COMPLETED → TODO move is
// a reopen. Invariant maintained: CompletedAt is set iff status is COMPLETED.
func Apply(task *models.Task, newStatus models.TaskStatus, now time.Time) []Event {
	oldStatus := task.Status
	task.Status = newStatus

	events := make([]Event, 0, 2)

	if newStatus == models.TaskStatusCompleted {
		// Keep the original completion time on a no-op re-complete.
		if task.CompletedAt == nil {
			t := now
			task.CompletedAt = &t
		}
		if oldStatus != models.TaskStatusCompleted {
			events = append(events, TaskCompleted{Task: task})
		}
	} else {
		task.CompletedAt = nil
		if oldStatus == models.TaskStatusCompleted {
			events = append(events, TaskReopened{Task: task})
		}
	}

	events = append(events, TaskStatusChanged{
		Task:      task,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})

	return events
}

// RecomputeProjectCompletion applies the completion cascade: when every task
// of a non-empty project is COMPLETED and the project is not, the project is
// closed. The cascade is a ratchet: it never reopens a project, so a reopen
// of the last incomplete task leaves a completed project completed.
//
// Returns true with a ProjectAutoCompleted event when the project was
// mutated; callers persist the change and treat a persistence failure there
// as a recoverable inconsistency, never as a reason to undo the task write.
func RecomputeProjectCompletion(project *models.Project, tasks []models.Task) (bool, Event) {
	if project == nil || len(tasks) == 0 {
		return false, nil
	}
	if project.Status == models.ProjectStatusCompleted {
		return false, nil
	}

	for i := range tasks {
		if tasks[i].Status != models.TaskStatusCompleted {
			return false, nil
		}
	}

	project.Status = models.ProjectStatusCompleted
	project.IsCompleted = true

	return true, ProjectAutoCompleted{Project: project}
}
