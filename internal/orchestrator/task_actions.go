package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/taskflow"
)

func (o *Orchestrator) createTask(ctx context.Context, session Session, action CreateTask, mutationID string) (*Result, error) {
	// Authorizing
	if strings.TrimSpace(action.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	var project *models.Project
	if action.ProjectID != nil {
		var err error
		project, err = o.loadProject(session, *action.ProjectID)
		if err != nil {
			return nil, err
		}
		if !o.canWriteToProject(session, project) {
			return nil, ErrUnauthorized
		}
	}

	assigneeIDs := uniqueIDs(action.AssigneeIDs)
	if len(assigneeIDs) > 0 {
		if err := o.verifyAssignees(session, assigneeIDs); err != nil {
			return nil, err
		}
	}

	// Persisting
	priority := action.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:          action.Title,
		Description:    action.Description,
		Status:         models.TaskStatusTodo,
		Priority:       priority,
		Deadline:       action.Deadline,
		ProjectID:      action.ProjectID,
		CreatorID:      session.ActorID,
		OrganizationID: session.OrganizationID,
	}
	if len(assigneeIDs) == 1 {
		task.AssignedToID = &assigneeIDs[0]
	}

	if err := o.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	if len(assigneeIDs) > 0 {
		if err := o.tasks.ReplaceAssignments(task.ID, assigneeIDs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	}

	// Notifying
	if len(assigneeIDs) > 0 {
		o.notifyAssignment(session, task, assigneeIDs, mutationID)
	}

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationTaskCreated, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      task.ProjectID,
		UserIDs:        assigneeIDs,
	})

	return &Result{MutationID: mutationID, State: StateDone, Task: task}, nil
}

func (o *Orchestrator) updateTask(ctx context.Context, session Session, action UpdateTask, mutationID string) (*Result, error) {
	// Authorizing
	task, err := o.loadTask(session, action.TaskID)
	if err != nil {
		return nil, err
	}
	if !o.canMutateTask(session, task) {
		return nil, ErrUnauthorized
	}

	if action.Title != nil && strings.TrimSpace(*action.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}

	// Persisting
	if action.Title != nil {
		task.Title = *action.Title
	}
	if action.Description != nil {
		task.Description = *action.Description
	}
	if action.Priority != nil {
		task.Priority = *action.Priority
	}
	if action.ClearDeadline {
		task.Deadline = nil
	} else if action.Deadline != nil {
		task.Deadline = action.Deadline
	}

	if err := o.tasks.Update(task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationTaskUpdated, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      task.ProjectID,
		UserIDs:        task.AssigneeIDs(),
	})

	return &Result{MutationID: mutationID, State: StateDone, Task: task}, nil
}

func (o *Orchestrator) changeTaskStatus(ctx context.Context, session Session, action ChangeTaskStatus, mutationID string) (*Result, error) {
	// Authorizing
	task, err := o.loadTask(session, action.TaskID)
	if err != nil {
		return nil, err
	}
	if !o.canMutateTask(session, task) {
		return nil, ErrUnauthorized
	}

	switch action.Status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, action.Status)
	}

	// Persisting
	taskflow.Apply(task, action.Status, o.now())
	if err := o.tasks.Update(task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// ApplyingCascade
	autoCompleted := o.runCompletionCascade(session, task, mutationID)

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationTaskStatusChanged, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      task.ProjectID,
		UserIDs:        task.AssigneeIDs(),
	})
	if autoCompleted {
		o.invalidate(ctx, mutationID, cache.MutationProjectAutoCompleted, cache.EntityRef{
			OrganizationID: session.OrganizationID,
			ProjectID:      task.ProjectID,
		})
	}

	return &Result{MutationID: mutationID, State: StateDone, Task: task}, nil
}

// runCompletionCascade re-checks project completion after every status
// mutation of a project-owned task, not only completions: the ratchet itself
// decides whether anything changes. A failed project write is a recoverable
// inconsistency; the task's own update stands.
func (o *Orchestrator) runCompletionCascade(session Session, task *models.Task, mutationID string) bool {
	if task.ProjectID == nil {
		return false
	}

	project, err := o.loadProject(session, *task.ProjectID)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id": mutationID,
			"project_id":  *task.ProjectID,
		}).WithError(err).Error("cascade inconsistency: project fetch failed, reconciliation deferred to next fetch")
		return false
	}

	projectTasks, err := o.tasks.ListByProject(project.ID)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id": mutationID,
			"project_id":  project.ID,
		}).WithError(err).Error("cascade inconsistency: task listing failed, reconciliation deferred to next fetch")
		return false
	}

	changed, _ := taskflow.RecomputeProjectCompletion(project, projectTasks)
	if !changed {
		return false
	}

	if err := o.projects.Update(project); err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id": mutationID,
			"project_id":  project.ID,
		}).WithError(err).Error("cascade inconsistency: project completion write failed, task update kept")
		return false
	}

	return true
}

func (o *Orchestrator) deleteTask(ctx context.Context, session Session, action DeleteTask, mutationID string) (*Result, error) {
	// Authorizing: the creator or a manager-level role; assignees may work a
	// task but not remove it.
	task, err := o.loadTask(session, action.TaskID)
	if err != nil {
		return nil, err
	}
	if task.CreatorID != session.ActorID && !o.hierarchy.HasAccess(session.Role, models.RoleManager) {
		return nil, ErrUnauthorized
	}

	assigneeIDs := task.AssigneeIDs()
	projectID := task.ProjectID

	// Persisting. Deletion does not cascade to the project; it simply loses
	// a task reference.
	if err := o.tasks.Delete(task.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationTaskDeleted, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      projectID,
		UserIDs:        assigneeIDs,
	})

	return &Result{MutationID: mutationID, State: StateDone}, nil
}

func (o *Orchestrator) assignTask(ctx context.Context, session Session, action AssignTask, mutationID string) (*Result, error) {
	// Authorizing
	task, err := o.loadTask(session, action.TaskID)
	if err != nil {
		return nil, err
	}
	if !o.canMutateTask(session, task) {
		return nil, ErrUnauthorized
	}

	newAssignees := uniqueIDs(action.AssigneeIDs)
	if len(newAssignees) == 0 {
		return nil, fmt.Errorf("%w: at least one assignee is required", ErrValidation)
	}
	if err := o.verifyAssignees(session, newAssignees); err != nil {
		return nil, err
	}

	// Both the previous and the new assignees' personal views go stale.
	previousAssignees := task.AssigneeIDs()

	// Persisting
	if len(newAssignees) == 1 {
		task.AssignedToID = &newAssignees[0]
	} else {
		task.AssignedToID = nil
	}
	if err := o.tasks.Update(task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if err := o.tasks.ReplaceAssignments(task.ID, newAssignees); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// Notifying
	o.notifyAssignment(session, task, newAssignees, mutationID)

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationTaskAssigned, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      task.ProjectID,
		UserIDs:        unionIDs(previousAssignees, newAssignees),
	})

	return &Result{MutationID: mutationID, State: StateDone, Task: task}, nil
}

// notifyAssignment hands fan-out to the notifier. Failures inside dispatch
// are the notifier's to log; an actor lookup failure here is logged and the
// lifecycle continues.
func (o *Orchestrator) notifyAssignment(session Session, task *models.Task, assigneeIDs []uint64, mutationID string) {
	actor, err := o.users.FindByID(session.ActorID)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id": mutationID,
			"actor_id":    session.ActorID,
		}).WithError(err).Error("skipping assignment notifications, actor lookup failed")
		return
	}
	o.notifier.NotifyAssignment(task, assigneeIDs, actor, mutationID)
}

// verifyAssignees rejects assignees outside the actor's organization.
func (o *Orchestrator) verifyAssignees(session Session, assigneeIDs []uint64) error {
	count, err := o.tasks.CountUsersByIDs(assigneeIDs, session.OrganizationID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if int(count) != len(assigneeIDs) {
		return fmt.Errorf("%w: one or more assignees are not members of the organization", ErrValidation)
	}
	return nil
}
