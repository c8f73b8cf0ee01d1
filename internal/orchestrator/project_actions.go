package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/models"
)

func (o *Orchestrator) createProject(ctx context.Context, session Session, action CreateProject, mutationID string) (*Result, error) {
	// Authorizing
	if !o.hierarchy.HasAccess(session.Role, models.RoleManager) {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(action.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	managerID := action.ManagerID
	if managerID == 0 {
		managerID = session.ActorID
	}

	memberIDs := uniqueIDs(action.TeamMemberIDs)
	if len(memberIDs) > 0 {
		if err := o.verifyAssignees(session, memberIDs); err != nil {
			return nil, err
		}
	}

	// Persisting
	project := &models.Project{
		Title:          action.Title,
		Description:    action.Description,
		Status:         models.ProjectStatusTodo,
		ManagerID:      managerID,
		OrganizationID: session.OrganizationID,
	}

	if err := o.projects.Create(project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	if len(memberIDs) > 0 {
		if err := o.projects.ReplaceMembers(project.ID, memberIDs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
		}
	}

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationProjectCreated, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      &project.ID,
	})

	return &Result{MutationID: mutationID, State: StateDone, Project: project}, nil
}

func (o *Orchestrator) updateProject(ctx context.Context, session Session, action UpdateProject, mutationID string) (*Result, error) {
	// Authorizing: the project's manager, or admin level and above.
	project, err := o.loadProject(session, action.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ManagerID != session.ActorID && !o.hierarchy.HasAccess(session.Role, models.RoleAdmin) {
		return nil, ErrUnauthorized
	}

	if action.Title != nil && strings.TrimSpace(*action.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if action.Status != nil {
		switch *action.Status {
		case models.ProjectStatusTodo, models.ProjectStatusInProgress, models.ProjectStatusCompleted:
		default:
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *action.Status)
		}
	}

	// Persisting
	if action.Title != nil {
		project.Title = *action.Title
	}
	if action.Description != nil {
		project.Description = *action.Description
	}
	if action.Status != nil {
		// A manual status change overrides the cascade; the redundant flag
		// must follow the enum.
		project.Status = *action.Status
		project.IsCompleted = *action.Status == models.ProjectStatusCompleted
	}

	if err := o.projects.Update(project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// Invalidating
	o.invalidate(ctx, mutationID, cache.MutationProjectUpdated, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      &project.ID,
	})

	return &Result{MutationID: mutationID, State: StateDone, Project: project}, nil
}

func (o *Orchestrator) deleteProject(ctx context.Context, session Session, action DeleteProject, mutationID string) (*Result, error) {
	// Authorizing
	project, err := o.loadProject(session, action.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ManagerID != session.ActorID && !o.hierarchy.HasAccess(session.Role, models.RoleAdmin) {
		return nil, ErrUnauthorized
	}

	// Persisting
	if err := o.projects.Delete(project.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}

	// Invalidating: orphaned tasks change shape in the org task list too.
	o.invalidate(ctx, mutationID, cache.MutationProjectDeleted, cache.EntityRef{
		OrganizationID: session.OrganizationID,
		ProjectID:      &project.ID,
	})

	return &Result{MutationID: mutationID, State: StateDone}, nil
}
