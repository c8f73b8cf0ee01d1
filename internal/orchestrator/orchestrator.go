// Package orchestrator sequences every mutation through the same lifecycle:
// authorize, persist, apply cascade, notify, invalidate. Authorization and
// the primary write fail loud; cascade persistence, notification fan-out and
// cache bookkeeping fail soft and only log.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/notify"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"github.com/teamtaskhq/teamtask-api/internal/roles"
	"gorm.io/gorm"
)

var (
	// ErrUnauthorized means the actor's role or ownership failed the check;
	// no write was attempted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation means the input was rejected before persistence.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the target entity does not exist in the actor's
	// organization.
	ErrNotFound = errors.New("not found")
	// ErrRemoteWrite means the primary persistence call failed; no local
	// state was changed and the same action may be retried.
	ErrRemoteWrite = errors.New("remote write failed")
	// ErrTransferIncomplete means a superadmin transfer promoted the new
	// holder but the compensating demote failed even after retry. The
	// organization transiently has two superadmins; re-running the same
	// action completes the demote.
	ErrTransferIncomplete = errors.New("superadmin transfer incomplete")
)

// Orchestrator is the façade every mutation goes through. All collaborators
// arrive via the constructor; it holds no per-call state and is safe to
// invoke re-entrantly.
type Orchestrator struct {
	tasks       repository.TaskRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	hierarchy   roles.Hierarchy
	notifier    *notify.Notifier
	invalidator *cache.Invalidator
	log         *logrus.Logger
	now         func() time.Time
}

func New(
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	hierarchy roles.Hierarchy,
	notifier *notify.Notifier,
	invalidator *cache.Invalidator,
	log *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		tasks:       tasks,
		projects:    projects,
		users:       users,
		hierarchy:   hierarchy,
		notifier:    notifier,
		invalidator: invalidator,
		log:         log,
		now:         time.Now,
	}
}

// Execute runs one mutation to completion or failure. The returned Result is
// only valid when err is nil, except for ErrTransferIncomplete where the
// promote half of a transfer has already been applied.
func (o *Orchestrator) Execute(ctx context.Context, session Session, action Action) (*Result, error) {
	mutationID := uuid.NewString()
	log := o.log.WithFields(logrus.Fields{
		"mutation_id": mutationID,
		"actor_id":    session.ActorID,
		"action":      fmt.Sprintf("%T", action),
	})
	log.WithField("state", StateAuthorizing).Debug("mutation started")

	var (
		result *Result
		err    error
	)

	switch a := action.(type) {
	case CreateTask:
		result, err = o.createTask(ctx, session, a, mutationID)
	case UpdateTask:
		result, err = o.updateTask(ctx, session, a, mutationID)
	case ChangeTaskStatus:
		result, err = o.changeTaskStatus(ctx, session, a, mutationID)
	case DeleteTask:
		result, err = o.deleteTask(ctx, session, a, mutationID)
	case AssignTask:
		result, err = o.assignTask(ctx, session, a, mutationID)
	case CreateProject:
		result, err = o.createProject(ctx, session, a, mutationID)
	case UpdateProject:
		result, err = o.updateProject(ctx, session, a, mutationID)
	case DeleteProject:
		result, err = o.deleteProject(ctx, session, a, mutationID)
	case ChangeUserRole:
		result, err = o.changeUserRole(ctx, session, a, mutationID)
	default:
		return nil, fmt.Errorf("%w: unknown action %T", ErrValidation, action)
	}

	if err != nil {
		log.WithField("state", StateFailed).WithError(err).Info("mutation failed")
		return result, err
	}

	log.WithField("state", StateDone).Debug("mutation done")
	return result, nil
}

// loadTask fetches a task and enforces tenant scope. A task outside the
// actor's organization reads as absent.
func (o *Orchestrator) loadTask(session Session, taskID uint64) (*models.Task, error) {
	task, err := o.tasks.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if task.OrganizationID != session.OrganizationID {
		return nil, ErrNotFound
	}
	return task, nil
}

// loadProject fetches a project and enforces tenant scope.
func (o *Orchestrator) loadProject(session Session, projectID uint64) (*models.Project, error) {
	project, err := o.projects.FindByID(projectID, "TeamMembers")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	if project.OrganizationID != session.OrganizationID {
		return nil, ErrNotFound
	}
	return project, nil
}

// canMutateTask implements the shared task-mutation rule: the assignee, the
// creator, or any role at manager level and above.
func (o *Orchestrator) canMutateTask(session Session, task *models.Task) bool {
	if task.CreatorID == session.ActorID {
		return true
	}
	for _, id := range task.AssigneeIDs() {
		if id == session.ActorID {
			return true
		}
	}
	return o.hierarchy.HasAccess(session.Role, models.RoleManager)
}

// canWriteToProject reports whether the actor may attach work to a project.
func (o *Orchestrator) canWriteToProject(session Session, project *models.Project) bool {
	if project.ManagerID == session.ActorID {
		return true
	}
	for _, m := range project.TeamMembers {
		if m.UserID == session.ActorID {
			return true
		}
	}
	return o.hierarchy.HasAccess(session.Role, models.RoleManager)
}

// invalidate runs cache invalidation synchronously; a failure is logged and
// swallowed so the user never loses a committed write over cache bookkeeping.
func (o *Orchestrator) invalidate(ctx context.Context, mutationID string, mutation cache.Mutation, ref cache.EntityRef) {
	if err := o.invalidator.Invalidate(ctx, mutation, ref); err != nil {
		o.log.WithFields(logrus.Fields{
			"mutation_id": mutationID,
			"mutation":    mutation,
		}).WithError(err).Error("cache invalidation failed, views may be stale until refetch")
	}
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	result := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func unionIDs(a, b []uint64) []uint64 {
	return uniqueIDs(append(append([]uint64{}, a...), b...))
}
