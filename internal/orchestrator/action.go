package orchestrator

import (
	"time"

	"github.com/teamtaskhq/teamtask-api/internal/models"
)

// Session identifies the authenticated actor for one Execute call. It is
// supplied by the identity layer and passed explicitly; the orchestrator
// never reads ambient state.
type Session struct {
	ActorID        uint64
	Role           models.Role
	OrganizationID uint64
}

// Action is the closed set of mutations the orchestrator executes. Handlers
// construct one concrete action per UI operation.
type Action interface {
	isAction()
}

type CreateTask struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Deadline    *time.Time
	ProjectID   *uint64
	AssigneeIDs []uint64
}

type UpdateTask struct {
	TaskID        uint64
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	Deadline      *time.Time
	ClearDeadline bool
}

type ChangeTaskStatus struct {
	TaskID uint64
	Status models.TaskStatus
}

type DeleteTask struct {
	TaskID uint64
}

type AssignTask struct {
	TaskID      uint64
	AssigneeIDs []uint64
}

type CreateProject struct {
	Title         string
	Description   string
	ManagerID     uint64
	TeamMemberIDs []uint64
}

type UpdateProject struct {
	ProjectID   uint64
	Title       *string
	Description *string
	Status      *models.ProjectStatus
}

type DeleteProject struct {
	ProjectID uint64
}

type ChangeUserRole struct {
	TargetUserID uint64
	NewRole      models.Role
}

func (CreateTask) isAction()       {}
func (UpdateTask) isAction()       {}
func (ChangeTaskStatus) isAction() {}
func (DeleteTask) isAction()       {}
func (AssignTask) isAction()       {}
func (CreateProject) isAction()    {}
func (UpdateProject) isAction()    {}
func (DeleteProject) isAction()    {}
func (ChangeUserRole) isAction()   {}

// State names one phase of the mutation lifecycle, used for logging and for
// the terminal state reported in Result.
type State string

const (
	StateIdle           State = "idle"
	StateAuthorizing    State = "authorizing"
	StatePersisting     State = "persisting"
	StateApplyingCascade State = "applying_cascade"
	StateNotifying      State = "notifying"
	StateInvalidating   State = "invalidating"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Result is the caller-visible outcome of Execute. Exactly one of Task,
// Project, User is set depending on the action kind; delete actions set none.
type Result struct {
	MutationID string
	State      State
	Task       *models.Task
	Project    *models.Project
	User       *models.User
}

// RoleChangeRequest is the derived, unpersisted shape of a role change; it
// records whether the request must resolve as a superadmin transfer.
type RoleChangeRequest struct {
	TargetUserID               uint64
	CurrentRole                models.Role
	RequestedRole              models.Role
	RequiresSuperadminTransfer bool
	CurrentSuperadminID        *uint64
}
