package repository

import (
	"context"
	"time"

	"github.com/teamtaskhq/teamtask-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListByProject returns every task owned by a project
	ListByProject(projectID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task and its assignments
	Delete(id uint64) error

	// ReplaceAssignments swaps a task's assignment rows for the given set
	ReplaceAssignments(taskID uint64, userIDs []uint64) error

	// CountUsersByIDs counts how many of the given user IDs belong to the organization
	CountUsersByIDs(userIDs []uint64, organizationID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationID uint64
	ProjectID      *uint64
	Status         *models.TaskStatus
	CreatorID      *uint64
	AssignedUserID *uint64
	DeadlineFrom   *time.Time
	DeadlineTo     *time.Time
	SortByDeadline bool
	Page           int
	PageSize       int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// List retrieves all projects of an organization
	List(organizationID uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete soft deletes a project; its tasks keep existing without a project
	Delete(id uint64) error

	// ReplaceMembers swaps the project's team member rows for the given set
	ReplaceMembers(projectID uint64, userIDs []uint64) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithOrganization creates a user and a new organization the user
	// will lead, within a single transaction.
	CreateWithOrganization(user *models.User, org *models.Organization) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByRole finds the user holding a role within an organization
	FindByRole(organizationID uint64, role models.Role) (*models.User, error)

	// ListByOrganization lists all users of an organization
	ListByOrganization(organizationID uint64) ([]models.User, error)

	// UpdateRole sets a user's role
	UpdateRole(userID uint64, role models.Role) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create inserts a notification row
	Create(ctx context.Context, notification *models.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(userID uint64, limit int) ([]models.Notification, error)

	// MarkRead marks one of the user's notifications as read
	MarkRead(id, userID uint64) error
}
