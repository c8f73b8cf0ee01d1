package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task carries both a single-assignee column and a multi-assignee join table.
// The persisted shape keeps both; AssigneeIDs() merges them for callers that
// need the effective assignee set.
type Task struct {
	ID             uint64       `gorm:"primarykey" json:"id"`
	Title          string       `gorm:"not null" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Status         TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	Priority       TaskPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Deadline       *time.Time   `json:"deadline"`
	CompletedAt    *time.Time   `json:"completed_at"`
	ProjectID      *uint64      `gorm:"index" json:"project_id"`
	AssignedToID   *uint64      `gorm:"index" json:"assigned_to_id"`
	CreatorID      uint64       `gorm:"not null" json:"creator_id"`
	OrganizationID uint64       `gorm:"not null;index" json:"organization_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator      User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Organization Organization     `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Project      *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignments  []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// AssigneeIDs returns the union of the single-assignee column and the
// assignment rows, deduplicated, in stable order.
func (t *Task) AssigneeIDs() []uint64 {
	seen := make(map[uint64]struct{})
	ids := make([]uint64, 0, len(t.Assignments)+1)

	if t.AssignedToID != nil {
		seen[*t.AssignedToID] = struct{}{}
		ids = append(ids, *t.AssignedToID)
	}
	for _, a := range t.Assignments {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		ids = append(ids, a.UserID)
	}

	return ids
}
