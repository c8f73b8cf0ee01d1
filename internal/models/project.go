package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusTodo       ProjectStatus = "TODO"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
)

// Project keeps IsCompleted alongside Status for compatibility with the
// persisted shape; the two must stay in sync (IsCompleted iff Status is
// COMPLETED).
type Project struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         ProjectStatus  `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	IsCompleted    bool           `gorm:"not null;default:false" json:"is_completed"`
	ManagerID      uint64         `gorm:"not null" json:"manager_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Manager      User            `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Organization Organization    `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	TeamMembers  []ProjectMember `gorm:"foreignKey:ProjectID" json:"team_members,omitempty"`
	Tasks        []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

type ProjectMember struct {
	ProjectID uint64         `gorm:"primarykey" json:"project_id"`
	UserID    uint64         `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
