package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeTaskAssigned     NotificationType = "TASK_ASSIGNED"
	NotificationTypeSelfTaskAssigned NotificationType = "SELF_TASK_ASSIGNED"
)

type Notification struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	UserID         uint64           `gorm:"not null;index" json:"user_id"`
	OrganizationID uint64           `gorm:"not null;index" json:"organization_id"`
	Type           NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title          string           `gorm:"type:varchar(255);not null" json:"title"`
	Content        string           `gorm:"type:text" json:"content"`
	Metadata       string           `gorm:"type:text" json:"metadata"`
	ReadAt         *time.Time       `json:"read_at"`
	CreatedAt      time.Time        `json:"created_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
