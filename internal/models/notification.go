package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType identifies the domain event behind a notification.
type NotificationType string

const (
	NotificationTaskDeadline     NotificationType = "TASK_DEADLINE"
	NotificationTaskAssigned     NotificationType = "TASK_ASSIGNED"
	NotificationTeamMemberJoined NotificationType = "TEAM_MEMBER_JOINED"
	NotificationTeamMemberLeft   NotificationType = "TEAM_MEMBER_LEFT"
)

// Notification is append-only: after creation only IsRead changes, and only
// the addressee may flip it.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"size:30;not null"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	TaskID    *uint            `json:"task_id"`
	Data      datatypes.JSON   `json:"data"`
	IsRead    bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time        `json:"created_at"`
}
